package handlers

import (
	"html/template"
	"net/http"
	"net/url"

	"github.com/gonomads/payment-service/internal/api"
)

var redirectPage = template.Must(template.New("redirect").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="0;url={{.DeepLink}}">
<title>{{.Title}}</title>
</head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
<p><a href="{{.DeepLink}}">Return to the app</a></p>
<script>window.location.replace({{.DeepLink}});</script>
</body>
</html>
`))

type redirectView struct {
	Title    string
	Message  string
	DeepLink template.URL
}

// PaymentReturn is where the provider sends the buyer after approval. Capturing stays with
// the app, which receives the token through the deep link.
func (h *Handlers) PaymentReturn(w http.ResponseWriter, r *http.Request, params api.PaymentReturnParams) {
	query := url.Values{"token": {params.Token}}
	if params.PayerID != nil {
		query.Set("PayerID", *params.PayerID)
	}
	h.renderRedirect(w, redirectView{
		Title:    "Payment approved",
		Message:  "Returning you to the app to finish the payment.",
		DeepLink: h.deepLink("payment/success", query),
	})
}

func (h *Handlers) PaymentCancel(w http.ResponseWriter, r *http.Request, params api.PaymentCancelParams) {
	query := url.Values{}
	if params.Token != nil {
		query.Set("token", *params.Token)
	}
	h.renderRedirect(w, redirectView{
		Title:    "Payment cancelled",
		Message:  "The payment was cancelled. Returning you to the app.",
		DeepLink: h.deepLink("payment/cancel", query),
	})
}

func (h *Handlers) deepLink(path string, query url.Values) template.URL {
	link := h.deepLinkScheme + "://" + path
	if len(query) > 0 {
		link += "?" + query.Encode()
	}
	return template.URL(link)
}

func (h *Handlers) renderRedirect(w http.ResponseWriter, view redirectView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := redirectPage.Execute(w, view); err != nil {
		h.logger.Error("failed to render redirect page", "error", err)
	}
}
