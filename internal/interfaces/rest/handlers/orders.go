package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gonomads/payment-service/internal/api"
	"github.com/gonomads/payment-service/internal/application"
	"github.com/gonomads/payment-service/internal/application/services"
	"github.com/gonomads/payment-service/internal/domain"
	"github.com/gonomads/payment-service/internal/interfaces/rest"
	"github.com/shopspring/decimal"
)

const maxRequestBody = 64 << 10

func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request, params api.CreateOrderParams) {
	userID, ok := h.caller(w, params.XUserId)
	if !ok {
		return
	}

	var req api.CreateOrderRequest
	if !h.decodeBody(w, r, "CreateOrderRequest", &req) {
		return
	}

	cmd := services.CreateOrderCommand{
		UserID:          userID,
		OrderType:       string(req.OrderType),
		MembershipLevel: req.MembershipLevel,
		DurationDays:    req.DurationDays,
	}
	if req.DepositAmount != nil {
		amount, err := decimal.NewFromString(*req.DepositAmount)
		if err != nil {
			rest.WriteBadRequest(w, fmt.Errorf("deposit_amount: %w", err))
			return
		}
		cmd.DepositAmount = &amount
	}

	result, err := h.orderService.CreateOrder(r.Context(), cmd)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	order := rest.ToAPIOrder(result.Order)
	rest.WriteJSON(w, http.StatusCreated, api.CreateOrderResponse{
		Success: true,
		Message: rest.OptionalString("order created"),
		Data: &api.CreateOrderData{
			Order:       &order,
			ApprovalUrl: rest.Ptr(result.ApprovalURL),
		},
	})
}

func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request, params api.ListOrdersParams) {
	userID, ok := h.caller(w, params.XUserId)
	if !ok {
		return
	}

	page, pageSize := 1, services.DefaultPageSize
	if params.Page != nil {
		page = *params.Page
	}
	if params.PageSize != nil {
		pageSize = *params.PageSize
	}

	result, err := h.orderService.ListOrders(r.Context(), userID, page, pageSize)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	items := rest.ToAPIOrders(result.Orders)
	rest.WriteJSON(w, http.StatusOK, api.OrderListResponse{
		Success: true,
		Data: &api.OrderPage{
			Items:    &items,
			Page:     rest.Ptr(result.Page),
			PageSize: rest.Ptr(result.PageSize),
			Total:    rest.Ptr(result.Total),
		},
	})
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request, orderID api.OrderID, params api.GetOrderParams) {
	userID, ok := h.caller(w, params.XUserId)
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), userID, string(orderID))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	h.writeOrder(w, http.StatusOK, "", order)
}

func (h *Handlers) ListOrderTransactions(w http.ResponseWriter, r *http.Request, orderID api.OrderID, params api.ListOrderTransactionsParams) {
	userID, ok := h.caller(w, params.XUserId)
	if !ok {
		return
	}

	txns, err := h.orderService.ListTransactions(r.Context(), userID, string(orderID))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	items := rest.ToAPITransactions(txns)
	rest.WriteJSON(w, http.StatusOK, api.TransactionListResponse{Success: true, Data: &items})
}

func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request, orderID api.OrderID, params api.CancelOrderParams) {
	userID, ok := h.caller(w, params.XUserId)
	if !ok {
		return
	}

	order, err := h.orderService.CancelOrder(r.Context(), userID, string(orderID))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	h.writeOrder(w, http.StatusOK, "order cancelled", order)
}

// caller returns the user bound from the identity header. The router already rejects a
// missing header, so only a blank value is left to refuse here.
func (h *Handlers) caller(w http.ResponseWriter, header api.UserID) (string, bool) {
	userID := strings.TrimSpace(string(header))
	if userID == "" {
		rest.WriteError(w, application.NewUnauthenticatedError(), h.logger)
		return "", false
	}
	return userID, true
}

func (h *Handlers) writeOrder(w http.ResponseWriter, status int, message string, o *domain.Order) {
	order := rest.ToAPIOrder(o)
	rest.WriteJSON(w, status, api.OrderResponse{
		Success: true,
		Message: rest.OptionalString(message),
		Data:    &order,
	})
}

// decodeBody validates the body against schema before decoding it into dst.
func (h *Handlers) decodeBody(w http.ResponseWriter, r *http.Request, schema string, dst interface{}) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		rest.WriteBadRequest(w, fmt.Errorf("read request body: %w", err))
		return false
	}
	if err := h.doc.ValidateBody(schema, body); err != nil {
		rest.WriteBadRequest(w, err)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		rest.WriteBadRequest(w, fmt.Errorf("decode request body: %w", err))
		return false
	}
	return true
}
