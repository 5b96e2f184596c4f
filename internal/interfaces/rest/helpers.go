package rest

import (
	"github.com/gonomads/payment-service/internal/api"
	"github.com/gonomads/payment-service/internal/domain"
)

// Ptr returns a pointer to v, for the optional fields of the generated models.
func Ptr[T any](v T) *T {
	return &v
}

// OptionalString maps an empty string to an absent field.
func OptionalString(message string) *string {
	if message == "" {
		return nil
	}
	return &message
}

func ToAPIOrder(o *domain.Order) api.Order {
	apiOrder := api.Order{
		Id:                o.ID,
		OrderNumber:       o.OrderNumber,
		OrderType:         string(o.Type),
		UserId:            o.UserID,
		Amount:            o.Amount.StringFixed(2),
		TotalAmount:       o.TotalAmount.StringFixed(2),
		Currency:          o.Currency,
		DurationDays:      o.DurationDays,
		ProviderOrderId:   o.ProviderOrderID,
		ProviderCaptureId: o.ProviderCaptureID,
		PayerId:           o.PayerID,
		PayerEmail:        o.PayerEmail,
		Status:            api.OrderStatus(o.Status),
		ErrorMessage:      o.ErrorMessage,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
		ExpiredAt:         o.ExpiredAt,
		CompletedAt:       o.CompletedAt,
	}

	if o.MembershipLevel != nil {
		level := int(*o.MembershipLevel)
		apiOrder.MembershipLevel = &level
	}

	return apiOrder
}

func ToAPIOrders(orders []*domain.Order) []api.Order {
	apiOrders := make([]api.Order, 0, len(orders))
	for _, o := range orders {
		apiOrders = append(apiOrders, ToAPIOrder(o))
	}
	return apiOrders
}

// ToAPITransactions leaves the raw gateway response out of client answers.
func ToAPITransactions(txns []*domain.PaymentTransaction) []api.Transaction {
	apiTxns := make([]api.Transaction, 0, len(txns))
	for _, t := range txns {
		apiTxns = append(apiTxns, api.Transaction{
			Id:                    Ptr(t.ID),
			OrderId:               Ptr(t.OrderID),
			TransactionType:       Ptr(t.TransactionType),
			Amount:                Ptr(t.Amount.StringFixed(2)),
			Currency:              Ptr(t.Currency),
			Status:                Ptr(string(t.Status)),
			PaymentMethod:         Ptr(t.PaymentMethod),
			ProviderTransactionId: t.ProviderTransactionID,
			ProviderCaptureId:     t.ProviderCaptureID,
			ErrorCode:             t.ErrorCode,
			ErrorMessage:          t.ErrorMessage,
			CreatedAt:             Ptr(t.CreatedAt),
		})
	}
	return apiTxns
}
