package postgres

import (
	"time"

	"github.com/gonomads/payment-service/internal/domain"
)

// toDomainOrder: maps db model to domain entity
func toDomainOrder(m OrderModel) *domain.Order {
	o := &domain.Order{
		ID:                   m.ID,
		OrderNumber:          m.OrderNumber,
		UserID:               m.UserID,
		Type:                 domain.OrderType(m.OrderType),
		Amount:               m.Amount,
		TotalAmount:          m.TotalAmount,
		Currency:             m.Currency,
		DurationDays:         m.DurationDays,
		ProviderOrderID:      m.ProviderOrderID,
		ProviderCaptureID:    m.ProviderCaptureID,
		PayerID:              m.PayerID,
		PayerEmail:           m.PayerEmail,
		Status:               domain.OrderStatus(m.Status),
		ErrorMessage:         m.ErrorMessage,
		Version:              m.Version,
		CreatedAt:            m.CreatedAt.UTC(),
		UpdatedAt:            m.UpdatedAt.UTC(),
		ExpiredAt:            m.ExpiredAt.UTC(),
		CompletedAt:          utcPtr(m.CompletedAt),
		SideEffectsAppliedAt: utcPtr(m.SideEffectsAppliedAt),
	}
	if m.MembershipLevel != nil {
		level := domain.MembershipLevel(*m.MembershipLevel)
		o.MembershipLevel = &level
	}
	return o
}

// toOrderModel: maps domain entity to db model
func toOrderModel(o *domain.Order) *OrderModel {
	m := &OrderModel{
		ID:                   o.ID,
		OrderNumber:          o.OrderNumber,
		UserID:               o.UserID,
		OrderType:            string(o.Type),
		Amount:               o.Amount,
		TotalAmount:          o.TotalAmount,
		Currency:             o.Currency,
		DurationDays:         o.DurationDays,
		ProviderOrderID:      o.ProviderOrderID,
		ProviderCaptureID:    o.ProviderCaptureID,
		PayerID:              o.PayerID,
		PayerEmail:           o.PayerEmail,
		Status:               string(o.Status),
		ErrorMessage:         o.ErrorMessage,
		Version:              o.Version,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
		ExpiredAt:            o.ExpiredAt,
		CompletedAt:          o.CompletedAt,
		SideEffectsAppliedAt: o.SideEffectsAppliedAt,
	}
	if o.MembershipLevel != nil {
		level := int(*o.MembershipLevel)
		m.MembershipLevel = &level
	}
	return m
}

func toDomainTransaction(m TransactionModel) *domain.PaymentTransaction {
	return &domain.PaymentTransaction{
		ID:                    m.ID,
		OrderID:               m.OrderID,
		TransactionType:       m.TransactionType,
		Amount:                m.Amount,
		Currency:              m.Currency,
		Status:                domain.TransactionStatus(m.Status),
		PaymentMethod:         m.PaymentMethod,
		ProviderTransactionID: m.ProviderTransactionID,
		ProviderCaptureID:     m.ProviderCaptureID,
		ErrorCode:             m.ErrorCode,
		ErrorMessage:          m.ErrorMessage,
		RawResponse:           m.RawResponse,
		CreatedAt:             m.CreatedAt.UTC(),
		UpdatedAt:             m.UpdatedAt.UTC(),
	}
}

func toDomainMembership(m MembershipModel) *domain.Membership {
	return &domain.Membership{
		ID:          m.ID,
		UserID:      m.UserID,
		Level:       domain.MembershipLevel(m.Level),
		StartDate:   m.StartDate.UTC(),
		ExpiresAt:   utcPtr(m.ExpiresAt),
		AutoRenew:   m.AutoRenew,
		DepositPaid: m.DepositPaid,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

func toDomainWebhookEvent(m WebhookEventModel) *domain.WebhookEvent {
	e := &domain.WebhookEvent{
		EventID:         m.EventID,
		EventType:       m.EventType,
		Payload:         m.Payload,
		SignatureValid:  m.SignatureValid,
		ReceivedAt:      m.ReceivedAt.UTC(),
		ProcessedAt:     utcPtr(m.ProcessedAt),
		ProcessingError: m.ProcessingError,
	}
	if m.ResourceID != nil {
		e.ResourceID = *m.ResourceID
	}
	if m.ProviderOrderID != nil {
		e.ProviderOrderID = *m.ProviderOrderID
	}
	return e
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
