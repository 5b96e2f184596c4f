package postgres

import (
	"context"
	"fmt"

	"github.com/gonomads/payment-service/internal/domain"
	"github.com/jackc/pgx/v5"
)

type TransactionRepository struct {
	q Executor
}

func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{q: db.Pool}
}

func (r *TransactionRepository) Create(ctx context.Context, txn *domain.PaymentTransaction) error {
	query := `
		INSERT INTO payment_transactions (
			id, order_id, transaction_type, amount, currency, status, payment_method,
			provider_transaction_id, provider_capture_id, error_code, error_message, raw_response,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.q.Exec(ctx, query,
		txn.ID, txn.OrderID, txn.TransactionType, txn.Amount, txn.Currency, string(txn.Status), txn.PaymentMethod,
		txn.ProviderTransactionID, txn.ProviderCaptureID, txn.ErrorCode, txn.ErrorMessage, txn.RawResponse,
		txn.CreatedAt, txn.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepository) Update(ctx context.Context, txn *domain.PaymentTransaction) error {
	query := `
		UPDATE payment_transactions
		SET status = $1, provider_transaction_id = $2, provider_capture_id = $3,
			error_code = $4, error_message = $5, raw_response = $6, updated_at = $7
		WHERE id = $8
	`
	tag, err := r.q.Exec(ctx, query,
		string(txn.Status), txn.ProviderTransactionID, txn.ProviderCaptureID,
		txn.ErrorCode, txn.ErrorMessage, txn.RawResponse, txn.UpdatedAt,
		txn.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// FindByOrderID lists every capture attempt of an order, oldest first.
func (r *TransactionRepository) FindByOrderID(ctx context.Context, orderID string) ([]*domain.PaymentTransaction, error) {
	query := `
		SELECT id, order_id, transaction_type, amount, currency, status, payment_method,
		       provider_transaction_id, provider_capture_id, error_code, error_message, raw_response,
		       created_at, updated_at
		FROM payment_transactions
		WHERE order_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.q.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("query payment transactions: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.PaymentTransaction, error) {
		var m TransactionModel
		err := row.Scan(
			&m.ID, &m.OrderID, &m.TransactionType, &m.Amount, &m.Currency, &m.Status, &m.PaymentMethod,
			&m.ProviderTransactionID, &m.ProviderCaptureID, &m.ErrorCode, &m.ErrorMessage, &m.RawResponse,
			&m.CreatedAt, &m.UpdatedAt,
		)
		return toDomainTransaction(m), err
	})
	if err != nil {
		return nil, fmt.Errorf("scan payment transactions: %w", err)
	}
	return results, nil
}
