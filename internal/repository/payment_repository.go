package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/datamatch-api/internal/models"
)

// PaymentRepository appends simulated payments.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a payment and fills the generated id.
func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO payments (user_id, transaction_id, plan, amount, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	row := r.db.QueryRowxContext(ctx, query, p.UserID, p.TransactionID, p.Plan, p.Amount, p.CreatedAt)
	if err := row.Scan(&p.ID); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// ListWithOwner returns every payment with its payer email, newest first.
func (r *PaymentRepository) ListWithOwner(ctx context.Context) ([]models.PaymentWithOwner, error) {
	const query = `SELECT p.id, p.user_id, p.transaction_id, p.plan, p.amount, p.created_at, u.email AS owner_email
FROM payments p JOIN users u ON u.id = p.user_id ORDER BY p.created_at DESC`
	var payments []models.PaymentWithOwner
	if err := r.db.SelectContext(ctx, &payments, query); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}
