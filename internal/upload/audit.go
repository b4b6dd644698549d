package upload

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/digitradex/trade-console/internal/models"
)

// RegistrationRecord is one audit row for a registered purchase order.
type RegistrationRecord struct {
	ID           int64     `json:"id"`
	PONumber     string    `json:"po_number"`
	CustomerName string    `json:"customer_name"`
	Currency     string    `json:"currency"`
	TotalAmount  string    `json:"total_amount"`
	ProductCount int       `json:"product_count"`
	RegisteredAt time.Time `json:"registered_at"`
}

// AuditLog records successful registrations in the console-local database.
// The remote API owns the purchase orders themselves; this is the operator's
// local trail of what was submitted, surviving draft resets.
type AuditLog struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuditLog creates a new AuditLog instance
func NewAuditLog(db *sql.DB, logger *zap.Logger) *AuditLog {
	return &AuditLog{db: db, logger: logger}
}

// Record inserts one audit row for the given draft.
func (a *AuditLog) Record(ctx context.Context, draft models.PurchaseOrderDraft) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO registrations (po_number, customer_name, currency, total_amount, product_count)
		 VALUES (?, ?, ?, ?, ?)`,
		draft.PONumber, draft.CustomerName, draft.Currency, draft.TotalAmount, len(draft.Products),
	)
	if err != nil {
		return fmt.Errorf("failed to record registration: %w", err)
	}
	return nil
}

// Recent returns up to limit audit rows, newest first.
func (a *AuditLog) Recent(ctx context.Context, limit int) ([]RegistrationRecord, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, po_number, customer_name, currency, total_amount, product_count, registered_at
		 FROM registrations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query registrations: %w", err)
	}
	defer rows.Close()

	records := []RegistrationRecord{}
	for rows.Next() {
		var r RegistrationRecord
		if err := rows.Scan(&r.ID, &r.PONumber, &r.CustomerName, &r.Currency,
			&r.TotalAmount, &r.ProductCount, &r.RegisteredAt); err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read registrations: %w", err)
	}
	return records, nil
}
