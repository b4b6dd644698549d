package upload

import (
	"context"
	"database/sql"
	"net/http"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/digitradex/trade-console/internal/models"
)

func newAuditDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE registrations (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			po_number     TEXT NOT NULL,
			customer_name TEXT,
			currency      TEXT,
			total_amount  TEXT,
			product_count INTEGER NOT NULL DEFAULT 0,
			registered_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	require.NoError(t, err)
	return db
}

func TestAuditLog_RecordAndRecent(t *testing.T) {
	audit := NewAuditLog(newAuditDB(t), zap.NewNop())
	ctx := context.Background()

	first := models.PurchaseOrderDraft{
		PONumber:     "PO-100",
		CustomerName: "ACME Trading",
		Currency:     "USD",
		TotalAmount:  "25.50",
		Products:     []models.Product{{ProductName: "Widget"}, {ProductName: "Gadget"}},
	}
	require.NoError(t, audit.Record(ctx, first))
	require.NoError(t, audit.Record(ctx, models.PurchaseOrderDraft{PONumber: "PO-200"}))

	records, err := audit.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Newest first.
	assert.Equal(t, "PO-200", records[0].PONumber)
	assert.Equal(t, "PO-100", records[1].PONumber)
	assert.Equal(t, "ACME Trading", records[1].CustomerName)
	assert.Equal(t, "USD", records[1].Currency)
	assert.Equal(t, "25.50", records[1].TotalAmount)
	assert.Equal(t, 2, records[1].ProductCount)
	assert.False(t, records[1].RegisteredAt.IsZero())
}

func TestAuditLog_RecentHonorsLimit(t *testing.T) {
	audit := NewAuditLog(newAuditDB(t), zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, audit.Record(ctx, models.PurchaseOrderDraft{PONumber: "PO-1"}))
	}

	records, err := audit.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestAuditLog_RecentEmpty(t *testing.T) {
	audit := NewAuditLog(newAuditDB(t), zap.NewNop())

	records, err := audit.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestPipeline_RegistrationsWithoutAudit(t *testing.T) {
	p := newTestPipeline(t, http.NewServeMux(), "tok")

	records, err := p.Registrations(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}
