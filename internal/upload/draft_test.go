package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitradex/trade-console/internal/apiclient"
	"github.com/digitradex/trade-console/internal/models"
)

func TestNewDraft_Defaults(t *testing.T) {
	d := NewDraft(6)
	data := d.Data()

	assert.Equal(t, "USD", data.Currency)
	assert.Equal(t, "0.00", data.TotalAmount)
	assert.Equal(t, "pending", data.Status)
	assert.Equal(t, models.ArrangementNotStarted, data.ShipmentArrangement)
	assert.Len(t, data.Products, 1)
	assert.NotEmpty(t, data.POAcquisitionDate)
}

func TestDraft_EditProductRecomputesAmount(t *testing.T) {
	tests := []struct {
		name      string
		quantity  string
		unitPrice string
		amount    string
	}{
		{"integer values", "10", "5", "50.00"},
		{"decimal price", "3", "19.99", "59.97"},
		{"zero quantity", "0", "100", "0.00"},
		{"unparseable quantity coerced to zero", "abc", "100", "0.00"},
		{"unparseable price coerced to zero", "10", "x", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDraft(6)
			require.NoError(t, d.EditProduct(0, FieldQuantity, tt.quantity))
			require.NoError(t, d.EditProduct(0, FieldUnitPrice, tt.unitPrice))
			assert.Equal(t, tt.amount, d.Data().Products[0].Amount)
		})
	}
}

func TestDraft_TotalFollowsProductAmounts(t *testing.T) {
	d := NewDraft(6)
	require.NoError(t, d.EditProduct(0, FieldQuantity, "2"))
	require.NoError(t, d.EditProduct(0, FieldUnitPrice, "10"))

	d.AddProduct()
	require.NoError(t, d.EditProduct(1, FieldQuantity, "1"))
	require.NoError(t, d.EditProduct(1, FieldUnitPrice, "5.50"))

	assert.Equal(t, "25.50", d.Data().TotalAmount)
}

func TestDraft_ManualTotalOverrideIsSticky(t *testing.T) {
	d := NewDraft(6)
	require.NoError(t, d.EditProduct(0, FieldQuantity, "2"))
	require.NoError(t, d.EditProduct(0, FieldUnitPrice, "10"))
	assert.Equal(t, "20.00", d.Data().TotalAmount)

	// Operator takes control of the total
	d.EditField("total_amount", "999.99")
	assert.True(t, d.ManualTotal())

	// Product edits keep recomputing amounts but leave the total alone
	require.NoError(t, d.EditProduct(0, FieldQuantity, "4"))
	data := d.Data()
	assert.Equal(t, "40.00", data.Products[0].Amount)
	assert.Equal(t, "999.99", data.TotalAmount)

	d.AddProduct()
	d.RemoveProduct(1)
	assert.Equal(t, "999.99", d.Data().TotalAmount)

	// Only Reset releases the override
	d.Reset()
	assert.False(t, d.ManualTotal())
	assert.Equal(t, "0.00", d.Data().TotalAmount)
}

func TestDraft_ProductBounds(t *testing.T) {
	d := NewDraft(6)

	for i := 0; i < 10; i++ {
		d.AddProduct()
	}
	assert.Len(t, d.Data().Products, 6, "upper bound is six lines")

	for i := 0; i < 10; i++ {
		d.RemoveProduct(0)
	}
	assert.Len(t, d.Data().Products, 1, "lower bound is one line")
}

func TestDraft_RemoveProductOutOfRange(t *testing.T) {
	d := NewDraft(6)
	d.AddProduct()

	d.RemoveProduct(-1)
	d.RemoveProduct(5)
	assert.Len(t, d.Data().Products, 2)
}

func TestDraft_EditProductErrors(t *testing.T) {
	d := NewDraft(6)
	assert.Error(t, d.EditProduct(3, FieldQuantity, "1"))
	assert.Error(t, d.EditProduct(0, "color", "red"))
}

func TestDraft_ApplyExtraction(t *testing.T) {
	d := NewDraft(6)
	err := d.ApplyExtraction(&apiclient.ExtractedData{
		Customer:     "ACME Trading",
		PONumber:     "PO-2024-001",
		Currency:     "JPY",
		TotalAmount:  "12345",
		PaymentTerms: "NET30",
		Terms:        "FOB",
		Destination:  "Yokohama",
		Products: []apiclient.ExtractedProduct{
			{Name: "Widget", Quantity: "10", UnitPrice: "3", Amount: "30.00"},
			{Name: "Gadget", Quantity: "4", UnitPrice: "5", Amount: "20.00"},
		},
	})
	require.NoError(t, err)

	data := d.Data()
	assert.Equal(t, "ACME Trading", data.CustomerName)
	assert.Equal(t, "PO-2024-001", data.PONumber)
	assert.Equal(t, "JPY", data.Currency)
	assert.Equal(t, "FOB", data.ShippingTerms)
	assert.Len(t, data.Products, 2)
	// Total is recomputed from the extracted lines
	assert.Equal(t, "50.00", data.TotalAmount)
	assert.NotEmpty(t, data.OCRRawText)
}

func TestDraft_ApplyExtractionDefaults(t *testing.T) {
	d := NewDraft(6)
	require.NoError(t, d.ApplyExtraction(&apiclient.ExtractedData{}))

	data := d.Data()
	assert.Equal(t, "USD", data.Currency)
	assert.Equal(t, "0.00", data.TotalAmount)
	assert.Empty(t, data.Products)
}
