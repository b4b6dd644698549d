package upload

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/digitradex/trade-console/internal/apiclient"
	"github.com/digitradex/trade-console/internal/models"
	"github.com/digitradex/trade-console/pkg/utils"
)

// Editable field names for EditProduct and EditField
const (
	FieldProductName = "product_name"
	FieldQuantity    = "quantity"
	FieldUnitPrice   = "unit_price"
	FieldAmount      = "amount"
)

// Draft wraps the purchase-order draft with the editing rules: per-product
// amount recomputation, the 1..6 product bound, and the sticky manual-total
// override.
type Draft struct {
	data models.PurchaseOrderDraft
	// manualTotal suppresses automatic total recomputation once the
	// operator edits the total directly; it survives until Reset.
	manualTotal bool
	maxProducts int
}

// NewDraft creates an empty draft with one blank product line
func NewDraft(maxProducts int) *Draft {
	if maxProducts < 1 {
		maxProducts = 6
	}
	d := &Draft{maxProducts: maxProducts}
	d.reset()
	return d
}

func (d *Draft) reset() {
	d.data = models.PurchaseOrderDraft{
		Currency:            "USD",
		TotalAmount:         "0.00",
		Status:              "pending",
		Products:            []models.Product{{}},
		ShipmentArrangement: models.ArrangementNotStarted,
		POAcquisitionDate:   time.Now().Format("2006-01-02"),
	}
	d.manualTotal = false
}

// Reset restarts the draft. The manual-total override is cleared here and
// only here.
func (d *Draft) Reset() {
	d.reset()
}

// Data returns a copy of the current draft
func (d *Draft) Data() models.PurchaseOrderDraft {
	copied := d.data
	copied.Products = append([]models.Product(nil), d.data.Products...)
	return copied
}

// ManualTotal reports whether the operator has taken control of the total
func (d *Draft) ManualTotal() bool {
	return d.manualTotal
}

// ApplyExtraction populates the draft from an OCR extraction. Missing fields
// fall back to empty strings, currency to USD; the raw payload is kept
// verbatim for audit. The total is recomputed from the extracted products
// unless there are none.
func (d *Draft) ApplyExtraction(data *apiclient.ExtractedData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to keep raw extraction: %w", err)
	}

	d.data.CustomerName = data.Customer
	d.data.PONumber = data.PONumber
	d.data.Currency = data.Currency
	if d.data.Currency == "" {
		d.data.Currency = "USD"
	}
	d.data.TotalAmount = data.TotalAmount
	if d.data.TotalAmount == "" {
		d.data.TotalAmount = "0.00"
	}
	d.data.PaymentTerms = data.PaymentTerms
	d.data.ShippingTerms = data.Terms
	d.data.Destination = data.Destination
	d.data.OCRRawText = string(raw)

	products := make([]models.Product, 0, len(data.Products))
	for _, p := range data.Products {
		products = append(products, models.Product{
			ProductName: p.Name,
			Quantity:    p.Quantity,
			UnitPrice:   p.UnitPrice,
			Amount:      p.Amount,
		})
	}
	d.data.Products = products

	if len(d.data.Products) > 0 {
		d.recomputeTotal()
	}
	return nil
}

// EditField updates one header field. Editing the total directly sets the
// sticky manual override.
func (d *Draft) EditField(field, value string) {
	switch field {
	case "customer_name":
		d.data.CustomerName = value
	case "po_number":
		d.data.PONumber = value
	case "currency":
		d.data.Currency = value
	case "total_amount":
		d.manualTotal = true
		d.data.TotalAmount = value
	case "payment_terms":
		d.data.PaymentTerms = value
	case "shipping_terms":
		d.data.ShippingTerms = value
	case "destination":
		d.data.Destination = value
	case "shipment_arrangement":
		d.data.ShipmentArrangement = value
	case "po_acquisition_date":
		d.data.POAcquisitionDate = value
	case "organization":
		d.data.Organization = value
	case "invoice_number":
		d.data.InvoiceNumber = value
	case "payment_status":
		d.data.PaymentStatus = value
	case "memo":
		d.data.Memo = value
	}
}

// EditProduct updates one product field. Quantity and unit-price edits
// recompute that product's amount as quantity × unit price, two decimals,
// unparseable values coerced to zero.
func (d *Draft) EditProduct(index int, field, value string) error {
	if index < 0 || index >= len(d.data.Products) {
		return fmt.Errorf("product index %d out of range", index)
	}

	p := &d.data.Products[index]
	switch field {
	case FieldProductName:
		p.ProductName = value
	case FieldQuantity:
		p.Quantity = value
	case FieldUnitPrice:
		p.UnitPrice = value
	case FieldAmount:
		p.Amount = value
	default:
		return fmt.Errorf("unknown product field %q", field)
	}

	if field == FieldQuantity || field == FieldUnitPrice {
		quantity := utils.ParseAmount(p.Quantity)
		unitPrice := utils.ParseAmount(p.UnitPrice)
		p.Amount = utils.FormatAmount(quantity * unitPrice)
	}

	d.recomputeTotal()
	return nil
}

// AddProduct appends a blank product line; a no-op at the upper bound
func (d *Draft) AddProduct() {
	if len(d.data.Products) >= d.maxProducts {
		return
	}
	d.data.Products = append(d.data.Products, models.Product{})
	d.recomputeTotal()
}

// RemoveProduct removes one product line; a no-op at the lower bound of one
func (d *Draft) RemoveProduct(index int) {
	if len(d.data.Products) <= 1 {
		return
	}
	if index < 0 || index >= len(d.data.Products) {
		return
	}
	d.data.Products = append(d.data.Products[:index], d.data.Products[index+1:]...)
	d.recomputeTotal()
}

// recomputeTotal sums the product amounts into the total unless the operator
// has taken manual control.
func (d *Draft) recomputeTotal() {
	if d.manualTotal || len(d.data.Products) == 0 {
		return
	}
	var total float64
	for _, p := range d.data.Products {
		total += utils.ParseAmount(p.Amount)
	}
	d.data.TotalAmount = utils.FormatAmount(total)
}
