package models

// Product is one line item of a purchase-order draft. Quantity, unit price
// and amount stay strings end to end: they arrive as OCR text and are edited
// as text, numeric coercion happens only where amounts are recomputed.
type Product struct {
	ProductName string `json:"product_name"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Amount      string `json:"amount"`
}

// PurchaseOrderDraft is the editable draft built from OCR extraction and
// submitted to the register endpoint.
type PurchaseOrderDraft struct {
	CustomerName         string    `json:"customer_name"`
	PONumber             string    `json:"po_number"`
	Currency             string    `json:"currency"`
	TotalAmount          string    `json:"total_amount"`
	PaymentTerms         string    `json:"payment_terms"`
	ShippingTerms        string    `json:"shipping_terms"`
	Destination          string    `json:"destination"`
	Status               string    `json:"status"`
	Products             []Product `json:"products"`
	ShipmentArrangement  string    `json:"shipment_arrangement"`
	POAcquisitionDate    string    `json:"po_acquisition_date"`
	Organization         string    `json:"organization"`
	InvoiceNumber        string    `json:"invoice_number"`
	PaymentStatus        string    `json:"payment_status"`
	Memo                 string    `json:"memo"`
	OCRRawText           string    `json:"ocr_raw_text"`
}

// Shipment arrangement values used by the list view highlighting
const (
	ArrangementNotStarted = "手配前"
	ArrangementInProgress = "手配中"
	ArrangementDone       = "手配済"
	ArrangementBooked     = "計上済"
)

// RegisteredPO is one purchase order as returned by the list endpoint
type RegisteredPO struct {
	ID           int64  `json:"id"`
	PONumber     string `json:"poNumber"`
	Customer     string `json:"customer"`
	Manager      string `json:"manager"`
	Status       string `json:"status"`
	Memo         string `json:"memo,omitempty"`
	Organization string `json:"organization,omitempty"`
	Destination  string `json:"destination,omitempty"`
	PaymentTerms string `json:"paymentTerms,omitempty"`
	Terms        string `json:"terms,omitempty"`
	Currency     string `json:"currency,omitempty"`
	InvoiceNum   string `json:"invoiceNumber,omitempty"`
	ETA          string `json:"eta,omitempty"`
}

// RegisteredProduct is one product of a registered PO as returned by the
// products endpoint.
type RegisteredProduct struct {
	ID          int64   `json:"id"`
	POID        int64   `json:"po_id,omitempty"`
	ProductName string  `json:"product_name"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Subtotal    float64 `json:"subtotal"`
}

// POListRow is one flattened (PO, product) row of the list view. Exactly one
// row per PO carries IsMainRow and with it the selection checkbox, the status
// control and the expandable detail panel.
type POListRow struct {
	RegisteredPO
	IsMainRow   bool    `json:"isMainRow"`
	ProductName string  `json:"productName,omitempty"`
	Quantity    float64 `json:"quantity,omitempty"`
	UnitPrice   float64 `json:"unitPrice,omitempty"`
	Amount      float64 `json:"amount,omitempty"`
}
