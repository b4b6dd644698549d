package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/digitradex/trade-console/internal/models"
	"go.uber.org/zap"
)

// RegisterProduct is one product line in the register payload wire shape
type RegisterProduct struct {
	Name      string `json:"name"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	Amount    string `json:"amount"`
}

// RegisterPayload is the wire shape of the PO register endpoint. Field names
// differ from the draft model and from the list endpoint; the mapping lives
// in NewRegisterPayload.
type RegisterPayload struct {
	Customer            string            `json:"customer"`
	PONumber            string            `json:"poNumber"`
	Currency            string            `json:"currency"`
	TotalAmount         string            `json:"totalAmount"`
	PaymentTerms        string            `json:"paymentTerms"`
	Terms               string            `json:"terms"`
	Destination         string            `json:"destination"`
	Products            []RegisterProduct `json:"products"`
	ShipmentArrangement string            `json:"shipment_arrangement"`
	POAcquisitionDate   string            `json:"po_acquisition_date"`
	Organization        string            `json:"organization"`
	InvoiceNumber       string            `json:"invoice_number"`
	PaymentStatus       string            `json:"payment_status"`
	Memo                string            `json:"memo"`
	OCRRawText          string            `json:"ocr_raw_text"`
}

// NewRegisterPayload remaps a draft to the register endpoint's wire names
func NewRegisterPayload(d *models.PurchaseOrderDraft) RegisterPayload {
	products := make([]RegisterProduct, 0, len(d.Products))
	for _, p := range d.Products {
		products = append(products, RegisterProduct{
			Name:      p.ProductName,
			Quantity:  p.Quantity,
			UnitPrice: p.UnitPrice,
			Amount:    p.Amount,
		})
	}
	return RegisterPayload{
		Customer:            d.CustomerName,
		PONumber:            d.PONumber,
		Currency:            d.Currency,
		TotalAmount:         d.TotalAmount,
		PaymentTerms:        d.PaymentTerms,
		Terms:               d.ShippingTerms,
		Destination:         d.Destination,
		Products:            products,
		ShipmentArrangement: d.ShipmentArrangement,
		POAcquisitionDate:   d.POAcquisitionDate,
		Organization:        d.Organization,
		InvoiceNumber:       d.InvoiceNumber,
		PaymentStatus:       d.PaymentStatus,
		Memo:                d.Memo,
		OCRRawText:          d.OCRRawText,
	}
}

// RegisterPO submits a completed draft for registration
func (c *Client) RegisterPO(ctx context.Context, token string, payload RegisterPayload) error {
	var resp struct {
		Success bool `json:"success"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/po/register", token, payload, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("registration was rejected by the server")
	}

	c.logger.Info("PO registered", zap.String("po_number", payload.PONumber))
	return nil
}

// ListPOs fetches all registered purchase orders
func (c *Client) ListPOs(ctx context.Context, token string) ([]models.RegisteredPO, error) {
	var resp struct {
		Success bool                  `json:"success"`
		POList  []models.RegisteredPO `json:"po_list"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/po/list", token, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("the server returned an unexpected list response")
	}
	return resp.POList, nil
}

// ListProducts fetches the products of one registered PO
func (c *Client) ListProducts(ctx context.Context, token string, poID int64) ([]models.RegisteredProduct, error) {
	var resp struct {
		Success  bool                       `json:"success"`
		Products []models.RegisteredProduct `json:"products"`
	}
	path := fmt.Sprintf("/api/po/%d/products", poID)
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("the server returned an unexpected products response")
	}
	return resp.Products, nil
}

// UpdateStatus changes the shipment-arrangement status of one PO
func (c *Client) UpdateStatus(ctx context.Context, token string, poID int64, status string) error {
	body := map[string]string{"status": status}
	path := fmt.Sprintf("/api/po/%d/status", poID)
	return c.doJSON(ctx, http.MethodPatch, path, token, body, nil)
}

// SaveMemo replaces the memo of one PO
func (c *Client) SaveMemo(ctx context.Context, token string, poID int64, memo string) error {
	body := map[string]string{"memo": memo}
	path := fmt.Sprintf("/api/po/%d/memo", poID)

	var resp struct {
		Success bool `json:"success"`
	}
	if err := c.doJSON(ctx, http.MethodPut, path, token, body, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("memo update was rejected by the server")
	}
	return nil
}

// DeletePOs deletes the given purchase orders
func (c *Client) DeletePOs(ctx context.Context, token string, ids []int64) error {
	body := map[string][]int64{"ids": ids}
	return c.doJSON(ctx, http.MethodDelete, "/api/po/delete", token, body, nil)
}
