// Package polist serves the PO list view: it joins the list endpoint with
// per-PO products, flattens the result into one row per (PO, product), and
// owns filtering, pagination, status updates and bulk delete.
package polist

import (
	"context"
	"sync"

	"github.com/digitradex/trade-console/internal/apiclient"
	"github.com/digitradex/trade-console/internal/models"
	"go.uber.org/zap"
)

// TokenProvider supplies the current session token
type TokenProvider func() string

// Service is the PO list service. It keeps the rows of the last fetch so a
// status update can be applied to the rendered view without a refetch, the
// same way the list page holds its rows between interactions.
type Service struct {
	api    *apiclient.Client
	token  TokenProvider
	logger *zap.Logger

	mu   sync.Mutex
	rows []models.POListRow
}

// NewService creates a list service
func NewService(api *apiclient.Client, token TokenProvider, logger *zap.Logger) *Service {
	return &Service{api: api, token: token, logger: logger}
}

// FetchRows loads the PO list, fans out one products request per PO, and
// returns the flattened rows. A failed products fetch degrades that PO to an
// empty product list rather than failing the whole view.
func (s *Service) FetchRows(ctx context.Context) ([]models.POListRow, error) {
	token := s.token()

	pos, err := s.api.ListPOs(ctx, token)
	if err != nil {
		return nil, err
	}
	if len(pos) == 0 {
		s.setRows(nil)
		return []models.POListRow{}, nil
	}

	productsByPO := make([][]models.RegisteredProduct, len(pos))
	var wg sync.WaitGroup
	for i, po := range pos {
		wg.Add(1)
		go func(i int, poID int64) {
			defer wg.Done()
			products, err := s.api.ListProducts(ctx, token, poID)
			if err != nil {
				s.logger.Warn("Failed to fetch products for PO",
					zap.Int64("po_id", poID),
					zap.Error(err))
				return
			}
			productsByPO[i] = products
		}(i, po.ID)
	}
	wg.Wait()

	rows := ExpandRows(pos, productsByPO)
	s.setRows(rows)
	return rows, nil
}

// setRows replaces the held rows with a private copy, so callers mutating
// their slice cannot reach the service state.
func (s *Service) setRows(rows []models.POListRow) {
	copied := make([]models.POListRow, len(rows))
	copy(copied, rows)
	s.mu.Lock()
	s.rows = copied
	s.mu.Unlock()
}

// Rows returns a copy of the rows from the last fetch.
func (s *Service) Rows() []models.POListRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]models.POListRow, len(s.rows))
	copy(rows, s.rows)
	return rows
}

// ExpandRows flattens each PO with its products into one row per product.
// The first product's row is the main row; a PO with no products yields one
// synthetic main row. For a PO with N products exactly N rows come out
// (1 when N is 0) and exactly one of them is the main row.
func ExpandRows(pos []models.RegisteredPO, productsByPO [][]models.RegisteredProduct) []models.POListRow {
	rows := make([]models.POListRow, 0, len(pos))
	for i, po := range pos {
		var products []models.RegisteredProduct
		if i < len(productsByPO) {
			products = productsByPO[i]
		}

		if len(products) == 0 {
			rows = append(rows, models.POListRow{
				RegisteredPO: po,
				IsMainRow:    true,
			})
			continue
		}

		for j, product := range products {
			rows = append(rows, models.POListRow{
				RegisteredPO: po,
				IsMainRow:    j == 0,
				ProductName:  product.ProductName,
				Quantity:     product.Quantity,
				UnitPrice:    product.UnitPrice,
				Amount:       product.Subtotal,
			})
		}
	}
	return rows
}

// UpdateStatus changes a PO's shipment arrangement on the server and applies
// the same change to the held rows optimistically. On failure the rows stay
// as fetched.
func (s *Service) UpdateStatus(ctx context.Context, poID int64, status string) ([]models.POListRow, error) {
	if err := s.api.UpdateStatus(ctx, s.token(), poID, status); err != nil {
		return s.Rows(), err
	}

	s.mu.Lock()
	for i := range s.rows {
		if s.rows[i].ID == poID {
			s.rows[i].Status = status
		}
	}
	s.mu.Unlock()

	s.logger.Info("Shipment arrangement updated",
		zap.Int64("po_id", poID),
		zap.String("status", status))
	return s.Rows(), nil
}

// Delete removes the selected POs
func (s *Service) Delete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return s.api.DeletePOs(ctx, s.token(), ids)
}

// StatusClass maps a shipment arrangement to its row highlight class
func StatusClass(status string) string {
	switch status {
	case models.ArrangementInProgress:
		return "bg-red-100"
	case models.ArrangementDone:
		return "bg-blue-100"
	case models.ArrangementBooked:
		return "bg-gray-200"
	default:
		return ""
	}
}
