package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"go.uber.org/zap"
)

// OCR job status values observed via polling
const (
	OCRStatusCompleted = "completed"
	OCRStatusFailed    = "failed"
)

// ExtractedProduct is one product line of an OCR extraction
type ExtractedProduct struct {
	Name      string `json:"name"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	Amount    string `json:"amount"`
}

// ExtractedData is the structured OCR extraction payload
type ExtractedData struct {
	Customer     string             `json:"customer"`
	PONumber     string             `json:"poNumber"`
	Currency     string             `json:"currency"`
	TotalAmount  string             `json:"totalAmount"`
	PaymentTerms string             `json:"paymentTerms"`
	Terms        string             `json:"terms"`
	Destination  string             `json:"destination"`
	Products     []ExtractedProduct `json:"products"`
}

// UploadOCR submits a document for OCR and returns the job identifier. The
// API has returned the id under two different key names across versions, so
// both are accepted.
func (c *Client) UploadOCR(ctx context.Context, token, filename string, file io.Reader) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if err := w.WriteField("local_kw", "true"); err != nil {
		return "", fmt.Errorf("failed to build multipart body: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to build multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/ocr/upload?local_kw=true", &buf)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	var resp struct {
		OCRID string `json:"ocrId"`
		ID    string `json:"id"`
	}
	if err := c.execute(c.httpc, req, &resp); err != nil {
		return "", err
	}

	jobID := resp.OCRID
	if jobID == "" {
		jobID = resp.ID
	}
	if jobID == "" {
		return "", fmt.Errorf("ocr upload response carried no job id")
	}

	c.logger.Info("OCR job submitted",
		zap.String("job_id", jobID),
		zap.String("filename", filename))
	return jobID, nil
}

// OCRStatus queries the current status of an OCR job. Deliberately issued on
// the unbounded client: the polling loop owns pacing and cancellation.
func (c *Client) OCRStatus(ctx context.Context, token, jobID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/ocr/status/"+jobID, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var resp struct {
		Status string `json:"status"`
	}
	if err := c.execute(c.pollc, req, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// OCRExtract fetches the structured extraction for a completed job
func (c *Client) OCRExtract(ctx context.Context, token, jobID string) (*ExtractedData, error) {
	var resp struct {
		Data *ExtractedData `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/ocr/extract/"+jobID, token, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		resp.Data = &ExtractedData{}
	}
	return resp.Data, nil
}
