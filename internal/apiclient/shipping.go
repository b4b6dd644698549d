package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/digitradex/trade-console/internal/models"
)

// ShippingRequest is the schedule recommendation request
type ShippingRequest struct {
	DeparturePort   string  `json:"departure_port"`
	DestinationPort string  `json:"destination_port"`
	ETDDate         *string `json:"etd_date"`
	ETADate         *string `json:"eta_date"`
}

// ShippingFailure is the structured failure body of the recommendation
// endpoint: a machine-readable reason plus an optional server message.
type ShippingFailure struct {
	Reason string `json:"reason"`
	Error  string `json:"error"`
}

// RecommendShipping queries shipping-schedule recommendations. A failure
// response with a known reason comes back as *ShippingFailure so the caller
// can map it to an operator message; transport errors follow the usual
// taxonomy.
func (c *Client) RecommendShipping(ctx context.Context, req ShippingRequest) ([]models.ScheduleResult, *ShippingFailure, error) {
	buf, err := json.Marshal(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/recommend-shipping", bytes.NewReader(buf))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var failure ShippingFailure
		if err := json.Unmarshal(data, &failure); err == nil && (failure.Reason != "" || failure.Error != "") {
			return nil, &failure, nil
		}
		return nil, nil, &APIError{StatusCode: resp.StatusCode, Detail: extractDetail(data)}
	}

	var results []models.ScheduleResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, nil, errors.New("the server returned an unexpected schedule response")
	}
	return results, nil, nil
}

// ScheduleFeedback is an operator's judgement on one recommendation
type ScheduleFeedback struct {
	URL      string `json:"url"`
	ETD      string `json:"etd"`
	ETA      string `json:"eta"`
	Feedback string `json:"feedback"`
}

// SendScheduleFeedback reports whether a recommendation was useful
func (c *Client) SendScheduleFeedback(ctx context.Context, fb ScheduleFeedback) error {
	return c.doJSON(ctx, http.MethodPost, "/update-feedback", "", fb, nil)
}
