package forecastapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/yanqian/branch-forecast/internal/domain/forecast"
)

const (
	defaultBaseURL = "http://localhost:8000/api/predict"
	maxBodyBytes   = 8 << 20
	maxErrorBytes  = 4 << 10
)

// Client posts prediction requests to the forecasting service.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient builds an API client. Request deadlines come from the caller's context.
func NewClient(endpoint string) *Client {
	url := strings.TrimSpace(endpoint)
	if url == "" {
		url = defaultBaseURL
	}
	return &Client{
		endpoint:   strings.TrimRight(url, "/"),
		httpClient: &http.Client{},
	}
}

type requestBody struct {
	BranchName string `json:"branch_name"`
	Periods    int    `json:"periods"`
	Frequency  string `json:"frequency"`
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// FetchPredictions implements forecast.Fetcher.
func (c *Client) FetchPredictions(ctx context.Context, req forecast.PredictionRequest) (any, error) {
	body, err := json.Marshal(requestBody{
		BranchName: string(req.Branch),
		Periods:    req.Periods,
		Frequency:  string(req.Frequency),
	})
	if err != nil {
		return nil, fmt.Errorf("encode prediction request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build prediction request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &forecast.TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
		return nil, &forecast.TransportError{
			StatusCode: resp.StatusCode,
			Detail:     extractDetail(payload),
			Err:        fmt.Errorf("status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(payload))),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &forecast.TransportError{Err: fmt.Errorf("read prediction response: %w", err)}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, &forecast.NormalizationError{Err: fmt.Errorf("decode prediction response: %w", err)}
	}
	return payload, nil
}

// extractDetail reads the error message of a failed response. The service
// sends either a string or, for validation errors, a list of objects with msg.
func extractDetail(payload []byte) string {
	var body errorBody
	if err := json.Unmarshal(payload, &body); err != nil || len(body.Detail) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(body.Detail, &text); err == nil {
		return strings.TrimSpace(text)
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(body.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if m := strings.TrimSpace(item.Msg); m != "" {
				msgs = append(msgs, m)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

var _ forecast.Fetcher = (*Client)(nil)
