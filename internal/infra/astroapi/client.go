package astroapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yanqian/kundali-web/internal/domain/kundali"
)

const (
	defaultBaseURL = "http://127.0.0.1:5000"
	maxBodyBytes   = 4 << 20
)

// Client talks to the chart backend over JSON-over-HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds an API client. A non-positive timeout disables the deadline.
func NewClient(baseURL string, timeout time.Duration) *Client {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SuggestPlaces queries the place autocomplete endpoint.
func (c *Client) SuggestPlaces(ctx context.Context, query string) ([]kundali.PlaceSuggestion, error) {
	endpoint := fmt.Sprintf("%s/suggest_place?q=%s", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build suggest request: %w", err)
	}
	status, body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, fmt.Errorf("suggest request error: status=%d body=%s", status, truncate(body))
	}
	var out []kundali.PlaceSuggestion
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode suggest response: %w", err)
	}
	return out, nil
}

// GetChart requests chart generation. An error field in the body is returned
// as *kundali.BackendError regardless of status.
func (c *Client) GetChart(ctx context.Context, form kundali.BirthFormData) (kundali.ChartResponse, error) {
	status, body, err := c.postJSON(ctx, "/get_chart", form)
	if err != nil {
		return kundali.ChartResponse{}, err
	}
	var out kundali.ChartResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return kundali.ChartResponse{}, fmt.Errorf("decode chart response (status=%d): %w", status, err)
	}
	if out.Error != "" {
		return kundali.ChartResponse{}, &kundali.BackendError{Endpoint: "get_chart", Message: out.Error}
	}
	if status >= 300 {
		return kundali.ChartResponse{}, fmt.Errorf("chart request error: status=%d body=%s", status, truncate(body))
	}
	return out, nil
}

// Analyze requests the analysis sections. Any non-2xx status maps to
// kundali.ErrAnalysisFailed.
func (c *Client) Analyze(ctx context.Context, form kundali.BirthFormData) (kundali.AnalysisResponse, error) {
	status, body, err := c.postJSON(ctx, "/analyze", form)
	if err != nil {
		return kundali.AnalysisResponse{}, err
	}
	if status < 200 || status >= 300 {
		return kundali.AnalysisResponse{}, fmt.Errorf("%w: status=%d body=%s", kundali.ErrAnalysisFailed, status, truncate(body))
	}
	var out kundali.AnalysisResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return kundali.AnalysisResponse{}, fmt.Errorf("decode analysis response: %w", err)
	}
	return out, nil
}

// Chat asks a free-text question about the given chart parameters.
func (c *Client) Chat(ctx context.Context, req kundali.ChatRequest) (kundali.ChatResponse, error) {
	status, body, err := c.postJSON(ctx, "/chat", req)
	if err != nil {
		return kundali.ChatResponse{}, err
	}
	var out kundali.ChatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return kundali.ChatResponse{}, fmt.Errorf("decode chat response (status=%d): %w", status, err)
	}
	if out.Error != "" {
		return kundali.ChatResponse{}, &kundali.BackendError{Endpoint: "chat", Message: out.Error}
	}
	if status >= 300 {
		return kundali.ChatResponse{}, fmt.Errorf("chat request error: status=%d body=%s", status, truncate(body))
	}
	return out, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) (int, []byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("encode %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return 0, nil, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s request failed: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read %s response: %w", req.URL.Path, err)
	}
	return resp.StatusCode, body, nil
}

func truncate(body []byte) string {
	const limit = 4 << 10
	if len(body) > limit {
		return string(body[:limit])
	}
	return string(body)
}
