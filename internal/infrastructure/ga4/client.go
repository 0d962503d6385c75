package ga4

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/analytics-dashboard-api/internal/config"
)

const defaultBaseURL = "https://analyticsdata.googleapis.com/v1beta"

// Client is a thin REST client for the GA4 Data API. Only the two report
// endpoints the dashboard needs are exposed.
type Client struct {
	httpClient *http.Client
	tokens     *TokenSource
	propertyID string
	baseURL    string
}

func NewClient(cfg *config.Config) (*Client, error) {
	ts, err := NewTokenSource(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		tokens:     ts,
		propertyID: cfg.GA4PropertyID,
		baseURL:    defaultBaseURL,
	}, nil
}

type DateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type Dimension struct {
	Name string `json:"name"`
}

type Metric struct {
	Name string `json:"name"`
}

type MetricOrderBy struct {
	MetricName string `json:"metricName"`
}

type DimensionOrderBy struct {
	DimensionName string `json:"dimensionName"`
}

type OrderBy struct {
	Metric    *MetricOrderBy    `json:"metric,omitempty"`
	Dimension *DimensionOrderBy `json:"dimension,omitempty"`
	Desc      bool              `json:"desc,omitempty"`
}

type ReportRequest struct {
	DateRanges []DateRange `json:"dateRanges,omitempty"`
	Dimensions []Dimension `json:"dimensions,omitempty"`
	Metrics    []Metric    `json:"metrics"`
	OrderBys   []OrderBy   `json:"orderBys,omitempty"`
	Limit      int64       `json:"limit,omitempty,string"`
}

type Value struct {
	Value string `json:"value"`
}

type Row struct {
	DimensionValues []Value `json:"dimensionValues"`
	MetricValues    []Value `json:"metricValues"`
}

type ReportResponse struct {
	Rows     []Row `json:"rows"`
	RowCount int   `json:"rowCount"`
}

// RunReport executes a historical report against the configured property.
func (c *Client) RunReport(ctx context.Context, req *ReportRequest) (*ReportResponse, error) {
	return c.post(ctx, "runReport", req)
}

// RunRealtimeReport executes a realtime report. DateRanges are ignored by
// the API for realtime queries and must be left empty.
func (c *Client) RunRealtimeReport(ctx context.Context, req *ReportRequest) (*ReportResponse, error) {
	return c.post(ctx, "runRealtimeReport", req)
}

func (c *Client) post(ctx context.Context, method string, req *ReportRequest) (*ReportResponse, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/properties/%s:%s", c.baseURL, c.propertyID, method)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ga4 %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ga4 %s: status %d: %s", method, resp.StatusCode, bytes.TrimSpace(body))
	}

	var out ReportResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("ga4 %s: decode: %w", method, err)
	}
	return &out, nil
}
