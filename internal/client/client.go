// Package client is the HTTP implementation of the grid engine's Client
// interface, speaking the roll-call service's JSON envelope protocol.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"flexitime/internal/domain/presence"
	"flexitime/internal/domain/rollcall"
	"flexitime/internal/grid"
)

var _ grid.Client = (*Client)(nil)

// APIError is a structured failure from the service envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %s (%d): %s", e.Code, e.Status, e.Message)
}

type Client struct {
	base  string
	token string
	httpc *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		base:  strings.TrimRight(baseURL, "/"),
		token: token,
		httpc: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken replaces the bearer token, e.g. after a re-login.
func (c *Client) SetToken(token string) { c.token = token }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.base + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !env.Success {
		apiErr := &APIError{Status: resp.StatusCode, Code: "unknown", Message: "request failed"}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

func (c *Client) GetEvents(ctx context.Context, from, to time.Time, filters rollcall.EmployeeFilters) (*rollcall.EventsResult, error) {
	query := url.Values{}
	query.Set("fromDate", from.Format(rollcall.DateFormat))
	query.Set("toDate", to.Format(rollcall.DateFormat))
	if filters.Company != "" {
		query.Set("company", filters.Company)
	}
	if filters.Department != "" {
		query.Set("department", filters.Department)
	}
	var result rollcall.EventsResult
	if err := c.do(ctx, http.MethodGet, "/api/v1/roll-call/events", query, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetEditableEmployees(ctx context.Context) (rollcall.EditableEmployees, error) {
	var result rollcall.EditableEmployees
	err := c.do(ctx, http.MethodGet, "/api/v1/roll-call/editable-employees", nil, nil, &result)
	return result, err
}

func (c *Client) GetPresenceTypeCatalog(ctx context.Context) ([]presence.Type, error) {
	var result []presence.Type
	err := c.do(ctx, http.MethodGet, "/api/v1/presence-types", nil, nil, &result)
	return result, err
}

func (c *Client) GetAvailablePresenceTypes(ctx context.Context, employee, date string) ([]presence.Type, error) {
	query := url.Values{}
	query.Set("employee", employee)
	query.Set("date", date)
	var result []presence.Type
	err := c.do(ctx, http.MethodGet, "/api/v1/roll-call/presence-types", query, nil, &result)
	return result, err
}

func (c *Client) SaveEntry(ctx context.Context, employee, date, presenceType string, isHalfDay bool) (rollcall.Entry, error) {
	body := map[string]any{
		"employee":     employee,
		"date":         date,
		"presenceType": presenceType,
		"isHalfDay":    isHalfDay,
	}
	var entry rollcall.Entry
	err := c.do(ctx, http.MethodPost, "/api/v1/roll-call/entries", nil, body, &entry)
	return entry, err
}

func (c *Client) SaveSplitEntry(ctx context.Context, employee, date, amType, pmType string) (rollcall.Entry, error) {
	body := map[string]any{
		"employee":       employee,
		"date":           date,
		"amPresenceType": amType,
		"pmPresenceType": pmType,
	}
	var entry rollcall.Entry
	err := c.do(ctx, http.MethodPost, "/api/v1/roll-call/entries/split", nil, body, &entry)
	return entry, err
}

func (c *Client) SaveBulkEntries(ctx context.Context, refs []rollcall.CellRef, presenceType string) (rollcall.BulkSaveResult, error) {
	body := map[string]any{
		"entries":      refs,
		"presenceType": presenceType,
	}
	var result rollcall.BulkSaveResult
	err := c.do(ctx, http.MethodPost, "/api/v1/roll-call/entries/bulk", nil, body, &result)
	return result, err
}

func (c *Client) SaveBulkSplitEntries(ctx context.Context, refs []rollcall.CellRef, amType, pmType string) (rollcall.BulkSaveResult, error) {
	body := map[string]any{
		"entries":        refs,
		"amPresenceType": amType,
		"pmPresenceType": pmType,
	}
	var result rollcall.BulkSaveResult
	err := c.do(ctx, http.MethodPost, "/api/v1/roll-call/entries/bulk-split", nil, body, &result)
	return result, err
}

func (c *Client) DeleteBulkEntries(ctx context.Context, refs []rollcall.CellRef) (rollcall.BulkDeleteResult, error) {
	body := map[string]any{"entries": refs}
	var result rollcall.BulkDeleteResult
	err := c.do(ctx, http.MethodPost, "/api/v1/roll-call/entries/bulk-delete", nil, body, &result)
	return result, err
}

func (c *Client) GetPendingReviewCount(ctx context.Context) (rollcall.PendingReview, error) {
	var result rollcall.PendingReview
	err := c.do(ctx, http.MethodGet, "/api/v1/roll-call/pending-review-count", nil, nil, &result)
	return result, err
}
