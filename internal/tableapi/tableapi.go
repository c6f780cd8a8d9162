// Package tableapi is a thin client for the hosted table service that stores
// client records (Airtable REST API, v0).
package tableapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/clientctl/clientctl/internal/apiutil"
	"github.com/clientctl/clientctl/internal/clients"
)

const (
	DefaultBaseURL  = "https://api.airtable.com/v0"
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Client addresses one table of one base.
type Client struct {
	BaseURL string
	BaseID  string
	Table   string
	Token   string
	Doer    apiutil.Doer
}

// ListParams are the service-level list parameters.
type ListParams struct {
	PageSize int
	Offset   string
	Formula  string
}

// Deleted is the service acknowledgement of a record deletion.
type Deleted struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

type createRecord struct {
	Fields clients.Fields `json:"fields"`
}

type updateRecord struct {
	ID     string        `json:"id"`
	Fields clients.Patch `json:"fields"`
}

type recordsPayload[T any] struct {
	Records []T `json:"records"`
}

// StatusError is returned for any non-2xx service response.
type StatusError struct {
	StatusCode int
	Body       string
	// Message is the service supplied error text, when the body carried one.
	Message string
}

func (e *StatusError) Error() string {
	detail := e.Message
	if detail == "" {
		detail = strings.TrimSpace(e.Body)
	}
	if detail == "" {
		detail = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("table service error %d: %s", e.StatusCode, detail)
}

// Validate reports the first missing coordinate.
func (c Client) Validate() error {
	switch {
	case strings.TrimSpace(c.Token) == "":
		return errors.New("table service token is not set")
	case strings.TrimSpace(c.BaseID) == "":
		return errors.New("table service base id is not set")
	case strings.TrimSpace(c.Table) == "":
		return errors.New("table service table name is not set")
	}
	return nil
}

// TableURL is the collection endpoint of the configured table.
func (c Client) TableURL() string {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return base + "/" + url.PathEscape(strings.TrimSpace(c.BaseID)) + "/" + url.PathEscape(strings.TrimSpace(c.Table))
}

// ClampPageSize maps n into the range accepted by the service. Non-positive
// values select the default.
func ClampPageSize(n int) int {
	switch {
	case n <= 0:
		return DefaultPageSize
	case n > MaxPageSize:
		return MaxPageSize
	default:
		return n
	}
}

// ListQuery encodes p as service query parameters.
func ListQuery(p ListParams) url.Values {
	values := url.Values{}
	values.Set("pageSize", strconv.Itoa(ClampPageSize(p.PageSize)))
	if offset := strings.TrimSpace(p.Offset); offset != "" {
		values.Set("offset", offset)
	}
	if p.Formula != "" {
		values.Set("filterByFormula", p.Formula)
	}
	return values
}

// List returns one page of records.
func (c Client) List(ctx context.Context, p ListParams) (clients.Page, error) {
	var page clients.Page
	endpoint := c.TableURL() + "?" + ListQuery(p).Encode()
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
		return clients.Page{}, err
	}
	if page.Records == nil {
		page.Records = []clients.Record{}
	}
	return page, nil
}

// Create stores a new record. A blank phone is sent as an empty string.
func (c Client) Create(ctx context.Context, fields clients.Fields) (clients.Record, error) {
	payload := recordsPayload[createRecord]{Records: []createRecord{{Fields: fields}}}
	var out recordsPayload[clients.Record]
	if err := c.do(ctx, http.MethodPost, c.TableURL(), payload, &out); err != nil {
		return clients.Record{}, err
	}
	return single(out.Records)
}

// Update applies a partial update to one record.
func (c Client) Update(ctx context.Context, id string, patch clients.Patch) (clients.Record, error) {
	if err := clients.ValidateID(id); err != nil {
		return clients.Record{}, err
	}
	payload := recordsPayload[updateRecord]{Records: []updateRecord{{ID: id, Fields: patch}}}
	var out recordsPayload[clients.Record]
	if err := c.do(ctx, http.MethodPatch, c.TableURL(), payload, &out); err != nil {
		return clients.Record{}, err
	}
	return single(out.Records)
}

// Delete removes one record.
func (c Client) Delete(ctx context.Context, id string) (Deleted, error) {
	if err := clients.ValidateID(id); err != nil {
		return Deleted{}, err
	}
	var out Deleted
	endpoint := c.TableURL() + "/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodDelete, endpoint, nil, &out); err != nil {
		return Deleted{}, err
	}
	if out.ID == "" {
		out.ID = id
	}
	return out, nil
}

func (c Client) do(ctx context.Context, method, endpoint string, payload, out any) error {
	res, err := apiutil.RequestJSON(ctx, c.Doer, method, "", endpoint, c.Token, payload)
	if err != nil {
		return err
	}
	if !res.OK() {
		return newStatusError(res)
	}
	if out == nil || len(res.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.Body, out); err != nil {
		return fmt.Errorf("failed to decode table service response: %w", err)
	}
	return nil
}

func single(records []clients.Record) (clients.Record, error) {
	if len(records) == 0 {
		return clients.Record{}, errors.New("table service returned no record")
	}
	return records[0], nil
}

// The service reports errors either as {"error": "CODE"} or as
// {"error": {"type": "...", "message": "..."}}.
func newStatusError(res *apiutil.Result) *StatusError {
	se := &StatusError{StatusCode: res.StatusCode, Body: string(res.Body)}

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(res.Body, &envelope); err != nil || len(envelope.Error) == 0 {
		return se
	}

	var code string
	if err := json.Unmarshal(envelope.Error, &code); err == nil {
		se.Message = code
		return se
	}

	var detail struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(envelope.Error, &detail); err == nil {
		se.Message = strings.TrimSpace(strings.Join(nonEmpty(detail.Type, detail.Message), ": "))
	}
	return se
}

func nonEmpty(values ...string) []string {
	out := values[:0]
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
