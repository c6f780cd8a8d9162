package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/clientctl/clientctl/internal/apiutil"
	"github.com/clientctl/clientctl/internal/clients"
	"github.com/clientctl/clientctl/internal/tableapi"
)

// Relay talks to the relay service, which holds the table credential.
type Relay struct {
	baseURL string
	doer    apiutil.Doer
}

var _ Adapter = (*Relay)(nil)

// NewRelay builds a relay adapter. baseURL is the relay API root, for example
// http://localhost:3000/api.
func NewRelay(baseURL string, doer apiutil.Doer) *Relay {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultRelayBaseURL
	}
	return &Relay{baseURL: baseURL, doer: doer}
}

func (r *Relay) Mode() Mode { return ModeRelay }

func (r *Relay) List(ctx context.Context, q ListQuery) (clients.Page, error) {
	params := url.Values{}
	if search := strings.TrimSpace(q.Search); search != "" {
		params.Set("search", search)
	}
	params.Set("pageSize", strconv.Itoa(tableapi.ClampPageSize(q.PageSize)))
	if offset := strings.TrimSpace(q.Offset); offset != "" {
		params.Set("offset", offset)
	}

	var page clients.Page
	if err := r.call(ctx, OpList, http.MethodGet, "/clients?"+params.Encode(), nil, &page); err != nil {
		return clients.Page{}, err
	}
	if page.Records == nil {
		page.Records = []clients.Record{}
	}
	return page, nil
}

func (r *Relay) Create(ctx context.Context, f clients.Fields) (clients.Record, error) {
	f = f.Trimmed()
	if err := f.Validate(); err != nil {
		return clients.Record{}, localError(OpCreate, err)
	}
	var out clients.Page
	if err := r.call(ctx, OpCreate, http.MethodPost, "/clients", f, &out); err != nil {
		return clients.Record{}, err
	}
	return firstRecord(OpCreate, out)
}

func (r *Relay) Update(ctx context.Context, id string, p clients.Patch) (clients.Record, error) {
	if err := clients.ValidateID(id); err != nil {
		return clients.Record{}, localError(OpUpdate, err)
	}
	var out clients.Page
	if err := r.call(ctx, OpUpdate, http.MethodPatch, "/clients/"+url.PathEscape(id), p, &out); err != nil {
		return clients.Record{}, err
	}
	return firstRecord(OpUpdate, out)
}

func (r *Relay) Delete(ctx context.Context, id string) error {
	if err := clients.ValidateID(id); err != nil {
		return localError(OpDelete, err)
	}
	return r.call(ctx, OpDelete, http.MethodDelete, "/clients/"+url.PathEscape(id), nil, nil)
}

// relayFailure is the error body written by the relay service.
type relayFailure struct {
	Message string `json:"message"`
	Details string `json:"details"`
}

func (r *Relay) call(ctx context.Context, op, method, path string, payload, out any) error {
	ctx = withOperation(ctx, ModeRelay, op)
	res, err := apiutil.RequestJSON(ctx, r.doer, method, r.baseURL, path, "", payload)
	if err != nil {
		return networkError(op, err)
	}

	if !res.OK() {
		e := &Error{Op: op, Status: res.StatusCode}
		var failure relayFailure
		if json.Unmarshal(res.Body, &failure) == nil {
			e.Message = strings.TrimSpace(failure.Message)
			e.Details = strings.TrimSpace(failure.Details)
		} else {
			e.Details = strings.TrimSpace(string(res.Body))
		}
		return e
	}

	if out == nil || len(res.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.Body, out); err != nil {
		return &Error{Op: op, Status: res.StatusCode, Message: "invalid response from relay", Details: err.Error(), Err: err}
	}
	return nil
}

func firstRecord(op string, page clients.Page) (clients.Record, error) {
	if len(page.Records) == 0 {
		err := errors.New("response carried no record")
		return clients.Record{}, &Error{Op: op, Message: "invalid response from relay", Details: err.Error(), Err: err}
	}
	return page.Records[0], nil
}
