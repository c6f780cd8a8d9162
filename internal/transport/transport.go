// Package transport reaches the client records either through the relay
// service or directly at the table service. The strategy is chosen once, at
// startup, by New.
package transport

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/clientctl/clientctl/internal/apiutil"
	"github.com/clientctl/clientctl/internal/clients"
	"github.com/clientctl/clientctl/internal/log"
	"github.com/clientctl/clientctl/internal/tableapi"
)

// Mode names the transport strategy in use.
type Mode string

const (
	ModeRelay  Mode = "relay"
	ModeDirect Mode = "direct"
)

const DefaultRelayBaseURL = "http://localhost:3000/api"

// Operation names used in errors and logs.
const (
	OpList   = "list"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// ListQuery selects one page of records.
type ListQuery struct {
	Search   string
	PageSize int
	Offset   string
}

// Adapter is the uniform list/create/update/delete surface over both
// strategies.
type Adapter interface {
	Mode() Mode
	List(ctx context.Context, q ListQuery) (clients.Page, error)
	Create(ctx context.Context, f clients.Fields) (clients.Record, error)
	Update(ctx context.Context, id string, p clients.Patch) (clients.Record, error)
	Delete(ctx context.Context, id string) error
}

// Credentials is the bundle that enables direct mode.
type Credentials struct {
	APIKey    string `json:"API_KEY"`
	BaseID    string `json:"BASE_ID"`
	TableName string `json:"TABLE_NAME"`
}

// Complete reports whether all three members are set.
func (c Credentials) Complete() bool {
	return strings.TrimSpace(c.APIKey) != "" &&
		strings.TrimSpace(c.BaseID) != "" &&
		strings.TrimSpace(c.TableName) != ""
}

// Settings carries everything New needs to pick and build a strategy.
type Settings struct {
	RelayBaseURL  string
	DirectBaseURL string
	Credentials   Credentials
	Doer          apiutil.Doer
}

// New returns the direct adapter when the credentials are complete and the
// relay adapter otherwise.
func New(s Settings) Adapter {
	if s.Credentials.Complete() {
		return NewDirect(tableapi.Client{
			BaseURL: s.DirectBaseURL,
			BaseID:  strings.TrimSpace(s.Credentials.BaseID),
			Table:   strings.TrimSpace(s.Credentials.TableName),
			Token:   strings.TrimSpace(s.Credentials.APIKey),
			Doer:    s.Doer,
		})
	}
	return NewRelay(s.RelayBaseURL, s.Doer)
}

// Error is the single failure shape surfaced by both strategies. Status is 0
// for network failures and local validation errors.
type Error struct {
	Op      string
	Status  int
	Message string
	Details string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("failed to %s clients", e.Op)
	}
	switch {
	case e.Details != "" && e.Details != msg:
		return msg + ": " + e.Details
	case e.Status != 0 && e.Message == "":
		return fmt.Sprintf("%s (HTTP %d %s)", msg, e.Status, http.StatusText(e.Status))
	default:
		return msg
	}
}

func (e *Error) Unwrap() error { return e.Err }

func localError(op string, err error) *Error {
	return &Error{Op: op, Message: err.Error(), Err: err}
}

func networkError(op string, err error) *Error {
	return &Error{Op: op, Message: fmt.Sprintf("failed to %s clients", op), Details: err.Error(), Err: err}
}

func withOperation(ctx context.Context, mode Mode, op string) context.Context {
	return log.WithHTTPLogContext(ctx, log.HTTPLogContext{TransportMode: string(mode), Operation: op})
}
