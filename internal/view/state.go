// Package view is the interactive terminal client for browsing and editing
// client records.
package view

import (
	"github.com/clientctl/clientctl/internal/clients"
)

// Dominant names the one body section a State renders.
type Dominant string

const (
	DominantLoading Dominant = "loading"
	DominantError   Dominant = "error"
	DominantEmpty   Dominant = "empty"
	DominantRecords Dominant = "records"
)

// State is everything the records body is drawn from.
type State struct {
	Loading  bool             `json:"loading"`
	Err      string           `json:"error,omitempty"`
	Records  []clients.Record `json:"records"`
	Cursor   string           `json:"cursor,omitempty"`
	Search   string           `json:"search,omitempty"`
	PageSize int              `json:"pageSize"`
	Page     int              `json:"page"`
	HasNext  bool             `json:"hasNext"`
	HasPrev  bool             `json:"hasPrev"`
}

// Dominant resolves the flags into exactly one section; loading wins over
// error, error over empty.
func (s State) Dominant() Dominant {
	switch {
	case s.Loading:
		return DominantLoading
	case s.Err != "":
		return DominantError
	case len(s.Records) == 0:
		return DominantEmpty
	default:
		return DominantRecords
	}
}

// RowPhase is the lifecycle of a per-row operation.
type RowPhase int

const (
	RowSaving RowPhase = iota + 1
	RowSaved
	RowFailed
)

func (p RowPhase) String() string {
	switch p {
	case RowSaving:
		return "saving"
	case RowSaved:
		return "saved"
	case RowFailed:
		return "failed"
	default:
		return ""
	}
}

// RowStatus is the transient outcome shown next to one record.
type RowStatus struct {
	Phase RowPhase
	Text  string
	token int
}
