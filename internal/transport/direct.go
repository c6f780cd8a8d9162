package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/clientctl/clientctl/internal/clients"
	"github.com/clientctl/clientctl/internal/tableapi"
)

// Direct talks to the table service with an embedded credential.
type Direct struct {
	client tableapi.Client
}

var _ Adapter = (*Direct)(nil)

func NewDirect(client tableapi.Client) *Direct {
	return &Direct{client: client}
}

func (d *Direct) Mode() Mode { return ModeDirect }

// List translates the search text into a filter formula; the raw search
// string is never sent to the service.
func (d *Direct) List(ctx context.Context, q ListQuery) (clients.Page, error) {
	ctx = withOperation(ctx, ModeDirect, OpList)
	page, err := d.client.List(ctx, tableapi.ListParams{
		PageSize: q.PageSize,
		Offset:   q.Offset,
		Formula:  tableapi.SearchFormula(q.Search),
	})
	if err != nil {
		return clients.Page{}, directError(OpList, err)
	}
	return page, nil
}

func (d *Direct) Create(ctx context.Context, f clients.Fields) (clients.Record, error) {
	f = f.Trimmed()
	if err := f.Validate(); err != nil {
		return clients.Record{}, localError(OpCreate, err)
	}
	ctx = withOperation(ctx, ModeDirect, OpCreate)
	rec, err := d.client.Create(ctx, f)
	if err != nil {
		return clients.Record{}, directError(OpCreate, err)
	}
	return rec, nil
}

func (d *Direct) Update(ctx context.Context, id string, p clients.Patch) (clients.Record, error) {
	if err := clients.ValidateID(id); err != nil {
		return clients.Record{}, localError(OpUpdate, err)
	}
	ctx = withOperation(ctx, ModeDirect, OpUpdate)
	rec, err := d.client.Update(ctx, id, p)
	if err != nil {
		return clients.Record{}, directError(OpUpdate, err)
	}
	return rec, nil
}

func (d *Direct) Delete(ctx context.Context, id string) error {
	if err := clients.ValidateID(id); err != nil {
		return localError(OpDelete, err)
	}
	ctx = withOperation(ctx, ModeDirect, OpDelete)
	if _, err := d.client.Delete(ctx, id); err != nil {
		return directError(OpDelete, err)
	}
	return nil
}

func directError(op string, err error) *Error {
	var se *tableapi.StatusError
	if errors.As(err, &se) {
		return &Error{
			Op:      op,
			Status:  se.StatusCode,
			Message: fmt.Sprintf("failed to %s clients", op),
			Details: se.Error(),
			Err:     err,
		}
	}
	return networkError(op, err)
}
