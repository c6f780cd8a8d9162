// Package clients holds the client record model shared by the transports,
// the relay and the terminal view.
package clients

import (
	"errors"
	"fmt"
	"strings"
)

// Wire names of the record fields in the remote table.
const (
	FieldName  = "nome"
	FieldEmail = "email"
	FieldPhone = "telefone"
)

var (
	// ErrMissingField reports a required field left blank.
	ErrMissingField = errors.New("missing required field")
	// ErrMissingID reports an operation on a record without an id.
	ErrMissingID = errors.New("missing record id")
)

// Fields are the mutable attributes of a client.
type Fields struct {
	Name  string `json:"nome"     yaml:"nome"`
	Email string `json:"email"    yaml:"email"`
	Phone string `json:"telefone" yaml:"telefone"`
}

// Record is a client as stored by the remote table service. ID is assigned
// by the service on creation and never changes.
type Record struct {
	ID          string `json:"id"                    yaml:"id"`
	CreatedTime string `json:"createdTime,omitempty" yaml:"createdTime,omitempty"`
	Fields      Fields `json:"fields"                yaml:"fields"`
}

// Page is one page of a list call. Offset is the cursor of the following
// page and is empty on the last one.
type Page struct {
	Records []Record `json:"records"          yaml:"records"`
	Offset  string   `json:"offset,omitempty" yaml:"offset,omitempty"`
}

// Patch is a partial update; nil members are left untouched.
type Patch struct {
	Name  *string `json:"nome,omitempty"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"telefone,omitempty"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (f Fields) Trimmed() Fields {
	return Fields{
		Name:  strings.TrimSpace(f.Name),
		Email: strings.TrimSpace(f.Email),
		Phone: strings.TrimSpace(f.Phone),
	}
}

// Validate checks the fields required to create a client.
func (f Fields) Validate() error {
	var missing []string
	if strings.TrimSpace(f.Name) == "" {
		missing = append(missing, FieldName)
	}
	if strings.TrimSpace(f.Email) == "" {
		missing = append(missing, FieldEmail)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	return nil
}

// Patch converts f into a patch that overwrites all three fields.
func (f Fields) Patch() Patch {
	name, email, phone := f.Name, f.Email, f.Phone
	return Patch{Name: &name, Email: &email, Phone: &phone}
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil
}

// Apply returns f with the members set in p overwritten.
func (p Patch) Apply(f Fields) Fields {
	if p.Name != nil {
		f.Name = *p.Name
	}
	if p.Email != nil {
		f.Email = *p.Email
	}
	if p.Phone != nil {
		f.Phone = *p.Phone
	}
	return f
}

// ValidateID rejects blank record ids.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrMissingID
	}
	return nil
}
