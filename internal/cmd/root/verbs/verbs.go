package verbs

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	List    = VerbValue("list")
	Create  = VerbValue("create")
	Update  = VerbValue("update")
	Delete  = VerbValue("delete")
	View    = VerbValue("view")
	Serve   = VerbValue("serve")
	Version = VerbValue("version")
)

// Empty type to represent the _type_ Verb. Genesis is to support a key in a Context
type VerbKey struct{}

// Verb is a global instance of the VerbKey type
var Verb = VerbKey{}

// Will represent a specific Verb (list, create, update, delete, etc)
type VerbValue string

func (v VerbValue) String() string {
	return string(v)
}

// NoPositionalArgs rejects positional arguments for commands that take their
// input only from flags.
func NoPositionalArgs(_ *cobra.Command, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected argument %q: this command only accepts flags", args[0])
	}
	return nil
}

// ExactlyOneID requires a single record id argument.
func ExactlyOneID(_ *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one record id, received %d arguments", len(args))
	}
	return nil
}
