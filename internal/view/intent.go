package view

import "github.com/clientctl/clientctl/internal/clients"

// Intent is a user request, produced from key presses and consumed by
// dispatch.
type Intent interface {
	intent()
}

type (
	IntentFirst   struct{}
	IntentNext    struct{}
	IntentPrev    struct{}
	IntentRefresh struct{}

	// IntentSearch restarts pagination for a new search text.
	IntentSearch struct{ Text string }

	// IntentSave writes the edited fields of one record.
	IntentSave struct {
		ID     string
		Fields clients.Fields
	}

	// IntentRequestDelete asks for confirmation; no call is made yet.
	IntentRequestDelete struct{ ID string }

	// IntentConfirmDelete answers the pending confirmation.
	IntentConfirmDelete struct{ Accept bool }

	IntentCreate struct{ Fields clients.Fields }

	// IntentYank copies a record id to the clipboard.
	IntentYank struct{ ID string }
)

func (IntentFirst) intent()         {}
func (IntentNext) intent()          {}
func (IntentPrev) intent()          {}
func (IntentRefresh) intent()       {}
func (IntentSearch) intent()        {}
func (IntentSave) intent()          {}
func (IntentRequestDelete) intent() {}
func (IntentConfirmDelete) intent() {}
func (IntentCreate) intent()        {}
func (IntentYank) intent()          {}
