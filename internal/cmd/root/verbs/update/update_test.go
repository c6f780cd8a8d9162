package update

import (
	"testing"

	"github.com/clientctl/clientctl/internal/clients"
	"github.com/clientctl/clientctl/internal/cmd"
	"github.com/clientctl/clientctl/internal/cmd/cmdtest"
	"github.com/clientctl/clientctl/internal/transport"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func newHarness(t *testing.T) *cmdtest.Harness {
	t.Helper()
	c, err := NewUpdateCmd()
	require.NoError(t, err)
	return cmdtest.New(t, c)
}

func TestUpdateSendsOnlyChangedFields(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.Run("update", "rec1", "--email", "new@example.com", "--phone", ""))

	calls := h.Adapter.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, "rec1", calls[0].ID)

	email, phone := "new@example.com", ""
	want := clients.Patch{Email: &email, Phone: &phone}
	if diff := cmp.Diff(want, calls[0].Patch); diff != "" {
		t.Fatalf("patch mismatch (-want +got):\n%s", diff)
	}
	require.Contains(t, h.Stdout(), "new@example.com")
}

func TestUpdateWithoutFieldsIsRejected(t *testing.T) {
	h := newHarness(t)

	err := h.Run("update", "rec1")
	var cfgErr *cmd.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	require.ErrorContains(t, err, "nothing to update")
	require.Empty(t, h.Adapter.Calls())
}

func TestUpdateRequiresOneID(t *testing.T) {
	h := newHarness(t)
	require.ErrorContains(t, h.Run("update", "--name", "Ana"), "exactly one record id")

	h = newHarness(t)
	require.ErrorIs(t, h.Run("update", "  ", "--name", "Ana"), clients.ErrMissingID)
	require.Empty(t, h.Adapter.Calls())
}

func TestUpdateFailureCarriesID(t *testing.T) {
	h := newHarness(t)
	h.Adapter.Err = &transport.Error{Op: transport.OpUpdate, Status: 404, Message: "Failed to update client"}

	err := h.Run("update", "rec9", "--name", "Ana")
	var execErr *cmd.ExecutionError
	require.ErrorAs(t, err, &execErr)
	require.Equal(t, []any{"id", "rec9", "operation", transport.OpUpdate, "status", 404}, execErr.Attrs)
}
