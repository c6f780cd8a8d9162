package del

import (
	"encoding/json"
	"testing"

	"github.com/clientctl/clientctl/internal/cmd"
	"github.com/clientctl/clientctl/internal/cmd/cmdtest"
	"github.com/clientctl/clientctl/internal/transport"
	"github.com/stretchr/testify/require"
)

func newHarness(t *testing.T) *cmdtest.Harness {
	t.Helper()
	c, err := NewDeleteCmd()
	require.NoError(t, err)
	return cmdtest.New(t, c)
}

func TestDeleteConfirmed(t *testing.T) {
	h := newHarness(t)
	h.In.WriteString("yes\n")

	require.NoError(t, h.Run("delete", "rec1", "-o", "json"))

	require.Equal(t, []string{transport.OpDelete}, h.Ops())
	require.Equal(t, "rec1", h.Adapter.Calls()[0].ID)
	require.Contains(t, h.Out.String(), "Delete client rec1? (y/N)")
}

func TestDeleteDeclinedMakesNoCall(t *testing.T) {
	for _, answer := range []string{"n\n", "\n", "nope\n", ""} {
		h := newHarness(t)
		h.In.WriteString(answer)

		err := h.Run("delete", "rec1")

		require.ErrorIs(t, err, cmd.ErrDeleteCancelled, "answer %q", answer)
		require.Empty(t, h.Adapter.Calls(), "answer %q", answer)
	}
}

func TestDeleteWithYesSkipsPrompt(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.Run("delete", "rec1", "--yes", "-o", "json"))

	var got deleteResult
	require.NoError(t, json.Unmarshal(h.Out.Bytes(), &got))
	require.Equal(t, deleteResult{ID: "rec1", Deleted: true}, got)
	require.NotContains(t, h.Out.String(), "(y/N)")
}

func TestDeleteFailure(t *testing.T) {
	h := newHarness(t)
	h.Adapter.Err = &transport.Error{Op: transport.OpDelete, Status: 404, Message: "Failed to delete client"}

	err := h.Run("delete", "rec1", "-y")
	var execErr *cmd.ExecutionError
	require.ErrorAs(t, err, &execErr)
	require.Equal(t, "Failed to delete client", execErr.Msg)
}
