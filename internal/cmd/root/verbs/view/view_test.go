package view

import (
	"testing"

	"github.com/clientctl/clientctl/internal/cmd"
	"github.com/clientctl/clientctl/internal/cmd/cmdtest"
	recordsview "github.com/clientctl/clientctl/internal/view"
	"github.com/stretchr/testify/require"
)

func TestViewRequiresTerminal(t *testing.T) {
	c, err := NewViewCmd()
	require.NoError(t, err)
	h := cmdtest.New(t, c)

	err = h.Run("view", "--search", "ana")

	var cfgErr *cmd.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	require.ErrorIs(t, err, recordsview.ErrNotInteractive)
	require.Empty(t, h.Adapter.Calls())
}

func TestViewFlags(t *testing.T) {
	c, err := NewViewCmd()
	require.NoError(t, err)

	require.NotNil(t, c.Flags().Lookup(searchFlagName))
	require.Equal(t, "10", c.Flags().Lookup("page-size").DefValue)
	require.Contains(t, c.Aliases, "tui")
}
