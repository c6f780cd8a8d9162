package normalizers

import (
	"testing"

	"github.com/clientctl/clientctl/internal/meta"
	"github.com/stretchr/testify/require"
)

func TestExamplesIndentsAndSubstitutesName(t *testing.T) {
	got := Examples(`
		# List the first page
		%[1]s list

		%[1]s list --search ana
	`)
	want := "  # List the first page\n  " + meta.CLIName + " list\n\n  " + meta.CLIName + " list --search ana"
	require.Equal(t, want, got)
}

func TestLongDescTrims(t *testing.T) {
	require.Equal(t, "Manage clients.", LongDesc("\n  Manage clients.\n"))
	require.Empty(t, Examples("   "))
}
