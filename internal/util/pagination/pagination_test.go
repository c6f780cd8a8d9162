package pagination

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextThenPrevReturnsToFirstPage(t *testing.T) {
	for n := 1; n <= 5; n++ {
		t.Run(fmt.Sprintf("depth_%d", n), func(t *testing.T) {
			var c Controller
			require.Equal(t, "", c.First())

			for i := 0; i < n; i++ {
				c.Observe(fmt.Sprintf("cur%d", i))
				cursor, ok := c.Next()
				require.True(t, ok)
				require.Equal(t, fmt.Sprintf("cur%d", i), cursor)
			}
			require.Equal(t, n, c.Depth())
			require.Equal(t, n+1, c.PageNumber())

			for i := n - 1; i >= 0; i-- {
				cursor, ok := c.Prev()
				require.True(t, ok)
				if i == 0 {
					require.Equal(t, "", cursor)
				} else {
					require.Equal(t, fmt.Sprintf("cur%d", i-1), cursor)
				}
			}

			require.Equal(t, 0, c.Depth())
			require.Equal(t, "", c.Current())
			require.False(t, c.HasPrev())
		})
	}
}

func TestPrevOnEmptyStackIsNoop(t *testing.T) {
	var c Controller

	cursor, ok := c.Prev()
	require.False(t, ok)
	require.Equal(t, "", cursor)
	require.Equal(t, 0, c.Depth())
	require.Equal(t, 1, c.PageNumber())
}

func TestNextWithoutNextCursorIsNoop(t *testing.T) {
	var c Controller
	c.Observe("cur123")
	_, ok := c.Next()
	require.True(t, ok)

	c.Observe("")
	cursor, ok := c.Next()
	require.False(t, ok)
	require.Equal(t, "cur123", cursor)
	require.Equal(t, 1, c.Depth())
}

func TestNextUsesObservedCursorVerbatim(t *testing.T) {
	var c Controller
	c.Observe("itrXYZ/recABC")

	cursor, ok := c.Navigate(Next)
	require.True(t, ok)
	require.Equal(t, "itrXYZ/recABC", cursor)
	require.Equal(t, "itrXYZ/recABC", c.Current())
}

func TestFirstClearsHistory(t *testing.T) {
	var c Controller
	c.Observe("a")
	c.Next()
	c.Observe("b")
	c.Next()
	c.Observe("c")

	cursor, ok := c.Navigate(First)
	require.True(t, ok)
	require.Equal(t, "", cursor)
	require.Equal(t, 0, c.Depth())
	require.False(t, c.HasNext())
}

func TestNavigationConsumesNextCursor(t *testing.T) {
	var c Controller
	c.Observe("a")
	c.Next()

	// The next cursor belongs to the page that was displayed, not the one
	// being requested; until the new page is observed there is none.
	require.False(t, c.HasNext())
	_, ok := c.Next()
	require.False(t, ok)
	require.Equal(t, 1, c.Depth())
}

func TestDirectionString(t *testing.T) {
	require.Equal(t, "first", First.String())
	require.Equal(t, "next", Next.String())
	require.Equal(t, "prev", Prev.String())
	require.Equal(t, "unknown", Direction(42).String())
}
