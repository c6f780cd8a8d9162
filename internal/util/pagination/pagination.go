// Package pagination tracks forward/backward navigation over a list whose
// pages are addressed by opaque cursors issued by the remote service.
package pagination

import "strings"

// Direction names a navigation request.
type Direction int

const (
	First Direction = iota
	Next
	Prev
)

func (d Direction) String() string {
	switch d {
	case First:
		return "first"
	case Next:
		return "next"
	case Prev:
		return "prev"
	default:
		return "unknown"
	}
}

// Controller is a LIFO history of page boundaries. The top of the stack is
// the cursor that produced the page currently displayed; an empty stack
// means the first page. The zero value is ready to use.
//
// Controller is not safe for concurrent use.
type Controller struct {
	stack []string
	next  string
}

// Navigate applies d and returns the cursor to request. ok is false when the
// navigation was a no-op (Next without a next cursor, Prev on the first page).
func (c *Controller) Navigate(d Direction) (cursor string, ok bool) {
	switch d {
	case Next:
		return c.Next()
	case Prev:
		return c.Prev()
	default:
		return c.First(), true
	}
}

// First clears the history; the first page is requested without a cursor.
func (c *Controller) First() string {
	c.stack = c.stack[:0]
	c.next = ""
	return ""
}

// Next pushes the next cursor reported by the last list response and returns
// it. Without one, the controller does not change state.
func (c *Controller) Next() (string, bool) {
	if c.next == "" {
		return c.Current(), false
	}
	c.stack = append(c.stack, c.next)
	c.next = ""
	return c.Current(), true
}

// Prev drops the current page boundary and returns the cursor of the page
// before it ("" for the first page). On the first page it is a no-op.
func (c *Controller) Prev() (string, bool) {
	if len(c.stack) == 0 {
		return "", false
	}
	c.stack = c.stack[:len(c.stack)-1]
	c.next = ""
	return c.Current(), true
}

// Observe records the next cursor carried by the page just received.
func (c *Controller) Observe(nextCursor string) {
	c.next = strings.TrimSpace(nextCursor)
}

// Current is the cursor that produced the displayed page.
func (c *Controller) Current() string {
	if len(c.stack) == 0 {
		return ""
	}
	return c.stack[len(c.stack)-1]
}

// Depth is the number of forward navigations not yet undone.
func (c *Controller) Depth() int {
	return len(c.stack)
}

// PageNumber is the 1-based index of the displayed page.
func (c *Controller) PageNumber() int {
	return len(c.stack) + 1
}

func (c *Controller) HasNext() bool {
	return c.next != ""
}

func (c *Controller) HasPrev() bool {
	return len(c.stack) > 0
}
