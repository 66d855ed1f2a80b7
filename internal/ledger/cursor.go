package ledger

import "slices"

// SameFilter reports whether two states select and order the same rows,
// ignoring the page window.
func (f FilterState) SameFilter(other FilterState) bool {
	return f.Tab == other.Tab &&
		f.Search == other.Search &&
		f.SortKey == other.SortKey &&
		f.SortDir == other.SortDir &&
		sameMembers(f.Categories, other.Categories) &&
		sameMembers(f.Users, other.Users)
}

func sameMembers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x := slices.Clone(a)
	y := slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}

// Cursor tracks one table's filter state across requests. Any change to a
// filter dimension moves back to the first page.
type Cursor struct {
	State FilterState
}

// Apply replaces the state. The requested offset is kept only when the
// filters are unchanged.
func (c *Cursor) Apply(next FilterState) FilterState {
	if !c.State.SameFilter(next) {
		next.Offset = 0
	}
	c.State = next
	return c.State
}

