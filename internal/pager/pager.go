// Package pager derives page counts from server totals and builds the
// pagination control rendered under the movie grid.
//
// The control is a pure function of the current page and the page count.
// Links are emitted for exactly the page they name; nothing is clamped, so
// callers must pass a correct total.
package pager

import "strconv"

// Limit is the fixed page size of the movie list.
const Limit = 8

// TotalPages returns max(1, ceil(total/limit)).  A non-positive limit is
// treated as Limit.
func TotalPages(total, limit int) int {
	if limit <= 0 {
		limit = Limit
	}
	if total <= 0 {
		return 1
	}
	return (total + limit - 1) / limit
}

// ParsePage reads a page query value.  Missing, malformed, or < 1 → 1.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Item is one numbered link.
type Item struct {
	Page    int
	Href    string
	Current bool
}

// Control is everything the template needs.
type Control struct {
	Items        []Item
	Prev, Next   int
	PrevHref     string
	NextHref     string
	PrevDisabled bool
	NextDisabled bool
}

// Build returns the control for current of total pages.  href maps a page
// number to its link target.
func Build(current, total int, href func(int) string) Control {
	c := Control{
		Prev:         current - 1,
		Next:         current + 1,
		PrevDisabled: current <= 1,
		NextDisabled: current >= total,
	}
	c.PrevHref = href(c.Prev)
	c.NextHref = href(c.Next)

	c.Items = make([]Item, 0, total)
	for p := 1; p <= total; p++ {
		c.Items = append(c.Items, Item{Page: p, Href: href(p), Current: p == current})
	}
	return c
}
