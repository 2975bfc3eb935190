// Package pagination splits ordered result sets into fixed-size numbered pages.
package pagination

import "strconv"

// Paginator computes page windows over a result set of known size.
type Paginator struct {
	Count    int
	PerPage  int
	NumPages int
}

// New returns a Paginator for count items split into pages of perPage.
// An empty set still has one (empty) page.
func New(count, perPage int) Paginator {
	if perPage < 1 {
		perPage = 1
	}
	if count < 0 {
		count = 0
	}
	numPages := (count + perPage - 1) / perPage
	if numPages < 1 {
		numPages = 1
	}
	return Paginator{Count: count, PerPage: perPage, NumPages: numPages}
}

// Clamp maps a requested page number onto [1, NumPages].
func (p Paginator) Clamp(number int) int {
	if number < 1 {
		return 1
	}
	if number > p.NumPages {
		return p.NumPages
	}
	return number
}

// Window returns the clamped page number with the offset and limit that select it.
func (p Paginator) Window(number int) (page, offset, limit int) {
	page = p.Clamp(number)
	return page, (page - 1) * p.PerPage, p.PerPage
}

// ParseNumber reads a page query value. Anything that is not an integer becomes 0, which clamps to 1.
func ParseNumber(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

// Page is one window of an ordered result set.
type Page[T any] struct {
	Items      []T
	Number     int
	PerPage    int
	TotalCount int
	NumPages   int
}

// NewPage wraps items already selected by Window.
func NewPage[T any](items []T, p Paginator, number int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:      items,
		Number:     p.Clamp(number),
		PerPage:    p.PerPage,
		TotalCount: p.Count,
		NumPages:   p.NumPages,
	}
}

// Slice is the in-memory form: it returns the requested window of an already ordered slice.
func Slice[T any](items []T, number, perPage int) Page[T] {
	p := New(len(items), perPage)
	page, offset, limit := p.Window(number)
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	window := make([]T, 0, end-offset)
	if offset < end {
		window = append(window, items[offset:end]...)
	}
	return NewPage(window, p, page)
}

func (p Page[T]) HasNext() bool     { return p.Number < p.NumPages }
func (p Page[T]) HasPrevious() bool { return p.Number > 1 }
func (p Page[T]) HasOtherPages() bool {
	return p.HasNext() || p.HasPrevious()
}

func (p Page[T]) NextNumber() int {
	if p.HasNext() {
		return p.Number + 1
	}
	return p.Number
}

func (p Page[T]) PreviousNumber() int {
	if p.HasPrevious() {
		return p.Number - 1
	}
	return p.Number
}

// StartIndex is the 1-based position of the first item on the page, 0 for an empty set.
func (p Page[T]) StartIndex() int {
	if p.TotalCount == 0 {
		return 0
	}
	return (p.Number-1)*p.PerPage + 1
}

// PageRange lists every page number for rendering controls.
func (p Page[T]) PageRange() []int {
	out := make([]int, p.NumPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}
