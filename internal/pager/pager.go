package pager

import (
	"errors"
	"sort"

	"typequiz/internal/responses"
)

// ErrNotLastPage is returned by SubmitFinal when the controller is not on the
// last page.
var ErrNotLastPage = errors.New("submit is only valid on the last page")

// Controller partitions the id space into contiguous pages and commits pending
// edits into the store on every navigation or submission.
type Controller struct {
	store    *responses.Store
	pageSize int
	current  int
	finished bool
	pending  map[int]int
}

// New returns a controller on page 0. A pageSize <= 0 or >= the store size
// yields a single page holding every statement.
func New(store *responses.Store, pageSize int) *Controller {
	size := store.Len()
	if pageSize <= 0 || pageSize > size {
		pageSize = size
	}
	return &Controller{
		store:    store,
		pageSize: pageSize,
		pending:  make(map[int]int),
	}
}

// PageSize returns the effective page size.
func (c *Controller) PageSize() int {
	return c.pageSize
}

// TotalPages is ceil(size / pageSize), and never less than 1.
func (c *Controller) TotalPages() int {
	size := c.store.Len()
	if size == 0 || c.pageSize <= 0 {
		return 1
	}
	return (size + c.pageSize - 1) / c.pageSize
}

// Current returns the current page index after clamping it into range.
func (c *Controller) Current() int {
	c.Clamp()
	return c.current
}

// Finished reports whether the final page has been submitted.
func (c *Controller) Finished() bool {
	return c.finished
}

// IsLast reports whether the current page is the last one.
func (c *Controller) IsLast() bool {
	return c.Current() == c.TotalPages()-1
}

// Clamp forces the current page back into [0, TotalPages-1].
func (c *Controller) Clamp() {
	c.current = c.clampPage(c.current)
}

// SetCurrent moves to page without committing, clamping out-of-range values.
// It is used when restoring persisted state.
func (c *Controller) SetCurrent(page int) {
	c.current = c.clampPage(page)
}

// SetFinished restores the finished flag from persisted state.
func (c *Controller) SetFinished(finished bool) {
	c.finished = finished
}

func (c *Controller) clampPage(page int) int {
	if page < 0 {
		return 0
	}
	if last := c.TotalPages() - 1; page > last {
		return last
	}
	return page
}

// PageBounds returns the [start, end) id range of page (clamped).
func (c *Controller) PageBounds(page int) (int, int) {
	page = c.clampPage(page)
	start := page * c.pageSize
	end := start + c.pageSize
	if size := c.store.Len(); end > size {
		end = size
	}
	if start > end {
		start = end
	}
	return start, end
}

// PageIDs returns the statement ids shown on page.
func (c *Controller) PageIDs(page int) []int {
	start, end := c.PageBounds(page)
	ids := make([]int, 0, end-start)
	for id := start; id < end; id++ {
		ids = append(ids, id)
	}
	return ids
}

// Progress is (current+1)/total.
func (c *Controller) Progress() float64 {
	return float64(c.Current()+1) / float64(c.TotalPages())
}

// Edit stages a value for a statement on the current page. It returns false
// and stages nothing when id is not on the current page.
func (c *Controller) Edit(id, value int) bool {
	start, end := c.PageBounds(c.Current())
	if id < start || id >= end {
		return false
	}
	c.pending[id] = value
	return true
}

// Pending returns a copy of the staged edits.
func (c *Controller) Pending() map[int]int {
	out := make(map[int]int, len(c.pending))
	for id, v := range c.pending {
		out[id] = v
	}
	return out
}

// Value returns the value a user editing the current page sees: the pending
// edit if any, otherwise the committed value.
func (c *Controller) Value(id int) int {
	if v, ok := c.pending[id]; ok {
		return responses.Normalize(v)
	}
	return c.store.Get(id)
}

// Commit writes every pending edit through the store and clears the buffer.
func (c *Controller) Commit() {
	ids := make([]int, 0, len(c.pending))
	for id := range c.pending {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		c.store.Set(id, c.pending[id])
	}
	c.pending = make(map[int]int)
}

// CommitPage records a page's input and commits it. The page index is clamped.
// Values for ids outside that page are dropped; the count is returned.
func (c *Controller) CommitPage(page int, values map[int]int) int {
	start, end := c.PageBounds(page)
	dropped := 0
	for id, v := range values {
		if id < start || id >= end {
			dropped++
			continue
		}
		c.pending[id] = v
	}
	c.Commit()
	return dropped
}

// Advance commits, then moves forward one page. On the last page the index is
// unchanged and ready is true.
func (c *Controller) Advance() (page int, ready bool) {
	c.Commit()
	c.Clamp()
	if c.current < c.TotalPages()-1 {
		c.current++
		return c.current, false
	}
	return c.current, true
}

// Retreat commits, then moves back one page. It is a no-op on the first page
// apart from the commit.
func (c *Controller) Retreat() int {
	c.Commit()
	c.Clamp()
	if c.current > 0 {
		c.current--
	}
	return c.current
}

// SubmitFinal commits the last page and marks the controller finished.
func (c *Controller) SubmitFinal() error {
	c.Clamp()
	if c.current != c.TotalPages()-1 {
		return ErrNotLastPage
	}
	c.Commit()
	c.finished = true
	return nil
}

// Restart resets the store, returns to page 0 and clears the finished flag.
func (c *Controller) Restart() {
	c.store.Reset()
	c.pending = make(map[int]int)
	c.current = 0
	c.finished = false
}
