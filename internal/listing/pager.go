package listing

import (
	"fmt"
	"slices"
)

// DefaultPageSize is the page size used when none is configured.
const DefaultPageSize = 10

// PageSizes are the page sizes offered by the pagination footer.
var PageSizes = []int{10, 25, 50, 100}

// Pager holds the page position of one list view. Changing the page size
// always returns to the first page.
type Pager struct {
	index int
	size  int
	sizes []int
}

// NewPager returns a pager on page 0. A size not in sizes is replaced by the
// first allowed size; nil sizes means PageSizes.
func NewPager(size int, sizes []int) *Pager {
	if len(sizes) == 0 {
		sizes = PageSizes
	}
	if !slices.Contains(sizes, size) {
		size = sizes[0]
	}
	return &Pager{size: size, sizes: sizes}
}

// Index returns the zero-based page index.
func (p *Pager) Index() int { return p.index }

// Size returns the page size.
func (p *Pager) Size() int { return p.size }

// Sizes returns the allowed page sizes.
func (p *Pager) Sizes() []int { return p.sizes }

// SetPageSize changes the page size and resets the index to 0, even when the
// size is unchanged.
func (p *Pager) SetPageSize(size int) error {
	if !slices.Contains(p.sizes, size) {
		return fmt.Errorf("listing: page size %d not one of %v", size, p.sizes)
	}
	p.size = size
	p.index = 0
	return nil
}

// SetPage moves to the given page index. Negative indices move to page 0.
func (p *Pager) SetPage(index int) {
	p.index = max(index, 0)
}

// Reset returns to the first page. Search, filter and sort changes call it.
func (p *Pager) Reset() { p.index = 0 }

// Next advances one page if one exists for total rows.
func (p *Pager) Next(total int) bool {
	if (p.index+1)*p.size >= total {
		return false
	}
	p.index++
	return true
}

// Prev goes back one page if not on the first.
func (p *Pager) Prev() bool {
	if p.index == 0 {
		return false
	}
	p.index--
	return true
}

// Clamp pulls the index back onto the last page when total shrank, so
// pageIndex*pageSize never passes the total by more than one page.
func (p *Pager) Clamp(total int) {
	if total <= 0 {
		p.index = 0
		return
	}
	last := (total - 1) / p.size
	if p.index > last {
		p.index = last
	}
}
