package table

import (
	"net/url"
	"slices"
	"strconv"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/cebeepredict/admin/internal/listing"
	"github.com/cebeepredict/admin/model"
)

// Pagination describes the footer of a paged table.
type Pagination struct {
	Result model.ListResult
	// Sizes are the selectable page sizes. Nil means listing.PageSizes.
	Sizes []int
	// Href builds the link for a page index and size.
	Href func(page, size int) string
}

// QueryHref returns a Href function that keeps the other query parameters
// of base and replaces page and page_size.
func QueryHref(path string, base url.Values) func(page, size int) string {
	return func(page, size int) string {
		q := url.Values{}
		for k, v := range base {
			q[k] = slices.Clone(v)
		}
		q.Set("page", strconv.Itoa(page))
		q.Set("page_size", strconv.Itoa(size))
		return path + "?" + q.Encode()
	}
}

// pageWindow is how many page links are shown around the current page.
const pageWindow = 2

func footer(opts Options) Node {
	p := opts.Pagination
	if p == nil || opts.Loading || p.Result.TotalCount <= 0 || p.Href == nil {
		return nil
	}

	res := p.Result
	sizes := p.Sizes
	if len(sizes) == 0 {
		sizes = listing.PageSizes
	}
	pages := res.PageCount()

	// 1. Page size selector. Every size links to page 0.
	sizeLinks := make([]Node, 0, len(sizes))
	for _, size := range sizes {
		className := "page-size"
		if size == res.PageSize {
			className += " selected"
		}
		sizeLinks = append(sizeLinks, A(Href(p.Href(0, size)), Class(className), Text(strconv.Itoa(size))))
	}

	// 2. Prev, numbered window, next.
	var nav []Node
	nav = append(nav, pageLink(p, res.PageIndex-1, res.PageSize, "Previous", res.PageIndex == 0))
	for i := max(0, res.PageIndex-pageWindow); i <= min(pages-1, res.PageIndex+pageWindow); i++ {
		if i == res.PageIndex {
			nav = append(nav, Span(Class("page current"), Attr("aria-current", "page"), Text(strconv.Itoa(i+1))))
			continue
		}
		nav = append(nav, A(Href(p.Href(i, res.PageSize)), Class("page"), Text(strconv.Itoa(i+1))))
	}
	nav = append(nav, pageLink(p, res.PageIndex+1, res.PageSize, "Next", !res.HasNext()))

	return Div(
		Class("table-footer d-flex flex-justify-between flex-items-center"),
		Div(Class("page-sizes"), Span(Class("color-fg-muted text-small"), Text("Rows per page")), Group(sizeLinks)),
		P(Class("color-fg-muted text-small mb-0"), Text(RangeLabel(res))),
		Nav(Class("pagination"), Attr("aria-label", "Pagination"), Group(nav)),
	)
}

func pageLink(p *Pagination, index, size int, label string, disabled bool) Node {
	if disabled {
		return Span(Class("page disabled"), Attr("aria-disabled", "true"), Text(label))
	}
	return A(Href(p.Href(index, size)), Class("page"), Attr("rel", relFor(label)), Text(label))
}

func relFor(label string) string {
	if label == "Previous" {
		return "prev"
	}
	return "next"
}
