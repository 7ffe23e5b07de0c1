// Package listutil parses paging and filter parameters for list pages.
package listutil

import (
	"net/url"
	"strconv"
	"strings"
)

// DefaultPageSize is used when size is missing or not one of PageSizes.
const DefaultPageSize = 50

// PageSizes are the allowed rows-per-page values.
var PageSizes = []int{25, 50, 100, 200}

// Page is a 1-indexed page request.
type Page struct {
	Number int
	Size   int
}

// ParsePage reads page and size from q.
// POST: Number >= 1; Size is one of PageSizes
func ParsePage(q url.Values) Page {
	n, _ := strconv.Atoi(q.Get("page"))
	if n < 1 {
		n = 1
	}
	size, _ := strconv.Atoi(q.Get("size"))
	if !allowedSize(size) {
		size = DefaultPageSize
	}
	return Page{Number: n, Size: size}
}

// Filters returns the trimmed, non-empty values of keys in q.
func Filters(q url.Values, keys ...string) map[string]string {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			out[k] = v
		}
	}
	return out
}

// Window is a resolved page over a known total.
type Window struct {
	Page
	Total int
	Pages int
}

// Resolve clamps p against total rows.
// PRE: total >= 0
// POST: 1 <= Number <= Pages; Pages >= 1
func Resolve(p Page, total int) Window {
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	pages := (total + p.Size - 1) / p.Size
	if pages < 1 {
		pages = 1
	}
	if p.Number > pages {
		p.Number = pages
	}
	if p.Number < 1 {
		p.Number = 1
	}
	return Window{Page: p, Total: total, Pages: pages}
}

// Offset is the number of rows before this page.
func (w Window) Offset() int {
	return (w.Number - 1) * w.Size
}

// First is the 1-indexed first row shown, or 0 when there are none.
func (w Window) First() int {
	if w.Total == 0 {
		return 0
	}
	return w.Offset() + 1
}

// Last is the 1-indexed last row shown.
func (w Window) Last() int {
	return min(w.Offset()+w.Size, w.Total)
}

// HasPrev reports whether an earlier page exists.
func (w Window) HasPrev() bool {
	return w.Number > 1
}

// HasNext reports whether a later page exists.
func (w Window) HasNext() bool {
	return w.Number < w.Pages
}

// Numbers returns up to five page numbers centred on the current page.
func (w Window) Numbers() []int {
	const span = 5
	start := max(w.Number-span/2, 1)
	end := start + span - 1
	if end > w.Pages {
		end = w.Pages
		start = max(end-span+1, 1)
	}
	out := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		out = append(out, i)
	}
	return out
}

// URL returns base with q and the given page number.
func (w Window) URL(base string, q url.Values, number int) string {
	next := url.Values{}
	for k, vs := range q {
		if k == "page" {
			continue
		}
		next[k] = vs
	}
	next.Set("page", strconv.Itoa(number))
	if w.Size != DefaultPageSize {
		next.Set("size", strconv.Itoa(w.Size))
	}
	return base + "?" + next.Encode()
}

func allowedSize(n int) bool {
	for _, s := range PageSizes {
		if n == s {
			return true
		}
	}
	return false
}
