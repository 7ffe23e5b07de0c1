package listutil

import (
	"net/url"
	"reflect"
	"testing"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		query string
		want  Page
	}{
		{"", Page{Number: 1, Size: DefaultPageSize}},
		{"page=3&size=100", Page{Number: 3, Size: 100}},
		{"page=-2&size=7", Page{Number: 1, Size: DefaultPageSize}},
		{"page=abc", Page{Number: 1, Size: DefaultPageSize}},
	}
	for _, tt := range tests {
		q, _ := url.ParseQuery(tt.query)
		if got := ParsePage(q); got != tt.want {
			t.Errorf("ParsePage(%q) = %+v, want %+v", tt.query, got, tt.want)
		}
	}
}

func TestFilters(t *testing.T) {
	q, _ := url.ParseQuery("intent=enroll&outcome=&actor=+ana@example.com+&other=x")
	got := Filters(q, "intent", "outcome", "actor")
	want := map[string]string{"intent": "enroll", "actor": "ana@example.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Filters = %v, want %v", got, want)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		page      Page
		total     int
		wantNum   int
		wantPages int
		first     int
		last      int
	}{
		{"empty", Page{1, 25}, 0, 1, 1, 0, 0},
		{"first page", Page{1, 25}, 60, 1, 3, 1, 25},
		{"last partial page", Page{3, 25}, 60, 3, 3, 51, 60},
		{"clamped past end", Page{9, 25}, 60, 3, 3, 51, 60},
		{"zero size", Page{1, 0}, 10, 1, 1, 1, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Resolve(tt.page, tt.total)
			if w.Number != tt.wantNum || w.Pages != tt.wantPages {
				t.Errorf("Resolve = page %d of %d, want %d of %d", w.Number, w.Pages, tt.wantNum, tt.wantPages)
			}
			if w.First() != tt.first || w.Last() != tt.last {
				t.Errorf("rows %d-%d, want %d-%d", w.First(), w.Last(), tt.first, tt.last)
			}
		})
	}
}

func TestWindow_Numbers(t *testing.T) {
	tests := []struct {
		number, pages int
		want          []int
	}{
		{1, 1, []int{1}},
		{1, 10, []int{1, 2, 3, 4, 5}},
		{6, 10, []int{4, 5, 6, 7, 8}},
		{10, 10, []int{6, 7, 8, 9, 10}},
		{2, 3, []int{1, 2, 3}},
	}
	for _, tt := range tests {
		w := Window{Page: Page{Number: tt.number, Size: 10}, Pages: tt.pages}
		if got := w.Numbers(); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Numbers(%d of %d) = %v, want %v", tt.number, tt.pages, got, tt.want)
		}
	}
}

func TestWindow_URL(t *testing.T) {
	q, _ := url.ParseQuery("intent=enroll&page=1")
	w := Resolve(Page{Number: 1, Size: 25}, 100)
	if got := w.URL("/admin/audit", q, 2); got != "/admin/audit?intent=enroll&page=2&size=25" {
		t.Errorf("URL = %q", got)
	}
	if !w.HasNext() || w.HasPrev() {
		t.Errorf("HasNext/HasPrev = %v/%v", w.HasNext(), w.HasPrev())
	}
}
