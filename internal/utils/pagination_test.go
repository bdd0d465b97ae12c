package utils

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		// empty -> default
		{"", 10, 10},
		// valid ints
		{"42", 0, 42},
		{"-13", 1, -13},
		{"0012", 99, 12},
		// invalid -> default (no trim)
		{"x", 5, 5},
		{" 42", 7, 7},
		// overflow -> default
		{"999999999999999999999999", -1, -1},
	}

	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestPaginate_Meta(t *testing.T) {
	cases := []struct {
		name         string
		total        int64
		page, limit  int
		wantLastPage int
	}{
		{"empty", 0, 1, 10, 0},
		{"exact multiple", 20, 1, 10, 2},
		{"partial last page", 21, 3, 10, 3},
		{"single row", 1, 1, 10, 1},
		{"limit one", 5, 2, 1, 5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Paginate([]int{1}, tc.total, tc.page, tc.limit)
			if p.Meta.Total != tc.total || p.Meta.Page != tc.page || p.Meta.LastPage != tc.wantLastPage {
				t.Fatalf("meta = %+v; want total=%d page=%d lastPage=%d",
					p.Meta, tc.total, tc.page, tc.wantLastPage)
			}
		})
	}
}

func TestPaginate_NilDataSerializesAsEmptyArray(t *testing.T) {
	p := Paginate[string](nil, 0, 1, 10)
	if p.Data == nil {
		t.Fatalf("expected non-nil data slice")
	}

	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, `"data":[]`) {
		t.Fatalf("expected empty JSON array for data, got %s", s)
	}
	if !strings.Contains(s, `"lastPage":0`) {
		t.Fatalf("expected lastPage 0 for empty set, got %s", s)
	}
}
