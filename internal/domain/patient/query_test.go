package patient

import (
	"net/url"
	"strings"
	"testing"
)

func TestParseListParams_Defaults(t *testing.T) {
	p := ParseListParams(url.Values{})

	if p.SortBy != "createdAt" {
		t.Errorf("expected default sort createdAt, got %q", p.SortBy)
	}
	if p.SortOrder != "desc" {
		t.Errorf("expected default order desc, got %q", p.SortOrder)
	}
	if p.Page.Page != 1 || p.Page.Limit != 50 {
		t.Errorf("expected page 1 limit 50, got %+v", p.Page)
	}
	if p.MinAge != nil || p.MaxAge != nil {
		t.Error("expected nil age bounds")
	}
}

func TestParseListParams_Values(t *testing.T) {
	v := url.Values{}
	v.Set("search", "doe")
	v.Set("diagnosis", "flu")
	v.Set("minAge", "18")
	v.Set("maxAge", "65")
	v.Set("sortBy", "age")
	v.Set("sortOrder", "asc")
	v.Set("page", "3")
	v.Set("limit", "10")

	p := ParseListParams(v)
	if p.Search != "doe" || p.Diagnosis != "flu" {
		t.Errorf("unexpected filters %+v", p)
	}
	if p.MinAge == nil || *p.MinAge != 18 || p.MaxAge == nil || *p.MaxAge != 65 {
		t.Errorf("unexpected age bounds %+v", p)
	}
	if p.SortBy != "age" || p.SortOrder != "asc" {
		t.Errorf("unexpected sort %+v", p)
	}
	if p.Page.Page != 3 || p.Page.Limit != 10 {
		t.Errorf("unexpected pagination %+v", p.Page)
	}
}

func TestParseListParams_InvalidFallbacks(t *testing.T) {
	v := url.Values{}
	v.Set("sortBy", "picture")
	v.Set("sortOrder", "sideways")
	v.Set("minAge", "abc")

	p := ParseListParams(v)
	if p.SortBy != "createdAt" {
		t.Errorf("expected fallback sort createdAt, got %q", p.SortBy)
	}
	if p.SortOrder != "desc" {
		t.Errorf("expected fallback order desc, got %q", p.SortOrder)
	}
	if p.MinAge != nil {
		t.Error("expected non-numeric minAge to be ignored")
	}
}

func TestEscapeLike(t *testing.T) {
	cases := map[string]string{
		"plain":     "plain",
		"50%":       `50\%`,
		"a_b":       `a\_b`,
		`back\slash`: `back\\slash`,
		`%_\`:       `\%\_\\`,
	}
	for in, want := range cases {
		if got := escapeLike(in); got != want {
			t.Errorf("escapeLike(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFilterSQL_Empty(t *testing.T) {
	where, args := ListParams{}.FilterSQL()
	if where != "" || args != nil {
		t.Errorf("expected empty clause, got %q with %v", where, args)
	}
}

func TestFilterSQL_AllFilters(t *testing.T) {
	min, max := 18, 65
	p := ListParams{Search: "doe", Diagnosis: "flu", MinAge: &min, MaxAge: &max}
	where, args := p.FilterSQL()

	if !strings.HasPrefix(where, " WHERE ") {
		t.Errorf("expected leading WHERE, got %q", where)
	}
	if strings.Count(where, " AND ") != 3 {
		t.Errorf("expected 4 conjunctive conditions, got %q", where)
	}
	if !strings.Contains(where, "name ILIKE") || !strings.Contains(where, "unnest(relatives)") {
		t.Errorf("expected search to cover name and relatives, got %q", where)
	}
	if !strings.Contains(where, "age >= $3") || !strings.Contains(where, "age <= $4") {
		t.Errorf("expected positional age bounds, got %q", where)
	}
	want := []interface{}{"doe", "flu", 18, 65}
	if len(args) != len(want) {
		t.Fatalf("expected %d args, got %v", len(want), args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("arg %d: expected %v, got %v", i, want[i], args[i])
		}
	}
}

func TestFilterSQL_EscapesSearch(t *testing.T) {
	p := ListParams{Search: "100%"}
	_, args := p.FilterSQL()
	if len(args) != 1 || args[0] != `100\%` {
		t.Errorf("expected escaped search argument, got %v", args)
	}
}

func TestOrderSQL(t *testing.T) {
	cases := []struct {
		sortBy, sortOrder, want string
	}{
		{"", "", " ORDER BY created_at DESC, id"},
		{"name", "asc", " ORDER BY name ASC, id"},
		{"age", "desc", " ORDER BY age DESC, id"},
		{"updatedAt", "asc", " ORDER BY updated_at ASC, id"},
		{"bogus", "asc", " ORDER BY created_at ASC, id"},
	}
	for _, tc := range cases {
		p := ListParams{SortBy: tc.sortBy, SortOrder: tc.sortOrder}
		if got := p.OrderSQL(); got != tc.want {
			t.Errorf("OrderSQL(%q,%q) = %q, want %q", tc.sortBy, tc.sortOrder, got, tc.want)
		}
	}
}

func TestSearchSQL(t *testing.T) {
	sql, args := SearchSQL("ann_e", 20)

	if strings.Count(sql, "$1") != 4 {
		t.Errorf("expected the term reused across 4 fields, got %q", sql)
	}
	if !strings.Contains(sql, "ORDER BY name ASC, id LIMIT $2") {
		t.Errorf("expected name-ordered capped query, got %q", sql)
	}
	if len(args) != 2 || args[0] != `ann\_e` || args[1] != 20 {
		t.Errorf("unexpected args %v", args)
	}
}
