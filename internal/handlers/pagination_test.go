package handlers

import "testing"

func TestParsePaginationParamsDefaults(t *testing.T) {
	page, limit, err := parsePaginationParams("", "", 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page != 1 || limit != 12 {
		t.Fatalf("expected page=1 limit=12, got page=%d limit=%d", page, limit)
	}
}

func TestParsePaginationParamsExplicit(t *testing.T) {
	page, limit, err := parsePaginationParams("3", "50", 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page != 3 || limit != 50 {
		t.Fatalf("expected page=3 limit=50, got page=%d limit=%d", page, limit)
	}
}

func TestParsePaginationParamsRejectsBadInput(t *testing.T) {
	cases := [][2]string{
		{"0", "10"},
		{"-1", "10"},
		{"1", "0"},
		{"abc", "10"},
		{"1", "xyz"},
	}
	for _, tc := range cases {
		if _, _, err := parsePaginationParams(tc[0], tc[1], 12); err == nil {
			t.Fatalf("expected error for page=%q limit=%q", tc[0], tc[1])
		}
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total, limit, want int64
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{95, 20, 5},
	}
	for _, tc := range cases {
		if got := totalPages(tc.total, tc.limit); got != tc.want {
			t.Fatalf("totalPages(%d, %d) = %d, want %d", tc.total, tc.limit, got, tc.want)
		}
	}
}
