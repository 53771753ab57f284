package domain

import "testing"

func TestMinMatchTerms(t *testing.T) {
	cases := []struct {
		query string
		mm    float64
		want  int
	}{
		{"leave", 1.0, 1},
		{"leave policy", 1.0, 2},
		{"annual leave carryover policy", 0.5, 2},
		{"annual leave carryover policy probation", 0.4, 2},
		{"one two three four five six", 0.4, 3}, // ceil(6 * 0.4)
		{"leave policy", 0, 0},
		{"", 0.5, 0},
		{"Practice_Note_31A.pdf", 0.75, 1},
	}

	for _, tc := range cases {
		req := SearchRequest{Query: tc.query, MinShouldMatch: tc.mm}
		if got := req.MinMatchTerms(); got != tc.want {
			t.Errorf("MinMatchTerms(%q, %v) = %d, want %d", tc.query, tc.mm, got, tc.want)
		}
	}
}

func TestPassStatsAdd(t *testing.T) {
	total := PassStats{Processed: 1, Skipped: 2, Failed: 3}
	total.Add(PassStats{Processed: 10, Skipped: 20, Failed: 30})

	if total.Processed != 11 || total.Skipped != 22 || total.Failed != 33 {
		t.Errorf("unexpected totals after Add: %+v", total)
	}
}
