package citation

import (
	"reflect"
	"testing"
)

func TestNormalize_PageBracketToRank(t *testing.T) {
	pages := []int{4, 7, 9}
	got := Normalize("Revenue grew [Page 2].", pages)
	want := "Revenue grew [2](#page=7)."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalize_OutOfRangeLeftAlone(t *testing.T) {
	pages := []int{1, 2, 3}
	got := Normalize("See [99] and [2].", pages)
	want := "See [99] and [2](#page=2)."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCanonicalize_Variants(t *testing.T) {
	pages := []int{5, 12, 30}
	tests := []struct {
		in, want string
	}{
		{"[Page 2]", "[2]"},
		{"[page 3.]", "[3]"},
		{"[p. 1]", "[1]"},
		{"[P2]", "[2]"},
		{"(Page 2)", "[2]"},
		{"(p. 3)", "[3]"},
		{"as noted on Page 1", "as noted on [1]"},
		{"[2.]", "[2]"},
		{"[3,]", "[3]"},
		// Not an ordinal, but a page of source 2.
		{"[Page 12]", "[2]"},
		{"page 30", "[3]"},
		// Neither ordinal nor known page.
		{"[Page 44]", "[Page 44]"},
		{"(p. 44)", "(p. 44)"},
		{"[44.]", "[44.]"},
		{"the page count", "the page count"},
	}
	for _, tt := range tests {
		if got := Canonicalize(tt.in, pages); got != tt.want {
			t.Errorf("Canonicalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLink_SkipsExistingLinks(t *testing.T) {
	pages := []int{3, 8}
	in := "Done [1](#page=3) and [2]."
	got := Link(in, pages)
	want := "Done [1](#page=3) and [2](#page=8)."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	pages := []int{2, 4, 6}
	once := Normalize("A [1][2], B (Page 3), C [p. 4].", pages)
	twice := Normalize(once, pages)
	if once != twice {
		t.Errorf("not idempotent:\n%q\n%q", once, twice)
	}
}

func TestNormalize_NoSources(t *testing.T) {
	in := "Nothing to cite [1]."
	if got := Normalize(in, nil); got != in {
		t.Errorf("got %q", got)
	}
}

func TestOrdinals(t *testing.T) {
	got := Ordinals("[2] then [1] then [2] and [9]", 3)
	if !reflect.DeepEqual(got, []int{2, 1}) {
		t.Errorf("got %v", got)
	}
}

func TestNormalize_PageLabelAfterCitation(t *testing.T) {
	pages := []int{2, 5, 7}
	tests := []struct {
		in, want string
	}{
		// The context block label copied after its own citation.
		{"Revenue grew [1] (Page 2).", "Revenue grew [1](#page=2)."},
		{"Revenue grew [2](Page 5).", "Revenue grew [2](#page=5)."},
		{"Revenue grew [3] page 7.", "Revenue grew [3](#page=7)."},
		// A label naming another page is not turned into a second citation.
		{"Revenue grew [1] (Page 7).", "Revenue grew [1](#page=2) (Page 7)."},
		{"Revenue grew [1] (Page 3).", "Revenue grew [1](#page=2) (Page 3)."},
	}
	for _, tt := range tests {
		got := Normalize(tt.in, pages)
		if got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if again := Normalize(got, pages); again != got {
			t.Errorf("Normalize not idempotent for %q: %q", tt.in, again)
		}
	}
}

func TestCanonicalize_ProseLabelsPreferPages(t *testing.T) {
	pages := []int{2, 5, 7}
	tests := []struct {
		in, want string
	}{
		// 2 is both an ordinal and the page of source 1.
		{"(Page 2)", "[1]"},
		{"on page 2", "on [1]"},
		// Bracketed forms stay ordinal-first.
		{"[Page 2]", "[2]"},
		// No page 3, so the ordinal wins.
		{"(Page 3)", "[3]"},
	}
	for _, tt := range tests {
		if got := Canonicalize(tt.in, pages); got != tt.want {
			t.Errorf("Canonicalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
