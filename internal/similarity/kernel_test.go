package similarity

import (
	"testing"

	"github.com/norsteel/takeoff/internal/config"
)

func testKernel() *Kernel {
	cfg := config.DefaultConfig()
	return NewKernel(&cfg.Similarity)
}

func TestScore_identity(t *testing.T) {
	k := testKernel()
	inputs := []string{
		"",
		"PIPE",
		"PIPE 6\" SCH40",
		"description",
		"1234",
		"ASTM A106 GR.B",
	}
	for _, s := range inputs {
		if got := k.Score(s, s); got != 1 {
			t.Errorf("Score(%q, %q) = %v, want 1", s, s, got)
		}
	}
}

func TestScore_disjointStringsScoreLow(t *testing.T) {
	k := testKernel()
	pairs := [][2]string{
		{"AAA", "ZZZ"},
		{"TUBING", "CLAMP"},
		{"abcd", "xyzq"},
	}
	for _, p := range pairs {
		if got := k.Score(p[0], p[1]); got >= 0.3 {
			t.Errorf("Score(%q, %q) = %v, want < 0.3", p[0], p[1], got)
		}
	}
}

func TestScore_truncatedTokenStillSimilar(t *testing.T) {
	k := testKernel()
	got := k.Score("DESCR", "DESCRIPTION")
	if got < 0.4 {
		t.Errorf("truncated token score = %v, want >= 0.4", got)
	}
	// A truncation must beat an unrelated word of the same length.
	unrelated := k.Score("WIDTH", "DESCRIPTION")
	if got <= unrelated {
		t.Errorf("truncation (%v) should outscore unrelated word (%v)", got, unrelated)
	}
}

func TestScore_caseAndSpacingInsensitive(t *testing.T) {
	k := testKernel()
	if got := k.Score("pipe  6\"   sch40", "PIPE 6\" SCH40"); got != 1 {
		t.Errorf("normalized equal strings: got %v, want 1", got)
	}
}

func TestBestMatch(t *testing.T) {
	k := testKernel()
	candidates := []string{"ITEM", "DESCRIPTION", "QTY", "UNIT"}

	m := k.BestMatch("DESCRPTION", candidates, 0.6)
	if m == nil {
		t.Fatal("expected a match for corrupted DESCRPTION")
	}
	if m.Value != "DESCRIPTION" || m.Index != 1 {
		t.Errorf("got %+v, want DESCRIPTION at index 1", m)
	}

	if m := k.BestMatch("ZZZZZ", candidates, 0.6); m != nil {
		t.Errorf("expected nil for unmatched target, got %+v", m)
	}
	if m := k.BestMatch("DESCRIPTION", nil, 0.6); m != nil {
		t.Errorf("expected nil for empty candidates, got %+v", m)
	}
}

func TestAllMatches(t *testing.T) {
	k := testKernel()
	candidates := []string{"QTY", "QUANTITY", "QUALITY"}

	matches := k.AllMatches("QUANTITY", candidates, 0.4)
	if len(matches) < 2 {
		t.Fatalf("expected at least 2 matches, got %d", len(matches))
	}
	if matches[0].Value != "QUANTITY" || matches[0].Score != 1 {
		t.Errorf("first match should be the exact one, got %+v", matches[0])
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Errorf("matches not sorted descending: %+v", matches)
		}
	}

	if got := k.AllMatches("ANYTHING", nil, 0.4); len(got) != 0 {
		t.Errorf("empty candidates should yield empty result, got %+v", got)
	}
}
