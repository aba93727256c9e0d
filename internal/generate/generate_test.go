package generate

import "testing"

func TestLabels_SingleToken(t *testing.T) {
	t.Parallel()

	cands := New(Options{Hyphenated: true}).Labels("Shop")
	if len(cands) != 1 || cands[0].Label != "shop" {
		t.Fatalf("cands=%v, want [shop]", cands)
	}
}

func TestLabels_Multiword(t *testing.T) {
	t.Parallel()

	g := New(Options{MaxLabels: 50, Hyphenated: true})
	cands := g.Labels("best pizza lagos")
	if len(cands) == 0 {
		t.Fatalf("expected candidates, got none")
	}
	if cands[0].Label != "bestpizzalagos" {
		t.Fatalf("first=%q, want bestpizzalagos (full phrase joined)", cands[0].Label)
	}

	seen := map[string]struct{}{}
	for _, c := range cands {
		seen[c.Label] = struct{}{}
	}
	for _, want := range []string{"best-pizza-lagos", "bestpizza", "pizzalagos", "best-lagos"} {
		if _, ok := seen[want]; !ok {
			t.Fatalf("expected %s candidate; got %v", want, cands)
		}
	}
}

func TestLabels_LongPhraseKeepsFullJoinFirst(t *testing.T) {
	t.Parallel()

	cands := New(Options{MaxLabels: 6, Hyphenated: true}).Labels("international business machines corporation limited")
	if len(cands) == 0 || cands[0].Label != "internationalbusinessmachinescorporationlimited" {
		t.Fatalf("cands=%v, want full phrase first", cands)
	}
	if len(cands) != 6 {
		t.Fatalf("len=%d, want 6", len(cands))
	}
}

func TestLabels_NoHyphenated(t *testing.T) {
	t.Parallel()

	for _, c := range New(Options{MaxLabels: 50}).Labels("my shop") {
		for i := 0; i < len(c.Label); i++ {
			if c.Label[i] == '-' {
				t.Fatalf("unexpected hyphenated label %q", c.Label)
			}
		}
	}
}

func TestLabels_IDN(t *testing.T) {
	t.Parallel()

	cands := New(Options{}).Labels("Bücher")
	if len(cands) != 1 || cands[0].Label != "xn--bcher-kva" {
		t.Fatalf("cands=%v, want [xn--bcher-kva]", cands)
	}
}

func TestLabels_Empty(t *testing.T) {
	t.Parallel()

	if got := New(Options{}).Labels("  --  "); got != nil {
		t.Fatalf("Labels(punctuation)=%v, want nil", got)
	}
}

func TestLabels_Cap(t *testing.T) {
	t.Parallel()

	if got := New(Options{MaxLabels: 3, Hyphenated: true}).Labels("one two three four"); len(got) != 3 {
		t.Fatalf("len=%d, want 3", len(got))
	}
}
