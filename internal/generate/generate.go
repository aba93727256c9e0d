// Package generate turns a free-form keyword phrase into registrable
// label variants, best first.
package generate

import (
	"slices"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/net/idna"
)

type Options struct {
	MaxLabels   int
	MinTokenLen int
	// Hyphenated adds "a-b" forms next to the joined "ab" forms.
	Hyphenated bool
}

type Candidate struct {
	Label string
	Score int
}

type Generator struct {
	opts Options
}

func New(opts Options) *Generator {
	if opts.MaxLabels <= 0 {
		opts.MaxLabels = 8
	}
	if opts.MinTokenLen <= 0 {
		opts.MinTokenLen = 1
	}
	return &Generator{opts: opts}
}

// Labels returns up to MaxLabels variants of phrase. The first candidate is
// always the full phrase joined without separators when that is a valid
// label, whatever its score.
func (g *Generator) Labels(phrase string) []Candidate {
	tokens := Tokenize(phrase, g.opts.MinTokenLen)
	if len(tokens) == 0 {
		return nil
	}

	seen := map[string]int{}
	add := func(label string, score int) {
		ascii, ok := toLabel(label)
		if !ok {
			return
		}
		if old, ok := seen[ascii]; ok && old >= score {
			return
		}
		seen[ascii] = score
	}

	for _, seq := range sequences(tokens) {
		dropped := len(tokens) - len(seq)
		concat := strings.Join(seq, "")
		add(concat, scoreLabel(seq, concat)-10*dropped)
		if g.opts.Hyphenated && len(seq) > 1 {
			hyphen := strings.Join(seq, "-")
			add(hyphen, scoreLabel(seq, hyphen)-3-10*dropped)
		}
	}

	out := make([]Candidate, 0, len(seen))
	for label, score := range seen {
		out = append(out, Candidate{Label: label, Score: score})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if len(out[i].Label) != len(out[j].Label) {
			return len(out[i].Label) < len(out[j].Label)
		}
		return out[i].Label < out[j].Label
	})

	if full, ok := toLabel(strings.Join(tokens, "")); ok {
		if i := slices.IndexFunc(out, func(c Candidate) bool { return c.Label == full }); i > 0 {
			c := out[i]
			copy(out[1:i+1], out[:i])
			out[0] = c
		}
	}

	if len(out) > g.opts.MaxLabels {
		out = out[:g.opts.MaxLabels]
	}
	return out
}

// Tokenize lowercases s and splits it on anything that is not a letter or
// digit, dropping tokens shorter than minLen.
func Tokenize(s string, minLen int) []string {
	s = strings.ToLower(s)
	var tokens []string
	var cur []rune
	flush := func() {
		if len(cur) == 0 {
			return
		}
		t := string(cur)
		cur = cur[:0]
		if len([]rune(t)) < minLen {
			return
		}
		tokens = append(tokens, t)
	}

	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur = append(cur, r)
			continue
		}
		flush()
	}
	flush()
	return tokens
}

func sequences(tokens []string) [][]string {
	var out [][]string

	add := func(toks []string) {
		if len(toks) == 0 {
			return
		}
		out = append(out, append([]string(nil), toks...))
	}

	// Full phrase.
	add(tokens)

	// 2- and 3-grams (contiguous).
	for n := 2; n <= 3; n++ {
		if len(tokens) <= n {
			continue
		}
		for i := 0; i <= len(tokens)-n; i++ {
			add(tokens[i : i+n])
		}
	}

	// Remove exactly one token (useful for long phrases with "glue" words).
	if len(tokens) >= 3 && len(tokens) <= 6 {
		for drop := 0; drop < len(tokens); drop++ {
			seq := make([]string, 0, len(tokens)-1)
			seq = append(seq, tokens[:drop]...)
			seq = append(seq, tokens[drop+1:]...)
			add(seq)
		}
	}

	seen := map[string]struct{}{}
	uniq := out[:0]
	for _, s := range out {
		key := strings.Join(s, "\x00")
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		uniq = append(uniq, s)
	}
	return uniq
}

func scoreLabel(tokens []string, label string) int {
	score := 100
	if len(tokens) > 2 {
		score -= 5 * (len(tokens) - 2)
	}
	if len(label) > 14 {
		score -= (len(label) - 14) / 2
	}
	if score < 1 {
		score = 1
	}
	return score
}

// toLabel converts label to its ASCII (punycode) form and reports whether
// the result is a valid single DNS label.
func toLabel(label string) (string, bool) {
	ascii, err := idna.Lookup.ToASCII(label)
	if err != nil {
		return "", false
	}
	return ascii, IsValidLabel(ascii)
}

func IsValidLabel(label string) bool {
	if label == "" || len(label) > 63 {
		return false
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' {
			continue
		}
		return false
	}
	return true
}
