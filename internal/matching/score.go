package matching

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
)

// Thresholds tune scoring floors and the suggestion cutoff. Scores are in [0,100].
type Thresholds struct {
	// SuggestMin is the minimum score for a candidate to be offered as a duplicate.
	SuggestMin float64
	// Containment is the floor applied when one unspaced form contains the other.
	Containment float64
	// UnspacedEqual is the floor applied when the unspaced forms are identical.
	UnspacedEqual float64
	// ContainmentMinRunes is the shortest unspaced form eligible for the containment floor.
	ContainmentMinRunes int
}

// DefaultThresholds returns the stock tuning.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SuggestMin:          90,
		Containment:         92,
		UnspacedEqual:       97,
		ContainmentMinRunes: 3,
	}
}

func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t.SuggestMin <= 0 {
		t.SuggestMin = d.SuggestMin
	}
	if t.Containment <= 0 {
		t.Containment = d.Containment
	}
	if t.UnspacedEqual <= 0 {
		t.UnspacedEqual = d.UnspacedEqual
	}
	if t.ContainmentMinRunes <= 0 {
		t.ContainmentMinRunes = d.ContainmentMinRunes
	}
	return t
}

// Score returns the similarity of q and c with the default thresholds.
func Score(q, c Key) float64 {
	return DefaultThresholds().Score(q, c)
}

// Score returns the similarity of q and c in [0,100], rounded to 2 decimals.
func (t Thresholds) Score(q, c Key) float64 {
	t = t.withDefaults()
	if q.Normalized == "" || c.Normalized == "" {
		return 0
	}
	if q.Normalized == c.Normalized {
		return 100
	}

	spaced := sequenceScore(q.Normalized, c.Normalized)
	unspaced := sequenceScore(q.Unspaced, c.Unspaced)
	jaccard, coverage := tokenStats(q.Tokens, c.Tokens)
	jaccard *= 100
	coverage *= 100

	score := max(
		0.62*unspaced+0.38*spaced,
		0.55*coverage+0.45*jaccard,
		0.70*unspaced+0.30*coverage,
	)

	if q.Unspaced != "" && c.Unspaced != "" {
		shorter := min(utf8.RuneCountInString(q.Unspaced), utf8.RuneCountInString(c.Unspaced))
		contained := strings.Contains(c.Unspaced, q.Unspaced) || strings.Contains(q.Unspaced, c.Unspaced)
		if contained && shorter >= t.ContainmentMinRunes {
			score = max(score, t.Containment)
		}
	}
	if q.Unspaced == c.Unspaced {
		score = max(score, t.UnspacedEqual)
	}

	score = min(100, max(0, score))
	return math.Round(score*100) / 100
}

// sequenceRatio is the difflib matching-blocks ratio of a and b in [0,1],
// compared rune by rune.
func sequenceRatio(a, b string) float64 {
	return difflib.NewMatcher(runeElements(a), runeElements(b)).Ratio()
}

func runeElements(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func sequenceScore(left, right string) float64 {
	if left == "" || right == "" {
		return 0
	}
	if left == right {
		return 100
	}
	return sequenceRatio(left, right) * 100
}

// tokenStats returns the Jaccard index of the token sets and the larger of
// the two coverage ratios.
func tokenStats(query, candidate []string) (float64, float64) {
	if len(query) == 0 || len(candidate) == 0 {
		return 0, 0
	}
	qs := make(map[string]struct{}, len(query))
	for _, tok := range query {
		qs[tok] = struct{}{}
	}
	cs := make(map[string]struct{}, len(candidate))
	for _, tok := range candidate {
		cs[tok] = struct{}{}
	}
	intersection := 0
	for tok := range qs {
		if _, ok := cs[tok]; ok {
			intersection++
		}
	}
	if intersection == 0 {
		return 0, 0
	}
	union := len(qs) + len(cs) - intersection
	coverage := max(float64(intersection)/float64(len(qs)), float64(intersection)/float64(len(cs)))
	return float64(intersection) / float64(union), coverage
}
