package matching

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Candidate is an existing library artist.
type Candidate struct {
	Name       string
	TrackCount int
}

// Match is a scored candidate.
type Match struct {
	Name           string  `json:"name"`
	Score          float64 `json:"score"`
	TrackCount     int     `json:"track_count"`
	NormalizedName string  `json:"normalized_name"`
}

// Rank scores candidates against query with the default thresholds.
func Rank(query string, candidates []Candidate, limit int) []Match {
	return DefaultThresholds().Rank(query, candidates, limit)
}

// Rank scores candidates against query, dedupes by exact trimmed name and
// orders by score, then track count (desc), then shorter name, then name.
// At most max(1, limit) matches are returned.
func (t Thresholds) Rank(query string, candidates []Candidate, limit int) []Match {
	q := NewKey(query)
	if q.Original == "" {
		return nil
	}

	seen := make(map[string]struct{}, len(candidates))
	ranked := make([]Match, 0, len(candidates))
	for _, candidate := range candidates {
		name := strings.TrimSpace(candidate.Name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		key := NewKey(name)
		if key.Normalized == "" {
			continue
		}
		ranked = append(ranked, Match{
			Name:           name,
			Score:          t.Score(q, key),
			TrackCount:     candidate.TrackCount,
			NormalizedName: key.Normalized,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.TrackCount != b.TrackCount {
			return a.TrackCount > b.TrackCount
		}
		la, lb := utf8.RuneCountInString(a.Name), utf8.RuneCountInString(b.Name)
		if la != lb {
			return la < lb
		}
		return a.Name < b.Name
	})

	if limit < 1 {
		limit = 1
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// Suggest returns likely duplicates of query: ranked matches scoring at least
// t.SuggestMin, excluding a candidate whose name equals query exactly.
func (t Thresholds) Suggest(query string, candidates []Candidate, limit int) []Match {
	t = t.withDefaults()
	trimmed := strings.TrimSpace(query)
	filtered := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if strings.TrimSpace(c.Name) == trimmed {
			continue
		}
		filtered = append(filtered, c)
	}
	var out []Match
	for _, m := range t.Rank(query, filtered, limit) {
		if m.Score >= t.SuggestMin {
			out = append(out, m)
		}
	}
	return out
}
