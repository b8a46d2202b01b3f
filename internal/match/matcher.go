package match

import (
	"sort"
	"strings"

	"github.com/A-zanke/pharmachat/internal/catalog"
)

// Tier is the confidence bucket derived from the numeric score.
type Tier string

const (
	TierExact     Tier = "exact"      // score >= 95
	TierVeryClose Tier = "very_close" // 85..94
	TierClose     Tier = "close"      // 70..84
	TierNone      Tier = "none"       // below 70
)

// MinScore is the acceptance floor; anything below it is a no-match.
const MinScore = 70

// Result is the outcome of matching a free-text name against the
// catalog. Item is nil when Tier is TierNone.
type Result struct {
	Item  *catalog.Item
	Score int
	Tier  Tier
}

func (r Result) Found() bool {
	return r.Tier != TierNone && r.Item != nil
}

func tierFor(score int) Tier {
	switch {
	case score >= 95:
		return TierExact
	case score >= 85:
		return TierVeryClose
	case score >= MinScore:
		return TierClose
	default:
		return TierNone
	}
}

// Match resolves query against the catalog snapshot. One linear scan;
// ties are broken by catalog order because only a strictly greater
// score replaces the current best.
func Match(query string, items []catalog.Item) Result {
	q := normalize(query)
	if q == "" {
		return Result{Tier: TierNone}
	}

	best := Result{Tier: TierNone}
	for i := range items {
		name := normalize(items[i].Name)
		if name == "" {
			continue
		}

		if name == q {
			return Result{Item: &items[i], Score: 100, Tier: TierExact}
		}

		score := 0
		if strings.Contains(name, q) {
			score = maxInt(len(q)*100/len(name), 90)
		} else if strings.Contains(q, name) {
			score = minInt(maxInt(len(q)*100/len(name), 80), 100)
		}

		if r := levenshteinRatio(q, name); r >= MinScore && r > score {
			score = r
		}
		if r := tokenSetRatio(q, name); r >= MinScore && r > score {
			score = r
		}

		if score > best.Score {
			best = Result{Item: &items[i], Score: score, Tier: tierFor(score)}
		}
	}

	if best.Score < MinScore {
		return Result{Tier: TierNone}
	}
	return best
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// levenshteinRatio is a 0..100 similarity derived from edit distance
// over the longer string's length.
func levenshteinRatio(a, b string) int {
	if a == b {
		return 100
	}
	la, lb := len([]rune(a)), len([]rune(b))
	longer := la
	if lb > longer {
		longer = lb
	}
	if longer == 0 {
		return 100
	}
	d := levenshtein(a, b)
	return (longer - d) * 100 / longer
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = minInt(prev[j]+1, minInt(cur[j-1]+1, prev[j-1]+cost))
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

// tokenSetRatio compares the sorted token intersection against each
// side's full sorted token string, so word order and duplicated words
// do not hurt the score ("dolo 650" vs "650 dolo" scores 100).
func tokenSetRatio(a, b string) int {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	var common, onlyA, onlyB []string
	for tok := range ta {
		if tb[tok] {
			common = append(common, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range tb {
		if !ta[tok] {
			onlyB = append(onlyB, tok)
		}
	}
	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	base := strings.Join(common, " ")
	fullA := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	fullB := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	r := levenshteinRatio(fullA, fullB)
	if base != "" {
		if v := levenshteinRatio(base, fullA); v > r {
			r = v
		}
		if v := levenshteinRatio(base, fullB); v > r {
			r = v
		}
	}
	return r
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
