package resolve

import "strings"

// levenshtein computes the edit distance between a and b using the
// classic two-row dynamic program; sufficient for the short identifiers
// suggestions are computed over.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
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
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			cur[j] = min3(del, ins, sub)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// suggest returns the best candidate(s) for name within edit distance <=2
// that also share a prefix of length >= 1, matching the narrow "did you
// mean" search the resolver runs for E0001/E0002.
func suggest(name string, candidates []string) []string {
	target := strings.ToLower(name)
	var best []string
	bestDist := 3
	for _, c := range candidates {
		lc := strings.ToLower(c)
		if lc == target {
			continue
		}
		if len(target) == 0 || len(lc) == 0 || target[0] != lc[0] {
			continue
		}
		d := levenshtein(target, lc)
		if d > 2 {
			continue
		}
		switch {
		case d < bestDist:
			bestDist = d
			best = []string{c}
		case d == bestDist:
			best = append(best, c)
		}
	}
	return best
}
