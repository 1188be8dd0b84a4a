package query

// levenshtein computes the edit distance between a and b, bailing out early
// once the running minimum possible distance exceeds maxEdits (max_edits =
// max(1, len/4) for fuzzy reranking). Returns a distance > maxEdits (not the
// exact value) once that bound is provably exceeded, which is all the fuzzy
// reranker needs to discard the candidate.
func levenshtein(a, b string, maxEdits int) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if diff := len(ra) - len(rb); diff > maxEdits || diff < -maxEdits {
		return maxEdits + 1
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		rowMin := curr[0]
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
			if curr[j] < rowMin {
				rowMin = curr[j]
			}
		}
		if rowMin > maxEdits {
			return maxEdits + 1
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// maxEditsFor implements the max_edits = max(1, len/4) rule.
func maxEditsFor(s string) int {
	if n := len(s) / 4; n > 1 {
		return n
	}
	return 1
}
