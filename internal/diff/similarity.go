package diff

// Jaccard computes set similarity between two name sets:
// |intersection| / |union|. Empty sets are never similar; a model with no
// fields carries no signal for rename detection.
func Jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}

	intersection := 0
	for _, s := range b {
		if set[s] {
			intersection++
			delete(set, s)
		}
	}

	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// Levenshtein computes the edit distance between two strings.
func Levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// nameSimilarity normalizes Levenshtein distance into [0, 1].
func nameSimilarity(a, b string) float64 {
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1.0
	}
	return 1.0 - float64(Levenshtein(a, b))/float64(longest)
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
