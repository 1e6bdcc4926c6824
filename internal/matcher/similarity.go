package matcher

import "strings"

// Similarity returns a score in [0, 1] describing how close two channel
// names are. Both names are case-folded and whitespace-normalized before
// comparison. The metric is Jaro-Winkler: symmetric, deterministic, 1.0 for
// identical inputs and 0.0 for strings with no characters in common. The
// prefix boost is what lets "ESPN HD" score high against "ESPN" while
// "Eurosport 1" and "Eurosport 2" stay distinguishable by threshold.
func Similarity(a, b string) float64 {
	return jaroWinkler(normalizeName(a), normalizeName(b))
}

func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// winklerPrefixScale and winklerMaxPrefix are the standard Winkler constants.
const (
	winklerPrefixScale = 0.1
	winklerMaxPrefix   = 4
)

func jaroWinkler(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)

	jaro := jaroSimilarity(ra, rb)

	prefix := 0
	for prefix < len(ra) && prefix < len(rb) && prefix < winklerMaxPrefix && ra[prefix] == rb[prefix] {
		prefix++
	}

	return jaro + float64(prefix)*winklerPrefixScale*(1-jaro)
}

func jaroSimilarity(a, b []rune) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	window := len(a)
	if len(b) > window {
		window = len(b)
	}
	window = window/2 - 1
	if window < 0 {
		window = 0
	}

	aMatched := make([]bool, len(a))
	bMatched := make([]bool, len(b))
	matches := 0

	for i := range a {
		lo := i - window
		if lo < 0 {
			lo = 0
		}
		hi := i + window + 1
		if hi > len(b) {
			hi = len(b)
		}
		for j := lo; j < hi; j++ {
			if bMatched[j] || a[i] != b[j] {
				continue
			}
			aMatched[i] = true
			bMatched[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0
	}

	transpositions := 0
	j := 0
	for i := range a {
		if !aMatched[i] {
			continue
		}
		for !bMatched[j] {
			j++
		}
		if a[i] != b[j] {
			transpositions++
		}
		j++
	}

	m := float64(matches)
	t := float64(transpositions / 2)

	return (m/float64(len(a)) + m/float64(len(b)) + (m-t)/m) / 3
}
