// Package matching provides the string and statistics helpers shared by the
// subscription and budget engines: description normalization, similarity
// scoring, fuzzy word overlap and simple interval statistics.
package matching

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NormalizeDescription lowercases s, turns every rune that is not a letter or
// digit into a space and collapses runs of whitespace.
func NormalizeDescription(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

// Words returns the normalized words of s.
func Words(s string) []string {
	return strings.Fields(NormalizeDescription(s))
}

// Titleize upper-cases the first letter of every normalized word.
func Titleize(s string) string {
	words := Words(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// Similarity scores two names in [0,1]. Identical normalized names score 1.
// When one contains the other the score is len(shorter)/len(longer),
// otherwise it is the Jaccard index of the two word sets.
func Similarity(a, b string) float64 {
	na, nb := NormalizeDescription(a), NormalizeDescription(b)
	if na == "" && nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	shorter, longer := na, nb
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if shorter != "" && strings.Contains(longer, shorter) {
		return float64(len(shorter)) / float64(len(longer))
	}

	return Jaccard(strings.Fields(na), strings.Fields(nb))
}

// Jaccard returns |A∩B| / |A∪B| over the two word sets.
func Jaccard(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, w := range a {
		setA[w] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, w := range b {
		setB[w] = struct{}{}
	}

	union := len(setA)
	intersection := 0
	for w := range setB {
		if _, ok := setA[w]; ok {
			intersection++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// Levenshtein returns the rune-level edit distance between a and b.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// fuzzyWords lowercases s, keeps only letters and digits and returns the
// words longer than two characters.
func fuzzyWords(s string) []string {
	var out []string
	for _, w := range Words(s) {
		if utf8.RuneCountInString(w) > 2 {
			out = append(out, w)
		}
	}
	return out
}

// FuzzyWordMatch reports whether more than 60% of the pattern's words are
// found in text. A pattern word is found when some text word contains it, is
// contained by it, or is within edit distance 2 of it.
func FuzzyWordMatch(pattern, text string) bool {
	patternWords := fuzzyWords(pattern)
	textWords := fuzzyWords(text)
	if len(patternWords) == 0 || len(textWords) == 0 {
		return false
	}

	matched := 0
	for _, pw := range patternWords {
		for _, tw := range textWords {
			if strings.Contains(tw, pw) || strings.Contains(pw, tw) || Levenshtein(pw, tw) <= 2 {
				matched++
				break
			}
		}
	}
	return float64(matched)/float64(len(patternWords)) > 0.6
}
