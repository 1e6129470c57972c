package subscription

import (
	"strings"
	"unicode/utf8"

	"fintrack/internal/matching"
	"fintrack/internal/models"
)

// Confidence assigned to generated patterns.
const (
	ExactPatternConfidence      = 1.0
	ContainsPatternConfidence   = 0.8
	StartsWithPatternConfidence = 0.7
)

// minCommonSubstring is the shortest shared substring worth a contains pattern.
const minCommonSubstring = 4

// PatternSpec is a pattern ready to be persisted for a subscription.
type PatternSpec struct {
	Pattern    string             `json:"pattern"`
	Type       models.PatternType `json:"pattern_type"`
	Confidence float64            `json:"confidence"`
}

// Model converts s to a system-created pattern for subscriptionID.
func (s PatternSpec) Model(subscriptionID string) models.SubscriptionPattern {
	return models.SubscriptionPattern{
		SubscriptionID:  subscriptionID,
		Pattern:         s.Pattern,
		PatternType:     s.Type,
		ConfidenceScore: s.Confidence,
		CreatedBy:       models.PatternCreatedBySystem,
		IsActive:        true,
	}
}

// noiseWords are dropped from descriptions before building contains patterns.
var noiseWords = map[string]struct{}{
	// articles and fillers
	"the": {}, "a": {}, "an": {}, "and": {}, "of": {}, "for": {}, "to": {},
	// card networks and payment terms
	"visa": {}, "mastercard": {}, "mc": {}, "amex": {}, "maestro": {}, "debit": {}, "credit": {},
	"card": {}, "kort": {}, "pos": {}, "payment": {}, "purchase": {}, "varekjop": {}, "nettkjop": {},
	// processors
	"paypal": {}, "vipps": {}, "klarna": {}, "stripe": {}, "sq": {}, "sumup": {}, "izettle": {},
	// corporate suffixes and web noise
	"inc": {}, "ltd": {}, "llc": {}, "as": {}, "asa": {}, "ab": {}, "gmbh": {}, "co": {},
	"corp": {}, "com": {}, "www": {}, "net": {}, "no": {}, "io": {},
}

// ExtractCoreWords returns the words of description that identify the
// merchant: noise words and purely numeric tokens are removed.
func ExtractCoreWords(description string) []string {
	var core []string
	for _, w := range matching.Words(description) {
		if _, noise := noiseWords[w]; noise {
			continue
		}
		if isNumeric(w) {
			continue
		}
		core = append(core, w)
	}
	return core
}

func isNumeric(w string) bool {
	for _, r := range w {
		if r < '0' || r > '9' {
			return false
		}
	}
	return w != ""
}

// CreatePatternsForCandidate builds the patterns stored when a candidate is
// confirmed: an exact pattern on the first transaction's description, a
// contains pattern on its core words and a starts-with pattern on its first
// two words.
func CreatePatternsForCandidate(c Candidate) []PatternSpec {
	if len(c.MatchingTransactions) == 0 {
		return nil
	}
	return patternsForDescription(c.MatchingTransactions[0].Description)
}

func patternsForDescription(description string) []PatternSpec {
	raw := strings.TrimSpace(description)
	if raw == "" {
		return nil
	}

	specs := []PatternSpec{{Pattern: raw, Type: models.PatternTypeExact, Confidence: ExactPatternConfidence}}

	if core := strings.Join(ExtractCoreWords(raw), " "); core != "" {
		specs = append(specs, PatternSpec{Pattern: core, Type: models.PatternTypeContains, Confidence: ContainsPatternConfidence})
	}

	words := matching.Words(raw)
	if len(words) > 2 {
		words = words[:2]
	}
	if prefix := strings.Join(words, " "); prefix != "" {
		specs = append(specs, PatternSpec{Pattern: prefix, Type: models.PatternTypeStartsWith, Confidence: StartsWithPatternConfidence})
	}
	return specs
}

// ExtractPatterns derives patterns from several differently worded
// descriptions of the same payment: a contains pattern on their longest
// common substring and a starts-with pattern on their common leading words.
// A single description is treated like a confirmed candidate.
func ExtractPatterns(descriptions []string) []PatternSpec {
	var normalized []string
	for _, d := range descriptions {
		if n := matching.NormalizeDescription(d); n != "" {
			normalized = append(normalized, n)
		}
	}

	switch len(normalized) {
	case 0:
		return nil
	case 1:
		for _, d := range descriptions {
			if strings.TrimSpace(d) != "" {
				return patternsForDescription(d)
			}
		}
	}

	var specs []PatternSpec
	if common := strings.TrimSpace(longestCommonSubstring(normalized)); utf8.RuneCountInString(common) >= minCommonSubstring {
		specs = append(specs, PatternSpec{Pattern: common, Type: models.PatternTypeContains, Confidence: ContainsPatternConfidence})
	}
	if prefix := commonWordPrefix(normalized); prefix != "" {
		specs = append(specs, PatternSpec{Pattern: prefix, Type: models.PatternTypeStartsWith, Confidence: StartsWithPatternConfidence})
	}
	return specs
}

// longestCommonSubstring returns the longest substring shared by every string.
func longestCommonSubstring(values []string) string {
	shortest := []rune(values[0])
	for _, v := range values[1:] {
		if r := []rune(v); len(r) < len(shortest) {
			shortest = r
		}
	}

	for length := len(shortest); length > 0; length-- {
		for start := 0; start+length <= len(shortest); start++ {
			sub := string(shortest[start : start+length])
			if containedInAll(sub, values) {
				return sub
			}
		}
	}
	return ""
}

func containedInAll(sub string, values []string) bool {
	for _, v := range values {
		if !strings.Contains(v, sub) {
			return false
		}
	}
	return true
}

// commonWordPrefix returns the leading words shared by every string.
func commonWordPrefix(values []string) string {
	prefix := strings.Fields(values[0])
	for _, v := range values[1:] {
		words := strings.Fields(v)
		n := 0
		for n < len(prefix) && n < len(words) && prefix[n] == words[n] {
			n++
		}
		prefix = prefix[:n]
	}
	return strings.Join(prefix, " ")
}
