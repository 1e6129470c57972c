package subscription

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"fintrack/internal/matching"
	"fintrack/internal/models"
)

// MinMatchConfidence is the lowest score MatchExistingSubscriptions reports.
const MinMatchConfidence = 0.7

var patternTypeWeights = map[models.PatternType]float64{
	models.PatternTypeExact:      1.0,
	models.PatternTypeContains:   0.9,
	models.PatternTypeStartsWith: 0.8,
	models.PatternTypeRegex:      0.85,
}

// PatternMatches reports whether description satisfies the pattern. Exact
// patterns compare case-insensitively, contains and starts-with patterns
// compare normalized text and regex patterns are case-insensitive. An
// invalid regex never matches.
func PatternMatches(p models.SubscriptionPattern, description string) bool {
	switch p.PatternType {
	case models.PatternTypeExact:
		return strings.EqualFold(strings.TrimSpace(description), strings.TrimSpace(p.Pattern))
	case models.PatternTypeContains:
		needle := matching.NormalizeDescription(p.Pattern)
		return needle != "" && strings.Contains(matching.NormalizeDescription(description), needle)
	case models.PatternTypeStartsWith:
		prefix := matching.NormalizeDescription(p.Pattern)
		return prefix != "" && strings.HasPrefix(matching.NormalizeDescription(description), prefix)
	case models.PatternTypeRegex:
		re, err := regexp.Compile("(?i)" + p.Pattern)
		if err != nil {
			return false
		}
		return re.MatchString(description)
	default:
		return false
	}
}

// MatchScore weights the pattern's confidence by its type; 0 on no match.
func MatchScore(p models.SubscriptionPattern, description string) float64 {
	if !PatternMatches(p, description) {
		return 0
	}
	return patternTypeWeights[p.PatternType] * p.ConfidenceScore
}

// Match links a transaction to a subscription through one of its patterns.
type Match struct {
	Transaction  models.Transaction         `json:"transaction"`
	Subscription models.Subscription        `json:"subscription"`
	Pattern      models.SubscriptionPattern `json:"pattern"`
	Confidence   float64                    `json:"confidence"`
}

// MatcherRepository is the storage the Matcher needs.
type MatcherRepository interface {
	FindActiveSubscriptions(ctx context.Context) ([]models.Subscription, error)
	FindPatternsBySubscription(ctx context.Context, subscriptionID string) ([]models.SubscriptionPattern, error)
	UpdatePatternUsage(ctx context.Context, id string, wasCorrect bool) (*models.SubscriptionPattern, error)
}

// Matcher matches transactions against persisted subscription patterns.
type Matcher struct {
	repo MatcherRepository
}

// NewMatcher creates a Matcher.
func NewMatcher(repo MatcherRepository) *Matcher {
	return &Matcher{repo: repo}
}

// MatchExistingSubscriptions scores every unflagged transaction against the
// active patterns of every active subscription. Each subscription contributes
// at most its best-scoring pattern per transaction, but a transaction can
// match several subscriptions; all of them are returned, best first.
func (m *Matcher) MatchExistingSubscriptions(ctx context.Context, transactions []models.Transaction) ([]Match, error) {
	subs, err := m.repo.FindActiveSubscriptions(ctx)
	if err != nil {
		return nil, err
	}

	var matches []Match
	for _, sub := range subs {
		patterns, err := m.repo.FindPatternsBySubscription(ctx, sub.ID)
		if err != nil {
			return nil, err
		}
		for _, tx := range transactions {
			if tx.IsFlagged() {
				continue
			}
			best := Match{}
			for _, p := range patterns {
				if !p.IsActive {
					continue
				}
				if score := MatchScore(p, tx.Description); score > best.Confidence {
					best = Match{Transaction: tx, Subscription: sub, Pattern: p, Confidence: score}
				}
			}
			if best.Confidence >= MinMatchConfidence {
				matches = append(matches, best)
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Confidence > matches[j].Confidence })
	return matches, nil
}

// UpdatePatternConfidence records match feedback. The confidence policy
// belongs to the repository.
func (m *Matcher) UpdatePatternConfidence(ctx context.Context, patternID string, wasCorrect bool) (*models.SubscriptionPattern, error) {
	return m.repo.UpdatePatternUsage(ctx, patternID, wasCorrect)
}
