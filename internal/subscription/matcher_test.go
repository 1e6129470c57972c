package subscription

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/models"
)

type fakeMatcherRepo struct {
	subs      []models.Subscription
	patterns  map[string][]models.SubscriptionPattern
	findErr   error
	feedback  []bool
	updatedID string
}

func (f *fakeMatcherRepo) FindActiveSubscriptions(_ context.Context) ([]models.Subscription, error) {
	return f.subs, f.findErr
}

func (f *fakeMatcherRepo) FindPatternsBySubscription(_ context.Context, id string) ([]models.SubscriptionPattern, error) {
	return f.patterns[id], nil
}

func (f *fakeMatcherRepo) UpdatePatternUsage(_ context.Context, id string, wasCorrect bool) (*models.SubscriptionPattern, error) {
	f.updatedID = id
	f.feedback = append(f.feedback, wasCorrect)
	return &models.SubscriptionPattern{}, nil
}

func pattern(id string, text string, patternType models.PatternType, confidence float64) models.SubscriptionPattern {
	p := models.SubscriptionPattern{Pattern: text, PatternType: patternType, ConfidenceScore: confidence, IsActive: true}
	p.ID = id
	return p
}

func sub(id, name string) models.Subscription {
	s := models.Subscription{Name: name, IsActive: true}
	s.ID = id
	return s
}

func TestPatternMatches(t *testing.T) {
	tests := []struct {
		name        string
		pattern     models.SubscriptionPattern
		description string
		want        bool
	}{
		{"exact ignores case", pattern("", "NETFLIX.COM", models.PatternTypeExact, 1), "netflix.com", true},
		{"exact rejects extra text", pattern("", "NETFLIX.COM", models.PatternTypeExact, 1), "NETFLIX.COM 4829", false},
		{"contains normalized", pattern("", "netflix", models.PatternTypeContains, 1), "VISA NETFLIX.COM", true},
		{"contains miss", pattern("", "spotify", models.PatternTypeContains, 1), "NETFLIX.COM", false},
		{"starts with", pattern("", "netflix com", models.PatternTypeStartsWith, 1), "NETFLIX.COM 4829", true},
		{"starts with miss", pattern("", "netflix com", models.PatternTypeStartsWith, 1), "VISA NETFLIX.COM", false},
		{"regex", pattern("", `^spotify\s+p\d+`, models.PatternTypeRegex, 1), "SPOTIFY P1234", true},
		{"invalid regex", pattern("", `([`, models.PatternTypeRegex, 1), "([", false},
		{"empty contains", pattern("", "...", models.PatternTypeContains, 1), "anything", false},
		{"unknown type", pattern("", "netflix", "fuzzy", 1), "netflix", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PatternMatches(tt.pattern, tt.description))
		})
	}
}

func TestMatchScore(t *testing.T) {
	assert.InDelta(t, 0.72, MatchScore(pattern("", "netflix", models.PatternTypeContains, 0.8), "NETFLIX.COM"), 1e-9)
	assert.InDelta(t, 0.85, MatchScore(pattern("", "netflix", models.PatternTypeRegex, 1), "NETFLIX.COM"), 1e-9)
	assert.Equal(t, 0.0, MatchScore(pattern("", "hbo", models.PatternTypeContains, 1), "NETFLIX.COM"))
}

func TestMatchExistingSubscriptions(t *testing.T) {
	flaggedSub := "netflix"
	flagged := expense("t3", "NETFLIX.COM", 149, day(2026, 3, 1), "")
	flagged.SubscriptionID = &flaggedSub

	repo := &fakeMatcherRepo{
		subs: []models.Subscription{sub("netflix", "Netflix"), sub("family", "Netflix Family")},
		patterns: map[string][]models.SubscriptionPattern{
			"netflix": {
				pattern("p1", "netflix", models.PatternTypeContains, 0.8),
				pattern("p2", "netflix com", models.PatternTypeStartsWith, 0.8),
			},
			"family": {
				pattern("p3", "NETFLIX.COM", models.PatternTypeExact, 0.9),
				{Pattern: "netflix", PatternType: models.PatternTypeContains, ConfidenceScore: 1, IsActive: false},
			},
		},
	}

	txs := []models.Transaction{
		expense("t1", "NETFLIX.COM", 149, day(2026, 1, 1), ""),
		expense("t2", "REMA 1000", 300, day(2026, 2, 1), ""),
		flagged,
	}

	matches, err := NewMatcher(repo).MatchExistingSubscriptions(context.Background(), txs)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "family", matches[0].Subscription.ID)
	assert.Equal(t, "p3", matches[0].Pattern.ID)
	assert.InDelta(t, 0.9, matches[0].Confidence, 1e-9)

	assert.Equal(t, "netflix", matches[1].Subscription.ID)
	assert.Equal(t, "p1", matches[1].Pattern.ID)
	assert.InDelta(t, 0.72, matches[1].Confidence, 1e-9)

	for _, m := range matches {
		assert.Equal(t, "t1", m.Transaction.ID)
	}
}

func TestMatchExistingSubscriptions_BelowThreshold(t *testing.T) {
	repo := &fakeMatcherRepo{
		subs: []models.Subscription{sub("s", "Spotify")},
		patterns: map[string][]models.SubscriptionPattern{
			"s": {pattern("p", "spotify", models.PatternTypeStartsWith, 0.8)},
		},
	}

	matches, err := NewMatcher(repo).MatchExistingSubscriptions(context.Background(),
		[]models.Transaction{expense("t", "SPOTIFY AB", 119, day(2026, 1, 1), "")})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMatchExistingSubscriptions_RepositoryError(t *testing.T) {
	repo := &fakeMatcherRepo{findErr: errors.New("db down")}
	_, err := NewMatcher(repo).MatchExistingSubscriptions(context.Background(), nil)
	assert.EqualError(t, err, "db down")
}

func TestUpdatePatternConfidence(t *testing.T) {
	repo := &fakeMatcherRepo{}
	_, err := NewMatcher(repo).UpdatePatternConfidence(context.Background(), "p1", false)
	require.NoError(t, err)
	assert.Equal(t, "p1", repo.updatedID)
	assert.Equal(t, []bool{false}, repo.feedback)
}
