package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDescription(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "punctuation becomes space", in: "NETFLIX.COM", want: "netflix com"},
		{name: "collapses whitespace", in: "  Spotify   AB  ", want: "spotify ab"},
		{name: "mixed symbols", in: "VIPPS*Ruter/Oslo #123", want: "vipps ruter oslo 123"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDescription(tt.in))
		})
	}
}

func TestTitleize(t *testing.T) {
	assert.Equal(t, "Netflix Com", Titleize("NETFLIX.COM"))
	assert.Equal(t, "Spotify", Titleize("spotify"))
	assert.Equal(t, "", Titleize("..."))
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{name: "identical after normalization", a: "Netflix.com", b: "NETFLIX COM", want: 1},
		{name: "substring containment", a: "netflix", b: "netflix com", want: 7.0 / 11.0},
		{name: "jaccard", a: "spotify premium family", b: "spotify family", want: 2.0 / 3.0},
		{name: "disjoint", a: "gym", b: "rent", want: 0},
		{name: "both empty", a: "", b: "", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, Levenshtein("abc", "abc"))
	assert.Equal(t, 3, Levenshtein("", "abc"))
	assert.Equal(t, 3, Levenshtein("kitten", "sitting"))
	assert.Equal(t, 1, Levenshtein("spotify", "spotifi"))
	assert.Equal(t, 1, Levenshtein("blåbær", "blabær"))
}

func TestFuzzyWordMatch(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		text    string
		want    bool
	}{
		{name: "exact words", pattern: "netflix", text: "NETFLIX.COM 4829", want: true},
		{name: "typo within distance", pattern: "spotify premium", text: "SPOTIFI PREMIUM AB", want: true},
		{name: "word contained", pattern: "viaplay", text: "viaplaygroup oslo", want: true},
		{name: "not enough overlap", pattern: "adobe creative cloud", text: "adobe stock", want: false},
		{name: "short words ignored", pattern: "tv", text: "tv 2 play", want: false},
		{name: "unrelated", pattern: "netflix", text: "rema 1000", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FuzzyWordMatch(tt.pattern, tt.text))
		})
	}
}

func TestStatistics(t *testing.T) {
	t.Run("mean and population variance", func(t *testing.T) {
		values := []float64{30, 31, 29, 30}
		assert.InDelta(t, 30, Mean(values), 1e-9)
		assert.InDelta(t, 0.5, Variance(values), 1e-9)
	})

	t.Run("sample std dev", func(t *testing.T) {
		assert.Equal(t, 0.0, SampleStdDev([]float64{5}))
		assert.InDelta(t, 1.0, SampleStdDev([]float64{1, 2, 3}), 1e-9)
	})

	t.Run("linear trend", func(t *testing.T) {
		assert.InDelta(t, 10, LinearTrend([]float64{100, 110, 120, 130}), 1e-9)
		assert.InDelta(t, 0, LinearTrend([]float64{50, 50, 50}), 1e-9)
		assert.Equal(t, 0.0, LinearTrend([]float64{42}))
	})

	t.Run("cent rounding", func(t *testing.T) {
		assert.Equal(t, 149.0, RoundCents(149.004))
		assert.Equal(t, 10.01, RoundCents(10.005))
		assert.Equal(t, "149.00", CentKey(-149))
		assert.Equal(t, "-12.50", FormatMoney(-12.5))
	})
}
