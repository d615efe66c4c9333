package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/predibet/internal/domain"
)

func str(s string) *string { return &s }

func market(id string, volume float64, category string) domain.Market {
	m := domain.Market{ID: str(id), Volume: volume, Tags: []string{}}
	if category != "" {
		m.Category = str(category)
	}
	return m
}

func ids(markets []domain.Market) []string {
	out := make([]string, len(markets))
	for i := range markets {
		out[i] = markets[i].MarketID()
	}
	return out
}

func fixture() []domain.Market {
	return []domain.Market{
		market("a", 50, "Sports"),
		market("b", 200, "Sports"),
		market("c", 10, "Politics"),
		market("d", 200, ""),
	}
}

func TestApply_SortsByVolumeStable(t *testing.T) {
	got := Apply(fixture(), domain.QueryOpts{})
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids(got))
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	in := fixture()
	_ = Apply(in, domain.QueryOpts{Limit: 2})
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(in))
}

func TestApply_Filters(t *testing.T) {
	tests := []struct {
		name string
		opts domain.QueryOpts
		want []string
	}{
		{"min volume", domain.QueryOpts{MinVolume: 50}, []string{"b", "d", "a"}},
		{"min volume drops lower entries", domain.QueryOpts{MinVolume: 100}, []string{"b", "d"}},
		{"min volume zero disables", domain.QueryOpts{MinVolume: 0}, []string{"b", "d", "a", "c"}},
		{"category", domain.QueryOpts{Category: "Sports"}, []string{"b", "a"}},
		{"category is exact", domain.QueryOpts{Category: "sports"}, []string{}},
		{"limit", domain.QueryOpts{Limit: 2}, []string{"b", "d"}},
		{"limit larger than set", domain.QueryOpts{Limit: 50}, []string{"b", "d", "a", "c"}},
		{"combined", domain.QueryOpts{MinVolume: 20, Category: "Sports", Limit: 1}, []string{"b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Apply(fixture(), tt.opts)))
		})
	}
}

func TestApply_Search(t *testing.T) {
	markets := fixture()
	markets[0].Question = str("Will the Lakers win the title?")
	markets[2].Description = str("Election of the next LAKE county mayor")

	got := Apply(markets, domain.QueryOpts{Search: "  lake "})
	assert.Equal(t, []string{"a", "c"}, ids(got))

	got = Apply(markets, domain.QueryOpts{Search: "politics"})
	assert.Equal(t, []string{"c"}, ids(got))
}

func TestApply_Empty(t *testing.T) {
	got := Apply(nil, domain.QueryOpts{Limit: 10})
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCategories(t *testing.T) {
	markets := []domain.Market{
		market("1", 1, "Sports"),
		market("2", 1, "Politics"),
		market("3", 1, "Sports"),
		market("4", 1, ""),
	}
	empty := market("5", 1, "")
	empty.Category = str("")
	markets = append(markets, empty)

	got := Categories(markets)
	assert.Equal(t, []domain.CategoryCount{
		{Name: "Sports", Count: 2},
		{Name: domain.UncategorizedLabel, Count: 2},
		{Name: "Politics", Count: 1},
	}, got)
}

func TestCategories_Empty(t *testing.T) {
	got := Categories(nil)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFind(t *testing.T) {
	markets := fixture()
	markets[2].ConditionID = str("0xcond")

	m, ok := Find(markets, "b")
	require.True(t, ok)
	assert.Equal(t, 200.0, m.Volume)

	m, ok = Find(markets, "0xcond")
	require.True(t, ok)
	assert.Equal(t, "c", m.MarketID())

	_, ok = Find(markets, "missing")
	assert.False(t, ok)
	_, ok = Find(markets, "")
	assert.False(t, ok)
}

func TestSummarize(t *testing.T) {
	markets := fixture()
	markets[0].Probability = new(float64)
	*markets[0].Probability = 0.25
	markets[1].Probability = new(float64)
	*markets[1].Probability = 0.75
	markets[1].Liquidity = 30

	s := Summarize(markets)
	assert.Equal(t, 4, s.TotalMarkets)
	assert.Equal(t, 460.0, s.TotalVolume)
	assert.Equal(t, 30.0, s.TotalLiquidity)
	assert.InDelta(t, 0.5, s.AvgProbability, 1e-9)
	assert.Equal(t, 3, s.Categories)
}
