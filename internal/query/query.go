// Package query derives read-only views over a snapshot of markets. All
// functions are pure: they never modify their input slice or the markets in
// it.
package query

import (
	"cmp"
	"slices"
	"strings"

	"github.com/alanyoungcy/predibet/internal/domain"
)

// Apply returns the markets selected by opts. Order of operations:
//
//  1. stable sort by volume, descending (ties keep upstream order)
//  2. drop markets with volume < MinVolume when MinVolume > 0
//  3. keep exact Category matches when Category is non-empty
//  4. keep case-insensitive Search matches when Search is non-empty
//  5. truncate to Limit (DefaultQueryLimit when Limit <= 0)
func Apply(markets []domain.Market, opts domain.QueryOpts) []domain.Market {
	limit := opts.Limit
	if limit <= 0 {
		limit = domain.DefaultQueryLimit
	}
	needle := strings.ToLower(strings.TrimSpace(opts.Search))

	sorted := ByVolume(markets)

	out := make([]domain.Market, 0, min(len(sorted), limit))
	for i := range sorted {
		m := &sorted[i]
		if opts.MinVolume > 0 && m.Volume < opts.MinVolume {
			continue
		}
		if opts.Category != "" && m.CategoryName() != opts.Category {
			continue
		}
		if needle != "" && !matches(m, needle) {
			continue
		}
		out = append(out, *m)
		if len(out) == limit {
			break
		}
	}
	return out
}

// ByVolume returns a copy of markets stably sorted by volume, descending.
func ByVolume(markets []domain.Market) []domain.Market {
	sorted := slices.Clone(markets)
	slices.SortStableFunc(sorted, func(a, b domain.Market) int {
		return cmp.Compare(b.Volume, a.Volume)
	})
	return sorted
}

// matches reports whether needle (already lower-cased) occurs in the
// question, description, category or slug.
func matches(m *domain.Market, needle string) bool {
	for _, field := range []*string{m.Question, m.Description, m.Category, m.Slug} {
		if field != nil && strings.Contains(strings.ToLower(*field), needle) {
			return true
		}
	}
	return false
}

// Find returns the market whose id or condition id equals id.
func Find(markets []domain.Market, id string) (domain.Market, bool) {
	if id == "" {
		return domain.Market{}, false
	}
	for i := range markets {
		m := &markets[i]
		if (m.ID != nil && *m.ID == id) || (m.ConditionID != nil && *m.ConditionID == id) {
			return *m, true
		}
	}
	return domain.Market{}, false
}

// Categories counts markets per category, most populous first. Markets with
// no category, or an empty one, are counted under domain.UncategorizedLabel.
// Equal counts are ordered by first appearance.
func Categories(markets []domain.Market) []domain.CategoryCount {
	index := make(map[string]int)
	var counts []domain.CategoryCount
	for i := range markets {
		name := markets[i].CategoryName()
		if name == "" {
			name = domain.UncategorizedLabel
		}
		if j, ok := index[name]; ok {
			counts[j].Count++
			continue
		}
		index[name] = len(counts)
		counts = append(counts, domain.CategoryCount{Name: name, Count: 1})
	}
	slices.SortStableFunc(counts, func(a, b domain.CategoryCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	if counts == nil {
		counts = []domain.CategoryCount{}
	}
	return counts
}

// Summarize aggregates volume, liquidity and probability over markets.
// AvgProbability only considers markets that carry a probability.
func Summarize(markets []domain.Market) domain.MarketStats {
	stats := domain.MarketStats{TotalMarkets: len(markets)}
	var (
		probSum   float64
		probCount int
	)
	for i := range markets {
		m := &markets[i]
		stats.TotalVolume += m.Volume
		stats.TotalLiquidity += m.Liquidity
		if m.Probability != nil {
			probSum += *m.Probability
			probCount++
		}
	}
	if probCount > 0 {
		stats.AvgProbability = probSum / float64(probCount)
	}
	stats.Categories = len(Categories(markets))
	return stats
}
