package polymarket

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/predibet/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNormalize_FullRecord(t *testing.T) {
	raw := RawMarket(`{
		"id": "512310",
		"conditionId": "0xabc",
		"questionId": "0xq",
		"slug": "will-it-rain",
		"question": "Will it rain?",
		"description": "Resolves yes if it rains.",
		"category": "Weather",
		"tags": ["climate", {"label": "Rain", "slug": "rain"}, {"slug": "storms"}],
		"outcomes": "[\"Yes\",\"No\"]",
		"outcomePrices": "[\"0.65\",\"0.35\"]",
		"volume": "1,234,567.89",
		"liquidity": 2500.5,
		"volume24hr": "99.5",
		"enableOrderBook": true,
		"clobTokenIds": "[\"111\",\"222\"]",
		"negRisk": "true",
		"orderMinSize": 5,
		"orderPriceMinTickSize": 0.01,
		"startDate": "2024-01-01T00:00:00Z",
		"endDate": "2024-12-31T00:00:00Z",
		"acceptingOrders": true,
		"image": "https://img/x.png",
		"is5050Outcome": false,
		"active": "true",
		"closed": false,
		"archived": false,
		"fpmm": "0xfpmm"
	}`)

	m, err := Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, "512310", *m.ID)
	assert.Equal(t, "0xabc", *m.ConditionID)
	assert.Equal(t, "Weather", m.CategoryName())
	assert.Equal(t, []string{"climate", "Rain", "storms"}, m.Tags)
	assert.Equal(t, []string{"Yes", "No"}, m.Outcomes)
	assert.Equal(t, []string{"0.65", "0.35"}, m.OutcomePrices)
	require.NotNil(t, m.Probability)
	assert.Equal(t, 0.65, *m.Probability)
	require.NotNil(t, m.Spread)
	assert.Equal(t, 0.3, *m.Spread)
	assert.Equal(t, 1234567.89, m.Volume)
	assert.Equal(t, 2500.5, m.Liquidity)
	assert.Equal(t, 99.5, m.Volume24h)
	assert.Equal(t, []string{"111", "222"}, m.ClobTokenIDs)
	assert.True(t, m.NegRisk)
	assert.Equal(t, 5.0, m.MinimumOrderSize)
	assert.Equal(t, 0.01, m.MinimumTickSize)
	assert.Equal(t, "2024-01-01T00:00:00Z", *m.CreatedAt)
	require.NotNil(t, m.Active)
	assert.True(t, *m.Active)
	require.NotNil(t, m.Is5050Outcome)
	assert.False(t, *m.Is5050Outcome)
	assert.Nil(t, m.Icon)
	assert.Nil(t, m.GameStartTime)
}

func TestNormalize_CreatedAtPrefersCreatedAt(t *testing.T) {
	m, err := Normalize(RawMarket(`{"id":"1","createdAt":"2024-02-02","startDate":"2024-01-01"}`))
	require.NoError(t, err)
	assert.Equal(t, "2024-02-02", *m.CreatedAt)
}

func TestNormalize_Defaults(t *testing.T) {
	m, err := Normalize(RawMarket(`{"conditionId":"0xdef"}`))
	require.NoError(t, err)

	assert.Nil(t, m.ID)
	assert.Equal(t, "0xdef", *m.ConditionID)
	assert.NotNil(t, m.Tags)
	assert.Empty(t, m.Tags)
	assert.Nil(t, m.Outcomes)
	assert.Nil(t, m.OutcomePrices)
	assert.Nil(t, m.Probability)
	assert.Nil(t, m.Spread)
	assert.Zero(t, m.Volume)
	assert.False(t, m.NegRisk)
	assert.Nil(t, m.Active)
}

func TestNormalize_MalformedRecords(t *testing.T) {
	for _, raw := range []string{`{}`, `[1,2]`, `"text"`, `null`, `{"question":"no id"}`, `{"id":null}`} {
		t.Run(raw, func(t *testing.T) {
			_, err := Normalize(RawMarket(raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrMalformedRecord))
		})
	}
}

func TestNormalize_ProbabilityAndSpread(t *testing.T) {
	tests := []struct {
		name       string
		prices     string
		wantProb   *float64
		wantSpread *float64
	}{
		{"two prices", `"[\"0.65\",\"0.35\"]"`, ptr(0.65), ptr(0.3)},
		{"native array", `["0.2","0.8"]`, ptr(0.2), ptr(0.6)},
		{"numeric entries", `[0.123456, 0.5]`, ptr(0.123456), ptr(0.3765)},
		{"single price", `"[\"0.9\"]"`, ptr(0.9), nil},
		{"zero first price skipped for spread", `["0","0.4","0.1"]`, ptr(0.0), ptr(0.3)},
		{"only one positive", `["0.5","0"]`, ptr(0.5), nil},
		{"all zero prices", `["0","0"]`, ptr(0.0), nil},
		{"empty list", `"[]"`, nil, nil},
		{"unparsable string", `"not json"`, nil, nil},
		{"garbage entries", `["abc","0.4"]`, ptr(0.0), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Normalize(RawMarket(`{"id":"x","outcomePrices":` + tt.prices + `}`))
			require.NoError(t, err)
			assert.Equal(t, tt.wantProb, m.Probability)
			assert.Equal(t, tt.wantSpread, m.Spread)
		})
	}
}

func TestNormalizeAll_SkipsMalformed(t *testing.T) {
	raws := []RawMarket{
		RawMarket(`{"id":"good","volume":"10"}`),
		RawMarket(`{}`),
		RawMarket(`{"id":"also-good"}`),
		RawMarket(`17`),
	}

	markets, skipped := NormalizeAll(raws, discardLogger())
	assert.Equal(t, 2, skipped)
	require.Len(t, markets, 2)
	assert.Equal(t, "good", markets[0].MarketID())
	assert.Equal(t, "also-good", markets[1].MarketID())
}

func TestMarketJSONShape(t *testing.T) {
	m, err := Normalize(RawMarket(`{"id":"1","outcomePrices":"[\"0.5\",\"0.5\"]"}`))
	require.NoError(t, err)

	b, err := json.Marshal(m)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, "1", out["id"])
	assert.Contains(t, out, "condition_id")
	assert.Nil(t, out["condition_id"])
	assert.Equal(t, 0.0, out["spread"])
	assert.Equal(t, []any{}, out["tags"])
	assert.Equal(t, false, out["neg_risk"])
	assert.Contains(t, out, "is_50_50_outcome")
}

func ptr(f float64) *float64 { return &f }
