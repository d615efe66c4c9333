package polymarket

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/predibet/internal/coerce"
	"github.com/alanyoungcy/predibet/internal/domain"
)

// spreadPlaces is the rounding applied to derived spreads.
const spreadPlaces = 4

// Normalize converts one raw Gamma record into a domain.Market. It only fails
// with domain.ErrMalformedRecord, when the element is not a JSON object or
// carries no identifier at all. Every other irregularity degrades to a
// default value.
func Normalize(raw RawMarket) (domain.Market, error) {
	obj, ok := coerce.DecodeObject(raw)
	if !ok {
		return domain.Market{}, fmt.Errorf("polymarket/normalize: %w: not a JSON object", domain.ErrMalformedRecord)
	}
	r := record(obj)
	if !r.has("id", "conditionId", "condition_id") {
		return domain.Market{}, fmt.Errorf("polymarket/normalize: %w: no id or conditionId", domain.ErrMalformedRecord)
	}

	outcomePrices := embeddedStrings(r.first("outcomePrices", "outcome_prices"))

	m := domain.Market{
		ID:          coerce.OptString(r.first("id")),
		ConditionID: coerce.OptString(r.first("conditionId", "condition_id")),
		QuestionID:  coerce.OptString(r.first("questionId", "question_id")),
		Slug:        coerce.OptString(r.first("slug")),

		Question:    coerce.OptString(r.first("question")),
		Description: coerce.OptString(r.first("description")),
		Category:    coerce.OptString(r.first("category")),
		Tags:        tags(r.first("tags")),

		Outcomes:      embeddedStrings(r.first("outcomes")),
		OutcomePrices: outcomePrices,
		Probability:   probability(outcomePrices),
		Spread:        spread(outcomePrices),

		Volume:    coerce.ToFloat(r.first("volume", "volumeNum")),
		Liquidity: coerce.ToFloat(r.first("liquidity", "liquidityNum")),
		Volume24h: coerce.ToFloat(r.first("volume24h", "volume24hr", "volume_24h")),

		EnableOrderBook:  coerce.OptBool(r.first("enableOrderBook", "enable_order_book")),
		ClobTokenIDs:     embeddedStrings(r.first("clobTokenIds", "clob_token_ids")),
		MinimumOrderSize: coerce.ToFloat(r.first("minimumOrderSize", "orderMinSize", "minimum_order_size")),
		MinimumTickSize:  coerce.ToFloat(r.first("minimumTickSize", "orderPriceMinTickSize", "minimum_tick_size")),

		CreatedAt:               coerce.OptString(r.first("createdAt", "created_at", "startDate", "start_date")),
		EndDate:                 coerce.OptString(r.first("endDate", "end_date")),
		GameStartTime:           coerce.OptString(r.first("gameStartTime", "game_start_time")),
		AcceptingOrders:         coerce.OptBool(r.first("acceptingOrders", "accepting_orders")),
		AcceptingOrderTimestamp: coerce.OptString(r.first("acceptingOrderTimestamp", "accepting_order_timestamp")),

		Image:                coerce.OptString(r.first("image")),
		Icon:                 coerce.OptString(r.first("icon")),
		Is5050Outcome:        coerce.OptBool(r.first("is5050Outcome", "is_50_50_outcome")),
		NotificationsEnabled: coerce.OptBool(r.first("notificationsEnabled", "notifications_enabled")),

		Active:   coerce.OptBool(r.first("active")),
		Closed:   coerce.OptBool(r.first("closed")),
		Archived: coerce.OptBool(r.first("archived")),

		FPMM: coerce.OptString(r.first("fpmm")),
	}
	if negRisk := coerce.OptBool(r.first("negRisk", "neg_risk")); negRisk != nil {
		m.NegRisk = *negRisk
	}

	return m, nil
}

// NormalizeAll normalizes a batch, preserving input order. Malformed records
// are logged and counted, never fatal.
func NormalizeAll(raws []RawMarket, logger *slog.Logger) ([]domain.Market, int) {
	if logger == nil {
		logger = slog.Default()
	}
	markets := make([]domain.Market, 0, len(raws))
	skipped := 0
	for i, raw := range raws {
		m, err := Normalize(raw)
		if err != nil {
			skipped++
			logger.Warn("polymarket/normalize: skipping record",
				slog.Int("index", i),
				slog.String("error", err.Error()),
			)
			continue
		}
		markets = append(markets, m)
	}
	return markets, skipped
}

// embeddedStrings reads a list field that may arrive JSON-encoded inside a
// string. Absent or unparsable values yield nil.
func embeddedStrings(v any) []string {
	parsed, ok := coerce.ParseEmbeddedJSON(v)
	if !ok {
		return nil
	}
	out, ok := coerce.Strings(parsed)
	if !ok {
		return nil
	}
	return out
}

// tags accepts either plain strings or tag objects carrying a label or slug.
func tags(v any) []string {
	out := []string{}
	items, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		switch t := item.(type) {
		case map[string]any:
			if s, ok := coerce.Text(record(t).first("label", "slug")); ok {
				out = append(out, s)
			}
		default:
			if s, ok := coerce.Text(t); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

func probability(prices []string) *float64 {
	if len(prices) == 0 {
		return nil
	}
	p := coerce.ToFloat(prices[0])
	return &p
}

// spread is |p0 - p1| over the first two strictly positive prices, rounded
// half away from zero to four decimal places.
func spread(prices []string) *float64 {
	positive := make([]float64, 0, 2)
	for _, s := range prices {
		if p := coerce.ToFloat(s); p > 0 {
			positive = append(positive, p)
			if len(positive) == 2 {
				break
			}
		}
	}
	if len(positive) < 2 {
		return nil
	}
	d := decimal.NewFromFloat(positive[0]).Sub(decimal.NewFromFloat(positive[1])).Abs().Round(spreadPlaces)
	f, _ := d.Float64()
	return &f
}
