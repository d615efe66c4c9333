package domain

// Market is the canonical, normalized form of one Polymarket listing record.
// Optional upstream values are pointers and serialize as null when absent.
// A Market is never mutated after the normalizer builds it.
type Market struct {
	// Core identifiers
	ID          *string `json:"id"`
	ConditionID *string `json:"condition_id"`
	QuestionID  *string `json:"question_id"`
	Slug        *string `json:"slug"`

	// Question and details
	Question    *string  `json:"question"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Tags        []string `json:"tags"`

	// Pricing and derived probability
	Probability   *float64 `json:"probability"`
	Outcomes      []string `json:"outcomes"`
	OutcomePrices []string `json:"outcome_prices"`
	Spread        *float64 `json:"spread"`

	// Volume and liquidity
	Volume    float64 `json:"volume"`
	Liquidity float64 `json:"liquidity"`
	Volume24h float64 `json:"volume_24h"`

	// Trading info
	EnableOrderBook  *bool    `json:"enable_order_book"`
	ClobTokenIDs     []string `json:"clob_token_ids"`
	NegRisk          bool     `json:"neg_risk"`
	MinimumOrderSize float64  `json:"minimum_order_size"`
	MinimumTickSize  float64  `json:"minimum_tick_size"`

	// Dates
	CreatedAt               *string `json:"created_at"`
	EndDate                 *string `json:"end_date"`
	GameStartTime           *string `json:"game_start_time"`
	AcceptingOrders         *bool   `json:"accepting_orders"`
	AcceptingOrderTimestamp *string `json:"accepting_order_timestamp"`

	// Media and misc flags
	Image                *string `json:"image"`
	Icon                 *string `json:"icon"`
	Is5050Outcome        *bool   `json:"is_50_50_outcome"`
	NotificationsEnabled *bool   `json:"notifications_enabled"`

	// Status flags
	Active   *bool `json:"active"`
	Closed   *bool `json:"closed"`
	Archived *bool `json:"archived"`

	// FPMM address (for on-chain trading)
	FPMM *string `json:"fpmm"`
}

// UncategorizedLabel is the bucket used for markets without a category.
const UncategorizedLabel = "Uncategorized"

// MarketID returns the market ID or "" when absent.
func (m *Market) MarketID() string {
	return deref(m.ID)
}

// CategoryName returns the category or "" when absent.
func (m *Market) CategoryName() string {
	return deref(m.Category)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
