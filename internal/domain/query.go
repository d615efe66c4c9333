package domain

const (
	// DefaultQueryLimit is used when a request does not specify a limit.
	DefaultQueryLimit = 1000
	// MaxQueryLimit is the largest limit the boundary layer accepts.
	MaxQueryLimit = 1000
)

// QueryOpts selects a view over a snapshot. Zero values disable a filter.
type QueryOpts struct {
	Limit     int
	MinVolume float64
	Category  string
	Search    string
}

// CategoryCount is the number of snapshot markets sharing one category.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// MarketStats summarizes a set of markets.
type MarketStats struct {
	TotalMarkets   int     `json:"total_markets"`
	TotalVolume    float64 `json:"total_volume"`
	TotalLiquidity float64 `json:"total_liquidity"`
	AvgProbability float64 `json:"avg_probability"`
	Categories     int     `json:"categories"`
}
