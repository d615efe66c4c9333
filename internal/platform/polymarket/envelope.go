package polymarket

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/alanyoungcy/predibet/internal/domain"
)

// envelopeStrategy recognizes one response shape. matched is false when the
// body does not have that shape, letting the next strategy try.
type envelopeStrategy struct {
	name   string
	unwrap func(body []byte) (page []RawMarket, matched bool)
}

// envelopeStrategies are tried in order; the first match wins.
var envelopeStrategies = []envelopeStrategy{
	{name: "list", unwrap: bareList},
	{name: "data", unwrap: keyedList("data")},
	{name: "markets", unwrap: keyedList("markets")},
}

// DecodePage extracts the list of market records from a Gamma response body.
// A body that is not JSON at all is an upstream failure; valid JSON that no
// strategy recognizes wraps domain.ErrUnexpectedEnvelope.
func DecodePage(body []byte) ([]RawMarket, error) {
	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		return nil, fmt.Errorf("polymarket/gamma: decode page: invalid JSON body (%d bytes)", len(body))
	}
	for _, s := range envelopeStrategies {
		if page, ok := s.unwrap(body); ok {
			return page, nil
		}
	}
	return nil, fmt.Errorf("polymarket/gamma: %w: keys=%v", domain.ErrUnexpectedEnvelope, topLevelKeys(body))
}

func bareList(body []byte) ([]RawMarket, bool) {
	if len(body) == 0 || body[0] != '[' {
		return nil, false
	}
	var page []RawMarket
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, false
	}
	return page, true
}

func keyedList(key string) func([]byte) ([]RawMarket, bool) {
	return func(body []byte) ([]RawMarket, bool) {
		if len(body) == 0 || body[0] != '{' {
			return nil, false
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(body, &obj); err != nil {
			return nil, false
		}
		return bareList(bytes.TrimSpace(obj[key]))
	}
}

// topLevelKeys lists object keys for the unexpected-envelope error message.
func topLevelKeys(body []byte) []string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
