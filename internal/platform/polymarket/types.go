package polymarket

import (
	"encoding/json"
)

// RawMarket is one element of a Gamma markets page, kept undecoded until the
// normalizer looks at it.
type RawMarket = json.RawMessage

// StopReason names the signal that ended a pagination run.
type StopReason string

const (
	StopEmptyPage          StopReason = "empty_page"
	StopShortPage          StopReason = "short_page"
	StopMaxTotal           StopReason = "max_total"
	StopUpstreamError      StopReason = "upstream_error"
	StopUnexpectedEnvelope StopReason = "unexpected_envelope"
)

// FetchStats describes one pagination run. Err is the terminal error when the
// run ended on StopUpstreamError or StopUnexpectedEnvelope.
type FetchStats struct {
	Pages      int
	Records    int
	StopReason StopReason
	Err        error
}

// --------------------------------------------------------------------------
// Gamma record access
// --------------------------------------------------------------------------

// record is a decoded Gamma market object. Gamma has shipped the same field
// under camelCase and snake_case names, so lookups take alternates.
type record map[string]any

// first returns the value of the first key that is present and non-null.
func (r record) first(keys ...string) any {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// has reports whether any of keys carries a non-null value.
func (r record) has(keys ...string) bool {
	return r.first(keys...) != nil
}
