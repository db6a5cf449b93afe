package store

import "encoding/json"

// FallbackSize is the byte estimate used when a value cannot be serialized.
// A write must never fail because of sizing, so unserializable values are
// charged a fixed guess instead.
const FallbackSize = 1024

/*
EstimateSize returns a byte estimate for a value, measured as the length of
its JSON encoding.

This is accounting, not wire format: the estimate only feeds the memory
budget, so being a few bytes off per entry is fine. What matters is that
big values cost more than small ones and that the estimate never errors.
*/
func EstimateSize(value any) int64 {
	data, err := json.Marshal(value)
	if err != nil {
		return FallbackSize
	}
	return int64(len(data))
}
