package cache

import (
	"context"
	"strconv"
	"time"
)

// Numeric context keys extracted from assistant replies and reused to
// answer follow-up calculation questions without another LLM call.
const (
	KeyTakeHomeSalary = "take_home_salary"
	KeyGrossSalary    = "gross_salary"
	KeyLastQuery      = "last_query"
	KeyLastResponse   = "last_response"
)

// numericCacheTTL bounds how long a session's cached figures outlive its
// last turn; a session idle this long is treated as over.
const numericCacheTTL = 30 * time.Minute

// NumericContextCache is a per-session scratchpad of numeric values pulled
// out of prior assistant replies, letting the query planner answer
// "how much in 5 years"-style follow-ups by arithmetic instead of another
// LLM round trip.
type NumericContextCache struct {
	backend Cache
}

func NewNumericContextCache(backend Cache) *NumericContextCache {
	return &NumericContextCache{backend: backend}
}

func (n *NumericContextCache) Set(ctx context.Context, sessionID, key, value string) error {
	return n.backend.Set(ctx, sessionID+":"+key, value, numericCacheTTL)
}

func (n *NumericContextCache) Get(ctx context.Context, sessionID, key string) (string, bool, error) {
	return n.backend.Get(ctx, sessionID+":"+key)
}

// GetFloat reads a cached value and parses it as a float, for direct use in
// arithmetic shortcuts.
func (n *NumericContextCache) GetFloat(ctx context.Context, sessionID, key string) (float64, bool, error) {
	raw, ok, err := n.Get(ctx, sessionID, key)
	if err != nil || !ok {
		return 0, ok, err
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, nil
	}
	return value, true, nil
}

func (n *NumericContextCache) SetFloat(ctx context.Context, sessionID, key string, value float64) error {
	return n.Set(ctx, sessionID, key, strconv.FormatFloat(value, 'f', -1, 64))
}
