package forecast

import (
	"strconv"
	"strings"
)

// VectorBuilder maps a heterogeneous reading into the ordered numeric vector
// expected by the forecasting model. The schema (feature names and order) is
// fixed at construction.
type VectorBuilder struct {
	names []string
}

// NewVectorBuilder creates a builder for the given ordered feature names.
func NewVectorBuilder(names []string) *VectorBuilder {
	return &VectorBuilder{names: append([]string(nil), names...)}
}

// FeatureCount returns the schema length.
func (b *VectorBuilder) FeatureCount() int {
	return len(b.names)
}

// FeatureNames returns a copy of the schema.
func (b *VectorBuilder) FeatureNames() []string {
	return append([]string(nil), b.names...)
}

// Build produces a vector whose length always equals the schema length.
// Each feature name is resolved against the reading keys by exact match,
// then with dot/underscore separators normalized, then case-insensitively.
// Unmatched names and values that cannot be coerced to a float yield 0.0.
func (b *VectorBuilder) Build(reading map[string]any) []float64 {
	vector := make([]float64, len(b.names))
	if len(reading) == 0 {
		return vector
	}

	normalized := make(map[string]any, len(reading))
	folded := make(map[string]any, len(reading))
	for k, v := range reading {
		nk := normalizeSeparators(k)
		if _, ok := normalized[nk]; !ok {
			normalized[nk] = v
		}
		fk := strings.ToLower(nk)
		if _, ok := folded[fk]; !ok {
			folded[fk] = v
		}
	}

	for i, name := range b.names {
		value, ok := reading[name]
		if !ok {
			value, ok = normalized[normalizeSeparators(name)]
		}
		if !ok {
			value, ok = folded[strings.ToLower(normalizeSeparators(name))]
		}
		if !ok {
			continue
		}
		vector[i] = coerceFloat(value)
	}

	return vector
}

// normalizeSeparators collapses the dot/underscore spelling variants seen
// across provider payloads (pm2.5 vs pm2_5).
func normalizeSeparators(key string) string {
	return strings.ReplaceAll(key, ".", "_")
}

// coerceFloat converts common scalar representations to float64, defaulting
// to 0.0 on anything it cannot interpret.
func coerceFloat(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint:
		return float64(v)
	case uint64:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
