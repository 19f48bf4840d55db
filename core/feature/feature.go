package feature

import (
	"fmt"
	"math"
)

// Kind identifies the family a feature value belongs to.
type Kind uint8

const (
	// KindUnknown is the zero kind. It never matches anything.
	KindUnknown Kind = iota
	// KindLoadStep is a step change in power, characterised by its signed delta.
	KindLoadStep
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindLoadStep:
		return "load_step"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText decodes a kind name produced by MarshalText.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "load_step":
		*k = KindLoadStep
	case "unknown", "":
		*k = KindUnknown
	default:
		return fmt.Errorf("unknown feature kind %q", string(b))
	}
	return nil
}

// Value is a comparable event value.
type Value struct {
	Kind Kind `json:"kind"`
	// Delta is the signed power change in watts for load steps. Positive
	// values are rising edges, negative values falling edges.
	Delta float64 `json:"delta"`
}

// LoadStep returns a load step value with the given signed magnitude.
func LoadStep(delta float64) Value {
	return Value{Kind: KindLoadStep, Delta: delta}
}

// Metric computes the distance between two values of the same kind.
type Metric func(a, b Value) float64

var metrics = map[Kind]Metric{
	KindLoadStep: loadStepDistance,
}

func loadStepDistance(a, b Value) float64 {
	return math.Abs(a.Delta - b.Delta)
}

// Distance returns the mismatch between v and other. It is zero for equal
// values and +Inf when the kinds differ or the kind has no metric.
func (v Value) Distance(other Value) float64 {
	if v.Kind != other.Kind {
		return math.Inf(1)
	}
	m, ok := metrics[v.Kind]
	if !ok {
		return math.Inf(1)
	}
	return m(v, other)
}

func (v Value) String() string {
	switch v.Kind {
	case KindLoadStep:
		return fmt.Sprintf("Step (dp=%g W)", v.Delta)
	default:
		return "Unknown feature"
	}
}
