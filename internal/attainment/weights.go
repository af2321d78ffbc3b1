// Package attainment holds the pure CO/PO attainment calculation. Nothing here performs
// I/O; callers pass a scoring config snapshot and already-loaded evidence.
package attainment

// Input is one term of a weighted average.
type Input struct {
	Value   float64
	Weight  float64
	Defined bool
}

// Term builds a defined input.
func Term(value, weight float64) Input {
	return Input{Value: value, Weight: weight, Defined: true}
}

// OptionalTerm builds an input that is undefined when value is nil.
func OptionalTerm(value *float64, weight float64) Input {
	if value == nil {
		return Input{Weight: weight}
	}
	return Term(*value, weight)
}

// WeightedAverage averages the defined inputs, renormalizing their weights to sum to 1.
// Undefined inputs and their weights are dropped. ok is false when no defined input
// carries a positive weight.
func WeightedAverage(inputs ...Input) (score float64, ok bool) {
	var sum, total float64
	for _, in := range inputs {
		if !in.Defined || in.Weight <= 0 {
			continue
		}
		sum += in.Value * in.Weight
		total += in.Weight
	}
	if total == 0 {
		return 0, false
	}
	return sum / total, true
}

func floatPtr(v float64) *float64 {
	return &v
}

func intPtr(v int) *int {
	return &v
}
