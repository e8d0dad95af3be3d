package neighbors

import "fmt"

// neighborWeights turns raw neighbor distances into weights summing to one.
//
// The distance policy handles exact matches specially: when any neighbor
// sits at distance zero, every zero-distance neighbor receives an equal
// share of the full weight and every other neighbor receives none.
func (c *core) neighborWeights(dist []float64) ([]float64, error) {
	if len(dist) == 0 {
		return nil, nil
	}
	var raw []float64
	switch c.cfg.weights {
	case Uniform, "":
		raw = make([]float64, len(dist))
		for i := range raw {
			raw[i] = 1
		}
	case Distance:
		raw = make([]float64, len(dist))
		zero := false
		for _, d := range dist {
			if d == 0 {
				zero = true
				break
			}
		}
		for i, d := range dist {
			switch {
			case zero && d == 0:
				raw[i] = 1
			case zero:
				raw[i] = 0
			default:
				raw[i] = 1 / d
			}
		}
	case Custom:
		if c.cfg.weightsFn == nil {
			return nil, fmt.Errorf("neighbors: custom weights policy without a weights function")
		}
		w, err := c.cfg.weightsFn(dist)
		if err != nil {
			return nil, fmt.Errorf("custom weights: %w", err)
		}
		if len(w) != len(dist) {
			return nil, fmt.Errorf("%w: got %d weights for %d distances", ErrWeightLength, len(w), len(dist))
		}
		raw = w
	default:
		return nil, fmt.Errorf("neighbors: unknown weights policy %q", c.cfg.weights)
	}
	return renormalize(raw)
}

func renormalize(w []float64) ([]float64, error) {
	var sum float64
	for _, v := range w {
		sum += v
	}
	if sum == 0 {
		return nil, fmt.Errorf("neighbors: weights sum to zero")
	}
	out := make([]float64, len(w))
	for i, v := range w {
		out[i] = v / sum
	}
	return out, nil
}

// weightedAverage computes the weighted mean of the selected values.
func weightedAverage(values []float64, ind []int, w []float64) float64 {
	var sum float64
	for i, j := range ind {
		sum += w[i] * values[j]
	}
	return sum
}
