// Package vision provides image analysis for the waste pipeline: a
// food-presence check and before/after consumption estimation.
package vision

import "context"

// Analyzer is the image analysis contract consumed by the meal pipeline.
//
// EstimateConsumption and EstimateWaste return apperrors.ErrEstimatorUnavailable
// (wrapped) when the backend cannot produce a usable number; the caller decides
// the fallback. ContainsFood reports its own provider failures the same way.
type Analyzer interface {
	// ContainsFood reports whether the image shows a plate of food.
	ContainsFood(ctx context.Context, image []byte) (bool, error)

	// EstimateConsumption compares before/after photos of the same plate and
	// returns the percentage of the original food that was eaten, in [0,100].
	EstimateConsumption(ctx context.Context, before, after []byte) (int, error)

	// EstimateWaste estimates waste from the after photo alone, in [0,100].
	// Used when no before photo is available.
	EstimateWaste(ctx context.Context, after []byte) (int, error)
}

// clampPercent bounds a percentage to [0,100].
func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
