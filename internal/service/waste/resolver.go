// Package waste resolves the final waste percentage for a completed meal.
package waste

import (
	"context"
	"math"

	prommetrics "github.com/wastenot/wastenot-backend/internal/metrics"
	"github.com/wastenot/wastenot-backend/internal/photostore"
	"github.com/wastenot/wastenot-backend/internal/vision"
	"github.com/wastenot/wastenot-backend/pkg/logger"
)

// FallbackPercent is used whenever automated estimation cannot produce a
// usable answer. Meal completion never blocks on the estimator.
const FallbackPercent = 5

// duplicatePhotoThreshold is the relative byte-size difference below which
// the before/after photos are treated as the same image re-submitted.
const duplicatePhotoThreshold = 0.05

// duplicatePhotoCap bounds the waste estimate when the duplicate-photo
// heuristic fires.
const duplicatePhotoCap = 5

// Resolver decides the waste percentage for a meal from a user override, the
// vision estimator, and the duplicate-photo heuristic, in that order.
type Resolver struct {
	photos photostore.Store
	vision vision.Analyzer
	log    *logger.Logger
}

// NewResolver creates a waste resolver.
func NewResolver(photos photostore.Store, analyzer vision.Analyzer, log *logger.Logger) *Resolver {
	return &Resolver{
		photos: photos,
		vision: analyzer,
		log:    log,
	}
}

// Resolve returns the final waste percentage, always in [0,100].
//
// Priority: a user-supplied override wins (clamped to [0,100]); otherwise the
// two-image estimator runs when a before photo exists; otherwise the
// single-image estimator runs on the after photo alone. Every estimator
// failure resolves to FallbackPercent.
func (r *Resolver) Resolve(ctx context.Context, beforeLocator, afterLocator string, override *int) int {
	if override != nil {
		pct := clamp(*override)
		prommetrics.RecordWasteResolution("override")
		r.log.Debug().Int("waste", pct).Msg("Waste percentage supplied by user")
		return pct
	}

	if beforeLocator == "" {
		return r.resolveSingleImage(ctx, afterLocator)
	}

	before, err := r.photos.Read(ctx, beforeLocator)
	if err != nil {
		return r.fallback("read_before", err)
	}
	after, err := r.photos.Read(ctx, afterLocator)
	if err != nil {
		return r.fallback("read_after", err)
	}

	pct, err := r.vision.EstimateConsumption(ctx, before, after)
	if err != nil {
		return r.fallback("estimate_consumption", err)
	}

	if r.looksLikeDuplicate(ctx, beforeLocator, afterLocator) && pct > duplicatePhotoCap {
		r.log.Info().
			Int("estimated", pct).
			Msg("Before/after photos are nearly identical in size, capping waste estimate")
		prommetrics.RecordWasteResolution("duplicate_capped")
		return duplicatePhotoCap
	}

	prommetrics.RecordWasteResolution("estimator")
	return clamp(pct)
}

// resolveSingleImage is the degraded path when no before photo exists.
func (r *Resolver) resolveSingleImage(ctx context.Context, afterLocator string) int {
	after, err := r.photos.Read(ctx, afterLocator)
	if err != nil {
		return r.fallback("read_after", err)
	}

	pct, err := r.vision.EstimateWaste(ctx, after)
	if err != nil {
		return r.fallback("estimate_waste", err)
	}

	prommetrics.RecordWasteResolution("single_image")
	return clamp(pct)
}

// looksLikeDuplicate reports whether the two photos differ in byte size by
// less than duplicatePhotoThreshold relative to the before photo. Size
// lookup failures disable the heuristic rather than the resolution.
func (r *Resolver) looksLikeDuplicate(ctx context.Context, beforeLocator, afterLocator string) bool {
	beforeSize, err := r.photos.Size(ctx, beforeLocator)
	if err != nil || beforeSize <= 0 {
		return false
	}
	afterSize, err := r.photos.Size(ctx, afterLocator)
	if err != nil {
		return false
	}
	diff := math.Abs(float64(afterSize - beforeSize))
	return diff/float64(beforeSize) < duplicatePhotoThreshold
}

func (r *Resolver) fallback(operation string, err error) int {
	r.log.Warn().
		Err(err).
		Str("operation", operation).
		Int("fallback", FallbackPercent).
		Msg("Waste estimation unavailable, using fallback percentage")
	prommetrics.RecordEstimatorFailure(operation)
	prommetrics.RecordWasteResolution("fallback")
	return FallbackPercent
}

func clamp(pct int) int {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
