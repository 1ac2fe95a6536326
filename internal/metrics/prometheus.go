// Package metrics provides Prometheus exporters for application metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the waste tracking pipeline.
var (
	// Counters.
	MealsCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meals_completed_total",
			Help: "Total number of meals completed",
		},
		[]string{"meal_type"},
	)

	BadgesAwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badges_awarded_total",
			Help: "Total number of streak badges awarded",
		},
		[]string{"level"},
	)

	PhotosRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photos_rejected_total",
			Help: "Total number of uploaded photos rejected by the food-presence check",
		},
		[]string{"phase"}, // before / after
	)

	EstimatorFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estimator_failures_total",
			Help: "Total number of vision estimator calls recovered with the fallback percentage",
		},
		[]string{"operation"},
	)

	WasteResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waste_resolutions_total",
			Help: "Total number of waste percentage resolutions by source",
		},
		[]string{"source"}, // override / estimator / duplicate_capped / single_image / fallback
	)

	// Histograms.
	WastePercentage = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "waste_percentage",
			Help:    "Distribution of resolved waste percentages",
			Buckets: prometheus.LinearBuckets(0, 10, 11), // 0 to 100
		},
	)

	PointsAwarded = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "points_awarded",
			Help:    "Distribution of points awarded per completed meal",
			Buckets: []float64{25, 50, 100, 150},
		},
	)
)

// RecordMealCompleted increments the completed meal counter.
func RecordMealCompleted(mealType string) {
	MealsCompletedTotal.WithLabelValues(mealType).Inc()
}

// RecordBadgeAwarded increments the badge counter for a level.
func RecordBadgeAwarded(level string) {
	BadgesAwardedTotal.WithLabelValues(level).Inc()
}

// RecordPhotoRejected increments the rejected photo counter for a phase.
func RecordPhotoRejected(phase string) {
	PhotosRejectedTotal.WithLabelValues(phase).Inc()
}

// RecordEstimatorFailure increments the estimator failure counter.
func RecordEstimatorFailure(operation string) {
	EstimatorFailuresTotal.WithLabelValues(operation).Inc()
}

// RecordWasteResolution increments the resolution counter for a source.
func RecordWasteResolution(source string) {
	WasteResolutionsTotal.WithLabelValues(source).Inc()
}

// ObserveCompletion records the resolved waste percentage and awarded points.
func ObserveCompletion(wastePercentage, points int) {
	WastePercentage.Observe(float64(wastePercentage))
	PointsAwarded.Observe(float64(points))
}
