package scheduler

const (
	RecommendQuick    = "Quick order - Process immediately"
	RecommendModerate = "Moderate complexity - Standard processing"
	RecommendComplex  = "Complex order - May require additional preparation time"
)

// Recommend maps a complexity score to a suggestion using the thresholds of
// the default multiplier scale (1.5 and 2).
func Recommend(complexity float64) string {
	return recommend(complexity, 1.5, 2)
}

// Recommend maps a complexity score to a suggestion with thresholds taken
// from the small and medium band multipliers, so a custom scale stays
// calibrated. Under DefaultWeights it matches the package-level Recommend.
func (w Weights) Recommend(complexity float64) string {
	return recommend(complexity, w.ItemComplexity.SmallOrder, w.ItemComplexity.MediumOrder)
}

func recommend(complexity, quickMax, moderateMax float64) string {
	switch {
	case complexity <= quickMax:
		return RecommendQuick
	case complexity <= moderateMax:
		return RecommendModerate
	default:
		return RecommendComplex
	}
}
