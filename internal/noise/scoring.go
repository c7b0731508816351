package noise

import "github.com/sysmonctl/controlplane/internal/models"

// Rate computes events/hour for a group's raw count over the requested
// window.
func Rate(count int, timeRangeHours float64) float64 {
	if timeRangeHours <= 0 {
		return 0
	}
	return float64(count) / timeRangeHours
}

// Score is the piecewise-linear noise-scoring function of spec §4.7,
// parameterized by the ratio r = rate/threshold.
func Score(rate float64, threshold int) float64 {
	if threshold <= 0 {
		return 1.0
	}
	r := rate / float64(threshold)

	switch {
	case r < 1:
		return 0.3 * r
	case r < 2:
		return 0.3 + 0.2*(r-1)
	case r < 5:
		return 0.5 + (r-2)/3*0.2
	default:
		score := 0.7 + (r-5)/10*0.3
		if score > 1.0 {
			return 1.0
		}
		return score
	}
}

// Level classifies a score into the three-tier noise level of spec §4.7.
func Level(score float64) models.NoiseLevel {
	switch {
	case score >= 0.7:
		return models.NoiseLevelVeryNoisy
	case score >= 0.5:
		return models.NoiseLevelNoisy
	default:
		return models.NoiseLevelNormal
	}
}
