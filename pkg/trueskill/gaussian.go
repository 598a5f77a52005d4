package trueskill

import "math"

// Below this, the truncated Gaussian denominators underflow.
const tiny = 2.222758749e-162

// Keeps σ strictly positive when w rounds to 1.
const minVarianceFactor = 1e-4

func pdf(x float64) float64 {
	return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
}

func cdf(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

func ppf(p float64) float64 {
	return -math.Sqrt2 * math.Erfcinv(2*p)
}

// vExceedsMargin is the mean correction for a decisive outcome.
func vExceedsMargin(t, margin float64) float64 {
	denom := cdf(t - margin)
	if denom < tiny {
		return -t + margin
	}

	return pdf(t-margin) / denom
}

// wExceedsMargin is the variance correction for a decisive outcome.
func wExceedsMargin(t, margin float64) float64 {
	denom := cdf(t - margin)
	if denom < tiny {
		if t < 0 {
			return 1
		}
		return 0
	}

	v := vExceedsMargin(t, margin)
	return v * (v + t - margin)
}

// vWithinMargin is the mean correction for a draw.
func vWithinMargin(t, margin float64) float64 {
	abs := math.Abs(t)
	denom := cdf(margin-abs) - cdf(-margin-abs)
	if denom < tiny {
		if t < 0 {
			return -t - margin
		}
		return -t + margin
	}

	num := pdf(-margin-abs) - pdf(margin-abs)
	if t < 0 {
		return -num / denom
	}

	return num / denom
}

// wWithinMargin is the variance correction for a draw.
func wWithinMargin(t, margin float64) float64 {
	abs := math.Abs(t)
	denom := cdf(margin-abs) - cdf(-margin-abs)
	if denom < tiny {
		return 1
	}

	v := vWithinMargin(abs, margin)
	return v*v + ((margin-abs)*pdf(margin-abs)-(-margin-abs)*pdf(-margin-abs))/denom
}
