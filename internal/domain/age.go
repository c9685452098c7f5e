package domain

import "math"

// AgeGroupForYears maps a raw age in years onto one of the nine fixed age
// buckets. The second return value is false for negative or non-finite ages,
// which have no bucket and are excluded from the catalog.
func AgeGroupForYears(years float64) (string, bool) {
	if math.IsNaN(years) || math.IsInf(years, 0) || years < 0 {
		return "", false
	}
	switch {
	case years <= 1:
		return "0-1", true
	case years <= 5:
		return "2-5", true
	case years <= 10:
		return "5-10", true
	case years <= 15:
		return "10-15", true
	case years <= 25:
		return "15-25", true
	case years <= 35:
		return "25-35", true
	case years <= 50:
		return "35-50", true
	case years <= 65:
		return "50-65", true
	default:
		return "65+", true
	}
}
