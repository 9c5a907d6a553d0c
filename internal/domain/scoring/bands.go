package scoring

// Band is a display risk band.
type Band string

// Risk bands, lowest first.
const (
	BandLow      Band = "Low"
	BandModerate Band = "Moderate"
	BandHigh     Band = "High"
	BandVeryHigh Band = "Very High"
)

// Upper bounds (exclusive) of the lower three bands.
const (
	lowUpper      = 0.25
	moderateUpper = 0.45
	highUpper     = 0.65
)

// Bands lists the bands in ascending order.
func Bands() []Band {
	return []Band{BandLow, BandModerate, BandHigh, BandVeryHigh}
}

// Classify returns the band for a probability. Boundaries belong to the upper band.
func Classify(probability float64) Band {
	switch {
	case probability < lowUpper:
		return BandLow
	case probability < moderateUpper:
		return BandModerate
	case probability < highUpper:
		return BandHigh
	default:
		return BandVeryHigh
	}
}
