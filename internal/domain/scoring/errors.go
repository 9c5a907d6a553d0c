package scoring

import "errors"

// ErrInsufficientData is returned when the profile lacks the age or the
// systolic pressure needed for a meaningful score.
var ErrInsufficientData = errors.New("insufficient data for scoring")
