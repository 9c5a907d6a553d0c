package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidSymptom  = errors.New("unknown symptom")
	ErrBadRequest      = errors.New("bad request")
)
