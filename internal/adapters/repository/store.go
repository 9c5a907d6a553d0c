// Package repository persists profiles, symptom logs and assessment
// snapshots.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/okian/peri/internal/domain/model"
	"github.com/okian/peri/internal/domain/types"
	"github.com/okian/peri/pkg/metrics"
)

// Backend names used in metrics and configuration.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// ProfileStore provides read/write access to user profiles.
type ProfileStore interface {
	// GetProfile returns ErrNotFound if the user never saved a profile.
	GetProfile(ctx context.Context, userID string) (model.Profile, error)
	PutProfile(ctx context.Context, userID string, p model.Profile) error
}

// SymptomLogStore provides read/write access to symptom logs.
type SymptomLogStore interface {
	// GetLog returns an empty log for an unknown user.
	GetLog(ctx context.Context, userID string) (model.SymptomLog, error)
	// PutLog replaces the whole log.
	PutLog(ctx context.Context, userID string, log model.SymptomLog) error
	DeleteLog(ctx context.Context, userID string) error
}

// AssessmentStore keeps the latest assessment snapshot per user.
type AssessmentStore interface {
	PutAssessment(ctx context.Context, a types.Assessment) error
	// LatestAssessment returns ErrNotFound if nothing was computed yet.
	LatestAssessment(ctx context.Context, userID string) (types.Assessment, error)
}

// Store is the full persistence surface used by the service.
type Store interface {
	ProfileStore
	SymptomLogStore
	AssessmentStore

	Backend() string
	Close() error
}

// observe records latency and, unless it is a plain miss, the error of one
// store operation.
func observe(backend, op string, start time.Time, err error) {
	metrics.RecordStoreLatency(backend, op, float64(time.Since(start).Microseconds())/1000)
	if err != nil && !errors.Is(err, ErrNotFound) {
		metrics.RecordStoreError(backend, op)
	}
}
