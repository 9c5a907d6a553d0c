package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/peri/internal/adapters/mq/queue"
	workerpool "github.com/okian/peri/internal/adapters/mq/worker"
	"github.com/okian/peri/internal/adapters/repository"
	"github.com/okian/peri/internal/domain/model"
	"github.com/okian/peri/internal/domain/presentation"
	"github.com/okian/peri/internal/domain/scoring"
	"github.com/okian/peri/internal/domain/types"
	"github.com/okian/peri/pkg/logger"
)

// ReasonOnDemand marks snapshots computed by a synchronous risk request.
const ReasonOnDemand = "on_demand"

// Report is an assessment together with what a client needs to draw it.
type Report struct {
	types.Assessment
	View presentation.View `json:"view"`
}

// Assess scores the current profile and symptom log of userID. The snapshot
// also becomes the user's latest assessment. It fails with
// scoring.ErrInsufficientData when age or systolic pressure is missing.
func (s *Service) Assess(ctx context.Context, userID string) (Report, error) {
	if err := validUser(userID); err != nil {
		return Report{}, err
	}

	p, err := s.store.GetProfile(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		p = model.Profile{}
	case err != nil:
		return Report{}, fmt.Errorf("load profile: %w", err)
	}
	log, err := s.store.GetLog(ctx, userID)
	if err != nil {
		return Report{}, fmt.Errorf("load symptom log: %w", err)
	}

	a, err := workerpool.Evaluate(ctx, s.scorer, userID, ReasonOnDemand,
		scoring.Input{Profile: p, Log: log}, s.clock())
	if err != nil {
		return Report{}, err
	}

	if err := s.store.PutAssessment(ctx, a); err != nil {
		s.logger.Warn(ctx, "failed to store on-demand assessment",
			logger.String("user_id", userID),
			logger.Error(err),
		)
	}

	if a.Insufficient {
		return Report{Assessment: a}, scoring.ErrInsufficientData
	}
	return Report{
		Assessment: a,
		View:       presentation.Build(p, a.Result(), s.scorer.Model().Threshold),
	}, nil
}

// LatestAssessment returns the most recent stored snapshot for userID.
func (s *Service) LatestAssessment(ctx context.Context, userID string) (types.Assessment, error) {
	if err := validUser(userID); err != nil {
		return types.Assessment{}, err
	}
	return s.store.LatestAssessment(ctx, userID)
}

// RequestRecompute schedules a background recompute. It fails with
// queue.ErrBackpressure when the queue is full and queue.ErrStopped when the
// service is not running.
func (s *Service) RequestRecompute(ctx context.Context, userID string) error {
	if err := validUser(userID); err != nil {
		return err
	}
	return s.enqueue(ctx, userID, queue.ReasonProfile)
}
