package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/peri/internal/adapters/mq/queue"
	"github.com/okian/peri/internal/domain/model"
)

func validUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: empty user id", ErrBadRequest)
	}
	return nil
}

// GetProfile returns the stored profile of userID.
func (s *Service) GetProfile(ctx context.Context, userID string) (model.Profile, error) {
	if err := validUser(userID); err != nil {
		return model.Profile{}, err
	}
	return s.store.GetProfile(ctx, userID)
}

// PutProfile replaces the profile of userID and schedules a recompute.
func (s *Service) PutProfile(ctx context.Context, userID string, p model.Profile) error {
	if err := validUser(userID); err != nil {
		return err
	}
	if err := s.store.PutProfile(ctx, userID, p); err != nil {
		return fmt.Errorf("store profile: %w", err)
	}
	s.recompute(ctx, userID, queue.ReasonProfile)
	return nil
}

// GetLog returns the symptom log of userID, empty if nothing was logged.
func (s *Service) GetLog(ctx context.Context, userID string) (model.SymptomLog, error) {
	if err := validUser(userID); err != nil {
		return nil, err
	}
	return s.store.GetLog(ctx, userID)
}

// SetSeverity sets the severity of one symptom, keeping its frequency.
// Accepts the short grid forms "mod" and "sev".
func (s *Service) SetSeverity(ctx context.Context, userID string, id model.SymptomID, severity string) error {
	sev, ok := model.ParseSeverity(severity)
	if !ok {
		return fmt.Errorf("%w: severity %q", ErrBadRequest, severity)
	}
	return s.editLog(ctx, userID, id, func(log model.SymptomLog) {
		log.SetSeverity(id, sev, s.clock())
	})
}

// SetFrequency sets the frequency of one symptom, keeping its severity. An
// empty frequency clears it.
func (s *Service) SetFrequency(ctx context.Context, userID string, id model.SymptomID, frequency string) error {
	freq, ok := parseFrequency(frequency)
	if !ok {
		return fmt.Errorf("%w: frequency %q", ErrBadRequest, frequency)
	}
	return s.editLog(ctx, userID, id, func(log model.SymptomLog) {
		log.SetFrequency(id, freq, s.clock())
	})
}

func parseFrequency(v string) (model.Frequency, bool) {
	f := model.Frequency(strings.TrimSpace(v))
	if f == model.FrequencyUnset || f == model.FrequencyDaily {
		return f, true
	}
	for _, known := range model.Frequencies() {
		if f == known {
			return f, true
		}
	}
	return "", false
}

func (s *Service) editLog(ctx context.Context, userID string, id model.SymptomID, edit func(model.SymptomLog)) error {
	if err := validUser(userID); err != nil {
		return err
	}
	if !id.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSymptom, id)
	}

	unlock := s.lockUser(userID)
	defer unlock()

	log, err := s.store.GetLog(ctx, userID)
	if err != nil {
		return fmt.Errorf("load symptom log: %w", err)
	}
	edit(log)
	if err := s.store.PutLog(ctx, userID, log); err != nil {
		return fmt.Errorf("store symptom log: %w", err)
	}

	s.recompute(ctx, userID, queue.ReasonSymptoms)
	return nil
}

// ClearLog removes every entry from the symptom log of userID.
func (s *Service) ClearLog(ctx context.Context, userID string) error {
	if err := validUser(userID); err != nil {
		return err
	}

	unlock := s.lockUser(userID)
	defer unlock()

	if err := s.store.DeleteLog(ctx, userID); err != nil {
		return fmt.Errorf("clear symptom log: %w", err)
	}
	s.recompute(ctx, userID, queue.ReasonSymptoms)
	return nil
}
