package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/peri/internal/domain/model"
	"github.com/okian/peri/internal/domain/types"
)

// MemoryStore keeps everything in process memory. Values are copied on the
// way in and out so callers never share maps with the store.
type MemoryStore struct {
	mu          sync.RWMutex
	profiles    map[string]model.Profile
	logs        map[string]model.SymptomLog
	assessments map[string]types.Assessment
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles:    make(map[string]model.Profile),
		logs:        make(map[string]model.SymptomLog),
		assessments: make(map[string]types.Assessment),
	}
}

// Backend returns the backend name.
func (s *MemoryStore) Backend() string { return BackendMemory }

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

// GetProfile returns the stored profile or ErrNotFound.
func (s *MemoryStore) GetProfile(_ context.Context, userID string) (p model.Profile, err error) {
	defer func(start time.Time) { observe(BackendMemory, "get_profile", start, err) }(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return model.Profile{}, ErrNotFound
	}
	return p, nil
}

// PutProfile replaces the user's profile.
func (s *MemoryStore) PutProfile(_ context.Context, userID string, p model.Profile) (err error) {
	defer func(start time.Time) { observe(BackendMemory, "put_profile", start, err) }(time.Now())

	if userID == "" {
		return ErrInvalidUser
	}
	if p.Conditions != nil {
		p.Conditions = append([]string(nil), p.Conditions...)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[userID] = p
	return nil
}

// GetLog returns a copy of the user's symptom log, empty when none is stored.
func (s *MemoryStore) GetLog(_ context.Context, userID string) (log model.SymptomLog, err error) {
	defer func(start time.Time) { observe(BackendMemory, "get_log", start, err) }(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logs[userID].Clone(), nil
}

// PutLog replaces the user's symptom log.
func (s *MemoryStore) PutLog(_ context.Context, userID string, log model.SymptomLog) (err error) {
	defer func(start time.Time) { observe(BackendMemory, "put_log", start, err) }(time.Now())

	if userID == "" {
		return ErrInvalidUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[userID] = log.Clone()
	return nil
}

// DeleteLog removes the user's symptom log.
func (s *MemoryStore) DeleteLog(_ context.Context, userID string) (err error) {
	defer func(start time.Time) { observe(BackendMemory, "delete_log", start, err) }(time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.logs, userID)
	return nil
}

// PutAssessment replaces the user's latest assessment.
func (s *MemoryStore) PutAssessment(_ context.Context, a types.Assessment) (err error) {
	defer func(start time.Time) { observe(BackendMemory, "put_assessment", start, err) }(time.Now())

	if a.UserID == "" {
		return ErrInvalidUser
	}
	a.Contributions = append(a.Contributions[:0:0], a.Contributions...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assessments[a.UserID] = a
	return nil
}

// LatestAssessment returns the user's latest assessment or ErrNotFound.
func (s *MemoryStore) LatestAssessment(_ context.Context, userID string) (a types.Assessment, err error) {
	defer func(start time.Time) { observe(BackendMemory, "latest_assessment", start, err) }(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assessments[userID]
	if !ok {
		return types.Assessment{}, ErrNotFound
	}
	return a, nil
}
