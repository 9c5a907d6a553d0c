package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/peri/internal/adapters/mq/queue"
	"github.com/okian/peri/internal/adapters/repository"
	"github.com/okian/peri/internal/domain/extract"
	"github.com/okian/peri/internal/domain/interview"
	"github.com/okian/peri/internal/domain/model"
	"github.com/okian/peri/pkg/logger"
	"github.com/okian/peri/pkg/metrics"
)

// session is one interview. Its machine and extractor are only touched
// under mu.
type session struct {
	mu        sync.Mutex
	id        string
	userID    string
	machine   *interview.Machine
	extractor *extract.Extractor
	lastSeen  time.Time
}

// SessionStart is returned when an interview begins.
type SessionStart struct {
	SessionID string             `json:"session_id"`
	Prompt    string             `json:"prompt"`
	Progress  interview.Progress `json:"progress"`
}

// Turn is the outcome of one utterance.
type Turn struct {
	Reply      string               `json:"reply"`
	Transition interview.Transition `json:"transition,omitempty"`
	FollowUp   bool                 `json:"follow_up"`
	Complete   bool                 `json:"complete"`
	Progress   interview.Progress   `json:"progress"`
	Duplicate  bool                 `json:"duplicate"`
	Detected   []model.SymptomID    `json:"detected,omitempty"`
}

// StartSession opens an interview for userID, greeting the user by the
// name on their profile when there is one.
func (s *Service) StartSession(ctx context.Context, userID string) (SessionStart, error) {
	if strings.TrimSpace(userID) == "" {
		return SessionStart{}, fmt.Errorf("%w: empty user id", ErrBadRequest)
	}

	var name string
	p, err := s.store.GetProfile(ctx, userID)
	switch {
	case err == nil:
		name = p.Name
	case !errors.Is(err, repository.ErrNotFound):
		return SessionStart{}, fmt.Errorf("load profile: %w", err)
	}

	sess := &session{
		id:        uuid.NewString(),
		userID:    userID,
		machine:   interview.NewMachine(interview.WithName(name), interview.WithClock(s.clock)),
		extractor: extract.New(extract.WithClock(s.clock)),
		lastSeen:  s.clock(),
	}

	s.sessMu.Lock()
	s.sessions[sess.id] = sess
	n := len(s.sessions)
	s.sessMu.Unlock()
	metrics.UpdateActiveSessions(n)

	s.logger.Debug(ctx, "session started",
		logger.String("session_id", sess.id),
		logger.String("user_id", userID),
	)

	return SessionStart{
		SessionID: sess.id,
		Prompt:    sess.machine.Prompt(),
		Progress:  sess.machine.Progress(),
	}, nil
}

func (s *Service) session(id string) (*session, error) {
	s.sessMu.RLock()
	sess, ok := s.sessions[id]
	s.sessMu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// HandleUtterance feeds one user message to the session's interview. A
// repeated utteranceID is acknowledged with the current prompt and changes
// nothing. If the symptom log cannot be stored the interview stays where it
// was so the same answer can be retried.
func (s *Service) HandleUtterance(ctx context.Context, sessionID, utteranceID, text string) (Turn, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return Turn{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastSeen = s.clock()

	key := ""
	if utteranceID != "" {
		key = sessionID + "/" + utteranceID
		if s.deduper.SeenAndRecord(ctx, key) {
			metrics.RecordUtteranceDuplicate()
			return Turn{
				Reply:     sess.machine.Prompt(),
				Complete:  sess.machine.Complete(),
				Progress:  sess.machine.Progress(),
				Duplicate: true,
			}, nil
		}
	}

	detected := sess.extractor.Observe(text)
	for _, id := range detected {
		metrics.RecordExtractedSymptom(string(id))
	}

	step, err := s.answer(ctx, sess, text)
	if err != nil {
		if key != "" {
			s.deduper.Unrecord(ctx, key)
		}
		return Turn{}, err
	}

	metrics.RecordTransition(string(step.Transition))
	if step.Persist {
		s.recompute(ctx, sess.userID, queue.ReasonInterview)
	}

	return Turn{
		Reply:      step.Reply,
		Transition: step.Transition,
		FollowUp:   step.FollowUp,
		Complete:   step.Complete,
		Progress:   sess.machine.Progress(),
		Detected:   detected,
	}, nil
}

// answer applies text to the machine and stores the log when the step asks
// for it. The caller holds sess.mu.
func (s *Service) answer(ctx context.Context, sess *session, text string) (interview.Step, error) {
	q, ok := sess.machine.Current()
	if !ok || q.Symptom == "" {
		return sess.machine.Answer(text, nil), nil
	}

	unlock := s.lockUser(sess.userID)
	defer unlock()

	log, err := s.store.GetLog(ctx, sess.userID)
	if err != nil {
		return interview.Step{}, fmt.Errorf("load symptom log: %w", err)
	}

	prev := sess.machine.State()
	step := sess.machine.Answer(text, log)
	if !step.Persist && !step.FollowUp {
		return step, nil
	}

	if err := s.store.PutLog(ctx, sess.userID, log); err != nil {
		sess.machine = interview.NewMachine(
			interview.WithName(s.profileName(ctx, sess.userID)),
			interview.WithClock(s.clock),
			interview.WithState(prev),
		)
		return interview.Step{}, fmt.Errorf("store symptom log: %w", err)
	}
	return step, nil
}

func (s *Service) profileName(ctx context.Context, userID string) string {
	p, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return ""
	}
	return p.Name
}

// SaveDetected copies the session's keyword detections into the user's
// symptom log and returns how many were saved.
func (s *Service) SaveDetected(ctx context.Context, sessionID string) (int, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return 0, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastSeen = s.clock()

	if sess.extractor.Len() == 0 {
		return 0, nil
	}

	unlock := s.lockUser(sess.userID)
	defer unlock()

	log, err := s.store.GetLog(ctx, sess.userID)
	if err != nil {
		return 0, fmt.Errorf("load symptom log: %w", err)
	}
	n := sess.extractor.MergeInto(log, s.clock())
	if err := s.store.PutLog(ctx, sess.userID, log); err != nil {
		return 0, fmt.Errorf("store symptom log: %w", err)
	}

	s.recompute(ctx, sess.userID, queue.ReasonSymptoms)
	return n, nil
}

// EndSession discards a session and its utterance ids.
func (s *Service) EndSession(ctx context.Context, sessionID string) error {
	s.sessMu.Lock()
	_, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	n := len(s.sessions)
	s.sessMu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	metrics.UpdateActiveSessions(n)
	s.deduper.Forget(ctx, sessionID+"/")
	return nil
}

// SessionCount returns the number of open sessions.
func (s *Service) SessionCount() int {
	s.sessMu.RLock()
	defer s.sessMu.RUnlock()
	return len(s.sessions)
}

// EvictIdle drops sessions not seen since now minus the session TTL and
// returns how many were dropped.
func (s *Service) EvictIdle(ctx context.Context, now time.Time) int {
	cutoff := now.Add(-s.sessionTTL)

	var stale []string
	s.sessMu.Lock()
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := sess.lastSeen.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			stale = append(stale, id)
		}
	}
	n := len(s.sessions)
	s.sessMu.Unlock()

	for _, id := range stale {
		s.deduper.Forget(ctx, id+"/")
	}
	if len(stale) > 0 {
		metrics.RecordSessionsEvicted(len(stale))
		metrics.UpdateActiveSessions(n)
		s.logger.Debug(ctx, "evicted idle sessions", logger.Int("count", len(stale)))
	}
	return len(stale)
}

func (s *Service) janitor(ctx context.Context, stop <-chan struct{}) {
	interval := s.sessionTTL / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			s.EvictIdle(ctx, s.clock())
		}
	}
}
