package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/lib/pq"

	"github.com/okian/peri/internal/domain/model"
	"github.com/okian/peri/internal/domain/scoring"
	"github.com/okian/peri/internal/domain/types"
	"github.com/okian/peri/pkg/logger"
)

// pgUniqueViolation is the SQLSTATE for a duplicate key.
const pgUniqueViolation = "23505"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS peri_profiles (
		user_id    TEXT PRIMARY KEY,
		data       JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS peri_symptoms (
		user_id    TEXT NOT NULL,
		symptom    TEXT NOT NULL,
		severity   TEXT NOT NULL,
		frequency  TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (user_id, symptom)
	)`,
	`CREATE TABLE IF NOT EXISTS peri_assessments (
		id            UUID PRIMARY KEY,
		user_id       TEXT NOT NULL,
		reason        TEXT NOT NULL,
		computed_at   TIMESTAMPTZ NOT NULL,
		insufficient  BOOLEAN NOT NULL,
		full_prob     DOUBLE PRECISION NOT NULL,
		clinical_only DOUBLE PRECISION NOT NULL,
		symptom_delta DOUBLE PRECISION NOT NULL,
		band          TEXT NOT NULL,
		elevated      BOOLEAN NOT NULL,
		contributions JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS peri_assessments_user_idx ON peri_assessments (user_id, computed_at DESC)`,
}

// PostgresStore persists to PostgreSQL through lib/pq. Profiles are a JSONB
// document, symptom logs are one row per symptom and every assessment is kept
// as history; the latest row wins.
type PostgresStore struct {
	db    *sql.DB
	clock func() time.Time
	log   logger.Logger
}

// OpenPostgres opens and pings a connection pool for dsn.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// NewPostgresStore wraps db. The store owns db and closes it on Close.
func NewPostgresStore(db *sql.DB, opts ...Option) *PostgresStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &PostgresStore{db: db, clock: o.clock, log: o.log}
}

// Migrate creates the tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Backend returns the backend name.
func (s *PostgresStore) Backend() string { return BackendPostgres }

// Close closes the connection pool.
func (s *PostgresStore) Close() error { return s.db.Close() }

func (s *PostgresStore) GetProfile(ctx context.Context, userID string) (p model.Profile, err error) {
	defer func(start time.Time) { observe(BackendPostgres, "get_profile", start, err) }(time.Now())

	var raw []byte
	err = s.db.QueryRowContext(ctx,
		`SELECT data FROM peri_profiles WHERE user_id = $1`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Profile{}, ErrNotFound
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return model.Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) PutProfile(ctx context.Context, userID string, p model.Profile) (err error) {
	defer func(start time.Time) { observe(BackendPostgres, "put_profile", start, err) }(time.Now())

	if userID == "" {
		return ErrInvalidUser
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO peri_profiles (user_id, data, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		userID, raw, s.clock())
	if err != nil {
		return fmt.Errorf("put profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetLog(ctx context.Context, userID string) (log model.SymptomLog, err error) {
	defer func(start time.Time) { observe(BackendPostgres, "get_log", start, err) }(time.Now())

	rows, err := s.db.QueryContext(ctx,
		`SELECT symptom, severity, frequency, updated_at FROM peri_symptoms WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("get log: %w", err)
	}
	defer rows.Close()

	log = model.NewSymptomLog()
	for rows.Next() {
		var id, sev, freq string
		var at time.Time
		if err := rows.Scan(&id, &sev, &freq, &at); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		log[model.SymptomID(id)] = model.SymptomEntry{
			Severity:  model.Severity(sev),
			Frequency: model.Frequency(freq),
			UpdatedAt: at,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get log: %w", err)
	}
	return log, nil
}

func (s *PostgresStore) PutLog(ctx context.Context, userID string, log model.SymptomLog) (err error) {
	defer func(start time.Time) { observe(BackendPostgres, "put_log", start, err) }(time.Now())

	if userID == "" {
		return ErrInvalidUser
	}
	ids := make([]string, 0, len(log))
	for id := range log {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("put log: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM peri_symptoms WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("put log: %w", err)
	}
	for _, id := range ids {
		e := log[model.SymptomID(id)]
		at := e.UpdatedAt
		if at.IsZero() {
			at = s.clock()
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO peri_symptoms (user_id, symptom, severity, frequency, updated_at)
			VALUES ($1, $2, $3, $4, $5)`,
			userID, id, string(e.Severity), string(e.Frequency), at)
		if err != nil {
			return fmt.Errorf("put log %s: %w", id, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("put log: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteLog(ctx context.Context, userID string) (err error) {
	defer func(start time.Time) { observe(BackendPostgres, "delete_log", start, err) }(time.Now())

	if _, err = s.db.ExecContext(ctx, `DELETE FROM peri_symptoms WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete log: %w", err)
	}
	return nil
}

func (s *PostgresStore) PutAssessment(ctx context.Context, a types.Assessment) (err error) {
	defer func(start time.Time) { observe(BackendPostgres, "put_assessment", start, err) }(time.Now())

	if a.UserID == "" {
		return ErrInvalidUser
	}
	contributions := a.Contributions
	if contributions == nil {
		contributions = []scoring.Contribution{}
	}
	raw, err := json.Marshal(contributions)
	if err != nil {
		return fmt.Errorf("encode contributions: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO peri_assessments
		(id, user_id, reason, computed_at, insufficient, full_prob, clinical_only, symptom_delta, band, elevated, contributions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.UserID, a.Reason, a.ComputedAt, a.Insufficient,
		a.Full, a.ClinicalOnly, a.SymptomDelta, string(a.Band), a.Elevated, raw)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			s.log.Warn(ctx, "assessment already stored", logger.String("id", a.ID))
			return nil
		}
		return fmt.Errorf("put assessment: %w", err)
	}
	return nil
}

func (s *PostgresStore) LatestAssessment(ctx context.Context, userID string) (a types.Assessment, err error) {
	defer func(start time.Time) { observe(BackendPostgres, "latest_assessment", start, err) }(time.Now())

	var band string
	var raw []byte
	err = s.db.QueryRowContext(ctx, `SELECT id, user_id, reason, computed_at, insufficient,
		full_prob, clinical_only, symptom_delta, band, elevated, contributions
		FROM peri_assessments WHERE user_id = $1 ORDER BY computed_at DESC LIMIT 1`, userID).
		Scan(&a.ID, &a.UserID, &a.Reason, &a.ComputedAt, &a.Insufficient,
			&a.Full, &a.ClinicalOnly, &a.SymptomDelta, &band, &a.Elevated, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Assessment{}, ErrNotFound
	}
	if err != nil {
		return types.Assessment{}, fmt.Errorf("latest assessment: %w", err)
	}
	a.Band = scoring.Band(band)
	if err := json.Unmarshal(raw, &a.Contributions); err != nil {
		return types.Assessment{}, fmt.Errorf("decode contributions: %w", err)
	}
	return a, nil
}
