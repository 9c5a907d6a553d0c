package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/okian/peri/internal/domain/model"
	"github.com/okian/peri/internal/domain/types"
	"github.com/okian/peri/pkg/logger"
)

// RedisStore keeps profiles and assessments as JSON strings and each symptom
// log as a hash of symptom id to JSON entry.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	log    logger.Logger
}

// NewRedisClient creates a go-redis client.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// NewRedisStore wraps client. The store owns the client and closes it on Close.
func NewRedisStore(client redis.UniversalClient, opts ...Option) *RedisStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &RedisStore{client: client, prefix: o.keyPrefix, log: o.log}
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Backend returns the backend name.
func (s *RedisStore) Backend() string { return BackendRedis }

// Close closes the underlying client.
func (s *RedisStore) Close() error { return s.client.Close() }

func (s *RedisStore) profileKey(userID string) string    { return s.prefix + "profile:" + userID }
func (s *RedisStore) symptomsKey(userID string) string   { return s.prefix + "symptoms:" + userID }
func (s *RedisStore) assessmentKey(userID string) string { return s.prefix + "assessment:" + userID }

func (s *RedisStore) GetProfile(ctx context.Context, userID string) (p model.Profile, err error) {
	defer func(start time.Time) { observe(BackendRedis, "get_profile", start, err) }(time.Now())

	if err := s.getJSON(ctx, s.profileKey(userID), &p); err != nil {
		return model.Profile{}, err
	}
	return p, nil
}

func (s *RedisStore) PutProfile(ctx context.Context, userID string, p model.Profile) (err error) {
	defer func(start time.Time) { observe(BackendRedis, "put_profile", start, err) }(time.Now())

	if userID == "" {
		return ErrInvalidUser
	}
	return s.setJSON(ctx, s.profileKey(userID), p)
}

func (s *RedisStore) GetLog(ctx context.Context, userID string) (log model.SymptomLog, err error) {
	defer func(start time.Time) { observe(BackendRedis, "get_log", start, err) }(time.Now())

	fields, err := s.client.HGetAll(ctx, s.symptomsKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get log: %w", err)
	}
	log = model.NewSymptomLog()
	for id, raw := range fields {
		var e model.SymptomEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("decode %s entry: %w", id, err)
		}
		log[model.SymptomID(id)] = e
	}
	return log, nil
}

func (s *RedisStore) PutLog(ctx context.Context, userID string, log model.SymptomLog) (err error) {
	defer func(start time.Time) { observe(BackendRedis, "put_log", start, err) }(time.Now())

	if userID == "" {
		return ErrInvalidUser
	}
	values := make(map[string]interface{}, len(log))
	for id, e := range log {
		raw, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode %s entry: %w", id, err)
		}
		values[string(id)] = string(raw)
	}
	key := s.symptomsKey(userID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) > 0 {
			pipe.HSet(ctx, key, values)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("put log: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteLog(ctx context.Context, userID string) (err error) {
	defer func(start time.Time) { observe(BackendRedis, "delete_log", start, err) }(time.Now())

	if err := s.client.Del(ctx, s.symptomsKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete log: %w", err)
	}
	return nil
}

func (s *RedisStore) PutAssessment(ctx context.Context, a types.Assessment) (err error) {
	defer func(start time.Time) { observe(BackendRedis, "put_assessment", start, err) }(time.Now())

	if a.UserID == "" {
		return ErrInvalidUser
	}
	return s.setJSON(ctx, s.assessmentKey(a.UserID), a)
}

func (s *RedisStore) LatestAssessment(ctx context.Context, userID string) (a types.Assessment, err error) {
	defer func(start time.Time) { observe(BackendRedis, "latest_assessment", start, err) }(time.Now())

	if err := s.getJSON(ctx, s.assessmentKey(userID), &a); err != nil {
		return types.Assessment{}, err
	}
	return a, nil
}

func (s *RedisStore) getJSON(ctx context.Context, key string, v interface{}) error {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		s.log.Warn(ctx, "corrupt value", logger.String("key", key), logger.Error(err))
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) setJSON(ctx context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, raw, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
