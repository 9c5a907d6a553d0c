package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/peri/internal/adapters/repository"
	"github.com/okian/peri/internal/domain/model"
	"github.com/okian/peri/internal/domain/scoring"
	"github.com/okian/peri/internal/domain/types"
)

func setupRedisStore(t *testing.T) (*miniredis.Miniredis, *repository.RedisStore) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := repository.NewRedisStore(client, repository.WithKeyPrefix("test:"))
	t.Cleanup(func() { _ = store.Close() })
	return mr, store
}

func TestRedisStore_Ping(t *testing.T) {
	_, store := setupRedisStore(t)

	require.NoError(t, store.Ping(context.Background()))
	assert.Equal(t, repository.BackendRedis, store.Backend())
}

func TestRedisStore_Profile(t *testing.T) {
	mr, store := setupRedisStore(t)
	ctx := context.Background()

	_, err := store.GetProfile(ctx, "u1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	p := model.Profile{
		Age:         model.Float(55),
		Systolic:    model.Float(185),
		Cholesterol: model.Int(3),
		Smoking:     true,
		Name:        "Ada",
	}
	require.NoError(t, store.PutProfile(ctx, "u1", p))
	assert.True(t, mr.Exists("test:profile:u1"))

	got, err := store.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, p, got)

	assert.ErrorIs(t, store.PutProfile(ctx, "", p), repository.ErrInvalidUser)
}

func TestRedisStore_CorruptProfile(t *testing.T) {
	mr, store := setupRedisStore(t)

	require.NoError(t, mr.Set("test:profile:u1", "{not json"))

	_, err := store.GetProfile(context.Background(), "u1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrNotFound)
}

func TestRedisStore_Log(t *testing.T) {
	mr, store := setupRedisStore(t)
	ctx := context.Background()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	empty, err := store.GetLog(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, empty)

	log := model.NewSymptomLog()
	log.Record(model.HotFlashes, model.SeverityModerate, model.FrequencyOnceDaily, at)
	log.Record(model.Palpitations, model.SeveritySevere, model.FrequencyMultipleDaily, at)
	require.NoError(t, store.PutLog(ctx, "u1", log))
	keys, err := mr.HKeys("test:symptoms:u1")
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	got, err := store.GetLog(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, log, got)

	// A smaller log replaces the previous one entirely.
	smaller := model.NewSymptomLog()
	smaller.Record(model.Mood, model.SeverityMild, model.FrequencyWeekly, at)
	require.NoError(t, store.PutLog(ctx, "u1", smaller))

	got, err = store.GetLog(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, smaller, got)

	require.NoError(t, store.DeleteLog(ctx, "u1"))
	assert.False(t, mr.Exists("test:symptoms:u1"))

	require.NoError(t, store.PutLog(ctx, "u1", model.NewSymptomLog()))
	got, err = store.GetLog(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisStore_Assessment(t *testing.T) {
	_, store := setupRedisStore(t)
	ctx := context.Background()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	_, err := store.LatestAssessment(ctx, "u1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	a := types.NewAssessment("u1", "profile", scoring.Result{
		Full:         0.9481177879717166,
		ClinicalOnly: 0.9481177879717166,
		Band:         scoring.BandVeryHigh,
		Elevated:     true,
		Contributions: []scoring.Contribution{
			{Symptom: model.Palpitations, Name: "Heart palpitations", Score: 1, Weight: 0.35, Contribution: 1.2},
		},
	}, at)
	require.NoError(t, store.PutAssessment(ctx, a))

	got, err := store.LatestAssessment(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, scoring.BandVeryHigh, got.Band)
	assert.True(t, got.ComputedAt.Equal(at))
	assert.Equal(t, a.Contributions, got.Contributions)

	assert.ErrorIs(t, store.PutAssessment(ctx, types.Assessment{}), repository.ErrInvalidUser)
}
