package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/peri/internal/adapters/repository"
	"github.com/okian/peri/internal/domain/model"
	"github.com/okian/peri/internal/domain/scoring"
	"github.com/okian/peri/internal/domain/types"
)

var fixedNow = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

func setupMockDB(t *testing.T) (sqlmock.Sqlmock, *repository.PostgresStore) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	store := repository.NewPostgresStore(db, repository.WithClock(func() time.Time { return fixedNow }))
	t.Cleanup(func() { _ = db.Close() })
	return mock, store
}

func TestPostgresStore_Migrate(t *testing.T) {
	mock, store := setupMockDB(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS peri_profiles`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS peri_symptoms`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS peri_assessments`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS peri_assessments_user_idx`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Migrate(context.Background()))
	assert.Equal(t, repository.BackendPostgres, store.Backend())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetProfile(t *testing.T) {
	mock, store := setupMockDB(t)

	rows := sqlmock.NewRows([]string{"data"}).
		AddRow([]byte(`{"age":55,"systolic":185,"cholesterol":3,"smoking":true,"alcohol":false,"active":false}`))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT data FROM peri_profiles WHERE user_id = $1`)).
		WithArgs("u1").
		WillReturnRows(rows)

	p, err := store.GetProfile(context.Background(), "u1")

	require.NoError(t, err)
	require.NotNil(t, p.Age)
	assert.Equal(t, 55.0, *p.Age)
	assert.Equal(t, 3, *p.Cholesterol)
	assert.True(t, p.Smoking)
	assert.Nil(t, p.Diastolic)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetProfile_NotFound(t *testing.T) {
	mock, store := setupMockDB(t)

	mock.ExpectQuery(`SELECT data FROM peri_profiles`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetProfile(context.Background(), "missing")

	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PutProfile(t *testing.T) {
	mock, store := setupMockDB(t)

	mock.ExpectExec(`INSERT INTO peri_profiles`).
		WithArgs("u1", sqlmock.AnyArg(), fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.PutProfile(context.Background(), "u1", model.Profile{Age: model.Float(48)})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.ErrorIs(t, store.PutProfile(context.Background(), "", model.Profile{}), repository.ErrInvalidUser)
}

func TestPostgresStore_GetLog(t *testing.T) {
	mock, store := setupMockDB(t)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"symptom", "severity", "frequency", "updated_at"}).
		AddRow("palp", "severe", "Once daily", at).
		AddRow("sleep", "none", "", at)
	mock.ExpectQuery(`SELECT symptom, severity, frequency, updated_at FROM peri_symptoms`).
		WithArgs("u1").
		WillReturnRows(rows)

	log, err := store.GetLog(context.Background(), "u1")

	require.NoError(t, err)
	assert.Len(t, log, 2)
	e, ok := log.Entry(model.Palpitations)
	require.True(t, ok)
	assert.Equal(t, model.SeveritySevere, e.Severity)
	assert.Equal(t, model.FrequencyOnceDaily, e.Frequency)
	assert.Equal(t, 1, log.Active())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PutLog(t *testing.T) {
	mock, store := setupMockDB(t)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	log := model.NewSymptomLog()
	log.Record(model.Palpitations, model.SeveritySevere, model.FrequencyOnceDaily, at)
	log.Record(model.HotFlashes, model.SeverityMild, model.FrequencyUnset, time.Time{})

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM peri_symptoms WHERE user_id = $1`)).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`INSERT INTO peri_symptoms`).
		WithArgs("u1", "hot_flashes", "mild", "", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO peri_symptoms`).
		WithArgs("u1", "palp", "severe", "Once daily", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.PutLog(context.Background(), "u1", log))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PutLog_RollsBack(t *testing.T) {
	mock, store := setupMockDB(t)

	log := model.NewSymptomLog()
	log.Record(model.Mood, model.SeverityMild, model.FrequencyWeekly, fixedNow)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM peri_symptoms`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO peri_symptoms`).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := store.PutLog(context.Background(), "u1", log)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteLog(t *testing.T) {
	mock, store := setupMockDB(t)

	mock.ExpectExec(`DELETE FROM peri_symptoms`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, store.DeleteLog(context.Background(), "u1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PutAssessment(t *testing.T) {
	mock, store := setupMockDB(t)

	a := types.NewAssessment("u1", "profile", scoring.Result{Full: 0.3, Band: scoring.BandModerate}, fixedNow)

	mock.ExpectExec(`INSERT INTO peri_assessments`).
		WithArgs(a.ID, "u1", "profile", fixedNow, false, 0.3, 0.0, 0.0, "Moderate", false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.PutAssessment(context.Background(), a))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PutAssessment_Duplicate(t *testing.T) {
	mock, store := setupMockDB(t)

	a := types.InsufficientAssessment("u1", "symptoms", fixedNow)

	mock.ExpectExec(`INSERT INTO peri_assessments`).
		WillReturnError(&pq.Error{Code: "23505"})

	assert.NoError(t, store.PutAssessment(context.Background(), a))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LatestAssessment(t *testing.T) {
	mock, store := setupMockDB(t)

	cols := []string{"id", "user_id", "reason", "computed_at", "insufficient",
		"full_prob", "clinical_only", "symptom_delta", "band", "elevated", "contributions"}
	rows := sqlmock.NewRows(cols).
		AddRow("6f1c1d1e-0000-4000-8000-000000000001", "u1", "symptoms", fixedNow, false,
			0.72, 0.6, 0.12, "Very High", true, []byte(`[{"symptom":"palp","name":"Heart palpitations","score":1,"severity":"severe","frequency":"Once daily","weight":0.35,"contribution":1.2}]`))
	mock.ExpectQuery(`SELECT id, user_id, reason, computed_at`).
		WithArgs("u1").
		WillReturnRows(rows)

	a, err := store.LatestAssessment(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, scoring.BandVeryHigh, a.Band)
	assert.True(t, a.Elevated)
	assert.InDelta(t, 0.12, a.SymptomDelta, 1e-12)
	require.Len(t, a.Contributions, 1)
	assert.Equal(t, model.Palpitations, a.Contributions[0].Symptom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LatestAssessment_NotFound(t *testing.T) {
	mock, store := setupMockDB(t)

	mock.ExpectQuery(`SELECT id, user_id, reason, computed_at`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.LatestAssessment(context.Background(), "u1")

	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
