package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/peri/internal/adapters/repository"
	"github.com/okian/peri/internal/domain/model"
	"github.com/okian/peri/internal/domain/scoring"
	"github.com/okian/peri/internal/domain/types"
	"github.com/okian/peri/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

// storeSamples returns how many latency observations the registry holds for
// backend and op.
func storeSamples(backend, op string) uint64 {
	families, err := metrics.GetRegistry().Gather()
	So(err, ShouldBeNil)
	for _, f := range families {
		if f.GetName() != "peri_risk_store_latency_milliseconds" {
			continue
		}
		for _, m := range f.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["backend"] == backend && labels["op"] == op {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	Convey("Given an empty memory store", t, func() {
		s := repository.NewMemoryStore()

		Convey("Then it reports its backend", func() {
			So(s.Backend(), ShouldEqual, repository.BackendMemory)
			So(s.Close(), ShouldBeNil)
		})

		Convey("When an unknown profile is read", func() {
			_, err := s.GetProfile(ctx, "nobody")

			Convey("Then it is not found", func() {
				So(err, ShouldEqual, repository.ErrNotFound)
			})
		})

		Convey("When an unknown log is read", func() {
			log, err := s.GetLog(ctx, "nobody")

			Convey("Then it is empty but usable", func() {
				So(err, ShouldBeNil)
				So(log, ShouldNotBeNil)
				So(log, ShouldBeEmpty)
			})
		})

		Convey("When a profile is stored", func() {
			p := model.Profile{Age: model.Float(52), Conditions: []string{"asthma"}}
			So(s.PutProfile(ctx, "u1", p), ShouldBeNil)
			p.Conditions[0] = "changed"

			Convey("Then it reads back without sharing the caller's slice", func() {
				got, err := s.GetProfile(ctx, "u1")
				So(err, ShouldBeNil)
				So(*got.Age, ShouldEqual, 52.0)
				So(got.Conditions, ShouldResemble, []string{"asthma"})
			})
		})

		Convey("When a profile has no user id", func() {
			Convey("Then it is rejected", func() {
				So(s.PutProfile(ctx, "", model.Profile{}), ShouldEqual, repository.ErrInvalidUser)
			})
		})

		Convey("When a log is stored and the caller keeps editing it", func() {
			log := model.NewSymptomLog()
			log.Record(model.Palpitations, model.SeveritySevere, model.FrequencyOnceDaily, at)
			So(s.PutLog(ctx, "u1", log), ShouldBeNil)
			log.Record(model.Mood, model.SeverityMild, model.FrequencyWeekly, at)

			Convey("Then the stored copy is unaffected", func() {
				got, err := s.GetLog(ctx, "u1")
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 1)
				e, ok := got.Entry(model.Palpitations)
				So(ok, ShouldBeTrue)
				So(e.Severity, ShouldEqual, model.SeveritySevere)
			})

			Convey("And the log is deleted", func() {
				So(s.DeleteLog(ctx, "u1"), ShouldBeNil)

				Convey("Then it reads back empty", func() {
					got, err := s.GetLog(ctx, "u1")
					So(err, ShouldBeNil)
					So(got, ShouldBeEmpty)
				})
			})
		})

		Convey("When assessments are stored", func() {
			first := types.NewAssessment("u1", "profile", scoring.Result{Full: 0.2, Band: scoring.BandLow}, at)
			second := types.NewAssessment("u1", "symptoms", scoring.Result{Full: 0.5, Band: scoring.BandHigh}, at.Add(time.Minute))
			So(s.PutAssessment(ctx, first), ShouldBeNil)
			So(s.PutAssessment(ctx, second), ShouldBeNil)

			Convey("Then the latest one is returned", func() {
				got, err := s.LatestAssessment(ctx, "u1")
				So(err, ShouldBeNil)
				So(got.ID, ShouldEqual, second.ID)
				So(got.Band, ShouldEqual, scoring.BandHigh)
			})

			Convey("Then other users have none", func() {
				_, err := s.LatestAssessment(ctx, "u2")
				So(err, ShouldEqual, repository.ErrNotFound)
			})
		})
	})
}

func TestMemoryStoreMetrics(t *testing.T) {
	ctx := context.Background()

	Convey("Given a memory store", t, func() {
		s := repository.NewMemoryStore()
		beforePut := storeSamples(repository.BackendMemory, "put_log")
		beforeLatest := storeSamples(repository.BackendMemory, "latest_assessment")

		Convey("When it is written and read", func() {
			So(s.PutLog(ctx, "u1", model.NewSymptomLog()), ShouldBeNil)
			_, err := s.LatestAssessment(ctx, "u1")
			So(err, ShouldEqual, repository.ErrNotFound)

			Convey("Then each operation is timed under the memory backend", func() {
				So(storeSamples(repository.BackendMemory, "put_log"), ShouldEqual, beforePut+1)
				So(storeSamples(repository.BackendMemory, "latest_assessment"), ShouldEqual, beforeLatest+1)
			})
		})
	})
}
