package service_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	service "github.com/okian/peri/internal/app"
	"github.com/okian/peri/internal/adapters/mq/queue"
	"github.com/okian/peri/internal/adapters/repository"
	"github.com/okian/peri/internal/domain/interview"
	"github.com/okian/peri/internal/domain/model"
	"github.com/okian/peri/internal/domain/scoring"
	"github.com/okian/peri/internal/domain/types"
	"github.com/okian/peri/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

var base = time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return base }

func crisisProfile() model.Profile {
	return model.Profile{
		Name:        "Ana",
		Age:         model.Float(55),
		Systolic:    model.Float(185),
		Diastolic:   model.Float(70),
		Cholesterol: model.Int(3),
	}
}

// flakyStore fails PutLog while failPut is set.
type flakyStore struct {
	*repository.MemoryStore
	failPut atomic.Bool
}

func (s *flakyStore) PutLog(ctx context.Context, userID string, log model.SymptomLog) error {
	if s.failPut.Load() {
		return errors.New("disk on fire")
	}
	return s.MemoryStore.PutLog(ctx, userID, log)
}

func waitForLatest(svc *service.Service, userID string) (types.Assessment, error) {
	deadline := time.Now().Add(2 * time.Second)
	for {
		a, err := svc.LatestAssessment(context.Background(), userID)
		if err == nil || time.Now().After(deadline) {
			return a, err
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["store"], ShouldEqual, repository.BackendMemory)
			So(stats["queueSize"], ShouldEqual, 1024)
			So(stats["dedupeSize"], ShouldEqual, 50_000)
			So(stats["sessions"], ShouldEqual, 0)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(3),
			service.WithQueueSize(16),
			service.WithDedupeSize(100),
			service.WithSessionTTL(time.Minute),
			service.WithStore(repository.NewMemoryStore()),
			service.WithClock(fixedClock),
			service.WithLogger(logger.Nop()),
		)

		Convey("Then the options are applied", func() {
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldEqual, 3)
			So(stats["queueSize"], ShouldEqual, 16)
			So(stats["dedupeSize"], ShouldEqual, 100)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		defer svc.Stop()

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["queueLength"], ShouldEqual, 0)
			})

			Convey("Then starting again is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})

			Convey("And then stopping it", func() {
				svc.Stop()

				Convey("Then it should be marked as stopped", func() {
					So(svc.GetStats()["started"], ShouldEqual, false)
				})

				Convey("Then recompute requests are refused", func() {
					err := svc.RequestRecompute(context.Background(), "u1")
					So(errors.Is(err, queue.ErrStopped), ShouldBeTrue)
				})
			})
		})
	})
}

func TestService_Records(t *testing.T) {
	Convey("Given a service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithClock(fixedClock))

		Convey("When no profile was saved", func() {
			_, err := svc.GetProfile(ctx, "u1")

			Convey("Then it is not found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the user id is blank", func() {
			err := svc.PutProfile(ctx, "  ", crisisProfile())

			Convey("Then it is a bad request", func() {
				So(errors.Is(err, service.ErrBadRequest), ShouldBeTrue)
			})
		})

		Convey("When a profile is saved before start", func() {
			err := svc.PutProfile(ctx, "u1", crisisProfile())

			Convey("Then the write succeeds and reads back", func() {
				So(err, ShouldBeNil)
				p, err := svc.GetProfile(ctx, "u1")
				So(err, ShouldBeNil)
				So(p.Name, ShouldEqual, "Ana")
			})
		})

		Convey("When severity and frequency are edited", func() {
			So(svc.SetSeverity(ctx, "u1", model.Palpitations, "sev"), ShouldBeNil)
			So(svc.SetFrequency(ctx, "u1", model.Palpitations, string(model.FrequencyWeekly)), ShouldBeNil)

			Convey("Then both are kept on the entry", func() {
				log, err := svc.GetLog(ctx, "u1")
				So(err, ShouldBeNil)
				e, ok := log.Entry(model.Palpitations)
				So(ok, ShouldBeTrue)
				So(e.Severity, ShouldEqual, model.SeveritySevere)
				So(e.Frequency, ShouldEqual, model.FrequencyWeekly)
				So(e.UpdatedAt, ShouldEqual, base)
			})

			Convey("And the log is cleared", func() {
				So(svc.ClearLog(ctx, "u1"), ShouldBeNil)

				Convey("Then it is empty", func() {
					log, err := svc.GetLog(ctx, "u1")
					So(err, ShouldBeNil)
					So(log, ShouldBeEmpty)
				})
			})
		})

		Convey("When an edit is invalid", func() {
			Convey("Then an unknown symptom is rejected", func() {
				err := svc.SetSeverity(ctx, "u1", model.SymptomID("tail"), "mild")
				So(errors.Is(err, service.ErrInvalidSymptom), ShouldBeTrue)
			})

			Convey("Then an unknown severity is rejected", func() {
				err := svc.SetSeverity(ctx, "u1", model.Mood, "extreme")
				So(errors.Is(err, service.ErrBadRequest), ShouldBeTrue)
			})

			Convey("Then an unknown frequency is rejected", func() {
				err := svc.SetFrequency(ctx, "u1", model.Mood, "hourly")
				So(errors.Is(err, service.ErrBadRequest), ShouldBeTrue)
			})
		})
	})
}

func TestService_Assess(t *testing.T) {
	Convey("Given a service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithClock(fixedClock))

		Convey("When the profile lacks age and blood pressure", func() {
			report, err := svc.Assess(ctx, "u1")

			Convey("Then it reports insufficient data", func() {
				So(errors.Is(err, scoring.ErrInsufficientData), ShouldBeTrue)
				So(report.Insufficient, ShouldBeTrue)
			})

			Convey("Then the refusal is still the latest snapshot", func() {
				a, err := svc.LatestAssessment(ctx, "u1")
				So(err, ShouldBeNil)
				So(a.Insufficient, ShouldBeTrue)
			})
		})

		Convey("When a hypertensive profile is assessed", func() {
			So(svc.PutProfile(ctx, "u1", crisisProfile()), ShouldBeNil)
			report, err := svc.Assess(ctx, "u1")

			Convey("Then it is very high and elevated", func() {
				So(err, ShouldBeNil)
				So(report.Full, ShouldAlmostEqual, 0.9481177879717166, 1e-9)
				So(report.Band, ShouldEqual, scoring.BandVeryHigh)
				So(report.Elevated, ShouldBeTrue)
				So(report.Reason, ShouldEqual, service.ReasonOnDemand)
				So(report.ComputedAt, ShouldEqual, base)
			})

			Convey("Then the view is filled in", func() {
				So(report.View.Gauge.Percent, ShouldEqual, 95)
				So(report.View.Radar, ShouldHaveLength, 7)
				So(report.View.Recommendations, ShouldNotBeEmpty)
				So(report.View.ThresholdPct, ShouldEqual, 7)
			})

			Convey("Then the snapshot is stored as latest", func() {
				a, err := svc.LatestAssessment(ctx, "u1")
				So(err, ShouldBeNil)
				So(a.ID, ShouldEqual, report.ID)
			})
		})
	})
}

func TestService_Recompute(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(2), service.WithClock(fixedClock))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When a profile is saved", func() {
			So(svc.PutProfile(ctx, "u2", crisisProfile()), ShouldBeNil)

			Convey("Then a worker stores an assessment", func() {
				a, err := waitForLatest(svc, "u2")
				So(err, ShouldBeNil)
				So(a.Reason, ShouldEqual, queue.ReasonProfile)
				So(a.Band, ShouldEqual, scoring.BandVeryHigh)
			})
		})

		Convey("When a recompute is requested", func() {
			err := svc.RequestRecompute(ctx, "u3")

			Convey("Then it is accepted", func() {
				So(err, ShouldBeNil)
				a, err := waitForLatest(svc, "u3")
				So(err, ShouldBeNil)
				So(a.Insufficient, ShouldBeTrue)
			})
		})
	})
}

func TestService_Interview(t *testing.T) {
	Convey("Given a user with a profile", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithClock(fixedClock))
		So(svc.PutProfile(ctx, "u1", crisisProfile()), ShouldBeNil)

		start, err := svc.StartSession(ctx, "u1")
		So(err, ShouldBeNil)

		Convey("Then the session greets the user by name", func() {
			So(start.SessionID, ShouldNotBeEmpty)
			So(start.Prompt, ShouldStartWith, "Hello, Ana!")
			So(start.Progress.Percent, ShouldEqual, 0)
			So(svc.SessionCount(), ShouldEqual, 1)
		})

		Convey("When a symptom is confirmed and followed up", func() {
			turn, err := svc.HandleUtterance(ctx, start.SessionID, "m1", "yes, pretty bad hot flashes")
			So(err, ShouldBeNil)

			Convey("Then a follow-up is asked", func() {
				So(turn.Transition, ShouldEqual, interview.TransitionFollowUp)
				So(turn.FollowUp, ShouldBeTrue)
				So(turn.Detected, ShouldContain, model.HotFlashes)
			})

			Convey("And the follow-up is answered", func() {
				turn, err = svc.HandleUtterance(ctx, start.SessionID, "m2", "once a week")
				So(err, ShouldBeNil)

				Convey("Then the entry is stored", func() {
					So(turn.Transition, ShouldEqual, interview.TransitionRecorded)
					log, err := svc.GetLog(ctx, "u1")
					So(err, ShouldBeNil)
					e, _ := log.Entry(model.HotFlashes)
					So(e.Severity, ShouldEqual, model.SeverityMild)
					So(e.Frequency, ShouldEqual, model.FrequencyWeekly)
				})
			})

			Convey("And the same utterance is delivered again", func() {
				dup, err := svc.HandleUtterance(ctx, start.SessionID, "m1", "yes, pretty bad hot flashes")

				Convey("Then it is acknowledged without a transition", func() {
					So(err, ShouldBeNil)
					So(dup.Duplicate, ShouldBeTrue)
					So(dup.Transition, ShouldEqual, interview.Transition(""))
					So(dup.Reply, ShouldEqual, turn.Reply)
				})
			})
		})

		Convey("When every symptom is denied", func() {
			for i := 0; i < 15; i++ {
				turn, err := svc.HandleUtterance(ctx, start.SessionID, "", "no")
				So(err, ShouldBeNil)
				So(turn.Transition, ShouldEqual, interview.TransitionDenied)
			}

			Convey("Then all denials are logged", func() {
				log, err := svc.GetLog(ctx, "u1")
				So(err, ShouldBeNil)
				So(log, ShouldHaveLength, 15)
				So(log.Active(), ShouldEqual, 0)
			})

			Convey("And the closing statement is answered", func() {
				turn, err := svc.HandleUtterance(ctx, start.SessionID, "", "thank you")
				So(err, ShouldBeNil)

				Convey("Then the interview is complete", func() {
					So(turn.Transition, ShouldEqual, interview.TransitionClosed)
					So(turn.Complete, ShouldBeTrue)
					So(turn.Reply, ShouldBeEmpty)
					So(turn.Progress.Label, ShouldEqual, "Session complete")
				})

				Convey("Then later input gets fallback replies", func() {
					turn, err := svc.HandleUtterance(ctx, start.SessionID, "", "where is my report?")
					So(err, ShouldBeNil)
					So(turn.Transition, ShouldEqual, interview.TransitionFallback)
					So(turn.Reply, ShouldEqual, interview.ReplyReport)
				})
			})
		})

		Convey("When symptoms come up in conversation and are saved", func() {
			_, err := svc.HandleUtterance(ctx, start.SessionID, "", "no, but my heart racing is terrible")
			So(err, ShouldBeNil)
			n, err := svc.SaveDetected(ctx, start.SessionID)

			Convey("Then they are merged into the log", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
				log, _ := svc.GetLog(ctx, "u1")
				e, ok := log.Entry(model.Palpitations)
				So(ok, ShouldBeTrue)
				So(e.Severity, ShouldEqual, model.SeveritySevere)
				So(e.Frequency, ShouldEqual, model.FrequencyDaily)
			})
		})

		Convey("When the session is ended", func() {
			So(svc.EndSession(ctx, start.SessionID), ShouldBeNil)

			Convey("Then it is gone", func() {
				_, err := svc.HandleUtterance(ctx, start.SessionID, "", "no")
				So(errors.Is(err, service.ErrSessionNotFound), ShouldBeTrue)
				So(errors.Is(svc.EndSession(ctx, start.SessionID), service.ErrSessionNotFound), ShouldBeTrue)
				_, err = svc.SaveDetected(ctx, start.SessionID)
				So(errors.Is(err, service.ErrSessionNotFound), ShouldBeTrue)
			})
		})

		Convey("When the session idles past its TTL", func() {
			evicted := svc.EvictIdle(ctx, base.Add(31*time.Minute))

			Convey("Then it is evicted", func() {
				So(evicted, ShouldEqual, 1)
				So(svc.SessionCount(), ShouldEqual, 0)
			})
		})

		Convey("When the session is still fresh", func() {
			Convey("Then it is kept", func() {
				So(svc.EvictIdle(ctx, base.Add(5*time.Minute)), ShouldEqual, 0)
			})
		})
	})
}

func TestService_InterviewStoreFailure(t *testing.T) {
	Convey("Given a store that cannot write symptom logs", t, func() {
		ctx := context.Background()
		store := &flakyStore{MemoryStore: repository.NewMemoryStore()}
		store.failPut.Store(true)
		svc := service.New(service.WithStore(store), service.WithClock(fixedClock))

		start, err := svc.StartSession(ctx, "u1")
		So(err, ShouldBeNil)

		Convey("When an answer is given", func() {
			_, err := svc.HandleUtterance(ctx, start.SessionID, "m1", "no")

			Convey("Then the error surfaces and the interview holds its place", func() {
				So(err, ShouldNotBeNil)
				So(start.Prompt, ShouldStartWith, "Hello!")
				log, _ := svc.GetLog(ctx, "u1")
				So(log, ShouldBeEmpty)
			})

			Convey("And the store recovers", func() {
				store.failPut.Store(false)
				turn, err := svc.HandleUtterance(ctx, start.SessionID, "m1", "no")

				Convey("Then the same utterance is applied once", func() {
					So(err, ShouldBeNil)
					So(turn.Duplicate, ShouldBeFalse)
					So(turn.Transition, ShouldEqual, interview.TransitionDenied)
					So(turn.Progress.Step, ShouldEqual, 0)
					log, _ := svc.GetLog(ctx, "u1")
					So(log, ShouldHaveLength, 1)
				})
			})
		})
	})
}
