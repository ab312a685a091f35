package service_test

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	service "github.com/steadilab/steadi/internal/app"
	"github.com/steadilab/steadi/internal/domain/model"
	"github.com/steadilab/steadi/internal/domain/session"
	"github.com/steadilab/steadi/internal/domain/types"
	"github.com/steadilab/steadi/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithShardCount(2),
			service.WithMaxRecentLimit(10),
			service.WithTaskDuration(15*time.Second),
			service.WithCountdown(0),
			service.WithTargetInterval(time.Second),
			service.WithOnTargetRadius(0.2),
		)

		Convey("Then it should be created successfully", func() {
			So(svc, ShouldNotBeNil)
		})
	})
}

func TestService_Start(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()
		// Ensure service is stopped after test
		defer svc.Stop()

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
			})

			Convey("And it should be marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
			})
		})
	})
}

func TestService_Stop(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := svc.Start(ctx)
		So(err, ShouldBeNil)

		Convey("When stopping the service", func() {
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, false)
			})
		})

		Convey("When stopping with a live session", func() {
			id, err := svc.CreateSession(ctx, types.TaskMotor)
			So(err, ShouldBeNil)
			So(svc.Command(ctx, id, session.CommandStart), ShouldBeNil)
			svc.Stop()

			Convey("Then commands report the stopped service", func() {
				So(svc.Command(ctx, id, session.CommandSkip), ShouldEqual, service.ErrNotStarted)
			})
		})
	})
}

func TestService_CreateSession(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(service.WithCountdown(0))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When creating a motor session", func() {
			id, err := svc.CreateSession(ctx, types.TaskMotor)

			Convey("Then it is registered and startable", func() {
				So(err, ShouldBeNil)
				So(id, ShouldNotBeEmpty)
				st, err := svc.SessionStatus(ctx, id)
				So(err, ShouldBeNil)
				So(st.State, ShouldEqual, types.StateReady)
			})
		})

		Convey("When creating a session with an unknown task", func() {
			_, err := svc.CreateSession(ctx, types.TaskKind("balance"))

			Convey("Then it is rejected", func() {
				So(err, ShouldEqual, service.ErrUnknownTask)
			})
		})

		Convey("When the service has not been started", func() {
			cold := service.New()
			_, err := cold.CreateSession(ctx, types.TaskMotor)
			So(err, ShouldEqual, service.ErrNotStarted)
		})
	})
}

func TestService_SessionFlow(t *testing.T) {
	Convey("Given a started service with no countdown", t, func() {
		svc := service.New(
			service.WithCountdown(0),
			service.WithTaskDuration(time.Minute),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		id, err := svc.CreateSession(ctx, types.TaskMotor)
		So(err, ShouldBeNil)

		Convey("When the session runs through a full attempt", func() {
			So(svc.Command(ctx, id, session.CommandStart), ShouldBeNil)

			var st session.Status
			frame := model.Frame{Hand: &types.Point{X: 0.5, Y: 0.5}}
			for i := 0; i < 30; i++ {
				st, err = svc.PushFrame(ctx, id, frame)
				So(err, ShouldBeNil)
			}
			So(st.State, ShouldEqual, types.StateTracking)
			So(st.SampleCount, ShouldEqual, 30)

			So(svc.Command(ctx, id, session.CommandFinishEarly), ShouldBeNil)

			Convey("Then the result is available through the service", func() {
				res, err := svc.Result(ctx, id)
				So(err, ShouldBeNil)
				So(res.SessionID, ShouldEqual, id)
				So(res.WasSkipped, ShouldBeFalse)
				So(res.Score, ShouldBeBetweenOrEqual, 0, 100)
			})

			Convey("And it shows up in recent results", func() {
				recent, err := svc.RecentResults(ctx, 10)
				So(err, ShouldBeNil)
				So(len(recent), ShouldBeGreaterThanOrEqualTo, 1)
				So(recent[0].SessionID, ShouldEqual, id)
			})
		})

		Convey("When the result is requested before the session finishes", func() {
			_, err := svc.Result(ctx, id)
			So(err, ShouldEqual, session.ErrNotFinished)
		})

		Convey("When an unknown session is addressed", func() {
			_, err := svc.PushFrame(ctx, "nope", model.Frame{})
			So(err, ShouldEqual, service.ErrSessionNotFound)
			_, err = svc.Result(ctx, "nope")
			So(err, ShouldEqual, service.ErrSessionNotFound)
			So(svc.Command(ctx, "nope", session.CommandStart), ShouldEqual, service.ErrSessionNotFound)
		})
	})
}

func TestService_RecentLimit(t *testing.T) {
	Convey("Given a service with a small recent cap", t, func() {
		svc := service.New(
			service.WithCountdown(0),
			service.WithMaxRecentLimit(2),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		for i := 0; i < 4; i++ {
			id, err := svc.CreateSession(ctx, types.TaskMotor)
			So(err, ShouldBeNil)
			So(svc.Command(ctx, id, session.CommandSkip), ShouldBeNil)
		}

		Convey("When asking for more than the cap", func() {
			recent, err := svc.RecentResults(ctx, 50)

			Convey("Then the limit is clamped", func() {
				So(err, ShouldBeNil)
				So(len(recent), ShouldEqual, 2)
			})
		})

		Convey("When asking with a non-positive limit", func() {
			_, err := svc.RecentResults(ctx, 0)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestService_GetStats(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()

		Convey("When getting stats before starting", func() {
			stats := svc.GetStats()

			Convey("Then it should return basic stats", func() {
				So(stats, ShouldNotBeNil)
				So(stats["started"], ShouldEqual, false)
			})
		})
	})

	Convey("Given a started service with finished sessions", t, func() {
		svc := service.New(service.WithCountdown(0))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		id, err := svc.CreateSession(ctx, types.TaskMotor)
		So(err, ShouldBeNil)
		So(svc.Command(ctx, id, session.CommandSkip), ShouldBeNil)

		Convey("When getting stats", func() {
			stats := svc.GetStats()

			Convey("Then counters reflect the session", func() {
				So(stats["started"], ShouldEqual, true)
				So(stats["totalResults"], ShouldEqual, 1)
			})
		})
	})
}
