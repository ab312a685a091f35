package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/steadilab/steadi/internal/adapters/http/api"
	"github.com/steadilab/steadi/internal/adapters/repository"
	service "github.com/steadilab/steadi/internal/app"
	"github.com/steadilab/steadi/internal/domain/model"
	"github.com/steadilab/steadi/internal/domain/session"
	"github.com/steadilab/steadi/internal/domain/types"
)

// Mock implementations for testing
type mockDeps struct {
	createID  string
	createErr error

	commandErr error

	status    session.Status
	statusErr error

	result    model.Result
	resultErr error

	recent    []model.Result
	recentErr error

	frames []model.Frame
}

func (m *mockDeps) CreateSession(ctx context.Context, task types.TaskKind) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	return m.createID, nil
}

func (m *mockDeps) Command(ctx context.Context, id string, cmd session.Command) error {
	return m.commandErr
}

func (m *mockDeps) PushFrame(ctx context.Context, id string, frame model.Frame) (session.Status, error) {
	if m.statusErr != nil {
		return session.Status{}, m.statusErr
	}
	m.frames = append(m.frames, frame)
	return m.status, nil
}

func (m *mockDeps) SessionStatus(ctx context.Context, id string) (session.Status, error) {
	if m.statusErr != nil {
		return session.Status{}, m.statusErr
	}
	return m.status, nil
}

func (m *mockDeps) Result(ctx context.Context, id string) (model.Result, error) {
	if m.resultErr != nil {
		return model.Result{}, m.resultErr
	}
	return m.result, nil
}

func (m *mockDeps) RecentResults(ctx context.Context, n int) ([]model.Result, error) {
	if m.recentErr != nil {
		return nil, m.recentErr
	}
	if n > len(m.recent) {
		return m.recent, nil
	}
	return m.recent[:n], nil
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newTestServer(deps *mockDeps) *http.ServeMux {
	srv := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, 10)
	mux := http.NewServeMux()
	srv.Register(context.Background(), mux)
	return mux
}

func TestCreateSession(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDeps{createID: "abc-123"}
		mux := newTestServer(deps)

		Convey("When posting a valid motor session", func() {
			req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(`{"task":"motor"}`))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then a session id is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusCreated)
				var resp map[string]string
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["session_id"], ShouldEqual, "abc-123")
				So(resp["task"], ShouldEqual, "motor")
			})
		})

		Convey("When posting an unknown task", func() {
			req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(`{"task":"balance"}`))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the request is rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When posting malformed JSON", func() {
			req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader("{"))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When using the wrong method", func() {
			req := httptest.NewRequest(http.MethodGet, "/sessions", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestSessionPathRoutes(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDeps{
			status: session.Status{
				State:       types.StateTracking,
				LiveScore:   72.5,
				SampleCount: 40,
				Remaining:   12500 * time.Millisecond,
				RemainingMS: 12500,
			},
		}
		mux := newTestServer(deps)

		Convey("When getting a session's status", func() {
			req := httptest.NewRequest(http.MethodGet, "/sessions/abc-123", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the live readout is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var st session.Status
				So(json.Unmarshal(rec.Body.Bytes(), &st), ShouldBeNil)
				So(st.State, ShouldEqual, types.StateTracking)
				So(st.LiveScore, ShouldEqual, 72.5)
			})

			Convey("And remaining time crosses the wire as milliseconds", func() {
				var raw map[string]json.RawMessage
				So(json.Unmarshal(rec.Body.Bytes(), &raw), ShouldBeNil)
				So(string(raw["remaining_ms"]), ShouldEqual, "12500")
				_, hasNanos := raw["remaining"]
				So(hasNanos, ShouldBeFalse)
			})
		})

		Convey("When pushing a frame", func() {
			body := `{"hand":{"x":0.5,"y":0.5}}`
			req := httptest.NewRequest(http.MethodPost, "/sessions/abc-123/frames", strings.NewReader(body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the frame reaches the service", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(len(deps.frames), ShouldEqual, 1)
				So(deps.frames[0].Hand, ShouldNotBeNil)
				So(deps.frames[0].Hand.X, ShouldEqual, 0.5)
			})
		})

		Convey("When pushing a frame with a malformed body", func() {
			req := httptest.NewRequest(http.MethodPost, "/sessions/abc-123/frames", strings.NewReader("not json"))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When applying a command", func() {
			req := httptest.NewRequest(http.MethodPost, "/sessions/abc-123/command", strings.NewReader(`{"command":"start"}`))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusOK)
		})

		Convey("When a command is not legal in the current state", func() {
			deps.commandErr = session.ErrInvalidTransition
			req := httptest.NewRequest(http.MethodPost, "/sessions/abc-123/command", strings.NewReader(`{"command":"finish_early"}`))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusConflict)
		})

		Convey("When a command is unknown", func() {
			deps.commandErr = session.ErrUnknownCommand
			req := httptest.NewRequest(http.MethodPost, "/sessions/abc-123/command", strings.NewReader(`{"command":"pause"}`))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the path has no session id", func() {
			req := httptest.NewRequest(http.MethodGet, "/sessions/", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the subroute is unknown", func() {
			req := httptest.NewRequest(http.MethodGet, "/sessions/abc-123/chart", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestGetResult(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		pct := 80
		deps := &mockDeps{
			result: model.Result{
				SessionID:       "abc-123",
				Task:            types.TaskOcular,
				Score:           74.3,
				SampleCount:     500,
				OnTargetPercent: &pct,
			},
		}
		mux := newTestServer(deps)

		Convey("When the session has finished", func() {
			req := httptest.NewRequest(http.MethodGet, "/sessions/abc-123/result", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the result record is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var res model.Result
				So(json.Unmarshal(rec.Body.Bytes(), &res), ShouldBeNil)
				So(res.Score, ShouldEqual, 74.3)
				So(res.OnTargetPercent, ShouldNotBeNil)
				So(*res.OnTargetPercent, ShouldEqual, 80)
			})
		})

		Convey("When the session is still running", func() {
			deps.resultErr = session.ErrNotFinished
			req := httptest.NewRequest(http.MethodGet, "/sessions/abc-123/result", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusConflict)
		})

		Convey("When the session does not exist", func() {
			deps.resultErr = service.ErrSessionNotFound
			req := httptest.NewRequest(http.MethodGet, "/sessions/ghost/result", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the store reports a missing result", func() {
			deps.resultErr = fmt.Errorf("loading result: %w", repository.ErrNotFound)
			req := httptest.NewRequest(http.MethodGet, "/sessions/ghost/result", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When an unrelated error merely mentions the words not found", func() {
			deps.resultErr = errors.New("upstream catalog not found")
			req := httptest.NewRequest(http.MethodGet, "/sessions/abc-123/result", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}

func TestGetRecentResults(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDeps{
			recent: []model.Result{
				{SessionID: "s-2", Task: types.TaskMotor, Score: 90},
				{SessionID: "s-1", Task: types.TaskOcular, Score: 70},
			},
		}
		mux := newTestServer(deps)

		Convey("When requesting recent results", func() {
			req := httptest.NewRequest(http.MethodGet, "/results?limit=2", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the list is returned newest first", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var results []model.Result
				So(json.Unmarshal(rec.Body.Bytes(), &results), ShouldBeNil)
				So(len(results), ShouldEqual, 2)
				So(results[0].SessionID, ShouldEqual, "s-2")
			})
		})

		Convey("When the limit is missing", func() {
			req := httptest.NewRequest(http.MethodGet, "/results", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the limit exceeds the cap", func() {
			req := httptest.NewRequest(http.MethodGet, "/results?limit=999", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestStatsEndpoint(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newTestServer(&mockDeps{})

		Convey("When requesting stats", func() {
			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the stats payload is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var stats map[string]interface{}
				So(json.Unmarshal(rec.Body.Bytes(), &stats), ShouldBeNil)
				So(stats["started"], ShouldEqual, true)
			})
		})
	})
}

func TestHealthEndpoint(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newTestServer(&mockDeps{})

		Convey("When scraping /healthz", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then process metrics are served", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "steadi")
			})
		})
	})
}
