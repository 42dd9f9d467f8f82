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

	"github.com/okian/skillmatrix/internal/adapters/gateway"
	"github.com/okian/skillmatrix/internal/adapters/http/api"
	service "github.com/okian/skillmatrix/internal/app"
	"github.com/okian/skillmatrix/internal/domain/model"
	"github.com/okian/skillmatrix/internal/domain/progress"
	"github.com/okian/skillmatrix/internal/store/matrix"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/ulule/limiter/v3"
)

// mockDependencies implements api.Dependencies for testing.
type mockDependencies struct {
	state      matrix.State
	reloadErr  error
	scoreErr   error
	filters    *model.FilterOptions
	scores     []model.CreateScoreRequest
	analytics  model.AnalyticsData
	analytErr  error
	department string
}

func (m *mockDependencies) MatrixState() matrix.State { return m.state }

func (m *mockDependencies) Progress() []progress.Summary {
	return progress.New().SummarizeAll(m.state.Data)
}

func (m *mockDependencies) Reload(context.Context) error { return m.reloadErr }

func (m *mockDependencies) SetFilters(_ context.Context, f model.FilterOptions) error {
	m.filters = &f
	m.state.Filters = f
	return m.reloadErr
}

func (m *mockDependencies) UpdateScore(_ context.Context, e int64, c string, level int, notes string) (model.Score, error) {
	if m.scoreErr != nil {
		return model.Score{}, m.scoreErr
	}
	m.scores = append(m.scores, model.CreateScoreRequest{EmployeeID: e, ColumnID: c, Level: level, Notes: notes})
	return model.Score{ID: 9, EmployeeID: e, ColumnID: c, Level: level, Notes: notes}, nil
}

func (m *mockDependencies) Level(level int) model.LevelConfig {
	s := model.DefaultSettings()
	return model.LevelConfig{Level: level, Label: s.LevelLabel(level), Color: s.LevelColor(level)}
}

func (m *mockDependencies) Analytics(_ context.Context, department string) (model.AnalyticsData, error) {
	m.department = department
	return m.analytics, m.analytErr
}

type mockStatsProvider struct {
	stats map[string]any
}

func (m *mockStatsProvider) GetStats() map[string]any {
	return m.stats
}

func newMux(deps api.Dependencies, opts ...api.Option) *http.ServeMux {
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]any{"started": true}}, opts...)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func serve(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func loadedState() matrix.State {
	return matrix.State{
		Data: &model.MatrixData{
			Employees: []model.Employee{{ID: 42, Name: "Ada", Role: "Engineer"}},
			Columns:   []model.TrainingColumn{{ID: "python-basics", Title: "Python Basics", TargetLevel: 2}},
			Scores:    []model.MatrixCell{{EmployeeID: 42, ColumnID: "python-basics", Level: 2}},
		},
		Filters:   model.DefaultFilters(),
		Requested: 1,
		Settled:   1,
		Version:   3,
	}
}

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		deps := &mockDependencies{state: loadedState()}
		mux := newMux(deps)

		Convey("Then the health endpoint serves metrics", func() {
			w := serve(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "skillmatrix_")
		})

		Convey("And the stats endpoint serves service stats", func() {
			w := serve(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("And unknown paths are not found", func() {
			w := serve(mux, http.MethodGet, "/unknown", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("And wrong methods are rejected", func() {
			w := serve(mux, http.MethodDelete, "/matrix", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestMatrixHandler(t *testing.T) {
	Convey("Given a loaded matrix", t, func() {
		deps := &mockDependencies{state: loadedState()}
		mux := newMux(deps)

		Convey("When the matrix is requested", func() {
			w := serve(mux, http.MethodGet, "/matrix", "")

			Convey("Then the snapshot and progress are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body struct {
					Data     model.MatrixData `json:"data"`
					Version  uint64           `json:"version"`
					Progress []struct {
						EmployeeID int64  `json:"employee_id"`
						Percent    int    `json:"percent"`
						Band       string `json:"band"`
					} `json:"progress"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Data.Employees, ShouldHaveLength, 1)
				So(body.Version, ShouldEqual, 3)
				So(body.Progress, ShouldHaveLength, 1)
				So(body.Progress[0].Percent, ShouldEqual, 100)
				So(body.Progress[0].Band, ShouldEqual, "good")
			})
		})

		Convey("When the last load failed", func() {
			deps.state.Err = errors.New("backend down")
			w := serve(mux, http.MethodGet, "/matrix", "")

			Convey("Then the error is reported next to the kept data", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "backend down")
				So(w.Body.String(), ShouldContainSubstring, "python-basics")
			})
		})

		Convey("When filters are set", func() {
			w := serve(mux, http.MethodPut, "/matrix/filters", `{"department":"Sales","active_only":false}`)

			Convey("Then they reach the service", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.filters, ShouldNotBeNil)
				So(deps.filters.Department, ShouldEqual, "Sales")
				So(*deps.filters.ActiveOnly, ShouldBeFalse)
			})
		})

		Convey("When filters are malformed", func() {
			w := serve(mux, http.MethodPut, "/matrix/filters", `{"department":`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a reload hits an unreachable backend", func() {
			deps.reloadErr = &gateway.Error{Op: "matrix.get", Kind: gateway.KindNetwork, Err: errors.New("dial tcp: refused")}
			w := serve(mux, http.MethodPost, "/matrix/reload", "")

			Convey("Then it is a bad gateway", func() {
				So(w.Code, ShouldEqual, http.StatusBadGateway)
				So(w.Body.String(), ShouldContainSubstring, "upstream_error")
			})
		})
	})
}

func TestScoresHandler(t *testing.T) {
	Convey("Given the scores route", t, func() {
		deps := &mockDependencies{state: loadedState()}
		mux := newMux(deps)

		Convey("When a valid score is posted", func() {
			w := serve(mux, http.MethodPost, "/scores", `{"employee_id":42,"column_id":"python-basics","level":3,"notes":"ok"}`)

			Convey("Then it is forwarded to the service", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.scores, ShouldHaveLength, 1)
				So(deps.scores[0].Level, ShouldEqual, 3)
			})
		})

		Convey("When level zero is posted", func() {
			w := serve(mux, http.MethodPost, "/scores", `{"employee_id":42,"column_id":"python-basics","level":0}`)
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		for _, body := range []string{
			`{"column_id":"python-basics","level":1}`,
			`{"employee_id":42,"level":1}`,
			`{"employee_id":42,"column_id":"python-basics"}`,
			`{"employee_id":42,"column_id":"python-basics","level":-1}`,
			`not json`,
		} {
			Convey(fmt.Sprintf("When %s is posted", body), func() {
				w := serve(mux, http.MethodPost, "/scores", body)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(deps.scores, ShouldBeEmpty)
			})
		}

		Convey("When the user may not write", func() {
			deps.scoreErr = fmt.Errorf("%w: update score requires %q", service.ErrForbidden, "write")
			w := serve(mux, http.MethodPost, "/scores", `{"employee_id":42,"column_id":"python-basics","level":1}`)
			So(w.Code, ShouldEqual, http.StatusForbidden)
		})

		Convey("When the level exceeds the configuration", func() {
			deps.scoreErr = fmt.Errorf("%w: level 9 exceeds the highest configured level 2", model.ErrValidation)
			w := serve(mux, http.MethodPost, "/scores", `{"employee_id":42,"column_id":"python-basics","level":9}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the backend does not know the employee", func() {
			deps.scoreErr = &gateway.Error{Op: "scores.upsert", Kind: gateway.KindServer, Status: http.StatusNotFound, Message: "Employee not found"}
			w := serve(mux, http.MethodPost, "/scores", `{"employee_id":41,"column_id":"python-basics","level":1}`)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestLevelsHandler(t *testing.T) {
	Convey("Given the levels route", t, func() {
		mux := newMux(&mockDependencies{})

		Convey("When a configured level is requested", func() {
			w := serve(mux, http.MethodGet, "/levels/1", "")
			var cfg model.LevelConfig
			So(json.Unmarshal(w.Body.Bytes(), &cfg), ShouldBeNil)
			So(cfg.Label, ShouldEqual, "In Progress")
			So(cfg.Color, ShouldEqual, "#f59e0b")
		})

		Convey("When an unconfigured level is requested", func() {
			w := serve(mux, http.MethodGet, "/levels/5", "")
			var cfg model.LevelConfig
			So(json.Unmarshal(w.Body.Bytes(), &cfg), ShouldBeNil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(cfg.Label, ShouldEqual, "Level 5")
			So(cfg.Color, ShouldEqual, model.FallbackLevelColor)
		})

		Convey("When the level is not a number", func() {
			w := serve(mux, http.MethodGet, "/levels/expert", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestAnalyticsHandler(t *testing.T) {
	Convey("Given the analytics route", t, func() {
		deps := &mockDependencies{analytics: model.AnalyticsData{TotalEmployees: 3}}
		mux := newMux(deps)

		Convey("When analytics for a department are requested", func() {
			w := serve(mux, http.MethodGet, "/analytics?department=Sales", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.department, ShouldEqual, "Sales")
		})

		Convey("When the backend payload is incomplete", func() {
			deps.analytErr = fmt.Errorf("matrix.analytics: %w", model.ErrIncompleteAnalytics)
			w := serve(mux, http.MethodGet, "/analytics", "")
			So(w.Code, ShouldEqual, http.StatusBadGateway)
		})
	})
}

func TestRateLimit(t *testing.T) {
	Convey("Given a server limited to two requests per minute", t, func() {
		mux := newMux(&mockDependencies{state: loadedState()}, api.WithRate(limiter.Rate{Limit: 2, Period: time.Minute}))

		Convey("Then the third request is rejected", func() {
			So(serve(mux, http.MethodGet, "/matrix", "").Code, ShouldEqual, http.StatusOK)
			So(serve(mux, http.MethodGet, "/matrix", "").Code, ShouldEqual, http.StatusOK)
			w := serve(mux, http.MethodGet, "/matrix", "")
			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			So(w.Body.String(), ShouldContainSubstring, "rate_limited")
		})
	})

	Convey("Given formatted rates", t, func() {
		_, err := api.ParseRate("10-S")
		So(err, ShouldBeNil)
		_, err = api.ParseRate("ten per second")
		So(errors.Is(err, api.ErrInvalidRate), ShouldBeTrue)
	})
}
