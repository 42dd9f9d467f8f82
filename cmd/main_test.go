package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	app "github.com/okian/skillmatrix/internal/app"
	"github.com/okian/skillmatrix/internal/config"
	"github.com/okian/skillmatrix/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

// fakeAPI serves the subset of the backend the CLI commands touch.
type fakeAPI struct {
	mu      sync.Mutex
	upserts []model.CreateScoreRequest
	tokens  []string
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	reply := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("GET /settings/", func(w http.ResponseWriter, _ *http.Request) {
		s := model.DefaultSettings()
		s.Levels = append(s.Levels, model.LevelConfig{Level: 3, Label: "Expert", Color: "#3b82f6"})
		reply(w, http.StatusOK, s)
	})
	mux.HandleFunc("GET /matrix/", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, model.MatrixData{
			Employees: []model.Employee{{ID: 42, Name: "Ada", Role: "Engineer", Department: r.URL.Query().Get("department"), IsActive: true}},
			Columns:   []model.TrainingColumn{{ID: "python-basics", Title: "Python Basics", TargetLevel: 2}},
			Scores:    []model.MatrixCell{{EmployeeID: 42, ColumnID: "python-basics", Level: 1}},
			Settings:  model.DefaultSettings(),
		})
	})
	mux.HandleFunc("POST /scores/", func(w http.ResponseWriter, r *http.Request) {
		var req model.CreateScoreRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.upserts = append(f.upserts, req)
		f.tokens = append(f.tokens, r.Header.Get("Authorization"))
		f.mu.Unlock()
		reply(w, http.StatusOK, model.Score{ID: 1, EmployeeID: req.EmployeeID, ColumnID: req.ColumnID, Level: req.Level, UpdatedBy: req.UpdatedBy})
	})
	mux.HandleFunc("GET /matrix/export/csv", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("Employee,Python Basics\nAda,1\n"))
	})
	return mux
}

type cliHarness struct {
	api     *fakeAPI
	url     string
	session string
}

func (h *cliHarness) run(args ...string) (string, error) {
	var out, errOut bytes.Buffer
	e := &env{out: &out, errOut: &errOut}
	full := append([]string{"skillmatrix", "--api-url", h.url, "--session", h.session, "--log-level", "error"}, args...)
	err := newRootCommand(e).Run(context.Background(), full)
	return out.String(), err
}

func newHarness(t *testing.T) (*cliHarness, func()) {
	t.Chdir(t.TempDir())
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler())
	h := &cliHarness{api: api, url: srv.URL, session: filepath.Join(t.TempDir(), "session.json")}
	return h, srv.Close
}

func TestCLISession(t *testing.T) {
	convey.Convey("Given the CLI against a fake backend", t, func() {
		h, done := newHarness(t)
		defer done()

		convey.Convey("When nobody has logged in", func() {
			out, err := h.run("whoami")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "not signed in")
		})

		convey.Convey("When a manager logs in", func() {
			out, err := h.run("login", "--username", "morgan", "--role", "Manager", "--token", "opaque-token")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "logged in as morgan (manager)")

			convey.Convey("Then whoami reports the role and permissions", func() {
				out, err := h.run("whoami")
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "morgan")
				convey.So(out, convey.ShouldContainSubstring, "read,write,manage_team")
			})

			convey.Convey("Then score updates carry the token and the username", func() {
				out, err := h.run("score", "set", "--employee", "42", "--column", "python-basics", "--level", "3")
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "3 (Expert)")
				convey.So(h.api.upserts, convey.ShouldHaveLength, 1)
				convey.So(h.api.upserts[0].UpdatedBy, convey.ShouldEqual, "morgan")
				convey.So(h.api.tokens[0], convey.ShouldEqual, "Bearer opaque-token")
			})

			convey.Convey("Then a level above the configured levels is rejected", func() {
				_, err := h.run("score", "set", "--employee", "42", "--column", "python-basics", "--level", "7")
				convey.So(errors.Is(err, model.ErrValidation), convey.ShouldBeTrue)
				convey.So(h.api.upserts, convey.ShouldBeEmpty)
			})

			convey.Convey("Then logout forgets the session", func() {
				_, err := h.run("logout")
				convey.So(err, convey.ShouldBeNil)
				_, statErr := os.Stat(h.session)
				convey.So(os.IsNotExist(statErr), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When an employee tries to set a score", func() {
			_, err := h.run("login", "--username", "sam", "--role", "employee")
			convey.So(err, convey.ShouldBeNil)
			_, err = h.run("score", "set", "--employee", "42", "--column", "python-basics", "--level", "1")
			convey.So(errors.Is(err, app.ErrForbidden), convey.ShouldBeTrue)
		})

		convey.Convey("When the role is unknown", func() {
			_, err := h.run("login", "--username", "sam", "--role", "owner")
			convey.So(errors.Is(err, model.ErrUnknownRole), convey.ShouldBeTrue)
		})
	})
}

func TestCLIReads(t *testing.T) {
	convey.Convey("Given the CLI against a fake backend", t, func() {
		h, done := newHarness(t)
		defer done()

		convey.Convey("When the matrix is shown for a department", func() {
			out, err := h.run("matrix", "--department", "Engineering")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "python-basics")
			convey.So(out, convey.ShouldContainSubstring, "Ada")
			convey.So(out, convey.ShouldContainSubstring, "Engineering")
			convey.So(out, convey.ShouldContainSubstring, "In Progress")
			convey.So(out, convey.ShouldContainSubstring, "50%")
		})

		convey.Convey("When the matrix is requested as JSON", func() {
			out, err := h.run("matrix", "--json")
			convey.So(err, convey.ShouldBeNil)
			var data model.MatrixData
			convey.So(json.Unmarshal([]byte(out), &data), convey.ShouldBeNil)
			convey.So(data.Scores, convey.ShouldHaveLength, 1)
		})

		convey.Convey("When levels are listed", func() {
			out, err := h.run("levels")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "Expert")
			convey.So(out, convey.ShouldContainSubstring, "#10b981")
		})

		convey.Convey("When the matrix is exported as CSV to a file", func() {
			path := filepath.Join(t.TempDir(), "matrix.csv")
			out, err := h.run("export", "--format", "csv", "--out", path)
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "wrote")
			b, err := os.ReadFile(path)
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(b), convey.ShouldStartWith, "Employee,Python Basics")
		})

		convey.Convey("When the export format is unknown", func() {
			_, err := h.run("export", "--format", "xml")
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When the API URL is not absolute", func() {
			var out bytes.Buffer
			e := &env{out: &out, errOut: &out}
			err := newRootCommand(e).Run(context.Background(), []string{"skillmatrix", "--api-url", "localhost", "whoami"})
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the environment API URL is invalid but the flag is valid", func() {
			t.Setenv("SKILLMATRIX_API_URL", "localhost")
			out, err := h.run("levels")

			convey.Convey("Then the flag wins and the command succeeds", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "Expert")
			})
		})
	})
}

func TestHTTPServer(t *testing.T) {
	convey.Convey("Given a service for the local API", t, func() {
		h, done := newHarness(t)
		defer done()
		_, err := h.run("whoami")
		convey.So(err, convey.ShouldBeNil)

		e := &env{out: &bytes.Buffer{}, errOut: &bytes.Buffer{}, cfg: config.New(context.Background())}
		e.cfg.APIURL = h.url
		e.cfg.SessionPath = h.session
		svc, err := e.newService(context.Background(), true)
		convey.So(err, convey.ShouldBeNil)
		defer svc.Stop()

		convey.Convey("When the rate limit is malformed", func() {
			_, err := newHTTPServer(context.Background(), ":0", "lots", svc)
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When the server is built", func() {
			srv, err := newHTTPServer(context.Background(), "127.0.0.1:0", "120-M", svc)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then it serves the matrix loaded at start", func() {
				rec := httptest.NewRecorder()
				srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/matrix", nil))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(rec.Body.String(), convey.ShouldContainSubstring, "python-basics")
			})

			convey.Convey("Then it stops when the context is cancelled", func() {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				convey.So(runHTTPServer(ctx, srv), convey.ShouldBeNil)
			})
		})
	})
}
