package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/skillmatrix/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		// Isolate from any .env in the package directory.
		t.Chdir(t.TempDir())

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.RequestTimeoutMS, convey.ShouldEqual, 10_000)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("SKILLMATRIX_API_URL", "https://matrix.example.com/api")
			_ = os.Setenv("SKILLMATRIX_REQUEST_TIMEOUT_MS", "2500")
			_ = os.Setenv("SKILLMATRIX_ACTIVE_ONLY", "false")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.APIURL, convey.ShouldEqual, "https://matrix.example.com/api")
				convey.So(cfg.RequestTimeoutMS, convey.ShouldEqual, 2500)
				convey.So(cfg.ActiveOnly, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When loading config with a YAML file and env on top", func() {
			path := filepath.Join(t.TempDir(), "config.yaml")
			yamlContent := `
addr: ":7070"
api_url: "http://backend:8000/api"
log_format: json
rate_limit: "10-S"
`
			convey.So(os.WriteFile(path, []byte(yamlContent), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("SKILLMATRIX_CONFIG", path)
			_ = os.Setenv("SKILLMATRIX_ADDR", ":6060")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values apply and env wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.APIURL, convey.ShouldEqual, "http://backend:8000/api")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.RateLimit, convey.ShouldEqual, "10-S")
				convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
			})
		})

		convey.Convey("When a .env file is present", func() {
			convey.So(os.WriteFile(".env", []byte("SKILLMATRIX_DEFAULT_UPDATED_BY=dotenv_user\n"), 0o600), convey.ShouldBeNil)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then its variables are picked up", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.DefaultUpdatedBy, convey.ShouldEqual, "dotenv_user")
			})
		})

		convey.Convey("When env values are invalid but overridden before validation", func() {
			_ = os.Setenv("SKILLMATRIX_API_URL", "localhost")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then loading succeeds and the override validates", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.APIURL, convey.ShouldEqual, "localhost")
				cfg.APIURL = "https://matrix.example.com/api"
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When values are invalid", func() {
			defer clearConfigEnvVars()

			convey.Convey("Then a relative api_url is rejected", func() {
				_ = os.Setenv("SKILLMATRIX_API_URL", "/api")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})

			convey.Convey("Then a non-positive timeout is rejected", func() {
				_ = os.Setenv("SKILLMATRIX_REQUEST_TIMEOUT_MS", "0")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})

			convey.Convey("Then a malformed rate limit is rejected", func() {
				_ = os.Setenv("SKILLMATRIX_RATE_LIMIT", "lots")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("SKILLMATRIX_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, k := range []string{
		"SKILLMATRIX_CONFIG", "SKILLMATRIX_ADDR", "SKILLMATRIX_API_URL", "SKILLMATRIX_REQUEST_TIMEOUT_MS",
		"SKILLMATRIX_ACTIVE_ONLY", "SKILLMATRIX_RATE_LIMIT", "SKILLMATRIX_LOG_FORMAT", "SKILLMATRIX_LOG_LEVEL",
		"SKILLMATRIX_DEFAULT_UPDATED_BY", "SKILLMATRIX_SESSION_PATH",
	} {
		_ = os.Unsetenv(k)
	}
}
