package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/arenascope/podium/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func clearConfigEnvVars() {
	for _, key := range []string{
		"PODIUM_CONFIG",
		"PODIUM_ADDR",
		"PODIUM_LOG_LEVEL",
		"PODIUM_REDIS_ADDR",
		"PODIUM_POSTGRES_DSN",
		"PODIUM_POPULARITY_THRESHOLD",
		"PODIUM_MAX_IN_MEMORY_GAMES",
		"PODIUM_PERSIST_INTERVAL_MINUTES",
		"PODIUM_DEFAULT_LIMIT",
		"PODIUM_MAX_LIMIT",
		"PODIUM_AUTH_SECRET",
	} {
		_ = os.Unsetenv(key)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "podium.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.RedisAddr, convey.ShouldEqual, "localhost:6379")
				convey.So(cfg.PopularityThreshold, convey.ShouldEqual, 1000)
				convey.So(cfg.MaxInMemoryGames, convey.ShouldEqual, 1000)
				convey.So(cfg.PersistIntervalMinutes, convey.ShouldEqual, 60)
				convey.So(cfg.DefaultLimit, convey.ShouldEqual, 10)
				convey.So(cfg.MaxLimit, convey.ShouldEqual, 100)
				convey.So(cfg.PostgresDSN, convey.ShouldBeEmpty)
				convey.So(cfg.AuthSecret, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("PODIUM_ADDR", ":9090")
			_ = os.Setenv("PODIUM_POPULARITY_THRESHOLD", "50")
			_ = os.Setenv("PODIUM_PERSIST_INTERVAL_MINUTES", "5")
			_ = os.Setenv("PODIUM_AUTH_SECRET", "s3cret")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.PopularityThreshold, convey.ShouldEqual, 50)
				convey.So(cfg.PersistIntervalMinutes, convey.ShouldEqual, 5)
				convey.So(cfg.AuthSecret, convey.ShouldEqual, "s3cret")
				convey.So(cfg.MaxLimit, convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			yamlContent := `
addr: ":7070"
redis_addr: "redis:6379"
popularity_threshold: 250
max_in_memory_games: 64
`
			tmpFile := createTempConfigFile(t, yamlContent)

			_ = os.Setenv("PODIUM_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.RedisAddr, convey.ShouldEqual, "redis:6379")
				convey.So(cfg.PopularityThreshold, convey.ShouldEqual, 250)
				convey.So(cfg.MaxInMemoryGames, convey.ShouldEqual, 64)
			})
		})

		convey.Convey("When file and environment variables disagree", func() {
			tmpFile := createTempConfigFile(t, `addr: ":7070"`)
			_ = os.Setenv("PODIUM_CONFIG", tmpFile)
			_ = os.Setenv("PODIUM_ADDR", ":9090")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables win", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
			})
		})

		convey.Convey("When the configured values are invalid", func() {
			_ = os.Setenv("PODIUM_POPULARITY_THRESHOLD", "0")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails with the config kind", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When default_limit exceeds max_limit", func() {
			_ = os.Setenv("PODIUM_DEFAULT_LIMIT", "500")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("PODIUM_CONFIG", "/nonexistent/podium.yaml")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})
	})
}
