package config_test

import (
	"context"
	"os"
	"testing"

	"github.com/smartystreets/goconvey/convey"
	"github.com/steadilab/steadi/internal/config"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			// Clear any existing environment variables
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.ShardCount, convey.ShouldEqual, 8)
				convey.So(cfg.TaskDurationSec, convey.ShouldEqual, 30)
				convey.So(cfg.CountdownSec, convey.ShouldEqual, 3)
				convey.So(cfg.TargetIntervalMS, convey.ShouldEqual, 2000)
				convey.So(cfg.MotorVarianceScale, convey.ShouldEqual, 80_000)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("STEADI_ADDR", ":8080")
			_ = os.Setenv("STEADI_SHARD_COUNT", "16")
			_ = os.Setenv("STEADI_TASK_DURATION_SEC", "45")
			_ = os.Setenv("STEADI_COUNTDOWN_SEC", "0")
			_ = os.Setenv("STEADI_TARGET_INTERVAL_MS", "1500")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.ShardCount, convey.ShouldEqual, 16)
				convey.So(cfg.TaskDurationSec, convey.ShouldEqual, 45)
				convey.So(cfg.CountdownSec, convey.ShouldEqual, 0)
				convey.So(cfg.TargetIntervalMS, convey.ShouldEqual, 1500)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
shard_count: 4
task_duration_sec: 60
on_target_radius: 0.2
ocular_sigmoid_k: 160
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("STEADI_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.ShardCount, convey.ShouldEqual, 4)
				convey.So(cfg.TaskDurationSec, convey.ShouldEqual, 60)
				convey.So(cfg.OnTargetRadius, convey.ShouldEqual, 0.2)
				convey.So(cfg.OcularSigmoidK, convey.ShouldEqual, 160)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
shard_count: 4
task_duration_sec: 60
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("STEADI_CONFIG", tmpFile)
			_ = os.Setenv("STEADI_ADDR", ":8080")     // This should override the file
			_ = os.Setenv("STEADI_SHARD_COUNT", "32") // This should override the file
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")       // Overridden by env
				convey.So(cfg.ShardCount, convey.ShouldEqual, 32)      // Overridden by env
				convey.So(cfg.TaskDurationSec, convey.ShouldEqual, 60) // From file
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			invalidYaml := `invalid: yaml: content: [`
			tmpFile := createTempConfigFile(invalidYaml)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("STEADI_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("STEADI_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("STEADI_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with partial YAML file", func() {
			yamlContent := `
addr: ":9090"
countdown_sec: 5
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("STEADI_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should merge with defaults for missing fields", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")              // From file
				convey.So(cfg.CountdownSec, convey.ShouldEqual, 5)            // From file
				convey.So(cfg.ShardCount, convey.ShouldEqual, 8)              // From defaults
				convey.So(cfg.TaskDurationSec, convey.ShouldEqual, 30)        // From defaults
				convey.So(cfg.MotorVarianceScale, convey.ShouldEqual, 80_000) // From defaults
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("STEADI_SHARD_COUNT", "invalid")
			_ = os.Setenv("STEADI_TASK_DURATION_SEC", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigLoaderEdgeCases(t *testing.T) {
	convey.Convey("Given config loader edge cases", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with out-of-range engine tunables", func() {
			_ = os.Setenv("STEADI_ON_TARGET_RADIUS", "0.9")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should reject the radius", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "on_target_radius")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a zero task duration", func() {
			_ = os.Setenv("STEADI_TASK_DURATION_SEC", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should reject the duration", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "task_duration_sec")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a negative shard count", func() {
			_ = os.Setenv("STEADI_SHARD_COUNT", "-4")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should reject the shard count", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "shard_count")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with special characters in addr", func() {
			_ = os.Setenv("STEADI_ADDR", "localhost:8080")
			_ = os.Setenv("STEADI_ADDR", "0.0.0.0:9090")
			_ = os.Setenv("STEADI_ADDR", "[::1]:8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should handle various addr formats", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, "[::1]:8080") // Last one wins
			})
		})

		convey.Convey("When loading config with YAML file containing comments", func() {
			yamlContent := `
# This is a comment
addr: ":9090"  # Inline comment
shard_count: 4
# Another comment
countdown_sec: 2
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("STEADI_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should parse YAML with comments", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.ShardCount, convey.ShouldEqual, 4)
				convey.So(cfg.CountdownSec, convey.ShouldEqual, 2)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"STEADI_CONFIG",
		"STEADI_ADDR",
		"STEADI_SHARD_COUNT",
		"STEADI_MAX_RECENT_LIMIT",
		"STEADI_TASK_DURATION_SEC",
		"STEADI_COUNTDOWN_SEC",
		"STEADI_TARGET_INTERVAL_MS",
		"STEADI_ON_TARGET_RADIUS",
		"STEADI_MOTOR_VARIANCE_SCALE",
		"STEADI_OCULAR_SIGMOID_K",
		"STEADI_OCULAR_SIGMOID_MIDPOINT",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "steadi-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
