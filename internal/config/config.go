// Package config loads the service's environment-variable configuration
// surface (spec §6): engine pool sizing, search limits, and the
// time-equity/labeler model constants.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/eloinsight/tempolens/internal/engine"
	"github.com/eloinsight/tempolens/internal/labeler"
	"github.com/eloinsight/tempolens/internal/model"
	"github.com/eloinsight/tempolens/internal/pipeline"
	"github.com/eloinsight/tempolens/internal/timeequity"
)

// Config holds all service configuration.
type Config struct {
	Engine EngineConfig

	WorkerPoolSize int

	Depth      int
	MovetimeMs int

	FallbackTimeControlBaseSecs uint32
	FallbackTimeControlIncrSecs uint32

	TimeEquity timeequity.Config
	Label      labeler.Config

	AnalysisTimeout time.Duration

	LogLevel  string
	LogFormat string
}

// EngineConfig holds the UCI engine binary's startup settings.
type EngineConfig struct {
	BinaryPath string
	Threads    int
	HashMB     int
	MultiPV    int
}

// Load reads configuration from the environment, loading a ".env" file
// first if one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		Engine: EngineConfig{
			BinaryPath: getEnv("ENGINE_BINARY_PATH", "/usr/local/bin/stockfish"),
			Threads:    getEnvInt("ENGINE_THREADS", 4),
			HashMB:     getEnvInt("ENGINE_HASH_MB", 2048),
			MultiPV:    getEnvInt("ENGINE_MULTI_PV", 3),
		},

		WorkerPoolSize: getEnvInt("WORKER_POOL_SIZE", 4),

		Depth:      getEnvInt("SEARCH_DEPTH", 18),
		MovetimeMs: getEnvInt("SEARCH_MOVETIME_MS", 0),

		FallbackTimeControlBaseSecs: uint32(getEnvInt("FALLBACK_TIME_CONTROL_BASE_SECS", 600)),
		FallbackTimeControlIncrSecs: uint32(getEnvInt("FALLBACK_TIME_CONTROL_INCREMENT_SECS", 0)),

		TimeEquity: timeequity.Config{
			Alpha:             getEnvFloat("TIME_EQUITY_ALPHA", 200.0),
			Beta:              getEnvFloat("TIME_EQUITY_BETA", 30.0),
			PressurePivotSecs: getEnvFloat("TIME_EQUITY_PRESSURE_PIVOT_SECS", 30.0),
			PressureScaleSecs: getEnvFloat("TIME_EQUITY_PRESSURE_SCALE_SECS", 10.0),
			PressureBoost:     getEnvFloat("TIME_EQUITY_PRESSURE_BOOST", 1.5),
			KSigmoid:          getEnvFloat("TIME_EQUITY_K_SIGMOID", 0.0038),
		},

		Label: labeler.Config{
			OverthinkRatio:      getEnvFloat("LABEL_OVERTHINK_RATIO", 0.25),
			UnderthinkRatio:     getEnvFloat("LABEL_UNDERTHINK_RATIO", 0.03),
			MinSnapSecs:         getEnvFloat("LABEL_MIN_SNAP_SECS", 1.0),
			TimeTroubleSecs:     getEnvFloat("LABEL_TIME_TROUBLE_SECS", 10.0),
			PanicSecs:           getEnvFloat("LABEL_PANIC_SECS", 5.0),
			MaxSimpleComplexity: getEnvInt("LABEL_MAX_SIMPLE_COMPLEXITY", 40),
			CriticalComplexity:  getEnvInt("LABEL_CRITICAL_COMPLEXITY", 120),
			BigPunishCP:         getEnvInt("LABEL_BIG_PUNISH_CP", 150),
			SnapPunishCP:        getEnvInt("LABEL_SNAP_PUNISH_CP", 250),
			TimeBlunderDropP:    getEnvFloat("LABEL_TIME_BLUNDER_DROP_P", -0.10),
		},

		AnalysisTimeout: time.Duration(getEnvInt("ANALYSIS_TIMEOUT_SECONDS", 60)) * time.Second,

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}, nil
}

// EngineConfigFor converts to the engine package's own Config type.
func (c *Config) EngineConfigFor() engine.Config {
	return engine.Config{
		BinaryPath: c.Engine.BinaryPath,
		Threads:    c.Engine.Threads,
		HashMB:     c.Engine.HashMB,
		MultiPV:    c.Engine.MultiPV,
	}
}

// PipelineConfigFor converts to the pipeline package's own Config type.
func (c *Config) PipelineConfigFor() pipeline.Config {
	return pipeline.Config{
		Depth:      c.Depth,
		MovetimeMs: c.MovetimeMs,
		FallbackTimeControl: model.TimeControl{
			BaseSecs:      c.FallbackTimeControlBaseSecs,
			IncrementSecs: c.FallbackTimeControlIncrSecs,
		},
		TimeEquity: c.TimeEquity,
		Label:      c.Label,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
