package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eloinsight/tempolens/internal/config"
	"github.com/eloinsight/tempolens/internal/pipeline"
	"github.com/eloinsight/tempolens/internal/pool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	defer logger.Sync()

	logger.Info("starting tempolens analysis run",
		zap.Int("workers", cfg.WorkerPoolSize),
		zap.Int("depth", cfg.Depth))

	enginePool, err := pool.New(cfg.WorkerPoolSize, cfg.EngineConfigFor(), logger)
	if err != nil {
		logger.Fatal("failed to create engine pool", zap.Error(err))
	}
	defer enginePool.Close()

	pipe := pipeline.New(enginePool, logger, cfg.PipelineConfigFor())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.AnalysisTimeout)
	defer cancel()

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgn, err := readPGNInput()
	if err != nil {
		logger.Fatal("failed to read PGN input", zap.Error(err))
	}

	analysis, err := pipe.AnalyzeGame(sigCtx, pgn, func(plyIndex, totalPlies int) {
		logger.Debug("ply analyzed", zap.Int("ply", plyIndex), zap.Int("total", totalPlies))
	})
	if err != nil {
		logger.Error("analysis failed", zap.Error(err))
		enginePool.Close()
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(analysis); err != nil {
		logger.Fatal("failed to encode analysis", zap.Error(err))
	}
}

// readPGNInput reads PGN text from the path given as argv[1], or from
// stdin if no path was given.
func readPGNInput() (string, error) {
	if len(os.Args) > 1 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			return "", fmt.Errorf("failed to read %q: %w", os.Args[1], err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

func setupLogger(level, format string) *zap.Logger {
	var logLevel zapcore.Level
	switch level {
	case "debug":
		logLevel = zapcore.DebugLevel
	case "info":
		logLevel = zapcore.InfoLevel
	case "warn":
		logLevel = zapcore.WarnLevel
	case "error":
		logLevel = zapcore.ErrorLevel
	default:
		logLevel = zapcore.InfoLevel
	}

	var zcfg zap.Config
	if format == "json" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zcfg.Level = zap.NewAtomicLevelAt(logLevel)

	logger, err := zcfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
