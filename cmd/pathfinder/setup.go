package pathfinder

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/soundprediction/pathfinder/pkg/config"
	pathfinderLogger "github.com/soundprediction/pathfinder/pkg/logger"
	"github.com/soundprediction/pathfinder/pkg/telemetry"
	"github.com/spf13/viper"
)

// loadConfig decodes v and applies the adjustments flags imply.
func loadConfig(v *viper.Viper) (*config.Config, error) {
	cfg, err := config.LoadFrom(v)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	// --workers raises the core size; keep the pool able to grow past it.
	if cfg.Explore.MaxWorkers < cfg.Explore.CoreWorkers {
		cfg.Explore.MaxWorkers = cfg.Explore.CoreWorkers
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the command logger. When telemetry.parquet_path is set,
// warnings and errors are also recorded to parquet files there; the returned
// func flushes them.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, func(), error) {
	logger := pathfinderLogger.NewLoggerTo(w, cfg.Log)
	if cfg.Telemetry.ParquetPath == "" {
		return logger, func() {}, nil
	}

	handler, err := telemetry.NewParquetHandler(logger.Handler(), cfg.Telemetry.ParquetPath, &telemetry.ParquetOptions{
		MinLevel: slog.LevelWarn,
	})
	if err != nil {
		return nil, nil, err
	}
	logger = slog.New(handler)
	logger.Debug("error tracking enabled", "path", cfg.Telemetry.ParquetPath)

	return logger, func() {
		if err := handler.Close(); err != nil {
			fmt.Fprintf(w, "failed to flush telemetry: %v\n", err)
		}
	}, nil
}
