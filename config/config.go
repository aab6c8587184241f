package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

type Config struct {
	CanvasAPIURL    string        `long:"canvas-api-url" env:"CANVAS_API_URL" default:"https://canvas.instructure.com/api/v1" description:"Canvas REST API root URL"`
	CanvasAPIToken  string        `long:"canvas-api-token" env:"CANVAS_API_TOKEN" description:"Canvas API bearer token"`
	RequestTimeout  time.Duration `long:"request-timeout" env:"REQUEST_TIMEOUT" default:"30s" description:"HTTP request timeout"`
	DownloadTimeout time.Duration `long:"download-timeout" env:"DOWNLOAD_TIMEOUT" default:"120s" description:"File download timeout"`
	PageSize        int           `long:"page-size" env:"PAGE_SIZE" default:"100" description:"Results per page for paginated listings"`
	EnvFile         string        `long:"env-file" description:"Path to .env file for local development"`
	Debug           bool          `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

func Load() (*Config, error) {
	var cfg Config

	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	if cfg.EnvFile != "" {
		if err := godotenv.Load(cfg.EnvFile); err != nil {
			slog.Warn("Failed to load .env file", "file", cfg.EnvFile, "error", err)
		}
	} else {
		_ = godotenv.Load()
	}

	if _, err := parser.Parse(); err != nil {
		return nil, fmt.Errorf("failed to parse config after loading env: %w", err)
	}

	if cfg.CanvasAPIToken == "" {
		return nil, fmt.Errorf("canvas API token is required (set CANVAS_API_TOKEN or --canvas-api-token)")
	}

	return &cfg, nil
}
