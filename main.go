package main

import (
	"log/slog"
	"os"

	"canvas-mcp-server/client"
	"canvas-mcp-server/config"
	"canvas-mcp-server/server"
	"canvas-mcp-server/tools"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	canvasClient := client.New(cfg, logger)
	toolHandler := tools.NewHandler(canvasClient, logger)

	mcpServer := server.New(toolHandler, logger)

	if err := mcpServer.Run(); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
