package tools

import (
	"log/slog"

	"canvas-mcp-server/client"
	"canvas-mcp-server/resolver"
	"canvas-mcp-server/tools/assignments"
	"canvas-mcp-server/tools/content"
	"canvas-mcp-server/tools/courses"
	"canvas-mcp-server/tools/discussions"
	"canvas-mcp-server/tools/files"
	"canvas-mcp-server/tools/quizzes"
)

// Handler aggregates all tool handlers. All handlers share one course
// identifier resolver so a course code is looked up at most once per
// session.
type Handler struct {
	Courses     *courses.Handler
	Assignments *assignments.Handler
	Discussions *discussions.Handler
	Files       *files.Handler
	Content     *content.Handler
	Quizzes     *quizzes.Handler
	logger      *slog.Logger
}

// NewHandler creates a new aggregated tool handler
func NewHandler(canvasClient client.CanvasClient, logger *slog.Logger) *Handler {
	res := resolver.New(canvasClient, logger)

	return &Handler{
		Courses:     courses.NewHandler(canvasClient, res, logger),
		Assignments: assignments.NewHandler(canvasClient, res, logger),
		Discussions: discussions.NewHandler(canvasClient, res, logger),
		Files:       files.NewHandler(canvasClient, res, logger),
		Content:     content.NewHandler(canvasClient, res, logger),
		Quizzes:     quizzes.NewHandler(canvasClient, res, logger),
		logger:      logger,
	}
}
