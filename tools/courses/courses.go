package courses

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"canvas-mcp-server/client"
	"canvas-mcp-server/format"
	"canvas-mcp-server/record"
	"canvas-mcp-server/resolver"
)

// Handler handles course listing and detail operations
type Handler struct {
	client   client.CanvasClient
	resolver *resolver.Resolver
	logger   *slog.Logger
}

// NewHandler creates a new course handler
func NewHandler(canvasClient client.CanvasClient, res *resolver.Resolver, logger *slog.Logger) *Handler {
	return &Handler{
		client:   canvasClient,
		resolver: res,
		logger:   logger,
	}
}

// GetCourseDetailsArgs represents arguments for get_course_details
type GetCourseDetailsArgs struct {
	CourseIdentifier string `json:"course_identifier" description:"Course code or Canvas ID"`
}

// ListCourses lists the caller's active courses
func (h *Handler) ListCourses(ctx context.Context) (string, error) {
	params := url.Values{}
	params.Set("enrollment_state", "active")
	params.Add("include[]", "term")

	courses, err := h.client.GetAllPages(ctx, "/courses", params)
	if err != nil {
		return "", fmt.Errorf("fetching courses: %w", err)
	}

	if len(courses) == 0 {
		return "No courses found.", nil
	}

	var info []string
	for _, course := range courses {
		id := record.Int(course, "id")
		name := record.StringOr(course, "name", "Unnamed")
		code := record.String(course, "course_code")

		line := fmt.Sprintf("• %s\n  Code: %s | ID: %d", name, code, id)
		if term := record.Map(course, "term"); term != nil {
			if termName := record.String(term, "name"); termName != "" {
				line += " | Term: " + termName
			}
		}
		info = append(info, line)
	}

	return fmt.Sprintf("Your Courses (%d):\n\n", len(courses)) + strings.Join(info, "\n\n"), nil
}

// GetCourseDetails shows details about a single course
func (h *Handler) GetCourseDetails(ctx context.Context, args GetCourseDetailsArgs) (string, error) {
	courseID, err := h.resolver.Resolve(ctx, args.CourseIdentifier)
	if err != nil {
		return "", err
	}

	result, err := h.client.Get(ctx, "/courses/"+strconv.FormatInt(courseID, 10), nil)
	if err != nil {
		return "", fmt.Errorf("fetching course: %w", err)
	}

	course, ok := result.(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("unexpected course response shape")
	}

	name := record.StringOr(course, "name", "Unnamed")
	code := record.String(course, "course_code")
	startAt := format.Date(record.String(course, "start_at"))
	endAt := format.Date(record.String(course, "end_at"))
	state := record.StringOr(course, "workflow_state", "unknown")
	defaultView := record.String(course, "default_view")

	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s\n", name)
	fmt.Fprintf(&b, "Code: %s\n", code)
	fmt.Fprintf(&b, "ID: %d\n", courseID)
	fmt.Fprintf(&b, "Start: %s\n", startAt)
	fmt.Fprintf(&b, "End: %s\n", endAt)
	fmt.Fprintf(&b, "State: %s\n", state)
	if defaultView != "" {
		fmt.Fprintf(&b, "Home Page: %s\n", defaultView)
	}

	return b.String(), nil
}
