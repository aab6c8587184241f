package assignments

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"canvas-mcp-server/client"
	"canvas-mcp-server/format"
	"canvas-mcp-server/record"
	"canvas-mcp-server/resolver"
)

// Handler handles assignment operations
type Handler struct {
	client   client.CanvasClient
	resolver *resolver.Resolver
	logger   *slog.Logger
}

// NewHandler creates a new assignment handler
func NewHandler(canvasClient client.CanvasClient, res *resolver.Resolver, logger *slog.Logger) *Handler {
	return &Handler{
		client:   canvasClient,
		resolver: res,
		logger:   logger,
	}
}

// ListAssignmentsArgs represents arguments for list_assignments
type ListAssignmentsArgs struct {
	CourseIdentifier string `json:"course_identifier" description:"Course code or Canvas ID"`
}

// GetAssignmentDetailsArgs represents arguments for get_assignment_details
type GetAssignmentDetailsArgs struct {
	CourseIdentifier string `json:"course_identifier" description:"Course code or Canvas ID"`
	AssignmentID     string `json:"assignment_id" description:"The assignment ID"`
}

// ListAssignments lists assignments in a course with submission status
func (h *Handler) ListAssignments(ctx context.Context, args ListAssignmentsArgs) (string, error) {
	courseID, err := h.resolver.Resolve(ctx, args.CourseIdentifier)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Add("include[]", "submission")
	params.Set("order_by", "due_at")

	assignments, err := h.client.GetAllPages(ctx, fmt.Sprintf("/courses/%d/assignments", courseID), params)
	if err != nil {
		return "", fmt.Errorf("fetching assignments: %w", err)
	}

	if len(assignments) == 0 {
		return "No assignments found.", nil
	}

	var info []string
	for _, a := range assignments {
		name := record.StringOr(a, "name", "Unnamed")
		id := record.Int(a, "id")
		dueAt := format.Date(record.String(a, "due_at"))
		points := record.Float(a, "points_possible")

		info = append(info, fmt.Sprintf(
			"• %s\n  ID: %d | Due: %s | Points: %g\n  Status: %s",
			name, id, dueAt, points, submissionStatus(a, points)))
	}

	display := h.resolver.DisplayName(courseID, args.CourseIdentifier)
	return fmt.Sprintf("Assignments in %s:\n\n", display) + strings.Join(info, "\n\n"), nil
}

// GetAssignmentDetails shows details about a specific assignment
func (h *Handler) GetAssignmentDetails(ctx context.Context, args GetAssignmentDetailsArgs) (string, error) {
	courseID, err := h.resolver.Resolve(ctx, args.CourseIdentifier)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Add("include[]", "submission")

	result, err := h.client.Get(ctx,
		fmt.Sprintf("/courses/%d/assignments/%s", courseID, url.PathEscape(args.AssignmentID)), params)
	if err != nil {
		return "", fmt.Errorf("fetching assignment: %w", err)
	}

	a, ok := result.(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("unexpected assignment response shape")
	}

	name := record.StringOr(a, "name", "Unnamed")
	description := format.StripHTML(record.String(a, "description"))
	dueAt := format.Date(record.String(a, "due_at"))
	points := record.Float(a, "points_possible")
	submissionTypes := record.Strings(a, "submission_types")
	if len(submissionTypes) == 0 {
		submissionTypes = []string{"none"}
	}
	locked := record.Bool(a, "locked_for_user")

	if description != "" {
		description = format.Truncate(description, 500)
	}

	display := h.resolver.DisplayName(courseID, args.CourseIdentifier)

	var b strings.Builder
	fmt.Fprintf(&b, "Assignment: %s\n", name)
	fmt.Fprintf(&b, "Course: %s\n", display)
	fmt.Fprintf(&b, "ID: %s\n", args.AssignmentID)
	fmt.Fprintf(&b, "Due: %s\n", dueAt)
	fmt.Fprintf(&b, "Points: %g\n", points)
	fmt.Fprintf(&b, "Submission Types: %s\n", strings.Join(submissionTypes, ", "))
	fmt.Fprintf(&b, "Your Status: %s\n", detailStatus(a, points))

	if locked {
		b.WriteString("Note: This assignment is currently locked.\n")
	}
	if description != "" {
		fmt.Fprintf(&b, "\nDescription:\n%s", description)
	}

	return b.String(), nil
}

func submissionStatus(assignment map[string]interface{}, points float64) string {
	submission := record.Map(assignment, "submission")
	if submission == nil {
		return "Not submitted"
	}
	if record.Has(submission, "score") {
		return fmt.Sprintf("Graded: %g/%g", record.Float(submission, "score"), points)
	}
	if record.Has(submission, "submitted_at") {
		return "Submitted"
	}
	return "Not submitted"
}

func detailStatus(assignment map[string]interface{}, points float64) string {
	submission := record.Map(assignment, "submission")
	if submission == nil {
		return "Not submitted"
	}
	if record.Has(submission, "score") {
		return fmt.Sprintf("Graded: %g/%g", record.Float(submission, "score"), points)
	}
	if record.Has(submission, "submitted_at") {
		return "Submitted on " + format.Date(record.String(submission, "submitted_at"))
	}
	return "Not submitted"
}
