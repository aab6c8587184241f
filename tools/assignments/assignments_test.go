package assignments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canvas-mcp-server/client"
	"canvas-mcp-server/resolver"
	"canvas-mcp-server/testutils"
)

func newTestHandler(t *testing.T, fake *testutils.FakeCanvas) *Handler {
	canvasClient := client.New(testutils.Config(fake.URL()), testutils.Logger())
	res := resolver.New(canvasClient, testutils.Logger())
	return NewHandler(canvasClient, res, testutils.Logger())
}

func TestListAssignments(t *testing.T) {
	fake := testutils.NewFakeCanvas(t)
	fake.PaginateJSON("/courses/1/assignments", [][]map[string]interface{}{{
		{
			"id":              401.0,
			"name":            "Homework 1",
			"due_at":          "2024-09-20T23:59:00Z",
			"points_possible": 10.0,
			"submission": map[string]interface{}{
				"submitted_at": "2024-09-19T10:00:00Z",
				"score":        9.5,
			},
		},
		{
			"id":              402.0,
			"name":            "Homework 2",
			"points_possible": 20.0,
			"submission": map[string]interface{}{
				"submitted_at": "2024-09-25T10:00:00Z",
			},
		},
		{
			"id":              403.0,
			"name":            "Homework 3",
			"points_possible": 20.0,
		},
	}})

	h := newTestHandler(t, fake)
	result, err := h.ListAssignments(context.Background(), ListAssignmentsArgs{CourseIdentifier: "1"})

	require.NoError(t, err)
	assert.Contains(t, result, "Assignments in 1:")
	assert.Contains(t, result, "• Homework 1\n  ID: 401 | Due: 2024-09-20 23:59 | Points: 10\n  Status: Graded: 9.5/10")
	assert.Contains(t, result, "• Homework 2\n  ID: 402 | Due: N/A | Points: 20\n  Status: Submitted")
	assert.Contains(t, result, "• Homework 3\n  ID: 403 | Due: N/A | Points: 20\n  Status: Not submitted")
}

func TestListAssignments_Empty(t *testing.T) {
	fake := testutils.NewFakeCanvas(t)
	fake.PaginateJSON("/courses/1/assignments", [][]map[string]interface{}{{}})

	h := newTestHandler(t, fake)
	result, err := h.ListAssignments(context.Background(), ListAssignmentsArgs{CourseIdentifier: "1"})

	require.NoError(t, err)
	assert.Equal(t, "No assignments found.", result)
}

func TestListAssignments_UsesCachedCourseCode(t *testing.T) {
	fake := testutils.NewFakeCanvas(t)
	fake.PaginateJSON("/courses", [][]map[string]interface{}{{
		{"id": 1.0, "course_code": "CS_101_Fall2024"},
	}})
	fake.PaginateJSON("/courses/1/assignments", [][]map[string]interface{}{{
		{"id": 401.0, "name": "Homework 1"},
	}})

	h := newTestHandler(t, fake)
	result, err := h.ListAssignments(context.Background(), ListAssignmentsArgs{CourseIdentifier: "CS_101_Fall2024"})

	require.NoError(t, err)
	assert.Contains(t, result, "Assignments in CS_101_Fall2024:")
}

func TestGetAssignmentDetails(t *testing.T) {
	fake := testutils.NewFakeCanvas(t)
	fake.HandleJSON("/courses/1/assignments/401", 200, map[string]interface{}{
		"id":               401,
		"name":             "Essay",
		"description":      "<p>Write   about &quot;history&quot;</p>",
		"due_at":           "2024-10-01T23:59:00Z",
		"points_possible":  50.0,
		"submission_types": []string{"online_upload", "online_text_entry"},
		"locked_for_user":  true,
		"submission": map[string]interface{}{
			"submitted_at": "2024-09-30T12:00:00Z",
		},
	})

	h := newTestHandler(t, fake)
	result, err := h.GetAssignmentDetails(context.Background(), GetAssignmentDetailsArgs{
		CourseIdentifier: "1",
		AssignmentID:     "401",
	})

	require.NoError(t, err)
	assert.Contains(t, result, "Assignment: Essay")
	assert.Contains(t, result, "Due: 2024-10-01 23:59")
	assert.Contains(t, result, "Submission Types: online_upload, online_text_entry")
	assert.Contains(t, result, "Your Status: Submitted on 2024-09-30 12:00")
	assert.Contains(t, result, "Note: This assignment is currently locked.")
	assert.Contains(t, result, `Description:
Write about "history"`)
}

func TestGetAssignmentDetails_FetchError(t *testing.T) {
	fake := testutils.NewFakeCanvas(t)
	// No handler for the assignment: fake returns 404.

	h := newTestHandler(t, fake)
	_, err := h.GetAssignmentDetails(context.Background(), GetAssignmentDetailsArgs{
		CourseIdentifier: "1",
		AssignmentID:     "999",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching assignment")
}
