package content

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

func TestListPages(t *testing.T) {
	fake := testutils.NewFakeCanvas(t)
	fake.PaginateJSON("/courses/1/pages", [][]map[string]interface{}{{
		{"url": "home", "title": "Home", "front_page": true, "updated_at": "2024-09-01T08:00:00Z"},
		{"url": "syllabus", "title": "Syllabus"},
	}})

	h := newTestHandler(t, fake)
	result, err := h.ListPages(context.Background(), ListPagesArgs{CourseIdentifier: "1"})

	require.NoError(t, err)
	assert.Contains(t, result, "• Home (Front Page)")
	assert.Contains(t, result, "URL: home | Updated: 2024-09-01 08:00")
	assert.Contains(t, result, "• Syllabus\n")
}

func TestGetPageContent(t *testing.T) {
	fake := testutils.NewFakeCanvas(t)
	fake.HandleJSON("/courses/1/pages/syllabus", 200, map[string]interface{}{
		"title":      "Syllabus",
		"body":       "<h1>Welcome</h1><p>Read &amp; enjoy</p>",
		"updated_at": "2024-09-01T08:00:00Z",
	})

	h := newTestHandler(t, fake)
	result, err := h.GetPageContent(context.Background(), GetPageContentArgs{
		CourseIdentifier: "1",
		PageURL:          "syllabus",
	})

	require.NoError(t, err)
	assert.Contains(t, result, "Page: Syllabus")
	assert.Contains(t, result, "Welcome Read & enjoy")
}

func TestGetPageContent_NoBody(t *testing.T) {
	fake := testutils.NewFakeCanvas(t)
	fake.HandleJSON("/courses/1/pages/empty", 200, map[string]interface{}{
		"title": "Empty",
	})

	h := newTestHandler(t, fake)
	result, err := h.GetPageContent(context.Background(), GetPageContentArgs{
		CourseIdentifier: "1",
		PageURL:          "empty",
	})

	require.NoError(t, err)
	assert.Equal(t, "Page 'Empty' has no content.", result)
}

func TestGetFrontPage(t *testing.T) {
	fake := testutils.NewFakeCanvas(t)
	fake.HandleJSON("/courses/1/front_page", 200, map[string]interface{}{
		"title":      "Welcome",
		"body":       "<p>Course home</p>",
		"updated_at": "2024-09-01T08:00:00Z",
	})

	h := newTestHandler(t, fake)
	result, err := h.GetFrontPage(context.Background(), CourseArgs{CourseIdentifier: "1"})

	require.NoError(t, err)
	assert.Contains(t, result, "Front Page: Welcome")
	assert.Contains(t, result, "Course home")
}

func TestListModules(t *testing.T) {
	fake := testutils.NewFakeCanvas(t)
	fake.PaginateJSON("/courses/1/modules", [][]map[string]interface{}{{
		{"id": 11.0, "name": "Week 1", "items_count": 4.0, "state": "completed"},
	}})

	h := newTestHandler(t, fake)
	result, err := h.ListModules(context.Background(), CourseArgs{CourseIdentifier: "1"})

	require.NoError(t, err)
	assert.Contains(t, result, "• Week 1\n  ID: 11 | Items: 4 | State: completed")
}

func TestListModuleItems(t *testing.T) {
	fake := testutils.NewFakeCanvas(t)
	fake.PaginateJSON("/courses/1/modules/11/items", [][]map[string]interface{}{{
		{"title": "Intro video", "type": "ExternalUrl", "html_url": "https://canvas.test/item/1"},
		{"title": "Reading", "type": "Page"},
	}})
	fake.HandleJSON("/courses/1/modules/11", 200, map[string]interface{}{
		"id":   11,
		"name": "Week 1",
	})

	h := newTestHandler(t, fake)
	result, err := h.ListModuleItems(context.Background(), ListModuleItemsArgs{
		CourseIdentifier: "1",
		ModuleID:         "11",
	})

	require.NoError(t, err)
	assert.Contains(t, result, "Items in 'Week 1' (1):")
	assert.Contains(t, result, "• Intro video\n  Type: ExternalUrl | URL: https://canvas.test/item/1")
	assert.Contains(t, result, "• Reading\n  Type: Page")
}

func TestListModuleItems_Empty(t *testing.T) {
	fake := testutils.NewFakeCanvas(t)
	fake.PaginateJSON("/courses/1/modules/11/items", [][]map[string]interface{}{{}})

	h := newTestHandler(t, fake)
	result, err := h.ListModuleItems(context.Background(), ListModuleItemsArgs{
		CourseIdentifier: "1",
		ModuleID:         "11",
	})

	require.NoError(t, err)
	assert.Equal(t, "No items in this module.", result)
}

func TestListGroups(t *testing.T) {
	fake := testutils.NewFakeCanvas(t)
	fake.PaginateJSON("/courses/1/groups", [][]map[string]interface{}{{
		{"id": 21.0, "name": "Project Team A", "members_count": 4.0},
	}})

	h := newTestHandler(t, fake)
	result, err := h.ListGroups(context.Background(), CourseArgs{CourseIdentifier: "1"})

	require.NoError(t, err)
	assert.Contains(t, result, "• Project Team A\n  ID: 21 | Members: 4")
}
