// Package content implements the page, module and group tools.
package content

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

// Handler handles page, module and group operations
type Handler struct {
	client   client.CanvasClient
	resolver *resolver.Resolver
	logger   *slog.Logger
}

// NewHandler creates a new content handler
func NewHandler(canvasClient client.CanvasClient, res *resolver.Resolver, logger *slog.Logger) *Handler {
	return &Handler{
		client:   canvasClient,
		resolver: res,
		logger:   logger,
	}
}

// ListPagesArgs represents arguments for list_pages
type ListPagesArgs struct {
	CourseIdentifier string `json:"course_identifier" description:"Course code or Canvas ID"`
	SearchTerm       string `json:"search_term,omitempty" description:"Optional search term to filter pages"`
}

// GetPageContentArgs represents arguments for get_page_content
type GetPageContentArgs struct {
	CourseIdentifier string `json:"course_identifier" description:"Course code or Canvas ID"`
	PageURL          string `json:"page_url" description:"The page URL (from list_pages)"`
}

// CourseArgs represents arguments for tools that only take a course
type CourseArgs struct {
	CourseIdentifier string `json:"course_identifier" description:"Course code or Canvas ID"`
}

// ListModuleItemsArgs represents arguments for list_module_items
type ListModuleItemsArgs struct {
	CourseIdentifier string `json:"course_identifier" description:"Course code or Canvas ID"`
	ModuleID         string `json:"module_id" description:"The module ID (from list_modules)"`
}

// ListPages lists pages in a course
func (h *Handler) ListPages(ctx context.Context, args ListPagesArgs) (string, error) {
	courseID, err := h.resolver.Resolve(ctx, args.CourseIdentifier)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("sort", "title")
	params.Set("order", "asc")
	if args.SearchTerm != "" {
		params.Set("search_term", args.SearchTerm)
	}

	pages, err := h.client.GetAllPages(ctx, fmt.Sprintf("/courses/%d/pages", courseID), params)
	if err != nil {
		return "", fmt.Errorf("fetching pages: %w", err)
	}

	if len(pages) == 0 {
		return "No pages found.", nil
	}

	var info []string
	for _, page := range pages {
		title := record.StringOr(page, "title", "Untitled")
		if record.Bool(page, "front_page") {
			title += " (Front Page)"
		}
		info = append(info, fmt.Sprintf("• %s\n  URL: %s | Updated: %s",
			title,
			record.String(page, "url"),
			format.Date(record.String(page, "updated_at"))))
	}

	display := h.resolver.DisplayName(courseID, args.CourseIdentifier)
	return fmt.Sprintf("Pages in %s:\n\n", display) + strings.Join(info, "\n\n"), nil
}

// GetPageContent shows the content of a specific page
func (h *Handler) GetPageContent(ctx context.Context, args GetPageContentArgs) (string, error) {
	courseID, err := h.resolver.Resolve(ctx, args.CourseIdentifier)
	if err != nil {
		return "", err
	}

	result, err := h.client.Get(ctx,
		fmt.Sprintf("/courses/%d/pages/%s", courseID, url.PathEscape(args.PageURL)), nil)
	if err != nil {
		return "", fmt.Errorf("fetching page: %w", err)
	}

	return h.renderPage(result, "Page", courseID, args.CourseIdentifier)
}

// GetFrontPage shows the course front/home page content
func (h *Handler) GetFrontPage(ctx context.Context, args CourseArgs) (string, error) {
	courseID, err := h.resolver.Resolve(ctx, args.CourseIdentifier)
	if err != nil {
		return "", err
	}

	result, err := h.client.Get(ctx, fmt.Sprintf("/courses/%d/front_page", courseID), nil)
	if err != nil {
		return "", fmt.Errorf("fetching front page: %w", err)
	}

	return h.renderPage(result, "Front Page", courseID, args.CourseIdentifier)
}

// ListModules lists modules in a course
func (h *Handler) ListModules(ctx context.Context, args CourseArgs) (string, error) {
	courseID, err := h.resolver.Resolve(ctx, args.CourseIdentifier)
	if err != nil {
		return "", err
	}

	modules, err := h.client.GetAllPages(ctx, fmt.Sprintf("/courses/%d/modules", courseID), nil)
	if err != nil {
		return "", fmt.Errorf("fetching modules: %w", err)
	}

	if len(modules) == 0 {
		return "No modules found.", nil
	}

	var info []string
	for _, mod := range modules {
		info = append(info, fmt.Sprintf("• %s\n  ID: %d | Items: %d | State: %s",
			record.StringOr(mod, "name", "Unnamed"),
			record.Int(mod, "id"),
			record.Int(mod, "items_count"),
			record.StringOr(mod, "state", "unknown")))
	}

	display := h.resolver.DisplayName(courseID, args.CourseIdentifier)
	return fmt.Sprintf("Modules in %s:\n\n", display) + strings.Join(info, "\n\n"), nil
}

// ListModuleItems lists items in a specific module
func (h *Handler) ListModuleItems(ctx context.Context, args ListModuleItemsArgs) (string, error) {
	courseID, err := h.resolver.Resolve(ctx, args.CourseIdentifier)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Add("include[]", "content_details")

	items, err := h.client.GetAllPages(ctx,
		fmt.Sprintf("/courses/%d/modules/%s/items", courseID, url.PathEscape(args.ModuleID)), params)
	if err != nil {
		return "", fmt.Errorf("fetching module items: %w", err)
	}

	if len(items) == 0 {
		return "No items in this module.", nil
	}

	moduleName := "Unknown Module"
	if result, err := h.client.Get(ctx,
		fmt.Sprintf("/courses/%d/modules/%s", courseID, url.PathEscape(args.ModuleID)), nil); err == nil {
		if mod, ok := result.(map[string]interface{}); ok {
			moduleName = record.StringOr(mod, "name", moduleName)
		}
	}

	var info []string
	for _, item := range items {
		line := fmt.Sprintf("• %s\n  Type: %s",
			record.StringOr(item, "title", "Untitled"),
			record.StringOr(item, "type", "Unknown"))
		if itemURL := record.String(item, "html_url"); itemURL != "" {
			line += " | URL: " + itemURL
		}
		info = append(info, line)
	}

	display := h.resolver.DisplayName(courseID, args.CourseIdentifier)
	return fmt.Sprintf("Items in '%s' (%s):\n\n", moduleName, display) + strings.Join(info, "\n\n"), nil
}

// ListGroups lists groups in a course
func (h *Handler) ListGroups(ctx context.Context, args CourseArgs) (string, error) {
	courseID, err := h.resolver.Resolve(ctx, args.CourseIdentifier)
	if err != nil {
		return "", err
	}

	groups, err := h.client.GetAllPages(ctx, fmt.Sprintf("/courses/%d/groups", courseID), nil)
	if err != nil {
		return "", fmt.Errorf("fetching groups: %w", err)
	}

	if len(groups) == 0 {
		return "No groups found.", nil
	}

	var info []string
	for _, group := range groups {
		info = append(info, fmt.Sprintf("• %s\n  ID: %d | Members: %d",
			record.StringOr(group, "name", "Unnamed"),
			record.Int(group, "id"),
			record.Int(group, "members_count")))
	}

	display := h.resolver.DisplayName(courseID, args.CourseIdentifier)
	return fmt.Sprintf("Groups in %s:\n\n", display) + strings.Join(info, "\n\n"), nil
}

func (h *Handler) renderPage(result interface{}, label string, courseID int64, identifier string) (string, error) {
	page, ok := result.(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("unexpected page response shape")
	}

	title := record.StringOr(page, "title", "Untitled")
	body := record.String(page, "body")
	if body == "" {
		return fmt.Sprintf("%s '%s' has no content.", label, title), nil
	}

	display := h.resolver.DisplayName(courseID, identifier)
	return fmt.Sprintf("%s: %s\nCourse: %s\nUpdated: %s\n\n%s",
		label, title, display,
		format.Date(record.String(page, "updated_at")),
		format.StripHTML(body)), nil
}
