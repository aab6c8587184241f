package files

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"canvas-mcp-server/client"
	"canvas-mcp-server/format"
	"canvas-mcp-server/record"
	"canvas-mcp-server/resolver"
)

// Handler handles file and folder operations
type Handler struct {
	client   client.CanvasClient
	resolver *resolver.Resolver
	logger   *slog.Logger
}

// NewHandler creates a new file handler
func NewHandler(canvasClient client.CanvasClient, res *resolver.Resolver, logger *slog.Logger) *Handler {
	return &Handler{
		client:   canvasClient,
		resolver: res,
		logger:   logger,
	}
}

// ListCourseFilesArgs represents arguments for list_course_files
type ListCourseFilesArgs struct {
	CourseIdentifier string `json:"course_identifier" description:"Course code or Canvas ID"`
	SearchTerm       string `json:"search_term,omitempty" description:"Optional search term to filter files by name"`
	ContentTypes     string `json:"content_types,omitempty" description:"Optional comma-separated content types (e.g. application/pdf,image/png)"`
	Sort             string `json:"sort,omitempty" description:"Sort by: name, size, created_at, updated_at, content_type (default: name)"`
	Order            string `json:"order,omitempty" description:"Sort order: asc or desc (default: asc)"`
}

// ListCourseFoldersArgs represents arguments for list_course_folders
type ListCourseFoldersArgs struct {
	CourseIdentifier string `json:"course_identifier" description:"Course code or Canvas ID"`
}

// FileArgs represents arguments addressing a single file
type FileArgs struct {
	FileID string `json:"file_id" description:"The Canvas file ID"`
}

// DownloadFileArgs represents arguments for download_file
type DownloadFileArgs struct {
	FileID            string `json:"file_id" description:"The Canvas file ID"`
	DestinationFolder string `json:"destination_folder,omitempty" description:"Local folder to save the file (default: ~/Downloads)"`
}

// ListFolderFilesArgs represents arguments for list_folder_files
type ListFolderFilesArgs struct {
	FolderID string `json:"folder_id" description:"The Canvas folder ID"`
	Sort     string `json:"sort,omitempty" description:"Sort by: name, size, created_at, updated_at, content_type (default: name)"`
	Order    string `json:"order,omitempty" description:"Sort order: asc or desc (default: asc)"`
}

// ListCourseFiles lists files in a course
func (h *Handler) ListCourseFiles(ctx context.Context, args ListCourseFilesArgs) (string, error) {
	courseID, err := h.resolver.Resolve(ctx, args.CourseIdentifier)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("sort", defaultString(args.Sort, "name"))
	params.Set("order", defaultString(args.Order, "asc"))
	if args.SearchTerm != "" {
		params.Set("search_term", args.SearchTerm)
	}
	for _, ct := range strings.Split(args.ContentTypes, ",") {
		if ct = strings.TrimSpace(ct); ct != "" {
			params.Add("content_types[]", ct)
		}
	}

	files, err := h.client.GetAllPages(ctx, fmt.Sprintf("/courses/%d/files", courseID), params)
	if err != nil {
		return "", fmt.Errorf("fetching files: %w", err)
	}

	if len(files) == 0 {
		return "No files found in this course.", nil
	}

	display := h.resolver.DisplayName(courseID, args.CourseIdentifier)

	var info []string
	for _, f := range files {
		info = append(info, fmt.Sprintf(
			"• %s\n  ID: %d | Size: %s | Type: %s\n  Updated: %s | Folder ID: %d",
			fileName(f),
			record.Int(f, "id"),
			format.FileSize(record.Int(f, "size")),
			// The Canvas field name really is hyphenated.
			record.StringOr(f, "content-type", "unknown"),
			format.Date(record.String(f, "updated_at")),
			record.Int(f, "folder_id")))
	}

	return fmt.Sprintf("Files in %s (%d files):\n\n", display, len(files)) + strings.Join(info, "\n\n"), nil
}

// ListCourseFolders lists folders in a course
func (h *Handler) ListCourseFolders(ctx context.Context, args ListCourseFoldersArgs) (string, error) {
	courseID, err := h.resolver.Resolve(ctx, args.CourseIdentifier)
	if err != nil {
		return "", err
	}

	folders, err := h.client.GetAllPages(ctx, fmt.Sprintf("/courses/%d/folders", courseID), nil)
	if err != nil {
		return "", fmt.Errorf("fetching folders: %w", err)
	}

	if len(folders) == 0 {
		return "No folders found in this course.", nil
	}

	sort.Slice(folders, func(i, j int) bool {
		return record.String(folders[i], "full_name") < record.String(folders[j], "full_name")
	})

	display := h.resolver.DisplayName(courseID, args.CourseIdentifier)

	var info []string
	for _, folder := range folders {
		name := record.StringOr(folder, "name", "Unknown")
		info = append(info, fmt.Sprintf(
			"• %s\n  ID: %d | Files: %d | Subfolders: %d",
			record.StringOr(folder, "full_name", name),
			record.Int(folder, "id"),
			record.Int(folder, "files_count"),
			record.Int(folder, "folders_count")))
	}

	return fmt.Sprintf("Folders in %s (%d folders):\n\n", display, len(folders)) + strings.Join(info, "\n\n"), nil
}

// GetFileDownloadURL returns the pre-signed download URL for a file
func (h *Handler) GetFileDownloadURL(ctx context.Context, args FileArgs) (string, error) {
	f, err := h.fetchFile(ctx, args.FileID)
	if err != nil {
		return "", err
	}

	name := fileName(f)
	downloadURL := record.String(f, "url")
	if downloadURL == "" {
		return "No download URL available for file: " + name, nil
	}

	return fmt.Sprintf(
		"File: %s\n"+
			"Size: %s\n"+
			"Type: %s\n"+
			"Download URL: %s\n\n"+
			"Note: This URL is time-limited and authenticated. Use it promptly.",
		name,
		format.FileSize(record.Int(f, "size")),
		record.StringOr(f, "content-type", "unknown"),
		downloadURL), nil
}

// DownloadFile downloads a file to a local directory, suffixing the name
// with a counter on collision.
func (h *Handler) DownloadFile(ctx context.Context, args DownloadFileArgs) (string, error) {
	f, err := h.fetchFile(ctx, args.FileID)
	if err != nil {
		return "", err
	}

	name := record.StringOr(f, "display_name",
		record.StringOr(f, "filename", "file_"+args.FileID))
	downloadURL := record.String(f, "url")
	if downloadURL == "" {
		return "No download URL available for file: " + name, nil
	}

	destFolder, err := expandUser(defaultString(args.DestinationFolder, "~/Downloads"))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(destFolder, 0o755); err != nil {
		return "", fmt.Errorf("creating destination folder: %w", err)
	}

	destPath := uniquePath(destFolder, name)

	data, err := h.client.Download(ctx, downloadURL)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}

	if err := os.WriteFile(destPath, data, 0o644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}

	h.logger.Debug("Downloaded file", "path", destPath, "bytes", len(data))

	return fmt.Sprintf(
		"Downloaded successfully!\n"+
			"File: %s\n"+
			"Size: %s\n"+
			"Saved to: %s",
		name, format.FileSize(int64(len(data))), destPath), nil
}

// ListFolderFiles lists files in a specific folder
func (h *Handler) ListFolderFiles(ctx context.Context, args ListFolderFilesArgs) (string, error) {
	params := url.Values{}
	params.Set("sort", defaultString(args.Sort, "name"))
	params.Set("order", defaultString(args.Order, "asc"))

	files, err := h.client.GetAllPages(ctx, "/folders/"+url.PathEscape(args.FolderID)+"/files", params)
	if err != nil {
		return "", fmt.Errorf("fetching folder files: %w", err)
	}

	if len(files) == 0 {
		return "No files found in this folder.", nil
	}

	folderName := "Folder " + args.FolderID
	if result, err := h.client.Get(ctx, "/folders/"+url.PathEscape(args.FolderID), nil); err == nil {
		if folder, ok := result.(map[string]interface{}); ok {
			folderName = record.StringOr(folder, "full_name", folderName)
		}
	}

	var info []string
	for _, f := range files {
		info = append(info, fmt.Sprintf(
			"• %s\n  ID: %d | Size: %s | Type: %s\n  Updated: %s",
			fileName(f),
			record.Int(f, "id"),
			format.FileSize(record.Int(f, "size")),
			record.StringOr(f, "content-type", "unknown"),
			format.Date(record.String(f, "updated_at"))))
	}

	return fmt.Sprintf("Files in %s (%d files):\n\n", folderName, len(files)) + strings.Join(info, "\n\n"), nil
}

func (h *Handler) fetchFile(ctx context.Context, fileID string) (map[string]interface{}, error) {
	result, err := h.client.Get(ctx, "/files/"+url.PathEscape(fileID), nil)
	if err != nil {
		return nil, fmt.Errorf("fetching file: %w", err)
	}
	f, ok := result.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected file response shape")
	}
	return f, nil
}

func fileName(f map[string]interface{}) string {
	return record.StringOr(f, "display_name", record.StringOr(f, "filename", "Unknown"))
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func expandUser(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}

// uniquePath returns destFolder/name, appending _1, _2, ... before the
// extension until the path does not exist.
func uniquePath(destFolder, name string) string {
	destPath := filepath.Join(destFolder, name)
	if _, err := os.Stat(destPath); os.IsNotExist(err) {
		return destPath
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for counter := 1; ; counter++ {
		candidate := filepath.Join(destFolder, fmt.Sprintf("%s_%d%s", base, counter, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
