package files

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
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

func TestListCourseFiles(t *testing.T) {
	fake := testutils.NewFakeCanvas(t)
	fake.PaginateJSON("/courses/1/files", [][]map[string]interface{}{{
		{
			"id":           301.0,
			"display_name": "syllabus.pdf",
			"size":         1536.0,
			"content-type": "application/pdf",
			"updated_at":   "2024-09-01T08:00:00Z",
			"folder_id":    7.0,
		},
		{
			"id":       302.0,
			"filename": "raw_data.csv",
			"size":     1048576.0,
		},
	}})

	h := newTestHandler(t, fake)
	result, err := h.ListCourseFiles(context.Background(), ListCourseFilesArgs{CourseIdentifier: "1"})

	require.NoError(t, err)
	assert.Contains(t, result, "Files in 1 (2 files):")
	assert.Contains(t, result, "• syllabus.pdf")
	assert.Contains(t, result, "Size: 1.5 KB | Type: application/pdf")
	assert.Contains(t, result, "Folder ID: 7")
	assert.Contains(t, result, "• raw_data.csv")
	assert.Contains(t, result, "Size: 1.0 MB | Type: unknown")
}

func TestListCourseFiles_Empty(t *testing.T) {
	fake := testutils.NewFakeCanvas(t)
	fake.PaginateJSON("/courses/1/files", [][]map[string]interface{}{{}})

	h := newTestHandler(t, fake)
	result, err := h.ListCourseFiles(context.Background(), ListCourseFilesArgs{CourseIdentifier: "1"})

	require.NoError(t, err)
	assert.Equal(t, "No files found in this course.", result)
}

func TestListCourseFolders_SortedByFullName(t *testing.T) {
	fake := testutils.NewFakeCanvas(t)
	fake.PaginateJSON("/courses/1/folders", [][]map[string]interface{}{{
		{"id": 2.0, "name": "week2", "full_name": "course files/week2", "files_count": 3.0},
		{"id": 1.0, "name": "week1", "full_name": "course files/week1", "files_count": 5.0, "folders_count": 1.0},
	}})

	h := newTestHandler(t, fake)
	result, err := h.ListCourseFolders(context.Background(), ListCourseFoldersArgs{CourseIdentifier: "1"})

	require.NoError(t, err)
	week1 := "• course files/week1"
	week2 := "• course files/week2"
	assert.Contains(t, result, week1)
	assert.Contains(t, result, week2)
	assert.Less(t, indexOf(result, week1), indexOf(result, week2), "folders must be sorted by full name")
	assert.Contains(t, result, "ID: 1 | Files: 5 | Subfolders: 1")
}

func TestGetFileDownloadURL(t *testing.T) {
	fake := testutils.NewFakeCanvas(t)
	fake.HandleJSON("/files/301", 200, map[string]interface{}{
		"id":           301,
		"display_name": "syllabus.pdf",
		"size":         1536,
		"content-type": "application/pdf",
		"url":          "https://canvas.test/dl/301?verifier=abc",
	})

	h := newTestHandler(t, fake)
	result, err := h.GetFileDownloadURL(context.Background(), FileArgs{FileID: "301"})

	require.NoError(t, err)
	assert.Contains(t, result, "File: syllabus.pdf")
	assert.Contains(t, result, "Size: 1.5 KB")
	assert.Contains(t, result, "Download URL: https://canvas.test/dl/301?verifier=abc")
	assert.Contains(t, result, "time-limited")
}

func TestGetFileDownloadURL_NoURL(t *testing.T) {
	fake := testutils.NewFakeCanvas(t)
	fake.HandleJSON("/files/301", 200, map[string]interface{}{
		"id":           301,
		"display_name": "locked.pdf",
	})

	h := newTestHandler(t, fake)
	result, err := h.GetFileDownloadURL(context.Background(), FileArgs{FileID: "301"})

	require.NoError(t, err)
	assert.Equal(t, "No download URL available for file: locked.pdf", result)
}

func TestDownloadFile(t *testing.T) {
	fake := testutils.NewFakeCanvas(t)
	fake.HandleJSON("/files/301", 200, map[string]interface{}{
		"id":           301,
		"display_name": "notes.txt",
		"url":          fake.URL() + "/dl/301",
	})
	fake.HandleFunc("/dl/301", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("lecture notes"))
	})

	dest := t.TempDir()
	h := newTestHandler(t, fake)
	result, err := h.DownloadFile(context.Background(), DownloadFileArgs{
		FileID:            "301",
		DestinationFolder: dest,
	})

	require.NoError(t, err)
	assert.Contains(t, result, "Downloaded successfully!")
	assert.Contains(t, result, filepath.Join(dest, "notes.txt"))

	data, err := os.ReadFile(filepath.Join(dest, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "lecture notes", string(data))
}

func TestDownloadFile_CollisionSuffix(t *testing.T) {
	fake := testutils.NewFakeCanvas(t)
	fake.HandleJSON("/files/301", 200, map[string]interface{}{
		"id":           301,
		"display_name": "notes.txt",
		"url":          fake.URL() + "/dl/301",
	})
	fake.HandleFunc("/dl/301", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("second copy"))
	})

	dest := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dest, "notes.txt"), []byte("first copy"), 0o644))

	h := newTestHandler(t, fake)
	result, err := h.DownloadFile(context.Background(), DownloadFileArgs{
		FileID:            "301",
		DestinationFolder: dest,
	})

	require.NoError(t, err)
	assert.Contains(t, result, filepath.Join(dest, "notes_1.txt"))

	data, err := os.ReadFile(filepath.Join(dest, "notes_1.txt"))
	require.NoError(t, err)
	assert.Equal(t, "second copy", string(data))

	original, err := os.ReadFile(filepath.Join(dest, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "first copy", string(original), "existing file must not be overwritten")
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()

	// Fresh name: unchanged.
	assert.Equal(t, filepath.Join(dir, "a.pdf"), uniquePath(dir, "a.pdf"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), nil, 0o644))
	assert.Equal(t, filepath.Join(dir, "a_1.pdf"), uniquePath(dir, "a.pdf"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_1.pdf"), nil, 0o644))
	assert.Equal(t, filepath.Join(dir, "a_2.pdf"), uniquePath(dir, "a.pdf"))

	// Extensionless names get a plain counter suffix.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), nil, 0o644))
	assert.Equal(t, filepath.Join(dir, "README_1"), uniquePath(dir, "README"))
}

func TestListFolderFiles(t *testing.T) {
	fake := testutils.NewFakeCanvas(t)
	fake.PaginateJSON("/folders/7/files", [][]map[string]interface{}{{
		{"id": 301.0, "display_name": "hw1.pdf", "size": 2048.0, "content-type": "application/pdf"},
	}})
	fake.HandleJSON("/folders/7", 200, map[string]interface{}{
		"id":        7,
		"full_name": "course files/homework",
	})

	h := newTestHandler(t, fake)
	result, err := h.ListFolderFiles(context.Background(), ListFolderFilesArgs{FolderID: "7"})

	require.NoError(t, err)
	assert.Contains(t, result, "Files in course files/homework (1 files):")
	assert.Contains(t, result, "• hw1.pdf")
	assert.Contains(t, result, "Size: 2.0 KB")
}

func indexOf(s, substr string) int {
	return strings.Index(s, substr)
}
