package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"

	"canvas-mcp-server/client"
	"canvas-mcp-server/types"
)

// Resolver maps human-friendly course codes to the numeric ids the Canvas
// API requires, and back. Both directions are cached for the life of the
// process; course metadata is effectively static within a session, so
// entries are never invalidated.
type Resolver struct {
	client client.CanvasClient
	logger *slog.Logger

	mu       sync.RWMutex
	codeToID map[string]int64
	idToCode map[int64]string
}

// New creates a course identifier resolver backed by the given client
func New(canvasClient client.CanvasClient, logger *slog.Logger) *Resolver {
	return &Resolver{
		client:   canvasClient,
		logger:   logger,
		codeToID: make(map[string]int64),
		idToCode: make(map[int64]string),
	}
}

// Resolve turns a course identifier (numeric id or course code) into the
// numeric course id. Numeric identifiers resolve without any network call.
// Codes are looked up against the course listing once, then served from
// the cache.
func (r *Resolver) Resolve(ctx context.Context, identifier string) (int64, error) {
	if id, err := strconv.ParseInt(identifier, 10, 64); err == nil {
		return id, nil
	}

	r.mu.RLock()
	id, ok := r.codeToID[identifier]
	r.mu.RUnlock()
	if ok {
		return id, nil
	}

	r.logger.Debug("Resolving course code", "code", identifier)

	params := url.Values{}
	params.Set("state[]", "available")
	courses, err := r.client.GetAllPages(ctx, "/courses", params)
	if err != nil {
		return 0, fmt.Errorf("course lookup failed: %w", err)
	}

	for _, course := range courses {
		code, _ := course["course_code"].(string)
		rawID, hasID := course["id"].(float64)
		if code == "" || !hasID {
			continue
		}
		if code == identifier {
			courseID := int64(rawID)
			r.store(code, courseID)
			return courseID, nil
		}
	}

	return 0, &types.NotFoundError{Identifier: identifier}
}

// CourseCode returns the cached human-readable code for a course id, if
// the id was ever resolved forward. Never hits the network.
func (r *Resolver) CourseCode(id int64) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	code, ok := r.idToCode[id]
	return code, ok
}

// DisplayName returns the cached course code when known, falling back to
// the identifier the caller supplied.
func (r *Resolver) DisplayName(id int64, fallback string) string {
	if code, ok := r.CourseCode(id); ok {
		return code
	}
	return fallback
}

// store is idempotent: concurrent resolutions of the same code compute
// and write the same mapping.
func (r *Resolver) store(code string, id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codeToID[code] = id
	r.idToCode[id] = code
}
