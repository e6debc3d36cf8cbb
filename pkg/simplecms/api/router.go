package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-cms/pkg/simplecms"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Request is a transport-neutral API call.
type Request struct {
	Method string
	Path   string
	Body   json.RawMessage
	Query  url.Values
	// AuthorID is the authenticated caller, if any. It is stamped on created entries.
	AuthorID string
}

// Pagination describes one page of a list response.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// EntryPayload is an entry plus its resolved field view.
type EntryPayload struct {
	*simplecms.ContentEntry
	Fields map[string]string `json:"fields"`
}

// ListPayload is the body of GET /api/{typeSlug}.
type ListPayload struct {
	Entries     []EntryPayload         `json:"entries"`
	ContentType *simplecms.ContentType `json:"contentType"`
	Pagination  Pagination             `json:"pagination"`
}

// StatusPayload is the body of GET /api/status.
type StatusPayload struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Timestamp time.Time `json:"timestamp"`
}

// Router translates API requests into Service calls.
type Router struct {
	service         simplecms.Service
	logger          *slog.Logger
	now             func() time.Time
	defaultPageSize int
	maxPageSize     int
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger used for unexpected failures.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithClock overrides the time source for the status payload.
func WithClock(now func() time.Time) Option {
	return func(r *Router) {
		r.now = now
	}
}

// WithPageSizes sets the default and maximum list page sizes. Values below 1 are ignored.
func WithPageSizes(defaultSize, maxSize int) Option {
	return func(r *Router) {
		if defaultSize > 0 {
			r.defaultPageSize = defaultSize
		}
		if maxSize > 0 {
			r.maxPageSize = maxSize
		}
	}
}

// NewRouter creates a Router over service.
func NewRouter(service simplecms.Service, opts ...Option) *Router {
	r := &Router{
		service:         service,
		logger:          slog.Default(),
		now:             func() time.Time { return time.Now().UTC() },
		defaultPageSize: DefaultPageSize,
		maxPageSize:     MaxPageSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.defaultPageSize > r.maxPageSize {
		r.defaultPageSize = r.maxPageSize
	}
	return r
}

// Dispatch handles one request. It never panics and never returns internal
// error text to the caller.
func (rt *Router) Dispatch(ctx context.Context, req Request) (resp Response) {
	defer func() {
		if p := recover(); p != nil {
			rt.logger.ErrorContext(ctx, "Panic while handling request",
				"method", req.Method, "path", req.Path, "panic", fmt.Sprint(p))
			resp = failure(http.StatusInternalServerError, CodeInternal, "Internal server error", nil)
		}
	}()

	status, data, err := rt.route(ctx, req)
	if err != nil {
		return rt.errorResponse(ctx, req.Method, req.Path, err)
	}
	return success(status, data)
}

func (rt *Router) errorResponse(ctx context.Context, method, path string, err error) Response {
	resp, known := classify(err)
	if !known {
		rt.logger.ErrorContext(ctx, "Unexpected error while handling request",
			"method", method, "path", path, "error", err)
	}
	return resp
}

func (rt *Router) route(ctx context.Context, req Request) (int, any, error) {
	path := strings.TrimSuffix(req.Path, "/")
	if req.Method == http.MethodGet && path == "/api/status" {
		return http.StatusOK, StatusPayload{Status: "ok", Service: "simple-cms", Timestamp: rt.now()}, nil
	}

	typeSlug, rawID, err := splitPath(path)
	if err != nil {
		return 0, nil, err
	}

	ct, err := rt.service.GetContentTypeBySlug(ctx, typeSlug)
	if err != nil {
		return 0, nil, err
	}

	if rawID == "" {
		switch req.Method {
		case http.MethodGet:
			return rt.listEntries(ctx, ct, req.Query)
		case http.MethodPost:
			return rt.createEntry(ctx, ct, req)
		default:
			return 0, nil, methodNotAllowed(req.Method)
		}
	}

	switch req.Method {
	case http.MethodGet, http.MethodPut, http.MethodDelete:
	default:
		return 0, nil, methodNotAllowed(req.Method)
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return 0, nil, badRequest("Invalid entry id")
	}

	switch req.Method {
	case http.MethodGet:
		entry, err := rt.entryOfType(ctx, ct, id)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, entryPayload(ct, entry), nil
	case http.MethodPut:
		return rt.updateEntry(ctx, ct, id, req.Body)
	case http.MethodDelete:
		if _, err := rt.entryOfType(ctx, ct, id); err != nil {
			return 0, nil, err
		}
		deleted, err := rt.service.DeleteEntry(ctx, id)
		if err != nil {
			return 0, nil, err
		}
		if !deleted {
			return 0, nil, notFound("Entry not found")
		}
		return http.StatusOK, map[string]any{"id": id, "deleted": true}, nil
	}
	return 0, nil, methodNotAllowed(req.Method)
}

// splitPath accepts /api/{typeSlug} and /api/{typeSlug}/{entryId}.
func splitPath(path string) (typeSlug, id string, err error) {
	rest, ok := strings.CutPrefix(path, "/api/")
	if !ok {
		return "", "", badRequest("Invalid path")
	}
	parts := strings.Split(rest, "/")
	switch {
	case len(parts) == 1 && parts[0] != "":
		return parts[0], "", nil
	case len(parts) == 2 && parts[0] != "" && parts[1] != "":
		return parts[0], parts[1], nil
	}
	return "", "", badRequest("Invalid path")
}

// entryOfType hides entries of other content types behind NOT_FOUND.
func (rt *Router) entryOfType(ctx context.Context, ct *simplecms.ContentType, id uuid.UUID) (*simplecms.ContentEntry, error) {
	entry, err := rt.service.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.ContentTypeID != ct.ID {
		return nil, notFound("Entry not found")
	}
	return entry, nil
}

func (rt *Router) listEntries(ctx context.Context, ct *simplecms.ContentType, query url.Values) (int, any, error) {
	status := simplecms.EntryStatus(strings.ToUpper(query.Get("status")))
	if status != "" && !status.IsValid() {
		return 0, nil, fmt.Errorf("%w: %q", simplecms.ErrInvalidStatus, query.Get("status"))
	}

	entries, err := rt.service.ListEntries(ctx, simplecms.ListEntriesRequest{
		ContentTypeID: ct.ID,
		Status:        status,
		Search:        query.Get("search"),
	})
	if err != nil {
		return 0, nil, err
	}

	page := positiveInt(query.Get("page"), 1)
	limit := positiveInt(query.Get("limit"), rt.defaultPageSize)
	if limit > rt.maxPageSize {
		limit = rt.maxPageSize
	}

	total := len(entries)
	totalPages := (total + limit - 1) / limit
	// page can be any positive int; only multiply once it is known to be in range.
	start := total
	if page-1 < totalPages {
		start = (page - 1) * limit
	}
	end := min(start+limit, total)

	items := make([]EntryPayload, 0, end-start)
	for _, e := range entries[start:end] {
		items = append(items, entryPayload(ct, e))
	}

	return http.StatusOK, ListPayload{
		Entries:     items,
		ContentType: ct,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	}, nil
}

func (rt *Router) createEntry(ctx context.Context, ct *simplecms.ContentType, req Request) (int, any, error) {
	var body simplecms.CreateEntryRequest
	if err := decodeBody(req.Body, &body); err != nil {
		return 0, nil, err
	}
	body.ContentTypeID = ct.ID
	if req.AuthorID != "" {
		body.AuthorID = req.AuthorID
	}

	entry, err := rt.service.CreateEntry(ctx, body)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusCreated, entryPayload(ct, entry), nil
}

func (rt *Router) updateEntry(ctx context.Context, ct *simplecms.ContentType, id uuid.UUID, raw json.RawMessage) (int, any, error) {
	var body simplecms.UpdateEntryRequest
	if err := decodeBody(raw, &body); err != nil {
		return 0, nil, err
	}
	if _, err := rt.entryOfType(ctx, ct, id); err != nil {
		return 0, nil, err
	}
	body.ID = id

	entry, err := rt.service.UpdateEntry(ctx, body)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, entryPayload(ct, entry), nil
}

func decodeBody(raw json.RawMessage, v any) error {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return badRequest("Request body is required")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return badRequest("Invalid JSON body: " + err.Error())
	}
	return nil
}

func entryPayload(ct *simplecms.ContentType, entry *simplecms.ContentEntry) EntryPayload {
	return EntryPayload{ContentEntry: entry, Fields: ct.Resolve(entry)}
}

// positiveInt parses s, falling back to def for anything that is not an integer >= 1.
func positiveInt(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}
