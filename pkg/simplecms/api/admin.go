package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	"github.com/tendant/simple-cms/pkg/simplecms"
)

// ScheduleRequest is the body of POST /admin/entries/{id}/schedule.
type ScheduleRequest struct {
	ScheduledAt *time.Time `json:"scheduledAt"`
}

// AdminRoutes returns schema management and workflow routes. Mount at /admin.
func (rt *Router) AdminRoutes(ja *jwtauth.JWTAuth) chi.Router {
	r := chi.NewRouter()
	r.Use(RequireToken(ja))

	r.Route("/content-types", func(r chi.Router) {
		r.Get("/", rt.handle(rt.listContentTypes))
		r.Post("/", rt.handle(rt.createContentType))
		r.Get("/{id}", rt.handle(rt.getContentType))
		r.Put("/{id}", rt.handle(rt.updateContentType))
		r.Delete("/{id}", rt.handle(rt.deleteContentType))
	})

	r.Route("/entries", func(r chi.Router) {
		r.Get("/due", rt.handle(rt.dueEntries))
		r.Post("/{id}/publish", rt.handle(rt.workflow(rt.service.Publish)))
		r.Post("/{id}/unpublish", rt.handle(rt.workflow(rt.service.Unpublish)))
		r.Post("/{id}/unschedule", rt.handle(rt.workflow(rt.service.Unschedule)))
		r.Post("/{id}/archive", rt.handle(rt.workflow(rt.service.Archive)))
		r.Post("/{id}/schedule", rt.handle(rt.schedule))
	})

	return r
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, badRequest("Invalid id")
	}
	return id, nil
}

func (rt *Router) listContentTypes(ctx context.Context, _ *http.Request) (int, any, error) {
	types, err := rt.service.ListContentTypes(ctx)
	if err != nil {
		return 0, nil, err
	}
	if types == nil {
		types = []*simplecms.ContentType{}
	}
	return http.StatusOK, types, nil
}

func (rt *Router) createContentType(ctx context.Context, r *http.Request) (int, any, error) {
	var req simplecms.CreateContentTypeRequest
	if err := readBody(r, &req); err != nil {
		return 0, nil, err
	}
	ct, err := rt.service.CreateContentType(ctx, req)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusCreated, ct, nil
}

func (rt *Router) getContentType(ctx context.Context, r *http.Request) (int, any, error) {
	id, err := pathID(r)
	if err != nil {
		return 0, nil, err
	}
	ct, err := rt.service.GetContentType(ctx, id)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, ct, nil
}

func (rt *Router) updateContentType(ctx context.Context, r *http.Request) (int, any, error) {
	id, err := pathID(r)
	if err != nil {
		return 0, nil, err
	}
	var req simplecms.UpdateContentTypeRequest
	if err := readBody(r, &req); err != nil {
		return 0, nil, err
	}
	req.ID = id
	ct, err := rt.service.UpdateContentType(ctx, req)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, ct, nil
}

func (rt *Router) deleteContentType(ctx context.Context, r *http.Request) (int, any, error) {
	id, err := pathID(r)
	if err != nil {
		return 0, nil, err
	}
	deleted, err := rt.service.DeleteContentType(ctx, id)
	if err != nil {
		return 0, nil, err
	}
	if !deleted {
		return 0, nil, notFound("Content type not found")
	}
	return http.StatusOK, map[string]any{"id": id, "deleted": true}, nil
}

func (rt *Router) dueEntries(ctx context.Context, r *http.Request) (int, any, error) {
	at := rt.now()
	if raw := r.URL.Query().Get("at"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return 0, nil, badRequest("Query parameter at must be an RFC3339 timestamp")
		}
		at = t
	}
	entries, err := rt.service.FindDue(ctx, at)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, rt.resolveAll(ctx, entries), nil
}

// workflow wraps a single-argument transition as a handler.
func (rt *Router) workflow(action func(context.Context, uuid.UUID) (*simplecms.ContentEntry, error)) handlerFunc {
	return func(ctx context.Context, r *http.Request) (int, any, error) {
		id, err := pathID(r)
		if err != nil {
			return 0, nil, err
		}
		entry, err := action(ctx, id)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, rt.resolve(ctx, entry), nil
	}
}

func (rt *Router) schedule(ctx context.Context, r *http.Request) (int, any, error) {
	id, err := pathID(r)
	if err != nil {
		return 0, nil, err
	}
	var req ScheduleRequest
	if err := readBody(r, &req); err != nil {
		return 0, nil, err
	}
	if req.ScheduledAt == nil {
		return 0, nil, badRequest("scheduledAt is required")
	}
	entry, err := rt.service.Schedule(ctx, id, *req.ScheduledAt)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, rt.resolve(ctx, entry), nil
}

// resolve builds the payload for an entry whose type is not at hand. An
// orphaned entry gets an empty field view.
func (rt *Router) resolve(ctx context.Context, entry *simplecms.ContentEntry) EntryPayload {
	fields, err := rt.service.ResolveFields(ctx, entry)
	if err != nil {
		rt.logger.WarnContext(ctx, "Failed to resolve entry fields", "entry_id", entry.ID, "error", err)
		fields = map[string]string{}
	}
	return EntryPayload{ContentEntry: entry, Fields: fields}
}

func (rt *Router) resolveAll(ctx context.Context, entries []*simplecms.ContentEntry) []EntryPayload {
	payloads := make([]EntryPayload, 0, len(entries))
	for _, e := range entries {
		payloads = append(payloads, rt.resolve(ctx, e))
	}
	return payloads
}
