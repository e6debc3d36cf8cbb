package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
)

const maxBodyBytes = 1 << 20

// Routes returns the public content API. Mount it at the server root; every
// request under /api/ goes through Dispatch.
func (rt *Router) Routes(ja *jwtauth.JWTAuth) chi.Router {
	r := chi.NewRouter()
	r.Use(VerifyToken(ja))
	r.HandleFunc("/api", rt.ServeDispatch)
	r.HandleFunc("/api/*", rt.ServeDispatch)
	return r
}

// ServeDispatch adapts an HTTP request to Dispatch.
func (rt *Router) ServeDispatch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeResponse(w, r, failure(http.StatusBadRequest, CodeBadRequest, "Request body could not be read", nil))
		return
	}

	resp := rt.Dispatch(r.Context(), Request{
		Method:   r.Method,
		Path:     r.URL.Path,
		Body:     json.RawMessage(body),
		Query:    r.URL.Query(),
		AuthorID: AuthorFromContext(r.Context()),
	})
	writeResponse(w, r, resp)
}

func writeResponse(w http.ResponseWriter, r *http.Request, resp Response) {
	render.Status(r, resp.Status)
	render.JSON(w, r, resp.Envelope)
}

// handlerFunc is an envelope-producing handler.
type handlerFunc func(ctx context.Context, r *http.Request) (int, any, error)

// handle renders fn's result the same way Dispatch does, including panic recovery.
func (rt *Router) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := rt.safely(r, fn)
		writeResponse(w, r, resp)
	}
}

func (rt *Router) safely(r *http.Request, fn handlerFunc) (resp Response) {
	ctx := r.Context()
	defer func() {
		if p := recover(); p != nil {
			rt.logger.ErrorContext(ctx, "Panic while handling request",
				"method", r.Method, "path", r.URL.Path, "panic", p)
			resp = failure(http.StatusInternalServerError, CodeInternal, "Internal server error", nil)
		}
	}()

	status, data, err := fn(ctx, r)
	if err != nil {
		return rt.errorResponse(ctx, r.Method, r.URL.Path, err)
	}
	return success(status, data)
}

func readBody(r *http.Request, v any) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return badRequest("Request body could not be read")
	}
	return decodeBody(raw, v)
}
