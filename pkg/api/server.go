// Package api exposes the todo service as JSON over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"

	"github.com/astromechza/ordered-todos/pkg/todo"
)

// TodoService is the set of operations the handlers need.
type TodoService interface {
	List(ctx context.Context) ([]todo.Item, error)
	Get(ctx context.Context, id string) (todo.Item, error)
	Create(ctx context.Context, title string, order *int64) (todo.Item, error)
	Update(ctx context.Context, id, version string, patch todo.Patch) (todo.Item, error)
	Delete(ctx context.Context, id, version string) error
	Reorder(ctx context.Context, entries []todo.ReorderEntry) ([]todo.ReorderResult, error)
}

type Options struct {
	// CORS answers preflight requests and allows any origin, header and method.
	CORS bool
}

type CreateRequest struct {
	Title string `json:"title"`
	Order *int64 `json:"order,omitempty"`
}

type UpdateRequest struct {
	todo.Patch
	Version string `json:"version,omitempty"`
}

type ReorderRequest struct {
	Items []todo.ReorderEntry `json:"items"`
}

type ReorderResponse struct {
	Results []todo.ReorderResult `json:"results"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

const (
	CodeNotFound        = "not_found"
	CodeVersionMismatch = "version_mismatch"
	CodeValidation      = "validation"
	CodeUnavailable     = "unavailable"
	CodeInternal        = "internal"
)

type server struct {
	svc TodoService
}

// NewHandler builds the HTTP handler with request logging and optional CORS.
func NewHandler(svc TodoService, opts Options) http.Handler {
	s := &server{svc: svc}

	r := mux.NewRouter()
	r.Methods(http.MethodGet).Path("/health").HandlerFunc(s.health)
	r.Methods(http.MethodGet).Path("/api/todos").HandlerFunc(s.list)
	r.Methods(http.MethodPost).Path("/api/todos").HandlerFunc(s.create)
	r.Methods(http.MethodPost).Path("/api/todos/reorder").HandlerFunc(s.reorder)
	r.Methods(http.MethodGet).Path("/api/todos/{id}").HandlerFunc(s.get)
	r.Methods(http.MethodPut).Path("/api/todos/{id}").HandlerFunc(s.update)
	r.Methods(http.MethodDelete).Path("/api/todos/{id}").HandlerFunc(s.delete)

	var h http.Handler = r
	if opts.CORS {
		h = cors(h)
	}
	return logRequests(h)
}

func logRequests(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		m := httpsnoop.CaptureMetrics(handler, writer, request)
		slog.Info("handled", "method", request.Method, "url", request.URL, "duration", m.Duration, "status", m.Code)
	})
}

func cors(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		h := writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Expose-Headers", "ETag, Location")
		if request.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			if req := request.Header.Get("Access-Control-Request-Headers"); req != "" {
				h.Set("Access-Control-Allow-Headers", req)
			} else {
				h.Set("Access-Control-Allow-Headers", "*")
			}
			writer.WriteHeader(http.StatusNoContent)
			return
		}
		handler.ServeHTTP(writer, request)
	})
}

func (s *server) health(writer http.ResponseWriter, _ *http.Request) {
	writeJSON(writer, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) list(writer http.ResponseWriter, request *http.Request) {
	items, err := s.svc.List(request.Context())
	if err != nil {
		writeError(writer, err)
		return
	}
	writeJSON(writer, http.StatusOK, items)
}

func (s *server) get(writer http.ResponseWriter, request *http.Request) {
	item, err := s.svc.Get(request.Context(), mux.Vars(request)["id"])
	if err != nil {
		writeError(writer, err)
		return
	}
	writer.Header().Set("ETag", quoteETag(item.Version))
	writeJSON(writer, http.StatusOK, item)
}

func (s *server) create(writer http.ResponseWriter, request *http.Request) {
	var inputs CreateRequest
	if err := decodeBody(request, createSchema, &inputs); err != nil {
		writeError(writer, err)
		return
	}
	item, err := s.svc.Create(request.Context(), inputs.Title, inputs.Order)
	if err != nil {
		writeError(writer, err)
		return
	}
	writer.Header().Set("Location", "/api/todos/"+item.ID)
	writer.Header().Set("ETag", quoteETag(item.Version))
	writeJSON(writer, http.StatusCreated, item)
}

func (s *server) update(writer http.ResponseWriter, request *http.Request) {
	var inputs UpdateRequest
	if err := decodeBody(request, updateSchema, &inputs); err != nil {
		writeError(writer, err)
		return
	}
	version := parseETag(request.Header.Get("If-Match"))
	if version == "" {
		version = inputs.Version
	}
	if version == "" {
		writeJSON(writer, http.StatusPreconditionRequired, ErrorResponse{
			Error: "a version is required in If-Match or the body",
			Code:  CodeValidation,
		})
		return
	}
	item, err := s.svc.Update(request.Context(), mux.Vars(request)["id"], version, inputs.Patch)
	if err != nil {
		writeError(writer, err)
		return
	}
	writer.Header().Set("ETag", quoteETag(item.Version))
	writeJSON(writer, http.StatusOK, item)
}

func (s *server) delete(writer http.ResponseWriter, request *http.Request) {
	version := parseETag(request.Header.Get("If-Match"))
	if err := s.svc.Delete(request.Context(), mux.Vars(request)["id"], version); err != nil {
		writeError(writer, err)
		return
	}
	writer.WriteHeader(http.StatusNoContent)
}

func (s *server) reorder(writer http.ResponseWriter, request *http.Request) {
	var inputs ReorderRequest
	if err := decodeBody(request, reorderSchema, &inputs); err != nil {
		writeError(writer, err)
		return
	}
	results, err := s.svc.Reorder(request.Context(), inputs.Items)
	if err != nil {
		writeError(writer, err)
		return
	}
	writeJSON(writer, http.StatusOK, ReorderResponse{Results: results})
}

// StatusFor maps the error taxonomy onto HTTP status codes and error codes.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, todo.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, todo.ErrVersionMismatch):
		return http.StatusConflict, CodeVersionMismatch
	case errors.Is(err, todo.ErrValidation):
		return http.StatusBadRequest, CodeValidation
	case errors.Is(err, todo.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, CodeUnavailable
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func writeError(writer http.ResponseWriter, err error) {
	status, code := StatusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "err", err)
	} else {
		slog.Debug("request rejected", "code", code, "err", err)
	}
	writeJSON(writer, status, ErrorResponse{Error: err.Error(), Code: code})
}

func writeJSON(writer http.ResponseWriter, status int, body any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	if err := json.NewEncoder(writer).Encode(body); err != nil {
		slog.Error("failed to encode response", "err", err)
	}
}

func quoteETag(version string) string {
	return `"` + version + `"`
}

// parseETag accepts a quoted, weak or bare entity tag and returns the version inside it.
func parseETag(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "W/")
	return strings.Trim(v, `"`)
}
