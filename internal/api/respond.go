package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/warekit/scantrack/internal/domain/scanning"
)

type errorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error(r.Context(), "failed to encode response", "error", err)
	}
}

// respondError maps domain errors to HTTP statuses: absent resources to 404,
// conflicting state to 409, anything unexpected to 500.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, len(verrs))
		for i, fe := range verrs {
			fields[i] = fe.Namespace() + ": failed " + fe.Tag()
		}
		s.respond(w, r, http.StatusBadRequest, errorResponse{Error: "invalid request", Fields: fields})
		return
	}

	switch {
	case errors.Is(err, scanning.ErrJobTypeNotFound),
		errors.Is(err, scanning.ErrSubJobNotFound),
		errors.Is(err, scanning.ErrScanNotFound),
		errors.Is(err, scanning.ErrDependencyNotFound):
		s.respond(w, r, http.StatusNotFound, errorResponse{Error: err.Error()})

	case errors.Is(err, scanning.ErrDuplicateJobName),
		errors.Is(err, scanning.ErrDuplicateSubJobName),
		errors.Is(err, scanning.ErrDuplicateDependency),
		errors.Is(err, scanning.ErrSelfDependency),
		errors.Is(err, scanning.ErrCircularDependency),
		errors.Is(err, scanning.ErrScanHasDependents):
		s.respond(w, r, http.StatusConflict, errorResponse{Error: err.Error()})

	default:
		s.log.Error(r.Context(), "request failed", "error", err, "path", r.URL.Path)
		s.respond(w, r, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.respond(w, r, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	if err := validate.Struct(dst); err != nil {
		s.respondError(w, r, err)
		return false
	}
	return true
}
