package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// validate checks incoming request bodies. Struct-level rules only; domain
// rules live in the validation package and the services.
var validate = validator.New(validator.WithRequiredStructEnabled())

type createScanRequest struct {
	Barcode  string `json:"barcode" validate:"required,min=3,max=50"`
	JobID    int    `json:"job_id" validate:"required,gt=0"`
	SubJobID *int   `json:"sub_job_id" validate:"required"`
	UserID   string `json:"user_id"`
	Notes    string `json:"notes" validate:"max=500"`
}

type updateScanRequest struct {
	Notes  string `json:"notes" validate:"max=500"`
	UserID string `json:"user_id" validate:"required"`
}

type createJobRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

type createSubJobRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type dependencyRequest struct {
	JobID         int `json:"job_id" validate:"required,gt=0"`
	RequiredJobID int `json:"required_job_id" validate:"required,gt=0"`
}

type saveDependenciesRequest struct {
	RequiredJobIDs []int `json:"required_job_ids" validate:"dive,gt=0"`
}

type importRequest struct {
	Rows   []map[string]string `json:"rows" validate:"required,min=1"`
	UserID string              `json:"user_id"`
}

// urlID parses the {id} route parameter.
func urlID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	return id, err == nil && id > 0
}

// urlID64 parses the {id} route parameter for 64-bit record ids.
func urlID64(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func queryInt(r *http.Request, key string) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	return v, err == nil
}

func queryBool(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && v
}

func queryDate(r *http.Request, key string) (time.Time, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", raw)
	return t, err == nil
}
