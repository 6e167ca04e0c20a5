package api

import (
	"net/http"

	"github.com/warekit/scantrack/internal/domain/scanning"
)

type scanResponse struct {
	Outcome    string      `json:"outcome"`
	Message    string      `json:"message"`
	Record     *scanRecord `json:"record,omitempty"`
	MissingJob string      `json:"missing_job,omitempty"`
	Duplicate  *scanRecord `json:"duplicate,omitempty"`
	Errors     []string    `json:"errors,omitempty"`
}

type scanRecord struct {
	ID         int64  `json:"id"`
	Barcode    string `json:"barcode"`
	ScanDate   string `json:"scan_date"`
	JobID      int    `json:"job_id"`
	SubJobID   *int   `json:"sub_job_id,omitempty"`
	JobName    string `json:"job_name,omitempty"`
	SubJobName string `json:"sub_job_name,omitempty"`
	UserID     string `json:"user_id"`
	Notes      string `json:"notes,omitempty"`
}

func toScanRecord(s *scanning.ScanLog) *scanRecord {
	if s == nil {
		return nil
	}
	return &scanRecord{
		ID:         s.ID,
		Barcode:    s.Barcode,
		ScanDate:   s.ScanDate.Format("2006-01-02T15:04:05Z07:00"),
		JobID:      s.JobID,
		SubJobID:   s.SubJobID,
		JobName:    s.JobName,
		SubJobName: s.SubJobName,
		UserID:     s.UserID,
		Notes:      s.Notes,
	}
}

func (s *Server) handleCreateScan(w http.ResponseWriter, r *http.Request) {
	var req createScanRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.svcs.Scans.ProcessScan(r.Context(), scanning.ScanRequest{
		Barcode:  req.Barcode,
		JobID:    req.JobID,
		SubJobID: req.SubJobID,
		UserID:   req.UserID,
		Notes:    req.Notes,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	body := scanResponse{
		Outcome:    result.Outcome.String(),
		Message:    result.Message,
		Record:     toScanRecord(result.Record),
		MissingJob: result.MissingJob,
		Duplicate:  toScanRecord(result.Duplicate),
		Errors:     result.Errors,
	}

	status := http.StatusCreated
	switch result.Outcome {
	case scanning.ScanRejectedValidation:
		status = http.StatusUnprocessableEntity
	case scanning.ScanRejectedDependency, scanning.ScanRejectedDuplicate:
		status = http.StatusConflict
	}
	s.respond(w, r, status, body)
}

func (s *Server) handleScanHistory(w http.ResponseWriter, r *http.Request) {
	filter := scanning.HistoryFilter{
		Barcode: r.URL.Query().Get("barcode"),
		UserID:  r.URL.Query().Get("user_id"),
		Notes:   r.URL.Query().Get("notes"),
	}
	if v, ok := queryInt(r, "job_id"); ok {
		filter.JobID = v
	}
	if v, ok := queryInt(r, "sub_job_id"); ok {
		filter.SubJobID = v
	}
	if v, ok := queryInt(r, "limit"); ok {
		filter.Limit = v
	}
	if t, ok := queryDate(r, "start_date"); ok {
		filter.StartDate = t
	}
	if t, ok := queryDate(r, "end_date"); ok {
		filter.EndDate = t
	}
	filter.TodayOnly = queryBool(r, "today")

	entries, err := s.svcs.Scans.GetScanHistory(r.Context(), filter)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, entries)
}

func (s *Server) handleTodaySummary(w http.ResponseWriter, r *http.Request) {
	jobID, ok := queryInt(r, "job_id")
	if !ok {
		s.respond(w, r, http.StatusBadRequest, errorResponse{Error: "job_id is required"})
		return
	}

	var subJobID *int
	if v, ok := queryInt(r, "sub_job_id"); ok {
		subJobID = &v
	}

	summary, err := s.svcs.Scans.GetTodaySummary(r.Context(), jobID, subJobID, r.URL.Query().Get("notes"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, summary)
}

func (s *Server) handleUpdateScan(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID64(r)
	if !ok {
		s.respond(w, r, http.StatusBadRequest, errorResponse{Error: "invalid scan id"})
		return
	}

	var req updateScanRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.svcs.Scans.UpdateScanRecord(r.Context(), id, req.Notes, req.UserID); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusNoContent, nil)
}

func (s *Server) handleDeleteScan(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID64(r)
	if !ok {
		s.respond(w, r, http.StatusBadRequest, errorResponse{Error: "invalid scan id"})
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		s.respond(w, r, http.StatusBadRequest, errorResponse{Error: "user_id is required"})
		return
	}

	if err := s.svcs.Scans.DeleteScanRecord(r.Context(), id, userID); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusNoContent, nil)
}
