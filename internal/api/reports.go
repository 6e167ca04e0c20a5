package api

import (
	"net/http"
	"time"

	"github.com/warekit/scantrack/internal/domain/scanning"
)

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	jobID, ok := queryInt(r, "job_id")
	if !ok {
		s.respond(w, r, http.StatusBadRequest, errorResponse{Error: "job_id is required"})
		return
	}
	date, ok := queryDate(r, "date")
	if !ok {
		s.respond(w, r, http.StatusBadRequest, errorResponse{Error: "date is required (YYYY-MM-DD)"})
		return
	}

	filter := scanning.ReportFilter{Date: date, JobID: jobID, Notes: r.URL.Query().Get("notes")}
	if v, ok := queryInt(r, "sub_job_id"); ok {
		filter.SubJobID = &v
	}

	report, err := s.svcs.Reports.Generate(r.Context(), filter)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, report)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.svcs.Imports.ImportScans(r.Context(), req.Rows, req.UserID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	status := http.StatusOK
	if result.Failed > 0 {
		status = http.StatusMultiStatus
	}
	s.respond(w, r, status, result)
}

func (s *Server) handleAuditHistory(w http.ResponseWriter, r *http.Request) {
	filter := scanning.AuditFilter{
		ChangedBy: r.URL.Query().Get("changed_by"),
		Action:    scanning.AuditAction(r.URL.Query().Get("action")),
	}
	if v, ok := queryInt(r, "scan_record_id"); ok {
		filter.ScanRecordID = int64(v)
	}
	if v, ok := queryInt(r, "limit"); ok {
		filter.Limit = v
	}
	if t, ok := queryDate(r, "date"); ok {
		filter.Date = t
	}

	entries, err := s.svcs.Audit.History(r.Context(), filter)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, entries)
}

func (s *Server) handleAuditSummary(w http.ResponseWriter, r *http.Request) {
	date, ok := queryDate(r, "date")
	if !ok {
		date = time.Now()
	}

	summary, err := s.svcs.Audit.Summary(r.Context(), date)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, summary)
}
