package api

import (
	"net/http"
)

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.svcs.Jobs.ListJobs(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, jobs)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		s.respond(w, r, http.StatusBadRequest, errorResponse{Error: "invalid job id"})
		return
	}

	job, err := s.svcs.Jobs.GetJob(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, job)
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if !s.decode(w, r, &req) {
		return
	}

	id, err := s.svcs.Jobs.CreateJob(r.Context(), req.Name)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusCreated, map[string]int{"id": id})
}

func (s *Server) handleRenameJob(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		s.respond(w, r, http.StatusBadRequest, errorResponse{Error: "invalid job id"})
		return
	}

	var req createJobRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.svcs.Jobs.RenameJob(r.Context(), id, req.Name); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusNoContent, nil)
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		s.respond(w, r, http.StatusBadRequest, errorResponse{Error: "invalid job id"})
		return
	}

	if err := s.svcs.Jobs.DeleteJob(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusNoContent, nil)
}

func (s *Server) handleListSubJobs(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		s.respond(w, r, http.StatusBadRequest, errorResponse{Error: "invalid job id"})
		return
	}

	subs, err := s.svcs.Jobs.ListSubJobs(r.Context(), id, queryBool(r, "active_only"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, subs)
}

func (s *Server) handleCreateSubJob(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		s.respond(w, r, http.StatusBadRequest, errorResponse{Error: "invalid job id"})
		return
	}

	var req createSubJobRequest
	if !s.decode(w, r, &req) {
		return
	}

	subID, err := s.svcs.Jobs.CreateSubJob(r.Context(), id, req.Name, req.Description)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusCreated, map[string]int{"id": subID})
}

func (s *Server) handleUpdateSubJob(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		s.respond(w, r, http.StatusBadRequest, errorResponse{Error: "invalid sub-job id"})
		return
	}

	var req createSubJobRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.svcs.Jobs.UpdateSubJob(r.Context(), id, req.Name, req.Description); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusNoContent, nil)
}

func (s *Server) handleDeleteSubJob(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		s.respond(w, r, http.StatusBadRequest, errorResponse{Error: "invalid sub-job id"})
		return
	}

	if err := s.svcs.Jobs.DeleteSubJob(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusNoContent, nil)
}

func (s *Server) handleActivateSubJob(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		s.respond(w, r, http.StatusBadRequest, errorResponse{Error: "invalid sub-job id"})
		return
	}

	if err := s.svcs.Jobs.ActivateSubJob(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusNoContent, nil)
}
