package api

import (
	"net/http"
)

func (s *Server) handleListDependencies(w http.ResponseWriter, r *http.Request) {
	edges, err := s.svcs.Dependencies.List(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, edges)
}

func (s *Server) handleAddDependency(w http.ResponseWriter, r *http.Request) {
	var req dependencyRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.svcs.Dependencies.Add(r.Context(), req.JobID, req.RequiredJobID); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusCreated, nil)
}

func (s *Server) handleRemoveDependency(w http.ResponseWriter, r *http.Request) {
	var req dependencyRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.svcs.Dependencies.Remove(r.Context(), req.JobID, req.RequiredJobID); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusNoContent, nil)
}

func (s *Server) handleSaveDependencies(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		s.respond(w, r, http.StatusBadRequest, errorResponse{Error: "invalid job id"})
		return
	}

	var req saveDependenciesRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.svcs.Dependencies.Save(r.Context(), id, req.RequiredJobIDs); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusNoContent, nil)
}

func (s *Server) handleDependencyStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		s.respond(w, r, http.StatusBadRequest, errorResponse{Error: "invalid job id"})
		return
	}

	statuses, err := s.svcs.Dependencies.RequiredJobsWithStatus(r.Context(), id, queryBool(r, "today"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, statuses)
}
