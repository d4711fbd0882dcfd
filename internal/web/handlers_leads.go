package web

import (
	"net/http"

	"github.com/JonMunkholm/leadbook/internal/core"
)

// updateRequest is a partial lead plus the version the client last saw.
type updateRequest struct {
	core.LeadPatch
	UpdatedAt string `json:"updatedAt"`
}

// handleListLeads serves GET /api/leads?page=&city=&propertyType=&status=&timeline=&search=
func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	result, err := s.service.List(r.Context(), f, parseIntParam(r, "page", 1))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	var in core.LeadInput
	if err := decodeJSON(w, r, &in, maxJSONBody); err != nil {
		s.respondError(w, r, err)
		return
	}
	lead, err := s.service.Create(r.Context(), actor(r), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/leads/"+lead.ID.String())
	writeJSON(w, http.StatusCreated, lead)
}

func (s *Server) handleGetLead(w http.ResponseWriter, r *http.Request) {
	id, err := leadID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	detail, err := s.service.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// handleUpdateLead serves PATCH /api/leads/{id}. The body must include the
// updatedAt the client loaded; a stale value yields 409.
func (s *Server) handleUpdateLead(w http.ResponseWriter, r *http.Request) {
	id, err := leadID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req updateRequest
	if err := decodeJSON(w, r, &req, maxJSONBody); err != nil {
		s.respondError(w, r, err)
		return
	}
	expected, err := core.ParseVersion(req.UpdatedAt)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	lead, err := s.service.Update(r.Context(), actor(r), id, expected, req.LeadPatch)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (s *Server) handleDeleteLead(w http.ResponseWriter, r *http.Request) {
	id, err := leadID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.service.Delete(r.Context(), actor(r), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLeadHistory(w http.ResponseWriter, r *http.Request) {
	id, err := leadID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	entries, err := s.service.History(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": entries})
}
