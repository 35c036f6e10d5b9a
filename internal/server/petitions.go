package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/advflow/advflow/internal/drafting"
	"github.com/advflow/advflow/internal/entity"
	"github.com/advflow/advflow/internal/llm"
)

type draftRequest struct {
	ClientID    uuid.UUID   `json:"client_id"`
	CaseID      *uuid.UUID  `json:"case_id,omitempty"`
	Mode        string      `json:"mode"`
	SubType     string      `json:"sub_type,omitempty"`
	DocumentIDs []uuid.UUID `json:"document_ids"`
	UserPrompt  string      `json:"user_prompt,omitempty"`
	Title       string      `json:"title,omitempty"`
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[draftRequest](r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	petition, err := s.drafts.Generate(r.Context(), drafting.Request{
		ClientID:    req.ClientID,
		CaseID:      req.CaseID,
		Mode:        llm.DraftMode(req.Mode),
		SubType:     req.SubType,
		DocumentIDs: req.DocumentIDs,
		UserPrompt:  req.UserPrompt,
		Title:       req.Title,
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, petition)
}

func (s *Server) handleListPetitions(w http.ResponseWriter, r *http.Request) {
	clientID, err := pathUUID(r, "id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	petitions, err := s.petitions.ListByClient(r.Context(), clientID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"petitions": petitions})
}

func (s *Server) handleGetPetition(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	p, err := s.petitions.GetByID(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type updatePetitionRequest struct {
	Content string `json:"content"`
	Status  string `json:"status"`
}

func (s *Server) handleUpdatePetition(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	req, err := parseJSON[updatePetitionRequest](r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	status := req.Status
	if status == "" {
		status = "draft"
	}
	if err := s.petitions.UpdateContent(r.Context(), id, req.Content, status); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeletePetition(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	if err := s.petitions.Delete(r.Context(), id); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetPrefs(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.PathValue("user"))
	if userID == "" {
		writeErr(w, http.StatusBadRequest, "validation_failed", "user is required")
		return
	}
	p, err := s.prefs.Get(r.Context(), userID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleSavePrefs(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.PathValue("user"))
	if userID == "" {
		writeErr(w, http.StatusBadRequest, "validation_failed", "user is required")
		return
	}
	p, err := parseJSON[entity.UserPrefs](r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	p.UserID = userID
	if p.Font.Family == "" {
		p.Font = entity.DefaultFontPrefs()
	}
	if err := s.prefs.Save(r.Context(), &p); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
