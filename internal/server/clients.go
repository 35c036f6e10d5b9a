package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/advflow/advflow/internal/entity"
)

type createClientRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[createClientRequest](r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	c := &entity.Client{Name: strings.TrimSpace(req.Name)}
	if err := s.clients.Create(r.Context(), c); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.clients.List(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clients": clients})
}

func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	c, err := s.clients.GetByID(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleRenameClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	req, err := parseJSON[createClientRequest](r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if err := s.clients.Rename(r.Context(), id, strings.TrimSpace(req.Name)); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	if err := s.clients.Delete(r.Context(), id); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createCaseRequest struct {
	ClientID  uuid.UUID `json:"client_id"`
	Title     string    `json:"title"`
	Reference string    `json:"reference"`
}

func (s *Server) handleCreateCase(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[createCaseRequest](r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	c := &entity.Case{ClientID: req.ClientID, Title: strings.TrimSpace(req.Title), Reference: strings.TrimSpace(req.Reference)}
	if err := s.cases.Create(r.Context(), c); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleListCases(w http.ResponseWriter, r *http.Request) {
	clientID, err := pathUUID(r, "id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	cases, err := s.cases.ListByClient(r.Context(), clientID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cases": cases})
}

type updateCaseRequest struct {
	Title     string `json:"title"`
	Reference string `json:"reference"`
}

func (s *Server) handleUpdateCase(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	req, err := parseJSON[updateCaseRequest](r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if err := s.cases.Update(r.Context(), id, strings.TrimSpace(req.Title), strings.TrimSpace(req.Reference)); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteCase(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	if err := s.cases.Delete(r.Context(), id); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createFolderRequest struct {
	Name     string     `json:"name"`
	ClientID uuid.UUID  `json:"client_id"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[createFolderRequest](r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	f := &entity.Folder{
		Name:     strings.TrimSpace(req.Name),
		Kind:     entity.FolderKindSubfolder,
		ClientID: &req.ClientID,
		ParentID: req.ParentID,
	}
	if err := s.folders.Create(r.Context(), f); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (s *Server) handleListFolderChildren(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	children, err := s.folders.ListChildren(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"folders": children})
}

func (s *Server) handleRenameFolder(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	req, err := parseJSON[createClientRequest](r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if err := s.folders.Rename(r.Context(), id, strings.TrimSpace(req.Name)); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	if err := s.folders.Delete(r.Context(), id); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
