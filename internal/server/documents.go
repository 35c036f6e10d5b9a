package server

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/advflow/advflow/constants"
	"github.com/advflow/advflow/internal/repository"
	"github.com/advflow/advflow/internal/upload"
)

// handleUpload accepts a multipart form: file (required), client_id
// (required), case_id, context ("true" marks a context document).
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxBytes := s.cfg.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = 50 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeErr(w, http.StatusBadRequest, "bad_request", "invalid multipart form: "+err.Error())
		return
	}

	clientID, err := uuid.Parse(r.FormValue("client_id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "validation_failed", "client_id must be a UUID")
		return
	}
	var caseID *uuid.UUID
	if raw := r.FormValue("case_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "validation_failed", "case_id must be a UUID")
			return
		}
		caseID = &id
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "validation_failed", "file field is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "bad_request", "read upload: "+err.Error())
		return
	}

	res, err := s.uploads.Upload(r.Context(), upload.Request{
		FileName: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Data:     data,
		ClientID: clientID,
		CaseID:   caseID,
		Context:  strings.EqualFold(r.FormValue("context"), "true"),
	})
	if err != nil {
		s.logger.Warn("upload failed", zap.String("file", header.Filename), zap.Error(err))
		writeDomainErr(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"document":           res.Document,
		"converted_to_pdf":   res.ConvertedToPDF,
		"ocr_applied":        res.OCRApplied,
		"extraction_task_id": res.ExtractionTaskID,
	})
}

func (s *Server) documentFilter(r *http.Request) (repository.DocumentFilter, error) {
	var f repository.DocumentFilter
	q := r.URL.Query()
	for name, dst := range map[string]**uuid.UUID{
		"client_id": &f.ClientID,
		"case_id":   &f.CaseID,
		"folder_id": &f.FolderID,
	} {
		if raw := q.Get(name); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return f, err
			}
			*dst = &id
		}
	}
	if raw := q.Get("category"); raw != "" {
		c := constants.DocCategory(raw)
		f.Category = &c
	}
	return f, nil
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	filter, err := s.documentFilter(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	docs, err := s.docs.List(r.Context(), filter)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleSearchDocuments(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeErr(w, http.StatusBadRequest, "validation_failed", "q is required")
		return
	}
	filter, err := s.documentFilter(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	docs, err := s.docs.Search(r.Context(), query, filter)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	doc, err := s.docs.GetByID(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

type renameDocumentRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleRenameDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	req, err := parseJSON[renameDocumentRequest](r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeErr(w, http.StatusBadRequest, "validation_failed", "name is required")
		return
	}
	if err := s.docs.UpdateName(r.Context(), id, name); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	doc, err := s.docs.GetByID(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if err := s.docs.Delete(r.Context(), id); err != nil {
		writeDomainErr(w, err)
		return
	}
	if err := s.store.Remove(r.Context(), doc.StoragePath); err != nil {
		s.logger.Warn("blob removal failed after delete",
			zap.String("key", doc.StoragePath), zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReprocess(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	taskID, err := s.uploads.Reprocess(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"task_id": taskID})
}

func (s *Server) handleDownloadURL(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	doc, err := s.docs.GetByID(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	url, err := s.store.SignedURL(r.Context(), doc.StoragePath, 15*time.Minute)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"url": url, "expires_in_seconds": 900})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	task, ok := s.registry.Get(id)
	if !ok {
		writeErr(w, http.StatusNotFound, "not_found", "task not found")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDocumentTasks(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": s.registry.ForDocument(id)})
}
