package server

import (
	"fmt"
	"net/http"

	"github.com/advflow/advflow/internal/export"
)

func serveArtifact(w http.ResponseWriter, art *export.Artifact) {
	w.Header().Set("Content-Type", art.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", art.FileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(art.Data)
}

// exportUser identifies whose prefs/assets drive the rendition. Single-tenant
// deployments leave it empty and share one profile.
func exportUser(r *http.Request) string {
	if u := r.URL.Query().Get("user"); u != "" {
		return u
	}
	return "default"
}

func (s *Server) handleExportDocx(w http.ResponseWriter, r *http.Request) {
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
	art, err := s.exports.ExportDocx(r.Context(), exportUser(r), p.Title, p.Content)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	serveArtifact(w, art)
}

func (s *Server) handleExportPdf(w http.ResponseWriter, r *http.Request) {
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
	art, err := s.exports.ExportPdf(r.Context(), exportUser(r), p.Title, p.Content)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	serveArtifact(w, art)
}

func (s *Server) handleInventoryXLSX(w http.ResponseWriter, r *http.Request) {
	clientID, err := pathUUID(r, "id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	art, err := s.exports.ExportInventoryXLSX(r.Context(), clientID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	serveArtifact(w, art)
}
