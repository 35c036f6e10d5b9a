// Package server exposes the HTTP API: uploads, document/client/case/folder
// CRUD, drafting, exports and task inspection.
package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/advflow/advflow/internal/common"
	"github.com/advflow/advflow/internal/drafting"
	"github.com/advflow/advflow/internal/entity"
	"github.com/advflow/advflow/internal/export"
	"github.com/advflow/advflow/internal/repository"
	"github.com/advflow/advflow/internal/storage"
	"github.com/advflow/advflow/internal/tasks"
	"github.com/advflow/advflow/internal/upload"
)

// Uploader is the ingestion surface the handlers need.
type Uploader interface {
	Upload(ctx context.Context, req upload.Request) (*upload.Result, error)
	Reprocess(ctx context.Context, docID uuid.UUID) (uuid.UUID, error)
}

// Drafts runs one drafting pass.
type Drafts interface {
	Generate(ctx context.Context, req drafting.Request) (*entity.Petition, error)
}

// Exports produces downloadable artifacts.
type Exports interface {
	ExportDocx(ctx context.Context, userID, title, text string) (*export.Artifact, error)
	ExportPdf(ctx context.Context, userID, title, text string) (*export.Artifact, error)
	ExportInventoryXLSX(ctx context.Context, clientID uuid.UUID) (*export.Artifact, error)
}

type Server struct {
	cfg common.ServerConfig

	uploads   Uploader
	drafts    Drafts
	exports   Exports
	docs      repository.DocumentRepository
	clients   repository.ClientRepository
	cases     repository.CaseRepository
	folders   repository.FolderRepository
	petitions repository.PetitionRepository
	prefs     repository.PrefsRepository
	store     storage.ObjectStore
	registry  *tasks.Registry

	uploadSem *semaphore.Weighted
	logger    *zap.Logger
}

type Deps struct {
	Uploads   Uploader
	Drafts    Drafts
	Exports   Exports
	Docs      repository.DocumentRepository
	Clients   repository.ClientRepository
	Cases     repository.CaseRepository
	Folders   repository.FolderRepository
	Petitions repository.PetitionRepository
	Prefs     repository.PrefsRepository
	Store     storage.ObjectStore
	Registry  *tasks.Registry
}

func New(cfg common.ServerConfig, deps Deps, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxUploads := cfg.MaxUploads
	if maxUploads <= 0 {
		maxUploads = 8
	}
	return &Server{
		cfg:       cfg,
		uploads:   deps.Uploads,
		drafts:    deps.Drafts,
		exports:   deps.Exports,
		docs:      deps.Docs,
		clients:   deps.Clients,
		cases:     deps.Cases,
		folders:   deps.Folders,
		petitions: deps.Petitions,
		prefs:     deps.Prefs,
		store:     deps.Store,
		registry:  deps.Registry,
		uploadSem: semaphore.NewWeighted(maxUploads),
		logger:    logger,
	}
}

// Handler builds the routed handler wrapped with the outer middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /v1/documents", s.withUploadSlot(s.handleUpload))
	mux.HandleFunc("GET /v1/documents", s.handleListDocuments)
	mux.HandleFunc("GET /v1/documents/search", s.handleSearchDocuments)
	mux.HandleFunc("GET /v1/documents/{id}", s.handleGetDocument)
	mux.HandleFunc("PATCH /v1/documents/{id}", s.handleRenameDocument)
	mux.HandleFunc("DELETE /v1/documents/{id}", s.handleDeleteDocument)
	mux.HandleFunc("POST /v1/documents/{id}/reprocess", s.handleReprocess)
	mux.HandleFunc("GET /v1/documents/{id}/download-url", s.handleDownloadURL)

	mux.HandleFunc("POST /v1/clients", s.handleCreateClient)
	mux.HandleFunc("GET /v1/clients", s.handleListClients)
	mux.HandleFunc("GET /v1/clients/{id}", s.handleGetClient)
	mux.HandleFunc("PATCH /v1/clients/{id}", s.handleRenameClient)
	mux.HandleFunc("DELETE /v1/clients/{id}", s.handleDeleteClient)
	mux.HandleFunc("GET /v1/clients/{id}/inventory.xlsx", s.handleInventoryXLSX)

	mux.HandleFunc("POST /v1/cases", s.handleCreateCase)
	mux.HandleFunc("GET /v1/clients/{id}/cases", s.handleListCases)
	mux.HandleFunc("PATCH /v1/cases/{id}", s.handleUpdateCase)
	mux.HandleFunc("DELETE /v1/cases/{id}", s.handleDeleteCase)

	mux.HandleFunc("POST /v1/folders", s.handleCreateFolder)
	mux.HandleFunc("GET /v1/folders/{id}/children", s.handleListFolderChildren)
	mux.HandleFunc("PATCH /v1/folders/{id}", s.handleRenameFolder)
	mux.HandleFunc("DELETE /v1/folders/{id}", s.handleDeleteFolder)

	mux.HandleFunc("POST /v1/drafts", s.handleDraft)
	mux.HandleFunc("GET /v1/clients/{id}/petitions", s.handleListPetitions)
	mux.HandleFunc("GET /v1/petitions/{id}", s.handleGetPetition)
	mux.HandleFunc("PATCH /v1/petitions/{id}", s.handleUpdatePetition)
	mux.HandleFunc("DELETE /v1/petitions/{id}", s.handleDeletePetition)
	mux.HandleFunc("GET /v1/petitions/{id}/export.docx", s.handleExportDocx)
	mux.HandleFunc("GET /v1/petitions/{id}/export.pdf", s.handleExportPdf)

	mux.HandleFunc("GET /v1/prefs/{user}", s.handleGetPrefs)
	mux.HandleFunc("PUT /v1/prefs/{user}", s.handleSavePrefs)

	mux.HandleFunc("GET /v1/tasks/{id}", s.handleGetTask)
	mux.HandleFunc("GET /v1/documents/{id}/tasks", s.handleDocumentTasks)

	return s.withLogging(s.withRecovery(mux))
}

// HTTPServer wraps the handler in a configured http.Server.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
}
