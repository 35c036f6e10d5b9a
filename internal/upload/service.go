// Package upload orchestrates document ingestion: OCR on original images,
// image-to-PDF conversion, blob storage, persistence, webhook extraction and
// the rename handoff.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/advflow/advflow/constants"
	"github.com/advflow/advflow/internal/common"
	"github.com/advflow/advflow/internal/entity"
	"github.com/advflow/advflow/internal/extraction"
	"github.com/advflow/advflow/internal/naming"
	"github.com/advflow/advflow/internal/ocr"
	"github.com/advflow/advflow/internal/repository"
	"github.com/advflow/advflow/internal/storage"
	"github.com/advflow/advflow/internal/tasks"
)

// RenameQueue is the scheduler surface the upload flow needs.
type RenameQueue interface {
	Enqueue(docID, clientID uuid.UUID) (uuid.UUID, error)
}

// ImageOCR is the local OCR surface; nil disables the OCR-first step.
type ImageOCR interface {
	Available() bool
	ExtractImageBytes(ctx context.Context, data []byte, ext string) (ocr.Result, error)
}

// Request describes one incoming file.
type Request struct {
	FileName string
	MimeType string
	Data     []byte
	ClientID uuid.UUID
	CaseID   *uuid.UUID
	// Context marks the file as a context document: it gets a
	// "Contexto n. NNN" label instead of going through LLM renaming.
	Context bool
}

// Result reports what the upload produced and which background tasks follow.
// Rename tasks appear in the task registry once extraction completes.
type Result struct {
	Document         *entity.Document
	ConvertedToPDF   bool
	OCRApplied       bool
	ExtractionTaskID *uuid.UUID
}

type Service struct {
	docs      repository.DocumentRepository
	clients   repository.ClientRepository
	cases     repository.CaseRepository
	folders   repository.FolderRepository
	store     storage.ObjectStore
	extractor extraction.Extractor
	imageOCR  ImageOCR
	renames   RenameQueue
	registry  *tasks.Registry
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(
	docs repository.DocumentRepository,
	clients repository.ClientRepository,
	cases repository.CaseRepository,
	folders repository.FolderRepository,
	store storage.ObjectStore,
	extractor extraction.Extractor,
	imageOCR ImageOCR,
	renames RenameQueue,
	registry *tasks.Registry,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		docs:      docs,
		clients:   clients,
		cases:     cases,
		folders:   folders,
		store:     store,
		extractor: extractor,
		imageOCR:  imageOCR,
		renames:   renames,
		registry:  registry,
		logger:    logger,
		now:       time.Now,
	}
}

// Upload runs the synchronous part of ingestion and kicks off extraction and
// renaming in the background. The returned document is already persisted.
func (s *Service) Upload(ctx context.Context, req Request) (*Result, error) {
	if len(req.Data) == 0 {
		return nil, common.WrapError(common.ErrValidation, "empty file")
	}
	if req.FileName == "" {
		return nil, common.WrapError(common.ErrValidation, "file name is required")
	}
	if _, err := s.clients.GetByID(ctx, req.ClientID); err != nil {
		return nil, fmt.Errorf("client lookup: %w", err)
	}

	mime := req.MimeType
	if mime == "" || mime == "application/octet-stream" {
		mime = constants.MimeTypeByExt(req.FileName)
	}

	res := &Result{}

	// OCR runs against the original image bytes, before any conversion:
	// rasterizing through a PDF only degrades what tesseract sees.
	var ocrText string
	if s.imageOCR != nil && constants.IsConvertibleImage(mime, req.FileName) && s.imageOCR.Available() {
		ext := constants.NormalizeExt(filepath.Ext(req.FileName))
		if ext == "" {
			ext = "img"
		}
		if r, err := s.imageOCR.ExtractImageBytes(ctx, req.Data, ext); err != nil {
			s.logger.Warn("image ocr failed, extraction webhook will cover it",
				"file_name", req.FileName, "error", err)
		} else if r.Text != "" {
			ocrText = r.Text
			res.OCRApplied = true
		}
	}

	data := req.Data
	storedName := req.FileName
	storedMime := mime
	if constants.IsConvertibleImage(mime, req.FileName) {
		if pdf, err := convertImageToPDF(req.Data, s.logger); err == nil {
			data = pdf
			storedName = pdfFileName(req.FileName)
			storedMime = "application/pdf"
			res.ConvertedToPDF = true
		}
	}

	caseID := req.CaseID
	if caseID == nil {
		def, err := s.cases.EnsureDefault(ctx, req.ClientID)
		if err != nil {
			return nil, fmt.Errorf("ensure default case: %w", err)
		}
		caseID = &def.ID
	}
	kase, err := s.cases.GetByID(ctx, *caseID)
	if err != nil {
		return nil, fmt.Errorf("case lookup: %w", err)
	}
	folder, err := s.folders.EnsureCaseFolder(ctx, req.ClientID, kase.ID, kase.Title)
	if err != nil {
		return nil, fmt.Errorf("ensure case folder: %w", err)
	}

	key := folder.Path + "/" + naming.StorageFileName(storedName, s.now())
	if err := s.store.Upload(ctx, key, storedMime, bytes.NewReader(data), int64(len(data))); err != nil {
		return nil, fmt.Errorf("store blob: %w", err)
	}

	category := constants.CategoryRegular
	if req.Context {
		category = constants.CategoryContext
	}
	doc := &entity.Document{
		Name:         req.FileName,
		OriginalName: req.FileName,
		ClientID:     &req.ClientID,
		CaseID:       caseID,
		FolderID:     &folder.ID,
		MimeType:     storedMime,
		Size:         int64(len(data)),
		StoragePath:  key,
		Category:     category,
	}
	if res.ConvertedToPDF {
		doc.Properties = map[string]string{
			"converted_from": mime,
		}
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		// The blob is orphaned otherwise.
		if derr := s.store.Remove(ctx, key); derr != nil {
			s.logger.Error("orphaned blob cleanup failed", "key", key, "error", derr)
		}
		return nil, fmt.Errorf("persist document: %w", err)
	}
	res.Document = doc

	if req.Context {
		if err := s.labelContext(ctx, doc); err != nil {
			s.logger.Error("context labeling failed", "document_id", doc.ID, "error", err)
		}
	}

	if ocrText != "" {
		if _, err := s.docs.SetExtractedText(ctx, doc.ID, ocrText, true); err != nil {
			s.logger.Error("ocr text persistence failed", "document_id", doc.ID, "error", err)
		} else {
			doc.ExtractedText = &ocrText
			doc.OCROrigin = true
		}
	}

	s.startPipeline(doc, storedMime, res)

	s.logger.Info("upload accepted",
		"document_id", doc.ID,
		"client_id", req.ClientID,
		"file_name", req.FileName,
		"converted", res.ConvertedToPDF,
		"ocr_applied", res.OCRApplied,
		"context", req.Context,
	)
	return res, nil
}

// Reprocess re-runs extraction and, for regular documents, renaming against
// the stored blob. Used by the reprocess endpoint and the one-shot CLI.
func (s *Service) Reprocess(ctx context.Context, docID uuid.UUID) (uuid.UUID, error) {
	doc, err := s.docs.GetByID(ctx, docID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("document lookup: %w", err)
	}
	res := &Result{ConvertedToPDF: doc.Properties["converted_from"] != ""}
	s.startPipeline(doc, doc.MimeType, res)
	s.logger.Info("reprocess started", "document_id", doc.ID, "task_id", *res.ExtractionTaskID)
	return *res.ExtractionTaskID, nil
}

// labelContext assigns the next "Contexto n. NNN" label. Context numbering is
// independent from the DOC sequence.
func (s *Service) labelContext(ctx context.Context, doc *entity.Document) error {
	n, err := s.docs.CountContext(ctx, *doc.ClientID)
	if err != nil {
		return err
	}
	label := naming.FormatContextLabel(n)
	if err := s.docs.UpdateName(ctx, doc.ID, label); err != nil {
		return err
	}
	doc.Name = label
	return nil
}

// startPipeline launches webhook extraction and, for regular documents, the
// rename handoff. It runs detached from the request context: the upload
// response does not wait for either.
func (s *Service) startPipeline(doc *entity.Document, storedMime string, res *Result) {
	extTask := s.registry.Start(doc.ID, constants.TaskKindExtraction)
	res.ExtractionTaskID = &extTask

	converted := res.ConvertedToPDF
	hasText := doc.ExtractedText != nil && *doc.ExtractedText != ""
	go func() {
		ctx := context.Background()
		s.registry.Running(extTask)

		text, err := s.extractor.Extract(ctx, extraction.Request{
			FileURL:           s.store.PublicURL(doc.StoragePath),
			MimeType:          storedMime,
			FileName:          doc.OriginalName,
			DocumentID:        doc.ID,
			ForceForConverted: converted,
		})
		switch {
		case errors.Is(err, extraction.ErrUnsupportedMime):
			s.registry.Skip(extTask, "mime type not supported for extraction")
		case err != nil:
			s.registry.Finish(extTask, err)
		case text == "":
			// Empty webhook output means no data, not an empty document.
			s.logger.Debug("webhook returned no text", "document_id", doc.ID)
			s.registry.Finish(extTask, nil)
		default:
			// OCR text wins: the guarded update drops webhook text when OCR
			// already populated the document.
			applied, perr := s.docs.SetExtractedText(ctx, doc.ID, text, false)
			if perr != nil {
				s.registry.Finish(extTask, perr)
				break
			}
			if applied {
				hasText = true
			} else {
				s.logger.Debug("webhook text discarded, ocr text present", "document_id", doc.ID)
			}
			s.registry.Finish(extTask, nil)
		}

		if doc.Category == constants.CategoryContext || s.renames == nil || doc.ClientID == nil {
			return
		}
		// Renaming is text-driven: a document neither OCR nor the webhook
		// could read keeps its original filename.
		if !hasText {
			s.logger.Info("no extracted text, keeping original name", "document_id", doc.ID)
			return
		}
		// The rename task id is only observable through the registry: the
		// upload response has long been sent by the time extraction ends.
		if _, rerr := s.renames.Enqueue(doc.ID, *doc.ClientID); rerr != nil {
			s.logger.Error("rename enqueue failed", "document_id", doc.ID, "error", rerr)
		}
	}()
}
