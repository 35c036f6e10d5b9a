package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/advflow/advflow/constants"
	"github.com/advflow/advflow/internal/entity"
	"github.com/advflow/advflow/internal/naming"
	"github.com/advflow/advflow/internal/repository"
	"github.com/advflow/advflow/internal/storage"
)

// Service is a tiny façade over repositories and the blob store that produces
// export artifacts: DOCX/PDF renditions of drafted text and the XLSX
// document inventory.
type Service struct {
	docs    repository.DocumentRepository
	clients repository.ClientRepository
	prefs   repository.PrefsRepository
	store   storage.ObjectStore
	logger  *slog.Logger
}

func NewService(docs repository.DocumentRepository, clients repository.ClientRepository, prefs repository.PrefsRepository, store storage.ObjectStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{docs: docs, clients: clients, prefs: prefs, store: store, logger: logger}
}

// Artifact is a downloadable file: content plus the name to serve it under.
type Artifact struct {
	FileName    string
	ContentType string
	Data        []byte
}

const (
	docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	pdfContentType  = "application/pdf"
)

// ExportDocx renders text with the user's font preferences. When the user
// has a DOCX letterhead configured, the rendition is built into it.
func (s *Service) ExportDocx(ctx context.Context, userID, title, text string) (*Artifact, error) {
	prefs := s.loadPrefs(ctx, userID)
	var template []byte
	if prefs.LetterheadPath != nil {
		template = s.loadAsset(ctx, *prefs.LetterheadPath, "letterhead")
	}
	data, err := BuildDocx(text, DocxOptions{Title: title, Font: prefs.Font, Template: template})
	if err != nil && template != nil {
		s.logger.Warn("letterhead template unusable, exporting plain docx", "error", err)
		data, err = BuildDocx(text, DocxOptions{Title: title, Font: prefs.Font})
	}
	if err != nil {
		return nil, fmt.Errorf("build docx: %w", err)
	}
	return &Artifact{
		FileName:    naming.ExportFileName(title, "docx", time.Now()),
		ContentType: docxContentType,
		Data:        data,
	}, nil
}

// ExportPdf renders text as PDF, layering the letterhead template and
// signature image when the user has them configured.
func (s *Service) ExportPdf(ctx context.Context, userID, title, text string) (*Artifact, error) {
	prefs := s.loadPrefs(ctx, userID)
	opts := PdfOptions{Font: prefs.Font, Logger: s.logger}
	if prefs.LetterheadPath != nil {
		opts.TemplatePDF = s.loadAsset(ctx, *prefs.LetterheadPath, "letterhead")
	}
	if prefs.SignaturePath != nil {
		opts.SignaturePNG = s.loadAsset(ctx, *prefs.SignaturePath, "signature")
	}
	data, err := BuildPdf(text, opts)
	if err != nil {
		return nil, fmt.Errorf("build pdf: %w", err)
	}
	return &Artifact{
		FileName:    naming.ExportFileName(title, "pdf", time.Now()),
		ContentType: pdfContentType,
		Data:        data,
	}, nil
}

// ExportInventoryXLSX returns an XLSX workbook listing every document of the
// client, one row per document.
func (s *Service) ExportInventoryXLSX(ctx context.Context, clientID uuid.UUID) (*Artifact, error) {
	start := time.Now()

	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("client lookup: %w", err)
	}
	docs, err := s.docs.List(ctx, repository.DocumentFilter{ClientID: &clientID})
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Documentos"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if index, _ := f.GetSheetIndex("Sheet1"); index != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{
		"Nome",
		"Nome original",
		"Tipo",
		"Categoria",
		"Data de upload",
		"Tamanho (bytes)",
		"Caminho",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, d := range docs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, d.Name)
		write(2, d.OriginalName)
		write(3, docTypeCell(d))
		write(4, categoryCell(d.Category))
		if !d.CreatedAt.IsZero() {
			write(5, d.CreatedAt.Format("2006-01-02"))
		} else {
			write(5, "")
		}
		write(6, d.Size)
		write(7, d.StoragePath)

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 48) // canonical name
	_ = f.SetColWidth(sheet, "B", "B", 32) // original name
	_ = f.SetColWidth(sheet, "C", "C", 24) // type
	_ = f.SetColWidth(sheet, "D", "D", 12) // category
	_ = f.SetColWidth(sheet, "E", "E", 14) // date
	_ = f.SetColWidth(sheet, "F", "F", 14) // size
	_ = f.SetColWidth(sheet, "G", "G", 60) // path

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"client_id", clientID.String(),
		"rows", len(docs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &Artifact{
		FileName:    naming.ExportFileName("inventario-"+client.Name, "xlsx", time.Now()),
		ContentType: xlsxContentType,
		Data:        buf.Bytes(),
	}, nil
}

// docTypeCell surfaces the document type when the name is canonical, falling
// back to a taxonomy scan of free-form names, then the mime type.
func docTypeCell(d *entity.Document) string {
	if n, ok := naming.Parse(d.Name); ok {
		return n.Type
	}
	if t, ok := constants.ScanDocType(d.Name); ok {
		return string(t)
	}
	return d.MimeType
}

func categoryCell(c constants.DocCategory) string {
	switch c {
	case constants.CategoryContext:
		return "Contexto"
	case constants.CategoryGenerated:
		return "Gerado"
	default:
		return "Regular"
	}
}

func (s *Service) loadPrefs(ctx context.Context, userID string) entity.UserPrefs {
	p, err := s.prefs.Get(ctx, userID)
	if err != nil {
		s.logger.Warn("prefs lookup failed, using defaults", "user_id", userID, "error", err)
		return entity.UserPrefs{Font: entity.DefaultFontPrefs()}
	}
	return *p
}

// loadAsset fetches a letterhead/signature blob; missing assets degrade to
// the plain rendition rather than failing the export.
func (s *Service) loadAsset(ctx context.Context, key, kind string) []byte {
	rc, err := s.store.Download(ctx, key)
	if err != nil {
		s.logger.Warn("asset fetch failed", "kind", kind, "key", key, "error", err)
		return nil
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		s.logger.Warn("asset read failed", "kind", kind, "key", key, "error", err)
		return nil
	}
	return b
}
