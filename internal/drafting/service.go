// Package drafting turns a selection of a client's documents into an
// AI-drafted legal artifact (facts summary, petition, power of attorney or
// contract) and persists it as a petition record.
package drafting

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/advflow/advflow/constants"
	"github.com/advflow/advflow/internal/common"
	"github.com/advflow/advflow/internal/entity"
	"github.com/advflow/advflow/internal/llm"
	"github.com/advflow/advflow/internal/naming"
	"github.com/advflow/advflow/internal/repository"
)

// Request selects the inputs for one drafting run.
type Request struct {
	ClientID    uuid.UUID
	CaseID      *uuid.UUID
	Mode        llm.DraftMode
	SubType     string
	DocumentIDs []uuid.UUID
	UserPrompt  string
	Title       string
}

type Service struct {
	docs      repository.DocumentRepository
	clients   repository.ClientRepository
	cases     repository.CaseRepository
	petitions repository.PetitionRepository
	drafter   llm.Drafter
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(
	docs repository.DocumentRepository,
	clients repository.ClientRepository,
	cases repository.CaseRepository,
	petitions repository.PetitionRepository,
	drafter llm.Drafter,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		docs:      docs,
		clients:   clients,
		cases:     cases,
		petitions: petitions,
		drafter:   drafter,
		logger:    logger,
		now:       time.Now,
	}
}

// Generate runs one drafting pass and persists the result. The client's
// context documents are always fed to the model, whether selected or not;
// failures surface to the caller, nothing is retried.
func (s *Service) Generate(ctx context.Context, req Request) (*entity.Petition, error) {
	if !llm.ValidDraftMode(req.Mode) {
		return nil, common.WrapError(common.ErrValidation, fmt.Sprintf("unknown drafting mode %q", req.Mode))
	}

	client, err := s.clients.GetByID(ctx, req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("client lookup: %w", err)
	}

	caseRef := ""
	if req.CaseID != nil {
		kase, err := s.cases.GetByID(ctx, *req.CaseID)
		if err != nil {
			return nil, fmt.Errorf("case lookup: %w", err)
		}
		caseRef = kase.Reference
		if caseRef == "" {
			caseRef = kase.Title
		}
	}

	sources, err := s.collectSources(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, common.WrapError(common.ErrValidation, "no documents with extracted text to draft from")
	}

	start := s.now()
	text, err := s.drafter.Draft(ctx, llm.DraftRequest{
		ClientName:    client.Name,
		CaseReference: caseRef,
		Mode:          req.Mode,
		SubType:       req.SubType,
		Documents:     sources,
		UserPrompt:    req.UserPrompt,
	})
	if err != nil {
		return nil, fmt.Errorf("draft %s: %w", req.Mode, err)
	}

	title := req.Title
	if title == "" {
		title = defaultTitle(req.Mode, client.Name)
	}
	petition := &entity.Petition{
		ClientID:    req.ClientID,
		CaseID:      req.CaseID,
		Title:       title,
		Mode:        string(req.Mode),
		Content:     text,
		DocumentIDs: req.DocumentIDs,
		Status:      "draft",
	}
	if err := s.petitions.Create(ctx, petition); err != nil {
		return nil, fmt.Errorf("persist petition: %w", err)
	}

	s.logger.Info("draft.ok",
		"petition_id", petition.ID,
		"client_id", req.ClientID,
		"mode", req.Mode,
		"documents", len(sources),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return petition, nil
}

// collectSources resolves the selected documents plus the client's context
// documents, deduplicated, skipping anything without extracted text.
func (s *Service) collectSources(ctx context.Context, req Request) ([]llm.DraftDocument, error) {
	picked := make(map[uuid.UUID]bool)
	var out []llm.DraftDocument

	add := func(d *entity.Document) {
		if picked[d.ID] {
			return
		}
		picked[d.ID] = true
		if !d.HasText() {
			s.logger.Warn("document skipped in draft, no extracted text",
				"document_id", d.ID, "name", d.Name)
			return
		}
		out = append(out, toDraftDocument(d))
	}

	for _, id := range req.DocumentIDs {
		d, err := s.docs.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", id, err)
		}
		if d.ClientID == nil || *d.ClientID != req.ClientID {
			return nil, common.WrapError(common.ErrValidation,
				fmt.Sprintf("document %s does not belong to the client", id))
		}
		add(d)
	}

	category := constants.CategoryContext
	ctxDocs, err := s.docs.List(ctx, repository.DocumentFilter{
		ClientID: &req.ClientID,
		Category: &category,
	})
	if err != nil {
		return nil, fmt.Errorf("list context documents: %w", err)
	}
	for _, d := range ctxDocs {
		add(d)
	}
	return out, nil
}

func toDraftDocument(d *entity.Document) llm.DraftDocument {
	dd := llm.DraftDocument{
		Name:          d.Name,
		Type:          d.MimeType,
		ExtractedText: *d.ExtractedText,
		CreatedAt:     d.CreatedAt,
		IsContext:     d.Category == constants.CategoryContext,
	}
	if n, ok := naming.Parse(d.Name); ok {
		dd.DocNumber = fmt.Sprintf("%03d", n.Seq)
		dd.Type = n.Type
	}
	return dd
}

func defaultTitle(mode llm.DraftMode, clientName string) string {
	switch mode {
	case llm.DraftFatos:
		return "Resumo dos Fatos - " + clientName
	case llm.DraftPeticao:
		return "Petição - " + clientName
	case llm.DraftProcuracao:
		return "Procuração - " + clientName
	case llm.DraftContrato:
		return "Contrato - " + clientName
	}
	return clientName
}
