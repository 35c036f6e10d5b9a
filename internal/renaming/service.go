// Package renaming turns freshly extracted documents into their canonical
// "DOC n." names, keeping per-client sequence numbers strictly increasing.
package renaming

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/advflow/advflow/constants"
	"github.com/advflow/advflow/internal/entity"
	"github.com/advflow/advflow/internal/llm"
	"github.com/advflow/advflow/internal/naming"
	"github.com/advflow/advflow/internal/repository"
)

// Service renames one document at a time. Sequence correctness depends on the
// caller serializing renames per client; the Scheduler does that.
type Service struct {
	docs    repository.DocumentRepository
	clients repository.ClientRepository
	cases   repository.CaseRepository
	renamer llm.Renamer
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(
	docs repository.DocumentRepository,
	clients repository.ClientRepository,
	cases repository.CaseRepository,
	renamer llm.Renamer,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		docs:    docs,
		clients: clients,
		cases:   cases,
		renamer: renamer,
		logger:  logger,
		now:     time.Now,
	}
}

// RenameDocument loads the document, asks the model for a canonical name,
// salvages malformed replies, forces the expected sequence number, and
// persists the result. On failure the document keeps its current name.
func (s *Service) RenameDocument(ctx context.Context, docID uuid.UUID) (string, error) {
	doc, err := s.docs.GetByID(ctx, docID)
	if err != nil {
		return "", fmt.Errorf("load document: %w", err)
	}
	if doc.Category == constants.CategoryContext {
		// Context documents carry "Contexto n." labels assigned at upload.
		s.logger.Debug("rename skipped for context document", "document_id", docID)
		return doc.Name, nil
	}
	if naming.IsCanonical(doc.Name) {
		s.logger.Debug("document already renamed", "document_id", docID, "name", doc.Name)
		return doc.Name, nil
	}

	var client *entity.Client
	var clientID string
	if doc.ClientID != nil {
		clientID = doc.ClientID.String()
		if client, err = s.clients.GetByID(ctx, *doc.ClientID); err != nil {
			s.logger.Warn("client lookup failed, renaming without client name",
				"document_id", docID, "client_id", clientID, "error", err)
			client = nil
		}
	}

	expectedSeq := 1
	var lastDoc *llm.LastDocument
	if doc.ClientID != nil {
		last, err := s.docs.LastRenamed(ctx, *doc.ClientID)
		if err != nil {
			return "", fmt.Errorf("last renamed lookup: %w", err)
		}
		if last != nil {
			if parsed, ok := naming.Parse(last.Name); ok {
				expectedSeq = parsed.Seq + 1
				lastDoc = &llm.LastDocument{Name: last.Name, Number: parsed.Seq}
			}
		}
	}

	var caseRef string
	if doc.CaseID != nil && s.cases != nil {
		if c, err := s.cases.GetByID(ctx, *doc.CaseID); err == nil {
			caseRef = c.Title
			if c.Reference != "" {
				caseRef = c.Reference
			}
		}
	}

	var clientName string
	if client != nil {
		clientName = client.Name
	}
	text := ""
	if doc.ExtractedText != nil {
		text = *doc.ExtractedText
	}

	suggestion, err := s.renamer.SuggestName(ctx, llm.RenameRequest{
		DocumentID:    docID.String(),
		FileName:      doc.OriginalName,
		ClientName:    clientName,
		CaseReference: caseRef,
		ExtractedText: text,
		FormatHint:    constants.FormatHint(doc.MimeType, doc.OriginalName),
		LastDocument:  lastDoc,
		Now:           s.now(),
	})
	if err != nil {
		return "", fmt.Errorf("suggest name: %w", err)
	}

	hints := naming.Hints{
		ExpectedSeq: expectedSeq,
		ClientName:  clientName,
		ClientID:    clientID,
		Now:         s.now(),
	}
	name, ok := naming.Correct(suggestion, hints)
	if !ok {
		return "", fmt.Errorf("unusable model reply %q", suggestion)
	}
	if name.Seq != expectedSeq {
		s.logger.Warn("model disregarded sequence, forcing expected number",
			"document_id", docID, "suggested_seq", name.Seq, "expected_seq", expectedSeq)
		name.Seq = expectedSeq
	}

	final := name.Format()
	if err := s.docs.UpdateName(ctx, docID, final); err != nil {
		return "", fmt.Errorf("persist name: %w", err)
	}

	s.logger.Info("document renamed",
		"document_id", docID,
		"original_name", doc.OriginalName,
		"new_name", final,
		"seq", name.Seq,
	)
	return final, nil
}
