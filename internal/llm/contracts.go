// Package llm defines the model-facing contracts for document renaming and
// petition drafting, independent of any provider.
package llm

import (
	"context"
	"time"
)

// LastDocument carries the previous renamed document so the model keeps the
// per-client sequence.
type LastDocument struct {
	Name   string
	Number int
}

// RenameRequest holds everything the renaming prompt needs.
type RenameRequest struct {
	DocumentID    string
	FileName      string
	ClientName    string
	CaseReference string
	ExtractedText string
	// FormatHint is the coarse media kind (PDF, IMAGE, AUDIO, ...) so the
	// model knows when the text is a transcript.
	FormatHint   string
	LastDocument *LastDocument
	Now          time.Time
}

// Renamer suggests a canonical document name from extracted content.
type Renamer interface {
	SuggestName(ctx context.Context, req RenameRequest) (string, error)
}

// DraftMode selects which legal artifact the drafting flow produces.
type DraftMode string

const (
	DraftFatos      DraftMode = "fatos"
	DraftPeticao    DraftMode = "peticao"
	DraftProcuracao DraftMode = "procuracao"
	DraftContrato   DraftMode = "contrato"
)

// ValidDraftMode reports whether m is one of the supported drafting modes.
func ValidDraftMode(m DraftMode) bool {
	switch m {
	case DraftFatos, DraftPeticao, DraftProcuracao, DraftContrato:
		return true
	}
	return false
}

// DraftDocument is one source document fed into the drafting prompt.
type DraftDocument struct {
	Name          string
	DocNumber     string
	Type          string
	ExtractedText string
	CreatedAt     time.Time
	IsContext     bool
}

// DraftRequest holds the inputs for one drafting run.
type DraftRequest struct {
	ClientName    string
	CaseReference string
	Mode          DraftMode
	SubType       string
	Documents     []DraftDocument
	UserPrompt    string
}

// Drafter produces the drafted artifact text in Portuguese.
type Drafter interface {
	Draft(ctx context.Context, req DraftRequest) (string, error)
}
