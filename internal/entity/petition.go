package entity

import (
	"time"

	"github.com/google/uuid"
)

// Petition represents an AI-drafted legal artifact tied to a client/case.
type Petition struct {
	ID          uuid.UUID   `json:"id"`
	ClientID    uuid.UUID   `json:"client_id"`
	CaseID      *uuid.UUID  `json:"case_id,omitempty"`
	Title       string      `json:"title"`
	Mode        string      `json:"mode"` // fatos | peticao | procuracao | contrato
	Content     string      `json:"content"`
	DocumentIDs []uuid.UUID `json:"document_ids,omitempty"`
	Status      string      `json:"status"` // draft | review | final
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
