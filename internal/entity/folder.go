package entity

import (
	"time"

	"github.com/google/uuid"
)

// FolderKind discriminates a folder's position in the hierarchy.
type FolderKind string

const (
	FolderKindClientRoot FolderKind = "client_root"
	FolderKindCase       FolderKind = "case"
	FolderKindSubfolder  FolderKind = "subfolder"
)

// Folder represents a node in the per-client folder hierarchy.
type Folder struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Kind      FolderKind `json:"kind"`
	ClientID  *uuid.UUID `json:"client_id,omitempty"`
	CaseID    *uuid.UUID `json:"case_id,omitempty"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
	Path      string     `json:"path"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
