package entity

import (
	"time"

	"github.com/google/uuid"
)

// Case represents a legal case for data transfer between layers.
type Case struct {
	ID        uuid.UUID `json:"id"`
	ClientID  uuid.UUID `json:"client_id"`
	Title     string    `json:"title"`
	Reference string    `json:"reference"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
