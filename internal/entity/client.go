package entity

import (
	"time"

	"github.com/google/uuid"
)

// Client represents a law-firm client for data transfer between layers.
type Client struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
