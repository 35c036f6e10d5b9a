package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/advflow/advflow/internal/common"
	"github.com/advflow/advflow/internal/entity"
)

type ClientRepository interface {
	Create(ctx context.Context, c *entity.Client) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Client, error)
	List(ctx context.Context) ([]*entity.Client, error)
	Rename(ctx context.Context, id uuid.UUID, name string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type clientRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewClientRepository(pool *pgxpool.Pool, logger *slog.Logger) ClientRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &clientRepo{pool: pool, logger: logger}
}

func (r *clientRepo) Create(ctx context.Context, c *entity.Client) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return common.WrapError(common.ErrValidation, "client name is required")
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO clients (id, name) VALUES ($1, $2) RETURNING created_at, updated_at`,
		c.ID, c.Name).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to create client", "name", c.Name, "error", err)
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

func (r *clientRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Client, error) {
	var c entity.Client
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM clients WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	return &c, nil
}

func (r *clientRepo) List(ctx context.Context) ([]*entity.Client, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, created_at, updated_at FROM clients ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var out []*entity.Client
	for rows.Next() {
		var c entity.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *clientRepo) Rename(ctx context.Context, id uuid.UUID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return common.WrapError(common.ErrValidation, "client name is required")
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE clients SET name = $2, updated_at = now() WHERE id = $1`, id, name)
	if err != nil {
		return fmt.Errorf("rename client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *clientRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}
