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

// DefaultCaseTitle is the catch-all case created for documents uploaded
// without an explicit case.
const DefaultCaseTitle = "Documentos Gerais"

type CaseRepository interface {
	Create(ctx context.Context, c *entity.Case) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Case, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*entity.Case, error)
	// EnsureDefault returns the client's catch-all case, creating it when
	// missing.
	EnsureDefault(ctx context.Context, clientID uuid.UUID) (*entity.Case, error)
	Update(ctx context.Context, id uuid.UUID, title, reference string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type caseRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewCaseRepository(pool *pgxpool.Pool, logger *slog.Logger) CaseRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &caseRepo{pool: pool, logger: logger}
}

func (r *caseRepo) Create(ctx context.Context, c *entity.Case) error {
	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" {
		return common.WrapError(common.ErrValidation, "case title is required")
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO cases (id, client_id, title, reference) VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		c.ID, c.ClientID, c.Title, c.Reference).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to create case", "client_id", c.ClientID, "title", c.Title, "error", err)
		return fmt.Errorf("insert case: %w", err)
	}
	return nil
}

func (r *caseRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Case, error) {
	var c entity.Case
	err := r.pool.QueryRow(ctx,
		`SELECT id, client_id, title, reference, created_at, updated_at FROM cases WHERE id = $1`, id).
		Scan(&c.ID, &c.ClientID, &c.Title, &c.Reference, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get case: %w", err)
	}
	return &c, nil
}

func (r *caseRepo) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*entity.Case, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, client_id, title, reference, created_at, updated_at
		 FROM cases WHERE client_id = $1 ORDER BY created_at`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var out []*entity.Case
	for rows.Next() {
		var c entity.Case
		if err := rows.Scan(&c.ID, &c.ClientID, &c.Title, &c.Reference, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *caseRepo) EnsureDefault(ctx context.Context, clientID uuid.UUID) (*entity.Case, error) {
	var c entity.Case
	err := r.pool.QueryRow(ctx,
		`SELECT id, client_id, title, reference, created_at, updated_at
		 FROM cases WHERE client_id = $1 AND title = $2 ORDER BY created_at LIMIT 1`,
		clientID, DefaultCaseTitle).
		Scan(&c.ID, &c.ClientID, &c.Title, &c.Reference, &c.CreatedAt, &c.UpdatedAt)
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("lookup default case: %w", err)
	}

	c = entity.Case{ClientID: clientID, Title: DefaultCaseTitle}
	if err := r.Create(ctx, &c); err != nil {
		return nil, err
	}
	r.logger.Info("created default case", "client_id", clientID, "case_id", c.ID)
	return &c, nil
}

func (r *caseRepo) Update(ctx context.Context, id uuid.UUID, title, reference string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return common.WrapError(common.ErrValidation, "case title is required")
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE cases SET title = $2, reference = $3, updated_at = now() WHERE id = $1`,
		id, title, reference)
	if err != nil {
		return fmt.Errorf("update case: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *caseRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cases WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete case: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}
