package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/advflow/advflow/internal/common"
	"github.com/advflow/advflow/internal/entity"
)

type PetitionRepository interface {
	Create(ctx context.Context, p *entity.Petition) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Petition, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*entity.Petition, error)
	UpdateContent(ctx context.Context, id uuid.UUID, content, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type petitionRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPetitionRepository(pool *pgxpool.Pool, logger *slog.Logger) PetitionRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &petitionRepo{pool: pool, logger: logger}
}

const petitionColumns = `id, client_id, case_id, title, mode, content, document_ids, status, created_at, updated_at`

func scanPetition(row pgx.Row) (*entity.Petition, error) {
	var p entity.Petition
	err := row.Scan(&p.ID, &p.ClientID, &p.CaseID, &p.Title, &p.Mode, &p.Content,
		&p.DocumentIDs, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *petitionRepo) Create(ctx context.Context, p *entity.Petition) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = "draft"
	}
	ids := p.DocumentIDs
	if ids == nil {
		ids = []uuid.UUID{}
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO petitions (id, client_id, case_id, title, mode, content, document_ids, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at, updated_at`,
		p.ID, p.ClientID, p.CaseID, p.Title, p.Mode, p.Content, ids, p.Status).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to create petition", "client_id", p.ClientID, "mode", p.Mode, "error", err)
		return fmt.Errorf("insert petition: %w", err)
	}
	return nil
}

func (r *petitionRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Petition, error) {
	p, err := scanPetition(r.pool.QueryRow(ctx,
		`SELECT `+petitionColumns+` FROM petitions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	return p, err
}

func (r *petitionRepo) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*entity.Petition, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+petitionColumns+` FROM petitions WHERE client_id = $1 ORDER BY created_at DESC`,
		clientID)
	if err != nil {
		return nil, fmt.Errorf("list petitions: %w", err)
	}
	defer rows.Close()

	var out []*entity.Petition
	for rows.Next() {
		p, err := scanPetition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *petitionRepo) UpdateContent(ctx context.Context, id uuid.UUID, content, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE petitions SET content = $2, status = $3, updated_at = now() WHERE id = $1`,
		id, content, status)
	if err != nil {
		return fmt.Errorf("update petition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *petitionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM petitions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete petition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}
