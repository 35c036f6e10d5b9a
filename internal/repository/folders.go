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

type FolderRepository interface {
	Create(ctx context.Context, f *entity.Folder) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Folder, error)
	ListChildren(ctx context.Context, parentID uuid.UUID) ([]*entity.Folder, error)
	// EnsureClientRoot returns the client's root folder, creating it when
	// missing. The root's path is the client id so blob keys stay stable
	// across client renames.
	EnsureClientRoot(ctx context.Context, clientID uuid.UUID) (*entity.Folder, error)
	// EnsureCaseFolder returns the folder backing a case under the client
	// root, creating it when missing.
	EnsureCaseFolder(ctx context.Context, clientID, caseID uuid.UUID, title string) (*entity.Folder, error)
	Rename(ctx context.Context, id uuid.UUID, name string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type folderRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewFolderRepository(pool *pgxpool.Pool, logger *slog.Logger) FolderRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &folderRepo{pool: pool, logger: logger}
}

const folderColumns = `id, name, kind, client_id, case_id, parent_id, path, created_at, updated_at`

func scanFolder(row pgx.Row) (*entity.Folder, error) {
	var f entity.Folder
	err := row.Scan(&f.ID, &f.Name, &f.Kind, &f.ClientID, &f.CaseID, &f.ParentID,
		&f.Path, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *folderRepo) Create(ctx context.Context, f *entity.Folder) error {
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return common.WrapError(common.ErrValidation, "folder name is required")
	}
	if f.Kind == "" {
		f.Kind = entity.FolderKindSubfolder
	}
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO folders (id, name, kind, client_id, case_id, parent_id, path)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at`,
		f.ID, f.Name, f.Kind, f.ClientID, f.CaseID, f.ParentID, f.Path).
		Scan(&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to create folder", "name", f.Name, "kind", f.Kind, "error", err)
		return fmt.Errorf("insert folder: %w", err)
	}
	return nil
}

func (r *folderRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Folder, error) {
	f, err := scanFolder(r.pool.QueryRow(ctx,
		`SELECT `+folderColumns+` FROM folders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	return f, err
}

func (r *folderRepo) ListChildren(ctx context.Context, parentID uuid.UUID) ([]*entity.Folder, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+folderColumns+` FROM folders WHERE parent_id = $1 ORDER BY name`, parentID)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	var out []*entity.Folder
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *folderRepo) EnsureClientRoot(ctx context.Context, clientID uuid.UUID) (*entity.Folder, error) {
	f, err := scanFolder(r.pool.QueryRow(ctx,
		`SELECT `+folderColumns+` FROM folders WHERE client_id = $1 AND kind = $2 LIMIT 1`,
		clientID, entity.FolderKindClientRoot))
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("lookup client root: %w", err)
	}

	var name string
	if err := r.pool.QueryRow(ctx, `SELECT name FROM clients WHERE id = $1`, clientID).Scan(&name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("lookup client: %w", err)
	}

	root := &entity.Folder{
		Name:     name,
		Kind:     entity.FolderKindClientRoot,
		ClientID: &clientID,
		Path:     "clients/" + clientID.String(),
	}
	if err := r.Create(ctx, root); err != nil {
		return nil, err
	}
	r.logger.Info("created client root folder", "client_id", clientID, "folder_id", root.ID)
	return root, nil
}

func (r *folderRepo) EnsureCaseFolder(ctx context.Context, clientID, caseID uuid.UUID, title string) (*entity.Folder, error) {
	f, err := scanFolder(r.pool.QueryRow(ctx,
		`SELECT `+folderColumns+` FROM folders WHERE case_id = $1 AND kind = $2 LIMIT 1`,
		caseID, entity.FolderKindCase))
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("lookup case folder: %w", err)
	}

	root, err := r.EnsureClientRoot(ctx, clientID)
	if err != nil {
		return nil, err
	}
	cf := &entity.Folder{
		Name:     title,
		Kind:     entity.FolderKindCase,
		ClientID: &clientID,
		CaseID:   &caseID,
		ParentID: &root.ID,
		Path:     root.Path + "/cases/" + caseID.String(),
	}
	if err := r.Create(ctx, cf); err != nil {
		return nil, err
	}
	return cf, nil
}

func (r *folderRepo) Rename(ctx context.Context, id uuid.UUID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return common.WrapError(common.ErrValidation, "folder name is required")
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE folders SET name = $2, updated_at = now() WHERE id = $1`, id, name)
	if err != nil {
		return fmt.Errorf("rename folder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *folderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM folders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}
