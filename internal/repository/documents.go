package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/advflow/advflow/constants"
	"github.com/advflow/advflow/internal/common"
	"github.com/advflow/advflow/internal/entity"
)

// DocumentFilter narrows document listings.
type DocumentFilter struct {
	ClientID *uuid.UUID
	CaseID   *uuid.UUID
	FolderID *uuid.UUID
	Category *constants.DocCategory
}

type DocumentRepository interface {
	Create(ctx context.Context, d *entity.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	List(ctx context.Context, f DocumentFilter) ([]*entity.Document, error)
	Search(ctx context.Context, query string, f DocumentFilter) ([]*entity.Document, error)
	UpdateName(ctx context.Context, id uuid.UUID, name string) error
	// SetExtractedText persists extracted text. When ocrOrigin is false the
	// update only applies if no text exists yet: OCR text always wins over a
	// later webhook result.
	SetExtractedText(ctx context.Context, id uuid.UUID, text string, ocrOrigin bool) (bool, error)
	// LastRenamed returns the client's document with the highest assigned
	// sequence number, or nil when no document has been renamed yet.
	LastRenamed(ctx context.Context, clientID uuid.UUID) (*entity.Document, error)
	// CountContext counts the client's context-category documents.
	CountContext(ctx context.Context, clientID uuid.UUID) (int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type documentRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewDocumentRepository(pool *pgxpool.Pool, logger *slog.Logger) DocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentRepo{pool: pool, logger: logger}
}

const documentColumns = `id, name, original_name, client_id, case_id, folder_id,
	mime_type, size, storage_path, extracted_text, ocr_origin, category,
	properties, created_at, updated_at`

func scanDocument(row pgx.Row) (*entity.Document, error) {
	var d entity.Document
	var props []byte
	err := row.Scan(
		&d.ID, &d.Name, &d.OriginalName, &d.ClientID, &d.CaseID, &d.FolderID,
		&d.MimeType, &d.Size, &d.StoragePath, &d.ExtractedText, &d.OCROrigin,
		&d.Category, &props, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(props) > 0 {
		if err := json.Unmarshal(props, &d.Properties); err != nil {
			return nil, fmt.Errorf("decode properties: %w", err)
		}
	}
	return &d, nil
}

func (r *documentRepo) Create(ctx context.Context, d *entity.Document) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Category == "" {
		d.Category = constants.CategoryRegular
	}
	props := d.Properties
	if props == nil {
		props = map[string]string{}
	}
	propsJSON, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("encode properties: %w", err)
	}
	query := `
		INSERT INTO documents (id, name, original_name, client_id, case_id, folder_id,
			mime_type, size, storage_path, extracted_text, ocr_origin, category, properties)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`
	err = r.pool.QueryRow(ctx, query,
		d.ID, d.Name, d.OriginalName, d.ClientID, d.CaseID, d.FolderID,
		d.MimeType, d.Size, d.StoragePath, d.ExtractedText, d.OCROrigin,
		d.Category, propsJSON,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to create document", "name", d.OriginalName, "error", err)
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *documentRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	d, err := scanDocument(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	return d, err
}

func (r *documentRepo) List(ctx context.Context, f DocumentFilter) ([]*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE 1=1`
	args := []any{}
	query, args = applyFilter(query, args, f)
	query += ` ORDER BY created_at DESC`
	return r.queryDocuments(ctx, query, args)
}

func (r *documentRepo) Search(ctx context.Context, q string, f DocumentFilter) ([]*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE name ILIKE $1`
	args := []any{"%" + q + "%"}
	query, args = applyFilter(query, args, f)
	query += ` ORDER BY created_at DESC`
	return r.queryDocuments(ctx, query, args)
}

func applyFilter(query string, args []any, f DocumentFilter) (string, []any) {
	if f.ClientID != nil {
		args = append(args, *f.ClientID)
		query += fmt.Sprintf(" AND client_id = $%d", len(args))
	}
	if f.CaseID != nil {
		args = append(args, *f.CaseID)
		query += fmt.Sprintf(" AND case_id = $%d", len(args))
	}
	if f.FolderID != nil {
		args = append(args, *f.FolderID)
		query += fmt.Sprintf(" AND folder_id = $%d", len(args))
	}
	if f.Category != nil {
		args = append(args, string(*f.Category))
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	return query, args
}

func (r *documentRepo) queryDocuments(ctx context.Context, query string, args []any) ([]*entity.Document, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var out []*entity.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *documentRepo) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE documents SET name = $2, updated_at = now() WHERE id = $1`, id, name)
	if err != nil {
		r.logger.Error("failed to update document name", "document_id", id, "error", err)
		return fmt.Errorf("update name: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *documentRepo) SetExtractedText(ctx context.Context, id uuid.UUID, text string, ocrOrigin bool) (bool, error) {
	var tagQuery string
	if ocrOrigin {
		tagQuery = `UPDATE documents SET extracted_text = $2, ocr_origin = TRUE, updated_at = now() WHERE id = $1`
	} else {
		// Webhook text never clobbers existing text.
		tagQuery = `UPDATE documents SET extracted_text = $2, updated_at = now()
			WHERE id = $1 AND (extracted_text IS NULL OR extracted_text = '')`
	}
	tag, err := r.pool.Exec(ctx, tagQuery, id, text)
	if err != nil {
		r.logger.Error("failed to set extracted text", "document_id", id, "error", err)
		return false, fmt.Errorf("set extracted text: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *documentRepo) LastRenamed(ctx context.Context, clientID uuid.UUID) (*entity.Document, error) {
	// The zero-padded sequence sits at a fixed offset, so lexical order on
	// the name equals numeric order on the sequence.
	query := `SELECT ` + documentColumns + ` FROM documents
		WHERE client_id = $1 AND name LIKE 'DOC n. %'
		ORDER BY name DESC LIMIT 1`
	d, err := scanDocument(r.pool.QueryRow(ctx, query, clientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return d, err
}

func (r *documentRepo) CountContext(ctx context.Context, clientID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM documents WHERE client_id = $1 AND category = $2`,
		clientID, string(constants.CategoryContext)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count context documents: %w", err)
	}
	return n, nil
}

func (r *documentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}
