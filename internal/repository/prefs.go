package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/advflow/advflow/internal/entity"
)

type PrefsRepository interface {
	// Get returns the user's preferences, falling back to defaults when the
	// user has never saved any.
	Get(ctx context.Context, userID string) (*entity.UserPrefs, error)
	Save(ctx context.Context, p *entity.UserPrefs) error
}

type prefsRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPrefsRepository(pool *pgxpool.Pool, logger *slog.Logger) PrefsRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &prefsRepo{pool: pool, logger: logger}
}

func (r *prefsRepo) Get(ctx context.Context, userID string) (*entity.UserPrefs, error) {
	p := entity.UserPrefs{UserID: userID, Font: entity.DefaultFontPrefs()}
	err := r.pool.QueryRow(ctx,
		`SELECT font_family, font_size_pt, line_spacing, letterhead_path, signature_path
		 FROM user_prefs WHERE user_id = $1`, userID).
		Scan(&p.Font.Family, &p.Font.SizePt, &p.Font.LineSpacing, &p.LetterheadPath, &p.SignaturePath)
	if errors.Is(err, pgx.ErrNoRows) {
		return &p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user prefs: %w", err)
	}
	return &p, nil
}

func (r *prefsRepo) Save(ctx context.Context, p *entity.UserPrefs) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_prefs (user_id, font_family, font_size_pt, line_spacing, letterhead_path, signature_path)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id) DO UPDATE SET
			font_family = EXCLUDED.font_family,
			font_size_pt = EXCLUDED.font_size_pt,
			line_spacing = EXCLUDED.line_spacing,
			letterhead_path = EXCLUDED.letterhead_path,
			signature_path = EXCLUDED.signature_path`,
		p.UserID, p.Font.Family, p.Font.SizePt, p.Font.LineSpacing, p.LetterheadPath, p.SignaturePath)
	if err != nil {
		r.logger.Error("failed to save user prefs", "user_id", p.UserID, "error", err)
		return fmt.Errorf("save user prefs: %w", err)
	}
	return nil
}
