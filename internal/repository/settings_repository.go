package repository

import (
	"context"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// SettingsRepository reads and writes the single-row app_settings JSON
// blob. Interpretation of the blob belongs to the service layer.
type SettingsRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewSettingsRepository(db *pgxpool.Pool, logger *zap.Logger) *SettingsRepository {
	return &SettingsRepository{
		db:     db,
		logger: logger,
	}
}

// Get returns the raw settings blob, or nil when the row is absent.
func (r *SettingsRepository) Get(ctx context.Context) ([]byte, error) {
	query := squirrel.Select("data").
		From("app_settings").
		Where(squirrel.Eq{"id": 1}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var data []byte
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return data, nil
}

// Put upserts the settings blob.
func (r *SettingsRepository) Put(ctx context.Context, data []byte) error {
	sql := `INSERT INTO app_settings (id, data) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`

	_, err := r.db.Exec(ctx, sql, data)
	return err
}
