package repository

import (
	"context"
	"errors"

	"sms-ledger/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type WalletRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewWalletRepository(db *pgxpool.Pool, logger *zap.Logger) *WalletRepository {
	return &WalletRepository{
		db:     db,
		logger: logger,
	}
}

func (r *WalletRepository) Create(ctx context.Context, wallet *models.Wallet) error {
	query := squirrel.Insert("wallets").
		Columns("id", "name", "currency", "is_default", "created_at").
		Values(wallet.ID, wallet.Name, wallet.Currency, wallet.IsDefault, wallet.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *WalletRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	query := squirrel.Select("id", "name", "currency", "is_default", "created_at").
		From("wallets").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	return r.getOne(ctx, query)
}

// GetDefault returns the wallet flagged as default, or nil.
func (r *WalletRepository) GetDefault(ctx context.Context) (*models.Wallet, error) {
	query := squirrel.Select("id", "name", "currency", "is_default", "created_at").
		From("wallets").
		Where(squirrel.Eq{"is_default": true}).
		OrderBy("created_at ASC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar)

	return r.getOne(ctx, query)
}

// GetAny returns the oldest wallet, or nil when none exist.
func (r *WalletRepository) GetAny(ctx context.Context) (*models.Wallet, error) {
	query := squirrel.Select("id", "name", "currency", "is_default", "created_at").
		From("wallets").
		OrderBy("created_at ASC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar)

	return r.getOne(ctx, query)
}

func (r *WalletRepository) getOne(ctx context.Context, query squirrel.SelectBuilder) (*models.Wallet, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var w models.Wallet
	row := r.db.QueryRow(ctx, sql, args...)
	if err := row.Scan(&w.ID, &w.Name, &w.Currency, &w.IsDefault, &w.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &w, nil
}
