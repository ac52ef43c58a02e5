package repository

import (
	"context"
	"errors"
	"time"

	"sms-ledger/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type TransactionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTransactionRepository(db *pgxpool.Pool, logger *zap.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	query := squirrel.Insert("transactions").
		Columns("id", "wallet_id", "category_id", "title", "amount", "currency", "note", "date", "is_income", "paid", "created_at").
		Values(tx.ID, tx.WalletID, tx.CategoryID, tx.Title, tx.Amount, tx.Currency, tx.Note, tx.Date, tx.IsIncome, tx.Paid, tx.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// FindRecentDuplicate looks for a transaction with the same amount and
// note created within the given window, newest first. Returns nil when
// none exists.
func (r *TransactionRepository) FindRecentDuplicate(ctx context.Context, amount float64, note string, window time.Duration) (*models.Transaction, error) {
	cutoff := time.Now().Add(-window)

	query := squirrel.Select("id", "wallet_id", "category_id", "title", "amount", "currency", "note", "date", "is_income", "paid", "created_at").
		From("transactions").
		Where(squirrel.Eq{"amount": amount, "note": note}).
		Where(squirrel.GtOrEq{"created_at": cutoff}).
		OrderBy("created_at DESC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var tx models.Transaction
	row := r.db.QueryRow(ctx, sql, args...)
	if err := row.Scan(
		&tx.ID, &tx.WalletID, &tx.CategoryID, &tx.Title, &tx.Amount, &tx.Currency, &tx.Note, &tx.Date, &tx.IsIncome, &tx.Paid, &tx.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &tx, nil
}
