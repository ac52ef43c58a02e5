package models

import (
	"time"

	"github.com/google/uuid"
)

// Transaction is a persisted ledger entry produced by the SMS pipeline.
// Amount is signed: negative for spending, positive for income. Note
// carries the original SMS body and doubles as the dedup key together
// with Amount.
type Transaction struct {
	ID         uuid.UUID `db:"id"`
	WalletID   uuid.UUID `db:"wallet_id"`
	CategoryID uuid.UUID `db:"category_id"`
	Title      string    `db:"title"`
	Amount     float64   `db:"amount"`
	Currency   string    `db:"currency"`
	Note       string    `db:"note"`
	Date       time.Time `db:"date"`
	IsIncome   bool      `db:"is_income"`
	Paid       bool      `db:"paid"`
	CreatedAt  time.Time `db:"created_at"`
}
