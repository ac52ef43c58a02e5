package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sms-ledger/internal/classifier"
	"sms-ledger/internal/dto"
	"sms-ledger/internal/metrics"
	"sms-ledger/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const dedupWindow = 5 * time.Minute

// Status is the terminal state of one message's pipeline run.
type Status string

const (
	StatusPersisted Status = "persisted"
	StatusDuplicate Status = "duplicate"
	StatusRejected  Status = "rejected"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Outcome reports what the pipeline did with a message. Rejections and
// skips are expected control flow, not errors; the collaborator can
// log or count them but the sender never sees a failure.
type Outcome struct {
	Status        Status
	Reason        string
	TransactionID uuid.UUID
}

// Stores the pipeline depends on, narrowed to what it calls so tests
// can substitute in-memory fakes.
type SettingsStore interface {
	Get(ctx context.Context) ([]byte, error)
}

type WalletStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error)
	GetDefault(ctx context.Context) (*models.Wallet, error)
	GetAny(ctx context.Context) (*models.Wallet, error)
}

type CategoryStore interface {
	List(ctx context.Context) ([]*models.Category, error)
}

type TransactionStore interface {
	Create(ctx context.Context, tx *models.Transaction) error
	FindRecentDuplicate(ctx context.Context, amount float64, note string, window time.Duration) (*models.Transaction, error)
}

type Extractor interface {
	ExtractTransaction(ctx context.Context, settings Settings, verdict classifier.Verdict, body string) (*ModelExtraction, error)
}

type PipelineService struct {
	settingsStore SettingsStore
	walletStore   WalletStore
	categoryStore CategoryStore
	txStore       TransactionStore
	extractor     Extractor
	metrics       *metrics.Metrics
	logger        *zap.Logger
}

func NewPipelineService(
	settingsStore SettingsStore,
	walletStore WalletStore,
	categoryStore CategoryStore,
	txStore TransactionStore,
	extractor Extractor,
	m *metrics.Metrics,
	logger *zap.Logger,
) *PipelineService {
	return &PipelineService{
		settingsStore: settingsStore,
		walletStore:   walletStore,
		categoryStore: categoryStore,
		txStore:       txStore,
		extractor:     extractor,
		metrics:       m,
		logger:        logger,
	}
}

// Process runs one SMS through classification, extraction,
// reconciliation, dedup, and insert. The returned error is non-nil
// only for infrastructure or configuration faults; every expected
// outcome (including model aborts) arrives as an Outcome.
func (s *PipelineService) Process(ctx context.Context, msg dto.SMSRequest) (Outcome, error) {
	outcome, err := s.process(ctx, msg)
	s.metrics.RecordOutcome(string(outcome.Status))
	return outcome, err
}

func (s *PipelineService) process(ctx context.Context, msg dto.SMSRequest) (Outcome, error) {
	// 1. Resolve configuration.
	blob, err := s.settingsStore.Get(ctx)
	if err != nil {
		return Outcome{Status: StatusFailed, Reason: "settings unavailable"},
			fmt.Errorf("failed to load settings: %w", err)
	}
	settings, err := ResolveSettings(blob)
	if err != nil {
		return Outcome{Status: StatusFailed, Reason: "settings invalid"}, err
	}
	if settings.APIKey == "" {
		s.logger.Info("Extraction disabled, no API key configured")
		return Outcome{Status: StatusSkipped, Reason: "missing API key"}, nil
	}

	// 2. Heuristic classification.
	verdict := classifier.Evaluate(classifier.Message{Sender: msg.Sender, Body: msg.Body}, settings.SenderKeywords)
	if !verdict.Approved {
		s.metrics.RecordRejection(verdict.Reason)
		s.logger.Info("Message rejected by classifier",
			zap.String("sender", verdict.NormalizedSender),
			zap.String("reason", verdict.Reason),
		)
		return Outcome{Status: StatusRejected, Reason: verdict.Reason}, nil
	}

	// 3. Resolve the target wallet.
	wallet, walletID, err := s.resolveWallet(ctx, settings.SelectedWalletPk)
	if err != nil {
		return Outcome{Status: StatusFailed, Reason: "wallet lookup failed"}, err
	}

	// 4–6. Call the extraction service.
	extraction, err := s.extractor.ExtractTransaction(ctx, settings, verdict, msg.Body)
	if errors.Is(err, ErrNotTransaction) {
		return Outcome{Status: StatusSkipped, Reason: "model reported no transaction"}, nil
	}
	if err != nil {
		s.logger.Warn("Extraction failed", zap.Error(err))
		return Outcome{Status: StatusFailed, Reason: "extraction failed"}, nil
	}

	// 7. Validate the structured output.
	if strings.TrimSpace(extraction.Title) == "" {
		return Outcome{Status: StatusFailed, Reason: "model output missing title"}, nil
	}
	if extraction.Amount == nil && verdict.Amount == 0 {
		return Outcome{Status: StatusFailed, Reason: "no usable amount"}, nil
	}

	// 8. Amount reconciliation: model magnitude when coercible,
	// heuristic otherwise; the heuristic direction always wins the sign.
	amount := reconcileAmount(extraction.Amount, verdict)
	if amount == 0 {
		return Outcome{Status: StatusFailed, Reason: "zero amount"}, nil
	}

	// 9. Currency reconciliation.
	currency := verdict.Currency
	if wallet != nil && !strings.EqualFold(wallet.Currency, verdict.Currency) {
		if converted, ok := convert(amount, verdict.Currency, wallet.Currency, settings); ok {
			amount = converted
			currency = wallet.Currency
		} else {
			s.logger.Warn("No exchange rate resolvable, amount left unconverted",
				zap.String("from", verdict.Currency),
				zap.String("to", wallet.Currency),
			)
		}
	}

	// 10. Category resolution.
	category, err := s.resolveCategory(ctx, extraction.Category)
	if err != nil {
		return Outcome{Status: StatusFailed, Reason: "no categories configured"}, err
	}

	// 11. Dedup within the window on amount + note.
	note := sanitizeUTF8(msg.Body)
	existing, err := s.txStore.FindRecentDuplicate(ctx, amount, note, dedupWindow)
	if err != nil {
		return Outcome{Status: StatusFailed, Reason: "duplicate check failed"},
			fmt.Errorf("duplicate check failed: %w", err)
	}
	if existing != nil {
		s.metrics.RecordDedupSkip()
		s.logger.Info("Duplicate within dedup window, skipping insert",
			zap.String("existing_id", existing.ID.String()),
		)
		return Outcome{Status: StatusDuplicate, Reason: "duplicate within window", TransactionID: existing.ID}, nil
	}

	// 12. Insert.
	now := time.Now()
	tx := &models.Transaction{
		ID:         uuid.New(),
		WalletID:   walletID,
		CategoryID: category.ID,
		Title:      extraction.Title,
		Amount:     amount,
		Currency:   currency,
		Note:       note,
		Date:       parseExtractionDate(extraction.Date, now),
		IsIncome:   amount > 0,
		Paid:       true,
		CreatedAt:  now,
	}
	if err := s.txStore.Create(ctx, tx); err != nil {
		return Outcome{Status: StatusFailed, Reason: "insert failed"},
			fmt.Errorf("failed to insert transaction: %w", err)
	}

	s.logger.Info("Transaction persisted",
		zap.String("id", tx.ID.String()),
		zap.Float64("amount", tx.Amount),
		zap.String("currency", tx.Currency),
	)
	return Outcome{Status: StatusPersisted, TransactionID: tx.ID}, nil
}

// resolveWallet follows the fallback chain: configured id, default
// wallet, any wallet. When nothing exists the configured id is kept so
// the insert surfaces the reference problem.
func (s *PipelineService) resolveWallet(ctx context.Context, selectedPk string) (*models.Wallet, uuid.UUID, error) {
	var configured uuid.UUID
	if selectedPk != "" {
		if id, err := uuid.Parse(selectedPk); err == nil {
			configured = id
			wallet, err := s.walletStore.GetByID(ctx, id)
			if err != nil {
				return nil, uuid.Nil, err
			}
			if wallet != nil {
				return wallet, wallet.ID, nil
			}
		}
	}

	wallet, err := s.walletStore.GetDefault(ctx)
	if err != nil {
		return nil, uuid.Nil, err
	}
	if wallet == nil {
		wallet, err = s.walletStore.GetAny(ctx)
		if err != nil {
			return nil, uuid.Nil, err
		}
	}
	if wallet != nil {
		return wallet, wallet.ID, nil
	}

	return nil, configured, nil
}

func (s *PipelineService) resolveCategory(ctx context.Context, name string) (*models.Category, error) {
	categories, err := s.categoryStore.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("no categories configured")
	}

	for _, c := range categories {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return categories[0], nil
}

func reconcileAmount(modelAmount *float64, verdict classifier.Verdict) float64 {
	magnitude := verdict.Amount
	if modelAmount != nil {
		magnitude = *modelAmount
	}
	if magnitude < 0 {
		magnitude = -magnitude
	}
	if verdict.IsIncome {
		return magnitude
	}
	return -magnitude
}

// convert applies rate tables expressed as base units per one unit of
// the code. Both sides must resolve, otherwise conversion is skipped.
func convert(amount float64, from, to string, settings Settings) (float64, bool) {
	fromRate, okFrom := settings.RateFor(from)
	toRate, okTo := settings.RateFor(to)
	if !okFrom || !okTo || toRate == 0 {
		return 0, false
	}
	return amount * fromRate / toRate, true
}

func parseExtractionDate(value string, fallback time.Time) time.Time {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return fallback
}
