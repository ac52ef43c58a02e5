package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sms-ledger/internal/classifier"
	"sms-ledger/internal/dto"
	"sms-ledger/internal/models"
	"sms-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubSettings struct{ blob []byte }

func (s *stubSettings) Get(ctx context.Context) ([]byte, error) { return s.blob, nil }

type stubWallets struct{ wallet *models.Wallet }

func (s *stubWallets) GetByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	return nil, nil
}
func (s *stubWallets) GetDefault(ctx context.Context) (*models.Wallet, error) {
	return s.wallet, nil
}
func (s *stubWallets) GetAny(ctx context.Context) (*models.Wallet, error) { return s.wallet, nil }

type stubCategories struct{ categories []*models.Category }

func (s *stubCategories) List(ctx context.Context) ([]*models.Category, error) {
	return s.categories, nil
}

type stubTransactions struct{ created []*models.Transaction }

func (s *stubTransactions) Create(ctx context.Context, tx *models.Transaction) error {
	s.created = append(s.created, tx)
	return nil
}

func (s *stubTransactions) FindRecentDuplicate(ctx context.Context, amount float64, note string, window time.Duration) (*models.Transaction, error) {
	return nil, nil
}

type stubExtractor struct{}

func (s *stubExtractor) ExtractTransaction(ctx context.Context, settings service.Settings, verdict classifier.Verdict, body string) (*service.ModelExtraction, error) {
	amount := verdict.Amount
	return &service.ModelExtraction{Title: "Stubbed", Amount: &amount}, nil
}

func testApp() (*fiber.App, *stubTransactions) {
	txs := &stubTransactions{}
	pipeline := service.NewPipelineService(
		&stubSettings{blob: []byte(`{"openaiApiKey":"sk-test"}`)},
		&stubWallets{wallet: &models.Wallet{ID: uuid.New(), Name: "Main", Currency: "INR"}},
		&stubCategories{categories: []*models.Category{{ID: uuid.New(), Name: "Other"}}},
		txs,
		&stubExtractor{},
		nil,
		zap.NewNop(),
	)

	handler := NewSMSHandler(pipeline, zap.NewNop())
	app := fiber.New()
	app.Post("/api/v1/sms", handler.IngestSMS)
	return app, txs
}

func postSMS(t *testing.T, app *fiber.App, payload string) (int, dto.SMSResponse) {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/sms", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body dto.SMSResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body
}

func TestIngestSMSPersists(t *testing.T) {
	app, txs := testApp()

	code, body := postSMS(t, app, `{"sender":"ICICIB","body":"Rs.500 debited from A/c for UPI payment"}`)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, string(service.StatusPersisted), body.Status)
	assert.NotEmpty(t, body.TransactionID)
	assert.Len(t, txs.created, 1)
}

func TestIngestSMSRejectionIsNotAnHTTPError(t *testing.T) {
	app, txs := testApp()

	code, body := postSMS(t, app, `{"sender":"ICICIB","body":"Your OTP is 123456"}`)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, string(service.StatusRejected), body.Status)
	assert.Equal(t, classifier.ReasonOTP, body.Reason)
	assert.Empty(t, txs.created)
}

func TestIngestSMSBadRequest(t *testing.T) {
	app, _ := testApp()

	code, _ := postSMS(t, app, `{not json`)
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, _ = postSMS(t, app, `{}`)
	assert.Equal(t, fiber.StatusBadRequest, code)
}
