package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sms-ledger/internal/classifier"
	"sms-ledger/internal/metrics"
	"sms-ledger/pkg/retry"

	"go.uber.org/zap"
)

const (
	extractionTimeout  = 30 * time.Second
	extractionAttempts = 3
	extractionBackoff  = 2 * time.Second
	requestTemperature = 0.2
	requestMaxTokens   = 250
)

// ErrNotTransaction is returned when the model reports the message is
// not a financial transaction (literal "null" or empty content).
var ErrNotTransaction = errors.New("model reported no transaction")

// ModelExtraction is the validated shape of the model's answer. Amount
// is nil when the field was absent or not coercible to a number.
type ModelExtraction struct {
	Title    string
	Amount   *float64
	Category string
	Date     string
}

type LLMService struct {
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

func NewLLMService(logger *zap.Logger, m *metrics.Metrics) *LLMService {
	return &LLMService{
		httpClient: &http.Client{Timeout: extractionTimeout},
		logger:     logger,
		metrics:    m,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// statusError marks a non-2xx response; server-side and rate-limit
// statuses are retryable, the rest abort immediately.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("extraction service returned status %d: %s", e.code, e.body)
}

func (e *statusError) retryable() bool {
	return e.code >= 500 || e.code == http.StatusTooManyRequests
}

func isRetryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.retryable()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// ExtractTransaction sends the SMS body plus the heuristic context to
// the chat-completions endpoint and parses the structured answer.
func (s *LLMService) ExtractTransaction(ctx context.Context, settings Settings, verdict classifier.Verdict, body string) (*ModelExtraction, error) {
	payload, err := buildRequestBody(settings, verdict, body)
	if err != nil {
		return nil, err
	}

	policy := retry.Policy{
		MaxAttempts: extractionAttempts,
		Backoff:     retry.LinearBackoff(extractionBackoff),
		Retryable:   isRetryable,
	}

	var content string
	attempt := 0
	err = policy.Do(ctx, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			s.metrics.RecordExtractionRetry()
			s.logger.Warn("Retrying extraction call", zap.Int("attempt", attempt))
		}
		var callErr error
		content, callErr = s.call(ctx, settings, payload)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	return parseModelContent(content)
}

func buildRequestBody(settings Settings, verdict classifier.Verdict, body string) ([]byte, error) {
	// Heuristic hints travel as a context object after the raw body;
	// unset fields are omitted.
	hints := map[string]interface{}{
		"normalized_sender":       verdict.NormalizedSender,
		"detected_amount":         verdict.Amount,
		"suggested_signed_amount": verdict.SignedAmount(),
		"currency":                verdict.Currency,
	}
	if verdict.IsIncome {
		hints["direction"] = "income"
	} else {
		hints["direction"] = "expense"
	}
	for k, v := range hints {
		if str, ok := v.(string); ok && str == "" {
			delete(hints, k)
		}
	}

	hintsJSON, err := json.Marshal(hints)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal heuristic context: %w", err)
	}

	req := chatRequest{
		Model:       settings.Model,
		Temperature: requestTemperature,
		MaxTokens:   requestMaxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: settings.PromptTemplate},
			{Role: "user", Content: body + "\n\nContext: " + string(hintsJSON)},
		},
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return data, nil
}

func (s *LLMService) call(ctx context.Context, settings Settings, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, settings.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+settings.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("extraction request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &statusError{code: resp.StatusCode, body: string(bodyBytes)}
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices")
	}

	return chat.Choices[0].Message.Content, nil
}

// parseModelContent strips markdown fences, handles the "null" /
// empty answer, and validates the remaining JSON object shape.
func parseModelContent(content string) (*ModelExtraction, error) {
	cleaned := strings.TrimSpace(content)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" || strings.EqualFold(cleaned, "null") {
		return nil, ErrNotTransaction
	}

	var raw struct {
		Title    string          `json:"title"`
		Amount   json.RawMessage `json:"amount"`
		Category string          `json:"category"`
		Date     string          `json:"date"`
	}
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("model output is not a JSON object: %w", err)
	}

	return &ModelExtraction{
		Title:    strings.TrimSpace(raw.Title),
		Amount:   coerceAmount(raw.Amount),
		Category: strings.TrimSpace(raw.Category),
		Date:     strings.TrimSpace(raw.Date),
	}, nil
}

// coerceAmount accepts a JSON number or a numeric string; anything
// else counts as absent so the heuristic amount takes over.
func coerceAmount(raw json.RawMessage) *float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return &num
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		cleaned := strings.ReplaceAll(strings.TrimSpace(str), ",", "")
		if val, err := strconv.ParseFloat(cleaned, 64); err == nil {
			return &val
		}
	}

	return nil
}
