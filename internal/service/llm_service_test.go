package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"sms-ledger/internal/classifier"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chatBody(content string) string {
	resp := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func testVerdict() classifier.Verdict {
	return classifier.Verdict{
		Approved:         true,
		Amount:           500,
		Currency:         "INR",
		IsIncome:         false,
		NormalizedSender: "icicib",
		NormalizedBody:   "rs.500 debited from a/c for upi payment",
	}
}

func testSettings(endpoint string) Settings {
	return Settings{
		APIKey:         "sk-test",
		Model:          "gpt-4o-mini",
		Endpoint:       endpoint,
		PromptTemplate: "parse",
	}
}

func TestExtractTransaction(t *testing.T) {
	var gotAuth string
	var gotRequest chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotRequest)
		_, _ = w.Write([]byte(chatBody(`{"title":"UPI payment","amount":500,"category":"Food","date":"2026-08-30"}`)))
	}))
	defer server.Close()

	svc := NewLLMService(zap.NewNop(), nil)
	extraction, err := svc.ExtractTransaction(context.Background(), testSettings(server.URL), testVerdict(), "Rs.500 debited from A/c for UPI payment")
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-4o-mini", gotRequest.Model)
	assert.Equal(t, 0.2, gotRequest.Temperature)
	assert.Equal(t, 250, gotRequest.MaxTokens)
	require.Len(t, gotRequest.Messages, 2)
	assert.Equal(t, "system", gotRequest.Messages[0].Role)
	assert.Contains(t, gotRequest.Messages[1].Content, "Rs.500 debited")
	assert.Contains(t, gotRequest.Messages[1].Content, `"direction":"expense"`)

	assert.Equal(t, "UPI payment", extraction.Title)
	require.NotNil(t, extraction.Amount)
	assert.Equal(t, 500.0, *extraction.Amount)
	assert.Equal(t, "Food", extraction.Category)
}

func TestExtractTransactionRetriesServerError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(chatBody(`{"title":"Spend","amount":"1,200.50"}`)))
	}))
	defer server.Close()

	svc := NewLLMService(zap.NewNop(), nil)
	extraction, err := svc.ExtractTransaction(context.Background(), testSettings(server.URL), testVerdict(), "body")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.NotNil(t, extraction.Amount)
	assert.Equal(t, 1200.50, *extraction.Amount)
}

func TestExtractTransactionNoRetryOnClientError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	svc := NewLLMService(zap.NewNop(), nil)
	_, err := svc.ExtractTransaction(context.Background(), testSettings(server.URL), testVerdict(), "body")
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var se *statusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.code)
}

func TestExtractTransactionNullContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chatBody("null")))
	}))
	defer server.Close()

	svc := NewLLMService(zap.NewNop(), nil)
	_, err := svc.ExtractTransaction(context.Background(), testSettings(server.URL), testVerdict(), "body")
	assert.ErrorIs(t, err, ErrNotTransaction)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(&statusError{code: 500}))
	assert.True(t, isRetryable(&statusError{code: 503}))
	assert.True(t, isRetryable(&statusError{code: 429}))
	assert.False(t, isRetryable(&statusError{code: 400}))
	assert.False(t, isRetryable(&statusError{code: 404}))
	assert.True(t, isRetryable(context.DeadlineExceeded))
	assert.False(t, isRetryable(errors.New("boom")))
}

func TestParseModelContent(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantTitle string
		wantErr   error
	}{
		{
			name:      "plain object",
			content:   `{"title":"Coffee","amount":120}`,
			wantTitle: "Coffee",
		},
		{
			name:      "fenced object",
			content:   "```json\n{\"title\":\"Coffee\",\"amount\":120}\n```",
			wantTitle: "Coffee",
		},
		{
			name:    "literal null",
			content: "null",
			wantErr: ErrNotTransaction,
		},
		{
			name:    "empty",
			content: "   ",
			wantErr: ErrNotTransaction,
		},
		{
			name:    "fenced null",
			content: "```\nnull\n```",
			wantErr: ErrNotTransaction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseModelContent(tt.content)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, got.Title)
		})
	}
}

func TestParseModelContentRejectsNonObject(t *testing.T) {
	_, err := parseModelContent(`"just a string"`)
	assert.Error(t, err)

	_, err = parseModelContent(`not json at all`)
	assert.Error(t, err)
}

func TestCoerceAmount(t *testing.T) {
	num := func(raw string) *float64 { return coerceAmount(json.RawMessage(raw)) }

	require.NotNil(t, num(`42.5`))
	assert.Equal(t, 42.5, *num(`42.5`))

	require.NotNil(t, num(`"1,234.50"`))
	assert.Equal(t, 1234.50, *num(`"1,234.50"`))

	assert.Nil(t, num(`null`))
	assert.Nil(t, num(``))
	assert.Nil(t, num(`"not a number"`))
	assert.Nil(t, num(`[1,2]`))
}
