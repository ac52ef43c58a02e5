package service

import (
	"testing"

	"sms-ledger/internal/classifier"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSettingsDefaults(t *testing.T) {
	settings, err := ResolveSettings(nil)
	require.NoError(t, err)

	assert.Empty(t, settings.APIKey)
	assert.Equal(t, defaultModel, settings.Model)
	assert.Equal(t, "https://api.openai.com/v1/chat/completions", settings.Endpoint)
	assert.Equal(t, defaultPromptTemplate, settings.PromptTemplate)
	assert.Equal(t, classifier.DefaultSenderKeywords, settings.SenderKeywords)
}

func TestResolveSettingsFullBlob(t *testing.T) {
	blob := []byte(`{
		"openaiApiKey": "sk-test",
		"openaiModel": "gpt-4.1",
		"openaiBaseUrl": "http://proxy.internal/v1",
		"smsPromptTemplate": "parse this",
		"smsSenderKeywords": ["ICICI", "hdfc", "icici"],
		"selectedWalletPk": "9f4b6a36-8a07-4a11-b6aa-7e1b47c9f001",
		"customCurrencyAmounts": {"USD": 83.2},
		"cachedCurrencyExchange": {"usd": 82.0, "eur": 90.5}
	}`)

	settings, err := ResolveSettings(blob)
	require.NoError(t, err)

	assert.Equal(t, "sk-test", settings.APIKey)
	assert.Equal(t, "gpt-4.1", settings.Model)
	assert.Equal(t, "http://proxy.internal/v1/chat/completions", settings.Endpoint)
	assert.Equal(t, "parse this", settings.PromptTemplate)
	assert.Equal(t, []string{"icici", "hdfc"}, settings.SenderKeywords)
	assert.Equal(t, "9f4b6a36-8a07-4a11-b6aa-7e1b47c9f001", settings.SelectedWalletPk)
}

func TestResolveSettingsKeywordString(t *testing.T) {
	blob := []byte(`{"smsSenderKeywords": "ICICI, hdfc; axis\nicici"}`)

	settings, err := ResolveSettings(blob)
	require.NoError(t, err)
	assert.Equal(t, []string{"icici", "hdfc", "axis"}, settings.SenderKeywords)
}

func TestResolveSettingsBadBlob(t *testing.T) {
	_, err := ResolveSettings([]byte(`{not json`))
	assert.Error(t, err)
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty uses default", "", "https://api.openai.com/v1/chat/completions"},
		{"scheme forced", "api.example.com/v1", "https://api.example.com/v1/chat/completions"},
		{"http kept", "http://localhost:8081/v1", "http://localhost:8081/v1/chat/completions"},
		{"trailing slash", "https://api.example.com/v1/", "https://api.example.com/v1/chat/completions"},
		{"already complete", "https://api.example.com/v1/chat/completions", "https://api.example.com/v1/chat/completions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeEndpoint(tt.in))
		})
	}
}

func TestRateFor(t *testing.T) {
	settings := Settings{
		CustomRates: map[string]float64{"usd": 85.0},
		CachedRates: map[string]float64{"usd": 83.0, "eur": 90.0},
	}

	rate, ok := settings.RateFor("USD")
	require.True(t, ok)
	assert.Equal(t, 85.0, rate, "custom table wins over cached")

	rate, ok = settings.RateFor("eur")
	require.True(t, ok)
	assert.Equal(t, 90.0, rate)

	_, ok = settings.RateFor("jpy")
	assert.False(t, ok)
}
