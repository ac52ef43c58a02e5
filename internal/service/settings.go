package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"sms-ledger/internal/classifier"
)

const (
	defaultModel   = "gpt-4o-mini"
	defaultBaseURL = "https://api.openai.com/v1"

	defaultPromptTemplate = `You are a financial SMS parser. You receive one bank SMS ` +
		`notification plus a context object with heuristic hints. If the message describes ` +
		`a real, completed financial transaction, respond with a single JSON object ` +
		`{"title": string, "amount": number, "category": string, "date": "YYYY-MM-DD"} ` +
		`and nothing else. title is a short human-readable merchant or purpose. ` +
		`Use the detected amount from the context unless the message clearly states otherwise. ` +
		`If the message is not a transaction (OTP, balance info, reminder, promotion), ` +
		`respond with the literal string null. Never wrap the response in markdown.`
)

// Settings is the resolved pipeline configuration, read from the
// app_settings blob with defaults applied. APIKey may be empty; the
// pipeline treats that as "extraction disabled" and skips silently.
type Settings struct {
	APIKey           string
	Model            string
	Endpoint         string // full chat-completions URL
	PromptTemplate   string
	SenderKeywords   []string
	SelectedWalletPk string
	CustomRates      map[string]float64
	CachedRates      map[string]float64
}

type rawSettings struct {
	OpenAIAPIKey           string             `json:"openaiApiKey"`
	OpenAIModel            string             `json:"openaiModel"`
	OpenAIBaseURL          string             `json:"openaiBaseUrl"`
	SMSPromptTemplate      string             `json:"smsPromptTemplate"`
	SMSSenderKeywords      json.RawMessage    `json:"smsSenderKeywords"`
	SelectedWalletPk       string             `json:"selectedWalletPk"`
	CustomCurrencyAmounts  map[string]float64 `json:"customCurrencyAmounts"`
	CachedCurrencyExchange map[string]float64 `json:"cachedCurrencyExchange"`
}

// ResolveSettings parses the app_settings blob and applies defaults.
// A nil or empty blob yields pure defaults (and no API key).
func ResolveSettings(data []byte) (Settings, error) {
	var raw rawSettings
	if len(data) > 0 {
		if err := json.Unmarshal(data, &raw); err != nil {
			return Settings{}, fmt.Errorf("failed to parse app settings: %w", err)
		}
	}

	model := raw.OpenAIModel
	if model == "" {
		model = defaultModel
	}

	prompt := raw.SMSPromptTemplate
	if prompt == "" {
		prompt = defaultPromptTemplate
	}

	keywords, err := parseSenderKeywords(raw.SMSSenderKeywords)
	if err != nil {
		return Settings{}, err
	}
	if len(keywords) == 0 {
		keywords = classifier.DefaultSenderKeywords
	}

	return Settings{
		APIKey:           strings.TrimSpace(raw.OpenAIAPIKey),
		Model:            model,
		Endpoint:         normalizeEndpoint(raw.OpenAIBaseURL),
		PromptTemplate:   prompt,
		SenderKeywords:   keywords,
		SelectedWalletPk: strings.TrimSpace(raw.SelectedWalletPk),
		CustomRates:      lowercaseKeys(raw.CustomCurrencyAmounts),
		CachedRates:      lowercaseKeys(raw.CachedCurrencyExchange),
	}, nil
}

// parseSenderKeywords accepts either a JSON array of strings or one
// delimiter-separated string (commas, semicolons, or newlines). Values
// are lowercased and deduplicated, order preserved.
func parseSenderKeywords(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		var single string
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, fmt.Errorf("smsSenderKeywords must be a string or a list of strings")
		}
		items = strings.FieldsFunc(single, func(r rune) bool {
			return r == ',' || r == ';' || r == '\n'
		})
	}

	seen := make(map[string]struct{}, len(items))
	var keywords []string
	for _, item := range items {
		k := strings.ToLower(strings.TrimSpace(item))
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keywords = append(keywords, k)
	}

	return keywords, nil
}

// normalizeEndpoint forces an https scheme when none is given and
// appends the chat-completions path when the base URL lacks it.
func normalizeEndpoint(baseURL string) string {
	u := strings.TrimSpace(baseURL)
	if u == "" {
		u = defaultBaseURL
	}
	if !strings.Contains(u, "://") {
		u = "https://" + u
	}
	u = strings.TrimRight(u, "/")
	if !strings.HasSuffix(u, "/chat/completions") {
		u += "/chat/completions"
	}
	return u
}

func lowercaseKeys(m map[string]float64) map[string]float64 {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out
}

// RateFor resolves an exchange rate for a currency code, checking the
// custom override table before the cached table. The boolean reports
// whether any table had the code.
func (s Settings) RateFor(code string) (float64, bool) {
	key := strings.ToLower(code)
	if rate, ok := s.CustomRates[key]; ok {
		return rate, true
	}
	rate, ok := s.CachedRates[key]
	return rate, ok
}
