package classifier

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// amountPattern matches a currency token followed by a number, or a
// number followed by a currency token. Word codes carry boundaries so
// "rs" inside another word does not count.
var amountPattern = regexp.MustCompile(
	`(?i)(₹|\b(?:rs|inr|usd|eur|gbp|aed|sar|qar|sgd|aud|cad|jpy|myr)\b\.?)\s*([+-]?\d[\d,]*(?:\.\d+)?)` +
		`|([+-]?\d[\d,]*(?:\.\d+)?)\s*(₹|\b(?:rs|inr|usd|eur|gbp|aed|sar|qar|sgd|aud|cad|jpy|myr)\b)`)

// AmountCandidate is one currency-amount token found in an SMS body.
// Context holds roughly 20 characters on each side of the match for
// keyword lookups; Position is the byte offset of the match.
type AmountCandidate struct {
	Value    float64
	Currency string // ISO-ish code, empty when the token did not resolve
	Context  string
	Position int
}

const contextWindow = 20

// currencyCodes maps a stripped, upper-cased currency token to its
// normalized code.
var currencyCodes = map[string]string{
	"RS":  "INR",
	"INR": "INR",
	"USD": "USD",
	"EUR": "EUR",
	"GBP": "GBP",
	"AED": "AED",
	"SAR": "SAR",
	"QAR": "QAR",
	"SGD": "SGD",
	"AUD": "AUD",
	"CAD": "CAD",
	"JPY": "JPY",
	"MYR": "MYR",
}

// Extract scans body for currency-amount tokens. A candidate needs a
// currency token on at least one side of the number; bare numbers
// (account fragments, reference ids) never qualify.
func Extract(body string) []AmountCandidate {
	var candidates []AmountCandidate

	for _, m := range amountPattern.FindAllStringSubmatchIndex(body, -1) {
		var currencyToken, numberToken string
		// Groups 1,2 hold the leading-currency form; 3,4 the
		// trailing-currency form.
		if m[2] >= 0 {
			currencyToken = body[m[2]:m[3]]
			numberToken = body[m[4]:m[5]]
		} else {
			numberToken = body[m[6]:m[7]]
			currencyToken = body[m[8]:m[9]]
		}

		value, ok := parseAmountToken(numberToken)
		if !ok {
			continue
		}

		candidates = append(candidates, AmountCandidate{
			Value:    value,
			Currency: normalizeCurrency(currencyToken),
			Context:  contextAround(body, m[0], m[1]),
			Position: m[0],
		})
	}

	return candidates
}

// parseAmountToken strips grouping separators and whitespace before
// parsing. Returns false when nothing numeric remains.
func parseAmountToken(token string) (float64, bool) {
	cleaned := strings.NewReplacer(",", "", " ", "").Replace(token)
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func normalizeCurrency(token string) string {
	if strings.Contains(token, "₹") {
		return "INR"
	}
	var letters strings.Builder
	for _, r := range token {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			letters.WriteRune(r)
		}
	}
	return currencyCodes[strings.ToUpper(letters.String())]
}

// contextAround returns ±contextWindow characters around [start, end),
// clamped to rune boundaries.
func contextAround(body string, start, end int) string {
	lo := start
	for i := 0; i < contextWindow && lo > 0; i++ {
		lo--
		for lo > 0 && !utf8.RuneStart(body[lo]) {
			lo--
		}
	}
	hi := end
	for i := 0; i < contextWindow && hi < len(body); i++ {
		_, size := utf8.DecodeRuneInString(body[hi:])
		hi += size
	}
	return body[lo:hi]
}
