// Package classifier decides whether a bank SMS describes a real
// financial transaction, and if so extracts its amount, currency, and
// direction. Everything here is a pure function of the message text
// and the sender allowlist; safe for concurrent use.
package classifier

import (
	"math"
	"strings"
)

// Rejection reasons.
const (
	ReasonEmptyBody        = "Empty SMS body"
	ReasonSenderNotAllowed = "Sender not in whitelist"
	ReasonOTP              = "OTP detected"
	ReasonReminder         = "Payment reminder detected"
	ReasonCardAck          = "Credit card payment acknowledgement"
	ReasonNoAmount         = "No transaction amount found"
	ReasonMultipleAmounts  = "Multiple amount candidates"
	ReasonNoDirection      = "Missing debit/credit keywords"
)

// Message is the raw SMS as delivered: sender id plus body text.
type Message struct {
	Sender string
	Body   string
}

// Verdict is the classifier's accept/reject decision. For an approved
// message Amount is always positive; direction travels in IsIncome and
// Currency defaults to INR when no token was detected. The lowercased
// sender/body copies are retained for downstream prompt building.
type Verdict struct {
	Approved bool
	Reason   string

	Amount   float64
	Currency string
	IsIncome bool

	NormalizedSender string
	NormalizedBody   string
}

func reject(reason, sender, body string) Verdict {
	return Verdict{
		Reason:           reason,
		NormalizedSender: sender,
		NormalizedBody:   body,
	}
}

// Evaluate runs the ordered heuristic checks; the first failing check
// wins. senderKeywords may be empty, in which case the built-in
// allowlist applies.
func Evaluate(msg Message, senderKeywords []string) Verdict {
	sender := strings.ToLower(strings.TrimSpace(msg.Sender))
	body := strings.ToLower(msg.Body)

	if strings.TrimSpace(msg.Body) == "" {
		return reject(ReasonEmptyBody, sender, body)
	}

	allowlist := senderKeywords
	if len(allowlist) == 0 {
		allowlist = DefaultSenderKeywords
	}
	if !containsAny(sender, allowlist) && !containsAny(body, allowlist) {
		return reject(ReasonSenderNotAllowed, sender, body)
	}

	if otpPattern.MatchString(body) {
		return reject(ReasonOTP, sender, body)
	}

	if reminderPattern.MatchString(body) && !containsAny(body, processedPhrases) {
		return reject(ReasonReminder, sender, body)
	}

	// Statement-payment acknowledgements are noise, not purchases.
	if strings.Contains(body, "credit card") &&
		strings.Contains(body, "payment") &&
		strings.Contains(body, "received") {
		return reject(ReasonCardAck, sender, body)
	}

	filtered := FilterBalanceContexts(Extract(msg.Body))
	if len(filtered) == 0 {
		return reject(ReasonNoAmount, sender, body)
	}

	candidate, ok := Select(filtered)
	if !ok {
		return reject(ReasonMultipleAmounts, sender, body)
	}

	hasCredit := containsAny(body, creditKeywords)
	hasDebit := containsAny(body, debitKeywords)
	hasTopUp := containsAny(body, topUpPhrases)
	if !hasCredit && !hasDebit && !hasTopUp {
		return reject(ReasonNoDirection, sender, body)
	}

	isIncome := hasCredit && !hasDebit
	switch {
	case strings.Contains(body, "credited to beneficiary"):
		// Third-party payout, not incoming funds.
		isIncome = false
	case hasCredit && hasDebit:
		isIncome = strings.Contains(body, "credited to your") ||
			(strings.Contains(body, "credited to a/c") && !strings.Contains(body, "beneficiary"))
	}

	currency := candidate.Currency
	if currency == "" {
		currency = "INR"
	}

	return Verdict{
		Approved:         true,
		Amount:           math.Abs(candidate.Value),
		Currency:         currency,
		IsIncome:         isIncome,
		NormalizedSender: sender,
		NormalizedBody:   body,
	}
}

// SignedAmount is the heuristic's suggestion for the final record:
// negative for spending, positive for income.
func (v Verdict) SignedAmount() float64 {
	if v.IsIncome {
		return v.Amount
	}
	return -v.Amount
}
