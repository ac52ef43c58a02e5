package classifier

import "regexp"

// DefaultSenderKeywords is used when the caller supplies no allowlist.
// Matching is a case-insensitive substring test against both the sender
// id and the body, so short bank abbreviations double as body cues.
var DefaultSenderKeywords = []string{
	"icici", "hdfc", "sbi", "axis", "kotak", "idfc", "indusind",
	"federal", "canara", "pnb", "bob", "yesbnk", "citi", "hsbc",
	"rbl", "paytm", "phonepe", "bank",
}

// Words whose presence near a number marks it as an account balance or
// limit rather than a transaction amount.
var balanceKeywords = []string{
	"balance", "available limit", "avl", "closing balance",
}

// Words whose presence near a number tie it to a purchase or transfer.
var transactionCues = []string{
	"debit", "credit", "pos", "card", "upi", "transfer",
	"spent", "payment", "purchase", "at ",
}

var creditKeywords = []string{"credited"}

var debitKeywords = []string{
	"debited", "debit", "spent", "withdrawn", "deducted", "paid", "purchase",
}

var topUpPhrases = []string{
	"added to", "loaded to", "recharge successful", "top-up", "topup",
}

var (
	otpPattern = regexp.MustCompile(`(?i)\b(otp|one[- ]?time\s+password|verification\s+code)\b`)

	reminderPattern = regexp.MustCompile(`(?i)(due\s+(on|by)|to\s+be\s+debited|will\s+be\s+(debited|credited))`)
)

var processedPhrases = []string{
	"successfully processed", "has been processed",
}
