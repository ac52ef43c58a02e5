package classifier

import "strings"

// FilterBalanceContexts drops candidates whose context window names an
// account balance or limit. Those numbers are non-transactional and
// are rejected outright, not merely deprioritized.
func FilterBalanceContexts(candidates []AmountCandidate) []AmountCandidate {
	var kept []AmountCandidate
	for _, c := range candidates {
		if !containsAny(strings.ToLower(c.Context), balanceKeywords) {
			kept = append(kept, c)
		}
	}
	return kept
}

// Select picks one candidate from an already balance-filtered list.
// With several candidates left, ones whose context carries a
// transaction cue win; ties and cue-less lists fall back to the
// earliest match. A multi-candidate list therefore always yields a
// winner; only an empty list yields none.
func Select(candidates []AmountCandidate) (AmountCandidate, bool) {
	switch len(candidates) {
	case 0:
		return AmountCandidate{}, false
	case 1:
		return candidates[0], true
	}

	var cued []AmountCandidate
	for _, c := range candidates {
		if containsAny(strings.ToLower(c.Context), transactionCues) {
			cued = append(cued, c)
		}
	}

	pool := candidates
	if len(cued) > 0 {
		pool = cued
	}

	best := pool[0]
	for _, c := range pool[1:] {
		if c.Position < best.Position {
			best = c
		}
	}
	return best, true
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
