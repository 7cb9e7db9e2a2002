package validate

import "strings"

// Loose variants back the "validation disabled" mode: candidates are only
// normalized and sanity-checked, trading precision for recall.

// LooseEmail lowercases and trims the candidate, requiring only a single @
// and a dotted domain.
func LooseEmail(candidate string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(candidate))
	if strings.Count(email, "@") != 1 {
		return "", false
	}
	_, domain, _ := strings.Cut(email, "@")
	if !strings.Contains(domain, ".") {
		return "", false
	}
	return email, true
}

// LoosePhone keeps any candidate whose digit count looks like a phone
// number, preserving a leading plus and stripping separators.
func LoosePhone(candidate string) (string, bool) {
	candidate = strings.TrimSpace(candidate)
	var b strings.Builder
	for i, r := range candidate {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	digits := strings.TrimPrefix(cleaned, "+")
	if len(digits) < 6 || len(digits) > 15 {
		return "", false
	}
	return cleaned, true
}
