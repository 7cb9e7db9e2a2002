package validate

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Phone reports whether candidate parses as a plausible phone number and
// returns it in E.164 form. Candidates without a leading country indicator
// are interpreted against defaultRegion (ISO 3166-1 alpha-2); when no region
// is supplied such candidates are rejected rather than guessed at.
func Phone(candidate, defaultRegion string) (string, bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return "", false
	}

	region := strings.ToUpper(strings.TrimSpace(defaultRegion))
	if !strings.HasPrefix(candidate, "+") && region == "" {
		return "", false
	}

	num, err := phonenumbers.Parse(candidate, region)
	if err != nil {
		return "", false
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", false
	}
	return phonenumbers.Format(num, phonenumbers.E164), true
}
