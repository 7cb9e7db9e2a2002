package validate

import "strings"

const (
	maxLocalLen  = 64
	maxDomainLen = 255
)

// Placeholder domains that show up in page templates and never belong to a
// real mailbox.
var placeholderDomains = map[string]struct{}{
	"example.com":    {},
	"example.org":    {},
	"example.ru":     {},
	"test.com":       {},
	"test.org":       {},
	"test.ru":        {},
	"domain.com":     {},
	"domain.ru":      {},
	"email.com":      {},
	"yoursite.com":   {},
	"yourdomain.com": {},
}

// Well-known providers skip the placeholder check entirely.
var knownProviders = map[string]struct{}{
	"gmail.com":      {},
	"googlemail.com": {},
	"yahoo.com":      {},
	"outlook.com":    {},
	"hotmail.com":    {},
	"live.com":       {},
	"mail.ru":        {},
	"yandex.ru":      {},
	"yandex.com":     {},
	"protonmail.com": {},
	"icloud.com":     {},
	"aol.com":        {},
	"zoho.com":       {},
}

// EmailPolicy tunes email acceptance without changing the grammar itself.
type EmailPolicy struct {
	// RejectPlaceholders drops otherwise well-formed addresses whose domain
	// is a known template placeholder such as example.com.
	RejectPlaceholders bool
}

// Email reports whether candidate is a well-formed address and returns its
// normalized (lowercased, trimmed) form. Rejection is a classification, not
// an error: malformed input yields ("", false).
func Email(candidate string, policy EmailPolicy) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(candidate))
	if strings.Count(email, "@") != 1 {
		return "", false
	}

	local, domain, _ := strings.Cut(email, "@")
	if !validLocalPart(local) || !validDomain(domain) {
		return "", false
	}

	if _, ok := knownProviders[domain]; ok {
		return email, true
	}
	if policy.RejectPlaceholders {
		if _, bad := placeholderDomains[domain]; bad {
			return "", false
		}
	}
	return email, true
}

func validLocalPart(local string) bool {
	if local == "" || len(local) > maxLocalLen {
		return false
	}
	for _, r := range local {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case r == '.' || r == '_' || r == '%' || r == '+' || r == '-':
		default:
			return false
		}
	}
	return true
}

func validDomain(domain string) bool {
	if len(domain) > maxDomainLen || !strings.Contains(domain, ".") {
		return false
	}
	labels := strings.Split(domain, ".")
	for _, label := range labels {
		if !validLabel(label) {
			return false
		}
	}
	return alphabetic(labels[len(labels)-1])
}

// validLabel accepts alphanumeric labels with interior hyphens.
func validLabel(label string) bool {
	if label == "" || strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
		return false
	}
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
		default:
			return false
		}
	}
	return true
}

func alphabetic(tld string) bool {
	if len(tld) < 2 {
		return false
	}
	for _, r := range tld {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
