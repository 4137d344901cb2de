package auth

import "strings"

// AdminPolicy answers whether an authenticated email may use the back office.
// It is built once at startup and is safe for concurrent use.
type AdminPolicy struct {
	emails map[string]struct{}
}

// NewAdminPolicy trims and lower-cases every entry. Entries may themselves be
// comma-separated lists, as they arrive from ADMIN_EMAILS.
func NewAdminPolicy(emails ...string) AdminPolicy {
	set := make(map[string]struct{})
	for _, entry := range emails {
		for _, e := range strings.Split(entry, ",") {
			if e = normalizeEmail(e); e != "" {
				set[e] = struct{}{}
			}
		}
	}
	return AdminPolicy{emails: set}
}

func (p AdminPolicy) IsAdmin(email string) bool {
	email = normalizeEmail(email)
	if email == "" {
		return false
	}
	_, ok := p.emails[email]
	return ok
}

// Len is the number of distinct admin emails.
func (p AdminPolicy) Len() int { return len(p.emails) }

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
