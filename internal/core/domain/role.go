package domain

import (
	"regexp"
	"strings"
)

// Local-part shapes recognised for institutional addresses. Student addresses
// carry exactly two digits (the batch year) between letter groups, with at
// most one separator; staff addresses are letters only.
var (
	studentLocalPattern = regexp.MustCompile(`^[a-z]+[._-]?[0-9]{2}[a-z]+$`)
	staffLocalPattern   = regexp.MustCompile(`^[a-z]+$`)
)

// RoleClassifier derives an account role from an email address. It is a pure
// value: the institution domain and the admin allow-list are captured as an
// immutable snapshot at construction, and classification performs no I/O.
type RoleClassifier struct {
	domain string
	admins map[string]struct{}
}

// NewRoleClassifier builds a classifier for the given institution domain and
// admin allow-list. Allow-list entries are normalised to lowercase.
func NewRoleClassifier(institutionDomain string, adminEmails []string) *RoleClassifier {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" {
			continue
		}
		admins[email] = struct{}{}
	}

	return &RoleClassifier{
		domain: strings.ToLower(strings.TrimSpace(institutionDomain)),
		admins: admins,
	}
}

// NormalizeEmail lowercases and trims an email address. All comparisons and
// store lookups operate on the normalised form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Classify maps an email address to a role. The second return value is false
// when the address cannot be classified (wrong domain or unrecognised local
// part). Allow-list membership forces admin regardless of the pattern result.
func (c *RoleClassifier) Classify(email string) (Role, bool) {
	email = NormalizeEmail(email)

	if _, ok := c.admins[email]; ok {
		return RoleAdmin, true
	}

	local, domain, found := strings.Cut(email, "@")
	if !found || domain != c.domain || c.domain == "" {
		return "", false
	}

	switch {
	case studentLocalPattern.MatchString(local):
		return RoleStudent, true
	case staffLocalPattern.MatchString(local):
		return RoleStaff, true
	}

	return "", false
}
