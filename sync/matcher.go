// ABOUTME: Contact and company deduplication for imports
// ABOUTME: Finds existing contacts by email and companies by name
package sync

import (
	"strings"

	"github.com/harperreed/dealboard/models"
)

type ContactMatcher struct {
	byEmail   map[string]*models.Contact
	companies map[string]int
}

// NewContactMatcher creates a matcher from existing contacts and companies.
func NewContactMatcher(contacts []models.Contact, companies []models.Company) *ContactMatcher {
	m := &ContactMatcher{
		byEmail:   make(map[string]*models.Contact),
		companies: make(map[string]int),
	}

	for i := range contacts {
		m.AddContact(&contacts[i])
	}
	for _, c := range companies {
		m.AddCompany(c)
	}

	return m
}

// FindMatch looks for an existing contact by email.
func (m *ContactMatcher) FindMatch(email string) (*models.Contact, bool) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return nil, false
	}

	contact, found := m.byEmail[normalized]
	return contact, found
}

// AddContact adds a newly created contact so later rows in the same import
// match it.
func (m *ContactMatcher) AddContact(contact *models.Contact) {
	email := normalizeEmail(contact.Email)
	if email != "" {
		m.byEmail[email] = contact
	}
}

// FindCompany returns the id of a company with the same name, ignoring case.
func (m *ContactMatcher) FindCompany(name string) (int, bool) {
	id, ok := m.companies[normalizeName(name)]
	return id, ok
}

func (m *ContactMatcher) AddCompany(c models.Company) {
	if key := normalizeName(c.Name); key != "" {
		m.companies[key] = c.ID
	}
}

// normalizeEmail converts email to lowercase for comparison.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// splitName breaks a display name into first and last name.
// A single word becomes the first name.
func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
}
