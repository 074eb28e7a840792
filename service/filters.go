// ABOUTME: Client-side search and relationship helpers over loaded collections
// ABOUTME: Dangling references resolve to empty names instead of errors
package service

import (
	"strings"

	"github.com/harperreed/dealboard/models"
)

// StatusAll disables the status filter.
const StatusAll = "all"

func matches(query string, values ...string) bool {
	if query == "" {
		return true
	}
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), query) {
			return true
		}
	}
	return false
}

// FilterContacts matches query against full name, email and title, then
// applies the status filter ("" or "all" keeps every status).
func FilterContacts(contacts []models.Contact, query, status string) []models.Contact {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Contact, 0, len(contacts))
	for _, c := range contacts {
		if !matches(query, c.FullName(), c.Email, c.Title) {
			continue
		}
		if status != "" && status != StatusAll && c.Status != status {
			continue
		}
		out = append(out, c)
	}
	return out
}

// FilterCompanies matches query against name and industry.
func FilterCompanies(companies []models.Company, query string) []models.Company {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Company, 0, len(companies))
	for _, c := range companies {
		if matches(query, c.Name, c.Industry) {
			out = append(out, c)
		}
	}
	return out
}

// FilterDeals matches query against the title and keeps one stage when given.
func FilterDeals(deals []models.Deal, query, stage string) []models.Deal {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Deal, 0, len(deals))
	for _, d := range deals {
		if !matches(query, d.Title) {
			continue
		}
		if stage != "" && d.Stage != stage {
			continue
		}
		out = append(out, d)
	}
	return out
}

// ContactName resolves a contact reference, "" when it dangles.
func ContactName(contacts []models.Contact, id int) string {
	for _, c := range contacts {
		if c.ID == id {
			return c.FullName()
		}
	}
	return ""
}

// CompanyName resolves a company reference, "" when it dangles.
func CompanyName(companies []models.Company, id int) string {
	for _, c := range companies {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}

// ContactDeals returns the deals attached to a contact.
func ContactDeals(deals []models.Deal, contactID int) []models.Deal {
	var out []models.Deal
	for _, d := range deals {
		if d.ContactID == contactID {
			out = append(out, d)
		}
	}
	return out
}

// ContactActivities returns the activities logged against a contact.
func ContactActivities(activities []models.Activity, contactID int) []models.Activity {
	var out []models.Activity
	for _, a := range activities {
		if a.ContactID == contactID {
			out = append(out, a)
		}
	}
	return out
}

// CompanyContacts returns the contacts working at a company.
func CompanyContacts(contacts []models.Contact, companyID int) []models.Contact {
	if companyID <= 0 {
		return nil
	}
	var out []models.Contact
	for _, c := range contacts {
		if c.CompanyID == companyID {
			out = append(out, c)
		}
	}
	return out
}

// CompanyDeals returns deals referencing the company directly or through one
// of its contacts.
func CompanyDeals(deals []models.Deal, contacts []models.Contact, companyID int) []models.Deal {
	if companyID <= 0 {
		return nil
	}
	staff := make(map[int]bool)
	for _, c := range CompanyContacts(contacts, companyID) {
		staff[c.ID] = true
	}
	var out []models.Deal
	for _, d := range deals {
		if d.CompanyID == companyID || (d.ContactID != 0 && staff[d.ContactID]) {
			out = append(out, d)
		}
	}
	return out
}
