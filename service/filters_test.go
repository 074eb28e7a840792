package service

import (
	"testing"

	"github.com/harperreed/dealboard/models"
	"github.com/stretchr/testify/assert"
)

var testContacts = []models.Contact{
	{ID: 1, FirstName: "Ada", LastName: "Lovelace", Email: "ada@engines.io", Title: "Analyst", Status: models.StatusActive, CompanyID: 10},
	{ID: 2, FirstName: "Grace", LastName: "Hopper", Email: "grace@navy.mil", Title: "Rear Admiral", Status: models.StatusCustomer, CompanyID: 20},
	{ID: 3, FirstName: "Alan", LastName: "Turing", Email: "alan@bletchley.uk", Title: "Cryptanalyst", Status: models.StatusActive},
}

func TestFilterContacts(t *testing.T) {
	assert.Len(t, FilterContacts(testContacts, "", ""), 3)
	assert.Len(t, FilterContacts(testContacts, "  ", StatusAll), 3)

	byName := FilterContacts(testContacts, "ada love", "")
	if assert.Len(t, byName, 1) {
		assert.Equal(t, 1, byName[0].ID)
	}

	byTitle := FilterContacts(testContacts, "ANALYST", "")
	assert.Len(t, byTitle, 2)

	byStatus := FilterContacts(testContacts, "analyst", models.StatusActive)
	assert.Len(t, byStatus, 2)

	assert.Empty(t, FilterContacts(testContacts, "navy", models.StatusActive))
}

func TestFilterCompanies(t *testing.T) {
	companies := []models.Company{
		{ID: 10, Name: "Analytical Engines", Industry: "Computing"},
		{ID: 20, Name: "US Navy", Industry: "Defense"},
	}
	assert.Len(t, FilterCompanies(companies, "defense"), 1)
	assert.Len(t, FilterCompanies(companies, "comp"), 1)
	assert.Len(t, FilterCompanies(companies, ""), 2)
}

func TestReferenceResolution(t *testing.T) {
	assert.Equal(t, "Grace Hopper", ContactName(testContacts, 2))
	assert.Equal(t, "", ContactName(testContacts, 99))
	assert.Equal(t, "", CompanyName(nil, 1))
}

func TestRelatedRecords(t *testing.T) {
	deals := []models.Deal{
		{ID: 1, Title: "Engine", ContactID: 1},
		{ID: 2, Title: "Navy", ContactID: 2},
		{ID: 3, Title: "Direct", CompanyID: 10},
		{ID: 4, Title: "Orphan", ContactID: 404},
	}
	activities := []models.Activity{
		{ID: 1, ContactID: 1, Type: models.ActivityCall},
		{ID: 2, ContactID: 2, Type: models.ActivityEmail},
	}

	assert.Len(t, ContactDeals(deals, 1), 1)
	assert.Len(t, ContactActivities(activities, 2), 1)
	assert.Len(t, CompanyContacts(testContacts, 10), 1)
	assert.Nil(t, CompanyContacts(testContacts, 0))

	companyDeals := CompanyDeals(deals, testContacts, 10)
	titles := []string{}
	for _, d := range companyDeals {
		titles = append(titles, d.Title)
	}
	assert.ElementsMatch(t, []string{"Engine", "Direct"}, titles)

	assert.Len(t, FilterDeals(deals, "", ""), 4)
	assert.Len(t, FilterDeals(deals, "navy", ""), 1)
}
