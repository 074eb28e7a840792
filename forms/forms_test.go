package forms

import (
	"testing"
	"time"

	"github.com/harperreed/dealboard/models"
	"github.com/harperreed/dealboard/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldsOf(failures []service.Failure) []string {
	var out []string
	for _, f := range failures {
		out = append(out, f.Field)
	}
	return out
}

func TestContactFormRules(t *testing.T) {
	f := NewContactForm()
	assert.Equal(t, models.StatusProspect, f.Status)

	failures := Validate(f)
	assert.ElementsMatch(t, []string{"First Name", "Last Name", "Email"}, fieldsOf(failures))

	f.FirstName, f.LastName, f.Email = "Ada", "Lovelace", "not-an-email"
	failures = Validate(f)
	require.Len(t, failures, 1)
	assert.Equal(t, "Email", failures[0].Field)
	assert.Equal(t, "must be a valid email address", failures[0].Message)

	f.Email = "ada@engines.io"
	assert.Empty(t, Validate(f))

	f.Status = "vip"
	failures = Validate(f)
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0].Message, "prospect, active, customer, inactive")
}

func TestCompanyFormWebsiteOptional(t *testing.T) {
	assert.Empty(t, Validate(CompanyForm{Name: "Acme"}))
	failures := Validate(CompanyForm{Name: "Acme", Website: "acme"})
	require.Len(t, failures, 1)
	assert.Equal(t, "Website", failures[0].Field)
}

func TestNewDealFormDefaults(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	f := NewDealForm(models.StageProposal, now)
	assert.Equal(t, models.StageProposal, f.Stage)
	assert.Equal(t, 75, f.Probability)
	assert.Equal(t, "2024-03-31", f.CloseDate)

	assert.Equal(t, models.StageLead, NewDealForm("bogus", now).Stage)
}

func TestDealFormRules(t *testing.T) {
	failures := Validate(DealForm{})
	assert.ElementsMatch(t, []string{"Title", "Value", "Close Date", "Contact"}, fieldsOf(failures))

	f := DealForm{Title: "Pilot", Value: 5000, CloseDate: "31/03/2024", ContactID: 3}
	failures = Validate(f)
	require.Len(t, failures, 1)
	assert.Equal(t, "must be a date like 2024-01-31", failures[0].Message)

	f.CloseDate = "2024-03-31"
	assert.Empty(t, Validate(f))

	f.Probability = 140
	assert.Equal(t, []string{"Probability"}, fieldsOf(Validate(f)))
}

func TestDealFormToFieldsDerivesProbability(t *testing.T) {
	fields := DealForm{Title: " Pilot ", Value: 10, Stage: models.StageQualified, CloseDate: "2024-03-31", ContactID: 3}.ToFields()
	assert.Equal(t, "Pilot", fields["title"])
	assert.Equal(t, 50, fields["probability"])
	assert.Equal(t, 3, fields["contactId"])
	assert.Nil(t, fields["companyId"])

	fields = DealForm{Title: "x", Probability: 10}.ToFields()
	assert.Equal(t, models.StageLead, fields["stage"])
	assert.Equal(t, 10, fields["probability"])
}

func TestActivityForm(t *testing.T) {
	f := NewActivityForm()
	assert.Equal(t, []string{"Description"}, fieldsOf(Validate(f)))
	f.Description = "Intro call"
	assert.Empty(t, Validate(f))

	f.Type = "fax"
	assert.Equal(t, []string{"Type"}, fieldsOf(Validate(f)))
}

func TestFormFromModel(t *testing.T) {
	d := models.Deal{Title: "T", Value: 1, Stage: models.StageClosed, CloseDate: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), ContactID: 1}
	f := DealFormFrom(d)
	assert.Equal(t, "2024-05-02", f.CloseDate)
	assert.Empty(t, Validate(f))

	c := ContactFormFrom(models.Contact{FirstName: "A", LastName: "B", Email: "a@b.co"})
	assert.Empty(t, Validate(c))
	assert.Equal(t, "A", c.ToFields()["firstName"])
}

func TestValidateFieldsChecksOnlyNamedFields(t *testing.T) {
	f := DealForm{Stage: "negotiation", Probability: 60}

	assert.NotEmpty(t, Validate(f))
	assert.Empty(t, ValidateFields(f, "Probability"))
	assert.Empty(t, ValidateFields(f))

	f.Probability = 140
	failures := ValidateFields(f, "Probability")
	require.Len(t, failures, 1)
	assert.Equal(t, "Probability", failures[0].Field)
}
