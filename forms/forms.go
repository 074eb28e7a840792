// ABOUTME: Input forms for contacts, companies, deals and activities
// ABOUTME: Struct-tag validation with go-playground/validator and conversion to service fields
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/harperreed/dealboard/models"
	"github.com/harperreed/dealboard/service"
)

// DateLayout is how forms carry dates.
const DateLayout = "2006-01-02"

// DefaultCloseWindow is how far out a new deal's close date starts.
const DefaultCloseWindow = 30 * 24 * time.Hour

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		return f.Name
	})
	return v
}

type ContactForm struct {
	FirstName string `json:"firstName" form:"firstName" label:"First Name" validate:"required"`
	LastName  string `json:"lastName" form:"lastName" label:"Last Name" validate:"required"`
	Email     string `json:"email" form:"email" label:"Email" validate:"required,email"`
	Phone     string `json:"phone" form:"phone" label:"Phone"`
	Title     string `json:"title" form:"title" label:"Title"`
	Status    string `json:"status" form:"status" label:"Status" validate:"omitempty,oneof=prospect active customer inactive"`
	CompanyID int    `json:"companyId" form:"companyId" label:"Company" validate:"gte=0"`
}

type CompanyForm struct {
	Name     string `json:"name" form:"name" label:"Name" validate:"required"`
	Industry string `json:"industry" form:"industry" label:"Industry"`
	Size     string `json:"size" form:"size" label:"Size"`
	Website  string `json:"website" form:"website" label:"Website" validate:"omitempty,url"`
	Address  string `json:"address" form:"address" label:"Address"`
}

// DealForm leaves Probability at zero to derive it from the stage.
type DealForm struct {
	Title       string  `json:"title" form:"title" label:"Title" validate:"required"`
	Value       float64 `json:"value" form:"value" label:"Value" validate:"gt=0"`
	Stage       string  `json:"stage" form:"stage" label:"Stage" validate:"omitempty,oneof=lead qualified proposal closed"`
	Probability int     `json:"probability" form:"probability" label:"Probability" validate:"gte=0,lte=100"`
	CloseDate   string  `json:"closeDate" form:"closeDate" label:"Close Date" validate:"required,datetime=2006-01-02"`
	ContactID   int     `json:"contactId" form:"contactId" label:"Contact" validate:"gt=0"`
	CompanyID   int     `json:"companyId" form:"companyId" label:"Company" validate:"gte=0"`
}

type ActivityForm struct {
	Type        string `json:"type" form:"type" label:"Type" validate:"required,oneof=call email meeting other"`
	Description string `json:"description" form:"description" label:"Description" validate:"required"`
	ContactID   int    `json:"contactId" form:"contactId" label:"Contact" validate:"gte=0"`
	DealID      int    `json:"dealId" form:"dealId" label:"Deal" validate:"gte=0"`
}

// NewContactForm returns a blank contact form with the default status.
func NewContactForm() ContactForm {
	return ContactForm{Status: models.StatusProspect}
}

// NewDealForm returns a deal form pre-filled for a stage, closing a month from now.
func NewDealForm(stage string, now time.Time) DealForm {
	if !models.IsValidStage(stage) {
		stage = models.StageLead
	}
	return DealForm{
		Stage:       stage,
		Probability: models.DefaultProbability(stage),
		CloseDate:   now.Add(DefaultCloseWindow).Format(DateLayout),
	}
}

// NewActivityForm returns an activity form with the default type.
func NewActivityForm() ActivityForm {
	return ActivityForm{Type: models.ActivityCall}
}

// ContactFormFrom pre-fills a form for editing.
func ContactFormFrom(c models.Contact) ContactForm {
	return ContactForm{
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		Title:     c.Title,
		Status:    c.Status,
		CompanyID: c.CompanyID,
	}
}

func CompanyFormFrom(c models.Company) CompanyForm {
	return CompanyForm{Name: c.Name, Industry: c.Industry, Size: c.Size, Website: c.Website, Address: c.Address}
}

func DealFormFrom(d models.Deal) DealForm {
	f := DealForm{
		Title:       d.Title,
		Value:       d.Value,
		Stage:       d.Stage,
		Probability: d.Probability,
		ContactID:   d.ContactID,
		CompanyID:   d.CompanyID,
	}
	if !d.CloseDate.IsZero() {
		f.CloseDate = d.CloseDate.Format(DateLayout)
	}
	return f
}

// Validate checks a form and returns one failure per offending field.
func Validate(form any) []service.Failure {
	return failures(validate.Struct(form))
}

// ValidateFields checks only the named struct fields, for partial updates
// where the stored record may not pass every rule.
func ValidateFields(form any, fields ...string) []service.Failure {
	if len(fields) == 0 {
		return nil
	}
	return failures(validate.StructPartial(form, fields...))
}

func failures(err error) []service.Failure {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []service.Failure{{Message: err.Error()}}
	}
	out := make([]service.Failure, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, service.Failure{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "datetime":
		return "must be a date like " + time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC).Format(fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func (f ContactForm) ToFields() service.Fields {
	return service.Fields{
		"firstName": strings.TrimSpace(f.FirstName),
		"lastName":  strings.TrimSpace(f.LastName),
		"email":     strings.TrimSpace(f.Email),
		"phone":     f.Phone,
		"title":     f.Title,
		"status":    f.Status,
		"companyId": optionalID(f.CompanyID),
	}
}

func (f CompanyForm) ToFields() service.Fields {
	return service.Fields{
		"name":     strings.TrimSpace(f.Name),
		"industry": f.Industry,
		"size":     f.Size,
		"website":  f.Website,
		"address":  f.Address,
	}
}

// ToFields fills in the stage probability when none was chosen.
func (f DealForm) ToFields() service.Fields {
	stage := f.Stage
	if stage == "" {
		stage = models.StageLead
	}
	prob := f.Probability
	if prob == 0 {
		prob = models.DefaultProbability(stage)
	}
	return service.Fields{
		"title":       strings.TrimSpace(f.Title),
		"value":       f.Value,
		"stage":       stage,
		"probability": prob,
		"closeDate":   f.CloseDate,
		"contactId":   optionalID(f.ContactID),
		"companyId":   optionalID(f.CompanyID),
	}
}

func (f ActivityForm) ToFields() service.Fields {
	return service.Fields{
		"type":        f.Type,
		"description": strings.TrimSpace(f.Description),
		"contactId":   optionalID(f.ContactID),
		"dealId":      optionalID(f.DealID),
	}
}

// nil ids are dropped by the service before sending.
func optionalID(id int) any {
	if id <= 0 {
		return nil
	}
	return id
}
