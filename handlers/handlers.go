// ABOUTME: Shared plumbing for MCP handlers
// ABOUTME: Output shapes for each entity and result-to-error conversion
package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/dealboard/models"
	"github.com/harperreed/dealboard/service"
)

func resultErr(action string, err error, failures []service.Failure) error {
	if len(failures) == 0 {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	parts := make([]string, 0, len(failures))
	for _, f := range failures {
		parts = append(parts, f.String())
	}
	return fmt.Errorf("failed to %s: %w (%s)", action, err, strings.Join(parts, "; "))
}

func invalid(action string, failures []service.Failure) error {
	return resultErr(action, service.ErrInvalid, failures)
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

type ContactOutput struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Title     string `json:"title,omitempty"`
	Status    string `json:"status,omitempty"`
	CompanyID int    `json:"company_id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func contactToOutput(c *models.Contact) ContactOutput {
	return ContactOutput{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		Title:     c.Title,
		Status:    c.Status,
		CompanyID: c.CompanyID,
		CreatedAt: timestamp(c.CreatedAt),
		UpdatedAt: timestamp(c.UpdatedAt),
	}
}

type CompanyOutput struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Industry  string `json:"industry,omitempty"`
	Size      string `json:"size,omitempty"`
	Website   string `json:"website,omitempty"`
	Address   string `json:"address,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

func companyToOutput(c *models.Company) CompanyOutput {
	return CompanyOutput{
		ID:        c.ID,
		Name:      c.Name,
		Industry:  c.Industry,
		Size:      c.Size,
		Website:   c.Website,
		Address:   c.Address,
		CreatedAt: timestamp(c.CreatedAt),
	}
}

type DealOutput struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Value       float64 `json:"value"`
	Stage       string  `json:"stage"`
	Probability int     `json:"probability"`
	CloseDate   string  `json:"close_date,omitempty"`
	ContactID   int     `json:"contact_id,omitempty"`
	CompanyID   int     `json:"company_id,omitempty"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

func dealToOutput(d *models.Deal) DealOutput {
	out := DealOutput{
		ID:          d.ID,
		Title:       d.Title,
		Value:       d.Value,
		Stage:       d.Stage,
		Probability: d.Probability,
		ContactID:   d.ContactID,
		CompanyID:   d.CompanyID,
		CreatedAt:   timestamp(d.CreatedAt),
	}
	if !d.CloseDate.IsZero() {
		out.CloseDate = d.CloseDate.Format("2006-01-02")
	}
	return out
}

type ActivityOutput struct {
	ID          int    `json:"id"`
	Type        string `json:"type"`
	Description string `json:"description"`
	ContactID   int    `json:"contact_id,omitempty"`
	DealID      int    `json:"deal_id,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

func activityToOutput(a *models.Activity) ActivityOutput {
	return ActivityOutput{
		ID:          a.ID,
		Type:        a.Type,
		Description: a.Description,
		ContactID:   a.ContactID,
		DealID:      a.DealID,
		CreatedAt:   timestamp(a.CreatedAt),
	}
}

func contactsToOutput(cs []models.Contact) []ContactOutput {
	out := make([]ContactOutput, 0, len(cs))
	for i := range cs {
		out = append(out, contactToOutput(&cs[i]))
	}
	return out
}

func companiesToOutput(cs []models.Company) []CompanyOutput {
	out := make([]CompanyOutput, 0, len(cs))
	for i := range cs {
		out = append(out, companyToOutput(&cs[i]))
	}
	return out
}

func dealsToOutput(ds []models.Deal) []DealOutput {
	out := make([]DealOutput, 0, len(ds))
	for i := range ds {
		out = append(out, dealToOutput(&ds[i]))
	}
	return out
}

func activitiesToOutput(as []models.Activity) []ActivityOutput {
	out := make([]ActivityOutput, 0, len(as))
	for i := range as {
		out = append(out, activityToOutput(&as[i]))
	}
	return out
}

// DeleteOutput reports a delete.
type DeleteOutput struct {
	ID      int  `json:"id"`
	Deleted bool `json:"deleted"`
}

// putString adds a partial-update field when the caller supplied it.
func putString(fields service.Fields, key string, v *string) {
	if v != nil {
		fields[key] = *v
	}
}
