// ABOUTME: Contact MCP tool handlers
// ABOUTME: Implements add_contact, find_contacts, get_contact, update_contact and delete_contact
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/dealboard/forms"
	"github.com/harperreed/dealboard/models"
	"github.com/harperreed/dealboard/service"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ContactHandlers struct {
	svc *service.Services
}

func NewContactHandlers(svc *service.Services) *ContactHandlers {
	return &ContactHandlers{svc: svc}
}

type AddContactInput struct {
	FirstName string `json:"first_name" jsonschema:"First name (required)"`
	LastName  string `json:"last_name" jsonschema:"Last name (required)"`
	Email     string `json:"email" jsonschema:"Email address (required)"`
	Phone     string `json:"phone,omitempty" jsonschema:"Phone number"`
	Title     string `json:"title,omitempty" jsonschema:"Job title"`
	Status    string `json:"status,omitempty" jsonschema:"Status: prospect, active, customer, inactive (default prospect)"`
	CompanyID int    `json:"company_id,omitempty" jsonschema:"Id of the company the contact works at"`
}

func (h *ContactHandlers) AddContact(ctx context.Context, request *mcp.CallToolRequest, input AddContactInput) (*mcp.CallToolResult, ContactOutput, error) {
	form := forms.NewContactForm()
	form.FirstName = input.FirstName
	form.LastName = input.LastName
	form.Email = input.Email
	form.Phone = input.Phone
	form.Title = input.Title
	form.CompanyID = input.CompanyID
	if input.Status != "" {
		form.Status = input.Status
	}
	if failures := forms.Validate(form); len(failures) > 0 {
		return nil, ContactOutput{}, invalid("add contact", failures)
	}

	res := h.svc.Contacts.Create(ctx, form.ToFields())
	if res.Err != nil {
		return nil, ContactOutput{}, resultErr("add contact", res.Err, res.Failures)
	}
	return nil, contactToOutput(res.Value), nil
}

type FindContactsInput struct {
	Query  string `json:"query,omitempty" jsonschema:"Search text matched against name, email and title"`
	Status string `json:"status,omitempty" jsonschema:"Status filter: prospect, active, customer, inactive or all"`
}

type FindContactsOutput struct {
	Contacts []ContactOutput `json:"contacts"`
}

func (h *ContactHandlers) FindContacts(ctx context.Context, request *mcp.CallToolRequest, input FindContactsInput) (*mcp.CallToolResult, FindContactsOutput, error) {
	res := h.svc.Contacts.GetAll(ctx)
	if res.Err != nil {
		return nil, FindContactsOutput{}, resultErr("find contacts", res.Err, res.Failures)
	}
	matched := service.FilterContacts(res.Value, input.Query, input.Status)
	return nil, FindContactsOutput{Contacts: contactsToOutput(matched)}, nil
}

type GetContactInput struct {
	ID int `json:"id" jsonschema:"Contact id (required)"`
}

type ContactDetailOutput struct {
	Contact    ContactOutput    `json:"contact"`
	Company    string           `json:"company,omitempty"`
	Deals      []DealOutput     `json:"deals"`
	Activities []ActivityOutput `json:"activities"`
}

func (h *ContactHandlers) GetContact(ctx context.Context, request *mcp.CallToolRequest, input GetContactInput) (*mcp.CallToolResult, ContactDetailOutput, error) {
	if input.ID <= 0 {
		return nil, ContactDetailOutput{}, fmt.Errorf("id is required")
	}
	res := h.svc.Contacts.GetByID(ctx, input.ID)
	if res.Err != nil {
		return nil, ContactDetailOutput{}, resultErr("get contact", res.Err, res.Failures)
	}

	out := ContactDetailOutput{Contact: contactToOutput(res.Value)}

	deals := h.svc.Deals.GetAll(ctx)
	out.Deals = dealsToOutput(service.ContactDeals(deals.Value, input.ID))
	activities := h.svc.Activities.GetAll(ctx)
	out.Activities = activitiesToOutput(service.ContactActivities(activities.Value, input.ID))
	if res.Value.CompanyID > 0 {
		if company := h.svc.Companies.GetByID(ctx, res.Value.CompanyID); company.OK() {
			out.Company = company.Value.Name
		}
	}
	return nil, out, nil
}

type UpdateContactInput struct {
	ID        int     `json:"id" jsonschema:"Contact id (required)"`
	FirstName *string `json:"first_name,omitempty" jsonschema:"Updated first name"`
	LastName  *string `json:"last_name,omitempty" jsonschema:"Updated last name"`
	Email     *string `json:"email,omitempty" jsonschema:"Updated email"`
	Phone     *string `json:"phone,omitempty" jsonschema:"Updated phone"`
	Title     *string `json:"title,omitempty" jsonschema:"Updated job title"`
	Status    *string `json:"status,omitempty" jsonschema:"Updated status"`
	CompanyID *int    `json:"company_id,omitempty" jsonschema:"Updated company id"`
}

func (h *ContactHandlers) UpdateContact(ctx context.Context, request *mcp.CallToolRequest, input UpdateContactInput) (*mcp.CallToolResult, ContactOutput, error) {
	if input.ID <= 0 {
		return nil, ContactOutput{}, fmt.Errorf("id is required")
	}
	if input.Status != nil && !models.IsValidStatus(*input.Status) {
		return nil, ContactOutput{}, fmt.Errorf("invalid status: %s (valid: prospect, active, customer, inactive)", *input.Status)
	}

	fields := service.Fields{}
	putString(fields, "firstName", input.FirstName)
	putString(fields, "lastName", input.LastName)
	putString(fields, "email", input.Email)
	putString(fields, "phone", input.Phone)
	putString(fields, "title", input.Title)
	putString(fields, "status", input.Status)
	if input.CompanyID != nil {
		fields["companyId"] = *input.CompanyID
	}

	res := h.svc.Contacts.Update(ctx, input.ID, fields)
	if res.Err != nil {
		return nil, ContactOutput{}, resultErr("update contact", res.Err, res.Failures)
	}
	return nil, contactToOutput(res.Value), nil
}

type DeleteInput struct {
	ID int `json:"id" jsonschema:"Record id (required)"`
}

func (h *ContactHandlers) DeleteContact(ctx context.Context, request *mcp.CallToolRequest, input DeleteInput) (*mcp.CallToolResult, DeleteOutput, error) {
	res := h.svc.Contacts.Delete(ctx, input.ID)
	if res.Err != nil {
		return nil, DeleteOutput{ID: input.ID}, resultErr("delete contact", res.Err, res.Failures)
	}
	return nil, DeleteOutput{ID: input.ID, Deleted: res.Value}, nil
}
