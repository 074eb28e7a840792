// ABOUTME: Company MCP tool handlers
// ABOUTME: Implements add_company, find_companies, get_company, update_company and delete_company
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/dealboard/forms"
	"github.com/harperreed/dealboard/service"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type CompanyHandlers struct {
	svc *service.Services
}

func NewCompanyHandlers(svc *service.Services) *CompanyHandlers {
	return &CompanyHandlers{svc: svc}
}

type AddCompanyInput struct {
	Name     string `json:"name" jsonschema:"Company name (required)"`
	Industry string `json:"industry,omitempty" jsonschema:"Industry"`
	Size     string `json:"size,omitempty" jsonschema:"Company size, e.g. 11-50"`
	Website  string `json:"website,omitempty" jsonschema:"Website URL"`
	Address  string `json:"address,omitempty" jsonschema:"Postal address"`
}

func (h *CompanyHandlers) AddCompany(ctx context.Context, request *mcp.CallToolRequest, input AddCompanyInput) (*mcp.CallToolResult, CompanyOutput, error) {
	form := forms.CompanyForm{
		Name:     input.Name,
		Industry: input.Industry,
		Size:     input.Size,
		Website:  input.Website,
		Address:  input.Address,
	}
	if failures := forms.Validate(form); len(failures) > 0 {
		return nil, CompanyOutput{}, invalid("add company", failures)
	}

	res := h.svc.Companies.Create(ctx, form.ToFields())
	if res.Err != nil {
		return nil, CompanyOutput{}, resultErr("add company", res.Err, res.Failures)
	}
	return nil, companyToOutput(res.Value), nil
}

type FindCompaniesInput struct {
	Query string `json:"query,omitempty" jsonschema:"Search text matched against name and industry"`
}

type FindCompaniesOutput struct {
	Companies []CompanyOutput `json:"companies"`
}

func (h *CompanyHandlers) FindCompanies(ctx context.Context, request *mcp.CallToolRequest, input FindCompaniesInput) (*mcp.CallToolResult, FindCompaniesOutput, error) {
	res := h.svc.Companies.GetAll(ctx)
	if res.Err != nil {
		return nil, FindCompaniesOutput{}, resultErr("find companies", res.Err, res.Failures)
	}
	return nil, FindCompaniesOutput{Companies: companiesToOutput(service.FilterCompanies(res.Value, input.Query))}, nil
}

type GetCompanyInput struct {
	ID int `json:"id" jsonschema:"Company id (required)"`
}

type CompanyDetailOutput struct {
	Company  CompanyOutput   `json:"company"`
	Contacts []ContactOutput `json:"contacts"`
	Deals    []DealOutput    `json:"deals"`
}

func (h *CompanyHandlers) GetCompany(ctx context.Context, request *mcp.CallToolRequest, input GetCompanyInput) (*mcp.CallToolResult, CompanyDetailOutput, error) {
	if input.ID <= 0 {
		return nil, CompanyDetailOutput{}, fmt.Errorf("id is required")
	}
	res := h.svc.Companies.GetByID(ctx, input.ID)
	if res.Err != nil {
		return nil, CompanyDetailOutput{}, resultErr("get company", res.Err, res.Failures)
	}

	contacts := h.svc.Contacts.GetAll(ctx).Value
	deals := h.svc.Deals.GetAll(ctx).Value
	return nil, CompanyDetailOutput{
		Company:  companyToOutput(res.Value),
		Contacts: contactsToOutput(service.CompanyContacts(contacts, input.ID)),
		Deals:    dealsToOutput(service.CompanyDeals(deals, contacts, input.ID)),
	}, nil
}

type UpdateCompanyInput struct {
	ID       int     `json:"id" jsonschema:"Company id (required)"`
	Name     *string `json:"name,omitempty" jsonschema:"Updated name"`
	Industry *string `json:"industry,omitempty" jsonschema:"Updated industry"`
	Size     *string `json:"size,omitempty" jsonschema:"Updated size"`
	Website  *string `json:"website,omitempty" jsonschema:"Updated website"`
	Address  *string `json:"address,omitempty" jsonschema:"Updated address"`
}

func (h *CompanyHandlers) UpdateCompany(ctx context.Context, request *mcp.CallToolRequest, input UpdateCompanyInput) (*mcp.CallToolResult, CompanyOutput, error) {
	if input.ID <= 0 {
		return nil, CompanyOutput{}, fmt.Errorf("id is required")
	}
	fields := service.Fields{}
	putString(fields, "name", input.Name)
	putString(fields, "industry", input.Industry)
	putString(fields, "size", input.Size)
	putString(fields, "website", input.Website)
	putString(fields, "address", input.Address)

	res := h.svc.Companies.Update(ctx, input.ID, fields)
	if res.Err != nil {
		return nil, CompanyOutput{}, resultErr("update company", res.Err, res.Failures)
	}
	return nil, companyToOutput(res.Value), nil
}

func (h *CompanyHandlers) DeleteCompany(ctx context.Context, request *mcp.CallToolRequest, input DeleteInput) (*mcp.CallToolResult, DeleteOutput, error) {
	res := h.svc.Companies.Delete(ctx, input.ID)
	if res.Err != nil {
		return nil, DeleteOutput{ID: input.ID}, resultErr("delete company", res.Err, res.Failures)
	}
	return nil, DeleteOutput{ID: input.ID, Deleted: res.Value}, nil
}
