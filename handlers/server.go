// ABOUTME: MCP server assembly
// ABOUTME: Registers every tool, prompt and resource against the entity services
package handlers

import (
	"github.com/harperreed/dealboard/service"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// NewServer builds an MCP server exposing the CRM.
func NewServer(svc *service.Services, logger *zap.Logger, version string) *mcp.Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	contactHandlers := NewContactHandlers(svc)
	companyHandlers := NewCompanyHandlers(svc)
	dealHandlers := NewDealHandlers(svc)
	vizHandlers := NewVizHandlers(svc, logger)
	resourceHandlers := NewResourceHandlers(svc)
	promptHandlers := NewPromptHandlers(svc)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "dealboard",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{Name: "add_contact", Description: "Add a new contact to the CRM"}, contactHandlers.AddContact)
	mcp.AddTool(server, &mcp.Tool{Name: "find_contacts", Description: "Search contacts by name, email or title with an optional status filter"}, contactHandlers.FindContacts)
	mcp.AddTool(server, &mcp.Tool{Name: "get_contact", Description: "Get a contact with its deals and activities"}, contactHandlers.GetContact)
	mcp.AddTool(server, &mcp.Tool{Name: "update_contact", Description: "Update an existing contact's information"}, contactHandlers.UpdateContact)
	mcp.AddTool(server, &mcp.Tool{Name: "delete_contact", Description: "Delete a contact"}, contactHandlers.DeleteContact)

	mcp.AddTool(server, &mcp.Tool{Name: "add_company", Description: "Add a new company to the CRM"}, companyHandlers.AddCompany)
	mcp.AddTool(server, &mcp.Tool{Name: "find_companies", Description: "Search companies by name or industry"}, companyHandlers.FindCompanies)
	mcp.AddTool(server, &mcp.Tool{Name: "get_company", Description: "Get a company with its contacts and deals"}, companyHandlers.GetCompany)
	mcp.AddTool(server, &mcp.Tool{Name: "update_company", Description: "Update an existing company's information"}, companyHandlers.UpdateCompany)
	mcp.AddTool(server, &mcp.Tool{Name: "delete_company", Description: "Delete a company"}, companyHandlers.DeleteCompany)

	mcp.AddTool(server, &mcp.Tool{Name: "create_deal", Description: "Create a new deal for a contact"}, dealHandlers.CreateDeal)
	mcp.AddTool(server, &mcp.Tool{Name: "list_deals", Description: "List deals, optionally filtered by title or stage"}, dealHandlers.ListDeals)
	mcp.AddTool(server, &mcp.Tool{Name: "update_deal", Description: "Update a deal's title, value, probability, close date or references"}, dealHandlers.UpdateDeal)
	mcp.AddTool(server, &mcp.Tool{Name: "move_deal", Description: "Move a deal to another pipeline stage"}, dealHandlers.MoveDeal)
	mcp.AddTool(server, &mcp.Tool{Name: "delete_deal", Description: "Delete a deal"}, dealHandlers.DeleteDeal)
	mcp.AddTool(server, &mcp.Tool{Name: "log_activity", Description: "Log a call, email, meeting or other activity"}, dealHandlers.LogActivity)
	mcp.AddTool(server, &mcp.Tool{Name: "list_activities", Description: "List activities newest first, optionally for one contact"}, dealHandlers.ListActivities)
	mcp.AddTool(server, &mcp.Tool{Name: "delete_activity", Description: "Delete an activity"}, dealHandlers.DeleteActivity)

	mcp.AddTool(server, &mcp.Tool{Name: "get_dashboard", Description: "Pipeline metrics, per-stage summary and recent activity"}, vizHandlers.GetDashboard)
	mcp.AddTool(server, &mcp.Tool{Name: "generate_graph", Description: "Generate a GraphViz DOT graph of the pipeline or the account network"}, vizHandlers.GenerateGraph)

	server.AddPrompt(&mcp.Prompt{
		Name:        "contact-summary",
		Description: "Summarize a contact with their deals and recent activity",
		Arguments:   []*mcp.PromptArgument{{Name: "contact_id", Description: "Contact id", Required: true}},
	}, promptHandlers.GetPrompt)
	server.AddPrompt(&mcp.Prompt{
		Name:        "deal-analysis",
		Description: "Analyze pipeline health and conversion",
	}, promptHandlers.GetPrompt)
	server.AddPrompt(&mcp.Prompt{
		Name:        "company-overview",
		Description: "Overview of a company's contacts and deals",
		Arguments:   []*mcp.PromptArgument{{Name: "company_id", Description: "Company id", Required: true}},
	}, promptHandlers.GetPrompt)

	for _, r := range []struct{ name, desc string }{
		{"contacts", "All contacts"},
		{"companies", "All companies"},
		{"deals", "All deals"},
		{"pipeline", "Deals grouped by stage with totals"},
	} {
		server.AddResource(&mcp.Resource{
			URI:         URIScheme + r.name,
			Name:        r.name,
			Description: r.desc,
			MIMEType:    "application/json",
		}, resourceHandlers.ReadResource)
	}
	for _, name := range []string{"contacts", "companies", "deals"} {
		server.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: URIScheme + name + "/{id}",
			Name:        name + "-by-id",
			MIMEType:    "application/json",
		}, resourceHandlers.ReadResource)
	}

	return server
}
