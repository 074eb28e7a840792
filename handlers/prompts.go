// ABOUTME: MCP prompt handlers for reusable CRM workflow templates
// ABOUTME: Contact summaries, pipeline analysis and company overviews built from live data
package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/harperreed/dealboard/pipeline"
	"github.com/harperreed/dealboard/service"
	"github.com/harperreed/dealboard/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PromptHandlers struct {
	svc *service.Services
}

func NewPromptHandlers(svc *service.Services) *PromptHandlers {
	return &PromptHandlers{svc: svc}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	arguments := request.Params.Arguments
	switch request.Params.Name {
	case "contact-summary":
		return h.getContactSummaryPrompt(ctx, arguments)
	case "deal-analysis":
		return h.getDealAnalysisPrompt(ctx)
	case "company-overview":
		return h.getCompanyOverviewPrompt(ctx, arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}
}

func idArgument(args map[string]string, name string) (int, error) {
	raw, ok := args[name]
	if !ok {
		return 0, fmt.Errorf("%s is required", name)
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %s", name, raw)
	}
	return id, nil
}

func (h *PromptHandlers) getContactSummaryPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	contactID, err := idArgument(args, "contact_id")
	if err != nil {
		return nil, err
	}

	res := h.svc.Contacts.GetByID(ctx, contactID)
	if res.Err != nil {
		return nil, resultErr("fetch contact", res.Err, res.Failures)
	}
	contact := res.Value

	var companyName string
	if contact.CompanyID > 0 {
		if company := h.svc.Companies.GetByID(ctx, contact.CompanyID); company.OK() {
			companyName = company.Value.Name
		}
	}
	deals := service.ContactDeals(h.svc.Deals.GetAll(ctx).Value, contactID)
	activities := service.ContactActivities(h.svc.Activities.GetAll(ctx).Value, contactID)

	var promptText strings.Builder
	promptText.WriteString("Please provide a comprehensive summary of this contact:\n\n")
	promptText.WriteString(fmt.Sprintf("Name: %s\n", contact.FullName()))
	if contact.Title != "" {
		promptText.WriteString(fmt.Sprintf("Title: %s\n", contact.Title))
	}
	if contact.Email != "" {
		promptText.WriteString(fmt.Sprintf("Email: %s\n", contact.Email))
	}
	if contact.Phone != "" {
		promptText.WriteString(fmt.Sprintf("Phone: %s\n", contact.Phone))
	}
	if companyName != "" {
		promptText.WriteString(fmt.Sprintf("Company: %s\n", companyName))
	}
	promptText.WriteString(fmt.Sprintf("Status: %s\n", contact.Status))

	if len(deals) > 0 {
		promptText.WriteString(fmt.Sprintf("\nDeals (%d):\n", len(deals)))
		for _, d := range deals {
			promptText.WriteString(fmt.Sprintf("  - %s: %s, %s\n", d.Title, pipeline.FormatCurrency(d.Value), d.Stage))
		}
	}
	if len(activities) > 0 {
		promptText.WriteString(fmt.Sprintf("\nRecent activity (%d):\n", len(activities)))
		for _, a := range viz.RecentActivities(activities, viz.RecentLimit) {
			promptText.WriteString(fmt.Sprintf("  - %s %s: %s\n", a.CreatedAt.Format("2006-01-02"), a.Type, a.Description))
		}
	}

	promptText.WriteString("\nPlease analyze this contact and provide:")
	promptText.WriteString("\n1. A brief summary of their role and background")
	promptText.WriteString("\n2. Recommendations for next steps or follow-up actions")
	promptText.WriteString("\n3. Any patterns or insights from their interaction history")

	return userPrompt(fmt.Sprintf("Summary for contact: %s", contact.FullName()), promptText.String()), nil
}

func (h *PromptHandlers) getDealAnalysisPrompt(ctx context.Context) (*mcp.GetPromptResult, error) {
	res := h.svc.Deals.GetAll(ctx)
	if res.Err != nil {
		return nil, resultErr("fetch deals", res.Err, res.Failures)
	}
	deals := res.Value
	closed := pipeline.GroupByStage(deals).Deals("closed")

	var promptText strings.Builder
	promptText.WriteString("Please analyze the current deal pipeline:\n\n")
	promptText.WriteString(fmt.Sprintf("Total Deals: %d\n", len(deals)))
	promptText.WriteString(fmt.Sprintf("Total Value: %s\n", pipeline.FormatCurrency(pipeline.AggregateStageValue(deals))))
	promptText.WriteString(fmt.Sprintf("Conversion Rate: %s\n\n", viz.ConversionRate(len(closed), len(deals))))
	promptText.WriteString("Pipeline by Stage:\n")
	for _, col := range pipeline.Summarize(deals) {
		promptText.WriteString(fmt.Sprintf("  - %s: %d deals, %s (%.1f%%)\n",
			col.Label, col.Count, pipeline.FormatCurrency(col.Value), col.Share))
	}

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. Analysis of pipeline health and distribution")
	promptText.WriteString("\n2. Recommendations for deals that may need attention")
	promptText.WriteString("\n3. Suggestions for improving conversion rates")

	return userPrompt("Deal pipeline analysis", promptText.String()), nil
}

func (h *PromptHandlers) getCompanyOverviewPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	companyID, err := idArgument(args, "company_id")
	if err != nil {
		return nil, err
	}

	res := h.svc.Companies.GetByID(ctx, companyID)
	if res.Err != nil {
		return nil, resultErr("fetch company", res.Err, res.Failures)
	}
	company := res.Value

	contacts := h.svc.Contacts.GetAll(ctx).Value
	staff := service.CompanyContacts(contacts, companyID)
	deals := service.CompanyDeals(h.svc.Deals.GetAll(ctx).Value, contacts, companyID)

	var promptText strings.Builder
	promptText.WriteString(fmt.Sprintf("Provide an account overview for company: %s\n\n", company.Name))
	if company.Industry != "" {
		promptText.WriteString(fmt.Sprintf("Industry: %s\n", company.Industry))
	}
	if company.Website != "" {
		promptText.WriteString(fmt.Sprintf("Website: %s\n", company.Website))
	}

	promptText.WriteString(fmt.Sprintf("\nContacts at company: %d\n", len(staff)))
	for _, c := range staff {
		promptText.WriteString(fmt.Sprintf("  - %s", c.FullName()))
		if c.Email != "" {
			promptText.WriteString(fmt.Sprintf(" (%s)", c.Email))
		}
		promptText.WriteString("\n")
	}

	promptText.WriteString(fmt.Sprintf("\nDeals: %d worth %s\n", len(deals), pipeline.FormatCurrency(pipeline.AggregateStageValue(deals))))
	for _, d := range deals {
		promptText.WriteString(fmt.Sprintf("  - %s: %s, %s\n", d.Title, pipeline.FormatCurrency(d.Value), d.Stage))
	}

	promptText.WriteString("\nPlease summarize the account and suggest how to grow it.")

	return userPrompt(fmt.Sprintf("Company overview: %s", company.Name), promptText.String()), nil
}
