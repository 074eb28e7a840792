// ABOUTME: Deal and activity MCP tool handlers
// ABOUTME: Implements create_deal, list_deals, update_deal, move_deal, delete_deal and activity logging
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/dealboard/forms"
	"github.com/harperreed/dealboard/pipeline"
	"github.com/harperreed/dealboard/service"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type DealHandlers struct {
	svc *service.Services
	now func() time.Time
}

func NewDealHandlers(svc *service.Services) *DealHandlers {
	return &DealHandlers{svc: svc, now: time.Now}
}

type CreateDealInput struct {
	Title       string  `json:"title" jsonschema:"Deal title (required)"`
	Value       float64 `json:"value" jsonschema:"Deal value in dollars, greater than zero (required)"`
	Stage       string  `json:"stage,omitempty" jsonschema:"Stage: lead, qualified, proposal, closed (default lead)"`
	Probability int     `json:"probability,omitempty" jsonschema:"Win probability 0-100, derived from the stage when omitted"`
	CloseDate   string  `json:"close_date,omitempty" jsonschema:"Expected close date YYYY-MM-DD (default 30 days from now)"`
	ContactID   int     `json:"contact_id" jsonschema:"Id of the deal's contact (required)"`
	CompanyID   int     `json:"company_id,omitempty" jsonschema:"Id of the deal's company"`
}

func (h *DealHandlers) CreateDeal(ctx context.Context, request *mcp.CallToolRequest, input CreateDealInput) (*mcp.CallToolResult, DealOutput, error) {
	form := forms.NewDealForm(input.Stage, h.now())
	if input.Stage != "" {
		form.Stage = input.Stage
	}
	form.Title = input.Title
	form.Value = input.Value
	form.ContactID = input.ContactID
	form.CompanyID = input.CompanyID
	if input.Probability > 0 {
		form.Probability = input.Probability
	}
	if input.CloseDate != "" {
		form.CloseDate = input.CloseDate
	}
	if failures := forms.Validate(form); len(failures) > 0 {
		return nil, DealOutput{}, invalid("create deal", failures)
	}

	res := h.svc.Deals.Create(ctx, form.ToFields())
	if res.Err != nil {
		return nil, DealOutput{}, resultErr("create deal", res.Err, res.Failures)
	}
	return nil, dealToOutput(res.Value), nil
}

type ListDealsInput struct {
	Query string `json:"query,omitempty" jsonschema:"Search text matched against the title"`
	Stage string `json:"stage,omitempty" jsonschema:"Only deals in this stage"`
}

type ListDealsOutput struct {
	Deals []DealOutput `json:"deals"`
}

func (h *DealHandlers) ListDeals(ctx context.Context, request *mcp.CallToolRequest, input ListDealsInput) (*mcp.CallToolResult, ListDealsOutput, error) {
	res := h.svc.Deals.GetAll(ctx)
	if res.Err != nil {
		return nil, ListDealsOutput{}, resultErr("list deals", res.Err, res.Failures)
	}
	return nil, ListDealsOutput{Deals: dealsToOutput(service.FilterDeals(res.Value, input.Query, input.Stage))}, nil
}

type UpdateDealInput struct {
	ID          int      `json:"id" jsonschema:"Deal id (required)"`
	Title       *string  `json:"title,omitempty" jsonschema:"Updated title"`
	Value       *float64 `json:"value,omitempty" jsonschema:"Updated value in dollars"`
	Probability *int     `json:"probability,omitempty" jsonschema:"Updated win probability 0-100"`
	CloseDate   *string  `json:"close_date,omitempty" jsonschema:"Updated close date YYYY-MM-DD"`
	ContactID   *int     `json:"contact_id,omitempty" jsonschema:"Updated contact id"`
	CompanyID   *int     `json:"company_id,omitempty" jsonschema:"Updated company id"`
}

func (h *DealHandlers) UpdateDeal(ctx context.Context, request *mcp.CallToolRequest, input UpdateDealInput) (*mcp.CallToolResult, DealOutput, error) {
	if input.ID <= 0 {
		return nil, DealOutput{}, fmt.Errorf("id is required")
	}
	if input.Value != nil && *input.Value <= 0 {
		return nil, DealOutput{}, fmt.Errorf("value must be greater than 0")
	}
	if input.Probability != nil && (*input.Probability < 0 || *input.Probability > 100) {
		return nil, DealOutput{}, fmt.Errorf("probability must be between 0 and 100")
	}

	fields := service.Fields{}
	putString(fields, "title", input.Title)
	putString(fields, "closeDate", input.CloseDate)
	if input.Value != nil {
		fields["value"] = *input.Value
	}
	if input.Probability != nil {
		fields["probability"] = *input.Probability
	}
	if input.ContactID != nil {
		fields["contactId"] = *input.ContactID
	}
	if input.CompanyID != nil {
		fields["companyId"] = *input.CompanyID
	}

	res := h.svc.Deals.Update(ctx, input.ID, fields)
	if res.Err != nil {
		return nil, DealOutput{}, resultErr("update deal", res.Err, res.Failures)
	}
	return nil, dealToOutput(res.Value), nil
}

type MoveDealInput struct {
	ID    int    `json:"id" jsonschema:"Deal id (required)"`
	Stage string `json:"stage" jsonschema:"Target stage: lead, qualified, proposal, closed (required)"`
}

type MoveDealOutput struct {
	Deal  DealOutput `json:"deal"`
	From  string     `json:"from"`
	To    string     `json:"to"`
	Moved bool       `json:"moved"`
}

func (h *DealHandlers) MoveDeal(ctx context.Context, request *mcp.CallToolRequest, input MoveDealInput) (*mcp.CallToolResult, MoveDealOutput, error) {
	if input.ID <= 0 {
		return nil, MoveDealOutput{}, fmt.Errorf("id is required")
	}
	current := h.svc.Deals.GetByID(ctx, input.ID)
	if current.Err != nil {
		return nil, MoveDealOutput{}, resultErr("move deal", current.Err, current.Failures)
	}

	res := pipeline.MoveDeal(ctx, h.svc.Deals, *current.Value, input.Stage)
	if res.Err != nil {
		return nil, MoveDealOutput{}, resultErr("move deal", res.Err, res.Failures)
	}
	return nil, MoveDealOutput{
		Deal:  dealToOutput(res.Deal),
		From:  res.From,
		To:    res.To,
		Moved: !res.Noop,
	}, nil
}

func (h *DealHandlers) DeleteDeal(ctx context.Context, request *mcp.CallToolRequest, input DeleteInput) (*mcp.CallToolResult, DeleteOutput, error) {
	res := h.svc.Deals.Delete(ctx, input.ID)
	if res.Err != nil {
		return nil, DeleteOutput{ID: input.ID}, resultErr("delete deal", res.Err, res.Failures)
	}
	return nil, DeleteOutput{ID: input.ID, Deleted: res.Value}, nil
}

type LogActivityInput struct {
	Type        string `json:"type" jsonschema:"Activity type: call, email, meeting, other (required)"`
	Description string `json:"description" jsonschema:"What happened (required)"`
	ContactID   int    `json:"contact_id,omitempty" jsonschema:"Contact the activity was with"`
	DealID      int    `json:"deal_id,omitempty" jsonschema:"Deal the activity relates to"`
}

func (h *DealHandlers) LogActivity(ctx context.Context, request *mcp.CallToolRequest, input LogActivityInput) (*mcp.CallToolResult, ActivityOutput, error) {
	form := forms.ActivityForm{
		Type:        input.Type,
		Description: input.Description,
		ContactID:   input.ContactID,
		DealID:      input.DealID,
	}
	if failures := forms.Validate(form); len(failures) > 0 {
		return nil, ActivityOutput{}, invalid("log activity", failures)
	}

	res := h.svc.Activities.Create(ctx, form.ToFields())
	if res.Err != nil {
		return nil, ActivityOutput{}, resultErr("log activity", res.Err, res.Failures)
	}
	return nil, activityToOutput(res.Value), nil
}

type ListActivitiesInput struct {
	ContactID int `json:"contact_id,omitempty" jsonschema:"Only activities with this contact"`
	Limit     int `json:"limit,omitempty" jsonschema:"Maximum number of activities, newest first"`
}

type ListActivitiesOutput struct {
	Activities []ActivityOutput `json:"activities"`
}

func (h *DealHandlers) ListActivities(ctx context.Context, request *mcp.CallToolRequest, input ListActivitiesInput) (*mcp.CallToolResult, ListActivitiesOutput, error) {
	res := h.svc.Activities.GetAll(ctx)
	if res.Err != nil {
		return nil, ListActivitiesOutput{}, resultErr("list activities", res.Err, res.Failures)
	}
	activities := res.Value
	if input.ContactID > 0 {
		activities = service.ContactActivities(activities, input.ContactID)
	}
	if input.Limit > 0 && len(activities) > input.Limit {
		activities = activities[:input.Limit]
	}
	return nil, ListActivitiesOutput{Activities: activitiesToOutput(activities)}, nil
}

func (h *DealHandlers) DeleteActivity(ctx context.Context, request *mcp.CallToolRequest, input DeleteInput) (*mcp.CallToolResult, DeleteOutput, error) {
	res := h.svc.Activities.Delete(ctx, input.ID)
	if res.Err != nil {
		return nil, DeleteOutput{ID: input.ID}, resultErr("delete activity", res.Err, res.Failures)
	}
	return nil, DeleteOutput{ID: input.ID, Deleted: res.Value}, nil
}
