// ABOUTME: Dashboard and GraphViz MCP handlers
// ABOUTME: Provides get_dashboard and generate_graph tools for agents
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/dealboard/service"
	"github.com/harperreed/dealboard/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

type VizHandlers struct {
	svc    *service.Services
	logger *zap.Logger
}

func NewVizHandlers(svc *service.Services, logger *zap.Logger) *VizHandlers {
	return &VizHandlers{svc: svc, logger: logger}
}

type DashboardInput struct{}

type StageSummary struct {
	Stage string  `json:"stage"`
	Count int     `json:"count"`
	Value float64 `json:"value"`
	Share float64 `json:"share_percent"`
}

type DashboardOutput struct {
	TotalDeals       int              `json:"total_deals"`
	PipelineValue    float64          `json:"pipeline_value"`
	ClosedValue      float64          `json:"closed_value"`
	ConversionRate   string           `json:"conversion_rate"`
	ActiveContacts   int              `json:"active_contacts"`
	UnstagedDeals    int              `json:"unstaged_deals,omitempty"`
	Stages           []StageSummary   `json:"stages"`
	RecentActivities []ActivityOutput `json:"recent_activities"`
	Text             string           `json:"text"`
}

func (h *VizHandlers) GetDashboard(ctx context.Context, request *mcp.CallToolRequest, input DashboardInput) (*mcp.CallToolResult, DashboardOutput, error) {
	data, err := viz.Load(ctx, h.svc)
	if err != nil {
		return nil, DashboardOutput{}, fmt.Errorf("failed to load dashboard data: %w", err)
	}
	stats := viz.GenerateDashboardStats(data)

	out := DashboardOutput{
		TotalDeals:       stats.TotalDeals,
		PipelineValue:    stats.PipelineValue,
		ClosedValue:      stats.ClosedValue,
		ConversionRate:   stats.ConversionRate,
		ActiveContacts:   stats.ActiveContacts,
		UnstagedDeals:    stats.Unstaged,
		Stages:           make([]StageSummary, 0, len(stats.Columns)),
		RecentActivities: make([]ActivityOutput, 0, len(stats.RecentActivity)),
		Text:             viz.RenderDashboard(stats),
	}
	for _, c := range stats.Columns {
		out.Stages = append(out.Stages, StageSummary{Stage: c.Stage, Count: c.Count, Value: c.Value, Share: c.Share})
	}
	for i := range stats.RecentActivity {
		out.RecentActivities = append(out.RecentActivities, activityToOutput(&stats.RecentActivity[i].Activity))
	}
	return nil, out, nil
}

type GenerateGraphInput struct {
	Type string `json:"type" jsonschema:"Graph type: pipeline or accounts"`
}

type GenerateGraphOutput struct {
	GraphType string `json:"graph_type"`
	DOTSource string `json:"dot_source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) GenerateGraph(ctx context.Context, request *mcp.CallToolRequest, input GenerateGraphInput) (*mcp.CallToolResult, GenerateGraphOutput, error) {
	if input.Type == "" {
		return nil, GenerateGraphOutput{}, fmt.Errorf("type is required")
	}
	if input.Type != "pipeline" && input.Type != "accounts" {
		return nil, GenerateGraphOutput{}, fmt.Errorf("unknown graph type: %s (valid types: pipeline, accounts)", input.Type)
	}

	data, err := viz.Load(ctx, h.svc)
	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to load graph data: %w", err)
	}
	generator := viz.NewGraphGenerator(data, h.logger)

	var dot string
	if input.Type == "pipeline" {
		dot, err = generator.GeneratePipelineGraph(ctx)
	} else {
		dot, err = generator.GenerateAccountGraph(ctx)
	}
	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	return nil, GenerateGraphOutput{
		GraphType: input.Type,
		DOTSource: dot,
		NodeCount: strings.Count(dot, "[label="),
		EdgeCount: strings.Count(dot, "->"),
	}, nil
}
