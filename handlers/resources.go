// ABOUTME: MCP resource handlers for exposing CRM data
// ABOUTME: Read-only JSON views of contacts, companies, deals and the pipeline via dealboard:// URIs
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/harperreed/dealboard/pipeline"
	"github.com/harperreed/dealboard/service"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// URIScheme prefixes every resource URI.
const URIScheme = "dealboard://"

type ResourceHandlers struct {
	svc *service.Services
}

func NewResourceHandlers(svc *service.Services) *ResourceHandlers {
	return &ResourceHandlers{svc: svc}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, URIScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", URIScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, URIScheme), "/")
	var id int
	if len(parts) > 1 {
		n, err := strconv.Atoi(parts[1])
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid %s id: %s", parts[0], parts[1])
		}
		id = n
	}

	switch parts[0] {
	case "contacts":
		if id == 0 {
			res := h.svc.Contacts.GetAll(ctx)
			return jsonResource(uri, contactsToOutput(res.Value), res.Err)
		}
		res := h.svc.Contacts.GetByID(ctx, id)
		if res.Err != nil {
			return nil, resultErr("read contact", res.Err, res.Failures)
		}
		return jsonResource(uri, contactToOutput(res.Value), nil)

	case "companies":
		if id == 0 {
			res := h.svc.Companies.GetAll(ctx)
			return jsonResource(uri, companiesToOutput(res.Value), res.Err)
		}
		res := h.svc.Companies.GetByID(ctx, id)
		if res.Err != nil {
			return nil, resultErr("read company", res.Err, res.Failures)
		}
		return jsonResource(uri, companyToOutput(res.Value), nil)

	case "deals":
		if id == 0 {
			res := h.svc.Deals.GetAll(ctx)
			return jsonResource(uri, dealsToOutput(res.Value), res.Err)
		}
		res := h.svc.Deals.GetByID(ctx, id)
		if res.Err != nil {
			return nil, resultErr("read deal", res.Err, res.Failures)
		}
		return jsonResource(uri, dealToOutput(res.Value), nil)

	case "pipeline":
		return h.readPipeline(ctx, uri)

	default:
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}
}

type pipelineStage struct {
	Stage string       `json:"stage"`
	Count int          `json:"count"`
	Value float64      `json:"value"`
	Share float64      `json:"share_percent"`
	Deals []DealOutput `json:"deals"`
}

func (h *ResourceHandlers) readPipeline(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	res := h.svc.Deals.GetAll(ctx)
	if res.Err != nil {
		return nil, resultErr("read pipeline", res.Err, res.Failures)
	}
	var stages []pipelineStage
	for _, col := range pipeline.Summarize(res.Value) {
		stages = append(stages, pipelineStage{
			Stage: col.Stage,
			Count: col.Count,
			Value: col.Value,
			Share: col.Share,
			Deals: dealsToOutput(col.Deals),
		})
	}
	return jsonResource(uri, stages, nil)
}

func jsonResource(uri string, v any, err error) (*mcp.ReadResourceResult, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", uri, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
