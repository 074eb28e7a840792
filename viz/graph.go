// ABOUTME: GraphViz renderings of the pipeline and of the account network
// ABOUTME: Produces DOT source from loaded collections with go-graphviz
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/harperreed/dealboard/models"
	"github.com/harperreed/dealboard/pipeline"
	"go.uber.org/zap"
)

var stageColors = map[string]string{
	models.StageLead:      "lightblue",
	models.StageQualified: "lightyellow",
	models.StageProposal:  "orange",
	models.StageClosed:    "lightgreen",
}

type GraphGenerator struct {
	data   *Data
	logger *zap.Logger
}

func NewGraphGenerator(data *Data, logger *zap.Logger) *GraphGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphGenerator{data: data, logger: logger}
}

// render builds a graph with fn and returns its DOT source.
func (g *GraphGenerator) render(ctx context.Context, fn func(*cgraph.Graph) error) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer func() {
		if err := gv.Close(); err != nil {
			g.logger.Warn("error closing graphviz", zap.Error(err))
		}
	}()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() {
		if err := graph.Close(); err != nil {
			g.logger.Warn("error closing graph", zap.Error(err))
		}
	}()

	if err := fn(graph); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}

// GeneratePipelineGraph draws the stages in order with each deal hanging off its stage.
func (g *GraphGenerator) GeneratePipelineGraph(ctx context.Context) (string, error) {
	return g.render(ctx, func(graph *cgraph.Graph) error {
		graph.SetLabel("Deal Pipeline")
		graph.SetRankDir(cgraph.LRRank)

		cols := pipeline.Summarize(g.data.Deals)
		var prev *cgraph.Node
		for _, col := range cols {
			node, err := graph.CreateNodeByName("stage_" + col.Stage)
			if err != nil {
				return fmt.Errorf("failed to create stage node: %w", err)
			}
			node.SetLabel(fmt.Sprintf("%s\n%d deals\n%s", col.Label, col.Count, pipeline.FormatCurrency(col.Value)))
			node.SetShape("box")
			node.SetStyle("filled")
			node.SetFillColor(stageColors[col.Stage])

			if prev != nil {
				edge, err := graph.CreateEdgeByName("next", prev, node)
				if err != nil {
					return fmt.Errorf("failed to create edge: %w", err)
				}
				edge.SetStyle("bold")
			}
			prev = node

			for _, deal := range col.Deals {
				if err := addDealNode(graph, node, deal); err != nil {
					return err
				}
			}
		}

		unstaged := pipeline.GroupByStage(g.data.Deals).Unstaged
		if len(unstaged) == 0 {
			return nil
		}
		node, err := graph.CreateNodeByName("stage_unknown")
		if err != nil {
			return fmt.Errorf("failed to create stage node: %w", err)
		}
		node.SetLabel(fmt.Sprintf("Unknown stage\n%d deals", len(unstaged)))
		node.SetShape("box")
		node.SetStyle("dashed")
		for _, deal := range unstaged {
			if err := addDealNode(graph, node, deal); err != nil {
				return err
			}
		}
		return nil
	})
}

func addDealNode(graph *cgraph.Graph, stage *cgraph.Node, deal models.Deal) error {
	node, err := graph.CreateNodeByName(fmt.Sprintf("deal_%d", deal.ID))
	if err != nil {
		return fmt.Errorf("failed to create deal node: %w", err)
	}
	node.SetLabel(fmt.Sprintf("%s\n%s\n%d%%", deal.Title, pipeline.FormatCurrency(deal.Value), deal.Probability))
	node.SetShape("note")
	if _, err := graph.CreateEdgeByName("in_stage", stage, node); err != nil {
		return fmt.Errorf("failed to create edge: %w", err)
	}
	return nil
}

// GenerateAccountGraph draws companies, their contacts and the deals attached to either.
func (g *GraphGenerator) GenerateAccountGraph(ctx context.Context) (string, error) {
	return g.render(ctx, func(graph *cgraph.Graph) error {
		graph.SetLabel("Accounts")

		companyNodes := make(map[int]*cgraph.Node)
		for _, company := range g.data.Companies {
			node, err := graph.CreateNodeByName(fmt.Sprintf("company_%d", company.ID))
			if err != nil {
				return fmt.Errorf("failed to create company node: %w", err)
			}
			node.SetLabel(fmt.Sprintf("%s\n(Company)", company.Name))
			node.SetShape("box")
			node.SetStyle("filled")
			node.SetFillColor("lightblue")
			companyNodes[company.ID] = node
		}

		contactNodes := make(map[int]*cgraph.Node)
		for _, contact := range g.data.Contacts {
			node, err := graph.CreateNodeByName(fmt.Sprintf("contact_%d", contact.ID))
			if err != nil {
				return fmt.Errorf("failed to create contact node: %w", err)
			}
			node.SetLabel(fmt.Sprintf("%s\n%s", contact.FullName(), contact.Email))
			node.SetShape("ellipse")
			node.SetStyle("filled")
			node.SetFillColor("lightgreen")
			contactNodes[contact.ID] = node

			if companyNode, ok := companyNodes[contact.CompanyID]; ok {
				edge, err := graph.CreateEdgeByName("works_at", node, companyNode)
				if err != nil {
					return fmt.Errorf("failed to create edge: %w", err)
				}
				edge.SetLabel("works at")
				edge.SetStyle("dashed")
			}
		}

		for _, deal := range g.data.Deals {
			node, err := graph.CreateNodeByName(fmt.Sprintf("deal_%d", deal.ID))
			if err != nil {
				return fmt.Errorf("failed to create deal node: %w", err)
			}
			node.SetLabel(fmt.Sprintf("%s\n%s\n(%s)", deal.Title, pipeline.FormatCurrency(deal.Value), deal.Stage))
			node.SetShape("diamond")
			node.SetStyle("filled")
			node.SetFillColor("lightyellow")

			if companyNode, ok := companyNodes[deal.CompanyID]; ok {
				edge, err := graph.CreateEdgeByName("deal_with", companyNode, node)
				if err != nil {
					return fmt.Errorf("failed to create edge: %w", err)
				}
				edge.SetLabel("deal")
			}
			if contactNode, ok := contactNodes[deal.ContactID]; ok {
				edge, err := graph.CreateEdgeByName("contact_for", contactNode, node)
				if err != nil {
					return fmt.Errorf("failed to create edge: %w", err)
				}
				edge.SetLabel("contact")
				edge.SetStyle("dotted")
			}
		}
		return nil
	})
}
