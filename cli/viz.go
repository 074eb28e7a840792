// ABOUTME: Visualization CLI commands
// ABOUTME: Handles viz dashboard and graph generation commands
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/harperreed/dealboard/service"
	"github.com/harperreed/dealboard/viz"
	"go.uber.org/zap"
)

// VizDashboardCommand prints the ASCII dashboard.
func VizDashboardCommand(svc *service.Services, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("viz dashboard", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	data, err := viz.Load(context.Background(), svc)
	if err != nil {
		return fmt.Errorf("failed to generate dashboard stats: %w", err)
	}

	fmt.Fprint(out, viz.RenderDashboard(viz.GenerateDashboardStats(data)))
	return nil
}

// VizGraphCommand renders a DOT graph: viz graph <pipeline|accounts>.
func VizGraphCommand(svc *service.Services, logger *zap.Logger, out io.Writer, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("viz graph requires a type (pipeline or accounts)")
	}
	graphType := args[0]

	fs := flag.NewFlagSet("viz graph "+graphType, flag.ContinueOnError)
	output := fs.String("output", "", "Output file (default: stdout)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	ctx := context.Background()
	data, err := viz.Load(ctx, svc)
	if err != nil {
		return err
	}
	generator := viz.NewGraphGenerator(data, logger)

	var dot string
	switch graphType {
	case "pipeline":
		dot, err = generator.GeneratePipelineGraph(ctx)
	case "accounts":
		dot, err = generator.GenerateAccountGraph(ctx)
	default:
		return fmt.Errorf("unknown graph type: %s", graphType)
	}
	if err != nil {
		return err
	}

	if *output != "" {
		return os.WriteFile(*output, []byte(dot), 0644)
	}
	fmt.Fprintln(out, dot)
	return nil
}
