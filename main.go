// ABOUTME: Entry point for the dealboard CRM
// ABOUTME: Routes to the web UI, terminal board, MCP server or CLI commands based on arguments
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/dealboard/charm"
	"github.com/harperreed/dealboard/cli"
	"github.com/harperreed/dealboard/config"
	"github.com/harperreed/dealboard/service"
	"go.uber.org/zap"
)

const version = "0.2.0"

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	backendFlag := flag.String("backend", "", "Record backend override (sqlite, postgres, charm, http)")
	dbPath := flag.String("db-path", "", "Database path for the sqlite backend")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("dealboard version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *backendFlag != "" {
		if err := cfg.Set("backend", *backendFlag); err != nil {
			log.Fatalf("Error: %v", err)
		}
	}
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.PrettyLogs)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = run(ctx, cfg, logger, args[0], args[1:])
	switch {
	case err == nil:
	case errors.Is(err, cli.ErrFailed):
		// The command already printed what went wrong.
		stop()
		os.Exit(1)
	case errors.Is(err, errUsage):
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		printUsage()
		stop()
		os.Exit(1)
	default:
		logger.Error("command failed", zap.String("command", args[0]), zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

var errUsage = errors.New("unknown command")

func usageError(format string, a ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{errUsage}, a...)...)
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, command string, args []string) error {
	// Commands that never touch the record store.
	switch command {
	case "config":
		return runConfig(cfg, args)
	case "sync":
		if len(args) > 0 && args[0] == "init" {
			return cli.SyncInitCommand(ctx, cfg, logger, os.Stdout, args[1:])
		}
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	backend, err := cli.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Warn("failed to close backend", zap.Error(err))
		}
	}()
	svc := backend.Services

	switch command {
	case "mcp":
		return cli.MCPCommand(ctx, svc, logger, version)
	case "serve":
		return cli.ServeCommand(ctx, cfg, svc, logger, args)
	case "board":
		return cli.BoardCommand(ctx, svc, logger)
	case "crm":
		return runCRM(svc, args)
	case "viz":
		return runViz(svc, logger, args)
	case "store":
		if len(args) == 0 || args[0] != "serve" {
			return usageError("store requires the serve subcommand")
		}
		return cli.StoreServeCommand(ctx, cfg, backend.Client, logger, args[1:])
	case "sync":
		if len(args) == 0 || args[0] != "contacts" {
			return usageError("sync requires a subcommand (init or contacts)")
		}
		return cli.SyncContactsCommand(ctx, cfg, svc, logger, os.Stdout, args[1:])
	case "charm":
		return runCharm(backend.Charm, args)
	}
	return usageError("%s", command)
}

func runConfig(cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return usageError("config requires a subcommand")
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "show":
		return cli.ConfigShowCommand(cfg, os.Stdout, rest)
	case "set":
		return cli.ConfigSetCommand(cfg, os.Stdout, rest)
	case "init":
		return cli.ConfigInitCommand(cfg, os.Stdout, rest)
	case "api-key":
		return cli.ConfigAPIKeyCommand(cfg, os.Stdout, rest)
	}
	return usageError("config %s", sub)
}

func runCRM(svc *service.Services, args []string) error {
	if len(args) == 0 {
		return usageError("crm requires a subcommand")
	}

	sub, rest := args[0], args[1:]
	out := os.Stdout
	switch sub {
	// Contact commands
	case "add-contact":
		return cli.AddContactCommand(svc, out, rest)
	case "list-contacts":
		return cli.ListContactsCommand(svc, out, rest)
	case "show-contact":
		return cli.ShowContactCommand(svc, out, rest)
	case "update-contact":
		return cli.UpdateContactCommand(svc, out, rest)
	case "delete-contact":
		return cli.DeleteContactCommand(svc, out, rest)

	// Company commands
	case "add-company":
		return cli.AddCompanyCommand(svc, out, rest)
	case "list-companies":
		return cli.ListCompaniesCommand(svc, out, rest)
	case "show-company":
		return cli.ShowCompanyCommand(svc, out, rest)
	case "update-company":
		return cli.UpdateCompanyCommand(svc, out, rest)
	case "delete-company":
		return cli.DeleteCompanyCommand(svc, out, rest)

	// Deal commands
	case "add-deal":
		return cli.AddDealCommand(svc, out, rest)
	case "list-deals":
		return cli.ListDealsCommand(svc, out, rest)
	case "update-deal":
		return cli.UpdateDealCommand(svc, out, rest)
	case "move-deal":
		return cli.MoveDealCommand(svc, out, rest)
	case "delete-deal":
		return cli.DeleteDealCommand(svc, out, rest)

	// Activity commands
	case "log-activity":
		return cli.LogActivityCommand(svc, out, rest)
	case "list-activities":
		return cli.ListActivitiesCommand(svc, out, rest)
	case "delete-activity":
		return cli.DeleteActivityCommand(svc, out, rest)
	}
	return usageError("crm %s", sub)
}

func runViz(svc *service.Services, logger *zap.Logger, args []string) error {
	if len(args) == 0 {
		return usageError("viz requires a subcommand")
	}
	switch args[0] {
	case "dashboard":
		return cli.VizDashboardCommand(svc, os.Stdout, args[1:])
	case "graph":
		return cli.VizGraphCommand(svc, logger, os.Stdout, args[1:])
	}
	return usageError("viz %s", args[0])
}

func runCharm(c *charm.Client, args []string) error {
	if c == nil {
		return fmt.Errorf("charm commands need the charm backend (dealboard config set backend charm)")
	}
	if len(args) == 0 {
		return usageError("charm requires a subcommand")
	}
	switch args[0] {
	case "status":
		return charm.SyncStatusCommand(c, os.Stdout, args[1:])
	case "sync":
		return charm.SyncNowCommand(c, os.Stdout, args[1:])
	case "wipe":
		return charm.SyncWipeCommand(c, os.Stdout, args[1:])
	}
	return usageError("charm %s", args[0])
}

func printUsage() {
	fmt.Printf(`dealboard v%s - CRM with a drag and drop deal pipeline

USAGE:
  dealboard [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --backend <name>       Record backend override: sqlite, postgres, charm, http
  --db-path <path>       Database path for the sqlite backend

COMMANDS:
  serve                  Start the web UI (dashboard, contacts, companies, pipeline)
    --port <n>             Port to listen on (default from config: 8080)
  board                  Open the pipeline board in the terminal
  mcp                    Start MCP server for desktop assistants
  crm                    Contact, company, deal and activity commands
  viz                    Dashboard and graph commands
  store serve            Serve the local backend over the record HTTP protocol
    --port <n>             Port to listen on (default from config: 8090)
    --api-key <key>        API key clients must send
  config                 show | set <key> <value> | init | api-key
  sync init              Authorize Google Contacts import
    --no-browser           Print the authorization URL instead of opening it
  sync contacts          Import Google Contacts
    --daemon               Keep running and import on a schedule
    --schedule <cron>      Cron schedule for --daemon
  charm                  status | sync | wipe (charm backend only)

CRM COMMANDS:
  dealboard crm add-contact      Add a new contact
    --first <name>                 First name (required)
    --last <name>                  Last name (required)
    --email <email>                Email address (required)
    --phone <phone>                Phone number
    --title <title>                Job title
    --status <status>              prospect, active, customer, inactive
    --company-id <id>              Company ID

  dealboard crm list-contacts    List contacts
    --query <text>                 Search by name, email or title
    --status <status>              Filter by status
    --limit <n>                    Max results (default: 50)

  dealboard crm show-contact <id>
  dealboard crm update-contact [flags] <id>   Flags as add-contact; only given flags change
  dealboard crm delete-contact [--yes] <id>

  dealboard crm add-company      Add a new company
    --name <name>                  Company name (required)
    --industry <industry>          Industry
    --size <size>                  Company size
    --website <url>                Website URL
    --address <address>            Address

  dealboard crm list-companies   List companies
    --query <text>                 Search by name or industry

  dealboard crm show-company <id>
  dealboard crm update-company [flags] <id>
  dealboard crm delete-company [--yes] <id>

  dealboard crm add-deal         Add a new deal
    --title <title>                Deal title (required)
    --value <dollars>              Deal value (required)
    --stage <stage>                lead, qualified, proposal, closed (default: lead)
    --probability <0-100>          Default from stage
    --close-date <YYYY-MM-DD>      Default 30 days from now
    --contact-id <id>              Contact ID (required)
    --company-id <id>              Company ID

  dealboard crm list-deals       List deals
    --query <text>                 Search by title
    --stage <stage>                Filter by stage
    --board                        Group deals by stage

  dealboard crm update-deal [flags] <id>
  dealboard crm move-deal --stage <stage> <id>
  dealboard crm delete-deal [--yes] <id>

  dealboard crm log-activity     Log a call, email, meeting or other activity
    --type <type>                  call, email, meeting, other (default: call)
    --description <text>           What happened (required)
    --contact-id <id>              Contact ID
    --deal-id <id>                 Deal ID

  dealboard crm list-activities [--contact-id <id>] [--limit <n>]
  dealboard crm delete-activity [--yes] <id>

VIZ COMMANDS:
  dealboard viz dashboard                 Print pipeline and activity summary
  dealboard viz graph pipeline|accounts   Generate a DOT graph
    --output <file>                         Output file (default: stdout)

EXAMPLES:
  # Start the web UI
  dealboard serve

  # Add a deal in the proposal stage
  dealboard crm add-deal --title "Enterprise License" --value 12500 --stage proposal --contact-id 1

  # Move it to closed
  dealboard crm move-deal --stage closed 1

`, version)
}
