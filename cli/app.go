// ABOUTME: Backend wiring shared by every command
// ABOUTME: Opens the configured record store, builds services and prints notifications
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/harperreed/dealboard/charm"
	"github.com/harperreed/dealboard/config"
	"github.com/harperreed/dealboard/db"
	"github.com/harperreed/dealboard/models"
	"github.com/harperreed/dealboard/notify"
	"github.com/harperreed/dealboard/records"
	"github.com/harperreed/dealboard/service"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// Backend is an opened record store with the services built on it.
type Backend struct {
	Client   records.Client
	Services *service.Services
	// Charm is set only for the charm backend.
	Charm   *charm.Client
	closers []func() error
}

// Open connects to the backend named in cfg.
func Open(cfg *config.Config, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := models.Registry()
	b := &Backend{}

	var client records.Client
	switch cfg.Backend {
	case config.BackendSQLite:
		database, err := db.OpenDatabase(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		b.closers = append(b.closers, database.Close)
		client = db.NewStore(database, registry, logger)
	case config.BackendPostgres:
		database, err := db.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		b.closers = append(b.closers, database.Close)
		client = db.NewStore(database, registry, logger)
	case config.BackendCharm:
		cc, err := charm.NewClient(charm.Config{Host: cfg.Charm.Host, AutoSync: cfg.Charm.AutoSync}.WithDefaults())
		if err != nil {
			return nil, err
		}
		b.Charm = cc
		client = charm.NewStore(cc, registry, logger)
	case config.BackendHTTP:
		client = records.NewHTTPClient(records.HTTPConfig{
			BaseURL:   cfg.Records.URL,
			APIKey:    cfg.Records.APIKey,
			ProjectID: cfg.Records.ProjectID,
			DeviceID:  cfg.DeviceID,
			Timeout:   cfg.Records.Timeout.Duration,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown backend: %s", cfg.Backend)
	}

	b.Client = records.NewInstrumented(client)
	b.Services = service.NewServices(b.Client, logger)
	return b, nil
}

// Close releases database connections.
func (b *Backend) Close() error {
	var first error
	for _, c := range b.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ErrFailed is returned when a command reported an error notification.
var ErrFailed = errors.New("command failed")

func printNotifications(out io.Writer, c *notify.Collector) {
	for _, n := range c.Drain() {
		mark := "✓"
		switch n.Level {
		case notify.LevelError:
			mark = "✗"
		case notify.LevelWarning:
			mark = "!"
		case notify.LevelInfo:
			mark = "→"
		}
		fmt.Fprintf(out, "%s %s\n", mark, n.Message)
		for _, d := range n.Details {
			fmt.Fprintf(out, "  - %s\n", d)
		}
	}
}

// report prints the notifications for a result and turns failure into ErrFailed.
func report[T any](out io.Writer, res service.Result[T], action, success string) error {
	c := &notify.Collector{}
	ok := notify.Report(c, res, action, success)
	printNotifications(out, c)
	if !ok {
		return ErrFailed
	}
	return nil
}

// invalidForm prints form validation failures.
func invalidForm(out io.Writer, action string, failures []service.Failure) error {
	c := &notify.Collector{}
	c.Notify(notify.Describe(action, service.ErrInvalid, failures))
	printNotifications(out, c)
	return ErrFailed
}

func parseID(args []string, what string) (int, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("%s ID is required", what)
	}
	id, err := strconv.Atoi(args[0])
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID: %s", what, args[0])
	}
	return id, nil
}

// stdin and isTerminal are swapped in tests.
var (
	stdin      io.Reader = os.Stdin
	isTerminal           = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
)

// confirm asks before a destructive action. Without a terminal it refuses.
func confirm(out io.Writer, yes bool, prompt string) (bool, error) {
	if yes {
		return true, nil
	}
	if !isTerminal() {
		return false, fmt.Errorf("refusing to %s without --yes when not attached to a terminal", prompt)
	}
	fmt.Fprintf(out, "Are you sure you want to %s? [y/N] ", prompt)
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
