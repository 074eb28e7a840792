// ABOUTME: Configuration CLI commands
// ABOUTME: Show, set and initialize the config file and store the record store API key
package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/harperreed/dealboard/config"
	"golang.org/x/term"
)

// ConfigShowCommand prints the effective configuration with secrets masked.
func ConfigShowCommand(cfg *config.Config, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("config show", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	redacted := cfg.Redacted()
	data, err := json.MarshalIndent(redacted, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	fmt.Fprintf(out, "# %s\n%s\n", config.Path(), data)
	return nil
}

// ConfigSetCommand assigns one key: config set <key> <value>.
func ConfigSetCommand(cfg *config.Config, out io.Writer, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: config set <key> <value>")
	}
	if err := cfg.Set(args[0], args[1]); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ %s updated\n", args[0])
	return nil
}

// ConfigInitCommand writes a config file, assigning a device ID.
func ConfigInitCommand(cfg *config.Config, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("config init", flag.ContinueOnError)
	backend := fs.String("backend", cfg.Backend, "Record backend: "+strings.Join(config.Backends, ", "))
	url := fs.String("url", cfg.Records.URL, "Record store URL for the http backend")
	force := fs.Bool("force", false, "Overwrite an existing config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := os.Stat(config.Path()); err == nil && !*force {
		return fmt.Errorf("config already exists at %s (use --force to overwrite)", config.Path())
	}

	if err := cfg.Set("backend", *backend); err != nil {
		return err
	}
	cfg.Records.URL = *url
	if err := config.Save(cfg); err != nil {
		return err
	}

	fmt.Fprintf(out, "✓ Device ID: %s\n", cfg.DeviceID)
	fmt.Fprintf(out, "✓ Configuration saved to %s\n", config.Path())
	if cfg.Backend == config.BackendHTTP && cfg.Records.APIKey == "" {
		fmt.Fprintln(out, "\nNext step: Run 'dealboard config api-key' to store the record store API key")
	}
	return nil
}

// ConfigAPIKeyCommand prompts for the record store API key without echo.
func ConfigAPIKeyCommand(cfg *config.Config, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("config api-key", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !isTerminal() {
		return fmt.Errorf("api-key must be entered interactively; use DEALBOARD_RECORDS_API_KEY otherwise")
	}

	fmt.Fprint(out, "API key: ")
	keyBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return fmt.Errorf("failed to read API key: %w", err)
	}
	fmt.Fprintln(out)

	key := strings.TrimSpace(string(keyBytes))
	if key == "" {
		return fmt.Errorf("API key cannot be empty")
	}
	cfg.Records.APIKey = key
	if err := config.Save(cfg); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ API key saved to %s\n", config.Path())
	return nil
}
