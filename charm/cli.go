// ABOUTME: CLI commands for Charm KV sync operations
// ABOUTME: SSH key auth means there is no login step, only status, sync and wipe

package charm

import (
	"flag"
	"fmt"
	"io"
)

// SyncStatusCommand shows sync configuration and connection state.
func SyncStatusCommand(c *Client, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("charm status", flag.ExitOnError)
	_ = fs.Parse(args)

	cfg := c.Config()
	fmt.Fprintln(out, "Charm Sync Status")
	fmt.Fprintln(out, "─────────────────")
	fmt.Fprintf(out, "Server:    %s\n", cfg.Host)
	fmt.Fprintf(out, "Auto-sync: %v\n", cfg.AutoSync)

	id, err := c.ID()
	if err != nil {
		fmt.Fprintln(out, "\nStatus: Not connected")
	} else {
		fmt.Fprintln(out, "\nStatus: Connected to Charm Cloud")
		fmt.Fprintf(out, "ID:        %s\n", id)
	}

	keys, err := c.KeysWithPrefix([]byte("records/"))
	if err == nil {
		fmt.Fprintf(out, "Records:   %d\n", len(keys))
	}

	fmt.Fprintln(out, "\nCharm uses SSH keys for authentication - no login required!")
	return nil
}

// SyncNowCommand performs an immediate sync.
func SyncNowCommand(c *Client, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("charm sync", flag.ExitOnError)
	verbose := fs.Bool("verbose", false, "Show verbose output")
	_ = fs.Parse(args)

	if *verbose {
		fmt.Fprintln(out, "Syncing with server...")
	}

	if err := c.Sync(); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	fmt.Fprintln(out, "✓ Synced")
	return nil
}

// SyncWipeCommand completely resets the KV store.
func SyncWipeCommand(c *Client, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("charm wipe", flag.ExitOnError)
	confirm := fs.Bool("confirm", false, "Confirm data wipe")
	_ = fs.Parse(args)

	if !*confirm {
		fmt.Fprintln(out, "WARNING: This will delete ALL local records!")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "To confirm, run:")
		fmt.Fprintln(out, "  dealboard charm wipe --confirm")
		return nil
	}

	if err := c.Reset(); err != nil {
		return fmt.Errorf("failed to reset KV store: %w", err)
	}

	fmt.Fprintln(out, "✓ All data wiped")
	return nil
}
