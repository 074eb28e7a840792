// ABOUTME: Google sync CLI commands
// ABOUTME: Handles OAuth setup, one-shot contact imports and the scheduled import daemon
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/dealboard/config"
	"github.com/harperreed/dealboard/service"
	"github.com/harperreed/dealboard/sync"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// SyncInitCommand runs the Google consent flow and saves the token.
func SyncInitCommand(ctx context.Context, cfg *config.Config, logger *zap.Logger, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(out)
	noBrowser := fs.Bool("no-browser", false, "Print the URL instead of opening a browser")
	if err := fs.Parse(args); err != nil {
		return err
	}

	auth, err := sync.NewGoogleAuth(cfg.GoogleSync, logger)
	if err != nil {
		return err
	}

	state := uuid.NewString()
	callbackChan := make(chan *oauth2.Token, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(sync.CallbackPath, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			errChan <- errors.New("oauth state mismatch")
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			errChan <- errors.New("no authorization code received")
			return
		}

		token, err := auth.Exchange(ctx, code)
		if err != nil {
			http.Error(w, "exchange failed", http.StatusBadGateway)
			errChan <- err
			return
		}

		_, _ = fmt.Fprintf(w, "Authorization successful! You can close this window.")
		callbackChan <- token
	})

	server := &http.Server{Addr: auth.CallbackAddr(), Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	authURL := auth.AuthCodeURL(state)

	fmt.Fprintln(out, "Opening browser for Google OAuth...")
	fmt.Fprintf(out, "\nIf browser doesn't open, visit this URL:\n%s\n\n", authURL)
	if !*noBrowser {
		_ = openBrowser(authURL)
	}

	select {
	case token := <-callbackChan:
		logger.Info("google contacts authorized", zap.Bool("refresh_token", token.RefreshToken != ""))
		fmt.Fprintf(out, "\n✓ Authenticated successfully\n")
		fmt.Fprintf(out, "✓ Tokens saved to %s\n\n", auth.TokenPath())
		fmt.Fprintln(out, "Ready to sync! Run 'dealboard sync contacts' to import contacts.")
		return nil

	case err := <-errChan:
		return fmt.Errorf("OAuth flow failed: %w", err)

	case <-ctx.Done():
		return ctx.Err()
	}
}

// SyncContactsCommand imports Google Contacts once, or on a schedule with --daemon.
func SyncContactsCommand(ctx context.Context, cfg *config.Config, svc *service.Services, logger *zap.Logger, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("contacts", flag.ContinueOnError)
	fs.SetOutput(out)
	daemon := fs.Bool("daemon", false, "Keep running and import on a schedule")
	schedule := fs.String("schedule", "", "Cron schedule for --daemon (default from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	importOnce := func(ctx context.Context) error {
		auth, err := sync.NewGoogleAuth(cfg.GoogleSync, logger)
		if err != nil {
			return err
		}
		ts, err := auth.TokenSource(ctx)
		if err != nil {
			return err
		}
		source, err := sync.NewPeopleClient(ctx, ts)
		if err != nil {
			return err
		}
		_, err = sync.ImportContacts(ctx, svc, source, out, logger)
		return err
	}

	if !*daemon {
		return importOnce(ctx)
	}

	spec := *schedule
	if spec == "" {
		spec = cfg.GoogleSync.Schedule
	}
	if spec == "" {
		spec = sync.DefaultSchedule
	}

	scheduler, err := sync.NewScheduler(ctx, spec, importOnce, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Importing Google Contacts on schedule %q (Ctrl+C to stop)\n", spec)
	scheduler.Run(ctx)
	return nil
}

// openBrowser attempts to open URL in default browser
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}

	return exec.Command(cmd, args...).Start()
}
