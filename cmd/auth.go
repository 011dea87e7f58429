package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/bird/internal/config"
	"github.com/teemow/bird/internal/google"
	"github.com/teemow/bird/internal/logging"
	"github.com/teemow/bird/internal/registry"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to services that need OAuth consent",
	}
	cmd.AddCommand(newAuthCalendarCmd())
	return cmd
}

func newAuthCalendarCmd() *cobra.Command {
	var (
		envFile string
		force   bool
		debug   bool
	)

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Run the Google Calendar OAuth consent flow",
		Long: `Run the Google Calendar OAuth consent flow.

The command starts a listener on a random loopback port, prints the Google
authorization URL and waits for the browser to be redirected back. The
resulting token is written to GOOGLE_CALENDAR_TOKEN_FILE, where serve picks
it up. serve never prompts, so this command must be run once before the
Calendar tools become available.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			logger := logging.NewSlogAdapter(logging.NewLogger(cmd.ErrOrStderr(), debug))
			return runAuthCalendar(ctx, cfg.Calendar, logger, cmd.ErrOrStderr(), force)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", ".env", "Optional .env file read before the environment")
	cmd.Flags().BoolVar(&force, "force", false, "Run the consent flow even if a usable token is stored")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")

	return cmd
}

func runAuthCalendar(ctx context.Context, cfg config.CalendarConfig, logger logging.Logger, out io.Writer, force bool) error {
	if cfg.CredentialsFile == "" {
		return errors.New("GOOGLE_CALENDAR_CREDENTIALS_FILE is not set")
	}
	conf, err := google.LoadConfig(cfg.CredentialsFile, google.CalendarScopes...)
	if err != nil {
		return err
	}
	mgr, _, err := registry.CalendarTokens(cfg, logger,
		google.WithConsent(google.LoopbackConsent(conf, out)))
	if err != nil {
		return err
	}

	if !force {
		if s := mgr.State(); s == google.Valid || s == google.Expired {
			if _, err := mgr.ValidToken(ctx); err == nil {
				fmt.Fprintf(out, "Google Calendar is already authorized (token: %s). Use --force to re-authorize.\n", cfg.TokenFile)
				return nil
			}
		}
	}

	if _, err := mgr.Authorize(ctx); err != nil {
		return err
	}
	fmt.Fprintf(out, "Google Calendar authorized. Token saved to %s\n", cfg.TokenFile)
	return nil
}
