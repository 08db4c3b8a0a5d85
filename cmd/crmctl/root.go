package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"bookingcrm/internal/client"
	"bookingcrm/internal/domain"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	apiURL      string
	sessionFile string
	quiet       bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "crmctl",
		Short:         "Browse and export CRM bookings",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetFlags(0)
			log.SetPrefix("crmctl: ")
			if opts.quiet {
				log.SetOutput(nopWriter{})
			}
		},
	}

	cmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "API base URL (default $CRM_API_URL or http://localhost:8080)")
	cmd.PersistentFlags().StringVar(&opts.sessionFile, "session-file", defaultSessionPath(), "where the login session is stored")
	cmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "suppress notices")

	cmd.AddCommand(
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newListCmd(opts),
		newExportCmd(opts),
		newTrashCmd(opts, "trash", "Move a booking to trash"),
		newTrashCmd(opts, "restore", "Restore a booking from trash"),
		newTrashCmd(opts, "purge", "Permanently delete a trashed booking"),
	)
	return cmd
}

func (o *rootOptions) client() (*client.Client, error) {
	cfg, err := client.ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	if o.apiURL != "" {
		cfg.BaseURL = strings.TrimSpace(o.apiURL)
	}
	return client.New(cfg)
}

func (o *rootOptions) session() (domain.Session, error) {
	s, err := loadSession(o.sessionFile)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: run `crmctl login` first", err)
	}
	return s, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("CRM_PASSWORD")
			}
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password (or $CRM_PASSWORD) are required")
			}

			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			s, err := c.Login(ctx, email, password)
			if err != nil {
				return err
			}
			if err := saveSession(opts.sessionFile, s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", s.Name, s.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return clearSession(opts.sessionFile)
		},
	}
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
