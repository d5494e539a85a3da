// Command pos drives the point-of-sale workflows, reports and live
// dashboards against the shared store.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"builders-pos/internal/config"
	"builders-pos/internal/logger"

	"github.com/spf13/cobra"
)

const appName = "pos"

func main() {
	if err := rootCmd(defaultOpener).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// opener builds the app for one command run and returns its cleanup.
type opener func() (*app, func(), error)

func defaultOpener() (*app, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Init(cfg.AppEnv, cfg.LogLevel); err != nil {
		return nil, nil, err
	}

	a, err := newApp(cfg)
	if err != nil {
		return nil, nil, err
	}
	return a, func() {
		_ = a.Close()
		logger.Sync()
	}, nil
}

// cli is the state shared by every subcommand.
type cli struct {
	open     opener
	app      *app
	cleanup  func()
	username string
	password string
}

func rootCmd(open opener) *cobra.Command {
	c := &cli{open: open}

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Builders point-of-sale core",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := c.open()
			if err != nil {
				return err
			}
			c.app, c.cleanup = a, cleanup
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.cleanup != nil {
				c.cleanup()
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&c.username, "user", "u", os.Getenv("POS_USER"), "username to act as")
	cmd.PersistentFlags().StringVarP(&c.password, "password", "p", os.Getenv("POS_PASSWORD"), "password for --user")

	cmd.AddCommand(
		seedCmd(c),
		reportCmd(c),
		watchCmd(c),
		cartCmd(c),
		checkoutCmd(c),
		saleCmd(c),
		releaseCmd(c),
		mirrorCmd(c),
		productCmd(c),
		supplierCmd(c),
		feedbackCmd(c),
		quoteCmd(c),
		notificationCmd(c),
		accountCmd(c),
	)
	return cmd
}

// session logs the configured user in.
func (c *cli) session(ctx context.Context) (context.Context, error) {
	ctx, _, err := c.app.login(ctx, c.username, c.password)
	if err != nil {
		return nil, fmt.Errorf("login %q: %w", c.username, err)
	}
	return ctx, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
