package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile  string
	addr        string
	sessionFile string
	timeout     time.Duration
}

// NewRootCmd creates the gophauth CLI. Subcommands share app, which the
// caller closes once the command finished.
func NewRootCmd(app *App) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "gophauth",
		Short: "gophauth - command-line client of the gophauth server",
		Long: `gophauth registers accounts, logs in and keeps the session
(access and refresh tokens) in a local file between invocations.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			app.reader = bufio.NewReader(cmd.InOrStdin())
			app.out = cmd.OutOrStdout()
			return app.open(cmd.Context(), cfg)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "config file path")
	flags.StringVarP(&opts.addr, "addr", "a", "", "address and port of the server")
	flags.StringVarP(&opts.sessionFile, "session-file", "f", "", "file that keeps the session")
	flags.DurationVarP(&opts.timeout, "timeout", "t", 0, "timeout of server calls")

	cmd.AddCommand(newRegisterCmd(app))
	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newRefreshCmd(app))
	cmd.AddCommand(newWhoAmICmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newPingCmd(app))

	return cmd
}

// loadConfig applies defaults, JSON and environment, then the flags the
// user actually set.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	cfg, err := config.LoadConfig(opts.configFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.ServerEndpointAddr = opts.addr
	}
	if flags.Changed("session-file") {
		cfg.SessionFile = opts.sessionFile
	}
	if flags.Changed("timeout") {
		cfg.RequestTimeout = opts.timeout
	}
	return cfg, nil
}

// Execute runs the CLI with args and closes whatever the command opened.
func Execute(ctx context.Context, factory Factory, args []string, in io.Reader, out io.Writer) error {
	app := &App{factory: factory}
	cmd := NewRootCmd(app)
	cmd.SetArgs(args)
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(out)

	err := cmd.ExecuteContext(ctx)
	return errors.Join(err, app.Close())
}
