package cli

import (
	"context"
	"time"

	"github.com/dmitrijs2005/custodykeeper/internal/client/config"
	"github.com/spf13/cobra"
)

// Command builds the custodyctl command tree.
func (a *App) Command() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
		session string
	)

	root := &cobra.Command{
		Use:           "custodyctl",
		Short:         "Command-line client for the custody server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(a.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.ServerEndpointAddr = addr
			}
			if cmd.Flags().Changed("timeout") {
				cfg.Timeout = timeout
			}
			if cmd.Flags().Changed("session") {
				cfg.SessionToken = session
			}
			a.config = cfg
			return nil
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.out)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "path to JSON config file")
	pf.StringVarP(&addr, "addr", "a", "", "address and port of the custody server")
	pf.DurationVar(&timeout, "timeout", 0, "per-call timeout")
	pf.StringVar(&session, "session", "", "session token (default $CUSTODYCTL_SESSION)")

	root.AddCommand(
		a.newPingCmd(),
		a.newCreateCmd(),
		a.newLoginCmd(),
		a.newLogoutCmd(),
		a.newWhoAmICmd(),
		a.newSignCmd(),
		a.newVerifyCmd(),
		a.newChangePasswordCmd(),
		a.newExportCmd(),
		a.newRecoverCmd(),
		a.newWalletCmd(),
		a.newTokenCmd(),
		a.newMigrateCmd(),
	)
	return root
}

// Run executes custodyctl with args.
func (a *App) Run(ctx context.Context, args []string) error {
	root := a.Command()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
