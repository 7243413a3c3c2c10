package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func (a *App) newRecoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Reset a forgotten password with a recovery token",
	}
	cmd.AddCommand(a.newRecoverStartCmd(), a.newRecoverResetCmd())
	return cmd
}

func (a *App) newRecoverStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start [email]",
		Short: "Request a recovery token for the wallet registered to email",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := a.emailArg(args)
			if err != nil {
				return err
			}
			return a.withClient(cmd.Context(), func(ctx context.Context, c custodyAPI) error {
				if err := c.InitiateRecovery(ctx, email); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "if a wallet is registered to that email, a recovery token has been sent")
				return nil
			})
		},
	}
}

func (a *App) newRecoverResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Set a new password using a recovery token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := GetPassword(a.out, "Recovery token")
			if err != nil {
				return err
			}
			defer wipe(token)
			pw, err := GetNewPassword(a.out)
			if err != nil {
				return err
			}
			defer wipe(pw)

			return a.withClient(cmd.Context(), func(ctx context.Context, c custodyAPI) error {
				if err := c.ResetPassword(ctx, string(token), pw); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "password reset, log in with the new password")
				return nil
			})
		},
	}
}
