package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/custodykeeper/internal/server/auth"
	"github.com/spf13/cobra"
)

func (a *App) newWalletCmd() *cobra.Command {
	var operatorToken string

	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Operator commands (need an operator token)",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			if cmd.Flags().Changed("operator-token") {
				a.config.OperatorToken = operatorToken
			}
			if a.config.OperatorToken == "" {
				return errors.New("operator token required, see custodyctl token")
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&operatorToken, "operator-token", "", "operator JWT (default $CUSTODYCTL_OPERATOR_TOKEN)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "info <address>",
			Short: "Show a wallet summary",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withClient(cmd.Context(), func(ctx context.Context, c custodyAPI) error {
					w, err := c.GetWallet(ctx, args[0])
					if err != nil {
						return err
					}
					fmt.Fprintf(a.out, "wallet %s\naddress %s\nemail %s\nactive %t\ncreated %s\nlast login %s\n",
						w.ID, w.Address, w.Email, w.Active,
						w.CreatedAt.Format(time.RFC3339), w.LastLoginAt.Format(time.RFC3339))
					return nil
				})
			},
		},
		a.newSetActiveCmd("deactivate", "Block logins and signing for a wallet", false),
		a.newSetActiveCmd("reactivate", "Allow a deactivated wallet to log in again", true),
	)
	return cmd
}

func (a *App) newSetActiveCmd(use, short string, active bool) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   use + " <address>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd.Context(), func(ctx context.Context, c custodyAPI) error {
				if err := c.SetActive(ctx, args[0], active, reason); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%s %sd\n", args[0], use)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "reason recorded in the audit log")
	return cmd
}

func (a *App) newTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an operator token from CUSTODY_SECRET_KEY",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.config.SecretKey == "" {
				return errors.New("CUSTODY_SECRET_KEY is not set")
			}
			token, err := auth.GenerateToken(subject, []byte(a.config.SecretKey), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "export CUSTODYCTL_OPERATOR_TOKEN=%s\n", token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "operator identity recorded in audit events")
	cmd.Flags().DurationVar(&ttl, "ttl", 15*time.Minute, "token validity")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
