package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

func (a *App) newPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the server and its database are reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd.Context(), func(ctx context.Context, c custodyAPI) error {
				if err := c.Ping(ctx); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "OK")
				return nil
			})
		},
	}
}

func (a *App) newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create [email]",
		Short: "Create a wallet protected by a new password",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := a.emailArg(args)
			if err != nil {
				return err
			}
			pw, err := GetNewPassword(a.out)
			if err != nil {
				return err
			}
			defer wipe(pw)

			return a.withClient(cmd.Context(), func(ctx context.Context, c custodyAPI) error {
				w, err := c.CreateWallet(ctx, email, pw)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "wallet %s\naddress %s\n", w.WalletID, w.Address)
				return nil
			})
		},
	}
}

func (a *App) newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login [email]",
		Short: "Authenticate and print a session token",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := a.emailArg(args)
			if err != nil {
				return err
			}
			pw, err := GetPassword(a.out, "Password")
			if err != nil {
				return err
			}
			defer wipe(pw)

			return a.withClient(cmd.Context(), func(ctx context.Context, c custodyAPI) error {
				s, err := c.Login(ctx, email, pw)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "address %s\nexpires %s\n", s.Address, s.ExpiresAt.Format(time.RFC3339))
				fmt.Fprintf(a.out, "export CUSTODYCTL_SESSION=%s\n", s.SessionToken)
				return nil
			})
		},
	}
}

func (a *App) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the current session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd.Context(), func(ctx context.Context, c custodyAPI) error {
				if err := c.Logout(ctx); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "logged out")
				return nil
			})
		},
	}
}

func (a *App) newWhoAmICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the wallet behind the current session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd.Context(), func(ctx context.Context, c custodyAPI) error {
				s, err := c.WhoAmI(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "wallet %s\naddress %s\nexpires %s\n", s.WalletID, s.Address, s.ExpiresAt.Format(time.RFC3339))
				return nil
			})
		},
	}
}

// messageBytes returns msg as-is, or hex-decoded when asHex is set.
func messageBytes(msg string, asHex bool) ([]byte, error) {
	if !asHex {
		return []byte(msg), nil
	}
	return hexutil.Decode(msg)
}

func (a *App) newSignCmd() *cobra.Command {
	var asHex bool

	cmd := &cobra.Command{
		Use:   "sign <address> <message>",
		Short: "Sign a message (EIP-191) with the session's wallet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := messageBytes(args[1], asHex)
			if err != nil {
				return err
			}
			return a.withClient(cmd.Context(), func(ctx context.Context, c custodyAPI) error {
				sig, err := c.SignMessage(ctx, args[0], msg)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, sig)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asHex, "hex", false, "message is 0x-prefixed hex")
	return cmd
}

func (a *App) newVerifyCmd() *cobra.Command {
	var asHex bool

	cmd := &cobra.Command{
		Use:   "verify <address> <message> <signature>",
		Short: "Check that signature over message came from address",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := messageBytes(args[1], asHex)
			if err != nil {
				return err
			}
			return a.withClient(cmd.Context(), func(ctx context.Context, c custodyAPI) error {
				ok, err := c.VerifySignature(ctx, args[0], msg, args[2])
				if err != nil {
					return err
				}
				if !ok {
					return errors.New("signature does not match address")
				}
				fmt.Fprintln(a.out, "valid")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asHex, "hex", false, "message is 0x-prefixed hex")
	return cmd
}

func (a *App) newChangePasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "change-password <address>",
		Short: "Re-encrypt the wallet key under a new password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			old, err := GetPassword(a.out, "Current password")
			if err != nil {
				return err
			}
			defer wipe(old)
			pw, err := GetNewPassword(a.out)
			if err != nil {
				return err
			}
			defer wipe(pw)

			return a.withClient(cmd.Context(), func(ctx context.Context, c custodyAPI) error {
				if err := c.ChangePassword(ctx, args[0], old, pw); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "password changed, all sessions ended")
				return nil
			})
		},
	}
}

func (a *App) newExportCmd() *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "export <address>",
		Short: "Print the wallet's raw private key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return errors.New("export prints the raw private key; pass --yes to confirm")
			}
			pw, err := GetPassword(a.out, "Password")
			if err != nil {
				return err
			}
			defer wipe(pw)

			return a.withClient(cmd.Context(), func(ctx context.Context, c custodyAPI) error {
				key, err := c.ExportPrivateKey(ctx, args[0], pw)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, key)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm printing the private key")
	return cmd
}
