package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/goFlags/claims"
)

func (c *CLI) manager() (*claims.Manager, error) {
	reg, err := c.registry()
	if err != nil {
		return nil, err
	}
	if c.cfg.Token.Passphrase == "" {
		return nil, errors.New("token passphrase not configured (set FLAGCTL_TOKEN_PASSPHRASE)")
	}

	key, err := claims.DeriveHS256Key(c.cfg.Token.Passphrase, reg, claims.DefaultKeyParams())
	if err != nil {
		return nil, err
	}
	return claims.NewManager(reg, claims.Config{
		TTL:             c.cfg.Token.TTL,
		SigningMethod:   claims.MethodHS256,
		PrivateKey:      key,
		Issuer:          c.cfg.Token.Issuer,
		Audience:        c.cfg.Token.Audience,
		RequireIAT:      true,
		BindFingerprint: true,
	})
}

func (c *CLI) newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue and verify signed flag tokens",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "issue SUBJECT FLAGS",
		Short: "Sign a token carrying FLAGS for SUBJECT",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := c.manager()
			if err != nil {
				return err
			}
			v, err := c.reg.TryParse(args[1])
			if err != nil {
				return err
			}
			tok, err := m.Issue(args[0], v)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "verify TOKEN",
		Short: "Verify TOKEN and print its subject and flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := c.manager()
			if err != nil {
				return err
			}
			tok, err := m.Parse(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if c.jsonOutput {
				return c.printJSON(out, struct {
					Subject   string    `json:"subject"`
					ExpiresAt time.Time `json:"expires_at"`
					setView
				}{tok.Subject, tok.Claims.ExpiresAt.Time, viewOf(tok.Flags)})
			}
			fmt.Fprintf(out, "subject %s\nflags   %s\nexpires %s\n",
				tok.Subject, tok.Flags, tok.Claims.ExpiresAt.Time.UTC().Format(time.RFC3339))
			return nil
		},
	})

	return cmd
}
