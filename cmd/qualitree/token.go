package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	iauth "github.com/charlesng35/qualitree/internal/auth"
)

func newTokenCommand(opts *rootOptions) *cobra.Command {
	var (
		subject string
		scopes  []string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token signed with the configured secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if !cfg.Auth.JWT.Enabled || opts.generated["auth.jwt.secret"] || strings.TrimSpace(cfg.Auth.JWT.Secret) == "" {
				return errors.New("auth.jwt must be enabled with an explicit secret to issue tokens")
			}

			svc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
			if err != nil {
				return err
			}
			token, err := svc.GenerateAccessToken(iauth.AccessTokenInput{
				Subject: subject,
				Scopes:  scopes,
				TTL:     ttl,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "Token subject recorded as the audit actor")
	cmd.Flags().StringSliceVar(&scopes, "scope", []string{iauth.ScopeWrite}, "Granted scopes")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to auth.jwt.access_token_ttl)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
