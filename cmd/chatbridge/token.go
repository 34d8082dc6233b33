package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/memohai/chatbridge/internal/auth"
	"github.com/memohai/chatbridge/internal/bots"
)

func newTokenCommand(configPath *string) *cobra.Command {
	var (
		botID     string
		expiresIn string
	)

	cmd := &cobra.Command{
		Use:     "token",
		Short:   "Issue an API token for a bot",
		Example: "  chatbridge token --bot support --expires-in 720h",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			botID = strings.TrimSpace(botID)
			if botID == "" {
				return errors.New("--bot is required")
			}
			if _, err := bots.NewDirectory(nil, cfg.Bots).Get(cmd.Context(), botID); err != nil {
				return err
			}
			if expiresIn == "" {
				expiresIn = cfg.Auth.JWTExpiresIn
			}
			ttl, err := time.ParseDuration(expiresIn)
			if err != nil {
				return fmt.Errorf("invalid expires in: %w", err)
			}
			token, expiresAt, err := auth.GenerateBotToken(botID, cfg.Auth.JWTSecret, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&botID, "bot", "", "Bot id the token acts for")
	cmd.Flags().StringVar(&expiresIn, "expires-in", "", "Token lifetime (default auth.jwt_expires_in)")
	return cmd
}
