package main

import (
	"fmt"
	"time"

	"github.com/jekabolt/grbpwr-reports/internal/auth/jwt"
	"github.com/spf13/cobra"
)

var (
	tokenSubject string
	tokenTTL     time.Duration

	tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the report API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			jwtAuth, err := jwt.New(&cfg.Auth)
			if err != nil {
				return err
			}
			ttl := tokenTTL
			if ttl == 0 {
				ttl = cfg.Auth.TTL
			}
			tok, err := jwt.NewTokenWithSubject(jwtAuth, ttl, tokenSubject)
			if err != nil {
				return fmt.Errorf("can't issue token: %w", err)
			}
			fmt.Println(tok)
			return nil
		},
	}
)

func init() {
	tokenCmd.Flags().StringVarP(&tokenSubject, "subject", "s", "", "token subject claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime, defaults to auth.jwt_ttl")
}
