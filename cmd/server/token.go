package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"practicecoach/internal/model"
	"practicecoach/internal/service"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token signed with the configured secret (development only)",
	RunE:  runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().String("user", "", "user id (required)")
	tokenCmd.Flags().String("role", model.RoleCandidate, "candidate or reviewer")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime, 0 for no expiry")
	tokenCmd.MarkFlagRequired("user")
}

func runToken(cmd *cobra.Command, _ []string) error {
	_, cfg, err := setup()
	if err != nil {
		return err
	}

	user, _ := cmd.Flags().GetString("user")
	role, _ := cmd.Flags().GetString("role")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	if role != model.RoleCandidate && role != model.RoleReviewer {
		return fmt.Errorf("unknown role %q", role)
	}

	token, err := service.NewAuthService(cfg.Auth.JWTSecret).IssueToken(user, role, ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
