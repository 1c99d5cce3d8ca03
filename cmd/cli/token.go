package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/zfogg/snapshelf/backend/internal/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token <user-id> <username>",
	Short: "Issue a development token signed with JWT_SECRET",
	Long: `Issue a bearer token for local development. Production tokens come
from the auth service; this only works when you hold the shared secret.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ttl, _ := cmd.Flags().GetDuration("ttl")
		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			return fmt.Errorf("JWT_SECRET environment variable not set")
		}
		token, err := auth.NewVerifier([]byte(secret)).Issue(args[0], args[1], ttl)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
}
