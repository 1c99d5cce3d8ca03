package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	authToken string
	apiURL    string = "http://localhost:8787"
	output    string = "text" // "text" or "json"
)

var rootCmd = &cobra.Command{
	Use:   "snapshelf",
	Short: "Snapshelf CLI - Manage your Snapshelf account from the terminal",
	Long: `Snapshelf CLI provides command-line access to your Snapshelf account.
Manage profile visibility, friends, collections and search posts.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if authToken == "" {
			authToken = os.Getenv("SNAPSHELF_TOKEN")
		}
		if authToken == "" && requiresAuth(cmd) {
			fmt.Fprintf(os.Stderr, "Error: SNAPSHELF_TOKEN environment variable not set\n")
			fmt.Fprintf(os.Stderr, "Please set your auth token: export SNAPSHELF_TOKEN=<your-token>\n")
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&authToken, "token", "", "Authentication token (defaults to SNAPSHELF_TOKEN env var)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", apiURL, "API server URL")
	rootCmd.PersistentFlags().StringVar(&output, "output", output, "Output format: text or json")

	// Add command groups
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(friendsCmd)
	rootCmd.AddCommand(postsCmd)
	rootCmd.AddCommand(collectionsCmd)
	rootCmd.AddCommand(tokenCmd)
}

// requiresAuth reports whether cmd talks to the API.
func requiresAuth(cmd *cobra.Command) bool {
	if cmd.Name() == "help" || cmd.Parent() == nil {
		return false
	}
	for c := cmd; c != nil; c = c.Parent() {
		if c == tokenCmd {
			return false
		}
	}
	return true
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
