package main

import (
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zfogg/snapshelf/backend/internal/models"
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "Manage your collections",
}

var listCollectionsCmd = &cobra.Command{
	Use:   "list",
	Short: "List your collections",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listCollections()
	},
}

var createCollectionCmd = &cobra.Command{
	Use:   "create <name> [friend-id...]",
	Short: "Create a collection, shared with the friends listed",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		emoji, _ := cmd.Flags().GetString("emoji")
		var result struct {
			Collection models.ArchiveGroup `json:"collection"`
		}
		body, err := apiRequest(http.MethodPost, "/api/v1/collections", map[string]interface{}{
			"name":       args[0],
			"emoji":      emoji,
			"friend_ids": args[1:],
		}, &result)
		if err != nil {
			return err
		}
		if output == "json" {
			fmt.Println(string(body))
			return nil
		}
		fmt.Printf("✓ Created %s %s (%s)\n", result.Collection.Emoji, result.Collection.Name, result.Collection.ID)
		return nil
	},
}

var saveCmd = &cobra.Command{
	Use:   "save <post-id>",
	Short: "Quick-save a post, or unsave it if already saved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var result struct {
			Saved bool `json:"saved"`
		}
		if _, err := apiRequest(http.MethodPost, "/api/v1/posts/"+args[0]+"/save", nil, &result); err != nil {
			return err
		}
		if result.Saved {
			return report(nil, "Saved")
		}
		return report(nil, "Removed from your collections")
	},
}

var addToCollectionCmd = &cobra.Command{
	Use:   "add <collection-id> <post-id>",
	Short: "File a post into a collection",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := apiRequest(http.MethodPost, "/api/v1/collections/"+args[0]+"/posts", map[string]string{"post_id": args[1]}, nil)
		return report(err, "Post added")
	},
}

var leaveCollectionCmd = &cobra.Command{
	Use:   "leave <collection-id> <your-user-id>",
	Short: "Leave a shared collection",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := apiRequest(http.MethodDelete, "/api/v1/collections/"+args[0]+"/members/"+args[1], nil, nil)
		return report(err, "Left collection")
	},
}

func init() {
	createCollectionCmd.Flags().String("emoji", "", "Collection emoji")

	collectionsCmd.AddCommand(listCollectionsCmd)
	collectionsCmd.AddCommand(createCollectionCmd)
	collectionsCmd.AddCommand(saveCmd)
	collectionsCmd.AddCommand(addToCollectionCmd)
	collectionsCmd.AddCommand(leaveCollectionCmd)
}

func listCollections() error {
	var result struct {
		Collections []models.ArchiveGroup `json:"collections"`
	}
	body, err := apiRequest(http.MethodGet, "/api/v1/collections", nil, &result)
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}
	if len(result.Collections) == 0 {
		fmt.Printf("No collections yet\n")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPOSTS\tMEMBERS\tSHARED")
	for _, g := range result.Collections {
		fmt.Fprintf(w, "%s\t%s %s\t%d\t%d\t%t\n", g.ID, g.Emoji, g.Name, g.PostCount, len(g.Members), g.IsShared)
	}
	return w.Flush()
}
