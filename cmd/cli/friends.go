package main

import (
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zfogg/snapshelf/backend/internal/models"
)

var friendsCmd = &cobra.Command{
	Use:   "friends",
	Short: "Manage friends and friend requests",
}

var listFriendsCmd = &cobra.Command{
	Use:   "list",
	Short: "List your friends",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listFriends()
	},
}

var listRequestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "List pending friend requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listFriendRequests()
	},
}

var addFriendCmd = &cobra.Command{
	Use:   "add <user-id>",
	Short: "Send a friend request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := apiRequest(http.MethodPost, "/api/v1/friend-requests", map[string]string{"user_id": args[0]}, nil)
		return report(err, "Friend request sent")
	},
}

var acceptRequestCmd = &cobra.Command{
	Use:   "accept <request-id>",
	Short: "Accept a friend request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := apiRequest(http.MethodPost, "/api/v1/friend-requests/"+args[0]+"/accept", nil, nil)
		return report(err, "Friend request accepted")
	},
}

var declineRequestCmd = &cobra.Command{
	Use:   "decline <request-id>",
	Short: "Decline a friend request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := apiRequest(http.MethodPost, "/api/v1/friend-requests/"+args[0]+"/decline", nil, nil)
		return report(err, "Friend request declined")
	},
}

var removeFriendCmd = &cobra.Command{
	Use:   "remove <user-id>",
	Short: "Remove a friend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := apiRequest(http.MethodDelete, "/api/v1/friends/"+args[0], nil, nil)
		return report(err, "Friend removed")
	},
}

var blockCmd = &cobra.Command{
	Use:   "block <user-id>",
	Short: "Block a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := apiRequest(http.MethodPost, "/api/v1/users/"+args[0]+"/block", nil, nil)
		return report(err, "User blocked")
	},
}

var muteCmd = &cobra.Command{
	Use:   "mute <user-id>",
	Short: "Hide a user's posts from your feed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := apiRequest(http.MethodPost, "/api/v1/users/"+args[0]+"/mute", nil, nil)
		return report(err, "User muted")
	},
}

func init() {
	friendsCmd.AddCommand(listFriendsCmd)
	friendsCmd.AddCommand(listRequestsCmd)
	friendsCmd.AddCommand(addFriendCmd)
	friendsCmd.AddCommand(acceptRequestCmd)
	friendsCmd.AddCommand(declineRequestCmd)
	friendsCmd.AddCommand(removeFriendCmd)
	friendsCmd.AddCommand(blockCmd)
	friendsCmd.AddCommand(muteCmd)
}

func report(err error, message string) error {
	if err != nil {
		return err
	}
	if output != "json" {
		fmt.Printf("✓ %s\n", message)
	}
	return nil
}

func listFriends() error {
	var result struct {
		Friends []models.User `json:"friends"`
	}
	body, err := apiRequest(http.MethodGet, "/api/v1/friends?limit=50", nil, &result)
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}
	if len(result.Friends) == 0 {
		fmt.Printf("No friends yet\n")
		return nil
	}

	fmt.Printf("\n👥 Friends (%d)\n", len(result.Friends))
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tNAME")
	for _, u := range result.Friends {
		fmt.Fprintf(w, "%s\t%s\t%s\n", u.ID, u.Username, u.DisplayName)
	}
	return w.Flush()
}

func listFriendRequests() error {
	var result struct {
		Sent     []models.FriendRequest `json:"sent"`
		Received []models.FriendRequest `json:"received"`
	}
	body, err := apiRequest(http.MethodGet, "/api/v1/friend-requests", nil, &result)
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}
	if len(result.Sent) == 0 && len(result.Received) == 0 {
		fmt.Printf("✓ No pending friend requests\n")
		return nil
	}

	fmt.Printf("\n📝 Pending Friend Requests\n")
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDIRECTION\tUSER\tCREATED")
	for _, req := range result.Received {
		fmt.Fprintf(w, "%s\tfrom\t%s\t%s\n", req.ID, requestUser(req.Sender, req.SenderID), req.CreatedAt.Format("2006-01-02"))
	}
	for _, req := range result.Sent {
		fmt.Fprintf(w, "%s\tto\t%s\t%s\n", req.ID, requestUser(req.Receiver, req.ReceiverID), req.CreatedAt.Format("2006-01-02"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(result.Received) > 0 {
		fmt.Printf("\nUse: snapshelf friends accept <id>\n")
		fmt.Printf("     snapshelf friends decline <id>\n")
	}
	return nil
}

func requestUser(u *models.User, fallback string) string {
	if u != nil && u.Username != "" {
		return u.Username
	}
	return truncateString(fallback, 8)
}
