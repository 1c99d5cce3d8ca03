package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/zfogg/snapshelf/backend/internal/models"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "View profiles and manage your visibility",
}

var setFriendsOnlyCmd = &cobra.Command{
	Use:   "set-friends-only",
	Short: "Show your posts to friends only",
	Long: `Make your profile friends-only. This will:
- Hide every post from people who are not your friends
- Keep existing friendships and collections`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateVisibility(models.VisibilityFriends)
	},
}

var setPublicCmd = &cobra.Command{
	Use:   "set-public",
	Short: "Make your profile public",
	Long: `Make your profile public. Posts marked public become visible to
everyone; friends-only posts stay friends-only.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateVisibility(models.VisibilityPublic)
	},
}

var getProfileCmd = &cobra.Command{
	Use:   "get <user-id>",
	Short: "Show a user's profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getProfile(args[0])
	},
}

func init() {
	profileCmd.AddCommand(setFriendsOnlyCmd)
	profileCmd.AddCommand(setPublicCmd)
	profileCmd.AddCommand(getProfileCmd)
}

func updateVisibility(visibility models.Visibility) error {
	var result struct {
		User models.User `json:"user"`
	}
	body, err := apiRequest(http.MethodPut, "/api/v1/me/visibility", map[string]string{"visibility": string(visibility)}, &result)
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}
	fmt.Printf("✓ Profile visibility set to %s\n", result.User.Visibility)
	return nil
}

func getProfile(userID string) error {
	var result struct {
		Profile models.Profile `json:"profile"`
	}
	body, err := apiRequest(http.MethodGet, "/api/v1/users/"+userID+"/profile", nil, &result)
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}

	p := result.Profile
	fmt.Printf("\n👤 %s (@%s)\n", p.DisplayName, p.Username)
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	if p.Bio != "" {
		fmt.Printf("%s\n\n", p.Bio)
	}
	fmt.Printf("Visibility: %s\n", p.Visibility)
	fmt.Printf("Posts:      %d\n", p.PostCount)
	fmt.Printf("Friends:    %d\n", p.FriendCount)
	fmt.Printf("Status:     %s\n", p.FriendStatus)
	if p.IsBlocked {
		fmt.Printf("🚫 You have blocked this user\n")
	}
	if p.IsMuted {
		fmt.Printf("🔇 You have muted this user\n")
	}
	return nil
}
