package main

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zfogg/snapshelf/backend/internal/models"
)

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Browse, search and report posts",
}

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Show your feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		path := "/api/v1/feed?limit=" + strconv.Itoa(limit) + "&offset=" + strconv.Itoa(offset)
		return listPosts(path)
	},
}

var searchPostsCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search posts by description, tags and location",
	Long: `Search posts with full-text search powered by Elasticsearch.
Only posts you are allowed to see are returned.

Examples:
  snapshelf posts search "sunset"
  snapshelf posts search "lisbon tram" --limit 10`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		params := url.Values{}
		params.Set("q", args[0])
		params.Set("limit", strconv.Itoa(limit))
		return listPosts("/api/v1/posts/search?" + params.Encode())
	},
}

var userPostsCmd = &cobra.Command{
	Use:   "by <user-id>",
	Short: "List a user's posts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return listPosts("/api/v1/users/" + args[0] + "/posts?limit=" + strconv.Itoa(limit))
	},
}

var likeCmd = &cobra.Command{
	Use:   "like <post-id>",
	Short: "Like or unlike a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var result struct {
			Liked bool `json:"liked"`
		}
		if _, err := apiRequest(http.MethodPost, "/api/v1/posts/"+args[0]+"/like", nil, &result); err != nil {
			return err
		}
		if result.Liked {
			return report(nil, "Liked")
		}
		return report(nil, "Unliked")
	},
}

var reportCmd = &cobra.Command{
	Use:   "report <post-id> <reason>",
	Short: "Report a post to moderators",
	Long:  "Reason is one of: spam, harassment, inappropriate, violence, other",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")
		_, err := apiRequest(http.MethodPost, "/api/v1/posts/"+args[0]+"/report", map[string]string{
			"reason":      args[1],
			"description": description,
		}, nil)
		return report(err, "Report submitted")
	},
}

func init() {
	feedCmd.Flags().Int("limit", 20, "Number of posts")
	feedCmd.Flags().Int("offset", 0, "Posts to skip")
	searchPostsCmd.Flags().Int("limit", 20, "Maximum number of results")
	userPostsCmd.Flags().Int("limit", 20, "Number of posts")
	reportCmd.Flags().String("description", "", "Optional details for moderators")

	postsCmd.AddCommand(feedCmd)
	postsCmd.AddCommand(searchPostsCmd)
	postsCmd.AddCommand(userPostsCmd)
	postsCmd.AddCommand(likeCmd)
	postsCmd.AddCommand(reportCmd)
}

func listPosts(path string) error {
	var result struct {
		Posts []models.Post `json:"posts"`
	}
	body, err := apiRequest(http.MethodGet, path, nil, &result)
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}
	if len(result.Posts) == 0 {
		fmt.Printf("No posts found\n")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tBY\tLIKES\tCOMMENTS\tTAGS\tDESCRIPTION")
	for _, p := range result.Posts {
		author := p.UserID
		if p.User != nil {
			author = p.User.Username
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n",
			p.ID,
			truncateString(author, 16),
			p.LikeCount,
			p.CommentCount,
			strings.Join(p.Tags, ","),
			truncateString(p.Description, 40))
	}
	return w.Flush()
}
