// Package handlers exposes the services over HTTP with gin.
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/zfogg/snapshelf/backend/internal/realtime"
	"github.com/zfogg/snapshelf/backend/internal/service"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	posts       *service.PostService
	comments    *service.CommentService
	collections *service.CollectionService
	friends     *service.FriendService
	live        *realtime.Handler
}

// NewHandlers creates a new handlers instance
func NewHandlers(posts *service.PostService, comments *service.CommentService, collections *service.CollectionService, friends *service.FriendService) *Handlers {
	return &Handlers{
		posts:       posts,
		comments:    comments,
		collections: collections,
		friends:     friends,
	}
}

// SetRealtimeHandler enables live post subscriptions
func (h *Handlers) SetRealtimeHandler(live *realtime.Handler) {
	h.live = live
}

// RegisterRoutes mounts every API route on api, which must already run the
// auth middleware.
func (h *Handlers) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/feed", h.GetFeed)

	posts := api.Group("/posts")
	{
		posts.POST("", h.CreatePost)
		posts.GET("/search", h.SearchPosts)
		posts.GET("/:id", h.GetPost)
		posts.PATCH("/:id", h.UpdatePost)
		posts.DELETE("/:id", h.DeletePost)
		posts.POST("/:id/like", h.ToggleLike)
		posts.POST("/:id/report", h.ReportPost)
		posts.POST("/:id/save", h.ToggleQuickSave)
		posts.PUT("/:id/collections", h.AssignCollections)

		posts.GET("/:id/comments", h.GetComments)
		posts.POST("/:id/comments", h.CreateComment)
		posts.DELETE("/:id/comments/:comment_id", h.DeleteComment)
	}

	collections := api.Group("/collections")
	{
		collections.GET("", h.ListCollections)
		collections.POST("", h.CreateCollection)
		collections.GET("/:id", h.GetCollection)
		collections.PATCH("/:id", h.UpdateCollection)
		collections.DELETE("/:id", h.DeleteCollection)
		collections.POST("/:id/members", h.AddCollectionMember)
		collections.DELETE("/:id/members/:user_id", h.RemoveCollectionMember)
		collections.POST("/:id/posts", h.AddPostToCollection)
		collections.DELETE("/:id/posts/:post_id", h.RemovePostFromCollection)
	}

	users := api.Group("/users")
	{
		users.GET("/:id/profile", h.GetProfile)
		users.GET("/:id/posts", h.GetUserPosts)
		users.POST("/:id/block", h.BlockUser)
		users.DELETE("/:id/block", h.UnblockUser)
		users.POST("/:id/mute", h.MuteUser)
		users.DELETE("/:id/mute", h.UnmuteUser)
	}

	api.PUT("/me/visibility", h.UpdateVisibility)

	api.GET("/friends", h.ListFriends)
	api.DELETE("/friends/:id", h.RemoveFriend)
	api.GET("/friend-requests", h.ListFriendRequests)
	api.POST("/friend-requests", h.SendFriendRequest)
	api.POST("/friend-requests/:id/accept", h.AcceptFriendRequest)
	api.POST("/friend-requests/:id/decline", h.DeclineFriendRequest)

	if h.live != nil {
		api.GET("/ws/posts/:id", h.live.HandlePostSubscription)
	}
}
