package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/snapshelf/backend/internal/models"
	"github.com/zfogg/snapshelf/backend/internal/util"
)

// GetProfile returns a user's profile relative to the caller
// GET /api/v1/users/:id/profile
func (h *Handlers) GetProfile(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	profile, err := h.friends.GetProfile(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// UpdateVisibility sets whether the caller's profile is public or friends-only
// PUT /api/v1/me/visibility
func (h *Handlers) UpdateVisibility(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Visibility string `json:"visibility" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	user, err := h.friends.UpdateVisibility(c.Request.Context(), userID, models.Visibility(req.Visibility))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ListFriends returns the caller's friends
// GET /api/v1/friends?limit=&offset=
func (h *Handlers) ListFriends(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	limit, offset := util.Pagination(c)

	friends, err := h.friends.ListFriends(c.Request.Context(), userID, limit, offset)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

// RemoveFriend ends a friendship in both directions
// DELETE /api/v1/friends/:id
func (h *Handlers) RemoveFriend(c *gin.Context) {
	h.userAction(c, h.friends.RemoveFriend)
}

// ListFriendRequests returns pending requests the caller sent and received
// GET /api/v1/friend-requests
func (h *Handlers) ListFriendRequests(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	requests, err := h.friends.ListFriendRequests(c.Request.Context(), userID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": requests.Sent, "received": requests.Received})
}

// SendFriendRequest asks another user to be friends
// POST /api/v1/friend-requests
func (h *Handlers) SendFriendRequest(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	request, err := h.friends.SendFriendRequest(c.Request.Context(), userID, req.UserID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"request": request})
}

// AcceptFriendRequest accepts a request the caller received
// POST /api/v1/friend-requests/:id/accept
func (h *Handlers) AcceptFriendRequest(c *gin.Context) {
	h.userAction(c, func(ctx context.Context, userID, requestID string) error {
		return h.friends.AcceptFriendRequest(ctx, requestID, userID)
	})
}

// DeclineFriendRequest declines a request the caller received
// POST /api/v1/friend-requests/:id/decline
func (h *Handlers) DeclineFriendRequest(c *gin.Context) {
	h.userAction(c, func(ctx context.Context, userID, requestID string) error {
		return h.friends.DeclineFriendRequest(ctx, requestID, userID)
	})
}

// BlockUser POST /api/v1/users/:id/block
func (h *Handlers) BlockUser(c *gin.Context) {
	h.userAction(c, h.friends.Block)
}

// UnblockUser DELETE /api/v1/users/:id/block
func (h *Handlers) UnblockUser(c *gin.Context) {
	h.userAction(c, h.friends.Unblock)
}

// MuteUser POST /api/v1/users/:id/mute
func (h *Handlers) MuteUser(c *gin.Context) {
	h.userAction(c, h.friends.Mute)
}

// UnmuteUser DELETE /api/v1/users/:id/mute
func (h *Handlers) UnmuteUser(c *gin.Context) {
	h.userAction(c, h.friends.Unmute)
}

// userAction runs an action that takes the caller and the :id path
// parameter and returns nothing but an error.
func (h *Handlers) userAction(c *gin.Context, action func(ctx context.Context, userID, targetID string) error) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	if err := action(c.Request.Context(), userID, c.Param("id")); err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
