package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/snapshelf/backend/internal/service"
	"github.com/zfogg/snapshelf/backend/internal/util"
)

// ToggleQuickSave saves a post to the caller's default collection, or
// removes every save the caller made of it
// POST /api/v1/posts/:id/save
func (h *Handlers) ToggleQuickSave(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	saved, err := h.collections.ToggleQuickSave(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": saved})
}

// AssignCollections sets exactly which of the caller's collections hold a post
// PUT /api/v1/posts/:id/collections
func (h *Handlers) AssignCollections(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		GroupIDs []string `json:"group_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	groups, err := h.collections.AssignCollections(c.Request.Context(), c.Param("id"), userID, req.GroupIDs)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"archive_groups": groups})
}

// ListCollections returns every collection the caller belongs to
// GET /api/v1/collections
func (h *Handlers) ListCollections(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	groups, err := h.collections.ListCollections(c.Request.Context(), userID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"collections": groups})
}

// CreateCollection creates a private collection, or a shared one when friends are named
// POST /api/v1/collections
func (h *Handlers) CreateCollection(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Name        string   `json:"name"`
		Emoji       string   `json:"emoji"`
		Description string   `json:"description"`
		FriendIDs   []string `json:"friend_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	group, err := h.collections.CreateCollection(c.Request.Context(), service.CreateCollectionInput{
		CreatorID:   userID,
		Name:        req.Name,
		Emoji:       req.Emoji,
		Description: req.Description,
		FriendIDs:   req.FriendIDs,
	})
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"collection": group})
}

// GetCollection returns a collection with a page of its posts
// GET /api/v1/collections/:id?limit=&offset=
func (h *Handlers) GetCollection(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	limit, offset := util.Pagination(c)

	view, err := h.collections.GetCollection(c.Request.Context(), c.Param("id"), userID, limit, offset)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"collection": view.Group, "posts": view.Posts})
}

// UpdateCollection renames or restyles a collection (creator only)
// PATCH /api/v1/collections/:id
func (h *Handlers) UpdateCollection(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Name        *string `json:"name"`
		Emoji       *string `json:"emoji"`
		Description *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	group, err := h.collections.UpdateCollection(c.Request.Context(), c.Param("id"), userID, service.UpdateCollectionInput{
		Name:        req.Name,
		Emoji:       req.Emoji,
		Description: req.Description,
	})
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"collection": group})
}

// DeleteCollection removes a collection for every member (creator only)
// DELETE /api/v1/collections/:id
func (h *Handlers) DeleteCollection(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := h.collections.DeleteCollection(c.Request.Context(), c.Param("id"), userID); err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddCollectionMember shares a collection with a friend
// POST /api/v1/collections/:id/members
func (h *Handlers) AddCollectionMember(c *gin.Context) {
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

	group, err := h.collections.AddCollectionMember(c.Request.Context(), c.Param("id"), userID, req.UserID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"collection": group})
}

// RemoveCollectionMember removes a member, or lets a member leave
// DELETE /api/v1/collections/:id/members/:user_id
func (h *Handlers) RemoveCollectionMember(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := h.collections.RemoveCollectionMember(c.Request.Context(), c.Param("id"), userID, c.Param("user_id")); err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddPostToCollection files a post into a collection
// POST /api/v1/collections/:id/posts
func (h *Handlers) AddPostToCollection(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		PostID string `json:"post_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.collections.AddPostToCollection(c.Request.Context(), c.Param("id"), req.PostID, userID); err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RemovePostFromCollection takes a post out of a collection
// DELETE /api/v1/collections/:id/posts/:post_id
func (h *Handlers) RemovePostFromCollection(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := h.collections.RemovePostFromCollection(c.Request.Context(), c.Param("id"), c.Param("post_id"), userID); err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
