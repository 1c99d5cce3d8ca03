package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/snapshelf/backend/internal/util"
)

// CreateComment adds a comment or a reply to a post
// POST /api/v1/posts/:id/comments
func (h *Handlers) CreateComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Text     string  `json:"text"`
		ParentID *string `json:"parent_id,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	comment, err := h.comments.AddComment(c.Request.Context(), c.Param("id"), userID, req.Text, req.ParentID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

// GetComments returns a post's comment threads
// GET /api/v1/posts/:id/comments
func (h *Handlers) GetComments(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	comments, err := h.comments.ListComments(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// DeleteComment removes a comment (and its replies)
// DELETE /api/v1/posts/:id/comments/:comment_id
func (h *Handlers) DeleteComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := h.comments.DeleteComment(c.Request.Context(), c.Param("id"), c.Param("comment_id"), userID); err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
