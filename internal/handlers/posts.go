package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/snapshelf/backend/internal/models"
	"github.com/zfogg/snapshelf/backend/internal/service"
	"github.com/zfogg/snapshelf/backend/internal/util"
)

// CreatePost uploads an image and creates a post
// POST /api/v1/posts (multipart: image, description, tags, location_name, location_address, visibility)
func (h *Handlers) CreatePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		util.RespondValidationError(c, "image", "image is required")
		return
	}
	data, err := util.ReadUploadedFile(file, service.MaxImageBytes)
	if err != nil {
		util.RespondValidationError(c, "image", err.Error())
		return
	}

	var location *models.Location
	if name := strings.TrimSpace(c.PostForm("location_name")); name != "" {
		location = &models.Location{Name: name, Address: c.PostForm("location_address")}
	}

	post, err := h.posts.CreatePost(c.Request.Context(), service.CreatePostInput{
		OwnerID:     userID,
		ImageData:   data,
		Filename:    file.Filename,
		Description: c.PostForm("description"),
		Tags:        util.ParseList(c.PostForm("tags")),
		Location:    location,
		Visibility:  models.Visibility(c.PostForm("visibility")),
	})
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// GetPost returns a single post with its likes, comments and collections
// GET /api/v1/posts/:id
func (h *Handlers) GetPost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	post, err := h.posts.GetPost(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

// UpdatePost edits the owner's post
// PATCH /api/v1/posts/:id
func (h *Handlers) UpdatePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Description   *string            `json:"description"`
		Tags          *[]string          `json:"tags"`
		Location      *models.Location   `json:"location"`
		ClearLocation bool               `json:"clear_location"`
		Visibility    *models.Visibility `json:"visibility"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	post, err := h.posts.UpdatePost(c.Request.Context(), c.Param("id"), userID, service.UpdatePostInput{
		Description:   req.Description,
		Tags:          req.Tags,
		Location:      req.Location,
		ClearLocation: req.ClearLocation,
		Visibility:    req.Visibility,
	})
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

// DeletePost removes the owner's post and everything hanging off it
// DELETE /api/v1/posts/:id
func (h *Handlers) DeletePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := h.posts.DeletePost(c.Request.Context(), c.Param("id"), userID); err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetFeed returns posts from the caller and their friends, newest first
// GET /api/v1/feed?limit=&offset=
func (h *Handlers) GetFeed(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	limit, offset := util.Pagination(c)

	posts, err := h.posts.Feed(c.Request.Context(), userID, limit, offset)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"posts":  posts,
		"limit":  service.ClampLimit(limit),
		"offset": offset,
	})
}

// GetUserPosts returns a profile's posts the caller may see
// GET /api/v1/users/:id/posts?limit=&offset=
func (h *Handlers) GetUserPosts(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	limit, offset := util.Pagination(c)

	posts, err := h.posts.UserPosts(c.Request.Context(), c.Param("id"), userID, limit, offset)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// SearchPosts runs a full-text search and returns visible matches
// GET /api/v1/posts/search?q=&limit=
func (h *Handlers) SearchPosts(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	limit, _ := util.Pagination(c)

	posts, err := h.posts.SearchPosts(c.Request.Context(), userID, c.Query("q"), limit)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts, "query": c.Query("q")})
}

// ToggleLike likes or unlikes a post
// POST /api/v1/posts/:id/like
func (h *Handlers) ToggleLike(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	liked, err := h.posts.ToggleLike(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

// ReportPost flags a post for moderation
// POST /api/v1/posts/:id/report
func (h *Handlers) ReportPost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Reason      string `json:"reason" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	report, err := h.posts.ReportPost(c.Request.Context(), c.Param("id"), userID, models.ReportReason(req.Reason), req.Description)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"report_id": report.ID})
}
