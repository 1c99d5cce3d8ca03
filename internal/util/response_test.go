package util

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/snapshelf/backend/internal/errors"
	"github.com/zfogg/snapshelf/backend/internal/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.InitializeNop()
}

func render(err error) (*httptest.ResponseRecorder, ErrorResponse) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	RespondWithError(c, err)

	var body ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestRespondWithErrorKeepsAPIErrors(t *testing.T) {
	w, body := render(errors.ValidationError("name", "name is required"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
	assert.Equal(t, "name", body.Field)

	w, body = render(fmt.Errorf("wrapped: %w", errors.NotFound("post")))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "post not found", body.Message)
}

func TestRespondWithErrorHidesUnknownErrors(t *testing.T) {
	w, body := render(fmt.Errorf("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", body.Code)
	assert.NotContains(t, body.Message, "pq")
}

func TestGetUserIDFromContext(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	_, ok := GetUserIDFromContext(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Set(ContextKeyUserID, "user-1")
	id, ok := GetUserIDFromContext(c)
	require.True(t, ok)
	assert.Equal(t, "user-1", id)
}

func TestParseList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParseList(" a, ,b "))
	assert.Empty(t, ParseList(""))
	assert.Equal(t, 7, ParseInt("7", 1))
	assert.Equal(t, 1, ParseInt("x", 1))
}
