package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/zfogg/snapshelf/backend/internal/cache"
	"github.com/zfogg/snapshelf/backend/internal/models"
	"github.com/zfogg/snapshelf/backend/internal/repository"
	"github.com/zfogg/snapshelf/backend/internal/service"
	"github.com/zfogg/snapshelf/backend/internal/storage"
	"github.com/zfogg/snapshelf/backend/internal/testutil"
	"github.com/zfogg/snapshelf/backend/internal/util"
	"gorm.io/gorm"
)

type memoryImageStore struct {
	count int
}

func (m *memoryImageStore) UploadImage(ctx context.Context, data []byte, userID, filename string) (*storage.UploadResult, error) {
	m.count++
	key := fmt.Sprintf("images/2024/01/%s/%d.jpg", userID, m.count)
	return &storage.UploadResult{Key: key, URL: storage.PublicURL("https://cdn.example.com", key), Size: int64(len(data))}, nil
}

func (m *memoryImageStore) DeleteFile(ctx context.Context, key string) error {
	return nil
}

// HandlersTestSuite runs the API against an in-memory database
type HandlersTestSuite struct {
	suite.Suite
	db       *gorm.DB
	router   *gin.Engine
	handlers *Handlers
	alice    *models.User
	bob      *models.User
	carol    *models.User
}

func TestHandlersSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func (suite *HandlersTestSuite) SetupTest() {
	suite.db = testutil.NewTestDB(suite.T())
	repos := repository.NewRepositories(suite.db)

	lists := cache.NewCollectionCache(cache.NewMemoryStore(), 0)
	posts := service.NewPostService(repos)
	posts.SetImageStore(&memoryImageStore{})
	posts.SetCollectionCache(lists)
	collections := service.NewCollectionService(repos)
	collections.SetCache(lists)

	suite.handlers = NewHandlers(posts, service.NewCommentService(repos), collections, service.NewFriendService(repos))

	gin.SetMode(gin.TestMode)
	suite.router = gin.New()

	// Auth middleware that trusts X-User-ID
	authMiddleware := func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			util.RespondUnauthorized(c)
			c.Abort()
			return
		}
		c.Set(util.ContextKeyUserID, userID)
		c.Next()
	}
	api := suite.router.Group("/api/v1")
	api.Use(authMiddleware)
	suite.handlers.RegisterRoutes(api)

	suite.alice = testutil.CreateUser(suite.T(), suite.db, "alice")
	suite.bob = testutil.CreateUser(suite.T(), suite.db, "bob")
	suite.carol = testutil.CreateUser(suite.T(), suite.db, "carol")
	testutil.MakeFriends(suite.T(), suite.db, suite.alice.ID, suite.bob.ID)
}

func (suite *HandlersTestSuite) request(method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(suite.T(), err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlersTestSuite) decode(w *httptest.ResponseRecorder, v interface{}) {
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (suite *HandlersTestSuite) errorCode(w *httptest.ResponseRecorder) string {
	var resp util.ErrorResponse
	suite.decode(w, &resp)
	return resp.Code
}

func (suite *HandlersTestSuite) uploadPost(userID string, fields map[string]string) *httptest.ResponseRecorder {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", "photo.jpg")
	require.NoError(suite.T(), err)
	_, err = part.Write([]byte("\xff\xd8\xff fake jpeg"))
	require.NoError(suite.T(), err)
	for k, v := range fields {
		require.NoError(suite.T(), writer.WriteField(k, v))
	}
	require.NoError(suite.T(), writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/posts", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-User-ID", userID)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlersTestSuite) createPost(userID string, fields map[string]string) *models.Post {
	w := suite.uploadPost(userID, fields)
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Post *models.Post `json:"post"`
	}
	suite.decode(w, &resp)
	return resp.Post
}

func (suite *HandlersTestSuite) getPost(postID, viewerID string) (*models.Post, int) {
	w := suite.request(http.MethodGet, "/api/v1/posts/"+postID, viewerID, nil)
	if w.Code != http.StatusOK {
		return nil, w.Code
	}
	var resp struct {
		Post *models.Post `json:"post"`
	}
	suite.decode(w, &resp)
	return resp.Post, w.Code
}

func (suite *HandlersTestSuite) TestUnauthenticated() {
	w := suite.request(http.MethodGet, "/api/v1/feed", "", nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
}
