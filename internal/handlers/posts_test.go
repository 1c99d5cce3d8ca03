package handlers

import (
	"net/http"

	"github.com/zfogg/snapshelf/backend/internal/models"
)

func (suite *HandlersTestSuite) TestCreateAndGetPost() {
	post := suite.createPost(suite.alice.ID, map[string]string{
		"description":      "golden hour",
		"tags":             "#sunset, beach,sunset",
		"location_name":    "Ocean Beach",
		"location_address": "San Francisco",
	})

	suite.Equal(suite.alice.ID, post.UserID)
	suite.Equal("golden hour", post.Description)
	suite.Equal([]string{"sunset", "beach"}, post.Tags)
	suite.Require().NotNil(post.Location)
	suite.Equal("Ocean Beach", post.Location.Name)
	suite.Contains(post.ImageURL, "https://cdn.example.com/images/")

	got, code := suite.getPost(post.ID, suite.bob.ID)
	suite.Equal(http.StatusOK, code)
	suite.Equal(post.ID, got.ID)
	suite.Empty(got.LikedBy)
	suite.Empty(got.Comments)
}

func (suite *HandlersTestSuite) TestCreatePostValidation() {
	w := suite.request(http.MethodPost, "/api/v1/posts", suite.alice.ID, nil)
	suite.Equal(http.StatusUnprocessableEntity, w.Code)
	suite.Equal("VALIDATION_ERROR", suite.errorCode(w))

	w = suite.uploadPost(suite.alice.ID, map[string]string{"visibility": "everyone"})
	suite.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (suite *HandlersTestSuite) TestFriendsOnlyPostHiddenFromStrangers() {
	post := suite.createPost(suite.alice.ID, map[string]string{"visibility": "friends"})

	_, code := suite.getPost(post.ID, suite.bob.ID)
	suite.Equal(http.StatusOK, code)

	_, code = suite.getPost(post.ID, suite.carol.ID)
	suite.Equal(http.StatusNotFound, code)
}

func (suite *HandlersTestSuite) TestUpdatePost() {
	post := suite.createPost(suite.alice.ID, nil)

	w := suite.request(http.MethodPatch, "/api/v1/posts/"+post.ID, suite.bob.ID, map[string]interface{}{"description": "mine now"})
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodPatch, "/api/v1/posts/"+post.ID, suite.alice.ID, map[string]interface{}{
		"description": "edited",
		"tags":        []string{"new"},
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	got, _ := suite.getPost(post.ID, suite.alice.ID)
	suite.Equal("edited", got.Description)
	suite.Equal([]string{"new"}, got.Tags)
}

func (suite *HandlersTestSuite) TestDeletePost() {
	post := suite.createPost(suite.alice.ID, nil)

	w := suite.request(http.MethodDelete, "/api/v1/posts/"+post.ID, suite.bob.ID, nil)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodDelete, "/api/v1/posts/"+post.ID, suite.alice.ID, nil)
	suite.Equal(http.StatusNoContent, w.Code)

	_, code := suite.getPost(post.ID, suite.alice.ID)
	suite.Equal(http.StatusNotFound, code)
}

func (suite *HandlersTestSuite) TestToggleLike() {
	post := suite.createPost(suite.alice.ID, nil)

	var resp struct {
		Liked bool `json:"liked"`
	}
	w := suite.request(http.MethodPost, "/api/v1/posts/"+post.ID+"/like", suite.bob.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &resp)
	suite.True(resp.Liked)

	got, _ := suite.getPost(post.ID, suite.bob.ID)
	suite.Equal(1, got.LikeCount)
	suite.Equal([]string{suite.bob.ID}, got.LikedBy)
	suite.True(got.IsLiked)

	w = suite.request(http.MethodPost, "/api/v1/posts/"+post.ID+"/like", suite.bob.ID, nil)
	suite.decode(w, &resp)
	suite.False(resp.Liked)

	got, _ = suite.getPost(post.ID, suite.bob.ID)
	suite.Equal(0, got.LikeCount)
	suite.Empty(got.LikedBy)
}

func (suite *HandlersTestSuite) TestLikeMissingPost() {
	w := suite.request(http.MethodPost, "/api/v1/posts/missing/like", suite.bob.ID, nil)
	suite.Equal(http.StatusNotFound, w.Code)
	suite.Equal("NOT_FOUND", suite.errorCode(w))
}

func (suite *HandlersTestSuite) TestFeed() {
	suite.createPost(suite.alice.ID, nil)
	suite.createPost(suite.bob.ID, nil)
	suite.createPost(suite.carol.ID, nil)

	w := suite.request(http.MethodGet, "/api/v1/feed?limit=100", suite.alice.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	var resp struct {
		Posts []*models.Post `json:"posts"`
		Limit int            `json:"limit"`
	}
	suite.decode(w, &resp)
	suite.Len(resp.Posts, 2)
	suite.Equal(50, resp.Limit)
	for _, p := range resp.Posts {
		suite.NotEqual(suite.carol.ID, p.UserID)
	}
}

func (suite *HandlersTestSuite) TestUserPosts() {
	suite.createPost(suite.alice.ID, nil)
	suite.createPost(suite.alice.ID, map[string]string{"visibility": "friends"})

	var resp struct {
		Posts []*models.Post `json:"posts"`
	}
	w := suite.request(http.MethodGet, "/api/v1/users/"+suite.alice.ID+"/posts", suite.bob.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &resp)
	suite.Len(resp.Posts, 2)

	w = suite.request(http.MethodGet, "/api/v1/users/"+suite.alice.ID+"/posts", suite.carol.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &resp)
	suite.Len(resp.Posts, 1)
}

func (suite *HandlersTestSuite) TestSearchWithoutIndex() {
	w := suite.request(http.MethodGet, "/api/v1/posts/search?q=sunset", suite.alice.ID, nil)
	suite.Equal(http.StatusServiceUnavailable, w.Code)
}

func (suite *HandlersTestSuite) TestReportPost() {
	post := suite.createPost(suite.alice.ID, nil)

	w := suite.request(http.MethodPost, "/api/v1/posts/"+post.ID+"/report", suite.bob.ID, map[string]string{"reason": "spam"})
	suite.Equal(http.StatusCreated, w.Code, w.Body.String())

	w = suite.request(http.MethodPost, "/api/v1/posts/"+post.ID+"/report", suite.bob.ID, map[string]string{"reason": "boring"})
	suite.Equal(http.StatusUnprocessableEntity, w.Code)

	w = suite.request(http.MethodPost, "/api/v1/posts/"+post.ID+"/report", suite.bob.ID, map[string]string{})
	suite.Equal(http.StatusBadRequest, w.Code)
}
