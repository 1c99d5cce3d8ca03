package handlers

import (
	"net/http"

	"github.com/zfogg/snapshelf/backend/internal/models"
)

func (suite *HandlersTestSuite) profile(userID, viewerID string) (*models.Profile, int) {
	w := suite.request(http.MethodGet, "/api/v1/users/"+userID+"/profile", viewerID, nil)
	if w.Code != http.StatusOK {
		return nil, w.Code
	}
	var resp struct {
		Profile *models.Profile `json:"profile"`
	}
	suite.decode(w, &resp)
	return resp.Profile, w.Code
}

func (suite *HandlersTestSuite) TestFriendRequestFlow() {
	w := suite.request(http.MethodPost, "/api/v1/friend-requests", suite.carol.ID, map[string]string{"user_id": suite.alice.ID})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var sent struct {
		Request *models.FriendRequest `json:"request"`
	}
	suite.decode(w, &sent)

	p, _ := suite.profile(suite.alice.ID, suite.carol.ID)
	suite.Equal("request_sent", p.FriendStatus)

	// Only the receiver may accept
	w = suite.request(http.MethodPost, "/api/v1/friend-requests/"+sent.Request.ID+"/accept", suite.carol.ID, nil)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodPost, "/api/v1/friend-requests/"+sent.Request.ID+"/accept", suite.alice.ID, nil)
	suite.Require().Equal(http.StatusNoContent, w.Code, w.Body.String())

	p, _ = suite.profile(suite.alice.ID, suite.carol.ID)
	suite.Equal("friends", p.FriendStatus)

	w = suite.request(http.MethodGet, "/api/v1/friends", suite.alice.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var friends struct {
		Friends []*models.User `json:"friends"`
	}
	suite.decode(w, &friends)
	suite.Len(friends.Friends, 2)
}

func (suite *HandlersTestSuite) TestDuplicateFriendRequest() {
	w := suite.request(http.MethodPost, "/api/v1/friend-requests", suite.alice.ID, map[string]string{"user_id": suite.bob.ID})
	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlersTestSuite) TestBlockHidesProfileAndPosts() {
	post := suite.createPost(suite.alice.ID, nil)

	w := suite.request(http.MethodPost, "/api/v1/users/"+suite.bob.ID+"/block", suite.alice.ID, nil)
	suite.Require().Equal(http.StatusNoContent, w.Code, w.Body.String())

	_, code := suite.profile(suite.alice.ID, suite.bob.ID)
	suite.Equal(http.StatusNotFound, code)
	_, code = suite.getPost(post.ID, suite.bob.ID)
	suite.Equal(http.StatusNotFound, code)

	p, code := suite.profile(suite.bob.ID, suite.alice.ID)
	suite.Require().Equal(http.StatusOK, code)
	suite.True(p.IsBlocked)
	suite.Equal("none", p.FriendStatus)

	w = suite.request(http.MethodDelete, "/api/v1/users/"+suite.bob.ID+"/block", suite.alice.ID, nil)
	suite.Equal(http.StatusNoContent, w.Code)
	_, code = suite.profile(suite.alice.ID, suite.bob.ID)
	suite.Equal(http.StatusOK, code)
}

func (suite *HandlersTestSuite) TestUpdateVisibility() {
	suite.createPost(suite.alice.ID, nil)

	w := suite.request(http.MethodPut, "/api/v1/me/visibility", suite.alice.ID, map[string]string{"visibility": "friends"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.request(http.MethodGet, "/api/v1/users/"+suite.alice.ID+"/posts", suite.carol.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var resp struct {
		Posts []*models.Post `json:"posts"`
	}
	suite.decode(w, &resp)
	suite.Empty(resp.Posts)

	w = suite.request(http.MethodPut, "/api/v1/me/visibility", suite.alice.ID, map[string]string{"visibility": "secret"})
	suite.Equal(http.StatusUnprocessableEntity, w.Code)
}
