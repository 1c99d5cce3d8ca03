package handlers

import (
	"net/http"

	"github.com/zfogg/snapshelf/backend/internal/models"
)

func (suite *HandlersTestSuite) addComment(postID, userID, text string, parentID *string) (*models.Comment, int) {
	body := map[string]interface{}{"text": text}
	if parentID != nil {
		body["parent_id"] = *parentID
	}
	w := suite.request(http.MethodPost, "/api/v1/posts/"+postID+"/comments", userID, body)
	if w.Code != http.StatusCreated {
		return nil, w.Code
	}
	var resp struct {
		Comment *models.Comment `json:"comment"`
	}
	suite.decode(w, &resp)
	return resp.Comment, w.Code
}

func (suite *HandlersTestSuite) listComments(postID, viewerID string) []*models.Comment {
	w := suite.request(http.MethodGet, "/api/v1/posts/"+postID+"/comments", viewerID, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Comments []*models.Comment `json:"comments"`
	}
	suite.decode(w, &resp)
	return resp.Comments
}

func (suite *HandlersTestSuite) TestCommentThread() {
	post := suite.createPost(suite.alice.ID, nil)

	top, code := suite.addComment(post.ID, suite.bob.ID, "  great shot  ", nil)
	suite.Require().Equal(http.StatusCreated, code)
	suite.Equal("great shot", top.Text)
	suite.Equal("bob", top.AuthorUsername)

	reply, code := suite.addComment(post.ID, suite.alice.ID, "thanks", &top.ID)
	suite.Require().Equal(http.StatusCreated, code)

	// Replying to a reply stays one level deep
	nested, code := suite.addComment(post.ID, suite.bob.ID, "np", &reply.ID)
	suite.Require().Equal(http.StatusCreated, code)
	suite.Require().NotNil(nested.ParentID)
	suite.Equal(top.ID, *nested.ParentID)

	comments := suite.listComments(post.ID, suite.alice.ID)
	suite.Require().Len(comments, 1)
	suite.Len(comments[0].Replies, 2)

	got, _ := suite.getPost(post.ID, suite.alice.ID)
	suite.Equal(3, got.CommentCount)
}

func (suite *HandlersTestSuite) TestCommentValidation() {
	post := suite.createPost(suite.alice.ID, nil)

	_, code := suite.addComment(post.ID, suite.bob.ID, "   ", nil)
	suite.Equal(http.StatusUnprocessableEntity, code)

	missing := "no-such-comment"
	_, code = suite.addComment(post.ID, suite.bob.ID, "hi", &missing)
	suite.Equal(http.StatusNotFound, code)

	_, code = suite.addComment("no-such-post", suite.bob.ID, "hi", nil)
	suite.Equal(http.StatusNotFound, code)
}

func (suite *HandlersTestSuite) TestDeleteComment() {
	post := suite.createPost(suite.alice.ID, nil)
	top, _ := suite.addComment(post.ID, suite.bob.ID, "first", nil)
	_, _ = suite.addComment(post.ID, suite.alice.ID, "reply", &top.ID)

	// Strangers cannot even see the post
	w := suite.request(http.MethodDelete, "/api/v1/posts/"+post.ID+"/comments/"+top.ID, suite.carol.ID, nil)
	suite.Contains([]int{http.StatusForbidden, http.StatusNotFound}, w.Code)

	// Post owner may delete a friend's comment, taking its replies with it
	w = suite.request(http.MethodDelete, "/api/v1/posts/"+post.ID+"/comments/"+top.ID, suite.alice.ID, nil)
	suite.Equal(http.StatusNoContent, w.Code)

	suite.Empty(suite.listComments(post.ID, suite.alice.ID))
	got, _ := suite.getPost(post.ID, suite.alice.ID)
	suite.Equal(0, got.CommentCount)
}
