package handlers

import (
	"net/http"

	"github.com/zfogg/snapshelf/backend/internal/models"
)

func (suite *HandlersTestSuite) createCollection(userID, name string, friendIDs ...string) *models.ArchiveGroup {
	w := suite.request(http.MethodPost, "/api/v1/collections", userID, map[string]interface{}{
		"name":       name,
		"friend_ids": friendIDs,
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Collection *models.ArchiveGroup `json:"collection"`
	}
	suite.decode(w, &resp)
	return resp.Collection
}

func (suite *HandlersTestSuite) listCollections(userID string) []*models.ArchiveGroup {
	w := suite.request(http.MethodGet, "/api/v1/collections", userID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var resp struct {
		Collections []*models.ArchiveGroup `json:"collections"`
	}
	suite.decode(w, &resp)
	return resp.Collections
}

func (suite *HandlersTestSuite) TestQuickSave() {
	post := suite.createPost(suite.alice.ID, nil)

	var resp struct {
		Saved bool `json:"saved"`
	}
	w := suite.request(http.MethodPost, "/api/v1/posts/"+post.ID+"/save", suite.bob.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.decode(w, &resp)
	suite.True(resp.Saved)

	groups := suite.listCollections(suite.bob.ID)
	suite.Require().Len(groups, 1)
	suite.True(groups[0].IsDefault)
	suite.Equal(int64(1), groups[0].PostCount)

	got, _ := suite.getPost(post.ID, suite.bob.ID)
	suite.Equal([]string{suite.bob.ID}, got.ArchivedBy)
	suite.Equal([]string{groups[0].ID}, got.ArchiveGroups)
	suite.True(got.IsArchived)

	w = suite.request(http.MethodPost, "/api/v1/posts/"+post.ID+"/save", suite.bob.ID, nil)
	suite.decode(w, &resp)
	suite.False(resp.Saved)

	got, _ = suite.getPost(post.ID, suite.bob.ID)
	suite.Empty(got.ArchivedBy)
	suite.Empty(got.ArchiveGroups)
}

func (suite *HandlersTestSuite) TestSharedCollection() {
	post := suite.createPost(suite.alice.ID, nil)
	group := suite.createCollection(suite.alice.ID, "Trip", suite.bob.ID)
	suite.True(group.IsShared)
	suite.ElementsMatch([]string{suite.alice.ID, suite.bob.ID}, group.Members)

	// Bob sees the same collection and can file posts into it
	suite.Require().Len(suite.listCollections(suite.bob.ID), 1)
	w := suite.request(http.MethodPost, "/api/v1/collections/"+group.ID+"/posts", suite.bob.ID, map[string]string{"post_id": post.ID})
	suite.Require().Equal(http.StatusNoContent, w.Code, w.Body.String())

	w = suite.request(http.MethodGet, "/api/v1/collections/"+group.ID, suite.alice.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var view struct {
		Collection *models.ArchiveGroup `json:"collection"`
		Posts      []*models.Post       `json:"posts"`
	}
	suite.decode(w, &view)
	suite.Require().Len(view.Posts, 1)
	suite.Equal(post.ID, view.Posts[0].ID)

	// Non-members cannot see it
	w = suite.request(http.MethodGet, "/api/v1/collections/"+group.ID, suite.carol.ID, nil)
	suite.Equal(http.StatusNotFound, w.Code)

	// Bob leaves and drops out of archived_by
	w = suite.request(http.MethodDelete, "/api/v1/collections/"+group.ID+"/members/"+suite.bob.ID, suite.bob.ID, nil)
	suite.Require().Equal(http.StatusNoContent, w.Code)
	suite.Empty(suite.listCollections(suite.bob.ID))

	got, _ := suite.getPost(post.ID, suite.alice.ID)
	suite.Empty(got.ArchivedBy)
	suite.Equal([]string{group.ID}, got.ArchiveGroups)
}

func (suite *HandlersTestSuite) TestCreateCollectionWithStranger() {
	w := suite.request(http.MethodPost, "/api/v1/collections", suite.alice.ID, map[string]interface{}{
		"name":       "Nope",
		"friend_ids": []string{suite.carol.ID},
	})
	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *HandlersTestSuite) TestAssignCollections() {
	post := suite.createPost(suite.alice.ID, nil)
	a := suite.createCollection(suite.alice.ID, "A")
	b := suite.createCollection(suite.alice.ID, "B")

	var resp struct {
		ArchiveGroups []string `json:"archive_groups"`
	}
	w := suite.request(http.MethodPut, "/api/v1/posts/"+post.ID+"/collections", suite.alice.ID, map[string]interface{}{
		"group_ids": []string{a.ID, b.ID},
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.decode(w, &resp)
	suite.ElementsMatch([]string{a.ID, b.ID}, resp.ArchiveGroups)

	w = suite.request(http.MethodPut, "/api/v1/posts/"+post.ID+"/collections", suite.alice.ID, map[string]interface{}{
		"group_ids": []string{b.ID},
	})
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &resp)
	suite.Equal([]string{b.ID}, resp.ArchiveGroups)
}

func (suite *HandlersTestSuite) TestUpdateAndDeleteCollection() {
	group := suite.createCollection(suite.alice.ID, "Old", suite.bob.ID)

	w := suite.request(http.MethodPatch, "/api/v1/collections/"+group.ID, suite.bob.ID, map[string]string{"name": "Bob's"})
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodPatch, "/api/v1/collections/"+group.ID, suite.alice.ID, map[string]string{"name": "New", "emoji": "🌅"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Collection *models.ArchiveGroup `json:"collection"`
	}
	suite.decode(w, &resp)
	suite.Equal("New", resp.Collection.Name)

	// Bob's cached list reflects the rename
	groups := suite.listCollections(suite.bob.ID)
	suite.Require().Len(groups, 1)
	suite.Equal("New", groups[0].Name)

	w = suite.request(http.MethodDelete, "/api/v1/collections/"+group.ID, suite.alice.ID, nil)
	suite.Equal(http.StatusNoContent, w.Code)
	suite.Empty(suite.listCollections(suite.bob.ID))
}
