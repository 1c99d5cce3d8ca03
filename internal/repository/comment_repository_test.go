package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/zfogg/snapshelf/backend/internal/models"
	"github.com/zfogg/snapshelf/backend/internal/testutil"
	"gorm.io/gorm"
)

type CommentRepositoryTestSuite struct {
	suite.Suite
	db     *gorm.DB
	repo   CommentRepository
	ctx    context.Context
	owner  *models.User
	author *models.User
	post   *models.Post
}

func (suite *CommentRepositoryTestSuite) SetupTest() {
	suite.db = testutil.NewTestDB(suite.T())
	suite.repo = NewCommentRepository(suite.db)
	suite.ctx = context.Background()
	suite.owner = testutil.CreateUser(suite.T(), suite.db, "owner")
	suite.author = testutil.CreateUser(suite.T(), suite.db, "author")
	suite.post = testutil.CreatePost(suite.T(), suite.db, suite.owner.ID)
}

func (suite *CommentRepositoryTestSuite) commentCount() int {
	var post models.Post
	require.NoError(suite.T(), suite.db.First(&post, "id = ?", suite.post.ID).Error)
	return post.CommentCount
}

func (suite *CommentRepositoryTestSuite) add(userID, text string, parentID *string) *models.Comment {
	c := &models.Comment{PostID: suite.post.ID, UserID: userID, Text: text, ParentID: parentID}
	require.NoError(suite.T(), suite.repo.CreateComment(suite.ctx, c))
	return c
}

func (suite *CommentRepositoryTestSuite) TestAddThenDeleteIsCounterNoOp() {
	t := suite.T()

	c := suite.add(suite.author.ID, "great shot", nil)
	assert.Equal(t, 1, suite.commentCount())

	removed, err := suite.repo.DeleteComment(suite.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Equal(t, 0, suite.commentCount())
}

func (suite *CommentRepositoryTestSuite) TestReplyNestsUnderParent() {
	t := suite.T()

	parent := suite.add(suite.author.ID, "where is this?", nil)
	reply := suite.add(suite.owner.ID, "Lisbon", &parent.ID)

	threads, err := suite.repo.ListComments(suite.ctx, suite.post.ID)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, parent.ID, threads[0].ID)
	require.Len(t, threads[0].Replies, 1)
	assert.Equal(t, reply.ID, threads[0].Replies[0].ID)
	assert.Equal(t, 2, suite.commentCount())
}

func (suite *CommentRepositoryTestSuite) TestReplyToReplyIsFlattened() {
	t := suite.T()

	parent := suite.add(suite.author.ID, "top", nil)
	reply := suite.add(suite.owner.ID, "first reply", &parent.ID)
	nested := suite.add(suite.author.ID, "reply to reply", &reply.ID)

	require.NotNil(t, nested.ParentID)
	assert.Equal(t, parent.ID, *nested.ParentID)

	threads, err := suite.repo.ListComments(suite.ctx, suite.post.ID)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Len(t, threads[0].Replies, 2)
}

func (suite *CommentRepositoryTestSuite) TestParentMustBeOnSamePost() {
	t := suite.T()
	otherPost := testutil.CreatePost(t, suite.db, suite.owner.ID)
	foreign := &models.Comment{PostID: otherPost.ID, UserID: suite.author.ID, Text: "elsewhere"}
	require.NoError(t, suite.repo.CreateComment(suite.ctx, foreign))

	err := suite.repo.CreateComment(suite.ctx, &models.Comment{
		PostID: suite.post.ID, UserID: suite.author.ID, Text: "x", ParentID: &foreign.ID,
	})
	assert.ErrorIs(t, err, ErrCommentNotFound)
	assert.Equal(t, 0, suite.commentCount())
}

func (suite *CommentRepositoryTestSuite) TestMissingPost() {
	err := suite.repo.CreateComment(suite.ctx, &models.Comment{PostID: "nope", UserID: suite.author.ID, Text: "x"})
	assert.ErrorIs(suite.T(), err, ErrPostNotFound)
}

func (suite *CommentRepositoryTestSuite) TestOwnerCommentsAreNotLogged() {
	t := suite.T()

	suite.add(suite.owner.ID, "my own post", nil)
	suite.add(suite.author.ID, "someone else", nil)

	var events []models.CommentEvent
	require.NoError(t, suite.db.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, suite.author.ID, events[0].UserID)
	assert.Equal(t, suite.owner.ID, events[0].PostOwnerID)
}

func (suite *CommentRepositoryTestSuite) TestDeleteTopLevelRemovesReplies() {
	t := suite.T()

	parent := suite.add(suite.author.ID, "top", nil)
	suite.add(suite.owner.ID, "r1", &parent.ID)
	suite.add(suite.owner.ID, "r2", &parent.ID)
	keep := suite.add(suite.owner.ID, "another thread", nil)
	assert.Equal(t, 4, suite.commentCount())

	removed, err := suite.repo.DeleteComment(suite.ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
	assert.Equal(t, 1, suite.commentCount())

	threads, err := suite.repo.ListComments(suite.ctx, suite.post.ID)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, keep.ID, threads[0].ID)
}

func (suite *CommentRepositoryTestSuite) TestDeleteReplyOnly() {
	t := suite.T()

	parent := suite.add(suite.author.ID, "top", nil)
	reply := suite.add(suite.owner.ID, "reply", &parent.ID)

	removed, err := suite.repo.DeleteComment(suite.ctx, reply.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	threads, err := suite.repo.ListComments(suite.ctx, suite.post.ID)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Empty(t, threads[0].Replies)
	assert.Equal(t, 1, suite.commentCount())

	_, err = suite.repo.DeleteComment(suite.ctx, reply.ID)
	assert.ErrorIs(t, err, ErrCommentNotFound)
}

func TestCommentRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(CommentRepositoryTestSuite))
}
