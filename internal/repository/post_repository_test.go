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

type PostRepositoryTestSuite struct {
	suite.Suite
	db    *gorm.DB
	repo  PostRepository
	ctx   context.Context
	owner *models.User
	liker *models.User
	post  *models.Post
}

func (suite *PostRepositoryTestSuite) SetupTest() {
	suite.db = testutil.NewTestDB(suite.T())
	suite.repo = NewPostRepository(suite.db)
	suite.ctx = context.Background()
	suite.owner = testutil.CreateUser(suite.T(), suite.db, "owner")
	suite.liker = testutil.CreateUser(suite.T(), suite.db, "liker")
	suite.post = testutil.CreatePost(suite.T(), suite.db, suite.owner.ID)
}

func (suite *PostRepositoryTestSuite) reload() *models.Post {
	post, err := suite.repo.GetPost(suite.ctx, suite.post.ID)
	require.NoError(suite.T(), err)
	return post
}

func (suite *PostRepositoryTestSuite) likeEventCount() int64 {
	var count int64
	suite.db.Model(&models.LikeEvent{}).Where("post_id = ?", suite.post.ID).Count(&count)
	return count
}

func (suite *PostRepositoryTestSuite) TestToggleLikeTwiceRestoresState() {
	t := suite.T()

	liked, err := suite.repo.ToggleLike(suite.ctx, suite.post.ID, suite.liker.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, suite.reload().LikeCount)

	likedBy, err := suite.repo.GetLikedBy(suite.ctx, []string{suite.post.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{suite.liker.ID}, likedBy[suite.post.ID])

	liked, err = suite.repo.ToggleLike(suite.ctx, suite.post.ID, suite.liker.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 0, suite.reload().LikeCount)

	likedBy, err = suite.repo.GetLikedBy(suite.ctx, []string{suite.post.ID})
	require.NoError(t, err)
	assert.Empty(t, likedBy[suite.post.ID])
}

func (suite *PostRepositoryTestSuite) TestToggleLikeLogsOnlyOnLike() {
	t := suite.T()

	_, err := suite.repo.ToggleLike(suite.ctx, suite.post.ID, suite.liker.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), suite.likeEventCount())

	_, err = suite.repo.ToggleLike(suite.ctx, suite.post.ID, suite.liker.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), suite.likeEventCount(), "unlike must not write a log row")

	var event models.LikeEvent
	require.NoError(t, suite.db.First(&event).Error)
	assert.Equal(t, suite.owner.ID, event.PostOwnerID)
	assert.Equal(t, suite.liker.ID, event.UserID)
	assert.Nil(t, event.DeliveredAt)
}

func (suite *PostRepositoryTestSuite) TestLikedByKeepsLikeOrder() {
	t := suite.T()
	third := testutil.CreateUser(t, suite.db, "third")

	for _, id := range []string{third.ID, suite.liker.ID, suite.owner.ID} {
		_, err := suite.repo.ToggleLike(suite.ctx, suite.post.ID, id)
		require.NoError(t, err)
	}

	likedBy, err := suite.repo.GetLikedBy(suite.ctx, []string{suite.post.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{third.ID, suite.liker.ID, suite.owner.ID}, likedBy[suite.post.ID])
	assert.Equal(t, 3, suite.reload().LikeCount)
}

func (suite *PostRepositoryTestSuite) TestToggleLikeMissingPost() {
	_, err := suite.repo.ToggleLike(suite.ctx, "missing", suite.liker.ID)
	assert.ErrorIs(suite.T(), err, ErrPostNotFound)
}

func (suite *PostRepositoryTestSuite) TestLikeCounterNeverNegative() {
	t := suite.T()
	// A like row without a counted like simulates drift from older data.
	require.NoError(t, suite.db.Create(&models.PostLike{PostID: suite.post.ID, UserID: suite.liker.ID}).Error)

	liked, err := suite.repo.ToggleLike(suite.ctx, suite.post.ID, suite.liker.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 0, suite.reload().LikeCount)
}

func (suite *PostRepositoryTestSuite) TestDeletePostCascades() {
	t := suite.T()
	_, err := suite.repo.ToggleLike(suite.ctx, suite.post.ID, suite.liker.ID)
	require.NoError(t, err)
	require.NoError(t, suite.db.Create(&models.Comment{PostID: suite.post.ID, UserID: suite.liker.ID, Text: "nice"}).Error)
	group := &models.ArchiveGroup{CreatedBy: suite.liker.ID, Name: "Faves"}
	require.NoError(t, suite.db.Create(group).Error)
	require.NoError(t, suite.db.Create(&models.ArchiveGroupMember{GroupID: group.ID, UserID: suite.liker.ID}).Error)
	require.NoError(t, suite.db.Create(&models.ArchiveGroupMember{GroupID: group.ID, UserID: suite.owner.ID}).Error)
	require.NoError(t, suite.db.Create(&models.ArchiveEntry{GroupID: group.ID, PostID: suite.post.ID, AddedBy: suite.liker.ID}).Error)

	// A collection without the post is not reported
	other := &models.ArchiveGroup{CreatedBy: suite.liker.ID, Name: "Other"}
	require.NoError(t, suite.db.Create(other).Error)
	bystander := testutil.CreateUser(t, suite.db, "bystander")
	require.NoError(t, suite.db.Create(&models.ArchiveGroupMember{GroupID: other.ID, UserID: bystander.ID}).Error)

	deleted, err := suite.repo.DeletePost(suite.ctx, suite.post.ID)
	require.NoError(t, err)
	assert.Equal(t, "images/test.jpg", deleted.Post.ImageKey)
	assert.ElementsMatch(t, []string{suite.liker.ID, suite.owner.ID}, deleted.CollectionMemberIDs)

	for _, model := range []interface{}{&models.PostLike{}, &models.Comment{}, &models.ArchiveEntry{}} {
		var count int64
		suite.db.Model(model).Where("post_id = ?", suite.post.ID).Count(&count)
		assert.Zero(t, count, "%T rows should be removed", model)
	}

	_, err = suite.repo.GetPost(suite.ctx, suite.post.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)

	_, err = suite.repo.DeletePost(suite.ctx, suite.post.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func (suite *PostRepositoryTestSuite) TestFeedFiltersAuthors() {
	t := suite.T()
	other := testutil.CreatePost(t, suite.db, suite.liker.ID)

	posts, err := suite.repo.GetFeed(suite.ctx, []string{suite.owner.ID, suite.liker.ID}, []string{suite.liker.ID}, 10, 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, suite.post.ID, posts[0].ID)
	assert.NotEqual(t, other.ID, posts[0].ID)
	require.NotNil(t, posts[0].User)
	assert.Equal(t, "owner", posts[0].User.Username)
}

func (suite *PostRepositoryTestSuite) TestUserPostsPublicOnly() {
	t := suite.T()
	hidden := testutil.CreatePost(t, suite.db, suite.owner.ID)
	require.NoError(t, suite.repo.UpdatePost(suite.ctx, hidden.ID, &models.Post{Visibility: models.VisibilityFriends}, "visibility"))

	all, err := suite.repo.GetUserPosts(suite.ctx, suite.owner.ID, false, 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	public, err := suite.repo.GetUserPosts(suite.ctx, suite.owner.ID, true, 10, 0)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, suite.post.ID, public[0].ID)

	count, err := suite.repo.CountUserPosts(suite.ctx, suite.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func (suite *PostRepositoryTestSuite) TestTagsAndLocationRoundTrip() {
	t := suite.T()
	post := &models.Post{
		UserID:   suite.owner.ID,
		ImageURL: "https://cdn.example.com/x.jpg",
		Tags:     []string{"sunset", "beach", "sunset"},
		Location: &models.Location{Name: "Ocean Beach", Address: "San Francisco, CA"},
	}
	require.NoError(t, suite.repo.CreatePost(suite.ctx, post))

	loaded, err := suite.repo.GetPost(suite.ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"sunset", "beach", "sunset"}, loaded.Tags)
	require.NotNil(t, loaded.Location)
	assert.Equal(t, "Ocean Beach", loaded.Location.Name)
}

func TestPostRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(PostRepositoryTestSuite))
}
