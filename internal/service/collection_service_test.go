package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/zfogg/snapshelf/backend/internal/cache"
	apperrors "github.com/zfogg/snapshelf/backend/internal/errors"
	"github.com/zfogg/snapshelf/backend/internal/models"
	"github.com/zfogg/snapshelf/backend/internal/repository"
	"github.com/zfogg/snapshelf/backend/internal/testutil"
	"gorm.io/gorm"
)

type CollectionServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	ctx      context.Context
	service  *CollectionService
	posts    *PostService
	observer *fakeObserver
	alice    *models.User
	bob      *models.User
	carol    *models.User
	post     *models.Post
}

func (suite *CollectionServiceTestSuite) SetupTest() {
	suite.db = testutil.NewTestDB(suite.T())
	suite.ctx = context.Background()
	suite.observer = &fakeObserver{}

	repos := repository.NewRepositories(suite.db)
	suite.service = NewCollectionService(repos)
	lists := cache.NewCollectionCache(cache.NewMemoryStore(), 0)
	suite.service.SetCache(lists)
	suite.service.SetObserver(suite.observer)
	suite.posts = NewPostService(repos)
	suite.posts.SetCollectionCache(lists)

	suite.alice = testutil.CreateUser(suite.T(), suite.db, "alice")
	suite.bob = testutil.CreateUser(suite.T(), suite.db, "bob")
	suite.carol = testutil.CreateUser(suite.T(), suite.db, "carol")
	testutil.MakeFriends(suite.T(), suite.db, suite.alice.ID, suite.bob.ID)
	suite.post = testutil.CreatePost(suite.T(), suite.db, suite.carol.ID)
}

func (suite *CollectionServiceTestSuite) view(viewer *models.User) *models.Post {
	post, err := suite.posts.GetPost(suite.ctx, suite.post.ID, viewer.ID)
	require.NoError(suite.T(), err)
	return post
}

func (suite *CollectionServiceTestSuite) shared(name string) *models.ArchiveGroup {
	group, err := suite.service.CreateCollection(suite.ctx, CreateCollectionInput{
		CreatorID: suite.alice.ID,
		Name:      name,
		FriendIDs: []string{suite.bob.ID},
	})
	require.NoError(suite.T(), err)
	return group
}

func (suite *CollectionServiceTestSuite) TestQuickSaveTwiceRestoresState() {
	t := suite.T()

	saved, err := suite.service.ToggleQuickSave(suite.ctx, suite.post.ID, suite.alice.ID)
	require.NoError(t, err)
	assert.True(t, saved)

	groups, err := suite.service.ListCollections(suite.ctx, suite.alice.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.True(t, groups[0].IsDefault)
	assert.Equal(t, models.DefaultArchiveGroupName, groups[0].Name)
	assert.Equal(t, models.DefaultArchiveGroupEmoji, groups[0].Emoji)
	assert.Equal(t, int64(1), groups[0].PostCount)

	view := suite.view(suite.alice)
	assert.Equal(t, []string{suite.alice.ID}, view.ArchivedBy)
	assert.Equal(t, []string{groups[0].ID}, view.ArchiveGroups)
	assert.True(t, view.IsArchived)

	saved, err = suite.service.ToggleQuickSave(suite.ctx, suite.post.ID, suite.alice.ID)
	require.NoError(t, err)
	assert.False(t, saved)

	view = suite.view(suite.alice)
	assert.Empty(t, view.ArchivedBy)
	assert.Empty(t, view.ArchiveGroups)

	groups, err = suite.service.ListCollections(suite.ctx, suite.alice.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Zero(t, groups[0].PostCount, "cached list is invalidated on unsave")
}

func (suite *CollectionServiceTestSuite) TestQuickUnsaveRemovesFromEveryCollection() {
	t := suite.T()
	group := suite.shared("Trip")
	require.NoError(t, suite.service.AddPostToCollection(suite.ctx, group.ID, suite.post.ID, suite.alice.ID))

	saved, err := suite.service.ToggleQuickSave(suite.ctx, suite.post.ID, suite.alice.ID)
	require.NoError(t, err)
	assert.False(t, saved, "already archived in a collection, so the toggle unsaves")
	assert.Empty(t, suite.view(suite.alice).ArchiveGroups)
}

func (suite *CollectionServiceTestSuite) TestCreateSharedCollection() {
	t := suite.T()
	group, err := suite.service.CreateCollection(suite.ctx, CreateCollectionInput{
		CreatorID: suite.alice.ID,
		Name:      "  Road trip ",
		FriendIDs: []string{suite.bob.ID, suite.bob.ID, suite.alice.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, "Road trip", group.Name)
	assert.Equal(t, models.DefaultCollectionEmoji, group.Emoji)
	assert.True(t, group.IsShared)
	assert.Equal(t, []string{suite.alice.ID, suite.bob.ID}, group.Members)
	assert.Zero(t, group.PostCount)

	for _, user := range []*models.User{suite.alice, suite.bob} {
		groups, err := suite.service.ListCollections(suite.ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.Equal(t, group.ID, groups[0].ID, "every member sees the same collection")
	}
}

func (suite *CollectionServiceTestSuite) TestCreateCollectionValidation() {
	t := suite.T()

	_, err := suite.service.CreateCollection(suite.ctx, CreateCollectionInput{CreatorID: suite.alice.ID, Name: "   "})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))

	_, err = suite.service.CreateCollection(suite.ctx, CreateCollectionInput{
		CreatorID: suite.alice.ID, Name: strings.Repeat("x", MaxCollectionNameLength+1),
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))

	_, err = suite.service.CreateCollection(suite.ctx, CreateCollectionInput{
		CreatorID: suite.alice.ID, Name: "Strangers", FriendIDs: []string{suite.carol.ID},
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden))

	_, err = suite.service.CreateCollection(suite.ctx, CreateCollectionInput{
		CreatorID: suite.alice.ID, Name: "Ghosts", FriendIDs: []string{"missing"},
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden))

	_, err = suite.service.CreateCollection(suite.ctx, CreateCollectionInput{
		CreatorID: suite.alice.ID, Name: "Loud", Emoji: strings.Repeat("🎉", 17),
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))

	// A flag is two code points and fits
	group, err := suite.service.CreateCollection(suite.ctx, CreateCollectionInput{
		CreatorID: suite.alice.ID, Name: "Trip", Emoji: "🇯🇵",
	})
	require.NoError(t, err)
	assert.Equal(t, "🇯🇵", group.Emoji)

	long := strings.Repeat("x", 17)
	_, err = suite.service.UpdateCollection(suite.ctx, group.ID, suite.alice.ID, UpdateCollectionInput{Emoji: &long})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))
}

func (suite *CollectionServiceTestSuite) TestSharedArchiveVisibleToAllMembers() {
	t := suite.T()
	group := suite.shared("Trip")

	require.NoError(t, suite.service.AddPostToCollection(suite.ctx, group.ID, suite.post.ID, suite.bob.ID))

	view := suite.view(suite.alice)
	assert.Equal(t, []string{suite.bob.ID}, view.ArchivedBy)
	assert.Equal(t, []string{group.ID}, view.ArchiveGroups)
	assert.False(t, view.IsArchived)

	collection, err := suite.service.GetCollection(suite.ctx, group.ID, suite.alice.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, collection.Posts, 1)
	assert.Equal(t, suite.post.ID, collection.Posts[0].ID)

	_, err = suite.service.GetCollection(suite.ctx, group.ID, suite.carol.ID, 0, 0)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))

	err = suite.service.AddPostToCollection(suite.ctx, group.ID, suite.post.ID, suite.carol.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func (suite *CollectionServiceTestSuite) TestAssignCollections() {
	t := suite.T()
	trip := suite.shared("Trip")
	food, err := suite.service.CreateCollection(suite.ctx, CreateCollectionInput{CreatorID: suite.alice.ID, Name: "Food"})
	require.NoError(t, err)
	bobs, err := suite.service.CreateCollection(suite.ctx, CreateCollectionInput{CreatorID: suite.bob.ID, Name: "Bob only"})
	require.NoError(t, err)
	require.NoError(t, suite.service.AddPostToCollection(suite.ctx, bobs.ID, suite.post.ID, suite.bob.ID))

	groups, err := suite.service.AssignCollections(suite.ctx, suite.post.ID, suite.alice.ID, []string{trip.ID, food.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{bobs.ID, trip.ID, food.ID}, groups)

	groups, err = suite.service.AssignCollections(suite.ctx, suite.post.ID, suite.alice.ID, []string{food.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{bobs.ID, food.ID}, groups, "collections alice is not in are untouched")

	_, err = suite.service.AssignCollections(suite.ctx, suite.post.ID, suite.alice.ID, []string{bobs.ID})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func (suite *CollectionServiceTestSuite) TestMembershipRules() {
	t := suite.T()
	group, err := suite.service.CreateCollection(suite.ctx, CreateCollectionInput{CreatorID: suite.alice.ID, Name: "Private"})
	require.NoError(t, err)
	assert.False(t, group.IsShared)

	_, err = suite.service.AddCollectionMember(suite.ctx, group.ID, suite.alice.ID, suite.carol.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden), "only friends can be added")

	updated, err := suite.service.AddCollectionMember(suite.ctx, group.ID, suite.alice.ID, suite.bob.ID)
	require.NoError(t, err)
	assert.True(t, updated.IsShared)
	assert.ElementsMatch(t, []string{suite.alice.ID, suite.bob.ID}, updated.Members)

	err = suite.service.RemoveCollectionMember(suite.ctx, group.ID, suite.bob.ID, suite.alice.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden))

	err = suite.service.RemoveCollectionMember(suite.ctx, group.ID, suite.alice.ID, suite.alice.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation), "the creator cannot leave")

	require.NoError(t, suite.service.RemoveCollectionMember(suite.ctx, group.ID, suite.bob.ID, suite.bob.ID))
	groups, err := suite.service.ListCollections(suite.ctx, suite.bob.ID)
	require.NoError(t, err)
	assert.Empty(t, groups)

	reloaded, err := suite.service.GetCollection(suite.ctx, group.ID, suite.alice.ID, 0, 0)
	require.NoError(t, err)
	assert.False(t, reloaded.Group.IsShared)
}

func (suite *CollectionServiceTestSuite) TestRemovedMemberDropsOutOfArchivedBy() {
	t := suite.T()
	group := suite.shared("Trip")
	require.NoError(t, suite.service.AddPostToCollection(suite.ctx, group.ID, suite.post.ID, suite.bob.ID))

	suite.observer.changed = nil

	require.NoError(t, suite.service.RemoveCollectionMember(suite.ctx, group.ID, suite.alice.ID, suite.bob.ID))
	assert.Equal(t, []string{suite.post.ID}, suite.observer.changed, "subscribers see bob leave archivedBy")

	view := suite.view(suite.alice)
	assert.Empty(t, view.ArchivedBy)
	assert.Equal(t, []string{group.ID}, view.ArchiveGroups, "the entry stays in the collection")
}

func (suite *CollectionServiceTestSuite) TestDefaultCollectionCannotBeShared() {
	t := suite.T()
	_, err := suite.service.ToggleQuickSave(suite.ctx, suite.post.ID, suite.alice.ID)
	require.NoError(t, err)
	groups, err := suite.service.ListCollections(suite.ctx, suite.alice.ID)
	require.NoError(t, err)

	_, err = suite.service.AddCollectionMember(suite.ctx, groups[0].ID, suite.alice.ID, suite.bob.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))
}

func (suite *CollectionServiceTestSuite) TestUpdateAndDeleteCreatorOnly() {
	t := suite.T()
	group := suite.shared("Trip")
	require.NoError(t, suite.service.AddPostToCollection(suite.ctx, group.ID, suite.post.ID, suite.bob.ID))

	name := "Renamed"
	_, err := suite.service.UpdateCollection(suite.ctx, group.ID, suite.bob.ID, UpdateCollectionInput{Name: &name})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden))

	updated, err := suite.service.UpdateCollection(suite.ctx, group.ID, suite.alice.ID, UpdateCollectionInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)

	groups, err := suite.service.ListCollections(suite.ctx, suite.bob.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Renamed", groups[0].Name)

	err = suite.service.DeleteCollection(suite.ctx, group.ID, suite.bob.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden))

	require.NoError(t, suite.service.DeleteCollection(suite.ctx, group.ID, suite.alice.ID))

	assert.Empty(t, suite.view(suite.alice).ArchiveGroups)
	groups, err = suite.service.ListCollections(suite.ctx, suite.bob.ID)
	require.NoError(t, err)
	assert.Empty(t, groups)
	assert.Contains(t, suite.observer.changed, suite.post.ID)
}

func (suite *CollectionServiceTestSuite) TestDeletingPostRefreshesCollectionLists() {
	t := suite.T()
	group := suite.shared("Trip")
	own := testutil.CreatePost(t, suite.db, suite.alice.ID)
	require.NoError(t, suite.service.AddPostToCollection(suite.ctx, group.ID, own.ID, suite.alice.ID))

	// Warm both members' cached lists
	for _, user := range []*models.User{suite.alice, suite.bob} {
		groups, err := suite.service.ListCollections(suite.ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, groups, 1)
		require.Equal(t, int64(1), groups[0].PostCount)
	}

	require.NoError(t, suite.posts.DeletePost(suite.ctx, own.ID, suite.alice.ID))

	for _, user := range []*models.User{suite.alice, suite.bob} {
		groups, err := suite.service.ListCollections(suite.ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.Equal(t, int64(0), groups[0].PostCount, "%s sees a stale count", user.Username)
	}
}

func TestCollectionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CollectionServiceTestSuite))
}
