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

type FriendRepositoryTestSuite struct {
	suite.Suite
	db    *gorm.DB
	repo  FriendRepository
	ctx   context.Context
	alice *models.User
	bob   *models.User
}

func (suite *FriendRepositoryTestSuite) SetupTest() {
	suite.db = testutil.NewTestDB(suite.T())
	suite.repo = NewFriendRepository(suite.db)
	suite.ctx = context.Background()
	suite.alice = testutil.CreateUser(suite.T(), suite.db, "alice")
	suite.bob = testutil.CreateUser(suite.T(), suite.db, "bob")
}

func (suite *FriendRepositoryTestSuite) TestAcceptRequestCreatesBothDirections() {
	t := suite.T()

	req, err := suite.repo.CreateFriendRequest(suite.ctx, suite.alice.ID, suite.bob.ID)
	require.NoError(t, err)

	sent, err := suite.repo.ListSentRequests(suite.ctx, suite.alice.ID)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	received, err := suite.repo.ListReceivedRequests(suite.ctx, suite.bob.ID)
	require.NoError(t, err)
	require.Len(t, received, 1)
	require.NotNil(t, received[0].Sender)
	assert.Equal(t, "alice", received[0].Sender.Username)

	require.NoError(t, suite.repo.AcceptFriendRequest(suite.ctx, req.ID))

	for _, pair := range [][2]string{{suite.alice.ID, suite.bob.ID}, {suite.bob.ID, suite.alice.ID}} {
		ok, err := suite.repo.AreFriends(suite.ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.True(t, ok)
	}

	assert.ErrorIs(t, suite.repo.AcceptFriendRequest(suite.ctx, req.ID), ErrFriendRequestNotFound)

	friends, err := suite.repo.GetFriends(suite.ctx, suite.alice.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, suite.bob.ID, friends[0].ID)
}

func (suite *FriendRepositoryTestSuite) TestDeclineRequest() {
	t := suite.T()
	req, err := suite.repo.CreateFriendRequest(suite.ctx, suite.alice.ID, suite.bob.ID)
	require.NoError(t, err)

	require.NoError(t, suite.repo.DeclineFriendRequest(suite.ctx, req.ID))
	assert.ErrorIs(t, suite.repo.DeclineFriendRequest(suite.ctx, req.ID), ErrFriendRequestNotFound)

	ok, err := suite.repo.AreFriends(suite.ctx, suite.alice.ID, suite.bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func (suite *FriendRepositoryTestSuite) TestAllFriends() {
	t := suite.T()
	carol := testutil.CreateUser(t, suite.db, "carol")
	testutil.MakeFriends(t, suite.db, suite.alice.ID, suite.bob.ID)

	ok, err := suite.repo.AllFriends(suite.ctx, suite.alice.ID, []string{suite.bob.ID})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = suite.repo.AllFriends(suite.ctx, suite.alice.ID, []string{suite.bob.ID, carol.ID})
	require.NoError(t, err)
	assert.False(t, ok)
}

func (suite *FriendRepositoryTestSuite) TestBlockEndsFriendship() {
	t := suite.T()
	testutil.MakeFriends(t, suite.db, suite.alice.ID, suite.bob.ID)

	require.NoError(t, suite.repo.Block(suite.ctx, suite.alice.ID, suite.bob.ID))
	require.NoError(t, suite.repo.Block(suite.ctx, suite.alice.ID, suite.bob.ID))

	ok, err := suite.repo.AreFriends(suite.ctx, suite.bob.ID, suite.alice.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	blocked, err := suite.repo.IsBlockedEitherWay(suite.ctx, suite.bob.ID, suite.alice.ID)
	require.NoError(t, err)
	assert.True(t, blocked)

	related, err := suite.repo.GetBlockRelatedIDs(suite.ctx, suite.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{suite.alice.ID}, related)

	require.NoError(t, suite.repo.Unblock(suite.ctx, suite.alice.ID, suite.bob.ID))
	blocked, err = suite.repo.IsBlockedEitherWay(suite.ctx, suite.alice.ID, suite.bob.ID)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func (suite *FriendRepositoryTestSuite) TestMute() {
	t := suite.T()
	require.NoError(t, suite.repo.Mute(suite.ctx, suite.alice.ID, suite.bob.ID))

	muted, err := suite.repo.GetMutedIDs(suite.ctx, suite.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{suite.bob.ID}, muted)

	require.NoError(t, suite.repo.Unmute(suite.ctx, suite.alice.ID, suite.bob.ID))
	isMuted, err := suite.repo.IsMuted(suite.ctx, suite.alice.ID, suite.bob.ID)
	require.NoError(t, err)
	assert.False(t, isMuted)
}

func TestFriendRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(FriendRepositoryTestSuite))
}
