package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/snapshelf/backend/internal/models"
	"github.com/zfogg/snapshelf/backend/internal/testutil"
)

type recordingIndexer struct {
	ids []string
}

func (r *recordingIndexer) IndexPost(ctx context.Context, post *models.Post) error {
	r.ids = append(r.ids, post.ID)
	return nil
}

func TestSeedDev(t *testing.T) {
	db := testutil.NewTestDB(t)
	seeder := NewSeeder(db)
	indexer := &recordingIndexer{}
	seeder.SetIndexer(indexer)

	counts := Counts{Users: 6, Posts: 12, Comments: 20, Likes: 15, Collections: 4}
	require.NoError(t, seeder.SeedDev(context.Background(), counts))

	var users, posts, comments int64
	db.Model(&models.User{}).Count(&users)
	db.Model(&models.Post{}).Count(&posts)
	db.Model(&models.Comment{}).Count(&comments)
	assert.Equal(t, int64(6), users)
	assert.Equal(t, int64(12), posts)
	assert.Equal(t, int64(20), comments)
	assert.Len(t, indexer.ids, 12)

	// Counters match the rows they summarize
	var commentTotal, likeTotal, likes int64
	db.Model(&models.Post{}).Select("COALESCE(SUM(comment_count), 0)").Scan(&commentTotal)
	db.Model(&models.Post{}).Select("COALESCE(SUM(like_count), 0)").Scan(&likeTotal)
	db.Model(&models.PostLike{}).Count(&likes)
	assert.Equal(t, comments, commentTotal)
	assert.Equal(t, likes, likeTotal)

	// Seeded data queues no notifications
	var events int64
	db.Model(&models.LikeEvent{}).Count(&events)
	assert.Zero(t, events)
}

func TestSeedTest(t *testing.T) {
	db := testutil.NewTestDB(t)
	seeder := NewSeeder(db)
	ctx := context.Background()

	users, err := seeder.SeedTest(ctx)
	require.NoError(t, err)
	require.Len(t, users, 4)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, models.VisibilityFriends, users[3].Visibility)

	friends, err := seeder.repos.Friends.AreFriends(ctx, users[0].ID, users[1].ID)
	require.NoError(t, err)
	assert.True(t, friends)

	_, err = seeder.repos.Friends.GetPendingRequest(ctx, users[2].ID, users[0].ID)
	assert.NoError(t, err)

	// Running again reuses the same users
	again, err := seeder.SeedTest(ctx)
	require.NoError(t, err)
	assert.Equal(t, users[0].ID, again[0].ID)
}

func TestClean(t *testing.T) {
	db := testutil.NewTestDB(t)
	seeder := NewSeeder(db)
	require.NoError(t, seeder.SeedDev(context.Background(), Counts{Users: 3, Posts: 4, Comments: 3, Likes: 3, Collections: 2}))

	require.NoError(t, seeder.Clean())

	var users, posts int64
	db.Model(&models.User{}).Count(&users)
	db.Model(&models.Post{}).Count(&posts)
	assert.Zero(t, users)
	assert.Zero(t, posts)
}
