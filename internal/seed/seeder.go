package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/zfogg/snapshelf/backend/internal/logger"
	"github.com/zfogg/snapshelf/backend/internal/models"
	"github.com/zfogg/snapshelf/backend/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostIndexer receives every seeded post so search has something to find.
type PostIndexer interface {
	IndexPost(ctx context.Context, post *models.Post) error
}

// Counts sizes a dev seed.
type Counts struct {
	Users       int
	Posts       int
	Comments    int
	Likes       int
	Collections int
}

// DefaultCounts is what `seed dev` creates.
var DefaultCounts = Counts{
	Users:       40,
	Posts:       200,
	Comments:    400,
	Likes:       800,
	Collections: 30,
}

// Seeder handles database seeding operations
type Seeder struct {
	db      *gorm.DB
	repos   *repository.Repositories
	indexer PostIndexer
	rng     *rand.Rand
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	seed := time.Now().UnixNano()
	_ = gofakeit.Seed(seed)
	return &Seeder{
		db:    db,
		repos: repository.NewRepositories(db),
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// SetIndexer sets the search index seeded posts are written to
func (s *Seeder) SetIndexer(indexer PostIndexer) {
	s.indexer = indexer
}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev(ctx context.Context, counts Counts) error {
	logger.Log.Info("Creating users...")
	users, err := s.seedUsers(ctx, counts.Users)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	logger.Log.Info("Creating friendships...")
	if err := s.seedFriendships(ctx, users); err != nil {
		return fmt.Errorf("failed to seed friendships: %w", err)
	}

	logger.Log.Info("Creating posts...")
	posts, err := s.seedPosts(ctx, users, counts.Posts)
	if err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	logger.Log.Info("Creating comments...")
	if err := s.seedComments(ctx, users, posts, counts.Comments); err != nil {
		return fmt.Errorf("failed to seed comments: %w", err)
	}

	logger.Log.Info("Creating likes...")
	if err := s.seedLikes(ctx, users, posts, counts.Likes); err != nil {
		return fmt.Errorf("failed to seed likes: %w", err)
	}

	logger.Log.Info("Creating collections...")
	if err := s.seedCollections(ctx, users, posts, counts.Collections); err != nil {
		return fmt.Errorf("failed to seed collections: %w", err)
	}

	return nil
}

// SeedTest creates a small fixed cast: alice, bob, charlie and diana.
// Alice and bob are friends, charlie has a pending request to alice and
// diana's profile is friends-only.
func (s *Seeder) SeedTest(ctx context.Context) ([]*models.User, error) {
	fixtures := []struct {
		username    string
		displayName string
		visibility  models.Visibility
	}{
		{"alice", "Alice Smith", models.VisibilityPublic},
		{"bob", "Bob Johnson", models.VisibilityPublic},
		{"charlie", "Charlie Brown", models.VisibilityPublic},
		{"diana", "Diana Prince", models.VisibilityFriends},
	}

	users := make([]*models.User, 0, len(fixtures))
	for _, fixture := range fixtures {
		user, err := s.repos.Users.GetUserByUsername(ctx, fixture.username)
		if err == nil {
			users = append(users, user)
			continue
		}
		user = &models.User{
			Username:    fixture.username,
			DisplayName: fixture.displayName,
			AvatarURL:   avatarURL(fixture.username),
			Visibility:  fixture.visibility,
		}
		if err := s.repos.Users.CreateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", fixture.username, err)
		}
		users = append(users, user)
	}

	alice, bob, charlie := users[0], users[1], users[2]
	if err := s.befriend(ctx, alice.ID, bob.ID); err != nil {
		return nil, err
	}
	if _, err := s.repos.Friends.GetPendingRequest(ctx, charlie.ID, alice.ID); err != nil {
		if _, err := s.repos.Friends.CreateFriendRequest(ctx, charlie.ID, alice.ID); err != nil {
			return nil, fmt.Errorf("failed to create friend request: %w", err)
		}
	}

	for _, user := range users {
		if _, err := s.seedPosts(ctx, []*models.User{user}, 2); err != nil {
			return nil, fmt.Errorf("failed to seed posts: %w", err)
		}
	}

	logger.Log.Info("Created test users", zap.Int("count", len(users)))
	return users, nil
}

// Clean deletes every row the seeder can create.
func (s *Seeder) Clean() error {
	// Delete in reverse order of dependencies
	tables := []string{
		"reports",
		"comment_events",
		"like_events",
		"archive_entries",
		"archive_group_members",
		"archive_groups",
		"comments",
		"post_likes",
		"posts",
		"user_mutes",
		"user_blocks",
		"friend_requests",
		"friendships",
		"users",
	}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clean %s: %w", table, err)
		}
	}
	return nil
}

func (s *Seeder) seedUsers(ctx context.Context, count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)
	for i := 0; i < count; i++ {
		username := gofakeit.Username()
		for {
			if _, err := s.repos.Users.GetUserByUsername(ctx, username); err != nil {
				break
			}
			username = fmt.Sprintf("%s%d", gofakeit.Username(), s.rng.Intn(1000))
		}

		visibility := models.VisibilityPublic
		if s.rng.Float32() < 0.25 {
			visibility = models.VisibilityFriends
		}

		user := &models.User{
			Username:    username,
			DisplayName: gofakeit.Name(),
			Bio:         gofakeit.HipsterSentence(),
			AvatarURL:   avatarURL(username),
			Visibility:  visibility,
		}
		if err := s.repos.Users.CreateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}

	logger.Log.Info("Created users", zap.Int("count", len(users)))
	return users, nil
}

// seedFriendships gives each user a handful of friends.
func (s *Seeder) seedFriendships(ctx context.Context, users []*models.User) error {
	if len(users) < 2 {
		return nil
	}
	created := 0
	for _, user := range users {
		for n := s.rng.Intn(5) + 1; n > 0; n-- {
			other := users[s.rng.Intn(len(users))]
			if other.ID == user.ID {
				continue
			}
			friends, err := s.repos.Friends.AreFriends(ctx, user.ID, other.ID)
			if err != nil {
				return err
			}
			if friends {
				continue
			}
			if err := s.befriend(ctx, user.ID, other.ID); err != nil {
				return err
			}
			created++
		}
	}
	logger.Log.Info("Created friendships", zap.Int("count", created))
	return nil
}

// befriend goes through the request flow so both rows and the accepted
// request exist, as they would after a real accept.
func (s *Seeder) befriend(ctx context.Context, userID, otherID string) error {
	friends, err := s.repos.Friends.AreFriends(ctx, userID, otherID)
	if err != nil || friends {
		return err
	}
	req, err := s.repos.Friends.CreateFriendRequest(ctx, userID, otherID)
	if err != nil {
		return fmt.Errorf("failed to create friend request: %w", err)
	}
	if err := s.repos.Friends.AcceptFriendRequest(ctx, req.ID); err != nil {
		return fmt.Errorf("failed to accept friend request: %w", err)
	}
	return nil
}

func (s *Seeder) seedPosts(ctx context.Context, users []*models.User, count int) ([]*models.Post, error) {
	if len(users) == 0 {
		return nil, nil
	}
	tags := []string{"sunset", "travel", "food", "city", "nature", "friends", "beach", "mountains", "coffee", "art"}

	posts := make([]*models.Post, 0, count)
	for i := 0; i < count; i++ {
		user := users[s.rng.Intn(len(users))]
		key := fmt.Sprintf("images/seed/%s/%s.jpg", user.ID, gofakeit.UUID())

		postTags := make([]string, 0, 3)
		seen := map[string]bool{}
		for n := s.rng.Intn(4); n > 0; n-- {
			tag := tags[s.rng.Intn(len(tags))]
			if !seen[tag] {
				seen[tag] = true
				postTags = append(postTags, tag)
			}
		}

		post := &models.Post{
			UserID:      user.ID,
			ImageURL:    "https://picsum.photos/seed/" + gofakeit.UUID() + "/1080/1080",
			ImageKey:    key,
			Description: gofakeit.HipsterSentence(),
			Tags:        postTags,
			Visibility:  models.VisibilityPublic,
		}
		if s.rng.Float32() < 0.3 {
			post.Visibility = models.VisibilityFriends
		}
		if s.rng.Float32() < 0.4 {
			post.Location = &models.Location{
				Name:    gofakeit.City(),
				Address: gofakeit.Country(),
			}
		}
		createdAt := gofakeit.DateRange(time.Now().AddDate(0, 0, -30), time.Now())
		post.CreatedAt = createdAt
		post.UpdatedAt = createdAt

		if err := s.repos.Posts.CreatePost(ctx, post); err != nil {
			return nil, fmt.Errorf("failed to create post: %w", err)
		}
		if s.indexer != nil {
			post.User = user
			if err := s.indexer.IndexPost(ctx, post); err != nil {
				logger.WarnWithFields("Failed to index seeded post", err, logger.WithPostID(post.ID))
			}
		}
		posts = append(posts, post)
	}

	logger.Log.Info("Created posts", zap.Int("count", len(posts)))
	return posts, nil
}

// seedComments writes comments straight to the table so no notification
// events are queued for seeded data.
func (s *Seeder) seedComments(ctx context.Context, users []*models.User, posts []*models.Post, count int) error {
	if len(users) == 0 || len(posts) == 0 {
		return nil
	}

	templates := []string{
		"🔥 This is gorgeous",
		"Where is this?",
		"Adding this to my list",
		"Great light",
		"Miss this place",
		"😍",
	}

	var topLevel []*models.Comment
	for i := 0; i < count; i++ {
		user := users[s.rng.Intn(len(users))]

		text := gofakeit.HipsterSentence()
		if s.rng.Float32() < 0.5 {
			text = templates[s.rng.Intn(len(templates))]
		}

		comment := &models.Comment{
			UserID:            user.ID,
			AuthorUsername:    user.Username,
			AuthorDisplayName: user.DisplayName,
			AuthorAvatarURL:   user.AvatarURL,
			Text:              text,
		}
		if len(topLevel) > 0 && s.rng.Float32() < 0.3 {
			parent := topLevel[s.rng.Intn(len(topLevel))]
			comment.PostID = parent.PostID
			comment.ParentID = &parent.ID
			comment.CreatedAt = gofakeit.DateRange(parent.CreatedAt, time.Now())
		} else {
			post := posts[s.rng.Intn(len(posts))]
			comment.PostID = post.ID
			comment.CreatedAt = gofakeit.DateRange(post.CreatedAt, time.Now())
		}

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(comment).Error; err != nil {
				return err
			}
			return tx.Model(&models.Post{}).Where("id = ?", comment.PostID).
				UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
		})
		if err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}
		if comment.ParentID == nil {
			topLevel = append(topLevel, comment)
		}
	}

	logger.Log.Info("Created comments", zap.Int("count", count))
	return nil
}

func (s *Seeder) seedLikes(ctx context.Context, users []*models.User, posts []*models.Post, count int) error {
	if len(users) == 0 || len(posts) == 0 {
		return nil
	}
	created := 0
	for i := 0; i < count; i++ {
		user := users[s.rng.Intn(len(users))]
		post := posts[s.rng.Intn(len(posts))]

		like := &models.PostLike{PostID: post.ID, UserID: user.ID}
		result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(like)
		if result.Error != nil {
			return fmt.Errorf("failed to create like: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			continue
		}
		if err := s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", post.ID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error; err != nil {
			return fmt.Errorf("failed to update like count: %w", err)
		}
		created++
	}

	logger.Log.Info("Created likes", zap.Int("count", created))
	return nil
}

// seedCollections quick-saves posts for random users and builds shared
// collections among friends.
func (s *Seeder) seedCollections(ctx context.Context, users []*models.User, posts []*models.Post, count int) error {
	if len(users) == 0 || len(posts) == 0 {
		return nil
	}
	names := []string{"Trip ideas", "Favorites", "Summer", "Food spots", "Inspiration", "Weekend"}
	emojis := []string{"✈️", "⭐", "🌞", "🍜", "🎨", "🏕️"}

	for i := 0; i < count; i++ {
		user := users[s.rng.Intn(len(users))]

		group, err := s.repos.Archive.GetOrCreateDefaultGroup(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("failed to get default collection: %w", err)
		}

		if s.rng.Float32() < 0.5 {
			friendIDs, err := s.repos.Friends.GetFriendIDs(ctx, user.ID)
			if err != nil {
				return err
			}
			if len(friendIDs) > 2 {
				friendIDs = friendIDs[:2]
			}
			pick := s.rng.Intn(len(names))
			group = &models.ArchiveGroup{
				CreatedBy: user.ID,
				Name:      names[pick],
				Emoji:     emojis[pick],
				IsShared:  len(friendIDs) > 0,
			}
			if err := s.repos.Archive.CreateGroup(ctx, group, friendIDs); err != nil {
				return fmt.Errorf("failed to create collection: %w", err)
			}
		}

		for n := s.rng.Intn(5) + 1; n > 0; n-- {
			post := posts[s.rng.Intn(len(posts))]
			if _, err := s.repos.Archive.AddEntry(ctx, group.ID, post.ID, user.ID); err != nil {
				return fmt.Errorf("failed to save post: %w", err)
			}
		}
	}

	logger.Log.Info("Created collections", zap.Int("count", count))
	return nil
}

func avatarURL(username string) string {
	return fmt.Sprintf("https://api.dicebear.com/7.x/thumbs/png?seed=%s", username)
}
