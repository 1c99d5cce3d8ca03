package repository

import "gorm.io/gorm"

// Repositories bundles every repository over one database handle.
type Repositories struct {
	Users    UserRepository
	Friends  FriendRepository
	Posts    PostRepository
	Comments CommentRepository
	Archive  ArchiveRepository
	Events   EventRepository
}

// NewRepositories creates all repositories for db.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Users:    NewUserRepository(db),
		Friends:  NewFriendRepository(db),
		Posts:    NewPostRepository(db),
		Comments: NewCommentRepository(db),
		Archive:  NewArchiveRepository(db),
		Events:   NewEventRepository(db),
	}
}
