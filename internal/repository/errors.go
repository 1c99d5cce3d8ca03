package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrUserNotFound          = errors.New("user not found")
	ErrPostNotFound          = errors.New("post not found")
	ErrCommentNotFound       = errors.New("comment not found")
	ErrGroupNotFound         = errors.New("archive group not found")
	ErrNotGroupMember        = errors.New("user is not a member of the archive group")
	ErrFriendRequestNotFound = errors.New("friend request not found")
	ErrAlreadyExists         = errors.New("already exists")
)

// notFound maps gorm.ErrRecordNotFound to the given sentinel.
func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
