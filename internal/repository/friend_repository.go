package repository

import (
	"context"
	"errors"

	"github.com/zfogg/snapshelf/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FriendRepository stores friendships, friend requests, blocks and mutes.
type FriendRepository interface {
	// Friendships
	AreFriends(ctx context.Context, userID, otherID string) (bool, error)
	AllFriends(ctx context.Context, userID string, otherIDs []string) (bool, error)
	GetFriendIDs(ctx context.Context, userID string) ([]string, error)
	GetFriends(ctx context.Context, userID string, limit, offset int) ([]*models.User, error)
	CountFriends(ctx context.Context, userID string) (int64, error)
	DeleteFriendship(ctx context.Context, userID, otherID string) error

	// Requests
	CreateFriendRequest(ctx context.Context, senderID, receiverID string) (*models.FriendRequest, error)
	GetFriendRequest(ctx context.Context, requestID string) (*models.FriendRequest, error)
	GetPendingRequest(ctx context.Context, senderID, receiverID string) (*models.FriendRequest, error)
	AcceptFriendRequest(ctx context.Context, requestID string) error
	DeclineFriendRequest(ctx context.Context, requestID string) error
	ListSentRequests(ctx context.Context, userID string) ([]*models.FriendRequest, error)
	ListReceivedRequests(ctx context.Context, userID string) ([]*models.FriendRequest, error)

	// Blocks and mutes
	Block(ctx context.Context, blockerID, blockedID string) error
	Unblock(ctx context.Context, blockerID, blockedID string) error
	IsBlockedEitherWay(ctx context.Context, userID, otherID string) (bool, error)
	GetBlockedIDs(ctx context.Context, userID string) ([]string, error)
	GetBlockRelatedIDs(ctx context.Context, userID string) ([]string, error)
	Mute(ctx context.Context, muterID, mutedID string) error
	Unmute(ctx context.Context, muterID, mutedID string) error
	IsMuted(ctx context.Context, muterID, mutedID string) (bool, error)
	GetMutedIDs(ctx context.Context, userID string) ([]string, error)
}

type friendRepository struct {
	db *gorm.DB
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(db *gorm.DB) FriendRepository {
	return &friendRepository{db: db}
}

func (r *friendRepository) AreFriends(ctx context.Context, userID, otherID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("user_id = ? AND friend_id = ?", userID, otherID).
		Count(&count).Error
	return count > 0, err
}

// AllFriends reports whether every id in otherIDs is a friend of userID.
func (r *friendRepository) AllFriends(ctx context.Context, userID string, otherIDs []string) (bool, error) {
	if len(otherIDs) == 0 {
		return true, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("user_id = ? AND friend_id IN ?", userID, otherIDs).
		Count(&count).Error
	return count == int64(len(otherIDs)), err
}

func (r *friendRepository) GetFriendIDs(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	err := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("user_id = ?", userID).
		Pluck("friend_id", &ids).Error
	return ids, err
}

func (r *friendRepository) GetFriends(ctx context.Context, userID string, limit, offset int) ([]*models.User, error) {
	users := []*models.User{}
	err := r.db.WithContext(ctx).
		Joins("JOIN friendships ON friendships.friend_id = users.id").
		Where("friendships.user_id = ?", userID).
		Order("users.username ASC").
		Limit(limit).Offset(offset).
		Find(&users).Error
	return users, err
}

func (r *friendRepository) CountFriends(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Friendship{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// DeleteFriendship removes both directions of the friendship.
func (r *friendRepository) DeleteFriendship(ctx context.Context, userID, otherID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteFriendshipTx(tx, userID, otherID)
	})
}

func deleteFriendshipTx(tx *gorm.DB, userID, otherID string) error {
	return tx.Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
		userID, otherID, otherID, userID).
		Delete(&models.Friendship{}).Error
}

func (r *friendRepository) CreateFriendRequest(ctx context.Context, senderID, receiverID string) (*models.FriendRequest, error) {
	req := &models.FriendRequest{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     models.FriendRequestPending,
	}
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return nil, err
	}
	return req, nil
}

func (r *friendRepository) GetFriendRequest(ctx context.Context, requestID string) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.db.WithContext(ctx).
		Preload("Sender").Preload("Receiver").
		Where("id = ?", requestID).
		First(&req).Error
	if err != nil {
		return nil, notFound(err, ErrFriendRequestNotFound)
	}
	return &req, nil
}

func (r *friendRepository) GetPendingRequest(ctx context.Context, senderID, receiverID string) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("sender_id = ? AND receiver_id = ? AND status = ?", senderID, receiverID, models.FriendRequestPending).
		First(&req).Error
	if err != nil {
		return nil, notFound(err, ErrFriendRequestNotFound)
	}
	return &req, nil
}

// AcceptFriendRequest marks the request accepted and stores the friendship in
// both directions. A crossing request in the other direction is accepted too.
func (r *friendRepository) AcceptFriendRequest(ctx context.Context, requestID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.FriendRequest
		if err := tx.Where("id = ? AND status = ?", requestID, models.FriendRequestPending).First(&req).Error; err != nil {
			return notFound(err, ErrFriendRequestNotFound)
		}

		if err := tx.Model(&models.FriendRequest{}).
			Where("status = ? AND ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))",
				models.FriendRequestPending, req.SenderID, req.ReceiverID, req.ReceiverID, req.SenderID).
			Update("status", models.FriendRequestAccepted).Error; err != nil {
			return err
		}

		friendships := []models.Friendship{
			{UserID: req.SenderID, FriendID: req.ReceiverID},
			{UserID: req.ReceiverID, FriendID: req.SenderID},
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&friendships).Error
	})
}

func (r *friendRepository) DeclineFriendRequest(ctx context.Context, requestID string) error {
	result := r.db.WithContext(ctx).Model(&models.FriendRequest{}).
		Where("id = ? AND status = ?", requestID, models.FriendRequestPending).
		Update("status", models.FriendRequestDeclined)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrFriendRequestNotFound
	}
	return nil
}

func (r *friendRepository) ListSentRequests(ctx context.Context, userID string) ([]*models.FriendRequest, error) {
	reqs := []*models.FriendRequest{}
	err := r.db.WithContext(ctx).
		Preload("Receiver").
		Where("sender_id = ? AND status = ?", userID, models.FriendRequestPending).
		Order("created_at DESC").
		Find(&reqs).Error
	return reqs, err
}

func (r *friendRepository) ListReceivedRequests(ctx context.Context, userID string) ([]*models.FriendRequest, error) {
	reqs := []*models.FriendRequest{}
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("receiver_id = ? AND status = ?", userID, models.FriendRequestPending).
		Order("created_at DESC").
		Find(&reqs).Error
	return reqs, err
}

// Block records the block, ends any friendship and declines pending requests
// between the two users.
func (r *friendRepository) Block(ctx context.Context, blockerID, blockedID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		block := &models.UserBlock{BlockerID: blockerID, BlockedID: blockedID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(block).Error; err != nil {
			return err
		}
		if err := deleteFriendshipTx(tx, blockerID, blockedID); err != nil {
			return err
		}
		return tx.Model(&models.FriendRequest{}).
			Where("status = ? AND ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))",
				models.FriendRequestPending, blockerID, blockedID, blockedID, blockerID).
			Update("status", models.FriendRequestDeclined).Error
	})
}

func (r *friendRepository) Unblock(ctx context.Context, blockerID, blockedID string) error {
	return r.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&models.UserBlock{}).Error
}

func (r *friendRepository) IsBlockedEitherWay(ctx context.Context, userID, otherID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserBlock{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)",
			userID, otherID, otherID, userID).
		Count(&count).Error
	return count > 0, err
}

// GetBlockedIDs returns the users userID has blocked.
func (r *friendRepository) GetBlockedIDs(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	err := r.db.WithContext(ctx).Model(&models.UserBlock{}).
		Where("blocker_id = ?", userID).
		Pluck("blocked_id", &ids).Error
	return ids, err
}

// GetBlockRelatedIDs returns users userID blocked plus users who blocked userID.
func (r *friendRepository) GetBlockRelatedIDs(ctx context.Context, userID string) ([]string, error) {
	var blocks []models.UserBlock
	err := r.db.WithContext(ctx).
		Where("blocker_id = ? OR blocked_id = ?", userID, userID).
		Find(&blocks).Error
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b.BlockerID == userID {
			ids = append(ids, b.BlockedID)
		} else {
			ids = append(ids, b.BlockerID)
		}
	}
	return ids, nil
}

func (r *friendRepository) Mute(ctx context.Context, muterID, mutedID string) error {
	mute := &models.UserMute{MuterID: muterID, MutedID: mutedID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(mute).Error
}

func (r *friendRepository) Unmute(ctx context.Context, muterID, mutedID string) error {
	return r.db.WithContext(ctx).
		Where("muter_id = ? AND muted_id = ?", muterID, mutedID).
		Delete(&models.UserMute{}).Error
}

func (r *friendRepository) IsMuted(ctx context.Context, muterID, mutedID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserMute{}).
		Where("muter_id = ? AND muted_id = ?", muterID, mutedID).
		Count(&count).Error
	return count > 0, err
}

func (r *friendRepository) GetMutedIDs(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	err := r.db.WithContext(ctx).Model(&models.UserMute{}).
		Where("muter_id = ?", userID).
		Pluck("muted_id", &ids).Error
	return ids, err
}

// IsDuplicate reports whether err is a unique-constraint violation.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
