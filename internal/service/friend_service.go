package service

import (
	"context"

	apperrors "github.com/zfogg/snapshelf/backend/internal/errors"
	"github.com/zfogg/snapshelf/backend/internal/logger"
	"github.com/zfogg/snapshelf/backend/internal/models"
	"github.com/zfogg/snapshelf/backend/internal/repository"
)

// Friend status values reported on profiles.
const (
	FriendStatusSelf     = "self"
	FriendStatusFriends  = "friends"
	FriendStatusSent     = "request_sent"
	FriendStatusReceived = "request_received"
	FriendStatusNone     = "none"
)

// FriendRequests lists a user's pending requests in both directions.
type FriendRequests struct {
	Sent     []*models.FriendRequest `json:"sent"`
	Received []*models.FriendRequest `json:"received"`
}

// FriendService handles friendships, requests, blocks, mutes and profiles.
type FriendService struct {
	repos *repository.Repositories
}

// NewFriendService creates a new friend service
func NewFriendService(repos *repository.Repositories) *FriendService {
	return &FriendService{repos: repos}
}

// SendFriendRequest asks receiverID to become friends. A pending request in
// the opposite direction is accepted instead.
func (s *FriendService) SendFriendRequest(ctx context.Context, senderID, receiverID string) (*models.FriendRequest, error) {
	if senderID == receiverID {
		return nil, apperrors.BadRequest("you cannot befriend yourself")
	}
	if _, err := s.repos.Users.GetUser(ctx, receiverID); err != nil {
		return nil, translate(err, "get user", logger.WithUserID(receiverID))
	}

	blocked, err := s.repos.Friends.IsBlockedEitherWay(ctx, senderID, receiverID)
	if err != nil {
		return nil, translate(err, "check block", logger.WithUserID(senderID))
	}
	if blocked {
		return nil, apperrors.NotFound("user")
	}
	friends, err := s.repos.Friends.AreFriends(ctx, senderID, receiverID)
	if err != nil {
		return nil, translate(err, "check friendship", logger.WithUserID(senderID))
	}
	if friends {
		return nil, apperrors.Conflict("friendship")
	}
	if _, err := s.repos.Friends.GetPendingRequest(ctx, senderID, receiverID); err == nil {
		return nil, apperrors.Conflict("friend request")
	}

	if crossing, err := s.repos.Friends.GetPendingRequest(ctx, receiverID, senderID); err == nil {
		if err := s.repos.Friends.AcceptFriendRequest(ctx, crossing.ID); err != nil {
			return nil, translate(err, "accept friend request", logger.WithUserID(senderID))
		}
		crossing.Status = models.FriendRequestAccepted
		return crossing, nil
	}

	req, err := s.repos.Friends.CreateFriendRequest(ctx, senderID, receiverID)
	if err != nil {
		return nil, translate(err, "create friend request", logger.WithUserID(senderID))
	}
	return req, nil
}

// AcceptFriendRequest accepts a request addressed to actorID.
func (s *FriendService) AcceptFriendRequest(ctx context.Context, requestID, actorID string) error {
	req, err := s.receivedRequest(ctx, requestID, actorID)
	if err != nil {
		return err
	}
	if err := s.repos.Friends.AcceptFriendRequest(ctx, req.ID); err != nil {
		return translate(err, "accept friend request", logger.WithUserID(actorID))
	}
	logger.InfoWithFields("Friend request accepted", logger.WithUserID(actorID))
	return nil
}

// DeclineFriendRequest declines a request addressed to actorID.
func (s *FriendService) DeclineFriendRequest(ctx context.Context, requestID, actorID string) error {
	req, err := s.receivedRequest(ctx, requestID, actorID)
	if err != nil {
		return err
	}
	if err := s.repos.Friends.DeclineFriendRequest(ctx, req.ID); err != nil {
		return translate(err, "decline friend request", logger.WithUserID(actorID))
	}
	return nil
}

func (s *FriendService) receivedRequest(ctx context.Context, requestID, actorID string) (*models.FriendRequest, error) {
	req, err := s.repos.Friends.GetFriendRequest(ctx, requestID)
	if err != nil {
		return nil, translate(err, "get friend request")
	}
	if req.ReceiverID != actorID {
		return nil, apperrors.NotFound("friend request")
	}
	if req.Status != models.FriendRequestPending {
		return nil, apperrors.Conflict("friend request")
	}
	return req, nil
}

// ListFriendRequests returns the user's pending sent and received requests.
func (s *FriendService) ListFriendRequests(ctx context.Context, userID string) (*FriendRequests, error) {
	sent, err := s.repos.Friends.ListSentRequests(ctx, userID)
	if err != nil {
		return nil, translate(err, "list sent requests", logger.WithUserID(userID))
	}
	received, err := s.repos.Friends.ListReceivedRequests(ctx, userID)
	if err != nil {
		return nil, translate(err, "list received requests", logger.WithUserID(userID))
	}
	return &FriendRequests{Sent: sent, Received: received}, nil
}

// RemoveFriend ends a friendship. Shared collections are left as they are.
func (s *FriendService) RemoveFriend(ctx context.Context, userID, friendID string) error {
	if err := s.repos.Friends.DeleteFriendship(ctx, userID, friendID); err != nil {
		return translate(err, "remove friend", logger.WithUserID(userID))
	}
	return nil
}

// ListFriends returns a page of the user's friends, by username.
func (s *FriendService) ListFriends(ctx context.Context, userID string, limit, offset int) ([]*models.User, error) {
	friends, err := s.repos.Friends.GetFriends(ctx, userID, ClampLimit(limit), clampOffset(offset))
	if err != nil {
		return nil, translate(err, "list friends", logger.WithUserID(userID))
	}
	return friends, nil
}

// Block blocks otherID, ending any friendship between the two.
func (s *FriendService) Block(ctx context.Context, userID, otherID string) error {
	if userID == otherID {
		return apperrors.BadRequest("you cannot block yourself")
	}
	if _, err := s.repos.Users.GetUser(ctx, otherID); err != nil {
		return translate(err, "get user", logger.WithUserID(otherID))
	}
	if err := s.repos.Friends.Block(ctx, userID, otherID); err != nil {
		return translate(err, "block user", logger.WithUserID(userID))
	}
	logger.InfoWithFields("User blocked", logger.WithUserID(userID))
	return nil
}

func (s *FriendService) Unblock(ctx context.Context, userID, otherID string) error {
	if err := s.repos.Friends.Unblock(ctx, userID, otherID); err != nil {
		return translate(err, "unblock user", logger.WithUserID(userID))
	}
	return nil
}

// Mute hides otherID's posts from the user's feed.
func (s *FriendService) Mute(ctx context.Context, userID, otherID string) error {
	if userID == otherID {
		return apperrors.BadRequest("you cannot mute yourself")
	}
	if _, err := s.repos.Users.GetUser(ctx, otherID); err != nil {
		return translate(err, "get user", logger.WithUserID(otherID))
	}
	if err := s.repos.Friends.Mute(ctx, userID, otherID); err != nil {
		return translate(err, "mute user", logger.WithUserID(userID))
	}
	return nil
}

func (s *FriendService) Unmute(ctx context.Context, userID, otherID string) error {
	if err := s.repos.Friends.Unmute(ctx, userID, otherID); err != nil {
		return translate(err, "unmute user", logger.WithUserID(userID))
	}
	return nil
}

// GetProfile returns the user with counts and the viewer's relationship.
func (s *FriendService) GetProfile(ctx context.Context, userID, viewerID string) (*models.Profile, error) {
	user, err := s.repos.Users.GetUser(ctx, userID)
	if err != nil {
		return nil, translate(err, "get user", logger.WithUserID(userID))
	}

	profile := &models.Profile{User: *user, FriendStatus: FriendStatusSelf}
	if userID != viewerID {
		blockedEither, err := s.repos.Friends.IsBlockedEitherWay(ctx, viewerID, userID)
		if err != nil {
			return nil, translate(err, "check block", logger.WithUserID(userID))
		}
		if blockedEither {
			blockedIDs, err := s.repos.Friends.GetBlockedIDs(ctx, viewerID)
			if err != nil {
				return nil, translate(err, "check block", logger.WithUserID(userID))
			}
			if !contains(blockedIDs, userID) {
				return nil, apperrors.NotFound("user")
			}
			profile.IsBlocked = true
		}
		if profile.FriendStatus, err = s.friendStatus(ctx, viewerID, userID); err != nil {
			return nil, err
		}
		if profile.IsMuted, err = s.repos.Friends.IsMuted(ctx, viewerID, userID); err != nil {
			return nil, translate(err, "check mute", logger.WithUserID(userID))
		}
	}

	if profile.PostCount, err = s.repos.Posts.CountUserPosts(ctx, userID); err != nil {
		return nil, translate(err, "count posts", logger.WithUserID(userID))
	}
	if profile.FriendCount, err = s.repos.Friends.CountFriends(ctx, userID); err != nil {
		return nil, translate(err, "count friends", logger.WithUserID(userID))
	}
	return profile, nil
}

func (s *FriendService) friendStatus(ctx context.Context, viewerID, userID string) (string, error) {
	friends, err := s.repos.Friends.AreFriends(ctx, viewerID, userID)
	if err != nil {
		return "", translate(err, "check friendship", logger.WithUserID(userID))
	}
	if friends {
		return FriendStatusFriends, nil
	}
	if _, err := s.repos.Friends.GetPendingRequest(ctx, viewerID, userID); err == nil {
		return FriendStatusSent, nil
	}
	if _, err := s.repos.Friends.GetPendingRequest(ctx, userID, viewerID); err == nil {
		return FriendStatusReceived, nil
	}
	return FriendStatusNone, nil
}

// UpdateVisibility sets who can see the user's posts by default.
func (s *FriendService) UpdateVisibility(ctx context.Context, userID string, visibility models.Visibility) (*models.User, error) {
	if !visibility.Valid() {
		return nil, apperrors.ValidationError("visibility", "visibility must be public or friends")
	}
	if err := s.repos.Users.UpdateUser(ctx, userID, map[string]interface{}{"visibility": visibility}); err != nil {
		return nil, translate(err, "update visibility", logger.WithUserID(userID))
	}
	user, err := s.repos.Users.GetUser(ctx, userID)
	if err != nil {
		return nil, translate(err, "get user", logger.WithUserID(userID))
	}
	return user, nil
}
