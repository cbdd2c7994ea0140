package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/denizoku/pulse/models"
	"github.com/denizoku/pulse/pkg"
	"github.com/denizoku/pulse/repository"
	"github.com/denizoku/pulse/ws"
)

// FriendshipService manages the friend graph. Requests and acceptances
// produce notifications; declines stay silent so the requester never learns
// they were turned down.
type FriendshipService interface {
	// SendRequest creates a pending request toward the named user. If the
	// other user already has a pending request toward the caller, the two
	// are matched and the friendship is accepted immediately.
	SendRequest(ctx context.Context, userID string, req *models.SendFriendRequestRequest) (*models.Friendship, error)
	// Accept confirms a pending request addressed to the caller.
	Accept(ctx context.Context, userID, friendshipID string) error
	// Decline silently deletes a pending request addressed to the caller.
	Decline(ctx context.Context, userID, friendshipID string) error
	// Remove deletes an accepted friendship; either side may do it.
	Remove(ctx context.Context, userID, friendshipID string) error
	ListFriends(ctx context.Context, userID string) ([]models.FriendshipWithUser, error)
	ListPendingReceived(ctx context.Context, userID string) ([]models.FriendshipWithUser, error)
	// ListOnlineFriends returns the subset of the user's friends that
	// currently hold a live WebSocket connection.
	ListOnlineFriends(ctx context.Context, userID string) ([]models.FriendshipWithUser, error)
}

type friendshipService struct {
	friendRepo    repository.FriendshipRepository
	userRepo      repository.UserRepository
	notifications NotificationService
	hub           ws.EventPublisher
}

// NewFriendshipService builds the friendship service. hub supplies presence
// for ListOnlineFriends.
func NewFriendshipService(
	friendRepo repository.FriendshipRepository,
	userRepo repository.UserRepository,
	notifications NotificationService,
	hub ws.EventPublisher,
) FriendshipService {
	return &friendshipService{
		friendRepo:    friendRepo,
		userRepo:      userRepo,
		notifications: notifications,
		hub:           hub,
	}
}

func (s *friendshipService) SendRequest(ctx context.Context, userID string, req *models.SendFriendRequestRequest) (*models.Friendship, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	target, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: no such user", pkg.ErrNotFound)
		}
		return nil, err
	}
	if target.ID == userID {
		return nil, fmt.Errorf("%w: cannot friend yourself", pkg.ErrBadRequest)
	}

	existing, err := s.friendRepo.GetBetween(ctx, userID, target.ID)
	if err != nil && !errors.Is(err, pkg.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		if existing.Status == models.FriendshipStatusAccepted {
			return nil, fmt.Errorf("%w: already friends", pkg.ErrAlreadyExists)
		}
		if existing.UserID == userID {
			return nil, fmt.Errorf("%w: request already sent", pkg.ErrAlreadyExists)
		}
		// The other side asked first. Treat this request as an accept.
		if err := s.acceptRequest(ctx, userID, existing); err != nil {
			return nil, err
		}
		existing.Status = models.FriendshipStatusAccepted
		return existing, nil
	}

	friendship := &models.Friendship{
		ID:       uuid.NewString(),
		UserID:   userID,
		FriendID: target.ID,
		Status:   models.FriendshipStatusPending,
	}
	if err := s.friendRepo.Create(ctx, friendship); err != nil {
		return nil, err
	}

	sender, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	notifyOrLog(ctx, s.notifications, &models.Notification{
		RecipientID: target.ID,
		SenderID:    &sender.ID,
		Kind:        models.KindFriendRequest,
		SubjectRef:  friendship.ID,
		PreviewText: fmt.Sprintf("%s sent you a friend request", sender.Username),
	})

	return friendship, nil
}

func (s *friendshipService) Accept(ctx context.Context, userID, friendshipID string) error {
	friendship, err := s.friendRepo.GetByID(ctx, friendshipID)
	if err != nil {
		return err
	}
	if friendship.FriendID != userID {
		return fmt.Errorf("%w: not your friend request", pkg.ErrForbidden)
	}
	if friendship.Status != models.FriendshipStatusPending {
		return fmt.Errorf("%w: request is not pending", pkg.ErrBadRequest)
	}
	return s.acceptRequest(ctx, userID, friendship)
}

// acceptRequest flips the row to accepted and notifies the original
// requester. accepterID is always the row's friend_id.
func (s *friendshipService) acceptRequest(ctx context.Context, accepterID string, friendship *models.Friendship) error {
	if err := s.friendRepo.UpdateStatus(ctx, friendship.ID, models.FriendshipStatusAccepted); err != nil {
		return err
	}

	accepter, err := s.userRepo.GetByID(ctx, accepterID)
	if err != nil {
		return err
	}
	notifyOrLog(ctx, s.notifications, &models.Notification{
		RecipientID: friendship.UserID,
		SenderID:    &accepter.ID,
		Kind:        models.KindFriendAccept,
		SubjectRef:  friendship.ID,
		PreviewText: fmt.Sprintf("%s accepted your friend request", accepter.Username),
	})
	return nil
}

func (s *friendshipService) Decline(ctx context.Context, userID, friendshipID string) error {
	friendship, err := s.friendRepo.GetByID(ctx, friendshipID)
	if err != nil {
		return err
	}
	if friendship.FriendID != userID {
		return fmt.Errorf("%w: not your friend request", pkg.ErrForbidden)
	}
	if friendship.Status != models.FriendshipStatusPending {
		return fmt.Errorf("%w: request is not pending", pkg.ErrBadRequest)
	}
	return s.friendRepo.Delete(ctx, friendshipID)
}

func (s *friendshipService) Remove(ctx context.Context, userID, friendshipID string) error {
	friendship, err := s.friendRepo.GetByID(ctx, friendshipID)
	if err != nil {
		return err
	}
	if friendship.UserID != userID && friendship.FriendID != userID {
		return fmt.Errorf("%w: not your friendship", pkg.ErrForbidden)
	}
	if friendship.Status != models.FriendshipStatusAccepted {
		return fmt.Errorf("%w: not friends", pkg.ErrBadRequest)
	}
	return s.friendRepo.Delete(ctx, friendshipID)
}

func (s *friendshipService) ListFriends(ctx context.Context, userID string) ([]models.FriendshipWithUser, error) {
	return s.friendRepo.ListFriends(ctx, userID)
}

func (s *friendshipService) ListPendingReceived(ctx context.Context, userID string) ([]models.FriendshipWithUser, error) {
	return s.friendRepo.ListPendingReceived(ctx, userID)
}

func (s *friendshipService) ListOnlineFriends(ctx context.Context, userID string) ([]models.FriendshipWithUser, error) {
	friends, err := s.friendRepo.ListFriends(ctx, userID)
	if err != nil {
		return nil, err
	}

	online := make(map[string]bool)
	for _, id := range s.hub.OnlineUserIDs() {
		online[id] = true
	}

	result := []models.FriendshipWithUser{}
	for _, f := range friends {
		if online[f.UserID] {
			result = append(result, f)
		}
	}
	return result, nil
}
