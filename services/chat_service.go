package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/denizoku/pulse/models"
	"github.com/denizoku/pulse/pkg"
	"github.com/denizoku/pulse/pkg/ratelimit"
	"github.com/denizoku/pulse/repository"
)

// ChatService manages 1:1 conversations. Rooms only exist between friends;
// each message notifies the other participant.
type ChatService interface {
	// GetOrCreateRoom returns the room between the caller and the other
	// user, creating it on first use. Both must be friends.
	GetOrCreateRoom(ctx context.Context, userID, otherID string) (*models.ChatRoom, error)
	ListRooms(ctx context.Context, userID string) ([]models.ChatRoom, error)
	ListMessages(ctx context.Context, userID, roomID, beforeID string, limit int) (*models.ChatMessagePage, error)
	SendMessage(ctx context.Context, userID, roomID string, req *models.SendChatMessageRequest) (*models.ChatMessage, error)
}

type chatService struct {
	chatRepo      repository.ChatRepository
	friendRepo    repository.FriendshipRepository
	userRepo      repository.UserRepository
	notifications NotificationService
	limiter       *ratelimit.MessageRateLimiter
}

// NewChatService builds the chat service. limiter throttles SendMessage
// per sender.
func NewChatService(
	chatRepo repository.ChatRepository,
	friendRepo repository.FriendshipRepository,
	userRepo repository.UserRepository,
	notifications NotificationService,
	limiter *ratelimit.MessageRateLimiter,
) ChatService {
	return &chatService{
		chatRepo:      chatRepo,
		friendRepo:    friendRepo,
		userRepo:      userRepo,
		notifications: notifications,
		limiter:       limiter,
	}
}

func (s *chatService) GetOrCreateRoom(ctx context.Context, userID, otherID string) (*models.ChatRoom, error) {
	if userID == otherID {
		return nil, fmt.Errorf("%w: cannot chat with yourself", pkg.ErrBadRequest)
	}

	friends, err := s.friendRepo.AreFriends(ctx, userID, otherID)
	if err != nil {
		return nil, err
	}
	if !friends {
		return nil, fmt.Errorf("%w: you can only chat with friends", pkg.ErrForbidden)
	}

	// The pair is stored ordered, so racing first-messages from opposite
	// sides target the same row and the UNIQUE constraint arbitrates.
	a, b := userID, otherID
	if b < a {
		a, b = b, a
	}

	room, err := s.chatRepo.GetRoomBetween(ctx, a, b)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, pkg.ErrNotFound) {
		return nil, err
	}

	room = &models.ChatRoom{
		ID:       uuid.NewString(),
		AuthorID: a,
		FriendID: b,
	}
	if err := s.chatRepo.CreateRoom(ctx, room); err != nil {
		// Lost the race: the other side created the room first.
		if errors.Is(err, pkg.ErrAlreadyExists) {
			return s.chatRepo.GetRoomBetween(ctx, a, b)
		}
		return nil, err
	}
	return room, nil
}

func (s *chatService) ListRooms(ctx context.Context, userID string) ([]models.ChatRoom, error) {
	return s.chatRepo.ListRooms(ctx, userID)
}

func (s *chatService) ListMessages(ctx context.Context, userID, roomID, beforeID string, limit int) (*models.ChatMessagePage, error) {
	room, err := s.chatRepo.GetRoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.AuthorID != userID && room.FriendID != userID {
		return nil, fmt.Errorf("%w: not your conversation", pkg.ErrForbidden)
	}
	return s.chatRepo.ListMessages(ctx, roomID, beforeID, limit)
}

func (s *chatService) SendMessage(ctx context.Context, userID, roomID string, req *models.SendChatMessageRequest) (*models.ChatMessage, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	if !s.limiter.Allow(userID) {
		return nil, fmt.Errorf("%w: sending too fast, wait %d seconds",
			pkg.ErrForbidden, s.limiter.CooldownSeconds(userID))
	}

	room, err := s.chatRepo.GetRoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.AuthorID != userID && room.FriendID != userID {
		return nil, fmt.Errorf("%w: not your conversation", pkg.ErrForbidden)
	}

	msg := &models.ChatMessage{
		ID:       uuid.NewString(),
		RoomID:   roomID,
		SenderID: userID,
		Body:     req.Body,
	}
	if err := s.chatRepo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	recipientID := room.AuthorID
	if recipientID == userID {
		recipientID = room.FriendID
	}

	sender, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		log.Printf("[chat] skipping message notification for user %s, sender lookup failed: %v", recipientID, err)
		return msg, nil
	}
	notifyOrLog(ctx, s.notifications, &models.Notification{
		RecipientID: recipientID,
		SenderID:    &sender.ID,
		Kind:        models.KindChatMessage,
		SubjectRef:  room.ID,
		PreviewText: fmt.Sprintf("%s: %s", sender.Username, msg.Body),
	})

	return msg, nil
}
