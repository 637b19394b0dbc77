package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"order_chat/internal/domain"
	"order_chat/internal/hub"
	"order_chat/internal/repository"
	apperrors "order_chat/pkg/errors"
	"order_chat/pkg/logger"
)

const notificationPreviewLength = 80

type ChatService interface {
	// SendMessage persists a message on an order conversation and routes it.
	// If the message was persisted but the follow-up notification was not,
	// both the message and the error are returned.
	SendMessage(ctx context.Context, sender domain.Identity, orderID int64, content string, receiverID *int64) (*domain.Message, error)
	// MarkAsRead is a no-op unless the caller is the message's receiver and
	// the message is still unread.
	MarkAsRead(ctx context.Context, caller domain.Identity, messageID int64) error
	GetMessages(ctx context.Context, caller domain.Identity, orderID int64, limit, offset int) ([]*domain.Message, error)
	UnreadCount(ctx context.Context, caller domain.Identity) (int, error)
}

type chatService struct {
	conversations conversationLoader
	messageRepo   repository.MessageRepository
	notifications NotificationService
	audit         AuditService
	router        hub.Router
	log           logger.Logger
}

func NewChatService(
	orderRepo repository.OrderRepository,
	restaurantRepo repository.RestaurantRepository,
	messageRepo repository.MessageRepository,
	notifications NotificationService,
	audit AuditService,
	router hub.Router,
	log logger.Logger,
) ChatService {
	return &chatService{
		conversations: conversationLoader{orders: orderRepo, restaurants: restaurantRepo},
		messageRepo:   messageRepo,
		notifications: notifications,
		audit:         audit,
		router:        router,
		log:           log,
	}
}

func (s *chatService) SendMessage(ctx context.Context, sender domain.Identity, orderID int64, content string, receiverID *int64) (*domain.Message, error) {
	if !sender.Authenticated() {
		return nil, apperrors.ErrUnauthenticated
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: message content is empty", apperrors.ErrInvalidMessage)
	}
	if utf8.RuneCountInString(content) > domain.MaxMessageLength {
		return nil, fmt.Errorf("%w: message exceeds %d characters", apperrors.ErrInvalidMessage, domain.MaxMessageLength)
	}

	conv, err := s.conversations.load(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !HasAccess(sender, conv) {
		recordDenied(ctx, s.audit, s.log, sender, orderID, domain.EventTypeChatSendDenied)
		return nil, apperrors.ErrAccessDenied
	}

	if err := ValidateReceiver(sender, conv, receiverID); err != nil {
		return nil, err
	}

	message := &domain.Message{
		OrderID:    orderID,
		SenderID:   sender.UserID,
		ReceiverID: receiverID,
		Content:    content,
		SentAt:     time.Now().UTC(),
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		s.log.Error("Failed to persist message", "error", err, "order_id", orderID, "sender_id", sender.UserID)
		return nil, fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
	}

	s.dispatch(ctx, message)

	if message.IsBroadcast() {
		return message, nil
	}

	text := fmt.Sprintf("New message on order #%d: %s", orderID, preview(content))
	ref := NotificationRef{OrderID: &message.OrderID, MessageID: &message.ID}
	if _, err := s.notifications.Notify(ctx, sender.UserID, *receiverID, text, ref); err != nil {
		return message, err
	}

	return message, nil
}

func (s *chatService) dispatch(ctx context.Context, message *domain.Message) {
	if message.IsBroadcast() {
		group := domain.OrderGroup(message.OrderID)
		if err := s.router.RouteToGroup(ctx, group, domain.EventReceiveMessage, message); err != nil {
			s.log.Warn("Failed to route message to group", "error", err, "group", group, "message_id", message.ID)
		}
		return
	}

	if err := s.router.RouteToUser(ctx, *message.ReceiverID, domain.EventReceiveMessage, message); err != nil {
		s.log.Warn("Failed to route message to receiver", "error", err, "user_id", *message.ReceiverID, "message_id", message.ID)
	}
	// echo to the sender's other tabs and devices
	if err := s.router.RouteToUser(ctx, message.SenderID, domain.EventReceiveMessage, message); err != nil {
		s.log.Warn("Failed to echo message to sender", "error", err, "user_id", message.SenderID, "message_id", message.ID)
	}
}

func (s *chatService) MarkAsRead(ctx context.Context, caller domain.Identity, messageID int64) error {
	if !caller.Authenticated() {
		return apperrors.ErrUnauthenticated
	}

	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			s.log.Debug("Mark as read on unknown message", "message_id", messageID, "user_id", caller.UserID)
			return nil
		}
		return storeError(err)
	}

	if message.ReceiverID == nil || *message.ReceiverID != caller.UserID {
		s.log.Debug("Mark as read by non-receiver ignored", "message_id", messageID, "user_id", caller.UserID)
		return nil
	}
	if message.IsRead {
		return nil
	}

	flipped, err := s.messageRepo.MarkRead(ctx, messageID, caller.UserID)
	if err != nil {
		return storeError(err)
	}
	if !flipped {
		return nil
	}

	event := domain.MessageReadEvent{
		MessageID: message.ID,
		OrderID:   message.OrderID,
		ReaderID:  caller.UserID,
	}
	if err := s.router.RouteToUser(ctx, message.SenderID, domain.EventMessageRead, event); err != nil {
		s.log.Warn("Failed to route read receipt", "error", err, "user_id", message.SenderID, "message_id", message.ID)
	}

	return nil
}

func (s *chatService) GetMessages(ctx context.Context, caller domain.Identity, orderID int64, limit, offset int) ([]*domain.Message, error) {
	if !caller.Authenticated() {
		return nil, apperrors.ErrUnauthenticated
	}

	conv, err := s.conversations.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !HasAccess(caller, conv) {
		return nil, apperrors.ErrAccessDenied
	}

	limit, offset = clampPage(limit, offset)
	messages, err := s.messageRepo.ListByOrder(ctx, orderID, caller.UserID, limit, offset)
	if err != nil {
		return nil, storeError(err)
	}
	return messages, nil
}

func (s *chatService) UnreadCount(ctx context.Context, caller domain.Identity) (int, error) {
	if !caller.Authenticated() {
		return 0, apperrors.ErrUnauthenticated
	}

	count, err := s.messageRepo.CountUnreadByReceiver(ctx, caller.UserID)
	if err != nil {
		return 0, storeError(err)
	}
	return count, nil
}

func preview(content string) string {
	if utf8.RuneCountInString(content) <= notificationPreviewLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:notificationPreviewLength]) + "..."
}
