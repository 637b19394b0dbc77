package service

import (
	"context"
	"fmt"
	"time"

	"order_chat/internal/domain"
	"order_chat/internal/hub"
	"order_chat/internal/repository"
	apperrors "order_chat/pkg/errors"
	"order_chat/pkg/logger"
)

// NotificationRef links a notification to what caused it.
type NotificationRef struct {
	OrderID   *int64
	MessageID *int64
}

type NotificationService interface {
	// Notify persists a notification for recipientID and pushes it to their
	// connections. It does nothing when recipientID == senderID.
	Notify(ctx context.Context, senderID, recipientID int64, text string, ref NotificationRef) (*domain.Notification, error)
	List(ctx context.Context, caller domain.Identity, unreadOnly bool, limit, offset int) ([]*domain.Notification, error)
	UnreadCount(ctx context.Context, caller domain.Identity) (int, error)
	MarkRead(ctx context.Context, caller domain.Identity, notificationID int64) error
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
	router           hub.Router
	log              logger.Logger
}

func NewNotificationService(notificationRepo repository.NotificationRepository, router hub.Router, log logger.Logger) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		router:           router,
		log:              log,
	}
}

func (s *notificationService) Notify(ctx context.Context, senderID, recipientID int64, text string, ref NotificationRef) (*domain.Notification, error) {
	if recipientID == senderID {
		return nil, nil
	}

	notification := &domain.Notification{
		UserID:    recipientID,
		Text:      text,
		OrderID:   ref.OrderID,
		MessageID: ref.MessageID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		s.log.Error("Failed to persist notification", "error", err, "user_id", recipientID)
		return nil, fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
	}

	if err := s.router.RouteToUser(ctx, recipientID, domain.EventReceiveNotification, notification); err != nil {
		s.log.Warn("Failed to push notification", "error", err, "user_id", recipientID, "notification_id", notification.ID)
	}

	return notification, nil
}

func (s *notificationService) List(ctx context.Context, caller domain.Identity, unreadOnly bool, limit, offset int) ([]*domain.Notification, error) {
	if !caller.Authenticated() {
		return nil, apperrors.ErrUnauthenticated
	}
	limit, offset = clampPage(limit, offset)

	notifications, err := s.notificationRepo.ListByUser(ctx, caller.UserID, unreadOnly, limit, offset)
	if err != nil {
		return nil, storeError(err)
	}
	return notifications, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, caller domain.Identity) (int, error) {
	if !caller.Authenticated() {
		return 0, apperrors.ErrUnauthenticated
	}

	count, err := s.notificationRepo.CountUnread(ctx, caller.UserID)
	if err != nil {
		return 0, storeError(err)
	}
	return count, nil
}

func (s *notificationService) MarkRead(ctx context.Context, caller domain.Identity, notificationID int64) error {
	if !caller.Authenticated() {
		return apperrors.ErrUnauthenticated
	}

	if err := s.notificationRepo.MarkRead(ctx, notificationID, caller.UserID); err != nil {
		return storeError(err)
	}
	return nil
}
