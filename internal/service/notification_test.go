package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order_chat/internal/domain"
	"order_chat/internal/repository/memory"
	apperrors "order_chat/pkg/errors"
	"order_chat/pkg/logger"
)

func TestNotify_SkipsSelf(t *testing.T) {
	db := memory.NewDB()
	repos := memory.NewRepositories(db)
	router := &recordingRouter{}
	svc := NewNotificationService(repos.Notification, router, logger.NewNop())

	n, err := svc.Notify(context.Background(), customerID, customerID, "echo", NotificationRef{})
	require.NoError(t, err)
	assert.Nil(t, n)
	assert.Empty(t, db.Notifications())
	assert.Empty(t, router.events)
}

func TestNotificationService_Inbox(t *testing.T) {
	db := memory.NewDB()
	repos := memory.NewRepositories(db)
	router := &recordingRouter{}
	svc := NewNotificationService(repos.Notification, router, logger.NewNop())
	ctx := context.Background()

	first, err := svc.Notify(ctx, customerID, sellerID, "first", NotificationRef{OrderID: int64Ptr(orderID)})
	require.NoError(t, err)
	_, err = svc.Notify(ctx, deliveryID, sellerID, "second", NotificationRef{OrderID: int64Ptr(orderID)})
	require.NoError(t, err)

	pushed := router.byEvent(domain.EventReceiveNotification)
	require.Len(t, pushed, 2)
	assert.Equal(t, sellerID, pushed[0].UserID)

	count, err := svc.UnreadCount(ctx, seller)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// another user cannot mark the seller's notification
	err = svc.MarkRead(ctx, customer, first.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, svc.MarkRead(ctx, seller, first.ID))

	unread, err := svc.List(ctx, seller, true, 0, 0)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "second", unread[0].Text)

	all, err := svc.List(ctx, seller, false, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.List(ctx, domain.Identity{}, false, 0, 0)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}
