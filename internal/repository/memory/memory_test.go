package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order_chat/internal/domain"
	apperrors "order_chat/pkg/errors"
)

func int64Ptr(v int64) *int64 { return &v }

func seed(db *DB) {
	db.PutRestaurant(domain.Restaurant{ID: 5, SellerID: 9, Name: "Pizza"})
	db.PutRestaurant(domain.Restaurant{ID: 6, SellerID: 10, Name: "Sushi"})
	db.PutOrder(domain.Order{ID: 100, CustomerID: 1, DeliveryPersonID: int64Ptr(3), RestaurantID: 5, Status: domain.OrderStatusInDelivery})
	db.PutOrder(domain.Order{ID: 101, CustomerID: 1, RestaurantID: 5, Status: domain.OrderStatusReadyForDelivery})
	db.PutOrder(domain.Order{ID: 102, CustomerID: 1, RestaurantID: 6, Status: domain.OrderStatusDelivered})
	db.PutOrder(domain.Order{ID: 103, CustomerID: 2, DeliveryPersonID: int64Ptr(3), RestaurantID: 6, Status: domain.OrderStatusCreated})
}

func TestOrderRepository_ListChatOrderIDs(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	seed(db)
	repo := NewOrderRepository(db)

	tests := []struct {
		name   string
		role   domain.Role
		userID int64
		want   []int64
	}{
		{name: "customer", role: domain.RoleCustomer, userID: 1, want: []int64{100, 101}},
		{name: "seller", role: domain.RoleSeller, userID: 9, want: []int64{100, 101}},
		{name: "seller with no active orders", role: domain.RoleSeller, userID: 10, want: []int64{}},
		{name: "delivery person", role: domain.RoleDeliveryPerson, userID: 3, want: []int64{100}},
		{name: "stranger", role: domain.RoleCustomer, userID: 77, want: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, err := repo.ListChatOrderIDs(ctx, tt.role, tt.userID, domain.ChatActiveStatuses)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestMessageRepository(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	repo := NewMessageRepository(db)

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		m := &domain.Message{OrderID: 100, SenderID: 1, ReceiverID: int64Ptr(9), Content: "hi", SentAt: base.Add(time.Duration(i) * time.Second)}
		require.NoError(t, repo.Create(ctx, m))
		assert.Equal(t, int64(i+1), m.ID)
	}

	unread, err := repo.CountUnreadByReceiver(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, 3, unread)

	flipped, err := repo.MarkRead(ctx, 2, 9)
	require.NoError(t, err)
	assert.True(t, flipped)
	got, err := repo.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.True(t, got.IsRead)

	flipped, err = repo.MarkRead(ctx, 2, 9)
	require.NoError(t, err)
	assert.False(t, flipped, "already read")

	flipped, err = repo.MarkRead(ctx, 3, 1)
	require.NoError(t, err)
	assert.False(t, flipped, "not the receiver")

	flipped, err = repo.MarkRead(ctx, 99, 9)
	require.NoError(t, err)
	assert.False(t, flipped, "unknown message")

	list, err := repo.ListByOrder(ctx, 100, 9, 2, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(2), list[0].ID)
	assert.Equal(t, int64(3), list[1].ID)

	list, err = repo.ListByOrder(ctx, 100, 9, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = repo.ListByOrder(ctx, 100, 3, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list, "private messages between others are hidden")

	require.NoError(t, repo.Create(ctx, &domain.Message{OrderID: 100, SenderID: 9, Content: "all", SentAt: base.Add(time.Minute)}))
	list, err = repo.ListByOrder(ctx, 100, 3, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsBroadcast())
}

func TestNotificationRepository(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	repo := NewNotificationRepository(db)

	require.NoError(t, repo.Create(ctx, &domain.Notification{UserID: 9, Text: "a"}))
	require.NoError(t, repo.Create(ctx, &domain.Notification{UserID: 9, Text: "b"}))
	require.NoError(t, repo.Create(ctx, &domain.Notification{UserID: 1, Text: "c"}))

	require.NoError(t, repo.MarkRead(ctx, 1, 9))
	require.NoError(t, repo.MarkRead(ctx, 1, 9))
	assert.ErrorIs(t, repo.MarkRead(ctx, 3, 9), apperrors.ErrNotFound)

	count, err := repo.CountUnread(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	unread, err := repo.ListByUser(ctx, 9, true, 10, 0)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "b", unread[0].Text)

	all, err := repo.ListByUser(ctx, 9, false, 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
