package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in     string
		want   Role
		wantOK bool
	}{
		{"Customer", RoleCustomer, true},
		{" seller ", RoleSeller, true},
		{"DeliveryPerson", RoleDeliveryPerson, true},
		{"delivery_person", RoleDeliveryPerson, true},
		{"admin", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseRole(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestConversation_ParticipantFor(t *testing.T) {
	courier := int64(3)
	conv := &Conversation{
		Order:    &Order{ID: 100, CustomerID: 1, DeliveryPersonID: &courier, RestaurantID: 5, Status: OrderStatusInDelivery},
		SellerID: 9,
	}

	id, ok := conv.ParticipantFor(RoleCustomer)
	assert.True(t, ok)
	assert.Equal(t, int64(1), id)

	id, ok = conv.ParticipantFor(RoleSeller)
	assert.True(t, ok)
	assert.Equal(t, int64(9), id)

	id, ok = conv.ParticipantFor(RoleDeliveryPerson)
	assert.True(t, ok)
	assert.Equal(t, int64(3), id)

	conv.Order.DeliveryPersonID = nil
	_, ok = conv.ParticipantFor(RoleDeliveryPerson)
	assert.False(t, ok)

	_, ok = conv.ParticipantFor(Role("Admin"))
	assert.False(t, ok)
}

func TestOrderStatus_IsChatActive(t *testing.T) {
	active := map[OrderStatus]bool{
		OrderStatusCreated:          false,
		OrderStatusReadyForDelivery: true,
		OrderStatusInDelivery:       true,
		OrderStatusDelivered:        false,
		OrderStatusCancelled:        false,
	}
	for status, want := range active {
		assert.Equal(t, want, status.IsChatActive(), status)
	}
}

func TestGroups(t *testing.T) {
	assert.Equal(t, "Order_100", OrderGroup(100))
	assert.Equal(t, GroupCustomers, RoleGroup(RoleCustomer))
	assert.Equal(t, GroupSellers, RoleGroup(RoleSeller))
	assert.Equal(t, GroupDeliveryPersons, RoleGroup(RoleDeliveryPerson))
}

func TestIdentity_Authenticated(t *testing.T) {
	assert.True(t, Identity{UserID: 1, Role: RoleCustomer}.Authenticated())
	assert.False(t, Identity{}.Authenticated())
	assert.False(t, Identity{UserID: 1}.Authenticated())
	assert.False(t, Identity{UserID: 0, Role: RoleSeller}.Authenticated())
}
