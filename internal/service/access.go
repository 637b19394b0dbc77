package service

import (
	"context"
	"fmt"

	"order_chat/internal/domain"
	"order_chat/internal/repository"
	apperrors "order_chat/pkg/errors"
)

// HasAccess reports whether the caller is the conversation's participant for
// their role: the customer, the assigned delivery person, or the seller
// owning the order's restaurant.
func HasAccess(caller domain.Identity, conv *domain.Conversation) bool {
	if !caller.Authenticated() || conv == nil || conv.Order == nil {
		return false
	}
	participant, ok := conv.ParticipantFor(caller.Role)
	return ok && participant == caller.UserID
}

// CanJoin additionally requires the order to be active for chat.
func CanJoin(caller domain.Identity, conv *domain.Conversation) bool {
	return HasAccess(caller, conv) && conv.Status().IsChatActive()
}

// receiverRoles lists whom each role may address privately.
var receiverRoles = map[domain.Role][]domain.Role{
	domain.RoleCustomer:       {domain.RoleSeller, domain.RoleDeliveryPerson},
	domain.RoleSeller:         {domain.RoleCustomer, domain.RoleDeliveryPerson},
	domain.RoleDeliveryPerson: {domain.RoleCustomer, domain.RoleSeller},
}

// ValidateReceiver checks a prospective message target. A nil receiver is a
// broadcast, which customers may not send.
func ValidateReceiver(sender domain.Identity, conv *domain.Conversation, receiverID *int64) error {
	if receiverID == nil {
		if sender.Role == domain.RoleCustomer {
			return fmt.Errorf("%w: customers must address a specific participant", apperrors.ErrInvalidReceiver)
		}
		return nil
	}
	if *receiverID == sender.UserID {
		return fmt.Errorf("%w: cannot send a message to yourself", apperrors.ErrInvalidReceiver)
	}

	for _, role := range receiverRoles[sender.Role] {
		if id, ok := conv.ParticipantFor(role); ok && id == *receiverID {
			return nil
		}
	}
	return fmt.Errorf("%w: user %d is not a participant of order %d", apperrors.ErrInvalidReceiver, *receiverID, conv.OrderID())
}

type conversationLoader struct {
	orders      repository.OrderRepository
	restaurants repository.RestaurantRepository
}

func (l *conversationLoader) load(ctx context.Context, orderID int64) (*domain.Conversation, error) {
	order, err := l.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, storeError(err)
	}

	restaurant, err := l.restaurants.GetByID(ctx, order.RestaurantID)
	if err != nil {
		return nil, storeError(err)
	}

	return &domain.Conversation{Order: order, SellerID: restaurant.SellerID}, nil
}

// storeError passes not-found sentinels through and turns anything else
// into a persistence failure.
func storeError(err error) error {
	if apperrors.IsNotFound(err) {
		return err
	}
	return fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
