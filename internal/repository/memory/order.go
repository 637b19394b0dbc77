package memory

import (
	"context"
	"fmt"
	"sort"

	"order_chat/internal/domain"
	"order_chat/internal/repository"
	apperrors "order_chat/pkg/errors"
)

type orderRepository struct {
	db *DB
}

func NewOrderRepository(db *DB) repository.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	o, ok := r.db.orders[id]
	if !ok {
		return nil, apperrors.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *orderRepository) ListChatOrderIDs(_ context.Context, role domain.Role, userID int64, statuses []domain.OrderStatus) ([]int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	ids := make([]int64, 0)
	for _, o := range r.db.orders {
		if !hasStatus(statuses, o.Status) {
			continue
		}

		var match bool
		switch role {
		case domain.RoleCustomer:
			match = o.CustomerID == userID
		case domain.RoleDeliveryPerson:
			match = o.DeliveryPersonID != nil && *o.DeliveryPersonID == userID
		case domain.RoleSeller:
			rest, ok := r.db.restaurants[o.RestaurantID]
			match = ok && rest.SellerID == userID
		default:
			return nil, fmt.Errorf("unknown role %q", role)
		}
		if match {
			ids = append(ids, o.ID)
		}
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func hasStatus(statuses []domain.OrderStatus, s domain.OrderStatus) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

type restaurantRepository struct {
	db *DB
}

func NewRestaurantRepository(db *DB) repository.RestaurantRepository {
	return &restaurantRepository{db: db}
}

func (r *restaurantRepository) GetByID(_ context.Context, id int64) (*domain.Restaurant, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	rest, ok := r.db.restaurants[id]
	if !ok {
		return nil, apperrors.ErrRestaurantNotFound
	}
	cp := *rest
	return &cp, nil
}
