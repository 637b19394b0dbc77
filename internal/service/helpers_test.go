package service

import (
	"context"
	"sync"

	"order_chat/internal/domain"
	"order_chat/internal/repository"
	"order_chat/internal/repository/memory"
)

type routed struct {
	UserID  int64
	Group   string
	Event   string
	Payload interface{}
}

// recordingRouter captures every routed event.
type recordingRouter struct {
	mu     sync.Mutex
	events []routed
}

func (r *recordingRouter) RouteToUser(_ context.Context, userID int64, event string, payload interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, routed{UserID: userID, Event: event, Payload: payload})
	return nil
}

func (r *recordingRouter) RouteToGroup(_ context.Context, group string, event string, payload interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, routed{Group: group, Event: event, Payload: payload})
	return nil
}

func (r *recordingRouter) byEvent(event string) []routed {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []routed
	for _, e := range r.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

const (
	customerID     int64 = 1
	deliveryID     int64 = 3
	otherCourierID int64 = 7
	sellerID       int64 = 9
	restaurantID   int64 = 5
	orderID        int64 = 100
)

var (
	customer = domain.Identity{UserID: customerID, Role: domain.RoleCustomer}
	courier  = domain.Identity{UserID: deliveryID, Role: domain.RoleDeliveryPerson}
	stranger = domain.Identity{UserID: otherCourierID, Role: domain.RoleDeliveryPerson}
	seller   = domain.Identity{UserID: sellerID, Role: domain.RoleSeller}
)

func int64Ptr(v int64) *int64 {
	return &v
}

// seedOrder stores order 100 at restaurant 5 (seller 9), customer 1 and
// delivery person 3.
func seedOrder(status domain.OrderStatus) (*memory.DB, *repository.Repositories) {
	db := memory.NewDB()
	db.PutRestaurant(domain.Restaurant{ID: restaurantID, SellerID: sellerID, Name: "Noodle Bar"})
	db.PutOrder(domain.Order{
		ID:               orderID,
		CustomerID:       customerID,
		DeliveryPersonID: int64Ptr(deliveryID),
		RestaurantID:     restaurantID,
		Status:           status,
	})
	return db, memory.NewRepositories(db)
}
