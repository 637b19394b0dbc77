package domain

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleCustomer       Role = "Customer"
	RoleDeliveryPerson Role = "DeliveryPerson"
	RoleSeller         Role = "Seller"
)

// ParseRole accepts the claim value case-insensitively.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "customer":
		return RoleCustomer, true
	case "deliveryperson", "delivery_person":
		return RoleDeliveryPerson, true
	case "seller":
		return RoleSeller, true
	}
	return "", false
}

func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleDeliveryPerson || r == RoleSeller
}

type OrderStatus string

const (
	OrderStatusCreated          OrderStatus = "Created"
	OrderStatusReadyForDelivery OrderStatus = "ReadyForDelivery"
	OrderStatusInDelivery       OrderStatus = "InDelivery"
	OrderStatusDelivered        OrderStatus = "Delivered"
	OrderStatusCancelled        OrderStatus = "Cancelled"
)

// ChatActiveStatuses are the statuses in which an order chat can be joined.
var ChatActiveStatuses = []OrderStatus{OrderStatusReadyForDelivery, OrderStatusInDelivery}

func (s OrderStatus) IsChatActive() bool {
	return s == OrderStatusReadyForDelivery || s == OrderStatusInDelivery
}

type Order struct {
	ID               int64       `json:"id"`
	CustomerID       int64       `json:"customer_id"`
	DeliveryPersonID *int64      `json:"delivery_person_id,omitempty"`
	RestaurantID     int64       `json:"restaurant_id"`
	Status           OrderStatus `json:"status"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

type Restaurant struct {
	ID       int64  `json:"id"`
	SellerID int64  `json:"seller_id"`
	Name     string `json:"name"`
}

// Conversation is an order together with the seller owning its restaurant.
type Conversation struct {
	Order    *Order
	SellerID int64
}

func (c *Conversation) OrderID() int64 {
	return c.Order.ID
}

func (c *Conversation) Status() OrderStatus {
	return c.Order.Status
}

// ParticipantFor returns the user id holding role in this conversation.
// ok is false when the role is unassigned (a delivery person not yet set).
func (c *Conversation) ParticipantFor(role Role) (int64, bool) {
	switch role {
	case RoleCustomer:
		return c.Order.CustomerID, true
	case RoleSeller:
		return c.SellerID, true
	case RoleDeliveryPerson:
		if c.Order.DeliveryPersonID == nil {
			return 0, false
		}
		return *c.Order.DeliveryPersonID, true
	}
	return 0, false
}

// Group names used by the connection registry.
const (
	GroupCustomers       = "Customers"
	GroupSellers         = "Sellers"
	GroupDeliveryPersons = "DeliveryPersons"
)

func OrderGroup(orderID int64) string {
	return fmt.Sprintf("Order_%d", orderID)
}

func RoleGroup(role Role) string {
	switch role {
	case RoleCustomer:
		return GroupCustomers
	case RoleSeller:
		return GroupSellers
	case RoleDeliveryPerson:
		return GroupDeliveryPersons
	}
	return ""
}
