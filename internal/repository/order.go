package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"order_chat/internal/domain"
	apperrors "order_chat/pkg/errors"
	"order_chat/pkg/logger"
)

// OrderRepository reads orders owned by the order-management subsystem.
type OrderRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	// ListChatOrderIDs returns ids of orders in one of statuses where userID
	// is the participant for role.
	ListChatOrderIDs(ctx context.Context, role domain.Role, userID int64, statuses []domain.OrderStatus) ([]int64, error)
}

type RestaurantRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Restaurant, error)
}

type orderRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewOrderRepository(db *pgxpool.Pool, log logger.Logger) OrderRepository {
	return &orderRepository{db: db, log: log}
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := `
		SELECT id, customer_id, delivery_person_id, restaurant_id, status, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	order := &domain.Order{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&order.ID, &order.CustomerID, &order.DeliveryPersonID, &order.RestaurantID,
		&order.Status, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrOrderNotFound
		}
		r.log.Error("Failed to get order by ID", "error", err, "order_id", id)
		return nil, err
	}

	return order, nil
}

func (r *orderRepository) ListChatOrderIDs(ctx context.Context, role domain.Role, userID int64, statuses []domain.OrderStatus) ([]int64, error) {
	var query string
	switch role {
	case domain.RoleCustomer:
		query = `SELECT o.id FROM orders o WHERE o.customer_id = $1 AND o.status = ANY($2) ORDER BY o.id`
	case domain.RoleDeliveryPerson:
		query = `SELECT o.id FROM orders o WHERE o.delivery_person_id = $1 AND o.status = ANY($2) ORDER BY o.id`
	case domain.RoleSeller:
		query = `
			SELECT o.id
			FROM orders o
			JOIN restaurants r ON r.id = o.restaurant_id
			WHERE r.seller_id = $1 AND o.status = ANY($2)
			ORDER BY o.id
		`
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}

	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, string(s))
	}

	rows, err := r.db.Query(ctx, query, userID, names)
	if err != nil {
		r.log.Error("Failed to list chat orders", "error", err, "role", role, "user_id", userID)
		return nil, err
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		r.log.Error("Failed to scan chat orders", "error", err)
		return nil, err
	}
	return ids, nil
}

type restaurantRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewRestaurantRepository(db *pgxpool.Pool, log logger.Logger) RestaurantRepository {
	return &restaurantRepository{db: db, log: log}
}

func (r *restaurantRepository) GetByID(ctx context.Context, id int64) (*domain.Restaurant, error) {
	query := `SELECT id, seller_id, name FROM restaurants WHERE id = $1`

	restaurant := &domain.Restaurant{}
	err := r.db.QueryRow(ctx, query, id).Scan(&restaurant.ID, &restaurant.SellerID, &restaurant.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRestaurantNotFound
		}
		r.log.Error("Failed to get restaurant by ID", "error", err, "restaurant_id", id)
		return nil, err
	}

	return restaurant, nil
}
