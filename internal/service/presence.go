package service

import (
	"context"
	"time"

	"order_chat/internal/domain"
	"order_chat/internal/hub"
	"order_chat/internal/repository"
	apperrors "order_chat/pkg/errors"
	"order_chat/pkg/logger"
)

// ConnectionRegistry is the part of hub.Registry the presence service needs.
type ConnectionRegistry interface {
	Register(identity domain.Identity) *hub.Connection
	Unregister(connID string)
	JoinGroup(connID, group string) bool
	LeaveGroup(connID, group string)
	RouteToConnection(connID string, event string, payload interface{}) error
}

type PresenceService interface {
	// OnConnect registers a connection and seeds its groups: the role group
	// plus one group per chat-active order the user takes part in.
	OnConnect(ctx context.Context, identity domain.Identity) *hub.Connection
	OnDisconnect(conn *hub.Connection)
	JoinOrderChat(ctx context.Context, conn *hub.Connection, orderID int64) error
	LeaveOrderChat(ctx context.Context, conn *hub.Connection, orderID int64) error
}

type presenceService struct {
	registry      ConnectionRegistry
	conversations conversationLoader
	orderRepo     repository.OrderRepository
	audit         AuditService
	log           logger.Logger
}

func NewPresenceService(
	registry ConnectionRegistry,
	orderRepo repository.OrderRepository,
	restaurantRepo repository.RestaurantRepository,
	audit AuditService,
	log logger.Logger,
) PresenceService {
	return &presenceService{
		registry:      registry,
		conversations: conversationLoader{orders: orderRepo, restaurants: restaurantRepo},
		orderRepo:     orderRepo,
		audit:         audit,
		log:           log,
	}
}

func (s *presenceService) OnConnect(ctx context.Context, identity domain.Identity) *hub.Connection {
	conn := s.registry.Register(identity)
	if !identity.Authenticated() {
		s.log.Info("Anonymous connection", "conn_id", conn.ID)
		return conn
	}

	s.registry.JoinGroup(conn.ID, domain.RoleGroup(identity.Role))

	orderIDs, err := s.orderRepo.ListChatOrderIDs(ctx, identity.Role, identity.UserID, domain.ChatActiveStatuses)
	if err != nil {
		s.log.Error("Failed to seed order groups", "error", err, "user_id", identity.UserID, "role", identity.Role)
		return conn
	}
	for _, id := range orderIDs {
		s.registry.JoinGroup(conn.ID, domain.OrderGroup(id))
	}

	s.log.Info("Connection established",
		"conn_id", conn.ID,
		"user_id", identity.UserID,
		"role", identity.Role,
		"order_groups", len(orderIDs),
	)
	return conn
}

func (s *presenceService) OnDisconnect(conn *hub.Connection) {
	if conn == nil {
		return
	}
	s.registry.Unregister(conn.ID)
	s.log.Info("Connection closed", "conn_id", conn.ID, "user_id", conn.Identity.UserID, "duration", time.Since(conn.ConnectedAt))
}

func (s *presenceService) JoinOrderChat(ctx context.Context, conn *hub.Connection, orderID int64) error {
	if !conn.Identity.Authenticated() {
		return apperrors.ErrUnauthenticated
	}

	conv, err := s.conversations.load(ctx, orderID)
	if err != nil {
		return err
	}

	if !CanJoin(conn.Identity, conv) {
		recordDenied(ctx, s.audit, s.log, conn.Identity, orderID, domain.EventTypeChatJoinDenied)
		return apperrors.ErrAccessDenied
	}

	s.registry.JoinGroup(conn.ID, domain.OrderGroup(orderID))
	if err := s.registry.RouteToConnection(conn.ID, domain.EventJoinedChat, domain.ChatMembershipEvent{OrderID: orderID}); err != nil {
		s.log.Warn("Failed to confirm join", "error", err, "conn_id", conn.ID, "order_id", orderID)
	}
	return nil
}

func (s *presenceService) LeaveOrderChat(_ context.Context, conn *hub.Connection, orderID int64) error {
	if !conn.Identity.Authenticated() {
		return apperrors.ErrUnauthenticated
	}

	s.registry.LeaveGroup(conn.ID, domain.OrderGroup(orderID))
	if err := s.registry.RouteToConnection(conn.ID, domain.EventLeftChat, domain.ChatMembershipEvent{OrderID: orderID}); err != nil {
		s.log.Warn("Failed to confirm leave", "error", err, "conn_id", conn.ID, "order_id", orderID)
	}
	return nil
}
