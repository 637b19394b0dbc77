package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"order_chat/internal/domain"
	"order_chat/pkg/logger"
)

// Router delivers events to users or groups wherever their connections live.
type Router interface {
	RouteToUser(ctx context.Context, userID int64, event string, payload interface{}) error
	RouteToGroup(ctx context.Context, group string, event string, payload interface{}) error
}

// Frame is the envelope written to clients.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func EncodeFrame(event string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	return json.Marshal(Frame{Event: event, Data: data})
}

// Registry tracks live connections of this process and their group
// membership. It is safe for concurrent use.
type Registry struct {
	conns      *connTable
	users      *setIndex
	groups     *setIndex
	sendBuffer int
	log        logger.Logger
}

func NewRegistry(shards, sendBuffer int, log logger.Logger) *Registry {
	if shards <= 0 {
		shards = 1
	}
	if sendBuffer <= 0 {
		sendBuffer = 1
	}
	return &Registry{
		conns:      newConnTable(shards),
		users:      newSetIndex(shards),
		groups:     newSetIndex(shards),
		sendBuffer: sendBuffer,
		log:        log,
	}
}

func userKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// Register creates a connection for identity. Anonymous identities get a
// connection that is not indexed by user.
func (r *Registry) Register(identity domain.Identity) *Connection {
	c := newConnection(uuid.NewString(), identity, r.sendBuffer)
	r.conns.put(c)
	if identity.Authenticated() {
		r.users.add(userKey(identity.UserID), c.ID)
	}

	r.log.Debug("Connection registered", "conn_id", c.ID, "user_id", identity.UserID, "role", identity.Role)
	return c
}

// Unregister drops the connection and all its memberships. Unknown ids are
// ignored.
func (r *Registry) Unregister(connID string) {
	c, ok := r.conns.take(connID)
	if !ok {
		return
	}

	for _, g := range c.shutdown() {
		r.groups.remove(g, c.ID)
	}
	if c.Identity.Authenticated() {
		r.users.remove(userKey(c.Identity.UserID), c.ID)
	}

	r.log.Debug("Connection unregistered", "conn_id", c.ID, "user_id", c.Identity.UserID)
}

func (r *Registry) Connection(connID string) (*Connection, bool) {
	return r.conns.get(connID)
}

// JoinGroup is idempotent. It reports false only when the connection is
// unknown or already closed.
func (r *Registry) JoinGroup(connID, group string) bool {
	c, ok := r.conns.get(connID)
	if !ok {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	if _, in := c.groups[group]; in {
		return true
	}
	c.groups[group] = struct{}{}
	r.groups.add(group, c.ID)
	return true
}

// LeaveGroup is idempotent and always succeeds.
func (r *Registry) LeaveGroup(connID, group string) {
	c, ok := r.conns.get(connID)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, in := c.groups[group]; !in {
		return
	}
	delete(c.groups, group)
	r.groups.remove(group, c.ID)
}

func (r *Registry) UserConnections(userID int64) []string {
	return r.users.members(userKey(userID))
}

func (r *Registry) GroupMembers(group string) []string {
	return r.groups.members(group)
}

func (r *Registry) Count() int {
	return r.conns.len()
}

func (r *Registry) RouteToUser(_ context.Context, userID int64, event string, payload interface{}) error {
	frame, err := EncodeFrame(event, payload)
	if err != nil {
		return err
	}
	r.DeliverToUser(userID, frame)
	return nil
}

func (r *Registry) RouteToGroup(_ context.Context, group string, event string, payload interface{}) error {
	frame, err := EncodeFrame(event, payload)
	if err != nil {
		return err
	}
	r.DeliverToGroup(group, frame)
	return nil
}

// RouteToConnection replies to a single connection.
func (r *Registry) RouteToConnection(connID string, event string, payload interface{}) error {
	frame, err := EncodeFrame(event, payload)
	if err != nil {
		return err
	}
	r.deliver([]string{connID}, frame)
	return nil
}

// DeliverToUser writes an encoded frame to every local connection of userID.
func (r *Registry) DeliverToUser(userID int64, frame []byte) int {
	return r.deliver(r.UserConnections(userID), frame)
}

// DeliverToGroup writes an encoded frame to every local member of group.
func (r *Registry) DeliverToGroup(group string, frame []byte) int {
	return r.deliver(r.GroupMembers(group), frame)
}

func (r *Registry) deliver(connIDs []string, frame []byte) int {
	delivered := 0
	for _, id := range connIDs {
		c, ok := r.conns.get(id)
		if !ok {
			continue
		}
		if c.enqueue(frame) {
			delivered++
		} else {
			r.log.Warn("Dropped frame for slow or closed connection", "conn_id", id, "user_id", c.Identity.UserID)
		}
	}
	return delivered
}
