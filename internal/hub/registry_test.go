package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order_chat/internal/domain"
	"order_chat/pkg/logger"
)

func newTestRegistry() *Registry {
	return NewRegistry(4, 16, logger.NewNop())
}

func drain(c *Connection) []Frame {
	var frames []Frame
	for {
		select {
		case raw, ok := <-c.Outbound():
			if !ok {
				return frames
			}
			var f Frame
			if err := json.Unmarshal(raw, &f); err == nil {
				frames = append(frames, f)
			}
		default:
			return frames
		}
	}
}

func TestRegistry_RegisterAndUnregister(t *testing.T) {
	r := newTestRegistry()

	c1 := r.Register(domain.Identity{UserID: 1, Role: domain.RoleCustomer})
	c2 := r.Register(domain.Identity{UserID: 1, Role: domain.RoleCustomer})
	anon := r.Register(domain.Identity{})

	assert.Equal(t, 3, r.Count())
	assert.ElementsMatch(t, []string{c1.ID, c2.ID}, r.UserConnections(1))
	assert.NotEqual(t, c1.ID, c2.ID)

	require.True(t, r.JoinGroup(c1.ID, "Order_100"))
	r.Unregister(c1.ID)
	r.Unregister(c1.ID)

	assert.Equal(t, 2, r.Count())
	assert.Equal(t, []string{c2.ID}, r.UserConnections(1))
	assert.Empty(t, r.GroupMembers("Order_100"))
	assert.False(t, r.JoinGroup(c1.ID, "Order_100"))

	_, ok := <-c1.Outbound()
	assert.False(t, ok, "outbound channel should be closed")

	r.Unregister(anon.ID)
	assert.Equal(t, 1, r.Count())
}

func TestRegistry_JoinGroupIsIdempotent(t *testing.T) {
	r := newTestRegistry()
	c := r.Register(domain.Identity{UserID: 1, Role: domain.RoleCustomer})

	assert.True(t, r.JoinGroup(c.ID, "Order_100"))
	assert.True(t, r.JoinGroup(c.ID, "Order_100"))

	assert.Equal(t, []string{c.ID}, r.GroupMembers("Order_100"))
	assert.Equal(t, []string{"Order_100"}, c.Groups())

	require.NoError(t, r.RouteToGroup(context.Background(), "Order_100", "Ping", map[string]int{"n": 1}))
	assert.Len(t, drain(c), 1, "duplicate join must not duplicate delivery")
}

func TestRegistry_LeaveGroupIsIdempotent(t *testing.T) {
	r := newTestRegistry()
	c := r.Register(domain.Identity{UserID: 1, Role: domain.RoleCustomer})

	r.LeaveGroup(c.ID, "Order_100")
	r.JoinGroup(c.ID, "Order_100")
	r.LeaveGroup(c.ID, "Order_100")
	r.LeaveGroup(c.ID, "Order_100")
	r.LeaveGroup("unknown", "Order_100")

	assert.Empty(t, r.GroupMembers("Order_100"))
	assert.False(t, c.InGroup("Order_100"))
}

func TestRegistry_RouteToUser(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	customerA := r.Register(domain.Identity{UserID: 1, Role: domain.RoleCustomer})
	customerB := r.Register(domain.Identity{UserID: 1, Role: domain.RoleCustomer})
	seller := r.Register(domain.Identity{UserID: 9, Role: domain.RoleSeller})

	require.NoError(t, r.RouteToUser(ctx, 1, domain.EventReceiveMessage, map[string]string{"content": "hi"}))
	require.NoError(t, r.RouteToUser(ctx, 404, domain.EventReceiveMessage, "nobody home"))

	for _, c := range []*Connection{customerA, customerB} {
		frames := drain(c)
		require.Len(t, frames, 1)
		assert.Equal(t, domain.EventReceiveMessage, frames[0].Event)
		assert.JSONEq(t, `{"content":"hi"}`, string(frames[0].Data))
	}
	assert.Empty(t, drain(seller))
}

func TestRegistry_RouteToGroup(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	member := r.Register(domain.Identity{UserID: 1, Role: domain.RoleCustomer})
	other := r.Register(domain.Identity{UserID: 9, Role: domain.RoleSeller})
	r.JoinGroup(member.ID, "Order_100")
	r.JoinGroup(other.ID, "Order_200")

	require.NoError(t, r.RouteToGroup(ctx, "Order_100", "Ping", 1))
	require.NoError(t, r.RouteToGroup(ctx, "Order_999", "Ping", 1))

	assert.Len(t, drain(member), 1)
	assert.Empty(t, drain(other))
}

func TestRegistry_DropsWhenBufferFull(t *testing.T) {
	r := NewRegistry(1, 1, logger.NewNop())
	c := r.Register(domain.Identity{UserID: 1, Role: domain.RoleCustomer})

	assert.Equal(t, 1, r.DeliverToUser(1, []byte(`{}`)))
	assert.Equal(t, 0, r.DeliverToUser(1, []byte(`{}`)))
	assert.Len(t, c.Outbound(), 1)
}

func TestRegistry_RouteRejectsUnencodablePayload(t *testing.T) {
	r := newTestRegistry()
	err := r.RouteToUser(context.Background(), 1, "Bad", make(chan int))
	assert.Error(t, err)
}

func TestRegistry_ConcurrentMembership(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(8, 1024, logger.NewNop())

	conns := make([]*Connection, 20)
	for i := range conns {
		conns[i] = r.Register(domain.Identity{UserID: int64(i%5 + 1), Role: domain.RoleCustomer})
	}

	var wg sync.WaitGroup
	for i, c := range conns {
		wg.Add(1)
		go func(i int, c *Connection) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				group := fmt.Sprintf("Order_%d", j%7)
				r.JoinGroup(c.ID, group)
				_ = r.RouteToGroup(ctx, group, "Ping", j)
				_ = r.RouteToUser(ctx, c.Identity.UserID, "Ping", j)
				if j%3 == 0 {
					r.LeaveGroup(c.ID, group)
				}
			}
			if i%2 == 0 {
				r.Unregister(c.ID)
			}
		}(i, c)
	}
	wg.Wait()

	assert.Equal(t, 10, r.Count())
	for i, c := range conns {
		if i%2 == 0 {
			assert.Empty(t, c.Groups())
			for g := 0; g < 7; g++ {
				assert.NotContains(t, r.GroupMembers(fmt.Sprintf("Order_%d", g)), c.ID)
			}
		}
	}
}
