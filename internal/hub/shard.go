package hub

import (
	"hash/fnv"
	"sync"
)

func shardFor(key string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(n))
}

// setIndex maps a key (user id, group name) to a set of connection ids,
// striped across shards so unrelated keys do not contend.
type setIndex struct {
	shards []*setShard
}

type setShard struct {
	mu   sync.RWMutex
	sets map[string]map[string]struct{}
}

func newSetIndex(n int) *setIndex {
	idx := &setIndex{shards: make([]*setShard, n)}
	for i := range idx.shards {
		idx.shards[i] = &setShard{sets: make(map[string]map[string]struct{})}
	}
	return idx
}

func (idx *setIndex) shard(key string) *setShard {
	return idx.shards[shardFor(key, len(idx.shards))]
}

// add reports whether connID was newly added.
func (idx *setIndex) add(key, connID string) bool {
	s := idx.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[key]
	if !ok {
		set = make(map[string]struct{})
		s.sets[key] = set
	}
	if _, exists := set[connID]; exists {
		return false
	}
	set[connID] = struct{}{}
	return true
}

func (idx *setIndex) remove(key, connID string) {
	s := idx.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[key]
	if !ok {
		return
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(s.sets, key)
	}
}

func (idx *setIndex) members(key string) []string {
	s := idx.shard(key)
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.sets[key]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// connTable maps connection id to connection.
type connTable struct {
	shards []*connShard
}

type connShard struct {
	mu    sync.RWMutex
	conns map[string]*Connection
}

func newConnTable(n int) *connTable {
	t := &connTable{shards: make([]*connShard, n)}
	for i := range t.shards {
		t.shards[i] = &connShard{conns: make(map[string]*Connection)}
	}
	return t
}

func (t *connTable) shard(id string) *connShard {
	return t.shards[shardFor(id, len(t.shards))]
}

func (t *connTable) put(c *Connection) {
	s := t.shard(c.ID)
	s.mu.Lock()
	s.conns[c.ID] = c
	s.mu.Unlock()
}

func (t *connTable) get(id string) (*Connection, bool) {
	s := t.shard(id)
	s.mu.RLock()
	c, ok := s.conns[id]
	s.mu.RUnlock()
	return c, ok
}

func (t *connTable) take(id string) (*Connection, bool) {
	s := t.shard(id)
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conns[id]
	if ok {
		delete(s.conns, id)
	}
	return c, ok
}

func (t *connTable) len() int {
	n := 0
	for _, s := range t.shards {
		s.mu.RLock()
		n += len(s.conns)
		s.mu.RUnlock()
	}
	return n
}
