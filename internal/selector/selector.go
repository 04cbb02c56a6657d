package selector

import (
	"errors"
	"fmt"
	"sync"
)

type Role string

const (
	Catalog Role = "catalog"
	Order   Role = "order"
)

var (
	ErrEmptyReplicaSet = errors.New("replica set is empty")
	ErrUnknownRole     = errors.New("unknown replica role")
)

// ReplicaSet is a fixed list of base addresses with a round-robin cursor.
// Addresses never change after construction.
type ReplicaSet struct {
	mu     sync.Mutex
	addrs  []string
	cursor int
}

func NewReplicaSet(addrs []string) (*ReplicaSet, error) {
	if len(addrs) == 0 {
		return nil, ErrEmptyReplicaSet
	}
	return &ReplicaSet{addrs: append([]string(nil), addrs...)}, nil
}

// Next returns the address under the cursor and advances it. Unhealthy replicas
// are not skipped.
func (rs *ReplicaSet) Next() string {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	addr := rs.addrs[rs.cursor]
	rs.cursor = (rs.cursor + 1) % len(rs.addrs)
	return addr
}

func (rs *ReplicaSet) Len() int { return len(rs.addrs) }

func (rs *ReplicaSet) Addrs() []string {
	return append([]string(nil), rs.addrs...)
}

// Selector holds one ReplicaSet per role.
type Selector struct {
	sets map[Role]*ReplicaSet
}

func New(replicas map[Role][]string) (*Selector, error) {
	s := &Selector{sets: make(map[Role]*ReplicaSet, len(replicas))}
	for role, addrs := range replicas {
		rs, err := NewReplicaSet(addrs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", role, err)
		}
		s.sets[role] = rs
	}
	return s, nil
}

func (s *Selector) Next(role Role) (string, error) {
	rs, ok := s.sets[role]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownRole, role)
	}
	return rs.Next(), nil
}

func (s *Selector) Replicas(role Role) []string {
	if rs, ok := s.sets[role]; ok {
		return rs.Addrs()
	}
	return nil
}
