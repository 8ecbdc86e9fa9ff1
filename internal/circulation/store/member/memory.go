package member

import (
	"context"
	"sync"

	"circulation/internal/circulation/models"
	id "circulation/pkg/domain"
	"circulation/pkg/platform/sentinel"
)

// InMemory is a member directory backed by a map.
type InMemory struct {
	mu      sync.RWMutex
	members map[id.MemberID]*models.Member
}

func NewInMemory() *InMemory {
	return &InMemory{members: make(map[id.MemberID]*models.Member)}
}

func (s *InMemory) FindByID(_ context.Context, memberID id.MemberID) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[memberID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *m
	return &c, nil
}

func (s *InMemory) Save(_ context.Context, member *models.Member) error {
	if member == nil {
		return sentinel.ErrInvalidState
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *member
	s.members[member.ID] = &c
	return nil
}
