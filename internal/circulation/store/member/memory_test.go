package member

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"circulation/internal/circulation/models"
	id "circulation/pkg/domain"
	"circulation/pkg/platform/sentinel"
)

type MemberStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *MemberStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestMemberStoreSuite(t *testing.T) {
	suite.Run(t, new(MemberStoreSuite))
}

func (s *MemberStoreSuite) TestLookups() {
	s.Run("saves and finds member by ID", func() {
		m := &models.Member{ID: id.MemberID(uuid.New()), FullName: "Ada Lovelace", Active: true}
		s.Require().NoError(s.store.Save(s.ctx, m))

		found, err := s.store.FindByID(s.ctx, m.ID)
		s.Require().NoError(err)
		s.Equal(m, found)
	})

	s.Run("save replaces existing member", func() {
		m := &models.Member{ID: id.MemberID(uuid.New()), FullName: "Grace Hopper", Active: true}
		s.Require().NoError(s.store.Save(s.ctx, m))
		m.Active = false
		s.Require().NoError(s.store.Save(s.ctx, m))

		found, err := s.store.FindByID(s.ctx, m.ID)
		s.Require().NoError(err)
		s.False(found.Active)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, id.MemberID(uuid.New()))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects nil member", func() {
		s.Require().ErrorIs(s.store.Save(s.ctx, nil), sentinel.ErrInvalidState)
	})
}
