package application

import (
	"context"

	"github.com/oksasatya/party-lifecycle/internal/domain/entity"
	"github.com/oksasatya/party-lifecycle/internal/domain/repository"
)

// staleNotifications serves the first GetByID from a copy taken before a
// concurrent resolution, reproducing a MarkRead that loses the race.
type staleNotifications struct {
	repository.NotificationRepository
	stale *entity.Notification
}

func (r *staleNotifications) GetByID(ctx context.Context, id string) (*entity.Notification, error) {
	if r.stale != nil && r.stale.ID == id {
		n := *r.stale
		r.stale = nil
		return &n, nil
	}
	return r.NotificationRepository.GetByID(ctx, id)
}

func (s *ServiceSuite) TestInboxHoldsRoleAndDirectNotifications() {
	p := s.newParty(entity.StatusActive)
	_, err := s.archive.RequestArchive(s.ctx, p.ID, operator)
	s.Require().NoError(err)

	masterInbox, err := s.inbox.Inbox(s.ctx, master, false, 0)
	s.Require().NoError(err)
	s.Len(masterInbox, 1)

	otherMaster := entity.Actor{ID: "master-2", Role: entity.RoleMaster}
	shared, err := s.inbox.Inbox(s.ctx, otherMaster, false, 0)
	s.Require().NoError(err)
	s.Len(shared, 1, "role-addressed notifications reach every holder")

	opInbox, err := s.inbox.Inbox(s.ctx, operator, false, 0)
	s.Require().NoError(err)
	s.Empty(opInbox)
}

func (s *ServiceSuite) TestMarkRead() {
	p := s.newParty(entity.StatusActive)
	_, err := s.archive.RequestArchive(s.ctx, p.ID, operator)
	s.Require().NoError(err)
	items, err := s.inbox.Inbox(s.ctx, master, true, 10)
	s.Require().NoError(err)
	s.Require().Len(items, 1)

	_, err = s.inbox.MarkRead(s.ctx, items[0].ID, operator)
	s.ErrorIs(err, ErrForbidden)

	n, err := s.inbox.MarkRead(s.ctx, items[0].ID, master)
	s.Require().NoError(err)
	s.Equal(entity.NotificationRead, n.Status)

	// A read request is still open and resolvable.
	got, err := s.archive.ResolveArchive(s.ctx, p.ID, DecisionAccepted, master)
	s.Require().NoError(err)
	s.Equal(entity.StatusArchived, got.AccountStatus)

	n, err = s.inbox.MarkRead(s.ctx, items[0].ID, master)
	s.Require().NoError(err)
	s.Equal(entity.NotificationAccepted, n.Status, "terminal status is kept")

	_, err = s.inbox.MarkRead(s.ctx, "missing", master)
	s.ErrorIs(err, ErrNotFound)
}

func (s *ServiceSuite) TestMarkReadLosingRaceKeepsResolution() {
	p := s.newParty(entity.StatusActive)
	_, err := s.archive.RequestArchive(s.ctx, p.ID, operator)
	s.Require().NoError(err)
	open := s.openRequests(p.ID)
	s.Require().Len(open, 1)
	stale := open[0]

	_, err = s.archive.ResolveArchive(s.ctx, p.ID, DecisionAccepted, master)
	s.Require().NoError(err)

	inbox := NewNotificationService(&staleNotifications{NotificationRepository: s.store.Notifications(), stale: &stale}, nil)
	n, err := inbox.MarkRead(s.ctx, stale.ID, master)
	s.Require().NoError(err)
	s.Equal(entity.NotificationAccepted, n.Status)
	s.Empty(s.openRequests(p.ID), "a resolved request never reopens")
}

func (s *ServiceSuite) TestPartyReads() {
	a := s.newParty(entity.StatusActive)
	s.newParty(entity.StatusPending)

	got, err := s.parties.Get(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(a.ID, got.ID)

	active, err := s.parties.List(s.ctx, entity.PartyFilter{Status: entity.StatusActive})
	s.Require().NoError(err)
	s.Len(active, 1)

	n, err := s.parties.Reindex(s.ctx, entity.PartyFilter{})
	s.Require().NoError(err)
	s.Equal(2, n)

	hits, err := s.parties.Search(s.ctx, "João Lima", 0)
	s.Require().NoError(err)
	s.Len(hits, 2)

	_, err = s.parties.Get(s.ctx, "missing")
	s.ErrorIs(err, ErrNotFound)
}
