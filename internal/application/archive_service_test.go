package application

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/oksasatya/party-lifecycle/internal/domain/entity"
	"github.com/oksasatya/party-lifecycle/internal/domain/repository"
)

func (s *ServiceSuite) openRequests(partyID string) []entity.Notification {
	items, err := s.store.Notifications().Query(s.ctx, entity.NotificationFilter{
		RelatedEntityID: partyID,
		Type:            entity.NotificationArchiveRequest,
		Statuses:        []entity.NotificationStatus{entity.NotificationUnread, entity.NotificationRead},
	})
	s.Require().NoError(err)
	return items
}

func (s *ServiceSuite) TestScenarioD_NonTopApproverRequestsArchive() {
	p := s.newParty(entity.StatusActive)

	got, err := s.archive.RequestArchive(s.ctx, p.ID, operator)
	s.Require().NoError(err)
	s.Equal(entity.StatusArchiving, got.AccountStatus)
	s.Require().NotNil(got.PreviousAccountStatus)
	s.Equal(entity.StatusActive, *got.PreviousAccountStatus)

	open := s.openRequests(p.ID)
	s.Require().Len(open, 1)
	s.Nil(open[0].RecipientID)
	s.Require().NotNil(open[0].TargetRole)
	s.Equal(entity.RoleMaster, *open[0].TargetRole)
	s.Equal(operator.ID, open[0].SenderID)

	var payload entity.ArchiveRequestPayload
	s.Require().NoError(json.Unmarshal(open[0].Payload, &payload))
	s.Equal(operator.ID, payload.RequesterID)
	s.Equal(p.ID, payload.PartyID)

	s.Require().Len(s.publisher.events, 1)
	s.Equal(entity.NotificationArchiveRequest, s.publisher.events[0].Type)
	s.Equal(p.ID, s.publisher.events[0].PartyID)

	// Onboarding is frozen while archiving.
	_, err = s.onboarding.Submit(s.ctx, p.ID, operator)
	s.ErrorIs(err, ErrForbidden)

	got, err = s.archive.ResolveArchive(s.ctx, p.ID, DecisionAccepted, master)
	s.Require().NoError(err)
	s.Equal(entity.StatusArchived, got.AccountStatus)
	s.Empty(s.openRequests(p.ID))

	resolved, err := s.store.Notifications().GetByID(s.ctx, open[0].ID)
	s.Require().NoError(err)
	s.Equal(entity.NotificationAccepted, resolved.Status)
}

func (s *ServiceSuite) TestTopApproverArchivesDirectly() {
	p := s.newParty(entity.StatusPending)

	got, err := s.archive.RequestArchive(s.ctx, p.ID, master)
	s.Require().NoError(err)
	s.Equal(entity.StatusArchived, got.AccountStatus)
	s.Require().NotNil(got.PreviousAccountStatus)
	s.Equal(entity.StatusPending, *got.PreviousAccountStatus)
	s.Empty(s.openRequests(p.ID))
	s.Empty(s.publisher.events)
}

func (s *ServiceSuite) TestDenyRestoresPreviousStatus() {
	for _, start := range []entity.AccountStatus{entity.StatusActive, entity.StatusPending, entity.StatusDenied} {
		p := s.newParty(start)

		_, err := s.archive.RequestArchive(s.ctx, p.ID, operator)
		s.Require().NoError(err)
		got, err := s.archive.ResolveArchive(s.ctx, p.ID, DecisionDenied, master)
		s.Require().NoError(err)
		s.Equal(start, got.AccountStatus, "deny from %s", start)
	}
}

func (s *ServiceSuite) TestDenyNotifiesRequester() {
	p := s.newParty(entity.StatusActive)
	_, err := s.archive.RequestArchive(s.ctx, p.ID, operator)
	s.Require().NoError(err)
	_, err = s.archive.ResolveArchive(s.ctx, p.ID, DecisionDenied, master)
	s.Require().NoError(err)

	items, err := s.inbox.Inbox(s.ctx, operator, true, 10)
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Equal(entity.NotificationArchiveResolved, items[0].Type)
	s.Require().NotNil(items[0].RecipientID)
	s.Equal(operator.ID, *items[0].RecipientID)
}

func (s *ServiceSuite) TestLatestOpenRequestWins() {
	p := s.newParty(entity.StatusArchiving)
	role := entity.RoleMaster
	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		payload, _ := json.Marshal(entity.ArchiveRequestPayload{RequesterID: operator.ID, PartyID: p.ID})
		id, err := s.store.Notifications().Create(s.ctx, &entity.Notification{
			TargetRole:      &role,
			SenderID:        operator.ID,
			Type:            entity.NotificationArchiveRequest,
			Payload:         payload,
			RelatedEntityID: p.ID,
		})
		s.Require().NoError(err)
		ids = append(ids, id)
	}

	_, err := s.archive.ResolveArchive(s.ctx, p.ID, DecisionAccepted, master)
	s.Require().NoError(err)

	newest, err := s.store.Notifications().GetByID(s.ctx, ids[2])
	s.Require().NoError(err)
	s.Equal(entity.NotificationAccepted, newest.Status)
	for _, id := range ids[:2] {
		stale, err := s.store.Notifications().GetByID(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(entity.NotificationUnread, stale.Status)
	}
}

func (s *ServiceSuite) TestResolveWithoutOpenRequestStillTransitions() {
	prev := entity.StatusActive
	p := s.newParty(entity.StatusActive)
	s.Require().NoError(s.store.Parties().UpdateAccountStatus(s.ctx, p.ID, entity.StatusActive, entity.AccountStatusUpdate{Status: entity.StatusArchiving, Previous: &prev}))

	got, err := s.archive.ResolveArchive(s.ctx, p.ID, DecisionDenied, master)
	s.Require().NoError(err)
	s.Equal(entity.StatusActive, got.AccountStatus)
}

func (s *ServiceSuite) TestResolveRules() {
	p := s.newParty(entity.StatusActive)

	_, err := s.archive.ResolveArchive(s.ctx, p.ID, DecisionAccepted, master)
	s.ErrorIs(err, ErrInvalidTransition, "party is not archiving")

	_, err = s.archive.RequestArchive(s.ctx, p.ID, operator)
	s.Require().NoError(err)

	_, err = s.archive.ResolveArchive(s.ctx, p.ID, DecisionAccepted, operator)
	s.ErrorIs(err, ErrForbidden)
	_, err = s.archive.ResolveArchive(s.ctx, p.ID, ArchiveDecision("maybe"), master)
	s.ErrorIs(err, ErrInvalidTransition)
	_, err = s.archive.RequestArchive(s.ctx, p.ID, operator)
	s.ErrorIs(err, ErrInvalidTransition, "already archiving")

	s.Equal(entity.StatusArchiving, s.reload(p.ID).AccountStatus)
}

func (s *ServiceSuite) TestPreviousStatusNeverOverwrittenBySuspension() {
	p := s.newParty(entity.StatusActive)
	_, err := s.archive.RequestArchive(s.ctx, p.ID, operator)
	s.Require().NoError(err)
	_, err = s.archive.ResolveArchive(s.ctx, p.ID, DecisionAccepted, master)
	s.Require().NoError(err)

	got := s.reload(p.ID)
	s.Equal(entity.StatusArchived, got.AccountStatus)
	s.Require().NotNil(got.PreviousAccountStatus)
	s.Equal(entity.StatusActive, *got.PreviousAccountStatus)

	s.Equal(entity.StatusActive, *capturePrevious(entity.StatusArchiving, got.PreviousAccountStatus))
	s.Equal(entity.StatusActive, *capturePrevious(entity.StatusArchived, got.PreviousAccountStatus))
}

func (s *ServiceSuite) TestRestore() {
	p := s.newParty(entity.StatusActive)
	_, err := s.archive.RequestArchive(s.ctx, p.ID, master)
	s.Require().NoError(err)

	_, err = s.archive.Restore(s.ctx, p.ID, operator)
	s.ErrorIs(err, ErrForbidden)

	got, err := s.archive.Restore(s.ctx, p.ID, master)
	s.Require().NoError(err)
	s.Equal(entity.StatusActive, got.AccountStatus)

	_, err = s.archive.Restore(s.ctx, p.ID, master)
	s.ErrorIs(err, ErrInvalidTransition)
}

func (s *ServiceSuite) TestRestoreFallsBackToPending() {
	p := s.newParty(entity.StatusArchived)

	got, err := s.archive.Restore(s.ctx, p.ID, master)
	s.Require().NoError(err)
	s.Equal(entity.StatusPending, got.AccountStatus)
}

type failingNotifications struct {
	repository.NotificationRepository
}

func (failingNotifications) Create(context.Context, *entity.Notification) (string, error) {
	return "", errors.New("disk full")
}

func (s *ServiceSuite) TestRequestRollsBackWhenNotificationFails() {
	p := s.newParty(entity.StatusActive)
	s.archive.Notifications = failingNotifications{NotificationRepository: s.store.Notifications()}

	_, err := s.archive.RequestArchive(s.ctx, p.ID, operator)
	s.ErrorIs(err, ErrStoreUnavailable)
	s.Equal(entity.StatusActive, s.reload(p.ID).AccountStatus)
	s.Empty(s.publisher.events)
}

func (s *ServiceSuite) TestPublishFailureDoesNotFailOperation() {
	p := s.newParty(entity.StatusActive)
	s.publisher.err = errors.New("broker down")

	got, err := s.archive.RequestArchive(s.ctx, p.ID, operator)
	s.Require().NoError(err)
	s.Equal(entity.StatusArchiving, got.AccountStatus)
}
