package application

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/party-lifecycle/internal/domain/entity"
	repo "github.com/oksasatya/party-lifecycle/internal/domain/repository"
	"github.com/oksasatya/party-lifecycle/pkg/metrics"
)

// ArchiveDecision is the top approver's answer to an archive request.
type ArchiveDecision string

const (
	DecisionAccepted ArchiveDecision = "accepted"
	DecisionDenied   ArchiveDecision = "denied"
)

func (d ArchiveDecision) Valid() bool { return d == DecisionAccepted || d == DecisionDenied }

// ArchiveService runs the request/approve/deny protocol for suspending a
// party's account. Status writes are guarded by the expected current status and
// a status change plus its notification always commit together.
type ArchiveService struct {
	Parties       repo.PartyRepository
	Notifications repo.NotificationRepository
	Tx            repo.Transactor
	Publisher     EventPublisher
	Indexer       PartyIndexer
	Metrics       *metrics.Metrics
	Logger        *logrus.Logger
}

func NewArchiveService(parties repo.PartyRepository, notifications repo.NotificationRepository, tx repo.Transactor, pub EventPublisher, indexer PartyIndexer, m *metrics.Metrics, logger *logrus.Logger) *ArchiveService {
	return &ArchiveService{
		Parties:       parties,
		Notifications: notifications,
		Tx:            tx,
		Publisher:     pub,
		Indexer:       indexer,
		Metrics:       m,
		Logger:        logger,
	}
}

// capturePrevious never replaces a captured status with archiving/archived.
func capturePrevious(current entity.AccountStatus, existing *entity.AccountStatus) *entity.AccountStatus {
	if current.Suspended() {
		return existing
	}
	c := current
	return &c
}

func restoreTarget(previous *entity.AccountStatus) entity.AccountStatus {
	if previous == nil || previous.Suspended() || !previous.Valid() {
		return entity.StatusPending
	}
	return *previous
}

// RequestArchive archives the party directly when the actor is a top approver;
// otherwise it moves the party to archiving and raises an archive-request
// notification for the top approver role.
func (s *ArchiveService) RequestArchive(ctx context.Context, partyID string, actor entity.Actor) (*entity.Party, error) {
	log := loggerOr(s.Logger).WithFields(logrus.Fields{"party_id": partyID, "actor_id": actor.ID, "operation": "request_archive"})

	p, err := s.Parties.GetByID(ctx, partyID)
	if err != nil {
		return nil, s.fail(log, "request", storeErr("get party", err))
	}
	if p.AccountStatus.Suspended() {
		return nil, s.fail(log, "request", invalidTransition("account is already %s", p.AccountStatus))
	}

	current := p.AccountStatus
	update := entity.AccountStatusUpdate{Previous: capturePrevious(current, p.PreviousAccountStatus)}

	if actor.IsTopApprover() {
		update.Status = entity.StatusArchived
		if err := s.Parties.UpdateAccountStatus(ctx, partyID, current, update); err != nil {
			return nil, s.fail(log, "request", storeErr("archive party", err))
		}
		return s.done(ctx, log, "request", partyID, nil)
	}

	update.Status = entity.StatusArchiving
	role := entity.RoleMaster
	payload, err := json.Marshal(entity.ArchiveRequestPayload{RequesterID: actor.ID, PartyID: partyID})
	if err != nil {
		return nil, s.fail(log, "request", err)
	}
	n := &entity.Notification{
		TargetRole:      &role,
		SenderID:        actor.ID,
		Type:            entity.NotificationArchiveRequest,
		Payload:         payload,
		RelatedEntityID: partyID,
		Status:          entity.NotificationUnread,
	}
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Parties.UpdateAccountStatus(ctx, partyID, current, update); err != nil {
			return storeErr("mark archiving", err)
		}
		id, err := s.Notifications.Create(ctx, n)
		if err != nil {
			return storeErr("create archive request", err)
		}
		n.ID = id
		return nil
	})
	if err != nil {
		return nil, s.fail(log, "request", storeErr("archive request transaction", err))
	}
	return s.done(ctx, log, "request", partyID, &entity.NotificationEvent{
		NotificationID: n.ID,
		Type:           n.Type,
		Status:         n.Status,
		ActorID:        actor.ID,
	})
}

// ResolveArchive applies the top approver's decision to the party in
// archiving and resolves the latest open archive request for it.
func (s *ArchiveService) ResolveArchive(ctx context.Context, partyID string, decision ArchiveDecision, actor entity.Actor) (*entity.Party, error) {
	log := loggerOr(s.Logger).WithFields(logrus.Fields{"party_id": partyID, "actor_id": actor.ID, "operation": "resolve_archive", "decision": decision})

	if !actor.IsTopApprover() {
		return nil, s.fail(log, "resolve", forbidden("top approver role required"))
	}
	if !decision.Valid() {
		return nil, s.fail(log, "resolve", invalidTransition("unknown decision %q", decision))
	}
	p, err := s.Parties.GetByID(ctx, partyID)
	if err != nil {
		return nil, s.fail(log, "resolve", storeErr("get party", err))
	}
	if p.AccountStatus != entity.StatusArchiving {
		return nil, s.fail(log, "resolve", invalidTransition("account is %s, not %s", p.AccountStatus, entity.StatusArchiving))
	}

	open, err := s.latestOpenRequest(ctx, partyID)
	if err != nil {
		return nil, s.fail(log, "resolve", err)
	}
	if open == nil {
		log.Warn("no open archive request found; resolving status only")
	}

	update := entity.AccountStatusUpdate{Status: entity.StatusArchived, Previous: p.PreviousAccountStatus}
	resolved := entity.NotificationAccepted
	if decision == DecisionDenied {
		update.Status = restoreTarget(p.PreviousAccountStatus)
		resolved = entity.NotificationDenied
	}

	var reply *entity.Notification
	if open != nil {
		reply = resolutionNotice(open, actor, resolved)
	}
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Parties.UpdateAccountStatus(ctx, partyID, entity.StatusArchiving, update); err != nil {
			return storeErr("resolve archive status", err)
		}
		if open == nil {
			return nil
		}
		if err := s.Notifications.Update(ctx, open.ID, entity.NotificationUpdate{
			Status: resolved,
			From:   []entity.NotificationStatus{entity.NotificationUnread, entity.NotificationRead},
		}); err != nil {
			return storeErr("resolve archive request", err)
		}
		if reply != nil {
			if _, err := s.Notifications.Create(ctx, reply); err != nil {
				return storeErr("create archive resolution", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(log, "resolve", storeErr("archive resolve transaction", err))
	}

	ev := &entity.NotificationEvent{Type: entity.NotificationArchiveResolved, Status: resolved, ActorID: actor.ID}
	if open != nil {
		ev.NotificationID = open.ID
	}
	return s.done(ctx, log, "resolve", partyID, ev)
}

// Restore returns an archived party to its captured status without a
// notification round-trip.
func (s *ArchiveService) Restore(ctx context.Context, partyID string, actor entity.Actor) (*entity.Party, error) {
	log := loggerOr(s.Logger).WithFields(logrus.Fields{"party_id": partyID, "actor_id": actor.ID, "operation": "restore"})

	if !actor.IsTopApprover() {
		return nil, s.fail(log, "restore", forbidden("top approver role required"))
	}
	p, err := s.Parties.GetByID(ctx, partyID)
	if err != nil {
		return nil, s.fail(log, "restore", storeErr("get party", err))
	}
	if p.AccountStatus != entity.StatusArchived {
		return nil, s.fail(log, "restore", invalidTransition("account is %s, not %s", p.AccountStatus, entity.StatusArchived))
	}
	update := entity.AccountStatusUpdate{Status: restoreTarget(p.PreviousAccountStatus), Previous: p.PreviousAccountStatus}
	if err := s.Parties.UpdateAccountStatus(ctx, partyID, entity.StatusArchived, update); err != nil {
		return nil, s.fail(log, "restore", storeErr("restore party", err))
	}
	return s.done(ctx, log, "restore", partyID, nil)
}

// latestOpenRequest returns the newest unread/read archive request for the
// party, or nil. When several are open the newest one wins.
func (s *ArchiveService) latestOpenRequest(ctx context.Context, partyID string) (*entity.Notification, error) {
	items, err := s.Notifications.Query(ctx, entity.NotificationFilter{
		RelatedEntityID: partyID,
		Type:            entity.NotificationArchiveRequest,
		Statuses:        []entity.NotificationStatus{entity.NotificationUnread, entity.NotificationRead},
		NewestFirst:     true,
		Limit:           1,
	})
	if err != nil {
		return nil, storeErr("query archive requests", err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// resolutionNotice tells the original requester how their request ended.
func resolutionNotice(request *entity.Notification, actor entity.Actor, resolved entity.NotificationStatus) *entity.Notification {
	var p entity.ArchiveRequestPayload
	if err := json.Unmarshal(request.Payload, &p); err != nil || p.RequesterID == "" {
		return nil
	}
	payload, _ := json.Marshal(map[string]string{
		"partyId":   request.RelatedEntityID,
		"requestId": request.ID,
		"decision":  string(resolved),
	})
	recipient := p.RequesterID
	return &entity.Notification{
		RecipientID:     &recipient,
		SenderID:        actor.ID,
		Type:            entity.NotificationArchiveResolved,
		Payload:         payload,
		RelatedEntityID: request.RelatedEntityID,
		Status:          entity.NotificationUnread,
	}
}

func (s *ArchiveService) fail(log *logrus.Entry, op string, err error) error {
	s.Metrics.IncArchiveDecision(op, ErrorClass(err))
	if errors.Is(err, ErrStoreUnavailable) {
		log.WithError(err).Error("archive operation failed")
	} else {
		log.WithError(err).Info("archive operation refused")
	}
	return err
}

// done reloads the party, runs best-effort side effects and reports success.
func (s *ArchiveService) done(ctx context.Context, log *logrus.Entry, op, partyID string, ev *entity.NotificationEvent) (*entity.Party, error) {
	p, err := s.Parties.GetByID(ctx, partyID)
	if err != nil {
		return nil, s.fail(log, op, storeErr("reload party", err))
	}
	s.Metrics.IncArchiveDecision(op, string(p.AccountStatus))
	log.WithField("account_status", p.AccountStatus).Info("archive operation applied")

	if s.Indexer != nil {
		if err := s.Indexer.IndexParty(ctx, p); err != nil {
			log.WithError(err).Warn("party index failed")
		}
	}
	if ev == nil || s.Publisher == nil {
		return p, nil
	}
	ev.PartyID = p.ID
	ev.PartyName = p.Name
	ev.PartyKind = p.Kind
	ev.AccountStatus = p.AccountStatus
	ev.OccurredAt = time.Now().UTC()
	if err := s.Publisher.PublishJSON(ctx, *ev); err != nil {
		s.Metrics.IncPublishFailure()
		log.WithError(err).Warn("failed to publish notification event")
	}
	return p, nil
}
