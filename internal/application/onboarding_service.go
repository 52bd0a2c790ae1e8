package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/party-lifecycle/internal/domain/entity"
	"github.com/oksasatya/party-lifecycle/internal/domain/onboarding"
	repo "github.com/oksasatya/party-lifecycle/internal/domain/repository"
	"github.com/oksasatya/party-lifecycle/pkg/helpers"
	"github.com/oksasatya/party-lifecycle/pkg/metrics"
)

// Operation names used in logs and metrics.
const (
	OpSubmit              = "submit"
	OpApproveAnalysis     = "approve_analysis"
	OpRejectAnalysis      = "reject_analysis"
	OpSetPassword         = "set_password"
	OpApproveRegistration = "approve_registration"
	OpRejectRegistration  = "reject_registration"
)

// OnboardingService executes actor-initiated onboarding transitions. Every
// operation reads a fresh snapshot, derives the current state, checks the
// transition precondition and writes back a version-guarded delta.
type OnboardingService struct {
	Parties       repo.PartyRepository
	Payments      repo.PaymentMethodRepository
	Documents     repo.DocumentRepository
	Notifications repo.NotificationRepository
	Tx            repo.Transactor
	Publisher     EventPublisher
	Indexer       PartyIndexer
	Metrics       *metrics.Metrics
	Logger        *logrus.Logger
}

func NewOnboardingService(parties repo.PartyRepository, payments repo.PaymentMethodRepository, docs repo.DocumentRepository, notifications repo.NotificationRepository, tx repo.Transactor, pub EventPublisher, indexer PartyIndexer, m *metrics.Metrics, logger *logrus.Logger) *OnboardingService {
	return &OnboardingService{
		Parties:       parties,
		Payments:      payments,
		Documents:     docs,
		Notifications: notifications,
		Tx:            tx,
		Publisher:     pub,
		Indexer:       indexer,
		Metrics:       m,
		Logger:        logger,
	}
}

type snapshot struct {
	party *entity.Party
	docs  []entity.Document
	eval  onboarding.Evaluation
	state entity.OnboardingState
}

func (s *OnboardingService) load(ctx context.Context, partyID string) (*snapshot, error) {
	p, err := s.Parties.GetByID(ctx, partyID)
	if err != nil {
		return nil, storeErr("get party", err)
	}
	pms, err := s.Payments.ListByParty(ctx, partyID)
	if err != nil {
		return nil, storeErr("list payment methods", err)
	}
	docs, err := s.Documents.ListByParty(ctx, partyID)
	if err != nil {
		return nil, storeErr("list documents", err)
	}
	ev := onboarding.Evaluate(p.Profile, pms, docs)
	st, err := onboarding.Derive(ev, p.OnboardingFlags, docs)
	if err != nil {
		return nil, invalidTransition("party %s: %v", partyID, err)
	}
	return &snapshot{party: p, docs: docs, eval: ev, state: st}, nil
}

// State returns the derived onboarding state without changing anything.
func (s *OnboardingService) State(ctx context.Context, partyID string) (entity.OnboardingState, error) {
	snap, err := s.load(ctx, partyID)
	if err != nil {
		return entity.OnboardingState{}, err
	}
	return snap.state, nil
}

// Submit persists the aptitude -> analysis advance once the checklist is met.
func (s *OnboardingService) Submit(ctx context.Context, partyID string, actor entity.Actor) (entity.OnboardingState, error) {
	return s.run(ctx, OpSubmit, partyID, actor, false, func(snap *snapshot) (*change, error) {
		flags := snap.party.OnboardingFlags
		if flags.WorkflowStep.Valid() && flags.WorkflowStep != entity.StepAptitude {
			return nil, nil
		}
		if !snap.state.IsApt {
			return nil, invalidTransition("requirements missing: %s", strings.Join(snap.state.MissingRequirements, ", "))
		}
		flags.WorkflowStep = entity.StepAnalysis
		return &change{flags: flags}, nil
	})
}

func (s *OnboardingService) ApproveAnalysis(ctx context.Context, partyID string, actor entity.Actor) (entity.OnboardingState, error) {
	return s.run(ctx, OpApproveAnalysis, partyID, actor, true, func(snap *snapshot) (*change, error) {
		flags := snap.party.OnboardingFlags
		if flags.AnalysisOutcome == entity.OutcomeApproved {
			return nil, nil
		}
		if err := requireSubmitted(flags); err != nil {
			return nil, err
		}
		if snap.state.Step != entity.StepAnalysis {
			return nil, invalidTransition("analysis can only be approved at step %s, current step is %s", entity.StepAnalysis, snap.state.Step)
		}
		flags.AnalysisOutcome = entity.OutcomeApproved
		flags.AnalysisReason = ""
		return &change{flags: flags}, nil
	})
}

// RejectAnalysis sends the party back to the analysis step. It is accepted
// from any step between analysis and registration.
func (s *OnboardingService) RejectAnalysis(ctx context.Context, partyID string, actor entity.Actor, reason string) (entity.OnboardingState, error) {
	reason = strings.TrimSpace(reason)
	return s.run(ctx, OpRejectAnalysis, partyID, actor, true, func(snap *snapshot) (*change, error) {
		flags := snap.party.OnboardingFlags
		if flags.AnalysisOutcome == entity.OutcomeRejected && flags.AnalysisReason == reason {
			return nil, nil
		}
		if err := requireSubmitted(flags); err != nil {
			return nil, err
		}
		if snap.state.Step == entity.StepCompleted {
			return nil, invalidTransition("onboarding already completed")
		}
		flags.WorkflowStep = entity.StepAnalysis
		flags.AnalysisOutcome = entity.OutcomeRejected
		flags.AnalysisReason = reason
		// Only one stage may be rejected at a time.
		flags.RegistrationOutcome = entity.OutcomePending
		flags.RegistrationReason = ""
		return &change{flags: flags, notify: entity.NotificationAnalysisRejected, reason: reason}, nil
	})
}

// SetPassword stores the party's password hash and completes the password step.
func (s *OnboardingService) SetPassword(ctx context.Context, partyID string, actor entity.Actor, password string) (entity.OnboardingState, error) {
	return s.run(ctx, OpSetPassword, partyID, actor, false, func(snap *snapshot) (*change, error) {
		flags := snap.party.OnboardingFlags
		if flags.HasPassword {
			return nil, nil
		}
		if snap.state.Step != entity.StepPassword {
			return nil, invalidTransition("password can only be set at step %s, current step is %s", entity.StepPassword, snap.state.Step)
		}
		if err := helpers.CheckPassword(password); err != nil {
			return nil, invalidTransition("password rejected: %v", err)
		}
		hash, err := helpers.HashPassword(password)
		if err != nil {
			return nil, err
		}
		flags.HasPassword = true
		return &change{flags: flags, passwordHash: &hash}, nil
	})
}

func (s *OnboardingService) ApproveRegistration(ctx context.Context, partyID string, actor entity.Actor) (entity.OnboardingState, error) {
	return s.run(ctx, OpApproveRegistration, partyID, actor, true, func(snap *snapshot) (*change, error) {
		flags := snap.party.OnboardingFlags
		if flags.RegistrationOutcome == entity.OutcomeApproved {
			return nil, nil
		}
		if snap.state.Step != entity.StepRegistration {
			return nil, invalidTransition("registration can only be approved at step %s, current step is %s", entity.StepRegistration, snap.state.Step)
		}
		if !snap.state.HasContractDocument {
			return nil, invalidTransition("contract document missing")
		}
		flags.RegistrationOutcome = entity.OutcomeApproved
		flags.RegistrationReason = ""
		return &change{flags: flags}, nil
	})
}

func (s *OnboardingService) RejectRegistration(ctx context.Context, partyID string, actor entity.Actor, reason string) (entity.OnboardingState, error) {
	reason = strings.TrimSpace(reason)
	return s.run(ctx, OpRejectRegistration, partyID, actor, true, func(snap *snapshot) (*change, error) {
		flags := snap.party.OnboardingFlags
		if flags.RegistrationOutcome == entity.OutcomeRejected && flags.RegistrationReason == reason {
			return nil, nil
		}
		if snap.state.Step != entity.StepRegistration {
			return nil, invalidTransition("registration can only be rejected at step %s, current step is %s", entity.StepRegistration, snap.state.Step)
		}
		flags.RegistrationOutcome = entity.OutcomeRejected
		flags.RegistrationReason = reason
		return &change{flags: flags, notify: entity.NotificationRegistrationRejected, reason: reason}, nil
	})
}

// change is what a transition wants to persist; nil means already applied.
type change struct {
	flags        entity.OnboardingFlags
	passwordHash *string
	notify       entity.NotificationType
	reason       string
}

func requireSubmitted(flags entity.OnboardingFlags) error {
	if !flags.WorkflowStep.Valid() || flags.WorkflowStep == entity.StepAptitude {
		return invalidTransition("party has not been submitted for analysis")
	}
	return nil
}

func (s *OnboardingService) run(ctx context.Context, op, partyID string, actor entity.Actor, needsTopApprover bool, decide func(*snapshot) (*change, error)) (entity.OnboardingState, error) {
	log := loggerOr(s.Logger).WithFields(logrus.Fields{"party_id": partyID, "actor_id": actor.ID, "operation": op})

	st, applied, err := s.transition(ctx, partyID, actor, needsTopApprover, decide)
	if err != nil {
		s.Metrics.IncTransition(op, ErrorClass(err))
		if errors.Is(err, ErrStoreUnavailable) {
			log.WithError(err).Error("onboarding transition failed")
		} else {
			log.WithError(err).Info("onboarding transition refused")
		}
		return entity.OnboardingState{}, err
	}
	if !applied {
		s.Metrics.IncTransition(op, "noop")
		log.Debug("onboarding transition already applied")
		return st, nil
	}
	s.Metrics.IncTransition(op, "applied")
	log.WithField("step", st.Step).Info("onboarding transition applied")
	return st, nil
}

func (s *OnboardingService) transition(ctx context.Context, partyID string, actor entity.Actor, needsTopApprover bool, decide func(*snapshot) (*change, error)) (entity.OnboardingState, bool, error) {
	snap, err := s.load(ctx, partyID)
	if err != nil {
		return entity.OnboardingState{}, false, err
	}
	if snap.party.AccountStatus.Suspended() {
		return entity.OnboardingState{}, false, forbidden("account is " + string(snap.party.AccountStatus))
	}
	if needsTopApprover && !actor.IsTopApprover() {
		return entity.OnboardingState{}, false, forbidden("top approver role required")
	}

	ch, err := decide(snap)
	if err != nil {
		return entity.OnboardingState{}, false, err
	}
	if ch == nil {
		return snap.state, false, nil
	}

	next, err := onboarding.Derive(snap.eval, ch.flags, snap.docs)
	if err != nil {
		return entity.OnboardingState{}, false, invalidTransition("%v", err)
	}
	// The unsubmitted aptitude advance is never persisted by a transition.
	if ch.flags.WorkflowStep.Valid() && ch.flags.WorkflowStep != entity.StepAptitude {
		ch.flags.WorkflowStep = next.Step
	}

	var notificationID string
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Parties.UpdateOnboarding(ctx, partyID, snap.party.Version, entity.OnboardingUpdate{Flags: ch.flags, PasswordHash: ch.passwordHash}); err != nil {
			return storeErr("update onboarding", err)
		}
		if ch.notify == "" {
			return nil
		}
		id, err := s.Notifications.Create(ctx, partyNotification(snap.party, actor, ch.notify, ch.reason))
		if err != nil {
			return storeErr("create notification", err)
		}
		notificationID = id
		return nil
	})
	if err != nil {
		return entity.OnboardingState{}, false, storeErr("onboarding transaction", err)
	}

	snap.party.OnboardingFlags = ch.flags
	s.afterCommit(ctx, snap.party, actor, ch, notificationID)
	return next, true, nil
}

func partyNotification(p *entity.Party, actor entity.Actor, t entity.NotificationType, reason string) *entity.Notification {
	recipient := p.ID
	payload, _ := json.Marshal(map[string]string{"partyId": p.ID, "reason": reason})
	return &entity.Notification{
		RecipientID:     &recipient,
		SenderID:        actor.ID,
		Type:            t,
		Payload:         payload,
		RelatedEntityID: p.ID,
		Status:          entity.NotificationUnread,
	}
}

// afterCommit runs best-effort side effects; failures are logged, never returned.
func (s *OnboardingService) afterCommit(ctx context.Context, p *entity.Party, actor entity.Actor, ch *change, notificationID string) {
	log := loggerOr(s.Logger).WithField("party_id", p.ID)
	if s.Indexer != nil {
		if err := s.Indexer.IndexParty(ctx, p); err != nil {
			log.WithError(err).Warn("party index failed")
		}
	}
	if ch.notify == "" || s.Publisher == nil {
		return
	}
	ev := entity.NotificationEvent{
		NotificationID: notificationID,
		Type:           ch.notify,
		Status:         entity.NotificationUnread,
		PartyID:        p.ID,
		PartyName:      p.Name,
		PartyKind:      p.Kind,
		ActorID:        actor.ID,
		AccountStatus:  p.AccountStatus,
		Reason:         ch.reason,
		OccurredAt:     time.Now().UTC(),
	}
	if err := s.Publisher.PublishJSON(ctx, ev); err != nil {
		s.Metrics.IncPublishFailure()
		log.WithError(err).Warn("failed to publish notification event")
	}
}
