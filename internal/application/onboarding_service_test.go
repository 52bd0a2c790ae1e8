package application

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/party-lifecycle/internal/domain/entity"
	"github.com/oksasatya/party-lifecycle/internal/domain/onboarding"
	"github.com/oksasatya/party-lifecycle/internal/domain/repository"
)

func (s *ServiceSuite) TestScenarioA_MissingRequirements() {
	p := s.newParty(entity.StatusPending)

	st, err := s.onboarding.State(s.ctx, p.ID)
	s.Require().NoError(err)
	s.False(st.IsApt)
	s.Equal(entity.StepAptitude, st.Step)
	s.Subset(st.MissingRequirements, []string{onboarding.ReqBankAccount, onboarding.ReqIdentityDoc, onboarding.ReqResidenceProof})

	_, err = s.onboarding.Submit(s.ctx, p.ID, operator)
	s.ErrorIs(err, ErrInvalidTransition)
	s.Equal(entity.StepAptitude, s.reload(p.ID).WorkflowStep)
}

func (s *ServiceSuite) TestScenarioB_AptAdvancesWithoutPersisting() {
	p := s.newParty(entity.StatusPending)
	s.makeApt(p.ID)

	st, err := s.onboarding.State(s.ctx, p.ID)
	s.Require().NoError(err)
	s.True(st.IsApt)
	s.Empty(st.MissingRequirements)
	s.Equal(entity.StepAnalysis, st.Step)
	s.Equal(entity.StepAptitude, s.reload(p.ID).WorkflowStep)
}

func (s *ServiceSuite) TestScenarioC_SubmitThenApproveAnalysis() {
	p := s.newParty(entity.StatusPending)
	s.makeApt(p.ID)

	_, err := s.onboarding.Submit(s.ctx, p.ID, operator)
	s.Require().NoError(err)
	s.Equal(entity.StepAnalysis, s.reload(p.ID).WorkflowStep)

	_, err = s.onboarding.ApproveAnalysis(s.ctx, p.ID, master)
	s.Require().NoError(err)
	s.Equal(entity.OutcomeApproved, s.reload(p.ID).AnalysisOutcome)

	st, err := s.onboarding.State(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(entity.StepPassword, st.Step)
}

func (s *ServiceSuite) TestScenarioE_RejectAnalysisAfterAdvance() {
	p := s.newParty(entity.StatusPending)
	s.makeApt(p.ID)
	s.advanceTo(p.ID, entity.StepPassword)
	s.Require().Equal(entity.StepPassword, s.reload(p.ID).WorkflowStep)

	_, err := s.onboarding.RejectAnalysis(s.ctx, p.ID, master, "missing signature")
	s.Require().NoError(err)

	st, err := s.onboarding.State(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(entity.StepAnalysis, st.Step)
	s.Equal(entity.OutcomeRejected, st.AnalysisOutcome)
	s.Equal("missing signature", st.AnalysisReason)

	items, err := s.inbox.Inbox(s.ctx, entity.Actor{ID: p.ID, Role: entity.RoleClient}, false, 10)
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Equal(entity.NotificationAnalysisRejected, items[0].Type)
	s.Require().Len(s.publisher.events, 1)
	s.Equal("missing signature", s.publisher.events[0].Reason)
}

func (s *ServiceSuite) TestFullPipelineToCompleted() {
	p := s.newParty(entity.StatusActive)
	s.makeApt(p.ID)
	s.advanceTo(p.ID, entity.StepRegistration)

	stored := s.reload(p.ID)
	s.True(stored.HasPassword)
	s.NoError(bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret-pass")))
	s.Equal(entity.StepRegistration, stored.WorkflowStep)

	_, err := s.onboarding.ApproveRegistration(s.ctx, p.ID, master)
	s.ErrorIs(err, ErrInvalidTransition, "contract document is required")

	s.addContract(p.ID)
	st, err := s.onboarding.ApproveRegistration(s.ctx, p.ID, master)
	s.Require().NoError(err)
	s.Equal(entity.StepCompleted, st.Step)
	s.Equal(entity.StepCompleted, s.reload(p.ID).WorkflowStep)
	s.Contains(s.indexer.indexed, p.ID)
}

func (s *ServiceSuite) TestIdempotentTransitions() {
	p := s.newParty(entity.StatusPending)
	s.makeApt(p.ID)
	s.addContract(p.ID)

	first, err := s.onboarding.Submit(s.ctx, p.ID, operator)
	s.Require().NoError(err)
	version := s.reload(p.ID).Version
	second, err := s.onboarding.Submit(s.ctx, p.ID, operator)
	s.Require().NoError(err)
	s.Equal(first, second)
	s.Equal(version, s.reload(p.ID).Version, "no write on repeated submit")

	first, err = s.onboarding.ApproveAnalysis(s.ctx, p.ID, master)
	s.Require().NoError(err)
	second, err = s.onboarding.ApproveAnalysis(s.ctx, p.ID, master)
	s.Require().NoError(err)
	s.Equal(first, second)

	_, err = s.onboarding.SetPassword(s.ctx, p.ID, operator, "s3cret-pass")
	s.Require().NoError(err)

	first, err = s.onboarding.ApproveRegistration(s.ctx, p.ID, master)
	s.Require().NoError(err)
	second, err = s.onboarding.ApproveRegistration(s.ctx, p.ID, master)
	s.Require().NoError(err)
	s.Equal(first, second)
}

func (s *ServiceSuite) TestTopApproverRequired() {
	p := s.newParty(entity.StatusPending)
	s.makeApt(p.ID)
	s.advanceTo(p.ID, entity.StepAnalysis)

	_, err := s.onboarding.ApproveAnalysis(s.ctx, p.ID, operator)
	s.ErrorIs(err, ErrForbidden)
	_, err = s.onboarding.RejectAnalysis(s.ctx, p.ID, operator, "no")
	s.ErrorIs(err, ErrForbidden)
	_, err = s.onboarding.ApproveRegistration(s.ctx, p.ID, operator)
	s.ErrorIs(err, ErrForbidden)
	_, err = s.onboarding.RejectRegistration(s.ctx, p.ID, operator, "no")
	s.ErrorIs(err, ErrForbidden)
}

func (s *ServiceSuite) TestApproveAnalysisRequiresSubmission() {
	p := s.newParty(entity.StatusPending)
	s.makeApt(p.ID)

	_, err := s.onboarding.ApproveAnalysis(s.ctx, p.ID, master)
	s.ErrorIs(err, ErrInvalidTransition)
}

func (s *ServiceSuite) TestRegistrationRejectionAndRecovery() {
	p := s.newParty(entity.StatusPending)
	s.makeApt(p.ID)
	s.advanceTo(p.ID, entity.StepRegistration)

	st, err := s.onboarding.RejectRegistration(s.ctx, p.ID, master, "contract unsigned")
	s.Require().NoError(err)
	s.Equal(entity.StepRegistration, st.Step)
	s.Equal("contract unsigned", st.RegistrationReason)

	s.addContract(p.ID)
	st, err = s.onboarding.ApproveRegistration(s.ctx, p.ID, master)
	s.Require().NoError(err)
	s.Equal(entity.StepCompleted, st.Step)
	s.Empty(st.RegistrationReason)
}

func (s *ServiceSuite) TestRejectAnalysisClearsRegistrationRejection() {
	p := s.newParty(entity.StatusPending)
	s.makeApt(p.ID)
	s.advanceTo(p.ID, entity.StepRegistration)

	_, err := s.onboarding.RejectRegistration(s.ctx, p.ID, master, "contract unsigned")
	s.Require().NoError(err)
	st, err := s.onboarding.RejectAnalysis(s.ctx, p.ID, master, "identity mismatch")
	s.Require().NoError(err)
	s.Equal(entity.StepAnalysis, st.Step)
	s.Equal(entity.OutcomePending, s.reload(p.ID).RegistrationOutcome)
}

func (s *ServiceSuite) TestArchivedPartiesCannotTransition() {
	for _, status := range []entity.AccountStatus{entity.StatusArchiving, entity.StatusArchived} {
		p := s.newParty(status)
		s.makeApt(p.ID)

		ops := map[string]func() error{
			OpSubmit: func() error { _, err := s.onboarding.Submit(s.ctx, p.ID, master); return err },
			OpApproveAnalysis: func() error {
				_, err := s.onboarding.ApproveAnalysis(s.ctx, p.ID, master)
				return err
			},
			OpRejectAnalysis: func() error {
				_, err := s.onboarding.RejectAnalysis(s.ctx, p.ID, master, "x")
				return err
			},
			OpSetPassword: func() error {
				_, err := s.onboarding.SetPassword(s.ctx, p.ID, master, "s3cret-pass")
				return err
			},
			OpApproveRegistration: func() error {
				_, err := s.onboarding.ApproveRegistration(s.ctx, p.ID, master)
				return err
			},
			OpRejectRegistration: func() error {
				_, err := s.onboarding.RejectRegistration(s.ctx, p.ID, master, "x")
				return err
			},
		}
		for name, op := range ops {
			s.ErrorIs(op(), ErrForbidden, "%s on %s", name, status)
		}
	}
}

func (s *ServiceSuite) TestUnknownPartyIsNotFound() {
	_, err := s.onboarding.Submit(s.ctx, "missing", operator)
	s.ErrorIs(err, ErrNotFound)
	_, err = s.onboarding.State(s.ctx, "missing")
	s.ErrorIs(err, ErrNotFound)
}

type conflictingParties struct {
	repository.PartyRepository
	err error
}

func (c conflictingParties) UpdateOnboarding(context.Context, string, int64, entity.OnboardingUpdate) error {
	return c.err
}

func (s *ServiceSuite) TestStoreErrorsAreWrapped() {
	p := s.newParty(entity.StatusPending)
	s.makeApt(p.ID)

	s.onboarding.Parties = conflictingParties{PartyRepository: s.store.Parties(), err: repository.ErrConflict}
	_, err := s.onboarding.Submit(s.ctx, p.ID, operator)
	s.ErrorIs(err, ErrStoreConflict)
	s.ErrorIs(err, repository.ErrConflict)

	down := errors.New("connection refused")
	s.onboarding.Parties = conflictingParties{PartyRepository: s.store.Parties(), err: down}
	_, err = s.onboarding.Submit(s.ctx, p.ID, operator)
	s.ErrorIs(err, ErrStoreUnavailable)
	s.ErrorIs(err, down)
}

func (s *ServiceSuite) TestStaleVersionLosesRace() {
	p := s.newParty(entity.StatusPending)
	s.makeApt(p.ID)

	err := s.store.Parties().UpdateOnboarding(s.ctx, p.ID, p.Version+5, entity.OnboardingUpdate{})
	s.ErrorIs(err, repository.ErrConflict)
}

func (s *ServiceSuite) TestSetPasswordRejectsOverlongMultibytePassword() {
	p := s.newParty(entity.StatusActive)
	s.makeApt(p.ID)
	s.advanceTo(p.ID, entity.StepPassword)

	_, err := s.onboarding.SetPassword(s.ctx, p.ID, operator, strings.Repeat("é", 40))
	s.ErrorIs(err, ErrInvalidTransition)
	s.Equal("invalid_transition", ErrorClass(err))

	stored := s.reload(p.ID)
	s.False(stored.HasPassword)
	s.Empty(stored.PasswordHash)
	s.Equal(entity.StepPassword, stored.WorkflowStep)
}
