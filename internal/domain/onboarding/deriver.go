package onboarding

import (
	"errors"

	"github.com/oksasatya/party-lifecycle/internal/domain/entity"
)

// ErrConflictingRejections is returned when analysis and registration are both
// marked rejected, which the forward-only pipeline never produces.
var ErrConflictingRejections = errors.New("analysis and registration are both rejected")

// Derive computes the authoritative onboarding state from the live checklist and
// the persisted flags. The persisted step is only ever advanced, except when a
// rejection outcome forces it back to the rejected stage.
func Derive(ev Evaluation, flags entity.OnboardingFlags, docs []entity.Document) (entity.OnboardingState, error) {
	analysisRejected := flags.AnalysisOutcome == entity.OutcomeRejected
	registrationRejected := flags.RegistrationOutcome == entity.OutcomeRejected
	if analysisRejected && registrationRejected {
		return entity.OnboardingState{}, ErrConflictingRejections
	}

	step := flags.WorkflowStep
	if !step.Valid() {
		step = entity.StepAptitude
	}

	// The forward rules start from the persisted step and cascade: each rule
	// sees the step the previous one produced. Every write persists the derived
	// step, so this agrees with applying one rule to the stored step per write.
	if step == entity.StepAptitude && ev.IsApt {
		step = entity.StepAnalysis
	}
	if step == entity.StepAnalysis && flags.AnalysisOutcome == entity.OutcomeApproved {
		step = entity.StepPassword
	}
	if step == entity.StepPassword && flags.HasPassword {
		step = entity.StepRegistration
	}
	if step == entity.StepRegistration && flags.RegistrationOutcome == entity.OutcomeApproved {
		step = entity.StepCompleted
	}

	// Rejections are applied last so a newly satisfied checklist cannot mask them.
	if analysisRejected {
		step = entity.StepAnalysis
	}
	if registrationRejected {
		step = entity.StepRegistration
	}

	return entity.OnboardingState{
		Step:                step,
		StepLabel:           step.Label(),
		IsApt:               ev.IsApt,
		MissingRequirements: ev.Missing,
		AnalysisOutcome:     outcomeOrPending(flags.AnalysisOutcome),
		AnalysisReason:      flags.AnalysisReason,
		RegistrationOutcome: outcomeOrPending(flags.RegistrationOutcome),
		RegistrationReason:  flags.RegistrationReason,
		HasContractDocument: hasCategory(docs, entity.CategoryContract),
	}, nil
}

func outcomeOrPending(o entity.Outcome) entity.Outcome {
	if o == "" {
		return entity.OutcomePending
	}
	return o
}
