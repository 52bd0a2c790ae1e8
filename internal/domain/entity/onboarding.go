package entity

// Step is a stage of the onboarding pipeline.
type Step string

const (
	StepAptitude     Step = "aptitude"
	StepAnalysis     Step = "analysis"
	StepPassword     Step = "password"
	StepRegistration Step = "registration"
	StepCompleted    Step = "completed"
)

var stepOrder = map[Step]int{
	StepAptitude:     0,
	StepAnalysis:     1,
	StepPassword:     2,
	StepRegistration: 3,
	StepCompleted:    4,
}

var stepLabels = map[Step]string{
	StepAptitude:     "Aptidão",
	StepAnalysis:     "Análise",
	StepPassword:     "Senha",
	StepRegistration: "Cadastro",
	StepCompleted:    "Concluído",
}

// Steps returns the pipeline in forward order.
func Steps() []Step {
	return []Step{StepAptitude, StepAnalysis, StepPassword, StepRegistration, StepCompleted}
}

func (s Step) Valid() bool {
	_, ok := stepOrder[s]
	return ok
}

func (s Step) Label() string { return labelOr(stepLabels, s) }

// Before reports whether s comes strictly before other in the pipeline.
func (s Step) Before(other Step) bool { return stepOrder[s] < stepOrder[other] }

// OnboardingState is the derived, never persisted view of a party's onboarding.
type OnboardingState struct {
	Step                Step     `json:"step"`
	StepLabel           string   `json:"step_label"`
	IsApt               bool     `json:"is_apt"`
	MissingRequirements []string `json:"missing_requirements"`
	AnalysisOutcome     Outcome  `json:"analysis_outcome"`
	AnalysisReason      string   `json:"analysis_reason,omitempty"`
	RegistrationOutcome Outcome  `json:"registration_outcome"`
	RegistrationReason  string   `json:"registration_reason,omitempty"`
	HasContractDocument bool     `json:"has_contract_document"`
}
