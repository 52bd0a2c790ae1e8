package entity

import (
	"strings"
	"time"
)

// PartyKind distinguishes the two onboarded party types.
type PartyKind string

const (
	PartyExecutive PartyKind = "executive"
	PartyClient    PartyKind = "client"
)

var partyKindLabels = map[PartyKind]string{
	PartyExecutive: "Executivo",
	PartyClient:    "Cliente",
}

func PartyKinds() []PartyKind { return []PartyKind{PartyExecutive, PartyClient} }

func (k PartyKind) Valid() bool {
	_, ok := partyKindLabels[k]
	return ok
}

func (k PartyKind) Label() string { return labelOr(partyKindLabels, k) }

// Outcome is the result of an approval stage.
type Outcome string

const (
	OutcomePending  Outcome = "pending"
	OutcomeApproved Outcome = "approved"
	OutcomeRejected Outcome = "rejected"
)

// AccountStatus is the lifecycle status of a party's account, orthogonal to onboarding.
type AccountStatus string

const (
	StatusActive    AccountStatus = "active"
	StatusPending   AccountStatus = "pending"
	StatusArchiving AccountStatus = "archiving"
	StatusArchived  AccountStatus = "archived"
	StatusDenied    AccountStatus = "denied"
)

var accountStatusLabels = map[AccountStatus]string{
	StatusActive:    "Ativo",
	StatusPending:   "Pendente",
	StatusArchiving: "Em Arquivamento",
	StatusArchived:  "Arquivado",
	StatusDenied:    "Negado",
}

func AccountStatuses() []AccountStatus {
	return []AccountStatus{StatusActive, StatusPending, StatusArchiving, StatusArchived, StatusDenied}
}

func (s AccountStatus) Valid() bool {
	_, ok := accountStatusLabels[s]
	return ok
}

func (s AccountStatus) Label() string { return labelOr(accountStatusLabels, s) }

// Suspended reports whether the account is archived or waiting to be.
func (s AccountStatus) Suspended() bool { return s == StatusArchiving || s == StatusArchived }

// Address is the postal address used by the checklist.
type Address struct {
	Street     string
	Number     string
	Complement string
	District   string
	City       string
	State      string
	PostalCode string
}

// Complete requires at least street and postal code.
func (a Address) Complete() bool {
	return strings.TrimSpace(a.Street) != "" && strings.TrimSpace(a.PostalCode) != ""
}

// Profile holds the identity fields read by the requirement checklist.
type Profile struct {
	Name        string
	TaxDocument string
	Email       string
	Phone       string
	Address     Address
}

// OnboardingFlags are the persisted workflow fields of a party.
type OnboardingFlags struct {
	WorkflowStep        Step
	AnalysisOutcome     Outcome
	AnalysisReason      string
	HasPassword         bool
	RegistrationOutcome Outcome
	RegistrationReason  string
}

// Party is the aggregate root for executives and clients.
type Party struct {
	ID   string
	Kind PartyKind
	Profile
	OnboardingFlags
	PasswordHash          string
	AccountStatus         AccountStatus
	PreviousAccountStatus *AccountStatus
	Version               int64
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// OnboardingUpdate is the delta written back after an onboarding transition.
type OnboardingUpdate struct {
	Flags        OnboardingFlags
	PasswordHash *string
}

// AccountStatusUpdate is the delta written back by the archive workflow.
type AccountStatusUpdate struct {
	Status   AccountStatus
	Previous *AccountStatus
}

// PartyFilter narrows party listings; zero values mean no filter.
type PartyFilter struct {
	Kind   PartyKind
	Status AccountStatus
	Limit  int
	Offset int
}
