package entity

import (
	"encoding/json"
	"errors"
	"time"
)

// NotificationType is the closed set of cross-actor request kinds.
type NotificationType string

const (
	NotificationArchiveRequest       NotificationType = "archive-request"
	NotificationArchiveResolved      NotificationType = "archive-resolved"
	NotificationAnalysisRejected     NotificationType = "analysis-rejected"
	NotificationRegistrationRejected NotificationType = "registration-rejected"
)

var notificationTypeLabels = map[NotificationType]string{
	NotificationArchiveRequest:       "Solicitação de Arquivamento",
	NotificationArchiveResolved:      "Arquivamento Resolvido",
	NotificationAnalysisRejected:     "Análise Reprovada",
	NotificationRegistrationRejected: "Cadastro Reprovado",
}

func NotificationTypes() []NotificationType {
	return []NotificationType{
		NotificationArchiveRequest,
		NotificationArchiveResolved,
		NotificationAnalysisRejected,
		NotificationRegistrationRejected,
	}
}

func (t NotificationType) Valid() bool {
	_, ok := notificationTypeLabels[t]
	return ok
}

func (t NotificationType) Label() string { return labelOr(notificationTypeLabels, t) }

// NotificationStatus: unread -> read -> accepted|denied. Terminal states never change.
type NotificationStatus string

const (
	NotificationUnread   NotificationStatus = "unread"
	NotificationRead     NotificationStatus = "read"
	NotificationAccepted NotificationStatus = "accepted"
	NotificationDenied   NotificationStatus = "denied"
)

// Open reports whether the notification still awaits a decision.
func (s NotificationStatus) Open() bool { return s == NotificationUnread || s == NotificationRead }

var ErrNotificationAddressee = errors.New("notification must have exactly one of recipient or target role")

// Notification is a durable cross-actor request or message.
type Notification struct {
	ID              string
	RecipientID     *string
	TargetRole      *Role
	SenderID        string
	Type            NotificationType
	Payload         json.RawMessage
	RelatedEntityID string
	Status          NotificationStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate enforces the addressee invariant and the closed type set.
func (n *Notification) Validate() error {
	if (n.RecipientID == nil) == (n.TargetRole == nil) {
		return ErrNotificationAddressee
	}
	if !n.Type.Valid() {
		return errors.New("unknown notification type " + string(n.Type))
	}
	return nil
}

// ArchiveRequestPayload is carried by archive-request notifications.
type ArchiveRequestPayload struct {
	RequesterID string `json:"requesterId"`
	PartyID     string `json:"partyId"`
}

// NotificationFilter selects notifications; zero values mean no filter.
type NotificationFilter struct {
	RelatedEntityID string
	Type            NotificationType
	Statuses        []NotificationStatus
	RecipientID     string
	TargetRole      Role
	NewestFirst     bool
	Limit           int
}

// NotificationUpdate is the partial update applied to a notification. The write
// only lands while the stored status is one of From; an empty From matches any
// status.
type NotificationUpdate struct {
	Status NotificationStatus
	From   []NotificationStatus
}

// Applies reports whether the update may overwrite a notification in current.
func (u NotificationUpdate) Applies(current NotificationStatus) bool {
	if len(u.From) == 0 {
		return true
	}
	for _, st := range u.From {
		if st == current {
			return true
		}
	}
	return false
}
