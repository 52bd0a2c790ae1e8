package entity

import "time"

// NotificationEvent is published to the broker after a notification-bearing
// transition commits. The notification worker turns it into an email.
type NotificationEvent struct {
	NotificationID string             `json:"notification_id,omitempty"`
	Type           NotificationType   `json:"type"`
	Status         NotificationStatus `json:"status"`
	PartyID        string             `json:"party_id"`
	PartyName      string             `json:"party_name"`
	PartyKind      PartyKind          `json:"party_kind"`
	ActorID        string             `json:"actor_id"`
	AccountStatus  AccountStatus      `json:"account_status,omitempty"`
	Reason         string             `json:"reason,omitempty"`
	OccurredAt     time.Time          `json:"occurred_at"`
}
