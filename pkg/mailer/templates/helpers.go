package templates

import (
	"strings"
	"time"

	"github.com/oksasatya/party-lifecycle/config"
)

// Option pattern
type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02/01/2006 15:04")
	}
}

func WithReason(reason string) Option {
	return func(d *EmailData) { d.Reason = strings.TrimSpace(reason) }
}

func WithDecision(label string) Option { return func(d *EmailData) { d.DecisionLabel = label } }

func WithParty(id, name, kindLabel, statusLabel string) Option {
	return func(d *EmailData) {
		d.PartyID = id
		d.PartyName = name
		d.PartyKindLabel = kindLabel
		d.AccountStatusLabel = statusLabel
	}
}

// WithActionURL links the email to the party page in the back office.
func WithActionURL(base, partyID string) Option {
	return func(d *EmailData) {
		if base = strings.TrimRight(strings.TrimSpace(base), "/"); base != "" && partyID != "" {
			d.ActionURL = base + "/" + partyID
		}
	}
}

// NewBaseEmailData fills the common fields from config, then applies opts.
func NewBaseEmailData(cfg *config.Config, typ, name, recipient string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		RecipientEmail: recipient,
		Type:           typ,

		CompanyName:    cfg.CompanyName,
		CompanyAddress: cfg.CompanyAddress,
		AppName:        cfg.AppName,

		LogoURL:    cfg.LogoURL,
		SupportURL: cfg.SupportURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}
