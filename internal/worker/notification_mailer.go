package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/party-lifecycle/config"
	"github.com/oksasatya/party-lifecycle/internal/domain/entity"
	"github.com/oksasatya/party-lifecycle/internal/domain/repository"
	"github.com/oksasatya/party-lifecycle/pkg/helpers"
	"github.com/oksasatya/party-lifecycle/pkg/mailer"
	mailtpl "github.com/oksasatya/party-lifecycle/pkg/mailer/templates"
)

// ErrNoRecipient means the event has nobody to email; the message is dropped.
var ErrNoRecipient = errors.New("no email recipient")

// errPermanent marks messages that will never succeed on retry.
var errPermanent = errors.New("permanent failure")

// Sender delivers one email. *mailer.Mailgun satisfies it.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// NotificationMailer turns notification events from the broker into emails.
// Role-addressed and archive events go to the approver mailbox; rejections
// go to the party's own address.
type NotificationMailer struct {
	Cfg         *config.Config
	Parties     repository.PartyRepository
	Sender      Sender
	Logger      *logrus.Logger
	SendTimeout time.Duration
}

func NewNotificationMailer(cfg *config.Config, parties repository.PartyRepository, sender Sender, logger *logrus.Logger) *NotificationMailer {
	return &NotificationMailer{Cfg: cfg, Parties: parties, Sender: sender, Logger: logger, SendTimeout: 15 * time.Second}
}

func decisionLabel(s entity.NotificationStatus) string {
	switch s {
	case entity.NotificationAccepted:
		return "aceita"
	case entity.NotificationDenied:
		return "negada"
	default:
		return ""
	}
}

func (m *NotificationMailer) recipient(ctx context.Context, ev entity.NotificationEvent) (string, string, error) {
	switch ev.Type {
	case entity.NotificationArchiveRequest, entity.NotificationArchiveResolved:
		if strings.TrimSpace(m.Cfg.ApproverEmail) == "" {
			return "", "", ErrNoRecipient
		}
		return m.Cfg.ApproverEmail, "", nil
	case entity.NotificationAnalysisRejected, entity.NotificationRegistrationRejected:
		if m.Parties == nil {
			return "", "", ErrNoRecipient
		}
		p, err := m.Parties.GetByID(ctx, ev.PartyID)
		if errors.Is(err, repository.ErrNotFound) {
			return "", "", fmt.Errorf("%w: party %s: %w", errPermanent, ev.PartyID, err)
		}
		if err != nil {
			return "", "", err
		}
		if strings.TrimSpace(p.Email) == "" {
			return "", "", ErrNoRecipient
		}
		return p.Email, p.Name, nil
	default:
		return "", "", fmt.Errorf("%w: unknown notification type %q", errPermanent, ev.Type)
	}
}

// Build resolves the recipient and renders the email for ev.
func (m *NotificationMailer) Build(ctx context.Context, ev entity.NotificationEvent) (*mailer.EmailJob, error) {
	to, name, err := m.recipient(ctx, ev)
	if err != nil {
		return nil, err
	}
	tpl := helpers.TemplateForNotification(string(ev.Type))
	data := mailtpl.NewBaseEmailData(m.Cfg, string(ev.Type), name, to,
		mailtpl.WithParty(ev.PartyID, ev.PartyName, ev.PartyKind.Label(), ev.AccountStatus.Label()),
		mailtpl.WithReason(ev.Reason),
		mailtpl.WithDecision(decisionLabel(ev.Status)),
		mailtpl.WithTime(ev.OccurredAt),
		mailtpl.WithActionURL(m.Cfg.BackofficeURL, ev.PartyID),
	)
	job := &mailer.EmailJob{To: to, Template: tpl, Data: mailtpl.ToMap(data)}
	helpers.EnsureRecipientAndEmail(job)

	job.Subject, job.Text, job.HTML, err = mailtpl.Render(job.Template, job.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: render %s: %w", errPermanent, job.Template, err)
	}
	job.Subject = strings.TrimSpace(job.Subject)
	return job, nil
}

// Handle processes one message body. A nil error or ErrNoRecipient means the
// message is done; errPermanent means drop it; anything else is retryable.
func (m *NotificationMailer) Handle(ctx context.Context, body []byte) error {
	var ev entity.NotificationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: decode event: %w", errPermanent, err)
	}
	job, err := m.Build(ctx, ev)
	if err != nil {
		return err
	}
	c, cancel := context.WithTimeout(ctx, m.SendTimeout)
	defer cancel()
	if err := m.Sender.Send(c, job.To, job.Subject, job.Text, job.HTML); err != nil {
		return fmt.Errorf("send %s: %w", job.Template, err)
	}
	return nil
}

// Consume drains deliveries until the channel closes or ctx ends, acking or
// requeueing each message according to Handle's result.
func (m *NotificationMailer) Consume(ctx context.Context, deliveries <-chan amqp.Delivery) {
	log := m.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-deliveries:
			if !ok {
				return
			}
			err := m.Handle(ctx, msg.Body)
			fields := logrus.Fields{"delivery_tag": msg.DeliveryTag}
			switch {
			case err == nil:
				_ = msg.Ack(false)
			case errors.Is(err, ErrNoRecipient):
				log.WithFields(fields).Debug("notification has no email recipient")
				_ = msg.Ack(false)
			case errors.Is(err, errPermanent):
				helpers.LogError(log, "dropping notification message", err, fields)
				_ = msg.Nack(false, false)
			default:
				helpers.LogError(log, "notification email failed, requeueing", err, fields)
				_ = msg.Nack(false, !msg.Redelivered)
			}
		}
	}
}
