package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/party-lifecycle/config"
	"github.com/oksasatya/party-lifecycle/internal/domain/entity"
	"github.com/oksasatya/party-lifecycle/internal/infrastructure/memory"
)

type sentMail struct{ to, subject, text, html string }

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeSender) Send(_ context.Context, to, subject, text, html string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, subject, text, html})
	return nil
}

// ackRecorder implements amqp.Acknowledger.
type ackRecorder struct {
	mu      sync.Mutex
	acks    int
	nacks   int
	requeue []bool
}

func (a *ackRecorder) Ack(uint64, bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acks++
	return nil
}

func (a *ackRecorder) Nack(_ uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacks++
	a.requeue = append(a.requeue, requeue)
	return nil
}

func (a *ackRecorder) Reject(tag uint64, requeue bool) error { return a.Nack(tag, false, requeue) }

func newMailer(t *testing.T) (*NotificationMailer, *memory.Store, *fakeSender) {
	t.Helper()
	store := memory.NewStore()
	cfg := &config.Config{AppName: "party-lifecycle", ApproverEmail: "approvals@example.com", BackofficeURL: "https://bo.example.com/parties/"}
	sender := &fakeSender{}
	return NewNotificationMailer(cfg, store.Parties(), sender, nil), store, sender
}

func event(t *testing.T, ev entity.NotificationEvent) []byte {
	t.Helper()
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	return b
}

func TestArchiveRequestGoesToApproverMailbox(t *testing.T) {
	m, _, sender := newMailer(t)
	err := m.Handle(context.Background(), event(t, entity.NotificationEvent{
		Type:          entity.NotificationArchiveRequest,
		Status:        entity.NotificationUnread,
		PartyID:       "p-1",
		PartyName:     "João Lima",
		PartyKind:     entity.PartyClient,
		AccountStatus: entity.StatusArchiving,
		OccurredAt:    time.Now(),
	}))
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "approvals@example.com", sender.sent[0].to)
	assert.Contains(t, sender.sent[0].subject, "João Lima")
	assert.Contains(t, sender.sent[0].html, "https://bo.example.com/parties/p-1")
}

func TestRejectionGoesToParty(t *testing.T) {
	m, store, sender := newMailer(t)
	p := &entity.Party{Kind: entity.PartyExecutive, Profile: entity.Profile{Name: "Ana", Email: "ana@example.com"}, AccountStatus: entity.StatusPending}
	require.NoError(t, store.Parties().Create(context.Background(), p))

	err := m.Handle(context.Background(), event(t, entity.NotificationEvent{
		Type:    entity.NotificationAnalysisRejected,
		PartyID: p.ID,
		Reason:  "documento ilegível",
	}))
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "ana@example.com", sender.sent[0].to)
	assert.Contains(t, sender.sent[0].text, "documento ilegível")
}

func TestResolvedCarriesDecision(t *testing.T) {
	m, _, _ := newMailer(t)
	job, err := m.Build(context.Background(), entity.NotificationEvent{
		Type:      entity.NotificationArchiveResolved,
		Status:    entity.NotificationDenied,
		PartyID:   "p-1",
		PartyName: "João",
	})
	require.NoError(t, err)
	assert.Equal(t, "archive_resolved", job.Template)
	assert.Contains(t, job.Subject, "negada")
}

func TestHandleErrors(t *testing.T) {
	m, _, sender := newMailer(t)
	ctx := context.Background()

	assert.ErrorIs(t, m.Handle(ctx, []byte("{not json")), errPermanent)
	assert.ErrorIs(t, m.Handle(ctx, event(t, entity.NotificationEvent{Type: "login"})), errPermanent)
	assert.ErrorIs(t, m.Handle(ctx, event(t, entity.NotificationEvent{Type: entity.NotificationRegistrationRejected, PartyID: "missing"})), errPermanent)

	m.Cfg.ApproverEmail = ""
	assert.ErrorIs(t, m.Handle(ctx, event(t, entity.NotificationEvent{Type: entity.NotificationArchiveRequest})), ErrNoRecipient)

	m.Cfg.ApproverEmail = "approvals@example.com"
	sender.err = errors.New("mailgun 503")
	err := m.Handle(ctx, event(t, entity.NotificationEvent{Type: entity.NotificationArchiveRequest}))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, errPermanent)
}

func TestConsumeAcksAndNacks(t *testing.T) {
	m, _, sender := newMailer(t)
	acks := &ackRecorder{}
	deliveries := make(chan amqp.Delivery, 3)
	deliveries <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 1, Body: event(t, entity.NotificationEvent{Type: entity.NotificationArchiveRequest})}
	deliveries <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 2, Body: []byte("garbage")}
	close(deliveries)

	m.Consume(context.Background(), deliveries)
	assert.Equal(t, 1, acks.acks)
	assert.Equal(t, 1, acks.nacks)
	assert.Equal(t, []bool{false}, acks.requeue)
	assert.Len(t, sender.sent, 1)

	sender.err = errors.New("mailgun 503")
	retry := make(chan amqp.Delivery, 2)
	retry <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 3, Body: event(t, entity.NotificationEvent{Type: entity.NotificationArchiveRequest})}
	retry <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 4, Redelivered: true, Body: event(t, entity.NotificationEvent{Type: entity.NotificationArchiveRequest})}
	close(retry)
	m.Consume(context.Background(), retry)
	assert.Equal(t, []bool{false, true, false}, acks.requeue)
}
