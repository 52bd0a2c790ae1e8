package application

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/party-lifecycle/internal/domain/entity"
)

// EventPublisher delivers notification events to the broker.
// *helpers.RabbitPublisher satisfies it.
type EventPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// PartyIndexer keeps the back-office search index in sync.
type PartyIndexer interface {
	IndexParty(ctx context.Context, p *entity.Party) error
	SearchParties(ctx context.Context, q string, size int) ([]map[string]any, error)
}

var discardLogger = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

func loggerOr(l *logrus.Logger) *logrus.Logger {
	if l == nil {
		return discardLogger
	}
	return l
}
