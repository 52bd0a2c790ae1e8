package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/party-lifecycle/internal/domain/entity"
)

// Store-level facts. Implementations return these (optionally wrapped) so the
// application layer can translate them into its own error taxonomy.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// PartyRepository persists parties. Conditional updates return ErrConflict when
// the row exists but the guard no longer matches.
type PartyRepository interface {
	Create(ctx context.Context, p *entity.Party) error
	GetByID(ctx context.Context, id string) (*entity.Party, error)
	List(ctx context.Context, f entity.PartyFilter) ([]entity.Party, error)
	// UpdateOnboarding applies u only if the stored version equals expectedVersion.
	UpdateOnboarding(ctx context.Context, id string, expectedVersion int64, u entity.OnboardingUpdate) error
	// UpdateAccountStatus applies u only if the stored status equals expected.
	UpdateAccountStatus(ctx context.Context, id string, expected entity.AccountStatus, u entity.AccountStatusUpdate) error
}

type PaymentMethodRepository interface {
	Create(ctx context.Context, pm *entity.PaymentMethod) error
	ListByParty(ctx context.Context, partyID string) ([]entity.PaymentMethod, error)
}

type DocumentRepository interface {
	Create(ctx context.Context, d *entity.Document) error
	ListByParty(ctx context.Context, partyID string) ([]entity.Document, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) (string, error)
	GetByID(ctx context.Context, id string) (*entity.Notification, error)
	Query(ctx context.Context, f entity.NotificationFilter) ([]entity.Notification, error)
	Update(ctx context.Context, id string, u entity.NotificationUpdate) error
}

// Transactor runs fn so that every repository call made with the context it
// receives commits or rolls back together.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
