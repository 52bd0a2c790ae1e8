package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/party-lifecycle/internal/domain/entity"
	"github.com/oksasatya/party-lifecycle/internal/domain/repository"
)

// Store keeps every table in process memory. It is used by tests and by local
// runs without Postgres. WithinTx serialises transactions and, when fn fails,
// restores only the keys fn wrote; writes made outside the transaction survive.
type Store struct {
	mu            sync.RWMutex
	txMu          sync.Mutex
	parties       map[string]entity.Party
	payments      map[string]entity.PaymentMethod
	documents     map[string]entity.Document
	notifications map[string]entity.Notification
	now           func() time.Time
	seq           int64
}

func NewStore() *Store {
	return &Store{
		parties:       make(map[string]entity.Party),
		payments:      make(map[string]entity.PaymentMethod),
		documents:     make(map[string]entity.Document),
		notifications: make(map[string]entity.Notification),
		now:           time.Now,
	}
}

func (s *Store) Parties() *PartyRepository             { return &PartyRepository{s: s} }
func (s *Store) PaymentMethods() *PaymentRepository    { return &PaymentRepository{s: s} }
func (s *Store) Documents() *DocumentRepository        { return &DocumentRepository{s: s} }
func (s *Store) Notifications() *NotificationRepository { return &NotificationRepository{s: s} }

// tick returns a strictly increasing timestamp so newest-first ordering is stable.
func (s *Store) tick() time.Time {
	s.seq++
	return s.now().Add(time.Duration(s.seq) * time.Microsecond)
}

type journalKey struct{}

// journal records the prior value of every key a transaction writes so a
// rollback only undoes that transaction's own writes.
type journal struct{ undo []func() }

// record must be called with s.mu held for writing, before m[id] changes.
func record[V any](ctx context.Context, m map[string]V, id string) {
	j, ok := ctx.Value(journalKey{}).(*journal)
	if !ok {
		return
	}
	old, had := m[id]
	j.undo = append(j.undo, func() {
		if had {
			m[id] = old
		} else {
			delete(m, id)
		}
	})
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	j := &journal{}
	if err := fn(context.WithValue(ctx, journalKey{}, j)); err != nil {
		s.mu.Lock()
		for i := len(j.undo) - 1; i >= 0; i-- {
			j.undo[i]()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

type PartyRepository struct{ s *Store }

func (r *PartyRepository) Create(ctx context.Context, p *entity.Party) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, exists := r.s.parties[p.ID]; exists {
		return repository.ErrConflict
	}
	p.CreatedAt = r.s.tick()
	p.UpdatedAt = p.CreatedAt
	record(ctx, r.s.parties, p.ID)
	r.s.parties[p.ID] = clonePartyValue(*p)
	return nil
}

func (r *PartyRepository) GetByID(_ context.Context, id string) (*entity.Party, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.parties[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := clonePartyValue(p)
	return &out, nil
}

func (r *PartyRepository) List(_ context.Context, f entity.PartyFilter) ([]entity.Party, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]entity.Party, 0, len(r.s.parties))
	for _, p := range r.s.parties {
		if f.Kind != "" && p.Kind != f.Kind {
			continue
		}
		if f.Status != "" && p.AccountStatus != f.Status {
			continue
		}
		out = append(out, clonePartyValue(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, f.Offset, f.Limit), nil
}

func (r *PartyRepository) UpdateOnboarding(ctx context.Context, id string, expectedVersion int64, u entity.OnboardingUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.parties[id]
	if !ok {
		return repository.ErrNotFound
	}
	if p.Version != expectedVersion {
		return repository.ErrConflict
	}
	p.OnboardingFlags = u.Flags
	if u.PasswordHash != nil {
		p.PasswordHash = *u.PasswordHash
	}
	p.Version++
	p.UpdatedAt = r.s.tick()
	record(ctx, r.s.parties, id)
	r.s.parties[id] = p
	return nil
}

func (r *PartyRepository) UpdateAccountStatus(ctx context.Context, id string, expected entity.AccountStatus, u entity.AccountStatusUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.parties[id]
	if !ok {
		return repository.ErrNotFound
	}
	if p.AccountStatus != expected {
		return repository.ErrConflict
	}
	p.AccountStatus = u.Status
	p.PreviousAccountStatus = cloneStatus(u.Previous)
	p.Version++
	p.UpdatedAt = r.s.tick()
	record(ctx, r.s.parties, id)
	r.s.parties[id] = p
	return nil
}

type PaymentRepository struct{ s *Store }

func (r *PaymentRepository) Create(ctx context.Context, pm *entity.PaymentMethod) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if pm.IsPrimary {
		for _, other := range r.s.payments {
			if other.PartyID == pm.PartyID && other.IsPrimary {
				return repository.ErrConflict
			}
		}
	}
	if pm.ID == "" {
		pm.ID = uuid.NewString()
	}
	pm.CreatedAt = r.s.tick()
	record(ctx, r.s.payments, pm.ID)
	r.s.payments[pm.ID] = *pm
	return nil
}

func (r *PaymentRepository) ListByParty(_ context.Context, partyID string) ([]entity.PaymentMethod, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []entity.PaymentMethod{}
	for _, pm := range r.s.payments {
		if pm.PartyID == partyID {
			out = append(out, pm)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type DocumentRepository struct{ s *Store }

func (r *DocumentRepository) Create(ctx context.Context, d *entity.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.CreatedAt = r.s.tick()
	record(ctx, r.s.documents, d.ID)
	r.s.documents[d.ID] = *d
	return nil
}

func (r *DocumentRepository) ListByParty(_ context.Context, partyID string) ([]entity.Document, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []entity.Document{}
	for _, d := range r.s.documents {
		if d.PartyID == partyID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type NotificationRepository struct{ s *Store }

func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) (string, error) {
	if err := n.Validate(); err != nil {
		return "", err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Status == "" {
		n.Status = entity.NotificationUnread
	}
	n.CreatedAt = r.s.tick()
	n.UpdatedAt = n.CreatedAt
	record(ctx, r.s.notifications, n.ID)
	r.s.notifications[n.ID] = *n
	return n.ID, nil
}

func (r *NotificationRepository) GetByID(_ context.Context, id string) (*entity.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n, ok := r.s.notifications[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &n, nil
}

func (r *NotificationRepository) Query(_ context.Context, f entity.NotificationFilter) ([]entity.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []entity.Notification{}
	for _, n := range r.s.notifications {
		if matches(n, f) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if f.NewestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return paginate(out, 0, f.Limit), nil
}

func (r *NotificationRepository) Update(ctx context.Context, id string, u entity.NotificationUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !u.Applies(n.Status) {
		return repository.ErrConflict
	}
	n.Status = u.Status
	n.UpdatedAt = r.s.tick()
	record(ctx, r.s.notifications, id)
	r.s.notifications[id] = n
	return nil
}

func matches(n entity.Notification, f entity.NotificationFilter) bool {
	if f.RelatedEntityID != "" && n.RelatedEntityID != f.RelatedEntityID {
		return false
	}
	if f.Type != "" && n.Type != f.Type {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, st := range f.Statuses {
			if n.Status == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	// Recipient and role filters are alternatives: an inbox holds both.
	if f.RecipientID != "" || f.TargetRole != "" {
		toUser := f.RecipientID != "" && n.RecipientID != nil && *n.RecipientID == f.RecipientID
		toRole := f.TargetRole != "" && n.TargetRole != nil && *n.TargetRole == f.TargetRole
		if !toUser && !toRole {
			return false
		}
	}
	return true
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func clonePartyValue(p entity.Party) entity.Party {
	p.PreviousAccountStatus = cloneStatus(p.PreviousAccountStatus)
	return p
}

func cloneStatus(s *entity.AccountStatus) *entity.AccountStatus {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

var (
	_ repository.PartyRepository         = (*PartyRepository)(nil)
	_ repository.PaymentMethodRepository = (*PaymentRepository)(nil)
	_ repository.DocumentRepository      = (*DocumentRepository)(nil)
	_ repository.NotificationRepository  = (*NotificationRepository)(nil)
	_ repository.Transactor              = (*Store)(nil)
)
