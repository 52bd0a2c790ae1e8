package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/party-lifecycle/internal/domain/entity"
	"github.com/oksasatya/party-lifecycle/internal/domain/repository"
)

const partyColumns = `
	id, kind, name, tax_document, email, phone,
	street, number, complement, district, city, state, postal_code,
	workflow_step, analysis_outcome, analysis_reason, has_password,
	registration_outcome, registration_reason, password_hash,
	account_status, previous_account_status, version, created_at, updated_at`

type PartyRepository struct {
	pool *pgxpool.Pool
}

func NewPartyRepository(pool *pgxpool.Pool) *PartyRepository {
	return &PartyRepository{pool: pool}
}

func scanParty(row pgx.Row) (*entity.Party, error) {
	p := &entity.Party{}
	var previous *string
	if err := row.Scan(
		&p.ID, &p.Kind, &p.Name, &p.TaxDocument, &p.Email, &p.Phone,
		&p.Address.Street, &p.Address.Number, &p.Address.Complement, &p.Address.District,
		&p.Address.City, &p.Address.State, &p.Address.PostalCode,
		&p.WorkflowStep, &p.AnalysisOutcome, &p.AnalysisReason, &p.HasPassword,
		&p.RegistrationOutcome, &p.RegistrationReason, &p.PasswordHash,
		&p.AccountStatus, &previous, &p.Version, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if previous != nil {
		s := entity.AccountStatus(*previous)
		p.PreviousAccountStatus = &s
	}
	return p, nil
}

func (r *PartyRepository) Create(ctx context.Context, p *entity.Party) error {
	row := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO parties (kind, name, tax_document, email, phone,
			street, number, complement, district, city, state, postal_code,
			workflow_step, analysis_outcome, analysis_reason, has_password,
			registration_outcome, registration_reason, password_hash,
			account_status, previous_account_status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
		RETURNING id, version, created_at, updated_at
	`, p.Kind, p.Name, p.TaxDocument, p.Email, p.Phone,
		p.Address.Street, p.Address.Number, p.Address.Complement, p.Address.District,
		p.Address.City, p.Address.State, p.Address.PostalCode,
		p.WorkflowStep, p.AnalysisOutcome, p.AnalysisReason, p.HasPassword,
		p.RegistrationOutcome, p.RegistrationReason, p.PasswordHash,
		p.AccountStatus, statusOrNil(p.PreviousAccountStatus))

	if err := row.Scan(&p.ID, &p.Version, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return mapErr(err)
	}
	return nil
}

func (r *PartyRepository) GetByID(ctx context.Context, id string) (*entity.Party, error) {
	p, err := scanParty(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+partyColumns+` FROM parties WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return p, nil
}

func (r *PartyRepository) List(ctx context.Context, f entity.PartyFilter) ([]entity.Party, error) {
	q := `SELECT ` + partyColumns + ` FROM parties WHERE ($1 = '' OR kind = $1) AND ($2 = '' OR account_status = $2)
		ORDER BY created_at DESC`
	args := []any{string(f.Kind), string(f.Status)}
	if f.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", f.Limit)
	}
	if f.Offset > 0 {
		q += fmt.Sprintf(" OFFSET %d", f.Offset)
	}
	rows, err := conn(ctx, r.pool).Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []entity.Party{}
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PartyRepository) UpdateOnboarding(ctx context.Context, id string, expectedVersion int64, u entity.OnboardingUpdate) error {
	f := u.Flags
	res, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE parties
		SET workflow_step = $1, analysis_outcome = $2, analysis_reason = $3, has_password = $4,
			registration_outcome = $5, registration_reason = $6,
			password_hash = COALESCE($7, password_hash),
			version = version + 1, updated_at = now()
		WHERE id = $8 AND version = $9
	`, f.WorkflowStep, f.AnalysisOutcome, f.AnalysisReason, f.HasPassword,
		f.RegistrationOutcome, f.RegistrationReason, u.PasswordHash, id, expectedVersion)
	if err != nil {
		return mapErr(err)
	}
	if res.RowsAffected() == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

func (r *PartyRepository) UpdateAccountStatus(ctx context.Context, id string, expected entity.AccountStatus, u entity.AccountStatusUpdate) error {
	res, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE parties
		SET account_status = $1, previous_account_status = $2,
			version = version + 1, updated_at = now()
		WHERE id = $3 AND account_status = $4
	`, u.Status, statusOrNil(u.Previous), id, expected)
	if err != nil {
		return mapErr(err)
	}
	if res.RowsAffected() == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

// missOrConflict tells a guarded update that matched nothing apart from a
// missing row.
func (r *PartyRepository) missOrConflict(ctx context.Context, id string) error {
	var exists bool
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM parties WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

func statusOrNil(s *entity.AccountStatus) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}

// mapErr translates pgx errors into repository sentinels.
func mapErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "40001":
			return fmt.Errorf("%w: %s", repository.ErrConflict, pgErr.ConstraintName)
		case "22P02", "23503":
			// malformed uuid or dangling reference
			return repository.ErrNotFound
		}
	}
	return err
}

var _ repository.PartyRepository = (*PartyRepository)(nil)
