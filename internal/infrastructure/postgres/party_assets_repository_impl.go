package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/party-lifecycle/internal/domain/entity"
	"github.com/oksasatya/party-lifecycle/internal/domain/repository"
)

type PaymentMethodRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentMethodRepository(pool *pgxpool.Pool) *PaymentMethodRepository {
	return &PaymentMethodRepository{pool: pool}
}

func (r *PaymentMethodRepository) Create(ctx context.Context, pm *entity.PaymentMethod) error {
	row := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO payment_methods (party_id, bank_code, agency, account, pix_key, is_primary, is_valid)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, pm.PartyID, pm.BankCode, pm.Agency, pm.Account, pm.PixKey, pm.IsPrimary, pm.IsValid)
	return mapErr(row.Scan(&pm.ID, &pm.CreatedAt))
}

func (r *PaymentMethodRepository) ListByParty(ctx context.Context, partyID string) ([]entity.PaymentMethod, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, party_id, bank_code, agency, account, pix_key, is_primary, is_valid, created_at
		FROM payment_methods
		WHERE party_id = $1
		ORDER BY created_at
	`, partyID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := []entity.PaymentMethod{}
	for rows.Next() {
		var pm entity.PaymentMethod
		if err := rows.Scan(&pm.ID, &pm.PartyID, &pm.BankCode, &pm.Agency, &pm.Account, &pm.PixKey,
			&pm.IsPrimary, &pm.IsValid, &pm.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, pm)
	}
	return out, rows.Err()
}

type DocumentRepository struct {
	pool *pgxpool.Pool
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

func (r *DocumentRepository) Create(ctx context.Context, d *entity.Document) error {
	row := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO documents (party_id, category, type, status, file_name)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, d.PartyID, d.Category, d.Type, d.Status, d.FileName)
	return mapErr(row.Scan(&d.ID, &d.CreatedAt))
}

func (r *DocumentRepository) ListByParty(ctx context.Context, partyID string) ([]entity.Document, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, party_id, category, type, status, file_name, created_at
		FROM documents
		WHERE party_id = $1
		ORDER BY created_at
	`, partyID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := []entity.Document{}
	for rows.Next() {
		var d entity.Document
		if err := rows.Scan(&d.ID, &d.PartyID, &d.Category, &d.Type, &d.Status, &d.FileName, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

var (
	_ repository.PaymentMethodRepository = (*PaymentMethodRepository)(nil)
	_ repository.DocumentRepository      = (*DocumentRepository)(nil)
)
