package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/party-lifecycle/internal/domain/entity"
	"github.com/oksasatya/party-lifecycle/internal/domain/repository"
)

const notificationColumns = `id, recipient_id, target_role, sender_id, type, payload, related_entity_id, status, created_at, updated_at`

type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func scanNotification(row pgx.Row) (*entity.Notification, error) {
	n := &entity.Notification{}
	var role *string
	var payload []byte
	if err := row.Scan(&n.ID, &n.RecipientID, &role, &n.SenderID, &n.Type, &payload,
		&n.RelatedEntityID, &n.Status, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	if role != nil {
		r := entity.Role(*role)
		n.TargetRole = &r
	}
	n.Payload = payload
	return n, nil
}

func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) (string, error) {
	if err := n.Validate(); err != nil {
		return "", err
	}
	if n.Status == "" {
		n.Status = entity.NotificationUnread
	}
	var role *string
	if n.TargetRole != nil {
		v := string(*n.TargetRole)
		role = &v
	}
	payload := []byte(n.Payload)
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	row := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO notifications (recipient_id, target_role, sender_id, type, payload, related_entity_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, n.RecipientID, role, n.SenderID, n.Type, payload, n.RelatedEntityID, n.Status)
	if err := row.Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return "", mapErr(err)
	}
	return n.ID, nil
}

func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*entity.Notification, error) {
	n, err := scanNotification(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return n, nil
}

// buildNotificationQuery turns a filter into SQL. Recipient and role filters
// are OR-ed so an inbox holds direct and role-addressed items.
func buildNotificationQuery(f entity.NotificationFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.RelatedEntityID != "" {
		where = append(where, "related_entity_id = "+arg(f.RelatedEntityID))
	}
	if f.Type != "" {
		where = append(where, "type = "+arg(string(f.Type)))
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		where = append(where, "status = ANY("+arg(statuses)+")")
	}
	switch {
	case f.RecipientID != "" && f.TargetRole != "":
		where = append(where, fmt.Sprintf("(recipient_id = %s OR target_role = %s)", arg(f.RecipientID), arg(string(f.TargetRole))))
	case f.RecipientID != "":
		where = append(where, "recipient_id = "+arg(f.RecipientID))
	case f.TargetRole != "":
		where = append(where, "target_role = "+arg(string(f.TargetRole)))
	}

	q := `SELECT ` + notificationColumns + ` FROM notifications`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	if f.NewestFirst {
		q += " ORDER BY created_at DESC, id DESC"
	} else {
		q += " ORDER BY created_at ASC, id ASC"
	}
	if f.Limit > 0 {
		q += " LIMIT " + arg(f.Limit)
	}
	return q, args
}

func (r *NotificationRepository) Query(ctx context.Context, f entity.NotificationFilter) ([]entity.Notification, error) {
	q, args := buildNotificationQuery(f)
	rows, err := conn(ctx, r.pool).Query(ctx, q, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := []entity.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func (r *NotificationRepository) Update(ctx context.Context, id string, u entity.NotificationUpdate) error {
	q, args := buildNotificationUpdate(id, u)
	res, err := conn(ctx, r.pool).Exec(ctx, q, args...)
	if err != nil {
		return mapErr(err)
	}
	if res.RowsAffected() > 0 {
		return nil
	}
	var exists bool
	if err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM notifications WHERE id = $1)`, id).Scan(&exists); err != nil {
		return mapErr(err)
	}
	if exists {
		return repository.ErrConflict
	}
	return repository.ErrNotFound
}

// buildNotificationUpdate guards the write on the expected statuses so a
// terminal status is never overwritten by a stale caller.
func buildNotificationUpdate(id string, u entity.NotificationUpdate) (string, []any) {
	q := `UPDATE notifications SET status = $1, updated_at = now() WHERE id = $2`
	args := []any{u.Status, id}
	if len(u.From) > 0 {
		from := make([]string, len(u.From))
		for i, st := range u.From {
			from[i] = string(st)
		}
		q += ` AND status = ANY($3)`
		args = append(args, from)
	}
	return q, args
}

var _ repository.NotificationRepository = (*NotificationRepository)(nil)
