package application

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/party-lifecycle/internal/domain/entity"
	repo "github.com/oksasatya/party-lifecycle/internal/domain/repository"
)

// NotificationService exposes an actor's inbox: notifications addressed to the
// actor directly or to the actor's role.
type NotificationService struct {
	Repo   repo.NotificationRepository
	Logger *logrus.Logger
}

func NewNotificationService(r repo.NotificationRepository, logger *logrus.Logger) *NotificationService {
	return &NotificationService{Repo: r, Logger: logger}
}

func (s *NotificationService) Inbox(ctx context.Context, actor entity.Actor, onlyOpen bool, limit int) ([]entity.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	f := entity.NotificationFilter{
		RecipientID: actor.ID,
		TargetRole:  actor.Role,
		NewestFirst: true,
		Limit:       limit,
	}
	if onlyOpen {
		f.Statuses = []entity.NotificationStatus{entity.NotificationUnread, entity.NotificationRead}
	}
	items, err := s.Repo.Query(ctx, f)
	if err != nil {
		return nil, storeErr("query inbox", err)
	}
	return items, nil
}

// MarkRead moves an unread notification to read. Any other status is left
// untouched so accepted/denied stay terminal.
func (s *NotificationService) MarkRead(ctx context.Context, id string, actor entity.Actor) (*entity.Notification, error) {
	n, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get notification", err)
	}
	if !addressedTo(n, actor) {
		return nil, forbidden("notification is not addressed to the caller")
	}
	if n.Status != entity.NotificationUnread {
		return n, nil
	}
	err = s.Repo.Update(ctx, id, entity.NotificationUpdate{
		Status: entity.NotificationRead,
		From:   []entity.NotificationStatus{entity.NotificationUnread},
	})
	if errors.Is(err, repo.ErrConflict) {
		// Resolved or read by someone else since the load; report what is stored.
		current, gerr := s.Repo.GetByID(ctx, id)
		if gerr != nil {
			return nil, storeErr("get notification", gerr)
		}
		return current, nil
	}
	if err != nil {
		return nil, storeErr("mark notification read", err)
	}
	n.Status = entity.NotificationRead
	loggerOr(s.Logger).WithFields(logrus.Fields{"notification_id": id, "actor_id": actor.ID}).Debug("notification read")
	return n, nil
}

func addressedTo(n *entity.Notification, actor entity.Actor) bool {
	if n.RecipientID != nil {
		return *n.RecipientID == actor.ID
	}
	return n.TargetRole != nil && *n.TargetRole == actor.Role
}
