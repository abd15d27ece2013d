package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/VictorRomo99/veterinaria-pro/internal/model"
	"github.com/VictorRomo99/veterinaria-pro/internal/repository"
)

type notificationRepository struct {
	db sqlx.ExtContext
}

func NewNotificationRepository(db *sqlx.DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (
			id, user_id, role, type, title, message, related_id, read,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	now := time.Now()
	n.ID = uuid.New()
	n.CreatedAt = now
	n.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.UserID, n.Role, n.Type, n.Title, n.Message, n.RelatedID,
		n.Read, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) Exists(ctx context.Context, typ model.NotificationType, relatedID uuid.UUID) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, r.db, &exists,
		`SELECT EXISTS (SELECT 1 FROM notifications WHERE type = $1 AND related_id = $2)`,
		typ, relatedID)
	if err != nil {
		return false, fmt.Errorf("failed to check notification: %w", err)
	}
	return exists, nil
}

func (r *notificationRepository) ListForUser(ctx context.Context, userID uuid.UUID, role model.UserRole, unreadOnly bool) ([]*model.Notification, error) {
	query := `
		SELECT * FROM notifications
		WHERE (user_id = $1 OR role = $2)
		  AND ($3 = false OR read = false)
		ORDER BY created_at DESC
		LIMIT 100`

	var notifications []*model.Notification
	if err := sqlx.SelectContext(ctx, r.db, &notifications, query, userID, role, unreadOnly); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read = true, updated_at = $1 WHERE id = $2 AND (user_id = $3 OR user_id IS NULL)`,
		time.Now(), id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID, role model.UserRole) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read = true, updated_at = $1 WHERE (user_id = $2 OR role = $3) AND read = false`,
		time.Now(), userID, role)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}
