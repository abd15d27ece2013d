package notification

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/VictorRomo99/veterinaria-pro/internal/model"
	"github.com/VictorRomo99/veterinaria-pro/internal/repository"
	"github.com/VictorRomo99/veterinaria-pro/pkg/messaging"
)

// Service persists notifications and mirrors them onto the message broker
// so connected frontends can pick them up live. Broker publish failures are
// logged, never surfaced.
type Service struct {
	repo   repository.NotificationRepository
	broker messaging.Broker
	logger zerolog.Logger
}

func NewService(repo repository.NotificationRepository, broker messaging.Broker, logger zerolog.Logger) *Service {
	return &Service{repo: repo, broker: broker, logger: logger}
}

// NotifyUser creates a notification targeted at one user.
func (s *Service) NotifyUser(ctx context.Context, userID uuid.UUID, typ model.NotificationType, title, message string, relatedID *uuid.UUID) error {
	n := &model.Notification{
		UserID:    &userID,
		Type:      typ,
		Title:     title,
		Message:   message,
		RelatedID: relatedID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	s.publish(ctx, n)
	return nil
}

// NotifyRole creates a notification visible to every user holding a role.
func (s *Service) NotifyRole(ctx context.Context, role model.UserRole, typ model.NotificationType, title, message string, relatedID *uuid.UUID) error {
	n := &model.Notification{
		Role:      &role,
		Type:      typ,
		Title:     title,
		Message:   message,
		RelatedID: relatedID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	s.publish(ctx, n)
	return nil
}

// Exists reports whether a notification of this type already references the
// entity. Used by the reminder worker to stay idempotent across sweeps.
func (s *Service) Exists(ctx context.Context, typ model.NotificationType, relatedID uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, typ, relatedID)
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, role model.UserRole, unreadOnly bool) ([]*model.Notification, error) {
	return s.repo.ListForUser(ctx, userID, role, unreadOnly)
}

func (s *Service) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.MarkRead(ctx, id, userID)
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID, role model.UserRole) error {
	return s.repo.MarkAllRead(ctx, userID, role)
}

func (s *Service) publish(ctx context.Context, n *model.Notification) {
	if s.broker == nil {
		return
	}
	payload, err := json.Marshal(n)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to marshal notification")
		return
	}
	if err := s.broker.Publish(ctx, "notifications", payload); err != nil {
		s.logger.Warn().Err(err).Str("type", string(n.Type)).Msg("failed to publish notification")
	}
}
