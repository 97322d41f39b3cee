package service

import (
	"context"

	"joblet/internal/domain"
	"joblet/internal/models"

	"github.com/rs/zerolog"
)

// NotificationService is a thin authorization wrapper over the repository.
// Notification rows themselves are written inside the booking and chat
// transactions, so listing is all that is left to do here.
type NotificationService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewNotificationService(repo domain.Repository, logger *zerolog.Logger) *NotificationService {
	return &NotificationService{repo: repo, logger: logger}
}

func (s *NotificationService) List(ctx context.Context, recipientID int64, unreadOnly bool) ([]*models.Notification, error) {
	return s.repo.GetNotifications(ctx, recipientID, unreadOnly)
}

func (s *NotificationService) UnreadCount(ctx context.Context, recipientID int64) (int, error) {
	return s.repo.GetUnreadCount(ctx, recipientID)
}

func (s *NotificationService) MarkRead(ctx context.Context, notificationID, recipientID int64) error {
	return s.repo.MarkNotificationRead(ctx, notificationID, recipientID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID int64) error {
	return s.repo.MarkAllNotificationsRead(ctx, recipientID)
}
