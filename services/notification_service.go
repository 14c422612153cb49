package services

import (
	"context"

	"fitstake/domain"
	"fitstake/repositories"
)

type INotificationService interface {
	List(ctx context.Context, userID string, cursor *string) ([]domain.Notification, *string, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
}

// NotificationService is the inbox read side of the durable log: what a
// user missed while offline, and the read flag they own.
type NotificationService struct {
	notifications repositories.INotificationRepository
}

func NewNotificationService(notifications repositories.INotificationRepository) *NotificationService {
	return &NotificationService{notifications: notifications}
}

func (s *NotificationService) List(ctx context.Context, userID string, cursor *string) ([]domain.Notification, *string, error) {
	return s.notifications.ListByRecipient(userID, cursor)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.notifications.MarkRead(userID, notificationID)
}
