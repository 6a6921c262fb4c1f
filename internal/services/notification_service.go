package services

import (
	"saaskit/internal/models"
	apperrors "saaskit/pkg/errors"
	"saaskit/pkg/logger"
	"saaskit/pkg/pagination"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// NotificationService owns the per-user mailbox: persisted records plus
// live fan-out to open client views.
type NotificationService struct {
	db  *gorm.DB
	log *logrus.Logger
	hub *NotificationHub
}

func NewNotificationService(db *gorm.DB, hub *NotificationHub) *NotificationService {
	return &NotificationService{
		db:  db,
		log: logger.GetLogger(),
		hub: hub,
	}
}

// Notify persists a notification and fans it out to the recipient's
// open views together with the refreshed unread count.
func (s *NotificationService) Notify(recipientID uint, message, url, icon string) (*models.Notification, error) {
	notification := &models.Notification{
		RecipientID: recipientID,
		Message:     message,
		URL:         url,
		Icon:        icon,
	}
	if err := s.db.Create(notification).Error; err != nil {
		s.log.WithError(err).WithField("recipient_id", recipientID).Error("Failed to create notification")
		return nil, err
	}

	s.broadcast(recipientID, notification)
	return notification, nil
}

// NotifyOrganizationManagers fans a notification out to every owner
// and admin of the organization except the acting user.
func (s *NotificationService) NotifyOrganizationManagers(organizationID, actorID uint, message, url, icon string) {
	var managers []models.User
	err := s.db.Where("organization_id = ? AND role IN ?", organizationID,
		[]models.Role{models.RoleAdmin, models.RoleOwner}).Find(&managers).Error
	if err != nil {
		s.log.WithError(err).WithField("organization_id", organizationID).Error("Failed to load organization managers")
		return
	}

	for _, manager := range managers {
		if manager.ID == actorID {
			continue
		}
		if _, err := s.Notify(manager.ID, message, url, icon); err != nil {
			s.log.WithError(err).WithField("recipient_id", manager.ID).Warn("Manager notification not delivered")
		}
	}
}

// ListUnread returns the recipient's unread notifications newest first
func (s *NotificationService) ListUnread(recipientID uint) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.db.Scopes(models.Unread, models.NewestFirst).
		Where("recipient_id = ?", recipientID).
		Find(&notifications).Error
	return notifications, err
}

// List returns one page of the recipient's notifications, read and
// unread alike, newest first, plus the total row count.
func (s *NotificationService) List(recipientID uint, params *pagination.PageParams) ([]models.Notification, int64, error) {
	var total int64
	err := s.db.Model(&models.Notification{}).
		Where("recipient_id = ?", recipientID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var notifications []models.Notification
	err = s.db.Scopes(models.NewestFirst).
		Where("recipient_id = ?", recipientID).
		Offset(params.GetOffset()).
		Limit(params.GetLimit()).
		Find(&notifications).Error
	return notifications, total, err
}

func (s *NotificationService) UnreadCount(recipientID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.Notification{}).
		Scopes(models.Unread).
		Where("recipient_id = ?", recipientID).
		Count(&count).Error
	return count, err
}

// MarkAsRead transitions one notification to read. Marking an already
// read notification again is a no-op, not an error.
func (s *NotificationService) MarkAsRead(recipientID, notificationID uint) (*models.Notification, error) {
	var notification models.Notification
	err := s.db.Where("recipient_id = ? AND id = ?", recipientID, notificationID).First(&notification).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("Notification not found.")
		}
		return nil, err
	}

	if notification.Read() {
		return &notification, nil
	}

	notification.MarkAsRead()
	if err := s.db.Model(&notification).Update("read_at", notification.ReadAt).Error; err != nil {
		return nil, err
	}

	s.pushUnreadCount(recipientID)
	return &notification, nil
}

// MarkAllAsRead transitions every unread notification of the recipient
func (s *NotificationService) MarkAllAsRead(recipientID uint) error {
	err := s.db.Model(&models.Notification{}).
		Scopes(models.Unread).
		Where("recipient_id = ?", recipientID).
		Update("read_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
	if err != nil {
		return err
	}

	s.pushUnreadCount(recipientID)
	return nil
}

func (s *NotificationService) broadcast(recipientID uint, notification *models.Notification) {
	if s.hub == nil {
		return
	}
	unread, _ := s.UnreadCount(recipientID)
	s.hub.Send(recipientID, map[string]interface{}{
		"type":         "notification",
		"notification": notification,
		"unread_count": unread,
	})
}

func (s *NotificationService) pushUnreadCount(recipientID uint) {
	if s.hub == nil {
		return
	}
	unread, _ := s.UnreadCount(recipientID)
	s.hub.Send(recipientID, map[string]interface{}{
		"type":         "unread_count",
		"unread_count": unread,
	})
}
