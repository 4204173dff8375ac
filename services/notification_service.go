package services

import (
	"fmt"
	"time"

	"conference-api/config"
	"conference-api/models"

	"gorm.io/gorm"
)

// NotificationService writes in-app notification rows for speakers.
type NotificationService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	if db == nil {
		db = config.DB
	}
	return &NotificationService{db: db, now: time.Now}
}

func (s *NotificationService) Create(userID uint, title, message, notifType string, submissionID *uint) error {
	notification := models.Notification{
		UserID:              userID,
		Title:               title,
		Message:             message,
		Type:                notifType,
		RelatedSubmissionID: submissionID,
		IsRead:              false,
		CreateAt:            s.now(),
	}
	if err := s.db.Create(&notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// NotifyEmailSent records that a decision email went out to the speaker.
func (s *NotificationService) NotifyEmailSent(email *models.ScheduledEmail, speakerID int) error {
	title := "Your proposal has been accepted"
	notifType := "success"
	if email.EmailType == models.EmailTypeRejection {
		title = "Update on your proposal"
		notifType = "info"
	}
	submissionID := uint(email.SubmissionID)
	message := fmt.Sprintf("A decision email for submission #%d was sent to your address.", email.SubmissionID)
	return s.Create(uint(speakerID), title, message, notifType, &submissionID)
}

func (s *NotificationService) ListForUser(userID uint, unreadOnly bool) ([]models.Notification, error) {
	query := s.db.Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	var rows []models.Notification
	if err := query.Order("notification_id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load notifications: %w", err)
	}
	return rows, nil
}

func (s *NotificationService) MarkRead(userID uint, notificationID uint) error {
	now := s.now()
	res := s.db.Model(&models.Notification{}).
		Where("notification_id = ? AND user_id = ?", notificationID, userID).
		Updates(map[string]interface{}{"is_read": true, "update_at": now})
	if res.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
