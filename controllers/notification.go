package controllers

import (
	"errors"
	"net/http"

	"conference-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetNotifications lists the caller's in-app notifications.
func GetNotifications(c *gin.Context) {
	unreadOnly := c.Query("unread") == "1"

	service := services.NewNotificationService(nil)
	notifications, err := service.ListForUser(uint(getCurrentUserID(c)), unreadOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"total":         len(notifications),
	})
}

// MarkNotificationRead marks one of the caller's notifications as read.
func MarkNotificationRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	service := services.NewNotificationService(nil)
	err := service.MarkRead(uint(getCurrentUserID(c)), uint(id))
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Notification marked read"})
	}
}
