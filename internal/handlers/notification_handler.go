package handlers

import (
	"strconv"

	"saaskit/internal/middleware"
	"saaskit/internal/services"
	"saaskit/pkg/pagination"
	"saaskit/pkg/response"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List returns the unread notifications, newest first, with the badge
// count.
func (h *NotificationHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)

	notifications, err := h.notificationService.ListUnread(user.ID)
	if err != nil {
		response.AppError(c, err)
		return
	}
	count, err := h.notificationService.UnreadCount(user.ID)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, gin.H{
		"notifications": notifications,
		"unread_count":  count,
	})
}

// History returns the recipient's full notification feed, read and
// unread alike, one page at a time.
func (h *NotificationHandler) History(c *gin.Context) {
	user := middleware.CurrentUser(c)
	params := pagination.ParsePageParams(c)

	notifications, total, err := h.notificationService.List(user.ID, params)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.SuccessWithPage(c, notifications, pagination.NewPageInfo(params.Page, params.PageSize, total))
}

// MarkAsRead transitions one notification to read; reading an already
// read notification succeeds without change.
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	user := middleware.CurrentUser(c)

	notificationID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "Invalid notification id.")
		return
	}

	notification, err := h.notificationService.MarkAsRead(user.ID, uint(notificationID))
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, notification)
}

// MarkAllAsRead clears the unread set in one pass
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	user := middleware.CurrentUser(c)

	if err := h.notificationService.MarkAllAsRead(user.ID); err != nil {
		response.AppError(c, err)
		return
	}
	response.SuccessWithMessage(c, "All notifications marked as read.", nil)
}
