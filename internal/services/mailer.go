package services

import (
	"context"
	"time"

	"saaskit/pkg/config"
	"saaskit/pkg/logger"
	"saaskit/pkg/queue"
)

// Mailer enqueues outbound email jobs; an external worker performs the
// actual delivery.
type Mailer struct {
	queue *queue.MailQueue
	cfg   *config.Config
}

func NewMailer(mailQueue *queue.MailQueue, cfg *config.Config) *Mailer {
	return &Mailer{queue: mailQueue, cfg: cfg}
}

// SendInvitation queues the acceptance email. The raw token is
// embedded in the link and exists nowhere else.
func (m *Mailer) SendInvitation(email, rawToken, organizationName, inviterName string) error {
	if m == nil || m.queue == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	acceptURL := m.cfg.App.BaseURL + "/invitation/accept?token=" + rawToken
	err := m.queue.Enqueue(ctx, email,
		"You have been invited to join "+organizationName,
		"invitation",
		map[string]interface{}{
			"accept_url":   acceptURL,
			"organization": organizationName,
			"inviter":      inviterName,
			"app_name":     m.cfg.App.Name,
		})
	if err != nil {
		logger.GetLogger().WithError(err).WithField("email", email).Error("Failed to enqueue invitation email")
	}
	return err
}
