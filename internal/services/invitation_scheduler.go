package services

import (
	"fmt"

	"saaskit/pkg/config"
	"saaskit/pkg/logger"

	"github.com/robfig/cron/v3"
)

// InvitationScheduler periodically expires stale pending invitations so
// unused tokens do not remain redeemable forever.
type InvitationScheduler struct {
	invitations *InvitationService
	cfg         *config.Config
	cron        *cron.Cron
	running     bool
}

func NewInvitationScheduler(invitations *InvitationService, cfg *config.Config) *InvitationScheduler {
	return &InvitationScheduler{
		invitations: invitations,
		cfg:         cfg,
		cron:        cron.New(),
	}
}

// Start schedules the daily cleanup and runs one pass immediately.
func (s *InvitationScheduler) Start() error {
	if s.running {
		return fmt.Errorf("invitation scheduler already running")
	}

	_, err := s.cron.AddFunc("0 3 * * *", s.runCleanup)
	if err != nil {
		return fmt.Errorf("failed to schedule invitation cleanup: %v", err)
	}

	s.cron.Start()
	s.running = true
	logger.GetLogger().Infof("Invitation scheduler started, expiring invitations older than %d days", s.cfg.Invitation.ValidityDays)

	go s.runCleanup()
	return nil
}

func (s *InvitationScheduler) Stop() {
	if !s.running {
		return
	}
	s.cron.Stop()
	s.running = false
	logger.GetLogger().Info("Invitation scheduler stopped")
}

func (s *InvitationScheduler) runCleanup() {
	expired, err := s.invitations.CleanupStale(s.cfg.Invitation.ValidityDays)
	if err != nil {
		logger.GetLogger().Errorf("Invitation cleanup failed: %v", err)
		return
	}
	if expired > 0 {
		logger.GetLogger().Infof("Invitation cleanup expired %d stale invitations", expired)
	}
}
