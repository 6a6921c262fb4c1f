package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"saaskit/internal/models"
	apperrors "saaskit/pkg/errors"
	"saaskit/pkg/logger"
	"saaskit/pkg/result"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// InvitationService runs the invitation workflow: a short pipeline of
// validate -> conflict check -> create+send, with a rollback hook that
// logs partially created invitations for manual follow-up.
type InvitationService struct {
	db           *gorm.DB
	log          *logrus.Logger
	validate     *validator.Validate
	mailer       *Mailer
	notification *NotificationService
}

func NewInvitationService(db *gorm.DB, mailer *Mailer, notification *NotificationService) *InvitationService {
	return &InvitationService{
		db:           db,
		log:          logger.GetLogger(),
		validate:     validator.New(),
		mailer:       mailer,
		notification: notification,
	}
}

// invitationPayload is the state threaded through the pipeline steps
type invitationPayload struct {
	Email        string
	Inviter      *models.User
	Organization *models.Organization
	InvitedUser  *models.User
	RawToken     string
	Message      string
}

// InvitationOutcome is the structured success payload
type InvitationOutcome struct {
	Type    string       `json:"type"`
	User    *models.User `json:"user"`
	Message string       `json:"message"`
}

// Invite runs one invitation attempt end to end
func (s *InvitationService) Invite(inviter *models.User, organization *models.Organization, email string) (*InvitationOutcome, error) {
	payload := invitationPayload{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Inviter:      inviter,
		Organization: organization,
	}

	res := result.Run(payload,
		result.Step[invitationPayload]{Run: s.validateInput},
		result.Step[invitationPayload]{Run: s.checkExistingUser},
		result.Step[invitationPayload]{Run: s.inviteUser, Rollback: s.logFailedInvitationAttempt},
		result.Step[invitationPayload]{Run: s.sendInvitationEmail},
	)
	if res.Failure() {
		return nil, res.Error()
	}

	final := res.Value()
	if s.notification != nil {
		s.notification.NotifyOrganizationManagers(organization.ID, inviter.ID,
			final.Email+" has been invited to "+organization.Name+".",
			"/organization/manage", "user-plus")
	}

	return &InvitationOutcome{
		Type:    "invitation_sent",
		User:    final.InvitedUser,
		Message: final.Message,
	}, nil
}

func (s *InvitationService) validateInput(p invitationPayload) result.Result[invitationPayload] {
	if p.Email == "" {
		return result.Err[invitationPayload](apperrors.Validation("email", "Validation failed: Email cannot be blank."))
	}
	if err := s.validate.Var(p.Email, "email"); err != nil {
		return result.Err[invitationPayload](apperrors.Validation("email", "Validation failed: Invalid email format."))
	}
	if p.Inviter == nil || p.Organization == nil || p.Organization.ID == 0 {
		return result.Err[invitationPayload](apperrors.Validation("", "Validation failed: Inviter and organization must be present."))
	}
	return result.Ok(p)
}

func (s *InvitationService) checkExistingUser(p invitationPayload) result.Result[invitationPayload] {
	var existing models.User
	err := s.db.Where("email = ?", p.Email).First(&existing).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return result.Ok(p)
		}
		return result.Err[invitationPayload](err)
	}

	if existing.OrganizationID != nil && *existing.OrganizationID == p.Organization.ID {
		return result.Err[invitationPayload](apperrors.Conflict(
			"Could not invite user: %s is already a member of this organization.", p.Email))
	}
	return result.Err[invitationPayload](apperrors.Conflict(
		"Could not invite user: %s is already associated with a different organization.", p.Email))
}

func (s *InvitationService) inviteUser(p invitationPayload) result.Result[invitationPayload] {
	rawToken, err := generateInvitationToken()
	if err != nil {
		return result.Err[invitationPayload](apperrors.InvitationFailed(
			"An unexpected error occurred during invitation.", nil))
	}

	digest := models.DigestInvitationToken(rawToken)
	now := time.Now()
	invitedUser := &models.User{
		Email:            p.Email,
		OrganizationID:   &p.Organization.ID,
		Role:             models.RoleMember,
		InvitationToken:  &digest,
		InvitationSentAt: &now,
	}

	if err := s.db.Create(invitedUser).Error; err != nil {
		s.log.WithError(err).WithField("email", p.Email).Error("Invitation persistence failed")
		return result.Err[invitationPayload](apperrors.InvitationFailed(
			"Failed to send invitation: "+persistenceMessage(err),
			map[string]string{"email": persistenceMessage(err)}))
	}

	p.InvitedUser = invitedUser
	p.RawToken = rawToken
	return result.Ok(p)
}

// sendInvitationEmail queues the acceptance email; failure here fires
// the invite rollback hook (log only, the row is kept for follow-up).
func (s *InvitationService) sendInvitationEmail(p invitationPayload) result.Result[invitationPayload] {
	inviterName := ""
	if p.Inviter != nil {
		inviterName = p.Inviter.Name
	}
	if err := s.mailer.SendInvitation(p.Email, p.RawToken, p.Organization.Name, inviterName); err != nil {
		return result.Err[invitationPayload](apperrors.InvitationFailed(
			"Failed to send invitation: email delivery is unavailable.", nil))
	}

	p.Message = fmt.Sprintf("Invitation sent to %s.", p.Email)
	return result.Ok(p)
}

// logFailedInvitationAttempt runs when a step after creation fails:
// the partially created invitation stays in place and is logged for
// manual follow-up rather than silently deleted.
func (s *InvitationService) logFailedInvitationAttempt(p invitationPayload) {
	email := ""
	if p.InvitedUser != nil {
		email = p.InvitedUser.Email
	}
	s.log.WithFields(logrus.Fields{
		"email":           email,
		"organization_id": p.Organization.ID,
	}).Warn("Invitation rollback triggered after user creation; record kept for manual follow-up")
}

// FindByToken resolves a pending invitation by re-deriving the digest
// of the raw token. Absent and already-accepted tokens are rejected
// identically.
func (s *InvitationService) FindByToken(rawToken string) (*models.User, error) {
	if rawToken == "" {
		return nil, apperrors.NotFound("Invalid or expired invitation token.")
	}

	digest := models.DigestInvitationToken(rawToken)
	var user models.User
	err := s.db.Preload("Organization").Where("invitation_token = ?", digest).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("Invalid or expired invitation token.")
		}
		return nil, err
	}
	if !user.InvitationPending() {
		return nil, apperrors.NotFound("Invalid or expired invitation token.")
	}
	return &user, nil
}

// FindPendingByEmail resolves a pending invitation by email; used by
// the OAuth callback to auto-accept for SSO organizations.
func (s *InvitationService) FindPendingByEmail(email string) (*models.User, error) {
	var user models.User
	err := s.db.Preload("Organization").
		Where("email = ? AND invitation_token IS NOT NULL AND invitation_accepted_at IS NULL",
			strings.ToLower(email)).
		First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("No pending invitation.")
		}
		return nil, err
	}
	return &user, nil
}

// AcceptWithPassword consumes the token and sets the credentials
func (s *InvitationService) AcceptWithPassword(rawToken, password, passwordConfirmation string) (*models.User, error) {
	user, err := s.FindByToken(rawToken)
	if err != nil {
		return nil, err
	}

	if len(password) < 8 {
		return nil, apperrors.Validation("password", "Password must be at least 8 characters.")
	}
	if password != passwordConfirmation {
		return nil, apperrors.Validation("password_confirmation", "Password confirmation does not match.")
	}

	if err := user.SetPassword(password); err != nil {
		return nil, err
	}
	if err := s.consume(user); err != nil {
		return nil, err
	}
	return user, nil
}

// AcceptWithoutPassword consumes the token for SSO users: a random
// internal credential placeholder is assigned, never shown to anyone.
func (s *InvitationService) AcceptWithoutPassword(user *models.User, provider, uid, name string) error {
	if user.PasswordHash == "" {
		if err := user.SetPassword(RandomCredential()); err != nil {
			return err
		}
	}
	if provider != "" {
		user.Provider = &provider
	}
	if uid != "" {
		user.UID = &uid
	}
	if name != "" && user.Name == "" {
		user.Name = name
	}
	return s.consume(user)
}

func (s *InvitationService) consume(user *models.User) error {
	now := time.Now()
	user.InvitationAcceptedAt = &now
	user.InvitationToken = nil

	err := s.db.Model(user).
		Updates(map[string]interface{}{
			"password_hash":          user.PasswordHash,
			"invitation_accepted_at": user.InvitationAcceptedAt,
			"invitation_token":       nil,
			"provider":               user.Provider,
			"uid":                    user.UID,
			"name":                   user.Name,
		}).Error
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("Invitation accepted")
	return nil
}

// CleanupStale expires invitations unaccepted past the validity window
// by nulling their tokens, so stale links stop resolving.
func (s *InvitationService) CleanupStale(validityDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -validityDays)
	res := s.db.Model(&models.User{}).
		Where("invitation_token IS NOT NULL AND invitation_accepted_at IS NULL AND invitation_sent_at < ?", cutoff).
		Update("invitation_token", nil)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func generateInvitationToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func persistenceMessage(err error) string {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate") {
		return "email has already been taken"
	}
	return "could not save the invited user"
}
