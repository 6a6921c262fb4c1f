package services

import (
	"testing"
	"time"

	"saaskit/internal/models"
	apperrors "saaskit/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInvitationService(t *testing.T) (*InvitationService, *models.Organization, *models.User) {
	t.Helper()
	db := setupTestDB(t)
	organization := createTestOrganization(t, db, "Acme Inc")
	owner := createTestUser(t, db, "owner@acme.com", &organization.ID, models.RoleOwner)
	return NewInvitationService(db, nil, nil), organization, owner
}

func TestInviteCreatesPendingUser(t *testing.T) {
	svc, organization, owner := newTestInvitationService(t)

	outcome, err := svc.Invite(owner, organization, "New.Hire@acme.com")
	require.NoError(t, err)

	assert.Equal(t, "invitation_sent", outcome.Type)
	assert.Equal(t, "Invitation sent to new.hire@acme.com.", outcome.Message)
	require.NotNil(t, outcome.User)
	assert.Equal(t, "new.hire@acme.com", outcome.User.Email)
	assert.Equal(t, models.RoleMember, outcome.User.Role)
	assert.True(t, outcome.User.InvitationPending())
	require.NotNil(t, outcome.User.InvitationToken)
	// Stored value is a digest, never the raw emailed token
	assert.Len(t, *outcome.User.InvitationToken, 64)
	assert.Nil(t, outcome.User.InvitationAcceptedAt)
}

func TestInviteRejectsExistingMember(t *testing.T) {
	svc, organization, owner := newTestInvitationService(t)

	_, err := svc.Invite(owner, organization, owner.Email)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "already a member of this organization")
}

func TestInviteRejectsUserFromAnotherOrganization(t *testing.T) {
	db := setupTestDB(t)
	acme := createTestOrganization(t, db, "Acme Inc")
	rival := createTestOrganization(t, db, "Rival Corp")
	owner := createTestUser(t, db, "owner@acme.com", &acme.ID, models.RoleOwner)
	createTestUser(t, db, "taken@rival.com", &rival.ID, models.RoleMember)
	svc := NewInvitationService(db, nil, nil)

	_, err := svc.Invite(owner, acme, "taken@rival.com")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "already associated with a different organization")
}

func TestInviteValidatesEmail(t *testing.T) {
	svc, organization, owner := newTestInvitationService(t)

	_, err := svc.Invite(owner, organization, "")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "Email cannot be blank")

	_, err = svc.Invite(owner, organization, "not-an-email")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func seedPendingInvitation(t *testing.T, svc *InvitationService, organization *models.Organization, email, rawToken string) *models.User {
	t.Helper()
	digest := models.DigestInvitationToken(rawToken)
	now := time.Now()
	user := &models.User{
		Email:            email,
		OrganizationID:   &organization.ID,
		Role:             models.RoleMember,
		InvitationToken:  &digest,
		InvitationSentAt: &now,
	}
	require.NoError(t, svc.db.Create(user).Error)
	return user
}

func TestFindByTokenDigestsRawToken(t *testing.T) {
	svc, organization, _ := newTestInvitationService(t)
	seedPendingInvitation(t, svc, organization, "invited@acme.com", "raw-token-value")

	user, err := svc.FindByToken("raw-token-value")
	require.NoError(t, err)
	assert.Equal(t, "invited@acme.com", user.Email)
	require.NotNil(t, user.Organization)
	assert.Equal(t, "Acme Inc", user.Organization.Name)

	_, err = svc.FindByToken("some-other-token")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestAcceptWithPassword(t *testing.T) {
	svc, organization, _ := newTestInvitationService(t)
	seedPendingInvitation(t, svc, organization, "invited@acme.com", "raw-token-value")

	_, err := svc.AcceptWithPassword("raw-token-value", "short", "short")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 8 characters")

	_, err = svc.AcceptWithPassword("raw-token-value", "password123", "different")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "confirmation does not match")

	user, err := svc.AcceptWithPassword("raw-token-value", "password123", "password123")
	require.NoError(t, err)
	assert.Nil(t, user.InvitationToken)
	require.NotNil(t, user.InvitationAcceptedAt)
	assert.True(t, user.CheckPassword("password123"))

	// Consumed tokens stop resolving
	_, err = svc.FindByToken("raw-token-value")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestCleanupStaleExpiresOldInvitations(t *testing.T) {
	svc, organization, _ := newTestInvitationService(t)

	stale := seedPendingInvitation(t, svc, organization, "stale@acme.com", "stale-token")
	old := time.Now().AddDate(0, 0, -30)
	require.NoError(t, svc.db.Model(stale).Update("invitation_sent_at", old).Error)
	seedPendingInvitation(t, svc, organization, "fresh@acme.com", "fresh-token")

	expired, err := svc.CleanupStale(14)
	require.NoError(t, err)
	assert.Equal(t, int64(1), expired)

	_, err = svc.FindByToken("stale-token")
	require.Error(t, err)

	_, err = svc.FindByToken("fresh-token")
	require.NoError(t, err)
}
