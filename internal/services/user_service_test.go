package services

import (
	"testing"

	"saaskit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAutoJoinsOrganizationByDomain(t *testing.T) {
	db := setupTestDB(t)
	domain := "acme.com"
	organization := &models.Organization{Name: "Acme Inc", Domain: &domain}
	require.NoError(t, db.Create(organization).Error)
	svc := NewUserService(db)

	user, err := svc.Register(&RegisterRequest{
		Name:                 "New Member",
		Email:                "new@acme.com",
		Password:             "password123",
		PasswordConfirmation: "password123",
	}, "acme.com")
	require.NoError(t, err)

	require.NotNil(t, user.OrganizationID)
	assert.Equal(t, organization.ID, *user.OrganizationID)
	assert.Equal(t, models.RoleMember, user.Role)
	assert.True(t, user.Onboarded())
}

func TestRegisterWithoutClaimedDomain(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService(db)

	user, err := svc.Register(&RegisterRequest{
		Name:                 "Solo Founder",
		Email:                "founder@newco.com",
		Password:             "password123",
		PasswordConfirmation: "password123",
	}, "unclaimed.com")
	require.NoError(t, err)

	assert.Nil(t, user.OrganizationID)
	assert.False(t, user.Onboarded())
}

func TestAuthenticateUniformFailureMessage(t *testing.T) {
	db := setupTestDB(t)
	organization := createTestOrganization(t, db, "Acme Inc")
	createTestUser(t, db, "member@acme.com", &organization.ID, models.RoleMember)
	svc := NewUserService(db)

	// Wrong password and unknown email fail identically, so the
	// response does not leak which emails have accounts.
	_, wrongPassword := svc.Authenticate("member@acme.com", "bad-password")
	require.Error(t, wrongPassword)
	_, unknownEmail := svc.Authenticate("ghost@acme.com", "bad-password")
	require.Error(t, unknownEmail)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())

	user, err := svc.Authenticate("member@acme.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "member@acme.com", user.Email)
}
