package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role orders organization privileges: member < admin < owner
type Role int

const (
	RoleMember Role = 0
	RoleAdmin  Role = 1
	RoleOwner  Role = 2
)

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleAdmin:
		return "admin"
	default:
		return "member"
	}
}

// User belongs to at most one organization. Platform admins carry no
// tenant restriction. Invitation state lives directly on the row: a
// digested token plus sent/accepted timestamps.
type User struct {
	BaseModel
	OrganizationID *uint         `json:"organization_id" gorm:"index"`
	Organization   *Organization `json:"organization,omitempty"`

	Email        string `json:"email" gorm:"unique;not null;size:200;index"`
	Name         string `json:"name" gorm:"size:100"`
	PasswordHash string `json:"-" gorm:"size:255"`
	Role         Role   `json:"role" gorm:"not null;default:0;index"`

	InvitationToken      *string    `json:"-" gorm:"uniqueIndex;size:64"`
	InvitationSentAt     *time.Time `json:"invitation_sent_at"`
	InvitationAcceptedAt *time.Time `json:"invitation_accepted_at"`

	Provider *string `json:"provider" gorm:"size:50"`
	UID      *string `json:"uid" gorm:"size:191"`

	IsAdmin bool `json:"is_admin" gorm:"default:false"`
}

func (u *User) TableName() string {
	return "users"
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// PlatformAdmin reports whether the user bypasses tenant scoping
func (u *User) PlatformAdmin() bool {
	return u.IsAdmin
}

// IsOwnerOrAdmin reports whether the user holds an organization
// management role.
func (u *User) IsOwnerOrAdmin() bool {
	return u.Role == RoleOwner || u.Role == RoleAdmin
}

// Onboarded reports whether the user is already attached to an
// organization.
func (u *User) Onboarded() bool {
	return u.OrganizationID != nil && *u.OrganizationID != 0
}

// InvitationPending reports whether an issued token is still usable.
// A token is consumed the moment the invitation is accepted.
func (u *User) InvitationPending() bool {
	return u.InvitationToken != nil && *u.InvitationToken != "" && u.InvitationAcceptedAt == nil
}

// DigestInvitationToken derives the stored one-way digest of a raw
// invitation token. Only the digest is ever persisted; the raw token
// lives solely in the emailed acceptance link.
func DigestInvitationToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
