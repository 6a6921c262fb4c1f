package policy

import (
	"saaskit/internal/models"
)

// Action enumerates the organization-management actions gated by
// policy. Closed set: every action added here needs a rule in Can.
type Action string

const (
	ActionManageOrganization Action = "manage_organization"
	ActionInviteMember       Action = "invite_member"
	ActionRemoveMember       Action = "remove_member"
	ActionViewBilling        Action = "view_billing"
)

// DenialMessage is the uniform user-facing denial. Handlers must not
// reveal which rule failed.
const DenialMessage = "You are not authorized to perform this action."

// SelfRemovalMessage is the one deliberate exception to uniform
// denials: removing yourself is called out explicitly.
const SelfRemovalMessage = "You cannot remove yourself from the organization."

// Can decides whether actor may perform action on organization.
// Platform admins may perform any organization-management action; all
// other users must belong to the organization and hold an owner or
// admin role.
func Can(actor *models.User, organization *models.Organization, action Action) bool {
	if actor == nil {
		return false
	}
	// Platform admins carry no tenant, so this must precede the
	// organization checks.
	if actor.PlatformAdmin() {
		return true
	}
	if organization == nil {
		return false
	}
	if actor.OrganizationID == nil || *actor.OrganizationID != organization.ID {
		return false
	}

	switch action {
	case ActionManageOrganization, ActionInviteMember, ActionRemoveMember, ActionViewBilling:
		return actor.IsOwnerOrAdmin()
	default:
		return false
	}
}

// CanRemoveMember layers the self-removal rule on top of Can: no role,
// platform admin included, may remove their own membership this way.
func CanRemoveMember(actor *models.User, organization *models.Organization, member *models.User) bool {
	if actor == nil || member == nil {
		return false
	}
	if actor.ID == member.ID {
		return false
	}
	return Can(actor, organization, ActionRemoveMember)
}

// IsSelfRemoval distinguishes the self-removal denial so the handler
// can surface its dedicated message.
func IsSelfRemoval(actor *models.User, member *models.User) bool {
	return actor != nil && member != nil && actor.ID == member.ID
}
