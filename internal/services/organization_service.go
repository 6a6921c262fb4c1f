package services

import (
	"strings"

	"saaskit/internal/models"
	apperrors "saaskit/pkg/errors"
	"saaskit/pkg/logger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// OrganizationService covers tenant lookup, onboarding and membership
type OrganizationService struct {
	db           *gorm.DB
	log          *logrus.Logger
	notification *NotificationService
}

func NewOrganizationService(db *gorm.DB, notification *NotificationService) *OrganizationService {
	return &OrganizationService{
		db:           db,
		log:          logger.GetLogger(),
		notification: notification,
	}
}

func (s *OrganizationService) GetByID(id uint) (*models.Organization, error) {
	var organization models.Organization
	err := s.db.First(&organization, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("Organization not found.")
		}
		return nil, err
	}
	return &organization, nil
}

// GetByDomain resolves the tenant for an unauthenticated request on a
// tenant-specific domain. Nil without error when the domain maps to no
// organization.
func (s *OrganizationService) GetByDomain(domain string) (*models.Organization, error) {
	if domain == "" {
		return nil, nil
	}
	var organization models.Organization
	err := s.db.Where("domain = ?", strings.ToLower(domain)).First(&organization).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &organization, nil
}

func (s *OrganizationService) GetByStripeCustomerID(customerID string) (*models.Organization, error) {
	var organization models.Organization
	err := s.db.Where("stripe_customer_id = ?", customerID).First(&organization).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("Organization not found.")
		}
		return nil, err
	}
	return &organization, nil
}

// CreateWithOwner finishes onboarding: the signed-in user creates the
// organization and becomes its owner. Users already attached to an
// organization cannot create another.
func (s *OrganizationService) CreateWithOwner(owner *models.User, name, domain string) (*models.Organization, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.Validation("name", "Organization name cannot be blank.")
	}
	if owner.Onboarded() {
		return nil, apperrors.Conflict("You have already completed onboarding.")
	}

	organization := &models.Organization{Name: strings.TrimSpace(name)}
	if domain != "" {
		normalized := strings.ToLower(domain)
		organization.Domain = &normalized
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(organization).Error; err != nil {
			return err
		}
		update := map[string]interface{}{
			"organization_id": organization.ID,
			"role":            models.RoleOwner,
		}
		return tx.Model(&models.User{}).Where("id = ?", owner.ID).Updates(update).Error
	})
	if err != nil {
		s.log.WithError(err).Error("Failed to create organization")
		return nil, err
	}

	owner.OrganizationID = &organization.ID
	owner.Role = models.RoleOwner
	return organization, nil
}

// Rename updates the display name; the slug follows automatically
func (s *OrganizationService) Rename(organization *models.Organization, name string) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.Validation("name", "Organization name cannot be blank.")
	}
	organization.Name = strings.TrimSpace(name)
	return s.db.Save(organization).Error
}

// Members lists the organization's users
func (s *OrganizationService) Members(organizationID uint) ([]models.User, error) {
	var members []models.User
	err := s.db.Where("organization_id = ?", organizationID).Order("created_at ASC").Find(&members).Error
	return members, err
}

// GetMember resolves a user scoped to the organization
func (s *OrganizationService) GetMember(organizationID, memberID uint) (*models.User, error) {
	var member models.User
	err := s.db.Where("organization_id = ? AND id = ?", organizationID, memberID).First(&member).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("Member not found in your organization.")
		}
		return nil, err
	}
	return &member, nil
}

// RemoveMember deletes the member's account and notifies the remaining
// organization managers.
func (s *OrganizationService) RemoveMember(actor *models.User, organization *models.Organization, member *models.User) error {
	if err := s.db.Delete(member).Error; err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"organization_id": organization.ID,
			"member_id":       member.ID,
		}).Error("Failed to remove member")
		return err
	}

	s.log.WithFields(logrus.Fields{
		"organization_id": organization.ID,
		"member_email":    member.Email,
		"removed_by":      actor.ID,
	}).Info("Member removed from organization")

	if s.notification != nil {
		s.notification.NotifyOrganizationManagers(organization.ID, actor.ID,
			"Member "+member.Email+" has been removed from "+organization.Name+".",
			"/organization/manage", "user-minus")
	}
	return nil
}
