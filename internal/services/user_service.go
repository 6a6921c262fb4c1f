package services

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"saaskit/internal/models"
	apperrors "saaskit/pkg/errors"
	"saaskit/pkg/logger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// UserService covers account lookup, registration and password login
type UserService struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{
		db:  db,
		log: logger.GetLogger(),
	}
}

func (s *UserService) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := s.db.Preload("Organization").First(&user, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("User not found.")
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserService) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := s.db.Preload("Organization").Where("email = ?", strings.ToLower(email)).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("User not found.")
		}
		return nil, err
	}
	return &user, nil
}

// RegisterRequest is the sign-up input
type RegisterRequest struct {
	Name                 string `json:"name" binding:"required,max=50"`
	Email                string `json:"email" binding:"required,email"`
	Password             string `json:"password" binding:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required,eqfield=Password"`
}

// Register creates a password account. When the request's domain maps
// to an existing organization the new user auto-joins it as a member;
// otherwise they proceed to onboarding without an organization.
func (s *UserService) Register(req *RegisterRequest, requestDomain string) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var existing models.User
	if err := s.db.Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, apperrors.Conflict("An account already exists for %s.", email)
	}

	user := &models.User{
		Name:  req.Name,
		Email: email,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, err
	}

	if requestDomain != "" {
		var organization models.Organization
		if err := s.db.Where("domain = ?", requestDomain).First(&organization).Error; err == nil {
			user.OrganizationID = &organization.ID
			user.Role = models.RoleMember
		}
	}

	if err := s.db.Create(user).Error; err != nil {
		s.log.WithError(err).Error("Failed to create user account")
		return nil, err
	}

	return user, nil
}

// Authenticate verifies a password login
func (s *UserService) Authenticate(email, password string) (*models.User, error) {
	user, err := s.GetByEmail(email)
	if err != nil {
		return nil, apperrors.Authorization("Invalid email or password.")
	}
	if !user.CheckPassword(password) {
		return nil, apperrors.Authorization("Invalid email or password.")
	}
	return user, nil
}

// FindOrCreateFromOAuth resolves an account by (provider, uid),
// creating one with a random internal credential placeholder when no
// account exists yet.
func (s *UserService) FindOrCreateFromOAuth(provider, uid, email, name string) (*models.User, error) {
	var user models.User
	err := s.db.Where("provider = ? AND uid = ?", provider, uid).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperrors.Validation("email", "Provider did not supply an email address.")
	}

	user = models.User{
		Email:    email,
		Name:     name,
		Provider: &provider,
		UID:      &uid,
	}
	if err := user.SetPassword(RandomCredential()); err != nil {
		return nil, err
	}

	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// RandomCredential generates the placeholder password assigned to
// accounts that authenticate externally and never set one themselves.
func RandomCredential() string {
	bytes := make([]byte, 20)
	if _, err := rand.Read(bytes); err != nil {
		// crypto/rand failing means the process is unusable anyway
		panic(err)
	}
	return hex.EncodeToString(bytes)
}
