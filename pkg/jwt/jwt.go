package jwt

import (
	"errors"
	"sync"
	"time"

	"saaskit/pkg/config"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the signed session payload issued at login.
type SessionClaims struct {
	UserID          uint   `json:"user_id"`
	OrganizationID  uint   `json:"organization_id"` // 0 for users without an organization
	Email           string `json:"email"`
	Role            int    `json:"role"`
	IsPlatformAdmin bool   `json:"is_platform_admin"`
	jwt.RegisteredClaims
}

// StateClaims is the short-lived token carried through an enterprise
// OAuth round trip: it pins the provider and the email the user typed
// so the callback can resolve a pending invitation.
type StateClaims struct {
	Provider string `json:"provider"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

type Manager struct {
	secretKey     string
	tokenDuration time.Duration
	stateDuration time.Duration
}

func NewManager(secretKey string, tokenDuration, stateDuration time.Duration) *Manager {
	return &Manager{
		secretKey:     secretKey,
		tokenDuration: tokenDuration,
		stateDuration: stateDuration,
	}
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the singleton manager built from config.
func GetManager() *Manager {
	managerOnce.Do(func() {
		cfg := config.GetConfig()

		tokenDuration, err := time.ParseDuration(cfg.JWT.TokenDuration)
		if err != nil {
			tokenDuration = 24 * time.Hour
		}
		stateDuration, err := time.ParseDuration(cfg.JWT.StateDuration)
		if err != nil {
			stateDuration = 10 * time.Minute
		}

		globalManager = NewManager(cfg.JWT.SecretKey, tokenDuration, stateDuration)
	})
	return globalManager
}

// GenerateToken issues a session token.
func (m *Manager) GenerateToken(userID, organizationID uint, email string, role int, isPlatformAdmin bool) (string, error) {
	claims := SessionClaims{
		UserID:          userID,
		OrganizationID:  organizationID,
		Email:           email,
		Role:            role,
		IsPlatformAdmin: isPlatformAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.secretKey))
}

// VerifyToken parses and validates a session token.
func (m *Manager) VerifyToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(m.secretKey), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// GenerateStateToken issues the OAuth round-trip state token.
func (m *Manager) GenerateStateToken(provider, email string) (string, error) {
	claims := StateClaims{
		Provider: provider,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.stateDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.secretKey))
}

// VerifyStateToken parses and validates an OAuth state token.
func (m *Manager) VerifyStateToken(tokenString string) (*StateClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &StateClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(m.secretKey), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*StateClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid state token")
	}
	return claims, nil
}
