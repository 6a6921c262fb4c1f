package middleware

import (
	"net"
	"strings"

	"saaskit/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const ContextKeyRequestDomain = "request_domain"

type TenantMiddleware struct {
	organizationService *services.OrganizationService
}

func NewTenantMiddleware(db *gorm.DB) *TenantMiddleware {
	return &TenantMiddleware{
		organizationService: services.NewOrganizationService(db, nil),
	}
}

// ResolveByHost resolves the tenant for anonymous traffic from the
// request host: sign-up on a claimed domain auto-associates with that
// organization. Authenticated requests carry their tenant from the
// session instead; this never overrides it.
func (m *TenantMiddleware) ResolveByHost() gin.HandlerFunc {
	return func(c *gin.Context) {
		domain := RequestDomain(c)
		c.Set(ContextKeyRequestDomain, domain)

		if _, exists := c.Get(ContextKeyOrganization); !exists && domain != "" {
			organization, err := m.organizationService.GetByDomain(domain)
			if err == nil && organization != nil {
				c.Set(ContextKeyOrganization, organization)
			}
		}

		c.Next()
	}
}

// RequestDomain extracts the bare hostname from the request, without
// port or leading www.
func RequestDomain(c *gin.Context) string {
	host := c.Request.Host
	if host == "" {
		return ""
	}
	if stripped, _, err := net.SplitHostPort(host); err == nil {
		host = stripped
	}
	host = strings.ToLower(host)
	return strings.TrimPrefix(host, "www.")
}
