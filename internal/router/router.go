package router

import (
	"saaskit/internal/database"
	"saaskit/internal/handlers"
	"saaskit/internal/middleware"
	"saaskit/internal/services"
	"saaskit/pkg/config"
	"saaskit/pkg/response"
	"saaskit/pkg/stripe"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func SetupRouter() *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.SetupCORS())

	registerRoutes(router, database.GetDB())
	return router
}

func registerRoutes(router *gin.Engine, db *gorm.DB) {
	cfg := config.GetConfig()

	auth := middleware.NewAuthMiddleware(db)
	tenant := middleware.NewTenantMiddleware(db)

	// Service graph
	hub := services.GetNotificationHub()
	notificationService := services.NewNotificationService(db, hub)
	userService := services.NewUserService(db)
	organizationService := services.NewOrganizationService(db, notificationService)
	mailer := services.NewMailer(database.GetMailQueue(), cfg)
	invitationService := services.NewInvitationService(db, mailer, notificationService)
	ssoService := services.NewSSOService(db)
	oauthService := services.NewOAuthService(db, userService, invitationService, ssoService)
	stripeClient := stripe.NewClient(cfg.Stripe.APIBase, cfg.Stripe.SecretKey)
	billingService := services.NewBillingService(db, organizationService, stripeClient, cfg)
	pricingService := services.NewPricingService()

	authHandler := handlers.NewAuthHandler(userService)
	enterpriseHandler := handlers.NewEnterpriseOauthHandler(ssoService)
	callbackHandler := handlers.NewOAuthCallbackHandler(oauthService, ssoService)
	invitationHandler := handlers.NewInvitationHandler(invitationService, ssoService)
	organizationHandler := handlers.NewOrganizationHandler(organizationService, userService)
	billingHandler := handlers.NewBillingHandler(billingService, pricingService)
	webhookHandler := handlers.NewWebhookHandler(billingService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	websocketHandler := handlers.NewWebSocketHandler(hub)

	router.GET("/health", healthCheck)

	// Processor webhooks authenticate by signature, not session
	router.POST("/webhooks/stripe", webhookHandler.HandleStripe)

	// Session and sign-up; tenant resolved from the request host so
	// sign-up on a claimed domain auto-joins that organization.
	authGroup := router.Group("/auth", tenant.ResolveByHost())
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/me", auth.RequireLogin(), authHandler.Me)
		authGroup.GET("/:provider/callback", callbackHandler.Callback)
	}

	// Enterprise single sign-on
	router.GET("/enterprise_configurations/check_domain", enterpriseHandler.CheckDomain)
	router.POST("/enterprise_oauth/initiate", enterpriseHandler.Initiate)

	// Invitation acceptance is reached from an emailed link, pre-auth
	router.GET("/invitation/accept", invitationHandler.Show)
	router.PATCH("/invitation", invitationHandler.Accept)

	router.POST("/onboarding/organization", auth.RequireLogin(), tenant.ResolveByHost(), organizationHandler.Onboard)

	organization := router.Group("/organization", auth.RequireLogin(), auth.RequireOrganization())
	{
		organization.GET("/manage", auth.RequireManager(), organizationHandler.Manage)
		organization.PATCH("/manage", auth.RequireManager(), organizationHandler.Rename)
		organization.DELETE("/members/:id", organizationHandler.RemoveMember)
		organization.POST("/invitations", invitationHandler.Create)
		organization.GET("/pricing", billingHandler.Pricing)
	}

	router.GET("/subscriptions/checkout_session", auth.RequireLogin(), auth.RequireOrganization(), billingHandler.CheckoutSession)

	notifications := router.Group("/notifications", auth.RequireLogin())
	{
		notifications.GET("", notificationHandler.List)
		notifications.GET("/history", notificationHandler.History)
		notifications.PATCH("/:id/mark_as_read", notificationHandler.MarkAsRead)
		notifications.PATCH("/mark_all_as_read", notificationHandler.MarkAllAsRead)
	}

	router.GET("/ws/notifications", websocketHandler.Notifications)

	router.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "Resource not found.")
	})
}

func healthCheck(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}
