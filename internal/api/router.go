package api

import (
	"github.com/gin-gonic/gin"
	v1 "github.com/quizfunnel/leadsync/internal/api/v1"
	"github.com/quizfunnel/leadsync/internal/config"
	"github.com/quizfunnel/leadsync/internal/logger"
	"github.com/quizfunnel/leadsync/internal/rest/middleware"
)

type Handlers struct {
	Health   *v1.HealthHandler
	Auth     *v1.AuthHandler
	Lead     *v1.LeadHandler
	Checkout *v1.CheckoutHandler
	Webhook  *v1.WebhookHandler
	Admin    *v1.AdminHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware(cfg),
		middleware.SentryMiddleware(cfg),
		middleware.SentryTagsMiddleware,
		middleware.ErrorHandler(logger),
	)

	router.GET("/health", handlers.Health.Health)

	// Public routes used by the funnel
	public := router.Group("/")
	{
		public.POST("/auth/login", handlers.Auth.Login)

		leads := public.Group("/leads")
		{
			leads.POST("", handlers.Lead.CreateLead)
			leads.GET("/:id", handlers.Lead.GetLead)
			leads.PATCH("/:id", handlers.Lead.UpdateLead)
			leads.GET("/:id/subscription", handlers.Lead.GetSubscriptionStatus)
			leads.GET("/session/:sessionId", handlers.Lead.GetLeadBySession)
		}

		public.GET("/plans", handlers.Checkout.ListPlans)
		public.POST("/checkout", handlers.Checkout.CreateCheckout)
	}

	// Provider webhooks authenticate through their signatures
	webhooks := router.Group("/webhooks")
	{
		webhooks.POST("/payment", handlers.Webhook.HandlePaymentWebhook)
		webhooks.POST("/entitlement", handlers.Webhook.HandleEntitlementWebhook)
	}

	admin := router.Group("/admin")
	admin.Use(middleware.AuthenticateMiddleware(cfg, logger))
	{
		leads := admin.Group("/leads")
		{
			leads.GET("", handlers.Admin.ListLeads)
			leads.GET("/paid", handlers.Admin.ListPaidLeads)
			leads.GET("/quiz/:quizId", handlers.Admin.ListLeadsByQuiz)
			leads.POST("/:id/revoke", handlers.Admin.RevokeEntitlement)
		}

		admin.GET("/notifications/dashboard", handlers.Webhook.GetDashboardURL)
	}

	return router
}
