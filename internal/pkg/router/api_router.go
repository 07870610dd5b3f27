package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/foundersbridge/foundersbridge/app/controllers"
	apiv1 "github.com/foundersbridge/foundersbridge/internal/api/v1"
	"github.com/foundersbridge/foundersbridge/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes
	v1 := api.Group("/v1")
	apiServer := apiv1.NewAPIServer()
	apiv1.RegisterHandlers(v1, apiServer)

	h.registerAuthRoutes(v1)
	h.registerOrganizationRoutes(v1)
	h.registerBillingRoutes(v1)
	h.registerReadinessRoutes(v1)
	h.registerEngagementRoutes(v1)
	h.registerOpsRoutes(v1)
}

func (h ApiRouter) registerAuthRoutes(v1 fiber.Router) {
	auth := v1.Group("/auth")
	auth.Post("/register", controllers.HandleAuthRegister)
	auth.Get("/activate", controllers.HandleAuthActivate)
	auth.Post("/login", controllers.HandleAuthLogin)
	auth.Post("/logout", middleware.RequireAuth, controllers.HandleAuthLogout)
	auth.Get("/me", middleware.RequireAuth, controllers.HandleAuthMe)
}

func (h ApiRouter) registerOrganizationRoutes(v1 fiber.Router) {
	orgs := v1.Group("/organizations")
	orgs.Post("/", middleware.RequireAuth, controllers.HandleOrganizationCreate)
	orgs.Get("/me", middleware.RequireOrganization, controllers.HandleOrganizationMine)
	orgs.Patch("/me", middleware.RequireOrganization, controllers.HandleOrganizationUpdate)
	orgs.Get("/me/capabilities", middleware.RequireOrganization, controllers.HandleOrganizationCapabilities)
	orgs.Get("/:id/profile", middleware.RequireOrganization, controllers.HandleOrganizationProfile)

	// Operator-only verification decision
	orgs.Post("/:id/verify", middleware.RequireOpsToken(), controllers.HandleOrganizationVerify)
}

func (h ApiRouter) registerBillingRoutes(v1 fiber.Router) {
	billing := v1.Group("/billing")
	billing.Get("/plans", middleware.RequireOrganization, controllers.HandleBillingPlans)
	billing.Get("/entitlements", middleware.RequireOrganization, controllers.HandleBillingEntitlements)

	// Provider webhooks authenticate via signature, not session
	v1.Post("/webhooks/billing/:provider", controllers.HandleBillingWebhook)
}

func (h ApiRouter) registerReadinessRoutes(v1 fiber.Router) {
	readiness := v1.Group("/readiness", middleware.RequireOrganization)
	readiness.Get("/", controllers.HandleReadinessReport)
	readiness.Put("/sections/:section", controllers.HandleProfileSectionUpsert)
	readiness.Post("/documents", controllers.HandleDocumentUpload)
	readiness.Get("/documents", controllers.HandleDocumentList)
}

func (h ApiRouter) registerEngagementRoutes(v1 fiber.Router) {
	engagements := v1.Group("/engagements", middleware.RequireOrganization)
	engagements.Post("/", controllers.HandleEngagementCreate)
	engagements.Get("/", controllers.HandleEngagementList)
	engagements.Get("/:id", controllers.HandleEngagementGet)
	engagements.Post("/:id/cancel", controllers.HandleEngagementCancel)
	engagements.Post("/:id/accept", controllers.HandleEngagementAccept)
	engagements.Post("/:id/reject", controllers.HandleEngagementReject)
	engagements.Get("/:id/room-token", controllers.HandleEngagementRoomToken)
}

func (h ApiRouter) registerOpsRoutes(v1 fiber.Router) {
	ops := v1.Group("/ops", middleware.RequireOpsToken())
	ops.Get("/stats", controllers.HandleOpsStats)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
