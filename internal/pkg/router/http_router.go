package router

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/foundersbridge/foundersbridge/app/controllers"
	"github.com/foundersbridge/foundersbridge/app/repository"
	"github.com/foundersbridge/foundersbridge/internal/pkg/billing"
	"github.com/foundersbridge/foundersbridge/internal/pkg/database"
	"github.com/foundersbridge/foundersbridge/internal/pkg/docstore"
	"github.com/foundersbridge/foundersbridge/internal/pkg/engagement"
	"github.com/foundersbridge/foundersbridge/internal/pkg/env"
	"github.com/foundersbridge/foundersbridge/internal/pkg/jobqueue"
	"github.com/foundersbridge/foundersbridge/internal/pkg/middleware"
	"github.com/foundersbridge/foundersbridge/internal/pkg/quota"
	"github.com/foundersbridge/foundersbridge/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Repositories back every controller and service below
	repository.InitializeFactory(database.GetDB())
	repos := repository.GetGlobalRepositories()

	// Service wiring: billing feeds the quota gates, which feed the
	// engagement machine. The machine is also registered with the job queue
	// so expiry sweeps can run outside the request path.
	billingService := billing.NewServiceFromDB(database.GetDB())
	quotaService := quota.NewService(billingService, repos.Usage, repos.Organization)

	machine := engagement.NewMachine(repos.Engagement, quotaService, engagement.LocalRoomProvisioner{}, engagementExpiryWindow())
	jobqueue.SetEngagementMachine(machine)

	docstoreClient := setupDocstore()

	controllers.InitializeOrganizationController(quotaService)
	controllers.InitializeBillingController(billingService, quotaService)
	controllers.InitializeReadinessController(docstoreClient)
	controllers.InitializeEngagementController(machine, quotaService)

	// Apply OrgContext middleware globally as first middleware
	app.Use(middleware.OrgContextMiddleware)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

// engagementExpiryWindow reads the sweep cutoff from ENGAGEMENT_EXPIRY_DAYS.
// Unset or invalid values fall back to the 14 day default.
func engagementExpiryWindow() time.Duration {
	raw := env.GetEnv("ENGAGEMENT_EXPIRY_DAYS", "")
	if raw == "" {
		return engagement.DefaultExpiryWindow
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		log.Warnf("[Router] Invalid ENGAGEMENT_EXPIRY_DAYS %q, using default", raw)
		return engagement.DefaultExpiryWindow
	}
	return time.Duration(days) * 24 * time.Hour
}

// setupDocstore connects the S3 document store when configured. A nil client
// means document endpoints report storage as unavailable; everything else
// keeps working.
func setupDocstore() *docstore.Client {
	cfg, err := docstore.LoadConfig()
	if err != nil {
		log.Warnf("[Router] Document storage not configured: %v", err)
		return nil
	}
	if !cfg.IsEnabled() {
		log.Info("[Router] Document storage disabled")
		return nil
	}
	client, err := docstore.NewClient(cfg)
	if err != nil {
		log.Errorf("[Router] Document storage connection failed: %v", err)
		return nil
	}
	jobqueue.SetDocstoreClient(client)
	return client
}
