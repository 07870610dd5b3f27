package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	apiv1 "github.com/foundersbridge/foundersbridge/internal/api/v1"
	"github.com/foundersbridge/foundersbridge/internal/pkg/cache"
	"github.com/foundersbridge/foundersbridge/internal/pkg/database"
	"github.com/foundersbridge/foundersbridge/internal/pkg/env"
	"github.com/foundersbridge/foundersbridge/internal/pkg/jobqueue"
	"github.com/foundersbridge/foundersbridge/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/foundersbridge to project root
		"../../../", // Fallback
	}

	// Find the correct base path
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}

	if basePath == "" {
		panic("Could not find project root directory")
	}

	// init fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: 10485760, // 10 MiB, documents go straight to storage
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			"admin": env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	// SWAGGER / OPENAPI
	specPath := basePath + "public/docs/v1/openapi.yml"
	if err := apiv1.ValidateSpec(context.Background(), specPath); err != nil {
		log.Printf("OpenAPI document invalid: %v", err)
	}
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: specPath,
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	// Background workers: engagement expiry sweeps, document cleanup and
	// profile view counter flushes.
	jobqueue.GetManager().Start()

	return app
}
