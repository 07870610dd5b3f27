package apiv1

import (
	"context"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"
)

// Pong is the ping endpoint response body.
type Pong struct {
	Ping string `json:"ping"`
}

// ServerInterface describes the handlers backing the published OpenAPI
// contract in public/docs/v1/openapi.yml.
type ServerInterface interface {
	// GetPing handles GET /ping
	GetPing(c *fiber.Ctx) error
}

// RegisterHandlers attaches the contract endpoints to the given router group.
func RegisterHandlers(router fiber.Router, si ServerInterface) {
	router.Get("/ping", si.GetPing)
}

// APIServer implements the ServerInterface
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// ValidateSpec parses and validates the published OpenAPI document. Called at
// startup so a broken contract file fails loudly instead of serving stale
// docs.
func ValidateSpec(ctx context.Context, path string) error {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return err
	}
	return doc.Validate(ctx)
}
