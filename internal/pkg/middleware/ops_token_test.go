package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpsApp() *fiber.App {
	app := fiber.New()
	app.Get("/guarded", RequireOpsToken(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestRequireOpsTokenUnconfigured(t *testing.T) {
	t.Setenv("OPS_API_TOKEN", "")
	app := newOpsApp()

	req := httptest.NewRequest("GET", "/guarded", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestRequireOpsTokenRejectsWrongToken(t *testing.T) {
	t.Setenv("OPS_API_TOKEN", "super-secret")
	app := newOpsApp()

	req := httptest.NewRequest("GET", "/guarded", nil)
	req.Header.Set("X-Ops-Token", "nope")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("GET", "/guarded", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireOpsTokenAcceptsMatch(t *testing.T) {
	t.Setenv("OPS_API_TOKEN", "super-secret")
	app := newOpsApp()

	req := httptest.NewRequest("GET", "/guarded", nil)
	req.Header.Set("X-Ops-Token", "super-secret")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
