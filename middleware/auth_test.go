package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rolesApp() *fiber.App {
	app := fiber.New()
	group := app.Group("/s/admin", UserContextMiddleware(), RequireRoles("admin", "owner"))
	group.Get("/push/log", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	return app
}

func TestRequireRolesRejectsPlainUser(t *testing.T) {
	app := rolesApp()

	req := httptest.NewRequest("GET", "/s/admin/push/log", nil)
	req.Header.Set("X-User-ID", "user-1")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequireRolesRejectsEditor(t *testing.T) {
	app := rolesApp()

	req := httptest.NewRequest("GET", "/s/admin/push/log", nil)
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set("X-User-Roles", "editor")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequireRolesAllowsAdmin(t *testing.T) {
	app := rolesApp()

	req := httptest.NewRequest("GET", "/s/admin/push/log", nil)
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set("X-User-Roles", "player, admin")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestUserContextRequiresUserID(t *testing.T) {
	app := rolesApp()

	req := httptest.NewRequest("GET", "/s/admin/push/log", nil)
	req.Header.Set("X-User-Roles", "admin")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
