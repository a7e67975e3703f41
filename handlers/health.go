package handlers

import (
	"github.com/gofiber/fiber/v2"

	"domainsniper/models"
	"domainsniper/registrar"
)

// RegisterHealth exposes a readiness probe covering the two external
// dependencies: the database and the registrar client.
func RegisterHealth(app *fiber.App, store *models.Store, client registrar.Client) {
	app.Get("/health", healthHandler(store, client))
}

func healthHandler(store *models.Store, client registrar.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := "ok"
		database := "up"
		if err := store.Ping(); err != nil {
			status = "degraded"
			database = "down"
		}
		reg := "configured"
		if client == nil {
			// CRUD-only mode; the process is still healthy.
			reg = "not configured"
		}
		return c.JSON(fiber.Map{
			"status":    status,
			"database":  database,
			"registrar": reg,
		})
	}
}
