package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"domainsniper/models"
)

func RegisterDomains(app *fiber.App, store *models.Store) {
	app.Get("/api/domains", listDomains(store))
	app.Post("/api/domains", createDomain(store))
	app.Put("/api/domains/:id", updateDomain(store))
	app.Delete("/api/domains/:id", deleteDomain(store))
	app.Get("/api/domains/:id/checks", listDomainChecks(store))
}

func listDomains(store *models.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		domains, err := store.ListDomains()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not list domains"})
		}
		return c.JSON(domains)
	}
}

func createDomain(store *models.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input struct {
			Domain              string `json:"domain"`
			MonitoringEnabled   *bool  `json:"monitoring_enabled"`
			AutoPurchaseEnabled bool   `json:"auto_purchase_enabled"`
		}
		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
		}
		if input.Domain == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "domain name is required"})
		}

		// Monitoring defaults to on for a newly watched domain.
		monitoring := true
		if input.MonitoringEnabled != nil {
			monitoring = *input.MonitoringEnabled
		}

		d, err := store.AddDomain(input.Domain, monitoring, input.AutoPurchaseEnabled)
		switch {
		case errors.Is(err, models.ErrDomainExists):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "domain already exists"})
		case errors.Is(err, models.ErrInvalidDomain):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case err != nil:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not create domain"})
		}
		return c.Status(fiber.StatusCreated).JSON(d)
	}
}

func updateDomain(store *models.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input struct {
			MonitoringEnabled   bool `json:"monitoring_enabled"`
			AutoPurchaseEnabled bool `json:"auto_purchase_enabled"`
		}
		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
		}

		id := c.Params("id")
		if _, err := store.GetDomain(id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "domain not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load domain"})
		}
		if err := store.UpdateDomainSettings(id, input.MonitoringEnabled, input.AutoPurchaseEnabled); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not update domain"})
		}
		return c.JSON(fiber.Map{"message": "settings updated"})
	}
}

func deleteDomain(store *models.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := store.DeleteDomain(c.Params("id")); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not delete domain"})
		}
		return c.JSON(fiber.Map{"message": "domain deleted"})
	}
}

func listDomainChecks(store *models.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		checks, err := store.ChecksForDomain(c.Params("id"), c.QueryInt("limit", 50))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not list checks"})
		}
		return c.JSON(checks)
	}
}
