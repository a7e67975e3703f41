package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"domainsniper/models"
	"domainsniper/monitor"
)

// RegisterMonitoring wires the scheduler control endpoints. A nil
// scheduler means the registrar client is not configured; the process
// then runs in CRUD-only mode and these endpoints answer 503.
func RegisterMonitoring(app *fiber.App, store *models.Store, sched *monitor.Scheduler) {
	app.Post("/api/monitoring/start", startMonitoring(store, sched))
	app.Post("/api/monitoring/stop", stopMonitoring(store, sched))
	app.Post("/api/monitoring/check", triggerCheck(store, sched))
}

func notInitialized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "registrar client is not configured"})
}

func startMonitoring(store *models.Store, sched *monitor.Scheduler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sched == nil {
			return notInitialized(c)
		}
		if err := sched.Start(); err != nil {
			if errors.Is(err, monitor.ErrAlreadyRunning) {
				return c.JSON(fiber.Map{"message": "monitoring is already active"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		_ = store.AddLog(models.LevelSuccess, "automatic monitoring started", "")
		return c.JSON(fiber.Map{"message": "monitoring started"})
	}
}

func stopMonitoring(store *models.Store, sched *monitor.Scheduler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sched == nil {
			return notInitialized(c)
		}
		if err := sched.Stop(); err != nil {
			if errors.Is(err, monitor.ErrNotRunning) {
				return c.JSON(fiber.Map{"message": "monitoring is not active"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		_ = store.AddLog(models.LevelWarning, "automatic monitoring stopped", "")
		return c.JSON(fiber.Map{"message": "monitoring stopped"})
	}
}

func triggerCheck(store *models.Store, sched *monitor.Scheduler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sched == nil {
			return notInitialized(c)
		}
		_ = store.AddLog(models.LevelInfo, "manual check triggered", "")
		// The cycle can take a while with many domains; answer as soon
		// as it is underway instead of holding the request open.
		if err := sched.TriggerAsync(context.Background()); err != nil {
			if errors.Is(err, monitor.ErrCycleInProgress) {
				return c.JSON(fiber.Map{"message": "a check cycle is already in progress"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"message": "check started"})
	}
}
