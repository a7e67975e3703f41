package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"domainsniper/models"
	"domainsniper/monitor"
	"domainsniper/registrar"
)

func RegisterDashboard(app *fiber.App, store *models.Store, sched *monitor.Scheduler, client registrar.Client) {
	app.Get("/api/dashboard", dashboardStats(store, sched, client))
	app.Get("/api/analytics", analytics(store))
	app.Get("/api/purchases", listPurchases(store))
	app.Get("/api/logs", listLogs(store))
	app.Get("/api/registrar/test", testRegistrar(client))
	app.Get("/dashboard", showDashboard(store, sched))
}

type dashboardResponse struct {
	Stats      dashboardStatsPayload `json:"stats"`
	RecentLogs []models.SystemLog    `json:"recent_logs"`
}

type dashboardStatsPayload struct {
	TotalDomains     int                `json:"total_domains"`
	ActiveDomains    int                `json:"active_domains"`
	AvailableDomains int                `json:"available_domains"`
	PurchasedDomains int                `json:"purchased_domains"`
	IsMonitoring     bool               `json:"is_monitoring"`
	Balance          *registrar.Balance `json:"balance,omitempty"`
	BalanceError     string             `json:"balance_error,omitempty"`
	LastCheck        *time.Time         `json:"last_check,omitempty"`
	ServicesReady    bool               `json:"services_ready"`
}

func dashboardStats(store *models.Store, sched *monitor.Scheduler, client registrar.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		domains, err := store.ListDomains()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load domains"})
		}
		purchases, err := store.ListPurchases()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load purchases"})
		}
		logs, err := store.RecentLogs(10)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load logs"})
		}

		stats := dashboardStatsPayload{
			TotalDomains:  len(domains),
			ServicesReady: client != nil,
		}
		for _, d := range domains {
			if d.MonitoringEnabled {
				stats.ActiveDomains++
			}
			if d.Status == models.StatusAvailable {
				stats.AvailableDomains++
			}
			if d.LastCheckedAt != nil && (stats.LastCheck == nil || d.LastCheckedAt.After(*stats.LastCheck)) {
				stats.LastCheck = d.LastCheckedAt
			}
		}
		for _, p := range purchases {
			if p.Status == models.PurchaseCompleted {
				stats.PurchasedDomains++
			}
		}
		if sched != nil {
			stats.IsMonitoring = sched.Running()
		}
		if client != nil {
			if balance, err := client.AccountBalance(context.Background()); err != nil {
				stats.BalanceError = err.Error()
			} else {
				stats.Balance = balance
			}
		}

		return c.JSON(dashboardResponse{Stats: stats, RecentLogs: logs})
	}
}

func analytics(store *models.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Default window: the last 30 days.
		end := c.Query("end", time.Now().Format("2006-01-02"))
		start := c.Query("start", time.Now().AddDate(0, 0, -30).Format("2006-01-02"))

		stats, err := store.Analytics(start, end)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load analytics"})
		}
		return c.JSON(stats)
	}
}

func listPurchases(store *models.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		purchases, err := store.ListPurchases()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not list purchases"})
		}
		return c.JSON(purchases)
	}
}

func listLogs(store *models.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		logs, err := store.RecentLogs(c.QueryInt("limit", 100))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not list logs"})
		}
		return c.JSON(logs)
	}
}

func testRegistrar(client registrar.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if client == nil {
			return notInitialized(c)
		}
		ctx := context.Background()
		status := client.TestConnection(ctx)

		resp := fiber.Map{
			"connection": status,
			"timestamp":  time.Now().Format(time.RFC3339),
		}
		if balance, err := client.AccountBalance(ctx); err != nil {
			resp["balance_error"] = err.Error()
		} else {
			resp["balance"] = balance
		}
		return c.JSON(resp)
	}
}

func showDashboard(store *models.Store, sched *monitor.Scheduler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		domains, err := store.ListDomains()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("could not load domains")
		}
		running := false
		if sched != nil {
			running = sched.Running()
		}
		return c.Render("dashboard", fiber.Map{
			"Domains":      domains,
			"IsMonitoring": running,
		})
	}
}
