package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"domainsniper/models"
	"domainsniper/monitor"
	"domainsniper/registrar"
)

func setupTestStore(t *testing.T) *models.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Domain{}, &models.DomainCheck{}, &models.Purchase{}, &models.SystemLog{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		t.Cleanup(func() {
			sqlDB.Close()
		})
	}
	return models.NewStore(db)
}

func newTestApp(t *testing.T) (*fiber.App, *models.Store) {
	t.Helper()
	store := setupTestStore(t)

	app := fiber.New()
	RegisterHealth(app, store, nil)
	RegisterDomains(app, store)
	// nil scheduler/client: CRUD-only mode.
	RegisterMonitoring(app, store, nil)
	RegisterDashboard(app, store, nil, nil)
	return app, store
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCreateDomain(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/domains", `{"domain":"example.com","auto_purchase_enabled":true}`), -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var d models.Domain
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Name != "example.com" {
		t.Errorf("name = %q", d.Name)
	}
	if !d.MonitoringEnabled {
		t.Errorf("monitoring not defaulted to enabled")
	}
	if !d.AutoPurchaseEnabled {
		t.Errorf("auto purchase flag lost")
	}
	if d.Status != models.StatusPending {
		t.Errorf("status = %q, want pending", d.Status)
	}
}

func TestCreateDomainValidation(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/domains", `{}`), -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for missing name", resp.StatusCode)
	}

	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/domains", `not json`), -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for bad body", resp.StatusCode)
	}
}

func TestCreateDomainDuplicate(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/domains", `{"domain":"example.com"}`), -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first create status = %d, want 201", resp.StatusCode)
	}

	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/domains", `{"domain":"EXAMPLE.com"}`), -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("duplicate create status = %d, want 400", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "domain already exists" {
		t.Errorf("error = %q", body["error"])
	}
}

func TestListDomains(t *testing.T) {
	app, store := newTestApp(t)

	if _, err := store.AddDomain("one.com", true, false); err != nil {
		t.Fatalf("AddDomain: %v", err)
	}
	if _, err := store.AddDomain("two.com", false, false); err != nil {
		t.Fatalf("AddDomain: %v", err)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/domains", nil), -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var domains []models.Domain
	if err := json.NewDecoder(resp.Body).Decode(&domains); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(domains) != 2 {
		t.Fatalf("%d domains, want 2", len(domains))
	}
}

func TestUpdateDomainSettings(t *testing.T) {
	app, store := newTestApp(t)

	d, err := store.AddDomain("example.com", true, false)
	if err != nil {
		t.Fatalf("AddDomain: %v", err)
	}

	resp, err := app.Test(jsonRequest(http.MethodPut, "/api/domains/"+d.ID, `{"monitoring_enabled":false,"auto_purchase_enabled":true}`), -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	got, err := store.GetDomain(d.ID)
	if err != nil {
		t.Fatalf("GetDomain: %v", err)
	}
	if got.MonitoringEnabled || !got.AutoPurchaseEnabled {
		t.Errorf("settings = monitoring:%v auto:%v, want false/true", got.MonitoringEnabled, got.AutoPurchaseEnabled)
	}
}

func TestUpdateUnknownDomain(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(jsonRequest(http.MethodPut, "/api/domains/nope", `{"monitoring_enabled":true}`), -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestDeleteDomain(t *testing.T) {
	app, store := newTestApp(t)

	d, err := store.AddDomain("example.com", true, false)
	if err != nil {
		t.Fatalf("AddDomain: %v", err)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/domains/"+d.ID, nil), -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	domains, err := store.ListDomains()
	if err != nil {
		t.Fatalf("ListDomains: %v", err)
	}
	if len(domains) != 0 {
		t.Fatalf("%d domains after delete, want 0", len(domains))
	}
}

func TestMonitoringEndpointsWithoutRegistrar(t *testing.T) {
	app, _ := newTestApp(t)

	for _, target := range []string{
		"/api/monitoring/start",
		"/api/monitoring/stop",
		"/api/monitoring/check",
	} {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, target, nil), -1)
		if err != nil {
			t.Fatalf("request %s: %v", target, err)
		}
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("%s status = %d, want 503", target, resp.StatusCode)
		}
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/registrar/test", nil), -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("registrar test status = %d, want 503", resp.StatusCode)
	}
}

func TestDashboardStats(t *testing.T) {
	app, store := newTestApp(t)

	d, err := store.AddDomain("example.com", true, false)
	if err != nil {
		t.Fatalf("AddDomain: %v", err)
	}
	if err := store.UpdateDomainStatus(d.ID, models.StatusAvailable, time.Now()); err != nil {
		t.Fatalf("UpdateDomainStatus: %v", err)
	}
	if _, err := store.AddPurchase(d.ID, d.Name, "7", models.PurchaseCompleted, nil, ""); err != nil {
		t.Fatalf("AddPurchase: %v", err)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/dashboard", nil), -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body dashboardResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	s := body.Stats
	if s.TotalDomains != 1 || s.ActiveDomains != 1 || s.AvailableDomains != 1 || s.PurchasedDomains != 1 {
		t.Errorf("stats = %+v", s)
	}
	if s.ServicesReady {
		t.Errorf("services_ready = true without a registrar client")
	}
	if s.IsMonitoring {
		t.Errorf("is_monitoring = true without a scheduler")
	}
}

func TestAnalyticsEndpoint(t *testing.T) {
	app, store := newTestApp(t)

	d, err := store.AddDomain("example.com", true, false)
	if err != nil {
		t.Fatalf("AddDomain: %v", err)
	}
	if _, err := store.AddCheck(d.ID, models.CheckAvailable, true, ""); err != nil {
		t.Fatalf("AddCheck: %v", err)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/analytics", nil), -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var stats []models.DailyStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(stats) != 1 || stats[0].TotalChecks != 1 || stats[0].AvailableCount != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
	if body["database"] != "up" {
		t.Errorf("database = %q, want up", body["database"])
	}
	if body["registrar"] != "not configured" {
		t.Errorf("registrar = %q, want not configured", body["registrar"])
	}
}

// stubRegistrar satisfies the registrar client with canned answers for
// handler tests that need a real scheduler.
type stubRegistrar struct{}

func (stubRegistrar) CheckAvailability(context.Context, string) (registrar.Availability, error) {
	return registrar.Unavailable, nil
}

func (stubRegistrar) Purchase(context.Context, string) (registrar.PurchaseResult, error) {
	return registrar.PurchaseResult{}, nil
}

func (stubRegistrar) AccountBalance(context.Context) (*registrar.Balance, error) {
	return nil, errors.New("no prepaid account")
}

func (stubRegistrar) TestConnection(context.Context) registrar.ConnectionStatus {
	return registrar.ConnectionStatus{OK: true, Identity: "xx1-ovh"}
}

func (stubRegistrar) ExpirationInfo(context.Context, string) (*registrar.ExpirationInfo, error) {
	return nil, nil
}

func TestTriggerCheckRespondsBeforeCycleCompletes(t *testing.T) {
	store := setupTestStore(t)
	sched := monitor.New(store, stubRegistrar{}, monitor.Config{Interval: time.Hour}, nil)

	app := fiber.New()
	RegisterMonitoring(app, store, sched)

	if _, err := store.AddDomain("example.com", true, false); err != nil {
		t.Fatalf("AddDomain: %v", err)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/monitoring/check", nil), -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["message"] != "check started" {
		t.Errorf("message = %q, want check started", body["message"])
	}

	// The cycle keeps running after the response; wait for its check row.
	deadline := time.Now().Add(2 * time.Second)
	for {
		n, err := store.CountChecks()
		if err != nil {
			t.Fatalf("CountChecks: %v", err)
		}
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("check row never written, count = %d", n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
