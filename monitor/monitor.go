// Package monitor drives periodic availability polling over the
// monitoring-enabled domains. One Scheduler owns the whole monitoring
// lifecycle; there is no free-floating process state.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"domainsniper/models"
	"domainsniper/registrar"
)

var (
	ErrAlreadyRunning  = errors.New("monitor: already running")
	ErrNotRunning      = errors.New("monitor: not running")
	ErrCycleInProgress = errors.New("monitor: a check cycle is already in progress")
)

type Config struct {
	// Interval separates scheduled cycles.
	Interval time.Duration
	// Delay is the courtesy pause between per-domain probes inside a
	// cycle, to avoid hammering the registrar API.
	Delay time.Duration
	// DisableAfterPurchase removes a purchased domain from active
	// monitoring.
	DisableAfterPurchase bool
}

// Scheduler polls all monitoring-enabled domains. Cycles never
// overlap: scheduled ticks and manual triggers both take the cycle
// lock or give up.
type Scheduler struct {
	store  *models.Store
	client registrar.Client
	cfg    Config
	log    *slog.Logger

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}

	cycleMu sync.Mutex
}

func New(store *models.Store, client registrar.Client, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:  store,
		client: client,
		cfg:    cfg,
		log:    logger,
	}
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start launches the scheduling loop. The first cycle runs
// immediately, then one per interval.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(s.stop, s.done)
	return nil
}

// Stop prevents further cycles from starting. A cycle already in
// flight finishes its current domain and then winds down; Stop does
// not wait for it.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return ErrNotRunning
	}
	s.running = false
	close(s.stop)
	return nil
}

// TriggerOnce runs a single cycle synchronously. It refuses to overlap
// a cycle that is already in flight.
func (s *Scheduler) TriggerOnce(ctx context.Context) error {
	return s.cycle(ctx, nil)
}

// TriggerAsync starts a single cycle in the background so callers can
// answer immediately. The overlap check still happens up front: if a
// cycle is already in flight nothing is started and ErrCycleInProgress
// is returned.
func (s *Scheduler) TriggerAsync(ctx context.Context) error {
	if !s.cycleMu.TryLock() {
		return ErrCycleInProgress
	}
	go func() {
		defer s.cycleMu.Unlock()
		if err := s.cycleLocked(ctx, nil); err != nil {
			s.log.Error("manual cycle failed", "error", err)
		}
	}()
	return nil
}

func (s *Scheduler) run(stop, done chan struct{}) {
	defer close(done)

	s.runCycle(stop)

	t := time.NewTicker(s.cfg.Interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			select {
			case <-stop:
				return
			default:
			}
			s.runCycle(stop)
		}
	}
}

func (s *Scheduler) runCycle(stop <-chan struct{}) {
	switch err := s.cycle(context.Background(), stop); {
	case err == nil:
	case errors.Is(err, ErrCycleInProgress):
		s.log.Warn("skipping tick, previous cycle still running")
	default:
		s.log.Error("monitoring cycle failed", "error", err)
	}
}

// cycle is one full pass over the active domains. Sequential by
// design: the registrar API is rate sensitive and each domain's status
// write lands before the next probe starts.
func (s *Scheduler) cycle(ctx context.Context, stop <-chan struct{}) error {
	if !s.cycleMu.TryLock() {
		return ErrCycleInProgress
	}
	defer s.cycleMu.Unlock()
	return s.cycleLocked(ctx, stop)
}

func (s *Scheduler) cycleLocked(ctx context.Context, stop <-chan struct{}) error {
	domains, err := s.store.ActiveDomains()
	if err != nil {
		return fmt.Errorf("load active domains: %w", err)
	}
	if len(domains) == 0 {
		s.logBoth(models.LevelInfo, "no active domains to monitor", "")
		return nil
	}

	s.logBoth(models.LevelInfo, fmt.Sprintf("checking %d domain(s)", len(domains)), "")
	completed := true
	for i, d := range domains {
		if stopped(stop) || ctx.Err() != nil {
			completed = false
			break
		}
		s.checkDomain(ctx, d)
		if i < len(domains)-1 && !sleepInterruptible(ctx, stop, s.cfg.Delay) {
			completed = false
			break
		}
	}
	if completed {
		s.logBoth(models.LevelInfo, "check cycle finished", "")
	} else {
		s.logBoth(models.LevelWarning, "check cycle stopped early", "")
	}
	return nil
}

func (s *Scheduler) checkDomain(ctx context.Context, d models.Domain) {
	if info, err := s.client.ExpirationInfo(ctx, d.Name); err == nil && info != nil {
		if err := s.store.UpdateDomainExpiration(d.ID, info.ExpiryDate, info.EstimatedReleaseDate, info.DaysUntilExpiry, info.Registrar); err != nil {
			s.log.Warn("failed to store expiration info", "domain", d.Name, "error", err)
		}
	}

	now := time.Now()
	avail, err := s.client.CheckAvailability(ctx, d.Name)
	switch {
	case err != nil || avail == registrar.Indeterminate:
		// Inconclusive is surfaced as an error check, never coerced
		// into available or unavailable.
		note := "availability indeterminate"
		if err != nil {
			note = err.Error()
		}
		s.record(d, models.CheckError, false, note, models.StatusError, now)
		s.logBoth(models.LevelError, fmt.Sprintf("check failed for %s: %s", d.Name, note), d.Name)

	case avail == registrar.Unavailable:
		s.record(d, models.CheckUnavailable, false, "", models.StatusUnavailable, now)
		s.logBoth(models.LevelInfo, fmt.Sprintf("%s is not available", d.Name), d.Name)

	default: // Available
		s.record(d, models.CheckAvailable, true, "", models.StatusAvailable, now)
		s.logBoth(models.LevelSuccess, fmt.Sprintf("domain available: %s", d.Name), d.Name)
		if d.AutoPurchaseEnabled {
			s.purchase(ctx, d)
		}
	}
}

func (s *Scheduler) record(d models.Domain, check models.CheckStatus, available bool, notes string, status models.DomainStatus, at time.Time) {
	if _, err := s.store.AddCheck(d.ID, check, available, notes); err != nil {
		s.log.Error("failed to record check", "domain", d.Name, "error", err)
	}
	if err := s.store.UpdateDomainStatus(d.ID, status, at); err != nil {
		s.log.Error("failed to update domain status", "domain", d.Name, "error", err)
	}
}

func (s *Scheduler) purchase(ctx context.Context, d models.Domain) {
	s.logBoth(models.LevelInfo, fmt.Sprintf("attempting automatic purchase of %s", d.Name), d.Name)

	res, err := s.client.Purchase(ctx, d.Name)
	if err != nil {
		if _, serr := s.store.AddPurchase(d.ID, d.Name, "", models.PurchaseFailed, nil, err.Error()); serr != nil {
			s.log.Error("failed to record purchase", "domain", d.Name, "error", serr)
		}
		s.logBoth(models.LevelError, fmt.Sprintf("purchase of %s failed: %v", d.Name, err), d.Name)
		return
	}
	if !res.Success {
		note := res.Message
		if note == "" {
			note = string(res.Reason)
		}
		if _, serr := s.store.AddPurchase(d.ID, d.Name, "", models.PurchaseFailed, nil, note); serr != nil {
			s.log.Error("failed to record purchase", "domain", d.Name, "error", serr)
		}
		// The domain really was available at probe time; the next
		// cycle re-evaluates, so the status stays available.
		s.logBoth(models.LevelError, fmt.Sprintf("purchase of %s rejected: %s (%s)", d.Name, note, res.Reason), d.Name)
		return
	}

	if _, serr := s.store.AddPurchase(d.ID, d.Name, res.OrderID, models.PurchaseCompleted, res.Price, res.PriceText); serr != nil {
		s.log.Error("failed to record purchase", "domain", d.Name, "error", serr)
	}
	if err := s.store.UpdateDomainStatus(d.ID, models.StatusPurchased, time.Now()); err != nil {
		s.log.Error("failed to update domain status", "domain", d.Name, "error", err)
	}
	if s.cfg.DisableAfterPurchase {
		if err := s.store.DisableMonitoring(d.ID); err != nil {
			s.log.Error("failed to disable monitoring", "domain", d.Name, "error", err)
		}
	}
	s.logBoth(models.LevelSuccess, fmt.Sprintf("purchased %s (order %s)", d.Name, res.OrderID), d.Name)
}

// logBoth writes to the structured logger and the system_logs audit
// table.
func (s *Scheduler) logBoth(level models.LogLevel, message, domain string) {
	switch level {
	case models.LevelError:
		s.log.Error(message, "domain", domain)
	case models.LevelWarning:
		s.log.Warn(message, "domain", domain)
	default:
		s.log.Info(message, "domain", domain)
	}
	if err := s.store.AddLog(level, message, domain); err != nil {
		s.log.Warn("failed to persist log entry", "error", err)
	}
}

func stopped(stop <-chan struct{}) bool {
	select {
	case <-stop:
		return true
	default:
		return false
	}
}

func sleepInterruptible(ctx context.Context, stop <-chan struct{}, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	case <-stop:
		return false
	}
}
