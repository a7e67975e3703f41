package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrDomainExists surfaces a unique-name violation as a caller
// correctable error rather than a driver-specific one.
var ErrDomainExists = errors.New("domain already exists")

// Store owns all persisted entities. The monitor loop and the HTTP
// layer go through it; neither touches rows directly.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Ping verifies the underlying database connection is alive.
func (s *Store) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (s *Store) AddDomain(name string, monitoringEnabled, autoPurchaseEnabled bool) (*Domain, error) {
	now := time.Now()
	d := &Domain{
		ID:                  uuid.New().String(),
		Name:                name,
		MonitoringEnabled:   monitoringEnabled,
		AutoPurchaseEnabled: autoPurchaseEnabled,
		Status:              StatusPending,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.db.Create(d).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDomainExists
		}
		return nil, err
	}
	return d, nil
}

func (s *Store) ListDomains() ([]Domain, error) {
	var domains []Domain
	err := s.db.Order("created_at DESC").Find(&domains).Error
	return domains, err
}

// ActiveDomains returns the monitoring-enabled domains, the set one
// poll cycle iterates.
func (s *Store) ActiveDomains() ([]Domain, error) {
	var domains []Domain
	err := s.db.Where("monitoring_enabled = ?", true).Order("created_at DESC").Find(&domains).Error
	return domains, err
}

func (s *Store) GetDomain(id string) (*Domain, error) {
	var d Domain
	if err := s.db.First(&d, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Store) UpdateDomainSettings(id string, monitoringEnabled, autoPurchaseEnabled bool) error {
	return s.db.Model(&Domain{}).Where("id = ?", id).Updates(map[string]any{
		"monitoring_enabled":    monitoringEnabled,
		"auto_purchase_enabled": autoPurchaseEnabled,
		"updated_at":            time.Now(),
	}).Error
}

func (s *Store) UpdateDomainStatus(id string, status DomainStatus, checkedAt time.Time) error {
	return s.db.Model(&Domain{}).Where("id = ?", id).Updates(map[string]any{
		"status":          status,
		"last_checked_at": checkedAt,
		"updated_at":      time.Now(),
	}).Error
}

func (s *Store) UpdateDomainExpiration(id string, expiry, estimatedRelease time.Time, daysUntilExpiry int, registrar string) error {
	return s.db.Model(&Domain{}).Where("id = ?", id).Updates(map[string]any{
		"expiry_date":            expiry,
		"estimated_release_date": estimatedRelease,
		"days_until_expiry":      daysUntilExpiry,
		"registrar":              registrar,
		"updated_at":             time.Now(),
	}).Error
}

func (s *Store) DisableMonitoring(id string) error {
	return s.db.Model(&Domain{}).Where("id = ?", id).Updates(map[string]any{
		"monitoring_enabled": false,
		"updated_at":         time.Now(),
	}).Error
}

// DeleteDomain removes the domain row only. Check and purchase history
// is retained as an audit trail.
func (s *Store) DeleteDomain(id string) error {
	return s.db.Delete(&Domain{}, "id = ?", id).Error
}

func (s *Store) AddCheck(domainID string, status CheckStatus, available bool, notes string) (*DomainCheck, error) {
	c := &DomainCheck{
		ID:        uuid.New().String(),
		DomainID:  domainID,
		Status:    status,
		Available: available,
		CheckedAt: time.Now(),
		Notes:     notes,
	}
	if err := s.db.Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) ChecksForDomain(domainID string, limit int) ([]DomainCheck, error) {
	if limit <= 0 {
		limit = 50
	}
	var checks []DomainCheck
	err := s.db.Where("domain_id = ?", domainID).
		Order("checked_at DESC").Limit(limit).Find(&checks).Error
	return checks, err
}

func (s *Store) CountChecks() (int64, error) {
	var n int64
	err := s.db.Model(&DomainCheck{}).Count(&n).Error
	return n, err
}

func (s *Store) AddPurchase(domainID, domainName, orderID string, status PurchaseStatus, purchasePrice *float64, notes string) (*Purchase, error) {
	p := &Purchase{
		ID:           uuid.New().String(),
		DomainID:     domainID,
		DomainName:   domainName,
		OrderID:      orderID,
		PurchaseDate: time.Now(),
		Status:       status,
		Price:        purchasePrice,
		Notes:        notes,
	}
	if err := s.db.Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) ListPurchases() ([]Purchase, error) {
	var purchases []Purchase
	err := s.db.Order("purchase_date DESC").Find(&purchases).Error
	return purchases, err
}

func (s *Store) AddLog(level LogLevel, message, domain string) error {
	return s.db.Create(&SystemLog{
		ID:        uuid.New().String(),
		Level:     level,
		Message:   message,
		Domain:    domain,
		CreatedAt: time.Now(),
	}).Error
}

func (s *Store) RecentLogs(limit int) ([]SystemLog, error) {
	if limit <= 0 {
		limit = 100
	}
	var logs []SystemLog
	err := s.db.Order("created_at DESC").Limit(limit).Find(&logs).Error
	return logs, err
}

// DailyStats is one row of the analytics aggregate: check volume and
// outcomes grouped by calendar day.
type DailyStats struct {
	Date           string `gorm:"column:date" json:"date"`
	TotalChecks    int    `gorm:"column:total_checks" json:"total_checks"`
	AvailableCount int    `gorm:"column:available_count" json:"available_count"`
	ErrorCount     int    `gorm:"column:error_count" json:"error_count"`
}

// Analytics aggregates check history between two dates (inclusive,
// YYYY-MM-DD).
func (s *Store) Analytics(startDate, endDate string) ([]DailyStats, error) {
	var stats []DailyStats
	err := s.db.Raw(`
		SELECT
			DATE(checked_at) AS date,
			COUNT(*) AS total_checks,
			SUM(CASE WHEN available THEN 1 ELSE 0 END) AS available_count,
			SUM(CASE WHEN status = 'error' THEN 1 ELSE 0 END) AS error_count
		FROM domain_checks
		WHERE DATE(checked_at) BETWEEN ? AND ?
		GROUP BY DATE(checked_at)
		ORDER BY date DESC`, startDate, endDate).Scan(&stats).Error
	return stats, err
}
