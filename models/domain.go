package models

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

var ErrInvalidDomain = errors.New("domain requires a non-empty name")

type DomainStatus string

const (
	StatusPending     DomainStatus = "pending"
	StatusAvailable   DomainStatus = "available"
	StatusUnavailable DomainStatus = "unavailable"
	StatusPurchased   DomainStatus = "purchased"
	StatusError       DomainStatus = "error"
)

// Domain is a watched domain name. Name is unique across the store.
type Domain struct {
	ID                   string       `gorm:"primaryKey" json:"id"`
	Name                 string       `gorm:"uniqueIndex;not null" json:"name"`
	MonitoringEnabled    bool         `json:"monitoring_enabled"`
	AutoPurchaseEnabled  bool         `json:"auto_purchase_enabled"`
	Status               DomainStatus `gorm:"not null" json:"status"`
	ExpiryDate           *time.Time   `json:"expiry_date,omitempty"`
	EstimatedReleaseDate *time.Time   `json:"estimated_release_date,omitempty"`
	DaysUntilExpiry      *int         `json:"days_until_expiry,omitempty"`
	Registrar            string       `json:"registrar,omitempty"`
	LastCheckedAt        *time.Time   `json:"last_checked_at,omitempty"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

func (d *Domain) BeforeSave(tx *gorm.DB) error {
	d.Name = strings.ToLower(strings.TrimSpace(d.Name))
	if d.Name == "" {
		return ErrInvalidDomain
	}
	if d.Status == "" {
		d.Status = StatusPending
	}
	return nil
}
