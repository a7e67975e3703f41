package models

import "time"

type CheckStatus string

const (
	CheckAvailable   CheckStatus = "available"
	CheckUnavailable CheckStatus = "unavailable"
	CheckError       CheckStatus = "error"
)

// DomainCheck is one poll attempt for one domain. Rows are append-only
// and never mutated after creation.
type DomainCheck struct {
	ID        string      `gorm:"primaryKey" json:"id"`
	DomainID  string      `gorm:"index;not null" json:"domain_id"`
	Status    CheckStatus `gorm:"not null" json:"status"`
	Available bool        `json:"available"`
	CheckedAt time.Time   `gorm:"index" json:"checked_at"`
	Notes     string      `json:"notes,omitempty"`
}
