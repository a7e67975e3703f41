package models

import "time"

type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "pending"
	PurchaseCompleted PurchaseStatus = "completed"
	PurchaseFailed    PurchaseStatus = "failed"
)

// Purchase records one order attempt. Completed and failed are
// terminal; a row never goes back to pending.
type Purchase struct {
	ID           string         `gorm:"primaryKey" json:"id"`
	DomainID     string         `gorm:"index" json:"domain_id,omitempty"`
	DomainName   string         `gorm:"not null" json:"domain_name"`
	OrderID      string         `json:"order_id,omitempty"`
	PurchaseDate time.Time      `json:"purchase_date"`
	Status       PurchaseStatus `gorm:"not null" json:"status"`
	Price        *float64       `json:"price,omitempty"`
	Notes        string         `json:"notes,omitempty"`
}
