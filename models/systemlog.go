package models

import "time"

type LogLevel string

const (
	LevelInfo    LogLevel = "info"
	LevelSuccess LogLevel = "success"
	LevelWarning LogLevel = "warning"
	LevelError   LogLevel = "error"
)

// SystemLog is the append-only audit trail. It is never consulted for
// control decisions.
type SystemLog struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Level     LogLevel  `gorm:"not null" json:"level"`
	Message   string    `gorm:"not null" json:"message"`
	Domain    string    `json:"domain,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
