package models

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Connect opens the database and migrates the schema. A non-empty
// databaseURL selects postgres; otherwise a local sqlite file is used
// so the sniper runs without any infrastructure.
func Connect(databaseURL, sqlitePath string) (*gorm.DB, error) {
	var dial gorm.Dialector
	if databaseURL != "" {
		dial = postgres.Open(databaseURL)
	} else {
		if sqlitePath == "" {
			sqlitePath = "domaine_sniper.db"
		}
		dial = sqlite.Open(sqlitePath)
	}

	db, err := gorm.Open(dial, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := db.AutoMigrate(&Domain{}, &DomainCheck{}, &Purchase{}, &SystemLog{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return db, nil
}
