package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	SQLitePath  string

	OVHEndpoint    string
	OVHAppKey      string
	OVHAppSecret   string
	OVHConsumerKey string
	OVHSubsidiary  string

	CheckInterval  time.Duration
	CheckDelay     time.Duration
	RequestTimeout time.Duration

	// DisableMonitoringAfterPurchase controls whether a purchased
	// domain drops out of active monitoring.
	DisableMonitoringAfterPurchase bool
}

// Load reads configuration from the environment, with a .env file as
// fallback when present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:        getenv("PORT", "3000"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLitePath:  getenv("SNIPER_DB_PATH", "domaine_sniper.db"),

		OVHEndpoint:    getenv("OVH_ENDPOINT", "ovh-eu"),
		OVHAppKey:      os.Getenv("OVH_APP_KEY"),
		OVHAppSecret:   os.Getenv("OVH_APP_SECRET"),
		OVHConsumerKey: os.Getenv("OVH_CONSUMER_KEY"),
		OVHSubsidiary:  getenv("OVH_SUBSIDIARY", "FR"),

		CheckInterval:  seconds("CHECK_INTERVAL_SECONDS", 60),
		CheckDelay:     seconds("CHECK_DELAY_SECONDS", 2),
		RequestTimeout: seconds("REQUEST_TIMEOUT_SECONDS", 20),

		DisableMonitoringAfterPurchase: boolenv("DISABLE_MONITORING_AFTER_PURCHASE", true),
	}
}

// RegistrarConfigured reports whether all OVH credentials are present.
func (c Config) RegistrarConfigured() bool {
	return len(c.MissingCredentials()) == 0
}

// MissingCredentials names the unset OVH credential variables.
func (c Config) MissingCredentials() []string {
	var missing []string
	if c.OVHAppKey == "" {
		missing = append(missing, "OVH_APP_KEY")
	}
	if c.OVHAppSecret == "" {
		missing = append(missing, "OVH_APP_SECRET")
	}
	if c.OVHConsumerKey == "" {
		missing = append(missing, "OVH_CONSUMER_KEY")
	}
	return missing
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func seconds(key string, fallback int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return time.Duration(fallback) * time.Second
}

func boolenv(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
