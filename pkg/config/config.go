package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration values.
type Config struct {
	GeminiAPIKey string
	GeminiModel  string
	ParseTimeout time.Duration

	BusinessName    string
	BusinessAddress string
	BusinessPhone   string
	BusinessEmail   string
	BusinessGST     string

	Currency      string
	GSTRate       float64
	InvoicePrefix string
	CounterFile   string
}

// Load reads configuration from environment variables with reasonable defaults.
func Load() Config {
	cfg := Config{
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     getenv("GEMINI_MODEL", "gemini-2.5-flash"),
		ParseTimeout:    30 * time.Second,
		BusinessName:    getenv("BUSINESS_NAME", "Your Business Name"),
		BusinessAddress: getenv("BUSINESS_ADDRESS", "Your Business Address"),
		BusinessPhone:   os.Getenv("BUSINESS_PHONE"),
		BusinessEmail:   os.Getenv("BUSINESS_EMAIL"),
		BusinessGST:     os.Getenv("BUSINESS_GST"),
		Currency:        getenv("CURRENCY", "INR"),
		GSTRate:         0.18,
		InvoicePrefix:   getenv("INVOICE_PREFIX", "INV"),
		CounterFile:     getenv("COUNTER_FILE", "invoice_counter.txt"),
	}

	if raw := os.Getenv("GST_RATE"); raw != "" {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil || rate < 0 {
			log.Printf("invalid GST_RATE value %q, defaulting to 0.18", raw)
		} else {
			cfg.GSTRate = rate
		}
	}

	if raw := os.Getenv("PARSE_TIMEOUT_SECONDS"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			log.Printf("invalid PARSE_TIMEOUT_SECONDS value %q, defaulting to 30", raw)
		} else {
			cfg.ParseTimeout = time.Duration(secs) * time.Second
		}
	}

	return cfg
}

// GeminiConfigured reports whether an extraction credential is present.
func (c Config) GeminiConfigured() bool {
	return c.GeminiAPIKey != ""
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
