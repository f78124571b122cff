package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	WebHost string
	WebPort string

	DBPath     string
	DBMaxConns int

	PollInterval    time.Duration
	ScanConcurrency int

	SNMPPort           uint16
	ReadCommunity      string
	WriteCommunity     string
	SNMPTimeout        time.Duration
	SNMPRetries        int
	SNMPMaxRepetitions uint32

	OIDNamesPath string

	DurableRevert bool
	PortctlBin    string

	LogLevel  string
	LogFormat string
}

// getEnv fetches environment variable or returns fallback
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

// Load reads .env (if present) and then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		WebHost: getEnv("WEB_HOST", "0.0.0.0"),
		WebPort: getEnv("WEB_PORT", "5500"),

		DBPath:     getEnv("DB_PATH", "/tmp/portlock.db"),
		DBMaxConns: getInt("DB_MAX_CONNS", 10),

		PollInterval:    time.Duration(getInt("POLL_INTERVAL", 30)) * time.Second,
		ScanConcurrency: getInt("SCAN_CONCURRENCY", 4),

		SNMPPort:           uint16(getInt("SNMP_PORT", 161)),
		ReadCommunity:      getEnv("SNMP_READ_COMMUNITY", "public"),
		WriteCommunity:     getEnv("SNMP_WRITE_COMMUNITY", "private"),
		SNMPTimeout:        time.Duration(getInt("SNMP_TIMEOUT", 2)) * time.Second,
		SNMPRetries:        getInt("SNMP_RETRIES", 1),
		SNMPMaxRepetitions: uint32(getInt("SNMP_MAX_REPETITIONS", 20)),

		OIDNamesPath: getEnv("OID_NAMES_PATH", ""),

		DurableRevert: getBool("DURABLE_REVERT", true),
		PortctlBin:    getEnv("PORTCTL_BIN", "portctl"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}
}
