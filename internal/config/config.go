package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backends accepted by FLARE_STORE and FLARE_SYNC.
const (
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
	SyncMemory  = "memory"
	SyncRedis   = "redis"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	Store         string // "sqlite" | "redis": where bookmarks are persisted
	SQLitePath    string // ex: "/data/flare.db"
	Sync          string // "memory" | "redis": transport for broadcast and change feed
	BroadcastName string // shared broadcast channel name

	ImportFile     string        // optional homepage bookmarks.yaml imported on startup
	ImportUser     string        // owner of imported bookmarks (required with ImportFile)
	ImportInterval time.Duration // re-import interval (default: 24h, 0 = only on start)

	SessionIdleTTL time.Duration // idle sessions are logged out after this (default: 24h)
	GCInterval     time.Duration // how often idle sessions are swept (default: 1h)

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	RateBurst     int // write requests allowed in a burst, per client IP
	RatePerMinute int // sustained write requests per minute, per client IP

	AllowedHosts []string // optional, restrict the API to specific Host headers (supports "*.domain.ext")
	AllowedCIDRS []string // optional, restrict health endpoints to specific IPs (e.g. "1.2.3.4, 10.0.0.0/8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

// UsesRedis reports whether any component needs a Redis connection.
func (c *Config) UsesRedis() bool {
	return c.Store == StoreRedis || c.Sync == SyncRedis
}

// Load reads the configuration from the environment. Variables from the
// given .env files (default ".env") fill in anything not already set.
func Load(envFiles ...string) *Config {
	_ = godotenv.Load(envFiles...)

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("FLARE_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("FLARE_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("FLARE_LOG_LEVEL", "info"),
		PrettyLog: mustBool("FLARE_PRETTY_LOG", true),

		// Backends
		Store:         strings.ToLower(getenv("FLARE_STORE", StoreSQLite)),
		SQLitePath:    getenv("FLARE_SQLITE_PATH", "/data/flare.db"),
		Sync:          strings.ToLower(getenv("FLARE_SYNC", SyncMemory)),
		BroadcastName: getenv("FLARE_BROADCAST_NAME", "webwise-sync"),

		// Import
		ImportFile:     getenv("FLARE_IMPORT_FILE", ""),
		ImportUser:     getenv("FLARE_IMPORT_USER", ""),
		ImportInterval: mustDuration("FLARE_IMPORT_INTERVAL", 24*time.Hour),

		// Session housekeeping
		SessionIdleTTL: mustDuration("FLARE_SESSION_IDLE_TTL", 24*time.Hour),
		GCInterval:     mustDuration("FLARE_GC_INTERVAL", time.Hour),

		// Redis timeouts
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Write rate limit
		RateBurst:     getenvInt("FLARE_RATE_BURST", 20),
		RatePerMinute: getenvInt("FLARE_RATE_PER_MINUTE", 60),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("FLARE_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("FLARE_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("FLARE_TRUST_PROXY", true),
	}

	switch cfg.Store {
	case StoreRedis, StoreSQLite:
	default:
		panic(fmt.Sprintf("❌ FATAL: FLARE_STORE must be %q or %q, got %q", StoreSQLite, StoreRedis, cfg.Store))
	}
	switch cfg.Sync {
	case SyncMemory, SyncRedis:
	default:
		panic(fmt.Sprintf("❌ FATAL: FLARE_SYNC must be %q or %q, got %q", SyncMemory, SyncRedis, cfg.Sync))
	}
	if cfg.ImportFile != "" && cfg.ImportUser == "" {
		panic("❌ FATAL: FLARE_IMPORT_USER is required when FLARE_IMPORT_FILE is set")
	}

	// Redis settings are only mandatory when something uses Redis
	if cfg.UsesRedis() {
		cfg.RedisAddr = requireEnv("FLARE_REDIS_ADDR")
		cfg.RedisUser = getenv("FLARE_REDIS_USERNAME", "default")
		cfg.RedisPasswordRequired = mustBool("FLARE_REDIS_PASSWORD_REQUIRED", true)
		cfg.RedisPassword = getenv("FLARE_REDIS_PASSWORD", "")
		cfg.RedisDB = requireEnvInt("FLARE_REDIS_DB")

		if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
			panic("❌ FATAL: FLARE_REDIS_PASSWORD is required when FLARE_REDIS_PASSWORD_REQUIRED=true")
		}
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func requireEnvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
