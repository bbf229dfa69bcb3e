package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// flareVars are cleared before each Load test so the host environment
// cannot leak in.
var flareVars = []string{
	"FLARE_LISTEN_PORT", "FLARE_SHUTDOWN_TIMEOUT", "FLARE_LOG_LEVEL", "FLARE_PRETTY_LOG",
	"FLARE_STORE", "FLARE_SQLITE_PATH", "FLARE_SYNC", "FLARE_BROADCAST_NAME",
	"FLARE_IMPORT_FILE", "FLARE_IMPORT_USER", "FLARE_IMPORT_INTERVAL",
	"FLARE_SESSION_IDLE_TTL", "FLARE_GC_INTERVAL",
	"FLARE_REDIS_ADDR", "FLARE_REDIS_USERNAME", "FLARE_REDIS_PASSWORD",
	"FLARE_REDIS_PASSWORD_REQUIRED", "FLARE_REDIS_DB",
	"FLARE_RATE_BURST", "FLARE_RATE_PER_MINUTE", "FLARE_ALLOWED_HOSTS", "FLARE_ALLOWED_CIDRS", "FLARE_TRUST_PROXY",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range flareVars {
		t.Setenv(k, "")
		if err := os.Unsetenv(k); err != nil {
			t.Fatalf("failed to unset %s: %v", k, err)
		}
	}
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load(noEnvFile(t))

	if cfg.ListenPort != ":8080" || cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("server defaults = %q, %v", cfg.ListenPort, cfg.ShutdownTimeout)
	}
	if cfg.Store != StoreSQLite || cfg.Sync != SyncMemory {
		t.Errorf("backends = %s/%s, want sqlite/memory", cfg.Store, cfg.Sync)
	}
	if cfg.BroadcastName != "webwise-sync" {
		t.Errorf("BroadcastName = %q", cfg.BroadcastName)
	}
	if cfg.UsesRedis() || cfg.RedisAddr != "" {
		t.Errorf("redis configured without being used: %q", cfg.RedisAddr)
	}
	if cfg.SessionIdleTTL != 24*time.Hour || cfg.GCInterval != time.Hour || cfg.ImportInterval != 24*time.Hour {
		t.Errorf("housekeeping = %v/%v/%v", cfg.SessionIdleTTL, cfg.GCInterval, cfg.ImportInterval)
	}
	if cfg.RateBurst != 20 || cfg.RatePerMinute != 60 {
		t.Errorf("rate = %d/%d", cfg.RateBurst, cfg.RatePerMinute)
	}
}

func TestLoadRedis(t *testing.T) {
	clearEnv(t)
	t.Setenv("FLARE_STORE", "Redis")
	t.Setenv("FLARE_SYNC", "redis")
	t.Setenv("FLARE_REDIS_ADDR", "localhost:6379")
	t.Setenv("FLARE_REDIS_DB", "2")
	t.Setenv("FLARE_REDIS_PASSWORD", "secret")

	cfg := Load(noEnvFile(t))
	if !cfg.UsesRedis() {
		t.Fatal("UsesRedis = false")
	}
	if cfg.Store != StoreRedis || cfg.RedisAddr != "localhost:6379" || cfg.RedisDB != 2 || cfg.RedisUser != "default" {
		t.Errorf("redis config = %+v", cfg)
	}
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("FLARE_LOG_LEVEL", "warn")

	path := filepath.Join(t.TempDir(), ".env")
	content := "FLARE_LOG_LEVEL=debug\nFLARE_SQLITE_PATH=/tmp/flare-test.db\nFLARE_ALLOWED_CIDRS=10.0.0.0/8, 127.0.0.1\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg := Load(path)
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, env file must not override the environment", cfg.LogLevel)
	}
	if cfg.SQLitePath != "/tmp/flare-test.db" {
		t.Errorf("SQLitePath = %q", cfg.SQLitePath)
	}
	if want := []string{"10.0.0.0/8", "127.0.0.1"}; !reflect.DeepEqual(cfg.AllowedCIDRS, want) {
		t.Errorf("AllowedCIDRS = %v, want %v", cfg.AllowedCIDRS, want)
	}
}

func TestLoadPanics(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown store", map[string]string{"FLARE_STORE": "postgres"}},
		{"unknown sync", map[string]string{"FLARE_SYNC": "kafka"}},
		{"import without user", map[string]string{"FLARE_IMPORT_FILE": "/app/bookmarks.yaml"}},
		{"redis without addr", map[string]string{"FLARE_SYNC": "redis"}},
		{"redis without password", map[string]string{
			"FLARE_STORE": "redis", "FLARE_REDIS_ADDR": "localhost:6379", "FLARE_REDIS_DB": "0",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("Load() should have panicked")
				}
			}()
			Load(noEnvFile(t))
		})
	}
}

func TestRequireEnv(t *testing.T) {
	t.Setenv("TEST_VAR", "test_value")
	if got := requireEnv("TEST_VAR"); got != "test_value" {
		t.Errorf("requireEnv() = %v, want test_value", got)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("requireEnv() should have panicked")
		}
	}()
	requireEnv("TEST_VAR_MISSING")
}

func TestRequireEnvInt(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		expected  int
		wantPanic bool
	}{
		{name: "valid integer", value: "42", expected: 42},
		{name: "invalid integer", value: "not_a_number", wantPanic: true},
		{name: "missing variable", value: "", wantPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_INT", tt.value)

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnvInt() should have panicked")
					}
				}()
			}

			result := requireEnvInt("TEST_INT")
			if !tt.wantPanic && result != tt.expected {
				t.Errorf("requireEnvInt() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{"valid duration", "5s", time.Second, 5 * time.Second},
		{"invalid duration uses default", "invalid", 10 * time.Second, 10 * time.Second},
		{"missing variable uses default", "", 15 * time.Second, 15 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			if got := mustDuration("TEST_DURATION", tt.def); got != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      bool
		expected bool
	}{
		{"true value", "true", false, true},
		{"false value", "false", true, false},
		{"invalid value uses default", "invalid", true, true},
		{"missing variable uses default", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.value)
			if got := mustBool("TEST_BOOL", tt.def); got != tt.expected {
				t.Errorf("mustBool() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{` a , "b" ,, 'c' `, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		if got := splitAndTrim(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitAndTrim(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
