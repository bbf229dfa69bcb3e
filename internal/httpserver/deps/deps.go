package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/flare/internal/logger"
	"github.com/MrSnakeDoc/flare/internal/session"
)

// Check is one readiness probe, e.g. a store or Redis ping.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

type Deps struct {
	Logger        logger.Logger
	StartTime     time.Time
	Version       string
	Commit        string
	BuildDate     string
	GoVersion     string
	TimeNow       func() time.Time // for testing, defaults to time.Now
	Sessions      *session.Manager // live sessions, one per tab
	Checks        []Check          // readiness probes run by /readyz
	StoreBackend  string           // "sqlite" | "redis", reported by /readyz
	SyncBackend   string           // "memory" | "redis", reported by /readyz
	AllowedHosts  []string         // Host headers allowed to reach the API
	AllowedCIDRS  []string         // IPs allowed to access healthz/readyz endpoints
	TrustProxy    bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	RateBurst     int              // write requests per client IP in a burst
	RatePerMinute int              // sustained write requests per client IP
	ImportTrigger chan struct{}    // manual bookmark import (nil if import disabled)
}

// Now returns d.TimeNow() or time.Now().
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
