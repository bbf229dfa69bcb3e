package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/flare/internal/broadcast"
	"github.com/MrSnakeDoc/flare/internal/config"
	"github.com/MrSnakeDoc/flare/internal/httpserver"
	"github.com/MrSnakeDoc/flare/internal/httpserver/deps"
	"github.com/MrSnakeDoc/flare/internal/logger"
	"github.com/MrSnakeDoc/flare/internal/realtime"
	"github.com/MrSnakeDoc/flare/internal/redis"
	"github.com/MrSnakeDoc/flare/internal/scheduler"
	"github.com/MrSnakeDoc/flare/internal/session"
	redisstore "github.com/MrSnakeDoc/flare/internal/store/redis"
	"github.com/MrSnakeDoc/flare/internal/store/sqlite"
	"github.com/MrSnakeDoc/flare/internal/utils"
	"github.com/MrSnakeDoc/flare/internal/version"
)

// store is what the app needs from a bookmark backend.
type store interface {
	session.Persister
	Ping(ctx context.Context) error
}

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	closers     []io.Closer // closed in reverse order on shutdown
	sessions    *session.Manager
	importer    *scheduler.ImportReloader
	reaper      *scheduler.SessionReaper
}

func New() (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	a := &App{cfg: cfg, logger: loggerClient}

	// Redis is only dialed when a component is backed by it - fail fast if unavailable
	if cfg.UsesRedis() {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.Connect(context.Background(), redis.Options{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.redisClient = client
		a.closers = append(a.closers, client)
		loggerClient.Info("Redis initialized successfully")
	}

	// Change feed and cross-tab channel
	var (
		feed interface {
			realtime.Publisher
			realtime.Listener
		}
		channel broadcast.Channel
	)
	switch cfg.Sync {
	case config.SyncRedis:
		feed = realtime.NewRedisFeed(a.redisClient, loggerClient)
		channel = broadcast.NewRedisChannel(a.redisClient, cfg.BroadcastName, loggerClient)
	default:
		feed = realtime.NewHub(loggerClient)
		channel = broadcast.NewHub(cfg.BroadcastName, loggerClient)
	}
	loggerClient.Info("sync backend selected",
		logger.String("sync", cfg.Sync),
		logger.String("channel", cfg.BroadcastName))

	// Bookmark store
	var st store
	switch cfg.Store {
	case config.StoreRedis:
		st = redisstore.NewStore(a.redisClient, feed, loggerClient)
	default:
		db, err := sqlite.Open(cfg.SQLitePath, feed, loggerClient)
		if err != nil {
			_ = utils.CloseAll(a.closers...)
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		a.closers = append(a.closers, db)
		st = db
	}
	loggerClient.Info("bookmark store ready", logger.String("store", cfg.Store))

	a.sessions = session.NewManager(session.Deps{
		Persister: st,
		Channel:   channel,
		Listener:  feed,
		Logger:    loggerClient,
	})

	checks := []deps.Check{{Name: "store", Probe: st.Ping}}
	if a.redisClient != nil {
		client := a.redisClient
		checks = append(checks, deps.Check{Name: "redis", Probe: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}})
	}

	// Bookmark import (if an import file is configured)
	var importTrigger chan struct{}
	if cfg.ImportFile != "" {
		loggerClient.Info("import file configured, initializing import reloader",
			logger.String("file", cfg.ImportFile),
			logger.String("user", cfg.ImportUser))
		importTrigger = make(chan struct{}, 1)
		a.importer = scheduler.NewImportReloader(
			cfg.ImportFile,
			cfg.ImportUser,
			a.sessions,
			loggerClient,
			cfg.ImportInterval,
			importTrigger,
		)
	} else {
		loggerClient.Info("import file not configured, bookmark import disabled")
	}

	a.reaper = scheduler.NewSessionReaper(a.sessions, loggerClient, cfg.GCInterval, cfg.SessionIdleTTL)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:        loggerClient,
		StartTime:     time.Now(),
		Version:       version.Version,
		Commit:        version.Commit,
		BuildDate:     version.BuildDate,
		GoVersion:     version.GoVersion,
		TimeNow:       time.Now,
		Sessions:      a.sessions,
		Checks:        checks,
		StoreBackend:  cfg.Store,
		SyncBackend:   cfg.Sync,
		AllowedHosts:  cfg.AllowedHosts,
		AllowedCIDRS:  cfg.AllowedCIDRS,
		TrustProxy:    cfg.TrustProxy,
		RateBurst:     cfg.RateBurst,
		RatePerMinute: cfg.RatePerMinute,
		ImportTrigger: importTrigger,
	}

	a.server = httpserver.New(cfg, loggerClient, d)

	return a, nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Flare v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Flare %s", version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start import reloader (imports once and starts periodic refresh)
	if a.importer != nil {
		if err := a.importer.Start(ctx); err != nil {
			a.shutdownStores()
			return fmt.Errorf("failed to start import reloader: %w", err)
		}
		a.logger.Info("import reloader started",
			logger.Duration("interval", a.cfg.ImportInterval))
	}

	// Start session reaper
	if err := a.reaper.Start(ctx); err != nil {
		if a.importer != nil {
			a.importer.Stop()
		}
		a.shutdownStores()
		return fmt.Errorf("failed to start session reaper: %w", err)
	}
	a.logger.Info("session reaper started",
		logger.Duration("interval", a.cfg.GCInterval),
		logger.Duration("idle_ttl", a.cfg.SessionIdleTTL))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	if a.importer != nil {
		a.importer.Stop()
	}
	a.reaper.Stop()

	if runErr == nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := a.server.Stop(shutdownCtx); err != nil {
			runErr = fmt.Errorf("failed to stop server: %w", err)
		}
	}

	a.shutdownStores()

	if runErr != nil {
		return runErr
	}
	a.logger.Info("✅ Flare stopped cleanly")
	return nil
}

// shutdownStores logs out every session, then closes the backends.
func (a *App) shutdownStores() {
	if err := a.sessions.Close(); err != nil {
		a.logger.Warn("failed to close sessions", logger.Error(err))
	}
	if err := utils.CloseAll(a.closers...); err != nil {
		a.logger.Warnf("failed to close backends: %v", err)
	} else {
		a.logger.Info("✅ Backends closed cleanly")
	}
}
