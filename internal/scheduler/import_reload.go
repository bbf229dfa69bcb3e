package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/flare/internal/logger"
	"github.com/MrSnakeDoc/flare/internal/session"
	"github.com/MrSnakeDoc/flare/internal/sources"
)

// ImportReloader imports a bookmarks file into one user's
// bookmarks on start, then on every tick and manual trigger.
// Bookmarks already present (by URL) are left alone.
type ImportReloader struct {
	importer      *sources.Importer
	sessions      *session.Manager
	userID        string
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewImportReloader creates a reloader. interval <= 0 disables the ticker;
// manualTrigger may be nil.
func NewImportReloader(
	file string,
	userID string,
	sessions *session.Manager,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *ImportReloader {
	return &ImportReloader{
		importer:      sources.NewImporter(file, log),
		sessions:      sessions,
		userID:        userID,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start runs the first import and starts the reload loop.
func (ir *ImportReloader) Start(ctx context.Context) error {
	if _, err := ir.Reload(ctx); err != nil {
		return fmt.Errorf("initial bookmark import failed: %w", err)
	}

	go func() {
		var tick <-chan time.Time
		if ir.interval > 0 {
			ticker := time.NewTicker(ir.interval)
			defer ticker.Stop()
			tick = ticker.C
		}

		for {
			select {
			case <-tick:
				ir.reloadLogged(ctx)
			case <-ir.manualTrigger:
				ir.logger.Info("manual bookmark import triggered")
				ir.reloadLogged(ctx)
			case <-ir.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reload loop.
func (ir *ImportReloader) Stop() {
	close(ir.stopCh)
}

func (ir *ImportReloader) reloadLogged(ctx context.Context) {
	if _, err := ir.Reload(ctx); err != nil {
		ir.logger.Error("failed to import bookmarks", logger.Error(err))
	}
}

// Reload logs in a short-lived session for the import user, feeds the file
// through its Add command and logs it out again.
func (ir *ImportReloader) Reload(ctx context.Context) (sources.Result, error) {
	s, err := ir.sessions.Login(ctx, ir.userID)
	if err != nil {
		return sources.Result{}, fmt.Errorf("open import session: %w", err)
	}
	defer func() {
		if err := ir.sessions.Logout(context.WithoutCancel(ctx), s.TabID()); err != nil {
			ir.logger.Warn("failed to close import session", logger.Error(err))
		}
	}()

	return ir.importer.Run(ctx, s)
}
