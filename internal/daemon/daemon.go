package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"resonate/internal/api"
	"resonate/internal/catalog"
	"resonate/internal/config"
	"resonate/internal/logging"
)

// Daemon owns the ledger store for the lifetime of the process and enforces
// single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *catalog.Store
	service *api.Service

	lockPath string
	lock     *flock.Flock

	running  atomic.Bool
	done     chan struct{}
	stopOnce sync.Once
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	DatabasePath string
	LockFilePath string
	SocketPath   string
	Ledger       catalog.HealthSummary
	Balanced     bool
}

// New constructs a daemon around an opened store.
func New(cfg *config.Config, store *catalog.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "daemon")

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		service:  api.NewService(store, logger),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		done:     make(chan struct{}),
	}, nil
}

// Service exposes the marketplace operations to transport layers.
func (d *Daemon) Service() *api.Service {
	return d.service
}

// Start acquires the daemon lock.
func (d *Daemon) Start(ctx context.Context) error {
	if d.Stopping() {
		return errors.New("daemon is stopping")
	}
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another resonated instance is already running")
	}

	d.running.Store(true)
	d.logger.InfoContext(ctx, "resonated started",
		logging.String("lock", d.lockPath),
		logging.String("database", d.store.Path()))
	return nil
}

// Stop shuts the daemon down: new requests are refused from this point on,
// the done channel fires so the process can exit, and the single-instance
// lock is released only as part of that shutdown.
func (d *Daemon) Stop() {
	d.stopOnce.Do(func() {
		if d.running.Load() {
			if err := d.lock.Unlock(); err != nil {
				d.logger.Warn("failed to release daemon lock", logging.Error(err))
			}
			d.running.Store(false)
		}
		close(d.done)
		d.logger.Info("resonated stopped")
	})
}

// Done is closed once Stop has run. The daemon main waits on it alongside
// the signal context.
func (d *Daemon) Done() <-chan struct{} {
	return d.done
}

// Stopping reports whether Stop has been invoked.
func (d *Daemon) Stopping() bool {
	select {
	case <-d.done:
		return true
	default:
		return false
	}
}

// Close stops the daemon and closes the store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status reports daemon runtime information including ledger health.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		SocketPath:   d.cfg.Paths.SocketPath,
	}
	summary, err := d.store.Health(ctx)
	if err != nil {
		d.logger.Warn("ledger health query failed", logging.Error(err))
		return status
	}
	status.Ledger = summary
	report, err := d.store.VerifyConservation(ctx)
	if err != nil {
		d.logger.Warn("conservation audit failed", logging.Error(err))
		return status
	}
	status.Balanced = report.OK()
	return status
}
