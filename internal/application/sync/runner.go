package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/b2bstore/backend/internal/infrastructure/ledger"
)

// Report is the outcome of one full reconciliation run
type Report struct {
	StartedAt time.Time
	Duration  time.Duration
	Summaries []*Summary
	Rejected  []error
}

// Err returns a combined error when any snapshot was rejected outright
func (r *Report) Err() error {
	return errors.Join(r.Rejected...)
}

// Runner drives a full reconciliation: fetch every snapshot from the
// ledger, validate each fail-closed, then merge in dependency order so
// that zone and province lookups see this run's data. A fetch failure
// aborts the whole run; a rejected snapshot skips only its own family.
type Runner struct {
	client    *ledger.Client
	validator *SnapshotValidator
	provinces *ProvinceSyncer
	zones     *ZoneSyncer
	products  *ProductSyncer
	stock     *StockSyncer
	clients   *ClientSyncer
	logger    *zap.Logger
}

// NewRunner creates a reconciliation runner
func NewRunner(client *ledger.Client, db *gorm.DB, logger *zap.Logger) *Runner {
	return &Runner{
		client:    client,
		validator: NewSnapshotValidator(),
		provinces: NewProvinceSyncer(db, logger),
		zones:     NewZoneSyncer(db, logger),
		products:  NewProductSyncer(db, logger),
		stock:     NewStockSyncer(db, logger),
		clients:   NewClientSyncer(db, logger),
		logger:    logger,
	}
}

// snapshots carries one run's fetched dumps
type snapshots struct {
	provinces *ledger.ProvinceSnapshot
	zones     *ledger.ZoneSnapshot
	products  *ledger.ProductSnapshot
	stock     *ledger.StockSnapshot
	clients   *ledger.ClientSnapshot
}

// Run executes one full reconciliation
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	r.logger.Info("reconciliation started")

	snaps, err := r.fetchAll(ctx)
	if err != nil {
		r.logger.Error("reconciliation aborted", zap.Error(err))
		return nil, err
	}

	report := &Report{StartedAt: start}

	// Provinces and zones first: client records match against them
	if err := r.validator.ValidateProvinces(snaps.provinces); err != nil {
		report.Rejected = append(report.Rejected, err)
	} else {
		report.Summaries = append(report.Summaries, r.provinces.Sync(ctx, snaps.provinces))
	}

	if err := r.validator.ValidateZones(snaps.zones); err != nil {
		report.Rejected = append(report.Rejected, err)
	} else {
		report.Summaries = append(report.Summaries, r.zones.Sync(ctx, snaps.zones))
	}

	if err := r.validator.ValidateProducts(snaps.products); err != nil {
		report.Rejected = append(report.Rejected, err)
	} else {
		report.Summaries = append(report.Summaries, r.products.Sync(ctx, snaps.products))
	}

	// Stock after products so new codes resolve
	if err := r.validator.ValidateStock(snaps.stock); err != nil {
		report.Rejected = append(report.Rejected, err)
	} else {
		report.Summaries = append(report.Summaries, r.stock.Sync(ctx, snaps.stock))
	}

	if err := r.validator.ValidateClients(snaps.clients); err != nil {
		report.Rejected = append(report.Rejected, err)
	} else {
		report.Summaries = append(report.Summaries, r.clients.Sync(ctx, snaps.clients))
	}

	report.Duration = time.Since(start)
	for _, s := range report.Summaries {
		r.logger.Info("snapshot merged", zap.String("summary", s.String()))
	}
	for _, rejected := range report.Rejected {
		r.logger.Error("snapshot rejected", zap.Error(rejected))
	}
	r.logger.Info("reconciliation finished", zap.Duration("duration", report.Duration))

	return report, nil
}

// fetchAll pulls the five snapshots concurrently; any failure aborts the run
func (r *Runner) fetchAll(ctx context.Context) (*snapshots, error) {
	var (
		snaps snapshots
		wg    sync.WaitGroup
		mu    sync.Mutex
		errs  []error
	)

	fetch := func(name string, fn func() error) {
		defer wg.Done()
		if err := fn(); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("fetch %s: %w", name, err))
			mu.Unlock()
		}
	}

	wg.Add(5)
	go fetch("provinces", func() (err error) {
		snaps.provinces, err = r.client.FetchProvinces(ctx)
		return
	})
	go fetch("zones", func() (err error) {
		snaps.zones, err = r.client.FetchZones(ctx)
		return
	})
	go fetch("products", func() (err error) {
		snaps.products, err = r.client.FetchProducts(ctx)
		return
	})
	go fetch("stock", func() (err error) {
		snaps.stock, err = r.client.FetchStock(ctx)
		return
	})
	go fetch("clients", func() (err error) {
		snaps.clients, err = r.client.FetchClients(ctx)
		return
	})
	wg.Wait()

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &snaps, nil
}

// Scheduler runs reconciliations on a fixed interval
type Scheduler struct {
	runner   *Runner
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a periodic reconciliation scheduler
func NewScheduler(runner *Runner, interval, timeout time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
	}
}

// Start starts the periodic loop
func (s *Scheduler) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("sync scheduler started", zap.Duration("interval", s.interval))
	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("sync scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, s.timeout)
			if _, err := s.runner.Run(runCtx); err != nil {
				s.logger.Error("scheduled reconciliation failed", zap.Error(err))
			}
			cancel()
		}
	}
}
