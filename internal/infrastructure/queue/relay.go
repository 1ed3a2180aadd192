package queue

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/b2bstore/backend/internal/domain/trade"
)

// DispatchPayload is the payload carried by order dispatch jobs
type DispatchPayload struct {
	OrderID uuid.UUID `json:"order_id"`
}

// RelayConfig holds configuration for the dispatch intent relay
type RelayConfig struct {
	BatchSize    int
	PollInterval time.Duration
	// MaxRetries is the retry budget stamped on published jobs.
	// Zero keeps the queue default.
	MaxRetries int
	// Backoff selects the retry delay strategy for published jobs.
	// Empty keeps the queue default.
	Backoff BackoffStrategy
	// InitialDelay holds the first delivery back so a checkout that
	// commits just before the relay fires is not raced by its own job.
	InitialDelay time.Duration
	// ExpiryWindow dead-letters a job not completed within the window.
	// Zero means jobs never expire.
	ExpiryWindow time.Duration
}

// DefaultRelayConfig returns default configuration
func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		BatchSize:    100,
		PollInterval: 2 * time.Second,
		Backoff:      BackoffExponential,
		InitialDelay: 2 * time.Second,
		ExpiryWindow: 24 * time.Hour,
	}
}

// Relay turns unpublished dispatch intents into queue jobs. Checkout
// writes the intent row inside the order transaction; the relay is the
// only component that promotes intents to jobs, so an order either
// commits with its intent or not at all, and every committed intent
// eventually yields exactly one job.
type Relay struct {
	db      *gorm.DB
	intents trade.DispatchIntentRepository
	jobs    *GormJobRepository
	config  RelayConfig
	logger  *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRelay creates a dispatch intent relay
func NewRelay(
	db *gorm.DB,
	intents trade.DispatchIntentRepository,
	jobs *GormJobRepository,
	config RelayConfig,
	logger *zap.Logger,
) *Relay {
	return &Relay{
		db:      db,
		intents: intents,
		jobs:    jobs,
		config:  config,
		logger:  logger,
	}
}

// Start starts the background relay loop
func (r *Relay) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go r.loop(ctx)

	r.logger.Info("dispatch relay started",
		zap.Duration("poll_interval", r.config.PollInterval),
	)
	return nil
}

// Stop gracefully stops the relay
func (r *Relay) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("dispatch relay stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// loop is the relay polling loop
func (r *Relay) loop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.publishBatch(ctx)
		}
	}
}

// publishBatch promotes one batch of unpublished intents to jobs. Each
// intent is handled in its own transaction so one bad row cannot hold
// the rest of the batch hostage.
func (r *Relay) publishBatch(ctx context.Context) {
	intents, err := r.intents.FindUnpublished(ctx, r.config.BatchSize)
	if err != nil {
		r.logger.Error("failed to find unpublished intents", zap.Error(err))
		return
	}

	for i := range intents {
		intent := &intents[i]
		if err := r.publishIntent(ctx, intent); err != nil {
			r.logger.Error("failed to publish dispatch intent",
				zap.String("intent_id", intent.ID.String()),
				zap.String("order_id", intent.OrderID.String()),
				zap.Error(err),
			)
			continue
		}
		r.logger.Debug("dispatch intent published",
			zap.String("order_id", intent.OrderID.String()),
		)
	}
}

// publishIntent enqueues the job and marks the intent published in one
// transaction
func (r *Relay) publishIntent(ctx context.Context, intent *trade.DispatchIntent) error {
	payload, err := json.Marshal(DispatchPayload{OrderID: intent.OrderID})
	if err != nil {
		return err
	}

	var opts []JobOption
	if r.config.MaxRetries > 0 {
		opts = append(opts, WithMaxRetries(r.config.MaxRetries))
	}
	if r.config.Backoff != "" {
		opts = append(opts, WithBackoff(r.config.Backoff))
	}
	now := time.Now()
	if r.config.InitialDelay > 0 {
		opts = append(opts, WithNotBefore(now.Add(r.config.InitialDelay)))
	}
	if r.config.ExpiryWindow > 0 {
		opts = append(opts, WithExpiry(now.Add(r.config.ExpiryWindow)))
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job := NewJob(JobTypeDispatchOrder, payload, opts...)
		if err := r.jobs.WithTx(tx).Enqueue(ctx, job); err != nil {
			return err
		}
		intent.MarkPublished()
		return tx.Save(intent).Error
	})
}
