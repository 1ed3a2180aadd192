package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/b2bstore/backend/internal/domain/partner"
	"github.com/b2bstore/backend/internal/domain/shared"
	"github.com/b2bstore/backend/internal/domain/trade"
	"github.com/b2bstore/backend/internal/infrastructure/ledger"
	"github.com/b2bstore/backend/internal/infrastructure/queue"
)

// OrderSubmitter pushes confirmed orders to the external ledger
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, order *ledger.OrderSubmission) error
}

// DispatchHandler processes order dispatch jobs. The ledger intake endpoint
// is not idempotent, so submission is guarded twice: a fresh status reload
// makes an already-synced order a no-op, and an idempotency key covers the
// window between a successful submit and the status write. The key guard can
// be switched off through the config for environments without Redis.
type DispatchHandler struct {
	orders      trade.OrderRepository
	clients     partner.ClientRepository
	submitter   OrderSubmitter
	idempotency shared.IdempotencyStore
	idemCfg     shared.IdempotencyConfig
	logger      *zap.Logger
}

// NewDispatchHandler creates a dispatch handler. A zero TTL in cfg falls back
// to the default window.
func NewDispatchHandler(
	orders trade.OrderRepository,
	clients partner.ClientRepository,
	submitter OrderSubmitter,
	idempotency shared.IdempotencyStore,
	cfg shared.IdempotencyConfig,
	logger *zap.Logger,
) *DispatchHandler {
	if cfg.TTL == 0 {
		cfg.TTL = shared.DefaultIdempotencyConfig().TTL
	}
	return &DispatchHandler{
		orders:      orders,
		clients:     clients,
		submitter:   submitter,
		idempotency: idempotency,
		idemCfg:     cfg,
		logger:      logger,
	}
}

// Register attaches the handler to the worker for dispatch jobs, including
// the dead-letter hook that flags exhausted orders for operators
func (h *DispatchHandler) Register(worker *queue.Worker) {
	worker.Register(queue.JobTypeDispatchOrder, h.Handle)
	worker.RegisterDead(queue.JobTypeDispatchOrder, h.HandleDead)
}

// Handle submits the job's order to the ledger and marks it synced
func (h *DispatchHandler) Handle(ctx context.Context, job *queue.Job) error {
	orderID, err := orderIDFromJob(job)
	if err != nil {
		return err
	}

	order, err := h.orders.FindByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("dispatch: load order %s: %w", orderID, err)
	}
	if order.IsSynced() {
		h.logger.Info("order already synced, skipping dispatch",
			zap.String("order_id", order.ID.String()),
			zap.String("number", order.Number),
		)
		return nil
	}

	submitted := false
	if h.idemCfg.Enabled {
		submitted, err = h.idempotency.IsProcessed(ctx, dispatchKey(order))
		if err != nil {
			return fmt.Errorf("dispatch: idempotency check for %s: %w", order.Number, err)
		}
	}
	if !submitted {
		if err := h.submit(ctx, order); err != nil {
			return err
		}
	}

	if err := order.MarkSynced(); err != nil {
		return fmt.Errorf("dispatch: mark order %s synced: %w", order.Number, err)
	}
	if err := h.orders.UpdateStatus(ctx, order); err != nil {
		return fmt.Errorf("dispatch: persist order %s status: %w", order.Number, err)
	}

	h.logger.Info("order dispatched to ledger",
		zap.String("order_id", order.ID.String()),
		zap.String("number", order.Number),
	)
	return nil
}

// HandleDead flags the order when its dispatch job exhausted retries.
// Replayed from the queue, so an order that is no longer in processing is
// left alone.
func (h *DispatchHandler) HandleDead(ctx context.Context, job *queue.Job) error {
	orderID, err := orderIDFromJob(job)
	if err != nil {
		return err
	}

	order, err := h.orders.FindByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("dispatch: load order %s: %w", orderID, err)
	}
	if err := order.MarkDispatchFailed(); err != nil {
		if errors.Is(err, shared.ErrInvalidState) {
			return nil
		}
		return err
	}
	if err := h.orders.UpdateStatus(ctx, order); err != nil {
		return fmt.Errorf("dispatch: persist order %s status: %w", order.Number, err)
	}

	h.logger.Warn("order dispatch exhausted retries",
		zap.String("order_id", order.ID.String()),
		zap.String("number", order.Number),
		zap.String("last_error", job.LastError),
	)
	return nil
}

// Requeue returns a dead dispatch job and its order to the retry path.
// Intended for operators after the ledger outage or data problem behind the
// failure is resolved.
func (h *DispatchHandler) Requeue(ctx context.Context, worker *queue.Worker, jobs queue.JobRepository, jobID uuid.UUID) error {
	job, err := jobs.FindByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Type != queue.JobTypeDispatchOrder {
		return fmt.Errorf("%w: job %s is not a dispatch job", shared.ErrInvalidInput, jobID)
	}

	orderID, err := orderIDFromJob(job)
	if err != nil {
		return err
	}
	order, err := h.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if err := order.ResetForDispatch(); err != nil {
		return fmt.Errorf("requeue: order %s is %s: %w", order.Number, order.Status, err)
	}
	if err := h.orders.UpdateStatus(ctx, order); err != nil {
		return err
	}

	if _, err := worker.RequeueDead(ctx, jobID); err != nil {
		return err
	}

	h.logger.Info("dead dispatch job requeued",
		zap.String("job_id", jobID.String()),
		zap.String("order_id", order.ID.String()),
	)
	return nil
}

// submit builds the intake payload and pushes it, recording the idempotency
// key on success
func (h *DispatchHandler) submit(ctx context.Context, order *trade.Order) error {
	client, err := h.clients.FindByID(ctx, order.ClientID)
	if err != nil {
		return fmt.Errorf("dispatch: load client for order %s: %w", order.Number, err)
	}

	submission := &ledger.OrderSubmission{
		Number:      order.Number,
		ClientCode:  client.ExternalCode,
		DiscountPct: order.DiscountPct.StringFixed(2),
		Note:        order.Note,
		Lines:       make([]ledger.OrderSubmissionLine, 0, len(order.Lines)),
	}
	for i := range order.Lines {
		line := &order.Lines[i]
		submission.Lines = append(submission.Lines, ledger.OrderSubmissionLine{
			ProductCode: line.ProductExternalCode,
			Quantity:    line.Quantity.String(),
			UnitPrice:   line.UnitPrice.StringFixed(2),
			LineTotal:   line.LineTotal.StringFixed(2),
		})
	}

	if err := h.submitter.SubmitOrder(ctx, submission); err != nil {
		return fmt.Errorf("dispatch: submit order %s: %w", order.Number, err)
	}

	if h.idemCfg.Enabled {
		if _, err := h.idempotency.MarkProcessed(ctx, dispatchKey(order), h.idemCfg.TTL); err != nil {
			h.logger.Error("failed to record dispatch idempotency key",
				zap.String("number", order.Number),
				zap.Error(err),
			)
		}
	}
	return nil
}

func dispatchKey(order *trade.Order) string {
	return "dispatch:" + order.Number
}

func orderIDFromJob(job *queue.Job) (uuid.UUID, error) {
	var payload queue.DispatchPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return uuid.Nil, fmt.Errorf("dispatch: decode payload for job %s: %w", job.ID, err)
	}
	if payload.OrderID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: dispatch job %s has no order id", shared.ErrInvalidInput, job.ID)
	}
	return payload.OrderID, nil
}
