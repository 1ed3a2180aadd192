package order

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/b2bstore/backend/internal/domain/partner"
	"github.com/b2bstore/backend/internal/domain/shared"
	"github.com/b2bstore/backend/internal/domain/trade"
	"github.com/b2bstore/backend/internal/infrastructure/cache"
	"github.com/b2bstore/backend/internal/infrastructure/ledger"
	"github.com/b2bstore/backend/internal/infrastructure/queue"
)

type fakeOrderRepository struct {
	orders map[uuid.UUID]*trade.Order
}

func newFakeOrderRepository(orders ...*trade.Order) *fakeOrderRepository {
	repo := &fakeOrderRepository{orders: make(map[uuid.UUID]*trade.Order)}
	for _, o := range orders {
		repo.orders[o.ID] = o
	}
	return repo
}

func (r *fakeOrderRepository) FindByID(_ context.Context, id uuid.UUID) (*trade.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (r *fakeOrderRepository) Save(_ context.Context, order *trade.Order) error {
	copied := *order
	r.orders[order.ID] = &copied
	return nil
}

func (r *fakeOrderRepository) UpdateStatus(_ context.Context, order *trade.Order) error {
	stored, ok := r.orders[order.ID]
	if !ok {
		return shared.ErrNotFound
	}
	stored.Status = order.Status
	stored.SyncedAt = order.SyncedAt
	return nil
}

type fakeClientRepository struct {
	client *partner.Client
}

func (r *fakeClientRepository) FindByID(_ context.Context, id uuid.UUID) (*partner.Client, error) {
	if r.client == nil || r.client.ID != id {
		return nil, shared.ErrNotFound
	}
	return r.client, nil
}

func (r *fakeClientRepository) FindByExternalCode(_ context.Context, code string) (*partner.Client, error) {
	if r.client == nil || r.client.ExternalCode != code {
		return nil, shared.ErrNotFound
	}
	return r.client, nil
}

func (r *fakeClientRepository) Save(_ context.Context, client *partner.Client) error {
	r.client = client
	return nil
}

func (r *fakeClientRepository) Count(_ context.Context) (int64, error) {
	if r.client == nil {
		return 0, nil
	}
	return 1, nil
}

type fakeSubmitter struct {
	submissions []*ledger.OrderSubmission
	err         error
}

func (s *fakeSubmitter) SubmitOrder(_ context.Context, order *ledger.OrderSubmission) error {
	if s.err != nil {
		return s.err
	}
	s.submissions = append(s.submissions, order)
	return nil
}

func newDispatchOrder(t *testing.T, clientID uuid.UUID) *trade.Order {
	t.Helper()
	order := trade.NewOrder("ORD-20260115-ABCD1234", clientID, uuid.New(), trade.FulfillmentPickup)
	order.DiscountPct = decimal.NewFromInt(10)
	order.Lines = []trade.OrderLine{{
		BaseEntity:          shared.NewBaseEntity(),
		OrderID:             order.ID,
		ProductID:           uuid.New(),
		ProductExternalCode: "ART-001",
		ProductName:         "Tornillo M6",
		UnitPrice:           decimal.NewFromFloat(9.5),
		Quantity:            decimal.NewFromInt(3),
		LineTotal:           decimal.NewFromFloat(28.5),
	}}
	return order
}

func newDispatchJob(t *testing.T, orderID uuid.UUID) *queue.Job {
	t.Helper()
	payload, err := json.Marshal(queue.DispatchPayload{OrderID: orderID})
	require.NoError(t, err)
	return queue.NewJob(queue.JobTypeDispatchOrder, payload)
}

type dispatchFixture struct {
	handler   *DispatchHandler
	orders    *fakeOrderRepository
	submitter *fakeSubmitter
	store     *cache.MemoryIdempotencyStore
	order     *trade.Order
	job       *queue.Job
}

func newDispatchFixture(t *testing.T) *dispatchFixture {
	t.Helper()
	client := partner.NewClient("CLI-1", "Ferreteria Sol")
	order := newDispatchOrder(t, client.ID)
	orders := newFakeOrderRepository(order)
	submitter := &fakeSubmitter{}
	store := cache.NewMemoryIdempotencyStore()

	cfg := shared.IdempotencyConfig{Enabled: true, TTL: time.Hour}
	handler := NewDispatchHandler(orders, &fakeClientRepository{client: client}, submitter, store, cfg, zap.NewNop())
	return &dispatchFixture{
		handler:   handler,
		orders:    orders,
		submitter: submitter,
		store:     store,
		order:     order,
		job:       newDispatchJob(t, order.ID),
	}
}

func TestDispatchHandleSubmitsAndSyncs(t *testing.T) {
	f := newDispatchFixture(t)
	ctx := context.Background()

	require.NoError(t, f.handler.Handle(ctx, f.job))

	require.Len(t, f.submitter.submissions, 1)
	sub := f.submitter.submissions[0]
	assert.Equal(t, "ORD-20260115-ABCD1234", sub.Number)
	assert.Equal(t, "CLI-1", sub.ClientCode)
	assert.Equal(t, "10.00", sub.DiscountPct)
	require.Len(t, sub.Lines, 1)
	assert.Equal(t, "ART-001", sub.Lines[0].ProductCode)
	assert.Equal(t, "9.50", sub.Lines[0].UnitPrice)
	assert.Equal(t, "28.50", sub.Lines[0].LineTotal)
	assert.Equal(t, "3", sub.Lines[0].Quantity)

	stored, err := f.orders.FindByID(ctx, f.order.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsSynced())
	assert.NotNil(t, stored.SyncedAt)

	marked, err := f.store.IsProcessed(ctx, "dispatch:ORD-20260115-ABCD1234")
	require.NoError(t, err)
	assert.True(t, marked)
}

func TestDispatchHandleAlreadySynced(t *testing.T) {
	f := newDispatchFixture(t)
	ctx := context.Background()

	require.NoError(t, f.order.MarkSynced())
	require.NoError(t, f.orders.Save(ctx, f.order))

	require.NoError(t, f.handler.Handle(ctx, f.job))
	assert.Empty(t, f.submitter.submissions)
}

func TestDispatchHandleReplayAfterSubmit(t *testing.T) {
	// A crash between submit and the status write leaves the idempotency
	// key behind; the replay must finish the status transition without
	// re-submitting.
	f := newDispatchFixture(t)
	ctx := context.Background()

	_, err := f.store.MarkProcessed(ctx, "dispatch:ORD-20260115-ABCD1234", time.Hour)
	require.NoError(t, err)

	require.NoError(t, f.handler.Handle(ctx, f.job))
	assert.Empty(t, f.submitter.submissions)

	stored, err := f.orders.FindByID(ctx, f.order.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsSynced())
}

func TestDispatchHandleSubmitFailure(t *testing.T) {
	f := newDispatchFixture(t)
	ctx := context.Background()
	f.submitter.err = errors.New("ledger unreachable")

	err := f.handler.Handle(ctx, f.job)
	require.Error(t, err)

	stored, findErr := f.orders.FindByID(ctx, f.order.ID)
	require.NoError(t, findErr)
	assert.Equal(t, trade.OrderStatusProcessing, stored.Status)

	marked, err := f.store.IsProcessed(ctx, "dispatch:ORD-20260115-ABCD1234")
	require.NoError(t, err)
	assert.False(t, marked)
}

func TestDispatchHandleIdempotencyDisabled(t *testing.T) {
	client := partner.NewClient("CLI-1", "Ferreteria Sol")
	order := newDispatchOrder(t, client.ID)
	orders := newFakeOrderRepository(order)
	submitter := &fakeSubmitter{}
	store := cache.NewMemoryIdempotencyStore()
	ctx := context.Background()

	cfg := shared.IdempotencyConfig{Enabled: false}
	handler := NewDispatchHandler(orders, &fakeClientRepository{client: client}, submitter, store, cfg, zap.NewNop())

	// A leftover key is ignored when the guard is off
	_, err := store.MarkProcessed(ctx, "dispatch:ORD-20260115-ABCD1234", time.Hour)
	require.NoError(t, err)

	require.NoError(t, handler.Handle(ctx, newDispatchJob(t, order.ID)))
	assert.Len(t, submitter.submissions, 1)
}

func TestDispatchHandleDead(t *testing.T) {
	f := newDispatchFixture(t)
	ctx := context.Background()

	require.NoError(t, f.handler.HandleDead(ctx, f.job))

	stored, err := f.orders.FindByID(ctx, f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.OrderStatusDispatchFailed, stored.Status)

	// A synced order is never flagged, even on a replayed dead letter
	require.NoError(t, stored.MarkSynced())
	require.NoError(t, f.orders.Save(ctx, stored))
	require.NoError(t, f.handler.HandleDead(ctx, f.job))

	stored, err = f.orders.FindByID(ctx, f.order.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsSynced())
}

type singleJobRepository struct {
	job *queue.Job
}

func (r *singleJobRepository) Enqueue(_ context.Context, jobs ...*queue.Job) error {
	if len(jobs) > 0 {
		r.job = jobs[0]
	}
	return nil
}

func (r *singleJobRepository) FindDue(_ context.Context, _ time.Time, _ int) ([]*queue.Job, error) {
	return nil, nil
}

func (r *singleJobRepository) Claim(_ context.Context, _ []uuid.UUID) ([]*queue.Job, error) {
	return nil, nil
}

func (r *singleJobRepository) FindByID(_ context.Context, id uuid.UUID) (*queue.Job, error) {
	if r.job == nil || r.job.ID != id {
		return nil, shared.ErrNotFound
	}
	return r.job, nil
}

func (r *singleJobRepository) FindDead(_ context.Context, _, _ int) ([]*queue.Job, int64, error) {
	if r.job != nil && r.job.IsDead() {
		return []*queue.Job{r.job}, 1, nil
	}
	return nil, 0, nil
}

func (r *singleJobRepository) Update(_ context.Context, job *queue.Job) error {
	r.job = job
	return nil
}

func (r *singleJobRepository) ReclaimStale(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (r *singleJobRepository) ExpireOverdue(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (r *singleJobRepository) DeleteCompletedBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (r *singleJobRepository) CountByStatus(_ context.Context) (map[queue.JobStatus]int64, error) {
	return map[queue.JobStatus]int64{}, nil
}

func TestDispatchRequeue(t *testing.T) {
	f := newDispatchFixture(t)
	ctx := context.Background()

	// Dead-letter the job and flag the order
	for !f.job.IsDead() {
		f.job.MarkFailed("ledger unreachable")
	}
	require.NoError(t, f.handler.HandleDead(ctx, f.job))

	jobs := &singleJobRepository{job: f.job}
	worker := queue.NewWorker(jobs, queue.DefaultWorkerConfig(), zap.NewNop())

	require.NoError(t, f.handler.Requeue(ctx, worker, jobs, f.job.ID))

	assert.Equal(t, queue.JobStatusQueued, jobs.job.Status)
	assert.Zero(t, jobs.job.RetryCount)

	stored, err := f.orders.FindByID(ctx, f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.OrderStatusProcessing, stored.Status)
}

func TestDispatchRequeueRejectsLiveOrder(t *testing.T) {
	f := newDispatchFixture(t)
	ctx := context.Background()

	for !f.job.IsDead() {
		f.job.MarkFailed("ledger unreachable")
	}
	jobs := &singleJobRepository{job: f.job}
	worker := queue.NewWorker(jobs, queue.DefaultWorkerConfig(), zap.NewNop())

	// Order still processing, never flagged: requeue refuses
	err := f.handler.Requeue(ctx, worker, jobs, f.job.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestDispatchHandleBadPayload(t *testing.T) {
	f := newDispatchFixture(t)
	job := queue.NewJob(queue.JobTypeDispatchOrder, []byte(`{"order_id":"not a uuid"}`))
	assert.Error(t, f.handler.Handle(context.Background(), job))

	empty := queue.NewJob(queue.JobTypeDispatchOrder, []byte(`{}`))
	assert.ErrorIs(t, f.handler.Handle(context.Background(), empty), shared.ErrInvalidInput)
}
