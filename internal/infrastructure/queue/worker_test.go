package queue

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// memoryJobRepository is an in-memory JobRepository for worker tests
type memoryJobRepository struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*Job
}

func newMemoryJobRepository() *memoryJobRepository {
	return &memoryJobRepository{jobs: make(map[uuid.UUID]*Job)}
}

func (r *memoryJobRepository) Enqueue(_ context.Context, jobs ...*Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, j := range jobs {
		copied := *j
		r.jobs[j.ID] = &copied
	}
	return nil
}

func (r *memoryJobRepository) FindDue(_ context.Context, now time.Time, limit int) ([]*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []*Job
	for _, j := range r.jobs {
		if j.Status != JobStatusQueued && j.Status != JobStatusRetrying {
			continue
		}
		if j.NotBefore != nil && j.NotBefore.After(now) {
			continue
		}
		if j.IsExpired(now) {
			continue
		}
		copied := *j
		due = append(due, &copied)
	}
	sort.Slice(due, func(i, k int) bool { return due[i].CreatedAt.Before(due[k].CreatedAt) })
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (r *memoryJobRepository) Claim(_ context.Context, ids []uuid.UUID) ([]*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var claimed []*Job
	for _, id := range ids {
		j, ok := r.jobs[id]
		if !ok || (j.Status != JobStatusQueued && j.Status != JobStatusRetrying) {
			continue
		}
		j.Status = JobStatusProcessing
		j.UpdatedAt = time.Now()
		copied := *j
		claimed = append(claimed, &copied)
	}
	return claimed, nil
}

func (r *memoryJobRepository) FindByID(_ context.Context, id uuid.UUID) (*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *j
	return &copied, nil
}

func (r *memoryJobRepository) FindDead(_ context.Context, _, _ int) ([]*Job, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var dead []*Job
	for _, j := range r.jobs {
		if j.Status == JobStatusDead {
			copied := *j
			dead = append(dead, &copied)
		}
	}
	return dead, int64(len(dead)), nil
}

func (r *memoryJobRepository) Update(_ context.Context, job *Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *job
	r.jobs[job.ID] = &copied
	return nil
}

func (r *memoryJobRepository) ReclaimStale(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, j := range r.jobs {
		if j.Status != JobStatusProcessing || !j.UpdatedAt.Before(cutoff) {
			continue
		}
		j.RetryCount++
		j.NotBefore = nil
		j.UpdatedAt = time.Now()
		if j.RetryCount > j.MaxRetries {
			j.Status = JobStatusDead
			j.LastError = "worker lost before ack"
		} else {
			j.Status = JobStatusRetrying
		}
		n++
	}
	return n, nil
}

func (r *memoryJobRepository) ExpireOverdue(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, j := range r.jobs {
		if (j.Status == JobStatusQueued || j.Status == JobStatusRetrying) && j.IsExpired(now) {
			j.MarkExpired()
			n++
		}
	}
	return n, nil
}

func (r *memoryJobRepository) DeleteCompletedBefore(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, j := range r.jobs {
		if j.Status == JobStatusCompleted && j.CompletedAt != nil && j.CompletedAt.Before(before) {
			delete(r.jobs, id)
			n++
		}
	}
	return n, nil
}

func (r *memoryJobRepository) CountByStatus(_ context.Context) (map[JobStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[JobStatus]int64)
	for _, j := range r.jobs {
		counts[j.Status]++
	}
	return counts, nil
}

func newTestWorker(repo JobRepository) *Worker {
	return NewWorker(repo, DefaultWorkerConfig(), zap.NewNop())
}

func TestWorkerCompletesJob(t *testing.T) {
	repo := newMemoryJobRepository()
	worker := newTestWorker(repo)

	var handled []byte
	worker.Register("greet", func(_ context.Context, job *Job) error {
		handled = job.Payload
		return nil
	})

	job := NewJob("greet", []byte("hola"))
	require.NoError(t, repo.Enqueue(context.Background(), job))

	worker.processBatch(context.Background())

	assert.Equal(t, []byte("hola"), handled)
	stored, err := repo.FindByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusCompleted, stored.Status)
	assert.NotNil(t, stored.CompletedAt)
}

func TestWorkerRetriesFailedJob(t *testing.T) {
	repo := newMemoryJobRepository()
	worker := newTestWorker(repo)

	attempts := 0
	worker.Register("flaky", func(_ context.Context, _ *Job) error {
		attempts++
		return errors.New("transient")
	})

	job := NewJob("flaky", nil)
	require.NoError(t, repo.Enqueue(context.Background(), job))

	worker.processBatch(context.Background())

	assert.Equal(t, 1, attempts)
	stored, err := repo.FindByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusRetrying, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
	require.NotNil(t, stored.NotBefore)

	// Not due yet: the backoff window keeps it out of the next batch
	worker.processBatch(context.Background())
	assert.Equal(t, 1, attempts)
}

func TestWorkerDeadLettersAfterRetryBudget(t *testing.T) {
	repo := newMemoryJobRepository()
	worker := newTestWorker(repo)

	worker.Register("doomed", func(_ context.Context, _ *Job) error {
		return errors.New("permanent")
	})

	job := NewJob("doomed", nil, WithMaxRetries(0))
	require.NoError(t, repo.Enqueue(context.Background(), job))

	worker.processBatch(context.Background())

	stored, err := repo.FindByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsDead())
	assert.Equal(t, "permanent", stored.LastError)
}

func TestWorkerDeliversInitialPlusRetries(t *testing.T) {
	repo := newMemoryJobRepository()
	worker := newTestWorker(repo)

	attempts := 0
	worker.Register("doomed", func(_ context.Context, _ *Job) error {
		attempts++
		return errors.New("permanent")
	})

	job := NewJob("doomed", nil, WithMaxRetries(3))
	require.NoError(t, repo.Enqueue(context.Background(), job))

	// Run batches until the job stops being redelivered, clearing the
	// backoff window so each retry is immediately due
	for i := 0; i < 10; i++ {
		worker.processBatch(context.Background())
		stored, err := repo.FindByID(context.Background(), job.ID)
		require.NoError(t, err)
		if stored.IsDead() {
			break
		}
		stored.NotBefore = nil
		require.NoError(t, repo.Update(context.Background(), stored))
	}

	// Three retries on top of the initial delivery
	assert.Equal(t, 4, attempts)
	stored, err := repo.FindByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsDead())

	worker.processBatch(context.Background())
	assert.Equal(t, 4, attempts)
}

func TestWorkerUnknownJobType(t *testing.T) {
	repo := newMemoryJobRepository()
	worker := newTestWorker(repo)

	job := NewJob("unregistered", nil, WithMaxRetries(0))
	require.NoError(t, repo.Enqueue(context.Background(), job))

	worker.processBatch(context.Background())

	stored, err := repo.FindByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsDead())
	assert.Contains(t, stored.LastError, "no handler registered")
}

func TestWorkerRequeueDead(t *testing.T) {
	repo := newMemoryJobRepository()
	worker := newTestWorker(repo)

	calls := 0
	worker.Register("revivable", func(_ context.Context, _ *Job) error {
		calls++
		if calls == 1 {
			return errors.New("first life")
		}
		return nil
	})

	job := NewJob("revivable", nil, WithMaxRetries(0))
	require.NoError(t, repo.Enqueue(context.Background(), job))

	worker.processBatch(context.Background())
	stored, err := repo.FindByID(context.Background(), job.ID)
	require.NoError(t, err)
	require.True(t, stored.IsDead())

	requeued, err := worker.RequeueDead(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusQueued, requeued.Status)

	worker.processBatch(context.Background())
	stored, err = repo.FindByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusCompleted, stored.Status)
	assert.Equal(t, 2, calls)
}

func TestWorkerRequeueNonDeadJobFails(t *testing.T) {
	repo := newMemoryJobRepository()
	worker := newTestWorker(repo)

	job := NewJob("x", nil)
	require.NoError(t, repo.Enqueue(context.Background(), job))

	_, err := worker.RequeueDead(context.Background(), job.ID)
	assert.Error(t, err)
}

func TestWorkerMaintainExpiresOverdueJobs(t *testing.T) {
	repo := newMemoryJobRepository()
	worker := newTestWorker(repo)

	expired := NewJob("x", nil, WithExpiry(time.Now().Add(-time.Hour)))
	alive := NewJob("x", nil, WithExpiry(time.Now().Add(time.Hour)))
	require.NoError(t, repo.Enqueue(context.Background(), expired, alive))

	worker.maintain(context.Background())

	stored, err := repo.FindByID(context.Background(), expired.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsDead())

	stored, err = repo.FindByID(context.Background(), alive.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusQueued, stored.Status)
}

func TestWorkerMaintainReclaimsLostJob(t *testing.T) {
	repo := newMemoryJobRepository()
	worker := newTestWorker(repo)

	calls := 0
	worker.Register("orphaned", func(_ context.Context, _ *Job) error {
		calls++
		return nil
	})

	job := NewJob("orphaned", nil)
	require.NoError(t, repo.Enqueue(context.Background(), job))

	// Claim without completing, as a worker that died mid-job would
	claimed, err := repo.Claim(context.Background(), []uuid.UUID{job.ID})
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	// Still inside the visibility window: nothing to reclaim
	worker.maintain(context.Background())
	stored, err := repo.FindByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusProcessing, stored.Status)

	stored.UpdatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, repo.Update(context.Background(), stored))

	worker.maintain(context.Background())
	stored, err = repo.FindByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusRetrying, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)

	worker.processBatch(context.Background())
	assert.Equal(t, 1, calls)
	stored, err = repo.FindByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusCompleted, stored.Status)
}

func TestWorkerMaintainDeadLettersStaleOutOfBudget(t *testing.T) {
	repo := newMemoryJobRepository()
	worker := newTestWorker(repo)

	job := NewJob("orphaned", nil, WithMaxRetries(0))
	require.NoError(t, repo.Enqueue(context.Background(), job))

	_, err := repo.Claim(context.Background(), []uuid.UUID{job.ID})
	require.NoError(t, err)

	stored, err := repo.FindByID(context.Background(), job.ID)
	require.NoError(t, err)
	stored.UpdatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, repo.Update(context.Background(), stored))

	worker.maintain(context.Background())

	stored, err = repo.FindByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsDead())
	assert.Equal(t, "worker lost before ack", stored.LastError)
}
