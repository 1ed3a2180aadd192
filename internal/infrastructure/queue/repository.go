package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JobRepository defines persistence for durable jobs
type JobRepository interface {
	// Enqueue persists one or more jobs
	Enqueue(ctx context.Context, jobs ...*Job) error
	// FindDue retrieves jobs ready to run at the given time
	FindDue(ctx context.Context, now time.Time, limit int) ([]*Job, error)
	// Claim atomically marks jobs as processing and returns the ones won
	Claim(ctx context.Context, ids []uuid.UUID) ([]*Job, error)
	// FindByID retrieves a single job
	FindByID(ctx context.Context, id uuid.UUID) (*Job, error)
	// FindDead retrieves dead letter jobs with pagination
	FindDead(ctx context.Context, page, pageSize int) ([]*Job, int64, error)
	// Update persists changes to an existing job
	Update(ctx context.Context, job *Job) error
	// ExpireOverdue dead-letters jobs whose deadline passed before now
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
	// ReclaimStale redelivers processing jobs not touched since the cutoff
	ReclaimStale(ctx context.Context, cutoff time.Time) (int64, error)
	// DeleteCompletedBefore removes completed jobs older than the cutoff
	DeleteCompletedBefore(ctx context.Context, before time.Time) (int64, error)
	// CountByStatus returns the number of jobs per status
	CountByStatus(ctx context.Context) (map[JobStatus]int64, error)
}

// GormJobRepository implements JobRepository using GORM
type GormJobRepository struct {
	db *gorm.DB
}

// NewGormJobRepository creates a new GORM-based job repository
func NewGormJobRepository(db *gorm.DB) *GormJobRepository {
	return &GormJobRepository{db: db}
}

// WithTx returns a repository bound to the given transaction. Enqueueing
// through the transactional copy is what makes job creation atomic with
// the business write that triggered it.
func (r *GormJobRepository) WithTx(tx *gorm.DB) *GormJobRepository {
	return &GormJobRepository{db: tx}
}

// Enqueue persists one or more jobs
func (r *GormJobRepository) Enqueue(ctx context.Context, jobs ...*Job) error {
	if len(jobs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(jobs).Error
}

// FindDue retrieves jobs ready to run at the given time
func (r *GormJobRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]*Job, error) {
	var jobs []*Job
	err := r.db.WithContext(ctx).
		Where("status IN ?", []JobStatus{JobStatusQueued, JobStatusRetrying}).
		Where("not_before IS NULL OR not_before <= ?", now).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

// Claim atomically marks jobs as processing and returns the ones won.
// FOR UPDATE SKIP LOCKED keeps competing workers from blocking on each
// other's claims.
func (r *GormJobRepository) Claim(ctx context.Context, ids []uuid.UUID) ([]*Job, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var jobs []*Job
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.Locking{
				Strength: "UPDATE",
				Options:  "SKIP LOCKED",
			}).
			Where("id IN ? AND status IN ?", ids, []JobStatus{
				JobStatusQueued,
				JobStatusRetrying,
			}).
			Find(&jobs).Error; err != nil {
			return err
		}

		if len(jobs) == 0 {
			return nil
		}

		claimedIDs := make([]uuid.UUID, len(jobs))
		for i, j := range jobs {
			claimedIDs[i] = j.ID
		}

		now := time.Now()
		if err := tx.Model(&Job{}).
			Where("id IN ?", claimedIDs).
			Updates(map[string]interface{}{
				"status":     JobStatusProcessing,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}

		for _, j := range jobs {
			j.Status = JobStatusProcessing
			j.UpdatedAt = now
		}
		return nil
	})

	return jobs, err
}

// FindByID retrieves a single job
func (r *GormJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*Job, error) {
	var job Job
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// FindDead retrieves dead letter jobs with pagination
func (r *GormJobRepository) FindDead(ctx context.Context, page, pageSize int) ([]*Job, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&Job{}).
		Where("status = ?", JobStatusDead).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var jobs []*Job
	err := r.db.WithContext(ctx).
		Where("status = ?", JobStatusDead).
		Order("updated_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&jobs).Error
	return jobs, total, err
}

// Update persists changes to an existing job
func (r *GormJobRepository) Update(ctx context.Context, job *Job) error {
	job.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(job).Error
}

// ExpireOverdue dead-letters jobs whose deadline passed before now
func (r *GormJobRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&Job{}).
		Where("status IN ?", []JobStatus{JobStatusQueued, JobStatusRetrying}).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Updates(map[string]interface{}{
			"status":     JobStatusDead,
			"last_error": "expired before completion",
			"not_before": nil,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

// ReclaimStale redelivers processing jobs not touched since the cutoff.
// A claimed job only stays in processing while its worker is alive; one
// that lingers past the visibility window means the worker died before
// acking. The lost delivery counts as an attempt, so a job out of budget
// goes straight to the dead letter set instead of being redelivered.
func (r *GormJobRepository) ReclaimStale(ctx context.Context, cutoff time.Time) (int64, error) {
	var reclaimed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		dead := tx.Model(&Job{}).
			Where("status = ? AND updated_at < ?", JobStatusProcessing, cutoff).
			Where("retry_count >= max_retries").
			Updates(map[string]interface{}{
				"status":      JobStatusDead,
				"retry_count": gorm.Expr("retry_count + 1"),
				"last_error":  "worker lost before ack",
				"not_before":  nil,
				"updated_at":  now,
			})
		if dead.Error != nil {
			return dead.Error
		}

		redelivered := tx.Model(&Job{}).
			Where("status = ? AND updated_at < ?", JobStatusProcessing, cutoff).
			Updates(map[string]interface{}{
				"status":      JobStatusRetrying,
				"retry_count": gorm.Expr("retry_count + 1"),
				"last_error":  "worker lost before ack",
				"not_before":  nil,
				"updated_at":  now,
			})
		if redelivered.Error != nil {
			return redelivered.Error
		}

		reclaimed = dead.RowsAffected + redelivered.RowsAffected
		return nil
	})
	return reclaimed, err
}

// DeleteCompletedBefore removes completed jobs older than the cutoff
func (r *GormJobRepository) DeleteCompletedBefore(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("status = ? AND completed_at < ?", JobStatusCompleted, before).
		Delete(&Job{})
	return result.RowsAffected, result.Error
}

// CountByStatus returns the number of jobs per status
func (r *GormJobRepository) CountByStatus(ctx context.Context) (map[JobStatus]int64, error) {
	var rows []struct {
		Status JobStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).Model(&Job{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[JobStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
