package queue

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of a queued job
type JobStatus string

const (
	JobStatusQueued     JobStatus = "QUEUED"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusRetrying   JobStatus = "RETRYING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusDead       JobStatus = "DEAD"
)

// BackoffStrategy selects how retry delays grow
type BackoffStrategy string

const (
	BackoffExponential BackoffStrategy = "EXPONENTIAL"
	BackoffFixed       BackoffStrategy = "FIXED"
)

// ParseBackoff maps a configured backoff mode onto a strategy
func ParseBackoff(mode string) (BackoffStrategy, error) {
	switch strings.ToLower(mode) {
	case "", "exponential":
		return BackoffExponential, nil
	case "fixed":
		return BackoffFixed, nil
	default:
		return "", fmt.Errorf("unknown backoff mode %q", mode)
	}
}

// Default retry configuration
const (
	DefaultMaxRetries  = 5
	DefaultBaseBackoff = time.Second
)

// JobTypeDispatchOrder is the job type for pushing a confirmed order into
// the external ledger
const JobTypeDispatchOrder = "order.dispatch"

// Job is one durable unit of background work. Jobs survive restarts,
// retry with backoff on failure and land in the dead letter set once
// retries are exhausted. Delivery is at least once; handlers must be
// idempotent.
type Job struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Type        string          `gorm:"size:100;not null;index"`
	Payload     []byte          `gorm:"not null"`
	Status      JobStatus       `gorm:"size:20;not null;index"`
	RetryCount  int             `gorm:"not null;default:0"`
	MaxRetries  int             `gorm:"not null"`
	Backoff     BackoffStrategy `gorm:"size:20;not null"`
	LastError   string          `gorm:"size:2000"`
	NotBefore   *time.Time      `gorm:"index"`
	ExpiresAt   *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// JobOption customizes a job at creation time
type JobOption func(*Job)

// WithMaxRetries overrides the default retry budget
func WithMaxRetries(n int) JobOption {
	return func(j *Job) { j.MaxRetries = n }
}

// WithBackoff selects the retry delay strategy
func WithBackoff(s BackoffStrategy) JobOption {
	return func(j *Job) { j.Backoff = s }
}

// WithNotBefore delays the first execution until the given time
func WithNotBefore(t time.Time) JobOption {
	return func(j *Job) { j.NotBefore = &t }
}

// WithExpiry discards the job if it has not completed by the given time
func WithExpiry(t time.Time) JobOption {
	return func(j *Job) { j.ExpiresAt = &t }
}

// NewJob creates a queued job of the given type
func NewJob(jobType string, payload []byte, opts ...JobOption) *Job {
	now := time.Now()
	job := &Job{
		ID:         uuid.New(),
		Type:       jobType,
		Payload:    payload,
		Status:     JobStatusQueued,
		MaxRetries: DefaultMaxRetries,
		Backoff:    BackoffExponential,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, opt := range opts {
		opt(job)
	}
	return job
}

// MarkProcessing transitions the job to processing
func (j *Job) MarkProcessing() error {
	if j.Status != JobStatusQueued && j.Status != JobStatusRetrying {
		return errors.New("can only process queued or retrying jobs")
	}
	j.Status = JobStatusProcessing
	j.UpdatedAt = time.Now()
	return nil
}

// MarkCompleted transitions the job to completed
func (j *Job) MarkCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// MarkFailed records a failed attempt. The job either schedules its next
// retry or, once the retry budget is spent, moves to the dead letter set.
// A job with MaxRetries N is attempted N+1 times in total: the initial
// delivery plus N retries.
func (j *Job) MarkFailed(errMsg string) {
	j.RetryCount++
	j.LastError = errMsg
	j.UpdatedAt = time.Now()

	if j.RetryCount > j.MaxRetries {
		j.Status = JobStatusDead
		j.NotBefore = nil
		return
	}

	j.Status = JobStatusRetrying
	var delay time.Duration
	switch j.Backoff {
	case BackoffFixed:
		delay = DefaultBaseBackoff
	default:
		// 1s, 2s, 4s, 8s, ...
		delay = DefaultBaseBackoff * time.Duration(1<<uint(j.RetryCount-1))
	}
	next := time.Now().Add(delay)
	j.NotBefore = &next
}

// MarkExpired moves an overdue job straight to the dead letter set
func (j *Job) MarkExpired() {
	j.Status = JobStatusDead
	j.LastError = "expired before completion"
	j.NotBefore = nil
	j.UpdatedAt = time.Now()
}

// ResetForRetry requeues a dead job with a fresh retry budget. Used by the
// operator requeue flow.
func (j *Job) ResetForRetry() error {
	if j.Status != JobStatusDead {
		return errors.New("can only requeue dead jobs")
	}
	j.Status = JobStatusQueued
	j.RetryCount = 0
	j.LastError = ""
	j.NotBefore = nil
	j.UpdatedAt = time.Now()
	return nil
}

// IsDead returns true if the job is in the dead letter set
func (j *Job) IsDead() bool {
	return j.Status == JobStatusDead
}

// IsExpired returns true if the job's deadline has passed
func (j *Job) IsExpired(now time.Time) bool {
	return j.ExpiresAt != nil && now.After(*j.ExpiresAt)
}

// TableName overrides the gorm table name
func (Job) TableName() string {
	return "dispatch_jobs"
}
