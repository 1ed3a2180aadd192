package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	orderapp "github.com/b2bstore/backend/internal/application/order"
	"github.com/b2bstore/backend/internal/infrastructure/queue"
)

// AdminHandler exposes the operator surface for the dispatch queue
type AdminHandler struct {
	BaseHandler
	dispatch *orderapp.DispatchHandler
	worker   *queue.Worker
	jobs     queue.JobRepository
}

// NewAdminHandler creates an admin handler
func NewAdminHandler(dispatch *orderapp.DispatchHandler, worker *queue.Worker, jobs queue.JobRepository) *AdminHandler {
	return &AdminHandler{dispatch: dispatch, worker: worker, jobs: jobs}
}

// RegisterRoutes registers admin routes
func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/dispatch-jobs/dead", h.ListDead)
	rg.POST("/dispatch-jobs/:id/requeue", h.Requeue)
}

// DeadJobResponse is one dead-lettered job
type DeadJobResponse struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	Payload    string    `json:"payload"`
	RetryCount int       `json:"retry_count"`
	LastError  string    `json:"last_error"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DeadJobListResponse is the paginated dead letter set
type DeadJobListResponse struct {
	Jobs  []DeadJobResponse `json:"jobs"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
}

// ListDead returns dead-lettered jobs, newest first
func (h *AdminHandler) ListDead(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	jobs, total, err := h.jobs.FindDead(c.Request.Context(), page, pageSize)
	if err != nil {
		h.DomainError(c, err)
		return
	}

	resp := DeadJobListResponse{
		Jobs:  make([]DeadJobResponse, 0, len(jobs)),
		Total: total,
		Page:  page,
	}
	for _, job := range jobs {
		resp.Jobs = append(resp.Jobs, DeadJobResponse{
			ID:         job.ID,
			Type:       job.Type,
			Payload:    string(job.Payload),
			RetryCount: job.RetryCount,
			LastError:  job.LastError,
			CreatedAt:  job.CreatedAt,
			UpdatedAt:  job.UpdatedAt,
		})
	}
	h.Success(c, resp)
}

// Requeue returns a dead dispatch job and its order to the retry path
func (h *AdminHandler) Requeue(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "malformed job id")
		return
	}

	if err := h.dispatch.Requeue(c.Request.Context(), h.worker, h.jobs, jobID); err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, gin.H{"job_id": jobID, "status": string(queue.JobStatusQueued)})
}
