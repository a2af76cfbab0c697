package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/fixlane/api/internal/middleware"
	"github.com/fixlane/api/internal/model"
	"github.com/fixlane/api/internal/service"
	"github.com/fixlane/api/pkg/response"
)

// ProgressHandler drives the contractor execution workflow: claiming a
// job, acknowledging it, advancing the 5 steps and submitting the final
// report.
type ProgressHandler struct {
	service   *service.JobService
	validator *validator.Validate
}

func NewProgressHandler(svc *service.JobService, v *validator.Validate) *ProgressHandler {
	return &ProgressHandler{
		service:   svc,
		validator: v,
	}
}

// ownsJob reports whether a contractor session may drive this job's
// workflow. Admins pass, and unknown or unassigned jobs pass through so
// the service reports NotFound or the claim outcome uniformly.
func (h *ProgressHandler) ownsJob(c *fiber.Ctx, jobID string) bool {
	if model.Role(middleware.GetRole(c)) != model.RoleContractor {
		return true
	}
	job, err := h.service.GetJob(jobID)
	if err != nil {
		return true
	}
	if job.AssignedContractorID == "" {
		return true
	}
	return job.IsAssignedTo(middleware.GetUserID(c))
}

// Assign handles POST /api/jobs/:jobId/assign
// @Summary      Claim an open job
// @Description  Assign the job to a contractor; moves it to InProgress and starts the workflow at step 1
// @Tags         Progress
// @Accept       json
// @Produce      json
// @Param        jobId path string true "Job ID"
// @Param        request body model.JobAssignRequest false "Assignment request"
// @Success      200 {object} model.Job
// @Failure      404 {object} response.ErrorResponse
// @Failure      409 {object} response.ErrorResponse
// @Failure      502 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/jobs/{jobId}/assign [post]
func (h *ProgressHandler) Assign(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	var req model.JobAssignRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.ValidationError(c, "Invalid request body", nil)
		}
	}

	contractorID := req.ContractorID
	if contractorID == "" {
		contractorID = middleware.GetUserID(c)
	}

	job, err := h.service.AssignContractor(c.Context(), jobID, contractorID)
	if err != nil {
		return respondDomainError(c, err)
	}

	return response.OK(c, job)
}

// Acknowledge handles POST /api/jobs/:jobId/acknowledge
// @Summary      Acknowledge an assigned job
// @Description  Required before the workflow can advance past step 1
// @Tags         Progress
// @Produce      json
// @Param        jobId path string true "Job ID"
// @Success      200 {object} model.Job
// @Failure      403 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      409 {object} response.ErrorResponse
// @Failure      502 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/jobs/{jobId}/acknowledge [post]
func (h *ProgressHandler) Acknowledge(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	if !h.ownsJob(c, jobID) {
		return response.Forbidden(c, "Job is assigned to another contractor")
	}

	job, err := h.service.Acknowledge(c.Context(), jobID)
	if err != nil {
		return respondDomainError(c, err)
	}

	return response.OK(c, job)
}

// Advance handles POST /api/jobs/:jobId/advance
// @Summary      Advance the workflow
// @Description  Move the 5-step workflow forward by exactly one step; persisted write-through so a reload resumes here
// @Tags         Progress
// @Accept       json
// @Produce      json
// @Param        jobId path string true "Job ID"
// @Param        request body model.JobAdvanceRequest true "Advance request"
// @Success      200 {object} model.Job
// @Failure      400 {object} response.ErrorResponse
// @Failure      403 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      409 {object} response.ErrorResponse
// @Failure      502 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/jobs/{jobId}/advance [post]
func (h *ProgressHandler) Advance(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	if !h.ownsJob(c, jobID) {
		return response.Forbidden(c, "Job is assigned to another contractor")
	}

	var req model.JobAdvanceRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	job, err := h.service.AdvanceStep(c.Context(), jobID, req.ToStep)
	if err != nil {
		return respondDomainError(c, err)
	}

	return response.OK(c, job)
}

// Complete handles POST /api/jobs/:jobId/complete
// @Summary      Complete a job
// @Description  Submit the final report at step 5; moves the job to Complete and records the contractor's ledger entry
// @Tags         Progress
// @Accept       json
// @Produce      json
// @Param        jobId path string true "Job ID"
// @Param        request body model.JobCompleteRequest false "Final report"
// @Success      200 {object} model.Job
// @Failure      403 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      409 {object} response.ErrorResponse
// @Failure      502 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/jobs/{jobId}/complete [post]
func (h *ProgressHandler) Complete(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	if !h.ownsJob(c, jobID) {
		return response.Forbidden(c, "Job is assigned to another contractor")
	}

	var req model.JobCompleteRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.ValidationError(c, "Invalid request body", nil)
		}
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	job, err := h.service.Complete(c.Context(), jobID, req.FinalReport)
	if err != nil {
		return respondDomainError(c, err)
	}

	return response.OK(c, job)
}
