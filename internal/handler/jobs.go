package handler

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/fixlane/api/internal/middleware"
	"github.com/fixlane/api/internal/model"
	"github.com/fixlane/api/internal/service"
	"github.com/fixlane/api/pkg/response"
)

type JobHandler struct {
	service   *service.JobService
	validator *validator.Validate
}

func NewJobHandler(svc *service.JobService, v *validator.Validate) *JobHandler {
	return &JobHandler{
		service:   svc,
		validator: v,
	}
}

// Create handles POST /api/jobs
// @Summary      Post a new job
// @Description  Create a job request for the customer's property
// @Tags         Jobs
// @Accept       json
// @Produce      json
// @Param        request body model.JobCreateRequest true "Job create request"
// @Success      201 {object} model.Job
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      502 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/jobs [post]
func (h *JobHandler) Create(c *fiber.Ctx) error {
	var req model.JobCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	// Session identity fills what the body leaves out; the session's
	// profile id is the canonical customer correlation key.
	if req.ProfileID == "" {
		req.ProfileID = middleware.GetProfileID(c)
	}
	if req.CustomerEmail == "" {
		req.CustomerEmail = middleware.GetUserEmail(c)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	job, err := h.service.CreateJob(c.Context(), &req)
	if err != nil {
		return respondDomainError(c, err)
	}

	return response.Created(c, job)
}

// List handles GET /api/jobs
// @Summary      List jobs
// @Description  Project the snapshot by role: customers see their own jobs, contractors their assignments or the available pool, admin and investor see everything
// @Tags         Jobs
// @Produce      json
// @Param        available query bool false "Only open, unassigned jobs"
// @Param        trade query string false "Filter available jobs by trade"
// @Param        contractorId query string false "Jobs assigned to a contractor"
// @Param        profileId query string false "Jobs belonging to a customer profile"
// @Success      200 {object} model.JobListResponse
// @Failure      401 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/jobs [get]
func (h *JobHandler) List(c *fiber.Ctx) error {
	var jobs []model.Job

	switch {
	case c.QueryBool("available"):
		jobs = h.service.ListAvailable(model.Trade(c.Query("trade")))
	case c.Query("contractorId") != "":
		jobs = h.service.ListByContractor(c.Query("contractorId"))
	case c.Query("profileId") != "" || c.Query("customerEmail") != "":
		jobs = h.service.ListByCustomer(c.Query("customerEmail"), c.Query("profileId"))
	default:
		jobs = h.listForRole(c)
	}

	return response.OK(c, model.JobListResponse{Jobs: jobs, Count: len(jobs)})
}

// listForRole picks the default projection for the session role.
func (h *JobHandler) listForRole(c *fiber.Ctx) []model.Job {
	switch model.Role(middleware.GetRole(c)) {
	case model.RoleCustomer:
		return h.service.ListByCustomer(middleware.GetUserEmail(c), middleware.GetProfileID(c))
	case model.RoleContractor:
		return h.service.ListByContractor(middleware.GetUserID(c))
	default:
		// admin and investor observe everything
		return h.service.ListAll()
	}
}

// Get handles GET /api/jobs/:jobId
// @Summary      Get a job
// @Tags         Jobs
// @Produce      json
// @Param        jobId path string true "Job ID"
// @Success      200 {object} model.Job
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/jobs/{jobId} [get]
func (h *JobHandler) Get(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	job, err := h.service.GetJob(jobID)
	if err != nil {
		return respondDomainError(c, err)
	}

	return response.OK(c, job)
}

// Update handles PUT /api/jobs/:jobId
// @Summary      Update a job
// @Description  Merge a partial update into a job; status changes must follow the lifecycle
// @Tags         Jobs
// @Accept       json
// @Produce      json
// @Param        jobId path string true "Job ID"
// @Param        request body model.JobUpdateRequest true "Partial update"
// @Success      200 {object} model.Job
// @Failure      400 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      409 {object} response.ErrorResponse
// @Failure      502 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/jobs/{jobId} [put]
func (h *JobHandler) Update(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	var req model.JobUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	job, err := h.service.UpdateJob(c.Context(), jobID, req.ToPatch())
	if err != nil {
		return respondDomainError(c, err)
	}

	return response.OK(c, job)
}

// Refresh handles POST /api/jobs/refresh
// @Summary      Refresh the job snapshot
// @Description  Re-fetch the full collection from the upstream job API; on failure the last good snapshot is kept
// @Tags         Jobs
// @Produce      json
// @Success      200 {object} model.RefreshResponse
// @Failure      502 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/jobs/refresh [post]
func (h *JobHandler) Refresh(c *fiber.Ctx) error {
	count, err := h.service.Refresh(c.Context())
	if err != nil {
		return respondDomainError(c, err)
	}

	return response.OK(c, model.RefreshResponse{
		Count:       count,
		RefreshedAt: time.Now().UTC(),
	})
}

// respondDomainError maps the domain error taxonomy onto the response
// envelope. Server messages from the upstream are surfaced verbatim.
func respondDomainError(c *fiber.Ctx, err error) error {
	var validationErr *model.ValidationError
	if errors.As(err, &validationErr) {
		return response.ValidationError(c, validationErr.Message, nil)
	}

	var notFoundErr *model.NotFoundError
	if errors.As(err, &notFoundErr) {
		return response.NotFound(c, "Job not found")
	}

	var transitionErr *model.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		return response.InvalidTransition(c, transitionErr.Error())
	}

	var stepErr *model.InvalidStepError
	if errors.As(err, &stepErr) {
		return response.InvalidStep(c, stepErr.Error())
	}

	var rejectedErr *model.RemoteRejectedError
	if errors.As(err, &rejectedErr) {
		return response.RemoteRejected(c, rejectedErr.Message)
	}

	var transportErr *model.TransportError
	if errors.As(err, &transportErr) {
		return response.TransportError(c, transportErr.Error())
	}

	return response.ServiceError(c, err.Error())
}

func formatValidationErrors(err error) interface{} {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		errors := make(map[string]string)
		for _, e := range validationErrors {
			errors[e.Field()] = e.Tag()
		}
		return errors
	}
	return nil
}
