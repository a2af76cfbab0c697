package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fixlane/api/internal/middleware"
	"github.com/fixlane/api/internal/model"
	"github.com/fixlane/api/internal/service"
	"github.com/fixlane/api/pkg/response"
)

// ContractorHandler serves contractor-scoped history
type ContractorHandler struct {
	service *service.JobService
}

func NewContractorHandler(svc *service.JobService) *ContractorHandler {
	return &ContractorHandler{service: svc}
}

// Completed handles GET /api/contractors/:contractorId/completed
// @Summary      Completed-jobs ledger
// @Description  Read a contractor's completion history; contractors may only read their own
// @Tags         Contractors
// @Produce      json
// @Param        contractorId path string true "Contractor ID"
// @Success      200 {object} model.CompletedJobsResponse
// @Failure      403 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/contractors/{contractorId}/completed [get]
func (h *ContractorHandler) Completed(c *fiber.Ctx) error {
	contractorID := c.Params("contractorId")
	if contractorID == "" {
		return response.ValidationError(c, "Contractor ID is required", nil)
	}

	role := model.Role(middleware.GetRole(c))
	if role == model.RoleContractor && contractorID != middleware.GetUserID(c) {
		return response.Forbidden(c, "Contractors may only read their own ledger")
	}

	jobs, err := h.service.CompletedJobs(c.Context(), contractorID)
	if err != nil {
		return respondDomainError(c, err)
	}

	return response.OK(c, model.CompletedJobsResponse{
		ContractorID: contractorID,
		Jobs:         jobs,
		Count:        len(jobs),
	})
}
