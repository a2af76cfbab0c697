package model

import "time"

// JobCreateRequest represents the request to post a new job
type JobCreateRequest struct {
	JobName         string `json:"jobName" validate:"required,min=3,max=120"`
	PropertyAddress string `json:"propertyAddress" validate:"required"`
	City            string `json:"city" validate:"required"`
	Trade           Trade  `json:"trade" validate:"required,oneof=plumbing electrical painting hvac roofing carpentry landscaping flooring cleaning general"`
	EstimatedPay    string `json:"estimatedPay" validate:"required"`
	Description     string `json:"description" validate:"required"`
	ScheduledTime   string `json:"scheduledTime" validate:"omitempty"`
	SquareFootage   string `json:"squareFootage" validate:"omitempty"`
	// ProfileID may be omitted when the session already carries one.
	ProfileID     string `json:"profileId" validate:"omitempty"`
	CustomerName  string `json:"customerName" validate:"omitempty"`
	CustomerEmail string `json:"customerEmail" validate:"omitempty,email"`
}

// JobUpdateRequest represents a partial job update
type JobUpdateRequest struct {
	JobName         *string         `json:"jobName" validate:"omitempty,min=3,max=120"`
	PropertyAddress *string         `json:"propertyAddress" validate:"omitempty"`
	City            *string         `json:"city" validate:"omitempty"`
	Trade           *Trade          `json:"trade" validate:"omitempty,oneof=plumbing electrical painting hvac roofing carpentry landscaping flooring cleaning general"`
	EstimatedPay    *string         `json:"estimatedPay" validate:"omitempty"`
	Description     *string         `json:"description" validate:"omitempty"`
	ScheduledTime   *string         `json:"scheduledTime" validate:"omitempty"`
	SquareFootage   *string         `json:"squareFootage" validate:"omitempty"`
	MaterialStatus  *MaterialStatus `json:"materialStatus" validate:"omitempty,oneof=pending ordered delivered on_site"`
	Status          *JobStatus      `json:"status" validate:"omitempty,oneof=Open InProgress Complete Paid"`
}

// ToPatch converts the request into a store-level patch.
func (r *JobUpdateRequest) ToPatch() JobPatch {
	return JobPatch{
		JobName:         r.JobName,
		PropertyAddress: r.PropertyAddress,
		City:            r.City,
		Trade:           r.Trade,
		EstimatedPay:    r.EstimatedPay,
		Description:     r.Description,
		ScheduledTime:   r.ScheduledTime,
		SquareFootage:   r.SquareFootage,
		MaterialStatus:  r.MaterialStatus,
		Status:          r.Status,
	}
}

// JobAssignRequest represents a contractor claiming an open job
type JobAssignRequest struct {
	// ContractorID may be omitted; the session user id is used instead.
	ContractorID string `json:"contractorId" validate:"omitempty"`
}

// JobAdvanceRequest represents a contractor advancing the workflow
type JobAdvanceRequest struct {
	ToStep int `json:"toStep" validate:"required,min=2,max=5"`
}

// JobCompleteRequest represents the final report submission at step 5
type JobCompleteRequest struct {
	FinalReport string `json:"finalReport" validate:"omitempty,max=10000"`
}

// JobListResponse wraps a projection result
type JobListResponse struct {
	Jobs  []Job `json:"jobs"`
	Count int   `json:"count"`
}

// RefreshResponse reports a snapshot refresh from the upstream job API
type RefreshResponse struct {
	Count       int       `json:"count"`
	RefreshedAt time.Time `json:"refreshedAt"`
}

// CompletedJobsResponse wraps a contractor's completed-jobs ledger
type CompletedJobsResponse struct {
	ContractorID string         `json:"contractorId"`
	Jobs         []CompletedJob `json:"jobs"`
	Count        int            `json:"count"`
}
