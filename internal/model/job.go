package model

import (
	"strings"
	"time"
)

// Job represents a unit of contracted home-service work
type Job struct {
	ID                   string              `json:"id"`
	JobName              string              `json:"jobName"`
	PropertyAddress      string              `json:"propertyAddress"`
	City                 string              `json:"city"`
	CustomerName         string              `json:"customerName"`
	CustomerEmail        string              `json:"customerEmail"`
	ProfileID            string              `json:"profileId,omitempty"`
	Trade                Trade               `json:"trade"`
	EstimatedPay         string              `json:"estimatedPay"`
	Description          string              `json:"description"`
	ScheduledTime        string              `json:"scheduledTime,omitempty"`
	SquareFootage        string              `json:"squareFootage,omitempty"`
	MaterialStatus       MaterialStatus      `json:"materialStatus,omitempty"`
	Status               JobStatus           `json:"status"`
	AssignedContractorID string              `json:"assignedContractorId,omitempty"`
	ContractorProgress   *ContractorProgress `json:"contractorProgress,omitempty"`
	CreatedAt            time.Time           `json:"createdAt"`
}

// ContractorProgress tracks a contractor's position in the 5-step
// execution workflow. Present only once a contractor is assigned.
type ContractorProgress struct {
	CurrentStep  int       `json:"currentStep"`
	Acknowledged bool      `json:"acknowledged"`
	LastUpdated  time.Time `json:"lastUpdated"`
}

// Clone returns a deep copy of the job.
func (j *Job) Clone() *Job {
	cp := *j
	if j.ContractorProgress != nil {
		progress := *j.ContractorProgress
		cp.ContractorProgress = &progress
	}
	return &cp
}

// IsAssignedTo reports whether the job is assigned to the given contractor,
// using string-normalized comparison.
func (j *Job) IsAssignedTo(contractorID string) bool {
	if j.AssignedContractorID == "" || contractorID == "" {
		return false
	}
	return strings.TrimSpace(j.AssignedContractorID) == strings.TrimSpace(contractorID)
}

// IsAvailable reports whether the job can still be claimed.
func (j *Job) IsAvailable() bool {
	return j.Status == JobStatusOpen && j.AssignedContractorID == ""
}

// JobPatch is a partial update merged field-by-field into an existing job.
// Nil fields are left untouched; set fields are last-write-wins.
// CreatedAt is immutable and deliberately absent.
type JobPatch struct {
	JobName              *string             `json:"jobName,omitempty"`
	PropertyAddress      *string             `json:"propertyAddress,omitempty"`
	City                 *string             `json:"city,omitempty"`
	CustomerName         *string             `json:"customerName,omitempty"`
	CustomerEmail        *string             `json:"customerEmail,omitempty"`
	Trade                *Trade              `json:"trade,omitempty"`
	EstimatedPay         *string             `json:"estimatedPay,omitempty"`
	Description          *string             `json:"description,omitempty"`
	ScheduledTime        *string             `json:"scheduledTime,omitempty"`
	SquareFootage        *string             `json:"squareFootage,omitempty"`
	MaterialStatus       *MaterialStatus     `json:"materialStatus,omitempty"`
	Status               *JobStatus          `json:"status,omitempty"`
	AssignedContractorID *string             `json:"assignedContractorId,omitempty"`
	ContractorProgress   *ContractorProgress `json:"contractorProgress,omitempty"`
}

// Apply merges the patch into job in place.
func (p *JobPatch) Apply(job *Job) {
	if p.JobName != nil {
		job.JobName = *p.JobName
	}
	if p.PropertyAddress != nil {
		job.PropertyAddress = *p.PropertyAddress
	}
	if p.City != nil {
		job.City = *p.City
	}
	if p.CustomerName != nil {
		job.CustomerName = *p.CustomerName
	}
	if p.CustomerEmail != nil {
		job.CustomerEmail = *p.CustomerEmail
	}
	if p.Trade != nil {
		job.Trade = *p.Trade
	}
	if p.EstimatedPay != nil {
		job.EstimatedPay = *p.EstimatedPay
	}
	if p.Description != nil {
		job.Description = *p.Description
	}
	if p.ScheduledTime != nil {
		job.ScheduledTime = *p.ScheduledTime
	}
	if p.SquareFootage != nil {
		job.SquareFootage = *p.SquareFootage
	}
	if p.MaterialStatus != nil {
		job.MaterialStatus = *p.MaterialStatus
	}
	if p.Status != nil {
		job.Status = *p.Status
	}
	if p.AssignedContractorID != nil {
		job.AssignedContractorID = *p.AssignedContractorID
	}
	if p.ContractorProgress != nil {
		progress := *p.ContractorProgress
		job.ContractorProgress = &progress
	}
}

// CompletedJob is the durable summary appended to a contractor's
// completed-jobs ledger when a job reaches Complete.
type CompletedJob struct {
	JobID           string    `json:"jobId"`
	JobName         string    `json:"jobName"`
	CustomerName    string    `json:"customerName"`
	PropertyAddress string    `json:"propertyAddress"`
	EstimatedPay    string    `json:"estimatedPay"`
	CompletedAt     time.Time `json:"completedAt"`
}
