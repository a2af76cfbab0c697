package client

import (
	"fmt"
	"time"

	"github.com/fixlane/api/internal/model"
)

// The upstream job API stores flat string/number-keyed records, so the
// nested contractorProgress object is carried as three scalar fields.
// toWire and fromWire are the only place this mapping lives; the trio
// round-trips all together or not at all.

type wireJob struct {
	ID                   string `json:"id,omitempty"`
	JobName              string `json:"jobName"`
	PropertyAddress      string `json:"propertyAddress"`
	City                 string `json:"city"`
	CustomerName         string `json:"customerName"`
	CustomerEmail        string `json:"customerEmail"`
	ProfileID            string `json:"profileId,omitempty"`
	Trade                string `json:"trade"`
	EstimatedPay         string `json:"estimatedPay"`
	Description          string `json:"description"`
	ScheduledTime        string `json:"scheduledTime,omitempty"`
	SquareFootage        string `json:"squareFootage,omitempty"`
	MaterialStatus       string `json:"materialStatus,omitempty"`
	Status               string `json:"status"`
	AssignedContractorID string `json:"assignedContractorId,omitempty"`
	CreatedAt            string `json:"createdAt,omitempty"`

	ProgressCurrentStep  *int    `json:"contractorProgress_currentStep,omitempty"`
	ProgressAcknowledged *bool   `json:"contractorProgress_acknowledged,omitempty"`
	ProgressLastUpdated  *string `json:"contractorProgress_lastUpdated,omitempty"`
}

// toWire flattens a job into the upstream record shape.
func toWire(job *model.Job) wireJob {
	w := wireJob{
		ID:                   job.ID,
		JobName:              job.JobName,
		PropertyAddress:      job.PropertyAddress,
		City:                 job.City,
		CustomerName:         job.CustomerName,
		CustomerEmail:        job.CustomerEmail,
		ProfileID:            job.ProfileID,
		Trade:                string(job.Trade),
		EstimatedPay:         job.EstimatedPay,
		Description:          job.Description,
		ScheduledTime:        job.ScheduledTime,
		SquareFootage:        job.SquareFootage,
		MaterialStatus:       string(job.MaterialStatus),
		Status:               string(job.Status),
		AssignedContractorID: job.AssignedContractorID,
	}
	if !job.CreatedAt.IsZero() {
		w.CreatedAt = job.CreatedAt.UTC().Format(time.RFC3339)
	}
	if p := job.ContractorProgress; p != nil {
		step := p.CurrentStep
		ack := p.Acknowledged
		updated := p.LastUpdated.UTC().Format(time.RFC3339)
		w.ProgressCurrentStep = &step
		w.ProgressAcknowledged = &ack
		w.ProgressLastUpdated = &updated
	}
	return w
}

// fromWire rebuilds a job from the upstream record shape. A record that
// carries only part of the contractorProgress trio is rejected rather than
// half-applied.
func fromWire(w wireJob) (*model.Job, error) {
	job := &model.Job{
		ID:                   w.ID,
		JobName:              w.JobName,
		PropertyAddress:      w.PropertyAddress,
		City:                 w.City,
		CustomerName:         w.CustomerName,
		CustomerEmail:        w.CustomerEmail,
		ProfileID:            w.ProfileID,
		Trade:                model.Trade(w.Trade),
		EstimatedPay:         w.EstimatedPay,
		Description:          w.Description,
		ScheduledTime:        w.ScheduledTime,
		SquareFootage:        w.SquareFootage,
		MaterialStatus:       model.MaterialStatus(w.MaterialStatus),
		Status:               model.JobStatus(w.Status),
		AssignedContractorID: w.AssignedContractorID,
	}

	if !job.Status.IsValid() {
		return nil, fmt.Errorf("record %s has unknown status %q", w.ID, w.Status)
	}

	if w.CreatedAt != "" {
		createdAt, err := time.Parse(time.RFC3339, w.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid createdAt %q: %w", w.CreatedAt, err)
		}
		job.CreatedAt = createdAt
	}

	present := 0
	for _, set := range []bool{
		w.ProgressCurrentStep != nil,
		w.ProgressAcknowledged != nil,
		w.ProgressLastUpdated != nil,
	} {
		if set {
			present++
		}
	}
	switch present {
	case 0:
		// no progress on this record
	case 3:
		if !model.IsValidProgressStep(*w.ProgressCurrentStep) {
			return nil, fmt.Errorf("record %s has out-of-range contractorProgress_currentStep %d", w.ID, *w.ProgressCurrentStep)
		}
		lastUpdated, err := time.Parse(time.RFC3339, *w.ProgressLastUpdated)
		if err != nil {
			return nil, fmt.Errorf("invalid contractorProgress_lastUpdated %q: %w", *w.ProgressLastUpdated, err)
		}
		job.ContractorProgress = &model.ContractorProgress{
			CurrentStep:  *w.ProgressCurrentStep,
			Acknowledged: *w.ProgressAcknowledged,
			LastUpdated:  lastUpdated,
		}
	default:
		return nil, fmt.Errorf("record %s carries %d of 3 contractorProgress fields", w.ID, present)
	}

	return job, nil
}
