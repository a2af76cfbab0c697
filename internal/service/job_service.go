package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/fixlane/api/internal/client"
	"github.com/fixlane/api/internal/ledger"
	"github.com/fixlane/api/internal/model"
	"github.com/fixlane/api/internal/store"
	"github.com/fixlane/api/internal/websocket"
)

const TaskTypeJobCompleted = "jobs:completed"

// JobCompletedPayload is the task payload handed to the completion worker
type JobCompletedPayload struct {
	JobID        string             `json:"jobId"`
	ContractorID string             `json:"contractorId"`
	FinalReport  string             `json:"finalReport,omitempty"`
	Summary      model.CompletedJob `json:"summary"`
}

// JobService owns the job lifecycle: it keeps the snapshot store in sync
// with the upstream job API, enforces the status state machine and the
// 5-step contractor workflow, and maintains the completed-jobs ledger.
//
// Mutations are run-to-completion: the remote write happens first and the
// snapshot is only touched on success, except assignment which applies an
// optimistic local claim and rolls it back if the remote write fails.
type JobService struct {
	store       *store.Store
	api         client.JobAPI
	ledger      ledger.Ledger
	hub         *websocket.Hub
	asynqClient *asynq.Client
}

// NewJobService wires the service. hub and asynqClient may be nil; progress
// broadcasting and completion tasks are then skipped.
func NewJobService(st *store.Store, api client.JobAPI, lg ledger.Ledger, hub *websocket.Hub, asynqClient *asynq.Client) *JobService {
	return &JobService{
		store:       st,
		api:         api,
		ledger:      lg,
		hub:         hub,
		asynqClient: asynqClient,
	}
}

// Refresh replaces the snapshot with the upstream collection. On failure
// the existing snapshot is kept untouched and the error is surfaced for
// display; callers may retry manually.
func (s *JobService) Refresh(ctx context.Context) (int, error) {
	jobs, err := s.api.ListJobs(ctx)
	if err != nil {
		return 0, err
	}
	s.store.ReplaceAll(jobs)
	return len(jobs), nil
}

// CreateJob posts a new job for a customer. A resolved profile id is
// required; there is no client-only degraded mode for job creation.
func (s *JobService) CreateJob(ctx context.Context, req *model.JobCreateRequest) (*model.Job, error) {
	if strings.TrimSpace(req.ProfileID) == "" {
		return nil, &model.ValidationError{Message: "Profile ID is required"}
	}

	job := &model.Job{
		JobName:         req.JobName,
		PropertyAddress: req.PropertyAddress,
		City:            req.City,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		ProfileID:       req.ProfileID,
		Trade:           req.Trade,
		EstimatedPay:    req.EstimatedPay,
		Description:     req.Description,
		ScheduledTime:   req.ScheduledTime,
		SquareFootage:   req.SquareFootage,
		Status:          model.JobStatusOpen,
		CreatedAt:       time.Now().UTC(),
	}

	created, err := s.api.CreateJob(ctx, job)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.Create(*created); err != nil {
		return nil, err
	}

	// Re-fetch so server-issued fields are authoritative across the
	// whole snapshot. A failed refresh keeps the local insert.
	if _, err := s.Refresh(ctx); err != nil {
		log.Printf("refresh after create failed, keeping local record: %v", err)
		return created, nil
	}

	if got, ok := s.store.GetByID(created.ID); ok {
		return got, nil
	}
	return created, nil
}

// UpdateJob merges a partial update into a job, write-through. The only
// status change accepted here is Complete → Paid (the billing hand-off);
// Open → InProgress is owned by AssignContractor and InProgress → Complete
// by Complete, each with its own preconditions and side effects. Everything
// else is last-write-wins.
func (s *JobService) UpdateJob(ctx context.Context, id string, patch model.JobPatch) (*model.Job, error) {
	current, ok := s.store.GetByID(id)
	if !ok {
		return nil, &model.NotFoundError{ID: id}
	}

	statusChanged := patch.Status != nil && *patch.Status != current.Status
	if statusChanged {
		if !model.CanTransition(current.Status, *patch.Status) {
			return nil, &model.InvalidTransitionError{From: current.Status, To: *patch.Status}
		}
		if *patch.Status != model.JobStatusPaid {
			return nil, &model.InvalidTransitionError{
				From:   current.Status,
				To:     *patch.Status,
				Reason: "status is driven by the assignment and completion workflow",
			}
		}
	}

	merged := current.Clone()
	patch.Apply(merged)

	if _, err := s.api.UpdateJob(ctx, id, merged); err != nil {
		return nil, err
	}

	updated, err := s.store.Update(id, patch)
	if err != nil {
		return nil, err
	}

	if statusChanged && s.hub != nil {
		s.hub.BroadcastStatus(id, updated.Status, updated.AssignedContractorID)
	}
	return updated, nil
}

// AssignContractor claims an open job for a contractor. The local claim is
// applied optimistically for responsiveness, confirmed against the
// upstream, and rolled back if the upstream rejects it. The claim is
// conditional: a job that is not Open, or already assigned, is refused.
func (s *JobService) AssignContractor(ctx context.Context, jobID, contractorID string) (*model.Job, error) {
	contractorID = strings.TrimSpace(contractorID)
	if contractorID == "" {
		return nil, &model.ValidationError{Message: "Contractor ID is required"}
	}

	applied, previous, err := s.store.Assign(jobID, contractorID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	confirmed, err := s.api.AssignJob(ctx, jobID, contractorID)
	if err != nil {
		// Reconcile: undo the optimistic claim.
		s.store.Put(*previous)
		return nil, err
	}
	if confirmed != nil {
		s.store.Put(*confirmed)
		applied = confirmed
	}

	if s.hub != nil {
		s.hub.BroadcastStatus(jobID, applied.Status, applied.AssignedContractorID)
	}
	return applied, nil
}

// Acknowledge marks the assigned contractor's acknowledgment of the job.
// Required before the workflow can advance past step 1. Idempotent.
func (s *JobService) Acknowledge(ctx context.Context, jobID string) (*model.Job, error) {
	job, err := s.activeWorkflowJob(jobID)
	if err != nil {
		return nil, err
	}
	if job.ContractorProgress.Acknowledged {
		return job, nil
	}

	merged := job.Clone()
	merged.ContractorProgress.Acknowledged = true
	merged.ContractorProgress.LastUpdated = time.Now().UTC()

	if _, err := s.api.UpdateJob(ctx, jobID, merged); err != nil {
		return nil, err
	}

	updated, err := s.store.Update(jobID, model.JobPatch{ContractorProgress: merged.ContractorProgress})
	if err != nil {
		return nil, err
	}

	if s.hub != nil {
		s.hub.BroadcastProgress(jobID, *updated.ContractorProgress, updated.Status)
	}
	return updated, nil
}

// AdvanceStep moves the workflow forward by exactly one step. Skip-ahead
// and backward requests are rejected before anything is written, so the
// step sequence is monotonically non-decreasing.
func (s *JobService) AdvanceStep(ctx context.Context, jobID string, toStep int) (*model.Job, error) {
	job, err := s.activeWorkflowJob(jobID)
	if err != nil {
		return nil, err
	}

	current := job.ContractorProgress.CurrentStep
	if !model.IsValidProgressStep(toStep) || toStep != current+1 {
		return nil, &model.InvalidStepError{Current: current, Requested: toStep}
	}
	if current == model.StepAcknowledgment && !job.ContractorProgress.Acknowledged {
		return nil, &model.InvalidStepError{
			Current:   current,
			Requested: toStep,
			Reason:    "job must be acknowledged first",
		}
	}

	merged := job.Clone()
	merged.ContractorProgress.CurrentStep = toStep
	merged.ContractorProgress.LastUpdated = time.Now().UTC()

	// Write-through: the step is durable upstream before the snapshot
	// moves, so a reload resumes exactly here.
	if _, err := s.api.UpdateJob(ctx, jobID, merged); err != nil {
		return nil, err
	}

	updated, err := s.store.Update(jobID, model.JobPatch{ContractorProgress: merged.ContractorProgress})
	if err != nil {
		return nil, err
	}

	if s.hub != nil {
		s.hub.BroadcastProgress(jobID, *updated.ContractorProgress, updated.Status)
	}
	return updated, nil
}

// Complete finishes the job after the final step-5 report is submitted:
// status moves to Complete and a summary is appended to the contractor's
// completed-jobs ledger. Completing an already-Complete job is a no-op;
// the ledger write is keyed by job id, so the entry never duplicates.
func (s *JobService) Complete(ctx context.Context, jobID, finalReport string) (*model.Job, error) {
	job, ok := s.store.GetByID(jobID)
	if !ok {
		return nil, &model.NotFoundError{ID: jobID}
	}

	if job.Status == model.JobStatusComplete || job.Status == model.JobStatusPaid {
		return job, nil
	}
	if job.Status != model.JobStatusInProgress || job.ContractorProgress == nil ||
		job.ContractorProgress.CurrentStep != model.MaxProgressStep {
		return nil, &model.InvalidTransitionError{
			From:   job.Status,
			To:     model.JobStatusComplete,
			Reason: "workflow is not at the final step",
		}
	}

	now := time.Now().UTC()
	merged := job.Clone()
	merged.Status = model.JobStatusComplete
	merged.ContractorProgress.LastUpdated = now

	if _, err := s.api.UpdateJob(ctx, jobID, merged); err != nil {
		return nil, err
	}

	statusComplete := model.JobStatusComplete
	updated, err := s.store.Update(jobID, model.JobPatch{
		Status:             &statusComplete,
		ContractorProgress: merged.ContractorProgress,
	})
	if err != nil {
		return nil, err
	}

	summary := model.CompletedJob{
		JobID:           updated.ID,
		JobName:         updated.JobName,
		CustomerName:    updated.CustomerName,
		PropertyAddress: updated.PropertyAddress,
		EstimatedPay:    updated.EstimatedPay,
		CompletedAt:     now,
	}
	if err := s.ledger.Append(ctx, updated.AssignedContractorID, summary); err != nil {
		// The job is already complete upstream; the ledger is a
		// display-only collaborator, so completion still succeeds.
		log.Printf("failed to append completed-jobs ledger entry for job %s: %v", jobID, err)
	}

	s.enqueueCompletionTask(updated.AssignedContractorID, jobID, finalReport, summary)

	if s.hub != nil {
		s.hub.BroadcastComplete(jobID, summary)
	}
	return updated, nil
}

// CompletedJobs returns a contractor's completion history.
func (s *JobService) CompletedJobs(ctx context.Context, contractorID string) ([]model.CompletedJob, error) {
	return s.ledger.List(ctx, strings.TrimSpace(contractorID))
}

// GetJob returns a job from the snapshot.
func (s *JobService) GetJob(id string) (*model.Job, error) {
	job, ok := s.store.GetByID(id)
	if !ok {
		return nil, &model.NotFoundError{ID: id}
	}
	return job, nil
}

// ListAll returns every job in the snapshot.
func (s *JobService) ListAll() []model.Job {
	return s.store.All()
}

// ListByCustomer projects jobs belonging to a customer.
func (s *JobService) ListByCustomer(email, profileID string) []model.Job {
	return s.store.ListByCustomer(email, profileID)
}

// ListByContractor projects jobs assigned to a contractor.
func (s *JobService) ListByContractor(contractorID string) []model.Job {
	return s.store.ListByContractor(contractorID)
}

// ListAvailable projects claimable jobs, optionally by trade.
func (s *JobService) ListAvailable(trade model.Trade) []model.Job {
	return s.store.ListAvailable(trade)
}

// Reset clears the snapshot. Session-teardown hook.
func (s *JobService) Reset() {
	s.store.Reset()
}

// activeWorkflowJob loads a job that must be mid-workflow.
func (s *JobService) activeWorkflowJob(jobID string) (*model.Job, error) {
	job, ok := s.store.GetByID(jobID)
	if !ok {
		return nil, &model.NotFoundError{ID: jobID}
	}
	if job.Status != model.JobStatusInProgress || job.ContractorProgress == nil {
		return nil, &model.InvalidTransitionError{
			From:   job.Status,
			To:     model.JobStatusInProgress,
			Reason: "job has no active workflow",
		}
	}
	return job, nil
}

func (s *JobService) enqueueCompletionTask(contractorID, jobID, finalReport string, summary model.CompletedJob) {
	if s.asynqClient == nil {
		return
	}

	task, err := newJobCompletedTask(JobCompletedPayload{
		JobID:        jobID,
		ContractorID: contractorID,
		FinalReport:  finalReport,
		Summary:      summary,
	})
	if err != nil {
		log.Printf("failed to create completion task for job %s: %v", jobID, err)
		return
	}

	_, err = s.asynqClient.Enqueue(task,
		asynq.Queue("jobs"),
		asynq.MaxRetry(3),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		log.Printf("failed to enqueue completion task for job %s: %v", jobID, err)
	}
}

func newJobCompletedTask(payload JobCompletedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task payload: %w", err)
	}
	return asynq.NewTask(TaskTypeJobCompleted, data), nil
}
