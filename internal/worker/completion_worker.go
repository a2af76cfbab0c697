package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/fixlane/api/internal/client"
	"github.com/fixlane/api/internal/model"
	"github.com/fixlane/api/internal/service"
)

// CompletionWorker handles post-completion work outside the synchronous
// request path: archiving the contractor's final report and notifying
// the customer.
type CompletionWorker struct {
	archiver client.ReportArchiver
}

// NewCompletionWorker creates a new completion worker
func NewCompletionWorker(archiver client.ReportArchiver) *CompletionWorker {
	return &CompletionWorker{
		archiver: archiver,
	}
}

// completionReport is the archived document
type completionReport struct {
	NotificationID string             `json:"notificationId"`
	Summary        model.CompletedJob `json:"summary"`
	FinalReport    string             `json:"finalReport,omitempty"`
	ArchivedAt     time.Time          `json:"archivedAt"`
}

// ProcessTask handles a jobs:completed task
func (w *CompletionWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload service.JobCompletedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	log.Printf("Processing completion for job %s (contractor %s)", payload.JobID, payload.ContractorID)

	report := completionReport{
		NotificationID: uuid.New().String(),
		Summary:        payload.Summary,
		FinalReport:    payload.FinalReport,
		ArchivedAt:     time.Now().UTC(),
	}

	if w.archiver != nil {
		data, err := json.Marshal(report)
		if err != nil {
			return fmt.Errorf("failed to marshal completion report: %w", err)
		}

		key := client.ReportKey(payload.ContractorID, payload.JobID)
		url, err := w.archiver.Archive(ctx, key, bytes.NewReader(data), "application/json")
		if err != nil {
			return fmt.Errorf("failed to archive completion report: %w", err)
		}
		log.Printf("Archived completion report for job %s at %s", payload.JobID, url)
	} else {
		log.Printf("Report archive not configured, skipping archive for job %s", payload.JobID)
	}

	// Customer notification delivery is owned by an external collaborator;
	// record the intent here.
	log.Printf("Notification %s queued for customer %s (job %s complete)",
		report.NotificationID, payload.Summary.CustomerName, payload.JobID)

	return nil
}
