package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fixlane/api/internal/model"
)

// Store holds the in-memory snapshot of all jobs visible to the running
// session. It is the sole writer of truth: the persistence adapter refreshes
// it wholesale and the job service applies validated mutations through it.
// Projections filter the live snapshot and are recomputed on every call.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*model.Job
}

// New creates an empty store. Wire it explicitly through constructors;
// there is no package-level singleton.
func New() *Store {
	return &Store{
		jobs: make(map[string]*model.Job),
	}
}

// Create validates and inserts a new job into the snapshot. A resolved
// profile id is required; the job starts Open with no contractor progress.
func (s *Store) Create(input model.Job) (*model.Job, error) {
	if strings.TrimSpace(input.ProfileID) == "" {
		return nil, &model.ValidationError{Message: "Profile ID is required"}
	}

	job := input.Clone()
	job.Status = model.JobStatusOpen
	job.AssignedContractorID = ""
	job.ContractorProgress = nil
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	return job.Clone(), nil
}

// Update merges a partial update into the existing record. The merge is
// field-level last-write-wins; CreatedAt is immutable.
func (s *Store) Update(id string, patch model.JobPatch) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, &model.NotFoundError{ID: id}
	}

	patch.Apply(job)
	return job.Clone(), nil
}

// GetByID returns a copy of the job, or nil when the id is unknown.
// No side effects.
func (s *Store) GetByID(id string) (*model.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	return job.Clone(), true
}

// Put replaces a single record wholesale. Used by the service to reconcile
// a remote response or roll back an optimistic patch.
func (s *Store) Put(job model.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job.Clone()
}

// Assign atomically claims an open, unassigned job for a contractor:
// status moves to InProgress and progress is initialized at step 1,
// unacknowledged. Returns the applied record plus the previous record so
// the caller can roll back if the remote write fails. The claim is
// conditional: a second contractor racing for the same job is rejected here
// under the store lock.
func (s *Store) Assign(id, contractorID string, now time.Time) (applied, previous *model.Job, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, nil, &model.NotFoundError{ID: id}
	}
	if job.Status != model.JobStatusOpen {
		return nil, nil, &model.InvalidTransitionError{
			From:   job.Status,
			To:     model.JobStatusInProgress,
			Reason: "job is not open",
		}
	}
	if job.AssignedContractorID != "" {
		return nil, nil, &model.InvalidTransitionError{
			From:   job.Status,
			To:     model.JobStatusInProgress,
			Reason: "job is already assigned",
		}
	}

	previous = job.Clone()
	job.Status = model.JobStatusInProgress
	job.AssignedContractorID = contractorID
	job.ContractorProgress = &model.ContractorProgress{
		CurrentStep:  model.StepAcknowledgment,
		Acknowledged: false,
		LastUpdated:  now,
	}
	return job.Clone(), previous, nil
}

// ReplaceAll swaps the snapshot for a freshly fetched collection.
func (s *Store) ReplaceAll(jobs []model.Job) {
	next := make(map[string]*model.Job, len(jobs))
	for i := range jobs {
		next[jobs[i].ID] = jobs[i].Clone()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = next
}

// Reset clears the snapshot. Teardown hook for session end.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = make(map[string]*model.Job)
}

// Len returns the number of jobs in the snapshot.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// All returns a copy of every job in the snapshot, oldest first.
func (s *Store) All() []model.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(*model.Job) bool { return true })
}

// ListByCustomer projects jobs belonging to a customer. When a profile id
// is supplied it is matched strictly, ignoring email entirely; email is
// only a fallback join key for legacy records without one.
func (s *Store) ListByCustomer(email, profileID string) []model.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if strings.TrimSpace(profileID) != "" {
		return s.collect(func(j *model.Job) bool {
			return j.ProfileID == profileID
		})
	}
	return s.collect(func(j *model.Job) bool {
		return j.CustomerEmail != "" && strings.EqualFold(j.CustomerEmail, email)
	})
}

// ListByContractor projects jobs assigned to a contractor.
func (s *Store) ListByContractor(contractorID string) []model.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(j *model.Job) bool {
		return j.IsAssignedTo(contractorID)
	})
}

// ListAvailable projects open, unassigned jobs, optionally filtered by
// exact trade match.
func (s *Store) ListAvailable(trade model.Trade) []model.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(j *model.Job) bool {
		if !j.IsAvailable() {
			return false
		}
		return trade == "" || j.Trade == trade
	})
}

// collect filters the snapshot into a sorted copy. Callers hold the lock.
func (s *Store) collect(match func(*model.Job) bool) []model.Job {
	result := make([]model.Job, 0)
	for _, job := range s.jobs {
		if match(job) {
			result = append(result, *job.Clone())
		}
	}
	sort.Slice(result, func(i, k int) bool {
		if result[i].CreatedAt.Equal(result[k].CreatedAt) {
			return result[i].ID < result[k].ID
		}
		return result[i].CreatedAt.Before(result[k].CreatedAt)
	})
	return result
}
