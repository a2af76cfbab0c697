package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/fixlane/api/internal/model"
)

// Ledger is the contractor-scoped completed-jobs ledger: append-only,
// keyed by job id so re-appending the same job never duplicates an entry.
// It is persisted independently of the main job store.
type Ledger interface {
	Append(ctx context.Context, contractorID string, entry model.CompletedJob) error
	List(ctx context.Context, contractorID string) ([]model.CompletedJob, error)
}

// RedisLedger stores entries in a per-contractor hash keyed by job id
type RedisLedger struct {
	redis *redis.Client
}

// NewRedisLedger creates a redis-backed ledger
func NewRedisLedger(redisClient *redis.Client) *RedisLedger {
	return &RedisLedger{redis: redisClient}
}

func ledgerKey(contractorID string) string {
	return fmt.Sprintf("ledger:completed:%s", contractorID)
}

// Append records a completion summary. HSET on the job-id field makes the
// write idempotent.
func (l *RedisLedger) Append(ctx context.Context, contractorID string, entry model.CompletedJob) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger entry: %w", err)
	}
	if err := l.redis.HSet(ctx, ledgerKey(contractorID), entry.JobID, data).Err(); err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

// List returns the contractor's completion history, oldest first.
func (l *RedisLedger) List(ctx context.Context, contractorID string) ([]model.CompletedJob, error) {
	fields, err := l.redis.HGetAll(ctx, ledgerKey(contractorID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	entries := make([]model.CompletedJob, 0, len(fields))
	for _, raw := range fields {
		var entry model.CompletedJob
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}
	sortEntries(entries)
	return entries, nil
}

// MemoryLedger keeps entries in process memory. Used when redis is not
// configured, and by tests.
type MemoryLedger struct {
	mu      sync.RWMutex
	entries map[string]map[string]model.CompletedJob
}

// NewMemoryLedger creates an in-memory ledger
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		entries: make(map[string]map[string]model.CompletedJob),
	}
}

// Append records a completion summary, overwriting any entry already
// present for the same job id.
func (l *MemoryLedger) Append(ctx context.Context, contractorID string, entry model.CompletedJob) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.entries[contractorID] == nil {
		l.entries[contractorID] = make(map[string]model.CompletedJob)
	}
	l.entries[contractorID][entry.JobID] = entry
	return nil
}

// List returns the contractor's completion history, oldest first.
func (l *MemoryLedger) List(ctx context.Context, contractorID string) ([]model.CompletedJob, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := make([]model.CompletedJob, 0, len(l.entries[contractorID]))
	for _, entry := range l.entries[contractorID] {
		entries = append(entries, entry)
	}
	sortEntries(entries)
	return entries, nil
}

func sortEntries(entries []model.CompletedJob) {
	sort.Slice(entries, func(i, k int) bool {
		if entries[i].CompletedAt.Equal(entries[k].CompletedAt) {
			return entries[i].JobID < entries[k].JobID
		}
		return entries[i].CompletedAt.Before(entries[k].CompletedAt)
	})
}
