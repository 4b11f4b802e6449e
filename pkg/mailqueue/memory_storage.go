package mailqueue

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage is an in-memory implementation of the Storage interface.
// Suitable for development and testing.
type MemoryStorage struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*Job
}

// NewMemoryStorage creates a new in-memory mail queue storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{jobs: make(map[uuid.UUID]*Job)}
}

func (s *MemoryStorage) Enqueue(ctx context.Context, job *Job) error {
	if job == nil || job.UserID == uuid.Nil || job.Email == "" {
		return fmt.Errorf("%w: user ID and email are required", ErrInvalidJob)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	now := time.Now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	if job.ScheduledAt.IsZero() {
		job.ScheduledAt = now
	}
	job.Status = StatusPending

	cp := copyJob(job)
	s.jobs[job.ID] = cp
	return nil
}

func (s *MemoryStorage) Get(ctx context.Context, jobID uuid.UUID) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	return copyJob(job), nil
}

func (s *MemoryStorage) GetPending(ctx context.Context, now time.Time, limit int) ([]Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []Job
	for _, job := range s.jobs {
		if job.Status == StatusPending && !job.ScheduledAt.After(now) {
			due = append(due, *copyJob(job))
		}
	}

	sort.Slice(due, func(i, j int) bool {
		ri, rj := PriorityRank(due[i].Priority), PriorityRank(due[j].Priority)
		if ri != rj {
			return ri < rj
		}
		return due[i].ScheduledAt.Before(due[j].ScheduledAt)
	})

	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s *MemoryStorage) GetRetryable(ctx context.Context, maxAttempts, limit int) ([]Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Job
	for _, job := range s.jobs {
		if job.Status == StatusFailed && job.RetryCount < maxAttempts {
			out = append(out, *copyJob(job))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStorage) MarkSent(ctx context.Context, jobID uuid.UUID, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return ErrJobNotFound
	}
	if job.Status != StatusPending {
		return fmt.Errorf("%w: %s -> sent", ErrInvalidTransition, job.Status)
	}

	job.Status = StatusSent
	job.SentAt = &sentAt
	job.ErrorMessage = ""
	return nil
}

func (s *MemoryStorage) MarkFailed(ctx context.Context, jobID uuid.UUID, errMsg string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return 0, ErrJobNotFound
	}
	if job.Status != StatusPending {
		return 0, fmt.Errorf("%w: %s -> failed", ErrInvalidTransition, job.Status)
	}

	job.Status = StatusFailed
	job.RetryCount++
	job.ErrorMessage = errMsg
	return job.RetryCount, nil
}

func (s *MemoryStorage) Retry(ctx context.Context, jobID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return ErrJobNotFound
	}
	if job.Status != StatusFailed {
		return fmt.Errorf("%w: %s -> pending", ErrInvalidTransition, job.Status)
	}

	job.Status = StatusPending
	job.ErrorMessage = ""
	return nil
}

func (s *MemoryStorage) Cancel(ctx context.Context, jobID uuid.UUID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return ErrJobNotFound
	}
	if job.Status.Terminal() {
		return fmt.Errorf("%w: %s -> cancelled", ErrInvalidTransition, job.Status)
	}

	job.Status = StatusCancelled
	job.ErrorMessage = reason
	return nil
}

func (s *MemoryStorage) List(ctx context.Context, status Status, limit, offset int) ([]Job, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Job
	for _, job := range s.jobs {
		if status != "" && job.Status != status {
			continue
		}
		out = append(out, *copyJob(job))
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if offset > len(out) {
		return []Job{}, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStorage) CountByStatus(ctx context.Context) (map[Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[Status]int)
	for _, job := range s.jobs {
		counts[job.Status]++
	}
	return counts, nil
}

func (s *MemoryStorage) DeleteTerminalOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, job := range s.jobs {
		if job.Status.Terminal() && job.CreatedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed, nil
}

func copyJob(job *Job) *Job {
	cp := *job
	if job.SentAt != nil {
		t := *job.SentAt
		cp.SentAt = &t
	}
	if job.Metadata != nil {
		cp.Metadata = make(map[string]string, len(job.Metadata))
		for k, v := range job.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}
