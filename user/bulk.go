package user

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/hashstore/core"
)

// Credentials are the inputs of one account creation.
type Credentials struct {
	Username string
	Password string
	Email    string
}

// BulkOptions holds optional parameters for CreateMany.
type BulkOptions struct {
	Workers        int       // Pool size; the model's pool size when zero
	Progress       io.Writer // Optional progress output
	ReportInterval int       // Report progress every N users (default 100)
}

// ItemResult is the outcome of one creation.
type ItemResult struct {
	Index    int
	Username string
	User     *core.User
	OK       bool
}

// BulkResult collects the outcome of CreateMany in input order.
type BulkResult struct {
	Items   []ItemResult
	Created int
	Failed  int
	Elapsed time.Duration
}

// CreateMany creates accounts concurrently on a bounded worker pool. Each
// creation is independent; a failed one does not affect the others. Items
// not started before ctx is canceled are reported as failed.
func (m *Model) CreateMany(ctx context.Context, creds []Credentials, opts *BulkOptions) (*BulkResult, error) {
	if opts == nil {
		opts = &BulkOptions{}
	}
	workers := opts.Workers
	if workers < 1 {
		workers = m.poolSize
	}
	interval := opts.ReportInterval
	if interval < 1 {
		interval = 100
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var tracker *ProgressTracker
	if opts.Progress != nil {
		tracker = NewProgressTracker(opts.Progress, len(creds), interval)
		tracker.Start()
	}

	start := time.Now()
	result := &BulkResult{Items: make([]ItemResult, len(creds))}

	var wg sync.WaitGroup
	for i, c := range creds {
		result.Items[i] = ItemResult{Index: i, Username: c.Username}

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				m.logger.Debug("skipping user creation, context done", "username", c.Username)
			} else {
				u, ok := m.Create(ctx, c.Username, c.Password, c.Email)
				result.Items[i].User = u
				result.Items[i].OK = ok
			}
			if tracker != nil {
				tracker.Record(result.Items[i].OK)
			}
		})
		if submitErr != nil {
			wg.Done()
			m.logger.Error("failed to submit user creation", "username", c.Username, "error", submitErr)
		}
	}
	wg.Wait()

	if tracker != nil {
		tracker.Finish()
	}

	for _, item := range result.Items {
		if item.OK {
			result.Created++
		} else {
			result.Failed++
		}
	}
	result.Elapsed = time.Since(start)
	return result, nil
}
