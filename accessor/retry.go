// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package accessor

import (
	"context"
	"log/slog"
	"time"
)

const maxRetryDelay = 5 * time.Second

// backoff is the schedule Connect uses to open the driver: up to attempts
// tries, waiting base, 2*base, 4*base... between them, never more than limit.
type backoff struct {
	attempts int
	base     time.Duration
	limit    time.Duration
}

// wait returns the pause after the given failed attempt (1-based).
func (b backoff) wait(attempt int) time.Duration {
	d := b.base
	for i := 1; i < attempt; i++ {
		d *= 2
		if b.limit > 0 && d >= b.limit {
			return b.limit
		}
	}
	if b.limit > 0 && d > b.limit {
		return b.limit
	}
	return d
}

// run calls open until it succeeds, the attempts are used up or ctx ends.
// It returns the last error from open, or the context error.
func (b backoff) run(ctx context.Context, logger *slog.Logger, open func(context.Context) error) error {
	if b.attempts < 1 {
		return ErrInvalidRetryAttempts
	}

	var err error
	for attempt := 1; attempt <= b.attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err = open(ctx); err == nil {
			if attempt > 1 {
				logger.Info("store opened after retry", "attempt", attempt)
			}
			return nil
		}

		if attempt == b.attempts {
			break
		}
		pause := b.wait(attempt)
		logger.Warn("failed to open store, retrying",
			"attempt", attempt, "attempts", b.attempts, "retry_in", pause, "error", err)

		timer := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}
