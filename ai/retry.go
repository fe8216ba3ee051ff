// Copyright 2025 Coverscope Labs
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


package ai

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/coverscope/docintel/core"
)

// DefaultBackoffSchedule is the delay before each retry. The number of
// attempts is len(schedule)+1.
var DefaultBackoffSchedule = []time.Duration{
	1 * time.Second,
	5 * time.Second,
	15 * time.Second,
}

// ErrEmptyBackoffSchedule is returned when the schedule has no delays.
var ErrEmptyBackoffSchedule = errors.New("backoff schedule must not be empty")

// RetryWithBackoff retries an operation over the given delay schedule.
// Only retryable errors trigger another attempt; authentication failures
// and malformed input surface immediately. Returns the error from the
// last attempt if all attempts fail, wrapped as transient.
func RetryWithBackoff(ctx context.Context, operation func() error, schedule []time.Duration) error {
	if len(schedule) == 0 {
		return ErrEmptyBackoffSchedule
	}

	var lastErr error
	attempts := len(schedule) + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		if !Retryable(lastErr) {
			return lastErr
		}

		if attempt == attempts {
			break
		}

		slog.Debug("operation failed, will retry",
			"attempt", attempt,
			"attempts", attempts,
			"delay", schedule[attempt-1],
			"error", lastErr)

		timer := time.NewTimer(schedule[attempt-1])
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return core.Transient(lastErr)
}

// Retryable reports whether err looks like a transient provider
// condition: rate limiting, 5xx responses, or timeouts. Providers do not
// share an error type, so classification falls back to message text.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if core.IsTransient(err) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"rate limit",
		"too many requests",
		"429",
		"500",
		"502",
		"503",
		"504",
		"timeout",
		"timed out",
		"connection refused",
		"connection reset",
		"temporarily unavailable",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
