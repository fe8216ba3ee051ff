package pipeline

import (
	"context"
	"time"

	"github.com/coverscope/docintel/ai"
)

// retryingCompleter decorates a completer with the retry-with-backoff
// policy so classification and extraction survive transient provider
// conditions without each caller re-implementing the loop.
type retryingCompleter struct {
	inner    ai.Completer
	schedule []time.Duration
}

var _ ai.Completer = (*retryingCompleter)(nil)

func newRetryingCompleter(inner ai.Completer, schedule []time.Duration) *retryingCompleter {
	if len(schedule) == 0 {
		schedule = ai.DefaultBackoffSchedule
	}
	return &retryingCompleter{inner: inner, schedule: schedule}
}

func (r *retryingCompleter) Complete(ctx context.Context, systemPrompt, userContent string) (string, error) {
	var result string
	err := ai.RetryWithBackoff(ctx, func() error {
		var err error
		result, err = r.inner.Complete(ctx, systemPrompt, userContent)
		return err
	}, r.schedule)
	return result, err
}
