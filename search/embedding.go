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


package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/coverscope/docintel/ai"
	"github.com/coverscope/docintel/core"
)

// DefaultBatchSize caps texts per embedding call.
const DefaultBatchSize = 100

// BatchEmbedder generates embeddings for chunks in independent batches.
type BatchEmbedder struct {
	embedder  ai.Embedder
	batchSize int
	schedule  []time.Duration
	logger    *slog.Logger
}

// BatchOption configures a BatchEmbedder.
type BatchOption func(*BatchEmbedder)

// WithBatchSize sets the maximum texts per embedding call.
func WithBatchSize(n int) BatchOption {
	return func(be *BatchEmbedder) {
		if n > 0 {
			be.batchSize = n
		}
	}
}

// WithBackoffSchedule sets the per-batch retry delays.
func WithBackoffSchedule(schedule []time.Duration) BatchOption {
	return func(be *BatchEmbedder) {
		if len(schedule) > 0 {
			be.schedule = schedule
		}
	}
}

// NewBatchEmbedder creates a batch embedder.
func NewBatchEmbedder(embedder ai.Embedder, opts ...BatchOption) (*BatchEmbedder, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	be := &BatchEmbedder{
		embedder:  embedder,
		batchSize: DefaultBatchSize,
		schedule:  ai.DefaultBackoffSchedule,
		logger:    slog.Default().With("component", "batch_embedder"),
	}
	for _, opt := range opts {
		opt(be)
	}
	return be, nil
}

// EmbedChunks assigns a normalized vector to every chunk. Batches are
// independent: each is retried on its own, and a batch failing after all
// retries does not discard vectors already assigned by earlier batches.
// The returned count is the number of chunks embedded before failure.
func (be *BatchEmbedder) EmbedChunks(ctx context.Context, chunks []*core.Chunk) (int, error) {
	embedded := 0
	for start := 0; start < len(chunks); start += be.batchSize {
		end := min(start+be.batchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}

		var vectors [][]float32
		err := ai.RetryWithBackoff(ctx, func() error {
			var err error
			vectors, err = be.embedder.EmbedTexts(ctx, texts)
			return err
		}, be.schedule)
		if err != nil {
			be.logger.Error("embedding batch failed",
				"batch_start", start,
				"batch_size", len(batch),
				"err", err)
			return embedded, fmt.Errorf("embedding batch at %d: %w", start, err)
		}

		if len(vectors) != len(batch) {
			return embedded, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(batch), len(vectors))
		}

		for i := range batch {
			batch[i].Vector = NormalizeVector(vectors[i])
		}
		embedded += len(batch)

		be.logger.Debug("embedded batch", "batch_start", start, "batch_size", len(batch))
	}
	return embedded, nil
}

// EmbedQuery embeds a single query string, normalized for cosine scoring.
func (be *BatchEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	var vector []float32
	err := ai.RetryWithBackoff(ctx, func() error {
		var err error
		vector, err = be.embedder.EmbedText(ctx, query)
		return err
	}, be.schedule)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	return NormalizeVector(vector), nil
}
