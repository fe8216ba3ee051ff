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
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/coverscope/docintel/core"
	"github.com/coverscope/docintel/storage"
)

// Retrieval defaults.
const (
	// DefaultTopK is the global result count for single-record mode.
	DefaultTopK = 5
	// DefaultBalancedK is the fixed per-record quota for balanced mode.
	DefaultBalancedK = 12
	// DefaultMaxHits caps the total results of a balanced search.
	DefaultMaxHits = 60
)

// Retriever answers queries against a record set's chunks.
type Retriever struct {
	chunks    storage.ChunkRepository
	embedder  *BatchEmbedder
	topK      int
	balancedK int
	maxHits   int
	logger    *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithTopK sets the global result count for single-record mode.
func WithTopK(k int) Option {
	return func(r *Retriever) error {
		if k > 0 {
			r.topK = k
		}
		return nil
	}
}

// WithBalancedK sets the per-record quota for balanced mode.
func WithBalancedK(k int) Option {
	return func(r *Retriever) error {
		if k > 0 {
			r.balancedK = k
		}
		return nil
	}
}

// WithMaxHits caps the total results of a balanced search.
func WithMaxHits(n int) Option {
	return func(r *Retriever) error {
		if n > 0 {
			r.maxHits = n
		}
		return nil
	}
}

// NewRetriever creates a retriever over the given chunk repository and
// batch embedder.
func NewRetriever(chunks storage.ChunkRepository, embedder *BatchEmbedder, opts ...Option) (*Retriever, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	r := &Retriever{
		chunks:    chunks,
		embedder:  embedder,
		topK:      DefaultTopK,
		balancedK: DefaultBalancedK,
		maxHits:   DefaultMaxHits,
		logger:    slog.Default().With("component", "retriever"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Search embeds the query and retrieves chunks from the active records.
// With balanced=false (or a single record) it returns a global top-K
// ranking. With balanced=true and several records it runs one fixed-K
// search per record and concatenates, preserving per-record grouping in
// the order the record IDs were given.
func (r *Retriever) Search(ctx context.Context, query string, recordIDs []core.ID, balanced bool) ([]*core.SearchHit, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if len(recordIDs) == 0 {
		return nil, ErrNoActiveRecords
	}

	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		r.logger.Error("error embedding query", "err", err)
		return nil, err
	}

	if balanced && len(recordIDs) > 1 {
		return r.searchBalanced(ctx, vector, recordIDs)
	}
	return r.searchGlobal(ctx, vector, recordIDs)
}

// searchGlobal ranks all chunks across the record set and returns the
// overall top-K.
func (r *Retriever) searchGlobal(ctx context.Context, vector []float32, recordIDs []core.ID) ([]*core.SearchHit, error) {
	perRecord, err := r.searchPerRecord(ctx, vector, recordIDs, r.topK)
	if err != nil {
		return nil, err
	}

	var merged []*core.SearchHit
	for _, hits := range perRecord {
		merged = append(merged, hits...)
	}
	slices.SortFunc(merged, func(a, b *core.SearchHit) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})
	if len(merged) > r.topK {
		merged = merged[:r.topK]
	}
	return merged, nil
}

// searchBalanced gives every active record its own fixed-K quota. The
// total is capped by maxHits; when the record set alone would exceed the
// cap, trailing records are dropped rather than shrinking quotas.
func (r *Retriever) searchBalanced(ctx context.Context, vector []float32, recordIDs []core.ID) ([]*core.SearchHit, error) {
	maxRecords := r.maxHits / r.balancedK
	if maxRecords < 1 {
		maxRecords = 1
	}
	if len(recordIDs) > maxRecords {
		r.logger.Warn("active record set exceeds balanced search cap",
			"records", len(recordIDs),
			"max_records", maxRecords)
		recordIDs = recordIDs[:maxRecords]
	}

	perRecord, err := r.searchPerRecord(ctx, vector, recordIDs, r.balancedK)
	if err != nil {
		return nil, err
	}

	// Concatenate in record order; each record's group stays contiguous
	// so chat context construction can label per-record sections.
	var hits []*core.SearchHit
	for _, group := range perRecord {
		hits = append(hits, group...)
	}

	r.logger.Debug("balanced search complete",
		"records", len(recordIDs),
		"per_record_k", r.balancedK,
		"hits", len(hits))

	return hits, nil
}

// searchPerRecord runs one top-K vector search per record concurrently.
// Searches are read-only and independent; results stay grouped by their
// position in recordIDs.
func (r *Retriever) searchPerRecord(ctx context.Context, vector []float32, recordIDs []core.ID, k int) ([][]*core.SearchHit, error) {
	results := make([][]*core.SearchHit, len(recordIDs))

	g, gctx := errgroup.WithContext(ctx)
	for i, recordID := range recordIDs {
		g.Go(func() error {
			hits, err := r.chunks.FindSimilar(gctx, vector, recordID, k)
			if err != nil {
				return err
			}
			results[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
