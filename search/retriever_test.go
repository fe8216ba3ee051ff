package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coverscope/docintel/ai/mock"
	"github.com/coverscope/docintel/core"
	"github.com/coverscope/docintel/storage/badger"
)

// seedRecord stores n chunks for one record, each with a deterministic
// vector matching what the mock embedder produces for its text.
func seedRecord(t *testing.T, repos *badger.Repositories, recordID core.ID, n int) {
	t.Helper()
	var chunks []*core.Chunk
	for i := 0; i < n; i++ {
		text := fmt.Sprintf("record %d chunk %d coverage text", recordID, i)
		chunks = append(chunks, &core.Chunk{
			Id:         core.IDFromContent(fmt.Sprintf("%d:%d:%s", recordID, i, text)),
			DocumentId: recordID,
			Index:      i,
			Text:       text,
			PageStart:  1,
			PageEnd:    1,
			Vector:     mock.DeterministicVector(text, 64),
		})
	}
	_, err := repos.Chunks.AddChunks(context.Background(), chunks...)
	require.NoError(t, err)
}

func newTestRetriever(t *testing.T, opts ...Option) (*Retriever, *badger.Repositories) {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return mock.DeterministicVector(text, 64), nil
	}
	be, err := NewBatchEmbedder(embedder)
	require.NoError(t, err)

	r, err := NewRetriever(repos.Chunks, be, opts...)
	require.NoError(t, err)
	return r, repos
}

func TestSearchSingleRecordTopK(t *testing.T) {
	r, repos := newTestRetriever(t)
	seedRecord(t, repos, core.ID(1), 20)

	hits, err := r.Search(context.Background(), "coverage text", []core.ID{1}, false)
	require.NoError(t, err)

	assert.Len(t, hits, DefaultTopK)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}
}

func TestSearchBalancedFairness(t *testing.T) {
	r, repos := newTestRetriever(t)

	// three records with enough chunks each
	records := []core.ID{10, 20, 30}
	for _, id := range records {
		seedRecord(t, repos, id, 15)
	}

	hits, err := r.Search(context.Background(), "what are the limits", records, true)
	require.NoError(t, err)

	// 3 records x K=12 = 36 hits, exactly 12 per record
	assert.Len(t, hits, 36)
	counts := map[core.ID]int{}
	for _, hit := range hits {
		counts[hit.RecordId]++
	}
	for _, id := range records {
		assert.Equal(t, 12, counts[id], "record %d", id)
	}
}

func TestSearchBalancedGroupingPreserved(t *testing.T) {
	r, repos := newTestRetriever(t, WithBalancedK(3))

	records := []core.ID{7, 3, 5}
	for _, id := range records {
		seedRecord(t, repos, id, 5)
	}

	hits, err := r.Search(context.Background(), "deductible", records, true)
	require.NoError(t, err)
	require.Len(t, hits, 9)

	// groups stay contiguous in the order the record IDs were given
	for i, hit := range hits {
		assert.Equal(t, records[i/3], hit.RecordId, "hit %d", i)
	}
}

func TestSearchBalancedCapsRecordSet(t *testing.T) {
	r, repos := newTestRetriever(t, WithBalancedK(2), WithMaxHits(4))

	records := []core.ID{1, 2, 3, 4}
	for _, id := range records {
		seedRecord(t, repos, id, 3)
	}

	hits, err := r.Search(context.Background(), "premium", records, true)
	require.NoError(t, err)

	// cap of 4 hits at K=2 admits only the first two records
	assert.Len(t, hits, 4)
	for _, hit := range hits {
		assert.Contains(t, []core.ID{1, 2}, hit.RecordId)
	}
}

func TestSearchBalancedFallsBackForSingleRecord(t *testing.T) {
	r, repos := newTestRetriever(t)
	seedRecord(t, repos, core.ID(1), 20)

	// balanced with one active record behaves like global top-K
	hits, err := r.Search(context.Background(), "coverage", []core.ID{1}, true)
	require.NoError(t, err)
	assert.Len(t, hits, DefaultTopK)
}

func TestSearchValidation(t *testing.T) {
	r, _ := newTestRetriever(t)

	_, err := r.Search(context.Background(), "", []core.ID{1}, false)
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = r.Search(context.Background(), "query", nil, false)
	assert.ErrorIs(t, err, ErrNoActiveRecords)
}

func TestNormalizeVector(t *testing.T) {
	got := NormalizeVector([]float32{3, 4})
	assert.InDelta(t, 0.6, got[0], 1e-6)
	assert.InDelta(t, 0.8, got[1], 1e-6)

	zero := NormalizeVector([]float32{0, 0})
	assert.Equal(t, []float32{0, 0}, zero)

	assert.Empty(t, NormalizeVector(nil))
}
