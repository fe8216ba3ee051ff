package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coverscope/docintel/ai/mock"
	"github.com/coverscope/docintel/core"
	"github.com/coverscope/docintel/storage"
	"github.com/coverscope/docintel/storage/badger"
)

type stubBlobStore struct {
	content string
	err     error
}

func (s *stubBlobStore) ReadDocumentBytes(ctx context.Context, documentID core.ID) (io.ReadCloser, error) {
	if s.err != nil {
		return nil, s.err
	}
	return io.NopCloser(strings.NewReader(s.content)), nil
}

// gatedBlobStore blocks the pipeline inside blob access until released,
// so tests can observe the in-flight state.
type gatedBlobStore struct {
	started chan struct{}
	gate    chan struct{}
	once    sync.Once
}

func (s *gatedBlobStore) ReadDocumentBytes(ctx context.Context, documentID core.ID) (io.ReadCloser, error) {
	s.once.Do(func() { close(s.started) })
	<-s.gate
	return io.NopCloser(strings.NewReader("pdf bytes")), nil
}

type stubTextExtractor struct {
	pages core.PageText
	err   error
}

func (s *stubTextExtractor) ExtractPageText(ctx context.Context, r io.Reader) (core.PageText, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.pages, nil
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *capturingPublisher) PublishEvent(ctx context.Context, event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func testPages() core.PageText {
	return core.PageText{
		1: "COMMERCIAL LINES POLICY DECLARATIONS\nPolicy Number: CPP-1044822\nNamed Insured: Harbor Light Bakery LLC\nPolicy Period: 03/15/2025 to 03/15/2026\nTotal Premium: $24,500",
		2: "COMMERCIAL GENERAL LIABILITY COVERAGE FORM\nEach Occurrence Limit: $1,000,000\nGeneral Aggregate Limit: $2,000,000",
	}
}

const testClassification = `{
  "document_type": "policy",
  "sections": [{"section_type": "declarations", "start_page": 1, "end_page": 1}],
  "coverages_detected": ["general_liability"],
  "confidence": 0.9
}`

const testCoreResponse = `{
  "policy_number": "CPP-1044822",
  "effective_date": "2025-03-15",
  "expiration_date": "2026-03-15",
  "insured_name": "Harbor Light Bakery LLC",
  "total_premium": 24500,
  "confidence": 0.9
}`

const testCategoryResponse = `{
  "each_occurrence_limit": 1000000,
  "aggregate_limit": 2000000,
  "confidence": 0.9
}`

// dispatchCompleter routes mock completions by stage, using the prompt
// text the stages embed.
func dispatchCompleter(provider *mock.MockProvider, classification, coreResp string, categories map[string]string) {
	provider.GetMockCompleter().CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
		switch {
		case strings.Contains(system, "You classify"):
			return classification, nil
		case strings.Contains(system, "declarations text"):
			return coreResp, nil
		default:
			for id, resp := range categories {
				if strings.Contains(user, "Coverage category: "+id) {
					return resp, nil
				}
			}
			return "{}", nil
		}
	}
}

type orchestratorFixture struct {
	orchestrator *Orchestrator
	repos        *badger.Repositories
	provider     *mock.MockProvider
	publisher    *capturingPublisher
	document     *core.Document
}

func newFixture(t *testing.T, blobs BlobStore, texts TextExtractor) *orchestratorFixture {
	t.Helper()

	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	provider := mock.NewMockProvider().(*mock.MockProvider)
	publisher := &capturingPublisher{}

	orchestrator, err := NewOrchestrator(
		repos.Documents, repos.Chunks, repos.Records,
		provider, blobs, texts,
		WithEventPublisher(publisher),
		WithBackoffSchedule([]time.Duration{time.Millisecond}),
	)
	require.NoError(t, err)
	t.Cleanup(orchestrator.Release)

	doc, err := repos.Documents.AddDocument(context.Background(), &core.Document{
		FileName: "harbor-light-policy.pdf",
	})
	require.NoError(t, err)

	return &orchestratorFixture{
		orchestrator: orchestrator,
		repos:        repos,
		provider:     provider,
		publisher:    publisher,
		document:     doc,
	}
}

func TestProcessDocumentCompletes(t *testing.T) {
	f := newFixture(t,
		&stubBlobStore{content: "pdf bytes"},
		&stubTextExtractor{pages: testPages()})
	dispatchCompleter(f.provider, testClassification, testCoreResponse,
		map[string]string{core.CategoryGeneralLiability: testCategoryResponse})

	outcome, err := f.orchestrator.ProcessDocument(context.Background(), f.document.Id)
	require.NoError(t, err)

	assert.Equal(t, core.StatusCompleted, outcome.Status)
	assert.InDelta(t, 0.9, outcome.Confidence, 0.001)
	assert.Equal(t, []string{core.CategoryGeneralLiability}, outcome.Categories)
	assert.Empty(t, outcome.CategoryFailures)
	assert.True(t, outcome.Validation.IsValid)
	assert.Greater(t, outcome.ChunkCount, 0)

	ctx := context.Background()
	doc, err := f.repos.Documents.GetDocument(ctx, f.document.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, doc.Status)

	coreRecord, err := f.repos.Records.GetCoreRecord(ctx, f.document.Id)
	require.NoError(t, err)
	assert.Equal(t, "CPP-1044822", coreRecord.PolicyNumber)
	require.NotNil(t, coreRecord.TotalPremium)
	assert.Equal(t, 24500.0, *coreRecord.TotalPremium)

	categories, err := f.repos.Records.GetCategoryRecords(ctx, f.document.Id)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	require.NotNil(t, categories[0].Common.EachOccurrenceLimit)
	assert.Equal(t, 1000000.0, *categories[0].Common.EachOccurrenceLimit)

	chunks, err := f.repos.Chunks.GetChunksByDocument(ctx, f.document.Id)
	require.NoError(t, err)
	assert.Len(t, chunks, outcome.ChunkCount)
	for _, chunk := range chunks {
		assert.NotEmpty(t, chunk.Vector)
	}

	types := f.publisher.types()
	assert.Equal(t, EventProcessingStarted, types[0])
	assert.Equal(t, EventCompleted, types[len(types)-1])
	assert.Contains(t, types, EventChunked)
	assert.Contains(t, types, EventEmbedded)
	assert.Contains(t, types, EventClassified)
	assert.Contains(t, types, EventExtracted)
}

func TestProcessDocumentReversedDatesNeedsReview(t *testing.T) {
	reversed := strings.Replace(testCoreResponse, `"expiration_date": "2026-03-15"`,
		`"expiration_date": "2024-03-15"`, 1)

	f := newFixture(t,
		&stubBlobStore{content: "pdf bytes"},
		&stubTextExtractor{pages: testPages()})
	dispatchCompleter(f.provider, testClassification, reversed,
		map[string]string{core.CategoryGeneralLiability: testCategoryResponse})

	outcome, err := f.orchestrator.ProcessDocument(context.Background(), f.document.Id)
	require.NoError(t, err)

	assert.Equal(t, core.StatusNeedsReview, outcome.Status)
	assert.False(t, outcome.Validation.IsValid)
	require.Len(t, outcome.Validation.Errors, 1)
	assert.Contains(t, outcome.Validation.Errors[0], "precedes effective date")

	types := f.publisher.types()
	assert.Equal(t, EventNeedsReview, types[len(types)-1])
}

func TestProcessDocumentLowConfidenceNeedsReview(t *testing.T) {
	lowCore := strings.Replace(testCoreResponse, `"confidence": 0.9`, `"confidence": 0.2`, 1)
	lowCategory := strings.Replace(testCategoryResponse, `"confidence": 0.9`, `"confidence": 0.3`, 1)

	f := newFixture(t,
		&stubBlobStore{content: "pdf bytes"},
		&stubTextExtractor{pages: testPages()})
	dispatchCompleter(f.provider, testClassification, lowCore,
		map[string]string{core.CategoryGeneralLiability: lowCategory})

	outcome, err := f.orchestrator.ProcessDocument(context.Background(), f.document.Id)
	require.NoError(t, err)

	// 0.9*0.10 + 0.2*0.30 + 0.3*0.60 = 0.33
	assert.Equal(t, core.StatusNeedsReview, outcome.Status)
	assert.InDelta(t, 0.33, outcome.Confidence, 0.001)
	assert.True(t, outcome.Validation.IsValid)
}

func TestProcessDocumentPartialCategoryFailure(t *testing.T) {
	classification := strings.Replace(testClassification,
		`["general_liability"]`, `["general_liability", "cyber_liability"]`, 1)

	f := newFixture(t,
		&stubBlobStore{content: "pdf bytes"},
		&stubTextExtractor{pages: testPages()})
	f.provider.GetMockCompleter().CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
		switch {
		case strings.Contains(system, "You classify"):
			return classification, nil
		case strings.Contains(system, "declarations text"):
			return testCoreResponse, nil
		case strings.Contains(user, "Coverage category: cyber_liability"):
			return "", errors.New("401 unauthorized: invalid api key")
		default:
			return testCategoryResponse, nil
		}
	}

	outcome, err := f.orchestrator.ProcessDocument(context.Background(), f.document.Id)
	require.NoError(t, err)

	// The failed category counts as zero: 0.09 + 0.27 + 0.45*0.60 = 0.63.
	assert.Equal(t, core.StatusNeedsReview, outcome.Status)
	assert.InDelta(t, 0.63, outcome.Confidence, 0.001)
	assert.Equal(t, []string{core.CategoryGeneralLiability}, outcome.Categories)
	require.Contains(t, outcome.CategoryFailures, core.CategoryCyberLiability)

	categories, err := f.repos.Records.GetCategoryRecords(context.Background(), f.document.Id)
	require.NoError(t, err)
	assert.Len(t, categories, 1)
}

func TestProcessDocumentDegradedClassification(t *testing.T) {
	// Classification and core extraction fail non-retryably; the run
	// still finishes, flagged for review with no category records.
	f := newFixture(t,
		&stubBlobStore{content: "pdf bytes"},
		&stubTextExtractor{pages: testPages()})
	f.provider.GetMockCompleter().CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
		return "I cannot help with that.", nil
	}

	outcome, err := f.orchestrator.ProcessDocument(context.Background(), f.document.Id)
	require.NoError(t, err)

	assert.Equal(t, core.StatusNeedsReview, outcome.Status)
	assert.Zero(t, outcome.Confidence)
	assert.Empty(t, outcome.Categories)

	coreRecord, err := f.repos.Records.GetCoreRecord(context.Background(), f.document.Id)
	require.NoError(t, err)
	assert.Empty(t, coreRecord.PolicyNumber)
}

func TestProcessDocumentInputQualityFails(t *testing.T) {
	f := newFixture(t,
		&stubBlobStore{content: "pdf bytes"},
		&stubTextExtractor{err: fmt.Errorf("%w: no extractable text", core.ErrInputQuality)})

	outcome, err := f.orchestrator.ProcessDocument(context.Background(), f.document.Id)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInputQuality)
	assert.Equal(t, core.StatusFailed, outcome.Status)

	doc, err := f.repos.Documents.GetDocument(context.Background(), f.document.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, doc.Status)
	assert.Contains(t, doc.FailureReason, "could not be read")

	types := f.publisher.types()
	assert.Equal(t, EventFailed, types[len(types)-1])
}

func TestProcessDocumentEmbeddingFailureFails(t *testing.T) {
	f := newFixture(t,
		&stubBlobStore{content: "pdf bytes"},
		&stubTextExtractor{pages: testPages()})
	dispatchCompleter(f.provider, testClassification, testCoreResponse, nil)
	f.provider.GetMockEmbedder().EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("429 too many requests")
	}

	_, err := f.orchestrator.ProcessDocument(context.Background(), f.document.Id)
	require.Error(t, err)
	assert.True(t, core.IsTransient(err))

	doc, err := f.repos.Documents.GetDocument(context.Background(), f.document.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, doc.Status)
	assert.NotEmpty(t, doc.FailureReason)
}

func TestProcessDocumentSingleFlight(t *testing.T) {
	blobs := &gatedBlobStore{
		started: make(chan struct{}),
		gate:    make(chan struct{}),
	}
	f := newFixture(t, blobs, &stubTextExtractor{pages: testPages()})
	dispatchCompleter(f.provider, testClassification, testCoreResponse,
		map[string]string{core.CategoryGeneralLiability: testCategoryResponse})

	done := make(chan error, 1)
	go func() {
		_, err := f.orchestrator.ProcessDocument(context.Background(), f.document.Id)
		done <- err
	}()

	<-blobs.started
	_, err := f.orchestrator.ProcessDocument(context.Background(), f.document.Id)
	assert.ErrorIs(t, err, ErrAlreadyProcessing)

	close(blobs.gate)
	require.NoError(t, <-done)
}

func TestReprocessDocument(t *testing.T) {
	f := newFixture(t,
		&stubBlobStore{content: "pdf bytes"},
		&stubTextExtractor{pages: testPages()})
	dispatchCompleter(f.provider, testClassification, testCoreResponse,
		map[string]string{core.CategoryGeneralLiability: testCategoryResponse})

	ctx := context.Background()
	first, err := f.orchestrator.ProcessDocument(ctx, f.document.Id)
	require.NoError(t, err)
	require.Equal(t, core.StatusCompleted, first.Status)

	require.NoError(t, f.orchestrator.ReprocessDocument(ctx, f.document.Id))

	doc, err := f.repos.Documents.GetDocument(ctx, f.document.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPending, doc.Status)

	chunks, err := f.repos.Chunks.GetChunksByDocument(ctx, f.document.Id)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	_, err = f.repos.Records.GetCoreRecord(ctx, f.document.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// A second run over the same input reproduces the outcome without
	// duplicating derived rows.
	second, err := f.orchestrator.ProcessDocument(ctx, f.document.Id)
	require.NoError(t, err)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.ChunkCount, second.ChunkCount)
	assert.Equal(t, first.Categories, second.Categories)

	categories, err := f.repos.Records.GetCategoryRecords(ctx, f.document.Id)
	require.NoError(t, err)
	assert.Len(t, categories, 1)
}

func TestReprocessDocumentRequiresTerminalStatus(t *testing.T) {
	f := newFixture(t,
		&stubBlobStore{content: "pdf bytes"},
		&stubTextExtractor{pages: testPages()})

	err := f.orchestrator.ReprocessDocument(context.Background(), f.document.Id)
	assert.ErrorIs(t, err, ErrNotTerminal)
}

func TestProcessDocumentUnknownDocument(t *testing.T) {
	f := newFixture(t,
		&stubBlobStore{content: "pdf bytes"},
		&stubTextExtractor{pages: testPages()})

	_, err := f.orchestrator.ProcessDocument(context.Background(), core.ID(424242))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
