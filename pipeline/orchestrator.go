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


package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"

	"github.com/coverscope/docintel/ai"
	"github.com/coverscope/docintel/chunk"
	"github.com/coverscope/docintel/classify"
	"github.com/coverscope/docintel/core"
	"github.com/coverscope/docintel/extract"
	"github.com/coverscope/docintel/search"
	"github.com/coverscope/docintel/storage"
)

const (
	// defaultCategoryFanout bounds concurrent category extraction calls
	// for one document, to respect provider rate limits.
	defaultCategoryFanout = 3

	// maxSectionChars caps the text sent to one extraction call.
	maxSectionChars = 24000
)

// ProcessingOutcome summarizes one pipeline run.
type ProcessingOutcome struct {
	DocumentId       core.ID
	Status           core.DocumentStatus
	Confidence       float64
	Validation       core.ValidationOutcome
	Categories       []string
	CategoryFailures map[string]string
	ChunkCount       int
}

// Orchestrator sequences the pipeline stages per document and owns the
// document status field.
type Orchestrator struct {
	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	records   storage.RecordRepository

	blobs    BlobStore
	texts    TextExtractor
	events   EventPublisher
	provider ai.Provider

	chunker       *chunk.Chunker
	classifier    *classify.Classifier
	coreExtractor *extract.CoreExtractor
	registry      *extract.Registry
	embedder      *search.BatchEmbedder

	pool           *ants.Pool
	categoryFanout int
	logger         *slog.Logger

	// inflight guards the single-run-per-document invariant.
	mu       sync.Mutex
	inflight map[core.ID]struct{}
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// WithPoolSize sets the worker pool size for async processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(o *Orchestrator) error {
		if size < 1 {
			size = 1
		}
		if o.pool != nil {
			o.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		o.pool = pool
		return nil
	}
}

// WithCategoryFanout bounds concurrent category extraction calls.
func WithCategoryFanout(n int) Option {
	return func(o *Orchestrator) error {
		if n > 0 {
			o.categoryFanout = n
		}
		return nil
	}
}

// WithEventPublisher sets the status/progress event sink.
func WithEventPublisher(publisher EventPublisher) Option {
	return func(o *Orchestrator) error {
		if publisher != nil {
			o.events = publisher
		}
		return nil
	}
}

// WithChunkingOptions overrides the chunker's token budgets.
func WithChunkingOptions(opts chunk.Options) Option {
	return func(o *Orchestrator) error {
		o.chunker = chunk.New(opts)
		return nil
	}
}

// WithBackoffSchedule sets the retry delays for provider calls.
func WithBackoffSchedule(schedule []time.Duration) Option {
	return func(o *Orchestrator) error {
		if len(schedule) > 0 {
			o.rebuildAIStages(schedule)
		}
		return nil
	}
}

// NewOrchestrator wires the pipeline stages over the given repositories
// and collaborators.
func NewOrchestrator(
	documents storage.DocumentRepository,
	chunks storage.ChunkRepository,
	records storage.RecordRepository,
	provider ai.Provider,
	blobs BlobStore,
	texts TextExtractor,
	opts ...Option,
) (*Orchestrator, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if records == nil {
		return nil, ErrRecordRepositoryRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}
	if blobs == nil {
		return nil, ErrBlobStoreRequired
	}
	if texts == nil {
		return nil, ErrTextExtractorRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	embedder, err := search.NewBatchEmbedder(provider.Embedder())
	if err != nil {
		pool.Release()
		return nil, err
	}

	completer := newRetryingCompleter(provider.Completer(), ai.DefaultBackoffSchedule)

	o := &Orchestrator{
		documents:      documents,
		chunks:         chunks,
		records:        records,
		blobs:          blobs,
		texts:          texts,
		events:         noopPublisher{},
		provider:       provider,
		chunker:        chunk.New(chunk.DefaultOptions()),
		classifier:     classify.NewClassifier(completer),
		coreExtractor:  extract.NewCoreExtractor(completer),
		registry:       extract.NewRegistry(completer),
		embedder:       embedder,
		pool:           pool,
		categoryFanout: defaultCategoryFanout,
		logger:         slog.Default().With("component", "orchestrator"),
		inflight:       make(map[core.ID]struct{}),
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			o.Release()
			return nil, err
		}
	}

	return o, nil
}

// rebuildAIStages reconstructs the LLM-backed stages with a different
// retry policy.
func (o *Orchestrator) rebuildAIStages(schedule []time.Duration) {
	completer := newRetryingCompleter(o.provider.Completer(), schedule)
	o.classifier = classify.NewClassifier(completer)
	o.coreExtractor = extract.NewCoreExtractor(completer)
	o.registry = extract.NewRegistry(completer)
	embedder, err := search.NewBatchEmbedder(o.provider.Embedder(),
		search.WithBackoffSchedule(schedule))
	if err == nil {
		o.embedder = embedder
	}
}

// Release releases the worker pool. The orchestrator should not be used
// after calling Release.
func (o *Orchestrator) Release() {
	if o.pool != nil {
		o.pool.Release()
	}
}

// Submit schedules asynchronous processing of a document on the worker
// pool. Errors from the run are logged, not returned.
func (o *Orchestrator) Submit(documentID core.ID) error {
	return o.pool.Submit(func() {
		if _, err := o.ProcessDocument(context.Background(), documentID); err != nil {
			o.logger.Error("async processing failed", "document", documentID, "err", err)
		}
	})
}

// ProcessDocument runs the full pipeline for one document. Exactly one
// run per document ID executes at a time; a concurrent call returns
// ErrAlreadyProcessing.
func (o *Orchestrator) ProcessDocument(ctx context.Context, documentID core.ID) (*ProcessingOutcome, error) {
	if !o.acquire(documentID) {
		return nil, ErrAlreadyProcessing
	}
	defer o.release(documentID)

	doc, err := o.documents.GetDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("loading document %d: %w", documentID, err)
	}

	if err := o.documents.UpdateDocumentStatus(ctx, doc.Id, core.StatusProcessing, ""); err != nil {
		return nil, fmt.Errorf("marking document processing: %w", err)
	}
	o.events.PublishEvent(ctx, newEvent(EventProcessingStarted, doc.Id, map[string]any{
		"file_name": doc.FileName,
	}))

	outcome, runErr := o.run(ctx, doc)
	if runErr != nil {
		reason := failureReason(runErr)
		if err := o.documents.UpdateDocumentStatus(ctx, doc.Id, core.StatusFailed, reason); err != nil {
			o.logger.Error("failed to record failure status", "document", doc.Id, "err", err)
		}
		o.events.PublishEvent(ctx, newEvent(EventFailed, doc.Id, map[string]any{
			"reason": reason,
		}))
		o.logger.Error("pipeline run failed", "document", doc.Id, "err", runErr)
		return &ProcessingOutcome{DocumentId: doc.Id, Status: core.StatusFailed}, runErr
	}

	if err := o.documents.UpdateDocumentStatus(ctx, doc.Id, outcome.Status, ""); err != nil {
		return nil, fmt.Errorf("recording final status: %w", err)
	}

	eventType := EventCompleted
	if outcome.Status == core.StatusNeedsReview {
		eventType = EventNeedsReview
	}
	o.events.PublishEvent(ctx, newEvent(eventType, doc.Id, map[string]any{
		"confidence": outcome.Confidence,
		"categories": outcome.Categories,
		"errors":     outcome.Validation.Errors,
		"warnings":   outcome.Validation.Warnings,
	}))

	o.logger.Info("pipeline run finished",
		"document", doc.Id,
		"status", outcome.Status.String(),
		"confidence", outcome.Confidence,
		"categories", len(outcome.Categories))

	return outcome, nil
}

// ReprocessDocument deletes a terminal document's derived rows and
// re-enters it as pending.
func (o *Orchestrator) ReprocessDocument(ctx context.Context, documentID core.ID) error {
	if !o.acquire(documentID) {
		return ErrAlreadyProcessing
	}
	defer o.release(documentID)

	doc, err := o.documents.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if !doc.Status.Terminal() {
		return fmt.Errorf("%w: %s", ErrNotTerminal, doc.Status)
	}

	if err := o.chunks.DeleteChunksByDocument(ctx, doc.Id); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}
	if err := o.records.DeleteCoreRecord(ctx, doc.Id); err != nil {
		return fmt.Errorf("clearing core record: %w", err)
	}
	if err := o.records.DeleteCategoryRecords(ctx, doc.Id); err != nil {
		return fmt.Errorf("clearing category records: %w", err)
	}

	if err := o.documents.UpdateDocumentStatus(ctx, doc.Id, core.StatusPending, ""); err != nil {
		return err
	}
	o.events.PublishEvent(ctx, newEvent(EventReprocessQueued, doc.Id, nil))

	o.logger.Info("document queued for reprocessing", "document", doc.Id)
	return nil
}

// run executes the stage sequence. Any returned error is fatal for the
// document; degradable conditions are absorbed stage-locally.
func (o *Orchestrator) run(ctx context.Context, doc *core.Document) (*ProcessingOutcome, error) {
	pages, err := o.extractText(ctx, doc)
	if err != nil {
		return nil, err
	}

	// Stage: chunk
	chunkList := o.chunker.Chunk(doc.Id, pages)
	if len(chunkList) == 0 {
		return nil, fmt.Errorf("%w: no text extracted", core.ErrInputQuality)
	}
	chunkPtrs := make([]*core.Chunk, len(chunkList))
	for i := range chunkList {
		chunkPtrs[i] = &chunkList[i]
	}
	o.events.PublishEvent(ctx, newEvent(EventChunked, doc.Id, map[string]any{
		"chunks": len(chunkPtrs),
	}))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage: embed
	if _, err := o.embedder.EmbedChunks(ctx, chunkPtrs); err != nil {
		return nil, fmt.Errorf("embedding chunks: %w", err)
	}
	if _, err := o.chunks.AddChunks(ctx, chunkPtrs...); err != nil {
		return nil, fmt.Errorf("storing chunks: %w", err)
	}
	o.events.PublishEvent(ctx, newEvent(EventEmbedded, doc.Id, map[string]any{
		"chunks": len(chunkPtrs),
	}))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage: classify. Never fatal; total failure degrades inside the
	// classifier to the default low-confidence result.
	classification := o.classifier.Classify(ctx, pages, doc.FileName)
	o.events.PublishEvent(ctx, newEvent(EventClassified, doc.Id, map[string]any{
		"document_type": classification.DocumentType,
		"categories":    classification.CoveragesDetected,
		"confidence":    classification.Confidence,
	}))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage: core extraction, scoped to declarations text.
	coreRecord, err := o.extractCore(ctx, doc, chunkPtrs, classification.DocumentType)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage: category extraction, bounded fan-out, per-category failure.
	categoryRecords, failures := o.extractCategories(ctx, doc, chunkPtrs, classification.CoveragesDetected)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o.events.PublishEvent(ctx, newEvent(EventExtracted, doc.Id, map[string]any{
		"categories": len(categoryRecords),
		"failures":   len(failures),
	}))

	if len(categoryRecords) > 0 {
		if _, err := o.records.AddCategoryRecords(ctx, categoryRecords...); err != nil {
			return nil, fmt.Errorf("storing category records: %w", err)
		}
	}

	// Stage: validate and aggregate confidence. Failed categories count
	// as zero confidence so partial extraction pulls the total down.
	validation := core.ValidateExtraction(coreRecord, categoryRecords)

	coreConfidence := 0.0
	if coreRecord != nil {
		coreConfidence = coreRecord.Confidence
	}
	categoryConfidences := make([]float64, 0, len(classification.CoveragesDetected))
	for _, record := range categoryRecords {
		categoryConfidences = append(categoryConfidences, record.Confidence)
	}
	for range failures {
		categoryConfidences = append(categoryConfidences, 0)
	}
	overall := core.AggregateConfidence(classification.Confidence, coreConfidence, categoryConfidences)

	status := core.StatusCompleted
	if overall < core.ReviewThreshold || !validation.IsValid || core.RequiredFieldsMissing(coreRecord) {
		status = core.StatusNeedsReview
	}
	validation.AdjustedConfidence = overall

	categories := make([]string, 0, len(categoryRecords))
	for _, record := range categoryRecords {
		categories = append(categories, record.CategoryId)
	}

	return &ProcessingOutcome{
		DocumentId:       doc.Id,
		Status:           status,
		Confidence:       overall,
		Validation:       validation,
		Categories:       categories,
		CategoryFailures: failures,
		ChunkCount:       len(chunkPtrs),
	}, nil
}

// extractText reads the document bytes and runs the upstream text
// extraction collaborator.
func (o *Orchestrator) extractText(ctx context.Context, doc *core.Document) (core.PageText, error) {
	reader, err := o.blobs.ReadDocumentBytes(ctx, doc.Id)
	if err != nil {
		return nil, fmt.Errorf("reading document bytes: %w", err)
	}
	defer reader.Close()

	pages, err := o.texts.ExtractPageText(ctx, reader)
	if err != nil {
		return nil, fmt.Errorf("extracting page text: %w", err)
	}
	return pages, nil
}

// extractCore runs the core extractor over declarations-tagged chunks,
// falling back to the document's leading text when no declarations
// section was detected. A malformed response degrades to a minimal
// record so validation can flag the document for review; a transient
// failure that exhausted retries is fatal.
func (o *Orchestrator) extractCore(ctx context.Context, doc *core.Document, chunks []*core.Chunk, documentType string) (*core.CoreRecord, error) {
	text := sectionText(chunks, core.SectionDeclarations, maxSectionChars)

	record, err := o.coreExtractor.Extract(ctx, text, documentType)
	if err != nil {
		if core.IsTransient(err) || ctx.Err() != nil {
			return nil, fmt.Errorf("core extraction: %w", err)
		}
		o.logger.Warn("core extraction degraded", "document", doc.Id, "err", err)
		record = core.CoreRecord{Confidence: 0}
	}

	record.DocumentId = doc.Id
	saved, err := o.records.SaveCoreRecord(ctx, &record)
	if err != nil {
		return nil, fmt.Errorf("storing core record: %w", err)
	}
	return saved, nil
}

// extractCategories fans out one extraction call per detected category,
// bounded by the fan-out limit. Failures are recorded per category and
// never abort the document.
func (o *Orchestrator) extractCategories(ctx context.Context, doc *core.Document, chunks []*core.Chunk, categoryIDs []string) ([]*core.CategoryRecord, map[string]string) {
	var (
		mu       sync.Mutex
		records  []*core.CategoryRecord
		failures = make(map[string]string)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.categoryFanout)

	for _, categoryID := range categoryIDs {
		g.Go(func() error {
			strategy := o.registry.GetStrategy(categoryID)
			text := categoryText(chunks, categoryID, maxSectionChars)

			record, err := strategy.Extract(gctx, categoryID, text)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				o.logger.Warn("category extraction failed",
					"document", doc.Id,
					"category", categoryID,
					"err", err)
				failures[categoryID] = err.Error()
				return nil
			}
			record.DocumentId = doc.Id
			records = append(records, &record)
			return nil
		})
	}
	g.Wait()

	return records, failures
}

// acquire reserves the single processing slot for a document.
func (o *Orchestrator) acquire(documentID core.ID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, running := o.inflight[documentID]; running {
		return false
	}
	o.inflight[documentID] = struct{}{}
	return true
}

func (o *Orchestrator) release(documentID core.ID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inflight, documentID)
}

// sectionText joins the text of chunks tagged with sectionType, capped
// at maxChars. When no chunk carries the tag, the document's leading
// chunks are used instead.
func sectionText(chunks []*core.Chunk, sectionType string, maxChars int) string {
	var parts []string
	total := 0
	for _, chunk := range chunks {
		if chunk.SectionType != sectionType {
			continue
		}
		if total+len(chunk.Text) > maxChars {
			break
		}
		parts = append(parts, chunk.Text)
		total += len(chunk.Text)
	}
	if len(parts) > 0 {
		return strings.Join(parts, "\n\n")
	}

	// No tagged section; fall back to leading text.
	for _, chunk := range chunks {
		if total+len(chunk.Text) > maxChars {
			break
		}
		parts = append(parts, chunk.Text)
		total += len(chunk.Text)
	}
	return strings.Join(parts, "\n\n")
}

// categoryText selects the text for one category's extraction call:
// declarations plus coverage-form and endorsement chunks, falling back
// to leading text when none are tagged.
func categoryText(chunks []*core.Chunk, categoryID string, maxChars int) string {
	relevant := map[string]bool{
		core.SectionDeclarations: true,
		core.SectionCoverageForm: true,
		core.SectionEndorsement:  true,
		core.SectionSchedule:     true,
	}

	var parts []string
	total := 0
	for _, chunk := range chunks {
		if !relevant[chunk.SectionType] {
			continue
		}
		if total+len(chunk.Text) > maxChars {
			break
		}
		parts = append(parts, chunk.Text)
		total += len(chunk.Text)
	}
	if len(parts) > 0 {
		return strings.Join(parts, "\n\n")
	}
	return sectionText(chunks, core.SectionDeclarations, maxChars)
}

// failureReason produces the short user-facing reason stored with a
// failed document. Raw provider errors are never surfaced verbatim.
func failureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case core.IsTransient(err):
		return "the document service was unavailable after several attempts"
	case isInputQuality(err):
		return "the document could not be read; it may be a scanned image"
	case isCancellation(err):
		return "processing was cancelled"
	default:
		return "an internal error interrupted processing"
	}
}

func isInputQuality(err error) bool {
	return errors.Is(err, core.ErrInputQuality)
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
