package pipeline

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrRecordRepositoryRequired is returned when a record repository is not provided.
	ErrRecordRepositoryRequired = errors.New("record repository required")

	// ErrProviderRequired is returned when an AI provider is not provided.
	ErrProviderRequired = errors.New("AI provider required")

	// ErrBlobStoreRequired is returned when a blob store is not provided.
	ErrBlobStoreRequired = errors.New("blob store required")

	// ErrTextExtractorRequired is returned when a text extractor is not provided.
	ErrTextExtractorRequired = errors.New("text extractor required")

	// ErrAlreadyProcessing indicates a concurrent run for the same document.
	ErrAlreadyProcessing = errors.New("document is already being processed")

	// ErrNotTerminal indicates a reprocessing request for a document that
	// is still pending or processing.
	ErrNotTerminal = errors.New("document is not in a terminal state")
)
