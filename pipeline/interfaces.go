package pipeline

import (
	"context"
	"io"

	"github.com/coverscope/docintel/core"
)

// BlobStore reads the raw bytes of an uploaded document.
type BlobStore interface {
	// ReadDocumentBytes opens the stored bytes for a document.
	// The caller must close the returned reader.
	ReadDocumentBytes(ctx context.Context, documentID core.ID) (io.ReadCloser, error)
}

// TextExtractor turns raw document bytes into per-page text. An
// implementation may fail with core.ErrInputQuality for scanned or
// unreadable documents, which the orchestrator treats as fatal.
type TextExtractor interface {
	ExtractPageText(ctx context.Context, r io.Reader) (core.PageText, error)
}

// EventPublisher receives status and progress events. Implementations
// must not block; delivery guarantees are the publisher's concern.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event Event)
}
