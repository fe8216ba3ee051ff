package storage

import (
	"context"

	"github.com/coverscope/docintel/core"
)

// Repository provides common operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository provides operations for documents and their
// processing status.
type DocumentRepository interface {
	Repository

	// AddDocument stores a document. For documents with ID=0, derives a
	// content-based ID from the file name. Sets InsertedAt/UpdatedAt if
	// not already set. Returns the document with ID populated.
	AddDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// GetDocument retrieves a document by ID.
	// Returns ErrNotFound if it doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// UpdateDocumentStatus transitions a document's processing status and
	// refreshes UpdatedAt. The failure reason is stored only alongside
	// StatusFailed and cleared otherwise.
	// Returns ErrNotFound if the document doesn't exist.
	UpdateDocumentStatus(ctx context.Context, id core.ID, status core.DocumentStatus, failureReason string) error

	// ListDocumentsByStatus retrieves all documents in the given status,
	// ordered by insertion time.
	ListDocumentsByStatus(ctx context.Context, status core.DocumentStatus) ([]*core.Document, error)
}

// ChunkRepository provides operations for text chunks and vector search.
type ChunkRepository interface {
	Repository

	// AddChunks stores one or more chunks. Chunk IDs are content-based
	// and must be set by the caller. Sets InsertedAt if not already set.
	AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// GetChunksByDocument retrieves all chunks for a document, ordered
	// by chunk index.
	GetChunksByDocument(ctx context.Context, documentID core.ID) ([]*core.Chunk, error)

	// DeleteChunksByDocument removes every chunk belonging to a document.
	// Deleting for a document with no chunks is not an error.
	DeleteChunksByDocument(ctx context.Context, documentID core.ID) error

	// FindSimilar ranks a document's chunks by cosine similarity to the
	// given vector and returns up to limit hits, highest score first.
	// Hits are tagged with the owning document as RecordId.
	FindSimilar(ctx context.Context, vector []float32, documentID core.ID, limit int) ([]*core.SearchHit, error)
}

// RecordRepository provides operations for extracted core records and
// category sub-records.
type RecordRepository interface {
	Repository

	// SaveCoreRecord stores the core record for a document, replacing any
	// prior one. Derives a content-based ID when ID=0.
	SaveCoreRecord(ctx context.Context, record *core.CoreRecord) (*core.CoreRecord, error)

	// GetCoreRecord retrieves a document's core record.
	// Returns ErrNotFound if none exists.
	GetCoreRecord(ctx context.Context, documentID core.ID) (*core.CoreRecord, error)

	// DeleteCoreRecord removes a document's core record if present.
	DeleteCoreRecord(ctx context.Context, documentID core.ID) error

	// AddCategoryRecords stores category sub-records for a document.
	// Derives content-based IDs when ID=0.
	AddCategoryRecords(ctx context.Context, records ...*core.CategoryRecord) ([]*core.CategoryRecord, error)

	// GetCategoryRecords retrieves all category sub-records for a
	// document, ordered by category ID.
	GetCategoryRecords(ctx context.Context, documentID core.ID) ([]*core.CategoryRecord, error)

	// DeleteCategoryRecords removes every category sub-record belonging
	// to a document. Deleting when none exist is not an error.
	DeleteCategoryRecords(ctx context.Context, documentID core.ID) error
}
