package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing so identical content
// always produces identical IDs, which keeps reprocessing idempotent.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// DocumentStatus tracks a document through the processing state machine.
type DocumentStatus int

const (
	// StatusPending means the document is queued and has not been picked up.
	StatusPending DocumentStatus = iota + 1
	// StatusProcessing means a worker is running the pipeline for the document.
	StatusProcessing
	// StatusCompleted means all stages succeeded and validation passed.
	StatusCompleted
	// StatusNeedsReview means extraction produced a usable result but
	// validation or confidence thresholds were not met.
	StatusNeedsReview
	// StatusFailed means a non-recoverable error aborted the run.
	StatusFailed
)

// String returns the lowercase status label used in events and CLI output.
func (s DocumentStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusProcessing:
		return "processing"
	case StatusCompleted:
		return "completed"
	case StatusNeedsReview:
		return "needs_review"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status allows a reprocessing request.
func (s DocumentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusNeedsReview || s == StatusFailed
}

// PageText maps a 1-based page number to the raw text extracted from that page.
// It is produced by the upstream text-extraction collaborator.
type PageText map[int]string

// Document is the unit of work for the pipeline. Derived rows (chunks, core
// record, category records) reference the document by ID.
type Document struct {
	Id            ID
	FileName      string
	Status        DocumentStatus
	FailureReason string // Short human-readable reason, set only on StatusFailed
	InsertedAt    time.Time
	UpdatedAt     time.Time
}

// Section type labels recognized by the chunker header heuristic and the
// classifier. Free-form values are allowed; these are the common ones.
const (
	SectionDeclarations = "declarations"
	SectionEndorsement  = "endorsement"
	SectionSchedule     = "schedule"
	SectionConditions   = "conditions"
	SectionExclusions   = "exclusions"
	SectionDefinitions  = "definitions"
	SectionCoverageForm = "coverage_form"
)

// Chunk is a bounded slice of document text used as the retrieval unit.
// Chunks are ordered and immutable once created; Index is monotonic within
// a document. Invariant: PageStart <= PageEnd and TokenCount <= the
// chunker's max token budget.
type Chunk struct {
	Id          ID
	DocumentId  ID
	Index       int
	Text        string
	PageStart   int
	PageEnd     int
	SectionType string // Empty when no header heuristic matched
	TokenCount  int    // Estimated, ceil(len(text)/4)
	Vector      []float32
	InsertedAt  time.Time
}

// Section is a page range identified by the classifier.
type Section struct {
	SectionType string
	StartPage   int
	EndPage     int
	FormNumbers []string
}

// ClassificationResult is the outcome of the single classification call.
type ClassificationResult struct {
	DocumentType      string
	Sections          []Section
	CoveragesDetected []string // Category IDs, see KnownCategories
	Confidence        float64
}

// CoreRecord holds the top-level fields extracted from the declarations
// section. Missing fields are nil, never an extraction error.
type CoreRecord struct {
	Id             ID
	DocumentId     ID
	PolicyNumber   string
	EffectiveDate  *time.Time
	ExpirationDate *time.Time
	InsuredName    string
	InsuredAddress string
	CarrierName    string
	ProducerName   string
	TotalPremium   *float64
	TotalTaxesFees *float64
	PolicyStatus   string // e.g. "new", "renewal", "endorsement-modified"
	Confidence     float64
	RawResponse    string // Raw LLM output retained for audit
	InsertedAt     time.Time
}

// CommonFields is the subset of category attributes promoted to queryable
// columns by the persistence layer. Everything else goes to Details.
type CommonFields struct {
	EachOccurrenceLimit *float64
	AggregateLimit      *float64
	Deductible          *float64
	DeductiblePercent   *float64
	Premium             *float64
	ClaimsMade          bool
	RetroactiveDate     *time.Time
}

// CategoryRecord is a typed sub-record for one detected coverage category.
type CategoryRecord struct {
	Id          ID
	DocumentId  ID
	CategoryId  string
	Subtype     string
	Common      CommonFields
	Details     map[string]any // Open map: category-specific attributes vary widely
	Confidence  float64
	RawResponse string
	InsertedAt  time.Time
}

// ValidationOutcome is the result of the deterministic cross-field checks.
type ValidationOutcome struct {
	IsValid            bool
	Errors             []string
	Warnings           []string
	AdjustedConfidence float64
}

// SearchHit is one retrieved chunk with its owning record and score.
// Score = 1 - cosine distance, higher is more similar.
type SearchHit struct {
	ChunkId   ID
	RecordId  ID
	Text      string
	PageStart int
	PageEnd   int
	Score     float32
}
