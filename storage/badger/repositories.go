package badger

import "github.com/coverscope/docintel/storage"

// Repositories bundles the three repositories sharing one backend.
type Repositories struct {
	Documents storage.DocumentRepository
	Chunks    storage.ChunkRepository
	Records   storage.RecordRepository

	backend *Backend
}

// Close closes the shared backend.
func (r *Repositories) Close() error {
	return r.backend.Close()
}

// NewRepositories opens a BadgerDB database at path and wires the three
// repositories over it.
func NewRepositories(path string) (*Repositories, error) {
	return newRepositories(path, false)
}

func newRepositories(path string, inMemory bool) (*Repositories, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Documents: NewDocumentRepository(backend),
		Chunks:    NewChunkRepository(backend),
		Records:   NewRecordRepository(backend),
		backend:   backend,
	}, nil
}
