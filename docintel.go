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


package docintel

import (
	"log/slog"

	"github.com/coverscope/docintel/ai"
	"github.com/coverscope/docintel/ai/openai"
	"github.com/coverscope/docintel/pipeline"
	"github.com/coverscope/docintel/search"
	"github.com/coverscope/docintel/storage"
	"github.com/coverscope/docintel/storage/badger"
)

// Database is the top-level entry point: it owns the storage backend and
// the AI provider, and constructs the pipeline and retriever over them.
type Database struct {
	repos    *badger.Repositories
	provider ai.Provider
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	provider ai.Provider
}

// WithAIConfig sets the provider configuration used when no provider is
// injected.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithProvider injects a pre-built AI provider, bypassing the OpenAI
// client construction. Used by tests and embedders of the library.
func WithProvider(provider ai.Provider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// NewDatabase opens the document store at filePath and wires the AI
// provider.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	repos, err := badger.NewRepositories(filePath)
	if err != nil {
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			repos.Close()
			return nil, err
		}
	}

	return &Database{
		repos:    repos,
		provider: provider,
		logger:   slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}
	if err := db.repos.Close(); err != nil {
		db.logger.Error("error closing storage backend", "err", err)
		return err
	}
	return nil
}

func (db *Database) Documents() storage.DocumentRepository {
	return db.repos.Documents
}

func (db *Database) Chunks() storage.ChunkRepository {
	return db.repos.Chunks
}

func (db *Database) Records() storage.RecordRepository {
	return db.repos.Records
}

// NewOrchestrator builds the processing pipeline over this database. The
// blob store and text extractor are the caller's document source.
func (db *Database) NewOrchestrator(blobs pipeline.BlobStore, texts pipeline.TextExtractor, opts ...pipeline.Option) (*pipeline.Orchestrator, error) {
	return pipeline.NewOrchestrator(
		db.repos.Documents, db.repos.Chunks, db.repos.Records,
		db.provider, blobs, texts, opts...)
}

// NewRetriever builds the semantic retriever over this database.
func (db *Database) NewRetriever(opts ...search.Option) (*search.Retriever, error) {
	embedder, err := search.NewBatchEmbedder(db.provider.Embedder())
	if err != nil {
		return nil, err
	}
	return search.NewRetriever(db.repos.Chunks, embedder, opts...)
}
