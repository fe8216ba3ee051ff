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


// Package storage provides the storage abstraction layer for docintel.
//
// This package defines repository interfaces that decouple storage
// implementation from the pipeline. Public constructors in backend
// packages return these interfaces so consumers never couple to a
// specific engine:
//
//	repos, err := badger.NewRepositories(path)
//
// Three repositories cover the persisted shapes:
//
//   - DocumentRepository: documents and their processing status
//   - ChunkRepository: text chunks with embeddings, plus vector search
//   - RecordRepository: core records and category sub-records
//
// All repository implementations must be thread-safe. All methods accept
// context.Context for cancellation.
package storage
