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


// Package search provides embedding generation and semantic retrieval
// over document chunks.
//
// The BatchEmbedder sends chunk texts to the embedding collaborator in
// independent capped batches, so one failed batch never discards vectors
// that already succeeded. The Retriever answers queries in two modes:
// a global top-K ranking when one record is active, and balanced mode
// when several are, where every active record gets its own fixed-K
// search so a semantically dominant record cannot starve the others.
package search
