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


// Package pipeline orchestrates document processing end to end.
//
// One document moves through a fixed stage sequence: chunk, embed,
// classify, core-extract, per-category extract, validate. The
// orchestrator owns the document's status field and is its single
// authoritative writer: pending -> processing -> one of completed,
// needs_review, or failed. Reprocessing a terminal document deletes its
// derived rows first, so re-running never duplicates state.
//
// Partial failure is first-class. One category extractor failing is
// recorded against that category only; the document still finishes with
// the remaining categories and a lower confidence. Orchestrator-level
// failures (unreadable input, storage errors, retries exhausted) abort
// the run and mark the document failed with a short reason.
package pipeline
