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


package core

import (
	"errors"
	"fmt"
)

// Error taxonomy for the pipeline. Stage code classifies provider and input
// failures with these sentinels so the orchestrator can decide between
// retry, degrade, and abort without inspecting provider-specific errors.
var (
	// ErrTransientProvider marks rate-limit, 5xx, and timeout conditions.
	// Wrapped calls are retried with backoff before escalating.
	ErrTransientProvider = errors.New("transient provider error")

	// ErrMalformedResponse marks unparsable JSON from a completion call.
	// Classification degrades to a default result; core and category
	// extraction record it as a stage failure.
	ErrMalformedResponse = errors.New("malformed completion response")

	// ErrInputQuality marks an unreadable or scanned document.
	// Fatal: the document transitions to failed with a user-facing reason.
	ErrInputQuality = errors.New("document text quality too low")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyText indicates a text field that must not be empty.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrInvalidPageRange indicates PageStart > PageEnd.
	ErrInvalidPageRange = errors.New("page start cannot exceed page end")
)

// Transient wraps err as a retryable provider error.
func Transient(err error) error {
	return fmt.Errorf("%w: %w", ErrTransientProvider, err)
}

// IsTransient reports whether err is marked retryable.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransientProvider)
}

// Malformed wraps err as an unparsable-response error.
func Malformed(err error) error {
	return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
}
