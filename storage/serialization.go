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


package storage

import (
	"fmt"

	"github.com/coverscope/docintel/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: id: %w", ErrSerializationFailed, err)
	}
	return id, nil
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	buf := make([]byte, core.DocumentMUS.Size(*doc))
	core.DocumentMUS.Marshal(*doc, buf)
	return buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	doc, _, err := core.DocumentMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: document: %w", ErrSerializationFailed, err)
	}
	return &doc, nil
}

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) []byte {
	buf := make([]byte, core.ChunkMUS.Size(*chunk))
	core.ChunkMUS.Marshal(*chunk, buf)
	return buf
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	chunk, _, err := core.ChunkMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: chunk: %w", ErrSerializationFailed, err)
	}
	return &chunk, nil
}

// MarshalCoreRecord serializes a CoreRecord to bytes.
func MarshalCoreRecord(record *core.CoreRecord) []byte {
	buf := make([]byte, core.CoreRecordMUS.Size(*record))
	core.CoreRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalCoreRecord deserializes a CoreRecord from bytes.
func UnmarshalCoreRecord(data []byte) (*core.CoreRecord, error) {
	record, _, err := core.CoreRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: core record: %w", ErrSerializationFailed, err)
	}
	return &record, nil
}

// MarshalCategoryRecord serializes a CategoryRecord to bytes.
func MarshalCategoryRecord(record *core.CategoryRecord) []byte {
	buf := make([]byte, core.CategoryRecordMUS.Size(*record))
	core.CategoryRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalCategoryRecord deserializes a CategoryRecord from bytes.
func UnmarshalCategoryRecord(data []byte) (*core.CategoryRecord, error) {
	record, _, err := core.CategoryRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: category record: %w", ErrSerializationFailed, err)
	}
	return &record, nil
}
