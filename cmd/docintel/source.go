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


package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/coverscope/docintel/core"
)

// fileBlobStore serves the single document named on the command line.
type fileBlobStore struct {
	path string
}

func newFileBlobStore(path string) *fileBlobStore {
	return &fileBlobStore{path: path}
}

func (s *fileBlobStore) ReadDocumentBytes(ctx context.Context, documentID core.ID) (io.ReadCloser, error) {
	return os.Open(s.path)
}

// plainTextExtractor reads pre-extracted document text. Pages are
// delimited by form feed characters, the convention used by pdftotext
// and similar tools.
type plainTextExtractor struct{}

func newPlainTextExtractor() *plainTextExtractor {
	return &plainTextExtractor{}
}

func (e *plainTextExtractor) ExtractPageText(ctx context.Context, r io.Reader) (core.PageText, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading document text: %w", err)
	}

	pages := make(core.PageText)
	for i, pageText := range strings.Split(string(raw), "\f") {
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		pages[i+1] = pageText
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: document contains no extractable text", core.ErrInputQuality)
	}
	return pages, nil
}
