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


// Package classify labels a document with its type, detected coverage
// categories, and page-range sections using a single LLM call.
//
// Classification failure is never fatal to the pipeline: an empty or
// unparsable response degrades to a default low-confidence result, which
// only weakens category selection downstream.
package classify

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/coverscope/docintel/ai"
	"github.com/coverscope/docintel/core"
)

// Defaults for the classification excerpt cap.
const (
	DefaultMaxPages = 5
	DefaultMaxChars = 16000
)

// Classifier labels documents via a single completion call.
type Classifier struct {
	completer ai.Completer
	maxPages  int
	maxChars  int
	logger    *slog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithMaxPages caps the number of leading pages sent to the model.
func WithMaxPages(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// WithMaxChars caps the total excerpt size in characters.
func WithMaxChars(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.maxChars = n
		}
	}
}

// NewClassifier creates a classifier backed by the given completer.
func NewClassifier(completer ai.Completer, opts ...Option) *Classifier {
	c := &Classifier{
		completer: completer,
		maxPages:  DefaultMaxPages,
		maxChars:  DefaultMaxChars,
		logger:    slog.Default().With("component", "classifier"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// wire types matching the JSON schema in the prompt.
type wireSection struct {
	SectionType string   `json:"section_type"`
	StartPage   int      `json:"start_page"`
	EndPage     int      `json:"end_page"`
	FormNumbers []string `json:"form_numbers"`
}

type wireClassification struct {
	DocumentType      string        `json:"document_type"`
	Sections          []wireSection `json:"sections"`
	CoveragesDetected []string      `json:"coverages_detected"`
	Confidence        float64       `json:"confidence"`
}

// Classify sends the leading page excerpt to the model and tolerant-parses
// the response. On total failure it returns the default low-confidence
// result rather than an error.
func (c *Classifier) Classify(ctx context.Context, pages core.PageText, fileName string) core.ClassificationResult {
	pageNums := leadingPages(pages, c.maxPages)
	if len(pageNums) == 0 {
		c.logger.Warn("no page text to classify", "file", fileName)
		return DefaultResult()
	}

	raw, err := c.completer.Complete(ctx, buildSystemPrompt(),
		buildUserContent(pages, pageNums, fileName, c.maxChars))
	if err != nil {
		c.logger.Error("classification call failed", "file", fileName, "err", err)
		return DefaultResult()
	}

	result, err := parseResponse(raw)
	if err != nil {
		c.logger.Warn("unparsable classification response",
			"file", fileName,
			"response", truncate(raw, 200),
			"err", err)
		return DefaultResult()
	}

	c.logger.Debug("classified document",
		"file", fileName,
		"type", result.DocumentType,
		"coverages", len(result.CoveragesDetected),
		"confidence", result.Confidence)

	return result
}

// DefaultResult is the degraded outcome used when classification fails:
// assume a policy, detect nothing, confidence zero.
func DefaultResult() core.ClassificationResult {
	return core.ClassificationResult{
		DocumentType:      core.DefaultDocumentType,
		Sections:          []core.Section{},
		CoveragesDetected: []string{},
		Confidence:        0,
	}
}

// parseResponse extracts and deserializes the JSON object in raw.
func parseResponse(raw string) (core.ClassificationResult, error) {
	obj, err := ai.ExtractJSONObject(raw)
	if err != nil {
		return core.ClassificationResult{}, core.Malformed(err)
	}

	var wire wireClassification
	if err := json.Unmarshal([]byte(obj), &wire); err != nil {
		return core.ClassificationResult{}, core.Malformed(err)
	}

	result := core.ClassificationResult{
		DocumentType:      normalizeLabel(wire.DocumentType),
		Sections:          make([]core.Section, 0, len(wire.Sections)),
		CoveragesDetected: make([]string, 0, len(wire.CoveragesDetected)),
		Confidence:        clamp01(wire.Confidence),
	}
	if result.DocumentType == "" || !slices.Contains(core.DocumentTypes, result.DocumentType) {
		result.DocumentType = core.DefaultDocumentType
	}

	for _, s := range wire.Sections {
		if s.StartPage < 1 || s.EndPage < s.StartPage {
			continue
		}
		result.Sections = append(result.Sections, core.Section{
			SectionType: normalizeLabel(s.SectionType),
			StartPage:   s.StartPage,
			EndPage:     s.EndPage,
			FormNumbers: s.FormNumbers,
		})
	}

	seen := map[string]bool{}
	for _, cov := range wire.CoveragesDetected {
		cov = normalizeLabel(cov)
		if cov == "" || seen[cov] {
			continue
		}
		seen[cov] = true
		result.CoveragesDetected = append(result.CoveragesDetected, cov)
	}

	return result, nil
}

// leadingPages returns up to max page numbers in ascending order.
func leadingPages(pages core.PageText, max int) []int {
	nums := make([]int, 0, len(pages))
	for n := range pages {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	if len(nums) > max {
		nums = nums[:max]
	}
	return nums
}

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, " ", "_")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
