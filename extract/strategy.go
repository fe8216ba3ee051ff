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

package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/coverscope/docintel/ai"
	"github.com/coverscope/docintel/core"
)

// Strategy extracts one category sub-record from section text.
type Strategy interface {
	// Name identifies the strategy in logs and events.
	Name() string
	// Extract runs one completion call for the category. Missing fields
	// degrade to nil/empty; a failed call or an unusable response is an
	// error recorded against this category only.
	Extract(ctx context.Context, categoryID, sectionText string) (core.CategoryRecord, error)
}

// commonFieldKeys are the response keys promoted to queryable columns.
// Everything else the model returns lands in the open Details map.
var commonFieldKeys = map[string]bool{
	"each_occurrence_limit": true,
	"aggregate_limit":       true,
	"deductible":            true,
	"deductible_percent":    true,
	"premium":               true,
	"claims_made":           true,
	"retroactive_date":      true,
}

const categorySystemPrompt = `You are an insurance document analyst. You extract coverage details from policy text. You respond with a single flat JSON object and nothing else. Use null for any field not present in the text. Dates must be formatted YYYY-MM-DD. Monetary amounts must be plain numbers without currency symbols or commas. Always include a "confidence" field between 0 and 1.`

// llmStrategy is the shared completion-backed implementation. Strategies
// differ only in the field guidance embedded in their prompt; parsing and
// common-field promotion are identical across categories.
type llmStrategy struct {
	name      string
	guidance  string
	completer ai.Completer
	logger    *slog.Logger
}

func newLLMStrategy(name, guidance string, completer ai.Completer) *llmStrategy {
	return &llmStrategy{
		name:      name,
		guidance:  guidance,
		completer: completer,
		logger:    slog.Default().With("component", "extractor", "strategy", name),
	}
}

func (s *llmStrategy) Name() string { return s.name }

func (s *llmStrategy) Extract(ctx context.Context, categoryID, sectionText string) (core.CategoryRecord, error) {
	userContent := fmt.Sprintf(
		"Coverage category: %s\n\n%s\n\nPolicy text:\n%s",
		categoryID, s.guidance, sectionText)

	raw, err := s.completer.Complete(ctx, categorySystemPrompt, userContent)
	if err != nil {
		return core.CategoryRecord{}, fmt.Errorf("%s extraction call: %w", categoryID, err)
	}

	record, err := parseCategoryResponse(categoryID, raw)
	if err != nil {
		return core.CategoryRecord{}, err
	}

	s.logger.Debug("extracted category record",
		"category", categoryID,
		"details", len(record.Details),
		"confidence", record.Confidence)

	return record, nil
}

// parseCategoryResponse tolerant-parses a flat JSON object, promoting
// the known common keys and collecting the rest into Details.
func parseCategoryResponse(categoryID, raw string) (core.CategoryRecord, error) {
	obj, err := ai.ExtractJSONObject(raw)
	if err != nil {
		return core.CategoryRecord{}, core.Malformed(fmt.Errorf("%s extraction response: %w", categoryID, err))
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(obj), &fields); err != nil {
		return core.CategoryRecord{}, core.Malformed(fmt.Errorf("%s extraction response: %w", categoryID, err))
	}

	record := core.CategoryRecord{
		CategoryId:  categoryID,
		Details:     make(map[string]any),
		RawResponse: raw,
	}

	for key, value := range fields {
		switch {
		case key == "confidence":
			if f, ok := value.(float64); ok {
				record.Confidence = clamp01(f)
			}
		case key == "subtype":
			record.Subtype = parseString(value)
		case commonFieldKeys[key]:
			promoteCommonField(&record.Common, key, value)
		default:
			if value != nil {
				record.Details[key] = value
			}
		}
	}

	return record, nil
}

func promoteCommonField(common *core.CommonFields, key string, value any) {
	switch key {
	case "each_occurrence_limit":
		common.EachOccurrenceLimit = parseAmount(value)
	case "aggregate_limit":
		common.AggregateLimit = parseAmount(value)
	case "deductible":
		common.Deductible = parseAmount(value)
	case "deductible_percent":
		common.DeductiblePercent = parseAmount(value)
	case "premium":
		common.Premium = parseAmount(value)
	case "claims_made":
		common.ClaimsMade = parseBool(value)
	case "retroactive_date":
		common.RetroactiveDate = ParseDate(parseString(value))
	}
}

// genericStrategy handles categories with no registered mapping. It asks
// for whatever attributes the text offers and populates only Details,
// promoting nothing.
type genericStrategy struct {
	completer ai.Completer
	logger    *slog.Logger
}

func newGenericStrategy(completer ai.Completer) *genericStrategy {
	return &genericStrategy{
		completer: completer,
		logger:    slog.Default().With("component", "extractor", "strategy", "generic"),
	}
}

func (s *genericStrategy) Name() string { return "generic" }

func (s *genericStrategy) Extract(ctx context.Context, categoryID, sectionText string) (core.CategoryRecord, error) {
	userContent := fmt.Sprintf(
		"Coverage category: %s\n\nExtract every coverage attribute you can find for this category: limits, deductibles, premiums, covered property or operations, endorsement numbers. Use descriptive snake_case keys. Include a \"confidence\" field.\n\nPolicy text:\n%s",
		categoryID, sectionText)

	raw, err := s.completer.Complete(ctx, categorySystemPrompt, userContent)
	if err != nil {
		return core.CategoryRecord{}, fmt.Errorf("%s extraction call: %w", categoryID, err)
	}

	obj, err := ai.ExtractJSONObject(raw)
	if err != nil {
		return core.CategoryRecord{}, core.Malformed(fmt.Errorf("%s extraction response: %w", categoryID, err))
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(obj), &fields); err != nil {
		return core.CategoryRecord{}, core.Malformed(fmt.Errorf("%s extraction response: %w", categoryID, err))
	}

	record := core.CategoryRecord{
		CategoryId:  categoryID,
		Details:     make(map[string]any),
		RawResponse: raw,
	}
	for key, value := range fields {
		if key == "confidence" {
			if f, ok := value.(float64); ok {
				record.Confidence = clamp01(f)
			}
			continue
		}
		if value != nil {
			record.Details[key] = value
		}
	}

	s.logger.Debug("extracted generic record", "category", categoryID, "details", len(record.Details))
	return record, nil
}
