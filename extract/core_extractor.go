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

const coreSystemPrompt = `You are an insurance document analyst. You extract structured data from policy declarations text. You respond with a single JSON object and nothing else. Use null for any field not present in the text. Dates must be formatted YYYY-MM-DD. Monetary amounts must be plain numbers without currency symbols or commas.`

const coreResponseSchema = `{
  "policy_number": "string or null",
  "effective_date": "YYYY-MM-DD or null",
  "expiration_date": "YYYY-MM-DD or null",
  "insured_name": "string or null",
  "insured_address": "string or null",
  "carrier_name": "string or null",
  "producer_name": "string or null",
  "total_premium": "number or null",
  "total_taxes_fees": "number or null",
  "policy_status": "one of: new, renewal, endorsement-modified, cancelled, or null",
  "confidence": "number between 0 and 1"
}`

// CoreExtractor pulls the top-level identification, date, party, and
// financial fields from declarations text with a single completion call.
type CoreExtractor struct {
	completer ai.Completer
	logger    *slog.Logger
}

// NewCoreExtractor creates a core-record extractor.
func NewCoreExtractor(completer ai.Completer) *CoreExtractor {
	return &CoreExtractor{
		completer: completer,
		logger:    slog.Default().With("component", "core_extractor"),
	}
}

type coreWire struct {
	PolicyNumber   any     `json:"policy_number"`
	EffectiveDate  any     `json:"effective_date"`
	ExpirationDate any     `json:"expiration_date"`
	InsuredName    any     `json:"insured_name"`
	InsuredAddress any     `json:"insured_address"`
	CarrierName    any     `json:"carrier_name"`
	ProducerName   any     `json:"producer_name"`
	TotalPremium   any     `json:"total_premium"`
	TotalTaxesFees any     `json:"total_taxes_fees"`
	PolicyStatus   any     `json:"policy_status"`
	Confidence     float64 `json:"confidence"`
}

// Extract runs the core extraction against declarations text. Missing
// fields become nil, never an error; only a failed completion call or a
// response with no JSON object at all is an error.
func (e *CoreExtractor) Extract(ctx context.Context, declarationsText, documentType string) (core.CoreRecord, error) {
	userContent := fmt.Sprintf(
		"Document type: %s\n\nExtract the core policy fields from the following declarations text. Respond with JSON matching this schema:\n%s\n\nDeclarations text:\n%s",
		documentType, coreResponseSchema, declarationsText)

	raw, err := e.completer.Complete(ctx, coreSystemPrompt, userContent)
	if err != nil {
		return core.CoreRecord{}, fmt.Errorf("core extraction call: %w", err)
	}

	obj, err := ai.ExtractJSONObject(raw)
	if err != nil {
		return core.CoreRecord{}, core.Malformed(fmt.Errorf("core extraction response: %w", err))
	}

	var wire coreWire
	if err := json.Unmarshal([]byte(obj), &wire); err != nil {
		return core.CoreRecord{}, core.Malformed(fmt.Errorf("core extraction response: %w", err))
	}

	record := core.CoreRecord{
		PolicyNumber:   parseString(wire.PolicyNumber),
		EffectiveDate:  ParseDate(parseString(wire.EffectiveDate)),
		ExpirationDate: ParseDate(parseString(wire.ExpirationDate)),
		InsuredName:    parseString(wire.InsuredName),
		InsuredAddress: parseString(wire.InsuredAddress),
		CarrierName:    parseString(wire.CarrierName),
		ProducerName:   parseString(wire.ProducerName),
		TotalPremium:   parseAmount(wire.TotalPremium),
		TotalTaxesFees: parseAmount(wire.TotalTaxesFees),
		PolicyStatus:   parseString(wire.PolicyStatus),
		Confidence:     clamp01(wire.Confidence),
		RawResponse:    raw,
	}

	e.logger.Debug("extracted core record",
		"policy_number", record.PolicyNumber,
		"confidence", record.Confidence)

	return record, nil
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
