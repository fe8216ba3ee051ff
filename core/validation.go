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

import "fmt"

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - PageStart must not exceed PageEnd
//
// NOT validated (populated later in the pipeline):
//   - Vector (empty until the embedding stage runs)
//   - SectionType (empty when no header matched)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}
	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyText)
	}
	if chunk.PageStart > chunk.PageEnd {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrInvalidPageRange)
	}
	return nil
}

// ValidateExtraction runs the deterministic cross-field checks over the
// extracted core record and category records. No external calls.
//
// Hard errors:
//   - expiration date before effective date
//   - negative monetary limit or deductible
//
// Warnings:
//   - per-occurrence limit exceeds aggregate limit (both present)
//   - claims-made category without a retroactive date
func ValidateExtraction(record *CoreRecord, categories []*CategoryRecord) ValidationOutcome {
	outcome := ValidationOutcome{IsValid: true}

	if record != nil {
		if record.EffectiveDate != nil && record.ExpirationDate != nil &&
			record.ExpirationDate.Before(*record.EffectiveDate) {
			outcome.addError(fmt.Sprintf("expiration date %s precedes effective date %s",
				record.ExpirationDate.Format("2006-01-02"), record.EffectiveDate.Format("2006-01-02")))
		}
		if record.TotalPremium != nil && *record.TotalPremium < 0 {
			outcome.addError("total premium is negative")
		}
		if record.TotalTaxesFees != nil && *record.TotalTaxesFees < 0 {
			outcome.addError("total taxes and fees are negative")
		}
	}

	for _, cat := range categories {
		if cat == nil {
			continue
		}
		if cat.Common.EachOccurrenceLimit != nil && *cat.Common.EachOccurrenceLimit < 0 {
			outcome.addError(fmt.Sprintf("%s: each-occurrence limit is negative", cat.CategoryId))
		}
		if cat.Common.AggregateLimit != nil && *cat.Common.AggregateLimit < 0 {
			outcome.addError(fmt.Sprintf("%s: aggregate limit is negative", cat.CategoryId))
		}
		if cat.Common.Deductible != nil && *cat.Common.Deductible < 0 {
			outcome.addError(fmt.Sprintf("%s: deductible is negative", cat.CategoryId))
		}
		if cat.Common.EachOccurrenceLimit != nil && cat.Common.AggregateLimit != nil &&
			*cat.Common.EachOccurrenceLimit > *cat.Common.AggregateLimit {
			outcome.addWarning(fmt.Sprintf("%s: per-occurrence limit exceeds aggregate limit", cat.CategoryId))
		}
		if cat.Common.ClaimsMade && cat.Common.RetroactiveDate == nil {
			outcome.addWarning(fmt.Sprintf("%s: claims-made coverage without a retroactive date", cat.CategoryId))
		}
	}

	return outcome
}

// RequiredFieldsMissing reports whether the core record lacks the minimum
// identification needed to mark a document completed.
func RequiredFieldsMissing(record *CoreRecord) bool {
	if record == nil {
		return true
	}
	return record.PolicyNumber == "" || record.EffectiveDate == nil
}

func (v *ValidationOutcome) addError(msg string) {
	v.Errors = append(v.Errors, msg)
	v.IsValid = false
}

func (v *ValidationOutcome) addWarning(msg string) {
	v.Warnings = append(v.Warnings, msg)
}
