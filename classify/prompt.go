package classify

import (
	"fmt"
	"strings"

	"github.com/coverscope/docintel/core"
)

const classificationResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "document_type": {
      "type": "string"
    },
    "sections": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "section_type": {"type": "string"},
          "start_page": {"type": "integer", "minimum": 1},
          "end_page": {"type": "integer", "minimum": 1},
          "form_numbers": {"type": "array", "items": {"type": "string"}}
        },
        "required": ["section_type", "start_page", "end_page"],
        "additionalProperties": false
      }
    },
    "coverages_detected": {
      "type": "array",
      "items": {"type": "string"}
    },
    "confidence": {
      "type": "number",
      "minimum": 0,
      "maximum": 1
    }
  },
  "required": ["document_type", "sections", "coverages_detected", "confidence"],
  "additionalProperties": false
}`

const classificationPromptTemplate = `You classify commercial insurance documents. Given the leading pages of a
document, identify the document type, the page ranges of its major sections,
and every line of coverage present.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble,
explanation, greeting, or acknowledgment. Start your response directly with the opening brace {
and end with the closing brace }. Your output must exactly follow this schema:

%s

Rules:
- document_type must be exactly one of: %s.
- section_type should use lowercase labels such as declarations, endorsement,
  schedule, conditions, exclusions, definitions, coverage_form.
- Page markers in the input look like "--- Page N ---"; use them for start_page/end_page.
- form_numbers are edition-stamped form identifiers such as "CG 00 01 04 13" when visible.
- coverages_detected values must come from this list: %s.
  Include a coverage only when the document clearly grants or prices it; do not guess.
- confidence is your overall certainty in this classification, from 0 to 1.
- The JSON must parse without errors; no trailing commas, no extra keys, and no
  extraneous text outside the object.`

// buildSystemPrompt creates the system prompt with the document type and
// category vocabularies embedded.
func buildSystemPrompt() string {
	return fmt.Sprintf(classificationPromptTemplate,
		classificationResponseSchema,
		strings.Join(core.DocumentTypes, ", "),
		strings.Join(core.KnownCategories, ", "))
}

// buildUserContent assembles the capped page excerpt with structural hints.
func buildUserContent(pages core.PageText, pageNums []int, fileName string, maxChars int) string {
	var sb strings.Builder
	if fileName != "" {
		fmt.Fprintf(&sb, "File name: %s\n\n", fileName)
	}

	for _, n := range pageNums {
		remaining := maxChars - sb.Len()
		if remaining <= 0 {
			break
		}
		text := pages[n]
		if len(text) > remaining {
			text = text[:remaining]
		}
		fmt.Fprintf(&sb, "--- Page %d ---\n%s\n\n", n, text)
	}
	return sb.String()
}
