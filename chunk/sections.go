package chunk

import (
	"strings"
	"unicode"

	"github.com/coverscope/docintel/core"
)

// maxHeaderLineLen is the longest line the header heuristic will consider.
// Real section headers are short; anything longer is body text that happens
// to mention a keyword.
const maxHeaderLineLen = 80

// sectionKeywords maps header keywords to section type labels, checked in
// order so the more specific phrases win.
var sectionKeywords = []struct {
	keyword string
	section string
}{
	{"declarations", core.SectionDeclarations},
	{"declaration page", core.SectionDeclarations},
	{"endorsement", core.SectionEndorsement},
	{"schedule", core.SectionSchedule},
	{"conditions", core.SectionConditions},
	{"exclusions", core.SectionExclusions},
	{"definitions", core.SectionDefinitions},
	{"coverage form", core.SectionCoverageForm},
	{"coverage part", core.SectionCoverageForm},
	{"coverages", core.SectionCoverageForm},
	{"coverage", core.SectionCoverageForm},
}

// detectSectionHeader returns the section type for a paragraph whose first
// line looks like a section header, or "" when the heuristic does not match.
func detectSectionHeader(paragraph string) string {
	line := firstLine(paragraph)
	if line == "" || len(line) > maxHeaderLineLen {
		return ""
	}

	lower := strings.ToLower(line)
	for _, kw := range sectionKeywords {
		if strings.Contains(lower, kw.keyword) {
			return kw.section
		}
	}
	return ""
}

// isShortCapsLine reports whether the paragraph is a single short line in
// all capitals, which the chunker treats as a good split point even when
// no section keyword matches.
func isShortCapsLine(paragraph string) bool {
	line := firstLine(paragraph)
	if line == "" || len(line) > 60 || strings.ContainsRune(paragraph, '\n') {
		return false
	}

	hasLetter := false
	for _, r := range line {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
