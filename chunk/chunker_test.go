package chunk

import (
	"fmt"
	"strings"
	"testing"

	"github.com/coverscope/docintel/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDocID = core.ID(42)

// policyPage builds a page of n plain paragraphs with predictable content.
func policyPage(page, n int) string {
	paragraphs := make([]string, n)
	for i := 0; i < n; i++ {
		paragraphs[i] = fmt.Sprintf(
			"Paragraph %d on page %d covers premises operations and products liability terms item %d.",
			i, page, i)
	}
	return strings.Join(paragraphs, "\n\n")
}

func allParagraphs(pages core.PageText) []string {
	var out []string
	for p := 1; ; p++ {
		text, ok := pages[p]
		if !ok {
			break
		}
		out = append(out, splitParagraphs(text)...)
	}
	return out
}

func TestChunk_EmptyInput(t *testing.T) {
	c := New(DefaultOptions())

	assert.Empty(t, c.Chunk(testDocID, core.PageText{}))
	assert.Empty(t, c.Chunk(testDocID, core.PageText{1: "", 2: "   \n\n  "}))
}

func TestChunk_SingleSmallChunk(t *testing.T) {
	c := New(DefaultOptions())
	pages := core.PageText{1: "First paragraph.\n\nSecond paragraph."}

	chunks := c.Chunk(testDocID, pages)
	require.Len(t, chunks, 1)
	assert.Equal(t, "First paragraph.\n\nSecond paragraph.", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 1, chunks[0].PageStart)
	assert.Equal(t, 1, chunks[0].PageEnd)
	assert.Equal(t, EstimateTokens(chunks[0].Text), chunks[0].TokenCount)
}

func TestChunk_TokenBudget(t *testing.T) {
	opts := Options{TargetTokens: 50, MaxTokens: 80, OverlapTokens: 10}
	c := New(opts)

	pages := core.PageText{
		1: policyPage(1, 12),
		2: policyPage(2, 12),
		3: policyPage(3, 12),
	}

	chunks := c.Chunk(testDocID, pages)
	require.Greater(t, len(chunks), 1)

	for _, ch := range chunks {
		assert.LessOrEqual(t, ch.TokenCount, opts.MaxTokens,
			"chunk %d exceeds max tokens", ch.Index)
		assert.LessOrEqual(t, ch.PageStart, ch.PageEnd)
		require.NoError(t, core.ValidateChunk(&ch))
	}

	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index, "index must be monotonic")
	}
}

// fillerParagraph builds a paragraph of exactly n characters from short
// words, ending on a letter so line trimming keeps the length.
func fillerParagraph(n int) string {
	var sb strings.Builder
	for sb.Len() < n {
		const word = "premium"
		if room := n - sb.Len(); room < len(word)+1 {
			sb.WriteString(strings.Repeat("x", room))
			break
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(word)
	}
	return sb.String()
}

func TestChunk_TokenBudgetWithMultiParagraphCarry(t *testing.T) {
	// Several small trailing paragraphs fit the overlap budget individually,
	// but once carried they are joined with separators and a large next
	// paragraph. The joined seed must still respect the hard ceiling.
	opts := Options{TargetTokens: 100, MaxTokens: 100, OverlapTokens: 19}
	c := New(opts)

	sizes := []int{200, 24, 24, 28, 320, 26}
	paragraphs := make([]string, len(sizes))
	for i, n := range sizes {
		paragraphs[i] = fillerParagraph(n)
	}
	pages := core.PageText{1: strings.Join(paragraphs, "\n\n")}

	chunks := c.Chunk(testDocID, pages)
	require.Greater(t, len(chunks), 1)

	for _, ch := range chunks {
		assert.LessOrEqual(t, ch.TokenCount, opts.MaxTokens,
			"chunk %d exceeds max tokens (len=%d)", ch.Index, len(ch.Text))
		assert.Equal(t, EstimateTokens(ch.Text), ch.TokenCount)
	}
}

func TestChunk_CoverageWithoutOverlap(t *testing.T) {
	// With overlap disabled, chunks partition the paragraphs exactly, so
	// rejoining them reconstructs the full input with no loss.
	c := New(Options{TargetTokens: 50, MaxTokens: 80, OverlapTokens: 0})

	pages := core.PageText{
		1: policyPage(1, 10),
		2: policyPage(2, 10),
	}

	chunks := c.Chunk(testDocID, pages)
	require.Greater(t, len(chunks), 1)

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	reconstructed := strings.Join(texts, paragraphSep)
	original := strings.Join(allParagraphs(pages), paragraphSep)
	assert.Equal(t, original, reconstructed)
}

// overlapPrefixLen returns the length of the longest prefix of next that is
// a suffix of prev.
func overlapPrefixLen(prev, next string) int {
	max := len(prev)
	if len(next) < max {
		max = len(next)
	}
	for k := max; k > 0; k-- {
		if strings.HasSuffix(prev, next[:k]) {
			return k
		}
	}
	return 0
}

func TestChunk_OverlapInvariant(t *testing.T) {
	c := New(Options{TargetTokens: 50, MaxTokens: 100, OverlapTokens: 25})

	pages := core.PageText{
		1: policyPage(1, 15),
		2: policyPage(2, 15),
	}

	chunks := c.Chunk(testDocID, pages)
	require.Greater(t, len(chunks), 2)

	for i := 1; i < len(chunks); i++ {
		k := overlapPrefixLen(chunks[i-1].Text, chunks[i].Text)
		assert.Greater(t, k, 0,
			"chunk %d must begin with trailing content from chunk %d", i, i-1)
	}
}

func TestChunk_CoverageWithOverlapStripped(t *testing.T) {
	c := New(Options{TargetTokens: 50, MaxTokens: 100, OverlapTokens: 25})

	pages := core.PageText{1: policyPage(1, 20)}

	chunks := c.Chunk(testDocID, pages)
	require.Greater(t, len(chunks), 1)

	// Strip each chunk's carried prefix, then rejoin: the result must
	// reconstruct the original input.
	var sb strings.Builder
	for i, ch := range chunks {
		text := ch.Text
		if i > 0 {
			k := overlapPrefixLen(chunks[i-1].Text, text)
			text = strings.TrimPrefix(text[k:], paragraphSep)
			sb.WriteString(paragraphSep)
		}
		sb.WriteString(text)
	}
	original := strings.Join(allParagraphs(pages), paragraphSep)
	assert.Equal(t, original, sb.String())
}

func TestChunk_SectionTagging(t *testing.T) {
	c := New(Options{TargetTokens: 30, MaxTokens: 60, OverlapTokens: 0})

	pages := core.PageText{
		1: "COMMERCIAL GENERAL LIABILITY DECLARATIONS\n\n" + policyPage(1, 4),
		2: "EXCLUSIONS\n\n" + policyPage(2, 4),
	}

	chunks := c.Chunk(testDocID, pages)
	require.NotEmpty(t, chunks)

	sections := map[string]bool{}
	for _, ch := range chunks {
		sections[ch.SectionType] = true
	}
	assert.True(t, sections[core.SectionDeclarations], "declarations section must be tagged")
	assert.True(t, sections[core.SectionExclusions], "exclusions section must be tagged")

	// The section label sticks until the next header.
	assert.Equal(t, core.SectionDeclarations, chunks[0].SectionType)
}

func TestChunk_OversizedParagraph(t *testing.T) {
	c := New(Options{TargetTokens: 40, MaxTokens: 60, OverlapTokens: 0})

	// One giant paragraph: many sentences, no blank lines.
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&sb, "Sentence number %d describes an insuring agreement term. ", i)
	}

	chunks := c.Chunk(testDocID, core.PageText{1: sb.String()})
	require.Greater(t, len(chunks), 1)
	for _, ch := range chunks {
		assert.LessOrEqual(t, ch.TokenCount, 60)
	}
}

func TestChunk_OversizedSingleSentence(t *testing.T) {
	c := New(Options{TargetTokens: 20, MaxTokens: 30, OverlapTokens: 0})

	// No sentence boundaries at all: must fall back to word splitting.
	words := make([]string, 200)
	for i := range words {
		words[i] = fmt.Sprintf("schedule%d", i)
	}

	chunks := c.Chunk(testDocID, core.PageText{1: strings.Join(words, " ")})
	require.Greater(t, len(chunks), 1)
	for _, ch := range chunks {
		assert.LessOrEqual(t, ch.TokenCount, 30)
	}
}

func TestChunk_Deterministic(t *testing.T) {
	c := New(DefaultOptions())
	pages := core.PageText{1: policyPage(1, 8), 2: policyPage(2, 8)}

	first := c.Chunk(testDocID, pages)
	second := c.Chunk(testDocID, pages)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Id, second[i].Id)
		assert.Equal(t, first[i].Text, second[i].Text)
	}
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abc"))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
	assert.Equal(t, 25, EstimateTokens(strings.Repeat("x", 100)))
}

func TestDetectSectionHeader(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"COMMERCIAL PROPERTY DECLARATIONS", core.SectionDeclarations},
		{"THIS ENDORSEMENT CHANGES THE POLICY", core.SectionEndorsement},
		{"SCHEDULE OF FORMS", core.SectionSchedule},
		{"COMMON POLICY CONDITIONS", core.SectionConditions},
		{"EXCLUSIONS", core.SectionExclusions},
		{"SECTION V - DEFINITIONS", core.SectionDefinitions},
		{"COMMERCIAL GENERAL LIABILITY COVERAGE FORM", core.SectionCoverageForm},
		{"Ordinary body text about the insured premises", ""},
		{strings.Repeat("DECLARATIONS ", 20), ""}, // too long for a header
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, detectSectionHeader(tt.line), "line=%q", tt.line)
	}
}
