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


package chunk

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/coverscope/docintel/core"
)

// Default token budgets. Tunable, not contracts.
const (
	DefaultTargetTokens  = 700
	DefaultMaxTokens     = 1000
	DefaultOverlapTokens = 150
)

// paragraphSep joins paragraphs inside a chunk and mirrors the blank-line
// boundary they were split on.
const paragraphSep = "\n\n"

// Options holds the chunker token budgets.
type Options struct {
	// TargetTokens is the preferred chunk size. Once the buffer reaches it,
	// the chunker closes the chunk at the next good split point.
	TargetTokens int

	// MaxTokens is the hard ceiling. No emitted chunk exceeds it.
	MaxTokens int

	// OverlapTokens is the amount of trailing context carried into the next
	// chunk to preserve continuity across boundaries for retrieval.
	OverlapTokens int
}

// DefaultOptions returns the default token budgets.
func DefaultOptions() Options {
	return Options{
		TargetTokens:  DefaultTargetTokens,
		MaxTokens:     DefaultMaxTokens,
		OverlapTokens: DefaultOverlapTokens,
	}
}

// Chunker splits page text into token-budgeted, section-aware, overlapping
// segments. It is deterministic and makes no external calls.
type Chunker struct {
	opts   Options
	logger *slog.Logger
}

// New creates a Chunker. Zero or negative option values fall back to
// defaults; an overlap at or above the target is clamped to a quarter of
// the target to keep the algorithm making forward progress.
func New(opts Options) *Chunker {
	if opts.TargetTokens <= 0 {
		opts.TargetTokens = DefaultTargetTokens
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.MaxTokens < opts.TargetTokens {
		opts.MaxTokens = opts.TargetTokens
	}
	if opts.OverlapTokens < 0 || opts.OverlapTokens >= opts.TargetTokens {
		opts.OverlapTokens = opts.TargetTokens / 4
	}
	return &Chunker{
		opts:   opts,
		logger: slog.Default().With("component", "chunker"),
	}
}

// paragraph is the internal accumulation unit.
type paragraph struct {
	text    string
	page    int
	section string // sticky section label active at this paragraph
	header  bool   // first line matched the section header heuristic
}

// goodSplit reports whether closing the current chunk just before this
// paragraph is acceptable once the target budget has been reached.
func (p paragraph) goodSplit() bool {
	return p.header || isShortCapsLine(p.text)
}

// Chunk splits the document's page text into ordered chunks covering the
// entire input with no gaps. Empty input returns an empty slice.
func (c *Chunker) Chunk(documentID core.ID, pages core.PageText) []core.Chunk {
	paragraphs := c.collectParagraphs(pages)
	if len(paragraphs) == 0 {
		return []core.Chunk{}
	}

	var out []core.Chunk
	var buf []paragraph
	bufChars := 0     // length of the joined buffer text
	newContent := false // buffer holds something beyond carried overlap

	appendPar := func(p paragraph) {
		if len(buf) > 0 {
			bufChars += len(paragraphSep)
		}
		bufChars += len(p.text)
		buf = append(buf, p)
	}

	for _, par := range paragraphs {
		joinedChars := bufChars + len(par.text)
		if len(buf) > 0 {
			joinedChars += len(paragraphSep)
		}
		wouldExceed := tokensForChars(joinedChars) > c.opts.MaxTokens
		atTarget := tokensForChars(bufChars) >= c.opts.TargetTokens

		if newContent && (wouldExceed || (atTarget && par.goodSplit())) {
			out = append(out, c.closeChunk(documentID, len(out), buf))

			carry := c.carryOverlap(buf, par)
			buf = buf[:0]
			bufChars = 0
			newContent = false
			for _, cp := range carry {
				appendPar(cp)
			}
		}

		appendPar(par)
		newContent = true
	}

	if newContent && len(buf) > 0 {
		out = append(out, c.closeChunk(documentID, len(out), buf))
	}

	c.logger.Debug("chunked document",
		"document", documentID,
		"pages", len(pages),
		"paragraphs", len(paragraphs),
		"chunks", len(out))

	return out
}

// collectParagraphs flattens pages into tagged paragraphs in page order,
// splitting any paragraph that alone exceeds the max budget.
func (c *Chunker) collectParagraphs(pages core.PageText) []paragraph {
	pageNums := make([]int, 0, len(pages))
	for n := range pages {
		pageNums = append(pageNums, n)
	}
	sort.Ints(pageNums)

	var out []paragraph
	section := ""
	for _, page := range pageNums {
		for _, text := range splitParagraphs(pages[page]) {
			header := false
			if s := detectSectionHeader(text); s != "" {
				section = s
				header = true
			}

			if EstimateTokens(text) <= c.opts.MaxTokens {
				out = append(out, paragraph{text: text, page: page, section: section, header: header})
				continue
			}

			// Oversized paragraph: split on sentence then word boundaries
			// before folding into the buffer-filling algorithm.
			for i, piece := range splitOversized(text, c.opts.MaxTokens) {
				out = append(out, paragraph{
					text:    piece,
					page:    page,
					section: section,
					header:  header && i == 0,
				})
			}
		}
	}
	return out
}

// closeChunk materializes the buffered paragraphs into an immutable chunk.
func (c *Chunker) closeChunk(documentID core.ID, index int, buf []paragraph) core.Chunk {
	texts := make([]string, len(buf))
	pageStart, pageEnd := buf[0].page, buf[0].page
	for i, p := range buf {
		texts[i] = p.text
		if p.page < pageStart {
			pageStart = p.page
		}
		if p.page > pageEnd {
			pageEnd = p.page
		}
	}
	text := strings.Join(texts, paragraphSep)

	return core.Chunk{
		Id:          core.IDFromContent(fmt.Sprintf("%d:%d:%s", documentID, index, text)),
		DocumentId:  documentID,
		Index:       index,
		Text:        text,
		PageStart:   pageStart,
		PageEnd:     pageEnd,
		SectionType: buf[0].section,
		TokenCount:  EstimateTokens(text),
		InsertedAt:  time.Now().UTC(),
	}
}

// carryOverlap selects the trailing slice of the closed buffer to seed the
// next chunk. Budgets are tracked in characters of the carry as it will be
// joined, so the separators between carried paragraphs count toward the
// token estimate, and the carry joined with the upcoming paragraph must
// still fit under MaxTokens; without that cap a large next paragraph could
// turn the seeded buffer into a chunk over the hard ceiling.
func (c *Chunker) carryOverlap(buf []paragraph, next paragraph) []paragraph {
	// tokensForChars(n) <= m exactly when n <= 4*m.
	overlapChars := 4 * c.opts.OverlapTokens
	joinedCap := 4*c.opts.MaxTokens - len(paragraphSep) - len(next.text)
	budget := overlapChars
	if joinedCap < budget {
		budget = joinedCap
	}
	if budget <= 0 {
		return nil
	}

	var carry []paragraph
	chars := 0
	for i := len(buf) - 1; i >= 0; i-- {
		add := len(buf[i].text)
		if chars > 0 {
			add += len(paragraphSep)
		}
		if chars+add > budget {
			break
		}
		carry = append([]paragraph{buf[i]}, carry...)
		chars += add
	}

	// Never carry the whole buffer; the previous chunk would be a strict
	// prefix of the next one.
	if len(carry) == len(buf) {
		carry = carry[1:]
	}

	if len(carry) > 0 {
		return carry
	}

	// No paragraph boundary fits: fall back to a trailing word slice of the
	// last paragraph.
	last := buf[len(buf)-1]
	if tail := trailingWords(last.text, budget); tail != "" {
		return []paragraph{{text: tail, page: last.page, section: last.section}}
	}
	return nil
}

// trailingWords returns the longest word-aligned suffix of text whose
// joined length fits budgetChars.
func trailingWords(text string, budgetChars int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	chars := 0
	start := len(words)
	for i := len(words) - 1; i >= 0; i-- {
		add := len(words[i])
		if chars > 0 {
			add++ // joining space
		}
		if chars+add > budgetChars {
			break
		}
		chars += add
		start = i
	}
	if start == len(words) || start == 0 {
		// Nothing fits, or the whole paragraph would be carried; the caller
		// already decided a full-paragraph carry was not possible.
		return ""
	}
	return strings.Join(words[start:], " ")
}

// splitParagraphs splits page text on blank-line boundaries.
func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var out []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			out = append(out, strings.Join(current, "\n"))
			current = current[:0]
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, strings.TrimRight(line, " \t"))
	}
	flush()
	return out
}

// splitOversized breaks text into pieces each within maxTokens, preferring
// sentence boundaries and falling back to word boundaries.
func splitOversized(text string, maxTokens int) []string {
	if EstimateTokens(text) <= maxTokens {
		return []string{text}
	}

	sentences := splitSentences(text)
	if len(sentences) > 1 {
		var out []string
		for _, piece := range packUnits(sentences, " ", maxTokens) {
			// A single sentence can still exceed the budget; recurse onto
			// word boundaries.
			if EstimateTokens(piece) > maxTokens {
				out = append(out, packUnits(strings.Fields(piece), " ", maxTokens)...)
			} else {
				out = append(out, piece)
			}
		}
		return out
	}

	return packUnits(strings.Fields(text), " ", maxTokens)
}

// packUnits greedily joins units with sep into pieces within maxTokens.
func packUnits(units []string, sep string, maxTokens int) []string {
	var out []string
	var current strings.Builder

	for _, u := range units {
		add := len(u)
		if current.Len() > 0 {
			add += len(sep)
		}
		if current.Len() > 0 && tokensForChars(current.Len()+add) > maxTokens {
			out = append(out, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(sep)
		}
		current.WriteString(u)
	}
	if current.Len() > 0 {
		out = append(out, current.String())
	}
	return out
}

// splitSentences splits on terminal punctuation followed by whitespace.
func splitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i+1 < len(text); i++ {
		c := text[i]
		if (c == '.' || c == '!' || c == '?') &&
			(text[i+1] == ' ' || text[i+1] == '\n' || text[i+1] == '\t') {
			if s := strings.TrimSpace(text[start : i+1]); s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func tokensForChars(n int) int {
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}
