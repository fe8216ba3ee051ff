package chunk

// EstimateTokens returns a deterministic token estimate for text using the
// ceil(len/4) character heuristic. Chunking must never block on network
// I/O, so no tokenizer service is consulted; four characters per token is
// close enough for budget enforcement on English policy text.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + 3) / 4
}
