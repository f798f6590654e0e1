package chunker

import "strings"

// subChunk splits content into token-bounded pieces, preferring to cut at
// a paragraph or sentence boundary near the window edge, with overlap
// tokens carried into the next piece. Grounded on a token-window splitter
// idiom (find the last punctuation/paragraph break within a decoded
// window, cut there, then step back by the overlap).
func subChunk(content string, enc *tokenEncoder, size, overlap int) []string {
	tokens := enc.Encode(content)
	if len(tokens) == 0 {
		return nil
	}
	if overlap >= size {
		overlap = size / 2
	}

	var chunks []string
	start := 0

	for start < len(tokens) {
		end := start + size
		if end > len(tokens) {
			end = len(tokens)
		}

		text := enc.Decode(tokens[start:end])

		if end < len(tokens) {
			if idx := lastBoundary(text); idx > 0 {
				cut := text[:idx+1]
				end = start + len(enc.Encode(cut))
				text = cut
			}
		}

		trimmed := strings.TrimSpace(text)
		if trimmed != "" {
			chunks = append(chunks, trimmed)
		}

		if end >= len(tokens) {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// lastBoundary returns the index of the end of the last paragraph or
// sentence break in text, preferring the latest-occurring separator.
func lastBoundary(text string) int {
	best := -1
	for _, sep := range []string{"\n\n", ". ", "! ", "? ", "\n"} {
		if i := strings.LastIndex(text, sep); i >= 0 {
			end := i + len(sep) - 1
			if end > best {
				best = end
			}
		}
	}
	return best
}
