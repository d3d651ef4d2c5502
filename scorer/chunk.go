package scorer

import (
	"strings"
)

const (
	defaultChunkSize    = 512
	defaultChunkOverlap = 50
	minChunkSize        = 50
)

// Chunk splits text into pieces of approximately chunkSize characters with
// overlap characters of overlap, preferring paragraph then sentence
// boundaries. Chunks shorter than minChunkSize are discarded unless the
// whole document is shorter than minChunkSize, in which case the document
// itself is the sole chunk.
func Chunk(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) < minChunkSize {
		return []string{text}
	}

	paragraphs := splitParagraphs(text)

	var chunks []string
	var current strings.Builder

	flush := func() {
		s := strings.TrimSpace(current.String())
		if len(s) >= minChunkSize {
			chunks = append(chunks, s)
		}
		current.Reset()
	}

	for _, para := range paragraphs {
		if current.Len() > 0 && current.Len()+len(para) > defaultChunkSize {
			flush()
			if tail := overlapTail(chunks, defaultChunkOverlap); tail != "" {
				current.WriteString(tail)
				current.WriteByte(' ')
			}
		}
		if len(para) > defaultChunkSize {
			for _, s := range splitLongParagraph(para) {
				if current.Len()+len(s) > defaultChunkSize {
					flush()
					if tail := overlapTail(chunks, defaultChunkOverlap); tail != "" {
						current.WriteString(tail)
						current.WriteByte(' ')
					}
				}
				current.WriteString(s)
				current.WriteByte(' ')
			}
			continue
		}
		current.WriteString(para)
		current.WriteByte('\n')
	}
	flush()

	if len(chunks) == 0 && len(text) > 0 {
		// whole document shorter than a usable chunk after trimming: keep it.
		return []string{text}
	}
	return chunks
}

func splitParagraphs(text string) []string {
	raw := strings.Split(text, "\n\n")
	var out []string
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{text}
	}
	return out
}

func splitLongParagraph(para string) []string {
	sentences := sentenceSplitRegexp.Split(para, -1)
	var out []string
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return []string{para}
	}
	return out
}

func overlapTail(chunks []string, n int) string {
	if len(chunks) == 0 {
		return ""
	}
	last := chunks[len(chunks)-1]
	if len(last) <= n {
		return last
	}
	return last[len(last)-n:]
}
