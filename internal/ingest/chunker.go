package ingest

import (
	"regexp"
	"strings"

	"github.com/cloo-solutions/agrovisor/internal/domain"
)

// ChunkConfig controls how extracted page text is segmented for embedding.
type ChunkConfig struct {
	// TargetChars is the size at which a chunk is cut unconditionally.
	TargetChars int
	// Overlap is the number of trailing characters carried into the next
	// chunk's buffer for context continuity.
	Overlap int
}

// DefaultChunkConfig provides sane defaults for advisory documents.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		TargetChars: 900,
		Overlap:     120,
	}
}

// headingRe matches short all-caps or title-like lines used as section headings
// in advisory documents.
var headingRe = regexp.MustCompile(`^(?:[A-Z][A-Z \-/]{4,}|[A-Z][A-Za-z ]{3,}\d{0,2})$`)

type chunker struct {
	cfg    ChunkConfig
	source string

	chunks    []domain.Chunk
	buffer    []string
	charCount int
	// startPage is the 1-based page on which the buffer's first content,
	// including an overlap seed, originated. Zero while the buffer is empty.
	startPage int
	// seeded is true while buffer[0] is the overlap tail of the previous
	// chunk; the tail must survive byte-for-byte into the next chunk's text.
	seeded bool
	// seedOnly is true while the buffer holds nothing but the overlap tail
	// from the previous chunk; flushing such a buffer would emit a chunk
	// that duplicates text already stored.
	seedOnly bool
}

// ChunkPages splits per-page extracted text into overlap-aware chunks. A chunk
// boundary is cut when the accumulated text reaches the target size, or at a
// blank line once 60% of the target has accumulated, so paragraph boundaries
// win over hard cutoffs when possible. Empty pages contribute nothing but
// still advance the page counter.
func ChunkPages(pages []string, source string, cfg ChunkConfig) []domain.Chunk {
	if cfg.TargetChars <= 0 {
		cfg = DefaultChunkConfig()
	}

	c := &chunker{cfg: cfg, source: source}
	softLimit := (cfg.TargetChars * 6) / 10

	for idx, page := range pages {
		if strings.TrimSpace(page) == "" {
			continue
		}
		for _, line := range strings.Split(page, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" && c.charCount > softLimit {
				c.flush(idx + 1)
				continue
			}
			// A heading arriving right after a cut starts a new section; the
			// previous section's tail must not bleed into it.
			if c.seedOnly && headingRe.MatchString(trimmed) {
				c.reset()
			}
			c.buffer = append(c.buffer, line)
			c.charCount += len(line) + 1
			c.seedOnly = false
			if c.startPage == 0 {
				c.startPage = idx + 1
			}
			if c.charCount >= cfg.TargetChars {
				c.flush(idx + 1)
			}
		}
	}
	c.flush(len(pages))

	return c.chunks
}

// flush emits the buffered text as a chunk ending at endPage and reseeds the
// buffer with the overlap tail.
func (c *chunker) flush(endPage int) {
	if len(c.buffer) == 0 || c.seedOnly {
		return
	}

	var text string
	if c.seeded {
		// Trimming the left edge would corrupt the seeded tail, so only the
		// newly appended side is cleaned up.
		text = strings.TrimRight(c.buffer[0]+"\n"+strings.Join(c.buffer[1:], "\n"), " \t\n")
	} else {
		text = strings.TrimSpace(strings.Join(c.buffer, "\n"))
	}
	if text == "" {
		c.reset()
		return
	}

	c.chunks = append(c.chunks, domain.Chunk{
		ID:        domain.ChunkID(c.source, len(c.chunks)),
		Source:    c.source,
		PageStart: c.startPage,
		PageEnd:   endPage,
		Heading:   detectHeading(text),
		Text:      text,
	})

	if c.cfg.Overlap > 0 {
		tail := text
		if len(tail) > c.cfg.Overlap {
			tail = tail[len(tail)-c.cfg.Overlap:]
		}
		c.buffer = []string{tail}
		c.charCount = len(tail)
		c.seeded = true
		c.seedOnly = true
		c.startPage = endPage
	} else {
		c.reset()
	}
}

func (c *chunker) reset() {
	c.buffer = nil
	c.charCount = 0
	c.startPage = 0
	c.seeded = false
	c.seedOnly = false
}

// detectHeading returns the first line of the chunk when it looks like a
// section heading, otherwise the empty string.
func detectHeading(text string) string {
	firstLine, _, _ := strings.Cut(text, "\n")
	if len(firstLine) > 120 {
		firstLine = firstLine[:120]
	}
	firstLine = strings.TrimSpace(firstLine)
	if headingRe.MatchString(firstLine) {
		return firstLine
	}
	return ""
}
