// Package chunker splits legal document text into retrieval-sized chunks,
// preserving section hierarchy when the document has recognizable legal
// structure and falling back to overlapping word windows when it does not.
package chunker

import (
	"regexp"
	"strings"
)

// ChunkType records which strategy produced a chunk.
type ChunkType string

const (
	ChunkTypeSection    ChunkType = "section_based"
	ChunkTypeTokenBased ChunkType = "token_based"
)

// Metadata carries the document-level fields copied onto every chunk plus
// the chunk-local fields added during splitting. OrganizationID is the
// mandatory tenant tag; the index refuses chunks without one.
type Metadata struct {
	DocumentID     string
	OrganizationID string
	Title          string
	Jurisdiction   string
	CourtLevel     string
	Year           int
	DocumentType   string

	// Chunk-local fields.
	ChunkIndex int
	Section    string
	SubChunk   int
	ChunkType  ChunkType
}

// Chunk is the unit of retrieval: a bounded span of text plus metadata.
// Immutable once created.
type Chunk struct {
	Text     string
	Metadata Metadata
}

// sectionPatterns detect legal structural markers. A match anywhere in the
// text switches the chunker to section-based splitting.
var sectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`Section \d+`),
	regexp.MustCompile(`Article \d+`),
	regexp.MustCompile(`§\s*\d+`),
	regexp.MustCompile(`Clause \d+`),
	regexp.MustCompile(`\d+\.\s+[A-Z]`),
}

// splitPattern captures the markers the text is split at. Each marker stays
// attached to the text that follows it.
var splitPattern = regexp.MustCompile(`(Section \d+|Article \d+|§\s*\d+|Clause \d+)`)

// Chunker splits document text into chunks. chunkSize and chunkOverlap are
// expressed in tokens; word counts are derived with a 0.75 words-per-token
// approximation.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// New creates a Chunker with the given token-denominated size and overlap.
func New(chunkSize, chunkOverlap int) *Chunker {
	return &Chunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// Chunk splits text into chunks. Empty input yields zero chunks, not an error.
// Every produced chunk carries its own copy of meta.
func (c *Chunker) Chunk(text string, meta Metadata) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if c.hasSectionMarkers(text) {
		return c.chunkBySections(text, meta)
	}
	return c.chunkByTokens(text, meta)
}

func (c *Chunker) hasSectionMarkers(text string) bool {
	for _, p := range sectionPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// wordsPerChunk converts the token-denominated chunk size to words.
func (c *Chunker) wordsPerChunk() int {
	n := int(float64(c.chunkSize) * 0.75)
	if n < 1 {
		n = 1
	}
	return n
}

func (c *Chunker) wordsOverlap() int {
	return int(float64(c.chunkOverlap) * 0.75)
}

// chunkBySections splits at legal section markers, keeping each marker with
// the text that follows it as one logical unit. Units longer than the target
// size are sub-split into overlapping windows tagged with the parent section.
func (c *Chunker) chunkBySections(text string, meta Metadata) []Chunk {
	var chunks []Chunk

	parts := splitAfterMarkers(text)

	var currentSection string
	var currentText strings.Builder

	flush := func() {
		if currentText.Len() > 0 {
			chunks = append(chunks, c.splitLongText(currentText.String(), meta, currentSection)...)
		}
		currentText.Reset()
	}

	for _, part := range parts {
		if splitPattern.MatchString(part) && splitPattern.FindString(part) == part {
			flush()
			currentSection = part
			currentText.WriteString(part)
			currentText.WriteString("\n")
		} else {
			currentText.WriteString(part)
		}
	}
	flush()

	return chunks
}

// splitAfterMarkers splits text into an alternating sequence of plain text
// and marker tokens, the way a capturing regex split does.
func splitAfterMarkers(text string) []string {
	locs := splitPattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []string{text}
	}

	var parts []string
	prev := 0
	for _, loc := range locs {
		if loc[0] > prev {
			parts = append(parts, text[prev:loc[0]])
		}
		parts = append(parts, text[loc[0]:loc[1]])
		prev = loc[1]
	}
	if prev < len(text) {
		parts = append(parts, text[prev:])
	}
	return parts
}

// splitLongText returns the text as a single chunk if it fits the target
// size, or sub-splits it into overlapping windows tagged with the parent
// section name and a sub-chunk index.
func (c *Chunker) splitLongText(text string, meta Metadata, section string) []Chunk {
	words := strings.Fields(text)
	totalWords := len(words)
	perChunk := c.wordsPerChunk()

	if totalWords <= perChunk {
		m := meta
		m.Section = section
		m.ChunkType = ChunkTypeSection
		return []Chunk{{Text: text, Metadata: m}}
	}

	stride := perChunk - c.wordsOverlap()
	if stride < 1 {
		stride = 1
	}

	var chunks []Chunk
	subIndex := 0
	for start := 0; start < totalWords; start += stride {
		end := start + perChunk
		if end > totalWords {
			end = totalWords
		}

		m := meta
		m.Section = section
		m.SubChunk = subIndex
		m.ChunkType = ChunkTypeSection
		chunks = append(chunks, Chunk{
			Text:     strings.Join(words[start:end], " "),
			Metadata: m,
		})

		subIndex++
		if end >= totalWords {
			break
		}
	}

	return chunks
}

// chunkByTokens slides a fixed-size word window over markerless text.
// The stride is clamped to at least one word so the loop always terminates,
// even when overlap is configured at or above the window size.
func (c *Chunker) chunkByTokens(text string, meta Metadata) []Chunk {
	words := strings.Fields(text)
	totalWords := len(words)
	if totalWords == 0 {
		return nil
	}

	perChunk := c.wordsPerChunk()
	stride := perChunk - c.wordsOverlap()
	if stride < 1 {
		stride = 1
	}

	var chunks []Chunk
	chunkIndex := 0
	for start := 0; start < totalWords; start += stride {
		end := start + perChunk
		if end > totalWords {
			end = totalWords
		}

		m := meta
		m.ChunkIndex = chunkIndex
		m.ChunkType = ChunkTypeTokenBased
		chunks = append(chunks, Chunk{
			Text:     strings.Join(words[start:end], " "),
			Metadata: m,
		})

		chunkIndex++
		if end >= totalWords {
			break
		}
	}

	return chunks
}
