package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrExtractionFailed indicates a document's text could not be read. It is
// terminal for that document; ingestion is not retried automatically.
var ErrExtractionFailed = errors.New("text extraction failed")

// TextExtractor turns a stored file into plain text.
type TextExtractor interface {
	// Extract returns the document text, or ErrExtractionFailed (wrapped)
	// when the file cannot be read or holds no usable text.
	Extract(path string) (string, error)
	// Supports reports whether the extractor handles the file extension.
	Supports(ext string) bool
}

// PlainTextExtractor reads .txt and .md files as-is.
type PlainTextExtractor struct{}

func (PlainTextExtractor) Supports(ext string) bool {
	switch strings.ToLower(ext) {
	case ".txt", ".md", ".text":
		return true
	}
	return false
}

func (PlainTextExtractor) Extract(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: reading %s: %v", ErrExtractionFailed, filepath.Base(path), err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8 text", ErrExtractionFailed, filepath.Base(path))
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("%w: %s holds no text", ErrExtractionFailed, filepath.Base(path))
	}
	return text, nil
}

// ExtractorFor returns the first extractor supporting the file, or an error.
func ExtractorFor(extractors []TextExtractor, filename string) (TextExtractor, error) {
	ext := filepath.Ext(filename)
	for _, e := range extractors {
		if e.Supports(ext) {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: unsupported file type %q", ErrExtractionFailed, ext)
}

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

var jurisdictions = []struct{ keyword, name string }{
	{"united states", "US"},
	{"u.s.", "US"},
	{"united kingdom", "UK"},
	{"england", "UK"},
	{"india", "India"},
	{"canada", "Canada"},
	{"australia", "Australia"},
}

// HeuristicMetadata guesses jurisdiction, year and court level from the
// document's opening text and its filename. Guesses are best-effort hints
// for filtering, not authoritative fields.
func HeuristicMetadata(text, filename string) (jurisdiction string, year int, courtLevel string) {
	head := strings.ToLower(firstN(text, 1000))
	for _, j := range jurisdictions {
		if strings.Contains(head, j.keyword) {
			jurisdiction = j.name
			break
		}
	}

	if m := yearPattern.FindString(firstN(text, 2000)); m != "" {
		year, _ = strconv.Atoi(m)
	}

	searchable := strings.ToLower(firstN(text, 1000) + " " + filename)
	switch {
	case strings.Contains(searchable, "supreme court"):
		courtLevel = "supreme"
	case strings.Contains(searchable, "high court"):
		courtLevel = "high"
	case strings.Contains(searchable, "district court"):
		courtLevel = "district"
	case strings.Contains(searchable, "court of appeal"), strings.Contains(searchable, "appellate"):
		courtLevel = "appellate"
	}
	return jurisdiction, year, courtLevel
}

// GuessDocumentType classifies a document from its opening text and filename.
func GuessDocumentType(text, filename string) string {
	searchable := strings.ToLower(firstN(text, 1000) + " " + filename)
	switch {
	case strings.Contains(searchable, "agreement"), strings.Contains(searchable, "contract"),
		strings.Contains(searchable, "party of the first part"):
		return TypeContract
	case strings.Contains(searchable, " v. "), strings.Contains(searchable, " vs. "),
		strings.Contains(searchable, "plaintiff"), strings.Contains(searchable, "defendant"):
		return TypeCaseLaw
	case strings.Contains(searchable, "regulation"), strings.Contains(searchable, "compliance"):
		return TypeRegulation
	case strings.Contains(searchable, "act"), strings.Contains(searchable, "statute"),
		strings.Contains(searchable, "section"):
		return TypeStatute
	}
	return TypeOther
}

func firstN(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
