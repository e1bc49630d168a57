package ingest

import (
	"context"
	"log"

	"github.com/moku180/legalaichatbot/internal/chunker"
	"github.com/moku180/legalaichatbot/internal/vectorindex"
)

// Processor runs the background leg of ingestion for one document at a time:
// extract, chunk, embed, index. It is the only mutator of document status.
type Processor struct {
	store      *Store
	chunker    *chunker.Chunker
	index      *vectorindex.Store
	extractors []TextExtractor
}

// NewProcessor wires a processor over the given stores. extractors are tried
// in order; the first one supporting the file's extension wins.
func NewProcessor(store *Store, ch *chunker.Chunker, index *vectorindex.Store, extractors []TextExtractor) *Processor {
	if len(extractors) == 0 {
		extractors = []TextExtractor{PlainTextExtractor{}}
	}
	return &Processor{store: store, chunker: ch, index: index, extractors: extractors}
}

// Enqueue starts background processing for the document and returns
// immediately. The caller has already created the record in status queued.
func (p *Processor) Enqueue(doc *Document) {
	go func() {
		// The originating request's context is gone by now; processing
		// continues under its own background context.
		if err := p.Process(context.Background(), doc); err != nil {
			log.Printf("ingest: processing document %s failed: %v", doc.ID, err)
		}
	}()
}

// Process runs the full ingestion sequence synchronously. Extraction and
// embedding failures are terminal for the document: status moves to error
// with the message stored, and the document is not retried.
func (p *Processor) Process(ctx context.Context, doc *Document) error {
	if err := p.store.SetStatus(ctx, doc.ID, StatusExtracting); err != nil {
		return err
	}

	extractor, err := ExtractorFor(p.extractors, doc.Filename)
	if err != nil {
		return p.fail(ctx, doc.ID, err)
	}
	text, err := extractor.Extract(doc.FilePath)
	if err != nil {
		return p.fail(ctx, doc.ID, err)
	}

	// Heuristic metadata fills only the fields the uploader left blank.
	jurisdiction, year, courtLevel := HeuristicMetadata(text, doc.Filename)
	if doc.Jurisdiction == "" {
		doc.Jurisdiction = jurisdiction
	}
	if doc.Year == 0 {
		doc.Year = year
	}
	if doc.CourtLevel == "" {
		doc.CourtLevel = courtLevel
	}
	if doc.DocumentType == "" || doc.DocumentType == TypeOther {
		doc.DocumentType = GuessDocumentType(text, doc.Filename)
	}
	if err := p.store.SetMetadata(ctx, doc.ID, doc.DocumentType, doc.Jurisdiction, doc.CourtLevel, doc.Year); err != nil {
		return err
	}

	if err := p.store.SetStatus(ctx, doc.ID, StatusChunking); err != nil {
		return err
	}
	chunks := p.chunker.Chunk(text, chunker.Metadata{
		DocumentID:     doc.ID,
		OrganizationID: doc.OrganizationID,
		Title:          doc.Title,
		Jurisdiction:   doc.Jurisdiction,
		CourtLevel:     doc.CourtLevel,
		Year:           doc.Year,
		DocumentType:   doc.DocumentType,
	})
	if len(chunks) == 0 {
		return p.fail(ctx, doc.ID, ErrExtractionFailed)
	}

	if err := p.store.SetStatus(ctx, doc.ID, StatusEmbedding); err != nil {
		return err
	}
	if err := p.index.Add(ctx, doc.OrganizationID, chunks); err != nil {
		return p.fail(ctx, doc.ID, err)
	}

	return p.store.SetCompleted(ctx, doc.ID, len(chunks))
}

// Remove deletes a document's chunks from the index and drops its record.
func (p *Processor) Remove(ctx context.Context, orgID, docID string) (int, error) {
	removed, err := p.index.DeleteDocument(ctx, orgID, docID)
	if err != nil {
		return 0, err
	}
	if err := p.store.Delete(ctx, orgID, docID); err != nil {
		return removed, err
	}
	return removed, nil
}

func (p *Processor) fail(ctx context.Context, docID string, cause error) error {
	if err := p.store.SetError(ctx, docID, cause.Error()); err != nil {
		log.Printf("ingest: recording error for document %s failed: %v", docID, err)
	}
	return cause
}
