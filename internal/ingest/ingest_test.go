package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/moku180/legalaichatbot/internal/chunker"
	"github.com/moku180/legalaichatbot/internal/db"
	"github.com/moku180/legalaichatbot/internal/embeddings"
	"github.com/moku180/legalaichatbot/internal/vectorindex"
)

type stubEmbedder struct{}

func (stubEmbedder) Dimensions() int { return 3 }

func (stubEmbedder) EmbedOne(_ context.Context, _ string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([]embeddings.BatchResult, error) {
	out := make([]embeddings.BatchResult, len(texts))
	for i := range texts {
		out[i] = embeddings.BatchResult{Index: i, Vector: []float32{1, 0, 0}}
	}
	return out, nil
}

func testProcessor(t *testing.T) (*Processor, *Store, *vectorindex.Store) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store := NewStore(database)
	index := vectorindex.NewStore(t.TempDir(), stubEmbedder{}, nil)
	processor := NewProcessor(store, chunker.New(600, 100), index, nil)
	return processor, store, index
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestProcessDocumentLifecycle(t *testing.T) {
	processor, store, index := testProcessor(t)
	ctx := context.Background()

	path := writeFile(t, "act.txt",
		"Robotics Act 2025, United States.\nSection 1 Robots must register.\nSection 2 Robots must not harm humans.")

	doc, err := store.Create(ctx, Document{
		OrganizationID: "org-1",
		UploadedBy:     "user-1",
		Title:          "Robotics Act",
		Filename:       "act.txt",
		FilePath:       path,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if doc.Status != StatusQueued {
		t.Errorf("new document should be queued, got %q", doc.Status)
	}

	if err := processor.Process(ctx, doc); err != nil {
		t.Fatalf("process: %v", err)
	}

	got, err := store.GetByID(ctx, "org-1", doc.ID)
	if err != nil || got == nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (%s)", got.Status, got.ErrorMessage)
	}
	if got.ChunkCount == 0 {
		t.Error("completed document should record its chunk count")
	}
	if got.Jurisdiction != "US" {
		t.Errorf("heuristic jurisdiction not applied: %q", got.Jurisdiction)
	}

	n, err := index.Count(ctx, "org-1")
	if err != nil || n != got.ChunkCount {
		t.Errorf("index holds %d chunks, record says %d (err %v)", n, got.ChunkCount, err)
	}
}

func TestProcessUnsupportedFileIsTerminal(t *testing.T) {
	processor, store, _ := testProcessor(t)
	ctx := context.Background()

	doc, err := store.Create(ctx, Document{
		OrganizationID: "org-1",
		Title:          "scan",
		Filename:       "scan.tiff",
		FilePath:       "/nonexistent/scan.tiff",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := processor.Process(ctx, doc); !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}

	got, _ := store.GetByID(ctx, "org-1", doc.ID)
	if got.Status != StatusError {
		t.Errorf("expected error status, got %q", got.Status)
	}
	if got.ErrorMessage == "" {
		t.Error("error status should carry a message")
	}
}

func TestRemoveDeletesChunksAndRecord(t *testing.T) {
	processor, store, index := testProcessor(t)
	ctx := context.Background()

	path := writeFile(t, "memo.txt", "A short internal memo about compliance requirements for vendors.")
	doc, _ := store.Create(ctx, Document{OrganizationID: "org-1", Title: "Memo", Filename: "memo.txt", FilePath: path})
	if err := processor.Process(ctx, doc); err != nil {
		t.Fatalf("process: %v", err)
	}

	removed, err := processor.Remove(ctx, "org-1", doc.ID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed == 0 {
		t.Error("expected chunks removed")
	}
	if got, _ := store.GetByID(ctx, "org-1", doc.ID); got != nil {
		t.Error("record should be gone after remove")
	}
	if n, _ := index.Count(ctx, "org-1"); n != 0 {
		t.Errorf("index should be empty after remove, holds %d", n)
	}
}

func TestHeuristicMetadata(t *testing.T) {
	text := "In the Supreme Court of the United States, decided 2019. The plaintiff alleges..."
	jurisdiction, year, courtLevel := HeuristicMetadata(text, "opinion.txt")
	if jurisdiction != "US" {
		t.Errorf("jurisdiction: got %q", jurisdiction)
	}
	if year != 2019 {
		t.Errorf("year: got %d", year)
	}
	if courtLevel != "supreme" {
		t.Errorf("court level: got %q", courtLevel)
	}

	jurisdiction, year, courtLevel = HeuristicMetadata("Nothing identifiable here.", "notes.txt")
	if jurisdiction != "" || year != 0 || courtLevel != "" {
		t.Errorf("expected empty heuristics, got %q/%d/%q", jurisdiction, year, courtLevel)
	}
}

func TestGuessDocumentType(t *testing.T) {
	cases := []struct {
		text, filename, want string
	}{
		{"This Agreement is entered into by the parties", "msa.txt", TypeContract},
		{"Smith v. Jones, the plaintiff claims damages", "smith.txt", TypeCaseLaw},
		{"Section 4 of the Data Protection Act", "dpa.txt", TypeStatute},
		{"Quarterly newsletter", "news.txt", TypeOther},
	}
	for _, tc := range cases {
		if got := GuessDocumentType(tc.text, tc.filename); got != tc.want {
			t.Errorf("%q: got %q, want %q", tc.filename, got, tc.want)
		}
	}
}

func TestPlainTextExtractor(t *testing.T) {
	e := PlainTextExtractor{}
	if !e.Supports(".txt") || !e.Supports(".MD") {
		t.Error("extractor should support txt and md")
	}
	if e.Supports(".pdf") {
		t.Error("extractor should not claim pdf support")
	}

	path := writeFile(t, "empty.txt", "   \n  ")
	if _, err := e.Extract(path); !errors.Is(err, ErrExtractionFailed) {
		t.Errorf("empty file should fail extraction, got %v", err)
	}
}

func TestStoreListFilters(t *testing.T) {
	_, store, _ := testProcessor(t)
	ctx := context.Background()

	for _, d := range []Document{
		{OrganizationID: "org-1", Title: "a", DocumentType: TypeStatute},
		{OrganizationID: "org-1", Title: "b", DocumentType: TypeContract},
		{OrganizationID: "org-2", Title: "c", DocumentType: TypeStatute},
	} {
		if _, err := store.Create(ctx, d); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	docs, err := store.List(ctx, "org-1", ListFilter{})
	if err != nil || len(docs) != 2 {
		t.Fatalf("expected 2 org-1 documents, got %d (err %v)", len(docs), err)
	}

	docs, err = store.List(ctx, "org-1", ListFilter{DocumentType: TypeStatute})
	if err != nil || len(docs) != 1 || docs[0].Title != "a" {
		t.Fatalf("type filter failed: %v / %+v", err, docs)
	}
}
