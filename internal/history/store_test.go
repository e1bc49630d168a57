package history

import (
	"context"
	"testing"
	"time"

	"github.com/moku180/legalaichatbot/internal/db"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestSaveAndGetRoundtrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	saved, err := store.Save(ctx, QueryRecord{
		OrganizationID: "org-1",
		UserID:         "user-1",
		QueryText:      "What does Section 12 require?",
		ResponseText:   "Section 12 requires annual filings.",
		Intent:         "statutory_interpretation",
		AgentsUsed:     []string{"retriever", "statutory", "verification", "safety"},
		Citations: []Citation{
			{Title: "Companies Act", Excerpt: "Section 12: every company shall file...", Section: "Section 12", Jurisdiction: "UK"},
		},
		Confidence:   0.82,
		InputTokens:  1200,
		OutputTokens: 350,
		Cost:         0.0065,
		LatencyMS:    1840,
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("save should assign an ID")
	}
	if saved.CreatedAt.IsZero() {
		t.Fatal("save should stamp creation time")
	}

	got, err := store.GetByID(ctx, "org-1", saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("record not found")
	}
	if got.Intent != "statutory_interpretation" || got.Confidence != 0.82 {
		t.Errorf("fields did not survive roundtrip: %+v", got)
	}
	if len(got.AgentsUsed) != 4 || got.AgentsUsed[1] != "statutory" {
		t.Errorf("agents did not survive JSON roundtrip: %v", got.AgentsUsed)
	}
	if len(got.Citations) != 1 || got.Citations[0].Section != "Section 12" {
		t.Errorf("citations did not survive JSON roundtrip: %+v", got.Citations)
	}
}

func TestGetByIDScopesToOrganization(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	saved, err := store.Save(ctx, QueryRecord{OrganizationID: "org-1", UserID: "u", QueryText: "q"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.GetByID(ctx, "org-2", saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("record must not be visible to another organization")
	}
}

func TestListNewestFirstWithFilters(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, rec := range []QueryRecord{
		{OrganizationID: "org-1", UserID: "alice", QueryText: "first", Intent: "general_legal"},
		{OrganizationID: "org-1", UserID: "bob", QueryText: "second", Intent: "contract_analysis"},
		{OrganizationID: "org-1", UserID: "alice", QueryText: "third", Intent: "contract_analysis"},
		{OrganizationID: "org-2", UserID: "alice", QueryText: "other org"},
	} {
		rec.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if _, err := store.Save(ctx, rec); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	records, err := store.List(ctx, "org-1", ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 org-1 records, got %d", len(records))
	}
	if records[0].QueryText != "third" || records[2].QueryText != "first" {
		t.Errorf("expected newest first, got %q..%q", records[0].QueryText, records[2].QueryText)
	}

	records, err = store.List(ctx, "org-1", ListFilter{UserID: "alice", Intent: "contract_analysis"})
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if len(records) != 1 || records[0].QueryText != "third" {
		t.Errorf("combined filter failed: %+v", records)
	}

	records, err = store.List(ctx, "org-1", ListFilter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("paged list: %v", err)
	}
	if len(records) != 1 || records[0].QueryText != "second" {
		t.Errorf("pagination failed: %+v", records)
	}
}
