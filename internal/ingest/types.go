// Package ingest owns the document write path: upload, text extraction,
// chunking, embedding and indexing. Processing runs in the background; the
// upload request returns as soon as the document record exists with status
// queued, and clients poll the record for progress.
package ingest

import "time"

// Status is a document's processing state. Transitions are monotonic and
// one-directional; only the background worker mutates it.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusExtracting Status = "extracting"
	StatusChunking   Status = "chunking"
	StatusEmbedding  Status = "embedding"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Document types recognized by the classifier heuristics.
const (
	TypeStatute    = "statute"
	TypeCaseLaw    = "case_law"
	TypeContract   = "contract"
	TypeRegulation = "regulation"
	TypeOther      = "other"
)

// Document is one uploaded document and its processing state.
type Document struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	UploadedBy     string    `json:"uploaded_by"`
	Title          string    `json:"title"`
	Filename       string    `json:"filename"`
	FilePath       string    `json:"-"`
	DocumentType   string    `json:"document_type"`
	Jurisdiction   string    `json:"jurisdiction,omitempty"`
	CourtLevel     string    `json:"court_level,omitempty"`
	Year           int       `json:"year,omitempty"`
	Status         Status    `json:"status"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	ChunkCount     int       `json:"chunk_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ListFilter narrows a document listing.
type ListFilter struct {
	Status       Status
	DocumentType string
	Limit        int
	Offset       int
}
