package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/moku180/legalaichatbot/internal/db"
)

// Store manages persistence of document records.
type Store struct {
	db *db.DB
}

// NewStore creates a new document store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create inserts a new document record in status queued.
func (s *Store) Create(ctx context.Context, doc Document) (*Document, error) {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	if doc.Status == "" {
		doc.Status = StatusQueued
	}
	if doc.DocumentType == "" {
		doc.DocumentType = TypeOther
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, organization_id, uploaded_by, title, filename, file_path, document_type, jurisdiction, court_level, year, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.OrganizationID, doc.UploadedBy, doc.Title, doc.Filename, doc.FilePath,
		doc.DocumentType, doc.Jurisdiction, doc.CourtLevel, doc.Year, doc.Status, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting document: %w", err)
	}
	return &doc, nil
}

// GetByID retrieves a document scoped to the organization.
func (s *Store) GetByID(ctx context.Context, orgID, id string) (*Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, organization_id, uploaded_by, title, filename, file_path, document_type, jurisdiction, court_level, year, status, error_message, chunk_count, created_at, updated_at
		 FROM documents WHERE id = ? AND organization_id = ?`, id, orgID)
	doc, err := scanDocument(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}
	return doc, nil
}

// List returns the organization's documents, newest first.
func (s *Store) List(ctx context.Context, orgID string, filter ListFilter) ([]Document, error) {
	query := `SELECT id, organization_id, uploaded_by, title, filename, file_path, document_type, jurisdiction, court_level, year, status, error_message, chunk_count, created_at, updated_at
		 FROM documents WHERE organization_id = ?`
	args := []interface{}{orgID}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.DocumentType != "" {
		query += " AND document_type = ?"
		args = append(args, filter.DocumentType)
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// SetStatus advances a document's processing status.
func (s *Store) SetStatus(ctx context.Context, id string, status Status) error {
	return s.update(ctx, id,
		`UPDATE documents SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
}

// SetError moves a document to the terminal error state with message.
func (s *Store) SetError(ctx context.Context, id, message string) error {
	return s.update(ctx, id,
		`UPDATE documents SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		StatusError, message, time.Now().UTC(), id)
}

// SetMetadata stores the classification fields resolved during processing.
func (s *Store) SetMetadata(ctx context.Context, id, documentType, jurisdiction, courtLevel string, year int) error {
	return s.update(ctx, id,
		`UPDATE documents SET document_type = ?, jurisdiction = ?, court_level = ?, year = ?, updated_at = ? WHERE id = ?`,
		documentType, jurisdiction, courtLevel, year, time.Now().UTC(), id)
}

// SetCompleted marks a document done and records how many chunks it produced.
func (s *Store) SetCompleted(ctx context.Context, id string, chunkCount int) error {
	return s.update(ctx, id,
		`UPDATE documents SET status = ?, chunk_count = ?, updated_at = ? WHERE id = ?`,
		StatusCompleted, chunkCount, time.Now().UTC(), id)
}

// Delete removes a document record scoped to the organization.
func (s *Store) Delete(ctx context.Context, orgID, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE id = ? AND organization_id = ?`, id, orgID)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("document not found: %s", id)
	}
	return nil
}

func (s *Store) update(ctx context.Context, id, query string, args ...interface{}) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating document: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("document not found: %s", id)
	}
	return nil
}

func scanDocument(scan func(...interface{}) error) (*Document, error) {
	var doc Document
	err := scan(&doc.ID, &doc.OrganizationID, &doc.UploadedBy, &doc.Title, &doc.Filename,
		&doc.FilePath, &doc.DocumentType, &doc.Jurisdiction, &doc.CourtLevel, &doc.Year,
		&doc.Status, &doc.ErrorMessage, &doc.ChunkCount, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
