package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/moku180/legalaichatbot/internal/db"
)

// Store manages persistence of query records.
type Store struct {
	db *db.DB
}

// NewStore creates a new history store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Save inserts a query record. The record's slices are stored as JSON.
func (s *Store) Save(ctx context.Context, rec QueryRecord) (*QueryRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	agents, err := json.Marshal(rec.AgentsUsed)
	if err != nil {
		return nil, fmt.Errorf("encoding agents: %w", err)
	}
	citations, err := json.Marshal(rec.Citations)
	if err != nil {
		return nil, fmt.Errorf("encoding citations: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO queries (id, organization_id, user_id, query_text, response_text, intent, agents_used, citations, confidence, input_tokens, output_tokens, cost, latency_ms, safety_flag, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.OrganizationID, rec.UserID, rec.QueryText, rec.ResponseText, rec.Intent,
		string(agents), string(citations), rec.Confidence, rec.InputTokens, rec.OutputTokens,
		rec.Cost, rec.LatencyMS, rec.SafetyFlag, rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting query record: %w", err)
	}
	return &rec, nil
}

// GetByID retrieves a single record scoped to the organization.
func (s *Store) GetByID(ctx context.Context, orgID, id string) (*QueryRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, organization_id, user_id, query_text, response_text, intent, agents_used, citations, confidence, input_tokens, output_tokens, cost, latency_ms, safety_flag, created_at
		 FROM queries WHERE id = ? AND organization_id = ?`, id, orgID)
	rec, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting query record: %w", err)
	}
	return rec, nil
}

// List returns the organization's records, newest first.
func (s *Store) List(ctx context.Context, orgID string, filter ListFilter) ([]QueryRecord, error) {
	query := `SELECT id, organization_id, user_id, query_text, response_text, intent, agents_used, citations, confidence, input_tokens, output_tokens, cost, latency_ms, safety_flag, created_at
		 FROM queries WHERE organization_id = ?`
	args := []interface{}{orgID}

	if filter.UserID != "" {
		query += " AND user_id = ?"
		args = append(args, filter.UserID)
	}
	if filter.Intent != "" {
		query += " AND intent = ?"
		args = append(args, filter.Intent)
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
		return nil, fmt.Errorf("listing query records: %w", err)
	}
	defer rows.Close()

	var records []QueryRecord
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning query record: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func scanRecord(scan func(...interface{}) error) (*QueryRecord, error) {
	var rec QueryRecord
	var agents, citations string
	err := scan(&rec.ID, &rec.OrganizationID, &rec.UserID, &rec.QueryText, &rec.ResponseText,
		&rec.Intent, &agents, &citations, &rec.Confidence, &rec.InputTokens, &rec.OutputTokens,
		&rec.Cost, &rec.LatencyMS, &rec.SafetyFlag, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(agents), &rec.AgentsUsed); err != nil {
		rec.AgentsUsed = nil
	}
	if err := json.Unmarshal([]byte(citations), &rec.Citations); err != nil {
		rec.Citations = nil
	}
	return &rec, nil
}
