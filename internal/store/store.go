package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/clipexplain/clipexplain/models"
)

// Store persists discovery history in Postgres. It is optional: a nil
// *Store is safe to call and every method degrades to a no-op or an
// empty result.
type Store struct {
	db *sql.DB
}

// DiscoveryRecord is one persisted discovery request with its outcome.
type DiscoveryRecord struct {
	ID        string                 `json:"id"`
	Title     string                 `json:"title"`
	Method    models.Method          `json:"method"`
	Items     int                    `json:"items"`
	Duration  time.Duration          `json:"duration"`
	Bundle    *models.ResourceBundle `json:"bundle,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// New opens a Postgres connection and verifies it with a ping.
func New(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection, used by tests.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveDiscovery records one completed request. The bundle is stored as
// JSONB so history queries can inspect it without a second lookup.
func (s *Store) SaveDiscovery(ctx context.Context, rec DiscoveryRecord) (string, error) {
	if s == nil || s.db == nil {
		return "", nil
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	bundleJSON, err := json.Marshal(rec.Bundle)
	if err != nil {
		return "", fmt.Errorf("marshal bundle: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO discoveries (id, title, method, item_count, duration_ms, bundle, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		rec.ID, rec.Title, string(rec.Method), rec.Items, rec.Duration.Milliseconds(), bundleJSON)
	if err != nil {
		return "", fmt.Errorf("insert discovery: %w", err)
	}
	return rec.ID, nil
}

// GetDiscovery loads one record by id, bundle included.
func (s *Store) GetDiscovery(ctx context.Context, id string) (DiscoveryRecord, error) {
	if s == nil || s.db == nil {
		return DiscoveryRecord{}, sql.ErrNoRows
	}
	var (
		rec        DiscoveryRecord
		method     string
		durationMS int64
		bundleJSON []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, method, item_count, duration_ms, bundle, created_at
		FROM discoveries WHERE id = $1`, id).
		Scan(&rec.ID, &rec.Title, &method, &rec.Items, &durationMS, &bundleJSON, &rec.CreatedAt)
	if err != nil {
		return DiscoveryRecord{}, err
	}
	rec.Method = models.Method(method)
	rec.Duration = time.Duration(durationMS) * time.Millisecond
	if len(bundleJSON) > 0 {
		var bundle models.ResourceBundle
		if err := json.Unmarshal(bundleJSON, &bundle); err != nil {
			return DiscoveryRecord{}, fmt.Errorf("unmarshal bundle: %w", err)
		}
		rec.Bundle = &bundle
	}
	return rec, nil
}

// ListDiscoveries returns the most recent records, newest first, without
// their bundles.
func (s *Store) ListDiscoveries(ctx context.Context, limit int) ([]DiscoveryRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, method, item_count, duration_ms, created_at
		FROM discoveries ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list discoveries: %w", err)
	}
	defer rows.Close()

	var out []DiscoveryRecord
	for rows.Next() {
		var (
			rec        DiscoveryRecord
			method     string
			durationMS int64
		)
		if err := rows.Scan(&rec.ID, &rec.Title, &method, &rec.Items, &durationMS, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Method = models.Method(method)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}
