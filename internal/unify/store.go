package unify

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"gamehub/pkg/models"
)

// CacheEntry wraps one cached canonical record with its refresh time.
// Entries are overwritten on regeneration, never versioned.
type CacheEntry struct {
	Slug        string
	Record      models.GameCanonical
	RefreshedAt time.Time
}

// IdentityMapping records a resolved cross-catalog identity. IGDBID 0
// means a confident "no match" that must not be re-evaluated.
type IdentityMapping struct {
	Slug   string
	RAWGID int
	IGDBID int
}

// Store owns the game_cache and game_identity tables. Only the
// unification service goes through it; counters on game_cache rows belong
// to the game package and are deliberately untouched by the upsert here.
type Store struct {
	DB *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

// GetEntry returns the cached entry for slug, or (nil, nil) on a miss.
func (s *Store) GetEntry(ctx context.Context, slug string) (*CacheEntry, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT slug, game_data, refreshed_at
		FROM game_cache
		WHERE slug = ?
	`, slug)

	var (
		e    CacheEntry
		blob string
	)
	if err := row.Scan(&e.Slug, &blob, &e.RefreshedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan cache entry: %w", err)
	}

	if err := json.Unmarshal([]byte(blob), &e.Record); err != nil {
		return nil, fmt.Errorf("decode cached record for %s: %w", slug, err)
	}
	return &e, nil
}

// PutEntry upserts the record and resets refreshed_at. Live counters on an
// existing row survive the overwrite.
func (s *Store) PutEntry(ctx context.Context, slug string, record *models.GameCanonical, refreshedAt time.Time) error {
	blob, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record for %s: %w", slug, err)
	}

	if _, err := s.DB.ExecContext(ctx, `
		INSERT INTO game_cache (slug, game_data, refreshed_at)
		VALUES (?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
		  game_data = excluded.game_data,
		  refreshed_at = excluded.refreshed_at
	`, slug, string(blob), refreshedAt); err != nil {
		return fmt.Errorf("upsert cache entry for %s: %w", slug, err)
	}
	return nil
}

func (s *Store) DeleteEntry(ctx context.Context, slug string) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM game_cache WHERE slug = ?`, slug); err != nil {
		return fmt.Errorf("delete cache entry for %s: %w", slug, err)
	}
	return nil
}

// GetIdentity returns the persisted identity mapping, or (nil, nil) when
// the match has never been resolved for this slug.
func (s *Store) GetIdentity(ctx context.Context, slug string) (*IdentityMapping, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT slug, rawg_id, igdb_id
		FROM game_identity
		WHERE slug = ?
	`, slug)

	var (
		m      IdentityMapping
		igdbID sql.NullInt64
	)
	if err := row.Scan(&m.Slug, &m.RAWGID, &igdbID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan identity for %s: %w", slug, err)
	}
	if igdbID.Valid {
		m.IGDBID = int(igdbID.Int64)
	}
	return &m, nil
}

// PutIdentity persists a resolved match. igdbID 0 is stored as NULL, the
// explicit no-match marker.
func (s *Store) PutIdentity(ctx context.Context, slug string, rawgID, igdbID int) error {
	var igdb any
	if igdbID > 0 {
		igdb = igdbID
	}
	if _, err := s.DB.ExecContext(ctx, `
		INSERT INTO game_identity (slug, rawg_id, igdb_id)
		VALUES (?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
		  rawg_id = excluded.rawg_id,
		  igdb_id = excluded.igdb_id
	`, slug, rawgID, igdb); err != nil {
		return fmt.Errorf("upsert identity for %s: %w", slug, err)
	}
	return nil
}

func (s *Store) DeleteIdentity(ctx context.Context, slug string) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM game_identity WHERE slug = ?`, slug); err != nil {
		return fmt.Errorf("delete identity for %s: %w", slug, err)
	}
	return nil
}
