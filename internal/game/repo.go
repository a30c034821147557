package game

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"gamehub/pkg/models"
)

// Repo reads and mutates the live counters that sit beside the cached
// record blob. The blob itself belongs to the unify store; these columns
// are the only mutable part of a game_cache row.
type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

type Counters struct {
	Views     int `json:"views"`
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
}

// Counters returns the live counters for slug. A game that has never been
// cached reports zeros.
func (r *Repo) Counters(ctx context.Context, slug string) (Counters, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT views, upvotes, downvotes
		FROM game_cache
		WHERE slug = ?
	`, slug)

	var c Counters
	if err := row.Scan(&c.Views, &c.Upvotes, &c.Downvotes); err != nil {
		if err == sql.ErrNoRows {
			return Counters{}, nil
		}
		return Counters{}, fmt.Errorf("scan counters: %w", err)
	}
	return c, nil
}

// IncrementViews bumps the view counter. A miss is a no-op: views only
// accumulate once a record has been cached.
func (r *Repo) IncrementViews(ctx context.Context, slug string) error {
	if _, err := r.DB.ExecContext(ctx, `
		UPDATE game_cache SET views = views + 1 WHERE slug = ?
	`, slug); err != nil {
		return fmt.Errorf("increment views for %s: %w", slug, err)
	}
	return nil
}

// Vote records one up or down vote.
func (r *Repo) Vote(ctx context.Context, slug string, up bool) error {
	col := "downvotes"
	if up {
		col = "upvotes"
	}
	if _, err := r.DB.ExecContext(ctx,
		`UPDATE game_cache SET `+col+` = `+col+` + 1 WHERE slug = ?`, slug); err != nil {
		return fmt.Errorf("vote for %s: %w", slug, err)
	}
	return nil
}

type PopularGame struct {
	Slug            string `json:"slug"`
	Name            string `json:"name"`
	Released        string `json:"released,omitempty"`
	BackgroundImage string `json:"background_image,omitempty"`
	Views           int    `json:"views"`
}

// Popular lists the most-viewed cached games. Read-only over whatever is
// cached; never touches the providers.
func (r *Repo) Popular(ctx context.Context, limit int) ([]PopularGame, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT slug, game_data, views
		FROM game_cache
		ORDER BY views DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("popular query: %w", err)
	}
	defer rows.Close()

	out := make([]PopularGame, 0, limit)
	for rows.Next() {
		var (
			p    PopularGame
			blob string
		)
		if err := rows.Scan(&p.Slug, &blob, &p.Views); err != nil {
			return nil, fmt.Errorf("popular scan: %w", err)
		}

		var rec models.GameCanonical
		if err := json.Unmarshal([]byte(blob), &rec); err == nil {
			p.Name = rec.Name
			p.Released = rec.Released
			if len(rec.Screenshots) > 0 {
				p.BackgroundImage = rec.Screenshots[0].Image
			}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("popular rows: %w", err)
	}
	return out, nil
}
