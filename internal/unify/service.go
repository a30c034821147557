package unify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"gamehub/internal/providers"
	"gamehub/pkg/models"
)

// Surfaced failures. Everything else the pipeline hits is absorbed into
// absent fields.
var (
	// ErrNotFound: no primary record exists for the key and the search
	// fallback recovered nothing. Nothing is cached.
	ErrNotFound = errors.New("game not found")
	// ErrUnavailable: the primary catalog itself failed and there is no
	// stale entry to fall back on.
	ErrUnavailable = errors.New("game data unavailable")
)

// Service is the unification engine's entry point. It owns the cached
// canonical records and the identity mappings, decides fresh vs. stale per
// the TTL, and coalesces concurrent regenerations of the same key so each
// stale/missing slug runs the fetch/merge pipeline at most once at a time.
type Service struct {
	Store    *Store
	RAWG     PrimaryProvider
	IGDB     SecondaryProvider
	Enricher *Enricher
	TTL      time.Duration

	// OnRefresh, when set, is called after a successful regeneration is
	// stored (used to broadcast refresh events).
	OnRefresh func(slug string)

	match func(*providers.RAWGGame, []providers.IGDBCandidate) *providers.IGDBCandidate
	now   func() time.Time
	group singleflight.Group
}

func NewService(store *Store, rawg PrimaryProvider, igdb SecondaryProvider, ttl time.Duration) *Service {
	return &Service{
		Store:    store,
		RAWG:     rawg,
		IGDB:     igdb,
		Enricher: &Enricher{RAWG: rawg, IGDB: igdb},
		TTL:      ttl,
		match:    FindBestMatch,
		now:      time.Now,
	}
}

// Resolve returns the current best-known record for slug. Fresh entries are
// served from the cache; stale or missing ones trigger a full regeneration,
// shared by every caller racing on the same slug.
func (s *Service) Resolve(ctx context.Context, slug string) (*models.GameCanonical, error) {
	entry, err := s.Store.GetEntry(ctx, slug)
	if err != nil {
		return nil, err
	}
	if entry != nil && s.now().Sub(entry.RefreshedAt) < s.TTL {
		return &entry.Record, nil
	}

	// Regeneration outlives the requesting caller: latecomers coalesced
	// onto this flight still want the result after the leader hangs up.
	regenCtx := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(slug, func() (any, error) {
		return s.regenerate(regenCtx, slug, entry)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.GameCanonical), nil
}

// Peek returns the cached record without ever triggering regeneration.
// Stale entries are still returned; a miss yields (nil, nil).
func (s *Service) Peek(ctx context.Context, slug string) (*models.GameCanonical, error) {
	entry, err := s.Store.GetEntry(ctx, slug)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, nil
	}
	return &entry.Record, nil
}

// Invalidate hard-deletes the cache entry and the identity mapping, forcing
// the next Resolve to rebuild from scratch.
func (s *Service) Invalidate(ctx context.Context, slug string) error {
	if err := s.Store.DeleteEntry(ctx, slug); err != nil {
		return err
	}
	return s.Store.DeleteIdentity(ctx, slug)
}

func (s *Service) regenerate(ctx context.Context, slug string, stale *CacheEntry) (*models.GameCanonical, error) {
	game, err := s.fetchPrimary(ctx, slug)
	if err != nil {
		if stale != nil {
			log.Printf("[unify] primary unavailable for %s, serving stale entry: %v", slug, err)
			return &stale.Record, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if game == nil {
		return nil, ErrNotFound
	}

	igdbID := s.resolveIdentity(ctx, slug, game)

	var secondary *providers.IGDBGame
	if igdbID > 0 {
		secondary, err = s.IGDB.GameByID(ctx, igdbID)
		if err != nil {
			// degrade to primary-only; the match itself stays persisted
			log.Printf("[unify] igdb fetch for %s (id %d): %v", slug, igdbID, err)
			secondary = nil
		}
	}

	in := MergeInput{Slug: slug, Primary: game, Secondary: secondary}
	s.Enricher.Enrich(ctx, &in)

	record := Merge(in)
	if record.IGDBID == 0 {
		record.IGDBID = igdbID
	}

	if err := s.Store.PutEntry(ctx, slug, record, s.now()); err != nil {
		// the record is still good; next caller just regenerates again
		log.Printf("[unify] store entry for %s: %v", slug, err)
	} else if s.OnRefresh != nil {
		s.OnRefresh(slug)
	}

	return record, nil
}

// fetchPrimary looks the slug up directly, then falls back to free-text
// search to recover renamed slugs. (nil, nil) means the catalog answered
// and genuinely has no such game.
func (s *Service) fetchPrimary(ctx context.Context, slug string) (*providers.RAWGGame, error) {
	game, err := s.RAWG.GameBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if game != nil {
		return game, nil
	}

	page, err := s.RAWG.Search(ctx, slug, 1)
	if err != nil {
		return nil, err
	}
	if page == nil || len(page.Results) == 0 {
		return nil, nil
	}
	return s.RAWG.GameBySlug(ctx, page.Results[0].Slug)
}

// resolveIdentity consults the persisted mapping first; only an unknown
// slug runs the matcher, and whatever it decides (match or confident
// no-match) is persisted so it is never recomputed. Provider failures
// leave no mapping behind so the next refresh can retry.
func (s *Service) resolveIdentity(ctx context.Context, slug string, game *providers.RAWGGame) int {
	if m, err := s.Store.GetIdentity(ctx, slug); err != nil {
		log.Printf("[unify] identity lookup for %s: %v", slug, err)
	} else if m != nil {
		return m.IGDBID
	}

	// exact-slug short circuit before any fuzzy work
	var best *providers.IGDBCandidate
	candidates, err := s.IGDB.CandidatesBySlug(ctx, slug)
	if err != nil {
		log.Printf("[unify] igdb slug lookup for %s: %v", slug, err)
		return 0
	}
	for i := range candidates {
		if candidates[i].Slug == slug {
			best = &candidates[i]
			break
		}
	}

	if best == nil {
		cands, err := s.IGDB.SearchCandidates(ctx, game.Name, slug, releaseYear(game.Released))
		if err != nil {
			log.Printf("[unify] igdb candidate search for %s: %v", slug, err)
			return 0
		}
		best = s.match(game, cands)
	}

	igdbID := 0
	if best != nil {
		igdbID = best.ID
	}
	if err := s.Store.PutIdentity(ctx, slug, game.ID, igdbID); err != nil {
		log.Printf("[unify] store identity for %s: %v", slug, err)
	}
	return igdbID
}
