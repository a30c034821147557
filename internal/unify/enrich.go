package unify

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"gamehub/internal/providers"
	"gamehub/pkg/models"
)

// PrimaryProvider is the read-only contract of the RAWG catalog.
type PrimaryProvider interface {
	GameBySlug(ctx context.Context, slug string) (*providers.RAWGGame, error)
	Search(ctx context.Context, query string, page int) (*providers.RAWGSearchPage, error)
	Screenshots(ctx context.Context, gameID int) ([]providers.RAWGScreenshot, error)
	Additions(ctx context.Context, gameID int) ([]models.RelatedGame, error)
	Series(ctx context.Context, gameID int) ([]models.RelatedGame, error)
	ParentGames(ctx context.Context, gameID int) ([]models.RelatedGame, error)
}

// SecondaryProvider is the read-only contract of the IGDB catalog.
type SecondaryProvider interface {
	CandidatesBySlug(ctx context.Context, slug string) ([]providers.IGDBCandidate, error)
	SearchCandidates(ctx context.Context, name, slug string, year int) ([]providers.IGDBCandidate, error)
	GameByID(ctx context.Context, id int) (*providers.IGDBGame, error)
	NamesByIDs(ctx context.Context, endpoint, field string, ids []int) (map[int]string, error)
	AgeRatings(ctx context.Context, ids []int) ([]providers.IGDBAgeRating, error)
	LanguageSupports(ctx context.Context, gameID int) ([]providers.IGDBLanguageSupport, error)
	TimeToBeat(ctx context.Context, gameID int) (*providers.IGDBTimeToBeat, error)
}

// Enricher issues the independent secondary lookups a merge wants, fanning
// them out concurrently. Every call is best-effort: a failure degrades its
// own field to absent and is logged, never propagated. An unreachable
// related-games endpoint must not block publishing core descriptive data.
type Enricher struct {
	RAWG PrimaryProvider
	IGDB SecondaryProvider
}

// Enrich fills the enrichment fields of in. in.Primary must be set;
// in.Secondary may be nil, which skips every IGDB-side lookup.
func (e *Enricher) Enrich(ctx context.Context, in *MergeInput) {
	g, ctx := errgroup.WithContext(ctx)
	gameID := in.Primary.ID

	g.Go(func() error {
		shots, err := e.RAWG.Screenshots(ctx, gameID)
		if err != nil {
			log.Printf("[enrich] rawg screenshots for %s: %v", in.Slug, err)
			return nil
		}
		in.PrimaryScreenshots = shots
		return nil
	})

	g.Go(func() error {
		list, err := e.RAWG.Additions(ctx, gameID)
		if err != nil {
			log.Printf("[enrich] additions for %s: %v", in.Slug, err)
			return nil
		}
		in.Additions = list
		return nil
	})

	g.Go(func() error {
		list, err := e.RAWG.Series(ctx, gameID)
		if err != nil {
			log.Printf("[enrich] series for %s: %v", in.Slug, err)
			return nil
		}
		in.Series = list
		return nil
	})

	g.Go(func() error {
		list, err := e.RAWG.ParentGames(ctx, gameID)
		if err != nil {
			log.Printf("[enrich] parent games for %s: %v", in.Slug, err)
			return nil
		}
		in.ParentGames = list
		return nil
	})

	if in.Secondary != nil {
		e.enrichSecondary(ctx, g, in)
	}

	_ = g.Wait()
}

func (e *Enricher) enrichSecondary(ctx context.Context, g *errgroup.Group, in *MergeInput) {
	sec := in.Secondary

	g.Go(func() error {
		t, err := e.IGDB.TimeToBeat(ctx, sec.ID)
		if err != nil {
			log.Printf("[enrich] time to beat for %s: %v", in.Slug, err)
			return nil
		}
		in.TimeToBeat = t
		return nil
	})

	if len(sec.KeywordIDs) > 0 {
		g.Go(func() error {
			kw, err := e.IGDB.NamesByIDs(ctx, "keywords", "name", sec.KeywordIDs)
			if err != nil {
				log.Printf("[enrich] keywords for %s: %v", in.Slug, err)
				return nil
			}
			in.Keywords = kw
			return nil
		})
	}

	companyIDs := make([]int, 0, len(sec.InvolvedCompanies))
	for _, ic := range sec.InvolvedCompanies {
		if ic.Company.Name == "" && ic.Company.ID > 0 {
			companyIDs = append(companyIDs, ic.Company.ID)
		}
	}
	if len(companyIDs) > 0 {
		g.Go(func() error {
			m, err := e.IGDB.NamesByIDs(ctx, "companies", "name", companyIDs)
			if err != nil {
				log.Printf("[enrich] companies for %s: %v", in.Slug, err)
				return nil
			}
			in.Companies = m
			return nil
		})
	}

	if len(sec.AgeRatingIDs) > 0 {
		g.Go(func() error { return e.enrichAgeRatings(ctx, in) })
	}

	g.Go(func() error { return e.enrichLanguages(ctx, in) })
}

// enrichAgeRatings walks the two-hop reference graph: rating tuples first,
// then the organization/category/description taxonomies they point at.
// A failed batch anywhere simply leaves the ratings empty; the merge will
// fall back to RAWG's embedded rating.
func (e *Enricher) enrichAgeRatings(ctx context.Context, in *MergeInput) error {
	ratings, err := e.IGDB.AgeRatings(ctx, in.Secondary.AgeRatingIDs)
	if err != nil {
		log.Printf("[enrich] age ratings for %s: %v", in.Slug, err)
		return nil
	}
	if len(ratings) == 0 {
		return nil
	}

	orgIDs := make([]int, 0, len(ratings))
	catIDs := make([]int, 0, len(ratings))
	var descIDs []int
	seenOrg := map[int]bool{}
	seenCat := map[int]bool{}
	seenDesc := map[int]bool{}
	for _, r := range ratings {
		if r.Organization > 0 && !seenOrg[r.Organization] {
			seenOrg[r.Organization] = true
			orgIDs = append(orgIDs, r.Organization)
		}
		if r.RatingCategory > 0 && !seenCat[r.RatingCategory] {
			seenCat[r.RatingCategory] = true
			catIDs = append(catIDs, r.RatingCategory)
		}
		for _, d := range r.ContentDescriptions {
			if d > 0 && !seenDesc[d] {
				seenDesc[d] = true
				descIDs = append(descIDs, d)
			}
		}
	}

	orgs, err := e.IGDB.NamesByIDs(ctx, "age_rating_organizations", "name", orgIDs)
	if err != nil {
		log.Printf("[enrich] age rating orgs for %s: %v", in.Slug, err)
		return nil
	}
	cats, err := e.IGDB.NamesByIDs(ctx, "age_rating_categories", "rating", catIDs)
	if err != nil {
		log.Printf("[enrich] age rating categories for %s: %v", in.Slug, err)
		return nil
	}
	descs, err := e.IGDB.NamesByIDs(ctx, "age_rating_content_descriptions", "description", descIDs)
	if err != nil {
		log.Printf("[enrich] age rating descriptions for %s: %v", in.Slug, err)
		descs = map[int]string{} // ratings still usable without descriptors
	}

	in.AgeRatings = ratings
	in.Organizations = orgs
	in.Categories = cats
	in.Descriptions = descs
	return nil
}

func (e *Enricher) enrichLanguages(ctx context.Context, in *MergeInput) error {
	supports, err := e.IGDB.LanguageSupports(ctx, in.Secondary.ID)
	if err != nil {
		log.Printf("[enrich] language supports for %s: %v", in.Slug, err)
		return nil
	}
	if len(supports) == 0 {
		return nil
	}

	var langIDs, typeIDs []int
	seenLang := map[int]bool{}
	seenType := map[int]bool{}
	for _, ls := range supports {
		if ls.Language > 0 && !seenLang[ls.Language] {
			seenLang[ls.Language] = true
			langIDs = append(langIDs, ls.Language)
		}
		if ls.SupportType > 0 && !seenType[ls.SupportType] {
			seenType[ls.SupportType] = true
			typeIDs = append(typeIDs, ls.SupportType)
		}
	}

	langs, err := e.IGDB.NamesByIDs(ctx, "languages", "name", langIDs)
	if err != nil {
		log.Printf("[enrich] languages for %s: %v", in.Slug, err)
		return nil
	}
	types, err := e.IGDB.NamesByIDs(ctx, "language_support_types", "name", typeIDs)
	if err != nil {
		log.Printf("[enrich] language support types for %s: %v", in.Slug, err)
		return nil
	}

	in.LanguageSupports = supports
	in.Languages = langs
	in.SupportTypes = types
	return nil
}
