package unify

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"gamehub/internal/providers"
	"gamehub/pkg/models"
)

// MergeInput carries everything the merge needs. Primary is required;
// every other field may be zero — that is the expected shape for games
// with no IGDB match or with failed enrichment calls.
type MergeInput struct {
	Slug               string
	Primary            *providers.RAWGGame
	PrimaryScreenshots []providers.RAWGScreenshot

	Secondary *providers.IGDBGame // nil when no match

	// Batch-resolved taxonomies, keyed by IGDB reference ID.
	Companies     map[int]string
	AgeRatings    []providers.IGDBAgeRating
	Organizations map[int]string
	Categories    map[int]string
	Descriptions  map[int]string

	LanguageSupports []providers.IGDBLanguageSupport
	Languages        map[int]string
	SupportTypes     map[int]string

	Keywords   map[int]string
	TimeToBeat *providers.IGDBTimeToBeat

	Additions   []models.RelatedGame
	Series      []models.RelatedGame
	ParentGames []models.RelatedGame
}

// Merge folds both catalogs into one GameCanonical. Pure function: no I/O,
// same input always yields the same record. Conflict rules: scalar fields
// prefer RAWG, secondary-only structures come from IGDB wholesale, and every
// set-valued field ends up free of case-insensitive duplicates.
func Merge(in MergeInput) *models.GameCanonical {
	p := in.Primary
	s := in.Secondary

	g := &models.GameCanonical{
		Slug:        in.Slug,
		RAWGID:      p.ID,
		Name:        p.Name,
		Released:    p.Released,
		Description: p.Description,
		Website:     p.Website,
	}

	for _, pl := range p.Platforms {
		g.Platforms = append(g.Platforms, pl.Platform.Name)
	}
	for _, st := range p.Stores {
		g.Stores = append(g.Stores, models.Store{Name: st.Store.Name, Slug: st.Store.Slug})
	}
	for _, gn := range p.Genres {
		g.Genres = append(g.Genres, gn.Name)
	}
	for _, d := range p.Developers {
		g.Developers = append(g.Developers, d.Name)
	}

	for _, ss := range in.PrimaryScreenshots {
		g.Screenshots = append(g.Screenshots, models.Screenshot{
			ID:    strconv.Itoa(ss.ID),
			Image: ss.Image,
		})
	}

	for _, t := range p.Tags {
		g.Tags = append(g.Tags, models.Tag{Name: t.Name, Source: models.SourceRAWG})
	}

	if s != nil {
		mergeSecondary(g, in)
	}

	// video union: IGDB clip list is authoritative when present, else the
	// RAWG single clip, else nothing
	if g.Video == nil && p.Clip != nil && p.Clip.Clip != "" {
		g.Video = &models.VideoData{
			Source: models.SourceRAWG,
			Clip:   &models.Clip{Clip: p.Clip.Clip, Preview: p.Clip.Preview},
		}
	}

	if len(g.AgeRatings) == 0 {
		g.AgeRatings = primaryAgeRatings(p)
	}

	g.Additions = in.Additions
	g.Series = in.Series
	g.ParentGames = in.ParentGames

	g.Platforms = dedupeFold(g.Platforms)
	g.Genres = dedupeFold(g.Genres)
	g.Developers = dedupeFold(g.Developers)
	g.Publishers = dedupeFold(g.Publishers)
	g.Screenshots = dedupeScreenshots(g.Screenshots)
	g.Tags = dedupeTags(g.Tags)

	return g
}

func mergeSecondary(g *models.GameCanonical, in MergeInput) {
	s := in.Secondary
	g.IGDBID = s.ID
	g.Summary = s.Summary

	// gap-fill scalars RAWG left empty
	if g.Name == "" {
		g.Name = s.Name
	}
	if g.Released == "" && s.FirstReleaseDate > 0 {
		g.Released = time.Unix(s.FirstReleaseDate, 0).UTC().Format("2006-01-02")
	}

	for _, pl := range s.Platforms {
		g.Platforms = append(g.Platforms, pl.Name)
	}
	for _, gn := range s.Genres {
		g.Genres = append(g.Genres, gn.Name)
	}

	// IGDB-only classification, added wholesale
	g.Themes = dedupeFold(names(len(s.Themes), func(i int) string { return s.Themes[i].Name }))
	g.GameModes = dedupeFold(names(len(s.GameModes), func(i int) string { return s.GameModes[i].Name }))
	g.Perspectives = dedupeFold(names(len(s.PlayerPerspectives), func(i int) string { return s.PlayerPerspectives[i].Name }))
	g.Engines = dedupeFold(names(len(s.GameEngines), func(i int) string { return s.GameEngines[i].Name }))
	g.Franchises = dedupeFold(names(len(s.Franchises), func(i int) string { return s.Franchises[i].Name }))
	g.AltNames = dedupeFold(names(len(s.AltNames), func(i int) string { return s.AltNames[i].Name }))

	for _, ic := range s.InvolvedCompanies {
		name := ic.Company.Name
		if name == "" {
			name = in.Companies[ic.Company.ID]
		}
		if name == "" {
			continue
		}
		if ic.Developer {
			g.Developers = append(g.Developers, name)
		}
		if ic.Publisher {
			g.Publishers = append(g.Publishers, name)
		}
	}

	for _, ss := range s.Screenshots {
		if ss.URL == "" {
			continue
		}
		full := strings.Replace(ss.URL, "thumb", "1080p", 1)
		g.Screenshots = append(g.Screenshots, models.Screenshot{
			ID:    "igdb-" + lastSegment(ss.URL),
			Image: full,
		})
	}

	if len(s.Videos) > 0 {
		vids := make([]models.NamedVideo, 0, len(s.Videos))
		for _, v := range s.Videos {
			vids = append(vids, models.NamedVideo{Name: v.Name, VideoID: v.VideoID})
		}
		g.Video = &models.VideoData{Source: models.SourceIGDB, Videos: vids}
	}

	// deterministic keyword order: map iteration would reshuffle tags
	// between otherwise identical merges
	kwIDs := make([]int, 0, len(in.Keywords))
	for id := range in.Keywords {
		kwIDs = append(kwIDs, id)
	}
	sort.Ints(kwIDs)
	for _, id := range kwIDs {
		g.Tags = append(g.Tags, models.Tag{Name: in.Keywords[id], Source: models.SourceIGDB})
	}

	g.AgeRatings = resolveAgeRatings(in)
	g.LanguageSupport = foldLanguageSupport(in)
	g.CompletionTimes = normalizeCompletionTimes(in.TimeToBeat)
}

// resolveAgeRatings joins each raw rating tuple against the three resolved
// taxonomy maps. A reference missing from its map degrades to a placeholder
// label rather than dropping the rating.
func resolveAgeRatings(in MergeInput) []models.AgeRating {
	if len(in.AgeRatings) == 0 {
		return nil
	}
	out := make([]models.AgeRating, 0, len(in.AgeRatings))
	for _, ar := range in.AgeRatings {
		org := in.Organizations[ar.Organization]
		if org == "" {
			org = "Unknown Org"
		}
		rating := in.Categories[ar.RatingCategory]
		if rating == "" {
			rating = "Not Rated"
		}
		var descs []string
		for _, id := range ar.ContentDescriptions {
			if d := in.Descriptions[id]; d != "" {
				descs = append(descs, d)
			}
		}
		out = append(out, models.AgeRating{
			Organization:        org,
			Rating:              rating,
			ContentDescriptions: descs,
		})
	}
	return out
}

// rawgOrgNames maps RAWG's numeric age-rating category codes to rating
// bodies. Codes outside the table pass through as Unknown.
var rawgOrgNames = map[int]string{
	1: "ESRB",
	2: "PEGI",
	3: "CERO",
	4: "USK",
	5: "GRAC",
	6: "CLASSIND",
	7: "ACB",
}

// primaryAgeRatings is the fallback when IGDB yields nothing: RAWG embeds
// already-resolved labels, so no further joins are needed.
func primaryAgeRatings(p *providers.RAWGGame) []models.AgeRating {
	var out []models.AgeRating
	if p.ESRBRating != nil && p.ESRBRating.Name != "" {
		out = append(out, models.AgeRating{Organization: "ESRB", Rating: p.ESRBRating.Name})
	}
	for _, ar := range p.AgeRatings {
		org := rawgOrgNames[ar.Category]
		if org == "" {
			org = "Unknown"
		}
		rating := ar.Title
		if rating == "" {
			rating = ar.Description
		}
		if rating == "" {
			rating = strconv.Itoa(ar.Rating)
		}
		out = append(out, models.AgeRating{Organization: org, Rating: rating})
	}
	return out
}

// foldLanguageSupport ORs each resolved support-type into the per-language
// flag record. Languages with no input rows never appear in the map.
func foldLanguageSupport(in MergeInput) map[string]models.LanguageFlags {
	if len(in.LanguageSupports) == 0 {
		return nil
	}
	out := make(map[string]models.LanguageFlags)
	for _, ls := range in.LanguageSupports {
		lang := in.Languages[ls.Language]
		typ := strings.ToLower(in.SupportTypes[ls.SupportType])
		if lang == "" || typ == "" {
			continue
		}
		flags := out[lang]
		if strings.Contains(typ, "audio") {
			flags.Audio = true
		}
		if strings.Contains(typ, "subtitles") {
			flags.Subtitles = true
		}
		if strings.Contains(typ, "interface") {
			flags.Interface = true
		}
		out[lang] = flags
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func normalizeCompletionTimes(t *providers.IGDBTimeToBeat) *models.CompletionTimes {
	if t == nil {
		return nil
	}
	ct := &models.CompletionTimes{
		Hastily:    normalizeTime(t.Hastily),
		Normally:   normalizeTime(t.Normally),
		Completely: normalizeTime(t.Completely),
	}
	if ct.Hastily == nil && ct.Normally == nil && ct.Completely == nil {
		return nil
	}
	return ct
}

// normalizeTime converts a raw (value, unit) pair to whole hours.
// Unrecognized units are treated as already-hours.
func normalizeTime(f *providers.IGDBTimeField) *models.TimeToBeat {
	if f == nil {
		return nil
	}
	hours := f.Value
	switch f.Unit {
	case "s":
		hours = f.Value / 3600
	case "m":
		hours = f.Value / 60
	}
	return &models.TimeToBeat{Value: int(math.Round(hours)), Unit: "h"}
}

// dedupeFold removes case-insensitive duplicates, keeping first occurrence.
func dedupeFold(vals []string) []string {
	if len(vals) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(vals))
	out := vals[:0]
	for _, v := range vals {
		k := strings.ToLower(strings.TrimSpace(v))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}

// dedupeScreenshots drops entries whose URL, with the query string
// stripped, was already seen. First occurrence order is preserved.
func dedupeScreenshots(shots []models.Screenshot) []models.Screenshot {
	if len(shots) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(shots))
	out := shots[:0]
	for _, ss := range shots {
		url := ss.Image
		if i := strings.IndexByte(url, '?'); i >= 0 {
			url = url[:i]
		}
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true
		out = append(out, ss)
	}
	return out
}

// dedupeTags keeps the first tag per case-insensitive name, so RAWG entries
// (appended first) win collisions against IGDB keywords.
func dedupeTags(tags []models.Tag) []models.Tag {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := tags[:0]
	for _, t := range tags {
		k := strings.ToLower(strings.TrimSpace(t.Name))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, t)
	}
	return out
}

func names(n int, get func(int) string) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, get(i))
	}
	return out
}

func lastSegment(url string) string {
	if i := strings.LastIndexByte(url, '/'); i >= 0 {
		return url[i+1:]
	}
	return url
}
