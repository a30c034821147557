package models

// GameCanonical is the normalized, internal form of a game entry.
//
// Both external catalogs are mapped into this structure by the unify
// package, then we cache and serve from this representation. Values are
// immutable once built; the cache hands out fresh copies on every read.
type GameCanonical struct {
	Slug     string `json:"slug"`              // our canonical key, stable
	RAWGID   int    `json:"rawg_id"`           // primary catalog ID
	IGDBID   int    `json:"igdb_id,omitempty"` // secondary catalog ID; 0 = no match
	Name     string `json:"name"`
	Released string `json:"released,omitempty"` // "2015-05-18"

	Summary     string `json:"summary,omitempty"`     // IGDB prose
	Description string `json:"description,omitempty"` // RAWG prose
	Website     string `json:"website,omitempty"`

	Platforms    []string `json:"platforms"`
	Stores       []Store  `json:"stores,omitempty"`
	Genres       []string `json:"genres,omitempty"`
	Themes       []string `json:"themes,omitempty"`
	GameModes    []string `json:"game_modes,omitempty"`
	Perspectives []string `json:"player_perspectives,omitempty"`
	Engines      []string `json:"game_engines,omitempty"`
	Franchises   []string `json:"franchises,omitempty"`
	Developers   []string `json:"developers,omitempty"`
	Publishers   []string `json:"publishers,omitempty"`
	AltNames     []string `json:"alternative_names,omitempty"`

	Screenshots []Screenshot `json:"screenshots,omitempty"`
	Video       *VideoData   `json:"video_data,omitempty"`
	Tags        []Tag        `json:"tags,omitempty"`

	AgeRatings      []AgeRating              `json:"age_ratings,omitempty"`
	LanguageSupport map[string]LanguageFlags `json:"supported_languages,omitempty"`
	CompletionTimes *CompletionTimes         `json:"completion_times,omitempty"`

	Additions   []RelatedGame `json:"additions,omitempty"`
	Series      []RelatedGame `json:"game_series,omitempty"`
	ParentGames []RelatedGame `json:"parent_games,omitempty"`
}

type Store struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Screenshot struct {
	ID    string `json:"id"`
	Image string `json:"image"`
}

// Source labels for provenance-tagged fields (tags, video union).
const (
	SourceIGDB = "igdb"
	SourceRAWG = "rawg"
)

// VideoData is a tagged union: Source selects exactly one of Videos
// (IGDB named clips) or Clip (RAWG single clip). The two are never mixed.
type VideoData struct {
	Source string       `json:"source"`
	Videos []NamedVideo `json:"videos,omitempty"`
	Clip   *Clip        `json:"clip,omitempty"`
}

type NamedVideo struct {
	Name    string `json:"name"`
	VideoID string `json:"video_id"`
}

type Clip struct {
	Clip    string `json:"clip"`
	Preview string `json:"preview,omitempty"`
}

type Tag struct {
	Name   string `json:"name"`
	Source string `json:"source"` // "rawg" or "igdb"
}

type AgeRating struct {
	Organization        string   `json:"organization"`
	Rating              string   `json:"rating"`
	ContentDescriptions []string `json:"content_descriptions,omitempty"`
}

type LanguageFlags struct {
	Audio     bool `json:"audio"`
	Subtitles bool `json:"subtitles"`
	Interface bool `json:"interface"`
}

// CompletionTimes holds normalized how-long-to-beat estimates.
// Absent estimates stay nil, never zero-filled.
type CompletionTimes struct {
	Hastily    *TimeToBeat `json:"hastily,omitempty"`
	Normally   *TimeToBeat `json:"normally,omitempty"`
	Completely *TimeToBeat `json:"completely,omitempty"`
}

// TimeToBeat is always normalized to hours by the merge step.
type TimeToBeat struct {
	Value int    `json:"value"`
	Unit  string `json:"unit"` // "h"
}

type RelatedGame struct {
	ID              int     `json:"id"`
	Name            string  `json:"name"`
	Slug            string  `json:"slug"`
	BackgroundImage string  `json:"background_image,omitempty"`
	Released        string  `json:"released,omitempty"`
	Rating          float64 `json:"rating,omitempty"`
	Metacritic      int     `json:"metacritic,omitempty"`
}
