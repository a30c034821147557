package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	igdbBase      = "https://api.igdb.com/v4"
	igdbTokenURL  = "https://id.twitch.tv/oauth2/token"
	igdbRateLimit = 4 // requests per second enforced upstream
)

// IGDBClient fetches records from IGDB, the rich-classification catalog.
// Authentication goes through the Twitch OAuth client-credentials flow;
// the token lives on the client with an explicit expiry and is refreshed
// lazily, never shared through package state.
type IGDBClient struct {
	BaseURL  string
	TokenURL string
	ClientID string
	Secret   string
	Client   *http.Client

	limiter *rate.Limiter

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewIGDBClient(clientID, secret string) *IGDBClient {
	return &IGDBClient{
		BaseURL:  igdbBase,
		TokenURL: igdbTokenURL,
		ClientID: clientID,
		Secret:   secret,
		Client:   &http.Client{Timeout: 12 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(igdbRateLimit), igdbRateLimit),
	}
}

func (c *IGDBClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("client_id", c.ClientID)
	form.Set("client_secret", c.Secret)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("igdb: build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("igdb: token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("igdb: token status %d: %s", resp.StatusCode, string(body))
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("igdb: decode token: %w", err)
	}

	c.accessToken = tok.AccessToken
	// renew a minute early so in-flight queries never race the expiry
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	return c.accessToken, nil
}

// query POSTs an apicalypse body to an IGDB endpoint and decodes the result.
func (c *IGDBClient) query(ctx context.Context, endpoint, body string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("igdb: rate limit wait: %w", err)
	}

	tok, err := c.token(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/"+endpoint, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("igdb: build request: %w", err)
	}
	req.Header.Set("Client-ID", c.ClientID)
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("igdb: request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("igdb: %s status %d: %s", endpoint, resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("igdb: decode %s: %w", endpoint, err)
	}
	return nil
}

// IGDBCandidate is the slim shape used for identity matching.
type IGDBCandidate struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	Slug             string `json:"slug"`
	FirstReleaseDate int64  `json:"first_release_date"` // unix seconds
	Platforms        []struct {
		Name string `json:"name"`
	} `json:"platforms"`
	InvolvedCompanies []struct {
		Company struct {
			Name string `json:"name"`
		} `json:"company"`
	} `json:"involved_companies"`
	AlternativeNames []struct {
		Name string `json:"name"`
	} `json:"alternative_names"`
}

const candidateFields = `fields name, slug, first_release_date, platforms.name, involved_companies.company.name, alternative_names.name;`

// CandidatesBySlug is the cheap exact-slug lookup tried before fuzzy search.
func (c *IGDBClient) CandidatesBySlug(ctx context.Context, slug string) ([]IGDBCandidate, error) {
	body := fmt.Sprintf("%s where slug = %q; limit 3;", candidateFields, slug)
	var out []IGDBCandidate
	if err := c.query(ctx, "games", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchCandidates runs the fuzzy name+year fallback query.
func (c *IGDBClient) SearchCandidates(ctx context.Context, name, slug string, year int) ([]IGDBCandidate, error) {
	where := fmt.Sprintf("where (name ~ %q | slug = %q)", name, slug)
	if year > 0 {
		where += fmt.Sprintf(" & release_dates.y = %d", year)
	}
	body := fmt.Sprintf("%s %s; limit 10;", candidateFields, where)
	var out []IGDBCandidate
	if err := c.query(ctx, "games", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// IGDBGame is the full descriptive payload for one matched game.
type IGDBGame struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	Summary          string `json:"summary"`
	FirstReleaseDate int64  `json:"first_release_date"`
	Platforms        []struct {
		Name string `json:"name"`
	} `json:"platforms"`
	InvolvedCompanies []struct {
		Company struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"company"`
		Developer bool `json:"developer"`
		Publisher bool `json:"publisher"`
	} `json:"involved_companies"`
	GameModes []struct {
		Name string `json:"name"`
	} `json:"game_modes"`
	GameEngines []struct {
		Name string `json:"name"`
	} `json:"game_engines"`
	PlayerPerspectives []struct {
		Name string `json:"name"`
	} `json:"player_perspectives"`
	Themes []struct {
		Name string `json:"name"`
	} `json:"themes"`
	Franchises []struct {
		Name string `json:"name"`
	} `json:"franchises"`
	Genres []struct {
		Name string `json:"name"`
	} `json:"genres"`
	Videos []struct {
		Name    string `json:"name"`
		VideoID string `json:"video_id"`
	} `json:"videos"`
	Screenshots []struct {
		URL string `json:"url"`
	} `json:"screenshots"`
	AgeRatingIDs []int `json:"age_ratings"`
	KeywordIDs   []int `json:"keywords"`
	AltNames     []struct {
		Name string `json:"name"`
	} `json:"alternative_names"`
}

// GameByID fetches the full descriptive record for a matched IGDB game.
func (c *IGDBClient) GameByID(ctx context.Context, id int) (*IGDBGame, error) {
	body := fmt.Sprintf(`fields name, summary, first_release_date, platforms.name,
		involved_companies.company.id, involved_companies.company.name,
		involved_companies.developer, involved_companies.publisher,
		game_modes.name, game_engines.name, player_perspectives.name,
		themes.name, franchises.name, genres.name,
		videos.name, videos.video_id, screenshots.url,
		age_ratings, keywords, alternative_names.name;
		where id = %d; limit 1;`, id)

	var out []IGDBGame
	if err := c.query(ctx, "games", body, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

// NamesByIDs batch-resolves reference IDs to their display label on any of
// the small taxonomy endpoints (companies, languages, keywords, age-rating
// organizations/categories/content descriptions). field names which column
// carries the label on that endpoint.
func (c *IGDBClient) NamesByIDs(ctx context.Context, endpoint, field string, ids []int) (map[int]string, error) {
	if len(ids) == 0 {
		return map[int]string{}, nil
	}

	body := fmt.Sprintf("fields id,%s; where id = (%s); limit %d;",
		field, joinInts(ids), len(ids))

	var rows []struct {
		ID          int    `json:"id"`
		Name        string `json:"name"`
		Rating      string `json:"rating"`
		Description string `json:"description"`
	}
	if err := c.query(ctx, endpoint, body, &rows); err != nil {
		return nil, err
	}

	out := make(map[int]string, len(rows))
	for _, r := range rows {
		switch field {
		case "rating":
			out[r.ID] = r.Rating
		case "description":
			out[r.ID] = r.Description
		default:
			out[r.ID] = r.Name
		}
	}
	return out, nil
}

// IGDBAgeRating is the raw reference tuple resolved by the merge step's
// two-hop join: every field is an opaque ID into its own taxonomy endpoint.
type IGDBAgeRating struct {
	ID                  int   `json:"id"`
	Organization        int   `json:"organization"`
	RatingCategory      int   `json:"rating_category"`
	ContentDescriptions []int `json:"rating_content_descriptions"`
}

func (c *IGDBClient) AgeRatings(ctx context.Context, ids []int) ([]IGDBAgeRating, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	body := fmt.Sprintf("fields organization,rating_category,rating_content_descriptions; where id = (%s); limit %d;",
		joinInts(ids), len(ids))
	var out []IGDBAgeRating
	if err := c.query(ctx, "age_ratings", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// IGDBLanguageSupport pairs a language ref with a support-type ref.
type IGDBLanguageSupport struct {
	Language    int `json:"language"`
	SupportType int `json:"language_support_type"`
}

func (c *IGDBClient) LanguageSupports(ctx context.Context, gameID int) ([]IGDBLanguageSupport, error) {
	body := fmt.Sprintf("fields language,language_support_type; where game = %d; limit 500;", gameID)
	var out []IGDBLanguageSupport
	if err := c.query(ctx, "language_supports", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// IGDBTimeToBeat carries raw (value, unit) completion estimates. Fields are
// kept raw here; the merge step normalizes them to hours.
type IGDBTimeToBeat struct {
	Hastily    *IGDBTimeField `json:"hastily"`
	Normally   *IGDBTimeField `json:"normally"`
	Completely *IGDBTimeField `json:"completely"`
}

// IGDBTimeField decodes either {"amount": n, "unit": "s"} or a bare number.
// Bare numbers above 10000 are assumed to be seconds, anything else hours.
type IGDBTimeField struct {
	Value float64
	Unit  string
}

func (f *IGDBTimeField) UnmarshalJSON(b []byte) error {
	var obj struct {
		Amount float64 `json:"amount"`
		Value  float64 `json:"value"`
		Unit   string  `json:"unit"`
	}
	if err := json.Unmarshal(b, &obj); err == nil && (obj.Amount != 0 || obj.Value != 0) {
		v := obj.Amount
		if v == 0 {
			v = obj.Value
		}
		f.Value = v
		f.Unit = strings.ToLower(obj.Unit)
		return nil
	}

	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("time field: %s", string(b))
	}
	f.Value = n
	if n > 10000 {
		f.Unit = "s"
	} else {
		f.Unit = "h"
	}
	return nil
}

func (c *IGDBClient) TimeToBeat(ctx context.Context, gameID int) (*IGDBTimeToBeat, error) {
	body := fmt.Sprintf("fields *; where game_id = %d; limit 1;", gameID)
	var out []IGDBTimeToBeat
	if err := c.query(ctx, "game_time_to_beats", body, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

func joinInts(ids []int) string {
	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d", id)
	}
	return b.String()
}
