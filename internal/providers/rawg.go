package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"gamehub/pkg/models"
)

// RAWG API base (public, key-authenticated)
const rawgBase = "https://api.rawg.io/api"

// RAWGClient fetches game records from RAWG, the broad-coverage catalog.
type RAWGClient struct {
	BaseURL string
	Key     string
	Client  *http.Client
}

func NewRAWGClient(key string) *RAWGClient {
	return &RAWGClient{
		BaseURL: rawgBase,
		Key:     key,
		Client:  &http.Client{Timeout: 12 * time.Second},
	}
}

// RAWGGame is RAWG's wire shape for a single game lookup.
type RAWGGame struct {
	ID          int    `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Released    string `json:"released"` // "2015-05-18"
	Description string `json:"description_raw"`
	Website     string `json:"website"`
	Platforms   []struct {
		Platform struct {
			Name string `json:"name"`
			Slug string `json:"slug"`
		} `json:"platform"`
	} `json:"platforms"`
	Developers []struct {
		Name string `json:"name"`
	} `json:"developers"`
	Stores []struct {
		Store struct {
			Name string `json:"name"`
			Slug string `json:"slug"`
		} `json:"store"`
	} `json:"stores"`
	Genres []struct {
		Name string `json:"name"`
	} `json:"genres"`
	Clip *struct {
		Clip    string `json:"clip"`
		Preview string `json:"preview"`
	} `json:"clip"`
	ESRBRating *struct {
		Name string `json:"name"`
	} `json:"esrb_rating"`
	AgeRatings []RAWGAgeRating `json:"age_ratings"`
	Tags       []struct {
		Name string `json:"name"`
	} `json:"tags"`
}

// RAWGAgeRating is RAWG's embedded (already-resolved) rating shape.
// Category is a source-specific numeric org code, mapped by the merge step.
type RAWGAgeRating struct {
	Category    int    `json:"category"`
	Rating      int    `json:"rating"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type RAWGScreenshot struct {
	ID    int    `json:"id"`
	Image string `json:"image"`
}

type RAWGSearchPage struct {
	Count   int                  `json:"count"`
	Next    string               `json:"next"`
	Results []models.RelatedGame `json:"results"`
}

func (c *RAWGClient) get(ctx context.Context, path string, params url.Values, out any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return fmt.Errorf("rawg: parse url: %w", err)
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("key", c.Key)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("rawg: build request: %w", err)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("rawg: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errRAWGNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("rawg: status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("rawg: decode: %w", err)
	}
	return nil
}

var errRAWGNotFound = fmt.Errorf("rawg: not found")

// GameBySlug fetches one game by slug. A 404 is not an error: it returns
// (nil, nil) so the caller can try the search fallback.
func (c *RAWGClient) GameBySlug(ctx context.Context, slug string) (*RAWGGame, error) {
	var g RAWGGame
	if err := c.get(ctx, "/games/"+url.PathEscape(slug), nil, &g); err != nil {
		if err == errRAWGNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

// Search runs RAWG free-text search, ranked the way the site ranks it.
func (c *RAWGClient) Search(ctx context.Context, query string, page int) (*RAWGSearchPage, error) {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("search", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", "20")
	params.Set("ordering", "-added,-rating,-metacritic")

	var p RAWGSearchPage
	if err := c.get(ctx, "/games", params, &p); err != nil {
		if err == errRAWGNotFound {
			return &RAWGSearchPage{}, nil
		}
		return nil, err
	}
	return &p, nil
}

func (c *RAWGClient) Screenshots(ctx context.Context, gameID int) ([]RAWGScreenshot, error) {
	var page struct {
		Results []RAWGScreenshot `json:"results"`
	}
	if err := c.get(ctx, fmt.Sprintf("/games/%d/screenshots", gameID), nil, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

func (c *RAWGClient) related(ctx context.Context, gameID int, kind string) ([]models.RelatedGame, error) {
	params := url.Values{}
	params.Set("page_size", "20")
	var page struct {
		Results []models.RelatedGame `json:"results"`
	}
	if err := c.get(ctx, fmt.Sprintf("/games/%d/%s", gameID, kind), params, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// Additions lists DLC and editions for a game.
func (c *RAWGClient) Additions(ctx context.Context, gameID int) ([]models.RelatedGame, error) {
	return c.related(ctx, gameID, "additions")
}

// Series lists other games in the same series.
func (c *RAWGClient) Series(ctx context.Context, gameID int) ([]models.RelatedGame, error) {
	return c.related(ctx, gameID, "game-series")
}

// ParentGames lists the base titles a DLC or edition belongs to.
func (c *RAWGClient) ParentGames(ctx context.Context, gameID int) ([]models.RelatedGame, error) {
	return c.related(ctx, gameID, "parent-games")
}
