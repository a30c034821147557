package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRAWGClient(t *testing.T, handler http.HandlerFunc) *RAWGClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewRAWGClient("test-key")
	c.BaseURL = srv.URL
	return c
}

func TestRAWGGameBySlug(t *testing.T) {
	c := testRAWGClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/games/celeste", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		fmt.Fprint(w, `{
			"id": 7,
			"slug": "celeste",
			"name": "Celeste",
			"released": "2018-01-25",
			"platforms": [{"platform": {"name": "PC", "slug": "pc"}}],
			"genres": [{"name": "Platformer"}],
			"esrb_rating": {"name": "Everyone 10+"}
		}`)
	})

	got, err := c.GameBySlug(context.Background(), "celeste")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 7, got.ID)
	assert.Equal(t, "Celeste", got.Name)
	assert.Equal(t, "2018-01-25", got.Released)
	require.Len(t, got.Platforms, 1)
	assert.Equal(t, "PC", got.Platforms[0].Platform.Name)
	require.NotNil(t, got.ESRBRating)
	assert.Equal(t, "Everyone 10+", got.ESRBRating.Name)
}

func TestRAWGGameBySlugNotFound(t *testing.T) {
	c := testRAWGClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	got, err := c.GameBySlug(context.Background(), "no-such-game")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRAWGGameBySlugServerError(t *testing.T) {
	c := testRAWGClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broke", http.StatusBadGateway)
	})

	_, err := c.GameBySlug(context.Background(), "celeste")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestRAWGSearchParams(t *testing.T) {
	c := testRAWGClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/games", r.URL.Path)
		assert.Equal(t, "celeste", q.Get("search"))
		assert.Equal(t, "1", q.Get("page"))
		assert.Equal(t, "20", q.Get("page_size"))
		assert.Equal(t, "-added,-rating,-metacritic", q.Get("ordering"))
		fmt.Fprint(w, `{"count": 1, "results": [{"id": 7, "slug": "celeste", "name": "Celeste"}]}`)
	})

	page, err := c.Search(context.Background(), "celeste", 0)
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "celeste", page.Results[0].Slug)
}

func TestRAWGScreenshots(t *testing.T) {
	c := testRAWGClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/games/7/screenshots", r.URL.Path)
		fmt.Fprint(w, `{"results": [{"id": 1, "image": "https://media.rawg.io/a.jpg"}]}`)
	})

	shots, err := c.Screenshots(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, shots, 1)
	assert.Equal(t, "https://media.rawg.io/a.jpg", shots[0].Image)
}

func TestRAWGRelatedEndpoints(t *testing.T) {
	var paths []string
	c := testRAWGClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		fmt.Fprint(w, `{"results": [{"id": 9, "slug": "celeste-farewell", "name": "Celeste: Farewell"}]}`)
	})

	ctx := context.Background()
	adds, err := c.Additions(ctx, 7)
	require.NoError(t, err)
	require.Len(t, adds, 1)
	assert.Equal(t, "celeste-farewell", adds[0].Slug)

	_, err = c.Series(ctx, 7)
	require.NoError(t, err)
	_, err = c.ParentGames(ctx, 7)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/games/7/additions",
		"/games/7/game-series",
		"/games/7/parent-games",
	}, paths)
}
