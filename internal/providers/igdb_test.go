package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIGDBClient(t *testing.T, handler http.HandlerFunc) (*IGDBClient, *atomic.Int32) {
	t.Helper()

	var tokenCalls atomic.Int32
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "test-id", r.PostForm.Get("client_id"))
		fmt.Fprint(w, `{"access_token":"tok-1","expires_in":3600}`)
	}))
	t.Cleanup(tokenSrv.Close)

	apiSrv := httptest.NewServer(handler)
	t.Cleanup(apiSrv.Close)

	c := NewIGDBClient("test-id", "test-secret")
	c.BaseURL = apiSrv.URL
	c.TokenURL = tokenSrv.URL
	return c, &tokenCalls
}

func TestIGDBTokenFetchedOnceWhileValid(t *testing.T) {
	c, tokenCalls := testIGDBClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "test-id", r.Header.Get("Client-ID"))
		fmt.Fprint(w, `[]`)
	})

	ctx := context.Background()
	_, err := c.CandidatesBySlug(ctx, "celeste")
	require.NoError(t, err)
	_, err = c.CandidatesBySlug(ctx, "hades")
	require.NoError(t, err)

	assert.EqualValues(t, 1, tokenCalls.Load())
}

func TestIGDBCandidatesBySlugQuery(t *testing.T) {
	c, _ := testIGDBClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/games", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `where slug = "celeste"`)
		fmt.Fprint(w, `[{"id":7,"name":"Celeste","slug":"celeste","first_release_date":1453161600}]`)
	})

	got, err := c.CandidatesBySlug(context.Background(), "celeste")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0].ID)
	assert.Equal(t, "Celeste", got[0].Name)
}

func TestIGDBSearchCandidatesIncludesYear(t *testing.T) {
	c, _ := testIGDBClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "release_dates.y = 2018")
		fmt.Fprint(w, `[]`)
	})

	_, err := c.SearchCandidates(context.Background(), "Celeste", "celeste", 2018)
	require.NoError(t, err)
}

func TestIGDBGameByIDEmptyResult(t *testing.T) {
	c, _ := testIGDBClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})

	got, err := c.GameByID(context.Background(), 404404)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestIGDBNamesByIDsFieldSelection(t *testing.T) {
	c, _ := testIGDBClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":1,"name":"ESRB","rating":"Mature 17+","description":"Blood"}]`)
	})

	ctx := context.Background()

	names, err := c.NamesByIDs(ctx, "age_rating_organizations", "name", []int{1})
	require.NoError(t, err)
	assert.Equal(t, "ESRB", names[1])

	ratings, err := c.NamesByIDs(ctx, "age_rating_categories", "rating", []int{1})
	require.NoError(t, err)
	assert.Equal(t, "Mature 17+", ratings[1])

	descs, err := c.NamesByIDs(ctx, "age_rating_content_descriptions", "description", []int{1})
	require.NoError(t, err)
	assert.Equal(t, "Blood", descs[1])
}

func TestIGDBNamesByIDsEmptyInput(t *testing.T) {
	c := NewIGDBClient("id", "secret") // never reaches the network
	got, err := c.NamesByIDs(context.Background(), "keywords", "name", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIGDBTimeFieldUnmarshal(t *testing.T) {
	cases := []struct {
		in    string
		value float64
		unit  string
	}{
		{`{"amount": 7200, "unit": "s"}`, 7200, "s"},
		{`{"value": 90, "unit": "M"}`, 90, "m"},
		{`25200`, 25200, "s"}, // bare big number, assumed seconds
		{`52`, 52, "h"},       // bare small number, assumed hours
	}
	for _, tc := range cases {
		var f IGDBTimeField
		require.NoError(t, json.Unmarshal([]byte(tc.in), &f), tc.in)
		assert.Equal(t, tc.value, f.Value, tc.in)
		assert.Equal(t, tc.unit, f.Unit, tc.in)
	}
}

func TestJoinInts(t *testing.T) {
	assert.Equal(t, "", joinInts(nil))
	assert.Equal(t, "7", joinInts([]int{7}))
	assert.Equal(t, "1,2,3", joinInts([]int{1, 2, 3}))
}
