package unify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamehub/internal/providers"
)

func rawgGame(name, released string, platforms, developers []string) *providers.RAWGGame {
	g := &providers.RAWGGame{ID: 42, Name: name, Released: released}
	for _, p := range platforms {
		var pl struct {
			Platform struct {
				Name string `json:"name"`
				Slug string `json:"slug"`
			} `json:"platform"`
		}
		pl.Platform.Name = p
		g.Platforms = append(g.Platforms, pl)
	}
	for _, d := range developers {
		g.Developers = append(g.Developers, struct {
			Name string `json:"name"`
		}{Name: d})
	}
	return g
}

func candidate(id int, name string, year int, platforms, companies []string) providers.IGDBCandidate {
	c := providers.IGDBCandidate{ID: id, Name: name}
	if year > 0 {
		c.FirstReleaseDate = time.Date(year, 6, 1, 0, 0, 0, 0, time.UTC).Unix()
	}
	for _, p := range platforms {
		c.Platforms = append(c.Platforms, struct {
			Name string `json:"name"`
		}{Name: p})
	}
	for _, co := range companies {
		var ic struct {
			Company struct {
				Name string `json:"name"`
			} `json:"company"`
		}
		ic.Company.Name = co
		c.InvolvedCompanies = append(c.InvolvedCompanies, ic)
	}
	return c
}

func TestFindBestMatchNameAndYearClearsFloor(t *testing.T) {
	// exact name (strong +2, exact +2) + year (+2) = 6 >= 5
	game := rawgGame("The Witcher 3: Wild Hunt", "2015-05-18", nil, nil)
	cands := []providers.IGDBCandidate{
		candidate(1905, "The Witcher 3: Wild Hunt", 2015, nil, nil),
	}

	got := FindBestMatch(game, cands)
	require.NotNil(t, got)
	assert.Equal(t, 1905, got.ID)
}

func TestFindBestMatchNameOnlyRejected(t *testing.T) {
	// exact name but nothing else: 2+2 = 4 < 5
	game := rawgGame("Celeste", "", nil, nil)
	cands := []providers.IGDBCandidate{
		candidate(7, "Celeste", 0, nil, nil),
	}

	assert.Nil(t, FindBestMatch(game, cands))
}

func TestFindBestMatchWeakSignalsRejected(t *testing.T) {
	// "halo wars" vs "halo wars 2000" normalizes to 5/14 ~ 0.36: accepted
	// but not strong, so name (+1) + platform overlap (+1) = 2 < 5
	game := rawgGame("Halo Wars", "", []string{"PC"}, nil)
	cands := []providers.IGDBCandidate{
		candidate(9, "Halo Wars 2000", 0, []string{"PC"}, nil),
	}

	assert.Nil(t, FindBestMatch(game, cands))
}

func TestFindBestMatchPlatformAndCompanyOverlap(t *testing.T) {
	// exact name (4) + platform (+1) + company (+1) = 6, no year needed
	game := rawgGame("Hades", "", []string{"PC", "Nintendo Switch"}, []string{"Supergiant Games"})
	cands := []providers.IGDBCandidate{
		candidate(11, "Hades", 0, []string{"pc"}, []string{"supergiant games"}),
	}

	got := FindBestMatch(game, cands)
	require.NotNil(t, got)
	assert.Equal(t, 11, got.ID)
}

func TestFindBestMatchUsesAlternateNames(t *testing.T) {
	game := rawgGame("Biohazard Village", "2021-05-07", nil, nil)
	cand := candidate(500, "Resident Evil Village", 2021, nil, nil)
	cand.AlternativeNames = []struct {
		Name string `json:"name"`
	}{{Name: "Biohazard Village"}}

	got := FindBestMatch(game, []providers.IGDBCandidate{cand})
	require.NotNil(t, got)
	assert.Equal(t, 500, got.ID)
}

func TestFindBestMatchPicksHighestScore(t *testing.T) {
	game := rawgGame("Doom", "2016-05-13", []string{"PC"}, nil)
	cands := []providers.IGDBCandidate{
		candidate(1, "Doom", 1993, nil, nil),          // exact+strong, wrong year: 4
		candidate(2, "Doom", 2016, []string{"PC"}, nil), // exact+strong+year+platform: 7
	}

	got := FindBestMatch(game, cands)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.ID)
}

func TestFindBestMatchTieKeepsFirst(t *testing.T) {
	game := rawgGame("Tetris", "1989-06-14", nil, nil)
	cands := []providers.IGDBCandidate{
		candidate(1, "Tetris", 1989, nil, nil),
		candidate(2, "Tetris", 1989, nil, nil),
	}

	got := FindBestMatch(game, cands)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.ID)
}

func TestFindBestMatchDissimilarNamesDiscarded(t *testing.T) {
	game := rawgGame("Stardew Valley", "2016-02-26", []string{"PC"}, []string{"ConcernedApe"})
	cands := []providers.IGDBCandidate{
		candidate(3, "Factorio", 2016, []string{"PC"}, []string{"ConcernedApe"}),
	}

	assert.Nil(t, FindBestMatch(game, cands))
}

func TestFindBestMatchEmptyInputs(t *testing.T) {
	assert.Nil(t, FindBestMatch(nil, nil))
	assert.Nil(t, FindBestMatch(rawgGame("X", "", nil, nil), nil))
}

func TestNameDistance(t *testing.T) {
	assert.Equal(t, 0.0, nameDistance("portal", "portal"))
	assert.InDelta(t, 0.125, nameDistance("portal 2", "portal 3"), 0.001)
	assert.Greater(t, nameDistance("portal", "half-life"), matchAcceptDistance)
}
