package unify

import (
	"strings"
	"time"

	"gamehub/internal/providers"
)

// Matching thresholds. Distances are normalized edit distances in [0,1]
// (0 = identical). These reproduce the site's observed behavior and are
// policy, not contract.
const (
	matchAcceptDistance = 0.4 // candidates worse than this are discarded
	matchStrongDistance = 0.3 // below this the name signal scores double
	matchMinScore       = 5   // confidence floor on the 0-8 scale
)

// FindBestMatch decides which IGDB candidate, if any, is the same game as
// the RAWG record. Each candidate is scored 0-8 from independent signals;
// the best candidate wins only if it clears the confidence floor. Ties keep
// the earlier candidate. Returns nil when nothing clears the floor.
func FindBestMatch(game *providers.RAWGGame, candidates []providers.IGDBCandidate) *providers.IGDBCandidate {
	if game == nil || len(candidates) == 0 {
		return nil
	}

	rawgName := strings.ToLower(strings.TrimSpace(game.Name))
	rawgYear := releaseYear(game.Released)

	var best *providers.IGDBCandidate
	bestScore := 0

	for i := range candidates {
		cand := &candidates[i]

		// searchable name set: main name plus alternates
		names := make([]string, 0, 1+len(cand.AlternativeNames))
		names = append(names, strings.ToLower(strings.TrimSpace(cand.Name)))
		for _, alt := range cand.AlternativeNames {
			names = append(names, strings.ToLower(strings.TrimSpace(alt.Name)))
		}

		dist := 1.0
		exact := false
		for _, n := range names {
			if n == "" {
				continue
			}
			if n == rawgName {
				exact = true
			}
			if d := nameDistance(rawgName, n); d < dist {
				dist = d
			}
		}
		if dist > matchAcceptDistance {
			continue
		}

		score := 1
		if dist < matchStrongDistance {
			score = 2
		}
		if exact {
			score += 2
		}
		if rawgYear > 0 && cand.FirstReleaseDate > 0 &&
			time.Unix(cand.FirstReleaseDate, 0).UTC().Year() == rawgYear {
			score += 2
		}
		if platformOverlap(game, cand) {
			score++
		}
		if companyOverlap(game, cand) {
			score++
		}

		if best == nil || score > bestScore {
			best = cand
			bestScore = score
		}
	}

	if bestScore < matchMinScore {
		return nil
	}
	return best
}

func releaseYear(released string) int {
	t, err := time.Parse("2006-01-02", released)
	if err != nil {
		return 0
	}
	return t.Year()
}

func platformOverlap(game *providers.RAWGGame, cand *providers.IGDBCandidate) bool {
	if len(game.Platforms) == 0 || len(cand.Platforms) == 0 {
		return false
	}
	seen := make(map[string]bool, len(game.Platforms))
	for _, p := range game.Platforms {
		seen[strings.ToLower(p.Platform.Name)] = true
	}
	for _, p := range cand.Platforms {
		if seen[strings.ToLower(p.Name)] {
			return true
		}
	}
	return false
}

func companyOverlap(game *providers.RAWGGame, cand *providers.IGDBCandidate) bool {
	if len(game.Developers) == 0 || len(cand.InvolvedCompanies) == 0 {
		return false
	}
	seen := make(map[string]bool, len(game.Developers))
	for _, d := range game.Developers {
		seen[strings.ToLower(d.Name)] = true
	}
	for _, ic := range cand.InvolvedCompanies {
		if seen[strings.ToLower(ic.Company.Name)] {
			return true
		}
	}
	return false
}

// nameDistance is the Levenshtein distance between two already-lowercased
// names, normalized by the longer length.
func nameDistance(a, b string) float64 {
	if a == b {
		return 0
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 0
	}
	return float64(levenshtein(a, b)) / float64(maxLen)
}

func levenshtein(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}
	return prev[len(s2)]
}
