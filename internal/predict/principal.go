package predict

import (
	"log/slog"

	"github.com/moviefestival/forecaster/internal/models"
)

// PrincipalFactor is the category weight of the principal component
const PrincipalFactor = 0.3

// RoleOther is the boost key used for roles missing from RoleBoosts
const RoleOther = "other"

// RoleBoosts weights credits by how much a role shapes a movie
var RoleBoosts = map[string]float64{
	"director": 2.0,
	"producer": 1.6,
	"writer":   1.6,
	"actor":    1.2,
	RoleOther:  1.0,
}

// RoleBoost returns the boost for role, falling back to RoleOther
func RoleBoost(role string) float64 {
	if boost, ok := RoleBoosts[role]; ok {
		return boost
	}
	return RoleBoosts[RoleOther]
}

// PrincipalAverage holds the weighted average rating for one queried principal
type PrincipalAverage struct {
	Name    string  `json:"name" yaml:"name"`
	Role    string  `json:"role" yaml:"role"`
	Average float64 `json:"average" yaml:"average"`
	Credits int     `json:"credits" yaml:"credits"`
	Matched int     `json:"matched_role" yaml:"matched_role"`
}

// PrincipalComponent averages the ratings of movies crediting each requested
// principal. A credit whose role equals the queried role is boosted; other
// credits of the same person still count at their temporal weight. The
// per-principal averages are blended by role boost and the result carries
// PrincipalFactor as its weight.
func PrincipalComponent(principals []models.Principal, rows []models.PrincipalRating, weights TemporalWeights) (Component, []PrincipalAverage) {
	principals = uniquePrincipals(principals)
	if len(principals) == 0 {
		return Component{}, nil
	}

	byName := make(map[string][]models.PrincipalRating, len(principals))
	for _, row := range rows {
		byName[row.Name] = append(byName[row.Name], row)
	}

	var tempScore, tempWeight float64
	var averages []PrincipalAverage

	for _, p := range principals {
		boost := RoleBoost(p.Role)

		var ratingSum, weightSum float64
		var credits, matched int
		for _, row := range byName[p.Name] {
			w, ok := weights[row.MovieID]
			if !ok {
				slog.Debug("Skipping credit without release year", "movie_id", row.MovieID, "name", row.Name)
				continue
			}
			if row.Role == p.Role {
				w *= boost
				matched++
			}
			ratingSum += row.AvgRating * w
			weightSum += w
			credits++
		}

		if weightSum <= 0 {
			continue
		}
		avg := ratingSum / weightSum
		averages = append(averages, PrincipalAverage{
			Name:    p.Name,
			Role:    p.Role,
			Average: avg,
			Credits: credits,
			Matched: matched,
		})

		if avg <= 0 {
			continue
		}
		tempScore += avg * boost
		tempWeight += boost
	}

	if tempScore <= 0 {
		return Component{}, averages
	}

	return Component{
		Score:  tempScore / tempWeight * PrincipalFactor,
		Weight: PrincipalFactor,
	}, averages
}

func uniquePrincipals(principals []models.Principal) []models.Principal {
	seen := make(map[models.Principal]bool, len(principals))
	out := make([]models.Principal, 0, len(principals))
	for _, p := range principals {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
