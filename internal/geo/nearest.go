package geo

import (
	"github.com/jusunglee/polaris/internal/models"
)

// Nearest returns the candidate closest to q.
// Ties go to the earliest candidate in input order.
func Nearest(q models.Coordinate, candidates []models.Station) (models.Station, error) {
	if len(candidates) == 0 {
		return models.Station{}, models.ErrEmptyCandidateSet
	}

	best := 0
	bestDist := Distance(q, candidates[0].Location)
	for i := 1; i < len(candidates); i++ {
		if d := Distance(q, candidates[i].Location); d < bestDist {
			best, bestDist = i, d
		}
	}

	return candidates[best], nil
}
