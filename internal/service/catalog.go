package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/arteza/studio/internal/domain"
	"github.com/arteza/studio/internal/remote"
	apperrors "github.com/arteza/studio/pkg/errors"
	"github.com/arteza/studio/pkg/pagination"
)

const (
	// recommendPoolSize is how many available artworks the recommender scores.
	recommendPoolSize = 200
	// DefaultRecommendations is the number of picks returned when the caller
	// does not ask for a specific count.
	DefaultRecommendations = 6
	// budgetStretch lets a piece slightly over budget through with a lower score.
	budgetStretch = 1.2
)

// CatalogService serves the gallery and the style quiz.
type CatalogService struct {
	artworks remote.ArtworkRepository
	logger   *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(artworks remote.ArtworkRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		artworks: artworks,
		logger:   logger,
	}
}

// ListArtworks returns one gallery page.
func (s *CatalogService) ListArtworks(ctx context.Context, filter domain.ArtworkFilter, page pagination.Params) (pagination.Result[domain.Artwork], error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return pagination.Result[domain.Artwork]{}, apperrors.InvalidInput("min_price must not exceed max_price")
	}
	switch filter.Sort {
	case "", domain.SortNewest, domain.SortPriceAsc, domain.SortPriceDesc, domain.SortTitle:
	default:
		return pagination.Result[domain.Artwork]{}, apperrors.InvalidInput(fmt.Sprintf("unknown sort order %q", filter.Sort))
	}

	filter.Limit = page.PerPage
	filter.Offset = page.Offset

	items, total, err := s.artworks.ListArtworks(ctx, filter)
	if err != nil {
		return pagination.Result[domain.Artwork]{}, fmt.Errorf("list artworks: %w", err)
	}
	return pagination.NewResult(items, total, page), nil
}

// GetArtwork returns a single artwork.
func (s *CatalogService) GetArtwork(ctx context.Context, id string) (*domain.Artwork, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("artwork id is required")
	}
	art, err := s.artworks.GetArtwork(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get artwork %s: %w", id, err)
	}
	return art, nil
}

// QuizAnswers are the style quiz answers the recommender scores against.
// Empty answers do not influence the score.
type QuizAnswers struct {
	Mood   string
	Colors []string
	Size   string
	Budget float64
	Limit  int
}

// Recommendation is one scored artwork with the reasons it was picked.
type Recommendation struct {
	Artwork domain.Artwork `json:"artwork"`
	Score   float64        `json:"score"`
	Reasons []string       `json:"reasons"`
}

// Recommend scores available artworks against the quiz answers and returns
// the best matches, highest score first.
func (s *CatalogService) Recommend(ctx context.Context, answers QuizAnswers) ([]Recommendation, error) {
	if answers.Budget < 0 {
		return nil, apperrors.InvalidInput("budget must not be negative")
	}
	answers.Colors = distinctFold(answers.Colors)
	if answers.Mood == "" && len(answers.Colors) == 0 && answers.Size == "" && answers.Budget == 0 {
		return nil, apperrors.InvalidInput("at least one quiz answer is required")
	}
	limit := answers.Limit
	if limit <= 0 {
		limit = DefaultRecommendations
	}

	pool, _, err := s.artworks.ListArtworks(ctx, domain.ArtworkFilter{
		AvailableOnly: true,
		Sort:          domain.SortNewest,
		Limit:         recommendPoolSize,
	})
	if err != nil {
		return nil, fmt.Errorf("load recommendation pool: %w", err)
	}

	recs := make([]Recommendation, 0, len(pool))
	for _, art := range pool {
		if rec, ok := score(art, answers); ok {
			recs = append(recs, rec)
		}
	}

	slices.SortStableFunc(recs, func(a, b Recommendation) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		case a.Artwork.Price < b.Artwork.Price:
			return -1
		case a.Artwork.Price > b.Artwork.Price:
			return 1
		}
		return 0
	})
	if len(recs) > limit {
		recs = recs[:limit]
	}

	s.logger.DebugContext(ctx, "recommendations computed",
		slog.Int("pool", len(pool)),
		slog.Int("returned", len(recs)),
	)
	return recs, nil
}

// score rates one artwork. Pieces beyond the stretched budget or with no
// matching answer at all are dropped.
func score(art domain.Artwork, a QuizAnswers) (Recommendation, bool) {
	rec := Recommendation{Artwork: art, Reasons: []string{}}

	if a.Budget > 0 {
		switch {
		case art.Price <= a.Budget:
			rec.Score += 2
			rec.Reasons = append(rec.Reasons, "within budget")
		case art.Price <= a.Budget*budgetStretch:
			rec.Score += 0.5
			rec.Reasons = append(rec.Reasons, "slightly over budget")
		default:
			return Recommendation{}, false
		}
	}

	if a.Mood != "" && containsFold(art.MoodTags, a.Mood) {
		rec.Score += 3
		rec.Reasons = append(rec.Reasons, "matches mood "+strings.ToLower(a.Mood))
	}

	var colorHits int
	for _, c := range a.Colors {
		if containsFold(art.DominantColors, c) {
			colorHits++
		}
	}
	if colorHits > 0 {
		rec.Score += 2 * float64(colorHits)
		if colorHits == 1 {
			rec.Reasons = append(rec.Reasons, "1 matching colour")
		} else {
			rec.Reasons = append(rec.Reasons, fmt.Sprintf("%d matching colours", colorHits))
		}
	}

	if a.Size != "" && strings.EqualFold(art.SizeCategory, a.Size) {
		rec.Score += 1.5
		rec.Reasons = append(rec.Reasons, "fits size "+strings.ToLower(a.Size))
	}

	if rec.Score == 0 {
		return Recommendation{}, false
	}
	return rec, true
}

// distinctFold lower-cases and trims values, dropping blanks and repeats.
// Order of first occurrence is kept.
func distinctFold(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func containsFold(values []string, want string) bool {
	return slices.ContainsFunc(values, func(v string) bool {
		return strings.EqualFold(v, want)
	})
}
