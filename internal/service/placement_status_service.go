package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/internal/policy"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
)

type placedOfferReader interface {
	PlacedOffers(ctx context.Context, studentID string) ([]models.PlacedOffer, error)
}

type summaryCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// PlacementStatusService derives placement summaries from placed applications.
type PlacementStatusService struct {
	offers placedOfferReader
	ladder *policy.LadderEvaluator
	cache  summaryCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewPlacementStatusService constructs the service. cache may be nil.
func NewPlacementStatusService(offers placedOfferReader, ladder *policy.LadderEvaluator, cache summaryCache, ttl time.Duration, logger *zap.Logger) *PlacementStatusService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlacementStatusService{offers: offers, ladder: ladder, cache: cache, ttl: ttl, logger: logger}
}

func summaryCacheKey(studentID string) string {
	return fmt.Sprintf("placement:summary:%s", studentID)
}

// Summary returns the governed placed offers of a student. Cache failures fall back to the database.
func (s *PlacementStatusService) Summary(ctx context.Context, studentID string) (models.PlacementSummary, error) {
	key := summaryCacheKey(studentID)
	if s.cache != nil {
		var cached models.PlacementSummary
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	offers, err := s.offers.PlacedOffers(ctx, studentID)
	if err != nil {
		return models.PlacementSummary{}, appErrors.Internal(err, "failed to load placements")
	}
	summary := models.SummaryFromOffers(studentID, offers)

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, summary, s.ttl)
	}
	return summary, nil
}

// Invalidate drops the cached summary of a student.
func (s *PlacementStatusService) Invalidate(ctx context.Context, studentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, summaryCacheKey(studentID)); err != nil {
		s.logger.Warn("invalidate placement summary", zap.String("student_id", studentID), zap.Error(err))
	}
}

// Status reports the offers a student holds and the categories still open to them.
func (s *PlacementStatusService) Status(ctx context.Context, studentID string) (*dto.PlacementStatus, error) {
	summary, err := s.Summary(ctx, studentID)
	if err != nil {
		return nil, err
	}

	status := &dto.PlacementStatus{
		StudentID:        studentID,
		OfferCount:       len(summary.Offers),
		MaxOffers:        s.ladder.MaxOffers(),
		MaxOffersReached: len(summary.Offers) >= s.ladder.MaxOffers(),
		Placements:       summary.Offers,
		CanApplyTo:       s.ladder.CanApplyTo(summary),
	}
	categories := make([]models.Category, 0, len(summary.Offers))
	for _, o := range summary.Offers {
		categories = append(categories, *o.Category)
	}
	if highest, ok := s.ladder.Hierarchy().Highest(categories...); ok {
		status.HighestCategory = &highest
	}
	return status, nil
}
