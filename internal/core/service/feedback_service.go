package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/ratewise/feedback-system/internal/core/domain"
	"github.com/ratewise/feedback-system/internal/core/ports"
	"github.com/ratewise/feedback-system/internal/pkg/metrics"
)

// pageSize is the fixed number of commented records returned per page.
const pageSize = 2

// FeedbackService implements feedback submission, aggregation, and deletion.
type FeedbackService struct {
	repo   ports.FeedbackRepository
	users  ports.UserRepository
	cache  ports.AggregateCache
	logger zerolog.Logger
}

// NewFeedbackService wires the service. cache may be nil, in which case every
// query computes aggregates from the store.
func NewFeedbackService(repo ports.FeedbackRepository, users ports.UserRepository, cache ports.AggregateCache, logger zerolog.Logger) *FeedbackService {
	return &FeedbackService{repo: repo, users: users, cache: cache, logger: logger}
}

// Submit persists one rating for the principal, enforcing the
// one-rating-per-identity-per-resource rule. A repeat submission returns a
// *domain.DuplicateFeedbackError naming the display name recorded first.
func (s *FeedbackService) Submit(ctx context.Context, p domain.Principal, in ports.SubmitFeedbackInput) (*domain.Feedback, error) {
	if !domain.ValidRating(in.Rating) {
		return nil, domain.ErrInvalidRating
	}

	identityID := p.IdentityID()
	displayName := s.displayName(ctx, p)

	existing, err := s.repo.FindByIdentityAndResource(ctx, identityID, in.ResourceID)
	if err == nil {
		metrics.FeedbackConflictsTotal.Inc()
		return nil, &domain.DuplicateFeedbackError{ResourceID: in.ResourceID, Author: existing.AuthorName}
	}
	if !errors.Is(err, domain.ErrFeedbackNotFound) {
		return nil, err
	}

	fb := &domain.Feedback{
		IdentityID: identityID,
		ResourceID: in.ResourceID,
		Rating:     in.Rating,
		Comment:    in.Comment,
		AuthorName: displayName,
		CreatedAt:  time.Now().UTC(),
	}

	created, err := s.repo.Insert(ctx, fb)
	if err != nil {
		// A concurrent submission from the same identity can win the unique
		// index between our check and the insert.
		var dup *domain.DuplicateFeedbackError
		if errors.As(err, &dup) {
			metrics.FeedbackConflictsTotal.Inc()
		}
		return nil, err
	}

	s.invalidate(ctx, in.ResourceID)
	metrics.FeedbackSubmissionsTotal.WithLabelValues(identityKind(p)).Inc()
	s.logger.Info().
		Str("resource_id", in.ResourceID).
		Str("identity_id", identityID).
		Int("rating", in.Rating).
		Msg("feedback submitted")

	return created, nil
}

// Query returns the aggregate view for one resource: average and total over
// every record, and one fixed-size page of commented records.
func (s *FeedbackService) Query(ctx context.Context, in ports.FeedbackQueryInput) (*ports.FeedbackView, error) {
	timer := time.Now()
	defer func() {
		metrics.FeedbackQueryDuration.Observe(time.Since(timer).Seconds())
	}()

	page := in.Page
	if page < 1 {
		page = 1
	}
	sortBy := in.SortBy
	if sortBy == "" {
		sortBy = ports.SortByDate
	}
	orderBy := in.OrderBy
	if orderBy == "" {
		orderBy = ports.OrderAsc
	}

	stats, err := s.aggregates(ctx, in.ResourceID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.List(ctx, ports.FeedbackListQuery{
		ResourceID:    in.ResourceID,
		CommentedOnly: true,
		SortBy:        sortBy,
		OrderBy:       orderBy,
		Skip:          int64(page-1) * pageSize,
		Limit:         pageSize,
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Feedback{}
	}

	return &ports.FeedbackView{
		AverageRating:   stats.AverageRating,
		TotalRatings:    stats.TotalRatings,
		RecentFeedbacks: items,
	}, nil
}

// ListAll returns every stored feedback record.
func (s *FeedbackService) ListAll(ctx context.Context) ([]domain.Feedback, error) {
	items, err := s.repo.List(ctx, ports.FeedbackListQuery{SortBy: ports.SortByDate, OrderBy: ports.OrderAsc})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Feedback{}
	}
	return items, nil
}

// Delete removes every record for the resource. Zero matches reports
// domain.ErrFeedbackNotFound, distinct from a successful deletion.
func (s *FeedbackService) Delete(ctx context.Context, resourceID string) (int64, error) {
	removed, err := s.repo.DeleteByResource(ctx, resourceID)
	if err != nil {
		return 0, err
	}
	if removed == 0 {
		return 0, domain.ErrFeedbackNotFound
	}

	s.invalidate(ctx, resourceID)
	s.logger.Info().Str("resource_id", resourceID).Int64("removed", removed).Msg("feedback deleted")
	return removed, nil
}

// aggregates serves average/total from the cache when warm, computing from the
// store and back-filling on a miss. A store failure propagates; a cache
// failure only logs.
func (s *FeedbackService) aggregates(ctx context.Context, resourceID string) (*ports.ResourceStats, error) {
	if s.cache != nil {
		stats, err := s.cache.Get(ctx, resourceID)
		if err != nil {
			s.logger.Warn().Err(err).Str("resource_id", resourceID).Msg("aggregate cache read failed")
		} else if stats != nil {
			metrics.AggregateCacheTotal.WithLabelValues("hit").Inc()
			return stats, nil
		}
		metrics.AggregateCacheTotal.WithLabelValues("miss").Inc()
	}

	total, err := s.repo.CountByResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	var avg float64
	if total > 0 {
		avg, err = s.repo.AverageRating(ctx, resourceID)
		if err != nil {
			return nil, err
		}
	}

	stats := ports.ResourceStats{AverageRating: avg, TotalRatings: total}
	if s.cache != nil {
		if err := s.cache.Set(ctx, resourceID, stats); err != nil {
			s.logger.Warn().Err(err).Str("resource_id", resourceID).Msg("aggregate cache write failed")
		}
	}
	return &stats, nil
}

func (s *FeedbackService) invalidate(ctx context.Context, resourceID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, resourceID); err != nil {
		s.logger.Warn().Err(err).Str("resource_id", resourceID).Msg("aggregate cache invalidation failed")
	}
}

// displayName resolves what to record as the author name at write time.
// Registered users are re-resolved from the store; a lookup failure falls back
// to the bare id rather than blocking the submission.
func (s *FeedbackService) displayName(ctx context.Context, p domain.Principal) string {
	switch v := p.(type) {
	case domain.RegisteredUser:
		user, err := s.users.FindByID(ctx, v.UserID)
		if err != nil || user.Username == "" {
			return v.UserID
		}
		return user.Username
	case domain.Guest:
		return v.GuestID
	default:
		return p.IdentityID()
	}
}

func identityKind(p domain.Principal) string {
	if _, ok := p.(domain.Guest); ok {
		return "guest"
	}
	return "registered"
}
