package ports

import (
	"context"

	"github.com/ratewise/feedback-system/internal/core/domain"
)

// Sort fields accepted by ListFeedback.
const (
	SortByDate   = "date"
	SortByRating = "rating"
)

// Sort directions accepted by ListFeedback.
const (
	OrderAsc  = "asc"
	OrderDesc = "dsc"
)

// FeedbackListQuery narrows and orders a per-resource feedback listing.
// CommentedOnly excludes rating-only records from the result set.
type FeedbackListQuery struct {
	ResourceID    string
	CommentedOnly bool
	SortBy        string
	OrderBy       string
	Skip          int64
	Limit         int64
}

// FeedbackRepository defines the persistence interface for feedback records.
type FeedbackRepository interface {
	// FindByIdentityAndResource returns the record for the pair, or
	// domain.ErrFeedbackNotFound when the identity has not rated the resource.
	FindByIdentityAndResource(ctx context.Context, identityID, resourceID string) (*domain.Feedback, error)
	// Insert persists a new record. The store enforces uniqueness on
	// (identity_id, resource_id); a losing concurrent insert surfaces as a
	// *domain.DuplicateFeedbackError.
	Insert(ctx context.Context, fb *domain.Feedback) (*domain.Feedback, error)
	List(ctx context.Context, q FeedbackListQuery) ([]domain.Feedback, error)
	// DeleteByResource removes every record for the resource and reports how
	// many were removed.
	DeleteByResource(ctx context.Context, resourceID string) (int64, error)
	AverageRating(ctx context.Context, resourceID string) (float64, error)
	CountByResource(ctx context.Context, resourceID string) (int64, error)
}
