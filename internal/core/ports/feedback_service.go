package ports

import (
	"context"

	"github.com/ratewise/feedback-system/internal/core/domain"
)

// SubmitFeedbackInput carries one rating submission.
type SubmitFeedbackInput struct {
	ResourceID string
	Rating     int
	Comment    string
}

// FeedbackQueryInput selects a page of the per-resource feedback view.
// Zero values mean the documented defaults: page 1, sorted by date ascending.
type FeedbackQueryInput struct {
	ResourceID string
	Page       int
	SortBy     string
	OrderBy    string
}

// FeedbackView is the aggregate response for one resource. AverageRating and
// TotalRatings cover every record for the resource, including rating-only
// submissions; RecentFeedbacks lists only commented records.
type FeedbackView struct {
	AverageRating   float64           `json:"averageRating"`
	TotalRatings    int64             `json:"totalRatings"`
	RecentFeedbacks []domain.Feedback `json:"recentFeedbacks"`
}

// FeedbackService defines the feedback use-cases.
type FeedbackService interface {
	Submit(ctx context.Context, p domain.Principal, in SubmitFeedbackInput) (*domain.Feedback, error)
	Query(ctx context.Context, in FeedbackQueryInput) (*FeedbackView, error)
	ListAll(ctx context.Context) ([]domain.Feedback, error)
	Delete(ctx context.Context, resourceID string) (int64, error)
}
