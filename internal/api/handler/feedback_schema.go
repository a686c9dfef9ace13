package handler

import (
	"github.com/ratewise/feedback-system/internal/core/domain"
)

type submitFeedbackRequest struct {
	ResourceID string `json:"resourceId" validate:"required"`
	Rating     int    `json:"rating"     validate:"required,gte=1,lte=5"`
	// UserID, when present, claims a registered identity and must be backed
	// by a matching bearer token.
	UserID  string `json:"userId,omitempty"`
	Comment string `json:"comment,omitempty"`
}

type submitFeedbackResponse struct {
	ResourceID string `json:"resourceId"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment,omitempty"`
	AuthorName string `json:"authorName"`
}

// feedbackQueryParams binds the query string of the aggregate view endpoint.
// Defaults: page=1, sortBy=date, orderBy=asc.
type feedbackQueryParams struct {
	Page    int    `query:"page"    validate:"omitempty,gte=1"`
	SortBy  string `query:"sortBy"  validate:"omitempty,oneof=date rating"`
	OrderBy string `query:"orderBy" validate:"omitempty,oneof=asc dsc"`
}

type feedbackViewResponse struct {
	AverageRating   float64           `json:"averageRating"`
	TotalRatings    int64             `json:"totalRatings"`
	RecentFeedbacks []domain.Feedback `json:"recentFeedbacks"`
}

type deleteFeedbackResponse struct {
	Message string `json:"message"`
	Removed int64  `json:"removed"`
}
