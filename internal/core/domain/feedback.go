package domain

import (
	"errors"
	"fmt"
	"time"
)

const (
	RatingMin = 1
	RatingMax = 5
)

var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrUserExists = errors.New("user already exists")
var ErrUserNotFound = errors.New("user not found")

var ErrInvalidToken = errors.New("invalid token")
var ErrMissingIdentity = errors.New("user id is not valid")
var ErrIdentityMismatch = errors.New("user is not authorised")

var ErrInvalidRating = errors.New("rating must be between 1 and 5")
var ErrFeedbackNotFound = errors.New("feedback does not exist")
var ErrStoreUnavailable = errors.New("store unavailable")

// DuplicateFeedbackError reports a second rating attempt on a resource the
// identity already rated, naming the display name recorded the first time.
type DuplicateFeedbackError struct {
	ResourceID string
	Author     string
}

func (e *DuplicateFeedbackError) Error() string {
	return fmt.Sprintf("rating for resource %s already submitted by %s", e.ResourceID, e.Author)
}

// Feedback is one rating (plus optional comment) tied to one identity and one
// resource. At most one record exists per (IdentityID, ResourceID) pair.
type Feedback struct {
	ID         string    `json:"id"`
	IdentityID string    `json:"identity_id"`
	ResourceID string    `json:"resource_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	AuthorName string    `json:"author_name"`
	CreatedAt  time.Time `json:"created_at"`
}

// ValidRating reports whether r falls in the accepted 1–5 range.
func ValidRating(r int) bool {
	return r >= RatingMin && r <= RatingMax
}
