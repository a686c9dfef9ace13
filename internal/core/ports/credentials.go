package ports

import "context"

// PasswordHasher is the one-way hash capability used for stored credentials.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// TokenPayload is the identity carried inside a signed token.
type TokenPayload struct {
	UserID   string
	Username string
}

// TokenManager signs and verifies identity tokens.
type TokenManager interface {
	Sign(payload TokenPayload) (string, error)
	// VerifyAndDecode returns domain.ErrInvalidToken for any missing, expired,
	// malformed, or wrongly signed token.
	VerifyAndDecode(token string) (*TokenPayload, error)
}

// ResourceStats is the cached aggregate for one resource.
type ResourceStats struct {
	AverageRating float64 `json:"average_rating"`
	TotalRatings  int64   `json:"total_ratings"`
}

// AggregateCache is a best-effort cache of per-resource rating aggregates.
// A cache failure must never fail the request it was serving.
type AggregateCache interface {
	Get(ctx context.Context, resourceID string) (*ResourceStats, error)
	Set(ctx context.Context, resourceID string, stats ResourceStats) error
	Invalidate(ctx context.Context, resourceID string) error
}
