package ports

import (
	"context"

	"github.com/ratewise/feedback-system/internal/core/domain"
)

// ResolveInput is the identity-bearing slice of an incoming request.
type ResolveInput struct {
	// ClaimedUserID is the userId field of the request body, if any. A
	// non-empty value means the caller claims to act as that registered user.
	ClaimedUserID string
	// Token is the bearer token accompanying a registered-user claim.
	Token string
	// GuestCookie is the current value of the guestId cookie, empty when the
	// caller has none yet.
	GuestCookie string
}

// GuestCookie instructs the transport layer to persist a newly minted guest
// identity on the caller.
type GuestCookie struct {
	Value string
}

// IdentityResolver turns a raw request into exactly one resolved Principal,
// optionally instructing the caller to set a guest cookie.
type IdentityResolver interface {
	Resolve(ctx context.Context, in ResolveInput) (domain.Principal, *GuestCookie, error)
}
