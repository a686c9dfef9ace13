package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ratewise/feedback-system/internal/core/domain"
	"github.com/ratewise/feedback-system/internal/core/ports"
	"github.com/ratewise/feedback-system/internal/pkg/metrics"
)

// IdentityService resolves each request to exactly one Principal: a registered
// user proven by its token, or a cookie-backed guest.
type IdentityService struct {
	tokens ports.TokenManager
	logger zerolog.Logger
}

func NewIdentityService(tokens ports.TokenManager, logger zerolog.Logger) *IdentityService {
	return &IdentityService{tokens: tokens, logger: logger}
}

// Resolve implements ports.IdentityResolver.
//
// A request without a userId claim is anonymous: an existing guestId cookie is
// reused as-is, otherwise a fresh UUID guest is minted and the transport is
// instructed to persist it. A request claiming a userId must present a token
// that verifies and decodes to that same id; anything else is a 401-class
// rejection. The store is never consulted.
func (s *IdentityService) Resolve(_ context.Context, in ports.ResolveInput) (domain.Principal, *ports.GuestCookie, error) {
	if in.ClaimedUserID == "" {
		if in.GuestCookie != "" {
			return domain.Guest{GuestID: in.GuestCookie}, nil, nil
		}

		guestID := uuid.NewString()
		s.logger.Debug().Str("guest_id", guestID).Msg("issued new guest identity")
		return domain.Guest{GuestID: guestID}, &ports.GuestCookie{Value: guestID}, nil
	}

	payload, err := s.tokens.VerifyAndDecode(in.Token)
	if err != nil {
		metrics.AuthRejectionsTotal.WithLabelValues("invalid_token").Inc()
		return nil, nil, domain.ErrInvalidToken
	}
	if payload.UserID == "" {
		metrics.AuthRejectionsTotal.WithLabelValues("missing_identity").Inc()
		return nil, nil, domain.ErrMissingIdentity
	}
	if payload.UserID != in.ClaimedUserID {
		// A valid token for a different identity than the caller claims to
		// act as.
		metrics.AuthRejectionsTotal.WithLabelValues("identity_mismatch").Inc()
		return nil, nil, domain.ErrIdentityMismatch
	}

	return domain.RegisteredUser{UserID: payload.UserID, Username: payload.Username}, nil, nil
}
