package domain

// Principal is the resolved caller identity of a request: either a registered
// user proven by a verified token, or a durable anonymous guest backed by a
// cookie. Exactly one variant is attached to a request after resolution.
type Principal interface {
	// IdentityID is the key under which feedback from this caller is stored.
	// Registered users use their store-assigned id; guests use a "guest:"
	// scoped id so the two key spaces cannot collide.
	IdentityID() string
	isPrincipal()
}

// RegisteredUser is a caller whose token was verified against its claimed id.
type RegisteredUser struct {
	UserID   string
	Username string
}

func (u RegisteredUser) IdentityID() string { return u.UserID }
func (RegisteredUser) isPrincipal()         {}

// Guest is an anonymous caller identified by a persisted cookie value.
type Guest struct {
	GuestID string
}

func (g Guest) IdentityID() string { return "guest:" + g.GuestID }
func (Guest) isPrincipal()         {}
