package access

import "github.com/google/uuid"

// Scope limits which theses a listing or search may return. It mirrors the
// view rule so that lists never expose what a direct view would deny.
type Scope struct {
	// All disables filtering.
	All bool
	// OwnerID, when set, additionally admits theses owned by this user.
	OwnerID uuid.UUID
}

// IncludesOwner reports whether own theses are admitted beyond public ones.
func (s Scope) IncludesOwner() bool {
	return s.OwnerID != uuid.Nil
}

// SearchScope returns the visibility scope for requester.
func SearchScope(requester *Requester) Scope {
	switch {
	case requester == nil:
		return Scope{}
	case requester.Privileged():
		return Scope{All: true}
	default:
		return Scope{OwnerID: requester.ID}
	}
}
