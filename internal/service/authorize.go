package service

import (
	"digithesis/internal/access"
	apperrors "digithesis/internal/errors"
)

// authorize turns an access decision into the error a handler maps to 401/403.
func authorize(requester *access.Requester, action access.Action, target access.Target) error {
	return decisionError(access.Decide(requester, action, target))
}

// precheck rejects requesters whose role alone rules the action out.
func precheck(requester *access.Requester, action access.Action) error {
	return decisionError(access.Precheck(requester, action))
}

func decisionError(d access.Decision) error {
	switch {
	case d.Allowed:
		return nil
	case d.Reason == access.ReasonUnauthenticated:
		return apperrors.ErrUnauthenticated
	default:
		return apperrors.ErrForbidden
	}
}
