// Package access decides who may view or act on theses and users.
//
// Decide is the only place these rules live. Services call it for every
// operation; handlers never inspect roles or ownership themselves.
package access

import (
	"github.com/google/uuid"

	"digithesis/internal/model"
)

// Action is an operation a requester wants to perform.
type Action string

const (
	ActionView        Action = "view"
	ActionEdit        Action = "edit"
	ActionDelete      Action = "delete"
	ActionApprove     Action = "approve"
	ActionReject      Action = "reject"
	ActionRunCheck    Action = "runCheck"
	ActionChangeRole  Action = "changeRole"
	ActionListAll     Action = "listAll"
	ActionListPending Action = "listPending"
)

// Reason explains a denial.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonForbidden       Reason = "forbidden"
)

// Requester is the verified identity behind a request. A nil *Requester is an
// anonymous caller.
type Requester struct {
	ID   uuid.UUID
	Role model.Role
}

// Privileged reports whether the requester is an admin or supervisor.
func (r *Requester) Privileged() bool {
	return r != nil && (r.Role == model.RoleAdmin || r.Role == model.RoleSupervisor)
}

// ThesisSnapshot holds the thesis fields that matter for access decisions.
type ThesisSnapshot struct {
	OwnerID  uuid.UUID
	Status   model.ThesisStatus
	IsPublic bool
}

// UserSnapshot holds the user fields that matter for access decisions.
type UserSnapshot struct {
	ID   uuid.UUID
	Role model.Role
}

// Target is the resource an action applies to. Collection actions leave both
// fields nil.
type Target struct {
	Thesis *ThesisSnapshot
	User   *UserSnapshot
}

// ThesisTarget builds a Target from a stored thesis.
func ThesisTarget(t *model.Thesis) Target {
	return Target{Thesis: &ThesisSnapshot{
		OwnerID:  t.OwnerID,
		Status:   t.Status,
		IsPublic: t.IsPublic,
	}}
}

// UserTarget builds a Target from a stored user.
func UserTarget(u *model.User) Target {
	return Target{User: &UserSnapshot{ID: u.ID, Role: u.Role}}
}

// Decision is the outcome of Decide.
type Decision struct {
	Allowed bool
	Reason  Reason
}

var permit = Decision{Allowed: true}

func deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

// Decide evaluates action for requester against target.
func Decide(requester *Requester, action Action, target Target) Decision {
	switch action {
	case ActionView:
		th := target.Thesis
		if th == nil {
			return deny(ReasonForbidden)
		}
		if th.Status == model.ThesisStatusApproved && th.IsPublic {
			return permit
		}
		if ownsOrPrivileged(requester, th) {
			return permit
		}
		return deny(ReasonForbidden)

	case ActionEdit, ActionDelete, ActionRunCheck:
		if requester == nil {
			return deny(ReasonUnauthenticated)
		}
		if target.Thesis != nil && ownsOrPrivileged(requester, target.Thesis) {
			return permit
		}
		return deny(ReasonForbidden)

	case ActionApprove, ActionReject, ActionListPending, ActionListAll:
		return privilegedOnly(requester)

	case ActionChangeRole:
		if d := privilegedOnly(requester); !d.Allowed {
			return d
		}
		u := target.User
		if u == nil || u.ID == requester.ID {
			return deny(ReasonForbidden)
		}
		if requester.Role == model.RoleSupervisor && u.Role == model.RoleAdmin {
			return deny(ReasonForbidden)
		}
		return permit
	}
	return deny(ReasonForbidden)
}

// Precheck evaluates only the part of action's rule that depends on the
// requester alone, so callers can deny before loading the target. A permit
// here still requires Decide.
func Precheck(requester *Requester, action Action) Decision {
	switch action {
	case ActionView:
		return permit
	case ActionEdit, ActionDelete, ActionRunCheck:
		if requester == nil {
			return deny(ReasonUnauthenticated)
		}
		return permit
	case ActionApprove, ActionReject, ActionListPending, ActionListAll, ActionChangeRole:
		return privilegedOnly(requester)
	}
	return deny(ReasonForbidden)
}

func ownsOrPrivileged(requester *Requester, th *ThesisSnapshot) bool {
	if requester == nil {
		return false
	}
	return requester.ID == th.OwnerID || requester.Privileged()
}

func privilegedOnly(requester *Requester) Decision {
	if requester == nil {
		return deny(ReasonUnauthenticated)
	}
	if requester.Privileged() {
		return permit
	}
	return deny(ReasonForbidden)
}
