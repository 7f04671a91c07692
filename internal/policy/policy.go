// Package policy is the single authorization decision point. Evaluate is a pure
// function of the requester's role claims and facts the caller has already
// resolved; it never reads storage.
package policy

import (
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/model"
	apperrors "github.com/HitaloNasc/v-lab-tech-lead-test/pkg/errors"
)

// Principal is an authenticated requester.
type Principal struct {
	ID            string
	Roles         []string
	InstitutionID string
}

// NewPrincipal normalizes role names once at the boundary.
func NewPrincipal(id string, roles []string, institutionID string) *Principal {
	normalized := make([]string, 0, len(roles))
	for _, r := range roles {
		normalized = append(normalized, model.NormalizeRoleName(r))
	}
	return &Principal{ID: id, Roles: normalized, InstitutionID: institutionID}
}

// Has compares case-insensitively against the claim set.
func (p *Principal) Has(role string) bool {
	if p == nil {
		return false
	}
	want := model.NormalizeRoleName(role)
	for _, r := range p.Roles {
		if model.NormalizeRoleName(r) == want {
			return true
		}
	}
	return false
}

// HasAny reports whether any of roles is held.
func (p *Principal) HasAny(roles ...string) bool {
	for _, r := range roles {
		if p.Has(r) {
			return true
		}
	}
	return false
}

type Resource string

const (
	ResourceInstitution      Resource = "institution"
	ResourceProgram          Resource = "program"
	ResourceOffer            Resource = "offer"
	ResourceRole             Resource = "role"
	ResourceUser             Resource = "user"
	ResourceCandidateProfile Resource = "candidate_profile"
	ResourceApplication      Resource = "application"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionList   Action = "list"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"

	// ActionListApplications lists applications submitted against one offer.
	ActionListApplications Action = "list_applications"
	// ActionExportApplications downloads the same listing as a spreadsheet.
	ActionExportApplications Action = "export_applications"
	// ActionListOwn lists applications belonging to one candidate.
	ActionListOwn Action = "list_own"
	// ActionUpdateStatus moves an application through review.
	ActionUpdateStatus Action = "update_status"
)

// Request is one authorization question. OwnerID is the user the target
// belongs to (for users, the user itself), resolved by the caller.
type Request struct {
	Principal *Principal
	Resource  Resource
	Action    Action
	OwnerID   string

	// User updates only.
	TouchesRoles            bool
	TouchesInstitution      bool
	TouchesCandidateProfile bool
}

// Decision is the outcome plus a machine-readable reason for denials.
type Decision struct {
	Allowed         bool
	Unauthenticated bool
	Reason          string
}

func allow() Decision { return Decision{Allowed: true} }
func deny(reason string) Decision { return Decision{Reason: reason} }

// Deny reasons.
const (
	ReasonUnauthenticated          = "authentication_required"
	ReasonRoleRequired             = "role_required"
	ReasonNotOwner                 = "not_owner"
	ReasonRoleChangeBlocked        = "role_change_not_allowed"
	ReasonInstitutionChangeBlocked = "institution_change_not_allowed"
	ReasonCandidateRoleRequired    = "candidate_role_required"
	ReasonUnknownRule              = "no_rule"
)

// Evaluate decides a request. A nil principal is denied before any role check.
func Evaluate(req Request) Decision {
	p := req.Principal
	if p == nil || p.ID == "" {
		return Decision{Unauthenticated: true, Reason: ReasonUnauthenticated}
	}

	switch req.Resource {
	case ResourceInstitution:
		return catalogue(req.Action, p.Has(model.RoleSysAdmin))

	case ResourceProgram, ResourceOffer:
		if req.Action == ActionListApplications || req.Action == ActionExportApplications {
			return requireAny(p, model.RoleInstitutionAdmin, model.RoleSysAdmin)
		}
		return catalogue(req.Action, p.HasAny(model.RoleInstitutionAdmin, model.RoleSysAdmin))

	case ResourceRole:
		return catalogue(req.Action, p.Has(model.RoleSysAdmin))

	case ResourceUser:
		return evaluateUser(req)

	case ResourceCandidateProfile:
		switch req.Action {
		case ActionRead:
			return selfOr(p, req.OwnerID, model.RoleSysAdmin, model.RoleInstitutionAdmin)
		case ActionList:
			return requireAny(p, model.RoleSysAdmin)
		case ActionCreate, ActionUpdate, ActionDelete:
			return selfOr(p, req.OwnerID, model.RoleSysAdmin)
		}

	case ResourceApplication:
		switch req.Action {
		case ActionCreate:
			if p.Has(model.RoleSysAdmin) {
				return allow()
			}
			if !p.Has(model.RoleCandidate) {
				return deny(ReasonCandidateRoleRequired)
			}
			return selfOr(p, req.OwnerID)
		case ActionListOwn:
			return selfOr(p, req.OwnerID, model.RoleSysAdmin)
		case ActionRead:
			return selfOr(p, req.OwnerID, model.RoleSysAdmin, model.RoleInstitutionAdmin)
		case ActionUpdateStatus:
			return requireAny(p, model.RoleInstitutionAdmin, model.RoleSysAdmin)
		case ActionDelete:
			return selfOr(p, req.OwnerID, model.RoleSysAdmin)
		}
	}

	return deny(ReasonUnknownRule)
}

func evaluateUser(req Request) Decision {
	p := req.Principal
	isSysAdmin := p.Has(model.RoleSysAdmin)

	switch req.Action {
	case ActionCreate, ActionList, ActionDelete:
		return requireAny(p, model.RoleSysAdmin)
	case ActionRead:
		return selfOr(p, req.OwnerID, model.RoleSysAdmin, model.RoleInstitutionAdmin)
	case ActionUpdate:
		if !isSysAdmin && p.ID != req.OwnerID {
			return deny(ReasonNotOwner)
		}
		if req.TouchesRoles && !isSysAdmin {
			return deny(ReasonRoleChangeBlocked)
		}
		if req.TouchesInstitution && p.Has(model.RoleInstitutionAdmin) && !isSysAdmin {
			return deny(ReasonInstitutionChangeBlocked)
		}
		if req.TouchesCandidateProfile && !p.Has(model.RoleCandidate) {
			return deny(ReasonCandidateRoleRequired)
		}
		return allow()
	}
	return deny(ReasonUnknownRule)
}

// catalogue: reads are open to any authenticated requester, writes need canWrite.
func catalogue(action Action, canWrite bool) Decision {
	switch action {
	case ActionRead, ActionList:
		return allow()
	case ActionCreate, ActionUpdate, ActionDelete:
		if canWrite {
			return allow()
		}
		return deny(ReasonRoleRequired)
	}
	return deny(ReasonUnknownRule)
}

func requireAny(p *Principal, roles ...string) Decision {
	if p.HasAny(roles...) {
		return allow()
	}
	return deny(ReasonRoleRequired)
}

func selfOr(p *Principal, ownerID string, roles ...string) Decision {
	if ownerID != "" && p.ID == ownerID {
		return allow()
	}
	if p.HasAny(roles...) {
		return allow()
	}
	return deny(ReasonNotOwner)
}

// Authorize evaluates req and converts a denial into the matching typed error.
func Authorize(req Request) error {
	d := Evaluate(req)
	if d.Allowed {
		return nil
	}
	if d.Unauthenticated {
		return apperrors.Unauthorized("authentication required")
	}
	return apperrors.Forbidden("not allowed to "+string(req.Action)+" "+string(req.Resource),
		apperrors.Detail{Reason: d.Reason})
}
