// Package invariant holds the entity rules evaluated before any write. Every
// function is pure: callers resolve whatever state a rule needs and pass it in.
// Failures are returned as validation errors carrying one detail per violated
// rule; nothing is corrected silently.
package invariant

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/model"
	apperrors "github.com/HitaloNasc/v-lab-tech-lead-test/pkg/errors"
)

// Detail reasons shared with API clients.
const (
	ReasonRequired           = "required"
	ReasonInvalid            = "invalid"
	ReasonInvalidValues      = "invalid_values"
	ReasonMaxLength          = "max_length"
	ReasonMinLength          = "min_length"
	ReasonMissingLowercase   = "missing_lowercase"
	ReasonMissingUppercase   = "missing_uppercase"
	ReasonMissingDigit       = "missing_digit"
	ReasonMissingSymbol      = "missing_symbol"
	ReasonDeadlineNotAfter   = "must_be_after_publication_date"
	ReasonRequiredForRole    = "required_for_role"
	ReasonNotAllowedForRole  = "must_be_empty_for_candidate"
	ReasonExpired            = "expired"
	ReasonConflictingRoles   = "conflicting_roles"
	ReasonUnknownOfferType   = "unknown_offer_type"
	ReasonUnknownOfferStatus = "unknown_offer_status"
	ReasonCandidateRoleOnly  = "requires_candidate_role"
)

const (
	PasswordMinLength = 8
	CPFMaxLength      = 14
	// PasswordSymbols is the accepted symbol set (ASCII punctuation).
	PasswordSymbols = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
)

var validate = validator.New()

// collector accumulates details and renders them as one validation error.
type collector struct {
	details []apperrors.Detail
}

func (c *collector) add(field, reason string, values ...string) {
	c.details = append(c.details, apperrors.Detail{Field: field, Reason: reason, Values: values})
}

func (c *collector) err(message string) error {
	if len(c.details) == 0 {
		return nil
	}
	return apperrors.Validation(message, c.details...)
}

// ────────────────────── Password ──────────────────────

// Password reports every unmet strength rule at once.
func Password(plain string) error {
	var c collector
	if utf8.RuneCountInString(plain) < PasswordMinLength {
		c.add("password", ReasonMinLength)
	}

	var lower, upper, digit, symbol bool
	for _, r := range plain {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(PasswordSymbols, r):
			symbol = true
		}
	}
	if !lower {
		c.add("password", ReasonMissingLowercase)
	}
	if !upper {
		c.add("password", ReasonMissingUppercase)
	}
	if !digit {
		c.add("password", ReasonMissingDigit)
	}
	if !symbol {
		c.add("password", ReasonMissingSymbol)
	}
	return c.err("password does not meet the strength policy")
}

// ────────────────────── Email ──────────────────────

func Email(email string) error {
	if strings.TrimSpace(email) == "" {
		return apperrors.Validation("email is required", apperrors.Detail{Field: "email", Reason: ReasonRequired})
	}
	if err := validate.Var(email, "email"); err != nil {
		return apperrors.Validation("email is invalid", apperrors.Detail{Field: "email", Reason: ReasonInvalid})
	}
	return nil
}

// ────────────────────── Roles ──────────────────────

// ResolveRoles maps requested names onto known roles, case-insensitively.
// Every unknown name is reported in a single detail.
func ResolveRoles(requested []string, known []model.Role) ([]model.Role, error) {
	if len(requested) == 0 {
		return nil, apperrors.Validation("roles is required",
			apperrors.Detail{Field: "roles", Reason: ReasonRequired})
	}

	byName := make(map[string]model.Role, len(known))
	for _, r := range known {
		byName[model.NormalizeRoleName(r.Name)] = r
	}

	var (
		resolved []model.Role
		invalid  []string
		seen     = make(map[string]bool, len(requested))
	)
	for _, name := range requested {
		key := model.NormalizeRoleName(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		role, ok := byName[key]
		if !ok {
			invalid = append(invalid, key)
			continue
		}
		resolved = append(resolved, role)
	}

	if len(invalid) > 0 {
		return nil, apperrors.Validation("invalid roles",
			apperrors.Detail{Field: "roles", Reason: ReasonInvalidValues, Values: invalid})
	}
	return resolved, nil
}

// RoleInstitution enforces the coupling between roles and institution_id:
// institution_admin needs one, candidate must not have one. Existence of the
// institution is checked by the caller.
func RoleInstitution(roleNames []string, institutionID *string) error {
	hasAdmin, hasCandidate := hasRole(roleNames, model.RoleInstitutionAdmin), hasRole(roleNames, model.RoleCandidate)
	hasInstitution := institutionID != nil && *institutionID != ""

	if hasAdmin && hasCandidate {
		return apperrors.Validation("institution_admin and candidate cannot be combined",
			apperrors.Detail{Field: "roles", Reason: ReasonConflictingRoles,
				Values: []string{model.RoleInstitutionAdmin, model.RoleCandidate}})
	}
	if hasAdmin && !hasInstitution {
		return apperrors.Validation("institution_id is required for institution_admin role",
			apperrors.Detail{Field: "institution_id", Reason: ReasonRequiredForRole, Values: []string{model.RoleInstitutionAdmin}})
	}
	if hasCandidate && hasInstitution {
		return apperrors.Validation("candidates cannot belong to an institution",
			apperrors.Detail{Field: "institution_id", Reason: ReasonNotAllowedForRole})
	}
	return nil
}

// CandidateProfilePayload couples a nested candidate_profile to the candidate
// role. required is set by registration, where a candidate must bring one.
func CandidateProfilePayload(roleNames []string, present, required bool) error {
	isCandidate := hasRole(roleNames, model.RoleCandidate)
	if present && !isCandidate {
		return apperrors.Validation("candidate_profile is only accepted for the candidate role",
			apperrors.Detail{Field: "candidate_profile", Reason: ReasonCandidateRoleOnly})
	}
	if required && isCandidate && !present {
		return apperrors.Validation("candidate_profile is required for the candidate role",
			apperrors.Detail{Field: "candidate_profile", Reason: ReasonRequiredForRole, Values: []string{model.RoleCandidate}})
	}
	return nil
}

func hasRole(names []string, want string) bool {
	for _, n := range names {
		if model.NormalizeRoleName(n) == want {
			return true
		}
	}
	return false
}

// ────────────────────── Institution / Program ──────────────────────

func Institution(i *model.Institution) error {
	var c collector
	if strings.TrimSpace(i.Name) == "" {
		c.add("name", ReasonRequired)
	}
	return c.err("invalid institution")
}

func Program(p *model.Program) error {
	var c collector
	if strings.TrimSpace(p.Name) == "" {
		c.add("name", ReasonRequired)
	}
	if p.InstitutionID == "" {
		c.add("institution_id", ReasonRequired)
	}
	return c.err("invalid program")
}

// ────────────────────── Offer ──────────────────────

// OfferWindow requires the deadline to fall strictly after publication.
func OfferWindow(publication, deadline time.Time) error {
	if !deadline.After(publication) {
		return apperrors.Validation("application_deadline must be after publication_date",
			apperrors.Detail{Field: "application_deadline", Reason: ReasonDeadlineNotAfter})
	}
	return nil
}

// Offer checks the scalar fields. The date window is only checked when
// checkWindow is set, so updates that leave both dates alone skip it.
func Offer(o *model.Offer, checkWindow bool) error {
	var c collector
	if strings.TrimSpace(o.Title) == "" {
		c.add("title", ReasonRequired)
	}
	if o.InstitutionID == "" {
		c.add("institution_id", ReasonRequired)
	}
	if !o.Type.Valid() {
		c.add("type", ReasonUnknownOfferType, string(o.Type))
	}
	if !o.Status.Valid() {
		c.add("status", ReasonUnknownOfferStatus, string(o.Status))
	}
	if checkWindow && !o.ApplicationDeadline.After(o.PublicationDate) {
		c.add("application_deadline", ReasonDeadlineNotAfter)
	}
	return c.err("invalid offer")
}

// OfferOpen rejects applications to offers whose deadline has passed.
func OfferOpen(o *model.Offer, now time.Time) error {
	if !o.AcceptsApplicationsAt(now) {
		return apperrors.Validation("offer is no longer accepting applications",
			apperrors.Detail{Field: "offer_id", Reason: ReasonExpired})
	}
	return nil
}

// ────────────────────── CandidateProfile ──────────────────────

func CandidateProfile(cp *model.CandidateProfile) error {
	var c collector
	if cp.UserID == "" {
		c.add("user_id", ReasonRequired)
	}
	if cp.CPF != nil && utf8.RuneCountInString(*cp.CPF) > CPFMaxLength {
		c.add("cpf", ReasonMaxLength)
	}
	return c.err("invalid candidate profile")
}
