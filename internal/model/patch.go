package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// Nullable distinguishes "absent" from "explicit null" in partial updates.
// Set is true whenever the key was present in the payload.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// Some builds a present, non-null value.
func Some[T any](v T) Nullable[T] { return Nullable[T]{Set: true, Value: &v} }

// Null builds a present, null value.
func Null[T any]() Nullable[T] { return Nullable[T]{Set: true} }

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.Set || n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}

// Or returns the patched value when set, otherwise current.
func (n Nullable[T]) Or(current *T) *T {
	if n.Set {
		return n.Value
	}
	return current
}

// ── per-entity patches; Apply never touches storage ──

type InstitutionPatch struct {
	Name        *string
	Description Nullable[string]
}

func (p InstitutionPatch) Apply(i *Institution) {
	if p.Name != nil {
		i.Name = *p.Name
	}
	i.Description = p.Description.Or(i.Description)
}

type ProgramPatch struct {
	Name        *string
	Description Nullable[string]
}

func (p ProgramPatch) Apply(pr *Program) {
	if p.Name != nil {
		pr.Name = *p.Name
	}
	pr.Description = p.Description.Or(pr.Description)
}

type OfferPatch struct {
	Title               *string
	Description         Nullable[string]
	Type                *OfferType
	Status              *OfferStatus
	ProgramID           Nullable[string]
	PublicationDate     *time.Time
	ApplicationDeadline *time.Time
}

// ChangesDates reports whether either date differs from the current offer.
func (p OfferPatch) ChangesDates(o *Offer) bool {
	if p.PublicationDate != nil && !p.PublicationDate.Equal(o.PublicationDate) {
		return true
	}
	if p.ApplicationDeadline != nil && !p.ApplicationDeadline.Equal(o.ApplicationDeadline) {
		return true
	}
	return false
}

func (p OfferPatch) Apply(o *Offer) {
	if p.Title != nil {
		o.Title = *p.Title
	}
	o.Description = p.Description.Or(o.Description)
	if p.Type != nil {
		o.Type = *p.Type
	}
	if p.Status != nil {
		o.Status = *p.Status
	}
	o.ProgramID = p.ProgramID.Or(o.ProgramID)
	if p.PublicationDate != nil {
		o.PublicationDate = *p.PublicationDate
	}
	if p.ApplicationDeadline != nil {
		o.ApplicationDeadline = *p.ApplicationDeadline
	}
}

type CandidateProfilePatch struct {
	FullName    Nullable[string]
	DateOfBirth Nullable[time.Time]
	CPF         Nullable[string]
}

// IsEmpty reports a patch that would change nothing.
func (p CandidateProfilePatch) IsEmpty() bool {
	return !p.FullName.Set && !p.DateOfBirth.Set && !p.CPF.Set
}

func (p CandidateProfilePatch) Apply(cp *CandidateProfile) {
	cp.FullName = p.FullName.Or(cp.FullName)
	cp.DateOfBirth = p.DateOfBirth.Or(cp.DateOfBirth)
	cp.CPF = p.CPF.Or(cp.CPF)
}

// UserPatch is a partial user update. Password, Roles and CandidateProfile are
// resolved by the user service; Apply only copies the plain columns.
type UserPatch struct {
	Email            *string
	Password         *string
	Roles            []string // nil keeps the current set
	InstitutionID    Nullable[string]
	CandidateProfile *CandidateProfilePatch
}

// TouchesInstitution reports whether the payload carried institution_id at all.
func (p UserPatch) TouchesInstitution() bool { return p.InstitutionID.Set }

func (p UserPatch) Apply(u *User) {
	if p.Email != nil {
		u.Email = *p.Email
	}
	u.InstitutionID = p.InstitutionID.Or(u.InstitutionID)
}

// EffectiveRoleNames is the role set after the patch, normalized.
func (p UserPatch) EffectiveRoleNames(u *User) []string {
	if p.Roles == nil {
		return u.RoleNames()
	}
	names := make([]string, 0, len(p.Roles))
	for _, r := range p.Roles {
		names = append(names, NormalizeRoleName(r))
	}
	return names
}
