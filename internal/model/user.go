package model

import (
	"strings"
	"time"
)

// Seeded role names. Only these three carry authorization meaning.
const (
	RoleSysAdmin         = "sys_admin"
	RoleInstitutionAdmin = "institution_admin"
	RoleCandidate        = "candidate"
)

// NormalizeRoleName is the canonical comparison form of a role name.
func NormalizeRoleName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Role is a named permission set.
type Role struct {
	Lifecycle
	Name        string  `gorm:"type:varchar(50);not null" json:"name"`
	Description *string `gorm:"type:varchar(300)"         json:"description,omitempty"`
}

func (Role) TableName() string { return "roles" }

// User is an account. HashedPassword never leaves the process.
type User struct {
	Lifecycle
	Email          string  `gorm:"type:varchar(255);not null" json:"email"`
	HashedPassword string  `gorm:"type:varchar(255);not null" json:"-"`
	InstitutionID  *string `gorm:"type:uuid"                  json:"institution_id"`
	Roles          []Role  `gorm:"many2many:user_roles"       json:"roles"`
}

func (User) TableName() string { return "users" }

// RoleNames returns the normalized role names.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, NormalizeRoleName(r.Name))
	}
	return names
}

// HasRole compares case-insensitively.
func (u *User) HasRole(name string) bool {
	want := NormalizeRoleName(name)
	for _, r := range u.Roles {
		if NormalizeRoleName(r.Name) == want {
			return true
		}
	}
	return false
}

// CandidateProfile holds applicant data; at most one per user.
type CandidateProfile struct {
	Lifecycle
	UserID      string     `gorm:"type:uuid;not null"   json:"user_id"`
	FullName    *string    `gorm:"type:varchar(255)"    json:"full_name,omitempty"`
	DateOfBirth *time.Time `gorm:"type:date"            json:"date_of_birth,omitempty"`
	CPF         *string    `gorm:"column:cpf;type:varchar(14)" json:"cpf,omitempty"`
}

func (CandidateProfile) TableName() string { return "candidate_profiles" }

// Application links a candidate profile to an offer.
type Application struct {
	Lifecycle
	CandidateProfileID string `gorm:"type:uuid;not null"                          json:"candidate_profile_id"`
	OfferID            string `gorm:"type:uuid;not null"                          json:"offer_id"`
	Status             string `gorm:"type:varchar(50);not null;default:submitted" json:"status"`
}

// DefaultApplicationStatus is assigned on submission.
const DefaultApplicationStatus = "submitted"

func (Application) TableName() string { return "applications" }
