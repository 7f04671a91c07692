package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the repositories care about.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	checkViolation      = "23514"
)

// constraintFields maps constraint names from the migrations to the payload field
// a client would have to change.
var constraintFields = map[string]string{
	"users_email_key":                        "email",
	"roles_name_lower_key":                   "name",
	"candidate_profiles_user_id_key":         "user_id",
	"uq_applications_candidate_offer":        "offer_id",
	"ck_offer_deadline_after_publication":    "application_deadline",
	"programs_institution_id_fkey":           "institution_id",
	"offers_institution_id_fkey":             "institution_id",
	"offers_program_id_fkey":                 "program_id",
	"users_institution_id_fkey":              "institution_id",
	"candidate_profiles_user_id_fkey":        "user_id",
	"applications_offer_id_fkey":             "offer_id",
	"applications_candidate_profile_id_fkey": "candidate_profile_id",
}

// Violation describes a constraint failure reported by PostgreSQL.
type Violation struct {
	Constraint string
	Field      string
}

func classify(err error, code string) (*Violation, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != code {
		return nil, false
	}
	return &Violation{Constraint: pgErr.ConstraintName, Field: constraintFields[pgErr.ConstraintName]}, true
}

// UniqueViolation reports a 23505 error.
func UniqueViolation(err error) (*Violation, bool) { return classify(err, uniqueViolation) }

// ForeignKeyViolation reports a 23503 error.
func ForeignKeyViolation(err error) (*Violation, bool) { return classify(err, foreignKeyViolation) }

// CheckViolation reports a 23514 error.
func CheckViolation(err error) (*Violation, bool) { return classify(err, checkViolation) }
