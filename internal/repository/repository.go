package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/HitaloNasc/v-lab-tech-lead-test/pkg/database"
	apperrors "github.com/HitaloNasc/v-lab-tech-lead-test/pkg/errors"
)

// Repository aggregates every entity repository behind one handle so services
// can open a unit of work spanning several of them.
type Repository struct {
	db *gorm.DB

	Institution      InstitutionRepository
	Program          ProgramRepository
	Offer            OfferRepository
	Role             RoleRepository
	User             UserRepository
	CandidateProfile CandidateProfileRepository
	Application      ApplicationRepository
}

// NewRepository wires the gorm implementations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:               db,
		Institution:      NewInstitutionRepo(db),
		Program:          NewProgramRepo(db),
		Offer:            NewOfferRepo(db),
		Role:             NewRoleRepo(db),
		User:             NewUserRepo(db),
		CandidateProfile: NewCandidateProfileRepo(db),
		Application:      NewApplicationRepo(db),
	}
}

// Transaction runs fn against repositories bound to one database transaction;
// any error rolls every write back. Without a database (unit tests with
// in-memory repositories) fn runs against r directly.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// ── shared helpers ──

// ListParams is a limit/offset window.
type ListParams struct {
	Limit  int
	Offset int
}

// IsNotFound reports gorm's missing-row error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// mutableOmit lists columns an ordinary update must never write.
var mutableOmit = []string{"id", "created_at", "deleted_at", "deleted_by", "deletion_reason", clause.Associations}

// updateActive writes every mutable column of entity, restricted to rows that
// are not soft-deleted. A deleted or missing row yields gorm.ErrRecordNotFound.
func updateActive(ctx context.Context, db *gorm.DB, entity interface{}) error {
	res := db.WithContext(ctx).Model(entity).Select("*").Omit(mutableOmit...).Updates(entity)
	if res.Error != nil {
		return translateWriteError(res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// softDelete stamps the lifecycle triple on an active row. extra adds
// entity-specific columns (offers also switch status).
func softDelete(ctx context.Context, db *gorm.DB, entity interface{}, id, deletedBy string, reason *string, extra map[string]interface{}) error {
	updates := map[string]interface{}{
		"deleted_at":      gorm.Expr("NOW()"),
		"deleted_by":      nullableString(deletedBy),
		"deletion_reason": reason,
		"updated_at":      gorm.Expr("NOW()"),
	}
	for k, v := range extra {
		updates[k] = v
	}
	return db.WithContext(ctx).
		Model(entity).
		Where("id = ?", id).
		Updates(updates).Error
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// translateWriteError turns constraint violations into typed errors carrying
// the offending field. Anything else passes through unchanged.
func translateWriteError(err error) error {
	if err == nil {
		return nil
	}
	if v, ok := database.UniqueViolation(err); ok {
		return apperrors.Conflict("resource already exists",
			apperrors.Detail{Field: v.Field, Reason: "already_exists"})
	}
	if v, ok := database.ForeignKeyViolation(err); ok {
		return apperrors.NotFound("referenced resource not found",
			apperrors.Detail{Field: v.Field, Reason: "not_found"})
	}
	if v, ok := database.CheckViolation(err); ok {
		return apperrors.Validation("constraint violated",
			apperrors.Detail{Field: v.Field, Reason: v.Constraint})
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.Conflict("resource already exists")
	}
	return err
}

func containsPattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return fmt.Sprintf("%%%s%%", r.Replace(s))
}
