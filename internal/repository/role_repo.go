package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/model"
)

// RoleRepository role catalogue access.
type RoleRepository interface {
	Create(ctx context.Context, role *model.Role) error
	GetByName(ctx context.Context, name string) (*model.Role, error)
	List(ctx context.Context) ([]model.Role, error)
}

type roleRepo struct {
	db *gorm.DB
}

// NewRoleRepo creates the gorm RoleRepository.
func NewRoleRepo(db *gorm.DB) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) Create(ctx context.Context, role *model.Role) error {
	return translateWriteError(r.db.WithContext(ctx).Create(role).Error)
}

func (r *roleRepo) GetByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", model.NormalizeRoleName(name)).
		First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepo) List(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	err := r.db.WithContext(ctx).Order("created_at ASC, name ASC").Find(&roles).Error
	return roles, err
}
