package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/model"
)

// UserFilter narrows List.
type UserFilter struct {
	InstitutionID string
	Role          string
}

// UserRepository user data access. Roles are always preloaded.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByIDUnscoped(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, f UserFilter, p ListParams) ([]model.User, int64, error)
	Update(ctx context.Context, user *model.User) error
	ReplaceRoles(ctx context.Context, user *model.User, roles []model.Role) error
	SoftDelete(ctx context.Context, id, deletedBy string, reason *string) error
}

type userRepo struct {
	db *gorm.DB
}

// NewUserRepo creates the gorm UserRepository.
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

// Create inserts the user and its user_roles rows; role records themselves are
// never written here.
func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return translateWriteError(r.db.WithContext(ctx).Omit("Roles.*").Create(user).Error)
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Roles").
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByIDUnscoped(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Unscoped().
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail matches case-insensitively, mirroring the unique index.
func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Roles").
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) List(ctx context.Context, f UserFilter, p ListParams) ([]model.User, int64, error) {
	var (
		users []model.User
		total int64
	)

	db := r.db.WithContext(ctx).Model(&model.User{})
	if f.InstitutionID != "" {
		db = db.Where("institution_id = ?", f.InstitutionID)
	}
	if f.Role != "" {
		db = db.Where("EXISTS (SELECT 1 FROM user_roles ur JOIN roles ro ON ro.id = ur.role_id "+
			"WHERE ur.user_id = users.id AND LOWER(ro.name) = ?)", model.NormalizeRoleName(f.Role))
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Preload("Roles").
		Order("created_at ASC, id ASC").
		Offset(p.Offset).Limit(p.Limit).
		Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	return updateActive(ctx, r.db, user)
}

func (r *userRepo) ReplaceRoles(ctx context.Context, user *model.User, roles []model.Role) error {
	if err := r.db.WithContext(ctx).Model(user).Omit("Roles.*").Association("Roles").Replace(roles); err != nil {
		return translateWriteError(err)
	}
	user.Roles = roles
	return nil
}

func (r *userRepo) SoftDelete(ctx context.Context, id, deletedBy string, reason *string) error {
	return softDelete(ctx, r.db, &model.User{}, id, deletedBy, reason, nil)
}
