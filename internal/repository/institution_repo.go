package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/model"
)

// InstitutionFilter narrows List. Name matches case-insensitively as a substring.
type InstitutionFilter struct {
	Name string
}

// InstitutionRepository institution data access.
type InstitutionRepository interface {
	Create(ctx context.Context, inst *model.Institution) error
	GetByID(ctx context.Context, id string) (*model.Institution, error)
	GetByIDUnscoped(ctx context.Context, id string) (*model.Institution, error)
	List(ctx context.Context, f InstitutionFilter, p ListParams) ([]model.Institution, int64, error)
	Update(ctx context.Context, inst *model.Institution) error
	SoftDelete(ctx context.Context, id, deletedBy string, reason *string) error
}

type institutionRepo struct {
	db *gorm.DB
}

// NewInstitutionRepo creates the gorm InstitutionRepository.
func NewInstitutionRepo(db *gorm.DB) InstitutionRepository {
	return &institutionRepo{db: db}
}

func (r *institutionRepo) Create(ctx context.Context, inst *model.Institution) error {
	return translateWriteError(r.db.WithContext(ctx).Create(inst).Error)
}

func (r *institutionRepo) GetByID(ctx context.Context, id string) (*model.Institution, error) {
	var inst model.Institution
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&inst).Error; err != nil {
		return nil, err
	}
	return &inst, nil
}

func (r *institutionRepo) GetByIDUnscoped(ctx context.Context, id string) (*model.Institution, error) {
	var inst model.Institution
	if err := r.db.WithContext(ctx).Unscoped().Where("id = ?", id).First(&inst).Error; err != nil {
		return nil, err
	}
	return &inst, nil
}

func (r *institutionRepo) List(ctx context.Context, f InstitutionFilter, p ListParams) ([]model.Institution, int64, error) {
	var (
		items []model.Institution
		total int64
	)

	db := r.db.WithContext(ctx).Model(&model.Institution{})
	if f.Name != "" {
		db = db.Where("name ILIKE ?", containsPattern(f.Name))
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("created_at ASC, id ASC").
		Offset(p.Offset).Limit(p.Limit).
		Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *institutionRepo) Update(ctx context.Context, inst *model.Institution) error {
	return updateActive(ctx, r.db, inst)
}

func (r *institutionRepo) SoftDelete(ctx context.Context, id, deletedBy string, reason *string) error {
	return softDelete(ctx, r.db, &model.Institution{}, id, deletedBy, reason, nil)
}
