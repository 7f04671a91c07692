package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/model"
)

// ProgramFilter narrows List.
type ProgramFilter struct {
	InstitutionID string
}

// ProgramRepository program data access.
type ProgramRepository interface {
	Create(ctx context.Context, p *model.Program) error
	GetByID(ctx context.Context, id string) (*model.Program, error)
	GetByIDUnscoped(ctx context.Context, id string) (*model.Program, error)
	List(ctx context.Context, f ProgramFilter, p ListParams) ([]model.Program, int64, error)
	Update(ctx context.Context, p *model.Program) error
	SoftDelete(ctx context.Context, id, deletedBy string, reason *string) error
}

type programRepo struct {
	db *gorm.DB
}

// NewProgramRepo creates the gorm ProgramRepository.
func NewProgramRepo(db *gorm.DB) ProgramRepository {
	return &programRepo{db: db}
}

func (r *programRepo) Create(ctx context.Context, p *model.Program) error {
	return translateWriteError(r.db.WithContext(ctx).Create(p).Error)
}

func (r *programRepo) GetByID(ctx context.Context, id string) (*model.Program, error) {
	var p model.Program
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *programRepo) GetByIDUnscoped(ctx context.Context, id string) (*model.Program, error) {
	var p model.Program
	if err := r.db.WithContext(ctx).Unscoped().Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *programRepo) List(ctx context.Context, f ProgramFilter, lp ListParams) ([]model.Program, int64, error) {
	var (
		items []model.Program
		total int64
	)

	db := r.db.WithContext(ctx).Model(&model.Program{})
	if f.InstitutionID != "" {
		db = db.Where("institution_id = ?", f.InstitutionID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("created_at ASC, id ASC").
		Offset(lp.Offset).Limit(lp.Limit).
		Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *programRepo) Update(ctx context.Context, p *model.Program) error {
	return updateActive(ctx, r.db, p)
}

func (r *programRepo) SoftDelete(ctx context.Context, id, deletedBy string, reason *string) error {
	return softDelete(ctx, r.db, &model.Program{}, id, deletedBy, reason, nil)
}
