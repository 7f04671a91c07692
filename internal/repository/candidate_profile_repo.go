package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/model"
)

// CandidateProfileRepository candidate profile data access.
type CandidateProfileRepository interface {
	Create(ctx context.Context, cp *model.CandidateProfile) error
	GetByID(ctx context.Context, id string) (*model.CandidateProfile, error)
	GetByIDUnscoped(ctx context.Context, id string) (*model.CandidateProfile, error)
	GetByUserID(ctx context.Context, userID string) (*model.CandidateProfile, error)
	// GetByIDs returns the active profiles among ids keyed by id.
	GetByIDs(ctx context.Context, ids []string) (map[string]*model.CandidateProfile, error)
	List(ctx context.Context, p ListParams) ([]model.CandidateProfile, int64, error)
	Update(ctx context.Context, cp *model.CandidateProfile) error
	SoftDelete(ctx context.Context, id, deletedBy string, reason *string) error
}

type candidateProfileRepo struct {
	db *gorm.DB
}

// NewCandidateProfileRepo creates the gorm CandidateProfileRepository.
func NewCandidateProfileRepo(db *gorm.DB) CandidateProfileRepository {
	return &candidateProfileRepo{db: db}
}

func (r *candidateProfileRepo) Create(ctx context.Context, cp *model.CandidateProfile) error {
	return translateWriteError(r.db.WithContext(ctx).Create(cp).Error)
}

func (r *candidateProfileRepo) GetByID(ctx context.Context, id string) (*model.CandidateProfile, error) {
	var cp model.CandidateProfile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&cp).Error; err != nil {
		return nil, err
	}
	return &cp, nil
}

func (r *candidateProfileRepo) GetByIDUnscoped(ctx context.Context, id string) (*model.CandidateProfile, error) {
	var cp model.CandidateProfile
	if err := r.db.WithContext(ctx).Unscoped().Where("id = ?", id).First(&cp).Error; err != nil {
		return nil, err
	}
	return &cp, nil
}

// GetByUserID includes soft-deleted rows: the user_id constraint covers them,
// so a deleted profile still blocks a new one.
func (r *candidateProfileRepo) GetByUserID(ctx context.Context, userID string) (*model.CandidateProfile, error) {
	var cp model.CandidateProfile
	err := r.db.WithContext(ctx).
		Unscoped().
		Where("user_id = ?", userID).
		First(&cp).Error
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

func (r *candidateProfileRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*model.CandidateProfile, error) {
	out := make(map[string]*model.CandidateProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var profiles []model.CandidateProfile
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, err
	}
	for i := range profiles {
		out[profiles[i].ID] = &profiles[i]
	}
	return out, nil
}

func (r *candidateProfileRepo) List(ctx context.Context, p ListParams) ([]model.CandidateProfile, int64, error) {
	var (
		items []model.CandidateProfile
		total int64
	)
	db := r.db.WithContext(ctx).Model(&model.CandidateProfile{})
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

func (r *candidateProfileRepo) Update(ctx context.Context, cp *model.CandidateProfile) error {
	return updateActive(ctx, r.db, cp)
}

func (r *candidateProfileRepo) SoftDelete(ctx context.Context, id, deletedBy string, reason *string) error {
	return softDelete(ctx, r.db, &model.CandidateProfile{}, id, deletedBy, reason, nil)
}
