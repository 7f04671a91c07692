package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/model"
)

// ApplicationFilter narrows List.
type ApplicationFilter struct {
	CandidateProfileID string
	OfferID            string
	Status             string
}

// ApplicationRepository application data access.
type ApplicationRepository interface {
	Create(ctx context.Context, a *model.Application) error
	GetByID(ctx context.Context, id string) (*model.Application, error)
	GetByIDUnscoped(ctx context.Context, id string) (*model.Application, error)
	// GetByCandidateAndOffer returns the active application for the pair.
	GetByCandidateAndOffer(ctx context.Context, candidateProfileID, offerID string) (*model.Application, error)
	List(ctx context.Context, f ApplicationFilter, p ListParams) ([]model.Application, int64, error)
	Update(ctx context.Context, a *model.Application) error
	SoftDelete(ctx context.Context, id, deletedBy string, reason *string) error
}

type applicationRepo struct {
	db *gorm.DB
}

// NewApplicationRepo creates the gorm ApplicationRepository.
func NewApplicationRepo(db *gorm.DB) ApplicationRepository {
	return &applicationRepo{db: db}
}

func (r *applicationRepo) Create(ctx context.Context, a *model.Application) error {
	return translateWriteError(r.db.WithContext(ctx).Create(a).Error)
}

func (r *applicationRepo) GetByID(ctx context.Context, id string) (*model.Application, error) {
	var a model.Application
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *applicationRepo) GetByIDUnscoped(ctx context.Context, id string) (*model.Application, error) {
	var a model.Application
	if err := r.db.WithContext(ctx).Unscoped().Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *applicationRepo) GetByCandidateAndOffer(ctx context.Context, candidateProfileID, offerID string) (*model.Application, error) {
	var a model.Application
	err := r.db.WithContext(ctx).
		Where("candidate_profile_id = ? AND offer_id = ?", candidateProfileID, offerID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *applicationRepo) List(ctx context.Context, f ApplicationFilter, p ListParams) ([]model.Application, int64, error) {
	var (
		items []model.Application
		total int64
	)

	db := r.db.WithContext(ctx).Model(&model.Application{})
	if f.CandidateProfileID != "" {
		db = db.Where("candidate_profile_id = ?", f.CandidateProfileID)
	}
	if f.OfferID != "" {
		db = db.Where("offer_id = ?", f.OfferID)
	}
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
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

func (r *applicationRepo) Update(ctx context.Context, a *model.Application) error {
	return updateActive(ctx, r.db, a)
}

func (r *applicationRepo) SoftDelete(ctx context.Context, id, deletedBy string, reason *string) error {
	return softDelete(ctx, r.db, &model.Application{}, id, deletedBy, reason, nil)
}
