package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/model"
)

// OfferFilter narrows List. Status is matched against the effective status at
// Now, so a published offer past its deadline is listed as expired.
type OfferFilter struct {
	InstitutionID string
	ProgramID     string
	Type          model.OfferType
	Status        model.OfferStatus
	Now           time.Time
}

// OfferRepository offer data access.
type OfferRepository interface {
	Create(ctx context.Context, o *model.Offer) error
	GetByID(ctx context.Context, id string) (*model.Offer, error)
	GetByIDUnscoped(ctx context.Context, id string) (*model.Offer, error)
	List(ctx context.Context, f OfferFilter, p ListParams) ([]model.Offer, int64, error)
	Update(ctx context.Context, o *model.Offer) error
	SoftDelete(ctx context.Context, id, deletedBy string, reason *string) error
}

type offerRepo struct {
	db *gorm.DB
}

// NewOfferRepo creates the gorm OfferRepository.
func NewOfferRepo(db *gorm.DB) OfferRepository {
	return &offerRepo{db: db}
}

func (r *offerRepo) Create(ctx context.Context, o *model.Offer) error {
	return translateWriteError(r.db.WithContext(ctx).Create(o).Error)
}

func (r *offerRepo) GetByID(ctx context.Context, id string) (*model.Offer, error) {
	var o model.Offer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *offerRepo) GetByIDUnscoped(ctx context.Context, id string) (*model.Offer, error) {
	var o model.Offer
	if err := r.db.WithContext(ctx).Unscoped().Where("id = ?", id).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *offerRepo) List(ctx context.Context, f OfferFilter, p ListParams) ([]model.Offer, int64, error) {
	var (
		items []model.Offer
		total int64
	)

	db := r.db.WithContext(ctx).Model(&model.Offer{})
	if f.InstitutionID != "" {
		db = db.Where("institution_id = ?", f.InstitutionID)
	}
	if f.ProgramID != "" {
		db = db.Where("program_id = ?", f.ProgramID)
	}
	if f.Type != "" {
		db = db.Where("type = ?", f.Type)
	}
	switch f.Status {
	case "":
	case model.OfferStatusExpired:
		db = db.Where("(status = ? OR (status = ? AND application_deadline <= ?))",
			model.OfferStatusExpired, model.OfferStatusPublished, f.Now)
	case model.OfferStatusPublished:
		db = db.Where("status = ? AND application_deadline > ?", model.OfferStatusPublished, f.Now)
	default:
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

func (r *offerRepo) Update(ctx context.Context, o *model.Offer) error {
	return updateActive(ctx, r.db, o)
}

// SoftDelete also forces status to deleted.
func (r *offerRepo) SoftDelete(ctx context.Context, id, deletedBy string, reason *string) error {
	return softDelete(ctx, r.db, &model.Offer{}, id, deletedBy, reason,
		map[string]interface{}{"status": model.OfferStatusDeleted})
}
