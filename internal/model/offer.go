package model

import "time"

// OfferType is the kind of opportunity being offered.
type OfferType string

const (
	OfferTypeCourse      OfferType = "course"
	OfferTypeScholarship OfferType = "scholarship"
	OfferTypeInternship  OfferType = "internship"
)

func (t OfferType) Valid() bool {
	switch t {
	case OfferTypeCourse, OfferTypeScholarship, OfferTypeInternship:
		return true
	}
	return false
}

// OfferStatus is the lifecycle state of an offer.
//
//	draft → published → expired
//	any   → deleted (soft delete only)
type OfferStatus string

const (
	OfferStatusDraft     OfferStatus = "draft"
	OfferStatusPublished OfferStatus = "published"
	OfferStatusExpired   OfferStatus = "expired"
	OfferStatusDeleted   OfferStatus = "deleted"
)

func (s OfferStatus) Valid() bool {
	switch s {
	case OfferStatusDraft, OfferStatusPublished, OfferStatusExpired, OfferStatusDeleted:
		return true
	}
	return false
}

// Offer is a course, scholarship or internship open for applications.
type Offer struct {
	Lifecycle
	InstitutionID       string      `gorm:"type:uuid;not null"                json:"institution_id"`
	ProgramID           *string     `gorm:"type:uuid"                         json:"program_id,omitempty"`
	Title               string      `gorm:"type:varchar(255);not null"        json:"title"`
	Description         *string     `gorm:"type:text"                         json:"description,omitempty"`
	Type                OfferType   `gorm:"type:varchar(20);not null"         json:"type"`
	Status              OfferStatus `gorm:"type:varchar(20);not null"         json:"status"`
	PublicationDate     time.Time   `gorm:"not null"                          json:"publication_date"`
	ApplicationDeadline time.Time   `gorm:"not null"                          json:"application_deadline"`
}

func (Offer) TableName() string { return "offers" }

// EffectiveStatus derives expiry at read time: a published offer whose deadline
// has passed is reported as expired. No job rewrites the stored status.
func (o *Offer) EffectiveStatus(now time.Time) OfferStatus {
	if o.Status == OfferStatusPublished && !o.ApplicationDeadline.After(now) {
		return OfferStatusExpired
	}
	return o.Status
}

// AcceptsApplicationsAt reports whether the deadline is still in the future.
func (o *Offer) AcceptsApplicationsAt(now time.Time) bool {
	return o.ApplicationDeadline.After(now)
}
