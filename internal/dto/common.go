package dto

import (
	"bytes"
	"fmt"
	"time"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/model"
)

// ── pagination ──

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ListQuery is the limit/offset window shared by every list endpoint.
type ListQuery struct {
	Limit  int `form:"limit"  binding:"omitempty,min=0"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// Window applies the default and clamps the limit to MaxLimit.
func (q ListQuery) Window() (limit, offset int) {
	limit = q.Limit
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	return limit, q.Offset
}

// ── dates ──

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date. It also accepts a full RFC 3339 timestamp and keeps
// only the day.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(data, `"`))
	for _, layout := range []string{DateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, day := t.Date()
			d.Time = time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
			return nil
		}
	}
	return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func datePtr(d *Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

func dateOf(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	return &Date{Time: *t}
}

func nullableDate(n model.Nullable[Date]) model.Nullable[time.Time] {
	if !n.Set {
		return model.Nullable[time.Time]{}
	}
	if n.Value == nil {
		return model.Null[time.Time]()
	}
	return model.Some(n.Value.Time)
}

// ── lifecycle ──

// Audit is the lifecycle block every response carries.
type Audit struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func auditOf(l model.Lifecycle) Audit {
	return Audit{ID: l.ID, CreatedAt: l.CreatedAt, UpdatedAt: l.UpdatedAt}
}
