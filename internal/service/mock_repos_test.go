package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/model"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/repository"
	apperrors "github.com/HitaloNasc/v-lab-tech-lead-test/pkg/errors"
)

// ── in-memory store ──

// memStore mimics the gorm repositories: soft-deleted rows are hidden unless
// unscoped, updates of deleted rows report gorm.ErrRecordNotFound, and lists
// come back in insertion order.
type memStore[T any] struct {
	mu    sync.RWMutex
	rows  map[string]*T
	order []string
	meta  func(*T) *model.Lifecycle
	tick  time.Time
}

func newMemStore[T any](meta func(*T) *model.Lifecycle) *memStore[T] {
	return &memStore[T]{
		rows: make(map[string]*T),
		meta: meta,
		tick: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *memStore[T]) nextTick() time.Time {
	s.tick = s.tick.Add(time.Second)
	return s.tick
}

// insert stores a copy; conflict runs under the lock against every row.
func (s *memStore[T]) insert(v *T, conflict func(existing *T) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conflict != nil {
		for _, id := range s.order {
			if err := conflict(s.rows[id]); err != nil {
				return err
			}
		}
	}

	m := s.meta(v)
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := s.nextTick()
	m.CreatedAt, m.UpdatedAt = now, now

	c := *v
	s.rows[m.ID] = &c
	s.order = append(s.order, m.ID)
	return nil
}

func (s *memStore[T]) get(id string, unscoped bool) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[id]
	if !ok || (!unscoped && s.meta(row).IsDeleted()) {
		return nil, gorm.ErrRecordNotFound
	}
	c := *row
	return &c, nil
}

func (s *memStore[T]) find(unscoped bool, match func(*T) bool) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		row := s.rows[id]
		if !unscoped && s.meta(row).IsDeleted() {
			continue
		}
		if match(row) {
			c := *row
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// update overwrites the mutable columns; keep copies columns the real update
// omits (associations) from the stored row.
func (s *memStore[T]) update(v *T, keep func(stored, next *T)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.meta(v)
	stored, ok := s.rows[m.ID]
	if !ok || s.meta(stored).IsDeleted() {
		return gorm.ErrRecordNotFound
	}

	m.UpdatedAt = s.nextTick()
	c := *v
	cm, sm := s.meta(&c), s.meta(stored)
	cm.CreatedAt, cm.DeletedAt, cm.DeletedBy, cm.DeletionReason = sm.CreatedAt, sm.DeletedAt, sm.DeletedBy, sm.DeletionReason
	if keep != nil {
		keep(stored, &c)
	}
	s.rows[m.ID] = &c
	return nil
}

func (s *memStore[T]) softDelete(id, by string, reason *string, extra func(*T)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok {
		return nil
	}
	if markDeleted(s.meta(row), s.nextTick(), by, reason) && extra != nil {
		extra(row)
	}
	return nil
}

// markDeleted stamps the soft-delete columns the way repository.softDelete
// does. Already-deleted rows keep the original stamp.
func markDeleted(l *model.Lifecycle, at time.Time, by string, reason *string) bool {
	if l.IsDeleted() {
		return false
	}
	l.DeletedAt = gorm.DeletedAt{Time: at, Valid: true}
	if by != "" {
		l.DeletedBy = &by
	}
	l.DeletionReason = reason
	return true
}

func (s *memStore[T]) list(match func(*T) bool, p repository.ListParams) ([]T, int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []T
	for _, id := range s.order {
		row := s.rows[id]
		if s.meta(row).IsDeleted() || (match != nil && !match(row)) {
			continue
		}
		all = append(all, *row)
	}

	total := int64(len(all))
	if p.Offset >= len(all) {
		return []T{}, total
	}
	end := len(all)
	if p.Limit > 0 && p.Offset+p.Limit < end {
		end = p.Offset + p.Limit
	}
	return all[p.Offset:end], total
}

func conflictOn(field string) error {
	return apperrors.Conflict("resource already exists", apperrors.Detail{Field: field, Reason: "already_exists"})
}

// ── Mock InstitutionRepository ──

type mockInstitutionRepo struct{ store *memStore[model.Institution] }

func newMockInstitutionRepo() *mockInstitutionRepo {
	return &mockInstitutionRepo{store: newMemStore(func(i *model.Institution) *model.Lifecycle { return &i.Lifecycle })}
}

func (m *mockInstitutionRepo) Create(_ context.Context, inst *model.Institution) error {
	return m.store.insert(inst, nil)
}

func (m *mockInstitutionRepo) GetByID(_ context.Context, id string) (*model.Institution, error) {
	return m.store.get(id, false)
}

func (m *mockInstitutionRepo) GetByIDUnscoped(_ context.Context, id string) (*model.Institution, error) {
	return m.store.get(id, true)
}

func (m *mockInstitutionRepo) List(_ context.Context, f repository.InstitutionFilter, p repository.ListParams) ([]model.Institution, int64, error) {
	items, total := m.store.list(func(i *model.Institution) bool {
		return f.Name == "" || strings.Contains(strings.ToLower(i.Name), strings.ToLower(f.Name))
	}, p)
	return items, total, nil
}

func (m *mockInstitutionRepo) Update(_ context.Context, inst *model.Institution) error {
	return m.store.update(inst, nil)
}

func (m *mockInstitutionRepo) SoftDelete(_ context.Context, id, by string, reason *string) error {
	return m.store.softDelete(id, by, reason, nil)
}

// ── Mock ProgramRepository ──

type mockProgramRepo struct{ store *memStore[model.Program] }

func newMockProgramRepo() *mockProgramRepo {
	return &mockProgramRepo{store: newMemStore(func(p *model.Program) *model.Lifecycle { return &p.Lifecycle })}
}

func (m *mockProgramRepo) Create(_ context.Context, p *model.Program) error {
	return m.store.insert(p, nil)
}

func (m *mockProgramRepo) GetByID(_ context.Context, id string) (*model.Program, error) {
	return m.store.get(id, false)
}

func (m *mockProgramRepo) GetByIDUnscoped(_ context.Context, id string) (*model.Program, error) {
	return m.store.get(id, true)
}

func (m *mockProgramRepo) List(_ context.Context, f repository.ProgramFilter, p repository.ListParams) ([]model.Program, int64, error) {
	items, total := m.store.list(func(pr *model.Program) bool {
		return f.InstitutionID == "" || pr.InstitutionID == f.InstitutionID
	}, p)
	return items, total, nil
}

func (m *mockProgramRepo) Update(_ context.Context, p *model.Program) error {
	return m.store.update(p, nil)
}

func (m *mockProgramRepo) SoftDelete(_ context.Context, id, by string, reason *string) error {
	return m.store.softDelete(id, by, reason, nil)
}

// ── Mock OfferRepository ──

type mockOfferRepo struct{ store *memStore[model.Offer] }

func newMockOfferRepo() *mockOfferRepo {
	return &mockOfferRepo{store: newMemStore(func(o *model.Offer) *model.Lifecycle { return &o.Lifecycle })}
}

func (m *mockOfferRepo) Create(_ context.Context, o *model.Offer) error {
	return m.store.insert(o, nil)
}

func (m *mockOfferRepo) GetByID(_ context.Context, id string) (*model.Offer, error) {
	return m.store.get(id, false)
}

func (m *mockOfferRepo) GetByIDUnscoped(_ context.Context, id string) (*model.Offer, error) {
	return m.store.get(id, true)
}

func (m *mockOfferRepo) List(_ context.Context, f repository.OfferFilter, p repository.ListParams) ([]model.Offer, int64, error) {
	items, total := m.store.list(func(o *model.Offer) bool {
		if f.InstitutionID != "" && o.InstitutionID != f.InstitutionID {
			return false
		}
		if f.ProgramID != "" && (o.ProgramID == nil || *o.ProgramID != f.ProgramID) {
			return false
		}
		if f.Type != "" && o.Type != f.Type {
			return false
		}
		return f.Status == "" || o.EffectiveStatus(f.Now) == f.Status
	}, p)
	return items, total, nil
}

func (m *mockOfferRepo) Update(_ context.Context, o *model.Offer) error {
	return m.store.update(o, nil)
}

func (m *mockOfferRepo) SoftDelete(_ context.Context, id, by string, reason *string) error {
	return m.store.softDelete(id, by, reason, func(o *model.Offer) { o.Status = model.OfferStatusDeleted })
}

// ── Mock RoleRepository ──

type mockRoleRepo struct{ store *memStore[model.Role] }

// newMockRoleRepo is seeded with the three built-in roles.
func newMockRoleRepo() *mockRoleRepo {
	m := &mockRoleRepo{store: newMemStore(func(r *model.Role) *model.Lifecycle { return &r.Lifecycle })}
	for _, name := range []string{model.RoleSysAdmin, model.RoleInstitutionAdmin, model.RoleCandidate} {
		_ = m.store.insert(&model.Role{Name: name}, nil)
	}
	return m
}

func (m *mockRoleRepo) Create(_ context.Context, role *model.Role) error {
	return m.store.insert(role, func(existing *model.Role) error {
		if model.NormalizeRoleName(existing.Name) == model.NormalizeRoleName(role.Name) {
			return conflictOn("name")
		}
		return nil
	})
}

func (m *mockRoleRepo) GetByName(_ context.Context, name string) (*model.Role, error) {
	return m.store.find(false, func(r *model.Role) bool {
		return model.NormalizeRoleName(r.Name) == model.NormalizeRoleName(name)
	})
}

func (m *mockRoleRepo) List(_ context.Context) ([]model.Role, error) {
	items, _ := m.store.list(nil, repository.ListParams{})
	return items, nil
}

// ── Mock UserRepository ──

type mockUserRepo struct{ store *memStore[model.User] }

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{store: newMemStore(func(u *model.User) *model.Lifecycle { return &u.Lifecycle })}
}

// Create enforces the case-insensitive email index over every row, deleted
// ones included.
func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	return m.store.insert(user, func(existing *model.User) error {
		if strings.EqualFold(existing.Email, user.Email) {
			return conflictOn("email")
		}
		return nil
	})
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	return m.store.get(id, false)
}

func (m *mockUserRepo) GetByIDUnscoped(_ context.Context, id string) (*model.User, error) {
	return m.store.get(id, true)
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return m.store.find(false, func(u *model.User) bool {
		return strings.EqualFold(u.Email, strings.TrimSpace(email))
	})
}

func (m *mockUserRepo) List(_ context.Context, f repository.UserFilter, p repository.ListParams) ([]model.User, int64, error) {
	items, total := m.store.list(func(u *model.User) bool {
		if f.InstitutionID != "" && (u.InstitutionID == nil || *u.InstitutionID != f.InstitutionID) {
			return false
		}
		return f.Role == "" || u.HasRole(f.Role)
	}, p)
	return items, total, nil
}

// Update leaves the role set alone, as the gorm update omits associations.
func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	return m.store.update(user, func(stored, next *model.User) { next.Roles = stored.Roles })
}

func (m *mockUserRepo) ReplaceRoles(_ context.Context, user *model.User, roles []model.Role) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	stored, ok := m.store.rows[user.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Roles = append([]model.Role(nil), roles...)
	user.Roles = stored.Roles
	return nil
}

func (m *mockUserRepo) SoftDelete(_ context.Context, id, by string, reason *string) error {
	return m.store.softDelete(id, by, reason, nil)
}

// ── Mock CandidateProfileRepository ──

type mockCandidateProfileRepo struct{ store *memStore[model.CandidateProfile] }

func newMockCandidateProfileRepo() *mockCandidateProfileRepo {
	return &mockCandidateProfileRepo{store: newMemStore(func(cp *model.CandidateProfile) *model.Lifecycle { return &cp.Lifecycle })}
}

func (m *mockCandidateProfileRepo) Create(_ context.Context, cp *model.CandidateProfile) error {
	return m.store.insert(cp, func(existing *model.CandidateProfile) error {
		if existing.UserID == cp.UserID {
			return conflictOn("user_id")
		}
		return nil
	})
}

func (m *mockCandidateProfileRepo) GetByID(_ context.Context, id string) (*model.CandidateProfile, error) {
	return m.store.get(id, false)
}

func (m *mockCandidateProfileRepo) GetByIDUnscoped(_ context.Context, id string) (*model.CandidateProfile, error) {
	return m.store.get(id, true)
}

func (m *mockCandidateProfileRepo) GetByUserID(_ context.Context, userID string) (*model.CandidateProfile, error) {
	return m.store.find(true, func(cp *model.CandidateProfile) bool { return cp.UserID == userID })
}

func (m *mockCandidateProfileRepo) GetByIDs(_ context.Context, ids []string) (map[string]*model.CandidateProfile, error) {
	out := make(map[string]*model.CandidateProfile, len(ids))
	for _, id := range ids {
		if cp, err := m.store.get(id, false); err == nil {
			out[id] = cp
		}
	}
	return out, nil
}

func (m *mockCandidateProfileRepo) List(_ context.Context, p repository.ListParams) ([]model.CandidateProfile, int64, error) {
	items, total := m.store.list(nil, p)
	return items, total, nil
}

func (m *mockCandidateProfileRepo) Update(_ context.Context, cp *model.CandidateProfile) error {
	return m.store.update(cp, nil)
}

func (m *mockCandidateProfileRepo) SoftDelete(_ context.Context, id, by string, reason *string) error {
	return m.store.softDelete(id, by, reason, nil)
}

// ── Mock ApplicationRepository ──

type mockApplicationRepo struct{ store *memStore[model.Application] }

func newMockApplicationRepo() *mockApplicationRepo {
	return &mockApplicationRepo{store: newMemStore(func(a *model.Application) *model.Lifecycle { return &a.Lifecycle })}
}

// Create mirrors the partial unique index: only active rows collide.
func (m *mockApplicationRepo) Create(_ context.Context, a *model.Application) error {
	return m.store.insert(a, func(existing *model.Application) error {
		if !existing.IsDeleted() && existing.CandidateProfileID == a.CandidateProfileID && existing.OfferID == a.OfferID {
			return conflictOn("offer_id")
		}
		return nil
	})
}

func (m *mockApplicationRepo) GetByID(_ context.Context, id string) (*model.Application, error) {
	return m.store.get(id, false)
}

func (m *mockApplicationRepo) GetByIDUnscoped(_ context.Context, id string) (*model.Application, error) {
	return m.store.get(id, true)
}

func (m *mockApplicationRepo) GetByCandidateAndOffer(_ context.Context, candidateProfileID, offerID string) (*model.Application, error) {
	return m.store.find(false, func(a *model.Application) bool {
		return a.CandidateProfileID == candidateProfileID && a.OfferID == offerID
	})
}

func (m *mockApplicationRepo) List(_ context.Context, f repository.ApplicationFilter, p repository.ListParams) ([]model.Application, int64, error) {
	items, total := m.store.list(func(a *model.Application) bool {
		if f.CandidateProfileID != "" && a.CandidateProfileID != f.CandidateProfileID {
			return false
		}
		if f.OfferID != "" && a.OfferID != f.OfferID {
			return false
		}
		return f.Status == "" || a.Status == f.Status
	}, p)
	return items, total, nil
}

func (m *mockApplicationRepo) Update(_ context.Context, a *model.Application) error {
	return m.store.update(a, nil)
}

func (m *mockApplicationRepo) SoftDelete(_ context.Context, id, by string, reason *string) error {
	return m.store.softDelete(id, by, reason, nil)
}
