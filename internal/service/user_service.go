package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/dto"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/invariant"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/model"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/policy"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/repository"
	apperrors "github.com/HitaloNasc/v-lab-tech-lead-test/pkg/errors"
	"github.com/HitaloNasc/v-lab-tech-lead-test/pkg/password"
)

// UserService user use cases. The candidate profile, when one exists, is
// returned alongside the user.
type UserService interface {
	Create(ctx context.Context, req *dto.CreateUserRequest, p *policy.Principal) (*model.User, *model.CandidateProfile, error)
	GetByID(ctx context.Context, id string, p *policy.Principal) (*model.User, *model.CandidateProfile, error)
	List(ctx context.Context, q *dto.UserListQuery, p *policy.Principal) ([]model.User, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateUserRequest, p *policy.Principal) (*model.User, *model.CandidateProfile, error)
	Delete(ctx context.Context, id string, reason *string, p *policy.Principal) error
}

type userService struct {
	repo    *repository.Repository
	hasher  password.Hasher
	creator *userCreator
	rec     *Recorder
	logger  *zap.Logger
}

func NewUserService(repo *repository.Repository, hasher password.Hasher, rec *Recorder, logger *zap.Logger) UserService {
	return &userService{
		repo:    repo,
		hasher:  hasher,
		creator: &userCreator{repo: repo, hasher: hasher},
		rec:     rec,
		logger:  logger,
	}
}

// ────────────────────── Create ──────────────────────

func (s *userService) Create(ctx context.Context, req *dto.CreateUserRequest, p *policy.Principal) (*model.User, *model.CandidateProfile, error) {
	if err := s.rec.authorize(policy.Request{Principal: p, Resource: policy.ResourceUser, Action: policy.ActionCreate}); err != nil {
		return nil, nil, err
	}

	roles, err := s.creator.resolveRoles(ctx, req.Roles)
	if err != nil {
		return nil, nil, err
	}
	return s.creator.create(ctx, newUser{request: req, roles: roles})
}

// newUser is a create request whose role names are already resolved.
type newUser struct {
	request        *dto.CreateUserRequest
	roles          []model.Role
	requireProfile bool
}

// userCreator is the user-create step shared by the user service and the
// registration saga.
type userCreator struct {
	repo   *repository.Repository
	hasher password.Hasher
}

func (c *userCreator) resolveRoles(ctx context.Context, requested []string) ([]model.Role, error) {
	known, err := c.repo.Role.List(ctx)
	if err != nil {
		return nil, err
	}
	return invariant.ResolveRoles(requested, known)
}

// create checks every storage-free rule and hashes the password before opening
// the transaction; the user and its optional profile commit together.
func (c *userCreator) create(ctx context.Context, in newUser) (*model.User, *model.CandidateProfile, error) {
	req := in.request
	names := roleNames(in.roles)
	institutionID := emptyToNil(req.InstitutionID)
	email := strings.TrimSpace(req.Email)

	if err := invariant.RoleInstitution(names, institutionID); err != nil {
		return nil, nil, err
	}
	if err := invariant.CandidateProfilePayload(names, req.CandidateProfile != nil, in.requireProfile); err != nil {
		return nil, nil, err
	}
	if err := invariant.Email(email); err != nil {
		return nil, nil, err
	}
	if err := invariant.Password(req.Password); err != nil {
		return nil, nil, err
	}

	hashed, err := c.hasher.Hash(req.Password)
	if err != nil {
		return nil, nil, err
	}

	user := &model.User{Email: email, HashedPassword: hashed, InstitutionID: institutionID, Roles: in.roles}
	var profile *model.CandidateProfile

	err = c.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if institutionID != nil {
			if _, err := tx.Institution.GetByID(ctx, *institutionID); err != nil {
				return notFound(err, "institution not found", "institution_id")
			}
		}
		if err := ensureEmailFree(ctx, tx, email, ""); err != nil {
			return err
		}
		if err := tx.User.Create(ctx, user); err != nil {
			return err
		}
		if req.CandidateProfile != nil {
			cp, err := createCandidateProfile(ctx, tx, req.CandidateProfile.ToModel(user.ID))
			if err != nil {
				return err
			}
			profile = cp
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return user, profile, nil
}

// ────────────────────── Read ──────────────────────

func (s *userService) GetByID(ctx context.Context, id string, p *policy.Principal) (*model.User, *model.CandidateProfile, error) {
	if err := s.rec.authorize(policy.Request{Principal: p, Resource: policy.ResourceUser, Action: policy.ActionRead, OwnerID: id}); err != nil {
		return nil, nil, err
	}

	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		return nil, nil, notFound(err, "user not found", "id")
	}
	profile, err := activeProfile(ctx, s.repo, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, profile, nil
}

func (s *userService) List(ctx context.Context, q *dto.UserListQuery, p *policy.Principal) ([]model.User, int64, error) {
	if err := s.rec.authorize(policy.Request{Principal: p, Resource: policy.ResourceUser, Action: policy.ActionList}); err != nil {
		return nil, 0, err
	}
	limit, offset := q.Window()
	return s.repo.User.List(ctx,
		repository.UserFilter{InstitutionID: q.InstitutionID, Role: model.NormalizeRoleName(q.Role)},
		repository.ListParams{Limit: limit, Offset: offset})
}

// ────────────────────── Update ──────────────────────

// Update merges the patch onto the stored user, re-runs the role/institution
// coupling against the merged state, and writes the user, its role set and the
// nested profile in one transaction.
func (s *userService) Update(ctx context.Context, id string, req *dto.UpdateUserRequest, p *policy.Principal) (*model.User, *model.CandidateProfile, error) {
	patch := req.ToPatch()

	if err := s.rec.authorize(policy.Request{
		Principal:               p,
		Resource:                policy.ResourceUser,
		Action:                  policy.ActionUpdate,
		OwnerID:                 id,
		TouchesRoles:            patch.Roles != nil,
		TouchesInstitution:      patch.TouchesInstitution(),
		TouchesCandidateProfile: patch.CandidateProfile != nil,
	}); err != nil {
		return nil, nil, err
	}

	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		return nil, nil, notFound(err, "user not found", "id")
	}

	// 1. effective roles and institution after the merge
	effectiveNames := patch.EffectiveRoleNames(user)
	var newRoles []model.Role
	if patch.Roles != nil {
		if newRoles, err = s.creator.resolveRoles(ctx, patch.Roles); err != nil {
			return nil, nil, err
		}
		effectiveNames = roleNames(newRoles)
	}
	patch.InstitutionID.Value = emptyToNil(patch.InstitutionID.Value)
	effectiveInstitution := patch.InstitutionID.Or(user.InstitutionID)

	if err := invariant.RoleInstitution(effectiveNames, effectiveInstitution); err != nil {
		return nil, nil, err
	}
	if err := invariant.CandidateProfilePayload(effectiveNames, patch.CandidateProfile != nil, false); err != nil {
		return nil, nil, err
	}

	// 2. scalar fields
	emailChanged := false
	if patch.Email != nil {
		email := strings.TrimSpace(*patch.Email)
		if err := invariant.Email(email); err != nil {
			return nil, nil, err
		}
		emailChanged = !strings.EqualFold(email, user.Email)
		patch.Email = &email
	}
	if patch.Password != nil {
		if err := invariant.Password(*patch.Password); err != nil {
			return nil, nil, err
		}
		hashed, err := s.hasher.Hash(*patch.Password)
		if err != nil {
			return nil, nil, err
		}
		user.HashedPassword = hashed
	}
	patch.Apply(user)

	// 3. persist
	var profile *model.CandidateProfile
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// a role change can turn a stored institution_id into a live reference
		if effectiveInstitution != nil && (patch.InstitutionID.Set || patch.Roles != nil) {
			if _, err := tx.Institution.GetByID(ctx, *effectiveInstitution); err != nil {
				return notFound(err, "institution not found", "institution_id")
			}
		}
		if emailChanged {
			if err := ensureEmailFree(ctx, tx, user.Email, user.ID); err != nil {
				return err
			}
		}
		if err := tx.User.Update(ctx, user); err != nil {
			return notFound(err, "user not found", "id")
		}
		if newRoles != nil {
			if err := tx.User.ReplaceRoles(ctx, user, newRoles); err != nil {
				return err
			}
		}
		if patch.CandidateProfile != nil {
			cp, err := applyProfilePatch(ctx, tx, user.ID, *patch.CandidateProfile)
			if err != nil {
				return err
			}
			profile = cp
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if profile == nil {
		if profile, err = activeProfile(ctx, s.repo, user.ID); err != nil {
			return nil, nil, err
		}
	}
	return user, profile, nil
}

// applyProfilePatch updates the user's profile, or creates it from the patch
// when the user has none yet. A soft-deleted profile cannot be revived.
func applyProfilePatch(ctx context.Context, tx *repository.Repository, userID string, patch model.CandidateProfilePatch) (*model.CandidateProfile, error) {
	existing, err := tx.CandidateProfile.GetByUserID(ctx, userID)
	switch {
	case repository.IsNotFound(err):
		cp := &model.CandidateProfile{UserID: userID}
		patch.Apply(cp)
		return createCandidateProfile(ctx, tx, cp)
	case err != nil:
		return nil, err
	case existing.IsDeleted():
		return nil, apperrors.NotFound("candidate profile not found",
			apperrors.Detail{Field: "candidate_profile", Reason: reasonNotFound})
	}

	if err := updateCandidateProfile(ctx, tx, existing, patch); err != nil {
		return nil, err
	}
	return existing, nil
}

// ────────────────────── Delete ──────────────────────

func (s *userService) Delete(ctx context.Context, id string, reason *string, p *policy.Principal) error {
	if err := s.rec.authorize(policy.Request{Principal: p, Resource: policy.ResourceUser, Action: policy.ActionDelete, OwnerID: id}); err != nil {
		return err
	}

	user, err := s.repo.User.GetByIDUnscoped(ctx, id)
	if err != nil {
		return notFound(err, "user not found", "id")
	}
	if user.IsDeleted() {
		return nil
	}
	if err := s.repo.User.SoftDelete(ctx, id, p.ID, reason); err != nil {
		s.logger.Error("delete user failed", zap.String("id", id), zap.Error(err))
		return err
	}
	s.rec.Deleted(ctx, "user", id, p.ID, reason)
	return nil
}

// ── helpers ──

// ensureEmailFree rejects an email held by any user other than selfID. The
// unique index is the final guard against concurrent writers.
func ensureEmailFree(ctx context.Context, repo *repository.Repository, email, selfID string) error {
	other, err := repo.User.GetByEmail(ctx, email)
	if repository.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if other.ID == selfID {
		return nil
	}
	return apperrors.Conflict("email already registered",
		apperrors.Detail{Field: "email", Reason: "already_exists"})
}

// activeProfile returns the user's live profile, or nil.
func activeProfile(ctx context.Context, repo *repository.Repository, userID string) (*model.CandidateProfile, error) {
	cp, err := repo.CandidateProfile.GetByUserID(ctx, userID)
	if repository.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if cp.IsDeleted() {
		return nil, nil
	}
	return cp, nil
}

func roleNames(roles []model.Role) []string {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, model.NormalizeRoleName(r.Name))
	}
	return names
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
