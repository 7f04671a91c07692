package service

import (
	"go.uber.org/zap"

	"github.com/HitaloNasc/v-lab-tech-lead-test/config"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/audit"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/metrics"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/repository"
	"github.com/HitaloNasc/v-lab-tech-lead-test/pkg/jwt"
	"github.com/HitaloNasc/v-lab-tech-lead-test/pkg/password"
)

// Service is the entry point to every use case.
type Service struct {
	Auth             AuthService
	Registration     RegistrationService
	Institution      InstitutionService
	Program          ProgramService
	Offer            OfferService
	Role             RoleService
	User             UserService
	CandidateProfile CandidateProfileService
	Application      ApplicationService
	Export           ExportService
}

// NewService wires the services. tokens may be nil when Redis is disabled;
// logout then only discards tokens client-side.
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	hasher password.Hasher,
	tokens TokenStore,
	publisher audit.Publisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	rec := NewRecorder(publisher, m, logger)

	return &Service{
		Auth:             NewAuthService(repo, jwtMgr, hasher, tokens, logger),
		Registration:     NewRegistrationService(repo, hasher, rec, logger),
		Institution:      NewInstitutionService(repo, rec, logger),
		Program:          NewProgramService(repo, rec, logger),
		Offer:            NewOfferService(repo, rec, logger),
		Role:             NewRoleService(repo, rec, logger),
		User:             NewUserService(repo, hasher, rec, logger),
		CandidateProfile: NewCandidateProfileService(repo, rec, logger),
		Application:      NewApplicationService(repo, rec, logger),
		Export:           NewExportService(cfg, repo, rec, logger),
	}
}
