package handler

import "github.com/HitaloNasc/v-lab-tech-lead-test/internal/service"

// Handler aggregates every HTTP handler.
type Handler struct {
	Auth             *AuthHandler
	Institution      *InstitutionHandler
	Program          *ProgramHandler
	Offer            *OfferHandler
	Role             *RoleHandler
	User             *UserHandler
	CandidateProfile *CandidateProfileHandler
	Application      *ApplicationHandler
	Export           *ExportHandler
	Health           *HealthHandler
}

// NewHandler wires the handlers and installs the custom binding tags.
func NewHandler(svc *service.Service, health *HealthHandler) *Handler {
	RegisterValidators()

	return &Handler{
		Auth:             NewAuthHandler(svc.Auth, svc.Registration),
		Institution:      NewInstitutionHandler(svc.Institution),
		Program:          NewProgramHandler(svc.Program),
		Offer:            NewOfferHandler(svc.Offer, svc.Application),
		Role:             NewRoleHandler(svc.Role),
		User:             NewUserHandler(svc.User),
		CandidateProfile: NewCandidateProfileHandler(svc.CandidateProfile, svc.Application),
		Application:      NewApplicationHandler(svc.Application),
		Export:           NewExportHandler(svc.Export),
		Health:           health,
	}
}
