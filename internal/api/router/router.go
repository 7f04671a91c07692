package router

import (
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/HitaloNasc/v-lab-tech-lead-test/config"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/api/handler"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/api/middleware"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/metrics"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/model"
	"github.com/HitaloNasc/v-lab-tech-lead-test/pkg/jwt"
)

// Deps are the infrastructure pieces the router needs besides the handlers.
// Revoked and Redis may be nil when Redis is disabled.
type Deps struct {
	JWT     *jwt.Manager
	Revoked middleware.RevocationChecker
	Redis   *goredis.Client
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// Setup builds the gin engine.
func Setup(cfg *config.Config, h *handler.Handler, d Deps) *gin.Engine {
	r := gin.New()

	// ── global middleware ──
	r.Use(middleware.RequestID())
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(d.Logger, cfg.Log.SkipPaths...))
	if cfg.Metrics.Enabled && d.Metrics != nil {
		r.Use(middleware.Metrics(d.Metrics))
	}
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))
	if cfg.RateLimit.Enabled {
		r.Use(middleware.RateLimit(d.Redis, cfg.RateLimit.PerMinute, d.Logger))
	}

	r.GET("/health", h.Health.Health)
	if cfg.Metrics.Enabled && d.Metrics != nil {
		r.GET(cfg.Metrics.Path, gin.WrapH(d.Metrics.Handler()))
	}

	requireAuth := middleware.JWTAuth(d.JWT, d.Revoked)
	optionalAuth := middleware.OptionalAuth(d.JWT, d.Revoked)
	admins := middleware.RoleAuth(model.RoleSysAdmin, model.RoleInstitutionAdmin)
	sysAdmin := middleware.RoleAuth(model.RoleSysAdmin)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", optionalAuth, h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
			auth.POST("/logout", requireAuth, h.Auth.Logout)
			auth.GET("/me", requireAuth, h.Auth.GetCurrentUser)
		}

		// catalogue reads are public
		v1.GET("/institutions", h.Institution.ListInstitutions)
		v1.GET("/institutions/:id", h.Institution.GetInstitution)
		v1.GET("/programs", h.Program.ListPrograms)
		v1.GET("/programs/:id", h.Program.GetProgram)
		v1.GET("/offers", h.Offer.ListOffers)
		v1.GET("/offers/:id", h.Offer.GetOffer)
		v1.GET("/offers/:id/calendar.ics", h.Export.OfferCalendar)
		v1.GET("/roles", h.Role.ListRoles)

		authorized := v1.Group("")
		authorized.Use(requireAuth)
		{
			institutions := authorized.Group("/institutions", sysAdmin)
			{
				institutions.POST("", h.Institution.CreateInstitution)
				institutions.PATCH("/:id", h.Institution.UpdateInstitution)
				institutions.DELETE("/:id", h.Institution.DeleteInstitution)
			}

			programs := authorized.Group("/programs", admins)
			{
				programs.POST("", h.Program.CreateProgram)
				programs.PATCH("/:id", h.Program.UpdateProgram)
				programs.DELETE("/:id", h.Program.DeleteProgram)
			}

			offers := authorized.Group("/offers", admins)
			{
				offers.POST("", h.Offer.CreateOffer)
				offers.PATCH("/:id", h.Offer.UpdateOffer)
				offers.DELETE("/:id", h.Offer.DeleteOffer)
				offers.GET("/:id/applications", h.Offer.ListApplications)
				offers.GET("/:id/applications/export", h.Export.ExportApplications)
			}

			authorized.POST("/roles", sysAdmin, h.Role.CreateRole)

			// ownership rules live in the services
			users := authorized.Group("/users")
			{
				users.GET("", sysAdmin, h.User.ListUsers)
				users.POST("", sysAdmin, h.User.CreateUser)
				users.GET("/:id", h.User.GetUser)
				users.PATCH("/:id", h.User.UpdateUser)
				users.DELETE("/:id", sysAdmin, h.User.DeleteUser)
				users.GET("/:id/candidate-profile", h.CandidateProfile.GetProfileByUser)
			}

			profiles := authorized.Group("/candidate-profiles")
			{
				profiles.GET("", sysAdmin, h.CandidateProfile.ListProfiles)
				profiles.POST("", h.CandidateProfile.CreateProfile)
				profiles.GET("/:id", h.CandidateProfile.GetProfile)
				profiles.PATCH("/:id", h.CandidateProfile.UpdateProfile)
				profiles.DELETE("/:id", h.CandidateProfile.DeleteProfile)
				profiles.GET("/:id/applications", h.CandidateProfile.ListApplications)
			}

			applications := authorized.Group("/applications")
			{
				applications.POST("", h.Application.SubmitApplication)
				applications.GET("/:id", h.Application.GetApplication)
				applications.PATCH("/:id/status", admins, h.Application.UpdateStatus)
				applications.DELETE("/:id", h.Application.WithdrawApplication)
			}
		}
	}

	return r
}
