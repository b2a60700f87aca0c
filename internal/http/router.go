package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"collabhub/internal/repository"
)

// RouterConfig agrupa los middlewares transversales del router.
type RouterConfig struct {
	ServiceName    string
	AllowedOrigins []string
	AuthRate       rate.Limit
	AuthBurst      int
	Tokens         TokenValidator
	Verified       VerifiedChecker
	Guard          *AccessGuard
}

// Handlers reúne los handlers por área.
type Handlers struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Projects      *ProjectHandler
	Participation *ParticipationHandler
	Boards        *BoardHandler
	Profiles      *ProfileHandler
}

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(logger *zap.Logger, cfg RouterConfig, h Handlers) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: request id, trazas, logging, recovery, CORS y JSON content-type.
	r.Use(
		requestIDMiddleware(),
		tracingMiddleware(cfg.ServiceName),
		zapLoggerMiddleware(logger),
		gin.Recovery(),
		corsMiddleware(cfg.AllowedOrigins),
		jsonContentTypeMiddleware(),
	)

	authn := JWTAuthMiddleware(cfg.Tokens)
	verified := RequireVerified(logger, cfg.Verified)
	g := cfg.Guard

	r.GET("/csrf", CSRFToken)

	auth := r.Group("/auth", RateLimitMiddleware(cfg.AuthRate, cfg.AuthBurst))
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh-token", h.Auth.RefreshToken)
	auth.POST("/logout", authn, h.Auth.Logout)
	auth.GET("/google", h.Auth.GoogleLogin)
	auth.GET("/google/callback", h.Auth.GoogleCallback)

	users := r.Group("/users")
	users.POST("/send-confirmation-email", h.Users.SendConfirmationEmail)
	users.POST("/confirm", h.Users.ConfirmEmail)
	users.POST("/request-password-reset", h.Users.RequestPasswordReset)
	users.POST("/reset-password", h.Users.ResetPassword)
	users.GET("/email-available", h.Users.EmailAvailable)
	users.GET("", authn, h.Users.ListUsers)
	users.GET("/me", authn, h.Users.Me)
	users.PATCH("/me", authn, h.Users.UpdateMe)
	users.GET("/me/projects", authn, h.Users.MyProjects)
	users.GET("/:id", authn, h.Users.GetUser)
	users.GET("/:id/projects", authn, h.Users.UserProjects)
	users.GET("/:id/skills", authn, h.Profiles.UserSkills)

	projects := r.Group("/projects")
	projects.GET("/categories", h.Projects.Categories)
	projects.GET("/roles", h.Projects.RoleTypes)
	projects.GET("", h.Projects.List)
	projects.GET("/:id", h.Projects.Get)
	projects.POST("", authn, verified, h.Projects.Create)
	projects.PATCH("/:id", authn, verified, g.Owner(FromParams, "id", repository.ModelProject), h.Projects.Update)
	projects.PATCH("/:id/status", authn, verified, g.Owner(FromParams, "id", repository.ModelProject), h.Projects.UpdateStatus)
	projects.PUT("/:id/logo", authn, verified, g.Owner(FromParams, "id", repository.ModelProject), h.Projects.UpdateLogo)
	projects.DELETE("/:id", authn, verified, g.Owner(FromParams, "id", repository.ModelProject), h.Projects.Delete)
	projects.GET("/:id/documents", authn, g.Member(FromParams, "id", repository.ModelProject), h.Projects.Documents)
	projects.GET("/:id/boards", authn, g.Member(FromParams, "id", repository.ModelProject), h.Boards.ProjectBoards)
	projects.GET("/:id/invites", authn, g.Owner(FromParams, "id", repository.ModelProject), h.Participation.ProjectInvites)
	projects.GET("/:id/requests", authn, g.Owner(FromParams, "id", repository.ModelProject), h.Participation.ProjectRequests)
	projects.DELETE("/:id/members/me", authn, g.Member(FromParams, "id", repository.ModelProject), h.Participation.Leave)
	projects.DELETE("/:id/members/:userId", authn, verified, g.Owner(FromParams, "id", repository.ModelProject), h.Participation.RemoveMember)

	roles := r.Group("/project-roles", authn, verified)
	roles.POST("", g.Owner(FromBody, "projectId", repository.ModelProject), h.Projects.CreateRole)
	roles.DELETE("/:id", g.Owner(FromParams, "id", repository.ModelProjectRole), h.Projects.DeleteRole)

	docs := r.Group("/documents", authn, verified)
	docs.POST("", g.Owner(FromBody, "projectId", repository.ModelProject), h.Projects.CreateDocument)
	docs.PUT("/:id", g.Owner(FromParams, "id", repository.ModelDocument), h.Projects.UpdateDocument)
	docs.DELETE("/:projectId/:id", g.Owner(FromParams, "projectId", repository.ModelProject), h.Projects.DeleteDocument)

	part := r.Group("/participations", authn)
	part.GET("/invites", h.Participation.MyInvites)
	part.GET("/requests", h.Participation.MyRequests)
	part.POST("/invite", verified, g.Owner(FromBody, "projectId", repository.ModelProject), h.Participation.CreateInvite)
	part.POST("/request", verified, h.Participation.CreateRequest)
	part.PUT("/invite/:id/accept", verified, h.Participation.AcceptInvite)
	part.DELETE("/invite/:id/reject", h.Participation.RejectInvite)
	part.DELETE("/invite/:id/cancel", verified, g.Owner(FromParams, "id", repository.ModelParticipationInvite), h.Participation.CancelInvite)
	part.PUT("/request/:id/accept", verified, g.Owner(FromParams, "id", repository.ModelParticipationRequest), h.Participation.AcceptRequest)
	part.DELETE("/request/:id/reject", verified, g.Owner(FromParams, "id", repository.ModelParticipationRequest), h.Participation.RejectRequest)
	part.DELETE("/request/:id/cancel", h.Participation.CancelRequest)

	boards := r.Group("/boards", authn)
	boards.GET("/:id", g.Member(FromParams, "id", repository.ModelBoard), h.Boards.GetBoard)
	boards.POST("", g.Member(FromBody, "projectId", repository.ModelProject), h.Boards.CreateBoard)
	boards.PATCH("/:id", g.Member(FromParams, "id", repository.ModelBoard), h.Boards.RenameBoard)
	boards.DELETE("/:id", g.Member(FromParams, "id", repository.ModelBoard), h.Boards.DeleteBoard)

	statuses := r.Group("/task-statuses", authn)
	statuses.POST("", g.Member(FromBody, "boardId", repository.ModelBoard), h.Boards.CreateStatus)
	statuses.PATCH("/:id", g.Member(FromParams, "id", repository.ModelTaskStatus), h.Boards.RenameStatus)
	statuses.DELETE("/:id", g.Member(FromParams, "id", repository.ModelTaskStatus), h.Boards.DeleteStatus)

	tasks := r.Group("/tasks", authn)
	tasks.POST("", g.Member(FromBody, "taskStatusId", repository.ModelTaskStatus), h.Boards.CreateTask)
	tasks.GET("/:id", g.Member(FromParams, "id", repository.ModelTask), h.Boards.GetTask)
	tasks.PATCH("/:id", g.Member(FromParams, "id", repository.ModelTask), h.Boards.UpdateTask)
	tasks.PATCH("/:id/status", g.Member(FromParams, "id", repository.ModelTask), h.Boards.MoveTask)
	tasks.DELETE("/:id", g.Member(FromParams, "id", repository.ModelTask), h.Boards.DeleteTask)

	educations := r.Group("/educations", authn)
	educations.GET("/institutions", h.Profiles.Institutions)
	educations.GET("", h.Profiles.Educations)
	educations.POST("", h.Profiles.AddEducation)
	educations.PATCH("/:id", h.Profiles.UpdateEducation)
	educations.DELETE("/:id", h.Profiles.DeleteEducation)

	socials := r.Group("/socials", authn)
	socials.GET("", h.Profiles.Socials)
	socials.POST("", h.Profiles.AddSocial)
	socials.PATCH("/:id", h.Profiles.UpdateSocial)
	socials.DELETE("/:id", h.Profiles.DeleteSocial)

	skills := r.Group("/skills", authn)
	skills.POST("", h.Profiles.AddSkill)
	skills.DELETE("/:id", h.Profiles.DeleteSkill)

	return r
}
