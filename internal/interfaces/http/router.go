package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Firmador-api/internal/application/auth"
	"github.com/jhoicas/Firmador-api/internal/application/document"
	"github.com/jhoicas/Firmador-api/internal/application/signing"
	"github.com/jhoicas/Firmador-api/internal/application/usecase"
	"github.com/jhoicas/Firmador-api/internal/domain/entity"
	"github.com/jhoicas/Firmador-api/internal/infrastructure/ratelimit"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC         *auth.AuthUseCase
	PlanUC         *usecase.PlanUseCase
	CompanyUC      *usecase.CompanyUseCase
	BranchUC       *usecase.BranchUseCase
	UserUC         *usecase.UserUseCase
	DocumentUC     *document.DocumentUseCase
	SignatureUC    *signing.SignatureRequestUseCase
	Gateway        *signing.AccessGateway
	JWTSecret      string
	MaxUploadBytes int64
	PublicLimiter  ratelimit.Limiter // nil = sin límite
	Logger         zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	// Superficie pública por token (sin JWT ni alcance de tenant)
	public := app.Group("/public", PublicRateLimit(deps.PublicLimiter, deps.Logger))
	publicHandler := NewPublicHandler(deps.Gateway, deps.DocumentUC)
	public.Get("/sign/:token", publicHandler.View)
	public.Get("/sign/:token/file", publicHandler.File)
	public.Post("/sign/:token/sign", publicHandler.Sign)
	public.Post("/sign/:token/reject", publicHandler.Reject)
	public.Get("/documents/:hash", publicHandler.Document)

	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	admins := RequireRole(entity.RoleSuperAdmin, entity.RoleCompanyAdmin)
	superAdmin := RequireRole(entity.RoleSuperAdmin)

	plans := protected.Group("/plans")
	planHandler := NewPlanHandler(deps.PlanUC)
	plans.Get("/", planHandler.List)
	plans.Get("/:id", planHandler.GetByID)
	plans.Post("/", superAdmin, planHandler.Create)

	companies := protected.Group("/companies", admins)
	companyHandler := NewCompanyHandler(deps.CompanyUC)
	companies.Get("/", companyHandler.List)
	companies.Get("/:id", companyHandler.GetByID)
	companies.Post("/", superAdmin, companyHandler.Create)
	companies.Put("/:id/plan", superAdmin, companyHandler.ChangePlan)

	branches := protected.Group("/branches")
	branchHandler := NewBranchHandler(deps.BranchUC)
	branches.Get("/", branchHandler.List)
	branches.Get("/:id", branchHandler.GetByID)
	branches.Post("/", admins, branchHandler.Create)
	branches.Delete("/:id", admins, branchHandler.Delete)

	users := protected.Group("/users")
	userHandler := NewUserHandler(deps.UserUC)
	users.Get("/me", userHandler.Me)
	users.Get("/", userHandler.List)
	users.Get("/:id", userHandler.GetByID)
	users.Post("/", admins, userHandler.Create)
	users.Delete("/:id", admins, userHandler.Delete)

	documents := protected.Group("/documents")
	documentHandler := NewDocumentHandler(deps.DocumentUC, deps.MaxUploadBytes)
	signatureHandler := NewSignatureRequestHandler(deps.SignatureUC)
	documents.Post("/", documentHandler.Create)
	documents.Get("/", documentHandler.List)
	documents.Get("/:id", documentHandler.GetByID)
	documents.Delete("/:id", admins, documentHandler.Delete)
	documents.Get("/:id/file", documentHandler.Download)
	documents.Post("/:id/transition", documentHandler.Transition)
	documents.Post("/:id/internal-signers/view", documentHandler.ViewInternal)
	documents.Post("/:id/internal-signers/sign", documentHandler.SignInternal)
	documents.Post("/:id/internal-signers/reject", documentHandler.RejectInternal)
	documents.Post("/:id/signature-requests", signatureHandler.Create)
	documents.Get("/:id/signature-requests", signatureHandler.ListByDocument)

	requests := protected.Group("/signature-requests")
	requests.Post("/expire", superAdmin, signatureHandler.ExpireOverdue)
	requests.Get("/:id", signatureHandler.GetByID)
	requests.Post("/:id/cancel", signatureHandler.Cancel)
	requests.Delete("/:id", admins, signatureHandler.Delete)
}
