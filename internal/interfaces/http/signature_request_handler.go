package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Firmador-api/internal/application/dto"
	"github.com/jhoicas/Firmador-api/internal/application/signing"
)

// SignatureRequestHandler solicitudes de firma desde la app autenticada.
type SignatureRequestHandler struct {
	uc *signing.SignatureRequestUseCase
}

// NewSignatureRequestHandler construye el handler.
func NewSignatureRequestHandler(uc *signing.SignatureRequestUseCase) *SignatureRequestHandler {
	return &SignatureRequestHandler{uc: uc}
}

// Create godoc
// @Summary      Crear solicitud de firma sobre un documento
// @Tags         signature-requests
// @Accept       json
// @Produce      json
// @Param        id    path  string                             true  "ID del documento"
// @Param        body  body  dto.CreateSignatureRequestRequest  true  "Firmantes en orden"
// @Success      201   {object}  dto.SignatureRequestCreatedResponse
// @Failure      402   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/signature-requests [post]
func (h *SignatureRequestHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSignatureRequestRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if len(in.Signers) == 0 {
		return badRequest(c, "VALIDATION", "se requiere al menos un firmante")
	}
	out, err := h.uc.Create(c.Context(), GetPrincipal(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListByDocument GET /api/documents/:id/signature-requests
func (h *SignatureRequestHandler) ListByDocument(c *fiber.Ctx) error {
	out, err := h.uc.ListByDocument(c.Context(), GetPrincipal(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID GET /api/signature-requests/:id
func (h *SignatureRequestHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.Context(), GetPrincipal(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Cancel POST /api/signature-requests/:id/cancel
func (h *SignatureRequestHandler) Cancel(c *fiber.Ctx) error {
	out, err := h.uc.Cancel(c.Context(), GetPrincipal(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete DELETE /api/signature-requests/:id
func (h *SignatureRequestHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.Context(), GetPrincipal(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ExpireOverdue POST /api/signature-requests/expire (super_admin). Mismo barrido que cmd/sweeper.
func (h *SignatureRequestHandler) ExpireOverdue(c *fiber.Ctx) error {
	out, err := h.uc.ExpireOverdue(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
