package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Firmador-api/internal/application/document"
	"github.com/jhoicas/Firmador-api/internal/application/dto"
	"github.com/jhoicas/Firmador-api/internal/application/signing"
	domainsigning "github.com/jhoicas/Firmador-api/internal/domain/signing"
)

// PublicHandler superficie pública: enlaces de firma y recuperación por access_hash.
// Toda falla responde 404 LINK_INVALID.
type PublicHandler struct {
	gateway   *signing.AccessGateway
	documents *document.DocumentUseCase
}

// NewPublicHandler construye el handler.
func NewPublicHandler(gateway *signing.AccessGateway, documents *document.DocumentUseCase) *PublicHandler {
	return &PublicHandler{gateway: gateway, documents: documents}
}

// View godoc
// @Summary      Abrir enlace de firma
// @Tags         public
// @Produce      json
// @Param        token  path  string  true  "Token del firmante"
// @Success      200  {object}  dto.SigningSessionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /public/sign/{token} [get]
func (h *PublicHandler) View(c *fiber.Ctx) error {
	out, err := h.gateway.View(c.Context(), signerAccess(c))
	if err != nil {
		return writePublicError(c, err)
	}
	return c.JSON(out)
}

// File GET /public/sign/:token/file
func (h *PublicHandler) File(c *fiber.Ctx) error {
	file, err := h.gateway.File(c.Context(), signerAccess(c))
	if err != nil {
		return writePublicError(c, err)
	}
	return sendFile(c, file)
}

// Sign godoc
// @Summary      Firmar
// @Tags         public
// @Produce      json
// @Param        token  path  string  true  "Token del firmante"
// @Success      200  {object}  dto.SignerActionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /public/sign/{token}/sign [post]
func (h *PublicHandler) Sign(c *fiber.Ctx) error {
	out, err := h.gateway.Sign(c.Context(), signerAccess(c))
	if err != nil {
		return writePublicError(c, err)
	}
	return c.JSON(out)
}

// Reject godoc
// @Summary      Rechazar
// @Tags         public
// @Accept       json
// @Produce      json
// @Param        token  path  string                      true   "Token del firmante"
// @Param        body   body  dto.RejectSignatureRequest  false  "Motivo"
// @Success      200  {object}  dto.SignerActionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /public/sign/{token}/reject [post]
func (h *PublicHandler) Reject(c *fiber.Ctx) error {
	var in dto.RejectSignatureRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "INVALID_BODY", "cuerpo inválido")
		}
	}
	out, err := h.gateway.Reject(c.Context(), signerAccess(c), in.Reason)
	if err != nil {
		return writePublicError(c, err)
	}
	return c.JSON(out)
}

// Document GET /public/documents/:hash
func (h *PublicHandler) Document(c *fiber.Ctx) error {
	file, err := h.documents.OpenByAccessHash(c.Context(), c.Params("hash"))
	if err != nil {
		return writePublicError(c, err)
	}
	return sendFile(c, file)
}

func signerAccess(c *fiber.Ctx) signing.SignerAccess {
	return signing.SignerAccess{
		Token: c.Params("token"),
		Audit: domainsigning.Audit{IPAddress: c.IP(), UserAgent: c.Get(fiber.HeaderUserAgent)},
	}
}
