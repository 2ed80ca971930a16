package http

import (
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Firmador-api/internal/application/document"
	"github.com/jhoicas/Firmador-api/internal/application/dto"
)

// DocumentHandler documentos del tenant y acciones de firmantes internos.
type DocumentHandler struct {
	uc       *document.DocumentUseCase
	maxBytes int64
}

// NewDocumentHandler construye el handler. maxBytes limita el archivo subido (0 = sin límite).
func NewDocumentHandler(uc *document.DocumentUseCase, maxBytes int64) *DocumentHandler {
	return &DocumentHandler{uc: uc, maxBytes: maxBytes}
}

// Create godoc
// @Summary      Crear documento (multipart)
// @Tags         documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        file                       formData  file    true   "Archivo"
// @Param        title                      formData  string  true   "Título"
// @Param        description                formData  string  false  "Descripción"
// @Param        branch_id                  formData  string  false  "Filial"
// @Param        requires_internal_signers  formData  bool    false  "Requiere firmantes internos"
// @Param        internal_signer_ids        formData  string  false  "IDs de usuarios, separados por coma"
// @Success      201  {object}  dto.DocumentResponse
// @Failure      402  {object}  dto.ErrorResponse
// @Router       /api/documents [post]
func (h *DocumentHandler) Create(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "VALIDATION", "file es requerido")
	}
	if h.maxBytes > 0 && fh.Size > h.maxBytes {
		return badRequest(c, "FILE_TOO_LARGE", "el archivo supera el tamaño permitido")
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest(c, "INVALID_FILE", "no se pudo leer el archivo")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return badRequest(c, "INVALID_FILE", "no se pudo leer el archivo")
	}

	requires, _ := strconv.ParseBool(c.FormValue("requires_internal_signers"))
	in := dto.CreateDocumentInput{
		CompanyID:               c.FormValue("company_id"),
		BranchID:                c.FormValue("branch_id"),
		Title:                   c.FormValue("title"),
		Description:             c.FormValue("description"),
		RequiresInternalSigners: requires,
		InternalSignerIDs:       signerIDs(c),
		FileName:                fh.Filename,
		ContentType:             fh.Header.Get("Content-Type"),
		Data:                    data,
	}
	if strings.TrimSpace(in.Title) == "" {
		return badRequest(c, "VALIDATION", "title es requerido")
	}
	out, err := h.uc.Create(c.Context(), GetPrincipal(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID GET /api/documents/:id
func (h *DocumentHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.Context(), GetPrincipal(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar documentos visibles
// @Tags         documents
// @Produce      json
// @Param        status     query  string  false  "Estado"
// @Param        branch_id  query  string  false  "Filial"
// @Param        limit      query  int     false  "Límite"  default(20)
// @Param        offset     query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.DocumentListResponse
// @Router       /api/documents [get]
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	filter := dto.DocumentFilterRequest{Status: c.Query("status"), BranchID: c.Query("branch_id")}
	out, err := h.uc.List(c.Context(), GetPrincipal(c), filter, pageFromQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Transition godoc
// @Summary      Transición explícita del documento
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        id    path  string                         true  "ID del documento"
// @Param        body  body  dto.TransitionDocumentRequest  true  "Estado destino"
// @Success      200   {object}  dto.DocumentResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/transition [post]
func (h *DocumentHandler) Transition(c *fiber.Ctx) error {
	var in dto.TransitionDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if in.Status == "" {
		return badRequest(c, "VALIDATION", "status es requerido")
	}
	out, err := h.uc.Transition(c.Context(), GetPrincipal(c), c.Params("id"), in.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete DELETE /api/documents/:id
func (h *DocumentHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.Context(), GetPrincipal(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Download GET /api/documents/:id/file
func (h *DocumentHandler) Download(c *fiber.Ctx) error {
	file, err := h.uc.DownloadFile(c.Context(), GetPrincipal(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return sendFile(c, file)
}

// ViewInternal POST /api/documents/:id/internal-signers/view
func (h *DocumentHandler) ViewInternal(c *fiber.Ctx) error {
	out, err := h.uc.ViewInternal(c.Context(), GetPrincipal(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// SignInternal POST /api/documents/:id/internal-signers/sign
func (h *DocumentHandler) SignInternal(c *fiber.Ctx) error {
	out, err := h.uc.SignInternal(c.Context(), GetPrincipal(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// RejectInternal POST /api/documents/:id/internal-signers/reject
func (h *DocumentHandler) RejectInternal(c *fiber.Ctx) error {
	out, err := h.uc.RejectInternal(c.Context(), GetPrincipal(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// signerIDs acepta el campo repetido o una lista separada por comas.
func signerIDs(c *fiber.Ctx) []string {
	var raw []string
	if form, err := c.MultipartForm(); err == nil {
		raw = form.Value["internal_signer_ids"]
	}
	var out []string
	for _, v := range raw {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				out = append(out, id)
			}
		}
	}
	return out
}

func sendFile(c *fiber.Ctx, file *dto.FileContent) error {
	c.Set(fiber.HeaderContentType, file.ContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+strings.ReplaceAll(file.Name, `"`, "")+`"`)
	return c.Send(file.Data)
}
