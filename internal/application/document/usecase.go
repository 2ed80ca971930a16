package document

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/Firmador-api/internal/application/dto"
	"github.com/jhoicas/Firmador-api/internal/application/ports"
	"github.com/jhoicas/Firmador-api/internal/application/usecase"
	"github.com/jhoicas/Firmador-api/internal/domain"
	"github.com/jhoicas/Firmador-api/internal/domain/document"
	"github.com/jhoicas/Firmador-api/internal/domain/entity"
	"github.com/jhoicas/Firmador-api/internal/domain/quota"
	"github.com/jhoicas/Firmador-api/internal/domain/repository"
	"github.com/jhoicas/Firmador-api/internal/domain/signing"
	"github.com/jhoicas/Firmador-api/internal/domain/tenant"
	"github.com/jhoicas/Firmador-api/pkg/token"
)

// Config reglas de documentos.
type Config struct {
	MaxInternalSigners int   // techo de firmantes internos por documento
	MaxUploadBytes     int64 // 0 = sin límite
}

// DocumentUseCase ciclo de vida del documento: alta, transiciones, firmantes internos y archivo.
type DocumentUseCase struct {
	deps  usecase.Deps
	guard usecase.QuotaGuard
	cfg   Config
}

// NewDocumentUseCase construye el caso de uso.
func NewDocumentUseCase(deps usecase.Deps, cfg Config) *DocumentUseCase {
	deps = deps.WithDefaults()
	return &DocumentUseCase{deps: deps, guard: usecase.NewQuotaGuard(deps.Metrics), cfg: cfg}
}

// Create sube el archivo y crea el documento en draft dentro de la tx que consume la cuota document.
// Si la tx falla, el archivo subido se elimina.
func (uc *DocumentUseCase) Create(ctx context.Context, p tenant.Principal, in dto.CreateDocumentInput) (*dto.DocumentResponse, error) {
	if tenant.Resolve(p, tenant.ResourceDocument).Deny {
		return nil, domain.ErrForbidden
	}
	companyID, err := usecase.TargetCompany(p, in.CompanyID)
	if err != nil {
		return nil, err
	}
	branchID := in.BranchID
	if p.Role == entity.RoleSubscriber && p.BranchID != "" {
		if branchID != "" && branchID != p.BranchID {
			return nil, domain.ErrForbidden
		}
		branchID = p.BranchID
	}

	title := norm.NFC.String(strings.TrimSpace(in.Title))
	if title == "" || len(in.Data) == 0 {
		return nil, domain.ErrInvalidInput
	}
	if uc.cfg.MaxUploadBytes > 0 && int64(len(in.Data)) > uc.cfg.MaxUploadBytes {
		return nil, domain.ErrInvalidInput
	}
	signerIDs := dedupe(in.InternalSignerIDs)
	if uc.cfg.MaxInternalSigners > 0 && len(signerIDs) > uc.cfg.MaxInternalSigners {
		return nil, domain.ErrInvalidInput
	}
	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	accessHash, err := token.Generate()
	if err != nil {
		return nil, err
	}

	stored, err := uc.deps.Files.Put(ctx, filepath.Base(in.FileName), contentType, in.Data)
	if err != nil {
		return nil, err
	}

	var doc *entity.Document
	err = usecase.RetryOnConflict(ctx, func() error {
		return uc.deps.Tx.Run(ctx, func(repos repository.Set) error {
			if err := uc.guard.Reserve(ctx, repos, companyID, quota.KindDocument); err != nil {
				return err
			}
			companyScope := tenant.Scope{CompanyID: companyID}
			if branchID != "" {
				b, err := repos.Branches.GetByID(ctx, companyScope, branchID)
				if err != nil {
					return err
				}
				if b == nil {
					return domain.ErrInvalidInput
				}
			}
			for _, id := range signerIDs {
				u, err := repos.Users.GetByID(ctx, companyScope, id)
				if err != nil {
					return err
				}
				if u == nil || u.Role == entity.RoleSuperAdmin {
					return domain.ErrInvalidInput
				}
			}

			now := uc.deps.Clock.Now()
			doc = &entity.Document{
				ID:                      uuid.New().String(),
				CompanyID:               companyID,
				CreatedBy:               p.UserID,
				Title:                   title,
				Description:             strings.TrimSpace(in.Description),
				Status:                  entity.DocumentStatusDraft,
				AccessHash:              accessHash,
				StoragePath:             stored.Path,
				ContentType:             contentType,
				SizeBytes:               stored.Size,
				RequiresInternalSigners: in.RequiresInternalSigners || len(signerIDs) > 0,
				CreatedAt:               now,
				UpdatedAt:               now,
			}
			if branchID != "" {
				doc.BranchID = &branchID
			}
			for _, id := range signerIDs {
				doc.InternalSigners = append(doc.InternalSigners, entity.InternalSigner{
					DocumentID: doc.ID,
					UserID:     id,
					Status:     entity.InternalSignerPending,
				})
			}
			return repos.Documents.Create(ctx, doc)
		})
	})
	if err != nil {
		if delErr := uc.deps.Files.Delete(ctx, stored.Path); delErr != nil {
			uc.deps.Logger.Warn().Err(delErr).Str("path", stored.Path).Msg("no se pudo limpiar el archivo huérfano")
		}
		return nil, err
	}
	uc.deps.Logger.Info().Str("document_id", doc.ID).Str("company_id", companyID).Msg("documento creado")
	return entityToDocumentResponse(doc), nil
}

// GetByID obtiene un documento visible para el principal.
func (uc *DocumentUseCase) GetByID(ctx context.Context, p tenant.Principal, id string) (*dto.DocumentResponse, error) {
	doc, err := uc.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return entityToDocumentResponse(doc), nil
}

// List lista documentos visibles con filtros y paginación.
func (uc *DocumentUseCase) List(ctx context.Context, p tenant.Principal, filter dto.DocumentFilterRequest, page dto.PageRequest) (*dto.DocumentListResponse, error) {
	page.DefaultPage()
	if filter.Status != "" && !document.IsValidStatus(filter.Status) {
		return nil, domain.ErrInvalidInput
	}
	list, total, err := uc.deps.Repos.Documents.List(ctx, tenant.Resolve(p, tenant.ResourceDocument),
		repository.DocumentFilter{Status: filter.Status, BranchID: filter.BranchID}, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.DocumentResponse, 0, len(list))
	for _, d := range list {
		items = append(items, *entityToDocumentResponse(d))
	}
	return &dto.DocumentListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}, nil
}

// Transition aplica una transición explícita (draft→sent, →cancelled, sent→archived).
// Al cancelar o archivar, la solicitud de firma pendiente del documento se cancela en la misma tx.
func (uc *DocumentUseCase) Transition(ctx context.Context, p tenant.Principal, id, to string) (*dto.DocumentResponse, error) {
	if !document.IsValidStatus(to) {
		return nil, domain.ErrInvalidInput
	}
	scope := tenant.Resolve(p, tenant.ResourceDocument)
	var (
		doc       *entity.Document
		from      string
		cancelled *entity.SignatureRequest
	)
	err := usecase.RetryOnConflict(ctx, func() error {
		cancelled = nil
		return uc.deps.Tx.Run(ctx, func(repos repository.Set) error {
			var err error
			doc, err = repos.Documents.GetForUpdate(ctx, scope, id)
			if err != nil {
				return err
			}
			if doc == nil {
				return domain.ErrNotFound
			}
			if !tenant.CanManage(p, doc.CreatedBy) {
				return domain.ErrForbidden
			}
			from = doc.Status
			if err := document.Transition(doc, to, uc.cfg.MaxInternalSigners); err != nil {
				return err
			}
			now := uc.deps.Clock.Now()
			if err := repos.Documents.UpdateStatus(ctx, doc.ID, from, doc.Status, now); err != nil {
				return err
			}
			doc.UpdatedAt = now
			if to == entity.DocumentStatusCancelled || to == entity.DocumentStatusArchived {
				cancelled, err = cancelPending(ctx, repos, doc.ID, now)
				return err
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	uc.deps.Metrics.DocumentTransition(from, doc.Status)
	uc.deps.Logger.Info().Str("document_id", doc.ID).Str("from", from).Str("to", doc.Status).Msg("transición de documento")
	if cancelled != nil {
		usecase.NotifySigners(ctx, uc.deps, ports.EventRequestCancelled, cancelled)
	}
	return entityToDocumentResponse(doc), nil
}

// Delete baja lógica del documento (solo admins). Libera cuota y cancela la solicitud pendiente.
func (uc *DocumentUseCase) Delete(ctx context.Context, p tenant.Principal, id string) error {
	if !p.IsAdmin() {
		return domain.ErrForbidden
	}
	scope := tenant.Resolve(p, tenant.ResourceDocument)
	var cancelled *entity.SignatureRequest
	err := uc.deps.Tx.Run(ctx, func(repos repository.Set) error {
		doc, err := repos.Documents.GetForUpdate(ctx, scope, id)
		if err != nil {
			return err
		}
		if doc == nil {
			return domain.ErrNotFound
		}
		now := uc.deps.Clock.Now()
		if cancelled, err = cancelPending(ctx, repos, doc.ID, now); err != nil {
			return err
		}
		return repos.Documents.SoftDelete(ctx, scope, id, now)
	})
	if err != nil {
		return err
	}
	if cancelled != nil {
		usecase.NotifySigners(ctx, uc.deps, ports.EventRequestCancelled, cancelled)
	}
	return nil
}

// DownloadFile devuelve el archivo de un documento visible.
func (uc *DocumentUseCase) DownloadFile(ctx context.Context, p tenant.Principal, id string) (*dto.FileContent, error) {
	doc, err := uc.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return uc.readFile(ctx, doc)
}

// OpenByAccessHash recuperación pública por access_hash, independiente del flujo de firma.
// Documentos cancelados o inexistentes responden igual: ErrNotFound.
func (uc *DocumentUseCase) OpenByAccessHash(ctx context.Context, accessHash string) (*dto.FileContent, error) {
	if !token.WellFormed(accessHash) {
		return nil, domain.ErrNotFound
	}
	doc, err := uc.deps.Repos.Documents.GetByAccessHash(ctx, accessHash)
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.Status == entity.DocumentStatusCancelled {
		return nil, domain.ErrNotFound
	}
	return uc.readFile(ctx, doc)
}

func (uc *DocumentUseCase) load(ctx context.Context, p tenant.Principal, id string) (*entity.Document, error) {
	doc, err := uc.deps.Repos.Documents.GetByID(ctx, tenant.Resolve(p, tenant.ResourceDocument), id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func (uc *DocumentUseCase) readFile(ctx context.Context, doc *entity.Document) (*dto.FileContent, error) {
	data, err := uc.deps.Files.Get(ctx, doc.StoragePath)
	if err != nil {
		return nil, err
	}
	return &dto.FileContent{
		Name:        doc.Title + filepath.Ext(doc.StoragePath),
		ContentType: doc.ContentType,
		Data:        data,
	}, nil
}

// cancelPending cancela la solicitud pending del documento, si la hay.
func cancelPending(ctx context.Context, repos repository.Set, documentID string, now time.Time) (*entity.SignatureRequest, error) {
	active, err := repos.Requests.FindActiveByDocument(ctx, documentID)
	if err != nil || active == nil || active.Status != entity.RequestStatusPending {
		return nil, err
	}
	req, err := repos.Requests.LockByCapability(ctx, active.ID)
	if err != nil || req == nil {
		return nil, err
	}
	if err := signing.Cancel(req, now); err != nil {
		return nil, err
	}
	if err := repos.Requests.UpdateStatus(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
