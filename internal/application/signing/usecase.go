package signing

import (
	"context"
	"strings"
	"time"

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

// Config reglas del flujo de firma externa.
type Config struct {
	DefaultExpiration  time.Duration
	PublicBaseURL      string
	MaxInternalSigners int
	NewToken           signing.TokenFunc // nil = token.GenerateWithHash
}

// SignatureRequestUseCase solicitudes de firma vistas desde la app autenticada.
type SignatureRequestUseCase struct {
	deps  usecase.Deps
	guard usecase.QuotaGuard
	cfg   Config
}

// NewSignatureRequestUseCase construye el caso de uso.
func NewSignatureRequestUseCase(deps usecase.Deps, cfg Config) *SignatureRequestUseCase {
	deps = deps.WithDefaults()
	if cfg.NewToken == nil {
		cfg.NewToken = token.GenerateWithHash
	}
	return &SignatureRequestUseCase{deps: deps, guard: usecase.NewQuotaGuard(deps.Metrics), cfg: cfg}
}

// Create abre una solicitud de firma ordenada sobre un documento draft o sent.
// Un draft pasa a sent en la misma tx. Consume la cuota signature y falla con ErrConflict
// si el documento ya tiene una solicitud activa. Los enlaces en claro solo salen en esta respuesta
// y en la notificación signature_requested.
func (uc *SignatureRequestUseCase) Create(ctx context.Context, p tenant.Principal, documentID string, in dto.CreateSignatureRequestRequest) (*dto.SignatureRequestCreatedResponse, error) {
	if len(in.Signers) == 0 {
		return nil, domain.ErrInvalidInput
	}
	signers := make([]signing.SignerInput, 0, len(in.Signers))
	for _, s := range in.Signers {
		signers = append(signers, signing.SignerInput{Name: norm.NFC.String(s.Name), Email: s.Email})
	}
	scope := tenant.Resolve(p, tenant.ResourceDocument)

	var (
		req     *entity.SignatureRequest
		docFrom string
		docTo   string
	)
	err := usecase.RetryOnConflict(ctx, func() error {
		return uc.deps.Tx.Run(ctx, func(repos repository.Set) error {
			doc, err := repos.Documents.GetForUpdate(ctx, scope, documentID)
			if err != nil {
				return err
			}
			if doc == nil {
				return domain.ErrNotFound
			}
			if !tenant.CanManage(p, doc.CreatedBy) {
				return domain.ErrForbidden
			}
			docFrom, docTo = doc.Status, doc.Status
			switch doc.Status {
			case entity.DocumentStatusDraft:
				if err := document.CheckSendable(doc, uc.cfg.MaxInternalSigners); err != nil {
					return err
				}
			case entity.DocumentStatusSent:
			default:
				return domain.NewTransitionError("document", doc.Status, entity.DocumentStatusSent, "el documento no admite solicitudes de firma")
			}
			active, err := repos.Requests.FindActiveByDocument(ctx, doc.ID)
			if err != nil {
				return err
			}
			if active != nil {
				return domain.ErrConflict
			}
			if err := uc.guard.Reserve(ctx, repos, doc.CompanyID, quota.KindSignature); err != nil {
				return err
			}

			now := uc.deps.Clock.Now()
			expiresAt := now.Add(uc.cfg.DefaultExpiration)
			if in.ExpiresAt != nil {
				expiresAt = in.ExpiresAt.UTC()
			}
			if doc.Status == entity.DocumentStatusDraft {
				if err := document.Transition(doc, entity.DocumentStatusSent, uc.cfg.MaxInternalSigners); err != nil {
					return err
				}
				if err := repos.Documents.UpdateStatus(ctx, doc.ID, docFrom, doc.Status, now); err != nil {
					return err
				}
				docTo = doc.Status
			}
			req, err = signing.NewRequest(signing.NewRequestParams{
				Document:  doc,
				CreatedBy: p.UserID,
				Signers:   signers,
				Now:       now,
				ExpiresAt: expiresAt,
				NewToken:  uc.cfg.NewToken,
			})
			if err != nil {
				return err
			}
			return repos.Requests.Create(ctx, req)
		})
	})
	if err != nil {
		return nil, err
	}
	if docFrom != docTo {
		uc.deps.Metrics.DocumentTransition(docFrom, docTo)
	}
	uc.deps.Logger.Info().Str("request_id", req.ID).Str("document_id", req.DocumentID).
		Int("signers", len(req.Signers)).Msg("solicitud de firma creada")

	out := &dto.SignatureRequestCreatedResponse{SignatureRequestResponse: *entityToRequestResponse(req)}
	for _, s := range req.Signers {
		link := uc.signLink(s.Token)
		out.Links = append(out.Links, dto.SignerLink{SignerID: s.ID, Sequence: s.Sequence, Link: link})
		usecase.NotifySigner(ctx, uc.deps, ports.EventSignatureRequested, req, s, link)
	}
	return out, nil
}

// GetByID obtiene una solicitud visible con sus firmantes.
func (uc *SignatureRequestUseCase) GetByID(ctx context.Context, p tenant.Principal, id string) (*dto.SignatureRequestResponse, error) {
	req, err := uc.deps.Repos.Requests.GetByID(ctx, tenant.Resolve(p, tenant.ResourceSignatureRequest), id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domain.ErrNotFound
	}
	return entityToRequestResponse(req), nil
}

// ListByDocument lista el historial de solicitudes de un documento visible.
func (uc *SignatureRequestUseCase) ListByDocument(ctx context.Context, p tenant.Principal, documentID string) (*dto.SignatureRequestListResponse, error) {
	doc, err := uc.deps.Repos.Documents.GetByID(ctx, tenant.Resolve(p, tenant.ResourceDocument), documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	list, err := uc.deps.Repos.Requests.ListByDocument(ctx, tenant.Resolve(p, tenant.ResourceSignatureRequest), documentID)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SignatureRequestResponse, 0, len(list))
	for _, r := range list {
		items = append(items, *entityToRequestResponse(r))
	}
	return &dto.SignatureRequestListResponse{Items: items}, nil
}

// Cancel cancela una solicitud pendiente (admins o su creador). signed y demás estados finales fallan.
func (uc *SignatureRequestUseCase) Cancel(ctx context.Context, p tenant.Principal, id string) (*dto.SignatureRequestResponse, error) {
	scope := tenant.Resolve(p, tenant.ResourceSignatureRequest)
	var req *entity.SignatureRequest
	err := usecase.RetryOnConflict(ctx, func() error {
		return uc.deps.Tx.Run(ctx, func(repos repository.Set) error {
			var err error
			req, err = repos.Requests.GetForUpdate(ctx, scope, id)
			if err != nil {
				return err
			}
			if req == nil {
				return domain.ErrNotFound
			}
			if !tenant.CanManage(p, req.CreatedBy) {
				return domain.ErrForbidden
			}
			if err := signing.Cancel(req, uc.deps.Clock.Now()); err != nil {
				return err
			}
			return repos.Requests.UpdateStatus(ctx, req)
		})
	})
	if err != nil {
		return nil, err
	}
	uc.deps.Logger.Info().Str("request_id", req.ID).Msg("solicitud de firma cancelada")
	usecase.NotifySigners(ctx, uc.deps, ports.EventRequestCancelled, req)
	return entityToRequestResponse(req), nil
}

// Delete baja lógica de una solicitud (solo admins). Si seguía pendiente se cancela antes.
func (uc *SignatureRequestUseCase) Delete(ctx context.Context, p tenant.Principal, id string) error {
	if !p.IsAdmin() {
		return domain.ErrForbidden
	}
	scope := tenant.Resolve(p, tenant.ResourceSignatureRequest)
	var cancelled *entity.SignatureRequest
	err := uc.deps.Tx.Run(ctx, func(repos repository.Set) error {
		req, err := repos.Requests.GetForUpdate(ctx, scope, id)
		if err != nil {
			return err
		}
		if req == nil {
			return domain.ErrNotFound
		}
		now := uc.deps.Clock.Now()
		if req.Status == entity.RequestStatusPending {
			if err := signing.Cancel(req, now); err != nil {
				return err
			}
			if err := repos.Requests.UpdateStatus(ctx, req); err != nil {
				return err
			}
			cancelled = req
		}
		return repos.Requests.SoftDelete(ctx, scope, id, now)
	})
	if err != nil {
		return err
	}
	if cancelled != nil {
		usecase.NotifySigners(ctx, uc.deps, ports.EventRequestCancelled, cancelled)
	}
	return nil
}

// ExpireOverdue barrido de vencimiento: toda solicitud pending con expires_at pasado queda expired.
// Lo dispara el planificador externo (cmd/sweeper).
func (uc *SignatureRequestUseCase) ExpireOverdue(ctx context.Context) (*dto.ExpireResponse, error) {
	var n int
	err := uc.deps.Tx.Run(ctx, func(repos repository.Set) error {
		var err error
		n, err = repos.Requests.ExpireOverdue(ctx, uc.deps.Clock.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.deps.Metrics.RequestsExpired(n)
	uc.deps.Logger.Info().Int("expired", n).Msg("barrido de vencimiento")
	return &dto.ExpireResponse{Expired: n}, nil
}

func (uc *SignatureRequestUseCase) signLink(tok string) string {
	return strings.TrimRight(uc.cfg.PublicBaseURL, "/") + "/public/sign/" + tok
}

func entityToRequestResponse(r *entity.SignatureRequest) *dto.SignatureRequestResponse {
	signers := make([]dto.SignerResponse, 0, len(r.Signers))
	for _, s := range r.Signers {
		signers = append(signers, dto.SignerResponse{
			ID:              s.ID,
			Name:            s.Name,
			Email:           s.Email,
			Sequence:        s.Sequence,
			Status:          s.Status,
			FirstViewedAt:   s.FirstViewedAt,
			SignedAt:        s.SignedAt,
			RejectedAt:      s.RejectedAt,
			RejectionReason: s.RejectionReason,
		})
	}
	return &dto.SignatureRequestResponse{
		ID:          r.ID,
		DocumentID:  r.DocumentID,
		CompanyID:   r.CompanyID,
		CreatedBy:   r.CreatedBy,
		Status:      r.Status,
		ExpiresAt:   r.ExpiresAt,
		CompletedAt: r.CompletedAt,
		CancelledAt: r.CancelledAt,
		Signers:     signers,
		CreatedAt:   r.CreatedAt,
	}
}
