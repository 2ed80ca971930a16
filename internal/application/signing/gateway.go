package signing

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/Firmador-api/internal/application/dto"
	"github.com/jhoicas/Firmador-api/internal/application/ports"
	"github.com/jhoicas/Firmador-api/internal/application/usecase"
	"github.com/jhoicas/Firmador-api/internal/domain"
	"github.com/jhoicas/Firmador-api/internal/domain/entity"
	"github.com/jhoicas/Firmador-api/internal/domain/repository"
	"github.com/jhoicas/Firmador-api/internal/domain/signing"
	"github.com/jhoicas/Firmador-api/pkg/token"
)

// Acciones del firmante externo, usadas como etiqueta de métricas y de log.
const (
	actionView   = "view"
	actionFile   = "file"
	actionSign   = "sign"
	actionReject = "reject"
)

// SignerAccess principal portador del flujo público: poseer el token autoriza a actuar como ese
// firmante y nada más. No pasa por el alcance del tenant.
type SignerAccess struct {
	Token string
	Audit signing.Audit
}

// AccessGateway resuelve tokens de firmante y ejecuta view/sign/reject.
// El error devuelto conserva la causa para el log; la capa HTTP lo presenta de forma uniforme.
type AccessGateway struct {
	deps usecase.Deps
}

// NewAccessGateway construye el gateway.
func NewAccessGateway(deps usecase.Deps) *AccessGateway {
	return &AccessGateway{deps: deps.WithDefaults()}
}

// session estado bloqueado de una acción: documento primero, luego la solicitud.
type session struct {
	signer *entity.Signer
	req    *entity.SignatureRequest
	doc    *entity.Document
}

// Resolve busca el firmante por hash exacto del token. Token malformado, desconocido o de una
// solicitud eliminada fallan igual: ErrNotFound.
func (g *AccessGateway) Resolve(ctx context.Context, tok string) (*entity.Signer, error) {
	if !token.WellFormed(tok) {
		return nil, domain.ErrNotFound
	}
	s, err := g.deps.Repos.Requests.FindSignerByTokenHash(ctx, token.Hash(tok))
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

// View abre el enlace: devuelve los metadatos del documento y registra la primera lectura.
func (g *AccessGateway) View(ctx context.Context, access SignerAccess) (*dto.SigningSessionResponse, error) {
	var out *dto.SigningSessionResponse
	err := g.run(ctx, actionView, access, func(repos repository.Set, ss *session, now time.Time) error {
		changed, err := signing.View(ss.req, ss.signer.ID, now)
		if err != nil {
			return err
		}
		s := ss.req.FindSigner(ss.signer.ID)
		if changed {
			if err := repos.Requests.UpdateSigner(ctx, s); err != nil {
				return err
			}
		}
		out = &dto.SigningSessionResponse{
			DocumentID:          ss.doc.ID,
			DocumentTitle:       ss.doc.Title,
			DocumentDescription: ss.doc.Description,
			ContentType:         ss.doc.ContentType,
			SignerName:          s.Name,
			Sequence:            s.Sequence,
			TotalSigners:        len(ss.req.Signers),
			SignerStatus:        s.Status,
			ExpiresAt:           ss.req.ExpiresAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// File devuelve el archivo del documento al firmante en turno. Descargar cuenta como lectura.
func (g *AccessGateway) File(ctx context.Context, access SignerAccess) (*dto.FileContent, error) {
	var doc *entity.Document
	err := g.run(ctx, actionFile, access, func(repos repository.Set, ss *session, now time.Time) error {
		changed, err := signing.View(ss.req, ss.signer.ID, now)
		if err != nil {
			return err
		}
		if changed {
			if err := repos.Requests.UpdateSigner(ctx, ss.req.FindSigner(ss.signer.ID)); err != nil {
				return err
			}
		}
		doc = ss.doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	data, err := g.deps.Files.Get(ctx, doc.StoragePath)
	if err != nil {
		return nil, err
	}
	return &dto.FileContent{Name: doc.Title, ContentType: doc.ContentType, Data: data}, nil
}

// Sign firma en nombre del portador. Si era el último firmante la solicitud queda signed
// y el documento se deriva a signed cuando todas sus pistas terminaron.
func (g *AccessGateway) Sign(ctx context.Context, access SignerAccess) (*dto.SignerActionResponse, error) {
	var (
		ss        *session
		completed bool
	)
	err := g.run(ctx, actionSign, access, func(repos repository.Set, cur *session, now time.Time) error {
		ss = cur
		var err error
		completed, err = signing.Sign(cur.req, cur.signer.ID, now, access.Audit)
		if err != nil {
			return err
		}
		if err := repos.Requests.UpdateSigner(ctx, cur.req.FindSigner(cur.signer.ID)); err != nil {
			return err
		}
		if !completed {
			return nil
		}
		if err := repos.Requests.UpdateStatus(ctx, cur.req); err != nil {
			return err
		}
		_, err = usecase.SettleDocument(ctx, repos, cur.doc, now, g.deps.Metrics)
		return err
	})
	if err != nil {
		return nil, err
	}
	if completed {
		usecase.NotifySigners(ctx, g.deps, ports.EventRequestCompleted, ss.req)
	} else if next := signing.NextPending(ss.req); next != nil {
		usecase.NotifySigner(ctx, g.deps, ports.EventSignerTurn, ss.req, *next, "")
	}
	return &dto.SignerActionResponse{
		SignerStatus:  entity.SignerStatusSigned,
		RequestStatus: ss.req.Status,
		Completed:     completed,
	}, nil
}

// Reject rechaza en nombre del portador; la solicitud completa queda rejected.
func (g *AccessGateway) Reject(ctx context.Context, access SignerAccess, reason string) (*dto.SignerActionResponse, error) {
	var ss *session
	err := g.run(ctx, actionReject, access, func(repos repository.Set, cur *session, now time.Time) error {
		ss = cur
		if err := signing.Reject(cur.req, cur.signer.ID, now, reason, access.Audit); err != nil {
			return err
		}
		if err := repos.Requests.UpdateSigner(ctx, cur.req.FindSigner(cur.signer.ID)); err != nil {
			return err
		}
		return repos.Requests.UpdateStatus(ctx, cur.req)
	})
	if err != nil {
		return nil, err
	}
	usecase.NotifySigners(ctx, g.deps, ports.EventRequestRejected, ss.req)
	return &dto.SignerActionResponse{
		SignerStatus:  entity.SignerStatusRejected,
		RequestStatus: ss.req.Status,
	}, nil
}

// run resuelve el token, bloquea documento y solicitud en una tx y aplica fn.
// Registra la causa exacta de cualquier fallo y la métrica de la acción.
func (g *AccessGateway) run(ctx context.Context, action string, access SignerAccess,
	fn func(repos repository.Set, ss *session, now time.Time) error) error {
	signer, err := g.Resolve(ctx, access.Token)
	if err == nil {
		err = usecase.RetryOnConflict(ctx, func() error {
			documentID, err := g.documentOf(ctx, signer)
			if err != nil {
				return err
			}
			return g.deps.Tx.Run(ctx, func(repos repository.Set) error {
				ss, err := g.lock(ctx, repos, signer, documentID)
				if err != nil {
					return err
				}
				return fn(repos, ss, g.deps.Clock.Now())
			})
		})
	}
	g.deps.Metrics.SignerAction(action, usecase.ResultLabel(err))
	if err != nil {
		ev := g.deps.Logger.Info()
		if !isDomainError(err) {
			ev = g.deps.Logger.Error()
		}
		if signer != nil {
			ev = ev.Str("signer_id", signer.ID).Str("request_id", signer.RequestID)
		}
		ev.Err(err).Str("action", action).Msg("acceso de firmante rechazado")
	}
	return err
}

// documentOf lee, fuera de la tx, el documento al que pertenece la solicitud del firmante.
func (g *AccessGateway) documentOf(ctx context.Context, signer *entity.Signer) (string, error) {
	req, err := g.deps.Repos.Requests.LockByCapability(ctx, signer.RequestID)
	if err != nil {
		return "", err
	}
	if req == nil {
		return "", domain.ErrNotFound
	}
	return req.DocumentID, nil
}

// lock bloquea en el orden documento→solicitud, el mismo que usan las transiciones del documento.
func (g *AccessGateway) lock(ctx context.Context, repos repository.Set, signer *entity.Signer, documentID string) (*session, error) {
	doc, err := repos.Documents.LockByCapability(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	req, err := repos.Requests.LockByCapability(ctx, signer.RequestID)
	if err != nil {
		return nil, err
	}
	if req == nil || req.DocumentID != documentID {
		return nil, domain.ErrNotFound
	}
	if req.FindSigner(signer.ID) == nil {
		return nil, domain.ErrNotFound
	}
	return &session{signer: signer, req: req, doc: doc}, nil
}

func isDomainError(err error) bool {
	for _, target := range []error{
		domain.ErrNotFound, domain.ErrSignerNotReady, domain.ErrInvalidStateTransition,
		domain.ErrConflict, domain.ErrForbidden, domain.ErrInvalidInput,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
