package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/Firmador-api/internal/application/ports"
	"github.com/jhoicas/Firmador-api/internal/domain"
	"github.com/jhoicas/Firmador-api/internal/domain/quota"
	"github.com/jhoicas/Firmador-api/internal/domain/repository"
)

// QuotaGuard aplica el límite del plan dentro de la transacción que crea el recurso.
type QuotaGuard struct {
	metrics ports.Metrics
}

// NewQuotaGuard construye el guardián de cuota.
func NewQuotaGuard(metrics ports.Metrics) QuotaGuard {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return QuotaGuard{metrics: metrics}
}

// Reserve bloquea la fila de la empresa, cuenta los recursos activos y verifica el plan.
// Debe llamarse con repos atados a la misma tx que luego inserta el recurso: el bloqueo
// serializa las creaciones concurrentes de la empresa hasta el commit.
func (g QuotaGuard) Reserve(ctx context.Context, repos repository.Set, companyID string, kind quota.Kind) error {
	if companyID == "" {
		return domain.ErrForbidden
	}
	company, err := repos.Companies.LockByID(ctx, companyID)
	if err != nil {
		return err
	}
	if company == nil {
		return domain.ErrNotFound
	}
	if !company.Active {
		return domain.ErrForbidden
	}
	plan, err := repos.Plans.GetByID(ctx, company.PlanID)
	if err != nil {
		return err
	}
	if plan == nil {
		return fmt.Errorf("plan %s de la empresa %s: %w", company.PlanID, company.ID, domain.ErrNotFound)
	}
	current, err := countActive(ctx, repos, companyID, kind)
	if err != nil {
		return err
	}
	if err := quota.Check(plan, kind, current); err != nil {
		var qe *domain.QuotaError
		if errors.As(err, &qe) {
			g.metrics.QuotaRejected(qe.Kind)
		}
		return err
	}
	return nil
}

func countActive(ctx context.Context, repos repository.Set, companyID string, kind quota.Kind) (int, error) {
	switch kind {
	case quota.KindDocument:
		return repos.Documents.CountActive(ctx, companyID)
	case quota.KindUser:
		return repos.Users.CountActive(ctx, companyID)
	case quota.KindSignature:
		return repos.Requests.CountActive(ctx, companyID)
	case quota.KindBranch:
		return repos.Branches.CountActive(ctx, companyID)
	}
	return 0, domain.ErrInvalidInput
}
