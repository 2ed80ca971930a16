package quota_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Firmador-api/internal/domain"
	"github.com/jhoicas/Firmador-api/internal/domain/entity"
	"github.com/jhoicas/Firmador-api/internal/domain/quota"
)

func TestCheck_LimiteExacto(t *testing.T) {
	plan := &entity.Plan{MaxDocuments: 5}

	require.NoError(t, quota.Check(plan, quota.KindDocument, 4), "4 activos + 1 = 5 cabe")

	err := quota.Check(plan, quota.KindDocument, 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrQuotaExceeded))

	var qe *domain.QuotaError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "document", qe.Kind)
	assert.Equal(t, 5, qe.Limit)
}

func TestCheck_CeroEsIlimitado(t *testing.T) {
	plan := &entity.Plan{MaxSignatures: entity.Unlimited}
	assert.NoError(t, quota.Check(plan, quota.KindSignature, 1_000_000))
}

func TestCheck_CadaTipoUsaSuLimite(t *testing.T) {
	plan := &entity.Plan{MaxUsers: 1, MaxDocuments: 2, MaxSignatures: 3, MaxBranches: 4}
	assert.Equal(t, 1, quota.Limit(plan, quota.KindUser))
	assert.Equal(t, 2, quota.Limit(plan, quota.KindDocument))
	assert.Equal(t, 3, quota.Limit(plan, quota.KindSignature))
	assert.Equal(t, 4, quota.Limit(plan, quota.KindBranch))

	assert.ErrorIs(t, quota.Check(plan, quota.KindUser, 1), domain.ErrQuotaExceeded)
	assert.NoError(t, quota.Check(plan, quota.KindBranch, 3))
}

func TestCheck_SinPlanOTipoDesconocido(t *testing.T) {
	assert.ErrorIs(t, quota.Check(nil, quota.KindDocument, 0), domain.ErrNotFound)
	assert.ErrorIs(t, quota.Check(&entity.Plan{}, quota.Kind("storage"), 0), domain.ErrInvalidInput)
}
