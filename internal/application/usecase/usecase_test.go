package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Firmador-api/internal/application/apptest"
	"github.com/jhoicas/Firmador-api/internal/application/dto"
	"github.com/jhoicas/Firmador-api/internal/application/usecase"
	"github.com/jhoicas/Firmador-api/internal/domain"
	"github.com/jhoicas/Firmador-api/internal/domain/entity"
	"github.com/jhoicas/Firmador-api/internal/domain/tenant"
)

// ──────────────────────────────────────────────────────────────────────────────
// Cuotas del plan
// ──────────────────────────────────────────────────────────────────────────────

func TestBranchCreate_RechazaAlAlcanzarLimite(t *testing.T) {
	ctx := context.Background()
	env := apptest.NewEnv(t)
	tn := env.SeedTenant(t, apptest.Limits{Branches: 1})
	uc := usecase.NewBranchUseCase(env.Deps)

	_, err := uc.Create(ctx, tn.Admin, dto.CreateBranchRequest{Name: "Centro", Code: "CEN"})
	require.NoError(t, err)

	_, err = uc.Create(ctx, tn.Admin, dto.CreateBranchRequest{Name: "Norte", Code: "NOR"})
	require.Error(t, err)
	var qe *domain.QuotaError
	require.True(t, errors.As(err, &qe), "debe ser QuotaError")
	assert.Equal(t, "branch", qe.Kind)
	assert.Equal(t, 1, qe.Limit)
	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)

	_, _, rejects := env.Metrics.Snapshot()
	assert.Equal(t, []string{"branch"}, rejects)
}

func TestBranchCreate_LimiteCeroEsIlimitado(t *testing.T) {
	ctx := context.Background()
	env := apptest.NewEnv(t)
	tn := env.SeedTenant(t, apptest.Limits{})
	uc := usecase.NewBranchUseCase(env.Deps)

	for i := 0; i < 5; i++ {
		_, err := uc.Create(ctx, tn.Admin, dto.CreateBranchRequest{Name: "F", Code: string(rune('A' + i))})
		require.NoError(t, err)
	}
}

func TestBranchCreate_ConcurrenteNoSuperaElLimite(t *testing.T) {
	ctx := context.Background()
	env := apptest.NewEnv(t)
	tn := env.SeedTenant(t, apptest.Limits{Branches: 3})
	uc := usecase.NewBranchUseCase(env.Deps)

	const workers = 10
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		ok     int
		quotas int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := uc.Create(ctx, tn.Admin, dto.CreateBranchRequest{Name: "F", Code: string(rune('A' + i))})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrQuotaExceeded):
				quotas++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 3, ok, "exactamente el límite debe tener éxito")
	assert.Equal(t, workers-3, quotas)
	n, err := env.Store.Repos().Branches.CountActive(ctx, tn.Company.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestBranchDelete_LiberaCuota(t *testing.T) {
	ctx := context.Background()
	env := apptest.NewEnv(t)
	tn := env.SeedTenant(t, apptest.Limits{Branches: 1})
	uc := usecase.NewBranchUseCase(env.Deps)

	b, err := uc.Create(ctx, tn.Admin, dto.CreateBranchRequest{Name: "Centro", Code: "CEN"})
	require.NoError(t, err)
	require.NoError(t, uc.Delete(ctx, tn.Admin, b.ID))

	_, err = uc.Create(ctx, tn.Admin, dto.CreateBranchRequest{Name: "Norte", Code: "NOR"})
	assert.NoError(t, err, "la baja lógica libera el cupo")
}

func TestQuota_EmpresaInactivaProhibida(t *testing.T) {
	ctx := context.Background()
	env := apptest.NewEnv(t)
	tn := env.SeedTenant(t, apptest.Limits{})
	inactive := &entity.Company{ID: "inactiva", Code: "INACT", Name: "Inactiva", TaxID: "99999999999999", PlanID: tn.Plan.ID}
	require.NoError(t, env.Store.Repos().Companies.Create(ctx, inactive))

	_, err := usecase.NewBranchUseCase(env.Deps).Create(ctx, apptest.SuperAdmin(),
		dto.CreateBranchRequest{CompanyID: "inactiva", Name: "F", Code: "F"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = usecase.NewBranchUseCase(env.Deps).Create(ctx, apptest.SuperAdmin(),
		dto.CreateBranchRequest{CompanyID: "no-existe", Name: "F", Code: "F"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Usuarios
// ──────────────────────────────────────────────────────────────────────────────

func TestUserCreate_ConsumeCuotaUser(t *testing.T) {
	ctx := context.Background()
	env := apptest.NewEnv(t)
	tn := env.SeedTenant(t, apptest.Limits{Users: 2}) // el admin sembrado ocupa un cupo
	uc := usecase.NewUserUseCase(env.Deps)

	u, err := uc.Create(ctx, tn.Admin, dto.CreateUserRequest{
		Email: "  Ana@Empresa.COM ", Password: "secreto123", Name: "Ana", Role: entity.RoleSubscriber,
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@empresa.com", u.Email)
	assert.Equal(t, tn.Company.ID, u.CompanyID)

	_, err = uc.Create(ctx, tn.Admin, dto.CreateUserRequest{
		Email: "bruno@empresa.com", Password: "secreto123", Name: "Bruno", Role: entity.RoleSubscriber,
	})
	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
}

func TestUserCreate_EmailDuplicado(t *testing.T) {
	ctx := context.Background()
	env := apptest.NewEnv(t)
	tn := env.SeedTenant(t, apptest.Limits{})
	uc := usecase.NewUserUseCase(env.Deps)

	in := dto.CreateUserRequest{Email: "ana@empresa.com", Password: "secreto123", Name: "Ana", Role: entity.RoleSubscriber}
	_, err := uc.Create(ctx, tn.Admin, in)
	require.NoError(t, err)
	in.Email = "ANA@empresa.com"
	_, err = uc.Create(ctx, tn.Admin, in)
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestUserCreate_ReglasDeRol(t *testing.T) {
	ctx := context.Background()
	env := apptest.NewEnv(t)
	tn := env.SeedTenant(t, apptest.Limits{})
	uc := usecase.NewUserUseCase(env.Deps)
	sub := env.SeedUser(t, tn.Company.ID, "", entity.RoleSubscriber)

	_, err := uc.Create(ctx, sub, dto.CreateUserRequest{Email: "x@y.com", Password: "secreto123", Role: entity.RoleSubscriber})
	assert.ErrorIs(t, err, domain.ErrForbidden, "un suscriptor no crea usuarios")

	_, err = uc.Create(ctx, tn.Admin, dto.CreateUserRequest{Email: "x@y.com", Password: "secreto123", Role: entity.RoleSuperAdmin})
	assert.ErrorIs(t, err, domain.ErrForbidden, "solo super_admin crea super_admin")

	_, err = uc.Create(ctx, tn.Admin, dto.CreateUserRequest{Email: "x@y.com", Password: "corta", Role: entity.RoleSubscriber})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(ctx, tn.Admin, dto.CreateUserRequest{Email: "x@y.com", Password: "secreto123", Role: "root"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	sa, err := uc.Create(ctx, apptest.SuperAdmin(), dto.CreateUserRequest{Email: "root@firmador.test", Password: "secreto123", Role: entity.RoleSuperAdmin})
	require.NoError(t, err)
	assert.Empty(t, sa.CompanyID)
}

func TestUserCreate_FilialDeOtraEmpresa(t *testing.T) {
	ctx := context.Background()
	env := apptest.NewEnv(t)
	a := env.SeedTenant(t, apptest.Limits{})
	b := env.SeedTenant(t, apptest.Limits{})
	foreign := env.SeedBranch(t, b.Company.ID)

	_, err := usecase.NewUserUseCase(env.Deps).Create(ctx, a.Admin, dto.CreateUserRequest{
		Email: "x@y.com", Password: "secreto123", Role: entity.RoleSubscriber, BranchID: foreign.ID,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUserDelete_NoASiMismo(t *testing.T) {
	ctx := context.Background()
	env := apptest.NewEnv(t)
	tn := env.SeedTenant(t, apptest.Limits{})
	err := usecase.NewUserUseCase(env.Deps).Delete(ctx, tn.Admin, tn.Admin.UserID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Aislamiento entre tenants
// ──────────────────────────────────────────────────────────────────────────────

func TestTenant_AdminNoVeOtraEmpresa(t *testing.T) {
	ctx := context.Background()
	env := apptest.NewEnv(t)
	a := env.SeedTenant(t, apptest.Limits{})
	b := env.SeedTenant(t, apptest.Limits{})
	branchB := env.SeedBranch(t, b.Company.ID)

	branches := usecase.NewBranchUseCase(env.Deps)
	_, err := branches.GetByID(ctx, a.Admin, branchB.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "fuera del alcance se comporta como inexistente")

	list, err := branches.List(ctx, a.Admin, dto.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)

	_, err = branches.Create(ctx, a.Admin, dto.CreateBranchRequest{CompanyID: b.Company.ID, Name: "X", Code: "X"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	companies := usecase.NewCompanyUseCase(env.Deps)
	_, err = companies.GetByID(ctx, a.Admin, b.Company.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	cl, err := companies.List(ctx, a.Admin, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, cl.Items, 1)
	assert.Equal(t, a.Company.ID, cl.Items[0].ID)

	users := usecase.NewUserUseCase(env.Deps)
	_, err = users.GetByID(ctx, a.Admin, b.Admin.UserID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTenant_SuperAdminDebeIndicarEmpresa(t *testing.T) {
	_, err := usecase.TargetCompany(apptest.SuperAdmin(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	id, err := usecase.TargetCompany(apptest.SuperAdmin(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", id)

	id, err = usecase.TargetCompany(tenant.Principal{UserID: "u", CompanyID: "c1", Role: entity.RoleCompanyAdmin}, "")
	require.NoError(t, err)
	assert.Equal(t, "c1", id)
}

// ──────────────────────────────────────────────────────────────────────────────
// Empresas y planes
// ──────────────────────────────────────────────────────────────────────────────

func TestCompanyCreate_ValidaCNPJ(t *testing.T) {
	ctx := context.Background()
	env := apptest.NewEnv(t)
	tn := env.SeedTenant(t, apptest.Limits{})
	uc := usecase.NewCompanyUseCase(env.Deps)
	sa := apptest.SuperAdmin()

	_, err := uc.Create(ctx, sa, dto.CreateCompanyRequest{Code: "ACME", Name: "Acme", TaxID: "11.222.333/0001-82", PlanID: tn.Plan.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "dígito verificador inválido")

	c, err := uc.Create(ctx, sa, dto.CreateCompanyRequest{Code: "ACME", Name: "Acme", TaxID: "11.222.333/0001-81", PlanID: tn.Plan.ID})
	require.NoError(t, err)
	assert.Equal(t, "11222333000181", c.TaxID, "se guarda normalizado")

	_, err = uc.Create(ctx, sa, dto.CreateCompanyRequest{Code: "OTRA", Name: "Otra", TaxID: "11222333000181", PlanID: tn.Plan.ID})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = uc.Create(ctx, tn.Admin, dto.CreateCompanyRequest{Code: "X", Name: "X", TaxID: "11.222.333/0001-81", PlanID: tn.Plan.ID})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.Create(ctx, sa, dto.CreateCompanyRequest{Code: "Y", Name: "Y", TaxID: "11.444.777/0001-61", PlanID: "no-existe"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCompanyChangePlan_NoRevalidaExistentes(t *testing.T) {
	ctx := context.Background()
	env := apptest.NewEnv(t)
	tn := env.SeedTenant(t, apptest.Limits{Branches: 5})
	branches := usecase.NewBranchUseCase(env.Deps)
	for _, code := range []string{"A", "B"} {
		_, err := branches.Create(ctx, tn.Admin, dto.CreateBranchRequest{Name: code, Code: code})
		require.NoError(t, err)
	}

	sa := apptest.SuperAdmin()
	small, err := usecase.NewPlanUseCase(env.Deps).Create(ctx, sa, dto.CreatePlanRequest{Name: "Mini", MaxBranches: 1, MonthlyPrice: decimal.NewFromInt(10)})
	require.NoError(t, err)
	c, err := usecase.NewCompanyUseCase(env.Deps).ChangePlan(ctx, sa, tn.Company.ID, dto.ChangePlanRequest{PlanID: small.ID})
	require.NoError(t, err)
	assert.Equal(t, small.ID, c.PlanID)

	list, err := branches.List(ctx, tn.Admin, dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, list.Items, 2, "las filiales existentes se conservan")

	_, err = branches.Create(ctx, tn.Admin, dto.CreateBranchRequest{Name: "C", Code: "C"})
	assert.ErrorIs(t, err, domain.ErrQuotaExceeded, "el nuevo límite aplica a las creaciones siguientes")
}

func TestPlanCreate_SoloSuperAdminYLimitesNoNegativos(t *testing.T) {
	ctx := context.Background()
	env := apptest.NewEnv(t)
	tn := env.SeedTenant(t, apptest.Limits{})
	uc := usecase.NewPlanUseCase(env.Deps)

	_, err := uc.Create(ctx, tn.Admin, dto.CreatePlanRequest{Name: "X"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.Create(ctx, apptest.SuperAdmin(), dto.CreatePlanRequest{Name: "X", MaxUsers: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(ctx, apptest.SuperAdmin(), dto.CreatePlanRequest{Name: "X", MonthlyPrice: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Reintento y etiquetas
// ──────────────────────────────────────────────────────────────────────────────

func TestRetryOnConflict_ReintentaUnaVez(t *testing.T) {
	calls := 0
	err := usecase.RetryOnConflict(context.Background(), func() error {
		calls++
		return domain.ErrConflict
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 2, calls)

	calls = 0
	err = usecase.RetryOnConflict(context.Background(), func() error {
		calls++
		if calls == 1 {
			return domain.ErrConflict
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	err = usecase.RetryOnConflict(context.Background(), func() error {
		calls++
		return domain.ErrForbidden
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, 1, calls, "otros errores no se reintentan")
}

func TestResultLabel(t *testing.T) {
	cases := map[string]error{
		"ok":            nil,
		"not_ready":     domain.ErrSignerNotReady,
		"invalid_state": domain.NewTransitionError("document", "draft", "signed", ""),
		"not_found":     domain.ErrNotFound,
		"forbidden":     domain.ErrForbidden,
		"conflict":      domain.ErrConflict,
		"error":         errors.New("boom"),
	}
	for want, err := range cases {
		assert.Equal(t, want, usecase.ResultLabel(err))
	}
}
