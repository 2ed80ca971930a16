// Package apptest arma el entorno de pruebas de los casos de uso: almacén en memoria (u otro
// repository.Set con su TxRunner), reloj fijo, archivos en un directorio temporal y notificador/métricas que registran lo recibido.
package apptest

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Firmador-api/internal/application/ports"
	"github.com/jhoicas/Firmador-api/internal/application/usecase"
	"github.com/jhoicas/Firmador-api/internal/domain/entity"
	"github.com/jhoicas/Firmador-api/internal/domain/repository"
	"github.com/jhoicas/Firmador-api/internal/domain/tenant"
	"github.com/jhoicas/Firmador-api/internal/infrastructure/memory"
	"github.com/jhoicas/Firmador-api/internal/infrastructure/storage"
	"github.com/jhoicas/Firmador-api/pkg/clock"
)

// T0 instante inicial del reloj de pruebas.
var T0 = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

// Env colaboradores reales o de registro para un test. Store es nil fuera de NewEnv.
type Env struct {
	Store    *memory.Store
	Clock    *clock.Fixed
	Files    *storage.LocalStore
	FilesDir string
	Notifier *RecordingNotifier
	Metrics  *RecordingMetrics
	Deps     usecase.Deps
}

// NewEnv entorno vacío con archivos bajo t.TempDir().
func NewEnv(t *testing.T) *Env {
	t.Helper()
	store := memory.NewStore()
	env := NewEnvOn(t, store.Repos(), store)
	env.Store = store
	return env
}

// NewEnvOn entorno sobre un almacén externo (p. ej. PostgreSQL en tests de integración).
func NewEnvOn(t *testing.T, repos repository.Set, tx ports.TxRunner) *Env {
	t.Helper()
	clk := clock.NewFixed(T0)
	dir := t.TempDir()
	files, err := storage.NewLocalStore(dir, clk)
	require.NoError(t, err)
	n := &RecordingNotifier{}
	m := &RecordingMetrics{}
	return &Env{
		Clock:    clk,
		Files:    files,
		FilesDir: dir,
		Notifier: n,
		Metrics:  m,
		Deps: usecase.Deps{
			Repos:    repos,
			Tx:       tx,
			Files:    files,
			Notifier: n,
			Clock:    clk,
			Metrics:  m,
			Logger:   zerolog.Nop(),
		},
	}
}

// Limits techos del plan; 0 = sin límite.
type Limits struct {
	Users, Documents, Signatures, Branches int
}

// Tenant empresa sembrada con su plan y sus principales.
type Tenant struct {
	Company *entity.Company
	Plan    *entity.Plan
	Admin   tenant.Principal
}

// SeedTenant crea plan, empresa activa y un company_admin.
func (e *Env) SeedTenant(t *testing.T, limits Limits) *Tenant {
	t.Helper()
	ctx := context.Background()
	repos := e.Deps.Repos
	plan := &entity.Plan{
		ID:            uuid.New().String(),
		Name:          "Plan " + uuid.New().String()[:8],
		MaxUsers:      limits.Users,
		MaxDocuments:  limits.Documents,
		MaxSignatures: limits.Signatures,
		MaxBranches:   limits.Branches,
		MonthlyPrice:  decimal.NewFromInt(100),
		Active:        true,
		CreatedAt:     T0,
		UpdatedAt:     T0,
	}
	require.NoError(t, repos.Plans.Create(ctx, plan))
	id := uuid.New().String()
	company := &entity.Company{
		ID:        id,
		Code:      "C-" + id[:8],
		Name:      "Empresa " + id[:8],
		TaxID:     id[:14],
		PlanID:    plan.ID,
		Active:    true,
		CreatedAt: T0,
		UpdatedAt: T0,
	}
	require.NoError(t, repos.Companies.Create(ctx, company))
	tn := &Tenant{Company: company, Plan: plan}
	tn.Admin = e.SeedUser(t, company.ID, "", entity.RoleCompanyAdmin)
	return tn
}

// SeedBranch crea una filial sin pasar por la cuota.
func (e *Env) SeedBranch(t *testing.T, companyID string) *entity.Branch {
	t.Helper()
	b := &entity.Branch{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		Name:      "Filial",
		Code:      "F-" + uuid.New().String()[:6],
		Active:    true,
		CreatedAt: T0,
		UpdatedAt: T0,
	}
	require.NoError(t, e.Deps.Repos.Branches.Create(context.Background(), b))
	return b
}

// SeedUser crea un usuario activo y devuelve su principal.
func (e *Env) SeedUser(t *testing.T, companyID, branchID, role string) tenant.Principal {
	t.Helper()
	id := uuid.New().String()
	u := &entity.User{
		ID:           id,
		Email:        id[:8] + "@firmador.test",
		PasswordHash: "x",
		Name:         "Usuario " + id[:4],
		Role:         role,
		Status:       "active",
		CreatedAt:    T0,
		UpdatedAt:    T0,
	}
	if companyID != "" {
		u.CompanyID = &companyID
	}
	if branchID != "" {
		u.BranchID = &branchID
	}
	require.NoError(t, e.Deps.Repos.Users.Create(context.Background(), u))
	return tenant.Principal{UserID: id, CompanyID: companyID, BranchID: branchID, Role: role}
}

// SuperAdmin principal global (no se persiste).
func SuperAdmin() tenant.Principal {
	return tenant.Principal{UserID: uuid.New().String(), Role: entity.RoleSuperAdmin}
}

// RecordingNotifier guarda las notificaciones. Si Fail, las registra igual y devuelve error.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []ports.Notification
	Fail   bool
}

func (n *RecordingNotifier) Notify(_ context.Context, ev ports.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	if n.Fail {
		return errors.New("canal de notificación caído")
	}
	return nil
}

// Events copia de lo recibido.
func (n *RecordingNotifier) Events() []ports.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]ports.Notification(nil), n.events...)
}

// OfKind filtra por tipo de evento.
func (n *RecordingNotifier) OfKind(kind ports.EventKind) []ports.Notification {
	var out []ports.Notification
	for _, ev := range n.Events() {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

// Reset descarta lo registrado.
func (n *RecordingNotifier) Reset() {
	n.mu.Lock()
	n.events = nil
	n.mu.Unlock()
}

// RecordingMetrics cuenta las llamadas a ports.Metrics.
type RecordingMetrics struct {
	mu            sync.Mutex
	Transitions   []string // "from->to"
	SignerActions []string // "action:result"
	QuotaRejects  []string
	Expired       int
}

func (m *RecordingMetrics) DocumentTransition(from, to string) {
	m.mu.Lock()
	m.Transitions = append(m.Transitions, from+"->"+to)
	m.mu.Unlock()
}

func (m *RecordingMetrics) SignerAction(action, result string) {
	m.mu.Lock()
	m.SignerActions = append(m.SignerActions, action+":"+result)
	m.mu.Unlock()
}

func (m *RecordingMetrics) QuotaRejected(kind string) {
	m.mu.Lock()
	m.QuotaRejects = append(m.QuotaRejects, kind)
	m.mu.Unlock()
}

func (m *RecordingMetrics) RequestsExpired(n int) {
	m.mu.Lock()
	m.Expired += n
	m.mu.Unlock()
}

// ExpiredTotal solicitudes vencidas acumuladas.
func (m *RecordingMetrics) ExpiredTotal() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Expired
}

// Snapshot copia segura de los contadores.
func (m *RecordingMetrics) Snapshot() (transitions, signerActions, quotaRejects []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Transitions...),
		append([]string(nil), m.SignerActions...),
		append([]string(nil), m.QuotaRejects...)
}

// CountFiles archivos regulares bajo el directorio de almacenamiento.
func (e *Env) CountFiles(t *testing.T) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(e.FilesDir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	require.NoError(t, err)
	return n
}
