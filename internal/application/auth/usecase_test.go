package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Firmador-api/internal/application/apptest"
	"github.com/jhoicas/Firmador-api/internal/application/auth"
	"github.com/jhoicas/Firmador-api/internal/application/dto"
	"github.com/jhoicas/Firmador-api/internal/domain"
	"github.com/jhoicas/Firmador-api/internal/domain/entity"
	"github.com/jhoicas/Firmador-api/pkg/jwt"
)

const secret = "secreto-de-prueba"

func seedLoginUser(t *testing.T, env *apptest.Env, companyID, status string) *entity.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("clave-segura"), bcrypt.MinCost)
	require.NoError(t, err)
	u := &entity.User{
		ID:           "11111111-1111-4111-8111-111111111111",
		CompanyID:    &companyID,
		Email:        "ana@firmador.test",
		PasswordHash: string(hash),
		Name:         "Ana",
		Role:         entity.RoleCompanyAdmin,
		Status:       status,
		CreatedAt:    apptest.T0,
		UpdatedAt:    apptest.T0,
	}
	require.NoError(t, env.Store.Repos().Users.Create(context.Background(), u))
	return u
}

func TestLogin_GeneraTokenConAlcance(t *testing.T) {
	env := apptest.NewEnv(t)
	tn := env.SeedTenant(t, apptest.Limits{})
	u := seedLoginUser(t, env, tn.Company.ID, "active")
	uc := auth.NewAuthUseCase(env.Store.Repos().Users, auth.JWTConfig{Secret: secret, ExpMinutes: 30, Issuer: "firmador-test"})

	out, err := uc.Login(context.Background(), dto.LoginRequest{Email: "  ANA@firmador.test ", Password: "clave-segura"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, out.User.ID)
	assert.Equal(t, tn.Company.ID, out.User.CompanyID)

	id, err := jwt.Parse(secret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id.UserID)
	assert.Equal(t, tn.Company.ID, id.CompanyID)
	assert.Equal(t, entity.RoleCompanyAdmin, id.Role)
}

func TestLogin_CredencialesInvalidasMismoError(t *testing.T) {
	env := apptest.NewEnv(t)
	tn := env.SeedTenant(t, apptest.Limits{})
	seedLoginUser(t, env, tn.Company.ID, "active")
	uc := auth.NewAuthUseCase(env.Store.Repos().Users, auth.JWTConfig{Secret: secret, ExpMinutes: 30})
	ctx := context.Background()

	_, errPass := uc.Login(ctx, dto.LoginRequest{Email: "ana@firmador.test", Password: "otra-clave"})
	_, errMail := uc.Login(ctx, dto.LoginRequest{Email: "nadie@firmador.test", Password: "clave-segura"})
	assert.ErrorIs(t, errPass, domain.ErrUnauthorized)
	assert.ErrorIs(t, errMail, domain.ErrUnauthorized)
	assert.Equal(t, errPass.Error(), errMail.Error())
}

func TestLogin_UsuarioInactivoProhibido(t *testing.T) {
	env := apptest.NewEnv(t)
	tn := env.SeedTenant(t, apptest.Limits{})
	seedLoginUser(t, env, tn.Company.ID, "inactive")
	uc := auth.NewAuthUseCase(env.Store.Repos().Users, auth.JWTConfig{Secret: secret, ExpMinutes: 30})

	_, err := uc.Login(context.Background(), dto.LoginRequest{Email: "ana@firmador.test", Password: "clave-segura"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
