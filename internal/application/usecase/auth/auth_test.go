package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/mediahub/internal/application/usecase/usecasetest"
	"github.com/khoahotran/mediahub/internal/domain/user"
	"github.com/khoahotran/mediahub/pkg/apperror"
	"github.com/khoahotran/mediahub/pkg/auth"
	"github.com/khoahotran/mediahub/pkg/logger"
)

func newJWT() *auth.JWTService {
	return auth.NewJWTService("test-secret", time.Hour)
}

func TestRegisterThenLogin(t *testing.T) {
	repo := usecasetest.NewUserRepo()
	jwtSvc := newJWT()
	register := NewRegisterUseCase(repo, jwtSvc, logger.NewNop())
	login := NewLoginUseCase(repo, jwtSvc, logger.NewNop())

	reg, err := register.Execute(context.Background(), RegisterInput{
		Email:    "Creator@Example.com",
		Name:     "Creator",
		Password: "s3cret-pass",
		Role:     "creator",
	})
	require.NoError(t, err)
	assert.Equal(t, "creator@example.com", reg.User.Email)
	assert.NotEqual(t, "s3cret-pass", reg.User.PasswordHash)

	out, err := login.Execute(context.Background(), LoginInput{Email: "creator@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	claims, err := jwtSvc.ValidateToken(out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.UserID)
	assert.Equal(t, string(user.RoleCreator), claims.Role)
}

func TestRegister_Validation(t *testing.T) {
	register := NewRegisterUseCase(usecasetest.NewUserRepo(), newJWT(), logger.NewNop())

	cases := map[string]RegisterInput{
		"short password": {Email: "a@b.co", Name: "A", Password: "short"},
		"bad email":      {Email: "nope", Name: "A", Password: "long-enough"},
		"unknown role":   {Email: "a@b.co", Name: "A", Password: "long-enough", Role: "admin"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := register.Execute(context.Background(), in)
			assert.ErrorIs(t, err, apperror.ErrInvalidInput)
		})
	}
}

func TestRegister_DefaultsToViewerAndRejectsDuplicates(t *testing.T) {
	register := NewRegisterUseCase(usecasetest.NewUserRepo(), newJWT(), logger.NewNop())
	in := RegisterInput{Email: "v@example.com", Name: "Viewer", Password: "long-enough"}

	out, err := register.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, user.RoleViewer, out.User.Role)

	_, err = register.Execute(context.Background(), in)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestLogin_Failures(t *testing.T) {
	hash, err := auth.HashPassword("right-password")
	require.NoError(t, err)
	repo := usecasetest.NewUserRepo(&user.User{Email: "u@example.com", Name: "U", Role: user.RoleViewer, PasswordHash: hash})
	login := NewLoginUseCase(repo, newJWT(), logger.NewNop())

	_, err = login.Execute(context.Background(), LoginInput{Email: "u@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = login.Execute(context.Background(), LoginInput{Email: "missing@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = login.Execute(context.Background(), LoginInput{})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}
