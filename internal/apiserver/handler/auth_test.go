package handler

import (
	"net/http"
	"testing"

	"github.com/amoylab/choirhub/internal/apiserver/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenResponse struct {
	Token string        `json:"token"`
	User  database.User `json:"user"`
}

func TestAuth_Register(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/auth/register", nil, map[string]any{
		"email":     "Ana@Example.com",
		"username":  "ana",
		"password":  "longenough",
		"firstName": "Ana",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[tokenResponse](t, w)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "ana@example.com", resp.User.Email)
	assert.Equal(t, []string{"member"}, resp.User.RoleNames())

	w = f.do(http.MethodPost, "/api/auth/register", nil, map[string]any{
		"email": "ana@example.com", "username": "ana2", "password": "longenough",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "E4091", errorCode(t, w))

	w = f.do(http.MethodPost, "/api/auth/register", nil, map[string]any{
		"email": "bad", "username": "x", "password": "1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "E1001", errorCode(t, w))
}

func TestAuth_Login(t *testing.T) {
	f := newFixture(t)

	for _, login := range []string{"member", "MEMBER@example.com"} {
		w := f.do(http.MethodPost, "/api/auth/login", nil, map[string]any{"login": login, "password": testPassword})
		require.Equal(t, http.StatusOK, w.Code, login+": "+w.Body.String())
		resp := decode[tokenResponse](t, w)
		assert.Equal(t, f.member.ID, resp.User.ID)

		claims, err := f.jwt.ValidateToken(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, []string{"member"}, claims.Roles)
	}

	user, err := f.db.GetUserByID(f.ctx, f.member.ID)
	require.NoError(t, err)
	assert.NotNil(t, user.LastLoginAt)

	w := f.do(http.MethodPost, "/api/auth/login", nil, map[string]any{"username": "member", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "E2002", errorCode(t, w))

	w = f.do(http.MethodPost, "/api/auth/login", nil, map[string]any{"email": "nobody@example.com", "password": testPassword})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodPost, "/api/auth/login", nil, map[string]any{"password": testPassword})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "E1002", errorCode(t, w))
}

func TestAuth_LoginDisabledAccount(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.SetUserActive(f.ctx, f.member.ID, false))

	w := f.do(http.MethodPost, "/api/auth/login", nil, map[string]any{"login": "member", "password": testPassword})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "E2005", errorCode(t, w))
}

func TestAuth_Verify(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/auth/verify", f.member, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[struct {
		Valid bool          `json:"valid"`
		User  database.User `json:"user"`
	}](t, w)
	assert.True(t, resp.Valid)
	assert.Equal(t, "member", resp.User.Username)

	w = f.do(http.MethodGet, "/api/auth/verify", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	r := newRequest(http.MethodGet, "/api/auth/verify")
	r.Header.Set("Authorization", "Bearer not-a-token")
	w = f.serve(r, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "E2004", errorCode(t, w))
}

func TestAuth_ChangePassword(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/auth/change-password", f.member, map[string]any{
		"currentPassword": "wrong-password", "newPassword": "another-secret",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodPost, "/api/auth/change-password", f.member, map[string]any{
		"currentPassword": testPassword, "newPassword": "another-secret",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(http.MethodPost, "/api/auth/login", nil, map[string]any{"login": "member", "password": "another-secret"})
	assert.Equal(t, http.StatusOK, w.Code)
	w = f.do(http.MethodPost, "/api/auth/login", nil, map[string]any{"login": "member", "password": testPassword})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
