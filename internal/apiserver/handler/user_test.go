package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/amoylab/choirhub/internal/apiserver/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_Access(t *testing.T) {
	f := newFixture(t)
	self := fmt.Sprintf("/api/users/%d", f.member.ID)

	w := f.do(http.MethodGet, "/api/users", f.member, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "E3002", errorCode(t, w))

	w = f.do(http.MethodGet, "/api/users?role=director", f.director, nil)
	require.Equal(t, http.StatusOK, w.Code)
	users := decode[[]database.User](t, w)
	require.Len(t, users, 1)
	assert.Equal(t, "director", users[0].Username)

	w = f.do(http.MethodGet, "/api/users?role=root", f.director, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodGet, self, f.member, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = f.do(http.MethodGet, self, f.director, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = f.do(http.MethodGet, self, f.other, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(http.MethodPut, self, f.director, map[string]any{"firstName": "X"})
	assert.Equal(t, http.StatusForbidden, w.Code, "directors read but do not edit accounts")
}

func TestUser_Update(t *testing.T) {
	f := newFixture(t)
	self := fmt.Sprintf("/api/users/%d", f.member.ID)
	loc := f.location("Sede")

	w := f.do(http.MethodPut, self, f.member, map[string]any{"firstName": " Ana ", "locationId": loc.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	user := decode[database.User](t, w)
	assert.Equal(t, "Ana", user.FirstName)
	require.NotNil(t, user.Location)
	assert.Equal(t, "Sede", user.Location.Name)

	w = f.do(http.MethodPut, self, f.member, map[string]any{"email": "other@example.com"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(http.MethodPut, self, f.member, map[string]any{"locationId": 9999})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodPut, self, f.admin, map[string]any{"username": "ana"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ana", decode[database.User](t, w).Username)
}

func TestUser_Delete(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", f.member.ID), f.director, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", f.admin.ID), f.admin, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", f.member.ID), f.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	user, err := f.db.GetUserByID(f.ctx, f.member.ID)
	require.NoError(t, err)
	assert.False(t, user.IsActive)

	w = f.do(http.MethodGet, "/api/auth/verify", f.member, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUser_VoiceProfiles(t *testing.T) {
	f := newFixture(t)
	base := fmt.Sprintf("/api/users/%d/voice-profiles", f.other.ID)

	w := f.do(http.MethodPost, base, f.other, map[string]any{"voiceType": "Soprano", "isPrimary": true})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = f.do(http.MethodPost, base, f.other, map[string]any{"voiceType": "mezzo"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.do(http.MethodPost, base, f.other, map[string]any{"voiceType": "soprano"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = f.do(http.MethodPost, base, f.other, map[string]any{"voiceType": "kazoo"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = f.do(http.MethodPost, base, f.member, map[string]any{"voiceType": "alto"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(http.MethodGet, base, f.director, nil)
	require.Equal(t, http.StatusOK, w.Code)
	profiles := decode[[]database.VoiceProfile](t, w)
	require.Len(t, profiles, 2)
	assert.Equal(t, "soprano", profiles[0].VoiceType)
	assert.True(t, profiles[0].IsPrimary)
	assert.Equal(t, "mezzosoprano", profiles[1].VoiceType)

	w = f.do(http.MethodGet, "/api/users?voiceType=soprano", f.director, nil)
	assert.Len(t, decode[[]database.User](t, w), 1)

	w = f.do(http.MethodDelete, base+"/soprano", f.other, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = f.do(http.MethodDelete, base+"/soprano", f.other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
