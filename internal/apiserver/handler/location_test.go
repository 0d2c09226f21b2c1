package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/amoylab/choirhub/internal/apiserver/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocation_Lifecycle(t *testing.T) {
	f := newFixture(t)

	body := map[string]any{"name": " Parroquia San Juan ", "type": "church", "city": "Lima", "region": "Lima"}
	w := f.do(http.MethodPost, "/api/locations", f.director, body)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = f.do(http.MethodPost, "/api/locations", nil, body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodPost, "/api/locations", f.admin, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	loc := decode[database.Location](t, w)
	assert.Equal(t, "Parroquia San Juan", loc.Name)

	w = f.do(http.MethodPost, "/api/locations", f.admin, map[string]any{"name": "Aula Magna", "type": "hall", "city": "Cusco"})
	require.Equal(t, http.StatusCreated, w.Code)

	names := func(query string) []string {
		w := f.do(http.MethodGet, "/api/locations"+query, nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var out []string
		for _, l := range decode[[]database.Location](t, w) {
			out = append(out, l.Name)
		}
		return out
	}
	assert.Equal(t, []string{"Aula Magna", "Parroquia San Juan"}, names(""))
	assert.Equal(t, []string{"Parroquia San Juan"}, names("?type=church"))
	assert.Equal(t, []string{"Aula Magna"}, names("?city=cusco"))
	assert.Equal(t, []string{"Parroquia San Juan"}, names("?region=LIMA"))

	path := fmt.Sprintf("/api/locations/%d", loc.ID)
	w = f.do(http.MethodGet, path, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodPut, path, f.admin, map[string]any{"address": "Av. Sol 100"})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[database.Location](t, w)
	assert.Equal(t, "Av. Sol 100", updated.Address)
	assert.Equal(t, "Parroquia San Juan", updated.Name)

	w = f.do(http.MethodDelete, path, f.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = f.do(http.MethodGet, path, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, []string{"Aula Magna"}, names(""))
}
