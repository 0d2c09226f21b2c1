package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/amoylab/choirhub/internal/apiserver/cache"
	"github.com/amoylab/choirhub/internal/apiserver/database"
	"github.com/amoylab/choirhub/internal/apiserver/upload"
	"github.com/amoylab/choirhub/internal/auth"
	jsvc "github.com/amoylab/choirhub/internal/auth/jwt"
	"github.com/amoylab/choirhub/internal/common/cnst"
	"github.com/amoylab/choirhub/internal/common/config"
	"github.com/amoylab/choirhub/internal/common/errorx"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testSecret   = "this-is-a-very-long-secret-key-for-testing"
	testPassword = "secret123"
)

type fixture struct {
	t        *testing.T
	ctx      context.Context
	db       *database.GormDB
	jwt      *jsvc.Service
	store    *upload.Store
	router   *gin.Engine
	admin    *database.User
	director *database.User
	member   *database.User
	other    *database.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	logger := zap.NewNop()

	db, err := database.NewDatabase(&config.DatabaseConfig{Type: "sqlite", DBName: ":memory:"}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.EnsureRoles(ctx))

	svc, err := jsvc.NewService(jsvc.Config{SecretKey: testSecret, Duration: time.Hour})
	require.NoError(t, err)

	cfg := &config.APIServerConfig{}
	cfg.Upload = config.UploadConfig{Dir: t.TempDir(), MaxFileSize: 1 << 20, MaxFiles: 5}
	cfg.Metrics.Path = "/metrics"

	store, err := upload.NewStore(logger, cfg.Upload.Dir)
	require.NoError(t, err)
	errs := errorx.NewErrorHandler(logger, nil)

	f := &fixture{t: t, ctx: ctx, db: db, jwt: svc, store: store}
	f.router = NewRouter(Deps{
		Config:   cfg,
		DB:       db,
		JWT:      svc,
		Uploader: upload.NewUploader(store, cfg.Upload, errs, nil, logger),
		Stats:    cache.NewStatsCache(cache.NewMemoryCache(), db, time.Minute, nil, logger),
		Errors:   errs,
		Logger:   logger,
	})

	f.admin = f.user("admin", cnst.RoleAdmin)
	f.director = f.user("director", cnst.RoleDirector)
	f.member = f.user("member", cnst.RoleMember)
	f.other = f.user("other", cnst.RoleSinger)
	return f
}

func (f *fixture) user(name string, roles ...cnst.RoleName) *database.User {
	f.t.Helper()
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	rs, err := f.db.GetRolesByNames(f.ctx, names)
	require.NoError(f.t, err)
	hashed, err := auth.HashPassword(testPassword)
	require.NoError(f.t, err)
	u := &database.User{Email: name + "@example.com", Username: name, Password: hashed, IsActive: true, Roles: rs}
	require.NoError(f.t, f.db.CreateUser(f.ctx, u))
	return u
}

func (f *fixture) token(u *database.User) string {
	f.t.Helper()
	tok, err := f.jwt.GenerateToken(u.ID, u.Username, u.RoleNames())
	require.NoError(f.t, err)
	return tok
}

func (f *fixture) serve(req *http.Request, u *database.User) *httptest.ResponseRecorder {
	if u != nil {
		req.Header.Set("Authorization", "Bearer "+f.token(u))
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// do sends body as JSON
func (f *fixture) do(method, path string, u *database.User, body any) *httptest.ResponseRecorder {
	f.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(f.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return f.serve(req, u)
}

type part struct {
	field, name, contentType, body string
}

func (f *fixture) upload(path string, u *database.User, fields map[string]string, parts ...part) *httptest.ResponseRecorder {
	f.t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(f.t, w.WriteField(k, v))
	}
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+p.field+`"; filename="`+p.name+`"`)
		ct := p.contentType
		if ct == "" {
			ct = "audio/mpeg"
		}
		h.Set("Content-Type", ct)
		pw, err := w.CreatePart(h)
		require.NoError(f.t, err)
		_, err = pw.Write([]byte(p.body))
		require.NoError(f.t, err)
	}
	require.NoError(f.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return f.serve(req, u)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp.Error.Code
}

func (f *fixture) folders() []string {
	f.t.Helper()
	names, err := f.store.ListFolders(f.ctx)
	require.NoError(f.t, err)
	return names
}

func (f *fixture) song(title string, owner *database.User, parent *uint, voice string) *database.Song {
	f.t.Helper()
	s := &database.Song{Title: title, ParentSongID: parent, VoiceType: voice, UploadedByID: &owner.ID, IsActive: true}
	require.NoError(f.t, f.db.CreateSong(f.ctx, s))
	return s
}

const mp3Body = "ID3\x03\x00\x00\x00\x00\x00\x00-0123456789"

func newRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}
