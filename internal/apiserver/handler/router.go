package handler

import (
	"net/http"

	"github.com/amoylab/choirhub/internal/apiserver/cache"
	"github.com/amoylab/choirhub/internal/apiserver/database"
	"github.com/amoylab/choirhub/internal/apiserver/middleware"
	"github.com/amoylab/choirhub/internal/apiserver/scheduler"
	"github.com/amoylab/choirhub/internal/apiserver/upload"
	"github.com/amoylab/choirhub/internal/auth/jwt"
	"github.com/amoylab/choirhub/internal/common/cnst"
	"github.com/amoylab/choirhub/internal/common/config"
	"github.com/amoylab/choirhub/internal/common/errorx"
	"github.com/amoylab/choirhub/internal/i18n"
	"github.com/amoylab/choirhub/pkg/metrics"
	"github.com/amoylab/choirhub/pkg/trace"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const healthPath = "/health"

// Deps is everything the routes need. I18n and Metrics may be nil.
type Deps struct {
	Config   *config.APIServerConfig
	DB       database.Database
	JWT      *jwt.Service
	Uploader *upload.Uploader
	Stats    *cache.StatsCache
	Errors   *errorx.ErrorHandler
	I18n     *i18n.I18n
	Metrics  *metrics.Metrics
	Logger   *zap.Logger

	// Reconciler is the periodic orphan cleanup, nil when disabled
	Reconciler *scheduler.Reconciler
}

// NewRouter builds the gin engine with the middleware chain and every route
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()

	metricsPath := d.Config.Metrics.Path
	r.Use(d.Errors.RecoveryMiddleware())
	r.Use(middleware.AccessLog(d.Logger.Named("access"), healthPath, metricsPath))
	if d.Config.Tracing.Enabled {
		r.Use(trace.Middleware(d.Config.Tracing.ServiceName, healthPath, metricsPath))
	}
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
		r.GET(metricsPath, gin.WrapH(d.Metrics.Handler()))
	}
	r.Use(middleware.CORS(&d.Config.Server))
	if d.I18n != nil {
		r.Use(d.I18n.Middleware())
	}
	r.NoRoute(d.Errors.NoRoute)

	r.GET(healthPath, NewHealth(d.DB).Health)

	RegisterRoutes(r.Group("/api"), d)
	return r
}

// RegisterRoutes mounts the REST resources below api
func RegisterRoutes(api *gin.RouterGroup, d Deps) {
	errs := d.Errors
	limits := d.Config.Server.RateLimit
	api.Use(middleware.RateLimit(limits.Requests, limits, errs))

	authn := middleware.JWTAuthMiddleware(d.JWT, d.DB, errs)
	admin := middleware.RequireRoles(errs, cnst.RoleAdmin)
	managers := middleware.RequireRoles(errs, cnst.RoleAdmin, cnst.RoleDirector)
	store := d.Uploader.Store()

	authH := NewAuth(d.DB, d.JWT, d.Stats, errs, d.Logger)
	userH := NewUser(d.DB, d.Stats, errs, d.Logger)
	songH := NewSong(d.DB, store, d.Stats, errs, d.Logger)
	playlistH := NewPlaylist(d.DB, d.Stats, errs, d.Logger)
	lyricH := NewLyric(d.DB, errs, d.Logger)
	locationH := NewLocation(d.DB, d.Stats, errs, d.Logger)
	eventH := NewEvent(d.DB, d.Stats, errs, d.Logger)
	adminH := NewAdmin(d.DB, store, d.Stats, errs, d.Logger)
	adminH.reconciler = d.Reconciler
	dashboardH := NewDashboard(d.Stats, errs)

	authLimit := middleware.RateLimit(limits.AuthRequests, limits, errs)
	auth := api.Group("/auth")
	auth.POST("/register", authLimit, authH.Register)
	auth.POST("/login", authLimit, authH.Login)
	auth.GET("/verify", authn, authH.Verify)
	auth.POST("/change-password", authn, authH.ChangePassword)

	users := api.Group("/users", authn)
	users.GET("", managers, userH.List)
	users.GET("/:id", userH.Get)
	users.PUT("/:id", userH.Update)
	users.DELETE("/:id", admin, userH.Delete)
	users.GET("/:id/voice-profiles", userH.ListVoiceProfiles)
	users.POST("/:id/voice-profiles", userH.AddVoiceProfile)
	users.DELETE("/:id/voice-profiles/:voiceType", userH.RemoveVoiceProfile)

	// audio elements cannot send bearer tokens
	api.GET("/songs/file/:folder/:file", songH.File)
	api.HEAD("/songs/file/:folder/:file", songH.File)

	songs := api.Group("/songs", authn)
	songs.GET("", songH.List)
	songs.GET("/:id", songH.Get)
	songs.POST("", managers, songH.Create)
	songs.POST("/upload", d.Uploader.Middleware(upload.ModeSingle), songH.Upload)
	songs.POST("/upload-multiple", managers, d.Uploader.Middleware(upload.ModeMultiple), songH.UploadMultiple)
	songs.POST("/:id/variants", d.Uploader.Middleware(upload.ModeVariant), songH.AddVariant)
	songs.PUT("/:id", songH.Update)
	songs.DELETE("/:id", songH.Delete)

	playlists := api.Group("/playlists", authn)
	playlists.GET("", playlistH.List)
	playlists.GET("/:id", playlistH.Get)
	playlists.POST("", playlistH.Create)
	playlists.PUT("/:id", playlistH.Update)
	playlists.DELETE("/:id", playlistH.Delete)
	playlists.POST("/:id/songs", playlistH.AddSong)
	playlists.PUT("/:id/songs/order", playlistH.Reorder)
	playlists.DELETE("/:id/songs/:songId", playlistH.RemoveSong)

	lyrics := api.Group("/lyrics", authn)
	lyrics.GET("/song/:songId", lyricH.BySong)
	lyrics.GET("/:id", lyricH.Get)
	lyrics.POST("", managers, lyricH.Create)
	lyrics.PUT("/:id", managers, lyricH.Update)
	lyrics.DELETE("/:id", managers, lyricH.Delete)

	// the registration form offers the location list before login
	api.GET("/locations", locationH.List)
	api.GET("/locations/:id", locationH.Get)
	locations := api.Group("/locations", authn, admin)
	locations.POST("", locationH.Create)
	locations.PUT("/:id", locationH.Update)
	locations.DELETE("/:id", locationH.Delete)

	events := api.Group("/events", authn)
	events.GET("", eventH.List)
	events.GET("/:id", eventH.Get)
	events.POST("", managers, eventH.Create)
	events.PUT("/:id", managers, eventH.Update)
	events.DELETE("/:id", managers, eventH.Delete)
	events.POST("/:id/songs", managers, eventH.AddSong)
	events.DELETE("/:id/songs/:songId", managers, eventH.RemoveSong)
	events.POST("/:id/soloists", managers, eventH.AddSoloist)
	events.DELETE("/:id/soloists/:soloistId", managers, eventH.RemoveSoloist)

	adminG := api.Group("/admin", authn, admin)
	adminG.GET("/users", adminH.Users)
	adminG.PUT("/users/:id/roles", adminH.UpdateRoles)
	adminG.PUT("/users/:id/status", adminH.UpdateStatus)
	adminG.GET("/roles", adminH.Roles)
	adminG.GET("/uploads/orphans", adminH.Orphans)
	adminG.POST("/uploads/reconcile", adminH.Reconcile)
	adminG.GET("/uploads/schedule", adminH.Schedule)

	api.GET("/dashboard/stats", authn, dashboardH.Stats)

	api.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"name": cnst.AppName, "status": "ok"})
	})
}
