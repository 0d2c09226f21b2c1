package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/amoylab/choirhub/internal/apiserver/cache"
	"github.com/amoylab/choirhub/internal/apiserver/database"
	"github.com/amoylab/choirhub/internal/apiserver/middleware"
	"github.com/amoylab/choirhub/internal/common/dto"
	"github.com/amoylab/choirhub/internal/common/errorx"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Playlist struct {
	db     database.Database
	stats  *cache.StatsCache
	errs   *errorx.ErrorHandler
	logger *zap.Logger
}

func NewPlaylist(db database.Database, stats *cache.StatsCache, errs *errorx.ErrorHandler, logger *zap.Logger) *Playlist {
	return &Playlist{
		db:     db,
		stats:  stats,
		errs:   errs,
		logger: logger.Named("handler.playlist"),
	}
}

// List returns the caller's playlists plus public ones; ?mine=true keeps only the caller's
func (h *Playlist) List(c *gin.Context) {
	mine, err := queryBool(c, "mine")
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	filter := database.PlaylistFilter{
		OwnerID:       middleware.CurrentUser(c).ID,
		IncludePublic: mine == nil || !*mine,
	}
	playlists, err := h.db.ListPlaylists(c.Request.Context(), filter)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, playlists)
}

// load returns the playlist named by :id if the caller may see it, or
// modify it when write is set
func (h *Playlist) load(c *gin.Context, write bool) (*database.Playlist, bool) {
	id, ok := paramID(c, h.errs, "id")
	if !ok {
		return nil, false
	}
	playlist, err := h.db.GetPlaylist(c.Request.Context(), id)
	if err != nil {
		h.errs.HandleError(c, notFound(err, "playlist", id))
		return nil, false
	}
	user := middleware.CurrentUser(c)
	allowed := playlist.OwnerID == user.ID || isAdmin(user) || (!write && playlist.IsPublic)
	if !allowed {
		h.errs.HandleError(c, errorx.ErrForbidden)
		return nil, false
	}
	return playlist, true
}

func (h *Playlist) Get(c *gin.Context) {
	playlist, ok := h.load(c, false)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, playlist)
}

func (h *Playlist) Create(c *gin.Context) {
	var req dto.CreatePlaylistRequest
	if !bindJSON(c, h.errs, &req) {
		return
	}
	ctx := c.Request.Context()
	playlist := &database.Playlist{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		OwnerID:     middleware.CurrentUser(c).ID,
		IsPublic:    req.IsPublic,
		IsActive:    true,
	}
	if err := h.db.CreatePlaylist(ctx, playlist); err != nil {
		h.errs.HandleError(c, err)
		return
	}
	playlist.Items = []database.PlaylistItem{}
	h.stats.Invalidate(ctx)
	c.JSON(http.StatusCreated, playlist)
}

func (h *Playlist) Update(c *gin.Context) {
	var req dto.UpdatePlaylistRequest
	if !bindJSON(c, h.errs, &req) {
		return
	}
	playlist, ok := h.load(c, true)
	if !ok {
		return
	}
	if v := trimPtr(req.Name); v != nil {
		playlist.Name = *v
	}
	if v := trimPtr(req.Description); v != nil {
		playlist.Description = *v
	}
	if req.IsPublic != nil {
		playlist.IsPublic = *req.IsPublic
	}
	if err := h.db.UpdatePlaylist(c.Request.Context(), playlist); err != nil {
		h.errs.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, playlist)
}

func (h *Playlist) Delete(c *gin.Context) {
	playlist, ok := h.load(c, true)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.db.DeactivatePlaylist(ctx, playlist.ID); err != nil {
		h.errs.HandleError(c, notFound(err, "playlist", playlist.ID))
		return
	}
	h.stats.Invalidate(ctx)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AddSong appends an active song to the end of the playlist
func (h *Playlist) AddSong(c *gin.Context) {
	var req dto.PlaylistSongRequest
	if !bindJSON(c, h.errs, &req) {
		return
	}
	playlist, ok := h.load(c, true)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.db.GetSong(ctx, req.SongID); err != nil {
		h.errs.HandleError(c, notFound(err, "song", req.SongID))
		return
	}
	item, err := h.db.AddPlaylistItem(ctx, playlist.ID, req.SongID)
	if err != nil {
		if errorx.ConvertToAPIError(err).Is(errorx.ErrResourceExists) {
			h.errs.HandleError(c, errorx.ConflictError("playlist_item", "songId", req.SongID))
			return
		}
		h.errs.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Playlist) RemoveSong(c *gin.Context) {
	songID, ok := paramID(c, h.errs, "songId")
	if !ok {
		return
	}
	playlist, ok := h.load(c, true)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.db.RemovePlaylistItem(ctx, playlist.ID, songID); err != nil {
		h.errs.HandleError(c, notFound(err, "playlist_item", songID))
		return
	}
	h.respondWithPlaylist(c, playlist.ID)
}

// Reorder takes every song id of the playlist exactly once in the new order
func (h *Playlist) Reorder(c *gin.Context) {
	var req dto.ReorderRequest
	if !bindJSON(c, h.errs, &req) {
		return
	}
	playlist, ok := h.load(c, true)
	if !ok {
		return
	}
	if err := h.db.ReorderPlaylist(c.Request.Context(), playlist.ID, req.SongIDs); err != nil {
		if errors.Is(err, database.ErrInvalidOrder) {
			h.errs.HandleError(c, errorx.ValidationError("songIds", err.Error()))
			return
		}
		h.errs.HandleError(c, err)
		return
	}
	h.respondWithPlaylist(c, playlist.ID)
}

func (h *Playlist) respondWithPlaylist(c *gin.Context, id uint) {
	playlist, err := h.db.GetPlaylist(c.Request.Context(), id)
	if err != nil {
		h.errs.HandleError(c, notFound(err, "playlist", id))
		return
	}
	c.JSON(http.StatusOK, playlist)
}
