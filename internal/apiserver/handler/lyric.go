package handler

import (
	"net/http"
	"strings"

	"github.com/amoylab/choirhub/internal/apiserver/database"
	"github.com/amoylab/choirhub/internal/apiserver/middleware"
	"github.com/amoylab/choirhub/internal/common/dto"
	"github.com/amoylab/choirhub/internal/common/errorx"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Lyric struct {
	db     database.Database
	errs   *errorx.ErrorHandler
	logger *zap.Logger
}

func NewLyric(db database.Database, errs *errorx.ErrorHandler, logger *zap.Logger) *Lyric {
	return &Lyric{
		db:     db,
		errs:   errs,
		logger: logger.Named("handler.lyric"),
	}
}

func checkTiming(start, end *float64) error {
	if start != nil && end != nil && *end < *start {
		return errorx.ValidationError("endTime", "must not be before startTime")
	}
	return nil
}

// BySong returns the lines of a song for a voice plus the lines every voice sings
func (h *Lyric) BySong(c *gin.Context) {
	songID, ok := paramID(c, h.errs, "songId")
	if !ok {
		return
	}
	voice, err := voiceType(c.Query("voiceType"))
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	ctx := c.Request.Context()
	if _, err := h.db.GetSong(ctx, songID); err != nil {
		h.errs.HandleError(c, notFound(err, "song", songID))
		return
	}
	lyrics, err := h.db.ListLyrics(ctx, songID, voice)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, lyrics)
}

func (h *Lyric) Get(c *gin.Context) {
	id, ok := paramID(c, h.errs, "id")
	if !ok {
		return
	}
	lyric, err := h.db.GetLyric(c.Request.Context(), id)
	if err != nil {
		h.errs.HandleError(c, notFound(err, "lyric", id))
		return
	}
	c.JSON(http.StatusOK, lyric)
}

func (h *Lyric) Create(c *gin.Context) {
	var req dto.CreateLyricRequest
	if !bindJSON(c, h.errs, &req) {
		return
	}
	voice, err := voiceType(req.VoiceType)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	if err := checkTiming(req.StartTime, req.EndTime); err != nil {
		h.errs.HandleError(c, err)
		return
	}
	ctx := c.Request.Context()
	if _, err := h.db.GetSong(ctx, req.SongID); err != nil {
		h.errs.HandleError(c, notFound(err, "song", req.SongID))
		return
	}

	author := middleware.CurrentUser(c).ID
	lyric := &database.Lyric{
		SongID:      req.SongID,
		VoiceType:   voice,
		Content:     req.Content,
		LineOrder:   req.LineOrder,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Language:    strings.TrimSpace(req.Language),
		CreatedByID: &author,
		IsActive:    true,
	}
	if err := h.db.CreateLyric(ctx, lyric); err != nil {
		h.errs.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, lyric)
}

func (h *Lyric) Update(c *gin.Context) {
	id, ok := paramID(c, h.errs, "id")
	if !ok {
		return
	}
	var req dto.UpdateLyricRequest
	if !bindJSON(c, h.errs, &req) {
		return
	}
	ctx := c.Request.Context()
	lyric, err := h.db.GetLyric(ctx, id)
	if err != nil {
		h.errs.HandleError(c, notFound(err, "lyric", id))
		return
	}

	if req.VoiceType != nil {
		voice, err := voiceType(*req.VoiceType)
		if err != nil {
			h.errs.HandleError(c, err)
			return
		}
		lyric.VoiceType = voice
	}
	if req.Content != nil {
		lyric.Content = *req.Content
	}
	if req.LineOrder != nil {
		lyric.LineOrder = *req.LineOrder
	}
	if req.StartTime != nil {
		lyric.StartTime = req.StartTime
	}
	if req.EndTime != nil {
		lyric.EndTime = req.EndTime
	}
	if v := trimPtr(req.Language); v != nil {
		lyric.Language = *v
	}
	if err := checkTiming(lyric.StartTime, lyric.EndTime); err != nil {
		h.errs.HandleError(c, err)
		return
	}

	if err := h.db.UpdateLyric(ctx, lyric); err != nil {
		h.errs.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, lyric)
}

func (h *Lyric) Delete(c *gin.Context) {
	id, ok := paramID(c, h.errs, "id")
	if !ok {
		return
	}
	if err := h.db.DeactivateLyric(c.Request.Context(), id); err != nil {
		h.errs.HandleError(c, notFound(err, "lyric", id))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
