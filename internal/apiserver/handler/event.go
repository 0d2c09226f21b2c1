package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/amoylab/choirhub/internal/apiserver/cache"
	"github.com/amoylab/choirhub/internal/apiserver/database"
	"github.com/amoylab/choirhub/internal/apiserver/middleware"
	"github.com/amoylab/choirhub/internal/common/dto"
	"github.com/amoylab/choirhub/internal/common/errorx"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type Event struct {
	db     database.Database
	stats  *cache.StatsCache
	errs   *errorx.ErrorHandler
	logger *zap.Logger
	now    func() time.Time
}

func NewEvent(db database.Database, stats *cache.StatsCache, errs *errorx.ErrorHandler, logger *zap.Logger) *Event {
	return &Event{
		db:     db,
		stats:  stats,
		errs:   errs,
		logger: logger.Named("handler.event"),
		now:    time.Now,
	}
}

// queryTime parses RFC 3339 or a plain date. A plain date used as an upper
// bound covers the whole day.
func queryTime(c *gin.Context, name string, upper bool) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, errorx.ValidationError(name, "expected RFC 3339 time or YYYY-MM-DD")
	}
	if upper {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t, nil
}

// List filters by locationId, category, from, to and upcoming=true
func (h *Event) List(c *gin.Context) {
	locationID, err := queryUint(c, "locationId")
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	upcoming, err := queryBool(c, "upcoming")
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	from, err := queryTime(c, "from", false)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	to, err := queryTime(c, "to", true)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}

	events, err := h.db.ListEvents(c.Request.Context(), database.EventFilter{
		LocationID: locationID,
		Category:   strings.TrimSpace(c.Query("category")),
		Upcoming:   upcoming != nil && *upcoming,
		From:       from,
		To:         to,
		Now:        h.now(),
	})
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *Event) load(c *gin.Context) (*database.Event, bool) {
	id, ok := paramID(c, h.errs, "id")
	if !ok {
		return nil, false
	}
	event, err := h.db.GetEvent(c.Request.Context(), id)
	if err != nil {
		h.errs.HandleError(c, notFound(err, "event", id))
		return nil, false
	}
	return event, true
}

// Get returns an event with its program and soloists
func (h *Event) Get(c *gin.Context) {
	event, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *Event) checkLocation(ctx context.Context, id *uint) error {
	if id == nil {
		return nil
	}
	if _, err := h.db.GetLocation(ctx, *id); err != nil {
		return notFound(err, "location", *id)
	}
	return nil
}

// times are stored in UTC so range filters compare consistently
func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func checkSpan(start time.Time, end *time.Time) error {
	if end != nil && end.Before(start) {
		return errorx.ValidationError("endDate", "must not be before date")
	}
	return nil
}

func (h *Event) Create(c *gin.Context) {
	var req dto.CreateEventRequest
	if !bindJSON(c, h.errs, &req) {
		return
	}
	if err := checkSpan(req.Date, req.EndDate); err != nil {
		h.errs.HandleError(c, err)
		return
	}
	ctx := c.Request.Context()
	if err := h.checkLocation(ctx, req.LocationID); err != nil {
		h.errs.HandleError(c, err)
		return
	}

	author := middleware.CurrentUser(c).ID
	event := &database.Event{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Category:    strings.TrimSpace(req.Category),
		Date:        req.Date.UTC(),
		EndDate:     utcPtr(req.EndDate),
		LocationID:  req.LocationID,
		CreatedByID: &author,
		IsActive:    true,
	}
	if err := h.db.CreateEvent(ctx, event); err != nil {
		h.errs.HandleError(c, err)
		return
	}
	h.stats.Invalidate(ctx)
	h.respond(c, http.StatusCreated, event.ID)
}

func (h *Event) Update(c *gin.Context) {
	var req dto.UpdateEventRequest
	if !bindJSON(c, h.errs, &req) {
		return
	}
	event, ok := h.load(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if v := trimPtr(req.Title); v != nil {
		event.Title = *v
	}
	if v := trimPtr(req.Description); v != nil {
		event.Description = *v
	}
	if v := trimPtr(req.Category); v != nil {
		event.Category = *v
	}
	if req.Date != nil {
		event.Date = req.Date.UTC()
	}
	if req.EndDate != nil {
		event.EndDate = utcPtr(req.EndDate)
	}
	if req.LocationID != nil {
		if err := h.checkLocation(ctx, req.LocationID); err != nil {
			h.errs.HandleError(c, err)
			return
		}
		event.LocationID = req.LocationID
	}
	if err := checkSpan(event.Date, event.EndDate); err != nil {
		h.errs.HandleError(c, err)
		return
	}

	if err := h.db.UpdateEvent(ctx, event); err != nil {
		h.errs.HandleError(c, err)
		return
	}
	h.stats.Invalidate(ctx)
	h.respond(c, http.StatusOK, event.ID)
}

func (h *Event) Delete(c *gin.Context) {
	id, ok := paramID(c, h.errs, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.db.DeactivateEvent(ctx, id); err != nil {
		h.errs.HandleError(c, notFound(err, "event", id))
		return
	}
	h.stats.Invalidate(ctx)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AddSong appends an active song to the program
func (h *Event) AddSong(c *gin.Context) {
	var req dto.EventSongRequest
	if !bindJSON(c, h.errs, &req) {
		return
	}
	event, ok := h.load(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.db.GetSong(ctx, req.SongID); err != nil {
		h.errs.HandleError(c, notFound(err, "song", req.SongID))
		return
	}
	entry, err := h.db.AddEventSong(ctx, event.ID, req.SongID, strings.TrimSpace(req.Notes))
	if err != nil {
		if errorx.ConvertToAPIError(err).Is(errorx.ErrResourceExists) {
			h.errs.HandleError(c, errorx.ConflictError("event_song", "songId", req.SongID))
			return
		}
		h.errs.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *Event) RemoveSong(c *gin.Context) {
	songID, ok := paramID(c, h.errs, "songId")
	if !ok {
		return
	}
	event, ok := h.load(c)
	if !ok {
		return
	}
	if err := h.db.RemoveEventSong(c.Request.Context(), event.ID, songID); err != nil {
		h.errs.HandleError(c, notFound(err, "event_song", songID))
		return
	}
	h.respond(c, http.StatusOK, event.ID)
}

// AddSoloist assigns an active user, optionally for one song of the program
func (h *Event) AddSoloist(c *gin.Context) {
	var req dto.SoloistRequest
	if !bindJSON(c, h.errs, &req) {
		return
	}
	voice, err := voiceType(req.VoiceType)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	event, ok := h.load(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := activeUser(ctx, h.db, req.UserID); err != nil {
		h.errs.HandleError(c, err)
		return
	}
	if req.SongID != nil {
		if _, err := h.db.GetSong(ctx, *req.SongID); err != nil {
			h.errs.HandleError(c, notFound(err, "song", *req.SongID))
			return
		}
	}

	soloist := &database.Soloist{
		EventID:   event.ID,
		UserID:    req.UserID,
		SongID:    req.SongID,
		VoiceType: voice,
		Notes:     strings.TrimSpace(req.Notes),
	}
	if err := h.db.AddSoloist(ctx, soloist); err != nil {
		h.errs.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, soloist)
}

func (h *Event) RemoveSoloist(c *gin.Context) {
	soloistID, ok := paramID(c, h.errs, "soloistId")
	if !ok {
		return
	}
	event, ok := h.load(c)
	if !ok {
		return
	}
	if err := h.db.RemoveSoloist(c.Request.Context(), event.ID, soloistID); err != nil {
		h.errs.HandleError(c, notFound(err, "soloist", soloistID))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Event) respond(c *gin.Context, status int, id uint) {
	event, err := h.db.GetEvent(c.Request.Context(), id)
	if err != nil {
		h.errs.HandleError(c, notFound(err, "event", id))
		return
	}
	c.JSON(status, event)
}
