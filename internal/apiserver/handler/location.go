package handler

import (
	"net/http"
	"strings"

	"github.com/amoylab/choirhub/internal/apiserver/cache"
	"github.com/amoylab/choirhub/internal/apiserver/database"
	"github.com/amoylab/choirhub/internal/common/dto"
	"github.com/amoylab/choirhub/internal/common/errorx"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Location struct {
	db     database.Database
	stats  *cache.StatsCache
	errs   *errorx.ErrorHandler
	logger *zap.Logger
}

func NewLocation(db database.Database, stats *cache.StatsCache, errs *errorx.ErrorHandler, logger *zap.Logger) *Location {
	return &Location{
		db:     db,
		stats:  stats,
		errs:   errs,
		logger: logger.Named("handler.location"),
	}
}

func (h *Location) List(c *gin.Context) {
	filter := database.LocationFilter{
		Type:   strings.TrimSpace(c.Query("type")),
		City:   strings.TrimSpace(c.Query("city")),
		Region: strings.TrimSpace(c.Query("region")),
	}
	locations, err := h.db.ListLocations(c.Request.Context(), filter)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, locations)
}

func (h *Location) Get(c *gin.Context) {
	id, ok := paramID(c, h.errs, "id")
	if !ok {
		return
	}
	location, err := h.db.GetLocation(c.Request.Context(), id)
	if err != nil {
		h.errs.HandleError(c, notFound(err, "location", id))
		return
	}
	c.JSON(http.StatusOK, location)
}

func (h *Location) Create(c *gin.Context) {
	var req dto.CreateLocationRequest
	if !bindJSON(c, h.errs, &req) {
		return
	}
	ctx := c.Request.Context()
	location := &database.Location{
		Name:     strings.TrimSpace(req.Name),
		Type:     strings.TrimSpace(req.Type),
		Address:  strings.TrimSpace(req.Address),
		City:     strings.TrimSpace(req.City),
		Region:   strings.TrimSpace(req.Region),
		Country:  strings.TrimSpace(req.Country),
		IsActive: true,
	}
	if err := h.db.CreateLocation(ctx, location); err != nil {
		h.errs.HandleError(c, err)
		return
	}
	h.stats.Invalidate(ctx)
	c.JSON(http.StatusCreated, location)
}

func (h *Location) Update(c *gin.Context) {
	id, ok := paramID(c, h.errs, "id")
	if !ok {
		return
	}
	var req dto.UpdateLocationRequest
	if !bindJSON(c, h.errs, &req) {
		return
	}
	ctx := c.Request.Context()
	location, err := h.db.GetLocation(ctx, id)
	if err != nil {
		h.errs.HandleError(c, notFound(err, "location", id))
		return
	}

	for dst, src := range map[*string]*string{
		&location.Name:    req.Name,
		&location.Type:    req.Type,
		&location.Address: req.Address,
		&location.City:    req.City,
		&location.Region:  req.Region,
		&location.Country: req.Country,
	} {
		if v := trimPtr(src); v != nil {
			*dst = *v
		}
	}

	if err := h.db.UpdateLocation(ctx, location); err != nil {
		h.errs.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, location)
}

func (h *Location) Delete(c *gin.Context) {
	id, ok := paramID(c, h.errs, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.db.DeactivateLocation(ctx, id); err != nil {
		h.errs.HandleError(c, notFound(err, "location", id))
		return
	}
	h.stats.Invalidate(ctx)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
