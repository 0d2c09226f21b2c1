package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/amoylab/choirhub/internal/apiserver/cache"
	"github.com/amoylab/choirhub/internal/apiserver/database"
	"github.com/amoylab/choirhub/internal/apiserver/middleware"
	"github.com/amoylab/choirhub/internal/apiserver/scheduler"
	"github.com/amoylab/choirhub/internal/apiserver/upload"
	"github.com/amoylab/choirhub/internal/common/cnst"
	"github.com/amoylab/choirhub/internal/common/dto"
	"github.com/amoylab/choirhub/internal/common/errorx"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// folders younger than this may belong to an upload still in flight
const defaultOrphanMinAge = time.Hour

type Admin struct {
	db     database.Database
	store  *upload.Store
	stats  *cache.StatsCache
	errs   *errorx.ErrorHandler
	logger *zap.Logger
	now    func() time.Time

	reconciler *scheduler.Reconciler
}

func NewAdmin(db database.Database, store *upload.Store, stats *cache.StatsCache, errs *errorx.ErrorHandler, logger *zap.Logger) *Admin {
	return &Admin{
		db:     db,
		store:  store,
		stats:  stats,
		errs:   errs,
		logger: logger.Named("handler.admin"),
		now:    time.Now,
	}
}

// Users lists every account, active or not, with the user list filters
func (h *Admin) Users(c *gin.Context) {
	filter, err := userFilter(c)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	users, err := h.db.ListUsers(c.Request.Context(), filter)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Admin) Roles(c *gin.Context) {
	roles, err := h.db.ListRoles(c.Request.Context())
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, roles)
}

// UpdateRoles replaces the role set of a user. The set cannot be empty.
func (h *Admin) UpdateRoles(c *gin.Context) {
	id, ok := paramID(c, h.errs, "id")
	if !ok {
		return
	}
	var req dto.UpdateRolesRequest
	if !bindJSON(c, h.errs, &req) {
		return
	}

	names := make([]string, 0, len(req.Roles))
	seen := make(map[string]bool, len(req.Roles))
	for _, r := range req.Roles {
		r = strings.ToLower(strings.TrimSpace(r))
		if !cnst.ValidRole(r) {
			h.errs.HandleError(c, errorx.ValidationError("roles", "unknown role "+r))
			return
		}
		if !seen[r] {
			seen[r] = true
			names = append(names, r)
		}
	}
	current := middleware.CurrentUser(c)
	if current.ID == id && !seen[string(cnst.RoleAdmin)] {
		h.errs.HandleError(c, errorx.ErrForbidden.WithDetail("reason", "cannot remove your own admin role"))
		return
	}

	ctx := c.Request.Context()
	var updated *database.User
	err := h.db.Transaction(ctx, func(ctx context.Context) error {
		if _, err := h.db.GetUserByID(ctx, id); err != nil {
			return notFound(err, "user", id)
		}
		roles, err := h.db.GetRolesByNames(ctx, names)
		if err != nil {
			return err
		}
		if len(roles) != len(names) {
			return errorx.ErrInternalServer.WithDetail("reason", "role table is not seeded")
		}
		if err := h.db.ReplaceUserRoles(ctx, id, roles); err != nil {
			return err
		}
		updated, err = h.db.GetUserByID(ctx, id)
		return err
	})
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	h.logger.Info("user roles replaced",
		zap.Uint("user_id", id),
		zap.Strings("roles", names),
		zap.Uint("by", current.ID))
	c.JSON(http.StatusOK, updated)
}

// UpdateStatus activates or deactivates an account
func (h *Admin) UpdateStatus(c *gin.Context) {
	id, ok := paramID(c, h.errs, "id")
	if !ok {
		return
	}
	var req dto.UpdateStatusRequest
	if !bindJSON(c, h.errs, &req) {
		return
	}
	current := middleware.CurrentUser(c)
	if current.ID == id && !*req.IsActive {
		h.errs.HandleError(c, errorx.ErrForbidden.WithDetail("reason", "cannot deactivate your own account"))
		return
	}

	ctx := c.Request.Context()
	if err := h.db.SetUserActive(ctx, id, *req.IsActive); err != nil {
		h.errs.HandleError(c, notFound(err, "user", id))
		return
	}
	user, err := h.db.GetUserByID(ctx, id)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	h.stats.Invalidate(ctx)
	h.logger.Info("user status changed",
		zap.Uint("user_id", id),
		zap.Bool("active", *req.IsActive),
		zap.Uint("by", current.ID))
	c.JSON(http.StatusOK, user)
}

func (h *Admin) reconcile(c *gin.Context, remove bool) {
	minAge := defaultOrphanMinAge
	if raw := strings.TrimSpace(c.Query("minAge")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			h.errs.HandleError(c, errorx.ValidationError("minAge", "expected a non-negative duration such as 30m"))
			return
		}
		minAge = d
	}

	result, err := upload.Reconcile(c.Request.Context(), h.store, h.db, upload.ReconcileOptions{
		Remove: remove,
		MinAge: minAge,
		Now:    h.now(),
	}, h.logger)
	if err != nil {
		h.errs.HandleError(c, errorx.StorageError(err))
		return
	}
	c.JSON(http.StatusOK, result)
}

// Orphans lists upload folders no song row references
func (h *Admin) Orphans(c *gin.Context) {
	h.reconcile(c, false)
}

// Reconcile deletes upload folders no song row references
func (h *Admin) Reconcile(c *gin.Context) {
	h.reconcile(c, true)
}

// Schedule reports the periodic reconcile state
func (h *Admin) Schedule(c *gin.Context) {
	if h.reconciler == nil {
		c.JSON(http.StatusOK, scheduler.Status{})
		return
	}
	c.JSON(http.StatusOK, h.reconciler.Status())
}
