package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/amoylab/choirhub/internal/apiserver/cache"
	"github.com/amoylab/choirhub/internal/apiserver/database"
	"github.com/amoylab/choirhub/internal/apiserver/middleware"
	"github.com/amoylab/choirhub/internal/common/cnst"
	"github.com/amoylab/choirhub/internal/common/dto"
	"github.com/amoylab/choirhub/internal/common/errorx"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type User struct {
	db     database.Database
	stats  *cache.StatsCache
	errs   *errorx.ErrorHandler
	logger *zap.Logger
}

func NewUser(db database.Database, stats *cache.StatsCache, errs *errorx.ErrorHandler, logger *zap.Logger) *User {
	return &User{
		db:     db,
		stats:  stats,
		errs:   errs,
		logger: logger.Named("handler.user"),
	}
}

// userFilter reads the list filters shared with the admin listing
func userFilter(c *gin.Context) (database.UserFilter, error) {
	var filter database.UserFilter
	locationID, err := queryUint(c, "locationId")
	if err != nil {
		return filter, err
	}
	active, err := queryBool(c, "active")
	if err != nil {
		return filter, err
	}
	voice, err := voiceType(c.Query("voiceType"))
	if err != nil {
		return filter, err
	}
	role := strings.TrimSpace(c.Query("role"))
	if role != "" && !cnst.ValidRole(role) {
		return filter, errorx.ValidationError("role", "unknown role "+role)
	}
	filter.LocationID = locationID
	filter.Active = active
	filter.VoiceType = voice
	filter.Role = role
	filter.Search = strings.TrimSpace(c.Query("search"))
	return filter, nil
}

// List returns users matching locationId, voiceType, role, active and search
func (h *User) List(c *gin.Context) {
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

// target loads the user named by :id when the caller is that user or
// holds one of the privileged roles
func (h *User) target(c *gin.Context, allowed func(*database.User) bool) (*database.User, bool) {
	id, ok := paramID(c, h.errs, "id")
	if !ok {
		return nil, false
	}
	current := middleware.CurrentUser(c)
	if current.ID != id && !allowed(current) {
		h.errs.HandleError(c, errorx.ErrForbidden)
		return nil, false
	}
	user, err := h.db.GetUserByID(c.Request.Context(), id)
	if err != nil {
		h.errs.HandleError(c, notFound(err, "user", id))
		return nil, false
	}
	return user, true
}

func (h *User) Get(c *gin.Context) {
	user, ok := h.target(c, isManager)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}

// Update changes profile fields of the caller, or of anyone for admins
func (h *User) Update(c *gin.Context) {
	var req dto.UpdateUserRequest
	if !bindJSON(c, h.errs, &req) {
		return
	}
	user, ok := h.target(c, isAdmin)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	email, username := user.Email, user.Username
	if req.Email != nil {
		email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Username != nil {
		username = strings.TrimSpace(*req.Username)
	}
	if email != user.Email || username != user.Username {
		exists, err := h.db.UserExists(ctx, email, username, user.ID)
		if err != nil {
			h.errs.HandleError(c, err)
			return
		}
		if exists {
			h.errs.HandleError(c, errorx.ConflictError("user", "email_or_username", username))
			return
		}
	}
	user.Email, user.Username = email, username

	if v := trimPtr(req.FirstName); v != nil {
		user.FirstName = *v
	}
	if v := trimPtr(req.LastName); v != nil {
		user.LastName = *v
	}
	if v := trimPtr(req.Phone); v != nil {
		user.Phone = *v
	}
	if req.LocationID != nil {
		if _, err := h.db.GetLocation(ctx, *req.LocationID); err != nil {
			h.errs.HandleError(c, notFound(err, "location", *req.LocationID))
			return
		}
		user.LocationID = req.LocationID
	}

	if err := h.db.UpdateUser(ctx, user); err != nil {
		h.errs.HandleError(c, err)
		return
	}
	updated, err := h.db.GetUserByID(ctx, user.ID)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete deactivates a user account. Admins cannot deactivate themselves.
func (h *User) Delete(c *gin.Context) {
	id, ok := paramID(c, h.errs, "id")
	if !ok {
		return
	}
	if middleware.CurrentUser(c).ID == id {
		h.errs.HandleError(c, errorx.ErrForbidden.WithDetail("reason", "cannot deactivate your own account"))
		return
	}
	ctx := c.Request.Context()
	if err := h.db.SetUserActive(ctx, id, false); err != nil {
		h.errs.HandleError(c, notFound(err, "user", id))
		return
	}
	h.stats.Invalidate(ctx)
	h.logger.Info("user deactivated", zap.Uint("user_id", id), zap.Uint("by", middleware.CurrentUser(c).ID))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *User) ListVoiceProfiles(c *gin.Context) {
	user, ok := h.target(c, isManager)
	if !ok {
		return
	}
	profiles, err := h.db.ListVoiceProfiles(c.Request.Context(), user.ID)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, profiles)
}

// AddVoiceProfile assigns a voice type; a user holds each voice type once
func (h *User) AddVoiceProfile(c *gin.Context) {
	var req dto.VoiceProfileRequest
	if !bindJSON(c, h.errs, &req) {
		return
	}
	voice, err := voiceType(req.VoiceType)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	user, ok := h.target(c, isManager)
	if !ok {
		return
	}

	profile := &database.VoiceProfile{UserID: user.ID, VoiceType: voice, IsPrimary: req.IsPrimary}
	if err := h.db.CreateVoiceProfile(c.Request.Context(), profile); err != nil {
		if errorx.ConvertToAPIError(err).Is(errorx.ErrResourceExists) {
			h.errs.HandleError(c, errorx.ConflictError("voice_profile", "voiceType", voice))
			return
		}
		h.errs.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, profile)
}

func (h *User) RemoveVoiceProfile(c *gin.Context) {
	voice, err := voiceType(c.Param("voiceType"))
	if err != nil || voice == "" {
		h.errs.HandleError(c, errorx.ValidationError("voiceType", "unknown voice type"))
		return
	}
	user, ok := h.target(c, isManager)
	if !ok {
		return
	}
	if err := h.db.DeleteVoiceProfile(c.Request.Context(), user.ID, voice); err != nil {
		h.errs.HandleError(c, notFound(err, "voice_profile", voice))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// activeUser loads a user that can take part in events
func activeUser(ctx context.Context, db database.Database, id uint) (*database.User, error) {
	user, err := db.GetUserByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	if !user.IsActive {
		return nil, errorx.ValidationError("userId", "user is not active")
	}
	return user, nil
}
