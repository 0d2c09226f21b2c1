package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/amoylab/choirhub/internal/apiserver/cache"
	"github.com/amoylab/choirhub/internal/apiserver/database"
	"github.com/amoylab/choirhub/internal/apiserver/middleware"
	"github.com/amoylab/choirhub/internal/auth"
	"github.com/amoylab/choirhub/internal/auth/jwt"
	"github.com/amoylab/choirhub/internal/common/cnst"
	"github.com/amoylab/choirhub/internal/common/dto"
	"github.com/amoylab/choirhub/internal/common/errorx"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Auth serves registration, login and token checks
type Auth struct {
	db         database.Database
	jwtService *jwt.Service
	stats      *cache.StatsCache
	errs       *errorx.ErrorHandler
	logger     *zap.Logger
	now        func() time.Time
}

func NewAuth(db database.Database, jwtService *jwt.Service, stats *cache.StatsCache, errs *errorx.ErrorHandler, logger *zap.Logger) *Auth {
	return &Auth{
		db:         db,
		jwtService: jwtService,
		stats:      stats,
		errs:       errs,
		logger:     logger.Named("handler.auth"),
		now:        time.Now,
	}
}

func (h *Auth) issue(c *gin.Context, status int, user *database.User) {
	token, err := h.jwtService.GenerateToken(user.ID, user.Username, user.RoleNames())
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	c.JSON(status, gin.H{
		"token":     token,
		"expiresAt": h.now().Add(h.jwtService.Duration()).UTC(),
		"user":      user,
	})
}

// Register creates an account holding the member role
func (h *Auth) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, h.errs, &req) {
		return
	}
	ctx := c.Request.Context()
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)

	exists, err := h.db.UserExists(ctx, email, username, 0)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	if exists {
		h.errs.HandleError(c, errorx.ConflictError("user", "email_or_username", username))
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		h.errs.HandleError(c, errorx.ValidationError("password", err.Error()))
		return
	}

	user := &database.User{
		Email:      email,
		Username:   username,
		Password:   hashed,
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		Phone:      strings.TrimSpace(req.Phone),
		LocationID: req.LocationID,
		IsActive:   true,
	}
	err = h.db.Transaction(ctx, func(ctx context.Context) error {
		if user.LocationID != nil {
			if _, err := h.db.GetLocation(ctx, *user.LocationID); err != nil {
				return notFound(err, "location", *user.LocationID)
			}
		}
		roles, err := h.db.GetRolesByNames(ctx, []string{string(cnst.RoleMember)})
		if err != nil {
			return err
		}
		if len(roles) == 0 {
			return errorx.ErrInternalServer.WithDetail("reason", "member role is not seeded")
		}
		user.Roles = roles
		return h.db.CreateUser(ctx, user)
	})
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}

	created, err := h.db.GetUserByID(ctx, user.ID)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	h.stats.Invalidate(ctx)
	h.logger.Info("user registered", zap.Uint("user_id", created.ID), zap.String("username", created.Username))
	h.issue(c, http.StatusCreated, created)
}

// Login accepts the email or the username with the password
func (h *Auth) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, h.errs, &req) {
		return
	}
	login := req.Identifier()
	if login == "" {
		h.errs.HandleError(c, errorx.MissingField("login"))
		return
	}
	ctx := c.Request.Context()

	user, err := h.db.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.errs.HandleError(c, errorx.ErrInvalidCredentials)
			return
		}
		h.errs.HandleError(c, err)
		return
	}
	if !auth.CheckPassword(user.Password, req.Password) {
		h.errs.HandleError(c, errorx.ErrInvalidCredentials)
		return
	}
	if !user.IsActive {
		h.errs.HandleError(c, errorx.ErrAccountDisabled)
		return
	}

	now := h.now()
	if err := h.db.TouchLastLogin(ctx, user.ID, now); err != nil {
		h.logger.Warn("failed to record last login", zap.Uint("user_id", user.ID), zap.Error(err))
	} else {
		user.LastLoginAt = &now
	}
	h.issue(c, http.StatusOK, user)
}

// Verify reports the user the bearer token belongs to
func (h *Auth) Verify(c *gin.Context) {
	user := middleware.CurrentUser(c)
	claims := middleware.Claims(c)
	resp := gin.H{"valid": true, "user": user}
	if claims != nil && claims.ExpiresAt != nil {
		resp["expiresAt"] = claims.ExpiresAt.Time.UTC()
	}
	c.JSON(http.StatusOK, resp)
}

// ChangePassword replaces the password of the current user
func (h *Auth) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if !bindJSON(c, h.errs, &req) {
		return
	}
	user := middleware.CurrentUser(c)
	if !auth.CheckPassword(user.Password, req.CurrentPassword) {
		h.errs.HandleError(c, errorx.ErrInvalidCredentials.WithDetail("field", "currentPassword"))
		return
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		h.errs.HandleError(c, errorx.ValidationError("newPassword", err.Error()))
		return
	}
	user.Password = hashed
	if err := h.db.UpdateUser(c.Request.Context(), user); err != nil {
		h.errs.HandleError(c, err)
		return
	}

	h.logger.Info("password changed", zap.Uint("user_id", user.ID))
	c.JSON(http.StatusOK, gin.H{"success": true})
}
