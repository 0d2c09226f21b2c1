package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/amoylab/choirhub/internal/apiserver/database"
	"github.com/amoylab/choirhub/internal/common/cnst"
	"github.com/amoylab/choirhub/internal/common/errorx"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// bindJSON decodes the body into req and answers 400 on failure
func bindJSON(c *gin.Context, errs *errorx.ErrorHandler, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		errs.HandleError(c, errorx.ErrInvalidInput.WithDetail("reason", err.Error()))
		return false
	}
	return true
}

// paramID parses a positive numeric path parameter and answers 400 otherwise
func paramID(c *gin.Context, errs *errorx.ErrorHandler, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		errs.HandleError(c, errorx.ValidationError(name, "must be a positive integer"))
		return 0, false
	}
	return uint(id), true
}

// queryUint parses an optional numeric query parameter
func queryUint(c *gin.Context, name string) (*uint, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, errorx.ValidationError(name, "must be a positive integer")
	}
	id := uint(v)
	return &id, nil
}

// queryBool parses an optional boolean query parameter
func queryBool(c *gin.Context, name string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, errorx.ValidationError(name, "must be true or false")
	}
	return &v, nil
}

// voiceType normalizes an optional voice type. An empty input stays empty.
func voiceType(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	v, ok := cnst.ParseVoiceType(raw)
	if !ok {
		return "", errorx.ValidationError("voiceType", "unknown voice type "+raw).
			WithDetail("allowed", cnst.VoiceTypes)
	}
	return string(v), nil
}

func isAdmin(u *database.User) bool {
	return u != nil && u.HasAnyRole(string(cnst.RoleAdmin))
}

func isManager(u *database.User) bool {
	return u != nil && u.HasAnyRole(string(cnst.RoleAdmin), string(cnst.RoleDirector))
}

// notFound maps a missing row to a resource specific 404
func notFound(err error, resource string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorx.NotFoundError(resource, id)
	}
	return err
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
