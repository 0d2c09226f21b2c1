package errorx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/amoylab/choirhub/internal/common/cnst"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Translator resolves a message id for a language
type Translator interface {
	Translate(msgID string, lang string, data map[string]any) string
}

// ErrorHandler provides unified error handling capabilities
type ErrorHandler struct {
	logger     *zap.Logger
	translator Translator
}

// NewErrorHandler creates a new error handler. translator may be nil.
func NewErrorHandler(logger *zap.Logger, translator Translator) *ErrorHandler {
	return &ErrorHandler{
		logger:     logger,
		translator: translator,
	}
}

// HandleError converts any error to APIError, writes the response and aborts the chain
func (h *ErrorHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	apiErr := ConvertToAPIError(err).clone()
	apiErr.TraceID = ExtractTraceID(c)
	apiErr.Timestamp = time.Now().UTC().Format(time.RFC3339)

	h.logError(c, apiErr, err)

	if h.translator != nil && !apiErr.custom {
		lang := c.GetString(cnst.XLang)
		if msg := h.translator.Translate(apiErr.Code, lang, apiErr.Details); msg != "" && msg != apiErr.Code {
			apiErr.Message = msg
		}
	}

	c.AbortWithStatusJSON(apiErr.HTTPStatus, gin.H{
		"error": apiErr,
	})
}

// ConvertToAPIError converts any error to APIError
func ConvertToAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrResourceNotFound
	}

	if isDuplicateKey(err) {
		return ErrResourceExists
	}

	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return ErrPayloadTooLarge.WithDetail("limit", maxBytes.Limit)
	}

	return ErrInternalServer.WithDetail("original_error", err.Error())
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}

// logError logs the error with appropriate context and stack trace
func (h *ErrorHandler) logError(c *gin.Context, apiErr *APIError, originalErr error) {
	fields := []zap.Field{
		zap.String("trace_id", apiErr.TraceID),
		zap.String("error_code", apiErr.Code),
		zap.String("category", string(apiErr.Category)),
		zap.Int("http_status", apiErr.HTTPStatus),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.String("client_ip", c.ClientIP()),
	}

	if originalErr != nil && originalErr.Error() != apiErr.Error() {
		fields = append(fields, zap.Error(originalErr))
	}

	if len(apiErr.Details) > 0 {
		detailsJSON, _ := json.Marshal(apiErr.Details)
		fields = append(fields, zap.String("details", string(detailsJSON)))
	}

	switch apiErr.Severity {
	case SeverityInfo:
		h.logger.Info(apiErr.Message, fields...)
	case SeverityWarning:
		h.logger.Warn(apiErr.Message, fields...)
	case SeverityCritical:
		buf := make([]byte, 4<<10)
		n := runtime.Stack(buf, false)
		fields = append(fields, zap.String("stack_trace", string(buf[:n])))
		h.logger.Error(apiErr.Message, fields...)
	default:
		h.logger.Error(apiErr.Message, fields...)
	}
}

// RecoveryMiddleware returns a gin middleware for panic recovery
func (h *ErrorHandler) RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, err any) {
		h.HandleError(c, ErrServerPanic.WithDetail("panic", fmt.Sprintf("%v", err)))
	})
}

// NoRoute answers unknown endpoints with a structured 404
func (h *ErrorHandler) NoRoute(c *gin.Context) {
	h.HandleError(c, ErrEndpointNotFound.WithDetail("path", c.Request.URL.Path))
}

// ExtractTraceID extracts trace ID from context or request
func ExtractTraceID(c *gin.Context) string {
	if traceID := c.GetString("trace_id"); traceID != "" {
		return traceID
	}

	if traceID := c.GetHeader(cnst.XTraceID); traceID != "" {
		c.Set("trace_id", traceID)
		return traceID
	}

	traceID := uuid.New().String()
	c.Set("trace_id", traceID)
	return traceID
}
