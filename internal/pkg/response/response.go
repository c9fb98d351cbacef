// Package response writes the JSON envelopes every handler returns.
package response

import (
	"errors"
	"net/http"
	"reflect"

	"github.com/dealdesk/core/internal/pkg/apperr"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pagination metadata returned with paginated responses.
type Pagination struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	TotalPage   int   `json:"total_page"`
	Size        int   `json:"size"`
	HasNextPage bool  `json:"has_next_page"`
}

type pagedResponse struct {
	Data       any        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// errorBody is the shape of every non-2xx response. Code is stable and
// machine-readable; Message is for humans.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OK sends a 200 response. Slices are wrapped in {data: [...]}.
func OK(c *gin.Context, data any) {
	if data != nil && reflect.ValueOf(data).Kind() == reflect.Slice {
		c.JSON(http.StatusOK, gin.H{"data": data})
		return
	}
	c.JSON(http.StatusOK, data)
}

func Paged(c *gin.Context, data any, pagination Pagination) {
	c.JSON(http.StatusOK, pagedResponse{Data: data, Pagination: pagination})
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorBody{Code: code, Message: message})
}

func BadRequest(c *gin.Context, message string) {
	abort(c, http.StatusBadRequest, "validation", message)
}

func Unauthorized(c *gin.Context) {
	abort(c, http.StatusUnauthorized, "unauthorized", "authentication required")
}

// NotFound answers unmatched routes; resource lookups go through Error.
func NotFound(c *gin.Context) {
	abort(c, http.StatusNotFound, "not_found", "route not found")
}

func MethodNotAllowed(c *gin.Context) {
	abort(c, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
}

func TooManyRequests(c *gin.Context) {
	abort(c, http.StatusTooManyRequests, "rate_limited", "too many requests")
}

// InternalError sends an opaque 500. The cause is logged, never returned to
// the caller.
func InternalError(c *gin.Context, log *zap.Logger, err error) {
	if log != nil {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
	}
	abort(c, http.StatusInternalServerError, "internal", "internal server error")
}

var kinds = []struct {
	kind   error
	status int
	code   string
}{
	{apperr.ErrNotFound, http.StatusNotFound, "not_found"},
	{apperr.ErrConflict, http.StatusConflict, "conflict"},
	{apperr.ErrGone, http.StatusGone, "gone"},
	{apperr.ErrValidation, http.StatusBadRequest, "validation"},
}

// Error maps a service error to its status. Expected kinds keep their
// message; anything else becomes an InternalError.
func Error(c *gin.Context, log *zap.Logger, err error) {
	for _, k := range kinds {
		if !errors.Is(err, k.kind) {
			continue
		}
		message := err.Error()
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			message = appErr.Message
		}
		abort(c, k.status, k.code, message)
		return
	}
	InternalError(c, log, err)
}
