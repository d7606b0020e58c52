package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ja-rental/service-rental/internal/common/apperror"
)

// requestIDKey mirrors middleware.RequestIDKey; duplicated to avoid an import cycle.
const requestIDKey = "request_id"

// ErrorBody is the structured failure payload.
type ErrorBody struct {
	Kind    apperror.Kind `json:"kind"`
	Message string        `json:"message"`
	Code    string        `json:"code,omitempty"`
}

// Envelope is the common JSON response shape.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
	Meta    *PageMeta   `json:"meta,omitempty"`
}

// PageMeta describes a paginated listing.
type PageMeta struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// Success writes 200 with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes 201 with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// NoContent writes 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Paginated writes 200 with items and page metadata.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    items,
		Meta:    &PageMeta{Total: total, Page: page, Limit: limit},
	})
}

// BadRequest writes 400 with an InvalidArgument body.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Envelope{Error: &ErrorBody{
		Kind:    apperror.KindInvalidArgument,
		Message: message,
		Code:    "INVALID_ARGUMENT",
	}})
}

// Unauthorized writes 401.
func Unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Envelope{Error: &ErrorBody{
		Kind:    apperror.KindUnauthorized,
		Message: message,
		Code:    "UNAUTHORIZED",
	}})
}

// Forbidden writes 403.
func Forbidden(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusForbidden, Envelope{Error: &ErrorBody{
		Kind:    apperror.KindForbidden,
		Message: message,
		Code:    "FORBIDDEN",
	}})
}

// Error maps err to a status and a structured body. Errors without a kind are
// reported as a generic internal failure; the request ID is the diagnostic code.
func Error(c *gin.Context, err error) {
	appErr, ok := apperror.As(err)
	if !ok {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, Envelope{Error: &ErrorBody{
			Kind:    apperror.KindInternal,
			Message: "internal server error",
			Code:    c.GetString(requestIDKey),
		}})
		return
	}

	c.JSON(StatusFor(appErr.Kind), Envelope{Error: &ErrorBody{
		Kind:    appErr.Kind,
		Message: appErr.Message,
		Code:    appErr.Code,
	}})
}

// StatusFor returns the HTTP status used for an error kind.
func StatusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindForbidden:
		return http.StatusForbidden
	case apperror.KindUnauthorized:
		return http.StatusUnauthorized
	case apperror.KindInvalidState, apperror.KindConflict:
		return http.StatusConflict
	case apperror.KindInvalidArgument:
		return http.StatusBadRequest
	case apperror.KindDependencyFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
