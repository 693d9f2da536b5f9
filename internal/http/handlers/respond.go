package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/bloghub/internal/apperr"
	"github.com/gin-gonic/gin"
)

// failure envelope; success responses are {success:true, data, ...}
type APIError struct {
	Success   bool        `json:"success"`
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get("request_id")

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondData(ctx *gin.Context, status int, data interface{}) {
	ctx.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, APIError{
		Success:   false,
		Code:      code,
		Message:   message,
		RequestID: requestIDFrom(ctx),
		Details:   details,
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, apperr.KindValidation.String(), message, details)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, apperr.KindStore.String(), message, nil)
}

// statusFor maps the error taxonomy onto HTTP. Conflicts are 400 to match
// the documented API surface.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindConflict:
		return http.StatusBadRequest
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// RespondAppError writes err as an envelope. Store failures are logged with
// their cause; the client only sees the message.
func RespondAppError(ctx *gin.Context, err error) {
	kind := apperr.KindOf(err)

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = &apperr.Error{Kind: apperr.KindStore, Message: "Internal server error", Err: err}
	}

	if kind == apperr.KindStore {
		slog.ErrorContext(ctx.Request.Context(), "request failed",
			"request_id", requestIDFrom(ctx),
			"route", ctx.FullPath(),
			"err", err,
		)
	}

	RespondError(ctx, statusFor(kind), kind.String(), appErr.Message, nil)
}
