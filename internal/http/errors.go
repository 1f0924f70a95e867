package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/jipange/internal/assistant"
	"github.com/fyrsmithlabs/jipange/internal/llm"
	"github.com/fyrsmithlabs/jipange/internal/logging"
	"github.com/fyrsmithlabs/jipange/internal/pipeline"
	"github.com/fyrsmithlabs/jipange/internal/task"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// toHTTPError maps a service error to a status. prefix is prepended to the
// message of unexpected errors ("Task update failed: ...").
func toHTTPError(err error, prefix string) *echo.HTTPError {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he
	case errors.Is(err, pipeline.ErrTranscriptTooShort):
		return echo.NewHTTPError(http.StatusBadRequest, "Audio transcription failed or too short")
	case errors.Is(err, pipeline.ErrAudioTooSmall):
		return echo.NewHTTPError(http.StatusBadRequest, "Audio data too small")
	case errors.Is(err, pipeline.ErrInvalidInput),
		errors.Is(err, assistant.ErrInvalidInput),
		errors.Is(err, task.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, task.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Task not found")
	case errors.Is(err, llm.ErrUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, prefix+": "+err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, prefix+": "+err.Error()).SetInternal(err)
	}
}

// errorHandler writes {"detail": ...} bodies.
func errorHandler(e *echo.Echo, logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		he := toHTTPError(err, "Request failed")
		detail, ok := he.Message.(string)
		if !ok {
			detail = http.StatusText(he.Code)
		}
		if he.Code >= http.StatusInternalServerError {
			logging.For(c.Request().Context(), logger).Error("request failed",
				zap.String("path", c.Path()),
				zap.Error(err))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(he.Code)
		} else {
			err = c.JSON(he.Code, ErrorResponse{Detail: detail})
		}
		if err != nil && e.Debug {
			logger.Debug("failed to write error response", zap.Error(err))
		}
	}
}
