package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/jipange/internal/assistant"
	"github.com/fyrsmithlabs/jipange/internal/integrations"
	"github.com/fyrsmithlabs/jipange/internal/logging"
	"github.com/fyrsmithlabs/jipange/internal/pipeline"
	"github.com/fyrsmithlabs/jipange/internal/task"
)

var errBadBody = echo.NewHTTPError(http.StatusBadRequest, "invalid request body")

func (s *Server) bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		logging.For(c.Request().Context(), s.logger).Warn("invalid request body",
			zap.String("path", c.Path()),
			zap.Error(err))
		return errBadBody
	}
	return nil
}

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, RootResponse{Message: "Jipange AI Backend is running!", Version: s.config.Version})
}

func (s *Server) handleHealth(c echo.Context) error {
	resp := HealthResponse{Status: "healthy", Service: "jipange-backend"}
	if s.services.Telemetry != nil {
		h := s.services.Telemetry.Health()
		resp.Telemetry = &h
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleAsk(c echo.Context) error {
	var req assistant.Request
	if err := s.bind(c, &req); err != nil {
		return err
	}
	ctx := logging.WithUserID(c.Request().Context(), req.UserID)
	resp, err := s.services.Assistant.Ask(ctx, req)
	if err != nil {
		return toHTTPError(err, "AI request failed")
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleVoiceToTask(c echo.Context) error {
	var req pipeline.VoiceRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	ctx := logging.WithUserID(c.Request().Context(), req.UserID)
	res, err := s.services.Pipeline.ProcessVoice(ctx, req)
	if err != nil {
		return toHTTPError(err, "Voice processing failed")
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleExtract(c echo.Context) error {
	var req pipeline.TextRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	ctx := logging.WithUserID(c.Request().Context(), req.UserID)
	res, err := s.services.Pipeline.ExtractFromText(ctx, req)
	if err != nil {
		return toHTTPError(err, "Task extraction failed")
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleValidate(c echo.Context) error {
	var req pipeline.CheckRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.services.Pipeline.Check(req))
}

func (s *Server) handleCreateTask(c echo.Context) error {
	var t task.Task
	if err := s.bind(c, &t); err != nil {
		return err
	}
	created, err := s.services.Tasks.Create(c.Request().Context(), t)
	if err != nil {
		return toHTTPError(err, "Task creation failed")
	}
	return c.JSON(http.StatusOK, created)
}

func (s *Server) handleListTasks(c echo.Context) error {
	tasks, err := s.services.Tasks.ListByUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err, "Task retrieval failed")
	}
	return c.JSON(http.StatusOK, tasks)
}

func (s *Server) handleUpdateTask(c echo.Context) error {
	var u task.Update
	if err := s.bind(c, &u); err != nil {
		return err
	}
	updated, err := s.services.Tasks.Update(c.Request().Context(), c.Param("id"), u)
	if err != nil {
		return toHTTPError(err, "Task update failed")
	}
	return c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteTask(c echo.Context) error {
	if err := s.services.Tasks.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return toHTTPError(err, "Task deletion failed")
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Task deleted successfully"})
}

func (s *Server) handleGoogleWebhook(c echo.Context) error {
	status, err := s.services.Integrations.CalendarNotification(c.Request().Context(),
		c.Request().Header.Get("X-Goog-Channel-Id"),
		c.Request().Header.Get("X-Goog-Resource-State"))
	if err != nil {
		return toHTTPError(err, "Webhook processing failed")
	}
	return c.JSON(http.StatusOK, StatusResponse{Status: status})
}

func (s *Server) handleGoogleCalendar(c echo.Context) error {
	view, err := s.services.Integrations.Calendar(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err, "Calendar fetch failed")
	}
	return c.JSON(http.StatusOK, view)
}

func (s *Server) handleSlackEvents(c echo.Context) error {
	var p integrations.SlackPayload
	if err := s.bind(c, &p); err != nil {
		return err
	}
	reply, err := s.services.Integrations.SlackEvent(c.Request().Context(), p)
	if err != nil {
		return toHTTPError(err, "Slack event processing failed")
	}
	return c.JSON(http.StatusOK, reply)
}
