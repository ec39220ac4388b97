package server

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/harborwatch/harborwatch/internal/risk"
	"github.com/harborwatch/harborwatch/internal/telemetry"
	"github.com/harborwatch/harborwatch/models"
)

// Assessor is the slice of the risk orchestrator the HTTP layer needs,
// kept narrow so handler tests can substitute a stub.
type Assessor interface {
	Assess(ctx context.Context, route string) (*models.AssessmentResponse, error)
	Chat(ctx context.Context, req risk.ChatRequest) (string, error)
}

type RiskHandler struct {
	Risk      Assessor
	Logger    *log.Logger
	Telemetry *telemetry.Telemetry
}

func (h *RiskHandler) Register(e *echo.Echo) {
	e.POST("/assess", h.assess)
	e.POST("/chat", h.chat)
}

func (h *RiskHandler) assess(c echo.Context) error {
	start := time.Now()
	var req assessRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Route) == "" {
		h.Telemetry.ObserveRequest("assess", "bad_request", time.Since(start))
		return echo.NewHTTPError(http.StatusBadRequest, "No route provided")
	}

	resp, err := h.Risk.Assess(c.Request().Context(), req.Route)
	if err != nil {
		h.Logger.Printf("assess %q failed: %v", req.Route, err)
		h.Telemetry.ObserveRequest("assess", "error", time.Since(start))
		return echo.NewHTTPError(http.StatusInternalServerError, "Something went wrong")
	}
	h.Telemetry.ObserveRequest("assess", "ok", time.Since(start))
	return c.JSON(http.StatusOK, resp)
}

func (h *RiskHandler) chat(c echo.Context) error {
	start := time.Now()
	var req chatRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.UserMessage) == "" {
		h.Telemetry.ObserveRequest("chat", "bad_request", time.Since(start))
		return echo.NewHTTPError(http.StatusBadRequest, "No message provided")
	}

	reply, err := h.Risk.Chat(c.Request().Context(), risk.ChatRequest{
		Route:       req.Route,
		Assessment:  req.Assessment,
		History:     req.History,
		UserMessage: req.UserMessage,
	})
	if err != nil {
		h.Logger.Printf("chat on %q failed: %v", req.Route, err)
		h.Telemetry.ObserveRequest("chat", "error", time.Since(start))
		return echo.NewHTTPError(http.StatusInternalServerError, "Something went wrong")
	}
	h.Telemetry.ObserveRequest("chat", "ok", time.Since(start))
	return c.JSON(http.StatusOK, chatResponse{Reply: reply})
}
