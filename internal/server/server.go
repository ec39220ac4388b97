package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/harborwatch/harborwatch/config"
	"github.com/harborwatch/harborwatch/internal/httpx"
	"github.com/harborwatch/harborwatch/internal/risk"
	"github.com/harborwatch/harborwatch/internal/telemetry"
	"github.com/harborwatch/harborwatch/news/newsapi"
	"github.com/harborwatch/harborwatch/provider"
	"github.com/harborwatch/harborwatch/tools/portimage/wikipedia"
)

// Run wires the outbound clients, orchestrator and HTTP surface, then
// serves until the listener fails. All dependencies are constructed
// here once and injected; nothing is process-global.
func Run(cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	tele := telemetry.NewTelemetry(cfg.Telemetry)
	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(tele.Handler()))

	llm, err := provider.NewProvider(cfg.LLM)
	if err != nil {
		return err
	}
	httpc := httpx.NewClient(0)
	newsClient := newsapi.NewClient(cfg.Sources.NewsAPI, httpc)
	wikiClient := wikipedia.NewClient(cfg.Sources.Wikipedia, httpc)

	orchLogger := log.New(log.Writer(), "[RISK] ", log.LstdFlags)
	orch := risk.NewOrchestrator(llm, newsClient, wikiClient, orchLogger, tele)

	h := &RiskHandler{Risk: orch, Logger: baseLogger, Telemetry: tele}
	h.Register(e)

	addr := cfg.Server.Address
	if addr == "" {
		addr = ":8080"
	}
	baseLogger.Printf("listening on %s", addr)
	return e.Start(addr)
}
