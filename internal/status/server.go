// Package status implements the fiber-based status/metrics HTTP surface
// of SPEC_FULL.md §6: the address in config key server.status_addr
// serves JSON status, Prometheus-format metrics, resource reports, and a
// WebSocket feed of the process's log records, adapted from the teacher's
// internal/api route layout.
package status

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/edgeflow/ledcore/internal/health"
	"github.com/edgeflow/ledcore/internal/metrics"
	"github.com/edgeflow/ledcore/internal/resources"
	ledcorews "github.com/edgeflow/ledcore/internal/websocket"
)

// Server exposes the process's observability surface over HTTP.
type Server struct {
	app     *fiber.App
	metrics *metrics.Metrics
	health  *health.HealthChecker
	monitor *resources.Monitor
	hub     *ledcorews.Hub
}

// New constructs the fiber app and registers every route. Call Listen to
// start serving.
func New(m *metrics.Metrics, hc *health.HealthChecker, monitor *resources.Monitor, hub *ledcorews.Hub) *Server {
	app := fiber.New(fiber.Config{AppName: "ledcore"})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET",
	}))
	app.Use(metrics.MetricsMiddleware(m))

	s := &Server{app: app, metrics: m, health: hc, monitor: monitor, hub: hub}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.app.Get("/api/health", s.handleHealth)
	s.app.Get("/api/status", s.handleStatus)
	s.app.Get("/api/resources", s.handleResources)
	s.app.Get("/metrics", s.handleMetrics)

	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		s.hub.HandleWebSocket(c)
	}))
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	results := s.health.GetCheckResults()
	status := s.health.GetOverallStatus()
	code := fiber.StatusOK
	if status == health.StatusUnhealthy {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(results)
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.metrics.UpdateSystemMetrics()
	return c.JSON(s.metrics.Snapshot())
}

func (s *Server) handleResources(c *fiber.Ctx) error {
	return c.JSON(s.monitor.GetResourceReport())
}

func (s *Server) handleMetrics(c *fiber.Ctx) error {
	s.metrics.UpdateSystemMetrics()
	c.Set(fiber.HeaderContentType, "text/plain; version=0.0.4")
	return c.SendString(s.metrics.PrometheusFormat())
}

// Listen starts serving on addr; it blocks until the server stops.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
