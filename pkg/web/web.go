// Package web serves the rig status over HTTP.
package web

import (
	"net/http"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/itohio/gopcr/pkg/menu"
	"github.com/itohio/gopcr/pkg/pressure"
	"github.com/itohio/gopcr/pkg/session"
	"github.com/womat/debug"
)

// VERSION holds the application version.
const (
	VERSION = "0.1.0+20261001"
	MODULE  = "gopcr"
)

// Controller is the part of the session controller exposed over HTTP.
type Controller interface {
	State() session.State
	Abort() bool
	Display() [menu.Rows]string
}

// Server wires the fiber routes to the rig state.
type Server struct {
	web     *fiber.App
	state   *pressure.Tracker
	session Controller
	started time.Time
}

// New creates the server and registers its routes.
func New(state *pressure.Tracker, ctrl Controller) *Server {
	s := &Server{
		web: fiber.New(fiber.Config{
			DisableStartupMessage: true,
		}),
		state:   state,
		session: ctrl,
		started: time.Now(),
	}

	s.web.Get("/status", s.HandleStatus())
	s.web.Get("/display", s.HandleDisplay())
	s.web.Post("/abort", s.HandleAbort())
	s.web.Get("/health", s.HandleHealth())
	s.web.Get("/version", s.HandleVersion())
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.web
}

// Listen serves until Shutdown is called.
func (s *Server) Listen(addr string) error {
	debug.InfoLog.Printf("web server listening on %s", addr)
	return s.web.Listen(addr)
}

// Shutdown stops the server.
func (s *Server) Shutdown() error {
	return s.web.Shutdown()
}

// Status is the body of GET /status.
type Status struct {
	pressure.Snapshot
	Deviation string `json:"deviation"`
	Kind      string `json:"kind"`
	Channel   string `json:"channel"`
	Session   string `json:"session"`
}

// HandleStatus returns the current pressure state.
func (s *Server) HandleStatus() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		debug.DebugLog.Print("web request status")

		snap := s.state.Snapshot()
		st := Status{
			Snapshot:  snap,
			Deviation: snap.DeviationText(),
			Kind:      snap.Kind.String(),
			Channel:   snap.Channel.String(),
		}
		if s.session != nil {
			st.Session = s.session.State().String()
		}

		ctx.Status(http.StatusOK)
		return ctx.JSON(st)
	}
}

// HandleDisplay returns the four display rows as shown on the LCD.
func (s *Server) HandleDisplay() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		debug.DebugLog.Print("web request display")

		if s.session == nil {
			return fiber.NewError(http.StatusServiceUnavailable, "no session controller")
		}
		rows := s.session.Display()
		return ctx.JSON(fiber.Map{
			"rows": rows[:],
		})
	}
}

// HandleAbort requests the running session to stop.
func (s *Server) HandleAbort() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		debug.InfoLog.Print("web request abort")

		if s.session == nil {
			return fiber.NewError(http.StatusServiceUnavailable, "no session controller")
		}
		if !s.session.Abort() {
			return fiber.NewError(http.StatusConflict, "no session to abort")
		}
		ctx.Status(http.StatusAccepted)
		return ctx.JSON(fiber.Map{
			"session": s.session.State().String(),
		})
	}
}

// HandleHealth returns data about the health of the process.
func (s *Server) HandleHealth() fiber.Handler {
	host, _ := os.Hostname()

	return func(ctx *fiber.Ctx) error {
		debug.InfoLog.Print("web request health")

		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		healthData := struct {
			NumGoroutines      int
			HeapAllocatedBytes uint64
			SysMemoryBytes     uint64
			Uptime             string
			Version            string
			ProgLang           string
			HostName           string
			Time               string
		}{
			NumGoroutines:      runtime.NumGoroutine(),
			HeapAllocatedBytes: m.Alloc,
			SysMemoryBytes:     m.Sys,
			Uptime:             time.Since(s.started).Round(time.Second).String(),
			Version:            VERSION,
			ProgLang:           runtime.Version(),
			HostName:           host,
			Time:               time.Now().Format(time.RFC3339),
		}
		ctx.Status(http.StatusOK)
		return ctx.JSON(healthData)
	}
}

// HandleVersion is the get application version web handler.
func (s *Server) HandleVersion() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		debug.InfoLog.Print("web request version")

		return ctx.JSON(fiber.Map{
			"version":     VERSION,
			"description": MODULE,
			"about":       Version(),
		})
	}
}

// Version is the application version as string.
func Version() string {
	return strings.TrimSpace(MODULE + " V" + strings.Split(VERSION, "+")[0])
}
