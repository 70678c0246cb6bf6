// Package web serves the browser UI and relays its socket.io events to a
// running simulation.
package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/zishang520/socket.io/v2/socket"
	"golang.org/x/sync/errgroup"

	"github.com/sheikhrachel/lifegrid/driver"
)

//go:embed static
var staticFiles embed.FS

const shutdownTimeout = 5 * time.Second

// Controller is the part of the simulation the browser can drive.
type Controller interface {
	Start()
	Stop()
	Randomize()
	Clear()
	Toggle(row, col int) error
	Snapshot() driver.Frame
}

// Server hosts the page, the socket.io endpoint and a health check.
type Server struct {
	addr   string
	logger *slog.Logger
	io     *socket.Server

	mu   sync.RWMutex
	ctrl Controller
}

// NewServer creates a server that will listen on addr once served.
func NewServer(addr string, logger *slog.Logger) *Server {
	s := &Server{
		addr:   addr,
		logger: logger.With("component", "web"),
		io:     socket.NewServer(nil, nil),
	}
	s.io.On("connection", s.onConnection)
	return s
}

// Bind attaches the controller that client events are forwarded to.
func (s *Server) Bind(ctrl Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctrl = ctrl
}

func (s *Server) controller() Controller {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctrl
}

// Broadcast sends a frame to every connected browser. It has the shape of a
// driver.RenderFunc.
func (s *Server) Broadcast(f driver.Frame) {
	s.io.Emit(eventGrid, newGridMessage(f))
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(fmt.Errorf("embedded static files missing: %w", err))
	}

	mux := http.NewServeMux()
	mux.Handle("/socket.io/", s.io.ServeHandler(nil))
	mux.HandleFunc("/health", s.healthHandler)
	mux.Handle("/", http.FileServerFS(static))
	return mux
}

// healthHandler answers liveness probes.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// ListenAndServe listens on the configured address and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.Wrapf(err, "[ListenAndServe] failed to listen on %s", s.addr)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		s.logger.Info("🌐 Web UI listening", "address", fmt.Sprintf("http://%s/", ln.Addr()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "[Serve] http server failed")
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		s.logger.Info("Shutting down web UI...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.io.Close(nil)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "[Serve] shutdown failed")
		}
		s.logger.Debug("Web UI shut down gracefully.")
		return nil
	})
	return eg.Wait()
}

func (s *Server) onConnection(clients ...any) {
	client, ok := clients[0].(*socket.Socket)
	if !ok {
		return
	}
	logger := s.logger.With("sid", client.Id())
	logger.Info("Browser connected")

	client.On(eventStart, s.listener(logger, eventStart))
	client.On(eventStop, s.listener(logger, eventStop))
	client.On(eventRandomize, s.listener(logger, eventRandomize))
	client.On(eventClear, s.listener(logger, eventClear))
	client.On(eventToggle, s.listener(logger, eventToggle))
	client.On("disconnect", func(reason ...any) {
		logger.Info("Browser disconnected", "reason", fmt.Sprint(reason...))
	})

	if ctrl := s.controller(); ctrl != nil {
		client.Emit(eventGrid, newGridMessage(ctrl.Snapshot()))
	}
}

func (s *Server) listener(logger *slog.Logger, event string) func(...any) {
	return func(args ...any) {
		logger.Debug("Event received", "event", event)
		if err := s.handle(event, args...); err != nil {
			logger.Warn("Event rejected", "event", event, "error", err)
		}
	}
}

// handle applies one client event to the bound controller.
func (s *Server) handle(event string, args ...any) error {
	ctrl := s.controller()
	if ctrl == nil {
		return ErrNotBound
	}

	switch event {
	case eventStart:
		ctrl.Start()
	case eventStop:
		ctrl.Stop()
	case eventRandomize:
		ctrl.Randomize()
	case eventClear:
		ctrl.Clear()
	case eventToggle:
		row, col, err := parseCell(args)
		if err != nil {
			return err
		}
		return ctrl.Toggle(row, col)
	default:
		return errors.Wrapf(ErrUnknownEvent, "[handle] %q", event)
	}
	return nil
}
