package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/sheikhrachel/lifegrid/driver"
	"github.com/sheikhrachel/lifegrid/model"
	"github.com/sheikhrachel/lifegrid/utils"
	"github.com/sheikhrachel/lifegrid/web"
)

// driverOptions maps the configuration onto driver options
func driverOptions(config utils.Config, logger *slog.Logger) driver.Options {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return driver.Options{
		Rows:      config.Rows,
		Cols:      config.Cols,
		Delay:     config.Delay,
		Threshold: config.Threshold,
		Rand:      rand.New(rand.NewSource(seed)),
		Logger:    logger,
	}
}

// displayGameInfo logs the initial game information
func displayGameInfo(logger *slog.Logger, config utils.Config) {
	logger.Info("🚀 Starting lifegrid",
		"mode", config.Mode,
		"grid", fmt.Sprintf("%dx%d", config.Rows, config.Cols),
		"delay", config.Delay.String(),
		"random_threshold", config.Threshold,
	)
}

// runWeb serves the browser UI until ctx is done
func runWeb(ctx context.Context, config utils.Config, logger *slog.Logger) error {
	server := web.NewServer(config.Addr, logger)
	sim := driver.New(driverOptions(config, logger), server.Broadcast)
	defer sim.Close()
	server.Bind(sim)

	displayGameInfo(logger, config)
	return server.ListenAndServe(ctx)
}

// runTerminal draws a random grid on outW until ctx is done or the
// generation limit is reached
func runTerminal(ctx context.Context, config utils.Config, outW io.Writer, logger *slog.Logger) error {
	session := newTerminalSession(config, outW, logger)
	sim := driver.New(driverOptions(config, logger), session.render)
	defer sim.Close()

	displayGameInfo(logger, config)
	sim.Randomize()
	sim.Start()

	select {
	case <-ctx.Done():
		logger.Info("🛑 Shutting down gracefully...")
	case <-session.done:
		logger.Info("🏁 Reached maximum generations limit", "max_generations", config.MaxGenerations)
	}
	sim.Close()

	final := sim.Snapshot()
	logger.Info("Final stats",
		"generations", final.Generation,
		"runtime", session.stats.Runtime().Round(time.Millisecond).String(),
		"avg_population", fmt.Sprintf("%.1f", session.stats.AveragePopulation),
	)
	return session.err
}

// terminalSession renders driver frames to a terminal and tracks their stats.
// Its render method is only ever called by the driver, one frame at a time.
type terminalSession struct {
	renderer       *model.TerminalRenderer
	history        *model.History
	stats          *utils.Stats
	logger         *slog.Logger
	maxGenerations int

	lastGeneration int
	lastFrameTime  time.Time
	stagnant       bool
	err            error

	done     chan struct{}
	doneOnce sync.Once
}

func newTerminalSession(config utils.Config, outW io.Writer, logger *slog.Logger) *terminalSession {
	return &terminalSession{
		renderer:       model.NewTerminalRenderer(outW),
		history:        model.NewHistory(model.DefaultHistorySize, model.DefaultMaxPeriod),
		stats:          utils.NewStats(),
		logger:         logger.With("component", "terminal"),
		maxGenerations: config.MaxGenerations,
		lastGeneration: -1,
		lastFrameTime:  time.Now(),
		done:           make(chan struct{}),
	}
}

func (s *terminalSession) render(frame driver.Frame) {
	if frame.Generation != s.lastGeneration {
		s.updateGameState(frame)
	}

	if err := s.renderer.Clear(); err != nil {
		s.fail(err)
		return
	}
	if err := s.renderer.Display(frame.Grid, s.statusLine(frame)); err != nil {
		s.fail(err)
		return
	}

	if s.maxGenerations > 0 && frame.Generation >= s.maxGenerations {
		s.doneOnce.Do(func() { close(s.done) })
	}
}

// updateGameState records a new generation in the stats and the history
func (s *terminalSession) updateGameState(frame driver.Frame) {
	if frame.Generation == 0 {
		s.history.Reset()
	}

	now := time.Now()
	s.stats.Update(frame.Generation, frame.Grid.CountAlive(), now.Sub(s.lastFrameTime))
	s.lastFrameTime = now

	stagnant := s.history.Observe(frame.Grid)
	if stagnant && !s.stagnant {
		s.logger.Info("Grid became stagnant", "generation", frame.Generation)
	}
	s.stagnant = stagnant
	s.lastGeneration = frame.Generation
}

// statusLine shows the current game status
func (s *terminalSession) statusLine(frame driver.Frame) string {
	var (
		living  = frame.Grid.CountAlive()
		density = 0.0
	)
	if cells := frame.Grid.Rows() * frame.Grid.Cols(); cells > 0 {
		density = float64(living) / float64(cells) * 100
	}

	status := "Active"
	if s.stagnant {
		status = "Stagnant"
	}
	if living == 0 {
		status = "Extinct"
	}

	return fmt.Sprintf("Gen: %d | Living: %d | Density: %.1f%% | Status: %s | %s\n"+
		"Performance: %.1f gen/sec | Avg Pop: %.1f | Runtime: %.1fs",
		frame.Generation, living, density, status, frame.State,
		s.stats.GenerationsPerSecond, s.stats.AveragePopulation, s.stats.Runtime().Seconds())
}

func (s *terminalSession) fail(err error) {
	if s.err == nil {
		s.err = err
		s.logger.Error("Failed to draw frame", "error", err)
	}
	s.doneOnce.Do(func() { close(s.done) })
}
