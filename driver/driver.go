// Package driver runs a grid through generations on a fixed delay and lets
// callers start, stop, reset and edit it while it runs.
package driver

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/sheikhrachel/lifegrid/model"
)

// DefaultDelay is the pause between two generations while running.
const DefaultDelay = 400 * time.Millisecond

// State is the scheduling state of a Driver.
type State int

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// Frame is what a RenderFunc receives after every change.
type Frame struct {
	Grid       *model.Grid
	Generation int
	State      State
}

// RenderFunc draws a frame. Calls are serialized and arrive in mutation
// order. A RenderFunc must not call back into the Driver.
type RenderFunc func(Frame)

// Options configures a Driver. Zero values fall back to the defaults.
type Options struct {
	Rows      int
	Cols      int
	Delay     time.Duration
	Threshold float64
	Rand      *rand.Rand
	Logger    *slog.Logger
}

// Driver owns the current grid and the Stopped/Running state machine.
type Driver struct {
	rows      int
	cols      int
	delay     time.Duration
	threshold float64
	rng       *rand.Rand
	render    RenderFunc
	logger    *slog.Logger

	mu         sync.Mutex
	grid       *model.Grid
	generation int
	state      State
	epoch      uint64
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// New creates a stopped Driver holding an empty grid. render may be nil.
func New(opts Options, render RenderFunc) *Driver {
	if opts.Rows <= 0 {
		opts.Rows = model.DefaultRows
	}
	if opts.Cols <= 0 {
		opts.Cols = model.DefaultCols
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if render == nil {
		render = func(Frame) {}
	}

	return &Driver{
		rows:      opts.Rows,
		cols:      opts.Cols,
		delay:     opts.Delay,
		threshold: opts.Threshold,
		rng:       opts.Rand,
		render:    render,
		logger:    opts.Logger.With("component", "driver"),
		grid:      model.NewEmptyGrid(opts.Rows, opts.Cols),
		state:     Stopped,
	}
}

// Start switches to Running. The first generation is computed before Start
// returns and the following ones after every delay. Starting a running driver
// is a no-op.
func (d *Driver) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == Running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.state = Running
	d.epoch++
	d.cancel = cancel

	d.logger.Debug("Simulation started.", "generation", d.generation)
	d.stepLocked()

	d.wg.Add(1)
	go d.loop(ctx, d.epoch)
}

// Stop switches to Stopped. A generation that is already scheduled will see
// the new state and not run.
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == Stopped {
		return
	}

	d.state = Stopped
	d.cancel()
	d.cancel = nil

	d.logger.Debug("Simulation stopped.", "generation", d.generation)
	d.renderLocked()
}

// Close stops the driver and waits for its scheduling goroutine to exit.
func (d *Driver) Close() {
	d.Stop()
	d.wg.Wait()
}

// Randomize replaces the grid with a freshly built random grid.
func (d *Driver) Randomize() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.grid = model.NewRandomGrid(d.rows, d.cols, d.threshold, d.rng)
	d.generation = 0

	d.logger.Debug("Grid randomized.", "alive", d.grid.CountAlive())
	d.renderLocked()
}

// Clear replaces the grid with an empty one.
func (d *Driver) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.grid = model.NewEmptyGrid(d.rows, d.cols)
	d.generation = 0

	d.logger.Debug("Grid cleared.")
	d.renderLocked()
}

// Toggle flips one cell. Out of bounds coordinates leave the grid untouched
// and return an error wrapping model.ErrOutOfBounds.
func (d *Driver) Toggle(row, col int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	next, err := d.grid.Toggle(row, col)
	if err != nil {
		return err
	}
	d.grid = next

	d.logger.Debug("Cell toggled.", "row", row, "col", col, "alive", next.Get(row, col) == model.Alive)
	d.renderLocked()
	return nil
}

// Snapshot returns the current frame without rendering it.
func (d *Driver) Snapshot() Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frameLocked()
}

// State returns the current scheduling state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Driver) loop(ctx context.Context, epoch uint64) {
	defer d.wg.Done()

	timer := time.NewTimer(d.delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if !d.tick(epoch) {
			return
		}
		timer.Reset(d.delay)
	}
}

// tick advances one generation if the run identified by epoch is still the
// active one, and reports whether the loop should keep going.
func (d *Driver) tick(epoch uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != Running || d.epoch != epoch {
		return false
	}

	d.stepLocked()
	return true
}

func (d *Driver) stepLocked() {
	d.grid = d.grid.Step()
	d.generation++

	d.logger.Debug("Generation computed.", "generation", d.generation)
	d.renderLocked()
}

func (d *Driver) frameLocked() Frame {
	return Frame{
		Grid:       d.grid,
		Generation: d.generation,
		State:      d.state,
	}
}

func (d *Driver) renderLocked() {
	d.render(d.frameLocked())
}
