package driver

import (
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheikhrachel/lifegrid/model"
)

// recorder collects every frame a driver renders.
type recorder struct {
	mu     sync.Mutex
	frames []Frame
}

func (r *recorder) render(f Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
}

func (r *recorder) snapshot() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Frame(nil), r.frames...)
}

func newTestDriver(t *testing.T, delay time.Duration) (*Driver, *recorder) {
	t.Helper()
	rec := &recorder{}
	d := New(Options{
		Rows:      5,
		Cols:      5,
		Delay:     delay,
		Threshold: model.DefaultThreshold,
		Rand:      rand.New(rand.NewSource(1)),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, rec.render)
	t.Cleanup(d.Close)
	return d, rec
}

// placeBlinker draws a horizontal blinker through the center of a 5x5 grid.
func placeBlinker(t *testing.T, d *Driver) {
	t.Helper()
	for col := 1; col <= 3; col++ {
		require.NoError(t, d.Toggle(2, col))
	}
}

const (
	horizontalBlinker = ".....\n.....\n.###.\n.....\n....."
	verticalBlinker   = ".....\n..#..\n..#..\n..#..\n....."
)

func TestNew_StartsStoppedAndEmpty(t *testing.T) {
	t.Parallel()

	d, rec := newTestDriver(t, time.Hour)

	frame := d.Snapshot()
	assert.Equal(t, Stopped, d.State())
	assert.Equal(t, 0, frame.Generation)
	assert.Equal(t, 5, frame.Grid.Rows())
	assert.Equal(t, 5, frame.Grid.Cols())
	assert.Zero(t, frame.Grid.CountAlive())
	assert.Empty(t, rec.snapshot(), "construction does not render")
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	d := New(Options{}, nil)
	defer d.Close()

	frame := d.Snapshot()
	assert.Equal(t, model.DefaultRows, frame.Grid.Rows())
	assert.Equal(t, model.DefaultCols, frame.Grid.Cols())
	assert.Equal(t, DefaultDelay, d.delay)

	// a nil render func is allowed
	require.NoError(t, d.Toggle(0, 0))
}

func TestStart_StepsImmediately(t *testing.T) {
	t.Parallel()

	d, rec := newTestDriver(t, time.Hour)
	placeBlinker(t, d)

	d.Start()

	frame := d.Snapshot()
	assert.Equal(t, Running, frame.State)
	assert.Equal(t, 1, frame.Generation)
	assert.Equal(t, verticalBlinker, frame.Grid.String())

	frames := rec.snapshot()
	require.NotEmpty(t, frames)
	last := frames[len(frames)-1]
	assert.Equal(t, 1, last.Generation)
	assert.Equal(t, Running, last.State)
}

func TestStartStop_PreventsScheduledStep(t *testing.T) {
	t.Parallel()

	delay := 20 * time.Millisecond
	d, _ := newTestDriver(t, delay)
	placeBlinker(t, d)

	// --- Act ---
	d.Start()
	d.Stop()
	time.Sleep(5 * delay)

	// --- Assert ---
	frame := d.Snapshot()
	assert.Equal(t, Stopped, frame.State)
	assert.Equal(t, 1, frame.Generation, "only the step performed by Start may run")
	assert.Equal(t, verticalBlinker, frame.Grid.String())
}

func TestRunning_AdvancesUntilStopped(t *testing.T) {
	t.Parallel()

	d, rec := newTestDriver(t, 2*time.Millisecond)
	placeBlinker(t, d)

	d.Start()
	require.Eventually(t, func() bool {
		return d.Snapshot().Generation >= 5
	}, 2*time.Second, time.Millisecond)
	d.Close()

	stopped := d.Snapshot()
	time.Sleep(20 * time.Millisecond)
	after := d.Snapshot()

	assert.Equal(t, Stopped, after.State)
	assert.Equal(t, stopped.Generation, after.Generation)
	if after.Generation%2 == 0 {
		assert.Equal(t, horizontalBlinker, after.Grid.String())
	} else {
		assert.Equal(t, verticalBlinker, after.Grid.String())
	}

	// step frames arrive in order
	gen := 0
	for _, f := range rec.snapshot() {
		assert.GreaterOrEqual(t, f.Generation, gen)
		gen = f.Generation
	}
}

func TestStart_IsIdempotent(t *testing.T) {
	t.Parallel()

	d, _ := newTestDriver(t, time.Hour)

	d.Start()
	d.Start()

	assert.Equal(t, 1, d.Snapshot().Generation)
}

func TestStop_WhenStoppedIsNoop(t *testing.T) {
	t.Parallel()

	d, rec := newTestDriver(t, time.Hour)

	d.Stop()

	assert.Equal(t, Stopped, d.State())
	assert.Empty(t, rec.snapshot())
}

func TestRestart_OldLoopExits(t *testing.T) {
	t.Parallel()

	delay := 30 * time.Millisecond
	d, _ := newTestDriver(t, delay)
	placeBlinker(t, d)

	d.Start()
	d.Stop()
	d.Start()
	d.Stop()
	time.Sleep(3 * delay)

	assert.Equal(t, 2, d.Snapshot().Generation)
}

func TestToggle(t *testing.T) {
	t.Parallel()

	d, rec := newTestDriver(t, time.Hour)

	require.NoError(t, d.Toggle(1, 2))
	assert.Equal(t, model.Alive, d.Snapshot().Grid.Get(1, 2))

	require.NoError(t, d.Toggle(1, 2))
	assert.Equal(t, model.Dead, d.Snapshot().Grid.Get(1, 2))

	assert.Len(t, rec.snapshot(), 2)
}

func TestToggle_OutOfBounds(t *testing.T) {
	t.Parallel()

	d, rec := newTestDriver(t, time.Hour)

	err := d.Toggle(5, 0)

	assert.ErrorIs(t, err, model.ErrOutOfBounds)
	assert.Zero(t, d.Snapshot().Grid.CountAlive())
	assert.Empty(t, rec.snapshot(), "rejected toggles do not render")
}

func TestRandomizeAndClear(t *testing.T) {
	t.Parallel()

	d, rec := newTestDriver(t, time.Hour)
	d.threshold = 0 // every draw above zero is alive

	d.Start()
	d.Randomize()

	frame := d.Snapshot()
	assert.Equal(t, Running, frame.State, "resets are allowed while running")
	assert.Equal(t, 0, frame.Generation)
	assert.Positive(t, frame.Grid.CountAlive())

	d.Clear()

	frame = d.Snapshot()
	assert.Equal(t, 0, frame.Generation)
	assert.Zero(t, frame.Grid.CountAlive())
	assert.Equal(t, 5, frame.Grid.Rows())

	frames := rec.snapshot()
	require.Len(t, frames, 3)
	assert.Zero(t, frames[2].Grid.CountAlive())
}

func TestFrames_AreIndependent(t *testing.T) {
	t.Parallel()

	d, rec := newTestDriver(t, time.Hour)
	placeBlinker(t, d)
	d.Start()
	d.Stop()

	// three toggles, the step done by Start, then Stop
	frames := rec.snapshot()
	require.Len(t, frames, 5)
	toggled := frames[2].Grid
	stepped := frames[3].Grid

	require.NoError(t, d.Toggle(0, 0))

	assert.Equal(t, horizontalBlinker, toggled.String(), "rendered grids are never modified afterwards")
	assert.Equal(t, verticalBlinker, stepped.String())
}

func TestState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "stopped", Stopped.String())
}
