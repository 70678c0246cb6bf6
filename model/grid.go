package model

import (
	"crypto/md5"
	"fmt"
	"math/rand"
	"runtime"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/sheikhrachel/lifegrid/rules"
)

// Cell is the state of one grid position, either Dead or Alive.
type Cell = rules.Cell

const (
	Dead  = rules.Dead
	Alive = rules.Alive
)

const (
	// DefaultRows and DefaultCols are the board dimensions used when none are configured.
	DefaultRows = 64
	DefaultCols = 69

	// DefaultThreshold leaves roughly 20% of cells alive in a random grid.
	DefaultThreshold = 0.8
)

// ErrOutOfBounds is returned when a coordinate falls outside the grid.
var ErrOutOfBounds = errors.New("coordinate out of bounds")

// NeighborOffsets are the (row, col) deltas of the Moore neighborhood.
var NeighborOffsets = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// Grid is a fixed-size, row-major board of cells. A Grid is never modified
// once it has been handed out: Step and Toggle return new grids.
type Grid struct {
	rows  int
	cols  int
	cells []Cell
}

// NewEmptyGrid creates a grid of the given dimensions with every cell dead.
func NewEmptyGrid(rows, cols int) *Grid {
	rows, cols = max(0, rows), max(0, cols)
	return &Grid{
		rows:  rows,
		cols:  cols,
		cells: make([]Cell, rows*cols),
	}
}

// NewRandomGrid creates a grid where each cell is alive when a uniform draw
// from rng exceeds threshold. A nil rng falls back to a time-seeded source.
func NewRandomGrid(rows, cols int, threshold float64, rng *rand.Rand) *Grid {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	g := NewEmptyGrid(rows, cols)
	for i := range g.cells {
		if rng.Float64() > threshold {
			g.cells[i] = Alive
		}
	}
	return g
}

// Rows returns the number of rows in the grid
func (g *Grid) Rows() int {
	return g.rows
}

// Cols returns the number of columns in the grid
func (g *Grid) Cols() int {
	return g.cols
}

// InBounds reports whether (row, col) addresses a cell of the grid.
func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.rows && col >= 0 && col < g.cols
}

// Get returns the state of a cell, treating positions off the grid as dead.
func (g *Grid) Get(row, col int) Cell {
	if !g.InBounds(row, col) {
		return Dead
	}
	return g.cells[row*g.cols+col]
}

// Clone returns an independent copy of the grid.
func (g *Grid) Clone() *Grid {
	cells := make([]Cell, len(g.cells))
	copy(cells, g.cells)
	return &Grid{rows: g.rows, cols: g.cols, cells: cells}
}

// Toggle returns a copy of the grid with the cell at (row, col) flipped.
func (g *Grid) Toggle(row, col int) (*Grid, error) {
	if !g.InBounds(row, col) {
		return nil, errors.Wrapf(ErrOutOfBounds, "[Toggle] (%d,%d) on %dx%d grid", row, col, g.rows, g.cols)
	}
	next := g.Clone()
	idx := row*g.cols + col
	next.cells[idx] = Alive - next.cells[idx]
	return next, nil
}

// CountNeighbors counts the living cells around (row, col). Offsets that
// leave the grid are skipped, so edges and corners have fewer neighbors.
func (g *Grid) CountNeighbors(row, col int) int {
	count := 0
	for _, off := range NeighborOffsets {
		r, c := row+off[0], col+off[1]
		if r < 0 || r >= g.rows || c < 0 || c >= g.cols {
			continue
		}
		count += int(g.cells[r*g.cols+c])
	}
	return count
}

// Step computes the next generation. Rows are split into bands that are
// evaluated concurrently; every band reads only g and writes only its own
// rows of the result.
func (g *Grid) Step() *Grid {
	next := NewEmptyGrid(g.rows, g.cols)

	var (
		eg            errgroup.Group
		numWorkers    = runtime.NumCPU()
		rowsPerWorker = (g.rows + numWorkers - 1) / numWorkers // Ceiling division
	)

	for i := range numWorkers {
		var (
			startRow = i * rowsPerWorker
			endRow   = min(startRow+rowsPerWorker, g.rows)
		)
		if startRow >= g.rows {
			break
		}

		eg.Go(func() error {
			for row := startRow; row < endRow; row++ {
				for col := range g.cols {
					idx := row*g.cols + col
					next.cells[idx] = rules.Next(g.cells[idx], g.CountNeighbors(row, col))
				}
			}
			return nil
		})
	}

	// band workers cannot fail
	_ = eg.Wait()

	return next
}

// CountAlive returns the total number of living cells
func (g *Grid) CountAlive() (count int) {
	for _, c := range g.cells {
		count += int(c)
	}
	return
}

// Equal reports whether both grids have the same dimensions and cells.
func (g *Grid) Equal(other *Grid) bool {
	if other == nil || g.rows != other.rows || g.cols != other.cols {
		return false
	}
	for i := range g.cells {
		if g.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}

// Hash returns the MD5 of the cell states, used to spot repeated generations.
func (g *Grid) Hash() string {
	buf := make([]byte, len(g.cells))
	for i, c := range g.cells {
		buf[i] = byte(c)
	}
	return fmt.Sprintf("%x", md5.Sum(buf))
}

// RowStrings renders each row as a string of '0' and '1'.
func (g *Grid) RowStrings() []string {
	out := make([]string, g.rows)
	buf := make([]byte, g.cols)
	for row := range g.rows {
		for col := range g.cols {
			buf[col] = '0' + byte(g.cells[row*g.cols+col])
		}
		out[row] = string(buf)
	}
	return out
}

// String draws the grid with '#' for living cells and '.' for dead ones.
func (g *Grid) String() string {
	var sb strings.Builder
	for row := range g.rows {
		if row > 0 {
			sb.WriteByte('\n')
		}
		for col := range g.cols {
			if g.cells[row*g.cols+col] == Alive {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
	}
	return sb.String()
}
