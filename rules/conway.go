package rules

// Cell is the binary state of a single grid position.
type Cell uint8

const (
	Dead  Cell = 0
	Alive Cell = 1
)

/*
Next applies Conway's Game of Life rules to determine the next state of a cell.

Fewer than two or more than three living neighbors kill the cell, a dead cell
with exactly three living neighbors is born, and any other cell keeps its state.
*/
func Next(current Cell, neighbors int) Cell {
	switch {
	case neighbors < 2 || neighbors > 3:
		return Dead
	case current == Dead && neighbors == 3:
		return Alive
	default:
		return current
	}
}
