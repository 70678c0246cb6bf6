package model

import (
	"io"
	"strings"

	"github.com/gookit/color"
)

const (
	gridPosBlock = "██"
	gridPosEmpty = "  "

	ansiClearScreen = "\033[H\033[2J"
)

// aliveColor matches the living cell color of the browser UI.
var aliveColor = color.RGB(70, 120, 70)

// TerminalRenderer draws grids as text on a terminal
type TerminalRenderer struct {
	out io.Writer
}

// NewTerminalRenderer creates a renderer writing to out.
func NewTerminalRenderer(out io.Writer) *TerminalRenderer {
	return &TerminalRenderer{out: out}
}

// Display renders the grid followed by an optional status line
func (r *TerminalRenderer) Display(g *Grid, status string) error {
	var sb strings.Builder
	if status != "" {
		sb.WriteString(status)
		sb.WriteByte('\n')
	}
	block := aliveColor.Sprint(gridPosBlock)
	for row := range g.rows {
		for col := range g.cols {
			if g.cells[row*g.cols+col] == Alive {
				sb.WriteString(block)
			} else {
				sb.WriteString(gridPosEmpty)
			}
		}
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(r.out, sb.String())
	return err
}

// Clear moves the cursor home and clears the terminal screen
func (r *TerminalRenderer) Clear() error {
	_, err := io.WriteString(r.out, ansiClearScreen)
	return err
}
