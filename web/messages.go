package web

import (
	"github.com/pkg/errors"

	"github.com/sheikhrachel/lifegrid/driver"
)

// socket.io event names
const (
	eventGrid      = "grid"
	eventStart     = "start"
	eventStop      = "stop"
	eventRandomize = "randomize"
	eventClear     = "clear"
	eventToggle    = "toggle"
)

var (
	ErrBadPayload   = errors.New("malformed event payload")
	ErrUnknownEvent = errors.New("unknown event")
	ErrNotBound     = errors.New("no controller bound")
)

// gridMessage is the payload of the grid event. Each entry of Cells is one
// row written as '0' (dead) and '1' (alive) characters.
type gridMessage struct {
	Rows       int      `json:"rows"`
	Cols       int      `json:"cols"`
	Cells      []string `json:"cells"`
	Generation int      `json:"generation"`
	Running    bool     `json:"running"`
	Alive      int      `json:"alive"`
}

func newGridMessage(f driver.Frame) gridMessage {
	return gridMessage{
		Rows:       f.Grid.Rows(),
		Cols:       f.Grid.Cols(),
		Cells:      f.Grid.RowStrings(),
		Generation: f.Generation,
		Running:    f.State == driver.Running,
		Alive:      f.Grid.CountAlive(),
	}
}

// parseCell reads the {row, col} object sent with a toggle event.
func parseCell(args []any) (row, col int, err error) {
	if len(args) == 0 {
		return 0, 0, errors.Wrap(ErrBadPayload, "[parseCell] missing cell")
	}
	obj, ok := args[0].(map[string]any)
	if !ok {
		return 0, 0, errors.Wrapf(ErrBadPayload, "[parseCell] expected an object, got %T", args[0])
	}
	if row, err = intField(obj, "row"); err != nil {
		return 0, 0, err
	}
	if col, err = intField(obj, "col"); err != nil {
		return 0, 0, err
	}
	return row, col, nil
}

func intField(obj map[string]any, name string) (int, error) {
	switch v := obj[name].(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, errors.Wrapf(ErrBadPayload, "[intField] %s is not an integer: %v", name, v)
		}
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case nil:
		return 0, errors.Wrapf(ErrBadPayload, "[intField] missing %s", name)
	default:
		return 0, errors.Wrapf(ErrBadPayload, "[intField] %s has type %T", name, v)
	}
}
