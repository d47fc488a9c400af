package seq

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/mogaika/vagrant_story_browser/utils"
)

const (
	ACTIONS_END_FRAME = 0xff
	ACTION_NULL       = 0x00
)

var ErrUnknownActionCode = errors.New("unknown action code")

type ActionInfo struct {
	Name      string
	NumParams int
}

// ActionTable maps action codes to their name and parameter byte count.
// Only a few names are known, the rest are named after the code.
var ActionTable = map[uint8]ActionInfo{
	0x01: {"loop", 0},
	0x02: {"0x02", 0}, // often at the end of attacks
	0x04: {"0x04", 1},
	0x0A: {"0x0a", 1}, // walk and run, followed by 0x17 (left) or 0x18 (right)
	0x0B: {"0x0b", 0},
	0x0C: {"0x0c", 1},
	0x0D: {"0x0d", 0},
	0x0F: {"0x0f", 1},
	0x13: {"unlockBone", 1},
	0x14: {"0x14", 1}, // often at the end of non looping clips
	0x15: {"0x15", 1},
	0x16: {"0x16", 2},
	0x17: {"0x17", 0},
	0x18: {"0x18", 0},
	0x19: {"0x19", 0},
	0x1A: {"0x1a", 1},
	0x1B: {"0x1b", 1},
	0x1C: {"0x1c", 1},
	0x1D: {"paralyze?", 0},
	0x24: {"0x24", 2},
	0x27: {"0x27", 4},
	0x34: {"0x34", 3},
	0x35: {"0x35", 5},
	0x36: {"0x36", 3},
	0x37: {"0x37", 1},
	0x38: {"0x38", 1},
	0x39: {"0x39", 1},
	0x3A: {"disappear", 0}, // death clips
	0x3B: {"land", 0},
	0x3C: {"adjustShadow", 1},
	0x3F: {"0x3f", 0}, // usually followed by 0x16
	0x40: {"0x40", 0},
}

func ActionName(code uint8) string {
	if info, ok := ActionTable[code]; ok {
		return info.Name
	}
	return fmt.Sprintf("0x%02x", code)
}

type Action struct {
	Frame  uint8
	Code   uint8
	Name   string
	Params []uint8
}

// ActionsEnd tells how an action track stopped.
type ActionsEnd int

const (
	ActionsEndNone     ActionsEnd = iota // not read or failed
	ActionsEndMarker                     // frame byte 0xff
	ActionsEndNullCode                   // code 0x00, trailing entries are not read
)

func (e ActionsEnd) String() string {
	switch e {
	case ActionsEndMarker:
		return "marker"
	case ActionsEndNullCode:
		return "null code"
	}
	return "none"
}

func (e ActionsEnd) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// ReadActions reads (frame, code, params...) entries. On error the actions
// read so far are returned.
func ReadActions(bs *utils.BufStack, length uint16, l *utils.Logger) ([]Action, ActionsEnd, error) {
	actions := make([]Action, 0)
	for {
		pos := bs.AbsolutePos()
		frame, err := bs.ReadByte()
		if err != nil {
			return actions, ActionsEndNone, err
		}
		if frame == ACTIONS_END_FRAME {
			return actions, ActionsEndMarker, nil
		}
		if uint16(frame) > length {
			l.Printf("[seq] action at 0x%x: frame %d is past clip length %d", pos, frame, length)
		}

		code, err := bs.ReadByte()
		if err != nil {
			return actions, ActionsEndNone, err
		}
		if code == ACTION_NULL {
			return actions, ActionsEndNullCode, nil
		}
		info, ok := ActionTable[code]
		if !ok {
			return actions, ActionsEndNone, errors.Wrapf(ErrUnknownActionCode, "%s at 0x%x", ActionName(code), pos)
		}

		params, err := bs.Read(info.NumParams)
		if err != nil {
			return actions, ActionsEndNone, errors.Wrapf(err, "params of action %q", info.Name)
		}
		actions = append(actions, Action{
			Frame:  frame,
			Code:   code,
			Name:   info.Name,
			Params: append([]uint8{}, params...),
		})
	}
}
