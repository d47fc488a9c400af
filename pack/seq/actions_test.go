package seq

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/mogaika/vagrant_story_browser/utils"
)

func TestReadActions(t *testing.T) {
	for _, test := range []struct {
		name     string
		in       []byte
		actions  []Action
		end      ActionsEnd
		consumed int
	}{
		{"loop then marker", []byte{0x05, 0x01, 0xFF}, []Action{{Frame: 5, Code: 0x01, Name: "loop", Params: []uint8{}}}, ActionsEndMarker, 3},
		{"params", []byte{0x02, 0x16, 7, 8, 0x03, 0x3C, 9, 0xFF}, []Action{
			{Frame: 2, Code: 0x16, Name: "0x16", Params: []uint8{7, 8}},
			{Frame: 3, Code: 0x3C, Name: "adjustShadow", Params: []uint8{9}},
		}, ActionsEndMarker, 8},
		{"null code stops early", []byte{0x01, 0x3B, 0x03, 0x00, 0x04, 0x3A, 0xFF}, []Action{
			{Frame: 1, Code: 0x3B, Name: "land", Params: []uint8{}},
		}, ActionsEndNullCode, 4},
		{"empty", []byte{0xFF, 0x01}, []Action{}, ActionsEndMarker, 1},
	} {
		bs := utils.NewBufStack("test", test.in)
		actions, end, err := ReadActions(bs, 30, nil)
		if err != nil {
			t.Errorf("%s: ReadActions(%x) err=%v", test.name, test.in, err)
			continue
		}
		if end != test.end {
			t.Errorf("%s: ReadActions(%x) end=%v; expected %v", test.name, test.in, end, test.end)
		}
		if len(actions) != len(test.actions) {
			t.Errorf("%s: ReadActions(%x)=%+v; expected %+v", test.name, test.in, actions, test.actions)
			continue
		}
		for i := range actions {
			a, e := actions[i], test.actions[i]
			if a.Frame != e.Frame || a.Code != e.Code || a.Name != e.Name || !bytes.Equal(a.Params, e.Params) {
				t.Errorf("%s: action %d=%+v; expected %+v", test.name, i, a, e)
			}
		}
		if bs.Pos() != test.consumed {
			t.Errorf("%s: ReadActions(%x) consumed %d; expected %d", test.name, test.in, bs.Pos(), test.consumed)
		}
	}
}

func TestReadActionsUnknownCode(t *testing.T) {
	bs := utils.NewBufStack("test", []byte{0x01, 0x01, 0x02, 0x03, 0xFF})
	actions, end, err := ReadActions(bs, 30, nil)
	if !errors.Is(err, ErrUnknownActionCode) {
		t.Errorf("ReadActions err=%v; expected ErrUnknownActionCode", err)
	}
	if len(actions) != 1 || end != ActionsEndNone {
		t.Errorf("ReadActions kept %d actions end %v; expected 1 and none", len(actions), end)
	}
}

func TestReadActionsTruncated(t *testing.T) {
	for _, in := range [][]byte{{}, {0x01}, {0x01, 0x27, 1, 2}} {
		if _, _, err := ReadActions(utils.NewBufStack("test", in), 30, nil); !errors.Is(err, utils.ErrEOF) {
			t.Errorf("ReadActions(%x) err=%v; expected ErrEOF", in, err)
		}
	}
}

func TestReadActionsFramePastLength(t *testing.T) {
	var log bytes.Buffer
	actions, end, err := ReadActions(utils.NewBufStack("test", []byte{40, 0x01, 0xFF}), 10, utils.NewLogger(&log))
	if err != nil || len(actions) != 1 || end != ActionsEndMarker {
		t.Fatalf("ReadActions=%+v,%v,%v; expected one action", actions, end, err)
	}
	if !strings.Contains(log.String(), "past clip length") {
		t.Errorf("expected a log line about frame 40, got %q", log.String())
	}
}

func TestActionTable(t *testing.T) {
	for code, info := range ActionTable {
		if code < 0x01 || code > 0x40 {
			t.Errorf("action code 0x%02x out of range", code)
		}
		if info.NumParams < 0 || info.NumParams > 5 {
			t.Errorf("action 0x%02x has %d params", code, info.NumParams)
		}
	}
	for _, test := range []struct {
		code uint8
		name string
	}{
		{0x01, "loop"},
		{0x13, "unlockBone"},
		{0x0A, "0x0a"},
		{0x03, "0x03"},
	} {
		if n := ActionName(test.code); n != test.name {
			t.Errorf("ActionName(0x%02x)=%q; expected %q", test.code, n, test.name)
		}
	}
}
