package utils

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ErrEOF is returned (wrapped) by every BufStack read that runs past the buffer end.
var ErrEOF = errors.New("unexpected end of buffer")

// BufStack is a sequential reader over a byte buffer. Children created with
// SubBuf share the parent buffer and remember where they start, so nested
// sections (a SEQ inside a ZUD) keep their absolute position for addressing
// and for StringTree dumps.
//
// A BufStack is not safe for concurrent use; the underlying buffer is never
// written and may be shared by any number of BufStacks.
type BufStack struct {
	parent         *BufStack
	childs         []*BufStack
	buf            []byte
	relativeOffset int
	absoluteOffset int
	size           int
	pos            int
	kind           string
	name           string
}

func NewBufStack(kind string, b []byte) *BufStack {
	return &BufStack{
		buf:  b,
		size: len(b),
		kind: kind,
	}
}

func (bs *BufStack) addChild(childBs *BufStack) {
	index := sort.Search(len(bs.childs), func(i int) bool {
		return bs.childs[i].relativeOffset > childBs.relativeOffset
	})
	bs.childs = append(bs.childs, nil)
	copy(bs.childs[index+1:], bs.childs[index:])
	bs.childs[index] = childBs
}

// SubBuf returns a child view starting at offset (relative to bs).
func (bs *BufStack) SubBuf(kind string, offset int) (*BufStack, error) {
	if offset < 0 || offset > bs.size {
		return nil, errors.Wrapf(ErrEOF, "%s: sub buffer %q at 0x%x", bs.StringChain(), kind, offset)
	}
	childBs := &BufStack{
		parent:         bs,
		relativeOffset: offset,
		absoluteOffset: bs.absoluteOffset + offset,
		kind:           kind,
		buf:            bs.buf[offset:bs.size],
		size:           bs.size - offset,
	}
	bs.addChild(childBs)
	return childBs, nil
}

func (bs *BufStack) SetName(name string) *BufStack {
	bs.name = name
	return bs
}

// SetSize limits the readable window. Sizes past the buffer end are clamped.
func (bs *BufStack) SetSize(size int) *BufStack {
	if size < 0 || size > len(bs.buf) {
		size = len(bs.buf)
	}
	bs.size = size
	return bs
}

func (bs *BufStack) Name() string { return bs.name }
func (bs *BufStack) Size() int { return bs.size }
func (bs *BufStack) Kind() string { return bs.kind }
func (bs *BufStack) Parent() *BufStack { return bs.parent }
func (bs *BufStack) RelativeOffset() int { return bs.relativeOffset }
func (bs *BufStack) AbsoluteOffset() int { return bs.absoluteOffset }
func (bs *BufStack) Pos() int { return bs.pos }
func (bs *BufStack) Remaining() int { return bs.size - bs.pos }
func (bs *BufStack) AbsolutePos() int { return bs.absoluteOffset + bs.pos }
func (bs *BufStack) Raw() []byte { return bs.buf[:bs.size] }
func (bs *BufStack) Childs() []*BufStack { return bs.childs }
func (bs *BufStack) Error() string { return bs.StringChain() }
func (bs *BufStack) StringTree() string { return bs.stringTree(0) }

// Clone returns an independent root cursor over the same window, keeping the
// absolute offset. Used to give every decode its own position.
func (bs *BufStack) Clone(kind string) *BufStack {
	return &BufStack{
		buf:            bs.buf[:bs.size],
		size:           bs.size,
		absoluteOffset: bs.absoluteOffset,
		kind:           kind,
		name:           bs.name,
	}
}

func (bs *BufStack) String() string {
	return fmt.Sprintf("buf<%v>(%v)[o:0x%x,s:0x%x,ao:0x%x,ae:0x%x]",
		bs.kind, bs.name, bs.relativeOffset, bs.size, bs.absoluteOffset, bs.absoluteOffset+bs.size)
}

func (bs *BufStack) StringChain() string {
	s := bs.String()
	if bs.parent != nil {
		s += fmt.Sprintf("::%s", bs.parent.StringChain())
	}
	return s
}

func (bs *BufStack) stringTree(pad int) string {
	sPad := strings.Repeat(".  ", pad)
	s := sPad + bs.String() + "\n"
	pos := 0
	for i, child := range bs.childs {
		if pos >= 0 && child.relativeOffset > pos {
			s += fmt.Sprintf("%s.  gap [o:0x%x,s:0x%x,ao:0x%x,ae:0x%x]\n",
				sPad, pos, child.relativeOffset-pos, bs.absoluteOffset+pos, child.absoluteOffset)
		}
		s += child.stringTree(pad + 1)
		if child.size != 0 {
			pos = child.relativeOffset + child.size
		} else {
			pos = -1
		}
		if child.size > 0 && i != len(bs.childs)-1 {
			if child.relativeOffset+child.size > bs.childs[i+1].relativeOffset {
				s += fmt.Sprintf("%s. [OVERLAP]\n", sPad)
			}
		}
	}
	return s
}

// Seek moves the cursor to pos (relative to bs). Seeking to Size() is allowed.
func (bs *BufStack) Seek(pos int) error {
	if pos < 0 || pos > bs.size {
		return errors.Wrapf(ErrEOF, "%s: seek to 0x%x", bs.String(), pos)
	}
	bs.pos = pos
	return nil
}

func (bs *BufStack) Skip(amount int) error {
	return bs.Seek(bs.pos + amount)
}

// Read returns the next amount bytes. On a short buffer the cursor stays put.
func (bs *BufStack) Read(amount int) ([]byte, error) {
	if amount < 0 || bs.pos+amount > bs.size {
		return nil, errors.Wrapf(ErrEOF, "%s: read %d bytes at 0x%x", bs.String(), amount, bs.pos)
	}
	oldPos := bs.pos
	bs.pos += amount
	return bs.buf[oldPos:bs.pos], nil
}

func (bs *BufStack) ReadByte() (byte, error) {
	b, err := bs.Read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (bs *BufStack) ReadI8() (int8, error) {
	b, err := bs.ReadByte()
	return int8(b), err
}

func (bs *BufStack) ReadLU16() (uint16, error) {
	b, err := bs.Read(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (bs *BufStack) ReadLI16() (int16, error) {
	v, err := bs.ReadLU16()
	return int16(v), err
}

func (bs *BufStack) ReadLU32() (uint32, error) {
	b, err := bs.Read(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (bs *BufStack) ReadLI32() (int32, error) {
	v, err := bs.ReadLU32()
	return int32(v), err
}

func (bs *BufStack) ReadBU16() (uint16, error) {
	b, err := bs.Read(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (bs *BufStack) ReadBI16() (int16, error) {
	v, err := bs.ReadBU16()
	return int16(v), err
}
