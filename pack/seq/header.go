package seq

import (
	"github.com/pkg/errors"

	"github.com/mogaika/vagrant_story_browser/utils"
)

const (
	HEADER_SIZE = 0x10
	// stored data and slot offsets are relative to this position inside the header
	HEADER_POINTERS_BASE = 8
	ANIMATION_FIXED_SIZE = 10
)

var ErrMalformedHeader = errors.New("malformed seq header")

type Header struct {
	NumSlots   uint16
	NumBones   uint16
	Size       uint32
	DataOffset uint32
	SlotOffset uint32

	// position of the header in the stream, non zero when embedded (ZUD)
	BaseOffset    int
	HeaderOffset  uint32
	NumAnimations int
}

func (h *Header) recordSize() int {
	return int(h.NumBones)*4 + ANIMATION_FIXED_SIZE
}

// Resolve turns a payload pointer into an absolute stream position.
func (h *Header) Resolve(ptr uint16) int {
	return int(ptr) + int(h.HeaderOffset) + h.BaseOffset
}

func readHeader(bs *utils.BufStack, l *utils.Logger) (Header, error) {
	h := Header{BaseOffset: bs.AbsolutePos()}

	raw, err := bs.Read(HEADER_SIZE)
	if err != nil {
		return h, errors.Wrapf(err, "header")
	}
	hbs := utils.NewBufStack("header", raw)
	h.NumSlots, _ = hbs.ReadLU16()
	h.NumBones, _ = hbs.ReadLU16()
	h.Size, _ = hbs.ReadLU32()
	h.DataOffset, _ = hbs.ReadLU32()
	h.SlotOffset, _ = hbs.ReadLU32()

	h.DataOffset += HEADER_POINTERS_BASE
	h.SlotOffset += HEADER_POINTERS_BASE
	h.HeaderOffset = h.SlotOffset + uint32(h.NumSlots)

	if h.NumBones == 0 {
		return h, errors.Wrapf(ErrMalformedHeader, "no bones")
	}
	records := int(h.DataOffset) - int(h.NumSlots) - HEADER_SIZE
	if records < 0 {
		return h, errors.Wrapf(ErrMalformedHeader, "data offset 0x%x is before the slot table (%d slots)",
			h.DataOffset, h.NumSlots)
	}
	if records%h.recordSize() != 0 {
		return h, errors.Wrapf(ErrMalformedHeader, "records area of %d bytes is not a multiple of %d",
			records, h.recordSize())
	}
	h.NumAnimations = records / h.recordSize()

	l.Printf("[seq] header at 0x%x: slots %d bones %d size 0x%x data 0x%x slots at 0x%x payload base 0x%x animations %d",
		h.BaseOffset, h.NumSlots, h.NumBones, h.Size, h.DataOffset, h.SlotOffset, h.HeaderOffset, h.NumAnimations)
	if expected := uint32(HEADER_SIZE + h.NumAnimations*h.recordSize()); expected != h.SlotOffset {
		l.Printf("[seq] slot table expected at 0x%x, header says 0x%x", expected, h.SlotOffset)
	}
	return h, nil
}
