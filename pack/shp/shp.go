// Package shp reads the skeleton part of SHP character models. Faces,
// AKAO and textures are not decoded.
package shp

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/vagrant_story_browser/pack"
	"github.com/mogaika/vagrant_story_browser/pack/skeleton"
	"github.com/mogaika/vagrant_story_browser/utils"
)

const SIGNATURE = "H01\x00"

const (
	// section pointers are relative to the end of the magic pointer
	POINTERS_BASE = 0xf8
	BONES_START   = 0x138

	SEQ_TABLE_SIZE = 0x0c
)

var ErrBadSignature = errors.New("bad shp signature")

type Header struct {
	NumBones  uint8
	NumGroups uint8
	NumTri    uint16
	NumQuad   uint16
	NumPoly   uint16

	Overlays   [8][4]int8
	Collider   [6]int8
	MenuYPos   int16
	Shadow     [12]int16              // radius, inc, dec, ?, ?, menu scale, ?, target sphere y, ...
	SeqLBA     [SEQ_TABLE_SIZE]uint32 // XX_COM.SEQ first, then XX_BTn.SEQ
	Chains     [SEQ_TABLE_SIZE]uint16 // chain attack animation ids
	SpecialLBA [SEQ_TABLE_SIZE]uint32

	MagicPtr   uint32
	AKAOPtr    uint32
	GroupPtr   uint32
	VertexPtr  uint32
	PolygonPtr uint32
}

func (h *Header) NumFaces() int {
	return int(h.NumTri) + int(h.NumQuad) + int(h.NumPoly)
}

type SHP struct {
	Name       string
	BaseOffset int
	Header     Header
	Skeleton   *skeleton.Skeleton
}

func readHeader(bs *utils.BufStack) (Header, error) {
	var h Header
	raw, err := bs.Read(BONES_START - len(SIGNATURE))
	if err != nil {
		return h, errors.Wrapf(err, "header")
	}
	hbs := utils.NewBufStack("header", raw)

	h.NumBones, _ = hbs.ReadByte()
	h.NumGroups, _ = hbs.ReadByte()
	h.NumTri, _ = hbs.ReadLU16()
	h.NumQuad, _ = hbs.ReadLU16()
	h.NumPoly, _ = hbs.ReadLU16()
	for i := range h.Overlays {
		for j := range h.Overlays[i] {
			h.Overlays[i][j], _ = hbs.ReadI8()
		}
	}
	hbs.Skip(36)
	for i := range h.Collider {
		h.Collider[i], _ = hbs.ReadI8()
	}
	h.MenuYPos, _ = hbs.ReadLI16()
	hbs.Skip(12)
	for i := range h.Shadow {
		h.Shadow[i], _ = hbs.ReadLI16()
	}
	for i := range h.SeqLBA {
		h.SeqLBA[i], _ = hbs.ReadLU32()
	}
	for i := range h.Chains {
		h.Chains[i], _ = hbs.ReadLU16()
	}
	for i := range h.SpecialLBA {
		h.SpecialLBA[i], _ = hbs.ReadLU32()
	}
	h.MagicPtr, _ = hbs.ReadLU32()
	hbs.Skip(48)
	h.AKAOPtr, _ = hbs.ReadLU32()
	h.GroupPtr, _ = hbs.ReadLU32()
	h.VertexPtr, _ = hbs.ReadLU32()
	h.PolygonPtr, _ = hbs.ReadLU32()
	return h, nil
}

// NewFromData reads the SHP found at baseOffset of data.
func NewFromData(name string, data []byte, baseOffset int, l *utils.Logger) (*SHP, error) {
	s := &SHP{Name: name, BaseOffset: baseOffset}

	bs, err := utils.NewBufStack("file", data).SubBuf("shp", baseOffset)
	if err != nil {
		return nil, errors.Wrapf(err, "shp %q", name)
	}
	bs.SetName(name)

	sig, err := bs.Read(len(SIGNATURE))
	if err != nil {
		return nil, errors.Wrapf(err, "shp %q", name)
	}
	if string(sig) != SIGNATURE {
		return nil, errors.Wrapf(ErrBadSignature, "shp %q: %q", name, sig)
	}
	if s.Header, err = readHeader(bs); err != nil {
		return nil, errors.Wrapf(err, "shp %q", name)
	}
	h := &s.Header
	l.Printf("[shp] %s: bones %d groups %d faces %d groups at 0x%x vertices at 0x%x polygons at 0x%x",
		name, h.NumBones, h.NumGroups, h.NumFaces(), h.GroupPtr, h.VertexPtr, h.PolygonPtr)

	bones, err := skeleton.ParseBones(bs, int(h.NumBones), l)
	if err != nil {
		return nil, errors.Wrapf(err, "shp %q", name)
	}

	if err := seekSection(bs, "group", h.GroupPtr, l); err != nil {
		return nil, errors.Wrapf(err, "shp %q", name)
	}
	groups, err := skeleton.ParseGroups(bs, int(h.NumGroups), l)
	if err != nil {
		return nil, errors.Wrapf(err, "shp %q", name)
	}

	if s.Skeleton, err = skeleton.NewSkeleton(bones, groups); err != nil {
		return nil, errors.Wrapf(err, "shp %q", name)
	}

	if err := seekSection(bs, "vertex", h.VertexPtr, l); err != nil {
		return nil, errors.Wrapf(err, "shp %q", name)
	}
	if err := s.Skeleton.ParseVertices(bs); err != nil {
		return nil, errors.Wrapf(err, "shp %q", name)
	}
	return s, nil
}

func seekSection(bs *utils.BufStack, section string, ptr uint32, l *utils.Logger) error {
	pos := int(ptr) + POINTERS_BASE
	if pos != bs.Pos() {
		l.Printf("[shp] %s section expected at 0x%x, pointer says 0x%x", section, bs.Pos(), pos)
		if err := bs.Seek(pos); err != nil {
			return errors.Wrapf(err, "%s section", section)
		}
	}
	return nil
}

var companionSuffixes = []string{"_COM", "_BT1", "_BT2", "_BT3", "_BT4", "_BT5", "_BT6", "_BT7", "_BT8", "_BT9", "_BTA"}

// CompanionSEQs lists the animation banks of a model, XX.SHP animates with
// XX_COM.SEQ and XX_BTn.SEQ.
func CompanionSEQs(shpName string) []string {
	base := strings.ToUpper(strings.TrimSuffix(shpName, filepath.Ext(shpName)))
	names := make([]string, len(companionSuffixes))
	for i, suffix := range companionSuffixes {
		names[i] = base + suffix + ".SEQ"
	}
	return names
}

// CompanionSHP is the model animated by a SEQ bank.
func CompanionSHP(seqName string) (string, bool) {
	base := strings.ToUpper(strings.TrimSuffix(seqName, filepath.Ext(seqName)))
	for _, suffix := range companionSuffixes {
		if strings.HasSuffix(base, suffix) {
			return strings.TrimSuffix(base, suffix) + ".SHP", true
		}
	}
	return "", false
}

// FindSkeleton loads the skeleton of the model animated by seqName. It
// returns nil without error when the directory has no such model.
func FindSkeleton(d *pack.Directory, seqName string) (*skeleton.Skeleton, error) {
	name, ok := CompanionSHP(seqName)
	if !ok || !d.Exists(name) {
		return nil, nil
	}
	inst, err := pack.GetInstanceHandler(d, name)
	if err != nil {
		return nil, err
	}
	return inst.(*SHP).Skeleton, nil
}

func init() {
	pack.SetHandler(".SHP", func(d *pack.Directory, name string, data []byte) (interface{}, error) {
		return NewFromData(name, data, 0, d.Trace())
	})
}
