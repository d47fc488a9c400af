// Package zud reads ZUD character bundles: a model, up to two weapons and
// two animation banks packed behind a small section table.
package zud

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/vagrant_story_browser/pack"
	"github.com/mogaika/vagrant_story_browser/pack/seq"
	"github.com/mogaika/vagrant_story_browser/pack/shp"
	"github.com/mogaika/vagrant_story_browser/utils"
)

const (
	SECTION_SHP = iota
	SECTION_WEP
	SECTION_WEP2
	SECTION_COMMON_SEQ
	SECTION_BATTLE_SEQ
	SECTIONS_COUNT
)

const HEADER_SIZE = 8 + SECTIONS_COUNT*8

var (
	ErrBadHeader = errors.New("bad zud header")
	ErrNoBank    = errors.New("no such animation bank")
)

var sectionNames = [SECTIONS_COUNT]string{"shp", "wep", "wep2", "com", "bt"}

type Section struct {
	Offset uint32
	Size   uint32
}

type Header struct {
	IdSHP     uint8
	IdWEP     uint8
	IdWEPType uint8
	IdWEPMat  uint8
	IdWEP2    uint8
	IdWEP2Mat uint8
	Unk       uint8
	Pad       uint8
	Sections  [SECTIONS_COUNT]Section
}

type ZUD struct {
	Name      string
	Header    Header
	SHP       *shp.SHP
	CommonSEQ *seq.SEQ
	BattleSEQ *seq.SEQ

	data []byte
}

func readHeader(bs *utils.BufStack) (Header, error) {
	var h Header
	raw, err := bs.Read(HEADER_SIZE)
	if err != nil {
		return h, errors.Wrapf(err, "header")
	}
	hbs := utils.NewBufStack("header", raw)
	for _, id := range []*uint8{&h.IdSHP, &h.IdWEP, &h.IdWEPType, &h.IdWEPMat, &h.IdWEP2, &h.IdWEP2Mat, &h.Unk, &h.Pad} {
		*id, _ = hbs.ReadByte()
	}
	for i := range h.Sections {
		h.Sections[i].Offset, _ = hbs.ReadLU32()
		h.Sections[i].Size, _ = hbs.ReadLU32()
	}

	for i, s := range h.Sections {
		if s.Size != 0 && uint64(s.Offset)+uint64(s.Size) > uint64(bs.Size()) {
			return h, errors.Wrapf(ErrBadHeader, "%s section [0x%x:+0x%x] is past the end 0x%x",
				sectionNames[i], s.Offset, s.Size, bs.Size())
		}
	}
	return h, nil
}

// SectionName names embedded assets the way the game names the standalone
// ones: model 0x1c gives 1C.ZSHP and 1C_COM.SEQ.
func (z *ZUD) SectionName(section int) string {
	switch section {
	case SECTION_WEP:
		return fmt.Sprintf("%02X.ZWEP", z.Header.IdWEP)
	case SECTION_WEP2:
		return fmt.Sprintf("%02X.ZWEP", z.Header.IdWEP2)
	case SECTION_COMMON_SEQ:
		return fmt.Sprintf("%02X_COM", z.Header.IdSHP)
	case SECTION_BATTLE_SEQ:
		return fmt.Sprintf("%02X_BT", z.Header.IdSHP)
	}
	return fmt.Sprintf("%02X.ZSHP", z.Header.IdSHP)
}

func NewFromData(name string, data []byte, l *utils.Logger) (*ZUD, error) {
	z := &ZUD{Name: name, data: data}

	var err error
	if z.Header, err = readHeader(utils.NewBufStack("zud", data).SetName(name)); err != nil {
		return nil, errors.Wrapf(err, "zud %q", name)
	}
	h := &z.Header
	l.Printf("[zud] %s: shp 0x%02x wep 0x%02x type %d mat %d wep2 0x%02x mat %d sections %v",
		name, h.IdSHP, h.IdWEP, h.IdWEPType, h.IdWEPMat, h.IdWEP2, h.IdWEP2Mat, h.Sections)

	shpSection := h.Sections[SECTION_SHP]
	if z.SHP, err = shp.NewFromData(z.SectionName(SECTION_SHP), data, int(shpSection.Offset), l); err != nil {
		return nil, errors.Wrapf(err, "zud %q", name)
	}

	for _, bank := range []struct {
		section int
		dst     **seq.SEQ
	}{{SECTION_COMMON_SEQ, &z.CommonSEQ}, {SECTION_BATTLE_SEQ, &z.BattleSEQ}} {
		s := h.Sections[bank.section]
		if s.Size == 0 {
			continue
		}
		if *bank.dst, err = seq.NewFromData(z.SectionName(bank.section), data, int(s.Offset), l); err != nil {
			return nil, errors.Wrapf(err, "zud %q", name)
		}
	}
	return z, nil
}

// Layout dumps the section table as a region tree, gaps and overlaps
// included.
func (z *ZUD) Layout() string {
	root := utils.NewBufStack("zud", z.data).SetName(z.Name)
	if header, err := root.SubBuf("header", 0); err == nil {
		header.SetSize(HEADER_SIZE)
	}
	for i, s := range z.Header.Sections {
		if s.Size == 0 {
			continue
		}
		if sub, err := root.SubBuf(sectionNames[i], int(s.Offset)); err == nil {
			sub.SetName(z.SectionName(i)).SetSize(int(s.Size))
		}
	}
	return root.StringTree()
}

// Bank returns the animation bank by its short name, "com" or "bt".
func (z *ZUD) Bank(name string) (*seq.SEQ, error) {
	var s *seq.SEQ
	switch strings.ToLower(name) {
	case sectionNames[SECTION_COMMON_SEQ]:
		s = z.CommonSEQ
	case sectionNames[SECTION_BATTLE_SEQ]:
		s = z.BattleSEQ
	default:
		return nil, errors.Errorf("zud %q: unknown bank %q", z.Name, name)
	}
	if s == nil {
		return nil, errors.Wrapf(ErrNoBank, "zud %q: %s", z.Name, name)
	}
	return s, nil
}

func init() {
	pack.SetHandler(".ZUD", func(d *pack.Directory, name string, data []byte) (interface{}, error) {
		return NewFromData(strings.TrimSuffix(name, filepath.Ext(name)), data, d.Trace())
	})
}
