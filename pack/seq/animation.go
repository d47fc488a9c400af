package seq

import (
	"github.com/pkg/errors"

	"github.com/mogaika/vagrant_story_browser/utils"
)

const (
	SCALE_FLAG_BASE = 0x1
	SCALE_FLAG_KEYS = 0x2
)

// Animation is one clip record. Payload pointers go through Header.Resolve.
type Animation struct {
	Index            int
	Length           uint16 // frames
	IdOtherAnimation int8   // -1, or the clip whose base rotation pose is shared
	ScaleFlags       uint8
	PtrActions       uint16
	PtrTranslation   uint16
	PtrMove          uint16
	PtrBones         []uint16
	PtrBonesScale    []uint16
}

func (a *Animation) SharesPose() bool {
	return a.IdOtherAnimation != -1
}

func readAnimation(bs *utils.BufStack, index int, numBones int) (Animation, error) {
	a := Animation{Index: index}

	raw, err := bs.Read(ANIMATION_FIXED_SIZE + numBones*4)
	if err != nil {
		return a, errors.Wrapf(err, "animation record %d", index)
	}
	abs := utils.NewBufStack("animation", raw)
	a.Length, _ = abs.ReadLU16()
	a.IdOtherAnimation, _ = abs.ReadI8()
	a.ScaleFlags, _ = abs.ReadByte()
	a.PtrActions, _ = abs.ReadLU16()
	a.PtrTranslation, _ = abs.ReadLU16()
	a.PtrMove, _ = abs.ReadLU16()

	a.PtrBones = make([]uint16, numBones)
	for i := range a.PtrBones {
		a.PtrBones[i], _ = abs.ReadLU16()
	}
	a.PtrBonesScale = make([]uint16, numBones)
	for i := range a.PtrBonesScale {
		a.PtrBonesScale[i], _ = abs.ReadLU16()
	}
	return a, nil
}
