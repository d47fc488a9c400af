package seq

import (
	"github.com/mogaika/vagrant_story_browser/utils"
)

const (
	KEY_END = 0x00

	KEY_AXIS_X    = 0x80
	KEY_AXIS_Y    = 0x40
	KEY_AXIS_Z    = 0x20
	KEY_AXIS_MASK = KEY_AXIS_X | KEY_AXIS_Y | KEY_AXIS_Z

	// halfword flags of the extended encoding
	KEY_HALF_X = 0x4
	KEY_HALF_Y = 0x2
	KEY_HALF_Z = 0x1
)

// Keyframe is a delta applied every frame for Hold frames.
type Keyframe struct {
	DX, DY, DZ int16
	Hold       uint32
}

func (k Keyframe) Delta() [3]int16 {
	return [3]int16{k.DX, k.DY, k.DZ}
}

// ReadKey decodes one keyframe. ok is false on the track terminator, in which
// case only the control byte was consumed.
func ReadKey(bs *utils.BufStack) (k Keyframe, ok bool, err error) {
	c, err := bs.ReadByte()
	if err != nil {
		return k, false, err
	}
	if c == KEY_END {
		return k, false, nil
	}

	code := int(c)
	if code&KEY_AXIS_MASK != 0 {
		k.Hold = uint32(code & 0x1f)
		if k.Hold == 0x1f {
			e, err := bs.ReadByte()
			if err != nil {
				return k, false, err
			}
			k.Hold = 0x20 + uint32(e)
		} else {
			k.Hold++
		}
	} else {
		k.Hold = uint32(code & 0x3)
		if k.Hold == 0x3 {
			e, err := bs.ReadByte()
			if err != nil {
				return k, false, err
			}
			k.Hold = 4 + uint32(e)
		} else {
			k.Hold++
		}

		// low bits of the control byte become the byte pass axis flags
		code <<= 3

		h, err := bs.ReadBI16()
		if err != nil {
			return k, false, err
		}
		switch {
		case h&KEY_HALF_X != 0:
			k.DX = h >> 3
			code &= KEY_AXIS_Y | KEY_AXIS_Z
			if h&KEY_HALF_Y != 0 {
				if k.DY, err = bs.ReadBI16(); err != nil {
					return k, false, err
				}
				code &= KEY_AXIS_X | KEY_AXIS_Z
			}
			if h&KEY_HALF_Z != 0 {
				if k.DZ, err = bs.ReadBI16(); err != nil {
					return k, false, err
				}
				code &= KEY_AXIS_X | KEY_AXIS_Y
			}
		case h&KEY_HALF_Y != 0:
			k.DY = h >> 3
			code &= KEY_AXIS_X | KEY_AXIS_Z
			if h&KEY_HALF_Z != 0 {
				if k.DZ, err = bs.ReadBI16(); err != nil {
					return k, false, err
				}
				code &= KEY_AXIS_X | KEY_AXIS_Y
			}
		case h&KEY_HALF_Z != 0:
			k.DZ = h >> 3
			code &= KEY_AXIS_X | KEY_AXIS_Y
		}
	}

	for _, axis := range []struct {
		flag int
		v    *int16
	}{{KEY_AXIS_X, &k.DX}, {KEY_AXIS_Y, &k.DY}, {KEY_AXIS_Z, &k.DZ}} {
		if code&axis.flag != 0 {
			b, err := bs.ReadI8()
			if err != nil {
				return k, false, err
			}
			*axis.v = int16(b)
		}
	}
	return k, true, nil
}

// ReadKeys reads a track until the terminator or until the holds cover
// length-1 frames. The result starts with the implicit zero keyframe.
func ReadKeys(bs *utils.BufStack, length uint16) ([]Keyframe, error) {
	keys := []Keyframe{{}}
	frames := 0
	for {
		k, ok, err := ReadKey(bs)
		if err != nil {
			return keys, err
		}
		if !ok {
			break
		}
		keys = append(keys, k)
		frames += int(k.Hold)
		if frames >= int(length)-1 {
			break
		}
	}
	return keys, nil
}

// ReadXYZ reads a big endian base pose triple.
func ReadXYZ(bs *utils.BufStack) ([3]int16, error) {
	var v [3]int16
	raw, err := bs.Read(6)
	if err != nil {
		return v, err
	}
	xyz := utils.NewBufStack("xyz", raw)
	for i := range v {
		v[i], _ = xyz.ReadBI16()
	}
	return v, nil
}
