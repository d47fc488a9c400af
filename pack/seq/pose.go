package seq

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/vagrant_story_browser/pack/skeleton"
	"github.com/mogaika/vagrant_story_browser/utils"
)

// Rotation fixed point. Both values come from matching in game motion and
// are not confirmed by any format documentation.
const (
	RotationBaseScale = 2
	RotationUnit      = math32.Pi / 4096
)

type RotationSample struct {
	Frame   uint32
	Raw     [3]int64
	Radians mgl32.Vec3
	Quat    mgl32.Quat
}

type VectorSample struct {
	Frame uint32
	Value mgl32.Vec3
}

type BonePose struct {
	Rotation []RotationSample
	Scale    []VectorSample
}

// Pose holds keyed samples only, interpolation is up to the consumer.
type Pose struct {
	Name        string
	Index       int
	Length      uint16
	Bones       []BonePose
	Translation []VectorSample
	Actions     []Action
}

func RawToRadians(raw [3]int64) mgl32.Vec3 {
	return mgl32.Vec3{
		float32(raw[0]) * RotationUnit,
		float32(raw[1]) * RotationUnit,
		float32(raw[2]) * RotationUnit,
	}
}

// RotationSamples accumulates r = base*2 + sum(delta*hold), one sample per key.
func RotationSamples(base [3]int16, keys []Keyframe) []RotationSample {
	samples := make([]RotationSample, 0, len(keys))
	var r [3]int64
	for i := range r {
		r[i] = int64(base[i]) * RotationBaseScale
	}
	var t uint32
	for _, k := range keys {
		t += k.Hold
		d := k.Delta()
		for i := range r {
			r[i] += int64(d[i]) * int64(k.Hold)
		}
		rad := RawToRadians(r)
		samples = append(samples, RotationSample{
			Frame:   t,
			Raw:     r,
			Radians: rad,
			Quat:    utils.EulerToQuat(rad),
		})
	}
	return samples
}

func vectorSamples(base mgl32.Vec3, unit float32, keys []Keyframe) []VectorSample {
	samples := make([]VectorSample, 0, len(keys))
	v := base
	var t uint32
	for _, k := range keys {
		t += k.Hold
		d := k.Delta()
		hold := float32(k.Hold)
		for i := range v {
			v[i] += float32(d[i]) / unit * hold
		}
		samples = append(samples, VectorSample{Frame: t, Value: v})
	}
	return samples
}

// TranslationSamples works in scene units. The curve starts at the origin,
// the base triple stays raw data on the clip.
func TranslationSamples(keys []Keyframe) []VectorSample {
	return vectorSamples(mgl32.Vec3{}, skeleton.VERTEX_RATIO, keys)
}

func ScaleSamples(base [3]uint8, keys []Keyframe) []VectorSample {
	b := mgl32.Vec3{float32(base[0]), float32(base[1]), float32(base[2])}
	return vectorSamples(b, 1, keys)
}

// BuildPose folds the clip tracks into absolute samples. Bones whose track
// failed to decode get no samples.
func BuildPose(c *Clip) *Pose {
	p := &Pose{
		Name:    c.Name,
		Index:   c.Index,
		Length:  c.Animation.Length,
		Bones:   make([]BonePose, len(c.Bones)),
		Actions: c.Actions,
	}
	if c.TranslationErr == nil {
		p.Translation = TranslationSamples(c.TranslationKeys)
	} else {
		p.Translation = []VectorSample{}
	}

	for i := range c.Bones {
		bt := &c.Bones[i]
		bp := &p.Bones[i]
		if bt.Err != nil {
			bp.Rotation = []RotationSample{}
			bp.Scale = []VectorSample{}
			continue
		}
		bp.Rotation = RotationSamples(bt.BaseRotation, bt.RotationKeys)
		if c.Animation.ScaleFlags&(SCALE_FLAG_BASE|SCALE_FLAG_KEYS) == 0 {
			bp.Scale = []VectorSample{{Frame: 0, Value: mgl32.Vec3{1, 1, 1}}}
		} else {
			bp.Scale = ScaleSamples(bt.BaseScale, bt.ScaleKeys)
		}
	}
	return p
}

// HasScale reports whether any bone scale differs from identity.
func (p *Pose) HasScale() bool {
	for _, b := range p.Bones {
		for _, s := range b.Scale {
			if s.Value != (mgl32.Vec3{1, 1, 1}) {
				return true
			}
		}
	}
	return false
}
