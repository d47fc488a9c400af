package seq

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

func TestRotationSamplesLinearity(t *testing.T) {
	base := [3]int16{3, -1, 0}
	keys := []Keyframe{{}, {DX: 2, DY: 1, Hold: 3}, {DX: -1, DZ: 4, Hold: 2}, {DY: -7, Hold: 1}}
	samples := RotationSamples(base, keys)
	if len(samples) != len(keys) {
		t.Fatalf("got %d samples; expected %d", len(samples), len(keys))
	}

	var frame uint32
	var expected [3]int64
	for i := range expected {
		expected[i] = int64(base[i]) * RotationBaseScale
	}
	for i, k := range keys {
		frame += k.Hold
		d := k.Delta()
		for a := range expected {
			expected[a] += int64(d[a]) * int64(k.Hold)
		}
		if s := samples[i]; s.Frame != frame || s.Raw != expected {
			t.Errorf("sample %d=(%d,%v); expected (%d,%v)", i, s.Frame, s.Raw, frame, expected)
		}
	}
	if last := samples[len(samples)-1].Raw; last != [3]int64{6 + 6 - 2, -2 + 3 - 7, 8} {
		t.Errorf("last sample %v; expected [10 -6 8]", last)
	}
}

func TestRotationUnits(t *testing.T) {
	for _, test := range []struct {
		raw int64
		rad float32
	}{
		{0, 0},
		{2048, math32.Pi / 2},
		{-4096, -math32.Pi},
		{8192, 2 * math32.Pi},
	} {
		r := RawToRadians([3]int64{test.raw, 0, 0})
		if !mgl32.FloatEqualThreshold(r[0], test.rad, 1e-5) {
			t.Errorf("RawToRadians(%d)=%v; expected %v", test.raw, r[0], test.rad)
		}
	}

	// base pose of 1024 doubles to a quarter turn around X
	s := RotationSamples([3]int16{1024, 0, 0}, []Keyframe{{}})
	q := mgl32.QuatRotate(math32.Pi/2, mgl32.Vec3{1, 0, 0})
	if !s[0].Quat.ApproxEqualThreshold(q, 1e-5) {
		t.Errorf("quat %v; expected %v", s[0].Quat, q)
	}
}

func TestTranslationSamples(t *testing.T) {
	samples := TranslationSamples([]Keyframe{{}, {DX: 64, Hold: 5}, {DY: -128, Hold: 1}, {DX: 128, DZ: -64, Hold: 2}})
	expected := []VectorSample{
		{0, mgl32.Vec3{0, 0, 0}},
		{5, mgl32.Vec3{2.5, 0, 0}},
		{6, mgl32.Vec3{2.5, -1, 0}},
		{8, mgl32.Vec3{4.5, -1, -1}},
	}
	if len(samples) != len(expected) {
		t.Fatalf("got %d samples; expected %d", len(samples), len(expected))
	}
	for i, e := range expected {
		if s := samples[i]; s.Frame != e.Frame || !s.Value.ApproxEqual(e.Value) {
			t.Errorf("sample %d=%+v; expected %+v", i, s, e)
		}
	}
}

func TestRotationSamplesLongHolds(t *testing.T) {
	keys := []Keyframe{{}, {DX: 32767, Hold: 65535}, {DX: 32767, Hold: 287}}
	samples := RotationSamples([3]int16{32767, 0, 0}, keys)
	expected := int64(32767)*RotationBaseScale + 32767*65535 + 32767*287
	if r := samples[2].Raw[0]; r != expected {
		t.Errorf("Raw[0]=%d; expected %d", r, expected)
	}
	if f := samples[2].Frame; f != 65535+287 {
		t.Errorf("Frame=%d; expected %d", f, 65535+287)
	}
}

func TestBuildPose(t *testing.T) {
	s, err := NewFromData("00_COM", twoClips().bytes(), 0, nil)
	if err != nil {
		t.Fatal(err)
	}

	c0, _ := s.DecodeClip(0)
	p := BuildPose(c0)
	if p.Name != "00_COM_Animation_0" || p.Length != 10 || len(p.Actions) != 1 {
		t.Errorf("unexpected pose %q length %d", p.Name, p.Length)
	}
	rot := p.Bones[0].Rotation
	if len(rot) != 2 || rot[0].Raw != [3]int64{200, 0, 0} || rot[1].Raw != [3]int64{220, 0, -12} || rot[1].Frame != 4 {
		t.Errorf("bone 0 rotation %+v", rot)
	}
	tr := p.Translation
	if len(tr) != 2 || tr[0].Value != (mgl32.Vec3{}) || tr[1].Frame != 5 || !tr[1].Value.ApproxEqual(mgl32.Vec3{2.5, 0, 0}) {
		t.Errorf("translation %+v; expected to start at the origin", tr)
	}
	for i, b := range p.Bones {
		if len(b.Scale) != 1 || b.Scale[0].Frame != 0 || b.Scale[0].Value != (mgl32.Vec3{1, 1, 1}) {
			t.Errorf("bone %d scale %+v; expected constant identity", i, b.Scale)
		}
	}
	if p.HasScale() {
		t.Errorf("clip 0 has no scale")
	}

	c1, _ := s.DecodeClip(1)
	p = BuildPose(c1)
	if !p.HasScale() {
		t.Errorf("clip 1 has scale")
	}
	if sc := p.Bones[0].Scale; len(sc) != 2 || sc[1].Value != (mgl32.Vec3{2, 2, 3}) || sc[1].Frame != 1 {
		t.Errorf("bone 0 scale %+v", sc)
	}
}
