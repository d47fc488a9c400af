// Package seq decodes SEQ skeletal animation banks: a header, one record per
// clip and a payload of delta compressed rotation, translation and scale
// tracks plus an action track per clip. Records are parsed eagerly, payload
// is decoded per clip on demand.
package seq

import (
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/mogaika/vagrant_story_browser/pack"
	"github.com/mogaika/vagrant_story_browser/utils"
)

var ErrBadAnimationRef = errors.New("shared pose references a missing clip")

type SEQ struct {
	Name       string
	Header     Header
	Animations []Animation
	Slots      []int8

	data []byte
	root *utils.BufStack
	log  *utils.Logger
}

// BoneTrack is the raw rotation and scale payload of one bone in one clip.
type BoneTrack struct {
	BaseRotation [3]int16
	RotationKeys []Keyframe
	HasBaseScale bool
	BaseScale    [3]uint8
	ScaleKeys    []Keyframe

	// set when the track could not be decoded, the bone then has no samples
	Err error `json:"-" yaml:"-"`
}

type Clip struct {
	Index     int
	Name      string
	Animation *Animation

	BaseTranslation [3]int16
	TranslationKeys []Keyframe
	TranslationErr  error `json:"-" yaml:"-"`

	Actions    []Action
	ActionsEnd ActionsEnd
	ActionsErr error `json:"-" yaml:"-"`

	Bones []BoneTrack
}

// Problems lists every track that failed to decode.
func (c *Clip) Problems() []error {
	problems := make([]error, 0)
	if c.TranslationErr != nil {
		problems = append(problems, errors.Wrapf(c.TranslationErr, "translation"))
	}
	if c.ActionsErr != nil {
		problems = append(problems, errors.Wrapf(c.ActionsErr, "actions"))
	}
	for i := range c.Bones {
		if err := c.Bones[i].Err; err != nil {
			problems = append(problems, errors.Wrapf(err, "bone %d", i))
		}
	}
	return problems
}

// NewFromData parses the SEQ header found at baseOffset of data and all of
// its clip records. data may be a whole container with the SEQ embedded.
func NewFromData(name string, data []byte, baseOffset int, l *utils.Logger) (*SEQ, error) {
	s := &SEQ{Name: name, data: data, log: l}
	s.root = utils.NewBufStack("seq", data).SetName(name)

	bs := s.cursor("seq")
	if err := bs.Seek(baseOffset); err != nil {
		return nil, errors.Wrapf(err, "seq %q base", name)
	}

	var err error
	if s.Header, err = readHeader(bs, l); err != nil {
		return nil, errors.Wrapf(err, "seq %q", name)
	}

	s.Animations = make([]Animation, s.Header.NumAnimations)
	for i := range s.Animations {
		if s.Animations[i], err = readAnimation(bs, i, int(s.Header.NumBones)); err != nil {
			return nil, errors.Wrapf(err, "seq %q", name)
		}
		a := &s.Animations[i]
		l.Printf("[seq] animation %d: length %d other %d scale flags 0x%x actions 0x%x translation 0x%x move 0x%x",
			i, a.Length, a.IdOtherAnimation, a.ScaleFlags, a.PtrActions, a.PtrTranslation, a.PtrMove)
	}

	s.Slots = make([]int8, s.Header.NumSlots)
	for i := range s.Slots {
		if s.Slots[i], err = bs.ReadI8(); err != nil {
			return nil, errors.Wrapf(err, "seq %q slot %d", name, i)
		}
	}
	return s, nil
}

func (s *SEQ) cursor(kind string) *utils.BufStack {
	return s.root.Clone(kind)
}

func (s *SEQ) ClipName(index int) string {
	return s.Name + "_Animation_" + strconv.Itoa(index)
}

// DecodeClip reads the payload of one clip. It only fails when the record
// itself is unusable, track failures are recorded on the clip.
func (s *SEQ) DecodeClip(index int) (*Clip, error) {
	if index < 0 || index >= len(s.Animations) {
		return nil, errors.Errorf("seq %q: clip %d out of range [0,%d)", s.Name, index, len(s.Animations))
	}
	a := &s.Animations[index]

	poseOwner := a
	if a.SharesPose() {
		o := int(a.IdOtherAnimation)
		if o < 0 || o >= len(s.Animations) {
			return nil, errors.Wrapf(ErrBadAnimationRef, "seq %q: clip %d references clip %d of %d",
				s.Name, index, o, len(s.Animations))
		}
		poseOwner = &s.Animations[o]
	}

	c := &Clip{
		Index:     index,
		Name:      s.ClipName(index),
		Animation: a,
		Bones:     make([]BoneTrack, s.Header.NumBones),
	}
	bs := s.cursor("clip")

	c.TranslationErr = s.decodeTranslation(bs, c)

	if a.PtrActions > 0 {
		if err := bs.Seek(s.Header.Resolve(a.PtrActions)); err != nil {
			c.ActionsErr = err
		} else {
			c.Actions, c.ActionsEnd, c.ActionsErr = ReadActions(bs, a.Length, s.log)
		}
	}

	for i := range c.Bones {
		bt := &c.Bones[i]
		if err := s.decodeRotation(bs, a, poseOwner, i, bt); err != nil {
			pos := s.Header.Resolve(a.PtrBones[i])
			bt.Err = errors.Wrapf(err, "rotation at 0x%x [%s]", pos, utils.HexWindow(s.data, pos, 8))
			continue
		}
		if err := s.decodeScale(bs, a, i, bt); err != nil {
			bt.Err = errors.Wrapf(err, "scale")
		}
	}

	for _, p := range c.Problems() {
		s.log.Printf("[seq] %s: %v", c.Name, p)
	}
	return c, nil
}

func (s *SEQ) decodeTranslation(bs *utils.BufStack, c *Clip) error {
	if err := bs.Seek(s.Header.Resolve(c.Animation.PtrTranslation)); err != nil {
		return err
	}
	var err error
	if c.BaseTranslation, err = ReadXYZ(bs); err != nil {
		return err
	}
	c.TranslationKeys, err = ReadKeys(bs, c.Animation.Length)
	return err
}

// decodeRotation reads the base pose from the pose owner and the keys from
// the clip itself. Both are the same record unless the pose is shared.
func (s *SEQ) decodeRotation(bs *utils.BufStack, a, poseOwner *Animation, bone int, bt *BoneTrack) error {
	if err := bs.Seek(s.Header.Resolve(poseOwner.PtrBones[bone])); err != nil {
		return err
	}
	var err error
	if bt.BaseRotation, err = ReadXYZ(bs); err != nil {
		return err
	}
	if poseOwner != a {
		if err := bs.Seek(s.Header.Resolve(a.PtrBones[bone])); err != nil {
			return err
		}
	}
	bt.RotationKeys, err = ReadKeys(bs, a.Length)
	return err
}

func (s *SEQ) decodeScale(bs *utils.BufStack, a *Animation, bone int, bt *BoneTrack) error {
	bt.BaseScale = [3]uint8{1, 1, 1}
	bt.ScaleKeys = []Keyframe{{}}
	if a.ScaleFlags&(SCALE_FLAG_BASE|SCALE_FLAG_KEYS) == 0 {
		return nil
	}

	if err := bs.Seek(s.Header.Resolve(a.PtrBonesScale[bone])); err != nil {
		return err
	}
	if a.ScaleFlags&SCALE_FLAG_BASE != 0 {
		raw, err := bs.Read(3)
		if err != nil {
			return err
		}
		copy(bt.BaseScale[:], raw)
		bt.HasBaseScale = true
	}
	if a.ScaleFlags&SCALE_FLAG_KEYS != 0 {
		var err error
		if bt.ScaleKeys, err = ReadKeys(bs, a.Length); err != nil {
			return err
		}
	}
	return nil
}

// DecodeAll decodes every clip using workers goroutines, each clip with its
// own cursor. Clips are returned in record order, nil where decoding failed.
func (s *SEQ) DecodeAll(workers int) ([]*Clip, error) {
	if workers < 1 {
		workers = 1
	}
	clips := make([]*Clip, len(s.Animations))
	errs := make([]error, len(s.Animations))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				clips[i], errs[i] = s.DecodeClip(i)
			}
		}()
	}
	for i := range clips {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return clips, err
		}
	}
	return clips, nil
}

func init() {
	pack.SetHandler(".SEQ", func(d *pack.Directory, name string, data []byte) (interface{}, error) {
		return NewFromData(strings.TrimSuffix(name, filepath.Ext(name)), data, 0, d.Trace())
	})
}
