// Package skeleton holds the bone hierarchy and vertex weighting shared by the
// SHP, WEP and ZUD character formats. Everything is index addressed: bones,
// groups and vertices live in flat slices owned by a Skeleton.
package skeleton

import (
	"fmt"

	"github.com/pkg/errors"
)

// VERTEX_RATIO converts raw fixed point coordinates into scene units.
const VERTEX_RATIO = 128

const (
	BONE_SIZE   = 16
	GROUP_SIZE  = 4
	VERTEX_SIZE = 8
)

var ErrBoneOutOfOrder = errors.New("bone parent is not materialized yet")

type Bone struct {
	Index       uint32
	Name        string
	Length      int32 // along the parent local axis
	ParentIndex int8  // >= bones count (or negative) for roots
	GroupId     int8
	MountId     int8
	BodyPartId  int8
	Mode        int8
	Unk         [3]uint8
}

type Group struct {
	BoneIndex   int16
	NumVertices uint32 // cumulative: last vertex index of this group + 1
}

type Vertex struct {
	X, Y, Z, W int16
	Group      int
}

type Skeleton struct {
	Bones    []Bone
	Groups   []Group
	Vertices []Vertex
}

func BoneName(index int) string {
	return fmt.Sprintf("bone_%d", index)
}

// NewSkeleton validates the hierarchy: every parent must precede its child.
func NewSkeleton(bones []Bone, groups []Group) (*Skeleton, error) {
	s := &Skeleton{Bones: bones, Groups: groups}
	for i := range bones {
		if err := s.checkParent(i); err != nil {
			return nil, err
		}
	}
	for i, g := range groups {
		if int(g.BoneIndex) < 0 || int(g.BoneIndex) >= len(bones) {
			return nil, errors.Errorf("group %d references bone %d of %d", i, g.BoneIndex, len(bones))
		}
		if i > 0 && g.NumVertices < groups[i-1].NumVertices {
			return nil, errors.Errorf("group %d vertex boundary %d is lower than previous %d",
				i, g.NumVertices, groups[i-1].NumVertices)
		}
	}
	return s, nil
}

func (s *Skeleton) checkParent(i int) error {
	p := int(s.Bones[i].ParentIndex)
	if p < 0 || p >= len(s.Bones) {
		return nil
	}
	if p >= i {
		return errors.Wrapf(ErrBoneOutOfOrder, "bone %d parent %d", i, p)
	}
	return nil
}

// Parent returns the parent bone index, false for roots.
func (s *Skeleton) Parent(i int) (int, bool) {
	p := int(s.Bones[i].ParentIndex)
	if p < 0 || p >= len(s.Bones) || p >= i {
		return -1, false
	}
	return p, true
}

// Decalage is the summed length of the parent chain of bone i.
func (s *Skeleton) Decalage(i int) int32 {
	var d int32
	for p, ok := s.Parent(i); ok; p, ok = s.Parent(p) {
		d += s.Bones[p].Length
	}
	return d
}

// GroupOfVertex returns the index of the first group whose boundary is past v.
func (s *Skeleton) GroupOfVertex(v int) (int, bool) {
	for i, g := range s.Groups {
		if uint32(v) < g.NumVertices {
			return i, true
		}
	}
	return -1, false
}

func (s *Skeleton) NumVertices() int {
	if len(s.Groups) == 0 {
		return 0
	}
	return int(s.Groups[len(s.Groups)-1].NumVertices)
}

// BoneOfVertex resolves vertex -> group -> bone.
func (s *Skeleton) BoneOfVertex(v int) (int, bool) {
	if v < 0 || v >= len(s.Vertices) {
		return -1, false
	}
	g := s.Vertices[v].Group
	if g < 0 || g >= len(s.Groups) {
		return -1, false
	}
	return int(s.Groups[g].BoneIndex), true
}

// RootSpaceX is the vertex x coordinate moved from bone space to skeleton
// root space.
func (s *Skeleton) RootSpaceX(v int) int32 {
	x := int32(s.Vertices[v].X)
	if b, ok := s.BoneOfVertex(v); ok {
		x -= s.Decalage(b)
	}
	return x
}

// BindOffset is the bone head offset from its parent head along X in scene
// units. Children of bone 0 sit on its head.
func (s *Skeleton) BindOffset(i int) float32 {
	p, ok := s.Parent(i)
	if !ok || p == 0 {
		return 0
	}
	return -float32(s.Bones[p].Length) / VERTEX_RATIO
}

// Children lists direct children of every bone.
func (s *Skeleton) Children() [][]int {
	childs := make([][]int, len(s.Bones))
	for i := range s.Bones {
		if p, ok := s.Parent(i); ok {
			childs[p] = append(childs[p], i)
		}
	}
	return childs
}

func (s *Skeleton) Roots() []int {
	roots := make([]int, 0, 1)
	for i := range s.Bones {
		if _, ok := s.Parent(i); !ok {
			roots = append(roots, i)
		}
	}
	return roots
}
