package skeleton

import (
	"github.com/pkg/errors"

	"github.com/mogaika/vagrant_story_browser/utils"
)

func readBone(bs *utils.BufStack, index int) (Bone, error) {
	b := Bone{Index: uint32(index), Name: BoneName(index)}

	raw, err := bs.Read(BONE_SIZE)
	if err != nil {
		return b, errors.Wrapf(err, "bone %d", index)
	}
	sub := utils.NewBufStack("bone", raw)
	b.Length, _ = sub.ReadLI32()
	for _, v := range []*int8{&b.ParentIndex, &b.GroupId, &b.MountId, &b.BodyPartId, &b.Mode} {
		*v, _ = sub.ReadI8()
	}
	copy(b.Unk[:], raw[9:12])
	// 4 bytes of padding
	return b, nil
}

// ParseBones reads count 16 byte bone records. Parents must come first.
func ParseBones(bs *utils.BufStack, count int, l *utils.Logger) ([]Bone, error) {
	bones := make([]Bone, 0, count)
	for i := 0; i < count; i++ {
		b, err := readBone(bs, i)
		if err != nil {
			return nil, err
		}
		if p := int(b.ParentIndex); p >= 0 && p < count && p >= i {
			return nil, errors.Wrapf(ErrBoneOutOfOrder, "bone %d parent %d", i, p)
		}
		l.Printf("[skeleton] bone %d: length %d parent %d group %d mount %d part %d mode %d unk %v",
			i, b.Length, b.ParentIndex, b.GroupId, b.MountId, b.BodyPartId, b.Mode, b.Unk)
		bones = append(bones, b)
	}
	return bones, nil
}

func ParseGroups(bs *utils.BufStack, count int, l *utils.Logger) ([]Group, error) {
	groups := make([]Group, count)
	for i := range groups {
		boneIndex, err := bs.ReadLI16()
		if err != nil {
			return nil, errors.Wrapf(err, "group %d", i)
		}
		numVertices, err := bs.ReadLU16()
		if err != nil {
			return nil, errors.Wrapf(err, "group %d", i)
		}
		groups[i] = Group{BoneIndex: boneIndex, NumVertices: uint32(numVertices)}
		l.Printf("[skeleton] group %d: bone %d vertices <%d", i, boneIndex, numVertices)
	}
	return groups, nil
}

// ParseVertices reads the vertex list that the groups of s partition.
func (s *Skeleton) ParseVertices(bs *utils.BufStack) error {
	count := s.NumVertices()
	s.Vertices = make([]Vertex, count)

	g := 0
	for i := range s.Vertices {
		for g < len(s.Groups) && uint32(i) >= s.Groups[g].NumVertices {
			g++
		}
		raw, err := bs.Read(VERTEX_SIZE)
		if err != nil {
			return errors.Wrapf(err, "vertex %d of %d", i, count)
		}
		v := utils.NewBufStack("vertex", raw)
		vx := &s.Vertices[i]
		vx.X, _ = v.ReadLI16()
		vx.Y, _ = v.ReadLI16()
		vx.Z, _ = v.ReadLI16()
		vx.W, _ = v.ReadLI16()
		vx.Group = g
	}
	return nil
}
