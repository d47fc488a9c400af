package seq

import (
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/vagrant_story_browser/pack/skeleton"
)

type ExportOptions struct {
	Framerate     float32
	Interpolation string // LINEAR or STEP
	Translation   bool   // animate the root node
}

func DefaultExportOptions() ExportOptions {
	return ExportOptions{Framerate: 25, Interpolation: "LINEAR", Translation: false}
}

func (o ExportOptions) interpolation() gltf.Interpolation {
	if o.Interpolation == "STEP" {
		return gltf.InterpolationStep
	}
	return gltf.InterpolationLinear
}

type GLTFSkeletonExported struct {
	RootNode  uint32
	BoneNodes []uint32
}

// ExportGLTFSkeleton adds one node per bone under a root node. Without a
// skeleton the bones are flat children of the root.
func (s *SEQ) ExportGLTFSkeleton(doc *gltf.Document, skel *skeleton.Skeleton) (*GLTFSkeletonExported, error) {
	numBones := int(s.Header.NumBones)
	if skel != nil && len(skel.Bones) != numBones {
		return nil, errors.Errorf("skeleton has %d bones, %q animates %d", len(skel.Bones), s.Name, numBones)
	}

	e := &GLTFSkeletonExported{
		RootNode:  uint32(len(doc.Nodes)),
		BoneNodes: make([]uint32, numBones),
	}
	root := &gltf.Node{
		Name:     s.Name,
		Rotation: [4]float32{0, 0, 0, 1},
		Scale:    [3]float32{1, 1, 1},
	}
	doc.Nodes = append(doc.Nodes, root)

	for i := range e.BoneNodes {
		node := &gltf.Node{
			Name:     skeleton.BoneName(i),
			Rotation: [4]float32{0, 0, 0, 1},
			Scale:    [3]float32{1, 1, 1},
		}
		if skel != nil {
			node.Translation = [3]float32{skel.BindOffset(i), 0, 0}
		}
		e.BoneNodes[i] = uint32(len(doc.Nodes))
		doc.Nodes = append(doc.Nodes, node)
	}

	if skel == nil {
		root.Children = append(root.Children, e.BoneNodes...)
		return e, nil
	}
	for _, r := range skel.Roots() {
		root.Children = append(root.Children, e.BoneNodes[r])
	}
	for parent, childs := range skel.Children() {
		for _, c := range childs {
			doc.Nodes[e.BoneNodes[parent]].Children = append(doc.Nodes[e.BoneNodes[parent]].Children, e.BoneNodes[c])
		}
	}
	return e, nil
}

// timeAccessor writes the sampler input. Frames are ascending, min and max
// are the first and last time.
func (o ExportOptions) timeAccessor(doc *gltf.Document, frames []uint32) uint32 {
	times := make([]float32, len(frames))
	for i, f := range frames {
		times[i] = float32(f) / o.Framerate
	}
	input := modeler.WriteAccessor(doc, gltf.TargetNone, times)
	doc.Accessors[input].Min = []float32{times[0]}
	doc.Accessors[input].Max = []float32{times[len(times)-1]}
	return input
}

func addChannel(doc *gltf.Document, anim *gltf.Animation, node uint32, path gltf.TRSProperty,
	interpolation gltf.Interpolation, input uint32, output interface{}) {
	sampler := &gltf.AnimationSampler{
		Input:         gltf.Index(input),
		Interpolation: interpolation,
		Output:        gltf.Index(modeler.WriteAccessor(doc, gltf.TargetNone, output)),
	}
	anim.Samplers = append(anim.Samplers, sampler)
	anim.Channels = append(anim.Channels, &gltf.Channel{
		Sampler: gltf.Index(uint32(len(anim.Samplers) - 1)),
		Target: gltf.ChannelTarget{
			Node: gltf.Index(node),
			Path: path,
		},
	})
}

func vectorOutput(samples []VectorSample) ([]uint32, [][3]float32) {
	frames := make([]uint32, len(samples))
	values := make([][3]float32, len(samples))
	for i, s := range samples {
		frames[i] = s.Frame
		values[i] = s.Value
	}
	return frames, values
}

// ExportGLTFAnimation appends the pose of one clip as a glTF animation
// targeting the nodes created by ExportGLTFSkeleton.
func (o ExportOptions) ExportGLTFAnimation(doc *gltf.Document, e *GLTFSkeletonExported, p *Pose) error {
	if o.Framerate <= 0 {
		return errors.Errorf("invalid framerate %v", o.Framerate)
	}
	if len(p.Bones) != len(e.BoneNodes) {
		return errors.Errorf("pose %q has %d bones, skeleton %d", p.Name, len(p.Bones), len(e.BoneNodes))
	}
	anim := &gltf.Animation{Name: p.Name}
	interpolation := o.interpolation()

	for i, bp := range p.Bones {
		if len(bp.Rotation) == 0 {
			continue
		}
		frames := make([]uint32, len(bp.Rotation))
		quats := make([][4]float32, len(bp.Rotation))
		for j, s := range bp.Rotation {
			frames[j] = s.Frame
			quats[j] = s.Quat.V.Vec4(s.Quat.W)
		}
		input := o.timeAccessor(doc, frames)
		addChannel(doc, anim, e.BoneNodes[i], gltf.TRSRotation, interpolation, input, quats)
	}

	if p.HasScale() {
		for i, bp := range p.Bones {
			if len(bp.Scale) == 0 {
				continue
			}
			frames, values := vectorOutput(bp.Scale)
			input := o.timeAccessor(doc, frames)
			addChannel(doc, anim, e.BoneNodes[i], gltf.TRSScale, interpolation, input, values)
		}
	}

	if o.Translation && len(p.Translation) != 0 {
		frames, values := vectorOutput(p.Translation)
		input := o.timeAccessor(doc, frames)
		addChannel(doc, anim, e.RootNode, gltf.TRSTranslation, interpolation, input, values)
	}

	if len(anim.Channels) == 0 {
		return errors.Errorf("pose %q has nothing to animate", p.Name)
	}
	doc.Animations = append(doc.Animations, anim)
	return nil
}

// ExportGLTF builds a document with the skeleton and every listed clip.
// Clips that fail to decode are skipped and reported in the returned error
// list.
func (s *SEQ) ExportGLTF(skel *skeleton.Skeleton, clips []int, o ExportOptions) (*gltf.Document, []error, error) {
	doc := gltf.NewDocument()
	e, err := s.ExportGLTFSkeleton(doc, skel)
	if err != nil {
		return nil, nil, err
	}

	problems := make([]error, 0)
	for _, i := range clips {
		c, err := s.DecodeClip(i)
		if err != nil {
			problems = append(problems, err)
			continue
		}
		problems = append(problems, c.Problems()...)
		if err := o.ExportGLTFAnimation(doc, e, BuildPose(c)); err != nil {
			problems = append(problems, err)
		}
	}
	return doc, problems, nil
}

func (s *SEQ) AllClips() []int {
	clips := make([]int, len(s.Animations))
	for i := range clips {
		clips[i] = i
	}
	return clips
}
