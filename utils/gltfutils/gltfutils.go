package gltfutils

import (
	"io"

	"github.com/qmuntal/gltf"
)

// ExportBinary puts every node that is nobody's child into the default
// scene and writes the document as glb.
func ExportBinary(w io.Writer, doc *gltf.Document) error {
	if len(doc.Scenes) == 0 {
		doc.Scenes = append(doc.Scenes, &gltf.Scene{Name: "Root Scene"})
		doc.Scene = gltf.Index(0)
	}
	doc.Scenes[0].Nodes = RootNodes(doc)

	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	return encoder.Encode(doc)
}

func RootNodes(doc *gltf.Document) []uint32 {
	isChild := make([]bool, len(doc.Nodes))
	for _, node := range doc.Nodes {
		for _, child := range node.Children {
			isChild[child] = true
		}
	}
	roots := make([]uint32, 0)
	for iNode := range doc.Nodes {
		if !isChild[iNode] {
			roots = append(roots, uint32(iNode))
		}
	}
	return roots
}
