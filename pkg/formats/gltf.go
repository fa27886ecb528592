package formats

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/meshmerge/pkg/mesh"
)

// glTF format errors.
var (
	ErrMalformedGLTF = errors.New("malformed glTF")
)

// DecodeGLTF reads triangle geometry from a glTF 2.0 document (JSON with embedded
// buffers, or GLB). Meshes reachable from the default scene are concatenated in
// node order, each mesh once. Node transforms are not applied. Primitives that are
// not triangle lists are skipped.
func DecodeGLTF(data []byte) (*mesh.Mesh, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedGLTF, err)
	}

	out := &mesh.Mesh{
		Positions: []mgl64.Vec3{},
		Normals:   []mgl64.Vec3{},
		Faces:     []mesh.Face{},
	}
	for _, mi := range sceneMeshes(doc) {
		if int(mi) >= len(doc.Meshes) {
			return nil, fmt.Errorf("%w: node references mesh %d of %d", ErrMalformedGLTF, mi, len(doc.Meshes))
		}
		gm := doc.Meshes[mi]
		for pi, prim := range gm.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				continue
			}
			if err := appendPrimitive(doc, prim, out); err != nil {
				return nil, fmt.Errorf("mesh %q primitive %d: %w", gm.Name, pi, err)
			}
		}
	}
	return out, nil
}

// sceneMeshes lists mesh indices in depth-first node order of the default scene.
// Documents without scenes contribute all meshes.
func sceneMeshes(doc *gltf.Document) []uint32 {
	if len(doc.Scenes) == 0 {
		all := make([]uint32, len(doc.Meshes))
		for i := range all {
			all[i] = uint32(i)
		}
		return all
	}

	scene := doc.Scenes[0]
	if doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes) {
		scene = doc.Scenes[*doc.Scene]
	}

	var out []uint32
	seen := make(map[uint32]bool)
	visited := make(map[uint32]bool)
	var walk func(ni uint32)
	walk = func(ni uint32) {
		if int(ni) >= len(doc.Nodes) || visited[ni] {
			return
		}
		visited[ni] = true
		node := doc.Nodes[ni]
		if node.Mesh != nil && !seen[*node.Mesh] {
			seen[*node.Mesh] = true
			out = append(out, *node.Mesh)
		}
		for _, child := range node.Children {
			walk(child)
		}
	}
	for _, ni := range scene.Nodes {
		walk(ni)
	}
	return out
}

func appendPrimitive(doc *gltf.Document, prim *gltf.Primitive, out *mesh.Mesh) error {
	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return fmt.Errorf("%w: no POSITION attribute", ErrMalformedGLTF)
	}
	posAcc, err := accessor(doc, posIdx)
	if err != nil {
		return err
	}
	positions, err := modeler.ReadPosition(doc, posAcc, nil)
	if err != nil {
		return fmt.Errorf("%w: reading positions: %v", ErrMalformedGLTF, err)
	}

	var normals [][3]float32
	if nIdx, ok := prim.Attributes["NORMAL"]; ok {
		nAcc, err := accessor(doc, nIdx)
		if err != nil {
			return err
		}
		if normals, err = modeler.ReadNormal(doc, nAcc, nil); err != nil {
			return fmt.Errorf("%w: reading normals: %v", ErrMalformedGLTF, err)
		}
		if len(normals) != len(positions) {
			return fmt.Errorf("%w: %d normals for %d positions", ErrMalformedGLTF, len(normals), len(positions))
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		iAcc, err := accessor(doc, *prim.Indices)
		if err != nil {
			return err
		}
		if indices, err = modeler.ReadIndices(doc, iAcc, nil); err != nil {
			return fmt.Errorf("%w: reading indices: %v", ErrMalformedGLTF, err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	if len(indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices is not a triangle list", ErrMalformedGLTF, len(indices))
	}

	local := make([]mgl64.Vec3, len(positions))
	for i, p := range positions {
		local[i] = mgl64.Vec3{float64(p[0]), float64(p[1]), float64(p[2])}
	}
	faces := make([]mesh.Face, len(indices)/3)
	for i := range faces {
		faces[i] = mesh.Face{int(indices[3*i]), int(indices[3*i+1]), int(indices[3*i+2])}
	}

	var localNormals []mgl64.Vec3
	if normals != nil {
		localNormals = make([]mgl64.Vec3, len(normals))
		for i, n := range normals {
			localNormals[i] = mgl64.Vec3{float64(n[0]), float64(n[1]), float64(n[2])}
		}
	} else {
		localNormals = mesh.ComputeNormals(local, faces)
	}

	base := len(out.Positions)
	out.Positions = append(out.Positions, local...)
	out.Normals = append(out.Normals, localNormals...)
	for _, f := range faces {
		out.Faces = append(out.Faces, mesh.Face{f[0] + base, f[1] + base, f[2] + base})
	}
	return nil
}

func accessor(doc *gltf.Document, idx uint32) (*gltf.Accessor, error) {
	if int(idx) >= len(doc.Accessors) {
		return nil, fmt.Errorf("%w: accessor %d of %d", ErrMalformedGLTF, idx, len(doc.Accessors))
	}
	return doc.Accessors[idx], nil
}

// EncodeGLTF writes m as a single-mesh glTF document. With binary set the output is
// a GLB container; otherwise JSON with the buffer embedded as a data URI.
// Coordinates are stored as float32 as the format requires.
func EncodeGLTF(w io.Writer, m *mesh.Mesh, binary bool) error {
	if err := m.Validate(-1); err != nil {
		return err
	}

	doc := gltf.NewDocument()
	if len(m.Positions) > 0 {
		positions := make([][3]float32, len(m.Positions))
		for i, p := range m.Positions {
			positions[i] = [3]float32{float32(p[0]), float32(p[1]), float32(p[2])}
		}
		normals := make([][3]float32, len(m.Normals))
		for i, n := range m.Normals {
			normals[i] = [3]float32{float32(n[0]), float32(n[1]), float32(n[2])}
		}

		prim := &gltf.Primitive{
			Mode: gltf.PrimitiveTriangles,
			Attributes: gltf.Attribute{
				"POSITION": modeler.WritePosition(doc, positions),
				"NORMAL":   modeler.WriteNormal(doc, normals),
			},
		}
		if len(m.Faces) > 0 {
			indices := make([]uint32, 0, 3*len(m.Faces))
			for _, f := range m.Faces {
				indices = append(indices, uint32(f[0]), uint32(f[1]), uint32(f[2]))
			}
			prim.Indices = gltf.Index(modeler.WriteIndices(doc, indices))
		}

		doc.Meshes = append(doc.Meshes, &gltf.Mesh{
			Name:       "merged",
			Primitives: []*gltf.Primitive{prim},
		})
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name: "merged",
			Mesh: gltf.Index(0),
		})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

		if !binary {
			for _, b := range doc.Buffers {
				b.EmbeddedResource()
			}
		}
	}

	enc := gltf.NewEncoder(w)
	enc.AsBinary = binary
	return enc.Encode(doc)
}
