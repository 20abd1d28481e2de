package sink

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/matzehuels/crosssection/pkg/chart"
	"github.com/matzehuels/crosssection/pkg/core/geometry"
	"github.com/matzehuels/crosssection/pkg/errors"
)

// DefaultMeshCells is the marching cubes resolution along the longest side
// of a segment.
const DefaultMeshCells = 128

const (
	// minWallCells is the number of marching cubes cells a ring wall and
	// the layer height must span.
	minWallCells = 3
	// minAnnulusSteps is the angular resolution of rings built from radii.
	minAnnulusSteps = 64
)

// Mesh is the triangulated solid of one disk segment.
type Mesh struct {
	Name     string    `json:"name"`
	Color    string    `json:"color"`
	Chart    int       `json:"chart"`
	Layer    int       `json:"layer"`
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// MeshOption configures solid extrusion.
type MeshOption func(*meshBuilder)

type meshBuilder struct {
	layerHeight float64
	layerGap    float64
	cells       int
}

// WithLayerHeight sets the thickness of each disk layer. The default is 5%
// of the scene bound.
func WithLayerHeight(h float64) MeshOption { return func(b *meshBuilder) { b.layerHeight = h } }

// WithLayerGap sets the vertical gap between stacked layers (default 0).
func WithLayerGap(g float64) MeshOption { return func(b *meshBuilder) { b.layerGap = g } }

// WithMeshCells sets the marching cubes resolution.
func WithMeshCells(n int) MeshOption { return func(b *meshBuilder) { b.cells = n } }

// BuildMeshes extrudes every non-root segment into a ring solid and
// triangulates it. Each group of siblings becomes one layer, stacked in
// pre-order along Z, so the layers of the stack are the cross-sections of
// the tree. Zero-thickness segments produce no mesh.
func BuildMeshes(s *chart.Scene, opts ...MeshOption) ([]Mesh, error) {
	b := meshBuilder{layerHeight: s.Bound * 0.05, cells: DefaultMeshCells}
	for _, opt := range opts {
		opt(&b)
	}
	if b.layerHeight <= 0 || b.cells <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "layer height and mesh cells must be positive")
	}

	var meshes []Mesh
	for ci, c := range s.Charts {
		layers := groupLayers(c.Segments)
		for _, seg := range c.Segments {
			if seg.Root || seg.Thickness() <= 0 {
				continue
			}
			layer := layers[seg.Parent]
			z := float64(layer) * (b.layerHeight + b.layerGap)
			m, err := b.extrude(seg, z)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "extrude %q", seg.Name())
			}
			if m.TriangleCount() == 0 {
				return nil, errors.New(errors.ErrCodeInternal, "extrude %q: no triangles", seg.Name())
			}
			m.Name, m.Color, m.Chart, m.Layer = seg.Name(), seg.ColorKey, ci, layer
			meshes = append(meshes, m)
		}
	}
	return meshes, nil
}

// groupLayers gives every sibling group its own layer, keyed by the index
// of the parent segment and numbered in pre-order of the parents.
func groupLayers(segs []geometry.DiskSegment) map[int]int {
	layers := make(map[int]int)
	for _, seg := range segs {
		if seg.Parent < 0 {
			continue
		}
		if _, ok := layers[seg.Parent]; !ok {
			layers[seg.Parent] = len(layers)
		}
	}
	return layers
}

func ringSolid(seg geometry.DiskSegment, height, z float64) (sdf.SDF3, error) {
	solid, err := sdf.Cylinder3D(height, seg.OuterRadius, 0)
	if err != nil {
		return nil, err
	}
	if seg.InnerRadius > 0 {
		hole, err := sdf.Cylinder3D(height*2, seg.InnerRadius, 0)
		if err != nil {
			return nil, err
		}
		solid = sdf.Difference3D(solid, hole)
	}
	return sdf.Transform3D(solid, sdf.Translate3d(v3.Vec{X: 0, Y: 0, Z: z + height/2})), nil
}

// extrude triangulates one ring. Marching cubes needs several cells across
// every wall; a ring thinner than that would vanish between samples, so it
// is built directly from its radii instead.
func (b meshBuilder) extrude(seg geometry.DiskSegment, z float64) (Mesh, error) {
	cell := math.Max(2*seg.OuterRadius, b.layerHeight) / float64(b.cells)
	if seg.Thickness() < minWallCells*cell || b.layerHeight < minWallCells*cell {
		return toMesh(annulus(seg.InnerRadius, seg.OuterRadius, z, z+b.layerHeight, b.cells)), nil
	}
	solid, err := ringSolid(seg, b.layerHeight, z)
	if err != nil {
		return Mesh{}, err
	}
	return toMesh(render.ToTriangles(solid, render.NewMarchingCubesUniform(b.cells))), nil
}

// annulus returns the closed surface of the ring between radii r0 < r1 and
// heights z0 < z1, split into steps angular sectors, with outward normals.
// A zero inner radius gives a solid disk.
func annulus(r0, r1, z0, z1 float64, steps int) []*sdf.Triangle3 {
	steps = max(steps, minAnnulusSteps)
	at := func(r, theta, z float64) v3.Vec {
		return v3.Vec{X: r * math.Cos(theta), Y: r * math.Sin(theta), Z: z}
	}
	var out []*sdf.Triangle3
	quad := func(a, b, c, d v3.Vec) {
		out = append(out, &sdf.Triangle3{a, b, c}, &sdf.Triangle3{a, c, d})
	}

	for i := 0; i < steps; i++ {
		t0 := 2 * math.Pi * float64(i) / float64(steps)
		t1 := 2 * math.Pi * float64(i+1) / float64(steps)

		quad(at(r1, t0, z0), at(r1, t1, z0), at(r1, t1, z1), at(r1, t0, z1))
		if r0 > 0 {
			quad(at(r0, t0, z0), at(r0, t0, z1), at(r0, t1, z1), at(r0, t1, z0))
			quad(at(r0, t0, z1), at(r1, t0, z1), at(r1, t1, z1), at(r0, t1, z1))
			quad(at(r0, t0, z0), at(r0, t1, z0), at(r1, t1, z0), at(r1, t0, z0))
			continue
		}
		top, bottom := v3.Vec{X: 0, Y: 0, Z: z1}, v3.Vec{X: 0, Y: 0, Z: z0}
		out = append(out,
			&sdf.Triangle3{top, at(r1, t0, z1), at(r1, t1, z1)},
			&sdf.Triangle3{bottom, at(r1, t1, z0), at(r1, t0, z0)},
		)
	}
	return out
}

func toMesh(triangles []*sdf.Triangle3) Mesh {
	m := Mesh{
		Vertices: make([]float32, 0, len(triangles)*9),
		Normals:  make([]float32, 0, len(triangles)*9),
		Indices:  make([]uint32, 0, len(triangles)*3),
	}
	for i, tri := range triangles {
		n := tri.Normal()
		for j := 0; j < 3; j++ {
			v := tri[j]
			m.Vertices = append(m.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
			m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
			m.Indices = append(m.Indices, uint32(i*3+j))
		}
	}
	return m
}

// RenderMeshJSON exports the meshes as JSON for WebGL viewers.
func RenderMeshJSON(s *chart.Scene, opts ...MeshOption) ([]byte, error) {
	meshes, err := BuildMeshes(s, opts...)
	if err != nil {
		return nil, err
	}
	return json.Marshal(meshes)
}

// RenderSTL exports all meshes as one binary STL solid.
func RenderSTL(s *chart.Scene, opts ...MeshOption) ([]byte, error) {
	meshes, err := BuildMeshes(s, opts...)
	if err != nil {
		return nil, err
	}
	return EncodeSTL(meshes)
}

// EncodeSTL writes meshes in the binary STL format: an 80 byte header, the
// triangle count, then 50 bytes per triangle.
func EncodeSTL(meshes []Mesh) ([]byte, error) {
	total := 0
	for i := range meshes {
		total += meshes[i].TriangleCount()
	}
	if uint64(total) > math.MaxUint32 {
		return nil, errors.New(errors.ErrCodeUnsupported, "too many triangles for STL: %d", total)
	}

	var buf bytes.Buffer
	buf.Grow(84 + total*50)
	var header [80]byte
	copy(header[:], "crosssection")
	buf.Write(header[:])
	if err := binary.Write(&buf, binary.LittleEndian, uint32(total)); err != nil {
		return nil, err
	}

	var rec [12]float32
	for _, m := range meshes {
		for t := 0; t < m.TriangleCount(); t++ {
			base := m.Indices[t*3]
			copy(rec[0:3], m.Normals[base*3:base*3+3])
			for j := 0; j < 3; j++ {
				vi := m.Indices[t*3+j]
				copy(rec[3+j*3:6+j*3], m.Vertices[vi*3:vi*3+3])
			}
			if err := binary.Write(&buf, binary.LittleEndian, rec); err != nil {
				return nil, err
			}
			if err := binary.Write(&buf, binary.LittleEndian, uint16(0)); err != nil {
				return nil, err
			}
		}
	}
	return buf.Bytes(), nil
}
