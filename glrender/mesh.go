package glrender

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// VertexStride is the number of float32 values per vertex: position (3),
// normal (3) and texture coordinates (2). It matches the attribute locations
// 0, 1 and 2 of the generated vertex shader.
const VertexStride = 8

// MeshData is interleaved vertex data of a preview mesh.
type MeshData struct {
	Vertices []float32
	// Indices index Vertices in triangles. Empty for meshes drawn with glDrawArrays.
	Indices []uint32
}

// NumVertices returns the number of vertices in Vertices.
func (m *MeshData) NumVertices() int { return len(m.Vertices) / VertexStride }

// Position returns the position of the i'th vertex.
func (m *MeshData) Position(i int) ms3.Vec {
	v := m.Vertices[i*VertexStride:]
	return ms3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

// Normal returns the normal of the i'th vertex.
func (m *MeshData) Normal(i int) ms3.Vec {
	v := m.Vertices[i*VertexStride+3:]
	return ms3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

// TexCoord returns the texture coordinates of the i'th vertex.
func (m *MeshData) TexCoord(i int) (u, v float32) {
	uv := m.Vertices[i*VertexStride+6:]
	return uv[0], uv[1]
}

// AppendTriangles appends the mesh triangles to dst.
func (m *MeshData) AppendTriangles(dst []ms3.Triangle) []ms3.Triangle {
	if len(m.Indices) == 0 {
		for i := 0; i+2 < m.NumVertices(); i += 3 {
			dst = append(dst, ms3.Triangle{m.Position(i), m.Position(i + 1), m.Position(i + 2)})
		}
		return dst
	}
	for i := 0; i+2 < len(m.Indices); i += 3 {
		dst = append(dst, ms3.Triangle{
			m.Position(int(m.Indices[i])),
			m.Position(int(m.Indices[i+1])),
			m.Position(int(m.Indices[i+2])),
		})
	}
	return dst
}

func (m *MeshData) appendVertex(pos, normal ms3.Vec, u, v float32) {
	m.Vertices = append(m.Vertices, pos.X, pos.Y, pos.Z, normal.X, normal.Y, normal.Z, u, v)
}

// CubeMesh returns a unit cube centered at the origin as 36 non-indexed
// vertices, two counter-clockwise triangles per face with the face normal.
func CubeMesh() MeshData {
	faces := [6]struct{ n, u, v ms3.Vec }{
		{n: ms3.Vec{Z: -1}, u: ms3.Vec{X: -1}, v: ms3.Vec{Y: 1}},
		{n: ms3.Vec{Z: 1}, u: ms3.Vec{X: 1}, v: ms3.Vec{Y: 1}},
		{n: ms3.Vec{X: -1}, u: ms3.Vec{Z: 1}, v: ms3.Vec{Y: 1}},
		{n: ms3.Vec{X: 1}, u: ms3.Vec{Z: -1}, v: ms3.Vec{Y: 1}},
		{n: ms3.Vec{Y: -1}, u: ms3.Vec{X: 1}, v: ms3.Vec{Z: 1}},
		{n: ms3.Vec{Y: 1}, u: ms3.Vec{X: 1}, v: ms3.Vec{Z: -1}},
	}
	// Corner signs along u and v for the two triangles of a face.
	corners := [6][2]float32{{-1, -1}, {1, -1}, {1, 1}, {1, 1}, {-1, 1}, {-1, -1}}
	m := MeshData{Vertices: make([]float32, 0, 36*VertexStride)}
	for _, f := range faces {
		for _, c := range corners {
			pos := ms3.Add(ms3.Scale(0.5, f.n), ms3.Add(ms3.Scale(0.5*c[0], f.u), ms3.Scale(0.5*c[1], f.v)))
			m.appendVertex(pos, f.n, (c[0]+1)/2, (c[1]+1)/2)
		}
	}
	return m
}

// SphereMesh returns an indexed UV sphere centered at the origin with +Y as
// its polar axis. Triangles wind counter-clockwise seen from outside. The seam
// column is duplicated so the texture wraps once.
func SphereMesh(radius float32, sectors, stacks int) (MeshData, error) {
	if radius <= 0 {
		return MeshData{}, errors.New("sphere radius must be positive")
	} else if sectors < 3 || stacks < 2 {
		return MeshData{}, errors.New("sphere needs at least 3 sectors and 2 stacks")
	}
	m := MeshData{
		Vertices: make([]float32, 0, (stacks+1)*(sectors+1)*VertexStride),
		Indices:  make([]uint32, 0, 6*sectors*(stacks-1)),
	}
	sectorStep := 2 * math32.Pi / float32(sectors)
	stackStep := math32.Pi / float32(stacks)
	for i := 0; i <= stacks; i++ {
		stackAngle := math32.Pi/2 - float32(i)*stackStep
		ring := math32.Cos(stackAngle)
		y := math32.Sin(stackAngle)
		for j := 0; j <= sectors; j++ {
			s, c := math32.Sincos(float32(j) * sectorStep)
			normal := ms3.Vec{X: ring * c, Y: y, Z: ring * s}
			m.appendVertex(ms3.Scale(radius, normal), normal, float32(j)/float32(sectors), float32(i)/float32(stacks))
		}
	}
	for i := 0; i < stacks; i++ {
		k1 := uint32(i * (sectors + 1))
		k2 := k1 + uint32(sectors+1)
		for j := 0; j < sectors; j++ {
			if i != 0 {
				m.Indices = append(m.Indices, k1, k1+1, k2)
			}
			if i != stacks-1 {
				m.Indices = append(m.Indices, k1+1, k2+1, k2)
			}
			k1++
			k2++
		}
	}
	return m, nil
}
