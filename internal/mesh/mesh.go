// Package mesh implements MeshExtractor: occlusion-culled face emission
// from a chunk volume plus a cross-chunk neighbour-lookup callback.
package mesh

import "chunkworld/internal/voxel"

// FaceDir encodes which side of a voxel a face belongs to, matching the
// wire contract of §6: 0:+X, 1:-X, 2:+Y, 3:-Y, 4:+Z, 5:-Z.
type FaceDir uint8

const (
	FacePosX FaceDir = 0
	FaceNegX FaceDir = 1
	FacePosY FaceDir = 2
	FaceNegY FaceDir = 3
	FacePosZ FaceDir = 4
	FaceNegZ FaceDir = 5
)

var faceOffsets = [6][3]int{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

var faceNormals = [6][3]float32{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// faceVertices gives the four corner offsets of a unit cube for each
// face direction, ordered so that both triangles (0,1,2) and (2,1,3)
// are wound CCW when viewed from outside the face (facing -normal).
var faceVertices = [6][4][3]float32{
	// +X
	{{1, 1, 1}, {1, 0, 1}, {1, 1, 0}, {1, 0, 0}},
	// -X
	{{0, 1, 0}, {0, 0, 0}, {0, 1, 1}, {0, 0, 1}},
	// +Y
	{{0, 1, 1}, {1, 1, 1}, {0, 1, 0}, {1, 1, 0}},
	// -Y
	{{1, 0, 1}, {0, 0, 1}, {1, 0, 0}, {0, 0, 0}},
	// +Z
	{{0, 0, 1}, {1, 0, 1}, {0, 1, 1}, {1, 1, 1}},
	// -Z
	{{1, 0, 0}, {0, 0, 0}, {1, 1, 0}, {0, 1, 0}},
}

// BlockGetter resolves a block at a world (not necessarily local)
// coordinate, reporting whether the owning chunk is resident. An
// unresident lookup is treated as transparent-for-culling by Build's
// conservative-border policy (§4.H).
type BlockGetter func(wx, wy, wz int) (id voxel.BlockID, resident bool)

// Mesh is the flat attribute-array output of one Build call. Every
// slice is aligned: vertex i's position, normal, face-block id and
// face-direction id describe the same vertex; Indices references them
// in (0,1,2),(2,1,3) pairs per quad.
type Mesh struct {
	Positions []float32 // 3 per vertex
	Normals   []float32 // 3 per vertex
	FaceBlock []voxel.BlockID
	FaceDir   []FaceDir
	Indices   []uint32
}

// Empty reports whether the mesh has no triangles.
func (m *Mesh) Empty() bool { return len(m.Indices) == 0 }

func isTransparentAt(get BlockGetter, wx, wy, wz int) bool {
	id, resident := get(wx, wy, wz)
	if !resident {
		return true // conservative border: draw the face
	}
	return voxel.TransparentForCulling(id)
}

// Build extracts a mesh for a chunk at (cx, cz) from vol, sampling
// neighbours (including across chunk boundaries) via get. get is called
// with world coordinates; callers normally pass VoxelResidency.GetBlock
// wrapped to report residency.
func Build(vol voxel.Volume, cx, cz int, get BlockGetter) *Mesh {
	m := &Mesh{}

	yMin, yMax, any := scanVerticalExtent(vol)
	if !any {
		return m
	}
	if yMin > 0 {
		yMin--
	}
	if yMax < voxel.Height-1 {
		yMax++
	}

	worldOffsetX := cx * voxel.EdgeSize
	worldOffsetZ := cz * voxel.EdgeSize

	for lx := 0; lx < voxel.EdgeSize; lx++ {
		for lz := 0; lz < voxel.EdgeSize; lz++ {
			for ly := yMin; ly <= yMax; ly++ {
				id, ok := vol.At(lx, ly, lz)
				if !ok || voxel.IsAir(id) {
					continue
				}

				wx := worldOffsetX + lx
				wy := ly
				wz := worldOffsetZ + lz

				for dir := 0; dir < 6; dir++ {
					off := faceOffsets[dir]
					nx, ny, nz := wx+off[0], wy+off[1], wz+off[2]
					if ny < 0 || ny >= voxel.Height {
						continue // no face against the world floor/ceiling
					}
					if isTransparentAt(get, nx, ny, nz) {
						m.addFace(float32(wx), float32(wy), float32(wz), FaceDir(dir), id)
					}
				}
			}
		}
	}

	return m
}

func scanVerticalExtent(vol voxel.Volume) (yMin, yMax int, any bool) {
	yMin, yMax = voxel.Height, -1
	for ly := 0; ly < voxel.Height; ly++ {
		layerHasBlock := false
		for lx := 0; lx < voxel.EdgeSize && !layerHasBlock; lx++ {
			for lz := 0; lz < voxel.EdgeSize; lz++ {
				id, ok := vol.At(lx, ly, lz)
				if ok && !voxel.IsAir(id) {
					layerHasBlock = true
					break
				}
			}
		}
		if layerHasBlock {
			if ly < yMin {
				yMin = ly
			}
			if ly > yMax {
				yMax = ly
			}
		}
	}
	if yMax < yMin {
		return 0, 0, false
	}
	return yMin, yMax, true
}

func (m *Mesh) addFace(ox, oy, oz float32, dir FaceDir, id voxel.BlockID) {
	base := uint32(len(m.Positions) / 3)
	verts := faceVertices[dir]
	n := faceNormals[dir]

	for _, v := range verts {
		m.Positions = append(m.Positions, ox+v[0], oy+v[1], oz+v[2])
		m.Normals = append(m.Normals, n[0], n[1], n[2])
		m.FaceBlock = append(m.FaceBlock, id)
		m.FaceDir = append(m.FaceDir, dir)
	}

	m.Indices = append(m.Indices,
		base+0, base+1, base+2,
		base+2, base+1, base+3,
	)
}
