// Package terrain implements the pure chunk-volume synthesis and
// decoration passes: surface-height column fill (TerrainSynth) and
// in-place ore/tree decoration (StructureDecorator).
package terrain

import (
	"math"

	"chunkworld/internal/noise"
	"chunkworld/internal/voxel"
)

// FillTerrain is the pure function §4.B describes: given a zero-initialized
// volume and a chunk's coordinates, it fills each column up to the sampled
// surface height. It never reads or mutates anything outside vol, and
// produces byte-identical output for the same (cx, cz, seed) every time.
func FillTerrain(vol voxel.Volume, cx, cz int, src *noise.Source) {
	for lx := 0; lx < voxel.EdgeSize; lx++ {
		for lz := 0; lz < voxel.EdgeSize; lz++ {
			worldX := float64(cx*voxel.EdgeSize + lx)
			worldZ := float64(cz*voxel.EdgeSize + lz)

			h := SurfaceHeight(worldX, worldZ, src)
			fillColumn(vol, lx, lz, h)
		}
	}
}

// SurfaceHeight computes the terrain formula of §4.B:
// h = floor(sample(worldX/SCALE, worldZ/SCALE) * AMP) + BASE, clamped to
// [1, H-1]. It is exposed separately so VoxelResidency's top_y fallback
// for ungenerated columns (§4.G) can reuse exactly this formula.
func SurfaceHeight(worldX, worldZ float64, src *noise.Source) int {
	n := src.Sample(worldX/voxel.TerrainScale, worldZ/voxel.TerrainScale)
	h := int(math.Floor(n*voxel.TerrainAmp)) + voxel.TerrainBase
	return clampInt(h, 1, voxel.Height-1)
}

func fillColumn(vol voxel.Volume, lx, lz, h int) {
	for y := 0; y <= h; y++ {
		var id voxel.BlockID
		switch {
		case y == 0:
			id = voxel.Bedrock
		case y == h:
			id = voxel.Grass
		case y >= h-3:
			id = voxel.Dirt
		default:
			id = voxel.Stone
		}
		vol.Set(lx, y, lz, id)
	}
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
