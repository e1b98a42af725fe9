package terrain

import (
	"chunkworld/internal/noise"
	"chunkworld/internal/voxel"
)

// veinSpec names the attempt budget and walk length for one ore type,
// grounded on §4.C's coal (8,80) and iron (6,50) parameters.
type veinSpec struct {
	id           voxel.BlockID
	targetLength int
	attempts     int
}

var veinSpecs = []veinSpec{
	{id: voxel.CoalOre, targetLength: 8, attempts: 80},
	{id: voxel.IronOre, targetLength: 6, attempts: 50},
}

var walkDirections = [6][3]int{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// Decorate runs the ore and tree sub-passes over an already
// terrain-filled volume, in place. rng is a per-chunk deterministic
// source derived from hash(seed, cx, cz), per the decision recorded for
// replayable decoration (§9).
func Decorate(vol voxel.Volume, cx, cz int, src *noise.Source, rng *noise.ChunkRNG) {
	for _, spec := range veinSpecs {
		for attempt := 0; attempt < spec.attempts; attempt++ {
			generateVein(vol, cx, cz, src, rng, spec)
		}
	}
	placeTrees(vol, cx, cz, src, rng)
}

func generateVein(vol voxel.Volume, cx, cz int, src *noise.Source, rng *noise.ChunkRNG, spec veinSpec) {
	lx := rng.Intn(voxel.EdgeSize)
	lz := rng.Intn(voxel.EdgeSize)

	worldX := float64(cx*voxel.EdgeSize + lx)
	worldZ := float64(cz*voxel.EdgeSize + lz)
	h := SurfaceHeight(worldX, worldZ, src)

	yMax := h - 3
	if yMax < 2 {
		yMax = 2
	}
	if yMax >= h {
		yMax = h - 1
	}
	if yMax < 1 {
		return
	}

	y := 1 + rng.Intn(yMax)
	x, z := lx, lz

	failures := 0
	placed := 0
	for placed < spec.targetLength && failures < 10 {
		id, ok := vol.At(x, y, z)
		if !ok || id != voxel.Stone {
			failures++
		} else {
			vol.Set(x, y, z, spec.id)
			placed++
		}

		dir := walkDirections[rng.Intn(len(walkDirections))]
		x += dir[0]
		y += dir[1]
		z += dir[2]

		if x < 0 || x >= voxel.EdgeSize || z < 0 || z >= voxel.EdgeSize || y < 1 || y >= voxel.Height {
			break
		}
	}
}

const treeMargin = 2
const treePlacementChance = 100 // 1% expressed as 1-in-N for integer RNG

func placeTrees(vol voxel.Volume, cx, cz int, src *noise.Source, rng *noise.ChunkRNG) {
	for lx := treeMargin; lx < voxel.EdgeSize-treeMargin; lx++ {
		for lz := treeMargin; lz < voxel.EdgeSize-treeMargin; lz++ {
			h := vol.TopY(lx, lz)
			top, ok := vol.At(lx, h, lz)
			if !ok || top != voxel.Grass {
				continue
			}
			if rng.Intn(treePlacementChance) != 0 {
				continue
			}
			placeTree(vol, lx, h, lz, rng)
		}
	}
}

func placeTree(vol voxel.Volume, lx, h, lz int, rng *noise.ChunkRNG) {
	trunkHeight := 4 + rng.Intn(2) // {4,5}

	for dy := 1; dy <= trunkHeight; dy++ {
		y := h + dy
		if y >= voxel.Height {
			return
		}
		vol.Set(lx, y, lz, voxel.Wood)
	}

	foliageBottom := h + trunkHeight - 2
	foliageTop := h + trunkHeight + 1

	for y := foliageBottom; y <= foliageTop; y++ {
		if y < 0 || y >= voxel.Height {
			continue
		}
		radius := 2
		if y == foliageTop {
			radius = 1
		}
		for dx := -radius; dx <= radius; dx++ {
			for dz := -radius; dz <= radius; dz++ {
				x, z := lx+dx, lz+dz
				if x < 0 || x >= voxel.EdgeSize || z < 0 || z >= voxel.EdgeSize {
					continue
				}
				isCorner := (dx == -radius || dx == radius) && (dz == -radius || dz == radius)
				if isCorner && rng.Intn(10) < 4 {
					continue
				}
				existing, ok := vol.At(x, y, z)
				if ok && existing == voxel.Wood {
					continue
				}
				vol.Set(x, y, z, voxel.Leaves)
			}
		}
	}
}
