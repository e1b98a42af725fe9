package terrain

import (
	"testing"

	"chunkworld/internal/noise"
	"chunkworld/internal/voxel"
)

func generate(cx, cz int, seed int64) voxel.Volume {
	vol := voxel.NewVolume()
	src := noise.New(seed, noise.DefaultParams())
	FillTerrain(vol, cx, cz, src)
	rng := noise.NewChunkRNG(cx, cz, seed)
	Decorate(vol, cx, cz, src, rng)
	return vol
}

func TestFillTerrainDeterministic(t *testing.T) {
	a := generate(0, 0, 1234567)
	b := generate(0, 0, 1234567)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("byte %d differs: %d != %d", i, a[i], b[i])
		}
	}
}

func TestFillTerrainBedrockFloor(t *testing.T) {
	vol := voxel.NewVolume()
	src := noise.New(42, noise.DefaultParams())
	FillTerrain(vol, 0, 0, src)

	for lx := 0; lx < voxel.EdgeSize; lx++ {
		for lz := 0; lz < voxel.EdgeSize; lz++ {
			id, ok := vol.At(lx, 0, lz)
			if !ok || id != voxel.Bedrock {
				t.Fatalf("column (%d,%d) y=0 is %v, want BEDROCK", lx, lz, id)
			}
		}
	}
}

func TestFillTerrainSurfaceIsGrass(t *testing.T) {
	vol := voxel.NewVolume()
	src := noise.New(42, noise.DefaultParams())
	FillTerrain(vol, 0, 0, src)

	h := SurfaceHeight(8, 20, src)
	id, ok := vol.At(8, h, 20)
	if !ok || id != voxel.Grass {
		t.Fatalf("surface at (8,%d,20) = %v, want GRASS", h, id)
	}
	if h < voxel.TerrainBase-int(voxel.TerrainAmp) || h > voxel.TerrainBase+int(voxel.TerrainAmp) {
		t.Fatalf("surface height %d out of BASE+-AMP range", h)
	}
}

func TestDecorateProducesOnlyKnownBlockIDs(t *testing.T) {
	vol := generate(3, -2, 99)
	// Sanity: decoration must not introduce ids outside the known set.
	for _, b := range vol {
		switch b {
		case voxel.Air, voxel.Grass, voxel.Dirt, voxel.Stone, voxel.Bedrock,
			voxel.Leaves, voxel.Wood, voxel.CoalOre, voxel.IronOre:
		default:
			t.Fatalf("unexpected block id %d after decoration", b)
		}
	}
}

func TestDecorateDeterministic(t *testing.T) {
	a := generate(5, 5, 777)
	b := generate(5, 5, 777)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("decorated byte %d differs", i)
		}
	}
}
