// Package voxel holds the value types shared by every chunk-subsystem
// component: chunk coordinates and keys, block ids, and the dense
// per-chunk volume array.
package voxel

import "fmt"

// Fixed world constants (bit-exact per the embedding contract).
const (
	EdgeSize = 32  // S: chunk edge length in blocks
	Height   = 128 // H: fixed vertical extent

	TerrainScale = 50.0 // SCALE
	TerrainAmp   = 8.0  // AMP
	TerrainBase  = 20   // BASE
)

// VolumeLen is the number of bytes in one chunk's dense voxel array.
const VolumeLen = EdgeSize * EdgeSize * Height

// ChunkCoord identifies a chunk in the XZ chunk grid.
type ChunkCoord struct {
	CX int
	CZ int
}

func (c ChunkCoord) String() string {
	return fmt.Sprintf("%d,%d", c.CX, c.CZ)
}

// ManhattanDistance returns the L1 distance between two chunk coordinates.
func (c ChunkCoord) ManhattanDistance(other ChunkCoord) int {
	return absInt(c.CX-other.CX) + absInt(c.CZ-other.CZ)
}

// ChebyshevDistance returns the max-component distance between two chunk coordinates.
func (c ChunkCoord) ChebyshevDistance(other ChunkCoord) int {
	dx := absInt(c.CX - other.CX)
	dz := absInt(c.CZ - other.CZ)
	if dx > dz {
		return dx
	}
	return dz
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// ChunkKey is the chunk identity used by the store and by every map keyed
// on chunk identity. It is an alias of ChunkCoord, a plain comparable
// struct usable directly as a Go map key; callers that need the
// canonical textual wire/store key (persistence, logging) use Key().
type ChunkKey = ChunkCoord

// Key returns the canonical "cx,cz" textual key for a chunk coordinate,
// matching the persistent layout contract (§6): decimal, no padding,
// comma separator.
func (c ChunkCoord) Key() string {
	return c.String()
}

// ParseChunkKey parses the canonical "cx,cz" textual encoding back into a
// ChunkCoord.
func ParseChunkKey(key string) (ChunkCoord, error) {
	var c ChunkCoord
	n, err := fmt.Sscanf(key, "%d,%d", &c.CX, &c.CZ)
	if err != nil || n != 2 {
		return ChunkCoord{}, fmt.Errorf("invalid chunk key %q", key)
	}
	return c, nil
}

// BlockCoord is a position in global block space.
type BlockCoord struct {
	X int
	Y int
	Z int
}

// ChunkOf returns the chunk coordinate owning this block, and the block's
// local coordinates within that chunk. y is not range-checked here; callers
// validate against Height separately.
func (b BlockCoord) ChunkOf() (ChunkCoord, int, int, int) {
	cx := floorDiv(b.X, EdgeSize)
	cz := floorDiv(b.Z, EdgeSize)
	lx := b.X - cx*EdgeSize
	lz := b.Z - cz*EdgeSize
	return ChunkCoord{CX: cx, CZ: cz}, lx, b.Y, lz
}

func floorDiv(value, size int) int {
	if value >= 0 {
		return value / size
	}
	return -((-value - 1) / size) - 1
}
