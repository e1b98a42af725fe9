package voxel

import "math"

// BreakTimeTable is a data-driven map of block id to the number of
// seconds a default tool needs to break it. Per §7/§9, the two "World"
// break-time tables in the original disagreed on whether ores were
// included; rather than pick a winner algorithmically, the core treats
// this entirely as configuration the embedder supplies.
type BreakTimeTable map[BlockID]float64

// DefaultBreakTimeTable is a reasonable default seed for the table; it is
// data, not policy the core enforces.
func DefaultBreakTimeTable() BreakTimeTable {
	return BreakTimeTable{
		Air:      0,
		Grass:    0.6,
		Dirt:     0.5,
		Sand:     0.5,
		Gravel:   0.6,
		Stone:    1.5,
		Bedrock:  math.Inf(1),
		Leaves:   0.2,
		Wood:     2.0,
		CoalOre:  3.0,
		IronOre:  4.0,
		Snow:     0.2,
		Cactus:   0.4,
		Water:    0,
		Obsidian: 15.0,
	}
}

// BreakTime returns the configured break time for id, or 0 for an id the
// table has no entry for (treated as trivially breakable, never +Inf
// unless explicitly configured). The core never enforces this value; it
// is surfaced to callers on request only (§4.I, bedrock break attempts).
func (t BreakTimeTable) BreakTime(id BlockID) float64 {
	if v, ok := t[id]; ok {
		return v
	}
	return 0
}
