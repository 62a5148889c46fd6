package world

import (
	"math"
	"sort"

	"terrainstream/internal/terrain"
)

// ViewArea maps each chunk in view to the LOD it is drawn at.
type ViewArea map[terrain.ChunkCoord]uint8

// LodPolicy maps a distance in chunks to a LOD. Policies must be
// monotonically non-decreasing in distance.
type LodPolicy func(distance float64) uint8

// LinearLodPolicy adds one LOD every step chunks, up to maxLod.
func LinearLodPolicy(step float64, maxLod uint8) LodPolicy {
	return func(distance float64) uint8 {
		if step <= 0 || distance <= 0 {
			return 0
		}
		return uint8(min(math.Floor(distance/step), float64(maxLod)))
	}
}

// LogarithmicLodPolicy adds one LOD each time the distance grows by a
// factor of base, up to maxLod.
func LogarithmicLodPolicy(base float64, maxLod uint8) LodPolicy {
	return func(distance float64) uint8 {
		if base <= 1 || distance <= 1 {
			return 0
		}
		return uint8(min(math.Floor(math.Log(distance)/math.Log(base)), float64(maxLod)))
	}
}

// ComputeViewArea returns the chunks on the disc of radius around center
// whose whole 3x3 neighbourhood is loaded, with their LODs.
func ComputeViewArea(store *ChunkStore, center terrain.ChunkCoord, radius int, policy LodPolicy) ViewArea {
	area := make(ViewArea)
	for dz := -radius; dz <= radius; dz++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dz*dz > radius*radius {
				continue
			}
			off := terrain.ChunkCoord{X: dx, Z: dz}
			coord := center.Add(off)
			if !store.NeighbourhoodComplete(coord) {
				continue
			}
			area[coord] = policy(off.Length())
		}
	}
	return area
}

// NearestFirst returns the coordinates of the area ordered by distance to
// center. Equal distances are ordered by Z, then X.
func (v ViewArea) NearestFirst(center terrain.ChunkCoord) []terrain.ChunkCoord {
	out := make([]terrain.ChunkCoord, 0, len(v))
	for coord := range v {
		out = append(out, coord)
	}
	sort.Slice(out, func(i, j int) bool {
		di := out[i].Sub(center)
		dj := out[j].Sub(center)
		li, lj := di.X*di.X+di.Z*di.Z, dj.X*dj.X+dj.Z*dj.Z
		if li != lj {
			return li < lj
		}
		if out[i].Z != out[j].Z {
			return out[i].Z < out[j].Z
		}
		return out[i].X < out[j].X
	})
	return out
}
