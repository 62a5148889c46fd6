package meshing

import (
	"image"
	"sort"
)

// MaxBlendTypes is the number of terrain types a material can blend.
const MaxBlendTypes = 4

// classifyTerrain decides between the single texture path and the blend
// image path, and fills UsedTypes/BlendImage accordingly.
func classifyTerrain(job *LodJob, g *grid, out *LodMesh) {
	width := job.Options.ChunkWidth
	w1 := width + 1

	var totals [256]uint32
	for iy := 0; iy < w1; iy++ {
		for ix := 0; ix < w1; ix++ {
			for _, tw := range job.Corners[g.at(ix+1, iy+1)].Weights {
				totals[tw.Type] += uint32(tw.Weight)
			}
		}
	}
	var present []uint8
	for t, sum := range totals {
		if sum > 0 {
			present = append(present, uint8(t))
		}
	}

	if len(present) <= 1 {
		out.SingleTexture = true
		out.UsedTypes = present
		g.uvScale = job.Options.TextureRepeats
		return
	}
	g.uvScale = 1
	if !job.CalculateBlendImage {
		return
	}

	out.UsedTypes = selectBlendTypes(present, totals[:])
	if len(out.UsedTypes) > 1 {
		out.BlendImage = blendImage(job, g, out.UsedTypes)
	}
}

// selectBlendTypes keeps the MaxBlendTypes heaviest types. Equal totals
// drop the higher type id first. The result is sorted by type id.
func selectBlendTypes(present []uint8, totals []uint32) []uint8 {
	kept := make([]uint8, len(present))
	copy(kept, present)
	if len(kept) > MaxBlendTypes {
		sort.SliceStable(kept, func(i, j int) bool {
			ti, tj := totals[kept[i]], totals[kept[j]]
			if ti != tj {
				return ti > tj
			}
			return kept[i] < kept[j]
		})
		kept = kept[:MaxBlendTypes]
		sort.Slice(kept, func(i, j int) bool { return kept[i] < kept[j] })
	}
	return kept
}

// blendImage rasterizes the normalized weights of the selected types, one
// pixel per interior corner, channel i holding types[i].
func blendImage(job *LodJob, g *grid, types []uint8) *image.NRGBA {
	w1 := job.Options.ChunkWidth + 1
	img := image.NewNRGBA(image.Rect(0, 0, w1, w1))
	for iy := 0; iy < w1; iy++ {
		for ix := 0; ix < w1; ix++ {
			c := &job.Corners[g.at(ix+1, iy+1)]
			var weights [MaxBlendTypes]uint32
			var sum uint32
			for i, t := range types {
				weights[i] = uint32(c.WeightByte(t))
				sum += weights[i]
			}
			px := img.Pix[img.PixOffset(ix, iy):]
			if sum == 0 {
				px[0], px[1], px[2], px[3] = 255, 0, 0, 0
				continue
			}
			for i := 0; i < MaxBlendTypes; i++ {
				px[i] = uint8((weights[i]*255 + sum/2) / sum)
			}
		}
	}
	return img
}
