package terrain

// TerrainWeight is one sparse entry of a corner's terrain blend.
// Weight is a byte-scaled fraction (255 == 1.0) and is never zero.
type TerrainWeight struct {
	Type   uint8
	Weight uint8
}

// Corner is a single heightfield sample at a grid intersection.
type Corner struct {
	Height  uint16
	Weights []TerrainWeight
}

// NewCorner returns a corner fully covered by a single terrain type.
func NewCorner(height uint16, ttype uint8) Corner {
	return Corner{Height: height, Weights: []TerrainWeight{{Type: ttype, Weight: 255}}}
}

// WeightToByte converts a [0,1] weight to its stored byte form, rounding half up.
func WeightToByte(w float32) uint8 {
	v := int(w*255 + 0.5)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// SetWeight sets the weight of a terrain type. Setting zero removes the entry.
func (c *Corner) SetWeight(ttype uint8, w float32) {
	c.SetWeightByte(ttype, WeightToByte(w))
}

// SetWeightByte is SetWeight for an already scaled weight.
func (c *Corner) SetWeightByte(ttype uint8, b uint8) {
	for i := range c.Weights {
		if c.Weights[i].Type != ttype {
			continue
		}
		if b > 0 {
			c.Weights[i].Weight = b
			return
		}
		c.Weights = append(c.Weights[:i], c.Weights[i+1:]...)
		if len(c.Weights) == 0 {
			c.Weights = nil
		}
		return
	}
	if b == 0 {
		return
	}
	c.Weights = append(c.Weights, TerrainWeight{Type: ttype, Weight: b})
}

// Weight returns the weight of a terrain type in [0,1], 0 when absent.
func (c *Corner) Weight(ttype uint8) float32 {
	return float32(c.WeightByte(ttype)) / 255
}

// WeightByte returns the stored byte weight of a terrain type.
func (c *Corner) WeightByte(ttype uint8) uint8 {
	for _, tw := range c.Weights {
		if tw.Type == ttype {
			return tw.Weight
		}
	}
	return 0
}

// HasTerrain reports whether the corner carries at least one terrain type
// with a non-zero weight.
func (c *Corner) HasTerrain() bool {
	for _, tw := range c.Weights {
		if tw.Weight > 0 {
			return true
		}
	}
	return false
}

// Clone returns a deep copy that shares no memory with c. Zero weight
// entries are dropped.
func (c Corner) Clone() Corner {
	out := Corner{Height: c.Height}
	for _, tw := range c.Weights {
		if tw.Weight == 0 {
			continue
		}
		if out.Weights == nil {
			out.Weights = make([]TerrainWeight, 0, len(c.Weights))
		}
		out.Weights = append(out.Weights, tw)
	}
	return out
}
