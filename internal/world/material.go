package world

import (
	"fmt"
	"image"

	"terrainstream/internal/meshing"
	"terrainstream/internal/terrain"
)

// Material binds the textures a chunk is drawn with. One material is built
// per chunk from its first finished mesh and shared by all of its LODs.
type Material struct {
	Types    []uint8
	Textures []Texture
	// Nil on the single texture path.
	BlendImage *image.NRGBA
	// UV multiplier for the detail textures. The single texture path has
	// it baked into the mesh already.
	Repeats float32
}

// SingleTexture reports whether the material draws one repeating texture.
func (m *Material) SingleTexture() bool {
	return m.BlendImage == nil
}

// LodModel is one finished level of detail of a chunk.
type LodModel struct {
	Lod      uint8
	Mesh     *meshing.LodMesh
	Material *Material
}

// TextureName returns the texture a terrain type is drawn with.
func TextureName(opts terrain.Options, ttype uint8) string {
	if int(ttype) < len(opts.TerrainTextures) {
		return opts.TerrainTextures[ttype]
	}
	return fmt.Sprintf("terrain%d", ttype)
}

// buildMaterial loads the textures a mesh needs. It returns false while any
// of them is still unavailable.
func buildMaterial(opts terrain.Options, loader ResourceLoader, mesh *meshing.LodMesh) (*Material, bool) {
	if len(mesh.UsedTypes) == 0 {
		panic(fmt.Sprintf("world: lod %d mesh carries no terrain types", mesh.Lod))
	}
	m := &Material{
		Types:      mesh.UsedTypes,
		Textures:   make([]Texture, 0, len(mesh.UsedTypes)),
		BlendImage: mesh.BlendImage,
		Repeats:    opts.TextureRepeats,
	}
	if mesh.SingleTexture {
		m.Repeats = 1
	}
	for _, t := range mesh.UsedTypes {
		tex, ok := loader.Texture(TextureName(opts, t))
		if !ok {
			return nil, false
		}
		m.Textures = append(m.Textures, tex)
	}
	return m, true
}

// newLodModel checks the mesh buffers before they are handed to a scene.
func newLodModel(opts terrain.Options, mesh *meshing.LodMesh, material *Material) *LodModel {
	if len(mesh.Vertices)%meshing.VertexStride != 0 {
		panic(fmt.Sprintf("world: vertex buffer of %d floats is not a multiple of %d", len(mesh.Vertices), meshing.VertexStride))
	}
	if len(mesh.Indices)%3 != 0 {
		panic(fmt.Sprintf("world: index buffer of %d entries is not made of triangles", len(mesh.Indices)))
	}
	n := uint32(mesh.VertexCount())
	for _, i := range mesh.Indices {
		if i >= n {
			panic(fmt.Sprintf("world: index %d out of range for %d vertices", i, n))
		}
	}
	if img := material.BlendImage; img != nil {
		w1 := opts.ChunkWidth + 1
		if b := img.Bounds(); b.Dx() != w1 || b.Dy() != w1 {
			panic(fmt.Sprintf("world: blend image is %dx%d, want %dx%d", b.Dx(), b.Dy(), w1, w1))
		}
	}
	return &LodModel{Lod: mesh.Lod, Mesh: mesh, Material: material}
}
