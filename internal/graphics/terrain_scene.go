package graphics

import (
	"terrainstream/internal/meshing"
	"terrainstream/internal/profiling"
	"terrainstream/internal/terrain"
	"terrainstream/internal/world"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// Texture units the terrain shader samples.
const (
	detailUnits   = 4
	blendMapUnit  = detailUnits
	floatSize      = 4
	terrainShader  = "terrain"
	occluderShader = "occluder"
)

type gpuMesh struct {
	vao, vbo, ebo uint32
	indexCount    int32
}

func uploadMesh(m *meshing.LodMesh) gpuMesh {
	var g gpuMesh
	gl.GenVertexArrays(1, &g.vao)
	gl.GenBuffers(1, &g.vbo)
	gl.GenBuffers(1, &g.ebo)
	gl.BindVertexArray(g.vao)

	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(m.Vertices)*floatSize, gl.Ptr(m.Vertices), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, gl.Ptr(m.Indices), gl.STATIC_DRAW)

	stride := int32(meshing.VertexStride * floatSize)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, stride, gl.PtrOffset(3*floatSize))
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 2, gl.FLOAT, false, stride, gl.PtrOffset(6*floatSize))

	gl.BindVertexArray(0)
	g.indexCount = int32(len(m.Indices))
	return g
}

// occluderVertices flattens occluder positions into a tightly packed
// xyz buffer.
func occluderVertices(o *meshing.Occluder) []float32 {
	out := make([]float32, 0, 3*len(o.Vertices))
	for _, v := range o.Vertices {
		out = append(out, v[0], v[1], v[2])
	}
	return out
}

func uploadOccluder(o *meshing.Occluder) gpuMesh {
	var g gpuMesh
	if o == nil || len(o.Indices) == 0 {
		return g
	}
	verts := occluderVertices(o)
	gl.GenVertexArrays(1, &g.vao)
	gl.GenBuffers(1, &g.vbo)
	gl.GenBuffers(1, &g.ebo)
	gl.BindVertexArray(g.vao)

	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*floatSize, gl.Ptr(verts), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(o.Indices)*4, gl.Ptr(o.Indices), gl.STATIC_DRAW)

	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 3*floatSize, gl.PtrOffset(0))

	gl.BindVertexArray(0)
	g.indexCount = int32(len(o.Indices))
	return g
}

func (g *gpuMesh) delete() {
	if g.vao == 0 {
		return
	}
	gl.DeleteVertexArrays(1, &g.vao)
	gl.DeleteBuffers(1, &g.vbo)
	gl.DeleteBuffers(1, &g.ebo)
}

// gpuMaterial is shared by every shown LOD of a chunk.
type gpuMaterial struct {
	blendMap uint32
	refs     int
}

type sceneEntry struct {
	model    *world.LodModel
	mesh     gpuMesh
	occluder gpuMesh
	position mgl32.Vec3
}

// RenderStats describes the last rendered frame.
type RenderStats struct {
	Shown     int
	Drawn     int
	Triangles int
	Occluders int
}

// TerrainScene draws revealed chunk models. It is used from the GL
// goroutine only.
type TerrainScene struct {
	chunkWidth int
	shader     *Shader
	occluders  *Shader
	entries    map[terrain.ChunkCoord]*sceneEntry
	materials  map[*world.Material]*gpuMaterial

	// OcclusionPrepass lays down occluder depth before the terrain pass so
	// terrain hidden behind nearer hills fails the early depth test.
	OcclusionPrepass bool

	LightDir mgl32.Vec3
	FogColor mgl32.Vec3
	FogEnd   float32

	stats RenderStats
}

// NewTerrainScene compiles the terrain and occluder shaders.
func NewTerrainScene(opts terrain.Options) (*TerrainScene, error) {
	shader, err := LoadShader(terrainShader)
	if err != nil {
		return nil, err
	}
	occluders, err := LoadShader(occluderShader)
	if err != nil {
		shader.Delete()
		return nil, err
	}
	return &TerrainScene{
		chunkWidth:       opts.ChunkWidth,
		shader:           shader,
		occluders:        occluders,
		entries:          make(map[terrain.ChunkCoord]*sceneEntry),
		materials:        make(map[*world.Material]*gpuMaterial),
		OcclusionPrepass: true,
		LightDir:         mgl32.Vec3{-0.4, -1, -0.3}.Normalize(),
		FogColor:         mgl32.Vec3{0.62, 0.74, 0.86},
		FogEnd:           1000,
	}, nil
}

var _ world.Scene = (*TerrainScene)(nil)

// Reveal implements world.Scene.
func (s *TerrainScene) Reveal(coord terrain.ChunkCoord, model *world.LodModel, position mgl32.Vec3) {
	if e, ok := s.entries[coord]; ok {
		if e.model == model {
			e.position = position
			return
		}
		s.release(e)
	}
	s.acquireMaterial(model.Material)
	s.entries[coord] = &sceneEntry{
		model:    model,
		mesh:     uploadMesh(model.Mesh),
		occluder: uploadOccluder(model.Mesh.Occluder),
		position: position,
	}
}

// Hide implements world.Scene.
func (s *TerrainScene) Hide(coord terrain.ChunkCoord) {
	e, ok := s.entries[coord]
	if !ok {
		return
	}
	s.release(e)
	delete(s.entries, coord)
}

func (s *TerrainScene) acquireMaterial(m *world.Material) {
	gm, ok := s.materials[m]
	if !ok {
		gm = &gpuMaterial{}
		if !m.SingleTexture() {
			gm.blendMap = uploadBlendMap(m.BlendImage)
		}
		s.materials[m] = gm
	}
	gm.refs++
}

func (s *TerrainScene) release(e *sceneEntry) {
	e.mesh.delete()
	e.occluder.delete()
	m := e.model.Material
	gm := s.materials[m]
	gm.refs--
	if gm.refs == 0 {
		if gm.blendMap != 0 {
			gl.DeleteTextures(1, &gm.blendMap)
		}
		delete(s.materials, m)
	}
}

// Stats returns the numbers of the last Render call.
func (s *TerrainScene) Stats() RenderStats {
	return s.stats
}

// Render draws every revealed chunk whose bounds intersect the view.
func (s *TerrainScene) Render(view, projection mgl32.Mat4) {
	defer profiling.Track("graphics.TerrainScene.Render")()

	frustum := NewFrustum(projection.Mul4(view))
	w := float32(s.chunkWidth)
	s.stats = RenderStats{Shown: len(s.entries)}

	visible := make([]*sceneEntry, 0, len(s.entries))
	for _, e := range s.entries {
		b := e.model.Mesh.Bounds
		if frustum.IntersectsAABB(b.Min.Add(e.position), b.Max.Add(e.position)) {
			visible = append(visible, e)
		}
	}

	gl.Enable(gl.DEPTH_TEST)
	if s.OcclusionPrepass {
		s.renderOccluders(visible, view, projection)
	}

	s.shader.Use()
	s.shader.SetMat4("view", view)
	s.shader.SetMat4("projection", projection)
	s.shader.SetVec3("lightDir", s.LightDir)
	s.shader.SetVec3("fogColor", s.FogColor)
	s.shader.SetFloat("fogEnd", s.FogEnd)
	s.shader.SetVec2("blendScaleBias", mgl32.Vec2{w / (w + 1), 0.5 / (w + 1)})
	for i := range detailUnits {
		s.shader.SetInt("detail"+string(rune('0'+i)), int32(i))
	}
	s.shader.SetInt("blendMap", blendMapUnit)

	var bound *world.Material
	for _, e := range visible {
		if m := e.model.Material; m != bound {
			s.bindMaterial(m)
			bound = m
		}
		s.shader.SetVec3("chunkOffset", e.position)
		gl.BindVertexArray(e.mesh.vao)
		gl.DrawElements(gl.TRIANGLES, e.mesh.indexCount, gl.UNSIGNED_INT, gl.PtrOffset(0))
		s.stats.Drawn++
		s.stats.Triangles += int(e.mesh.indexCount / 3)
	}
	gl.BindVertexArray(0)
	gl.DepthFunc(gl.LESS)
}

// renderOccluders writes occluder depth only. Occluders sit below the
// surface they stand for, so the terrain pass runs with LEQUAL.
func (s *TerrainScene) renderOccluders(visible []*sceneEntry, view, projection mgl32.Mat4) {
	s.occluders.Use()
	s.occluders.SetMat4("view", view)
	s.occluders.SetMat4("projection", projection)
	gl.ColorMask(false, false, false, false)
	for _, e := range visible {
		if e.occluder.indexCount == 0 {
			continue
		}
		s.occluders.SetVec3("chunkOffset", e.position)
		gl.BindVertexArray(e.occluder.vao)
		gl.DrawElements(gl.TRIANGLES, e.occluder.indexCount, gl.UNSIGNED_INT, gl.PtrOffset(0))
		s.stats.Occluders++
	}
	gl.ColorMask(true, true, true, true)
	gl.DepthFunc(gl.LEQUAL)
}

func (s *TerrainScene) bindMaterial(m *world.Material) {
	s.shader.SetBool("singleTexture", m.SingleTexture())
	s.shader.SetFloat("repeats", m.Repeats)
	for i := range detailUnits {
		gl.ActiveTexture(gl.TEXTURE0 + uint32(i))
		var id uint32
		if i < len(m.Textures) {
			id = m.Textures[i].(*Texture).ID
		}
		gl.BindTexture(gl.TEXTURE_2D, id)
	}
	gl.ActiveTexture(gl.TEXTURE0 + blendMapUnit)
	gl.BindTexture(gl.TEXTURE_2D, s.materials[m].blendMap)
	gl.ActiveTexture(gl.TEXTURE0)
}

// Delete releases every GPU resource the scene holds.
func (s *TerrainScene) Delete() {
	for coord, e := range s.entries {
		s.release(e)
		delete(s.entries, coord)
	}
	s.shader.Delete()
	s.occluders.Delete()
}
