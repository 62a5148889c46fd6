package graphics

import (
	"embed"
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

//go:embed shaders/*.vert shaders/*.frag
var shaderFS embed.FS

// Shader is a linked GL program with a uniform location cache.
type Shader struct {
	ID       uint32
	uniforms map[string]int32
}

// LoadShader compiles the embedded program shaders/<name>.vert + .frag.
func LoadShader(name string) (*Shader, error) {
	vert, err := shaderFS.ReadFile("shaders/" + name + ".vert")
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", name, err)
	}
	frag, err := shaderFS.ReadFile("shaders/" + name + ".frag")
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", name, err)
	}
	program, err := compileProgram(string(vert), string(frag))
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", name, err)
	}
	return &Shader{ID: program, uniforms: make(map[string]int32)}, nil
}

// Use activates the shader program
func (s *Shader) Use() {
	gl.UseProgram(s.ID)
}

// Delete releases the program.
func (s *Shader) Delete() {
	gl.DeleteProgram(s.ID)
}

func (s *Shader) location(name string) int32 {
	if loc, ok := s.uniforms[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(s.ID, gl.Str(name+"\x00"))
	s.uniforms[name] = loc
	return loc
}

func (s *Shader) SetBool(name string, value bool) {
	var v int32
	if value {
		v = 1
	}
	gl.Uniform1i(s.location(name), v)
}

func (s *Shader) SetInt(name string, value int32) {
	gl.Uniform1i(s.location(name), value)
}

func (s *Shader) SetFloat(name string, value float32) {
	gl.Uniform1f(s.location(name), value)
}

func (s *Shader) SetVec2(name string, v mgl32.Vec2) {
	gl.Uniform2f(s.location(name), v.X(), v.Y())
}

func (s *Shader) SetVec3(name string, v mgl32.Vec3) {
	gl.Uniform3f(s.location(name), v.X(), v.Y(), v.Z())
}

func (s *Shader) SetMat4(name string, m mgl32.Mat4) {
	gl.UniformMatrix4fv(s.location(name), 1, false, &m[0])
}

func compileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vertexShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertexShader)
	fragmentShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragmentShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		msg := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(msg))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link program: %s", strings.TrimRight(msg, "\x00"))
	}
	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		msg := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(msg))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile shader: %s", strings.TrimRight(msg, "\x00"))
	}
	return shader, nil
}
