//go:build !tinygo && cgo

package glrender

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"unsafe"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glgl/v4.6-core/glgl"
	"github.com/soypat/shadergraph"
	"github.com/soypat/shadergraph/glbuild"
	"golang.org/x/image/draw"
)

// program is a linked shader program with its uniform locations cached.
type program struct {
	prog glgl.Program
	locs map[string]int32
}

func compileProgram(src glbuild.ShaderOutput) (*program, error) {
	prog, err := glgl.CompileProgram(glgl.ShaderSource{
		Vertex:   src.VertexCode + "\x00",
		Fragment: src.FragmentCode + "\x00",
	})
	if err != nil {
		return nil, fmt.Errorf("compiling preview program: %w", err)
	}
	return &program{prog: prog, locs: make(map[string]int32)}, nil
}

// loc returns the location of a uniform or -1 when the driver optimized it out.
func (p *program) loc(name string) int32 {
	l, ok := p.locs[name]
	if !ok {
		l = gl.GetUniformLocation(p.prog.ID(), gl.Str(name+"\x00"))
		if l < 0 {
			shadergraph.Logger().Debug("uniform not found or unused in shader", slog.String("name", name))
		}
		p.locs[name] = l
	}
	return l
}

func (p *program) setFloat(name string, v float32) { gl.Uniform1f(p.loc(name), v) }
func (p *program) setInt(name string, v int32)     { gl.Uniform1i(p.loc(name), v) }

// setMat4 uploads m, which ms3 stores row major, with GL transposing it.
func (p *program) setMat4(name string, m ms3.Mat4) {
	rowmajor := m.Array()
	gl.UniformMatrix4fv(p.loc(name), 1, true, &rowmajor[0])
}

func (p *program) setVec3(name string, x, y, z float32) {
	gl.Uniform3f(p.loc(name), x, y, z)
}

func (p *program) delete() { p.prog.Delete() }

// mesh is a vertex array with interleaved position, normal and texture coordinate attributes.
type mesh struct {
	vao, vbo, ebo uint32
	count         int32
	indexed       bool
}

func newMesh(data MeshData) (*mesh, error) {
	if len(data.Vertices) == 0 {
		return nil, errors.New("empty mesh")
	}
	m := &mesh{indexed: len(data.Indices) > 0}
	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)
	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, 4*len(data.Vertices), gl.Ptr(data.Vertices), gl.STATIC_DRAW)
	if m.indexed {
		gl.GenBuffers(1, &m.ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, 4*len(data.Indices), gl.Ptr(data.Indices), gl.STATIC_DRAW)
		m.count = int32(len(data.Indices))
	} else {
		m.count = int32(data.NumVertices())
	}
	const stride = VertexStride * 4
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 3*4)
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, stride, 6*4)
	gl.BindVertexArray(0)
	if err := glgl.Err(); err != nil {
		m.delete()
		return nil, fmt.Errorf("creating mesh: %w", err)
	}
	return m, nil
}

func (m *mesh) draw() {
	gl.BindVertexArray(m.vao)
	if m.indexed {
		gl.DrawElements(gl.TRIANGLES, m.count, gl.UNSIGNED_INT, nil)
	} else {
		gl.DrawArrays(gl.TRIANGLES, 0, m.count)
	}
	gl.BindVertexArray(0)
}

func (m *mesh) delete() {
	if m.ebo != 0 {
		gl.DeleteBuffers(1, &m.ebo)
	}
	gl.DeleteBuffers(1, &m.vbo)
	gl.DeleteVertexArrays(1, &m.vao)
}

// framebuffer is an offscreen render target with a color texture and a
// depth-stencil renderbuffer.
type framebuffer struct {
	fbo, tex, rbo uint32
	width, height int32
}

func newFramebuffer(width, height int) (*framebuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrBadSize
	}
	fb := &framebuffer{width: int32(width), height: int32(height)}
	gl.GenFramebuffers(1, &fb.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)
	gl.GenTextures(1, &fb.tex)
	gl.BindTexture(gl.TEXTURE_2D, fb.tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, fb.width, fb.height, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, fb.tex, 0)
	gl.GenRenderbuffers(1, &fb.rbo)
	gl.BindRenderbuffer(gl.RENDERBUFFER, fb.rbo)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH24_STENCIL8, fb.width, fb.height)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_STENCIL_ATTACHMENT, gl.RENDERBUFFER, fb.rbo)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		fb.delete()
		return nil, fmt.Errorf("framebuffer incomplete: status 0x%x", status)
	}
	return fb, nil
}

func (fb *framebuffer) bind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)
	gl.Viewport(0, 0, fb.width, fb.height)
}

func (fb *framebuffer) unbind() { gl.BindFramebuffer(gl.FRAMEBUFFER, 0) }

func (fb *framebuffer) delete() {
	gl.DeleteRenderbuffers(1, &fb.rbo)
	gl.DeleteTextures(1, &fb.tex)
	gl.DeleteFramebuffers(1, &fb.fbo)
}

func (fb *framebuffer) readPixels() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, int(fb.width), int(fb.height)))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, fb.fbo)
	gl.ReadPixels(0, 0, fb.width, fb.height, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&img.Pix[0]))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	// OpenGL rows start at the bottom.
	stride := img.Stride
	row := make([]byte, stride)
	for y := 0; y < int(fb.height)/2; y++ {
		top := img.Pix[y*stride : (y+1)*stride]
		bot := img.Pix[(int(fb.height)-1-y)*stride : (int(fb.height)-y)*stride]
		copy(row, top)
		copy(top, bot)
		copy(bot, row)
	}
	return img
}

// UploadTexture creates a 2D texture from img and returns its handle.
// A current OpenGL context is required.
func UploadTexture(img image.Image) (uint32, error) {
	bb := img.Bounds()
	if bb.Empty() {
		return 0, ErrBadSize
	}
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != 4*bb.Dx() {
		rgba = image.NewRGBA(image.Rect(0, 0, bb.Dx(), bb.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bb.Min, draw.Src)
	}
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(bb.Dx()), int32(bb.Dy()), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(rgba.Pix))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	if err := glgl.Err(); err != nil {
		gl.DeleteTextures(1, &tex)
		return 0, fmt.Errorf("uploading texture: %w", err)
	}
	return tex, nil
}

// DeleteTexture releases a texture created by [UploadTexture]. Handle 0 is ignored.
func DeleteTexture(handle uint32) {
	if handle != 0 {
		gl.DeleteTextures(1, &handle)
	}
}

// Preview renders the cube and sphere previews of a generated shader into two
// offscreen framebuffers. A current OpenGL context is required for all methods.
type Preview struct {
	prog             *program
	cube, sphere     *mesh
	cubeFB, sphereFB *framebuffer
	cam              Camera
}

// NewPreview compiles src and allocates preview meshes and framebuffers of the given size.
func NewPreview(width, height int, src glbuild.ShaderOutput) (_ *Preview, err error) {
	cam, err := DefaultCamera(width, height)
	if err != nil {
		return nil, err
	}
	p := &Preview{cam: cam}
	defer func() {
		if err != nil {
			p.Close()
		}
	}()
	p.prog, err = compileProgram(src)
	if err != nil {
		return nil, err
	}
	p.cube, err = newMesh(CubeMesh())
	if err != nil {
		return nil, err
	}
	sphere, err := SphereMesh(1, 16, 16)
	if err != nil {
		return nil, err
	}
	p.sphere, err = newMesh(sphere)
	if err != nil {
		return nil, err
	}
	p.cubeFB, err = newFramebuffer(width, height)
	if err != nil {
		return nil, err
	}
	p.sphereFB, err = newFramebuffer(width, height)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SetShader replaces the preview program. When src fails to compile the
// previous program stays in use and the error is returned.
func (p *Preview) SetShader(src glbuild.ShaderOutput) error {
	prog, err := compileProgram(src)
	if err != nil {
		shadergraph.Logger().Error("shader recompilation failed, keeping previous program", slog.Any("err", err))
		return err
	}
	if p.prog != nil {
		p.prog.delete()
	}
	p.prog = prog
	return nil
}

// Render draws both previews with the uniform values u. The rotations are the
// model yaw in radians of the cube and the sphere.
func (p *Preview) Render(u glbuild.UniformValues, cubeYaw, sphereYaw float32) error {
	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	p.prog.prog.Bind()
	defer p.prog.prog.Unbind()
	p.setUniforms(u)

	p.drawInto(p.cubeFB, p.cube, ModelMatrix(cubeYaw, 0))
	p.drawInto(p.sphereFB, p.sphere, ModelMatrix(sphereYaw, 0))
	return glgl.Err()
}

func (p *Preview) drawInto(fb *framebuffer, m *mesh, model ms3.Mat4) {
	fb.bind()
	defer fb.unbind()
	gl.ClearColor(0.1, 0.1, 0.1, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	p.prog.setMat4(glbuild.UniformModel, model)
	m.draw()
}

func (p *Preview) setUniforms(u glbuild.UniformValues) {
	prog := p.prog
	prog.setMat4(glbuild.UniformView, p.cam.View)
	prog.setMat4(glbuild.UniformProjection, p.cam.Projection)
	prog.setVec3(glbuild.UniformViewPos, p.cam.Eye.X, p.cam.Eye.Y, p.cam.Eye.Z)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, u.Texture1)
	prog.setInt(glbuild.UniformTexture1, 0)
	gl.ActiveTexture(gl.TEXTURE1)
	gl.BindTexture(gl.TEXTURE_2D, u.Texture2)
	prog.setInt(glbuild.UniformTexture2, 1)
	prog.setFloat(glbuild.UniformMixFactor, u.MixFactor)
	prog.setFloat(glbuild.UniformBrightness, u.Brightness)
	prog.setFloat(glbuild.UniformContrast, u.Contrast)
	prog.setFloat(glbuild.UniformSaturation, u.Saturation)
	prog.setVec3(glbuild.UniformLightPos, u.LightPos.X, u.LightPos.Y, u.LightPos.Z)
	prog.setVec3(glbuild.UniformLightColor, u.LightColor.X, u.LightColor.Y, u.LightColor.Z)
	prog.setFloat(glbuild.UniformLightIntensity, u.LightIntensity)
}


// BlitTo copies the cube and sphere previews side by side into the default
// framebuffer of the given size.
func (p *Preview) BlitTo(width, height int) {
	half := int32(width / 2)
	h := int32(height)
	for i, fb := range []*framebuffer{p.cubeFB, p.sphereFB} {
		x0 := int32(i) * half
		gl.BindFramebuffer(gl.READ_FRAMEBUFFER, fb.fbo)
		gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, 0)
		gl.BlitFramebuffer(0, 0, fb.width, fb.height, x0, 0, x0+half, h, gl.COLOR_BUFFER_BIT, gl.LINEAR)
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// Snapshot reads back the rendered cube and sphere previews.
func (p *Preview) Snapshot() (cube, sphere *image.RGBA) {
	return p.cubeFB.readPixels(), p.sphereFB.readPixels()
}

// Close releases all GPU resources held by the preview.
func (p *Preview) Close() {
	if p.prog != nil {
		p.prog.delete()
		p.prog = nil
	}
	for _, m := range []*mesh{p.cube, p.sphere} {
		if m != nil {
			m.delete()
		}
	}
	for _, fb := range []*framebuffer{p.cubeFB, p.sphereFB} {
		if fb != nil {
			fb.delete()
		}
	}
	p.cube, p.sphere, p.cubeFB, p.sphereFB = nil, nil, nil, nil
}
