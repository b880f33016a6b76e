//go:build tinygo || !cgo

package glrender

import (
	"image"

	"github.com/soypat/shadergraph/glbuild"
)

// UploadTexture creates a 2D texture from img and returns its handle.
func UploadTexture(img image.Image) (uint32, error) { return 0, ErrNoGPU }

// DeleteTexture releases a texture created by [UploadTexture].
func DeleteTexture(handle uint32) {}

// Preview renders the cube and sphere previews of a generated shader.
type Preview struct{}

// NewPreview compiles src and allocates preview meshes and framebuffers of the given size.
func NewPreview(width, height int, src glbuild.ShaderOutput) (*Preview, error) {
	return nil, ErrNoGPU
}

func (p *Preview) SetShader(src glbuild.ShaderOutput) error { return ErrNoGPU }

func (p *Preview) Render(u glbuild.UniformValues, cubeYaw, sphereYaw float32) error {
	return ErrNoGPU
}

func (p *Preview) BlitTo(width, height int) {}

func (p *Preview) Snapshot() (cube, sphere *image.RGBA) { return nil, nil }

func (p *Preview) Close() {}
