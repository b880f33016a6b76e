//go:build !tinygo && cgo

package sgaux

import (
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/soypat/glgl/v4.6-core/glgl"
	"github.com/soypat/shadergraph"
	"github.com/soypat/shadergraph/glbuild"
	"github.com/soypat/shadergraph/glrender"
)

func ui(ed *shadergraph.Editor, cfg UIConfig) error {
	log := shadergraph.Logger()
	window, term, err := startGLFW(cfg.Width, cfg.Height, cfg.Title)
	if err != nil {
		return err
	}
	defer term()

	textures := NewTextureManager(glrender.UploadTexture, glrender.DeleteTexture)
	defer textures.Close()
	if failed := textures.Bind(ed); failed > 0 {
		log.Warn("some textures failed to load", slog.Int("failed", failed))
	}
	src, err := glbuild.Generate(ed.Nodes(), ed.Graph())
	if err != nil {
		return err
	}
	preview, err := glrender.NewPreview(cfg.Width/2, cfg.Height, src)
	if err != nil {
		return fmt.Errorf("%s\n\n%w", src.FragmentCode, err)
	}
	defer preview.Close()

	var (
		yaw            float64
		lastMouseX     float64
		firstMouseMove = true
		isMousePressed = false
	)
	window.SetCursorPosCallback(func(w *glfw.Window, xpos float64, ypos float64) {
		if !isMousePressed {
			return
		}
		if firstMouseMove {
			lastMouseX = xpos
			firstMouseMove = false
		}
		yaw += (xpos - lastMouseX) * cfg.DragSensitivity
		lastMouseX = xpos
	})
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		left := button == glfw.MouseButtonLeft
		if cfg.EmulateThreeButtonMouse && button == glfw.MouseButtonLeft && mods&glfw.ModAlt != 0 {
			left = false // Alt+left acts as the middle button, which does not rotate.
		}
		if !left {
			return
		}
		switch action {
		case glfw.Press:
			isMousePressed = true
			firstMouseMove = true
		case glfw.Release:
			isMousePressed = false
		}
	})

	clock := shadergraph.NewClock()
	clock.EmulateThreeButtonMouse = cfg.EmulateThreeButtonMouse
	ctx := cfg.Context
	lastTitle := ""
	viewportErrs := errorLog{msg: "evaluating viewport input"}
	for !window.ShouldClose() {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		select {
		case next := <-cfg.Updates:
			ed = reload(next, preview, textures)
		default:
		}
		fc := clock.Tick()
		f := evalFrame(ed, fc)
		viewportErrs.report(f.ViewportErr)
		if cfg.OnFrame != nil {
			cfg.OnFrame(f.Color, f.ColorErr)
		}
		if title := cfg.Title + " " + f.Color.String(); title != lastTitle {
			window.SetTitle(title)
			lastTitle = title
		}
		err = preview.Render(f.Uniforms, f.CubeYaw+float32(yaw), f.SphereYaw+float32(yaw))
		if err != nil {
			log.Error("rendering preview", slog.Any("err", err))
		}
		width, height := window.GetFramebufferSize()
		c := f.Color.RGBA()
		gl.ClearColor(float32(c.R)/255, float32(c.G)/255, float32(c.B)/255, 1)
		gl.Clear(gl.COLOR_BUFFER_BIT)
		preview.BlitTo(width, height)
		window.SwapBuffers()
		time.Sleep(cfg.frameTime())
		glfw.PollEvents()
	}
	return nil
}

// reload swaps in a new editor, keeping the previous shader when the new one
// fails to compile.
func reload(next *shadergraph.Editor, preview *glrender.Preview, textures *TextureManager) *shadergraph.Editor {
	log := shadergraph.Logger()
	textures.Bind(next)
	src, err := glbuild.Generate(next.Nodes(), next.Graph())
	if err != nil {
		log.Error("generating shader", slog.Any("err", err))
	} else if err = preview.SetShader(src); err == nil {
		log.Info("shader reloaded", slog.Int("nodes", next.Graph().NumNodes()))
	}
	return next
}

func snapshot(ed *shadergraph.Editor, width, height int, fc shadergraph.FrameContext) (cube, sphere *image.RGBA, err error) {
	_, terminate, err := glgl.InitWithCurrentWindow33(glgl.WindowConfig{
		Title:   "snapshot",
		Version: [2]int{4, 6},
		Width:   1,
		Height:  1,
	})
	if err != nil {
		return nil, nil, err
	}
	defer terminate()
	textures := NewTextureManager(glrender.UploadTexture, glrender.DeleteTexture)
	defer textures.Close()
	textures.Bind(ed)
	src, err := glbuild.Generate(ed.Nodes(), ed.Graph())
	if err != nil {
		return nil, nil, err
	}
	preview, err := glrender.NewPreview(width, height, src)
	if err != nil {
		return nil, nil, err
	}
	defer preview.Close()
	f := evalFrame(ed, fc)
	if f.ViewportErr != nil {
		shadergraph.Logger().Warn("evaluating viewport input", slog.Any("err", f.ViewportErr))
	}
	err = preview.Render(f.Uniforms, f.CubeYaw, f.SphereYaw)
	if err != nil {
		return nil, nil, err
	}
	cube, sphere = preview.Snapshot()
	return cube, sphere, nil
}

func startGLFW(width, height int, title string) (window *glfw.Window, term func(), err error) {
	if err := glfw.Init(); err != nil {
		return nil, nil, fmt.Errorf("initializing GLFW: %w", err)
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.Resizable, glfw.False)

	window, err = glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("creating GLFW window: %w", err)
	}
	window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("initializing OpenGL: %w", err)
	}
	return window, glfw.Terminate, nil
}
