// Package sgaux is desktop glue for shader graphs: a GLFW preview window,
// headless preview snapshots and texture file loading.
package sgaux

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/soypat/shadergraph"
	"github.com/soypat/shadergraph/glbuild"
	"github.com/soypat/shadergraph/glrender"
)

// UIConfig configures the preview window opened by [UI].
type UIConfig struct {
	Width, Height int
	// Title of the window. The evaluated output color is appended to it.
	Title string
	// Context cancels the render loop when done. May be nil.
	Context context.Context
	// Updates delivers replacement editors, for example after the project
	// file changed on disk. May be nil.
	Updates <-chan *shadergraph.Editor
	// EmulateThreeButtonMouse is passed to every frame context.
	EmulateThreeButtonMouse bool
	// FrameRate limits the render loop. Zero selects 60 frames per second.
	FrameRate int
	// DragSensitivity is the rotation in radians per dragged pixel. Zero selects 0.005.
	DragSensitivity float64
	// OnFrame is called after every frame with the evaluated output color. May be nil.
	OnFrame func(shadergraph.Color, error)
}

func (cfg *UIConfig) setDefaults() {
	if cfg.Width <= 0 {
		cfg.Width = 2 * glrender.DefaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = glrender.DefaultHeight
	}
	if cfg.Title == "" {
		cfg.Title = "shadergraph preview"
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = 60
	}
	if cfg.DragSensitivity == 0 {
		cfg.DragSensitivity = 0.005
	}
}

func (cfg *UIConfig) frameTime() time.Duration {
	return time.Second / time.Duration(cfg.FrameRate)
}

// UI opens a window showing the cube preview on the left half and the sphere
// preview on the right half. Dragging with the left mouse button rotates both
// previews. It blocks until the window is closed or the context is done.
// Textures referenced by the editor are loaded after the window opens.
func UI(ed *shadergraph.Editor, cfg UIConfig) error {
	cfg.setDefaults()
	return ui(ed, cfg)
}

// ViewportRotations returns the model yaw in radians of the cube and sphere
// previews: the evaluated input of the first viewport node of each kind.
// Missing viewports yield zero. A viewport whose input fails to evaluate also
// yields zero and its error is joined into err.
func ViewportRotations(ed *shadergraph.Editor, fc shadergraph.FrameContext) (cube, sphere float32, err error) {
	var seenCube, seenSphere bool
	var cubeErr, sphereErr error
	for _, ui := range ed.Nodes() {
		switch k := ui.Kind.(type) {
		case shadergraph.CubeViewportKind:
			if !seenCube {
				seenCube = true
				cube, cubeErr = viewportInput(ed, k.Input, fc)
			}
		case shadergraph.SphereViewportKind:
			if !seenSphere {
				seenSphere = true
				sphere, sphereErr = viewportInput(ed, k.Input, fc)
			}
		}
	}
	return cube, sphere, errors.Join(cubeErr, sphereErr)
}

func viewportInput(ed *shadergraph.Editor, input int, fc shadergraph.FrameContext) (float32, error) {
	v, err := shadergraph.EvaluateScalar(ed.Graph(), input, fc)
	if err != nil {
		return 0, fmt.Errorf("viewport input %d: %w", input, err)
	}
	return v, nil
}

// errorLog logs a warning only when the error message differs from the last
// one reported. A nil error resets it.
type errorLog struct {
	msg  string
	last string
}

// report logs err if it is new and reports whether it did.
func (l *errorLog) report(err error) bool {
	var s string
	if err != nil {
		s = err.Error()
	}
	if s == l.last {
		return false
	}
	l.last = s
	if err == nil {
		return false
	}
	shadergraph.Logger().Warn(l.msg, slog.Any("err", err))
	return true
}

// frame is the per-frame state derived from an editor.
type frame struct {
	Color       shadergraph.Color
	ColorErr    error
	ViewportErr error
	Uniforms    glbuild.UniformValues
	CubeYaw     float32
	SphereYaw   float32
}

// evalFrame runs the per-frame editor work: the self-loop sweep, output color
// evaluation, uniform collection and viewport evaluation.
func evalFrame(ed *shadergraph.Editor, fc shadergraph.FrameContext) frame {
	ed.RemoveSelfLoops()
	var f frame
	f.Color, f.ColorErr = ed.OutputColor(fc)
	f.Uniforms = glbuild.Uniforms(ed.Nodes(), ed.Graph())
	f.CubeYaw, f.SphereYaw, f.ViewportErr = ViewportRotations(ed, fc)
	return f
}

// Snapshot renders the cube and sphere previews of ed offscreen at the given
// size and reads them back. It creates and destroys its own OpenGL context.
func Snapshot(ed *shadergraph.Editor, width, height int, fc shadergraph.FrameContext) (cube, sphere *image.RGBA, err error) {
	return snapshot(ed, width, height, fc)
}
