//go:build tinygo || !cgo

package sgaux

import (
	"errors"
	"image"

	"github.com/soypat/shadergraph"
)

var errNoCGO = errors.New("require cgo for UI rendering")

func ui(ed *shadergraph.Editor, cfg UIConfig) error {
	return errNoCGO
}

func snapshot(ed *shadergraph.Editor, width, height int, fc shadergraph.FrameContext) (cube, sphere *image.RGBA, err error) {
	return nil, nil, errNoCGO
}
