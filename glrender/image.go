package glrender

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/soypat/shadergraph"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// SwatchConfig configures swatch images of an evaluated output color.
type SwatchConfig struct {
	// Size is the side length in pixels of the square swatch.
	Size int
	// FontSize is the label size in points. Zero selects a size relative to Size.
	FontSize float64
	// NoLabel omits the hex label.
	NoLabel bool
}

var (
	labelFontOnce sync.Once
	labelFont     *truetype.Font
	labelFontErr  error
)

func loadLabelFont() (*truetype.Font, error) {
	labelFontOnce.Do(func() {
		labelFont, labelFontErr = truetype.Parse(goregular.TTF)
	})
	return labelFont, labelFontErr
}

// RenderSwatch fills dst with c and, unless disabled, draws label centered
// near the bottom edge in black or white, whichever contrasts with c.
func RenderSwatch(dst draw.Image, c shadergraph.Color, label string, cfg SwatchConfig) error {
	bb := dst.Bounds()
	if bb.Empty() {
		return ErrBadSize
	}
	draw.Draw(dst, bb, image.NewUniform(c.RGBA()), image.Point{}, draw.Src)
	if cfg.NoLabel || label == "" {
		return nil
	}
	f, err := loadLabelFont()
	if err != nil {
		return fmt.Errorf("parsing label font: %w", err)
	}
	size := cfg.FontSize
	if size <= 0 {
		size = float64(bb.Dy()) / 8
	}
	face := truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone})
	defer face.Close()
	width := font.MeasureString(face, label).Round()
	ascent := face.Metrics().Ascent.Round()

	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(f)
	ctx.SetFontSize(size)
	ctx.SetHinting(font.HintingNone)
	ctx.SetClip(bb)
	ctx.SetDst(dst)
	ctx.SetSrc(image.NewUniform(labelColor(c)))
	x := bb.Min.X + (bb.Dx()-width)/2
	y := bb.Max.Y - bb.Dy()/10
	if y-ascent < bb.Min.Y {
		return errors.New("swatch too small for label")
	}
	_, err = ctx.DrawString(label, freetype.Pt(x, y))
	return err
}

// labelColor returns black for light colors and white for dark ones using Rec. 601 luma.
func labelColor(c shadergraph.Color) color.Color {
	luma := 299*int(c.R) + 587*int(c.G) + 114*int(c.B)
	if luma > 128*1000 {
		return color.Black
	}
	return color.White
}

// NewSwatch returns a square swatch image of c labeled with its hex code.
func NewSwatch(c shadergraph.Color, cfg SwatchConfig) (*image.RGBA, error) {
	if cfg.Size <= 0 {
		return nil, ErrBadSize
	}
	img := image.NewRGBA(image.Rect(0, 0, cfg.Size, cfg.Size))
	err := RenderSwatch(img, c, c.String(), cfg)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// WriteSwatchPNG encodes a swatch of c as PNG to w.
func WriteSwatchPNG(w io.Writer, c shadergraph.Color, cfg SwatchConfig) error {
	img, err := NewSwatch(c, cfg)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}
