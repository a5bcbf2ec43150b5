// Package visualize renders the fitted nutrition tree and prediction
// probabilities as PNG images with gonum/plot.
package visualize

import (
	"bytes"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/ezoic/nutritrack/pkg/errors"
)

// Default image sizes.
var (
	TreeWidth   = 10 * vg.Inch
	TreeHeight  = 6 * vg.Inch
	ChartWidth  = 6 * vg.Inch
	ChartHeight = 3.5 * vg.Inch
)

// pngMagic is the PNG file signature.
var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// classPalette holds one color per class index.
var classPalette = []color.RGBA{
	{R: 0xe5, G: 0x81, B: 0x39, A: 0xff}, // orange
	{R: 0x39, G: 0x9d, B: 0xe5, A: 0xff}, // blue
	{R: 0x47, G: 0xc6, B: 0x4f, A: 0xff}, // green
	{R: 0x9b, G: 0x59, B: 0xb6, A: 0xff},
	{R: 0xe5, G: 0x39, B: 0x6b, A: 0xff},
}

// ClassColor returns the fill color of class index i.
func ClassColor(i int) color.RGBA {
	if i < 0 {
		i = -i
	}
	return classPalette[i%len(classPalette)]
}

// blend mixes c toward white; alpha 1 keeps c, alpha 0 gives white.
func blend(c color.RGBA, alpha float64) color.RGBA {
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	mix := func(v uint8) uint8 {
		return uint8(float64(v)*alpha + 255*(1-alpha) + 0.5)
	}
	return color.RGBA{R: mix(c.R), G: mix(c.G), B: mix(c.B), A: 0xff}
}

// RenderPNG draws p onto a w x h canvas and returns the encoded PNG.
func RenderPNG(p *plot.Plot, w, h vg.Length) ([]byte, error) {
	if p == nil {
		return nil, errors.NewValueError("RenderPNG", "nil plot")
	}
	if w <= 0 || h <= 0 {
		return nil, errors.NewValueErrorf("RenderPNG", "invalid size %vx%v", w, h)
	}

	c := vgimg.New(w, h)
	p.Draw(draw.New(c))

	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, "encode png")
	}
	return buf.Bytes(), nil
}

// IsPNG reports whether b starts with the PNG signature.
func IsPNG(b []byte) bool {
	return bytes.HasPrefix(b, pngMagic)
}
