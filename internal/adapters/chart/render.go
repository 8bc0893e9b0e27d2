// internal/adapters/chart/render.go
package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sync"
	"time"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"

	"property_bot/internal/adapters/observability"
	"property_bot/internal/domain"
)

const (
	defaultWidth  = 1200
	defaultHeight = 700

	marginLeft   = 70
	marginRight  = 30
	marginTop    = 70
	marginBottom = 150

	maxLabelRunes = 15
)

var (
	airbnbColor  = color.RGBA{0xFF, 0x5A, 0x5F, 0xFF}
	bookingColor = color.RGBA{0x00, 0x35, 0x80, 0xFF}
	gridColor    = color.RGBA{0xDD, 0xDD, 0xDD, 0xFF}
	axisColor    = color.RGBA{0x33, 0x33, 0x33, 0xFF}
	textColor    = color.RGBA{0x22, 0x22, 0x22, 0xFF}
)

var (
	fontOnce   sync.Once
	parsedFont *truetype.Font
	fontErr    error
)

func loadFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		parsedFont, fontErr = freetype.ParseFont(goregular.TTF)
		if fontErr != nil {
			log.Warn().Err(fontErr).Msg("parse chart font failed, using basic font")
		}
	})
	return parsedFont, fontErr
}

// Renderer draws grouped Airbnb/Booking bar charts as PNG.
// It keeps no mutable state and may be shared between goroutines.
type Renderer struct {
	Width, Height int
}

func New() *Renderer { return &Renderer{Width: defaultWidth, Height: defaultHeight} }

// RenderRatings draws one pair of bars per entry on a fixed 0..5 axis.
func (r *Renderer) RenderRatings(entries []domain.RankedEntry, title string) ([]byte, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("render chart: %w", domain.ErrNoData)
	}
	start := time.Now()
	defer func() { observability.ObserveChart(time.Since(start)) }()

	w, h := r.Width, r.Height
	if w <= 0 || h <= 0 {
		w, h = defaultWidth, defaultHeight
	}
	lay := newLayout(w, h, len(entries))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	titleFace, closeTitle := newFace(20)
	defer closeTitle()
	face, closeFace := newFace(12)
	defer closeFace()

	// grid and y axis ticks
	for v := 0; v <= int(domain.RatingMax); v++ {
		y := lay.yFor(float64(v))
		fillRect(img, image.Rect(lay.plot.Min.X, y, lay.plot.Max.X, y+1), gridColor)
		label := fmt.Sprintf("%d", v)
		drawText(img, face, label, lay.plot.Min.X-10-measure(face, label), y+4)
	}
	fillRect(img, image.Rect(lay.plot.Min.X-1, lay.plot.Min.Y, lay.plot.Min.X+1, lay.plot.Max.Y), axisColor)
	fillRect(img, image.Rect(lay.plot.Min.X, lay.plot.Max.Y-1, lay.plot.Max.X, lay.plot.Max.Y+1), axisColor)

	for i, e := range entries {
		a, b := lay.bars(i)
		drawBar(img, face, a, e.Property.Airbnb, airbnbColor, lay)
		drawBar(img, face, b, e.Property.Booking, bookingColor, lay)

		label := truncateLabel(e.Property.Name, e.Property.ID)
		cx := (a.Min.X + b.Max.X) / 2
		y := lay.plot.Max.Y + 20
		if i%2 == 1 {
			y += 18
		}
		drawText(img, face, label, cx-measure(face, label)/2, y)
	}

	drawText(img, titleFace, title, (w-measure(titleFace, title))/2, marginTop/2+8)
	drawText(img, face, "Rating (0-5)", 8, marginTop-20)
	drawLegend(img, face, lay)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return buf.Bytes(), nil
}

// layout holds the plot geometry for n groups.
type layout struct {
	w, h   int
	n      int
	plot   image.Rectangle
	groupW float64
	barW   int
}

func newLayout(w, h, n int) layout {
	plot := image.Rect(marginLeft, marginTop, w-marginRight, h-marginBottom)
	gw := float64(plot.Dx()) / float64(n)
	bw := int(gw * 0.35)
	if bw < 1 {
		bw = 1
	}
	return layout{w: w, h: h, n: n, plot: plot, groupW: gw, barW: bw}
}

// yFor maps a rating to a pixel row; values are clamped to the axis.
func (l layout) yFor(v float64) int {
	if v < domain.RatingMin {
		v = domain.RatingMin
	}
	if v > domain.RatingMax {
		v = domain.RatingMax
	}
	return l.plot.Max.Y - int(v/domain.RatingMax*float64(l.plot.Dy()))
}

// bars returns the full-height column for the Airbnb and Booking bars of group i.
func (l layout) bars(i int) (airbnb, booking image.Rectangle) {
	center := l.plot.Min.X + int(l.groupW*float64(i)+l.groupW/2)
	airbnb = image.Rect(center-l.barW, l.plot.Min.Y, center, l.plot.Max.Y)
	booking = image.Rect(center, l.plot.Min.Y, center+l.barW, l.plot.Max.Y)
	return airbnb, booking
}

func drawBar(img *image.RGBA, face font.Face, col image.Rectangle, m domain.Measure, c color.RGBA, lay layout) {
	base := lay.plot.Max.Y - 1
	if !m.Known {
		label := "N/A"
		drawText(img, face, label, col.Min.X+(col.Dx()-measure(face, label))/2, base-4)
		return
	}
	top := lay.yFor(m.Value)
	if top < base {
		fillRect(img, image.Rect(col.Min.X, top, col.Max.X, base), c)
	}
	label := fmt.Sprintf("%.1f", m.Value)
	drawText(img, face, label, col.Min.X+(col.Dx()-measure(face, label))/2, top-4)
}

func drawLegend(img *image.RGBA, face font.Face, lay layout) {
	y := lay.h - 40
	x := lay.plot.Min.X
	for _, it := range []struct {
		name string
		c    color.RGBA
	}{{"Airbnb", airbnbColor}, {"Booking", bookingColor}} {
		fillRect(img, image.Rect(x, y-12, x+16, y+2), it.c)
		drawText(img, face, it.name, x+22, y)
		x += 22 + measure(face, it.name) + 30
	}
}

func truncateLabel(name, id string) string {
	if name == "" {
		name = "ID " + id
	}
	r := []rune(name)
	if len(r) <= maxLabelRunes {
		return name
	}
	return string(r[:maxLabelRunes]) + "..."
}

/********** drawing helpers **********/

// newFace falls back to the 7x13 bitmap font when the TTF cannot be parsed.
func newFace(size float64) (font.Face, func()) {
	f, err := loadFont()
	if err != nil {
		return basicfont.Face7x13, func() {}
	}
	face := truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
	return face, func() { _ = face.Close() }
}

func drawText(img *image.RGBA, face font.Face, s string, x, y int) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(textColor),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(s)
}

func measure(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}
