package capture

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
)

// ErrEmptySignature is returned by SignatureData when nothing has been
// drawn since the last Clear.
var ErrEmptySignature = errors.New("signature is empty")

// StrokePoint is one sampled point of a signature stroke.
type StrokePoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SignatureCapture accumulates free-hand strokes over a fixed-size
// canvas and renders them to a PNG data URL. Not safe for concurrent
// use; each capture surface owns one instance.
type SignatureCapture struct {
	width   int
	height  int
	strokes [][]StrokePoint
	current []StrokePoint
}

func NewSignatureCapture(width, height int) *SignatureCapture {
	if width <= 0 {
		width = 400
	}
	if height <= 0 {
		height = 150
	}
	return &SignatureCapture{width: width, height: height}
}

// BeginStroke starts a new stroke at the given canvas position. An
// unfinished previous stroke is committed first.
func (s *SignatureCapture) BeginStroke(x, y float64) {
	s.EndStroke()
	s.current = []StrokePoint{{X: x, Y: y}}
}

// AddPoint extends the stroke in progress. Without a BeginStroke it
// starts one, matching a drag that began off-canvas.
func (s *SignatureCapture) AddPoint(x, y float64) {
	if s.current == nil {
		s.BeginStroke(x, y)
		return
	}
	s.current = append(s.current, StrokePoint{X: x, Y: y})
}

// EndStroke commits the stroke in progress.
func (s *SignatureCapture) EndStroke() {
	if len(s.current) > 0 {
		s.strokes = append(s.strokes, s.current)
		s.current = nil
	}
}

// Clear discards all strokes.
func (s *SignatureCapture) Clear() {
	s.strokes = nil
	s.current = nil
}

// IsEmpty reports whether anything has been drawn since the last
// Clear. A stroke still in progress counts as drawn.
func (s *SignatureCapture) IsEmpty() bool {
	return len(s.strokes) == 0 && len(s.current) == 0
}

// SignatureData renders the strokes onto a white canvas and returns
// the result as a PNG data URL.
func (s *SignatureCapture) SignatureData() (string, error) {
	if s.IsEmpty() {
		return "", ErrEmptySignature
	}

	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	ink := color.RGBA{A: 255}
	for _, stroke := range s.allStrokes() {
		if len(stroke) == 1 {
			s.plot(img, stroke[0].X, stroke[0].Y, ink)
			continue
		}
		for i := 1; i < len(stroke); i++ {
			s.line(img, stroke[i-1], stroke[i], ink)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode signature: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func (s *SignatureCapture) allStrokes() [][]StrokePoint {
	if len(s.current) == 0 {
		return s.strokes
	}
	return append(append([][]StrokePoint{}, s.strokes...), s.current)
}

// line draws a segment by sampling it at pixel granularity.
func (s *SignatureCapture) line(img *image.RGBA, from, to StrokePoint, c color.Color) {
	steps := int(math.Max(math.Abs(to.X-from.X), math.Abs(to.Y-from.Y)))
	if steps == 0 {
		s.plot(img, from.X, from.Y, c)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		s.plot(img, from.X+(to.X-from.X)*t, from.Y+(to.Y-from.Y)*t, c)
	}
}

func (s *SignatureCapture) plot(img *image.RGBA, x, y float64, c color.Color) {
	px, py := int(math.Round(x)), int(math.Round(y))
	if px < 0 || py < 0 || px >= s.width || py >= s.height {
		return
	}
	img.Set(px, py, c)
}
