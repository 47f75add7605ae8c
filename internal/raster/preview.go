package raster

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// PreviewResult contains a colour-mapped rendering of a band.
type PreviewResult struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Low         float64 `json:"low"`
	High        float64 `json:"high"`
	ImageBase64 string  `json:"image_base64"`
	MimeType    string  `json:"mime_type"`
}

// terrainRamp runs from lowland green through rock brown to snow white.
var terrainRamp = []colorful.Color{
	mustParseHex("#1a6b35"),
	mustParseHex("#8c6d46"),
	mustParseHex("#ffffff"),
}

// mustParseHex parses a hex colour literal, panicking if it is malformed.
func mustParseHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic("mustParseHex: " + err.Error())
	}
	return c
}

// Preview renders b through a terrain colour ramp as a base64 PNG.
//
// Samples at or below low map to the first ramp colour and samples at or
// above high to the last. When high <= low the band's own min/max are used.
// A scale other than 1 resizes the output with nearest-neighbour sampling so
// class boundaries stay sharp. NaN samples are transparent.
func Preview(b *Band, low, high, scale float64) (*PreviewResult, error) {
	if high <= low {
		var err error
		low, high, err = MinMax(b)
		if err != nil {
			return nil, err
		}
	}

	bounds := b.Bounds()
	img := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := b.Value(x, y)
			if math.IsNaN(v) {
				continue
			}
			img.Set(x-bounds.Min.X, y-bounds.Min.Y, rampColor(v, low, high))
		}
	}

	var out image.Image = img
	if scale != 1.0 && scale > 0 {
		w := int(float64(bounds.Dx()) * scale)
		h := int(float64(bounds.Dy()) * scale)
		if w < 1 || h < 1 {
			return nil, fmt.Errorf("scale %g collapses %dx%d preview", scale, bounds.Dx(), bounds.Dy())
		}
		out = imaging.Resize(img, w, h, imaging.NearestNeighbor)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	return &PreviewResult{
		Width:       out.Bounds().Dx(),
		Height:      out.Bounds().Dy(),
		Low:         low,
		High:        high,
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

func rampColor(v, low, high float64) color.Color {
	t := 0.0
	if high > low {
		t = math.Max(0, math.Min(1, (v-low)/(high-low)))
	}

	segments := float64(len(terrainRamp) - 1)
	pos := t * segments
	i := int(pos)
	if i >= len(terrainRamp)-1 {
		i = len(terrainRamp) - 2
	}
	c := terrainRamp[i].BlendLab(terrainRamp[i+1], pos-float64(i)).Clamped()
	r, g, bl := c.RGB255()
	return color.NRGBA{R: r, G: g, B: bl, A: 255}
}
