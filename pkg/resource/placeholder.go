package resource

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"
)

const (
	placeholderWidth  = 160
	placeholderHeight = 90
)

var (
	placeholderOnce sync.Once
	placeholderPNG  []byte
)

// Placeholder returns the PNG substituted for images that could not be
// resolved: a light grey frame with a darker border. The bytes are identical
// on every call; callers must not modify them.
func Placeholder() []byte {
	placeholderOnce.Do(func() {
		img := image.NewGray(image.Rect(0, 0, placeholderWidth, placeholderHeight))
		fill := color.Gray{Y: 0xee}
		border := color.Gray{Y: 0x99}
		for y := 0; y < placeholderHeight; y++ {
			for x := 0; x < placeholderWidth; x++ {
				c := fill
				if x < 2 || y < 2 || x >= placeholderWidth-2 || y >= placeholderHeight-2 {
					c = border
				}
				// Diagonal cross.
				if abs(x*placeholderHeight-y*placeholderWidth) < placeholderWidth ||
					abs(x*placeholderHeight-(placeholderHeight-1-y)*placeholderWidth) < placeholderWidth {
					c = border
				}
				img.SetGray(x, y, c)
			}
		}

		var buf bytes.Buffer
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			panic("resource: failed to encode placeholder: " + err.Error())
		}
		placeholderPNG = buf.Bytes()
	})
	return placeholderPNG
}

// PlaceholderSize returns the pixel size of the placeholder image.
func PlaceholderSize() (width, height int) {
	return placeholderWidth, placeholderHeight
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
