package snowline

import (
	"image"
	"image/png"
	"os"
)

func saveGray16(path string, img *image.Gray16) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
