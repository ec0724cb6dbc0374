package model

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
)

// ParseThumbnail interprets the preview image header. Only the dimensions and
// format name are decoded; the pixel data stays as found. An image in a format
// the decoder does not register rides through with an empty format name.
func ParseThumbnail(data []byte) *Thumbnail {
	if len(data) == 0 {
		return nil
	}
	t := &Thumbnail{Data: data}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return t
	}
	t.Format = format
	t.Width = cfg.Width
	t.Height = cfg.Height
	return t
}
