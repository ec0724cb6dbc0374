package model_test

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/wudi/inventorkit/ir/model"
)

func TestParseThumbnailPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 3))); err != nil {
		t.Fatal(err)
	}
	th := model.ParseThumbnail(buf.Bytes())
	if th == nil || th.Format != "png" || th.Width != 2 || th.Height != 3 {
		t.Fatalf("thumbnail = %+v", th)
	}
}

func TestParseThumbnailUnknownFormatKeepsBytes(t *testing.T) {
	data := []byte{0, 1, 2, 3}
	th := model.ParseThumbnail(data)
	if th == nil || th.Format != "" || len(th.Data) != 4 {
		t.Fatalf("thumbnail = %+v", th)
	}
	if model.ParseThumbnail(nil) != nil {
		t.Fatal("no data means no thumbnail")
	}
}
